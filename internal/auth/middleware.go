package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/mirecad/AspAzureAdGroupsAuthorization/internal/web/session"
)

// RequireRole creates Fiber middleware that requires a specific role.
func RequireRole(authService *Service, role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Get session cookie
		sessionID := c.Cookies("session")
		if sessionID == "" {
			log.Error().Msg("No session cookie found")
			return c.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
		}

		// Read session data
		sessionData := new(session.Data)
		if err := sessionData.Read(sessionID); err != nil {
			log.Error().Err(err).Msg("Failed to read session")
			return c.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
		}

		// Check if the session is valid
		if sessionData.User.ID == 0 {
			log.Error().Msg("Invalid session data")
			return c.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
		}

		// Check if the user holds the role
		hasRole, err := authService.HasRole(sessionData.User.ID, role)
		if err != nil {
			log.Error().Err(err).Uint64("user_id", sessionData.User.ID).Str("role", role).
				Msg("Failed to check role")

			return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
		}

		if !hasRole {
			log.Warn().Uint64("user_id", sessionData.User.ID).Str("role", role).
				Msg("User lacks required role")

			return c.Status(fiber.StatusForbidden).SendString("Forbidden: You don't have permission to access this resource")
		}

		// User holds the role, proceed
		return c.Next()
	}
}

// RequireAnyRole creates Fiber middleware that requires at least one of the given roles.
func RequireAnyRole(authService *Service, roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Get session cookie
		sessionID := c.Cookies("session")
		if sessionID == "" {
			return c.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
		}

		// Read session data
		sessionData := new(session.Data)
		if err := sessionData.Read(sessionID); err != nil {
			return c.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
		}

		if sessionData.User.ID == 0 {
			return c.Status(fiber.StatusUnauthorized).SendString("Unauthorized")
		}

		// Check if user holds any of the roles
		hasRole, err := authService.HasAnyRole(sessionData.User.ID, roles)
		if err != nil {
			log.Error().Err(err).Uint64("user_id", sessionData.User.ID).Strs("roles", roles).
				Msg("Failed to check roles")

			return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
		}

		if !hasRole {
			log.Warn().Uint64("user_id", sessionData.User.ID).Strs("roles", roles).
				Msg("User lacks required roles")

			return c.Status(fiber.StatusForbidden).SendString("Forbidden: You don't have permission to access this resource")
		}

		// User holds at least one role, proceed
		return c.Next()
	}
}

// AddRolesToLocals is a Fiber middleware that adds the user's roles to fiber.Locals.
// This allows handlers to access the role set without a second lookup.
func AddRolesToLocals(authService *Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := c.Cookies("session")
		if sessionID == "" {
			// Not authenticated, continue without roles
			return c.Next()
		}

		sessionData := new(session.Data)
		if err := sessionData.Read(sessionID); err != nil {
			// Invalid session, continue without roles
			return c.Next()
		}

		if sessionData.User.ID == 0 {
			// Invalid session data, continue without roles
			return c.Next()
		}

		roles, err := authService.GetUserRoles(sessionData.User.ID)
		if err != nil {
			log.Error().Err(err).Uint64("user_id", sessionData.User.ID).
				Msg("Failed to get user roles")

			return c.Next()
		}

		c.Locals("roles", roles)

		return c.Next()
	}
}

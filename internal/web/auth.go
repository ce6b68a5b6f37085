package web

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	oidchandler "github.com/mirecad/AspAzureAdGroupsAuthorization/internal/web/handler/auth/oidc"
	"github.com/mirecad/AspAzureAdGroupsAuthorization/internal/web/session"
)

// AuthMiddleware is a Fiber middleware that checks for user authentication.
func AuthMiddleware(c *fiber.Ctx) error {
	var (
		isAuthPage    = IsAuthPage(c)
		sessDataValid bool
	)

	originalURL := strings.ToLower(c.OriginalURL())
	if strings.HasPrefix(originalURL, checkAlivePath) {
		return c.Next()
	}

	// get session cookie
	loginCookie := c.Cookies("session")

	// if no session cookie, redirect to login
	if loginCookie == "" && !isAuthPage {
		return c.Redirect(oidchandler.LoginPath)
	}

	// check session validity
	sessData := new(session.Data)
	_ = sessData.Read(loginCookie)

	// valid data in session
	if sessData.User.ID > 0 {
		sessDataValid = true
	}

	if !sessDataValid && !isAuthPage {
		return c.Redirect(oidchandler.LoginPath)
	}

	return c.Next()
}

// IsAuthPage checks if the current request is part of the login flow.
func IsAuthPage(c *fiber.Ctx) bool {
	originalURL := strings.ToLower(c.OriginalURL())
	return strings.HasPrefix(originalURL, "/auth/oidc")
}

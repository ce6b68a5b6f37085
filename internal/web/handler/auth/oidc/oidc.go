package oidc

import (
	"context"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/mirecad/AspAzureAdGroupsAuthorization/internal/auth"
	"github.com/mirecad/AspAzureAdGroupsAuthorization/internal/config"
	"github.com/mirecad/AspAzureAdGroupsAuthorization/internal/graph"
	"github.com/mirecad/AspAzureAdGroupsAuthorization/internal/web/handler"
	"github.com/mirecad/AspAzureAdGroupsAuthorization/internal/web/handler/dashboard"
	"github.com/mirecad/AspAzureAdGroupsAuthorization/internal/web/session"
)

const (
	// LoginPath is the path to initiate OIDC login.
	LoginPath = handler.RootPath + "auth/oidc/login"

	// CallbackPath is the path for OIDC callback.
	CallbackPath = handler.RootPath + "auth/oidc/callback"

	// LogoutPath is the path for OIDC logout.
	LogoutPath = handler.RootPath + "auth/oidc/logout"

	// stateTTL is how long a pending login state token stays valid.
	stateTTL = 5 * time.Minute
)

// Service is the OIDC handler service.
type Service struct {
	handler.Service
	cfg          *config.Config
	db           *gorm.DB
	oidcProvider *auth.OIDCProvider
	enricher     *auth.Enricher

	stateMu    sync.Mutex
	stateStore map[string]time.Time
}

// Handler is the OIDC handler.
var Handler = Service{
	stateStore: make(map[string]time.Time),
}

// Init initializes the OIDC handler. It wires the OIDC provider, the
// on-behalf-of token exchanger and the group membership resolver together.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.db = db
	s.cfg = cfg

	oidcConfig := auth.OIDCConfig{
		TenantID:     cfg.Auth.TenantID,
		ClientID:     cfg.Auth.ClientID,
		ClientSecret: cfg.Auth.ClientSecret,
		RedirectURL:  cfg.Auth.RedirectURL,
		Scopes:       cfg.Auth.Scopes,
	}

	ctx := context.Background()

	oidcProvider, err := auth.NewOIDCProvider(ctx, &oidcConfig, db)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize OIDC provider")
		return
	}

	s.oidcProvider = oidcProvider

	exchanger, err := graph.NewTokenExchanger(graph.Credential{
		TenantID:     cfg.Auth.TenantID,
		ClientID:     cfg.Auth.ClientID,
		ClientSecret: cfg.Auth.ClientSecret,
	}, cfg.Auth.GraphScopes)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize token exchanger")
		return
	}

	s.enricher = auth.NewEnricher(exchanger, graph.NewMembershipResolver(), auth.NewService(db))

	log.Info().Msg("OIDC authentication provider initialized")

	// Register routes
	app.Get(LoginPath, s.Login)
	app.Get(CallbackPath, s.Callback)
	app.Get(LogoutPath, s.Logout)

	// Start state cleanup goroutine
	go s.cleanupStates()
}

// Login initiates the OIDC login flow.
func (s *Service) Login(c *fiber.Ctx) error {
	if s.oidcProvider == nil {
		return c.Status(fiber.StatusServiceUnavailable).SendString("OIDC authentication is not available")
	}

	// Generate state token for CSRF protection
	state := auth.GenerateStateToken()

	s.stateMu.Lock()
	s.stateStore[state] = time.Now().Add(stateTTL)
	s.stateMu.Unlock()

	// Redirect to OIDC provider
	return c.Redirect(s.oidcProvider.GetAuthURL(state))
}

// Callback handles the OIDC callback. After the authorization code exchange
// the caller token is traded for a delegated Microsoft Graph token, the
// configured group mappings are checked against the directory and the
// resulting roles are attached to the new session. An enrichment failure
// denies the login; a session is never created with unresolved roles.
func (s *Service) Callback(c *fiber.Ctx) error {
	if s.oidcProvider == nil {
		return c.Status(fiber.StatusServiceUnavailable).SendString("OIDC authentication is not available")
	}

	// Get code and state from query parameters
	code := c.Query("code")
	state := c.Query("state")

	if code == "" || state == "" {
		log.Error().Msg("missing code or state in OIDC callback")
		return c.Status(fiber.StatusBadRequest).SendString("Invalid callback parameters")
	}

	if !s.consumeState(state) {
		log.Error().Msg("invalid or expired state token")
		return c.Status(fiber.StatusBadRequest).SendString("Invalid state token")
	}

	ctx := c.UserContext()

	authenticatedUser, callerToken, err := s.oidcProvider.HandleCallback(ctx, code)
	if err != nil {
		log.Error().Err(err).Msg("OIDC authentication failed")
		return c.Status(fiber.StatusUnauthorized).SendString("Authentication failed")
	}

	// Resolve directory group membership into roles. The caller token is
	// used once for the on-behalf-of exchange and then discarded.
	roles, err := s.enricher.Enrich(ctx, callerToken, authenticatedUser.ID)
	if err != nil {
		log.Error().Err(err).Uint64("user_id", authenticatedUser.ID).Msg("role enrichment failed")
		return c.Status(fiber.StatusUnauthorized).SendString("Authentication failed")
	}

	// Create session
	sessionID := session.GenerateSessionID()

	userSession := &session.Data{
		User:  *authenticatedUser,
		Roles: roles,
	}

	if err = userSession.Write(sessionID, s.cfg.Webserver.Session.ExpiryTime); err != nil {
		log.Error().Err(err).Msg("failed to write session")
		return c.Status(fiber.StatusInternalServerError).SendString("Internal server error")
	}

	// Set login cookie
	cookieSettings := &fiber.Cookie{
		Name:     "session",
		Value:    sessionID,
		MaxAge:   int(s.cfg.Webserver.Session.ExpiryTime.Seconds()),
		Secure:   true,
		HTTPOnly: true,
		SameSite: "Lax",
	}

	if s.cfg.DevMode {
		cookieSettings.Secure = false
	}

	c.Cookie(cookieSettings)

	log.Info().
		Str("username", authenticatedUser.Username).
		Strs("roles", roles).
		Msg("user logged in via OIDC")

	return c.Redirect(dashboard.Path)
}

// Logout destroys the session and redirects to the provider end session endpoint.
func (s *Service) Logout(c *fiber.Ctx) error {
	if sessionID := c.Cookies("session"); sessionID != "" {
		if err := session.Destroy(sessionID); err != nil {
			log.Warn().Err(err).Msg("failed to destroy session")
		}
	}

	c.ClearCookie("session")

	if s.oidcProvider != nil {
		postLogoutRedirectURI := s.cfg.Webserver.URL

		if logoutURL := s.oidcProvider.GetLogoutURL("", postLogoutRedirectURI); logoutURL != "" {
			return c.Redirect(logoutURL)
		}
	}

	return c.Redirect(LoginPath)
}

// consumeState validates and removes a state token. A token is single use.
func (s *Service) consumeState(state string) bool {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	expiration, exists := s.stateStore[state]
	if !exists {
		return false
	}

	delete(s.stateStore, state)

	return time.Now().Before(expiration)
}

// cleanupStates periodically removes expired state tokens.
func (s *Service) cleanupStates() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()

		s.stateMu.Lock()
		for state, expiration := range s.stateStore {
			if now.After(expiration) {
				delete(s.stateStore, state)
			}
		}
		s.stateMu.Unlock()
	}
}

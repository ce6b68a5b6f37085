package config

import (
	"time"

	"github.com/mirecad/AspAzureAdGroupsAuthorization/internal/logger"
)

// Session settings.
type Session struct {
	ExpiryTime time.Duration
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Auth      Auth
}

// Webserver implement webserver settings.
type Webserver struct {
	CleanPath      bool    // use clean path middleware to allow multi slash requests
	DisableRecover bool    // disable recover middleware
	Domain         string  // domain name for the webserver
	Port           int     // listening port for the webserver
	ShutDownTime   int     // wait time for shutdown
	URL            string  // base url for the webserver
	Session        Session // session settings
}

// Auth holds the Azure AD settings for primary OIDC login and for the
// on-behalf-of exchange. ClientSecret is sensitive and must never be logged.
type Auth struct {
	// TenantID is the Azure AD tenant (directory) ID.
	TenantID string
	// ClientID is the application (client) ID registered in Azure AD.
	ClientID string
	// ClientSecret is the confidential client secret.
	ClientSecret string
	// RedirectURL is the OAuth2 callback URL registered for the application.
	RedirectURL string
	// Scopes are the OIDC scopes requested at login (default: openid, profile, email).
	Scopes []string
	// GraphScopes are the scopes requested in the on-behalf-of exchange
	// (e.g. "User.Read"). Must not be empty.
	GraphScopes []string
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/mirecad/AspAzureAdGroupsAuthorization/internal/db/models"
	"github.com/mirecad/AspAzureAdGroupsAuthorization/internal/uniuri"
)

// issuerURLFormat is the Azure AD v2.0 issuer, keyed by tenant ID.
const issuerURLFormat = "https://login.microsoftonline.com/%s/v2.0"

// stateTokenLen is the length of the random CSRF state token.
const stateTokenLen = 43

// OIDCConfig holds OpenID Connect (OIDC) configuration for authentication
// against Azure AD.
type OIDCConfig struct {
	// TenantID is the Azure AD tenant (directory) ID.
	TenantID string
	// ClientID is the OAuth2 client identifier.
	ClientID string
	// ClientSecret is the OAuth2 client secret. Never logged.
	ClientSecret string
	// RedirectURL is the OAuth2 callback URL where the provider redirects after authentication.
	RedirectURL string
	// Scopes are the OAuth2 scopes to request (default: ["openid", "profile", "email"]).
	Scopes []string
	// IssuerURL overrides the derived Azure AD issuer. Used in tests.
	IssuerURL string
}

// OIDCProvider handles OIDC authentication.
type OIDCProvider struct {
	config   *OIDCConfig
	provider *oidc.Provider
	verifier *oidc.IDTokenVerifier
	oauth2   oauth2.Config
	db       *gorm.DB
}

// NewOIDCProvider creates a new OIDC provider for the configured tenant.
func NewOIDCProvider(ctx context.Context, config *OIDCConfig, db *gorm.DB) (*OIDCProvider, error) {
	issuer := config.IssuerURL
	if issuer == "" {
		issuer = fmt.Sprintf(issuerURLFormat, config.TenantID)
	}

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	verifier := provider.Verifier(&oidc.Config{
		ClientID: config.ClientID,
	})

	scopes := config.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "profile", "email"}
	}

	oauth2Config := oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		RedirectURL:  config.RedirectURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       scopes,
	}

	return &OIDCProvider{
		config:   config,
		provider: provider,
		verifier: verifier,
		oauth2:   oauth2Config,
		db:       db,
	}, nil
}

// GenerateStateToken generates a random state token for CSRF protection.
func GenerateStateToken() string {
	return uniuri.NewLen(stateTokenLen)
}

// GetAuthURL returns the OIDC authorization URL with state token.
func (p *OIDCProvider) GetAuthURL(state string) string {
	return p.oauth2.AuthCodeURL(state)
}

// HandleCallback handles the OIDC callback. It returns the provisioned user
// together with the raw access token from the code exchange; the access token
// is the caller token for the subsequent on-behalf-of exchange and must not
// be persisted.
func (p *OIDCProvider) HandleCallback(ctx context.Context, code string) (*models.User, string, error) {
	// Exchange code for token
	oauth2Token, err := p.oauth2.Exchange(ctx, code)
	if err != nil {
		return nil, "", fmt.Errorf("failed to exchange token: %w", err)
	}

	if oauth2Token.AccessToken == "" {
		return nil, "", ErrNoAccessToken
	}

	// Extract ID token
	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		return nil, "", ErrNoIDToken
	}

	// Verify ID token
	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, "", fmt.Errorf("failed to verify ID token: %w", err)
	}

	// Extract claims. Group membership is intentionally not read from claims:
	// Azure AD omits the groups claim in the overage case, which is exactly
	// the case this application exists for.
	var claims struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		GivenName     string `json:"given_name"`
		FamilyName    string `json:"family_name"`
	}

	if err = idToken.Claims(&claims); err != nil {
		return nil, "", fmt.Errorf("failed to parse claims: %w", err)
	}

	// Find or create user
	var user models.User

	err = p.db.Where("external_id = ?", claims.Sub).First(&user).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		// Create new user
		user = models.User{
			Active:     true,
			Username:   claims.Email, // Use email as username
			Email:      claims.Email,
			FirstName:  claims.GivenName,
			LastName:   claims.FamilyName,
			ExternalID: claims.Sub,
			CreatedAt:  time.Now(),
			UpdatedAt:  time.Now(),
		}

		if err = p.db.Create(&user).Error; err != nil {
			return nil, "", fmt.Errorf("failed to create user: %w", err)
		}
	case err != nil:
		return nil, "", fmt.Errorf("failed to query user: %w", err)
	default:
		// Update existing user
		user.Email = claims.Email
		user.FirstName = claims.GivenName
		user.LastName = claims.FamilyName
		user.UpdatedAt = time.Now()

		if err = p.db.Save(&user).Error; err != nil {
			return nil, "", fmt.Errorf("failed to update user: %w", err)
		}
	}

	if !user.Active {
		return nil, "", ErrUserAccountDisabled
	}

	return &user, oauth2Token.AccessToken, nil
}

// VerifyToken verifies the signature and claims of an OIDC ID token.
// It validates the token was issued by the configured provider and hasn't expired.
func (p *OIDCProvider) VerifyToken(ctx context.Context, rawToken string) (*oidc.IDToken, error) {
	return p.verifier.Verify(ctx, rawToken)
}

// GetLogoutURL constructs the OIDC provider's logout URL if supported.
// It includes the ID token hint and post-logout redirect URI parameters.
// Returns an empty string if the provider doesn't support logout endpoints.
func (p *OIDCProvider) GetLogoutURL(idToken, postLogoutRedirectURI string) string {
	// Check if provider supports end_session_endpoint
	var claims struct {
		EndSessionEndpoint string `json:"end_session_endpoint"`
	}

	if err := p.provider.Claims(&claims); err != nil || claims.EndSessionEndpoint == "" {
		// Provider doesn't support logout endpoint
		return ""
	}

	return fmt.Sprintf("%s?id_token_hint=%s&post_logout_redirect_uri=%s",
		claims.EndSessionEndpoint,
		idToken,
		postLogoutRedirectURI,
	)
}

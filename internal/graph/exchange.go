package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// oboGrantType is the OAuth2 grant type for the on-behalf-of flow.
	oboGrantType = "urn:ietf:params:oauth:grant-type:jwt-bearer"

	// tokenURLFormat is the Azure AD v2.0 token endpoint, keyed by tenant ID.
	tokenURLFormat = "https://login.microsoftonline.com/%s/oauth2/v2.0/token"

	defaultTimeout = 30 * time.Second

	// maxErrorBodySize bounds how much of an error response body is read.
	maxErrorBodySize = 64 * 1024
)

// Credential holds the application's confidential client credential for the
// on-behalf-of exchange. It is loaded once at startup and is safe for
// concurrent use. The client secret must never be logged.
type Credential struct {
	// TenantID is the Azure AD tenant (directory) ID.
	TenantID string
	// ClientID is the application (client) ID.
	ClientID string
	// ClientSecret is the confidential client secret.
	ClientSecret string
}

// validate reports the first missing credential field.
func (c Credential) validate() error {
	switch {
	case c.TenantID == "":
		return ErrMissingTenantID
	case c.ClientID == "":
		return ErrMissingClientID
	case c.ClientSecret == "":
		return ErrMissingClientSecret
	default:
		return nil
	}
}

// DelegatedToken is an access token obtained via the on-behalf-of exchange,
// scoped for calling Microsoft Graph as the user. It is owned by a single
// resolution and is never persisted or shared across sessions.
type DelegatedToken struct {
	// AccessToken is the opaque bearer token.
	AccessToken string
	// Expiry is the provider-reported expiry time.
	Expiry time.Time
}

// TokenExchanger performs the on-behalf-of grant against the Azure AD token
// endpoint. It holds only immutable configuration and is safe for concurrent
// use by many simultaneous authentication events.
type TokenExchanger struct {
	cred     Credential
	scopes   []string
	tokenURL string
	client   *http.Client
}

// ExchangerOption configures a TokenExchanger.
type ExchangerOption func(*TokenExchanger)

// WithTokenURL overrides the token endpoint. Used in tests.
func WithTokenURL(u string) ExchangerOption {
	return func(e *TokenExchanger) {
		e.tokenURL = u
	}
}

// WithHTTPClient overrides the HTTP client used for the exchange.
func WithHTTPClient(c *http.Client) ExchangerOption {
	return func(e *TokenExchanger) {
		e.client = c
	}
}

// NewTokenExchanger creates a new exchanger for the given credential and
// scopes. It validates the configuration before any network activity; a
// malformed credential or empty scope set is fatal since no well-formed
// exchange is possible.
func NewTokenExchanger(cred Credential, scopes []string, opts ...ExchangerOption) (*TokenExchanger, error) {
	if err := cred.validate(); err != nil {
		return nil, err
	}

	if len(scopes) == 0 {
		return nil, ErrNoScopes
	}

	e := &TokenExchanger{
		cred:     cred,
		scopes:   scopes,
		tokenURL: fmt.Sprintf(tokenURLFormat, url.PathEscape(cred.TenantID)),
		client:   &http.Client{Timeout: defaultTimeout},
	}

	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// tokenResponse is the subset of the token endpoint response we decode.
type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int64  `json:"expires_in"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// Exchange presents the caller's token as a user assertion and requests a
// delegated token for the configured scopes. This is a single round trip to
// the token endpoint; it is not retried. A rejected assertion (expired caller
// token, missing consent, bad secret, ungranted scope) returns *ExchangeError
// and must be treated as "could not determine authorization".
func (e *TokenExchanger) Exchange(ctx context.Context, callerToken string) (*DelegatedToken, error) {
	if callerToken == "" {
		return nil, ErrEmptyCallerToken
	}

	form := url.Values{
		"grant_type":          {oboGrantType},
		"client_id":           {e.cred.ClientID},
		"client_secret":       {e.cred.ClientSecret},
		"assertion":           {callerToken},
		"scope":               {strings.Join(e.scopes, " ")},
		"requested_token_use": {"on_behalf_of"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build token request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token endpoint request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	var tr tokenResponse
	if err = json.Unmarshal(body, &tr); err != nil && resp.StatusCode == http.StatusOK {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || tr.AccessToken == "" {
		log.Debug().Int("status", resp.StatusCode).Str("code", tr.Error).
			Msg("on-behalf-of exchange rejected")

		return nil, &ExchangeError{
			StatusCode:  resp.StatusCode,
			Code:        tr.Error,
			Description: tr.ErrorDescription,
		}
	}

	return &DelegatedToken{
		AccessToken: tr.AccessToken,
		Expiry:      time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second),
	}, nil
}

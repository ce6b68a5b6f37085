package graph

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingTenantID is returned when the credential has no tenant (directory) ID.
	ErrMissingTenantID = errors.New("credential tenant id can not be empty")

	// ErrMissingClientID is returned when the credential has no client ID.
	ErrMissingClientID = errors.New("credential client id can not be empty")

	// ErrMissingClientSecret is returned when the credential has no client secret.
	ErrMissingClientSecret = errors.New("credential client secret can not be empty")

	// ErrNoScopes is returned when no scopes are configured for the exchange.
	ErrNoScopes = errors.New("at least one scope is required")

	// ErrEmptyCallerToken is returned when Exchange is called without a caller token.
	ErrEmptyCallerToken = errors.New("caller token can not be empty")

	// ErrNilDelegatedToken is returned when Resolve is called without a delegated token.
	ErrNilDelegatedToken = errors.New("delegated token can not be nil")
)

// ExchangeError is returned when Azure AD rejects the on-behalf-of assertion,
// or when Microsoft Graph rejects the delegated token. It carries the
// provider's error code so callers can distinguish an expired caller token
// from a consent or configuration problem. It never contains credential or
// token material.
type ExchangeError struct {
	// StatusCode is the HTTP status returned by the provider.
	StatusCode int
	// Code is the provider error code (e.g. "invalid_grant").
	Code string
	// Description is the provider's human-readable error description.
	Description string
}

// Error implements the error interface.
func (e *ExchangeError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("token exchange rejected with status %d", e.StatusCode)
	}

	return fmt.Sprintf("token exchange rejected with status %d: %s: %s", e.StatusCode, e.Code, e.Description)
}

// QueryError is returned when a membership batch request fails after a
// successful token exchange. StatusCode is zero for transport-level failures,
// which lets callers distinguish a transient network error from a request the
// directory actively rejected.
type QueryError struct {
	// StatusCode is the HTTP status of the failed batch, or 0 for transport errors.
	StatusCode int
	// Err is the underlying failure.
	Err error
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("group membership query failed: %v", e.Err)
	}

	return fmt.Sprintf("group membership query failed with status %d: %v", e.StatusCode, e.Err)
}

// Unwrap returns the underlying failure.
func (e *QueryError) Unwrap() error {
	return e.Err
}

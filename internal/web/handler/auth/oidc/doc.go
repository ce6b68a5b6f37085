// Package oidc provides handlers for the Azure AD OpenID Connect login flow.
//
// Azure AD caps the number of group IDs it embeds in a token. Past that cap
// the token carries a groups overage claim instead of the list, so group
// claims cannot be trusted from the token alone. This handler therefore never
// reads groups from the ID token: after the authorization code exchange it
// trades the caller's access token for a delegated Microsoft Graph token
// (on-behalf-of grant) and asks the directory which of the locally mapped
// groups the user belongs to.
//
// The flow:
//   - Login initiation with CSRF protection via state tokens
//   - Authorization callback handling with ID token verification
//   - Automatic user creation/update from OIDC claims
//   - On-behalf-of token exchange and batched checkMemberGroups resolution
//   - Role attachment to the session from matched group mappings
//   - Logout with provider end session support
//
// Routes registered by Init:
//
//	GET  /auth/oidc/login    - Initiate OIDC login flow
//	GET  /auth/oidc/callback - Handle provider callback and enrich roles
//	GET  /auth/oidc/logout   - Logout and end the provider session
package oidc

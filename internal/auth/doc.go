// Package auth provides authentication and authorization functionality for the application.
//
// Authentication is OIDC-only, against Azure AD (Entra ID). Authorization
// roles are not taken from token claims: Azure AD omits the groups claim when
// a user belongs to more groups than fit into the token, so roles are derived
// from directory group membership resolved out of band after primary
// authentication succeeds.
//
// # Authentication
//
// OIDCProvider implements the OAuth2/OIDC login flow: authorization redirect
// with CSRF state, code exchange, ID token verification, and user
// provisioning. The access token obtained at login is kept in hand as the
// caller token for the on-behalf-of exchange.
//
// # Role enrichment
//
// Enricher is the post-primary-authentication extension point. Once per new
// session it:
//   - loads the configured Azure AD group to role mappings, whose group IDs
//     form the candidate set
//   - exchanges the caller token for a delegated Microsoft Graph token
//   - resolves which candidate groups the user belongs to
//   - replaces the user's role grants with the roles mapped from the matched
//     groups
//
// Enrichment failure is terminal for the login: the caller must deny access
// rather than proceed with zero roles, since a failed resolution is
// indistinguishable from "user is in no mapped groups".
//
// # Role checking
//
// The Service type provides role checks backed by the synchronized grants:
//   - HasRole: check if a user holds a specific role
//   - HasAnyRole: check if a user holds at least one role from a list
//   - GetUserRoles: retrieve all role names granted to a user
//
// # Middleware
//
// Fiber middleware functions are provided for route protection:
//   - RequireRole: protect routes requiring a specific role
//   - RequireAnyRole: protect routes requiring any of several roles
//   - AddRolesToLocals: add the user's roles to the request locals
//
// Example usage:
//
//	authService := auth.NewService(db)
//
//	enricher := auth.NewEnricher(exchanger, resolver, authService)
//	roles, err := enricher.Enrich(ctx, callerToken, user.ID)
//
//	app.Get("/admin/mappings",
//	    auth.RequireRole(authService, "admin"),
//	    handler,
//	)
package auth

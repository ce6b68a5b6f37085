// Package main provides the entry point for the Azure AD group authorization
// service. It runs a Fiber web server that signs users in with OpenID Connect
// and derives their application roles from Azure AD group membership, queried
// through the Microsoft Graph API rather than token claims. Group to role
// mappings and user accounts are persisted with gorm.
package main

// Package graph resolves Azure AD group membership through Microsoft Graph.
//
// Azure AD limits how many group memberships fit into an issued token. When a
// user belongs to more groups than the limit, the provider omits the groups
// claim entirely ("groups overage") and callers must query membership out of
// band. This package implements that out-of-band path in two steps:
//
// # Token exchange
//
// TokenExchanger performs the on-behalf-of (OBO) grant against the Azure AD
// v2.0 token endpoint: the user's own access token is presented as an
// assertion together with the application's confidential client credential,
// yielding a short-lived access token scoped for Microsoft Graph.
//
//	exchanger, err := graph.NewTokenExchanger(cred, []string{"User.Read"})
//	delegated, err := exchanger.Exchange(ctx, callerToken)
//
// # Membership resolution
//
// MembershipResolver checks a candidate set of group object IDs against the
// Graph checkMemberGroups endpoint. The endpoint accepts at most 20 IDs per
// request, so the candidate set is partitioned into batches which are
// dispatched concurrently and joined into a single membership set:
//
//	resolver := graph.NewMembershipResolver()
//	matched, err := resolver.Resolve(ctx, delegated, candidateGroupIDs)
//
// Resolution is all or nothing: if any batch fails, the whole call fails and
// no partial result is returned. A partial set would be indistinguishable from
// "user is not in the remaining groups" and would silently under-grant access.
//
// # Errors
//
// A rejected exchange or a rejected delegated token surfaces as *ExchangeError;
// a failed membership batch surfaces as *QueryError. Neither error ever
// carries the client secret or token material. Callers must treat any error as
// "authorization could not be determined" and deny, never as an empty
// membership set.
package graph

package auth

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mirecad/AspAzureAdGroupsAuthorization/internal/graph"
)

// Enricher augments a freshly authenticated session with roles derived from
// Azure AD group membership. It runs once per new session, after primary
// authentication succeeds, and before the session is written.
//
// All dependencies are immutable after construction; an Enricher is safe for
// concurrent use by simultaneous logins.
type Enricher struct {
	exchanger *graph.TokenExchanger
	resolver  *graph.MembershipResolver
	svc       *Service
}

// NewEnricher creates a new session role enricher.
func NewEnricher(exchanger *graph.TokenExchanger, resolver *graph.MembershipResolver, svc *Service) *Enricher {
	return &Enricher{
		exchanger: exchanger,
		resolver:  resolver,
		svc:       svc,
	}
}

// Enrich exchanges the caller token, resolves which of the mapped Azure AD
// groups the user belongs to, and replaces the user's role grants with the
// roles mapped from the matched groups. It returns the granted role names.
//
// Any exchange or membership failure is returned as-is and must be treated by
// the caller as "authorization could not be determined": deny the login
// rather than continuing with zero roles. An empty result after a successful
// resolution is a verified fact and is synced normally.
func (e *Enricher) Enrich(ctx context.Context, callerToken string, userID uint64) ([]string, error) {
	candidates, err := e.svc.CandidateGroupIDs()
	if err != nil {
		return nil, err
	}

	// No mappings configured means nothing to resolve and no network call.
	if len(candidates) == 0 {
		if err = e.svc.SyncUserRoles(userID, nil); err != nil {
			return nil, err
		}

		return []string{}, nil
	}

	token, err := e.exchanger.Exchange(ctx, callerToken)
	if err != nil {
		return nil, fmt.Errorf("on-behalf-of exchange failed: %w", err)
	}

	matched, err := e.resolver.Resolve(ctx, token, candidates)
	if err != nil {
		return nil, fmt.Errorf("membership resolution failed: %w", err)
	}

	roles, err := e.svc.RolesForGroups(matched)
	if err != nil {
		return nil, err
	}

	roleIDs := make([]uint, 0, len(roles))
	roleNames := make([]string, 0, len(roles))

	for _, role := range roles {
		roleIDs = append(roleIDs, role.ID)
		roleNames = append(roleNames, role.Name)
	}

	if err = e.svc.SyncUserRoles(userID, roleIDs); err != nil {
		return nil, err
	}

	log.Info().Uint64("user_id", userID).
		Int("candidate_groups", len(candidates)).
		Int("matched_groups", len(matched)).
		Strs("roles", roleNames).
		Msg("session roles derived from directory group membership")

	return roleNames, nil
}


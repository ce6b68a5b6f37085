package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"golang.org/x/sync/errgroup"
)

const (
	// maxGroupsPerRequest is the documented limit of group IDs per
	// checkMemberGroups request. This is a protocol constraint of the Graph
	// API, not a tuning knob.
	maxGroupsPerRequest = 20

	// checkMemberGroupsURL checks the signed-in user's membership in a list of groups.
	checkMemberGroupsURL = "https://graph.microsoft.com/v1.0/me/checkMemberGroups"
)

// MembershipResolver checks which of a candidate set of Azure AD group object
// IDs the current user belongs to. It holds only immutable configuration and
// is safe for concurrent use; all mutable state lives within a single Resolve
// call.
type MembershipResolver struct {
	endpoint string
	client   *http.Client
}

// ResolverOption configures a MembershipResolver.
type ResolverOption func(*MembershipResolver)

// WithEndpoint overrides the checkMemberGroups endpoint. Used in tests.
func WithEndpoint(u string) ResolverOption {
	return func(r *MembershipResolver) {
		r.endpoint = u
	}
}

// WithResolverHTTPClient overrides the HTTP client used for batch requests.
func WithResolverHTTPClient(c *http.Client) ResolverOption {
	return func(r *MembershipResolver) {
		r.client = c
	}
}

// NewMembershipResolver creates a new resolver against the Microsoft Graph
// checkMemberGroups endpoint.
func NewMembershipResolver(opts ...ResolverOption) *MembershipResolver {
	r := &MembershipResolver{
		endpoint: checkMemberGroupsURL,
		client:   &http.Client{Timeout: defaultTimeout},
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Resolve returns the subset of candidateGroups the user identified by token
// belongs to. Duplicates in the input are checked once. An empty candidate set
// returns an empty result without any network call.
//
// The candidate set is partitioned into batches of at most maxGroupsPerRequest
// IDs; all batches are dispatched concurrently and the call completes in
// roughly one round trip regardless of candidate set size. If any batch fails,
// the whole call fails and partial results are discarded. Cancelling ctx
// abandons in-flight batches and fails the call the same way.
func (r *MembershipResolver) Resolve(ctx context.Context, token *DelegatedToken, candidateGroups []string) ([]string, error) {
	if token == nil {
		return nil, ErrNilDelegatedToken
	}

	ids := dedupe(candidateGroups)
	if len(ids) == 0 {
		return []string{}, nil
	}

	batches := partitionGroups(ids, maxGroupsPerRequest)
	results := make([][]string, len(batches))

	g, gctx := errgroup.WithContext(ctx)

	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			matched, err := r.checkMemberGroups(gctx, token, batch)
			if err != nil {
				return err
			}

			results[i] = matched

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Union the batch results. The membership set is constrained to the
	// candidate set; an ID the caller never asked about is dropped.
	candidates := make(map[string]bool, len(ids))
	for _, id := range ids {
		candidates[id] = true
	}

	seen := make(map[string]bool, len(ids))
	matched := make([]string, 0, len(ids))

	for _, batchResult := range results {
		for _, id := range batchResult {
			if candidates[id] && !seen[id] {
				seen[id] = true
				matched = append(matched, id)
			}
		}
	}

	return matched, nil
}

// checkMemberGroupsRequest is the request body of the checkMemberGroups call.
type checkMemberGroupsRequest struct {
	GroupIDs []string `json:"groupIds"`
}

// checkMemberGroupsResponse is the response body of the checkMemberGroups call.
type checkMemberGroupsResponse struct {
	Value []string `json:"value"`
}

// checkMemberGroups issues a single batch request. An unauthorized response
// means the delegated token was rejected and surfaces as *ExchangeError; any
// other failure surfaces as *QueryError.
func (r *MembershipResolver) checkMemberGroups(ctx context.Context, token *DelegatedToken, batch []string) ([]string, error) {
	body, err := json.Marshal(checkMemberGroupsRequest{GroupIDs: batch})
	if err != nil {
		return nil, &QueryError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &QueryError{Err: err}
	}

	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &QueryError{Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodySize))

		return nil, &ExchangeError{
			StatusCode:  resp.StatusCode,
			Code:        "invalid_token",
			Description: "directory rejected the delegated token",
		}
	case resp.StatusCode != http.StatusOK:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))

		return nil, &QueryError{
			StatusCode: resp.StatusCode,
			Err:        errors.New(string(msg)),
		}
	}

	var cr checkMemberGroupsResponse
	if err = json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, &QueryError{StatusCode: resp.StatusCode, Err: err}
	}

	return cr.Value, nil
}

// dedupe removes duplicate group IDs while preserving first-seen order.
func dedupe(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))

	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}

		seen[id] = true
		out = append(out, id)
	}

	return out
}

// partitionGroups splits ids into batches of at most size elements. Every
// element appears in exactly one batch and no empty batch is produced.
func partitionGroups(ids []string, size int) [][]string {
	batches := make([][]string, 0, (len(ids)+size-1)/size)

	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		batches = append(batches, ids[start:end])
	}

	return batches
}

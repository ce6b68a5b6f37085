package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mirecad/AspAzureAdGroupsAuthorization/internal/graph"
)

func testExchanger(t *testing.T, tokenURL string) *graph.TokenExchanger {
	t.Helper()

	e, err := graph.NewTokenExchanger(graph.Credential{
		TenantID:     "tenant",
		ClientID:     "client",
		ClientSecret: "secret",
	}, []string{"User.Read"}, graph.WithTokenURL(tokenURL))
	require.NoError(t, err)

	return e
}

func fakeTokenEndpoint(t *testing.T) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"delegated-token","expires_in":3600}`))
	}))
}

func fakeGraphEndpoint(t *testing.T, memberOf map[string]bool) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			GroupIDs []string `json:"groupIds"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		matched := []string{}
		for _, id := range req.GroupIDs {
			if memberOf[id] {
				matched = append(matched, id)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string][]string{"value": matched})
	}))
}

func TestEnrichGrantsMappedRoles(t *testing.T) {
	db := testDB(t)
	seedRolesAndMappings(t, db)
	user := seedUser(t, db)
	svc := NewService(db)

	tokenSrv := fakeTokenEndpoint(t)
	defer tokenSrv.Close()

	// User is in the admins group but not the viewers group.
	graphSrv := fakeGraphEndpoint(t, map[string]bool{
		"aaaaaaaa-0000-0000-0000-000000000001": true,
	})
	defer graphSrv.Close()

	enricher := NewEnricher(
		testExchanger(t, tokenSrv.URL),
		graph.NewMembershipResolver(graph.WithEndpoint(graphSrv.URL)),
		svc,
	)

	roles, err := enricher.Enrich(context.Background(), "caller-token", user.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"admin"}, roles)

	// Grants are persisted for role checks.
	has, err := svc.HasRole(user.ID, "admin")
	require.NoError(t, err)
	require.True(t, has)
}

func TestEnrichNoMatchedGroupsClearsRoles(t *testing.T) {
	db := testDB(t)
	admin, _ := seedRolesAndMappings(t, db)
	user := seedUser(t, db)
	svc := NewService(db)

	require.NoError(t, svc.SyncUserRoles(user.ID, []uint{admin.ID}))

	tokenSrv := fakeTokenEndpoint(t)
	defer tokenSrv.Close()

	graphSrv := fakeGraphEndpoint(t, nil)
	defer graphSrv.Close()

	enricher := NewEnricher(
		testExchanger(t, tokenSrv.URL),
		graph.NewMembershipResolver(graph.WithEndpoint(graphSrv.URL)),
		svc,
	)

	// Verified empty membership is a fact, not a failure: roles are cleared.
	roles, err := enricher.Enrich(context.Background(), "caller-token", user.ID)
	require.NoError(t, err)
	require.Empty(t, roles)

	dbRoles, err := svc.GetUserRoles(user.ID)
	require.NoError(t, err)
	require.Empty(t, dbRoles)
}

func TestEnrichExchangeFailureLeavesGrantsUntouched(t *testing.T) {
	db := testDB(t)
	admin, _ := seedRolesAndMappings(t, db)
	user := seedUser(t, db)
	svc := NewService(db)

	require.NoError(t, svc.SyncUserRoles(user.ID, []uint{admin.ID}))

	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"expired"}`))
	}))
	defer tokenSrv.Close()

	graphSrv := fakeGraphEndpoint(t, nil)
	defer graphSrv.Close()

	enricher := NewEnricher(
		testExchanger(t, tokenSrv.URL),
		graph.NewMembershipResolver(graph.WithEndpoint(graphSrv.URL)),
		svc,
	)

	roles, err := enricher.Enrich(context.Background(), "expired-caller-token", user.ID)
	require.Error(t, err)
	require.Nil(t, roles)

	var exchangeErr *graph.ExchangeError
	require.ErrorAs(t, err, &exchangeErr)

	// A failed resolution never rewrites grants.
	dbRoles, err := svc.GetUserRoles(user.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"admin"}, dbRoles)
}

func TestEnrichWithoutMappingsSkipsNetwork(t *testing.T) {
	db := testDB(t)
	user := seedUser(t, db)
	svc := NewService(db)

	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("no network call expected without configured mappings")
	}))
	defer srv.Close()

	enricher := NewEnricher(
		testExchanger(t, srv.URL),
		graph.NewMembershipResolver(graph.WithEndpoint(srv.URL)),
		svc,
	)

	roles, err := enricher.Enrich(context.Background(), "caller-token", user.ID)
	require.NoError(t, err)
	require.Empty(t, roles)
}

package graph

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCredential() Credential {
	return Credential{
		TenantID:     "11111111-2222-3333-4444-555555555555",
		ClientID:     "app-client-id",
		ClientSecret: "app-client-secret",
	}
}

func TestNewTokenExchangerValidation(t *testing.T) {
	tests := []struct {
		name    string
		cred    Credential
		scopes  []string
		wantErr error
	}{
		{
			name:    "missing tenant id",
			cred:    Credential{ClientID: "id", ClientSecret: "secret"},
			scopes:  []string{"User.Read"},
			wantErr: ErrMissingTenantID,
		},
		{
			name:    "missing client id",
			cred:    Credential{TenantID: "tenant", ClientSecret: "secret"},
			scopes:  []string{"User.Read"},
			wantErr: ErrMissingClientID,
		},
		{
			name:    "missing client secret",
			cred:    Credential{TenantID: "tenant", ClientID: "id"},
			scopes:  []string{"User.Read"},
			wantErr: ErrMissingClientSecret,
		},
		{
			name:    "empty scopes",
			cred:    testCredential(),
			scopes:  nil,
			wantErr: ErrNoScopes,
		},
		{
			name:   "valid",
			cred:   testCredential(),
			scopes: []string{"User.Read"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := NewTokenExchanger(tt.cred, tt.scopes)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, e)

				return
			}

			require.NoError(t, err)
			require.NotNil(t, e)
		})
	}
}

func TestExchangeSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())

		assert.Equal(t, oboGrantType, r.PostFormValue("grant_type"))
		assert.Equal(t, "app-client-id", r.PostFormValue("client_id"))
		assert.Equal(t, "caller-token", r.PostFormValue("assertion"))
		assert.Equal(t, "on_behalf_of", r.PostFormValue("requested_token_use"))
		assert.Equal(t, "User.Read Directory.Read.All", r.PostFormValue("scope"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"delegated-token","token_type":"Bearer","expires_in":3599}`))
	}))
	defer srv.Close()

	e, err := NewTokenExchanger(testCredential(),
		[]string{"User.Read", "Directory.Read.All"}, WithTokenURL(srv.URL))
	require.NoError(t, err)

	token, err := e.Exchange(context.Background(), "caller-token")
	require.NoError(t, err)
	require.NotNil(t, token)

	assert.Equal(t, "delegated-token", token.AccessToken)
	assert.WithinDuration(t, time.Now().Add(3599*time.Second), token.Expiry, 5*time.Second)
}

func TestExchangeProviderRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"AADSTS500133: assertion is expired"}`))
	}))
	defer srv.Close()

	e, err := NewTokenExchanger(testCredential(), []string{"User.Read"}, WithTokenURL(srv.URL))
	require.NoError(t, err)

	token, err := e.Exchange(context.Background(), "expired-caller-token")
	require.Error(t, err)
	assert.Nil(t, token)

	var exchangeErr *ExchangeError
	require.ErrorAs(t, err, &exchangeErr)

	assert.Equal(t, http.StatusBadRequest, exchangeErr.StatusCode)
	assert.Equal(t, "invalid_grant", exchangeErr.Code)
	assert.Contains(t, exchangeErr.Description, "AADSTS500133")

	// The credential must never leak through error text.
	assert.NotContains(t, err.Error(), "app-client-secret")
}

func TestExchangeMissingAccessToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token_type":"Bearer"}`))
	}))
	defer srv.Close()

	e, err := NewTokenExchanger(testCredential(), []string{"User.Read"}, WithTokenURL(srv.URL))
	require.NoError(t, err)

	_, err = e.Exchange(context.Background(), "caller-token")

	var exchangeErr *ExchangeError
	require.ErrorAs(t, err, &exchangeErr)
	assert.Equal(t, http.StatusOK, exchangeErr.StatusCode)
}

func TestExchangeEmptyCallerToken(t *testing.T) {
	e, err := NewTokenExchanger(testCredential(), []string{"User.Read"})
	require.NoError(t, err)

	_, err = e.Exchange(context.Background(), "")
	require.ErrorIs(t, err, ErrEmptyCallerToken)
}

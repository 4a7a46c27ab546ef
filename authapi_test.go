package propdesk

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propdesk/propdesk-go/pkg/auth"
	"github.com/propdesk/propdesk-go/pkg/constants"
	"github.com/propdesk/propdesk-go/pkg/session"
	"github.com/propdesk/propdesk-go/pkg/types"
)

func newAuthServer(t *testing.T, twoFactor bool) (*httptest.Server, string) {
	t.Helper()
	access := testToken(t, auth.RoleOwner, time.Now().Add(time.Hour))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case constants.LoginPath:
			if twoFactor {
				writeJSON(w, http.StatusOK, types.TokenResponse{
					TwoFactorRequired: true,
					ChallengeToken:    "challenge-1",
				})
				return
			}
			writeJSON(w, http.StatusOK, types.TokenResponse{
				AccessToken:  access,
				RefreshToken: "refresh-token-1",
				ExpiresIn:    3600,
			})
		case constants.Verify2FAPath:
			var req types.Verify2FARequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ChallengeToken != "challenge-1" {
				writeJSON(w, http.StatusBadRequest, types.ErrorBody{Message: "bad challenge"})
				return
			}
			writeJSON(w, http.StatusOK, types.TokenResponse{
				AccessToken:  access,
				RefreshToken: "refresh-token-1",
				ExpiresIn:    3600,
			})
		case constants.LogoutPath:
			writeJSON(w, http.StatusServiceUnavailable, types.ErrorBody{Message: "backend down"})
		default:
			http.NotFound(w, r)
		}
	}))
	return server, access
}

func TestLogin_StoresTokenPair(t *testing.T) {
	server, access := newAuthServer(t, false)
	defer server.Close()

	env := newTestEnv(t, server.URL)
	tr, err := env.client.Login(context.Background(), types.LoginRequest{
		Email:      "owner@acme.example",
		Password:   "pw",
		RememberMe: true,
	})
	require.NoError(t, err)
	assert.False(t, tr.TwoFactorRequired)

	stored, err := env.store.Load()
	require.NoError(t, err)
	assert.Equal(t, access, stored.Token.AccessToken)
	assert.Equal(t, "refresh-token-1", stored.Token.RefreshToken)
	assert.True(t, stored.RememberMe)
	assert.WithinDuration(t, time.Now().Add(time.Hour), stored.Token.Expiry, 5*time.Second)
}

func TestLogin_TwoFactorDefersStorage(t *testing.T) {
	server, access := newAuthServer(t, true)
	defer server.Close()

	env := newTestEnv(t, server.URL)
	tr, err := env.client.Login(context.Background(), types.LoginRequest{
		Email:    "owner@acme.example",
		Password: "pw",
	})
	require.NoError(t, err)
	require.True(t, tr.TwoFactorRequired)
	assert.Equal(t, "challenge-1", tr.ChallengeToken)

	// Nothing is persisted until the second factor clears.
	assert.False(t, env.store.HasCredentials())

	tr2, err := env.client.Verify2FA(context.Background(), types.Verify2FARequest{
		ChallengeToken: tr.ChallengeToken,
		Code:           "123456",
	}, true)
	require.NoError(t, err)

	stored, err := env.store.Load()
	require.NoError(t, err)
	assert.Equal(t, access, stored.Token.AccessToken)
	assert.Equal(t, tr2.AccessToken, stored.Token.AccessToken)
}

func TestSelectTenant_PreservesTokenPair(t *testing.T) {
	server, _ := newAuthServer(t, false)
	defer server.Close()

	env := newTestEnv(t, server.URL)
	access := env.seedSession(t, auth.RoleOwner, "", time.Hour)

	require.NoError(t, env.client.SelectTenant("acme-1"))

	stored, err := env.store.Load()
	require.NoError(t, err)
	assert.Equal(t, "acme-1", stored.TenantID)
	assert.Equal(t, access, stored.Token.AccessToken)
}

func TestSelectTenant_RequiresSession(t *testing.T) {
	server, _ := newAuthServer(t, false)
	defer server.Close()

	env := newTestEnv(t, server.URL)
	err := env.client.SelectTenant("acme-1")
	require.Error(t, err)

	var authErr *auth.AuthError
	assert.ErrorAs(t, err, &authErr)
}

func TestLogout_ClearsLocalSessionDespiteBackendFailure(t *testing.T) {
	server, _ := newAuthServer(t, false)
	defer server.Close()

	env := newTestEnv(t, server.URL)
	env.seedSession(t, auth.RoleOwner, "acme-1", time.Hour)

	require.NoError(t, env.client.Logout(context.Background()))

	assert.False(t, env.store.HasCredentials())
	assert.Equal(t, session.PhaseActive, env.client.SessionPhase())
}

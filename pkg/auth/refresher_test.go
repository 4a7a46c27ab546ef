package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/propdesk/propdesk-go/pkg/storage"
	"github.com/propdesk/propdesk-go/pkg/types"
)

func seededStore(t *testing.T) storage.CredentialStore {
	t.Helper()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Store(&storage.Credentials{
		Token: oauth2.Token{
			AccessToken:  "old-access",
			RefreshToken: "old-refresh",
			TokenType:    "Bearer",
		},
		TenantID:   "acme-1",
		RememberMe: true,
	}))
	return store
}

func TestRefresher_Success(t *testing.T) {
	var gotBody types.RefreshRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/auth/refresh", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		_ = json.NewEncoder(w).Encode(types.TokenResponse{
			AccessToken:  "new-access",
			RefreshToken: "new-refresh",
			ExpiresIn:    900,
		})
	}))
	defer server.Close()

	store := seededStore(t)
	r := NewRefresher(server.URL, server.Client(), store, zerolog.Nop())

	creds, err := r.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "old-refresh", gotBody.RefreshToken)
	assert.Equal(t, "new-access", creds.Token.AccessToken)
	assert.Equal(t, "new-refresh", creds.Token.RefreshToken)
	assert.WithinDuration(t, time.Now().Add(900*time.Second), creds.Token.Expiry, 5*time.Second)

	// Tenant selection and persistence policy survive the rotation
	assert.Equal(t, "acme-1", creds.TenantID)
	assert.True(t, creds.RememberMe)

	stored, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "new-access", stored.Token.AccessToken)
}

func TestRefresher_NoRefreshToken(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Store(&storage.Credentials{
		Token: oauth2.Token{AccessToken: "only-access"},
	}))

	r := NewRefresher("http://unused.invalid", http.DefaultClient, store, zerolog.Nop())

	_, err := r.Refresh(context.Background())
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "refresh_token", authErr.Op)
}

func TestRefresher_EmptyStore(t *testing.T) {
	r := NewRefresher("http://unused.invalid", http.DefaultClient, storage.NewMemoryStore(), zerolog.Nop())

	_, err := r.Refresh(context.Background())
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
}

func TestRefresher_Rejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(types.ErrorBody{Message: "refresh token revoked"})
	}))
	defer server.Close()

	r := NewRefresher(server.URL, server.Client(), seededStore(t), zerolog.Nop())

	_, err := r.Refresh(context.Background())
	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Contains(t, authErr.Message, "revoked")
}

func TestRefresher_MissingTokenPairInResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(types.TokenResponse{AccessToken: "only-access"})
	}))
	defer server.Close()

	r := NewRefresher(server.URL, server.Client(), seededStore(t), zerolog.Nop())

	_, err := r.Refresh(context.Background())
	require.Error(t, err)
}

func TestRefresher_ConcurrentCallsShareOneWireCall(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		time.Sleep(100 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(types.TokenResponse{
			AccessToken:  "new-access",
			RefreshToken: "new-refresh",
			ExpiresIn:    900,
		})
	}))
	defer server.Close()

	r := NewRefresher(server.URL, server.Client(), seededStore(t), zerolog.Nop())

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = r.Refresh(context.Background())
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int64(1), calls.Load())
}

func TestTokenExpiry_FallsBackToExpClaim(t *testing.T) {
	expiry := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	token := makeToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(expiry)},
	})

	got := TokenExpiry(types.TokenResponse{AccessToken: token})
	assert.True(t, expiry.Equal(got))

	// ExpiresIn wins when reported
	got = TokenExpiry(types.TokenResponse{AccessToken: token, ExpiresIn: 60})
	assert.WithinDuration(t, time.Now().Add(time.Minute), got, 5*time.Second)

	// Neither available
	assert.True(t, TokenExpiry(types.TokenResponse{AccessToken: "garbage"}).IsZero())
}

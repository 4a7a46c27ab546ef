package propdesk

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/propdesk/propdesk-go/pkg/apierror"
	"github.com/propdesk/propdesk-go/pkg/auth"
	"github.com/propdesk/propdesk-go/pkg/constants"
	"github.com/propdesk/propdesk-go/pkg/storage"
)

// tenantRecorder serves 200 for everything and remembers the last tenant
// header it saw.
func tenantRecorder(hits *int32, lastTenant *atomic.Value) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		lastTenant.Store(r.Header.Get(constants.HeaderTenantID))
		writeJSON(w, http.StatusOK, map[string]string{"ok": "true"})
	}
}

func TestGate_TenantHeaderAttached(t *testing.T) {
	var hits int32
	var lastTenant atomic.Value
	server := httptest.NewServer(tenantRecorder(&hits, &lastTenant))
	defer server.Close()

	env := newTestEnv(t, server.URL)
	env.seedSession(t, auth.RoleStandard, "acme-1", time.Hour)

	require.NoError(t, env.client.Get(context.Background(), "/dashboard/summary", nil))
	assert.Equal(t, "acme-1", lastTenant.Load())
}

func TestGate_AuthAndPublicCarryNoTenantHeader(t *testing.T) {
	var hits int32
	var lastTenant atomic.Value
	server := httptest.NewServer(tenantRecorder(&hits, &lastTenant))
	defer server.Close()

	env := newTestEnv(t, server.URL)
	env.seedSession(t, auth.RoleStandard, "acme-1", time.Hour)

	for _, path := range []string{"/public/listings", "/auth/logout"} {
		require.NoError(t, env.client.Post(context.Background(), path, nil, nil))
		assert.Equal(t, "", lastTenant.Load(), "path %s must not carry the tenant header", path)
	}
}

func TestGate_OptionalCategoryProceedsWithoutTenant(t *testing.T) {
	var hits int32
	var lastTenant atomic.Value
	server := httptest.NewServer(tenantRecorder(&hits, &lastTenant))
	defer server.Close()

	env := newTestEnv(t, server.URL)
	env.seedSession(t, auth.RoleStandard, "", time.Hour)

	require.NoError(t, env.client.Get(context.Background(), "/notifications", nil))
	assert.Equal(t, "", lastTenant.Load())
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestGate_RequiredCategoryFailsImmediately(t *testing.T) {
	var hits int32
	var lastTenant atomic.Value
	server := httptest.NewServer(tenantRecorder(&hits, &lastTenant))
	defer server.Close()

	env := newTestEnv(t, server.URL)
	env.seedSession(t, auth.RoleStandard, "", time.Hour)

	start := time.Now()
	err := env.client.Get(context.Background(), "/properties", nil)
	elapsed := time.Since(start)

	assert.True(t, apierror.IsTenantMissing(err))
	assert.Less(t, elapsed, 100*time.Millisecond, "required categories must not wait for the tenant")
	assert.EqualValues(t, 0, atomic.LoadInt32(&hits), "the call must never reach the transport")
}

func TestGate_DashboardWaitsForTenantToAppear(t *testing.T) {
	var hits int32
	var lastTenant atomic.Value
	server := httptest.NewServer(tenantRecorder(&hits, &lastTenant))
	defer server.Close()

	env := newTestEnv(t, server.URL)
	access := env.seedSession(t, auth.RoleStandard, "", time.Hour)

	// The company selection lands mid-wait, as it does right after login.
	go func() {
		time.Sleep(150 * time.Millisecond)
		_ = env.store.Store(&storage.Credentials{
			Token: oauth2.Token{
				AccessToken:  access,
				RefreshToken: "refresh-token-1",
				Expiry:       time.Now().Add(time.Hour),
			},
			TenantID:   "acme-1",
			RememberMe: true,
		})
	}()

	require.NoError(t, env.client.Get(context.Background(), "/dashboard/summary", nil))
	assert.Equal(t, "acme-1", lastTenant.Load())
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))
}

func TestGate_DashboardWaitIsBounded(t *testing.T) {
	var hits int32
	var lastTenant atomic.Value
	server := httptest.NewServer(tenantRecorder(&hits, &lastTenant))
	defer server.Close()

	env := newTestEnv(t, server.URL)
	env.seedSession(t, auth.RoleStandard, "", time.Hour)

	start := time.Now()
	err := env.client.Get(context.Background(), "/dashboard/summary", nil)
	elapsed := time.Since(start)

	assert.True(t, apierror.IsTenantMissing(err))
	assert.GreaterOrEqual(t, elapsed, 400*time.Millisecond, "the gate should exhaust its window")
	assert.Less(t, elapsed, 2*time.Second, "the gate must not wait unboundedly")
	assert.EqualValues(t, 0, atomic.LoadInt32(&hits))
}

func TestGate_DashboardWaitHonorsContextCancellation(t *testing.T) {
	var hits int32
	var lastTenant atomic.Value
	server := httptest.NewServer(tenantRecorder(&hits, &lastTenant))
	defer server.Close()

	env := newTestEnv(t, server.URL)
	env.seedSession(t, auth.RoleStandard, "", time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := env.client.Get(ctx, "/dashboard/summary", nil)
	elapsed := time.Since(start)

	assert.True(t, apierror.IsTenantMissing(err))
	assert.Less(t, elapsed, 400*time.Millisecond, "cancellation should cut the wait short")
}

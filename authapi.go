package propdesk

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/propdesk/propdesk-go/pkg/auth"
	"github.com/propdesk/propdesk-go/pkg/constants"
	"github.com/propdesk/propdesk-go/pkg/storage"
	"github.com/propdesk/propdesk-go/pkg/types"
)

// Login authenticates against the backend and, unless a second factor is
// required, persists the issued token pair. Auth endpoints are exempt from
// 401 interception, so a wrong password surfaces as the backend's own
// rejection rather than triggering refresh or logout.
func (c *Client) Login(ctx context.Context, req types.LoginRequest) (*types.TokenResponse, error) {
	var tr types.TokenResponse
	if err := c.Do(ctx, http.MethodPost, constants.LoginPath, req, &tr); err != nil {
		return nil, err
	}

	if tr.TwoFactorRequired {
		return &tr, nil
	}

	if err := c.storeTokenResponse(tr, req.RememberMe); err != nil {
		return nil, err
	}
	return &tr, nil
}

// Verify2FA completes a two-factor login and persists the token pair.
func (c *Client) Verify2FA(ctx context.Context, req types.Verify2FARequest, rememberMe bool) (*types.TokenResponse, error) {
	var tr types.TokenResponse
	if err := c.Do(ctx, http.MethodPost, constants.Verify2FAPath, req, &tr); err != nil {
		return nil, err
	}

	if err := c.storeTokenResponse(tr, rememberMe); err != nil {
		return nil, err
	}
	return &tr, nil
}

// Logout ends the session: the backend call is best-effort, the local
// teardown is not. It also releases a session stuck in the logging-out
// phase after a forced logout.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.Do(ctx, http.MethodPost, constants.LogoutPath, nil, nil); err != nil {
		c.logger.Debug().Err(err).Msg("backend logout failed, clearing local session anyway")
	}

	err := c.store.Clear()
	c.session.CompleteLogout()
	return err
}

// SelectTenant records the company scope subsequent calls are issued under.
// The UI calls this once the user picks a company after login.
func (c *Client) SelectTenant(tenantID string) error {
	creds := c.loadCredentials()
	if creds == nil {
		return &auth.AuthError{Op: "select_tenant", Message: "no active session"}
	}
	creds.TenantID = tenantID
	return c.store.Store(creds)
}

// storeTokenResponse persists a freshly issued token pair, preserving any
// previously selected tenant.
func (c *Client) storeTokenResponse(tr types.TokenResponse, rememberMe bool) error {
	if tr.AccessToken == "" || tr.RefreshToken == "" {
		return &auth.AuthError{Op: "store_token", Message: "token response missing token pair"}
	}

	tenantID := ""
	if prev := c.loadCredentials(); prev != nil {
		tenantID = prev.TenantID
	}

	creds := &storage.Credentials{
		Token: oauth2.Token{
			AccessToken:  tr.AccessToken,
			RefreshToken: tr.RefreshToken,
			TokenType:    "Bearer",
			Expiry:       auth.TokenExpiry(tr),
		},
		TenantID:   tenantID,
		RememberMe: rememberMe,
	}

	if err := c.store.Store(creds); err != nil {
		return fmt.Errorf("failed to store session credentials: %w", err)
	}

	// A successful login supersedes any forced logout still in effect.
	c.session.CompleteLogout()
	return nil
}

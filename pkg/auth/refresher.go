package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/propdesk/propdesk-go/pkg/constants"
	"github.com/propdesk/propdesk-go/pkg/storage"
	"github.com/propdesk/propdesk-go/pkg/types"
)

// Refresher exchanges the stored refresh token for a new token pair and
// persists the result. Concurrent callers are collapsed onto one wire call:
// the session controller's phase guard rejects overlapping refresh attempts
// up front, and the singleflight group closes the remaining race window so
// the refresh endpoint is hit at most once per cycle.
type Refresher struct {
	endpoint string
	http     *http.Client
	store    storage.CredentialStore
	logger   zerolog.Logger
	group    singleflight.Group
}

// NewRefresher creates a refresher against baseURL's refresh endpoint.
func NewRefresher(baseURL string, httpClient *http.Client, store storage.CredentialStore, logger zerolog.Logger) *Refresher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Refresher{
		endpoint: baseURL + constants.RefreshPath,
		http:     httpClient,
		store:    store,
		logger:   logger,
	}
}

// Refresh mints a new token pair, preserving the stored tenant id and
// remember-me flag. It returns the persisted credentials.
func (r *Refresher) Refresh(ctx context.Context) (*storage.Credentials, error) {
	creds, err := r.store.Load()
	if err != nil || creds == nil {
		return nil, &AuthError{Op: "refresh_token", Message: "no stored credentials", Err: err}
	}
	if creds.Token.RefreshToken == "" {
		return nil, &AuthError{Op: "refresh_token", Message: "no refresh token available"}
	}

	v, err, _ := r.group.Do("refresh", func() (interface{}, error) {
		return r.refresh(ctx, creds)
	})
	if err != nil {
		return nil, err
	}
	return v.(*storage.Credentials), nil
}

func (r *Refresher) refresh(ctx context.Context, creds *storage.Credentials) (*storage.Credentials, error) {
	// A refresh in flight runs to completion even if the originating call
	// goes away; only the request timeout bounds it.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), constants.RefreshRequestTimeout)
	defer cancel()

	payload, err := json.Marshal(types.RefreshRequest{RefreshToken: creds.Token.RefreshToken})
	if err != nil {
		return nil, &AuthError{Op: "refresh_token", Message: "failed to encode refresh request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &AuthError{Op: "refresh_token", Message: "failed to create refresh request", Err: err}
	}
	req.Header.Set("Content-Type", constants.ContentTypeJSON)

	resp, err := r.http.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, &AuthError{Op: "refresh_token", Message: "token refresh timeout", Err: err}
		}
		return nil, &AuthError{Op: "refresh_token", Message: "refresh request failed", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var eb types.ErrorBody
		_ = json.Unmarshal(body, &eb)
		msg := eb.Message
		if msg == "" {
			msg = fmt.Sprintf("refresh endpoint returned %d", resp.StatusCode)
		}
		return nil, &AuthError{Op: "refresh_token", Message: msg}
	}

	var tr types.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, &AuthError{Op: "refresh_token", Message: "failed to decode refresh response", Err: err}
	}
	if tr.AccessToken == "" || tr.RefreshToken == "" {
		return nil, &AuthError{Op: "refresh_token", Message: "refresh response missing token pair"}
	}

	fresh := &storage.Credentials{
		Token: oauth2.Token{
			AccessToken:  tr.AccessToken,
			RefreshToken: tr.RefreshToken,
			TokenType:    "Bearer",
			Expiry:       TokenExpiry(tr),
		},
		TenantID:   creds.TenantID,
		RememberMe: creds.RememberMe,
	}

	if err := r.store.Store(fresh); err != nil {
		return nil, &AuthError{Op: "store_token", Message: "failed to store refreshed credentials", Err: err}
	}

	r.logger.Debug().Time("expiry", fresh.Token.Expiry).Msg("token pair refreshed")
	return fresh, nil
}

// TokenExpiry derives an issued access token's expiry from ExpiresIn when
// the backend reports it, falling back to the token's own exp claim.
func TokenExpiry(tr types.TokenResponse) time.Time {
	if tr.ExpiresIn > 0 {
		return time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	}
	if exp, ok := ExpiryOf(tr.AccessToken); ok {
		return exp
	}
	return time.Time{}
}

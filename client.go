// Package propdesk provides the shared API client for the PropDesk
// multi-tenant real-estate back-office.
//
// The client wraps every call in a session pipeline: the request gate
// attaches (or waits for) the tenant scope, the proactive refresh stage
// renews access tokens just before they expire, and the 401 coordinator
// performs a single-flight refresh-and-retry with a consecutive-failure
// breaker that tears the session down when it is beyond recovery.
//
// Example usage:
//
//	client, err := propdesk.NewClient(
//		propdesk.WithBaseURL("https://api.propdesk.example"),
//		propdesk.WithNavigator(appRouter),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if _, err := client.Login(ctx, types.LoginRequest{Email: email, Password: pw}); err != nil {
//		log.Fatal(err)
//	}
//
//	var listings []Listing
//	if err := client.Get(ctx, "/properties", &listings); err != nil {
//		log.Fatal(err)
//	}
package propdesk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/propdesk/propdesk-go/pkg/apierror"
	"github.com/propdesk/propdesk-go/pkg/auth"
	"github.com/propdesk/propdesk-go/pkg/constants"
	"github.com/propdesk/propdesk-go/pkg/metrics"
	"github.com/propdesk/propdesk-go/pkg/routes"
	"github.com/propdesk/propdesk-go/pkg/session"
	"github.com/propdesk/propdesk-go/pkg/storage"
)

// Client is the shared API client. All calls pass through the session
// pipeline; a single Client is safe for concurrent use.
type Client struct {
	config    *Config
	http      *http.Client
	session   *session.Controller
	refresher *auth.Refresher
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	store     storage.CredentialStore
}

// NewClient creates a new client with the provided configuration options.
// If no options are provided, default configuration will be used.
func NewClient(opts ...ConfigOption) (*Client, error) {
	config := NewConfig(opts...)
	if err := config.Validate(); err != nil {
		return nil, err
	}

	httpClient := newHTTPClient(config)
	logger := config.Logger.With().Str("component", constants.LibraryName).Logger()

	return &Client{
		config:    config,
		http:      httpClient,
		session:   session.NewController(),
		refresher: auth.NewRefresher(config.BaseURL, httpClient, config.CredentialStore, logger),
		metrics:   metrics.New(config.Registerer),
		logger:    logger,
		store:     config.CredentialStore,
	}, nil
}

// Get issues a GET and decodes a 2xx JSON response into out.
func (c *Client) Get(ctx context.Context, path string, out interface{}) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// Put issues a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil)
}

// Do issues an arbitrary call through the session pipeline. body is
// marshaled to JSON when non-nil; a 2xx response is decoded into out when
// out is non-nil. Any other outcome is returned as an *apierror.Error.
func (c *Client) Do(ctx context.Context, method, path string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	rc := newRequestContext(path)
	return c.do(ctx, rc, method, path, payload, out)
}

// do runs one pass of the pipeline. Resubmissions after a reactive refresh
// re-enter here with rc.retried already set.
func (c *Client) do(ctx context.Context, rc *requestContext, method, path string, payload []byte, out interface{}) error {
	// Auth endpoints stay reachable during teardown so the user can log
	// back in after a forced logout.
	if c.session.Phase() == session.PhaseLoggingOut && rc.category != routes.CategoryAuth {
		return &apierror.Error{
			Kind:    apierror.KindAuthPermanentlyInvalid,
			Message: "session is logging out",
		}
	}

	creds := c.loadCredentials()

	tenant, err := c.tenantFor(ctx, rc, creds)
	if err != nil {
		return err
	}

	token := c.ensureFreshToken(ctx, rc, creds)

	resp, err := c.send(ctx, rc, method, path, payload, token, tenant)
	if err != nil {
		return &apierror.Error{Kind: apierror.KindUnclassified, Message: "request failed", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &apierror.Error{Kind: apierror.KindUnclassified, Message: "failed to read response body", Err: err}
	}

	if resp.StatusCode == http.StatusUnauthorized && rc.category.InterceptsUnauthorized() {
		return c.handleUnauthorized(ctx, rc, method, path, payload, out, respBody)
	}

	// Any response that is not a 401 proves the session is still viable.
	if resp.StatusCode != http.StatusUnauthorized {
		c.session.ResetAuthFailures()
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out != nil && len(respBody) > 0 {
			if err := json.Unmarshal(respBody, out); err != nil {
				return &apierror.Error{Kind: apierror.KindUnclassified, Message: "failed to decode response body", Err: err}
			}
		}
		return nil
	}

	return c.classify(path, resp.StatusCode, respBody)
}

// send assembles headers and performs the transport call.
func (c *Client) send(ctx context.Context, rc *requestContext, method, path string, payload []byte, token, tenant string) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set(constants.HeaderRequestID, rc.id)
	if payload != nil {
		req.Header.Set("Content-Type", constants.ContentTypeJSON)
	}
	if token != "" {
		req.Header.Set(constants.HeaderAuthorization, constants.BearerPrefix+token)
	}
	if tenant != "" {
		req.Header.Set(constants.HeaderTenantID, tenant)
	}

	c.logger.Debug().
		Str("request_id", rc.id).
		Str("method", method).
		Str("path", path).
		Str("category", string(rc.category)).
		Bool("retried", rc.retried).
		Msg("issuing request")

	return c.http.Do(req)
}

// loadCredentials reads the store, treating absence as a nil session.
func (c *Client) loadCredentials() *storage.Credentials {
	creds, err := c.store.Load()
	if err != nil {
		return nil
	}
	return creds
}

// SessionPhase exposes the controller phase for diagnostics.
func (c *Client) SessionPhase() session.Phase {
	return c.session.Phase()
}

// GetConfig returns the client configuration.
func (c *Client) GetConfig() *Config {
	return c.config
}

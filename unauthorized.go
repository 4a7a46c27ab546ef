package propdesk

import (
	"context"
	"encoding/json"

	"github.com/propdesk/propdesk-go/pkg/apierror"
	"github.com/propdesk/propdesk-go/pkg/constants"
	"github.com/propdesk/propdesk-go/pkg/metrics"
	"github.com/propdesk/propdesk-go/pkg/routes"
	"github.com/propdesk/propdesk-go/pkg/session"
	"github.com/propdesk/propdesk-go/pkg/types"
)

// handleUnauthorized is the reactive side of the token lifecycle: a 401 for
// a non-auth route triggers a single-flight refresh followed by exactly one
// resubmission of the original call. Repeated 401s, a rejected refresh, or a
// missing refresh token escalate to a forced logout.
//
// Concurrent callers that arrive while a refresh is already in flight are
// rejected rather than queued: a few extra failed calls beat unbounded
// buffering, and the surrounding UI calls are retriable.
func (c *Client) handleUnauthorized(ctx context.Context, rc *requestContext, method, path string, payload []byte, out interface{}, respBody []byte) error {
	var eb types.ErrorBody
	_ = json.Unmarshal(respBody, &eb)

	expired := &apierror.Error{
		Kind:       apierror.KindAuthExpired,
		StatusCode: 401,
		Code:       eb.Code,
		Message:    messageOr(eb.Message, "authentication expired"),
	}

	if c.session.Phase() == session.PhaseLoggingOut {
		return c.sessionInvalid("session teardown in progress")
	}

	failures := c.session.RecordAuthFailure()
	if failures >= constants.MaxConsecutiveAuthFailures {
		return c.forceLogout(rc, "consecutive auth failure limit reached")
	}

	if rc.retried {
		// The one allowed resubmission already happened; a second 401
		// means the refreshed token is no good either.
		return c.forceLogout(rc, "resubmitted call rejected again")
	}
	rc.retried = true

	creds := c.loadCredentials()
	if !creds.HasTokenPair() {
		return c.forceLogout(rc, "no refresh token available")
	}

	if !c.session.BeginRefresh() {
		// Another call owns the refresh. No queueing: the caller
		// re-issues once the session settles.
		return expired
	}

	// The resubmission reloads credentials, picking up the new pair.
	_, err := c.refresher.Refresh(ctx)
	c.metrics.ObserveRefresh(metrics.TriggerReactive, err)
	if err != nil {
		c.session.EndRefresh()
		c.logger.Warn().
			Str("request_id", rc.id).
			Err(err).
			Msg("reactive refresh rejected")
		return c.forceLogout(rc, "token refresh rejected")
	}

	c.session.EndRefresh()
	if c.session.Phase() == session.PhaseLoggingOut {
		// The breaker tripped while the refresh was in flight. The
		// refresher already persisted the new pair, so discard it to
		// keep the teardown complete.
		if err := c.store.Clear(); err != nil {
			c.logger.Error().Err(err).Msg("failed to clear refreshed credentials during logout")
		}
		return c.sessionInvalid("session torn down during refresh")
	}

	c.session.ResetAuthFailures()
	c.metrics.Retries.Inc()

	c.logger.Debug().
		Str("request_id", rc.id).
		Str("path", path).
		Msg("resubmitting call with refreshed token")

	return c.do(ctx, rc, method, path, payload, out)
}

// forceLogout tears the session down exactly once: credentials cleared,
// breaker reset, hard redirect to the login page. Every caller that raced
// into the teardown gets the same terminal error.
func (c *Client) forceLogout(rc *requestContext, reason string) error {
	if c.session.BeginLogout() {
		if err := c.store.Clear(); err != nil {
			c.logger.Error().Err(err).Msg("failed to clear credentials during forced logout")
		}
		c.session.ResetAuthFailures()
		c.metrics.ForcedLogouts.Inc()
		c.logger.Warn().
			Str("request_id", rc.id).
			Str("reason", reason).
			Msg("session torn down, redirecting to login")
		c.config.Navigator.Navigate(routes.PageLogin)
	}
	return c.sessionInvalid(reason)
}

func (c *Client) sessionInvalid(reason string) error {
	return &apierror.Error{
		Kind:     apierror.KindAuthPermanentlyInvalid,
		Message:  reason,
		Redirect: routes.PageLogin,
	}
}

func messageOr(msg, fallback string) string {
	if msg != "" {
		return msg
	}
	return fallback
}

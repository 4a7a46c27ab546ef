package propdesk

import (
	"context"
	"time"

	"github.com/propdesk/propdesk-go/pkg/auth"
	"github.com/propdesk/propdesk-go/pkg/constants"
	"github.com/propdesk/propdesk-go/pkg/metrics"
	"github.com/propdesk/propdesk-go/pkg/routes"
	"github.com/propdesk/propdesk-go/pkg/storage"
)

// ensureFreshToken returns the access token to attach to the outgoing call,
// renewing it first when expiry is imminent. A failed renewal attaches the
// existing soon-to-expire token and leaves recovery to the 401 coordinator.
func (c *Client) ensureFreshToken(ctx context.Context, rc *requestContext, creds *storage.Credentials) string {
	if creds == nil {
		return ""
	}
	token := creds.Token.AccessToken

	if rc.category == routes.CategoryAuth || !creds.HasTokenPair() {
		return token
	}

	expiry, ok := tokenExpiry(creds)
	if !ok {
		// Undecodable token: send it unchanged and let the server decide.
		return token
	}

	remaining := time.Until(expiry)
	if remaining <= 0 || remaining >= constants.ProactiveRefreshWindow {
		return token
	}

	// BeginRefresh is the phase guard serializing this stage against both
	// itself and the reactive coordinator. Losing the race just means
	// someone else is already renewing; proceed with the current token.
	if !c.session.BeginRefresh() {
		return token
	}
	defer c.session.EndRefresh()

	fresh, err := c.refresher.Refresh(ctx)
	c.metrics.ObserveRefresh(metrics.TriggerProactive, err)
	if err != nil {
		c.logger.Warn().
			Str("request_id", rc.id).
			Err(err).
			Msg("proactive refresh failed, sending existing token")
		return token
	}

	return fresh.Token.AccessToken
}

// tokenExpiry prefers the expiry persisted at refresh time and falls back to
// decoding the token's exp claim.
func tokenExpiry(creds *storage.Credentials) (time.Time, bool) {
	if !creds.Token.Expiry.IsZero() {
		return creds.Token.Expiry, true
	}
	return auth.ExpiryOf(creds.Token.AccessToken)
}

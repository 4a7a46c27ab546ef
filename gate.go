package propdesk

import (
	"context"

	"github.com/cenkalti/backoff/v4"

	"github.com/propdesk/propdesk-go/pkg/apierror"
	"github.com/propdesk/propdesk-go/pkg/constants"
	"github.com/propdesk/propdesk-go/pkg/routes"
	"github.com/propdesk/propdesk-go/pkg/storage"
)

// tenantFor decides what tenant header, if any, goes on the call.
//
// The tenant id is populated asynchronously after login while the company
// list loads. Dashboard calls can race that population, so they get a short
// grace window; tenant-required calls fail immediately rather than proceed
// without scope. Failing here never mutates session state.
func (c *Client) tenantFor(ctx context.Context, rc *requestContext, creds *storage.Credentials) (string, error) {
	tenant := ""
	if creds != nil {
		tenant = creds.TenantID
	}

	switch rc.category.TenantPolicy() {
	case routes.TenantNone:
		return "", nil
	case routes.TenantOptional:
		return tenant, nil
	case routes.TenantWait:
		if tenant != "" {
			return tenant, nil
		}
		return c.awaitTenant(ctx, rc)
	default: // require
		if tenant != "" {
			return tenant, nil
		}
		return "", c.tenantMissing(rc)
	}
}

// awaitTenant polls the credential store for the tenant id: a fixed number
// of fixed-interval attempts (~500ms total), cancellable through ctx.
func (c *Client) awaitTenant(ctx context.Context, rc *requestContext) (string, error) {
	var tenant string

	poll := func() error {
		creds := c.loadCredentials()
		if creds == nil || creds.TenantID == "" {
			return apierror.New(apierror.KindTenantContextMissing, 0, "tenant id not yet available")
		}
		tenant = creds.TenantID
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(
			backoff.NewConstantBackOff(constants.TenantWaitInterval),
			constants.TenantWaitAttempts,
		),
		ctx,
	)

	if err := backoff.Retry(poll, policy); err != nil {
		c.metrics.TenantGateTimeouts.Inc()
		c.logger.Debug().
			Str("request_id", rc.id).
			Str("path", rc.path).
			Msg("tenant id did not appear within the gate window")
		return "", c.tenantMissing(rc)
	}
	return tenant, nil
}

func (c *Client) tenantMissing(rc *requestContext) error {
	return &apierror.Error{
		Kind:    apierror.KindTenantContextMissing,
		Message: "no company selected for " + rc.path,
	}
}

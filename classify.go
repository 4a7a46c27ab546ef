package propdesk

import (
	"encoding/json"
	"strings"

	"github.com/propdesk/propdesk-go/pkg/apierror"
	"github.com/propdesk/propdesk-go/pkg/auth"
	"github.com/propdesk/propdesk-go/pkg/routes"
	"github.com/propdesk/propdesk-go/pkg/types"
)

// Structured error codes newer backend versions emit. Older deployments
// only send a free-text message; classifyForbidden falls back to matching
// documented phrases when the code is absent.
const (
	codeModuleNotEntitled    = "module_not_entitled"
	codeTenantNotAssociated  = "tenant_not_associated"
	codeSubscriptionRequired = "subscription_required"
	codePermissionDenied     = "permission_denied"
)

// classify turns a non-2xx, non-intercepted response into the error the
// caller sees. Classification annotates and may redirect; it never retries.
func (c *Client) classify(path string, status int, respBody []byte) error {
	var eb types.ErrorBody
	_ = json.Unmarshal(respBody, &eb)

	e := &apierror.Error{
		Kind:       apierror.KindUnclassified,
		StatusCode: status,
		Code:       eb.Code,
		Message:    eb.Message,
	}

	switch status {
	case 400:
		if isValidationFailure(eb) {
			// Domain validation output: already handled, global error
			// handlers must leave it alone.
			e.Kind = apierror.KindValidationFailed
			e.Handled = true
		}
		return e
	case 403:
		return c.classifyForbidden(path, eb, e)
	case 429:
		// Rate limiting is always non-fatal: no redirect, no global
		// notice, callers degrade to cached or empty state.
		e.Kind = apierror.KindRateLimited
		c.metrics.RateLimited.Inc()
		return e
	default:
		return e
	}
}

// classifyForbidden applies the role-and-route-dependent 403 policy. When in
// doubt it surfaces to the caller rather than redirecting, to avoid bouncing
// users out of valid but under-permissioned screens.
func (c *Client) classifyForbidden(path string, eb types.ErrorBody, e *apierror.Error) error {
	e.Kind = apierror.KindPermissionDenied

	// User-management screens render their own permission errors.
	if routes.IsUserManagement(path) {
		return e
	}

	elevated := c.currentRole().Elevated()

	switch forbiddenCode(eb) {
	case codeModuleNotEntitled:
		e.Module = moduleFrom(eb)
		c.config.Notifier.Notify(types.ModuleNotice{Module: e.Module, Message: eb.Message})
		return e

	case codeTenantNotAssociated:
		if elevated {
			e.Redirect = routes.PageAccessVerification
		}
		return c.redirect(e)

	case codeSubscriptionRequired:
		if elevated {
			e.Redirect = routes.PageSubscription
		} else {
			e.Redirect = routes.PageSystemUnavailable
		}
		return c.redirect(e)

	case codePermissionDenied:
		if !elevated && !isValidationFailure(eb) {
			e.Redirect = routes.PageDashboard
		}
		return c.redirect(e)

	default:
		// No matching pattern: surface without redirecting.
		return e
	}
}

// redirect performs the hard navigation the policy chose, if any, and
// returns the annotated error either way.
func (c *Client) redirect(e *apierror.Error) error {
	if e.Redirect != "" {
		c.logger.Debug().
			Str("page", string(e.Redirect)).
			Int("status", e.StatusCode).
			Msg("redirecting after classified failure")
		c.config.Navigator.Navigate(e.Redirect)
	}
	return e
}

// currentRole reads the role claim from the stored access token, defaulting
// to standard when no session is present.
func (c *Client) currentRole() auth.Role {
	creds := c.loadCredentials()
	if creds == nil || creds.Token.AccessToken == "" {
		return auth.RoleStandard
	}
	return auth.RoleOf(creds.Token.AccessToken)
}

// forbiddenCode resolves the structured code, falling back to the legacy
// free-text phrases older backends emit.
func forbiddenCode(eb types.ErrorBody) string {
	if eb.Code != "" {
		return eb.Code
	}

	msg := strings.ToLower(eb.Message)
	switch {
	case msg == "":
		return ""
	case strings.Contains(msg, "not entitled") || strings.Contains(msg, "module"):
		return codeModuleNotEntitled
	case strings.Contains(msg, "not associated") || strings.Contains(msg, "tenant association"):
		return codeTenantNotAssociated
	case strings.Contains(msg, "subscription"):
		return codeSubscriptionRequired
	case strings.Contains(msg, "permission"):
		return codePermissionDenied
	default:
		return ""
	}
}

// isValidationFailure recognizes the backend's domain-validation markers.
func isValidationFailure(eb types.ErrorBody) bool {
	if eb.Validation || len(eb.Errors) > 0 {
		return true
	}
	msg := strings.ToLower(eb.Message)
	return strings.Contains(msg, "validation failed") || strings.Contains(msg, "invalid value")
}

// moduleFrom extracts the module name, preferring the structured field.
func moduleFrom(eb types.ErrorBody) string {
	if eb.Module != "" {
		return eb.Module
	}
	// Legacy format: "module <name> is not entitled"
	fields := strings.Fields(eb.Message)
	for i, f := range fields {
		if strings.EqualFold(f, "module") && i+1 < len(fields) {
			return strings.Trim(fields[i+1], `"'`)
		}
	}
	return ""
}

// Package apierror defines the failure taxonomy the request pipeline attaches
// to rejected calls. Every non-2xx outcome (and every gate rejection) reaches
// the caller as an *Error carrying a Kind, the advisory annotations the
// classifier produced, and the backend's own code and message when available.
package apierror

import (
	"errors"
	"fmt"

	"github.com/propdesk/propdesk-go/pkg/routes"
)

// Kind partitions failures by how the pipeline and the caller should react.
type Kind string

const (
	// KindAuthExpired marks a 401 that is recoverable via token refresh.
	KindAuthExpired Kind = "auth_expired"
	// KindAuthPermanentlyInvalid marks a session that cannot be recovered:
	// the refresh itself was rejected, the failure breaker tripped, or the
	// call arrived while the session was being torn down. The store has
	// been cleared and a login redirect issued by the time the caller sees
	// this.
	KindAuthPermanentlyInvalid Kind = "auth_invalid"
	// KindTenantContextMissing marks a call rejected by the request gate
	// because no company scope was available. The session is untouched;
	// the caller may retry once the scope loads.
	KindTenantContextMissing Kind = "tenant_missing"
	// KindPermissionDenied marks a 403, further qualified by Code, Module
	// and Redirect.
	KindPermissionDenied Kind = "permission_denied"
	// KindRateLimited marks a 429. Never fatal; callers degrade to cached
	// or empty state.
	KindRateLimited Kind = "rate_limited"
	// KindValidationFailed marks a 400 carrying domain validation output.
	KindValidationFailed Kind = "validation_failed"
	// KindUnclassified passes everything else through unchanged.
	KindUnclassified Kind = "unclassified"
)

// Error is the rejected outcome of a pipeline call.
type Error struct {
	Kind       Kind
	StatusCode int    // HTTP status, 0 for gate rejections
	Code       string // structured backend error code, may be empty
	Message    string
	Module     string // module name for entitlement failures

	// Handled marks errors the pipeline already classified as expected
	// domain output (validation failures); global handlers must not act
	// on them again.
	Handled bool

	// Redirect is the advisory navigation target the redirect policy
	// chose, empty when the error should surface in place.
	Redirect routes.Page

	Err error
}

func (e *Error) Error() string {
	switch {
	case e.Code != "" && e.Message != "":
		return fmt.Sprintf("propdesk: %s (%d %s): %s", e.Kind, e.StatusCode, e.Code, e.Message)
	case e.Message != "":
		return fmt.Sprintf("propdesk: %s (%d): %s", e.Kind, e.StatusCode, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("propdesk: %s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("propdesk: %s (%d)", e.Kind, e.StatusCode)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match on Kind via the sentinel helpers below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New builds an error of the given kind.
func New(kind Kind, status int, message string) *Error {
	return &Error{Kind: kind, StatusCode: status, Message: message}
}

// KindOf extracts the Kind from err, or KindUnclassified when err is not a
// pipeline error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnclassified
}

// IsRateLimited reports whether err is a 429 annotation.
func IsRateLimited(err error) bool { return KindOf(err) == KindRateLimited }

// IsTenantMissing reports whether err is a gate rejection for missing
// company scope.
func IsTenantMissing(err error) bool { return KindOf(err) == KindTenantContextMissing }

// IsAuthInvalid reports whether err means the session was torn down.
func IsAuthInvalid(err error) bool { return KindOf(err) == KindAuthPermanentlyInvalid }

package propdesk

import (
	"github.com/google/uuid"

	"github.com/propdesk/propdesk-go/pkg/routes"
)

// requestContext is the per-call state the pipeline threads through its
// stages. It is created when a call is issued and dies with it; retried
// flips to true after the one allowed resubmission.
type requestContext struct {
	id       string
	path     string
	category routes.Category
	retried  bool
}

func newRequestContext(path string) *requestContext {
	return &requestContext{
		id:       uuid.NewString(),
		path:     path,
		category: routes.CategoryFor(path),
	}
}

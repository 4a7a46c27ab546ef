// Package metrics provides observability for the session pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks token lifecycle events and gate outcomes.
type Metrics struct {
	RefreshAttempts    *prometheus.CounterVec
	ForcedLogouts      prometheus.Counter
	RateLimited        prometheus.Counter
	TenantGateTimeouts prometheus.Counter
	Retries            prometheus.Counter
}

// Refresh trigger/outcome label values.
const (
	TriggerProactive = "proactive"
	TriggerReactive  = "reactive"
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
)

// New creates a Metrics instance registered on reg. Passing a fresh registry
// per client keeps parallel clients (and tests) from colliding.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		RefreshAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "propdesk_token_refresh_attempts_total",
			Help: "Token refresh attempts by trigger (proactive/reactive) and outcome",
		}, []string{"trigger", "outcome"}),
		ForcedLogouts: factory.NewCounter(prometheus.CounterOpts{
			Name: "propdesk_forced_logouts_total",
			Help: "Sessions torn down by the auth failure breaker or rejected refreshes",
		}),
		RateLimited: factory.NewCounter(prometheus.CounterOpts{
			Name: "propdesk_rate_limited_responses_total",
			Help: "Responses classified as rate limited (429)",
		}),
		TenantGateTimeouts: factory.NewCounter(prometheus.CounterOpts{
			Name: "propdesk_tenant_gate_timeouts_total",
			Help: "Calls rejected because the tenant id did not appear within the gate window",
		}),
		Retries: factory.NewCounter(prometheus.CounterOpts{
			Name: "propdesk_request_retries_total",
			Help: "Calls resubmitted after a successful reactive refresh",
		}),
	}
}

// ObserveRefresh records a refresh attempt.
func (m *Metrics) ObserveRefresh(trigger string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	m.RefreshAttempts.WithLabelValues(trigger, outcome).Inc()
}

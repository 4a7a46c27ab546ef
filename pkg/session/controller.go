// Package session owns the process-wide session control state: the phase the
// client is in and the consecutive-auth-failure breaker. All transitions go
// through the Controller so the single-flight and breaker invariants hold
// under concurrent calls.
package session

import "sync"

// Phase is the client's session lifecycle state. The phases are mutually
// exclusive: at most one refresh runs at a time, and while the session is
// logging out no new outbound call is admitted.
type Phase string

const (
	PhaseActive     Phase = "active"
	PhaseRefreshing Phase = "refreshing"
	PhaseLoggingOut Phase = "logging_out"
)

// Controller serializes session state transitions. Check-and-set pairs run
// under one lock so interleaved calls cannot observe or produce a torn
// transition.
type Controller struct {
	mu           sync.Mutex
	phase        Phase
	authFailures int
}

// NewController returns a controller in the active phase.
func NewController() *Controller {
	return &Controller{phase: PhaseActive}
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// BeginRefresh transitions active -> refreshing. It returns false when the
// session is already refreshing or logging out, which is how concurrent
// callers learn a refresh is taken: they must not start another.
func (c *Controller) BeginRefresh() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != PhaseActive {
		return false
	}
	c.phase = PhaseRefreshing
	return true
}

// EndRefresh transitions refreshing -> active. A logout that started while
// the refresh was in flight wins: the phase stays logging_out.
func (c *Controller) EndRefresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == PhaseRefreshing {
		c.phase = PhaseActive
	}
}

// BeginLogout moves the session into the logging_out phase from any state.
// It returns false when a teardown is already underway, so the forced-logout
// side effects (clearing credentials, navigating to login) run exactly once.
func (c *Controller) BeginLogout() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == PhaseLoggingOut {
		return false
	}
	c.phase = PhaseLoggingOut
	return true
}

// CompleteLogout returns the controller to active once the external logout
// flow has finished tearing the session down.
func (c *Controller) CompleteLogout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.phase = PhaseActive
	c.authFailures = 0
}

// RecordAuthFailure increments the consecutive 401 counter and returns the
// new count. The caller decides whether the breaker threshold was reached.
func (c *Controller) RecordAuthFailure() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authFailures++
	return c.authFailures
}

// ResetAuthFailures zeroes the breaker counter. Called on any non-401
// response and after every successful refresh.
func (c *Controller) ResetAuthFailures() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authFailures = 0
}

// AuthFailures returns the current consecutive 401 count.
func (c *Controller) AuthFailures() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authFailures
}

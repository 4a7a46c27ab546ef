package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestController_InitialState(t *testing.T) {
	c := NewController()
	assert.Equal(t, PhaseActive, c.Phase())
	assert.Equal(t, 0, c.AuthFailures())
}

func TestController_BeginRefreshIsExclusive(t *testing.T) {
	c := NewController()

	assert.True(t, c.BeginRefresh())
	assert.Equal(t, PhaseRefreshing, c.Phase())

	// Second attempt loses while the first holds the phase
	assert.False(t, c.BeginRefresh())

	c.EndRefresh()
	assert.Equal(t, PhaseActive, c.Phase())
	assert.True(t, c.BeginRefresh())
}

func TestController_OnlyOneRefreshWinnerUnderContention(t *testing.T) {
	c := NewController()

	const callers = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.BeginRefresh() {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
}

func TestController_LogoutWinsOverRefresh(t *testing.T) {
	c := NewController()

	assert.True(t, c.BeginRefresh())
	assert.True(t, c.BeginLogout())

	// The refresh completing must not resurrect the session
	c.EndRefresh()
	assert.Equal(t, PhaseLoggingOut, c.Phase())

	// Teardown side effects run exactly once
	assert.False(t, c.BeginLogout())

	c.CompleteLogout()
	assert.Equal(t, PhaseActive, c.Phase())
}

func TestController_LogoutBlocksRefresh(t *testing.T) {
	c := NewController()
	assert.True(t, c.BeginLogout())
	assert.False(t, c.BeginRefresh())
}

func TestController_AuthFailureCounter(t *testing.T) {
	c := NewController()

	assert.Equal(t, 1, c.RecordAuthFailure())
	assert.Equal(t, 2, c.RecordAuthFailure())
	assert.Equal(t, 3, c.RecordAuthFailure())

	c.ResetAuthFailures()
	assert.Equal(t, 0, c.AuthFailures())
	assert.Equal(t, 1, c.RecordAuthFailure())
}

func TestController_CompleteLogoutResetsCounter(t *testing.T) {
	c := NewController()
	c.RecordAuthFailure()
	c.RecordAuthFailure()
	c.BeginLogout()

	c.CompleteLogout()
	assert.Equal(t, 0, c.AuthFailures())
}

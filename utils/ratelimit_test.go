package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLimiter(limit int, window time.Duration) (*OpsLimiter, *time.Time) {
	l := NewOpsLimiter(limit, window)
	current := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return current }
	return l, &current
}

func TestOpsLimiterAllowsUpToLimit(t *testing.T) {
	l, _ := newTestLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		d := l.Check("10.0.0.1")
		assert.True(t, d.Allowed, "request %d", i+1)
		assert.Equal(t, 3-(i+1), d.Remaining)
	}

	d := l.Check("10.0.0.1")
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
}

func TestOpsLimiterWindowsAreIndependentPerClient(t *testing.T) {
	l, _ := newTestLimiter(1, time.Minute)

	assert.True(t, l.Check("10.0.0.1").Allowed)
	assert.False(t, l.Check("10.0.0.1").Allowed)
	// Another client is unaffected.
	assert.True(t, l.Check("10.0.0.2").Allowed)
}

func TestOpsLimiterResetsAfterWindow(t *testing.T) {
	l, clock := newTestLimiter(1, time.Minute)

	first := l.Check("10.0.0.1")
	assert.True(t, first.Allowed)
	assert.Equal(t, clock.Add(time.Minute), first.ResetAt)
	assert.False(t, l.Check("10.0.0.1").Allowed)

	*clock = clock.Add(time.Minute)
	assert.True(t, l.Check("10.0.0.1").Allowed)
}

func TestOpsLimiterReset(t *testing.T) {
	l, _ := newTestLimiter(1, time.Minute)

	assert.True(t, l.Check("10.0.0.1").Allowed)
	assert.False(t, l.Check("10.0.0.1").Allowed)

	l.Reset("10.0.0.1")
	assert.True(t, l.Check("10.0.0.1").Allowed)
}

package utils

import (
	"sync"
	"time"
)

// OpsLimiter caps request rates on the operations endpoints. It counts per
// client in fixed windows, which is enough for coarse ops protection and
// keeps memory at one bucket per active client instead of one timestamp per
// request.
type OpsLimiter struct {
	mu        sync.Mutex
	limit     int
	window    time.Duration
	buckets   map[string]*opsBucket
	lastSweep time.Time
	now       func() time.Time
}

type opsBucket struct {
	count       int
	windowStart time.Time
}

// LimitDecision is the outcome of one rate-limit check, carrying everything
// the middleware puts into the X-RateLimit-* headers.
type LimitDecision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// NewOpsLimiter creates a limiter allowing limit requests per window per client
func NewOpsLimiter(limit int, window time.Duration) *OpsLimiter {
	return &OpsLimiter{
		limit:   limit,
		window:  window,
		buckets: make(map[string]*opsBucket),
		now:     time.Now,
	}
}

// Check counts one request for the client and decides whether it may proceed.
// A denied request is not counted against the next window.
func (l *OpsLimiter) Check(client string) LimitDecision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	b, ok := l.buckets[client]
	if !ok || now.Sub(b.windowStart) >= l.window {
		b = &opsBucket{windowStart: now}
		l.buckets[client] = b
	}

	decision := LimitDecision{
		Limit:   l.limit,
		ResetAt: b.windowStart.Add(l.window),
	}
	if b.count >= l.limit {
		decision.Remaining = 0
		return decision
	}

	b.count++
	decision.Allowed = true
	decision.Remaining = l.limit - b.count
	return decision
}

// Reset forgets the client's current window
func (l *OpsLimiter) Reset(client string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, client)
}

// sweep drops buckets whose window has long expired, so one-off clients do
// not accumulate. Runs at most once per window.
func (l *OpsLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.window {
		return
	}
	l.lastSweep = now
	for client, b := range l.buckets {
		if now.Sub(b.windowStart) >= l.window {
			delete(l.buckets, client)
		}
	}
}

package helix

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Default Helix bucket: 800 points regenerating over a one-minute window.
const (
	defaultRateLimitCapacity = 800
	defaultRateLimitWindow   = time.Minute
)

// Minimum sleep between capacity polls. Timer granularity below this just
// burns CPU on lock contention.
const minWaitInterval = 10 * time.Millisecond

// RateLimiter is a token-bucket limiter that can be resynced from the
// authoritative Ratelimit-* response headers. Credits regenerate continuously
// at capacity/refillWindow since the last refill, capped at capacity.
//
// It is safe for concurrent use. The internal mutex guards short critical
// sections only and is never held across I/O; it is unrelated to the
// Session's refresh lock, so rate-limit waits and refresh waits cannot
// deadlock against each other.
type RateLimiter struct {
	clock clockwork.Clock

	mu           sync.Mutex
	capacity     float64
	refillWindow time.Duration
	tokens       float64
	lastRefill   time.Time
}

// NewRateLimiter creates a limiter with the given capacity regenerating over
// refillWindow. The bucket starts full.
func NewRateLimiter(capacity int, refillWindow time.Duration) *RateLimiter {
	return newRateLimiter(capacity, refillWindow, clockwork.NewRealClock())
}

func newRateLimiter(capacity int, refillWindow time.Duration, clock clockwork.Clock) *RateLimiter {
	if capacity <= 0 {
		capacity = defaultRateLimitCapacity
	}
	if refillWindow <= 0 {
		refillWindow = defaultRateLimitWindow
	}
	return &RateLimiter{
		clock:        clock,
		capacity:     float64(capacity),
		refillWindow: refillWindow,
		tokens:       float64(capacity),
		lastRefill:   clock.Now(),
	}
}

// TryAcquire consumes n credits if available and reports whether it did.
// It never blocks and never drives the bucket negative.
func (rl *RateLimiter) TryAcquire(n int) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refillLocked()

	if rl.tokens >= float64(n) {
		rl.tokens -= float64(n)
		return true
	}
	return false
}

// Wait blocks until n credits are available or ctx is done. The caller bounds
// the wait through the context deadline; on expiry the context error is
// returned and no credits are consumed.
func (rl *RateLimiter) Wait(ctx context.Context, n int) error {
	for {
		wait := rl.acquireOrWaitTime(n)
		if wait == 0 {
			return nil
		}
		if wait < minWaitInterval {
			wait = minWaitInterval
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-rl.clock.After(wait):
		}
	}
}

// acquireOrWaitTime atomically consumes n credits, returning 0, or returns
// the estimated wait until they regenerate.
func (rl *RateLimiter) acquireOrWaitTime(n int) time.Duration {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refillLocked()

	if rl.tokens >= float64(n) {
		rl.tokens -= float64(n)
		return 0
	}

	needed := float64(n) - rl.tokens
	perSecond := rl.capacity / rl.refillWindow.Seconds()
	return time.Duration(needed / perSecond * float64(time.Second))
}

// Resync overwrites local bookkeeping with the server's view. The server is
// ground truth, so the jump may go in either direction. A reset timestamp in
// the past means the window has already rolled over: the bucket is full.
func (rl *RateLimiter) Resync(limit, remaining int, resetAt time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.clock.Now()

	if limit > 0 {
		rl.capacity = float64(limit)
	}

	if !resetAt.After(now) {
		rl.tokens = rl.capacity
		rl.lastRefill = now
		return
	}

	tokens := float64(remaining)
	if tokens < 0 {
		tokens = 0
	}
	if tokens > rl.capacity {
		tokens = rl.capacity
	}
	rl.tokens = tokens
	// Rebase local regeneration on the server clock so the next refill
	// estimate stays consistent with resetAt.
	rl.lastRefill = now
}

// refillLocked regenerates credits for the time elapsed since lastRefill.
// Caller must hold rl.mu.
func (rl *RateLimiter) refillLocked() {
	now := rl.clock.Now()
	elapsed := now.Sub(rl.lastRefill).Seconds()
	rl.lastRefill = now

	rl.tokens += elapsed * rl.capacity / rl.refillWindow.Seconds()
	if rl.tokens > rl.capacity {
		rl.tokens = rl.capacity
	}
}

// clipLimiter throttles clip creation. Twitch enforces this ceiling globally
// per client ID rather than per credential, so every Session in the process
// shares one bucket.
var clipLimiter = NewRateLimiter(30, time.Minute)

// parseRateLimitHeaders extracts the limit/remaining/reset triplet from
// response headers. prefix selects the endpoint group's header family
// (general Helix uses "Ratelimit-"). Returns ok=false when the triplet's
// remaining/reset members are absent.
func parseRateLimitHeaders(h http.Header, prefix string) (limit, remaining int, resetAt time.Time, ok bool) {
	remainingRaw := h.Get(prefix + "Remaining")
	resetRaw := h.Get(prefix + "Reset")
	if remainingRaw == "" || resetRaw == "" {
		return 0, 0, time.Time{}, false
	}

	remaining, err := strconv.Atoi(remainingRaw)
	if err != nil {
		return 0, 0, time.Time{}, false
	}
	resetUnix, err := strconv.ParseInt(resetRaw, 10, 64)
	if err != nil {
		return 0, 0, time.Time{}, false
	}

	// Limit is optional; 0 keeps the limiter's current capacity.
	limit, _ = strconv.Atoi(h.Get(prefix + "Limit"))

	return limit, remaining, time.Unix(resetUnix, 0), true
}

package proxy

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultRate is the proactive throttle rate in requests per second.
	// Public fetch proxies have undocumented limits, so stay polite.
	DefaultRate = 2.0

	// HeaderRetryAfter is the retry-after header (seconds).
	HeaderRetryAfter = "Retry-After"

	// maxBackoff caps how long a Retry-After answer can pause the crawl.
	maxBackoff = 30 * time.Second
)

// RateLimiter throttles proxy calls with a token bucket and backs off
// when the proxy answers 429 with Retry-After.
type RateLimiter struct {
	mu        sync.Mutex
	bucket    *rate.Limiter
	pausedTil time.Time
}

// NewRateLimiter creates a limiter allowing perSecond requests per second.
// A non-positive rate disables proactive throttling.
func NewRateLimiter(perSecond float64) *RateLimiter {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &RateLimiter{
		bucket: rate.NewLimiter(limit, 1),
	}
}

// Wait blocks until it's safe to make a request.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if err := r.bucket.Wait(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	pausedTil := r.pausedTil
	r.mu.Unlock()

	if time.Now().Before(pausedTil) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(pausedTil)):
		}
	}
	return nil
}

// Observe records a 429 answer's Retry-After so the next Wait pauses.
func (r *RateLimiter) Observe(resp *http.Response) {
	if resp == nil || resp.StatusCode != http.StatusTooManyRequests {
		return
	}

	wait := time.Second
	if retryAfter := resp.Header.Get(HeaderRetryAfter); retryAfter != "" {
		if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds >= 0 {
			wait = time.Duration(seconds) * time.Second
		}
	}
	wait = min(wait, maxBackoff)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.pausedTil = time.Now().Add(wait)
}

// PausedUntil returns the end of the current back-off, zero if none.
func (r *RateLimiter) PausedUntil() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pausedTil
}

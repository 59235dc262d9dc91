package sheets

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Sheets allows 60 read and 60 write requests per minute per user.
const (
	requestsPerSecond = 1.0
	burstSize         = 5
	defaultBackoff    = 60 * time.Second
)

// rateLimiter is a token bucket that also honours a backoff window set
// after the API answered 429.
type rateLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
}

func newRateLimiter(perSecond float64, burst int) *rateLimiter {
	return &rateLimiter{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

func (r *rateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if time.Now().Before(retryAt) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(retryAt)):
		}
	}

	return r.limiter.Wait(ctx)
}

func (r *rateLimiter) backoff(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if d <= 0 {
		d = defaultBackoff
	}
	r.retryAt = time.Now().Add(d)
}

package relay

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter paces requests with one token bucket per relay URL, so a
// misbehaving relay cannot starve requests to another.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	every   rate.Limit
	burst   int
}

// NewRateLimiter allows ratePerSecond requests per relay with bursts of up
// to burst requests.
func NewRateLimiter(ratePerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*rate.Limiter),
		every:   rate.Limit(ratePerSecond),
		burst:   burst,
	}
}

// Wait blocks until a request to url is allowed. It fails without waiting
// when ctx ends first or its deadline is too close to get a token.
func (r *RateLimiter) Wait(ctx context.Context, url string) error {
	return r.bucket(url).Wait(ctx)
}

func (r *RateLimiter) bucket(url string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.buckets[url]
	if !ok {
		b = rate.NewLimiter(r.every, r.burst)
		r.buckets[url] = b
	}
	return b
}

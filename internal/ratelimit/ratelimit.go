package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/amishk599/canjobs/internal/model"
)

// SourceLimiter enforces a minimum delay between requests to the same source.
// Each source gets its own token bucket with a burst of one.
type SourceLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*rate.Limiter // key: source name
	minDelay  time.Duration
	overrides map[string]time.Duration
}

// NewSourceLimiter creates a limiter that spaces consecutive requests to the
// same source by minDelay, or by the override configured for that source.
func NewSourceLimiter(minDelay time.Duration, overrides map[string]time.Duration) *SourceLimiter {
	return &SourceLimiter{
		limiters:  make(map[string]*rate.Limiter),
		minDelay:  minDelay,
		overrides: overrides,
	}
}

func (r *SourceLimiter) limiter(source string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if lim, ok := r.limiters[source]; ok {
		return lim
	}
	delay := r.minDelay
	if d, ok := r.overrides[source]; ok {
		delay = d
	}
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	lim := rate.NewLimiter(limit, 1)
	r.limiters[source] = lim
	return lim
}

// Wait blocks until the given source may be called again.
// Returns an error if the context is cancelled while waiting.
func (r *SourceLimiter) Wait(ctx context.Context, source string) error {
	if err := r.limiter(source).Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait for %s: %w", source, err)
	}
	return nil
}

// RateLimitedFetcher is a decorator that enforces source-level rate limiting
// before delegating to the wrapped JobFetcher.
type RateLimitedFetcher struct {
	inner   model.JobFetcher
	limiter *SourceLimiter
	source  string // which source this fetcher targets
}

// NewRateLimitedFetcher wraps a JobFetcher with source-level rate limiting.
// All fetchers targeting the same source should share the same limiter instance.
func NewRateLimitedFetcher(inner model.JobFetcher, limiter *SourceLimiter, source string) *RateLimitedFetcher {
	return &RateLimitedFetcher{
		inner:   inner,
		limiter: limiter,
		source:  source,
	}
}

// FetchJobs waits for the rate limiter to allow a request, then delegates to
// the wrapped fetcher.
func (f *RateLimitedFetcher) FetchJobs(ctx context.Context, search model.Search) ([]model.Job, error) {
	if err := f.limiter.Wait(ctx, f.source); err != nil {
		return nil, err
	}
	return f.inner.FetchJobs(ctx, search)
}

package search

import (
	"context"

	"golang.org/x/time/rate"

	"seeker-ai/internal/domain"
)

// RateLimited wraps a SearchProvider with a client-side rate limit so that
// concurrent fan-out cannot hammer the external API.
type RateLimited struct {
	inner   domain.SearchProvider
	limiter *rate.Limiter
}

// NewRateLimited limits the inner provider to requestsPerMin calls per
// minute with a burst of the fan-out width. requestsPerMin <= 0 disables
// limiting and returns the inner provider unchanged.
func NewRateLimited(inner domain.SearchProvider, requestsPerMin, burst int) domain.SearchProvider {
	if requestsPerMin <= 0 {
		return inner
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(requestsPerMin)/60.0, burst),
	}
}

func (r *RateLimited) Name() string { return r.inner.Name() }

func (r *RateLimited) Search(ctx context.Context, query string, count int) ([]domain.SearchResult, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.inner.Search(ctx, query, count)
}

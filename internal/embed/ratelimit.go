package embed

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimitedEmbedder throttles calls to an inner embedder with a token
// bucket. Each EmbedDocuments call is charged one token per API batch.
type RateLimitedEmbedder struct {
	inner   Embedder
	limiter *rate.Limiter
}

// NewRateLimited allows rps requests per second with the given burst.
func NewRateLimited(inner Embedder, rps float64, burst int) *RateLimitedEmbedder {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimitedEmbedder{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (r *RateLimitedEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	batches := max(1, (len(texts)+maxGeminiBatch-1)/maxGeminiBatch)
	for range batches {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("embed rate limit: %w", err)
		}
	}
	return r.inner.EmbedDocuments(ctx, texts)
}

func (r *RateLimitedEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("embed rate limit: %w", err)
	}
	return r.inner.EmbedQuery(ctx, text)
}

func (r *RateLimitedEmbedder) ModelName() string { return r.inner.ModelName() }

func (r *RateLimitedEmbedder) Close() error { return r.inner.Close() }

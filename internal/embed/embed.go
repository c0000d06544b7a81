// Package embed maps chunk and query text to vectors.
package embed

import (
	"context"
	"errors"
	"fmt"
)

// ErrEmbeddingUnavailable is returned when the model cannot be reached or
// fails to produce vectors.
var ErrEmbeddingUnavailable = errors.New("embedding model unavailable")

// Embedder produces vectors for stored chunks and for search queries.
// Document and query embeddings may use different task types but must live
// in the same vector space.
type Embedder interface {
	// EmbedDocuments returns one vector per text, in order.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	// EmbedQuery returns the vector for a search query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	// ModelName identifies the model, e.g. "text-embedding-004".
	ModelName() string
	Close() error
}

// Options selects and configures an embedder.
type Options struct {
	Provider  string // "gemini" or "static"
	Model     string
	APIKey    string
	CacheSize int     // Query cache entries; 0 disables the cache
	RateLimit float64 // Gemini requests per second; 0 disables throttling
}

// New builds the configured embedder. Gemini calls are throttled when
// RateLimit is positive and queries are cached when CacheSize is positive.
func New(ctx context.Context, opts Options) (Embedder, error) {
	var inner Embedder
	switch opts.Provider {
	case "gemini":
		g, err := NewGemini(ctx, opts.APIKey, opts.Model)
		if err != nil {
			return nil, err
		}
		inner = g
		if opts.RateLimit > 0 {
			inner = NewRateLimited(g, opts.RateLimit, 1)
		}
	case "static":
		inner = NewStatic()
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", opts.Provider)
	}

	if opts.CacheSize > 0 {
		return NewCached(inner, opts.CacheSize), nil
	}
	return inner, nil
}

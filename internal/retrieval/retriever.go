package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/CloudAIX/healthcare-rag-system/internal/document"
	"github.com/CloudAIX/healthcare-rag-system/internal/embed"
	"github.com/CloudAIX/healthcare-rag-system/internal/retry"
	"github.com/CloudAIX/healthcare-rag-system/internal/vectorstore"
)

// Searcher is the part of the vector store the retriever needs.
type Searcher interface {
	Query(ctx context.Context, embedding []float32, n int) ([]vectorstore.Hit, error)
}

// Retriever embeds a question and returns the nearest stored chunks.
type Retriever struct {
	embedder embed.Embedder
	store    Searcher
	topK     int
	policy   retry.Policy
	log      *slog.Logger
}

func NewRetriever(embedder embed.Embedder, store Searcher, topK int, policy retry.Policy, log *slog.Logger) *Retriever {
	if topK <= 0 {
		topK = 5
	}
	return &Retriever{
		embedder: embedder,
		store:    store,
		topK:     topK,
		policy:   policy,
		log:      log,
	}
}

// Retrieve returns up to topK chunks ordered by ascending distance. topK <= 0
// uses the retriever's default. No results is a valid outcome and returns an
// empty slice.
func (r *Retriever) Retrieve(ctx context.Context, question string, topK int) ([]document.RetrievedChunk, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("empty question")
	}
	if topK <= 0 {
		topK = r.topK
	}

	start := time.Now()
	vec, err := retry.DoValue(ctx, r.policy, func(ctx context.Context) ([]float32, error) {
		return r.embedder.EmbedQuery(ctx, question)
	})
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	hits, err := retry.DoValue(ctx, r.policy, func(ctx context.Context) ([]vectorstore.Hit, error) {
		return r.store.Query(ctx, vec, topK)
	})
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	chunks := make([]document.RetrievedChunk, len(hits))
	for i, h := range hits {
		chunks[i] = Reconstruct(h)
	}

	r.log.Debug("retrieved chunks",
		"top_k", topK,
		"results", len(chunks),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return chunks, nil
}

// Package app wires configuration into the ingestion and query components
// shared by the server and the CLI.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/CloudAIX/healthcare-rag-system/internal/chunker"
	"github.com/CloudAIX/healthcare-rag-system/internal/config"
	"github.com/CloudAIX/healthcare-rag-system/internal/embed"
	"github.com/CloudAIX/healthcare-rag-system/internal/generate"
	"github.com/CloudAIX/healthcare-rag-system/internal/parser"
	"github.com/CloudAIX/healthcare-rag-system/internal/pipeline"
	"github.com/CloudAIX/healthcare-rag-system/internal/retrieval"
	"github.com/CloudAIX/healthcare-rag-system/internal/retry"
	"github.com/CloudAIX/healthcare-rag-system/internal/vectorstore"
)

// App holds the wired components. Generator is nil when no Anthropic API
// key is configured.
type App struct {
	Config    config.Config
	Log       *slog.Logger
	Parser    *parser.Parser
	Embedder  embed.Embedder
	Store     *vectorstore.Store
	Ingester  *pipeline.Ingester
	Retriever *retrieval.Retriever
	Generator *generate.Generator
	Stats     *generate.LLMStats

	claude *generate.ClaudeClient
}

// RetryPolicy converts the retry settings.
func RetryPolicy(cfg config.Config) retry.Policy {
	return retry.Policy{
		MaxRetries:   cfg.RetryMax,
		InitialDelay: cfg.RetryInitialDelay,
		MaxDelay:     cfg.RetryMaxDelay,
	}
}

// New validates cfg and builds every component.
func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	policy := RetryPolicy(cfg)

	p, err := parser.New(parser.Options{
		SectionPatterns:   cfg.SectionPatterns,
		FallbackPdftotext: cfg.PDFFallbackPdftotext,
	})
	if err != nil {
		return nil, err
	}

	c, err := chunker.New(chunker.Config{ChunkSize: cfg.ChunkSize, ChunkOverlap: cfg.ChunkOverlap})
	if err != nil {
		return nil, err
	}

	e, err := embed.New(ctx, embed.Options{
		Provider:  cfg.EmbeddingProvider,
		Model:     cfg.EmbeddingModel,
		APIKey:    cfg.GeminiAPIKey,
		CacheSize: cfg.EmbeddingCacheSize,
		RateLimit: cfg.EmbeddingRateLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}

	store, err := vectorstore.Open(cfg.VectorStoreDir, cfg.VectorStoreCollection)
	if err != nil {
		e.Close()
		return nil, err
	}

	a := &App{
		Config:   cfg,
		Log:      log,
		Parser:   p,
		Embedder: e,
		Store:    store,
		Ingester: pipeline.NewIngester(c, e, store, pipeline.IngestOptions{
			BatchSize:   cfg.EmbeddingBatchSize,
			Concurrency: cfg.WorkerCount,
			Retry:       policy,
		}, log),
		Retriever: retrieval.NewRetriever(e, store, cfg.TopK, policy, log),
		Stats:     generate.NewLLMStats(0),
	}

	if cfg.AnthropicAPIKey != "" {
		prompts, err := generate.LoadPrompts(cfg.PromptsFile)
		if err != nil {
			e.Close()
			return nil, err
		}
		a.claude = generate.NewClaudeClient(cfg.AnthropicAPIKey)
		a.Generator = generate.NewGenerator(a.claude, generate.Options{
			Model:       cfg.AnthropicModel,
			MaxTokens:   cfg.GenerationMaxTokens,
			Temperature: cfg.GenerationTemperature,
			Prompts:     prompts,
			Retry:       policy,
		}, a.Stats, log)
	}

	log.Debug("components ready",
		"embedding_provider", cfg.EmbeddingProvider,
		"embedding_model", e.ModelName(),
		"collection", store.Name(),
		"collection_size", store.Count(),
		"generation", a.Generator != nil,
	)
	return a, nil
}

// NewWorker builds an ingestion worker over the app's parser and ingester.
func (a *App) NewWorker() *pipeline.Worker {
	return pipeline.NewWorker(a.Parser, a.Ingester, a.Log)
}

// IngestDir parses every supported file in dir and stores its chunks.
func (a *App) IngestDir(ctx context.Context, dir string, reset bool) (pipeline.IngestResult, error) {
	docs, err := a.Parser.ParseDir(dir)
	if err != nil {
		return pipeline.IngestResult{}, err
	}
	if len(docs) == 0 {
		return pipeline.IngestResult{}, fmt.Errorf("no supported documents in %s", dir)
	}
	for _, d := range docs {
		a.Log.Info("parsed document", "filename", d.Filename, "title", d.Title, "pages", len(d.Pages), "total_pages", d.TotalPages)
	}
	return a.Ingester.Ingest(ctx, docs, reset)
}

// Close releases the embedder and the Anthropic client.
func (a *App) Close() error {
	if a.claude != nil {
		a.claude.Close()
	}
	return a.Embedder.Close()
}

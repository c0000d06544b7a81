// Package pipeline turns parsed documents into stored, embedded chunks.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/CloudAIX/healthcare-rag-system/internal/chunker"
	"github.com/CloudAIX/healthcare-rag-system/internal/document"
	"github.com/CloudAIX/healthcare-rag-system/internal/embed"
	"github.com/CloudAIX/healthcare-rag-system/internal/retry"
	"github.com/CloudAIX/healthcare-rag-system/internal/vectorstore"
)

// ChunkStore is the part of the vector store ingestion writes to.
type ChunkStore interface {
	WithIngestLock(ctx context.Context, fn func(ctx context.Context) error) error
	MissingIDs(ctx context.Context, ids []string) ([]string, error)
	Add(ctx context.Context, records []vectorstore.Record) error
	Reset(ctx context.Context) error
}

// IngestOptions tunes batching and parallelism.
type IngestOptions struct {
	BatchSize   int // Chunks per embedding call
	Concurrency int // Documents chunked in parallel
	Retry       retry.Policy
}

// StoreResult counts what a store pass did.
type StoreResult struct {
	Total   int `json:"total"`
	New     int `json:"new"`
	Skipped int `json:"skipped"`
}

// IngestResult summarises a full ingestion run.
type IngestResult struct {
	Documents int `json:"documents"`
	StoreResult
}

// Ingester chunks documents, skips chunks already in the store, and embeds
// and stores the rest.
type Ingester struct {
	chunker  *chunker.Chunker
	embedder embed.Embedder
	store    ChunkStore
	opts     IngestOptions
	log      *slog.Logger
}

func NewIngester(c *chunker.Chunker, e embed.Embedder, s ChunkStore, opts IngestOptions, log *slog.Logger) *Ingester {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 64
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	return &Ingester{chunker: c, embedder: e, store: s, opts: opts, log: log}
}

// ChunkDocuments chunks docs in parallel. The result keeps document order,
// and chunk order within each document.
func (in *Ingester) ChunkDocuments(ctx context.Context, docs []*document.Document) ([]document.Chunk, error) {
	perDoc := make([][]document.Chunk, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(in.opts.Concurrency)
	for i, doc := range docs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			chunks, err := in.chunker.Chunk(doc)
			if err != nil {
				return err
			}
			perDoc[i] = chunks
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var total int
	for _, c := range perDoc {
		total += len(c)
	}
	all := make([]document.Chunk, 0, total)
	for i, c := range perDoc {
		in.log.Debug("chunked document", "filename", docs[i].Filename, "pages", len(docs[i].Pages), "chunks", len(c))
		all = append(all, c...)
	}
	return all, nil
}

// Store writes the chunks the store does not already hold. Reading the
// existing IDs and writing the new ones happen under the store's ingest
// lock, so concurrent runs never insert the same chunk twice.
func (in *Ingester) Store(ctx context.Context, chunks []document.Chunk) (StoreResult, error) {
	return in.storeChunks(ctx, chunks, nil)
}

// Ingest chunks and stores docs, optionally clearing the store first.
func (in *Ingester) Ingest(ctx context.Context, docs []*document.Document, reset bool) (IngestResult, error) {
	res := IngestResult{Documents: len(docs)}
	if reset {
		if err := in.store.Reset(ctx); err != nil {
			return res, fmt.Errorf("reset store: %w", err)
		}
		in.log.Info("store reset")
	}

	chunks, err := in.ChunkDocuments(ctx, docs)
	if err != nil {
		return res, fmt.Errorf("chunk documents: %w", err)
	}

	res.StoreResult, err = in.storeChunks(ctx, chunks, nil)
	if err != nil {
		return res, err
	}
	in.log.Info("ingestion complete",
		"documents", res.Documents,
		"chunks", res.Total,
		"new", res.New,
		"skipped", res.Skipped,
	)
	return res, nil
}

// storeChunks is Store with a callback after each stored batch.
func (in *Ingester) storeChunks(ctx context.Context, chunks []document.Chunk, onBatch func(stored int)) (StoreResult, error) {
	res := StoreResult{Total: len(chunks)}
	if len(chunks) == 0 {
		return res, nil
	}

	err := in.store.WithIngestLock(ctx, func(ctx context.Context) error {
		fresh, err := in.newChunks(ctx, chunks)
		if err != nil {
			return err
		}
		res.Skipped = res.Total - len(fresh)

		for start := 0; start < len(fresh); start += in.opts.BatchSize {
			batch := fresh[start:min(start+in.opts.BatchSize, len(fresh))]
			if err := in.storeBatch(ctx, batch); err != nil {
				return fmt.Errorf("batch at chunk %d: %w", start, err)
			}
			res.New += len(batch)
			if onBatch != nil {
				onBatch(len(batch))
			}
			in.log.Debug("stored batch", "size", len(batch), "stored", res.New, "pending", len(fresh)-res.New)
		}
		return nil
	})
	return res, err
}

// newChunks returns the chunks whose IDs are absent from the store, each ID
// at most once.
func (in *Ingester) newChunks(ctx context.Context, chunks []document.Chunk) ([]document.Chunk, error) {
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID
	}
	missing, err := in.store.MissingIDs(ctx, document.UniqueStrings(ids))
	if err != nil {
		return nil, fmt.Errorf("read stored ids: %w", err)
	}

	want := make(map[string]bool, len(missing))
	for _, id := range missing {
		want[id] = true
	}
	fresh := make([]document.Chunk, 0, len(missing))
	for _, c := range chunks {
		if want[c.ID] {
			fresh = append(fresh, c)
			delete(want, c.ID)
		}
	}
	return fresh, nil
}

func (in *Ingester) storeBatch(ctx context.Context, batch []document.Chunk) error {
	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.Text
	}

	vectors, err := retry.DoValue(ctx, in.opts.Retry, func(ctx context.Context) ([][]float32, error) {
		return in.embedder.EmbedDocuments(ctx, texts)
	})
	if err != nil {
		return fmt.Errorf("embed: %w", err)
	}
	if len(vectors) != len(batch) {
		return fmt.Errorf("%w: got %d vectors for %d chunks", embed.ErrEmbeddingUnavailable, len(vectors), len(batch))
	}

	records := make([]vectorstore.Record, len(batch))
	for i, c := range batch {
		records[i] = vectorstore.Record{
			ID:        c.ID,
			Text:      c.Text,
			Metadata:  c.Metadata(),
			Embedding: vectors[i],
		}
	}
	return retry.Do(ctx, in.opts.Retry, func(ctx context.Context) error {
		return in.store.Add(ctx, records)
	})
}

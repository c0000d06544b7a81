package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/CloudAIX/healthcare-rag-system/internal/document"
	"github.com/CloudAIX/healthcare-rag-system/internal/parser"
)

// Worker processes a single document job.
type Worker struct {
	parser   *parser.Parser
	ingester *Ingester
	log      *slog.Logger
}

func NewWorker(p *parser.Parser, in *Ingester, log *slog.Logger) *Worker {
	return &Worker{parser: p, ingester: in, log: log}
}

// Process runs parse, chunk and embed+store for a job. The job's final
// status is duplicate_skipped when every chunk was already stored.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)
	defer job.SetFileData(nil)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	doc, err := w.parser.Parse(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.Fail("parsing", fmt.Sprintf("parse: %s", err))
		return
	}
	if job.Title != "" {
		doc.Title = job.Title
	}
	job.SetParsed(doc.Title, len(doc.Pages), ContentHashHex([]byte(doc.FullText())))
	log.Info("parsed document", "title", doc.Title, "pages", len(doc.Pages), "total_pages", doc.TotalPages)

	// Phase 2: Chunk
	job.SetStatus(StatusChunking, "chunking")
	chunks, err := w.ingester.ChunkDocuments(ctx, []*document.Document{doc})
	if err != nil {
		log.Error("chunking failed", "error", err)
		job.Fail("chunking", fmt.Sprintf("chunk: %s", err))
		return
	}
	job.SetTotalChunks(len(chunks))
	log.Info("chunked document", "chunks", len(chunks))

	if len(chunks) == 0 {
		log.Warn("no chunks produced")
		job.Fail("chunking", "no extractable content")
		return
	}

	// Phase 3: Dedup, embed and store.
	job.SetStatus(StatusEmbedding, "embedding")
	res, err := w.ingester.storeChunks(ctx, chunks, job.AddChunksStored)
	job.SetChunksSkipped(res.Skipped)
	if err != nil {
		log.Error("store failed", "error", err, "stored", res.New)
		job.Fail("embedding", fmt.Sprintf("store: %s", err))
		return
	}

	if res.New == 0 {
		log.Info("duplicate document, nothing new to store", "skipped", res.Skipped)
		job.SetStatus(StatusDupSkipped, "done")
		return
	}
	log.Info("storage complete", "stored", res.New, "skipped", res.Skipped)
	job.SetStatus(StatusCompleted, "done")
}

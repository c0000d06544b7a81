package chunker

import (
	"fmt"
	"strings"

	"github.com/CloudAIX/healthcare-rag-system/internal/document"
)

// Config controls chunking behavior. Both values are approximate token
// counts, converted to characters with CharsPerToken.
type Config struct {
	ChunkSize    int // Target chunk size in tokens.
	ChunkOverlap int // Overlap between consecutive chunks in tokens.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    700,
		ChunkOverlap: 100,
	}
}

// Validate rejects configs that would stall the sliding window.
func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size must be positive, got %d", ErrInvalidConfig, c.ChunkSize)
	}
	if c.ChunkOverlap <= 0 {
		return fmt.Errorf("%w: chunk_overlap must be positive, got %d", ErrInvalidConfig, c.ChunkOverlap)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap (%d) must be less than chunk_size (%d)", ErrInvalidConfig, c.ChunkOverlap, c.ChunkSize)
	}
	return nil
}

// Chunker turns documents into chunks with page and section provenance.
// It holds no per-document state and is safe for concurrent use.
type Chunker struct {
	splitter *Splitter
}

// New creates a Chunker from an explicit config.
func New(cfg Config) (*Chunker, error) {
	s, err := NewSplitter(cfg)
	if err != nil {
		return nil, err
	}
	return &Chunker{splitter: s}, nil
}

// Chunk splits a document into overlapping chunks. A document with no pages,
// or only blank text, yields no chunks.
func (c *Chunker) Chunk(doc *document.Document) ([]document.Chunk, error) {
	ix := BuildPageIndex(doc.Pages)

	spans, err := c.splitter.split(ix.text)
	if err != nil {
		return nil, fmt.Errorf("split %s: %w", doc.Filename, err)
	}

	chunks := make([]document.Chunk, 0, len(spans))
	for _, sp := range spans {
		// Split stops at the first blank window, so text is never empty.
		text := strings.TrimSpace(ix.Slice(sp.Start, sp.End))
		prov := ix.Resolve(sp.Start, sp.End)
		chunks = append(chunks, document.Chunk{
			ID:               ChunkID(doc.Filename, sp.Index, text),
			Text:             text,
			DocumentTitle:    doc.Title,
			DocumentFilename: doc.Filename,
			PageNumbers:      prov.Pages,
			Sections:         prov.Sections,
			Index:            sp.Index,
			CharStart:        sp.Start,
			CharEnd:          sp.End,
		})
	}
	return chunks, nil
}

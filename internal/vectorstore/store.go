// Package vectorstore persists chunks with their embeddings and answers
// cosine nearest-neighbour queries.
package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/philippgille/chromem-go"

	"github.com/CloudAIX/healthcare-rag-system/internal/retry"
)

var (
	// ErrStoreUnavailable covers failures to open, write or reset the store.
	ErrStoreUnavailable = errors.New("vector store unavailable")

	// ErrQueryFailed is returned for malformed or failed similarity searches.
	// An empty result is not a failure.
	ErrQueryFailed = errors.New("vector store query failed")
)

const lockRetryDelay = 50 * time.Millisecond

// Record is one chunk ready to be written.
type Record struct {
	ID        string
	Text      string
	Metadata  map[string]string
	Embedding []float32
}

// Hit is one raw search result. Distance is cosine distance, lower is closer.
type Hit struct {
	ID       string
	Text     string
	Metadata map[string]string
	Distance float64
}

// Store wraps a chromem collection configured for cosine similarity.
//
// Writers that need read-then-write consistency (dedup followed by insert)
// run inside WithIngestLock, which serializes them within the process and,
// for a persistent store, across processes through a lock file next to the
// store directory.
type Store struct {
	dir  string
	name string

	mu         sync.RWMutex // guards db and collection
	db         *chromem.DB
	collection *chromem.Collection

	ingestMu sync.Mutex
	fileLock *flock.Flock // nil for in-memory stores
}

// Open loads or creates the persistent collection name under dir. An empty
// dir gives an in-memory store.
func Open(dir, name string) (*Store, error) {
	s := &Store{name: name}
	if dir != "" {
		s.dir = filepath.Clean(dir)
		s.fileLock = flock.New(s.dir + ".lock")
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// load (re)reads the database from disk and binds the collection.
func (s *Store) load() error {
	var db *chromem.DB
	if s.dir == "" {
		db = chromem.NewDB()
	} else {
		var err error
		db, err = chromem.NewPersistentDB(s.dir, false)
		if err != nil {
			return fmt.Errorf("%w: open %s: %w", ErrStoreUnavailable, s.dir, err)
		}
	}
	col, err := db.GetOrCreateCollection(s.name, map[string]string{"hnsw:space": "cosine"}, nil)
	if err != nil {
		return fmt.Errorf("%w: collection %s: %w", ErrStoreUnavailable, s.name, err)
	}

	s.mu.Lock()
	s.db = db
	s.collection = col
	s.mu.Unlock()
	return nil
}

func (s *Store) col() *chromem.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collection
}

// WithIngestLock runs fn while holding the store's write lock. For a
// persistent store the collection is reloaded after the lock is taken so
// that fn sees writes made by other processes.
func (s *Store) WithIngestLock(ctx context.Context, fn func(ctx context.Context) error) error {
	s.ingestMu.Lock()
	defer s.ingestMu.Unlock()

	if s.fileLock != nil {
		ok, err := s.fileLock.TryLockContext(ctx, lockRetryDelay)
		if err != nil {
			return fmt.Errorf("%w: acquire lock %s: %w", ErrStoreUnavailable, s.fileLock.Path(), err)
		}
		if !ok {
			return fmt.Errorf("%w: lock %s not acquired", ErrStoreUnavailable, s.fileLock.Path())
		}
		defer s.fileLock.Unlock()

		if err := s.load(); err != nil {
			return err
		}
	}

	return fn(ctx)
}

// MissingIDs returns the ids not yet stored, preserving input order.
func (s *Store) MissingIDs(ctx context.Context, ids []string) ([]string, error) {
	col := s.col()
	var missing []string
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// GetByID only fails for unknown or empty IDs.
		if _, err := col.GetByID(ctx, id); err != nil {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// Add writes records, replacing any with the same ID. Write failures are
// marked retryable; a record without an embedding is not.
func (s *Store) Add(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	docs := make([]chromem.Document, len(records))
	for i, r := range records {
		if len(r.Embedding) == 0 {
			return fmt.Errorf("%w: record %s has no embedding", ErrStoreUnavailable, r.ID)
		}
		docs[i] = chromem.Document{
			ID:        r.ID,
			Metadata:  r.Metadata,
			Embedding: r.Embedding,
			Content:   r.Text,
		}
	}
	if err := s.col().AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return retry.Transient(fmt.Errorf("%w: add %d records: %w", ErrStoreUnavailable, len(records), err))
	}
	return nil
}

// Query returns up to n hits ordered by ascending distance. A query against
// an empty collection returns no hits and no error. Failures inside the
// collection are marked retryable; invalid arguments are not.
func (s *Store) Query(ctx context.Context, embedding []float32, n int) ([]Hit, error) {
	if len(embedding) == 0 {
		return nil, fmt.Errorf("%w: empty query embedding", ErrQueryFailed)
	}
	if n <= 0 {
		return nil, fmt.Errorf("%w: result count must be positive, got %d", ErrQueryFailed, n)
	}

	col := s.col()
	n = min(n, col.Count())
	if n == 0 {
		return []Hit{}, nil
	}

	results, err := col.QueryEmbedding(ctx, embedding, n, nil, nil)
	if err != nil {
		return nil, retry.Transient(fmt.Errorf("%w: %w", ErrQueryFailed, err))
	}

	hits := make([]Hit, len(results))
	for i, r := range results {
		hits[i] = Hit{
			ID:       r.ID,
			Text:     r.Content,
			Metadata: maps.Clone(r.Metadata),
			Distance: 1 - float64(r.Similarity),
		}
	}
	return hits, nil
}

// Count returns the number of stored chunks.
func (s *Store) Count() int {
	return s.col().Count()
}

// Name returns the collection name.
func (s *Store) Name() string { return s.name }

// Reset deletes and recreates the collection.
func (s *Store) Reset(ctx context.Context) error {
	return s.WithIngestLock(ctx, func(context.Context) error {
		s.mu.Lock()
		db := s.db
		s.mu.Unlock()
		if err := db.DeleteCollection(s.name); err != nil {
			return fmt.Errorf("%w: delete collection %s: %w", ErrStoreUnavailable, s.name, err)
		}
		return s.load()
	})
}

// DeleteWhere removes every record whose metadata matches all pairs in where
// and reports how many were removed.
func (s *Store) DeleteWhere(ctx context.Context, where map[string]string) (int, error) {
	if len(where) == 0 {
		return 0, fmt.Errorf("%w: delete requires a filter", ErrStoreUnavailable)
	}
	var removed int
	err := s.WithIngestLock(ctx, func(ctx context.Context) error {
		col := s.col()
		before := col.Count()
		if err := col.Delete(ctx, where, nil); err != nil {
			return fmt.Errorf("%w: delete: %w", ErrStoreUnavailable, err)
		}
		removed = before - col.Count()
		return nil
	})
	return removed, err
}

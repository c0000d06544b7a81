package embed

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
	"sync"
)

// StaticDimensions is the vector length produced by StaticEmbedder.
const StaticDimensions = 256

const (
	tokenWeight = 0.7
	ngramWeight = 0.3
	ngramSize   = 3
)

var wordRegex = regexp.MustCompile(`[\p{L}\p{N}]+`)

// stopWords are common English words that carry no retrieval signal.
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "in": true, "is": true,
	"it": true, "of": true, "on": true, "or": true, "that": true, "the": true,
	"this": true, "to": true, "was": true, "with": true,
}

// StaticEmbedder hashes words and character trigrams into a fixed-size
// vector. It needs no network or model download and is deterministic, which
// makes it suitable for offline ingestion and tests. Semantic quality is low.
type StaticEmbedder struct {
	mu     sync.RWMutex
	closed bool
}

func NewStatic() *StaticEmbedder {
	return &StaticEmbedder{}
}

func (e *StaticEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if err := e.check(ctx); err != nil {
		return nil, err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = staticVector(t)
	}
	return out, nil
}

func (e *StaticEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if err := e.check(ctx); err != nil {
		return nil, err
	}
	return staticVector(text), nil
}

func (e *StaticEmbedder) ModelName() string { return "static-hash-256" }

func (e *StaticEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

func (e *StaticEmbedder) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return errors.Join(ErrEmbeddingUnavailable, errors.New("static embedder is closed"))
	}
	return nil
}

// staticVector returns a unit vector. Text with no words maps to a fixed
// basis vector since the store cannot normalize a zero vector.
func staticVector(text string) []float32 {
	vec := make([]float32, StaticDimensions)

	words := wordRegex.FindAllString(strings.ToLower(text), -1)
	for _, w := range words {
		if stopWords[w] {
			continue
		}
		vec[hashIndex(w)] += tokenWeight
	}

	joined := []rune(strings.Join(words, " "))
	for i := 0; i+ngramSize <= len(joined); i++ {
		vec[hashIndex(string(joined[i:i+ngramSize]))] += ngramWeight
	}

	if !normalize(vec) {
		vec[0] = 1
	}
	return vec
}

func hashIndex(s string) int {
	h := fnv.New32a()
	h.Write([]byte(s))
	return int(h.Sum32() % StaticDimensions)
}

// normalize scales v to unit length in place. It reports false for the zero
// vector.
func normalize(v []float32) bool {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return false
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
	return true
}

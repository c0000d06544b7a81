package chunker

import (
	"errors"
	"fmt"
	"unicode"
)

var (
	// ErrInvalidConfig is returned for chunk sizes or overlaps that cannot
	// advance the window.
	ErrInvalidConfig = errors.New("invalid chunk config")

	// ErrStalledCursor is returned if the window fails to advance. Split
	// falls back to a hard cut before that can happen for any valid config.
	ErrStalledCursor = errors.New("chunk window did not advance")
)

var paragraphBreak = []rune("\n\n")

// Span is a candidate chunk: the half-open rune range [Start, End).
type Span struct {
	Start int
	End   int
	Index int
}

// Splitter cuts text into overlapping windows, snapping each cut to a
// paragraph or sentence boundary when one is close enough.
type Splitter struct {
	size    int // Window size in characters
	overlap int // Overlap between neighbouring windows in characters
}

// NewSplitter converts the token-based config into a character budget.
func NewSplitter(cfg Config) (*Splitter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Splitter{
		size:    TokensToChars(cfg.ChunkSize),
		overlap: TokensToChars(cfg.ChunkOverlap),
	}, nil
}

// Split returns the spans covering text. Offsets are rune offsets.
func (s *Splitter) Split(text string) ([]Span, error) {
	return s.split([]rune(text))
}

func (s *Splitter) split(text []rune) ([]Span, error) {
	n := len(text)
	var spans []Span

	cursor := 0
	for cursor < n {
		end := cursor + s.size
		if end < n {
			// A snap that would not leave the next window ahead of this one
			// is dropped in favour of the hard cut, which always advances
			// because overlap < size.
			if snapped := s.snap(text, cursor, end); snapped-s.overlap > cursor {
				end = snapped
			}
		}
		if end > n {
			end = n
		}

		if isBlank(text[cursor:end]) {
			break
		}
		spans = append(spans, Span{Start: cursor, End: end, Index: len(spans)})

		if end == n {
			break
		}
		next := end - s.overlap
		if next <= cursor {
			return spans, fmt.Errorf("%w: cursor %d would move to %d", ErrStalledCursor, cursor, next)
		}
		cursor = next
	}

	return spans, nil
}

// snap moves a tentative cut to the last paragraph break, else the last
// sentence end, within [cursor+size/2, end+overlap). Falls back to end.
func (s *Splitter) snap(text []rune, cursor, end int) int {
	lo := cursor + s.size/2
	hi := min(end+s.overlap, len(text))

	if i := lastIndexIn(text, paragraphBreak, lo, hi); i >= 0 {
		return i
	}
	if i := lastSentenceEnd(text, lo, hi); i >= 0 {
		return i + 1
	}
	return end
}

// lastIndexIn returns the last index i in [lo, hi-len(sep)] where sep occurs, or -1.
func lastIndexIn(text, sep []rune, lo, hi int) int {
	for i := hi - len(sep); i >= lo; i-- {
		match := true
		for j, r := range sep {
			if text[i+j] != r {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// lastSentenceEnd returns the index of the last '.', '!' or '?' in [lo, hi-1)
// that is followed by whitespace, or -1.
func lastSentenceEnd(text []rune, lo, hi int) int {
	for i := hi - 2; i >= lo; i-- {
		switch text[i] {
		case '.', '!', '?':
			if text[i+1] == ' ' || text[i+1] == '\n' {
				return i
			}
		}
	}
	return -1
}

func isBlank(rs []rune) bool {
	for _, r := range rs {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

package document

import (
	"fmt"
	"strings"
)

// PageSeparator joins page texts into a document's concatenated text.
const PageSeparator = "\n\n"

// Page is one extracted page of a source document.
type Page struct {
	Number   int      // 1-based physical page number
	Text     string   // Cleaned page text
	Sections []string // Section labels detected in this page's text alone
}

// Document is an ordered sequence of pages from one source file.
// Page numbers increase with position but need not be contiguous.
type Document struct {
	Filename   string
	Title      string
	TotalPages int // Physical page count, including dropped blank pages
	Pages      []Page
}

// FullText returns the page texts joined by PageSeparator.
func (d *Document) FullText() string {
	texts := make([]string, len(d.Pages))
	for i, p := range d.Pages {
		texts[i] = p.Text
	}
	return strings.Join(texts, PageSeparator)
}

// Chunk is an overlapping text segment of a document with its provenance.
type Chunk struct {
	ID               string
	Text             string // Trimmed, never empty
	DocumentTitle    string
	DocumentFilename string
	PageNumbers      []int    // Ascending, deduplicated, never empty
	Sections         []string // Deduplicated, first-seen order
	Index            int      // 0-based sequence within the document
	CharStart        int      // Rune offset into the concatenated text
	CharEnd          int      // Exclusive
}

// Citation renders the chunk's human-readable source reference.
func (c Chunk) Citation() string {
	return Citation(c.DocumentTitle, c.Sections, c.PageNumbers)
}

// RetrievedChunk is a chunk rebuilt from the vector store for one query.
type RetrievedChunk struct {
	ID               string
	Text             string
	DocumentTitle    string
	DocumentFilename string
	PageNumbers      []int
	Sections         []string
	ChunkIndex       int     // -1 when the stored record carries no index
	Score            float64 // Cosine distance; lower is more relevant
}

// Citation renders the retrieved chunk's human-readable source reference.
func (c RetrievedChunk) Citation() string {
	return Citation(c.DocumentTitle, c.Sections, c.PageNumbers)
}

// Citation formats "[Source: <title>, <section>, p.<n>]" or "pp.<first>-<last>".
// Only the first and last page are used, so a non-contiguous set such as
// [3 5] renders as "pp.3-5". The section segment is omitted when there are no
// sections, and the page segment when there are no pages.
func Citation(title string, sections []string, pages []int) string {
	var sb strings.Builder
	sb.WriteString("[Source: ")
	sb.WriteString(title)
	if len(sections) > 0 {
		sb.WriteString(", ")
		sb.WriteString(sections[0])
	}
	switch len(pages) {
	case 0:
	case 1:
		fmt.Fprintf(&sb, ", p.%d", pages[0])
	default:
		fmt.Fprintf(&sb, ", pp.%d-%d", pages[0], pages[len(pages)-1])
	}
	sb.WriteString("]")
	return sb.String()
}

// UniqueStrings drops repeated values, keeping first-seen order.
func UniqueStrings(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

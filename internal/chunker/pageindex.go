package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/CloudAIX/healthcare-rag-system/internal/document"
)

// pageSpan records where one page sits inside the concatenated text.
type pageSpan struct {
	start    int // Rune offset of the page's first character
	end      int // start + rune length of the page text
	number   int
	sections []string
}

// PageIndex is the concatenated text of a document plus the offset table
// mapping it back to pages. Offsets are in runes, not bytes.
type PageIndex struct {
	text  []rune
	pages []pageSpan
}

// BuildPageIndex joins page texts with document.PageSeparator and records each
// page's start offset. An empty page list yields an empty index.
func BuildPageIndex(pages []document.Page) *PageIndex {
	ix := &PageIndex{pages: make([]pageSpan, 0, len(pages))}

	var sb strings.Builder
	offset := 0
	sepLen := utf8.RuneCountInString(document.PageSeparator)
	for i, p := range pages {
		if i > 0 {
			sb.WriteString(document.PageSeparator)
			offset += sepLen
		}
		n := utf8.RuneCountInString(p.Text)
		ix.pages = append(ix.pages, pageSpan{
			start:    offset,
			end:      offset + n,
			number:   p.Number,
			sections: p.Sections,
		})
		sb.WriteString(p.Text)
		offset += n
	}
	ix.text = []rune(sb.String())
	return ix
}

// Text returns the concatenated document text.
func (ix *PageIndex) Text() string {
	return string(ix.text)
}

// Len returns the concatenated text length in runes.
func (ix *PageIndex) Len() int {
	return len(ix.text)
}

// PageCount returns the number of indexed pages.
func (ix *PageIndex) PageCount() int {
	return len(ix.pages)
}

// Slice returns the text in [start, end).
func (ix *PageIndex) Slice(start, end int) string {
	return string(ix.text[start:end])
}

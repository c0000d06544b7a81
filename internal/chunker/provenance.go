package chunker

import (
	"slices"
	"sort"

	"github.com/CloudAIX/healthcare-rag-system/internal/document"
)

// fallbackPage is attributed when a span overlaps no page.
const fallbackPage = 1

// Provenance is the set of pages and section labels a span is attributable to.
type Provenance struct {
	Pages    []int
	Sections []string
}

// Resolve finds every page whose [start, end) range intersects the span and
// unions their section labels. Pages come back ascending and deduplicated,
// sections deduplicated in first-seen order. If no page overlaps, the span is
// attributed to page 1 so provenance is never empty.
func (ix *PageIndex) Resolve(start, end int) Provenance {
	// Page starts ascend, so skip straight to the first page ending after start.
	first := sort.Search(len(ix.pages), func(i int) bool {
		return ix.pages[i].end > start
	})

	var pages []int
	var sections []string
	for _, p := range ix.pages[first:] {
		if p.start >= end {
			break
		}
		pages = append(pages, p.number)
		sections = append(sections, p.sections...)
	}

	if len(pages) == 0 {
		return Provenance{Pages: []int{fallbackPage}, Sections: []string{}}
	}
	slices.Sort(pages)
	return Provenance{
		Pages:    slices.Compact(pages),
		Sections: document.UniqueStrings(sections),
	}
}

package document

import (
	"strconv"
	"strings"
)

// Storage metadata keys. List-valued fields are stored comma-joined; this
// file is the only place that encodes or decodes them.
const (
	MetaChunkID          = "chunk_id"
	MetaDocumentTitle    = "document_title"
	MetaDocumentFilename = "document_filename"
	MetaPageNumbers      = "page_numbers"
	MetaSections         = "sections"
	MetaChunkIndex       = "chunk_index"
)

// Fallbacks used when a stored record is missing its document fields.
const (
	UnknownTitle    = "Unknown"
	UnknownFilename = "unknown.pdf"
)

const listDelimiter = ","

// Metadata flattens the chunk into the store's string metadata.
// Section labels are joined verbatim and must not contain commas.
func (c Chunk) Metadata() map[string]string {
	pages := make([]string, len(c.PageNumbers))
	for i, p := range c.PageNumbers {
		pages[i] = strconv.Itoa(p)
	}
	return map[string]string{
		MetaChunkID:          c.ID,
		MetaDocumentTitle:    c.DocumentTitle,
		MetaDocumentFilename: c.DocumentFilename,
		MetaPageNumbers:      strings.Join(pages, listDelimiter),
		MetaSections:         strings.Join(c.Sections, listDelimiter),
		MetaChunkIndex:       strconv.Itoa(c.Index),
	}
}

// StoredMetadata is the typed form of a flattened metadata map.
type StoredMetadata struct {
	DocumentTitle    string
	DocumentFilename string
	PageNumbers      []int
	Sections         []string
	ChunkIndex       int
}

// ParseMetadata inverts Chunk.Metadata. It never fails: missing titles and
// filenames fall back to UnknownTitle and UnknownFilename, unparseable page
// entries are skipped, an absent page field yields no pages, and a missing
// or malformed chunk index yields -1.
func ParseMetadata(m map[string]string) StoredMetadata {
	sm := StoredMetadata{
		DocumentTitle:    UnknownTitle,
		DocumentFilename: UnknownFilename,
		PageNumbers:      []int{},
		Sections:         []string{},
		ChunkIndex:       -1,
	}
	if v, ok := m[MetaDocumentTitle]; ok && v != "" {
		sm.DocumentTitle = v
	}
	if v, ok := m[MetaDocumentFilename]; ok && v != "" {
		sm.DocumentFilename = v
	}
	for _, p := range strings.Split(m[MetaPageNumbers], listDelimiter) {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			continue
		}
		sm.PageNumbers = append(sm.PageNumbers, n)
	}
	for _, s := range strings.Split(m[MetaSections], listDelimiter) {
		s = strings.TrimSpace(s)
		if s != "" {
			sm.Sections = append(sm.Sections, s)
		}
	}
	if v, ok := m[MetaChunkIndex]; ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			sm.ChunkIndex = n
		}
	}
	return sm
}

package document

import (
	"reflect"
	"testing"
)

func TestCitation(t *testing.T) {
	tests := []struct {
		name     string
		sections []string
		pages    []int
		want     string
	}{
		{"single page", nil, []int{7}, "[Source: Guide, p.7]"},
		{"page range", nil, []int{3, 4, 5}, "[Source: Guide, pp.3-5]"},
		{"with section", []string{"Standard 1", "Outcome 1.2"}, []int{2}, "[Source: Guide, Standard 1, p.2]"},
		{"non-contiguous uses first and last", nil, []int{3, 5}, "[Source: Guide, pp.3-5]"},
		{"no pages", []string{"Standard 2"}, nil, "[Source: Guide, Standard 2]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Citation("Guide", tt.sections, tt.pages)
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestFullText(t *testing.T) {
	doc := &Document{Pages: []Page{{Number: 1, Text: "a"}, {Number: 3, Text: "b"}}}
	if got := doc.FullText(); got != "a\n\nb" {
		t.Errorf("expected %q, got %q", "a\n\nb", got)
	}
	empty := &Document{}
	if got := empty.FullText(); got != "" {
		t.Errorf("expected empty text, got %q", got)
	}
}

func TestMetadata_Flatten(t *testing.T) {
	c := Chunk{
		ID:               "guide-chunk-0002-abcd1234",
		DocumentTitle:    "Guide",
		DocumentFilename: "guide.pdf",
		PageNumbers:      []int{3, 4},
		Sections:         []string{"Standard 1", "Outcome 1.2"},
		Index:            2,
	}
	m := c.Metadata()
	want := map[string]string{
		MetaChunkID:          "guide-chunk-0002-abcd1234",
		MetaDocumentTitle:    "Guide",
		MetaDocumentFilename: "guide.pdf",
		MetaPageNumbers:      "3,4",
		MetaSections:         "Standard 1,Outcome 1.2",
		MetaChunkIndex:       "2",
	}
	if !reflect.DeepEqual(m, want) {
		t.Errorf("expected %v, got %v", want, m)
	}
}

func TestMetadata_RoundTrip(t *testing.T) {
	c := Chunk{
		DocumentTitle:    "Guide",
		DocumentFilename: "guide.pdf",
		PageNumbers:      []int{1, 2, 5},
		Sections:         []string{"Standard 1", "Outcome 1.2", "Action 1.2.3"},
		Index:            9,
	}
	sm := ParseMetadata(c.Metadata())
	if !reflect.DeepEqual(sm.PageNumbers, c.PageNumbers) {
		t.Errorf("pages: expected %v, got %v", c.PageNumbers, sm.PageNumbers)
	}
	if !reflect.DeepEqual(sm.Sections, c.Sections) {
		t.Errorf("sections: expected %v, got %v", c.Sections, sm.Sections)
	}
	if sm.ChunkIndex != 9 {
		t.Errorf("expected chunk index 9, got %d", sm.ChunkIndex)
	}
}

func TestParseMetadata_Fallbacks(t *testing.T) {
	sm := ParseMetadata(map[string]string{})
	if sm.DocumentTitle != UnknownTitle {
		t.Errorf("expected title %q, got %q", UnknownTitle, sm.DocumentTitle)
	}
	if sm.DocumentFilename != UnknownFilename {
		t.Errorf("expected filename %q, got %q", UnknownFilename, sm.DocumentFilename)
	}
	if sm.PageNumbers == nil || len(sm.PageNumbers) != 0 {
		t.Errorf("expected empty non-nil pages, got %v", sm.PageNumbers)
	}
	if len(sm.Sections) != 0 {
		t.Errorf("expected no sections, got %v", sm.Sections)
	}
	if sm.ChunkIndex != -1 {
		t.Errorf("expected chunk index -1, got %d", sm.ChunkIndex)
	}
}

func TestParseMetadata_Malformed(t *testing.T) {
	sm := ParseMetadata(map[string]string{
		MetaPageNumbers: "3,, x ,4",
		MetaSections:    " Standard 1 ,,Outcome 1.2,",
		MetaChunkIndex:  "abc",
	})
	if !reflect.DeepEqual(sm.PageNumbers, []int{3, 4}) {
		t.Errorf("expected [3 4], got %v", sm.PageNumbers)
	}
	if !reflect.DeepEqual(sm.Sections, []string{"Standard 1", "Outcome 1.2"}) {
		t.Errorf("unexpected sections %v", sm.Sections)
	}
	if sm.ChunkIndex != -1 {
		t.Errorf("expected -1 for malformed index, got %d", sm.ChunkIndex)
	}
}

func TestUniqueStrings(t *testing.T) {
	got := UniqueStrings([]string{"Standard 1", "Standard 1", "Outcome 1.2"})
	want := []string{"Standard 1", "Outcome 1.2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if got := UniqueStrings(nil); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %v", got)
	}
}

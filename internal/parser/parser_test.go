package parser

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/CloudAIX/healthcare-rag-system/internal/config"
)

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	p, err := New(Options{SectionPatterns: config.DefaultSectionPatterns})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestParse_CleansPagesAndKeepsPhysicalNumbers(t *testing.T) {
	input := "Standard 1\nConsumer dignity.\n\n12\n\fPage 2 of 3\n\n\f Standard 2   applies. Outcome 2.1 too."

	doc, err := newTestParser(t).Parse(strings.NewReader(input), "/uploads/aged-care_guide.txt")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if doc.Filename != "aged-care_guide.txt" {
		t.Errorf("filename: got %q", doc.Filename)
	}
	if doc.Title != "Aged Care Guide" {
		t.Errorf("title fallback: got %q", doc.Title)
	}
	if doc.TotalPages != 3 {
		t.Errorf("total pages: got %d", doc.TotalPages)
	}
	if len(doc.Pages) != 2 {
		t.Fatalf("blank page should be dropped, got %d pages", len(doc.Pages))
	}

	first, last := doc.Pages[0], doc.Pages[1]
	if first.Number != 1 || first.Text != "Standard 1\nConsumer dignity." {
		t.Errorf("page 1: got %d %q", first.Number, first.Text)
	}
	if !reflect.DeepEqual(first.Sections, []string{"Standard 1"}) {
		t.Errorf("page 1 sections: got %q", first.Sections)
	}
	if last.Number != 3 || last.Text != "Standard 2 applies. Outcome 2.1 too." {
		t.Errorf("page 3: got %d %q", last.Number, last.Text)
	}
	if !reflect.DeepEqual(last.Sections, []string{"Standard 2", "Outcome 2.1"}) {
		t.Errorf("page 3 sections: got %q", last.Sections)
	}
}

func TestParse_EmbeddedTitleWins(t *testing.T) {
	doc, err := newTestParser(t).Parse(strings.NewReader("# Quality Standards\n\nBody."), "qs.md")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Title != "Quality Standards" {
		t.Errorf("title: got %q", doc.Title)
	}
}

func TestParse_HTML(t *testing.T) {
	input := `<html><head><title>Quality Guide</title></head><body>
<nav>skip me</nav>
<h1>Standard 3</h1>
<p>Personal care.</p>
<script>var x;</script>
<ul><li>One</li></ul>
</body></html>`

	doc, err := newTestParser(t).Parse(strings.NewReader(input), "guide.html")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Title != "Quality Guide" {
		t.Errorf("title: got %q", doc.Title)
	}
	if len(doc.Pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(doc.Pages))
	}
	if doc.Pages[0].Text != "Standard 3\n\nPersonal care.\n\nOne" {
		t.Errorf("text: got %q", doc.Pages[0].Text)
	}
	if !reflect.DeepEqual(doc.Pages[0].Sections, []string{"Standard 3"}) {
		t.Errorf("sections: got %q", doc.Pages[0].Sections)
	}
}

func TestParse_CSVPagesByRowGroup(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("name,score\n")
	for i := 0; i < 45; i++ {
		sb.WriteString("row,1\n")
	}

	doc, err := newTestParser(t).Parse(strings.NewReader(sb.String()), "scores.csv")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(doc.Pages) != 3 {
		t.Fatalf("expected 3 pages of rows, got %d", len(doc.Pages))
	}
	if !strings.HasPrefix(doc.Pages[0].Text, "Headers: name, score\n\nname: row, score: 1") {
		t.Errorf("unexpected first page: %q", doc.Pages[0].Text)
	}
	if doc.Pages[2].Number != 3 {
		t.Errorf("page number: got %d", doc.Pages[2].Number)
	}
}

func TestParse_UnsupportedExtension(t *testing.T) {
	if _, err := newTestParser(t).Parse(strings.NewReader("x"), "image.png"); err == nil {
		t.Fatal("expected error for unsupported extension")
	}
}

func TestParse_InvalidBinaryFormats(t *testing.T) {
	for _, name := range []string{"broken.pdf", "broken.docx"} {
		t.Run(name, func(t *testing.T) {
			if _, err := newTestParser(t).Parse(strings.NewReader("not a real file"), name); err == nil {
				t.Fatalf("expected error for invalid %s", name)
			}
		})
	}
}

func TestParseDir_SortedSupportedFilesOnly(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"b.txt":      "Second document.",
		"a.md":       "First document.",
		"ignore.bin": "binary",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.txt"), 0o755); err != nil {
		t.Fatal(err)
	}

	docs, err := newTestParser(t).ParseDir(dir)
	if err != nil {
		t.Fatalf("ParseDir: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs[0].Filename != "a.md" || docs[1].Filename != "b.txt" {
		t.Errorf("order: got %s, %s", docs[0].Filename, docs[1].Filename)
	}
}

func TestParseDir_Missing(t *testing.T) {
	if _, err := newTestParser(t).ParseDir(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error for missing dir")
	}
}

func TestIsSupportedExtension(t *testing.T) {
	for name, want := range map[string]bool{
		"a.PDF": true, "b.docx": true, "c.markdown": true, "d.exe": false, "noext": false,
	} {
		if got := IsSupportedExtension(name); got != want {
			t.Errorf("IsSupportedExtension(%q) = %v, want %v", name, got, want)
		}
	}
}

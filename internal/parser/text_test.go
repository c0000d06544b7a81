package parser

import (
	"strings"
	"testing"
)

func TestTextParser_FormFeedsSplitPages(t *testing.T) {
	p := &TextParser{}
	out, err := p.Extract(strings.NewReader("Page one.\fPage two.\f"), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Title != "" {
		t.Errorf("plain text has no embedded title, got %q", out.Title)
	}
	if len(out.Pages) != 2 {
		t.Fatalf("expected 2 pages (trailing form feed is not a page), got %d", len(out.Pages))
	}
	if out.Pages[0] != "Page one." || out.Pages[1] != "Page two." {
		t.Errorf("unexpected pages: %q", out.Pages)
	}
}

func TestTextParser_SinglePage(t *testing.T) {
	p := &TextParser{}
	out, err := p.Extract(strings.NewReader("First paragraph.\r\n\r\nSecond paragraph."), "single.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(out.Pages))
	}
	if out.Pages[0] != "First paragraph.\n\nSecond paragraph." {
		t.Errorf("expected normalized line endings, got %q", out.Pages[0])
	}
}

func TestTextParser_EmptyInput(t *testing.T) {
	p := &TextParser{}
	out, err := p.Extract(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Pages) != 1 || out.Pages[0] != "" {
		t.Errorf("expected one empty page, got %q", out.Pages)
	}
}

// Package parser extracts cleaned, page-numbered text with section labels
// from source documents.
package parser

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/CloudAIX/healthcare-rag-system/internal/document"
)

// Extracted is the raw output of a format extractor. Pages[i] is physical
// page i+1. Title is empty when the format carries no usable title.
type Extracted struct {
	Title string
	Pages []string
}

// Extractor pulls raw page text out of one file format.
type Extractor interface {
	Extract(r io.Reader, filename string) (*Extracted, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// Options configures a Parser.
type Options struct {
	SectionPatterns   []string
	FallbackPdftotext bool
}

// Parser turns files into documents: it picks an extractor by extension,
// cleans every page, drops pages left empty, and detects section labels per
// page.
type Parser struct {
	sections          *SectionDetector
	fallbackPdftotext bool
}

func New(opts Options) (*Parser, error) {
	d, err := NewSectionDetector(opts.SectionPatterns)
	if err != nil {
		return nil, err
	}
	return &Parser{sections: d, fallbackPdftotext: opts.FallbackPdftotext}, nil
}

// ForFile returns the extractor for a filename.
func (p *Parser) ForFile(filename string) (Extractor, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: p.fallbackPdftotext}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// Parse reads one document. filename is used for the extractor choice, the
// fallback title and the document's identity; only its base name is kept.
func (p *Parser) Parse(r io.Reader, filename string) (*document.Document, error) {
	ex, err := p.ForFile(filename)
	if err != nil {
		return nil, err
	}
	raw, err := ex.Extract(r, filename)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", filename, err)
	}
	return p.assemble(filepath.Base(filename), raw), nil
}

func (p *Parser) assemble(filename string, raw *Extracted) *document.Document {
	title := strings.TrimSpace(raw.Title)
	if title == "" {
		title = TitleFromFilename(filename)
	}

	doc := &document.Document{
		Filename:   filename,
		Title:      title,
		TotalPages: len(raw.Pages),
	}
	for i, text := range raw.Pages {
		cleaned := CleanText(text)
		if cleaned == "" {
			continue
		}
		doc.Pages = append(doc.Pages, document.Page{
			Number:   i + 1,
			Text:     cleaned,
			Sections: p.sections.Detect(cleaned),
		})
	}
	return doc
}

// ParseFile opens and parses the file at path.
func (p *Parser) ParseFile(path string) (*document.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return p.Parse(f, filepath.Base(path))
}

// ParseDir parses every supported file directly inside dir, in name order.
// Any failure aborts the run.
func (p *Parser) ParseDir(dir string) ([]*document.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && IsSupportedExtension(e.Name()) {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)

	docs := make([]*document.Document, 0, len(names))
	for _, name := range names {
		doc, err := p.ParseFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

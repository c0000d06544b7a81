package parser

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// PDFParser handles PDF files. It tries the Go library first and falls back
// to pdftotext when enabled. Page i of the result is physical page i+1.
type PDFParser struct {
	FallbackPdftotext bool
}

func (p *PDFParser) Extract(r io.Reader, filename string) (*Extracted, error) {
	// ledongthuc/pdf requires a ReaderAt+size, so we write to a temp file.
	tmp, err := os.CreateTemp("", "healthrag-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	out, err := extractPDFPages(tmpPath)
	if err == nil && !hasText(out.Pages) && p.FallbackPdftotext {
		err = errors.New("no extractable text")
	}
	if err != nil && p.FallbackPdftotext {
		var pages []string
		pages, err = extractPdftotext(tmpPath)
		out = &Extracted{Pages: pages}
	}
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}
	return out, nil
}

// extractPDFPages keeps a slot for every physical page, leaving pages
// without extractable text empty so numbering stays aligned.
func extractPDFPages(path string) (out *Extracted, err error) {
	// The library panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	f, reader, err := pdflib.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	numPages := reader.NumPage()
	out = &Extracted{Pages: make([]string, numPages)}
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		out.Pages[i-1] = text
	}
	out.Title = pdfTitle(reader)
	return out, nil
}

func pdfTitle(reader *pdflib.Reader) string {
	info := reader.Trailer().Key("Info")
	if info.IsNull() {
		return ""
	}
	return strings.TrimSpace(info.Key("Title").Text())
}

func extractPdftotext(path string) ([]string, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	return splitPages(string(out)), nil
}

// splitPages splits on form feeds. pdftotext terminates the last page with
// one, which would otherwise add a phantom page.
func splitPages(text string) []string {
	text = strings.TrimSuffix(text, "\f")
	return strings.Split(text, "\f")
}

func hasText(pages []string) bool {
	for _, p := range pages {
		if strings.TrimSpace(p) != "" {
			return true
		}
	}
	return false
}

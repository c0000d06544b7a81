package parser

import (
	"io"
	"strings"
)

// TextParser handles plain text files. Form feeds separate pages, as in
// pdftotext output; a file without them is a single page.
type TextParser struct{}

func (p *TextParser) Extract(r io.Reader, filename string) (*Extracted, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	text := strings.ReplaceAll(string(src), "\r\n", "\n")
	return &Extracted{Pages: splitPages(text)}, nil
}

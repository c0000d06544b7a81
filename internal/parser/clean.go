package parser

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/CloudAIX/healthcare-rag-system/internal/document"
)

var (
	pageFooterRe  = regexp.MustCompile(`(?i)^Page\s+\d+\s+of\s+\d+$`)
	pageNumberRe  = regexp.MustCompile(`^\d{1,3}$`)
	blankLinesRe  = regexp.MustCompile(`\n{3,}`)
	repeatSpaceRe = regexp.MustCompile(` {2,}`)
)

// CleanText removes page furniture from extracted text: "Page N of M"
// footers and bare page numbers of up to three digits are dropped, runs of
// blank lines collapse to one paragraph break, repeated spaces collapse to
// one, and the result is trimmed.
func CleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		s := strings.TrimSpace(line)
		if pageFooterRe.MatchString(s) || pageNumberRe.MatchString(s) {
			continue
		}
		kept = append(kept, line)
	}
	text = strings.Join(kept, "\n")
	text = blankLinesRe.ReplaceAllString(text, "\n\n")
	text = repeatSpaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// SectionDetector finds structural labels such as "Standard 3" or
// "Outcome 2.1" in page text. Matching is case-insensitive.
type SectionDetector struct {
	patterns []*regexp.Regexp
}

// NewSectionDetector compiles the given patterns, in priority order.
func NewSectionDetector(patterns []string) (*SectionDetector, error) {
	d := &SectionDetector{patterns: make([]*regexp.Regexp, 0, len(patterns))}
	for _, p := range patterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("compile section pattern %q: %w", p, err)
		}
		d.patterns = append(d.patterns, re)
	}
	return d, nil
}

// Detect returns every match of every pattern, grouped by pattern order and
// deduplicated keeping the first occurrence. Matches keep the text's casing.
func (d *SectionDetector) Detect(text string) []string {
	var found []string
	for _, re := range d.patterns {
		found = append(found, re.FindAllString(text, -1)...)
	}
	return document.UniqueStrings(found)
}

// TitleFromFilename derives a display title: the extension is dropped,
// hyphens and underscores become spaces, and words are title-cased.
func TitleFromFilename(filename string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.NewReplacer("-", " ", "_", " ").Replace(base)
	// Casers carry state, so each call gets its own.
	return cases.Title(language.English).String(strings.Join(strings.Fields(base), " "))
}

package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// csvRowsPerPage groups data rows so that large spreadsheets still get
// usable page citations.
const csvRowsPerPage = 20

// CSVParser handles CSV files. Each page holds the header line and up to
// csvRowsPerPage rows rendered as "header: value" pairs.
type CSVParser struct{}

func (p *CSVParser) Extract(r io.Reader, filename string) (*Extracted, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	out := &Extracted{}
	if len(records) == 0 {
		return out, nil
	}

	headers := records[0]
	dataRows := records[1:]

	for i := 0; i < len(dataRows); i += csvRowsPerPage {
		end := min(i+csvRowsPerPage, len(dataRows))

		var text strings.Builder
		text.WriteString("Headers: " + strings.Join(headers, ", ") + "\n\n")
		for _, row := range dataRows[i:end] {
			for j, cell := range row {
				if j < len(headers) {
					text.WriteString(headers[j] + ": " + cell)
				} else {
					text.WriteString(cell)
				}
				if j < len(row)-1 {
					text.WriteString(", ")
				}
			}
			text.WriteString("\n")
		}
		out.Pages = append(out.Pages, text.String())
	}
	return out, nil
}

package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/diegoaa53-dot/bsale-api/internal/domain/sales"
)

// CSVWriter writes comma separated UTF-8 with a byte order mark so
// spreadsheet tools pick the right encoding
type CSVWriter struct {
	comma rune
}

// CSVOption is a functional option for configuring CSVWriter
type CSVOption func(*CSVWriter)

// WithComma sets the field delimiter
func WithComma(comma rune) CSVOption {
	return func(c *CSVWriter) {
		c.comma = comma
	}
}

// NewCSVWriter creates a CSV writer
func NewCSVWriter(opts ...CSVOption) *CSVWriter {
	c := &CSVWriter{comma: ','}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Write writes the header and one record per row. An empty rows slice still
// produces the header.
func (c *CSVWriter) Write(w io.Writer, rows []sales.ReportRow) error {
	bom := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())

	cw := csv.NewWriter(bom)
	cw.Comma = c.comma

	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("export: failed to write csv header: %w", err)
	}

	record := make([]string, len(Columns))
	for i, row := range rows {
		for j, value := range rowCells(row) {
			record[j] = value.String()
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("export: failed to write csv row %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export: failed to flush csv: %w", err)
	}
	return bom.Close()
}

// ContentType implements Writer
func (c *CSVWriter) ContentType() string {
	return "text/csv; charset=utf-8"
}

// Extension implements Writer
func (c *CSVWriter) Extension() string {
	return FormatCSV
}

var _ Writer = (*CSVWriter)(nil)

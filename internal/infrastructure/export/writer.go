// Package export renders report rows as CSV or XLSX files.
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/diegoaa53-dot/bsale-api/internal/domain/sales"
)

// Supported formats
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// ErrUnknownFormat is returned by ForFormat for unsupported formats
var ErrUnknownFormat = errors.New("export: unknown format")

// Writer renders report rows into w
type Writer interface {
	Write(w io.Writer, rows []sales.ReportRow) error

	// ContentType is the MIME type of the rendered file
	ContentType() string

	// Extension is the file extension without the dot
	Extension() string
}

// ForFormat returns the writer for format (case-insensitive)
func ForFormat(format string) (Writer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatCSV:
		return NewCSVWriter(), nil
	case FormatXLSX:
		return NewXLSXWriter(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

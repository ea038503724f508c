package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/diegoaa53-dot/bsale-api/internal/domain/sales"
)

// DefaultSheet is the name of the report worksheet
const DefaultSheet = "Ventas"

// XLSXWriter writes the report as a single-sheet workbook. Amounts are stored
// as numbers so the sheet can be summed.
type XLSXWriter struct {
	sheet string
}

// NewXLSXWriter creates an XLSX writer
func NewXLSXWriter() *XLSXWriter {
	return &XLSXWriter{sheet: DefaultSheet}
}

// Write builds the workbook with a stream writer and writes it to w
func (x *XLSXWriter) Write(w io.Writer, rows []sales.ReportRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", x.sheet); err != nil {
		return fmt.Errorf("export: failed to name sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(x.sheet)
	if err != nil {
		return fmt.Errorf("export: failed to open sheet stream: %w", err)
	}

	header := make([]interface{}, len(Columns))
	for i, name := range Columns {
		header[i] = name
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("export: failed to write xlsx header: %w", err)
	}

	for i, row := range rows {
		cells := rowCells(row)
		values := make([]interface{}, len(cells))
		for j, c := range cells {
			if c.kind == textCell {
				values[j] = c.text
			} else {
				values[j] = c.num.InexactFloat64()
			}
		}

		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(axis, values); err != nil {
			return fmt.Errorf("export: failed to write xlsx row %d: %w", i, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("export: failed to flush xlsx: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("export: failed to write workbook: %w", err)
	}
	return nil
}

// ContentType implements Writer
func (x *XLSXWriter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Extension implements Writer
func (x *XLSXWriter) Extension() string {
	return FormatXLSX
}

var _ Writer = (*XLSXWriter)(nil)

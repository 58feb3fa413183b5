package sheet

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/JonMunkholm/BeneficiaryImport/internal/core"
	"github.com/xuri/excelize/v2"
)

const (
	// ErrorSheetName is the worksheet name of an error extract.
	ErrorSheetName = "Rows with errors"
	// TemplateSheetName is the worksheet name of the sample template.
	TemplateSheetName = "Sample Data"

	minColumnWidth = 15
)

// WriteXLSX writes m as a single-sheet workbook. Numeric cells are written
// as numbers. Every column is at least minColumnWidth wide, or as wide as
// its header.
func WriteXLSX(w io.Writer, m core.Matrix, sheetName string) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for i, row := range m {
		for j, c := range row {
			if c.IsEmpty() {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return err
			}
			if v, ok := c.Float(); ok {
				err = f.SetCellFloat(sheetName, cell, v, -1, 64)
			} else {
				err = f.SetCellStr(sheetName, cell, c.String())
			}
			if err != nil {
				return fmt.Errorf("write %s: %w", cell, err)
			}
		}
	}

	for j, h := range m.Header() {
		col, err := excelize.ColumnNumberToName(j + 1)
		if err != nil {
			return err
		}
		width := max(len([]rune(h)), minColumnWidth)
		if err := f.SetColWidth(sheetName, col, col, float64(width)); err != nil {
			return fmt.Errorf("set width %s: %w", col, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteCSV writes m as comma-separated text.
func WriteCSV(w io.Writer, m core.Matrix) error {
	cw := csv.NewWriter(w)
	for _, row := range m {
		if err := cw.Write(row.Strings()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteErrorExtract writes the header plus invalid rows in the given format.
func WriteErrorExtract(w io.Writer, m core.Matrix, format Format) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, m)
	case FormatXLSX, "":
		return WriteXLSX(w, m, ErrorSheetName)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedType, format)
	}
}

// WriteTemplate writes the sample workbook: the canonical header row and
// one example row.
func WriteTemplate(w io.Writer) error {
	return WriteXLSX(w, core.TemplateSample(), TemplateSheetName)
}

// ContentType returns the MIME type of a format.
func ContentType(format Format) string {
	if format == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

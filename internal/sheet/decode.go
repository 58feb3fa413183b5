package sheet

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/JonMunkholm/BeneficiaryImport/internal/core"
	"github.com/xuri/excelize/v2"
)

// Format is an accepted upload format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ErrUnsupportedType is returned for files that are neither CSV nor XLSX.
var ErrUnsupportedType = errors.New("unsupported file type")

// DetectFormat picks the decoder from the file name. Files without a known
// extension are sniffed: a zip container is XLSX.
func DetectFormat(name string, head []byte) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case "":
		if looksLikeZip(head) {
			return FormatXLSX, nil
		}
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, name)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
	}
}

// Decode reads an upload of at most maxBytes (0 for DefaultMaxBytes) and
// decodes it according to its name.
func Decode(r io.Reader, name string, maxBytes int64) (core.Matrix, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	b, err := readAll(r, maxBytes)
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, core.ErrEmptyFile
	}

	format, err := DetectFormat(name, b)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatCSV:
		return DecodeCSV(bytes.NewReader(b))
	default:
		return DecodeXLSX(bytes.NewReader(b))
	}
}

// DecodeCSV parses comma-separated text. Quotes are handled leniently and
// rows may have any number of fields.
func DecodeCSV(r io.Reader) (core.Matrix, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	text, err := decodeText(raw)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(bytes.NewReader(text))
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	var m core.Matrix
	var offset int64
	for {
		// encoding/csv skips empty lines; put them back so rows keep
		// their position in the file.
		for range emptyLines(text[offset:]) {
			m = append(m, core.Row{})
		}

		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid csv: %w", err)
		}
		m = append(m, textRow(record))
		offset = cr.InputOffset()
	}

	m = trimTrailingBlank(m)
	if len(m) == 0 {
		return nil, core.ErrEmptyFile
	}
	return m, nil
}

// DecodeXLSX reads the first worksheet of a workbook. Numeric cells become
// core.Number, booleans become "TRUE"/"FALSE" text and everything else is
// text as stored.
func DecodeXLSX(r io.Reader) (core.Matrix, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("invalid workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("invalid workbook: no worksheets")
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("invalid workbook: read %s: %w", sheet, err)
	}

	var m core.Matrix
	for i, values := range rows {
		row := make(core.Row, len(values))
		for j, v := range values {
			if strings.TrimSpace(v) == "" {
				row[j] = core.Empty()
				continue
			}

			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return nil, err
			}
			typ, err := f.GetCellType(sheet, cell)
			if err != nil {
				return nil, fmt.Errorf("invalid workbook: %s: %w", cell, err)
			}
			row[j] = typedCell(typ, v)
		}
		m = append(m, row)
	}

	m = trimTrailingBlank(m)
	if len(m) == 0 {
		return nil, core.ErrEmptyFile
	}
	return m, nil
}

// typedCell converts a raw stored value into a core.Cell. Cells written
// without a type attribute are numbers in the OOXML format.
func typedCell(typ excelize.CellType, v string) core.Cell {
	switch typ {
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return core.Number(f)
		}
		return core.Text(v)
	case excelize.CellTypeBool:
		if v == "1" || strings.EqualFold(v, "true") {
			return core.Text("TRUE")
		}
		return core.Text("FALSE")
	default:
		return core.Text(v)
	}
}

// textRow maps CSV fields to cells.
func textRow(record []string) core.Row {
	row := make(core.Row, len(record))
	for i, v := range record {
		if strings.TrimSpace(v) == "" {
			row[i] = core.Empty()
			continue
		}
		row[i] = core.Text(v)
	}
	return row
}

// emptyLines counts the line breaks at the start of b.
func emptyLines(b []byte) int {
	n := 0
	for len(b) > 0 {
		switch {
		case b[0] == '\n':
			b = b[1:]
		case len(b) > 1 && b[0] == '\r' && b[1] == '\n':
			b = b[2:]
		default:
			return n
		}
		n++
	}
	return n
}

func blankRow(r core.Row) bool {
	for _, c := range r {
		if strings.TrimSpace(c.String()) != "" {
			return false
		}
	}
	return true
}

// trimTrailingBlank drops blank rows at the end of m. Blank rows between
// data rows are kept so row numbers match the source file.
func trimTrailingBlank(m core.Matrix) core.Matrix {
	for len(m) > 0 && blankRow(m[len(m)-1]) {
		m = m[:len(m)-1]
	}
	return m
}

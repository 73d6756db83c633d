package core

// export.go serializes a Table into a downloadable artifact.
//
// CSV output has a header row, no index column, RFC 4180 quoting and "\n"
// line endings. Excel output is a single "Sheet1" worksheet written with the
// excelize stream writer. The artifact name is the source name with its
// extension replaced (data.CSV -> data.xlsx).

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// Format is an export target.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatExcel Format = "excel"
)

// MIME types of the export formats.
const (
	MIMETypeCSV  = "text/csv"
	MIMETypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ExcelSheetName is the worksheet every Excel export is written to.
const ExcelSheetName = "Sheet1"

// ParseFormat maps user input to a Format. "xlsx" is accepted as an alias
// for Excel and the empty string selects CSV.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "excel", "xlsx":
		return FormatExcel, nil
	default:
		return "", fmt.Errorf("%w: export format %q must be csv or excel", ErrInvalidChoices, s)
	}
}

// Extension returns the file extension of f, including the dot.
func (f Format) Extension() string {
	if f == FormatExcel {
		return ExtXLSX
	}
	return ExtCSV
}

// MIMEType returns the media type of f.
func (f Format) MIMEType() string {
	if f == FormatExcel {
		return MIMETypeXLSX
	}
	return MIMETypeCSV
}

// orDefault returns CSV for the zero Format.
func (f Format) orDefault() Format {
	if f == "" {
		return FormatCSV
	}
	return f
}

// ExportFileName replaces the extension of source with the extension of f.
// A name without an extension gets one appended.
func ExportFileName(source string, f Format) string {
	return strings.TrimSuffix(source, filepath.Ext(source)) + f.orDefault().Extension()
}

// Export serializes t in the given format. sourceName is the uploaded file
// name the artifact name is derived from.
func Export(t *Table, sourceName string, f Format) (*ExportArtifact, error) {
	f = f.orDefault()

	var (
		data []byte
		err  error
	)
	switch f {
	case FormatCSV:
		data, err = encodeCSV(t)
	case FormatExcel:
		data, err = encodeXLSX(t)
	default:
		return nil, &SerializationError{Format: f, Reason: "unknown export format"}
	}
	if err != nil {
		return nil, err
	}

	return &ExportArtifact{
		FileName: ExportFileName(sourceName, f),
		MIMEType: f.MIMEType(),
		Data:     data,
	}, nil
}

func encodeCSV(t *Table) ([]byte, error) {
	var buf bytes.Buffer
	if t.NumCols() == 0 {
		return buf.Bytes(), nil
	}

	w := csv.NewWriter(&buf)
	if err := w.Write(t.ColumnNames()); err != nil {
		return nil, &SerializationError{Format: FormatCSV, Reason: "write header", Err: err}
	}
	for i := 0; i < t.NumRows(); i++ {
		if err := w.Write(t.Row(i)); err != nil {
			return nil, &SerializationError{Format: FormatCSV, Reason: fmt.Sprintf("write row %d", i+1), Err: err}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, &SerializationError{Format: FormatCSV, Reason: "flush", Err: err}
	}
	return buf.Bytes(), nil
}

// checkExcelLimits rejects tables a worksheet cannot hold.
func checkExcelLimits(t *Table) error {
	if t.NumRows()+1 > excelize.TotalRows {
		return &SerializationError{Format: FormatExcel,
			Reason: fmt.Sprintf("%d rows exceed the worksheet limit of %d", t.NumRows(), excelize.TotalRows-1)}
	}
	if t.NumCols() > excelize.MaxColumns {
		return &SerializationError{Format: FormatExcel,
			Reason: fmt.Sprintf("%d columns exceed the worksheet limit of %d", t.NumCols(), excelize.MaxColumns)}
	}

	for _, c := range t.Columns {
		if utf8.RuneCountInString(c.Name) > excelize.TotalCellChars {
			return &SerializationError{Format: FormatExcel,
				Reason: fmt.Sprintf("column name %.20q... is longer than %d characters", c.Name, excelize.TotalCellChars)}
		}
		if r, ok := illegalXMLRune(c.Name); ok {
			return &SerializationError{Format: FormatExcel,
				Reason: fmt.Sprintf("column name %q holds %U, which a worksheet cannot store", c.Name, r)}
		}
		for i := 0; i < c.Len(); i++ {
			if c.IsMissing(i) {
				continue
			}
			switch c.Kind {
			case KindNumeric:
				if f := c.Numbers[i].Float64; math.IsInf(f, 0) || math.IsNaN(f) {
					return &SerializationError{Format: FormatExcel,
						Reason: fmt.Sprintf("column %q row %d holds %s, which a cell cannot store", c.Name, i+1, FormatNumber(f))}
				}
			case KindText:
				if utf8.RuneCountInString(c.Texts[i].String) > excelize.TotalCellChars {
					return &SerializationError{Format: FormatExcel,
						Reason: fmt.Sprintf("column %q row %d is longer than %d characters", c.Name, i+1, excelize.TotalCellChars)}
				}
				if r, ok := illegalXMLRune(c.Texts[i].String); ok {
					return &SerializationError{Format: FormatExcel,
						Reason: fmt.Sprintf("column %q row %d holds %U, which a worksheet cannot store", c.Name, i+1, r)}
				}
			}
		}
	}
	return nil
}

// illegalXMLRune returns the first rune of s outside the XML 1.0 character
// range. Worksheets are XML, and excelize would replace such runes with
// U+FFFD instead of failing.
func illegalXMLRune(s string) (rune, bool) {
	for _, r := range s {
		switch {
		case r == '\t', r == '\n', r == '\r':
		case r >= 0x20 && r <= 0xD7FF:
		case r >= 0xE000 && r <= 0xFFFD:
		case r >= 0x10000 && r <= 0x10FFFF:
		default:
			return r, true
		}
	}
	return 0, false
}

func encodeXLSX(t *Table) ([]byte, error) {
	if err := checkExcelLimits(t); err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sw, err := f.NewStreamWriter(ExcelSheetName)
	if err != nil {
		return nil, &SerializationError{Format: FormatExcel, Reason: "open stream writer", Err: err}
	}

	header := make([]interface{}, t.NumCols())
	for j, name := range t.ColumnNames() {
		header[j] = name
	}
	if err := sw.SetRow("A1", header); err != nil {
		return nil, &SerializationError{Format: FormatExcel, Reason: "write header", Err: err}
	}

	row := make([]interface{}, t.NumCols())
	for i := 0; i < t.NumRows(); i++ {
		for j, c := range t.Columns {
			row[j] = c.Value(i)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, &SerializationError{Format: FormatExcel, Reason: "address row", Err: err}
		}
		if err := sw.SetRow(cell, row); err != nil {
			return nil, &SerializationError{Format: FormatExcel, Reason: fmt.Sprintf("write row %d", i+1), Err: err}
		}
	}

	if err := sw.Flush(); err != nil {
		return nil, &SerializationError{Format: FormatExcel, Reason: "flush", Err: err}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, &SerializationError{Format: FormatExcel, Reason: "encode workbook", Err: err}
	}
	return buf.Bytes(), nil
}

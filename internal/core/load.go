package core

// load.go decodes uploaded bytes into a Table.
//
// The loader is chosen by the lowercase file extension:
//
//	.csv   encoding/csv over a BOM-stripping, UTF-8 sanitizing reader
//	.xlsx  first worksheet of the workbook, read with excelize
//
// Both paths produce a header row plus records, which buildTable turns into
// typed columns. The first row is always the header.

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Supported upload extensions.
const (
	ExtCSV  = ".csv"
	ExtXLSX = ".xlsx"
)

// SupportedExtensions lists the extensions Load accepts, in display order.
var SupportedExtensions = []string{ExtCSV, ExtXLSX}

// FileExt returns the lowercase extension of name, including the dot.
func FileExt(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// Load parses data according to the extension of name.
// Any extension other than .csv or .xlsx yields a *FormatError.
func Load(name string, data []byte) (*Table, error) {
	var (
		records [][]string
		err     error
	)

	switch ext := FileExt(name); ext {
	case ExtCSV:
		records, err = readCSV(data)
	case ExtXLSX:
		records, err = readXLSX(data)
	default:
		return nil, &FormatError{Name: name, Ext: ext}
	}
	if err != nil {
		return nil, err
	}

	return buildTable(name, records)
}

// readCSV parses delimited text. Quoting is lenient and rows may vary in
// width; buildTable decides what to do with ragged rows.
func readCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(NewSanitizingReader(bytes.NewReader(data)))
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return nil, &MalformedError{Line: perr.Line, Err: perr.Err}
		}
		return nil, &MalformedError{Err: err}
	}
	return records, nil
}

// readXLSX returns the non-blank rows of the first worksheet. Cells are read
// as raw values so number formats do not leak into the data.
func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &MalformedError{Err: fmt.Errorf("open workbook: %w", err)}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no worksheets", ErrEmptyFile)
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &MalformedError{Err: fmt.Errorf("read sheet %q: %w", sheets[0], err)}
	}

	out := rows[:0]
	width := 0
	for _, row := range rows {
		if !isBlankRow(row) {
			out = append(out, row)
			width = max(width, len(row))
		}
	}

	// Worksheets may hold data right of the last header cell; those columns
	// get generated names instead of failing the load.
	if len(out) > 0 && len(out[0]) < width {
		header := make([]string, width)
		copy(header, out[0])
		out[0] = header
	}
	return out, nil
}

// isBlankRow returns true if every cell is empty or whitespace.
func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// buildTable converts header + records into typed columns.
func buildTable(name string, records [][]string) (*Table, error) {
	if len(records) == 0 || isBlankRow(records[0]) {
		return nil, fmt.Errorf("%w: %s has no header row", ErrEmptyFile, name)
	}

	header := normalizeHeader(records[0])
	width := len(header)

	// Blank rows are dropped for both formats; line numbers in errors still
	// refer to the source.
	var body [][]string
	for i, row := range records[1:] {
		if isBlankRow(row) {
			continue
		}
		if len(row) > width {
			if !isBlankRow(row[width:]) {
				return nil, &MalformedError{
					Line: i + 2,
					Err:  fmt.Errorf("expected %d fields, saw %d", width, len(row)),
				}
			}
			row = row[:width]
		}
		body = append(body, row)
	}

	raw := make([][]string, width)
	for j := range raw {
		raw[j] = make([]string, len(body))
	}
	for i, row := range body {
		// Short rows leave the remaining cells empty, which reads as missing.
		for j, cell := range row {
			raw[j][i] = cell
		}
	}

	columns := make([]*Column, width)
	for j, h := range header {
		columns[j] = inferColumn(h, raw[j])
	}

	return NewTable(name, columns...)
}

// normalizeHeader names blank header cells "Unnamed: <index>" and makes
// repeated names unique by appending ".1", ".2", ...
func normalizeHeader(raw []string) []string {
	out := make([]string, len(raw))
	used := make(map[string]bool, len(raw))
	next := make(map[string]int)

	for i, h := range raw {
		if h == "" {
			h = "Unnamed: " + strconv.Itoa(i)
		}
		name := h
		for used[name] {
			next[h]++
			name = h + "." + strconv.Itoa(next[h])
		}
		used[name] = true
		out[i] = name
	}
	return out
}

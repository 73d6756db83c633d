package core

// convert.go turns raw cell strings into typed, null-aware values and back.
//
// The rules follow what spreadsheet users expect from a dataframe loader:
//   - A fixed set of tokens (empty, NA, NULL, NaN, #N/A, ...) means "missing"
//   - Plain decimals, scientific notation and +/-inf are numbers
//   - Everything else is text, kept byte for byte
//
// All To* functions return pgtype values with Valid=false for missing input.

import (
	"errors"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// numericRegex validates that a string is a plain numeric literal.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// missingTokens are the cell values read as missing. Matching is exact.
var missingTokens = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

// IsMissingToken reports whether s denotes a missing cell.
func IsMissingToken(s string) bool {
	_, ok := missingTokens[s]
	return ok
}

// ParseNumber parses s as a number. Surrounding whitespace is ignored.
// Values beyond the float64 range become +/-Inf.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	switch strings.ToLower(strings.TrimPrefix(s, "+")) {
	case "inf", "infinity":
		return math.Inf(1), true
	case "-inf", "-infinity":
		return math.Inf(-1), true
	}

	if !numericRegex.MatchString(s) {
		return 0, false
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return f, true
}

// ToPgFloat8 converts a cell to pgtype.Float8.
// The second result is false when s is neither missing nor a number.
func ToPgFloat8(s string) (pgtype.Float8, bool) {
	if IsMissingToken(s) {
		return pgtype.Float8{Valid: false}, true
	}
	f, ok := ParseNumber(s)
	if !ok {
		return pgtype.Float8{Valid: false}, false
	}
	return pgtype.Float8{Float64: f, Valid: true}, true
}

// ToPgText converts a cell to pgtype.Text.
// Returns invalid if s is a missing token. Other values are kept verbatim.
func ToPgText(s string) pgtype.Text {
	if IsMissingToken(s) {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// Float8 is shorthand for a present numeric cell.
func Float8(f float64) pgtype.Float8 {
	return pgtype.Float8{Float64: f, Valid: true}
}

// Text is shorthand for a present text cell.
func Text(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: true}
}

// FormatNumber renders f in the shortest form that parses back to f.
// Very large and very small magnitudes use exponent notation.
func FormatNumber(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}

	abs := math.Abs(f)
	if abs != 0 && (abs >= 1e16 || abs < 1e-5) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// inferColumn builds a column from raw cells. The column is numeric when
// every non-missing cell is a number, text otherwise. A column with no
// values at all is numeric.
func inferColumn(name string, raw []string) *Column {
	numbers := make([]pgtype.Float8, len(raw))
	for i, s := range raw {
		v, ok := ToPgFloat8(s)
		if !ok {
			return textColumn(name, raw)
		}
		numbers[i] = v
	}
	return &Column{Name: name, Kind: KindNumeric, Numbers: numbers}
}

func textColumn(name string, raw []string) *Column {
	texts := make([]pgtype.Text, len(raw))
	for i, s := range raw {
		texts[i] = ToPgText(s)
	}
	return &Column{Name: name, Kind: KindText, Texts: texts}
}

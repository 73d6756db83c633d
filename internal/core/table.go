package core

// table.go defines the in-memory table every pipeline stage works on.
//
// A Table is an ordered list of named columns of equal length. Each column
// carries exactly one kind, decided once when the file is loaded:
//
//   - KindNumeric: values are pgtype.Float8, Valid=false marks a missing cell
//   - KindText:    values are pgtype.Text, Valid=false marks a missing cell
//
// Columns are never modified after construction. Stages that change values
// clone the affected column and return a new Table, so a Table handed to a
// stage is always left as it was.

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
)

// ColumnKind identifies the value type stored in a Column.
type ColumnKind int

const (
	KindText ColumnKind = iota
	KindNumeric
)

func (k ColumnKind) String() string {
	if k == KindNumeric {
		return "numeric"
	}
	return "text"
}

// MarshalText renders the kind as "numeric" or "text".
func (k ColumnKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Column is one named column. Only the slice matching Kind is populated.
type Column struct {
	Name    string
	Kind    ColumnKind
	Numbers []pgtype.Float8
	Texts   []pgtype.Text
}

// NewNumericColumn builds a numeric column from values.
func NewNumericColumn(name string, values ...pgtype.Float8) *Column {
	return &Column{Name: name, Kind: KindNumeric, Numbers: values}
}

// NewTextColumn builds a text column from values.
func NewTextColumn(name string, values ...pgtype.Text) *Column {
	return &Column{Name: name, Kind: KindText, Texts: values}
}

// Len returns the number of cells in the column.
func (c *Column) Len() int {
	if c.Kind == KindNumeric {
		return len(c.Numbers)
	}
	return len(c.Texts)
}

// IsMissing reports whether cell i holds no value.
func (c *Column) IsMissing(i int) bool {
	if c.Kind == KindNumeric {
		return !c.Numbers[i].Valid
	}
	return !c.Texts[i].Valid
}

// Value returns cell i as float64 or string, or nil when missing.
func (c *Column) Value(i int) any {
	if c.IsMissing(i) {
		return nil
	}
	if c.Kind == KindNumeric {
		return c.Numbers[i].Float64
	}
	return c.Texts[i].String
}

// Format returns cell i as text. Missing cells format as the empty string.
func (c *Column) Format(i int) string {
	if c.IsMissing(i) {
		return ""
	}
	if c.Kind == KindNumeric {
		return FormatNumber(c.Numbers[i].Float64)
	}
	return c.Texts[i].String
}

// Missing counts the missing cells in the column.
func (c *Column) Missing() int {
	n := 0
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) {
			n++
		}
	}
	return n
}

func (c *Column) clone() *Column {
	out := &Column{Name: c.Name, Kind: c.Kind}
	if c.Kind == KindNumeric {
		out.Numbers = append([]pgtype.Float8(nil), c.Numbers...)
	} else {
		out.Texts = append([]pgtype.Text(nil), c.Texts...)
	}
	return out
}

// take returns a new column holding only the given rows, in order.
func (c *Column) take(rows []int) *Column {
	out := &Column{Name: c.Name, Kind: c.Kind}
	if c.Kind == KindNumeric {
		out.Numbers = make([]pgtype.Float8, len(rows))
		for i, r := range rows {
			out.Numbers[i] = c.Numbers[r]
		}
	} else {
		out.Texts = make([]pgtype.Text, len(rows))
		for i, r := range rows {
			out.Texts[i] = c.Texts[r]
		}
	}
	return out
}

// Table is an ordered collection of equal-length, uniquely named columns.
type Table struct {
	Name    string
	Columns []*Column
}

// NewTable assembles a table and checks its invariants.
func NewTable(name string, columns ...*Column) (*Table, error) {
	t := &Table{Name: name, Columns: columns}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks that column names are unique and all columns have the
// same length.
func (t *Table) Validate() error {
	seen := make(map[string]bool, len(t.Columns))
	rows := t.NumRows()
	for _, c := range t.Columns {
		if seen[c.Name] {
			return fmt.Errorf("%w: duplicate column name %q", ErrInvalidTable, c.Name)
		}
		seen[c.Name] = true
		if c.Len() != rows {
			return fmt.Errorf("%w: column %q has %d rows, want %d", ErrInvalidTable, c.Name, c.Len(), rows)
		}
	}
	return nil
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return t.Columns[0].Len()
}

// NumCols returns the number of columns.
func (t *Table) NumCols() int {
	return len(t.Columns)
}

// ColumnNames returns the column names in table order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by exact name.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// NumericColumns returns the numeric columns in table order.
func (t *Table) NumericColumns() []*Column {
	var out []*Column
	for _, c := range t.Columns {
		if c.Kind == KindNumeric {
			out = append(out, c)
		}
	}
	return out
}

// Row returns row i as formatted strings.
func (t *Table) Row(i int) []string {
	row := make([]string, len(t.Columns))
	for j, c := range t.Columns {
		row[j] = c.Format(i)
	}
	return row
}

// withColumns returns a table sharing t's name with the given columns.
func (t *Table) withColumns(columns []*Column) *Table {
	return &Table{Name: t.Name, Columns: columns}
}

// takeRows returns a new table holding only the given rows, in order.
func (t *Table) takeRows(rows []int) *Table {
	cols := make([]*Column, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = c.take(rows)
	}
	return t.withColumns(cols)
}

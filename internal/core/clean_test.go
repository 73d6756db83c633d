package core

import (
	"math"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoveDuplicates(t *testing.T) {
	tbl, err := Load("d.csv", []byte("a,b\n1,x\n1,x\n2,y\n1,x\n2,z\n"))
	require.NoError(t, err)

	out, removed := RemoveDuplicates(tbl)
	assert.Equal(t, 2, removed)
	require.Equal(t, 3, out.NumRows())
	assert.Equal(t, []string{"1", "x"}, out.Row(0))
	assert.Equal(t, []string{"2", "y"}, out.Row(1))
	assert.Equal(t, []string{"2", "z"}, out.Row(2))

	assert.Equal(t, 5, tbl.NumRows(), "input is left unchanged")
}

func TestRemoveDuplicates_MissingCellsCompareEqual(t *testing.T) {
	tbl := mustTable(t,
		NewNumericColumn("n", missingNum, missingNum, Float8(0)),
		NewTextColumn("s", missingText, missingText, missingText),
	)
	out, removed := RemoveDuplicates(tbl)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 2, out.NumRows())
}

func TestRemoveDuplicates_DistinguishesEmptyTextFromMissing(t *testing.T) {
	tbl := mustTable(t, NewTextColumn("s", Text(""), missingText))
	_, removed := RemoveDuplicates(tbl)
	assert.Zero(t, removed)
}

func TestRemoveDuplicates_KeyIsUnambiguous(t *testing.T) {
	// Concatenated, both rows would read "ab" + "c" vs "a" + "bc".
	tbl := mustTable(t,
		NewTextColumn("x", Text("ab"), Text("a")),
		NewTextColumn("y", Text("c"), Text("bc")),
	)
	_, removed := RemoveDuplicates(tbl)
	assert.Zero(t, removed)
}

func TestRemoveDuplicates_NegativeZero(t *testing.T) {
	tbl := mustTable(t, NewNumericColumn("n", Float8(0), Float8(math.Copysign(0, -1))))
	_, removed := RemoveDuplicates(tbl)
	assert.Equal(t, 1, removed)
}

func TestRemoveDuplicates_Idempotent(t *testing.T) {
	tbl, err := Load("d.csv", []byte("a\n1\n1\n2\n"))
	require.NoError(t, err)

	once, _ := RemoveDuplicates(tbl)
	twice, removed := RemoveDuplicates(once)
	assert.Zero(t, removed)
	assert.Equal(t, once.NumRows(), twice.NumRows())
}

func TestFillMissingNumeric(t *testing.T) {
	tbl := mustTable(t,
		NewNumericColumn("x", Float8(1), missingNum, Float8(3)),
		NewTextColumn("s", Text("a"), missingText, Text("c")),
	)

	out, report := FillMissingNumeric(tbl)

	x, _ := out.Column("x")
	assert.Equal(t, []pgtype.Float8{Float8(1), Float8(2), Float8(3)}, x.Numbers)
	assert.Equal(t, 1, report.FilledCells)
	assert.Equal(t, map[string]float64{"x": 2}, report.Means)

	s, _ := out.Column("s")
	assert.True(t, s.IsMissing(1), "text columns are not filled")

	orig, _ := tbl.Column("x")
	assert.True(t, orig.IsMissing(1), "input is left unchanged")
}

func TestFillMissingNumeric_MeanFromOriginalValues(t *testing.T) {
	tbl := mustTable(t, NewNumericColumn("x", Float8(2), missingNum, missingNum, Float8(4)))
	out, report := FillMissingNumeric(tbl)

	x, _ := out.Column("x")
	for i := range x.Numbers {
		assert.True(t, x.Numbers[i].Valid)
	}
	assert.Equal(t, 3.0, x.Numbers[1].Float64)
	assert.Equal(t, 3.0, x.Numbers[2].Float64)
	assert.Equal(t, 2, report.FilledCells)
}

func TestFillMissingNumeric_AllMissingColumn(t *testing.T) {
	tbl := mustTable(t, NewNumericColumn("empty", missingNum, missingNum))
	out, report := FillMissingNumeric(tbl)

	assert.Equal(t, []string{"empty"}, report.EmptyColumns)
	assert.Zero(t, report.FilledCells)
	c, _ := out.Column("empty")
	assert.Equal(t, 2, c.Missing())
}

func TestFillMissingNumeric_OppositeInfinities(t *testing.T) {
	tbl := mustTable(t, NewNumericColumn("x", Float8(math.Inf(1)), Float8(math.Inf(-1)), missingNum))
	_, report := FillMissingNumeric(tbl)
	assert.Equal(t, []string{"x"}, report.EmptyColumns)
}

func TestFillMissingNumeric_NothingMissing(t *testing.T) {
	tbl := mustTable(t, NewNumericColumn("x", Float8(1), Float8(2)))
	_, report := FillMissingNumeric(tbl)
	assert.Zero(t, report.FilledCells)
	assert.Empty(t, report.Means)
	assert.Empty(t, report.EmptyColumns)
}

func TestFillMissingNumeric_Idempotent(t *testing.T) {
	tbl := mustTable(t, NewNumericColumn("x", Float8(1), missingNum))
	once, _ := FillMissingNumeric(tbl)
	_, report := FillMissingNumeric(once)
	assert.Zero(t, report.FilledCells)
}

func TestSelectColumns(t *testing.T) {
	tbl := mustTable(t,
		NewNumericColumn("a", Float8(1)),
		NewNumericColumn("b", Float8(2)),
		NewNumericColumn("c", Float8(3)),
	)

	out, err := SelectColumns(tbl, []string{"b", "a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, out.ColumnNames())
	assert.Equal(t, []string{"2", "1"}, out.Row(0))

	out, err = SelectColumns(tbl, []string{"c", "c", "a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, out.ColumnNames())
}

func TestSelectColumns_Unknown(t *testing.T) {
	tbl := mustTable(t, NewNumericColumn("a", Float8(1)))

	_, err := SelectColumns(tbl, []string{"a", "zz", "A"})
	require.ErrorIs(t, err, ErrUnknownColumn)

	var cerr *ColumnError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, []string{"zz", "A"}, cerr.Columns)
}

func TestSelectColumns_Empty(t *testing.T) {
	tbl := mustTable(t, NewNumericColumn("a", Float8(1)))
	out, err := SelectColumns(tbl, nil)
	require.NoError(t, err)
	assert.Zero(t, out.NumCols())
}

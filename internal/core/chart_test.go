package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChart_FirstTwoNumericColumns(t *testing.T) {
	tbl := mustTable(t,
		NewTextColumn("label", Text("a"), Text("b")),
		NewNumericColumn("x", Float8(1), Float8(2)),
		NewNumericColumn("y", Float8(3), missingNum),
		NewNumericColumn("z", Float8(5), Float8(6)),
	)

	c := Chart(tbl, 0)
	require.Len(t, c.Series, 2)
	assert.Equal(t, "x", c.Series[0].Name)
	assert.Equal(t, "y", c.Series[1].Name)
	assert.False(t, c.Series[1].Values[1].Valid)
	assert.Equal(t, []int{0, 1}, c.Index)
	assert.False(t, c.Truncated)
	assert.False(t, c.Empty())
}

func TestChart_Degrades(t *testing.T) {
	one := mustTable(t,
		NewTextColumn("label", Text("a")),
		NewNumericColumn("x", Float8(1)),
	)
	assert.Len(t, Chart(one, 0).Series, 1)

	none := mustTable(t, NewTextColumn("label", Text("a")))
	c := Chart(none, 0)
	assert.Empty(t, c.Series)
	assert.True(t, c.Empty())
}

func TestChart_Truncates(t *testing.T) {
	tbl := mustTable(t, NewNumericColumn("x", Float8(1), Float8(2), Float8(3)))
	c := Chart(tbl, 2)
	assert.True(t, c.Truncated)
	assert.Equal(t, 3, c.TotalRows)
	assert.Len(t, c.Series[0].Values, 2)
	assert.Equal(t, []int{0, 1}, c.Index)
}

func TestChart_DoesNotAliasTable(t *testing.T) {
	tbl := mustTable(t, NewNumericColumn("x", Float8(1), Float8(2), Float8(3)))
	c := Chart(tbl, 2)
	c.Series[0].Values = append(c.Series[0].Values, Float8(99))

	x, _ := tbl.Column("x")
	assert.Equal(t, 3.0, x.Numbers[2].Float64)
}

package core

import (
	"math"
	"strconv"
	"strings"
)

// RemoveDuplicates drops every row that exactly repeats an earlier row,
// comparing all columns. Missing cells compare equal to each other. The
// first occurrence of each row is kept and row order is preserved.
// It returns the cleaned table and the number of rows removed.
func RemoveDuplicates(t *Table) (*Table, int) {
	n := t.NumRows()
	seen := make(map[string]struct{}, n)
	keep := make([]int, 0, n)

	var key strings.Builder
	for i := 0; i < n; i++ {
		key.Reset()
		writeRowKey(&key, t, i)
		k := key.String()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keep = append(keep, i)
	}

	if len(keep) == n {
		return t.withColumns(append([]*Column(nil), t.Columns...)), 0
	}
	return t.takeRows(keep), n - len(keep)
}

// writeRowKey encodes row i so that two rows share a key only when every
// cell is equal. Each cell starts with a tag byte that cannot appear in a
// formatted number, and text is length-prefixed.
func writeRowKey(b *strings.Builder, t *Table, i int) {
	for _, c := range t.Columns {
		switch {
		case c.IsMissing(i):
			b.WriteByte(0)
		case c.Kind == KindNumeric:
			f := c.Numbers[i].Float64
			if f == 0 {
				f = 0 // fold -0 into 0
			}
			b.WriteByte(1)
			b.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
		default:
			s := c.Texts[i].String
			b.WriteByte(2)
			b.WriteString(strconv.Itoa(len(s)))
			b.WriteByte(':')
			b.WriteString(s)
		}
	}
}

// FillReport describes what FillMissingNumeric changed.
type FillReport struct {
	// FilledCells is the total number of cells that received a mean.
	FilledCells int

	// Means holds the value written into each filled column.
	Means map[string]float64

	// EmptyColumns lists numeric columns with missing cells but no value to
	// average. They are left unchanged.
	EmptyColumns []string
}

// FillMissingNumeric replaces missing cells of every numeric column with
// the arithmetic mean of that column's present values. Means are computed
// from the input table before anything is replaced. Text columns are left
// as they are.
func FillMissingNumeric(t *Table) (*Table, FillReport) {
	report := FillReport{Means: make(map[string]float64)}
	cols := append([]*Column(nil), t.Columns...)

	for i, c := range t.Columns {
		if c.Kind != KindNumeric {
			continue
		}

		missing := c.Missing()
		if missing == 0 {
			continue
		}

		mean, ok := columnMean(c)
		if !ok {
			report.EmptyColumns = append(report.EmptyColumns, c.Name)
			continue
		}

		filled := c.clone()
		for j := range filled.Numbers {
			if !filled.Numbers[j].Valid {
				filled.Numbers[j] = Float8(mean)
			}
		}
		cols[i] = filled
		report.FilledCells += missing
		report.Means[c.Name] = mean
	}

	return t.withColumns(cols), report
}

// columnMean averages the present values of a numeric column. It reports
// false when there is nothing to average or the values cancel to NaN
// (+Inf and -Inf together).
func columnMean(c *Column) (float64, bool) {
	var sum float64
	count := 0
	for _, v := range c.Numbers {
		if v.Valid {
			sum += v.Float64
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	mean := sum / float64(count)
	if math.IsNaN(mean) {
		return 0, false
	}
	return mean, true
}

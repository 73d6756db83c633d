package core

import "github.com/jackc/pgx/v5/pgtype"

// MaxChartSeries is how many numeric columns a chart plots.
const MaxChartSeries = 2

// Series is one plotted column.
type Series struct {
	Name   string
	Values []pgtype.Float8
}

// ChartData is a bar chart of up to MaxChartSeries numeric columns against
// the 0-based row index.
type ChartData struct {
	Index  []int
	Series []Series

	// Truncated is set when rows beyond the point cap were left out.
	Truncated bool
	TotalRows int
}

// Empty reports whether there is nothing to plot.
func (c ChartData) Empty() bool {
	return len(c.Series) == 0 || len(c.Index) == 0
}

// Chart picks the first MaxChartSeries numeric columns of t in table order.
// Tables with fewer numeric columns produce fewer series, possibly none.
// maxRows caps the number of points per series; 0 means no cap.
func Chart(t *Table, maxRows int) ChartData {
	rows := t.NumRows()
	n := rows
	if maxRows > 0 && n > maxRows {
		n = maxRows
	}

	data := ChartData{
		Index:     make([]int, n),
		Truncated: n < rows,
		TotalRows: rows,
	}
	for i := range data.Index {
		data.Index[i] = i
	}

	for _, c := range t.NumericColumns() {
		if len(data.Series) == MaxChartSeries {
			break
		}
		data.Series = append(data.Series, Series{
			Name:   c.Name,
			Values: c.Numbers[:n:n],
		})
	}
	return data
}

package core

import "fmt"

// DefaultPreviewRows is how many leading rows a preview shows.
const DefaultPreviewRows = 5

// Head returns the first n rows of t, or all rows when t is shorter.
// A non-positive n selects DefaultPreviewRows.
func Head(t *Table, n int) *Table {
	if n <= 0 {
		n = DefaultPreviewRows
	}
	rows := t.NumRows()
	if rows <= n {
		return t.withColumns(append([]*Column(nil), t.Columns...))
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return t.takeRows(idx)
}

// FormatKB renders a byte count in kilobytes with two decimals, e.g. "1.50 KB".
func FormatKB(size int64) string {
	return fmt.Sprintf("%.2f KB", float64(size)/1024)
}

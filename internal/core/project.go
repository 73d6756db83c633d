package core

// SelectColumns returns a table holding exactly the named columns in the
// order given. A name listed twice is kept once, at its first position.
// If any name does not exist the whole selection is rejected with a
// *ColumnError wrapping ErrUnknownColumn that lists every missing name.
//
// An empty selection yields a table with no columns; callers wanting
// "everything" should not call SelectColumns at all.
func SelectColumns(t *Table, names []string) (*Table, error) {
	index := make(map[string]*Column, len(t.Columns))
	for _, c := range t.Columns {
		index[c.Name] = c
	}

	cols := make([]*Column, 0, len(names))
	picked := make(map[string]bool, len(names))
	var unknown []string

	for _, name := range names {
		c, ok := index[name]
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		if picked[name] {
			continue
		}
		picked[name] = true
		cols = append(cols, c)
	}

	if len(unknown) > 0 {
		return nil, &ColumnError{Err: ErrUnknownColumn, Columns: unknown}
	}
	return t.withColumns(cols), nil
}

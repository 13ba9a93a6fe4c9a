package draws

import "fmt"

// Table is a posterior sample: rows are draws, columns are named parameters.
// Column names are unique within a table. Tables are never mutated after construction.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]float64
}

// New validates and creates a Table. Every row must have one value per column.
func New(columns []string, rows [][]float64) (Table, error) {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if c == "" {
			return Table{}, fmt.Errorf("column %d has an empty name", i)
		}
		if _, dup := index[c]; dup {
			return Table{}, fmt.Errorf("duplicate column name: %s", c)
		}
		index[c] = i
	}
	for i, r := range rows {
		if len(r) != len(columns) {
			return Table{}, fmt.Errorf("row %d has %d values, want %d", i, len(r), len(columns))
		}
	}
	return Table{columns: cloneStrings(columns), index: index, rows: cloneRows(rows)}, nil
}

// Reconstruct creates a Table without validation or copying (trusted callers only).
func Reconstruct(columns []string, rows [][]float64) Table {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[c] = i
	}
	return Table{columns: columns, index: index, rows: rows}
}

// Columns returns the column names in table order.
func (t Table) Columns() []string { return t.columns }

// NumRows returns the number of draws.
func (t Table) NumRows() int { return len(t.rows) }

// NumColumns returns the number of parameters.
func (t Table) NumColumns() int { return len(t.columns) }

// Has reports whether the table has the named column.
func (t Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// ColumnIndex returns the position of the named column.
func (t Table) ColumnIndex(name string) (int, bool) {
	j, ok := t.index[name]
	return j, ok
}

// Row returns the i-th draw. The slice must not be modified.
func (t Table) Row(i int) []float64 { return t.rows[i] }

// Value returns the value of column name in row i.
func (t Table) Value(i int, name string) (float64, bool) {
	j, ok := t.index[name]
	if !ok {
		return 0, false
	}
	return t.rows[i][j], true
}

// Column returns a copy of the named column.
func (t Table) Column(name string) ([]float64, bool) {
	j, ok := t.index[name]
	if !ok {
		return nil, false
	}
	out := make([]float64, len(t.rows))
	for i, r := range t.rows {
		out[i] = r[j]
	}
	return out, true
}

// Select projects the table onto the given columns, in the given order.
// Unknown names are an error.
func (t Table) Select(names []string) (Table, error) {
	pos := make([]int, len(names))
	for k, n := range names {
		j, ok := t.index[n]
		if !ok {
			return Table{}, fmt.Errorf("unknown column %q", n)
		}
		pos[k] = j
	}
	rows := make([][]float64, len(t.rows))
	for i, r := range t.rows {
		row := make([]float64, len(pos))
		for k, j := range pos {
			row[k] = r[j]
		}
		rows[i] = row
	}
	return Reconstruct(cloneStrings(names), rows), nil
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	c := make([]string, len(s))
	copy(c, s)
	return c
}

func cloneRows(rows [][]float64) [][]float64 {
	c := make([][]float64, len(rows))
	for i, r := range rows {
		c[i] = append([]float64(nil), r...)
	}
	return c
}

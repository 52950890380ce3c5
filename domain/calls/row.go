package calls

import "strings"

// Shape tells how a RawRow stores its cells.
type Shape int

const (
	// ShapeArray rows address cells by fixed position.
	ShapeArray Shape = iota
	// ShapeObject rows address cells by column name.
	ShapeObject
)

func (s Shape) String() string {
	if s == ShapeObject {
		return "object"
	}
	return "array"
}

// RawRow is one externally supplied data row. Its shape is fixed when the row
// is built and the row is never mutated afterwards.
type RawRow struct {
	shape  Shape
	cells  []string
	fields map[string]string
}

// ArrayRow builds a positional row.
func ArrayRow(cells ...string) RawRow {
	return RawRow{shape: ShapeArray, cells: cells}
}

// ObjectRow builds a name-keyed row.
func ObjectRow(fields map[string]string) RawRow {
	return RawRow{shape: ShapeObject, fields: fields}
}

func (r RawRow) Shape() Shape { return r.shape }

// Len is the number of cells (array rows) or keys (object rows).
func (r RawRow) Len() int {
	if r.shape == ShapeObject {
		return len(r.fields)
	}
	return len(r.cells)
}

// At returns the trimmed cell at index i; ok is false when the index is out of
// range, the row is an object row, or the cell is blank.
func (r RawRow) At(i int) (string, bool) {
	if r.shape != ShapeArray || i < 0 || i >= len(r.cells) {
		return "", false
	}
	v := strings.TrimSpace(r.cells[i])
	return v, v != ""
}

// Lookup returns the first non-blank value among the given column names.
func (r RawRow) Lookup(names ...string) (string, bool) {
	if r.shape != ShapeObject {
		return "", false
	}
	for _, n := range names {
		if v := strings.TrimSpace(r.fields[n]); v != "" {
			return v, true
		}
	}
	return "", false
}

// Table splits a 2-D sheet into its header and positional data rows.
// Fully blank rows are dropped.
func Table(values [][]string) (header []string, rows []RawRow) {
	if len(values) == 0 {
		return nil, nil
	}
	header = values[0]
	rows = make([]RawRow, 0, len(values)-1)
	for _, v := range values[1:] {
		if blank(v) {
			continue
		}
		rows = append(rows, ArrayRow(v...))
	}
	return header, rows
}

// Objects wraps name-keyed rows, as produced by the translated-column import.
func Objects(values []map[string]string) []RawRow {
	rows := make([]RawRow, 0, len(values))
	for _, v := range values {
		if len(v) == 0 {
			continue
		}
		rows = append(rows, ObjectRow(v))
	}
	return rows
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

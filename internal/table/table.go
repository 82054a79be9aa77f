// Package table converts between a joint hierarchy with its motion and the
// three CSV tables: rotations, world positions and the hierarchy itself.
package table

import (
	"errors"

	"gonum.org/v1/gonum/spatial/r3"
)

// ErrMalformedTable is returned for CSV input that cannot be read as a table:
// bad header, ragged row or non-numeric cell.
var ErrMalformedTable = errors.New("table: malformed table")

const (
	// TimeColumn heads the first column of rotation and position tables.
	TimeColumn = "time"

	// DefaultPrecision is the number of decimals written per table value.
	DefaultPrecision = 5

	// OffsetPrecision is the number of decimals written per hierarchy offset.
	OffsetPrecision = 6
)

// HierarchyHeader is the header of the hierarchy table.
var HierarchyHeader = []string{"joint", "parent", "offset.x", "offset.y", "offset.z"}

// Table is a numeric CSV table. Every row has one value per header column.
type Table struct {
	Header []string
	Rows   [][]float64
}

// Column returns the index of the named column.
func (t Table) Column(name string) (int, bool) {
	for i, h := range t.Header {
		if h == name {
			return i, true
		}
	}
	return -1, false
}

// NumRows returns the number of data rows.
func (t Table) NumRows() int { return len(t.Rows) }

// Values returns one column as a slice.
func (t Table) Values(col int) []float64 {
	out := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[col]
	}
	return out
}

// HierarchyRow is one line of the hierarchy table. Parent is empty for the root.
type HierarchyRow struct {
	Joint  string
	Parent string
	Offset r3.Vec
}

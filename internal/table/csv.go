package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// WriteTable writes t as CSV with values at the given number of decimals.
func WriteTable(w io.Writer, t Table, precision int) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("table: write header: %w", err)
	}
	rec := make([]string, len(t.Header))
	for i, row := range t.Rows {
		if len(row) != len(t.Header) {
			return fmt.Errorf("%w: row %d has %d values for %d columns", ErrMalformedTable, i, len(row), len(t.Header))
		}
		for c, v := range row {
			rec[c] = strconv.FormatFloat(v, 'f', precision, 64)
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("table: write row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("table: flush: %w", err)
	}
	return nil
}

// ReadTable reads a numeric CSV table. Cells are trimmed of surrounding spaces;
// the first column must be the time column.
func ReadTable(r io.Reader) (Table, error) {
	records, err := readRecords(r)
	if err != nil {
		return Table{}, err
	}
	if len(records) == 0 {
		return Table{}, fmt.Errorf("%w: missing header", ErrMalformedTable)
	}

	header := records[0]
	if header[0] != TimeColumn {
		return Table{}, fmt.Errorf("%w: first column is %q, want %q", ErrMalformedTable, header[0], TimeColumn)
	}
	seen := make(map[string]bool, len(header))
	for _, h := range header {
		if h == "" || seen[h] {
			return Table{}, fmt.Errorf("%w: empty or repeated column %q", ErrMalformedTable, h)
		}
		seen[h] = true
	}

	t := Table{Header: header, Rows: make([][]float64, 0, len(records)-1)}
	for i, rec := range records[1:] {
		row := make([]float64, len(rec))
		for c, cell := range rec {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return Table{}, fmt.Errorf("%w: line %d column %q: non-numeric value %q",
					ErrMalformedTable, i+2, header[c], cell)
			}
			row[c] = v
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// WriteHierarchy writes the hierarchy table with offsets at OffsetPrecision
// decimals.
func WriteHierarchy(w io.Writer, rows []HierarchyRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(HierarchyHeader); err != nil {
		return fmt.Errorf("table: write header: %w", err)
	}
	for _, r := range rows {
		rec := []string{
			r.Joint,
			r.Parent,
			strconv.FormatFloat(r.Offset.X, 'f', OffsetPrecision, 64),
			strconv.FormatFloat(r.Offset.Y, 'f', OffsetPrecision, 64),
			strconv.FormatFloat(r.Offset.Z, 'f', OffsetPrecision, 64),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("table: write joint %s: %w", r.Joint, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("table: flush: %w", err)
	}
	return nil
}

// ReadHierarchy reads a hierarchy table. Column names are matched ignoring
// case and dots, so "offsetx" is accepted for "offset.x".
func ReadHierarchy(r io.Reader) ([]HierarchyRow, error) {
	records, err := readRecords(r)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: missing header", ErrMalformedTable)
	}

	var idx [5]int
	for i, want := range HierarchyHeader {
		idx[i] = -1
		for c, h := range records[0] {
			if normalizeColumn(h) == normalizeColumn(want) {
				idx[i] = c
				break
			}
		}
		if idx[i] < 0 {
			return nil, fmt.Errorf("%w: hierarchy column %q missing", ErrMalformedTable, want)
		}
	}

	rows := make([]HierarchyRow, 0, len(records)-1)
	for i, rec := range records[1:] {
		var off [3]float64
		for k := range off {
			cell := rec[idx[2+k]]
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: non-numeric offset %q", ErrMalformedTable, i+2, cell)
			}
			off[k] = v
		}
		rows = append(rows, HierarchyRow{
			Joint:  rec[idx[0]],
			Parent: rec[idx[1]],
			Offset: r3.Vec{X: off[0], Y: off[1], Z: off[2]},
		})
	}
	return rows, nil
}

func readRecords(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return nil, fmt.Errorf("%w: %v", ErrMalformedTable, err)
		}
		return nil, fmt.Errorf("table: read csv: %w", err)
	}
	for _, rec := range records {
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
		}
	}
	return records, nil
}

func normalizeColumn(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, ".", ""))
}

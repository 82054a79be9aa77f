// Package plot charts CSV table columns against another column, time by
// default.
package plot

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	gonumplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"mocap-bvh-csv/internal/table"
)

// ErrUnknownColumn is returned when a requested column is not in the table.
var ErrUnknownColumn = errors.New("plot: unknown column")

// Options controls Build.
type Options struct {
	X       string   // x column; empty means time
	Columns []string // y columns, at least one
	Title   string
	Width   vg.Length // zero means 6 inches
	Height  vg.Length // zero means 4 inches
}

func (o Options) size() (vg.Length, vg.Length) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = 6 * vg.Inch
	}
	if h <= 0 {
		h = 4 * vg.Inch
	}
	return w, h
}

// Series pairs column x with column y.
func Series(t table.Table, x, y string) (plotter.XYs, error) {
	xi, ok := t.Column(x)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownColumn, x)
	}
	yi, ok := t.Column(y)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownColumn, y)
	}
	xys := make(plotter.XYs, t.NumRows())
	for i, row := range t.Rows {
		xys[i].X = row[xi]
		xys[i].Y = row[yi]
	}
	return xys, nil
}

// Build makes one line per requested column.
func Build(t table.Table, opts Options) (*gonumplot.Plot, error) {
	if len(opts.Columns) == 0 {
		return nil, fmt.Errorf("plot: no columns requested")
	}
	x := opts.X
	if x == "" {
		x = table.TimeColumn
	}

	p := gonumplot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = x
	if len(opts.Columns) == 1 {
		p.Y.Label.Text = opts.Columns[0]
	}

	var lines []any
	for _, col := range opts.Columns {
		xys, err := Series(t, x, col)
		if err != nil {
			return nil, err
		}
		lines = append(lines, col, xys)
	}
	if err := plotutil.AddLines(p, lines...); err != nil {
		return nil, fmt.Errorf("plot: add lines: %w", err)
	}
	p.Add(plotter.NewGrid())
	return p, nil
}

// Write renders the chart in format ("png", "svg", "pdf", ...).
func Write(w io.Writer, t table.Table, opts Options, format string) error {
	wt, err := render(t, opts, format)
	if err != nil {
		return err
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("plot: write %s: %w", format, err)
	}
	return nil
}

// Save renders the chart to path; the format follows the extension. Nothing
// is created when the chart cannot be built.
func Save(path string, t table.Table, opts Options) error {
	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if format == "" {
		return fmt.Errorf("plot: %s has no extension", path)
	}
	wt, err := render(t, opts, format)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("plot: mkdir %s: %w", filepath.Dir(path), err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("plot: create %s: %w", path, err)
	}
	if _, err := wt.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("plot: write %s: %w", path, err)
	}
	return f.Close()
}

func render(t table.Table, opts Options, format string) (io.WriterTo, error) {
	p, err := Build(t, opts)
	if err != nil {
		return nil, err
	}
	width, height := opts.size()
	wt, err := p.WriterTo(width, height, format)
	if err != nil {
		return nil, fmt.Errorf("plot: %s writer: %w", format, err)
	}
	return wt, nil
}

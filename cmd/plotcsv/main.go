package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"mocap-bvh-csv/internal/convert"
	"mocap-bvh-csv/internal/plot"
)

type options struct {
	x        string
	columns  string
	title    string
	output   string
	encoding string
	input    string
}

func parseOptions(args []string, errOut io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("plotcsv", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.Usage = func() {
		fmt.Fprintln(errOut, "Usage: plotcsv -y <col>[,<col>...] [flags] <table.csv>")
		fs.PrintDefaults()
	}

	fs.StringVar(&o.x, "x", "time", "Column on the x axis")
	fs.StringVar(&o.columns, "y", "", "Comma list of columns on the y axis")
	fs.StringVar(&o.title, "title", "", "Chart title (default: file name)")
	fs.StringVar(&o.output, "o", "", "Output image, .png/.svg/.pdf (default: <table>.png)")
	fs.StringVar(&o.encoding, "encoding", "", "Input text encoding: utf-8, windows-1252, shift_jis")

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if fs.NArg() != 1 || o.columns == "" {
		fs.Usage()
		return o, errors.New("expected -y and one CSV file")
	}
	o.input = fs.Arg(0)
	return o, nil
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, out, errOut io.Writer) error {
	o, err := parseOptions(args, errOut)
	if err != nil {
		return err
	}

	t, err := convert.ReadTableFile(o.input, o.encoding)
	if err != nil {
		return err
	}

	var cols []string
	for _, c := range strings.Split(o.columns, ",") {
		if c = strings.TrimSpace(c); c != "" {
			cols = append(cols, c)
		}
	}
	stem := strings.TrimSuffix(filepath.Base(o.input), filepath.Ext(o.input))
	title := o.title
	if title == "" {
		title = stem
	}
	dst := o.output
	if dst == "" {
		dst = filepath.Join(filepath.Dir(o.input), stem+".png")
	}

	if err := plot.Save(dst, t, plot.Options{X: o.x, Columns: cols, Title: title}); err != nil {
		return err
	}
	fmt.Fprintf(out, "[plotcsv] %d rows, %d series -> %s\n", t.NumRows(), len(cols), dst)
	return nil
}

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"mocap-bvh-csv/internal/config"
	"mocap-bvh-csv/internal/convert"
)

type options struct {
	configFile string
	flags      config.Flags
	hierarchy  string
	rotations  string
	positions  string
	output     string
}

func parseOptions(args []string, errOut io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("csv2bvh", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.Usage = func() {
		fmt.Fprintln(errOut, "Usage: csv2bvh [flags] <name_hierarchy.csv>")
		fs.PrintDefaults()
	}

	fs.StringVar(&o.configFile, "config", "", "Path to config .json/.yaml file")
	fs.StringVar(&o.rotations, "rot", "", "Rotation table (default: <name>_rot.csv)")
	fs.StringVar(&o.positions, "pos", "", "Position table (default: <name>_pos.csv)")
	fs.StringVar(&o.output, "o", "", "Output BVH file (default: <name>.bvh)")
	fs.Float64Var(&o.flags.Scale, "scale", 0, "Scale for offsets and root positions (default: 1)")
	fs.IntVar(&o.flags.Precision, "precision", 0, "Decimals per motion value (default: 5)")
	fs.StringVar(&o.flags.Encoding, "encoding", "", "Input text encoding: utf-8, windows-1252, shift_jis")

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return o, errors.New("expected one hierarchy file")
	}
	o.hierarchy = fs.Arg(0)
	if o.rotations == "" || o.positions == "" {
		rot, pos := siblingTables(o.hierarchy)
		if o.rotations == "" {
			o.rotations = rot
		}
		if o.positions == "" {
			o.positions = pos
		}
	}
	return o, nil
}

// siblingTables derives the rotation and position tables written next to a
// hierarchy table by bvh2csv.
func siblingTables(hierarchy string) (rot, pos string) {
	dir, name := filepath.Split(hierarchy)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	stem = strings.TrimSuffix(stem, "_hierarchy")
	return filepath.Join(dir, stem+"_rot.csv"), filepath.Join(dir, stem+"_pos.csv")
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

	var cfg config.Config
	if o.configFile != "" {
		cfg, err = config.Load(o.configFile)
		if err != nil {
			return err
		}
	}
	cfg.Resolve(o.flags)

	fmt.Fprintf(out, "[csv2bvh] Hierarchy: %s\n", o.hierarchy)
	fmt.Fprintf(out, "[csv2bvh] Rotations: %s\n", o.rotations)
	fmt.Fprintf(out, "[csv2bvh] Positions: %s\n", o.positions)

	dst, err := convert.Csv2Bvh(o.hierarchy, o.rotations, o.positions, o.output, cfg.ConvertOptions())
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "[csv2bvh] Wrote %s\n", dst)
	return nil
}

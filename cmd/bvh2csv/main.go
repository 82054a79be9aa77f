package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mocap-bvh-csv/internal/batch"
	"mocap-bvh-csv/internal/config"
)

type options struct {
	configFile string
	flags      config.Flags
	tables     string
	preview    bool
	manifest   bool
	quiet      bool
	inputs     []string
}

func parseOptions(args []string, errOut io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("bvh2csv", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.Usage = func() {
		fmt.Fprintln(errOut, "Usage: bvh2csv [flags] [file.bvh|dir]...")
		fs.PrintDefaults()
	}

	fs.StringVar(&o.configFile, "config", "", "Path to config .json/.yaml file")
	fs.StringVar(&o.flags.InputDir, "input", "", "Directory scanned for .bvh files when no paths are given")
	fs.StringVar(&o.flags.OutputDir, "output", "", "Output directory (default: next to each input)")
	fs.Float64Var(&o.flags.Scale, "scale", 0, "Scale for offsets and positions (default: 1)")
	fs.IntVar(&o.flags.Precision, "precision", 0, "Decimals per value (default: 5)")
	fs.BoolVar(&o.flags.NoEndSites, "no-end-sites", false, "Leave end sites out of the position table")
	fs.StringVar(&o.flags.Encoding, "encoding", "", "Input text encoding: utf-8, windows-1252, shift_jis")
	fs.IntVar(&o.flags.Workers, "workers", 0, "Number of worker goroutines (default: NumCPU)")
	fs.StringVar(&o.tables, "tables", "", "Comma list of tables to write: rot,pos,hier (default: all)")
	fs.BoolVar(&o.preview, "preview", false, "Also render a preview of frame 0")
	fs.StringVar(&o.flags.PreviewFormat, "preview-format", "", "Preview format: webp, tga, png (default: webp)")
	fs.BoolVar(&o.manifest, "manifest", false, "Write manifest.json into the output directory")
	fs.BoolVar(&o.quiet, "quiet", false, "Hide the progress bar")

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	o.inputs = fs.Args()
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

	// Load config
	var cfg config.Config
	if o.configFile != "" {
		cfg, err = config.Load(o.configFile)
		if err != nil {
			return err
		}
	}

	// CLI flags override config file
	cfg.Resolve(o.flags)

	opts := cfg.ConvertOptions()
	if o.tables != "" {
		opts.Rotations, opts.Positions, opts.Hierarchy = false, false, false
		for _, t := range strings.Split(o.tables, ",") {
			switch strings.TrimSpace(t) {
			case "rot":
				opts.Rotations = true
			case "pos":
				opts.Positions = true
			case "hier":
				opts.Hierarchy = true
			default:
				return fmt.Errorf("unknown table %q", t)
			}
		}
	}

	inputs := cfg.Inputs(o.inputs)
	if len(inputs) == 0 {
		return errors.New("no input files: pass paths, -input, or input_dir in -config")
	}
	files, err := batch.Collect(inputs)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(out, "No BVH files found.")
		return nil
	}

	fmt.Fprintf(out, "[bvh2csv] Files: %d, Workers: %d, Scale: %g\n", len(files), cfg.Workers, cfg.Scale)
	if cfg.OutputDir != "" {
		fmt.Fprintf(out, "[bvh2csv] Output: %s\n", cfg.OutputDir)
	}
	fmt.Fprintln(out, "------------------------------------------------------------")

	start := time.Now()

	batchCfg := batch.Config{
		OutputDir: cfg.OutputDir,
		Options:   opts,
		Workers:   cfg.Workers,
	}
	if o.preview {
		batchCfg.PreviewFormat = cfg.PreviewFormat
		batchCfg.Preview.Size = cfg.PreviewSize
		batchCfg.Preview.Supersample = cfg.Supersample
		batchCfg.Preview.Yaw = cfg.PreviewYaw
		batchCfg.Preview.Label = true
	}
	if !o.quiet {
		batchCfg.Progress = errOut
	}

	results := batch.Run(batchCfg, files)

	elapsed := time.Since(start)
	fmt.Fprintln(out, "------------------------------------------------------------")
	fmt.Fprintf(out, "Done in %.1fs\n", elapsed.Seconds())

	// Count results
	var failures []batch.Result
	for _, r := range results {
		if !r.Success {
			failures = append(failures, r)
		}
	}
	fmt.Fprintf(out, "Converted: %d/%d\n", len(results)-len(failures), len(results))

	if len(failures) > 0 {
		fmt.Fprintf(out, "\nFailed (%d):\n", len(failures))
		limit := min(20, len(failures))
		for _, r := range failures[:limit] {
			fmt.Fprintf(out, "  %s: %s\n", r.Source, r.Error)
		}
	}

	if o.manifest {
		dir := cfg.OutputDir
		if dir == "" {
			dir = "."
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
		manifestPath := filepath.Join(dir, "manifest.json")
		if err := batch.WriteManifest(manifestPath, batch.NewManifest(results)); err != nil {
			fmt.Fprintf(errOut, "Warning: %v\n", err)
		} else {
			fmt.Fprintf(out, "Manifest: %s\n", manifestPath)
		}
	}

	if len(failures) > 0 {
		return fmt.Errorf("%d of %d files failed", len(failures), len(results))
	}
	return nil
}

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
	"mocap-bvh-csv/internal/kinematics"
	"mocap-bvh-csv/internal/preview"
)

type options struct {
	configFile string
	flags      config.Flags
	frames     string
	every      int
	yaw        float64
	pitch      float64
	noLabel    bool
	output     string
	input      string
}

func parseOptions(args []string, errOut io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.Usage = func() {
		fmt.Fprintln(errOut, "Usage: render [flags] <file.bvh>")
		fs.PrintDefaults()
	}

	fs.StringVar(&o.configFile, "config", "", "Path to config .json/.yaml file")
	fs.StringVar(&o.frames, "frame", "0", "Frame to render, or a range like 10-40")
	fs.IntVar(&o.every, "every", 1, "Render every N-th frame of the range")
	fs.IntVar(&o.flags.PreviewSize, "size", 0, "Image size in pixels (default: 512)")
	fs.StringVar(&o.flags.PreviewFormat, "format", "", "Image format: webp, tga, png (default: webp)")
	fs.Float64Var(&o.yaw, "yaw", 0, "Camera yaw in degrees")
	fs.Float64Var(&o.pitch, "pitch", 0, "Camera pitch in degrees")
	fs.BoolVar(&o.noLabel, "no-label", false, "Do not print the frame number")
	fs.Float64Var(&o.flags.Scale, "scale", 0, "Scale for positions (default: 1)")
	fs.StringVar(&o.flags.Encoding, "encoding", "", "Input text encoding: utf-8, windows-1252, shift_jis")
	fs.StringVar(&o.output, "output", "", "Output directory (default: next to the input)")

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return o, errors.New("expected one BVH file")
	}
	if o.every < 1 {
		return o, fmt.Errorf("-every must be positive, got %d", o.every)
	}
	o.input = fs.Arg(0)
	return o, nil
}

// frameRange parses "N" or "A-B" into an inclusive range.
func frameRange(s string) (int, int, error) {
	var a, b int
	if lo, hi, ok := strings.Cut(s, "-"); ok {
		if _, err := fmt.Sscanf(lo+" "+hi, "%d %d", &a, &b); err != nil {
			return 0, 0, fmt.Errorf("invalid frame range %q", s)
		}
	} else {
		if _, err := fmt.Sscanf(s, "%d", &a); err != nil {
			return 0, 0, fmt.Errorf("invalid frame %q", s)
		}
		b = a
	}
	if a < 0 || b < a {
		return 0, 0, fmt.Errorf("invalid frame range %q", s)
	}
	return a, b, nil
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
	first, last, err := frameRange(o.frames)
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
	if o.yaw == 0 {
		o.yaw = cfg.PreviewYaw
	}

	doc, err := convert.LoadBVH(o.input, cfg.Encoding)
	if err != nil {
		return err
	}
	tr, err := kinematics.Compute(doc.Model, doc.Motion, kinematics.Options{Scale: cfg.Scale})
	if err != nil {
		return err
	}
	if last >= tr.NumFrames() {
		return fmt.Errorf("frame %d out of range, clip has %d frames", last, tr.NumFrames())
	}

	outDir := o.output
	if outDir == "" {
		outDir = filepath.Dir(o.input)
	}
	stem := strings.TrimSuffix(filepath.Base(o.input), filepath.Ext(o.input))

	popts := preview.Options{
		Size:        cfg.PreviewSize,
		Supersample: cfg.Supersample,
		Yaw:         o.yaw,
		Pitch:       o.pitch,
		Label:       !o.noLabel,
	}
	fmt.Fprintf(out, "[render] %s: %d joints, %d frames\n", o.input, doc.Model.Len(), tr.NumFrames())

	count := 0
	for f := first; f <= last; f += o.every {
		img, err := preview.Render(doc.Model, tr, f, popts)
		if err != nil {
			return err
		}
		path := filepath.Join(outDir, fmt.Sprintf("%s_%04d.%s", stem, f, cfg.PreviewFormat))
		if err := preview.Save(path, img); err != nil {
			return err
		}
		count++
	}
	fmt.Fprintf(out, "[render] Wrote %d image(s) to %s\n", count, outDir)
	return nil
}

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"mocap-bvh-csv/internal/bvh"
	"mocap-bvh-csv/internal/convert"
	"mocap-bvh-csv/internal/kinematics"
)

type options struct {
	encoding string
	ranges   bool
	bounds   bool
	orient   bool
	inputs   []string
}

func parseOptions(args []string, errOut io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.Usage = func() {
		fmt.Fprintln(errOut, "Usage: inspect [flags] <file.bvh>...")
		fs.PrintDefaults()
	}
	fs.StringVar(&o.encoding, "encoding", "", "Input text encoding: utf-8, windows-1252, shift_jis")
	fs.BoolVar(&o.ranges, "ranges", false, "Print min/max of every channel")
	fs.BoolVar(&o.bounds, "bounds", false, "Print world-space bounds of every joint")
	fs.BoolVar(&o.orient, "orient", false, "Print root orientation at the first and last frame")

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	o.inputs = fs.Args()
	if len(o.inputs) == 0 {
		fs.Usage()
		return o, errors.New("no input files")
	}
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

	failed := 0
	for _, path := range o.inputs {
		doc, err := convert.LoadBVH(path, o.encoding)
		if err != nil {
			fmt.Fprintf(errOut, "Parse error %s: %v\n", path, err)
			failed++
			continue
		}
		printSummary(out, path, doc)
		if o.ranges {
			fmt.Fprintln(out, "--- CHANNEL RANGES ---")
			printRanges(out, doc)
		}
		if o.bounds {
			fmt.Fprintln(out, "--- WORLD BOUNDS ---")
			if err := printBounds(out, doc); err != nil {
				fmt.Fprintf(errOut, "Kinematics error %s: %v\n", path, err)
				failed++
			}
		}
		if o.orient {
			fmt.Fprintln(out, "--- ROOT ORIENTATION ---")
			if err := printOrientation(out, doc); err != nil {
				fmt.Fprintf(errOut, "Kinematics error %s: %v\n", path, err)
				failed++
			}
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(o.inputs))
	}
	return nil
}

func printSummary(out io.Writer, path string, doc *bvh.Document) {
	m, mo := doc.Model, doc.Motion
	fmt.Fprintf(out, "\n=== %s (joints=%d channels=%d frames=%d frame_time=%g duration=%.3fs) ===\n",
		path, m.Len(), m.ChannelCount(), mo.NumFrames(), mo.FrameTime,
		float64(max(mo.NumFrames()-1, 0))*mo.FrameTime)

	for _, id := range m.PreOrder() {
		pad := strings.Repeat("  ", m.Depth(id))
		off := m.Offset(id)
		if m.IsEndSite(id) {
			fmt.Fprintf(out, "%s%s (end site) offset=(%g, %g, %g)\n", pad, m.Name(id), off.X, off.Y, off.Z)
			continue
		}
		var tokens []string
		for _, ch := range m.Channels(id) {
			tokens = append(tokens, ch.String())
		}
		fmt.Fprintf(out, "%s%s [%s] offset=(%g, %g, %g)\n", pad, m.Name(id), strings.Join(tokens, " "), off.X, off.Y, off.Z)
	}
}

func printRanges(out io.Writer, doc *bvh.Document) {
	m, mo := doc.Model, doc.Motion
	for _, id := range m.PreOrder() {
		for i, ch := range m.Channels(id) {
			lo, hi := math.Inf(1), math.Inf(-1)
			for f := range mo.Frames {
				v := mo.JointValues(m, id, f)[i]
				lo, hi = math.Min(lo, v), math.Max(hi, v)
			}
			if mo.NumFrames() == 0 {
				lo, hi = 0, 0
			}
			fmt.Fprintf(out, "  %s.%s: min=%.3f max=%.3f\n", m.Name(id), ch, lo, hi)
		}
	}
}

func printBounds(out io.Writer, doc *bvh.Document) error {
	tr, err := kinematics.Compute(doc.Model, doc.Motion, kinematics.Options{})
	if err != nil {
		return err
	}
	m := doc.Model
	for _, id := range m.PreOrder() {
		var lo, hi [3]float64
		for k := range lo {
			lo[k], hi[k] = math.Inf(1), math.Inf(-1)
		}
		for _, p := range tr.Positions(id) {
			for k, v := range [3]float64{p.X, p.Y, p.Z} {
				lo[k], hi[k] = math.Min(lo[k], v), math.Max(hi[k], v)
			}
		}
		fmt.Fprintf(out, "  %s: x=[%.1f..%.1f] y=[%.1f..%.1f] z=[%.1f..%.1f]\n",
			m.Name(id), lo[0], hi[0], lo[1], hi[1], lo[2], hi[2])
	}
	return nil
}

// printOrientation reports where the root's up (+Y) and forward (+Z) axes
// point in world space. det drifts from 1 when the channels do not compose
// to a proper rotation.
func printOrientation(out io.Writer, doc *bvh.Document) error {
	tr, err := kinematics.Compute(doc.Model, doc.Motion, kinematics.Options{})
	if err != nil {
		return err
	}
	n := tr.NumFrames()
	if n == 0 {
		fmt.Fprintln(out, "  (no frames)")
		return nil
	}
	root := doc.Model.Root()
	frames := []int{0}
	if n > 1 {
		frames = append(frames, n-1)
	}
	for _, f := range frames {
		rot := tr.World(root, f).Rotation()
		up := rot.MulVec(r3.Vec{Y: 1})
		fwd := rot.MulVec(r3.Vec{Z: 1})
		fmt.Fprintf(out, "  %s @%d: up=(%.3f, %.3f, %.3f) forward=(%.3f, %.3f, %.3f) det=%.3f\n",
			doc.Model.Name(root), f, up.X, up.Y, up.Z, fwd.X, fwd.Y, fwd.Z, rot.Det())
	}
	return nil
}

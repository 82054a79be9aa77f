// Package convert runs whole conversion jobs between BVH files and CSV table
// sets on disk.
package convert

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"mocap-bvh-csv/internal/bvh"
	"mocap-bvh-csv/internal/kinematics"
	"mocap-bvh-csv/internal/table"
)

// Artifact kinds written by Bvh2Csv.
const (
	KindRotations = "rotations"
	KindPositions = "positions"
	KindHierarchy = "hierarchy"
)

// Options controls a conversion job.
type Options struct {
	Scale     float64 // multiplies offsets and positions; zero means 1
	Precision int     // decimals per table or motion value; zero means 5
	EndSites  bool    // include end sites in the position table

	Rotations bool
	Positions bool
	Hierarchy bool

	Encoding string // input text encoding; empty means UTF-8
}

func (o Options) scale() float64 {
	if o.Scale == 0 {
		return 1
	}
	return o.Scale
}

func (o Options) precision() int {
	if o.Precision <= 0 {
		return table.DefaultPrecision
	}
	return o.Precision
}

// Artifact is the outcome of writing one output file.
type Artifact struct {
	Kind string `json:"kind"`
	Path string `json:"path"`
	Err  error  `json:"-"`
}

// Report describes a finished job. Document is set once the source parsed;
// Transforms only when the position table was computed.
type Report struct {
	Source    string
	Joints    int
	Frames    int
	Artifacts []Artifact

	Document   *bvh.Document
	Transforms *kinematics.Transforms
}

// Err joins the errors of all failed artifacts.
func (r Report) Err() error {
	var errs []error
	for _, a := range r.Artifacts {
		if a.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", a.Kind, a.Err))
		}
	}
	return errors.Join(errs...)
}

// OutputPaths returns the rotation, position and hierarchy CSV paths for src
// inside outDir. An empty outDir means the directory of src.
func OutputPaths(src, outDir string) (rot, pos, hier string) {
	if outDir == "" {
		outDir = filepath.Dir(src)
	}
	stem := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	base := filepath.Join(outDir, stem)
	return base + "_rot.csv", base + "_pos.csv", base + "_hierarchy.csv"
}

// LoadBVH parses a BVH file, decoding it from the given text encoding.
func LoadBVH(path, enc string) (*bvh.Document, error) {
	rc, err := openText(path, enc)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	doc, err := bvh.Parse(rc)
	if err != nil {
		return nil, fmt.Errorf("convert: %s: %w", path, err)
	}
	return doc, nil
}

// Bvh2Csv converts one BVH file into the selected CSV tables. All tables are
// computed before any file is created, so a validation failure leaves no
// output behind. The tables are then written concurrently; a failed write is
// recorded on its Artifact and also returned joined as the error.
func Bvh2Csv(src, outDir string, opts Options) (Report, error) {
	report := Report{Source: src}

	doc, err := LoadBVH(src, opts.Encoding)
	if err != nil {
		return report, err
	}
	report.Document = doc
	report.Joints = doc.Model.Len()
	report.Frames = doc.Motion.NumFrames()

	rotPath, posPath, hierPath := OutputPaths(src, outDir)
	prec := opts.precision()

	var jobs []func() error
	if opts.Rotations {
		t := table.RotationTable(doc.Model, doc.Motion)
		report.Artifacts = append(report.Artifacts, Artifact{Kind: KindRotations, Path: rotPath})
		jobs = append(jobs, func() error { return writeTable(rotPath, t, prec) })
	}
	if opts.Positions {
		tr, err := kinematics.Compute(doc.Model, doc.Motion, kinematics.Options{Scale: opts.scale()})
		if err != nil {
			report.Artifacts = nil
			return report, fmt.Errorf("convert: %s: %w", src, err)
		}
		report.Transforms = tr
		t := table.PositionTable(doc.Model, tr, doc.Motion.FrameTime, opts.EndSites)
		report.Artifacts = append(report.Artifacts, Artifact{Kind: KindPositions, Path: posPath})
		jobs = append(jobs, func() error { return writeTable(posPath, t, prec) })
	}
	if opts.Hierarchy {
		rows := table.HierarchyRows(doc.Model, opts.scale())
		report.Artifacts = append(report.Artifacts, Artifact{Kind: KindHierarchy, Path: hierPath})
		jobs = append(jobs, func() error { return writeHierarchy(hierPath, rows) })
	}
	if len(jobs) == 0 {
		return report, nil
	}

	if err := os.MkdirAll(filepath.Dir(rotPath), 0755); err != nil {
		err = fmt.Errorf("convert: mkdir %s: %w", filepath.Dir(rotPath), err)
		for i := range report.Artifacts {
			report.Artifacts[i].Err = err
		}
		return report, err
	}

	var wg sync.WaitGroup
	for i, job := range jobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			report.Artifacts[i].Err = job()
		}()
	}
	wg.Wait()

	return report, report.Err()
}

// DefaultBvhPath derives the BVH destination from a hierarchy CSV path:
// "_hierarchy" is dropped from the name and the extension becomes ".bvh".
func DefaultBvhPath(hierPath string) string {
	dir, name := filepath.Split(hierPath)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	stem = strings.Replace(stem, "_hierarchy", "", 1)
	return filepath.Join(dir, stem+".bvh")
}

// Csv2Bvh rebuilds a BVH file from its hierarchy, rotation and position
// tables and returns the path written. An empty dst selects DefaultBvhPath.
func Csv2Bvh(hierPath, rotPath, posPath, dst string, opts Options) (string, error) {
	if dst == "" {
		dst = DefaultBvhPath(hierPath)
	}

	doc, err := LoadTables(hierPath, rotPath, posPath, opts)
	if err != nil {
		return "", err
	}
	if err := bvh.WriteFile(dst, doc, bvh.Options{Precision: opts.precision()}); err != nil {
		return "", fmt.Errorf("convert: %w", err)
	}
	return dst, nil
}

// LoadTables reads and decodes the three CSV tables of a clip.
func LoadTables(hierPath, rotPath, posPath string, opts Options) (*bvh.Document, error) {
	rc, err := openText(hierPath, opts.Encoding)
	if err != nil {
		return nil, err
	}
	rows, err := table.ReadHierarchy(rc)
	rc.Close()
	if err != nil {
		return nil, fmt.Errorf("convert: %s: %w", hierPath, err)
	}

	rot, err := ReadTableFile(rotPath, opts.Encoding)
	if err != nil {
		return nil, err
	}
	pos, err := ReadTableFile(posPath, opts.Encoding)
	if err != nil {
		return nil, err
	}

	model, motion, err := table.Decode(rows, rot, pos, opts.scale())
	if err != nil {
		return nil, fmt.Errorf("convert: %s: %w", hierPath, err)
	}
	return &bvh.Document{Model: model, Motion: motion}, nil
}

// ReadTableFile reads one numeric CSV table from disk.
func ReadTableFile(path, enc string) (table.Table, error) {
	rc, err := openText(path, enc)
	if err != nil {
		return table.Table{}, err
	}
	defer rc.Close()

	t, err := table.ReadTable(rc)
	if err != nil {
		return table.Table{}, fmt.Errorf("convert: %s: %w", path, err)
	}
	return t, nil
}

func writeTable(path string, t table.Table, precision int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := table.WriteTable(f, t, precision); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeHierarchy(path string, rows []table.HierarchyRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := table.WriteHierarchy(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

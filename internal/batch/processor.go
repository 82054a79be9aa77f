package batch

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cheggaaa/pb/v3"

	"mocap-bvh-csv/internal/convert"
	"mocap-bvh-csv/internal/kinematics"
	"mocap-bvh-csv/internal/preview"
)

// Config holds all shared settings for a batch run.
type Config struct {
	OutputDir string // empty writes next to each input
	Options   convert.Options
	Workers   int

	// Preview renders frame 0 of every clip when PreviewFormat is set.
	PreviewFormat string
	Preview       preview.Options

	// Progress receives the progress bar; nil disables it.
	Progress io.Writer
}

// Result holds the outcome of processing one file.
type Result struct {
	Source    string
	Joints    int
	Frames    int
	Artifacts []convert.Artifact
	Success   bool
	Error     string
	Elapsed   time.Duration
}

// Collect expands inputs into a sorted list of .bvh files. Directories are
// walked recursively; files are taken as given.
func Collect(inputs []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, in := range inputs {
		info, err := os.Stat(in)
		if err != nil {
			return nil, fmt.Errorf("batch: stat %s: %w", in, err)
		}
		if !info.IsDir() {
			add(in)
			continue
		}
		err = filepath.WalkDir(in, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".bvh") {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("batch: walk %s: %w", in, err)
		}
	}
	sort.Strings(files)
	return files, nil
}

// Run converts all files using a worker pool. Results keep the input order.
func Run(cfg Config, files []string) []Result {
	total := len(files)
	results := make([]Result, total)

	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	var bar *pb.ProgressBar
	if cfg.Progress != nil {
		bar = pb.New(total).SetWriter(cfg.Progress).Start()
	}

	// Worker pool
	fileChan := make(chan int, workers*2)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range fileChan {
				results[idx] = processFile(cfg, files[idx])
				if bar != nil {
					bar.Increment()
				}
			}
		}()
	}

	// Send work
	for i := range files {
		fileChan <- i
	}
	close(fileChan)

	wg.Wait()
	if bar != nil {
		bar.Finish()
	}

	return results
}

func processFile(cfg Config, src string) Result {
	start := time.Now()
	res := Result{Source: src}

	report, err := convert.Bvh2Csv(src, cfg.OutputDir, cfg.Options)
	res.Joints = report.Joints
	res.Frames = report.Frames
	res.Artifacts = report.Artifacts
	if err != nil {
		res.Error = err.Error()
		res.Elapsed = time.Since(start)
		return res
	}

	if cfg.PreviewFormat != "" {
		path, err := renderPreview(cfg, report)
		if err != nil {
			res.Error = err.Error()
			res.Elapsed = time.Since(start)
			return res
		}
		res.Artifacts = append(res.Artifacts, convert.Artifact{Kind: "preview", Path: path})
	}

	res.Success = true
	res.Elapsed = time.Since(start)
	return res
}

// PreviewPath returns where the preview of src is written.
func PreviewPath(src, outDir, format string) string {
	if outDir == "" {
		outDir = filepath.Dir(src)
	}
	stem := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	return filepath.Join(outDir, stem+"."+format)
}

// renderPreview draws frame 0 from the clip already loaded by the conversion.
// Forward kinematics only runs here when no position table was written.
func renderPreview(cfg Config, report convert.Report) (string, error) {
	src, doc, tr := report.Source, report.Document, report.Transforms
	if tr == nil {
		var err error
		tr, err = kinematics.Compute(doc.Model, doc.Motion, kinematics.Options{Scale: cfg.Options.Scale})
		if err != nil {
			return "", fmt.Errorf("batch: %s: %w", src, err)
		}
	}
	if tr.NumFrames() == 0 {
		return "", fmt.Errorf("batch: %s has no frames to preview", src)
	}
	img, err := preview.Render(doc.Model, tr, 0, cfg.Preview)
	if err != nil {
		return "", err
	}
	path := PreviewPath(src, cfg.OutputDir, cfg.PreviewFormat)
	if err := preview.Save(path, img); err != nil {
		return "", err
	}
	return path, nil
}

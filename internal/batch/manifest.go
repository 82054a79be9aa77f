package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

// Manifest describes one batch run.
type Manifest struct {
	RunID     string          `json:"run_id"`
	CreatedAt time.Time       `json:"created_at"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Entries   []ManifestEntry `json:"entries"`
}

// ManifestEntry represents one input file in the output manifest.
type ManifestEntry struct {
	Source    string            `json:"source"`
	Joints    int               `json:"joints"`
	Frames    int               `json:"frames"`
	Outputs   map[string]string `json:"outputs,omitempty"`
	Error     string            `json:"error,omitempty"`
	ElapsedMS int64             `json:"elapsed_ms"`
}

// NewManifest summarizes results under a fresh run id.
func NewManifest(results []Result) Manifest {
	m := Manifest{
		RunID:     uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Entries:   make([]ManifestEntry, len(results)),
	}
	for i, r := range results {
		e := ManifestEntry{
			Source:    r.Source,
			Joints:    r.Joints,
			Frames:    r.Frames,
			Error:     r.Error,
			ElapsedMS: r.Elapsed.Milliseconds(),
		}
		for _, a := range r.Artifacts {
			if a.Err != nil {
				continue
			}
			if e.Outputs == nil {
				e.Outputs = make(map[string]string)
			}
			e.Outputs[a.Kind] = a.Path
		}
		if r.Success {
			m.Succeeded++
		} else {
			m.Failed++
		}
		m.Entries[i] = e
	}
	return m
}

// WriteManifest writes the manifest as indented JSON.
func WriteManifest(path string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("batch: marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("batch: write %s: %w", path, err)
	}
	return nil
}

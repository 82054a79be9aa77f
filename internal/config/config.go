package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"mocap-bvh-csv/internal/convert"
)

// Config holds conversion, batch and preview settings.
type Config struct {
	// Paths. InputDir is scanned for .bvh files when no inputs are given on
	// the command line; a relative OutputDir from the file is taken under it.
	InputDir  string `json:"input_dir" yaml:"input_dir"`
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Conversion settings
	Scale     float64 `json:"scale" yaml:"scale"`
	Precision int     `json:"precision" yaml:"precision"`
	EndSites  *bool   `json:"end_sites" yaml:"end_sites"`
	Rotations *bool   `json:"rotations" yaml:"rotations"`
	Positions *bool   `json:"positions" yaml:"positions"`
	Hierarchy *bool   `json:"hierarchy" yaml:"hierarchy"`
	Encoding  string  `json:"encoding" yaml:"encoding"`
	Workers   int     `json:"workers" yaml:"workers"`

	// Preview settings
	PreviewSize   int     `json:"preview_size" yaml:"preview_size"`
	Supersample   int     `json:"supersample" yaml:"supersample"`
	PreviewYaw    float64 `json:"preview_yaw" yaml:"preview_yaw"`
	PreviewFormat string  `json:"preview_format" yaml:"preview_format"`
}

// Load reads a JSON or YAML config file, chosen by extension.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Resolve fills in any empty fields with defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	// Config output dir is relative to the config input dir
	if c.OutputDir != "" && c.InputDir != "" && !filepath.IsAbs(c.OutputDir) {
		c.OutputDir = filepath.Join(c.InputDir, c.OutputDir)
	}

	// CLI flags override config file
	if flags.InputDir != "" {
		c.InputDir = flags.InputDir
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Scale != 0 {
		c.Scale = flags.Scale
	}
	if flags.Precision > 0 {
		c.Precision = flags.Precision
	}
	if flags.Encoding != "" {
		c.Encoding = flags.Encoding
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.PreviewSize > 0 {
		c.PreviewSize = flags.PreviewSize
	}
	if flags.PreviewFormat != "" {
		c.PreviewFormat = flags.PreviewFormat
	}
	if flags.NoEndSites {
		c.EndSites = boolPtr(false)
	}

	// Defaults for conversion settings
	if c.Scale == 0 {
		c.Scale = 1
	}
	if c.Precision <= 0 {
		c.Precision = 5
	}
	if c.EndSites == nil {
		c.EndSites = boolPtr(true)
	}
	if c.Rotations == nil {
		c.Rotations = boolPtr(true)
	}
	if c.Positions == nil {
		c.Positions = boolPtr(true)
	}
	if c.Hierarchy == nil {
		c.Hierarchy = boolPtr(true)
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}

	// Defaults for preview settings
	if c.PreviewSize <= 0 {
		c.PreviewSize = 512
	}
	if c.Supersample <= 0 {
		c.Supersample = 2
	}
	if c.PreviewFormat == "" {
		c.PreviewFormat = "webp"
	}
}

// Inputs returns the paths to convert: args when given, else InputDir.
func (c Config) Inputs(args []string) []string {
	if len(args) > 0 {
		return args
	}
	if c.InputDir != "" {
		return []string{c.InputDir}
	}
	return nil
}

// ConvertOptions returns the job options of a resolved config.
func (c Config) ConvertOptions() convert.Options {
	return convert.Options{
		Scale:     c.Scale,
		Precision: c.Precision,
		EndSites:  isSet(c.EndSites),
		Rotations: isSet(c.Rotations),
		Positions: isSet(c.Positions),
		Hierarchy: isSet(c.Hierarchy),
		Encoding:  c.Encoding,
	}
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	InputDir      string
	OutputDir     string
	Scale         float64
	Precision     int
	Encoding      string
	Workers       int
	PreviewSize   int
	PreviewFormat string
	NoEndSites    bool
}

func boolPtr(b bool) *bool { return &b }

func isSet(b *bool) bool { return b != nil && *b }

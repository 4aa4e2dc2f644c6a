package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"

	"github.com/AmazingWilson-hub/road-lane/internal/fsutil"
	"github.com/AmazingWilson-hub/road-lane/internal/monitoring"
	"github.com/AmazingWilson-hub/road-lane/internal/projection"
)

// DefaultConfigPath is the path to the canonical camera and pipeline defaults.
const DefaultConfigPath = "config/lane.defaults.json"

// Built-in fallbacks, used for any field a config file leaves out. These
// are the front camera and lane sensor mounting of the recording rig.
var (
	defaultIntrinsic = [][]float64{
		{1418.667, 0.0, 640.0},
		{0.0, 1418.667, 360.0},
		{0.0, 0.0, 1.0},
	}
	defaultExtrinsic = [][]float64{
		{0.019606, 0.999807, 0.000834, 0.070000},
		{-0.084922, 0.000834, 0.996387, 1.340000},
		{0.996195, -0.019606, 0.084922, -1.150000},
		{0, 0, 0, 1},
	}
)

const (
	defaultLineWidth = 3.0
	defaultWorkers   = 4
)

// Config is the camera and pipeline configuration shared by the batch,
// tuning and single-frame tools. Every field is optional.
type Config struct {
	// Intrinsic is the 3x3 pinhole matrix K, row by row.
	Intrinsic [][]float64 `json:"intrinsic,omitempty"`
	// Extrinsic is the 4x4 body → camera transform, row by row.
	Extrinsic [][]float64 `json:"extrinsic,omitempty"`
	// ExtrinsicPath points at a matrix dump written by the tuning tool and
	// takes precedence over Extrinsic. Relative paths resolve against the
	// config file's directory.
	ExtrinsicPath *string `json:"extrinsic_path,omitempty"`

	SamplesPerLane *int     `json:"samples_per_lane,omitempty"`
	PixelRounding  *string  `json:"pixel_rounding,omitempty"` // "nearest" or "truncate"
	LineWidth      *float64 `json:"line_width,omitempty"`     // pixels
	Workers        *int     `json:"workers,omitempty"`        // batch frame workers

	baseDir string
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyConfig returns a Config with all fields unset, so every Get* falls
// back to its built-in default.
func EmptyConfig() *Config {
	return &Config{}
}

// LoadConfig loads a Config from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadConfig(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, err
	}
	cfg.baseDir = filepath.Dir(cleanPath)
	return cfg, nil
}

// ParseConfig decodes and validates a JSON config. Unknown fields are
// rejected so typos do not silently fall back to defaults.
func ParseConfig(data []byte) (*Config, error) {
	cfg := EmptyConfig()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *Config {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks every set field. Matrix shape problems wrap
// projection.ErrInvalidConfig.
func (c *Config) Validate() error {
	if c.Intrinsic != nil {
		if _, err := c.GetIntrinsic(); err != nil {
			return err
		}
	}
	if c.Extrinsic != nil {
		if _, err := transformFromRows(c.Extrinsic); err != nil {
			return err
		}
	}
	if c.ExtrinsicPath != nil && *c.ExtrinsicPath == "" {
		return fmt.Errorf("extrinsic_path must not be empty when set")
	}
	if c.SamplesPerLane != nil && *c.SamplesPerLane < 1 {
		return fmt.Errorf("samples_per_lane must be positive, got %d", *c.SamplesPerLane)
	}
	if c.PixelRounding != nil {
		if _, err := projection.ParseRounding(*c.PixelRounding); err != nil {
			return err
		}
	}
	if c.LineWidth != nil && *c.LineWidth <= 0 {
		return fmt.Errorf("line_width must be positive, got %f", *c.LineWidth)
	}
	if c.Workers != nil && *c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", *c.Workers)
	}
	return nil
}

// GetIntrinsic returns the configured camera matrix or the default.
func (c *Config) GetIntrinsic() (projection.Intrinsic, error) {
	rows := c.Intrinsic
	if rows == nil {
		rows = defaultIntrinsic
	}
	m, err := denseFromRows("intrinsic", rows)
	if err != nil {
		return projection.Intrinsic{}, err
	}
	return projection.IntrinsicFromDense(m)
}

// GetExtrinsic returns the extrinsic from ExtrinsicPath, else Extrinsic,
// else the default.
func (c *Config) GetExtrinsic(fsys fsutil.FileSystem) (projection.Transform, error) {
	if c.ExtrinsicPath != nil {
		path := *c.ExtrinsicPath
		if !filepath.IsAbs(path) && c.baseDir != "" {
			path = filepath.Join(c.baseDir, path)
		}
		return LoadExtrinsic(fsys, path)
	}
	rows := c.Extrinsic
	if rows == nil {
		rows = defaultExtrinsic
	}
	return transformFromRows(rows)
}

// SetExtrinsicPath overrides the extrinsic source, typically from a flag.
// The path is used as given.
func (c *Config) SetExtrinsicPath(path string) {
	c.ExtrinsicPath = ptrString(path)
	c.baseDir = ""
}

// GetSamplesPerLane returns the samples_per_lane value or the default.
func (c *Config) GetSamplesPerLane() int {
	if c.SamplesPerLane == nil {
		return projection.DefaultSamples
	}
	return *c.SamplesPerLane
}

// GetPixelRounding returns the pixel_rounding value or the default.
func (c *Config) GetPixelRounding() projection.Rounding {
	if c.PixelRounding == nil {
		return projection.RoundNearest
	}
	r, err := projection.ParseRounding(*c.PixelRounding)
	if err != nil {
		return projection.RoundNearest // default on parse error
	}
	return r
}

// GetLineWidth returns the line_width value or the default.
func (c *Config) GetLineWidth() float64 {
	if c.LineWidth == nil {
		return defaultLineWidth
	}
	return *c.LineWidth
}

// GetWorkers returns the workers value or the default.
func (c *Config) GetWorkers() int {
	if c.Workers == nil {
		return defaultWorkers
	}
	return *c.Workers
}

// Engine builds the projection engine. It fails on any malformed matrix,
// so callers get the error before the first frame. A non-rigid extrinsic
// is only logged.
func (c *Config) Engine(fsys fsutil.FileSystem) (*projection.Engine, error) {
	k, err := c.GetIntrinsic()
	if err != nil {
		return nil, err
	}
	t, err := c.GetExtrinsic(fsys)
	if err != nil {
		return nil, err
	}
	if !t.IsRigid() {
		monitoring.Warnf("extrinsic rotation is not orthonormal (tolerance %.2f); projecting anyway", projection.RigidTolerance)
	}
	return projection.NewEngine(t, k,
		projection.WithSamples(c.GetSamplesPerLane()),
		projection.WithRounding(c.GetPixelRounding()),
	)
}

// LoadExtrinsic reads a 4x4 matrix dump.
func LoadExtrinsic(fsys fsutil.FileSystem, path string) (projection.Transform, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return projection.Transform{}, fmt.Errorf("%w: failed to open extrinsic %s: %v", projection.ErrInvalidConfig, path, err)
	}
	defer f.Close()

	t, err := projection.ReadTransform(f)
	if err != nil {
		return projection.Transform{}, fmt.Errorf("extrinsic %s: %w", path, err)
	}
	return t, nil
}

func transformFromRows(rows [][]float64) (projection.Transform, error) {
	m, err := denseFromRows("extrinsic", rows)
	if err != nil {
		return projection.Transform{}, err
	}
	return projection.TransformFromDense(m)
}

func denseFromRows(name string, rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: %s matrix is empty", projection.ErrInvalidConfig, name)
	}
	cols := len(rows[0])
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: %s row %d has %d values, expected %d", projection.ErrInvalidConfig, name, i, len(row), cols)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), cols, data), nil
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig holds the detection and service parameters. Every field is
// optional; the Get* methods fall back to built-in defaults, so partial
// files are safe. The same schema is accepted as JSON or YAML.
type TuningConfig struct {
	// Slab detection
	SlabZStep          *float64 `json:"slab_z_step,omitempty" yaml:"slab_z_step,omitempty"`
	SlabThresholdRatio *float64 `json:"slab_threshold_ratio,omitempty" yaml:"slab_threshold_ratio,omitempty"`
	SlabMergeGap       *float64 `json:"slab_merge_gap,omitempty" yaml:"slab_merge_gap,omitempty"`

	// Wall detection
	WallGridSize       *float64 `json:"wall_grid_size,omitempty" yaml:"wall_grid_size,omitempty"`
	WallBandFraction   *float64 `json:"wall_band_fraction,omitempty" yaml:"wall_band_fraction,omitempty"`
	WallThresholdRatio *float64 `json:"wall_threshold_ratio,omitempty" yaml:"wall_threshold_ratio,omitempty"`
	WallMinCells       *int     `json:"wall_min_cells,omitempty" yaml:"wall_min_cells,omitempty"`

	// Column detection
	ColumnGridSize       *float64 `json:"column_grid_size,omitempty" yaml:"column_grid_size,omitempty"`
	ColumnMaxBins        *int     `json:"column_max_bins,omitempty" yaml:"column_max_bins,omitempty"`
	ColumnMinHeight      *float64 `json:"column_min_height,omitempty" yaml:"column_min_height,omitempty"`
	ColumnThresholdRatio *float64 `json:"column_threshold_ratio,omitempty" yaml:"column_threshold_ratio,omitempty"`

	// Scan cleaning
	OutlierNeighbours *int     `json:"outlier_neighbours,omitempty" yaml:"outlier_neighbours,omitempty"`
	OutlierStdRatio   *float64 `json:"outlier_std_ratio,omitempty" yaml:"outlier_std_ratio,omitempty"`
	VoxelSize         *float64 `json:"voxel_size,omitempty" yaml:"voxel_size,omitempty"`

	// Model assembly
	AssignStoreys   *bool    `json:"assign_storeys,omitempty" yaml:"assign_storeys,omitempty"`
	StoreyTolerance *float64 `json:"storey_tolerance,omitempty" yaml:"storey_tolerance,omitempty"`

	// Export
	MeshCells *int `json:"mesh_cells,omitempty" yaml:"mesh_cells,omitempty"`

	// Service
	Workers     *int    `json:"workers,omitempty" yaml:"workers,omitempty"`
	JobTimeout  *string `json:"job_timeout,omitempty" yaml:"job_timeout,omitempty"` // duration string like "10m"
	MaxUploadMB *int    `json:"max_upload_mb,omitempty" yaml:"max_upload_mb,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields nil, so every
// getter returns its default.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

const maxConfigFileSize = 1 * 1024 * 1024 // 1MB

// LoadTuningConfig loads a TuningConfig from a .json, .yaml or .yml file
// of at most 1MB and validates it.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := filepath.Ext(cleanPath)
	var decode func([]byte, any) error
	switch ext {
	case ".json":
		decode = json.Unmarshal
	case ".yaml", ".yml":
		decode = yaml.Unmarshal
	default:
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxConfigFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := decode(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", ext, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching from the current
// directory up through parent directories. Panics if the file cannot be
// loaded; intended for tests and the CLI.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,          // from internal/config/
		"../../../" + DefaultConfigPath,       // from internal/bim/detect/
		"../../../../" + DefaultConfigPath,    // from internal/bim/export/ifc/
		"../../../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run from repository root")
}

func ratio(name string, v *float64) error {
	if v != nil && (*v < 0 || *v > 1) {
		return fmt.Errorf("%s must be between 0 and 1, got %f", name, *v)
	}
	return nil
}

func positive(name string, v *float64) error {
	if v != nil && !(*v > 0) {
		return fmt.Errorf("%s must be positive, got %f", name, *v)
	}
	return nil
}

func nonNegative(name string, v *float64) error {
	if v != nil && !(*v >= 0) {
		return fmt.Errorf("%s must be non-negative, got %f", name, *v)
	}
	return nil
}

// Validate checks that every set value is usable.
func (c *TuningConfig) Validate() error {
	checks := []error{
		positive("slab_z_step", c.SlabZStep),
		ratio("slab_threshold_ratio", c.SlabThresholdRatio),
		nonNegative("slab_merge_gap", c.SlabMergeGap),
		positive("wall_grid_size", c.WallGridSize),
		ratio("wall_band_fraction", c.WallBandFraction),
		ratio("wall_threshold_ratio", c.WallThresholdRatio),
		positive("column_grid_size", c.ColumnGridSize),
		nonNegative("column_min_height", c.ColumnMinHeight),
		ratio("column_threshold_ratio", c.ColumnThresholdRatio),
		nonNegative("outlier_std_ratio", c.OutlierStdRatio),
		nonNegative("voxel_size", c.VoxelSize),
		nonNegative("storey_tolerance", c.StoreyTolerance),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}

	if c.WallBandFraction != nil && *c.WallBandFraction >= 1 {
		return fmt.Errorf("wall_band_fraction must be below 1, got %f", *c.WallBandFraction)
	}
	if c.WallMinCells != nil && *c.WallMinCells < 0 {
		return fmt.Errorf("wall_min_cells must be non-negative, got %d", *c.WallMinCells)
	}
	if c.ColumnMaxBins != nil && *c.ColumnMaxBins < 3 {
		return fmt.Errorf("column_max_bins must be at least 3, got %d", *c.ColumnMaxBins)
	}
	if c.OutlierNeighbours != nil && *c.OutlierNeighbours < 0 {
		return fmt.Errorf("outlier_neighbours must be non-negative, got %d", *c.OutlierNeighbours)
	}
	if c.MeshCells != nil && (*c.MeshCells < 8 || *c.MeshCells > 1024) {
		return fmt.Errorf("mesh_cells must be between 8 and 1024, got %d", *c.MeshCells)
	}
	if c.Workers != nil && *c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", *c.Workers)
	}
	if c.MaxUploadMB != nil && *c.MaxUploadMB < 1 {
		return fmt.Errorf("max_upload_mb must be at least 1, got %d", *c.MaxUploadMB)
	}
	if c.JobTimeout != nil && *c.JobTimeout != "" {
		if _, err := time.ParseDuration(*c.JobTimeout); err != nil {
			return fmt.Errorf("invalid job_timeout '%s': %w", *c.JobTimeout, err)
		}
	}
	return nil
}

func orFloat(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func orInt(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

// GetSlabZStep returns slab_z_step or the default 0.05.
func (c *TuningConfig) GetSlabZStep() float64 { return orFloat(c.SlabZStep, 0.05) }

// GetSlabThresholdRatio returns slab_threshold_ratio or the default 0.3.
func (c *TuningConfig) GetSlabThresholdRatio() float64 { return orFloat(c.SlabThresholdRatio, 0.3) }

// GetSlabMergeGap returns slab_merge_gap or the default 0.3.
func (c *TuningConfig) GetSlabMergeGap() float64 { return orFloat(c.SlabMergeGap, 0.3) }

// GetWallGridSize returns wall_grid_size or the default 0.1.
func (c *TuningConfig) GetWallGridSize() float64 { return orFloat(c.WallGridSize, 0.1) }

// GetWallBandFraction returns wall_band_fraction or the default 0.5.
func (c *TuningConfig) GetWallBandFraction() float64 { return orFloat(c.WallBandFraction, 0.5) }

// GetWallThresholdRatio returns wall_threshold_ratio or the default 0.2.
func (c *TuningConfig) GetWallThresholdRatio() float64 { return orFloat(c.WallThresholdRatio, 0.2) }

// GetWallMinCells returns wall_min_cells or the default 5.
func (c *TuningConfig) GetWallMinCells() int { return orInt(c.WallMinCells, 5) }

// GetColumnGridSize returns column_grid_size or the default 0.5.
func (c *TuningConfig) GetColumnGridSize() float64 { return orFloat(c.ColumnGridSize, 0.5) }

// GetColumnMaxBins returns column_max_bins or the default 200.
func (c *TuningConfig) GetColumnMaxBins() int { return orInt(c.ColumnMaxBins, 200) }

// GetColumnMinHeight returns column_min_height or the default 2.0.
func (c *TuningConfig) GetColumnMinHeight() float64 { return orFloat(c.ColumnMinHeight, 2.0) }

// GetColumnThresholdRatio returns column_threshold_ratio or the default 0.6.
func (c *TuningConfig) GetColumnThresholdRatio() float64 {
	return orFloat(c.ColumnThresholdRatio, 0.6)
}

// GetOutlierNeighbours returns outlier_neighbours or the default 20.
func (c *TuningConfig) GetOutlierNeighbours() int { return orInt(c.OutlierNeighbours, 20) }

// GetOutlierStdRatio returns outlier_std_ratio or the default 2.0.
func (c *TuningConfig) GetOutlierStdRatio() float64 { return orFloat(c.OutlierStdRatio, 2.0) }

// GetVoxelSize returns voxel_size or the default 0.05.
func (c *TuningConfig) GetVoxelSize() float64 { return orFloat(c.VoxelSize, 0.05) }

// GetAssignStoreys returns assign_storeys or the default false.
func (c *TuningConfig) GetAssignStoreys() bool {
	if c.AssignStoreys == nil {
		return false
	}
	return *c.AssignStoreys
}

// GetStoreyTolerance returns storey_tolerance or the default 0.3.
func (c *TuningConfig) GetStoreyTolerance() float64 { return orFloat(c.StoreyTolerance, 0.3) }

// GetMeshCells returns mesh_cells or the default 96.
func (c *TuningConfig) GetMeshCells() int { return orInt(c.MeshCells, 96) }

// GetWorkers returns workers or the default 2.
func (c *TuningConfig) GetWorkers() int { return orInt(c.Workers, 2) }

// GetMaxUploadBytes returns max_upload_mb in bytes, default 512MB.
func (c *TuningConfig) GetMaxUploadBytes() int64 { return int64(orInt(c.MaxUploadMB, 512)) << 20 }

// GetJobTimeout parses job_timeout, defaulting to 10 minutes.
func (c *TuningConfig) GetJobTimeout() time.Duration {
	if c.JobTimeout == nil || *c.JobTimeout == "" {
		return 10 * time.Minute
	}
	d, err := time.ParseDuration(*c.JobTimeout)
	if err != nil {
		return 10 * time.Minute
	}
	return d
}

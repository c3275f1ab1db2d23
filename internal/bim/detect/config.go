package detect

import (
	"fmt"

	"github.com/banshee-data/scan2bim/internal/bim/elements"
	"github.com/banshee-data/scan2bim/internal/config"
)

// Config holds the thresholds used by the three detectors. The zero value
// is not usable; start from DefaultConfig or ConfigFromTuning.
type Config struct {
	// Slabs
	SlabZStep          float64 // histogram bin width (default: 0.05)
	SlabThresholdRatio float64 // fraction of the peak bin a candidate must exceed (default: 0.3)
	SlabMergeGap       float64 // candidates closer than this merge (default: 0.3)
	SlabThickness      float64 // (default: 0.3)

	// Walls
	WallGridSize       float64 // XY cell size (default: 0.1)
	WallBandFraction   float64 // keep points above zmin + f*range (default: 0.5)
	WallThresholdRatio float64 // fraction of the busiest cell (default: 0.2)
	WallMinCells       int     // a grid line needs more than this many occupied cells (default: 5)
	WallThickness      float64 // (default: 0.2)
	WallMinLength      float64 // (default: 0.1)

	// Columns
	ColumnGridSize       float64 // XY cell size (default: 0.5)
	ColumnMaxBins        int     // per-axis cap on grid cells (default: 200)
	ColumnMinHeight      float64 // minimum z range before columns are searched (default: 2.0)
	ColumnThresholdRatio float64 // fraction of the busiest cell (default: 0.6)
	ColumnWidth          float64 // (default: 0.4)
	ColumnDepth          float64 // (default: 0.4)
	ColumnCapTrigger     int     // more candidates than this triggers the cap (default: 50)
	ColumnCapKeep        int     // candidates kept once capped (default: 20)
}

// DefaultConfig returns the stock detector thresholds.
func DefaultConfig() *Config {
	return &Config{
		SlabZStep:          0.05,
		SlabThresholdRatio: 0.3,
		SlabMergeGap:       0.3,
		SlabThickness:      elements.SlabThickness,

		WallGridSize:       0.1,
		WallBandFraction:   0.5,
		WallThresholdRatio: 0.2,
		WallMinCells:       5,
		WallThickness:      elements.WallThickness,
		WallMinLength:      elements.MinWallLength,

		ColumnGridSize:       0.5,
		ColumnMaxBins:        200,
		ColumnMinHeight:      2.0,
		ColumnThresholdRatio: 0.6,
		ColumnWidth:          elements.ColumnWidth,
		ColumnDepth:          elements.ColumnDepth,
		ColumnCapTrigger:     50,
		ColumnCapKeep:        20,
	}
}

// ConfigFromTuning overlays the tunable fields of cfg on DefaultConfig.
// Element dimensions are not tunable.
func ConfigFromTuning(cfg *config.TuningConfig) *Config {
	c := DefaultConfig()
	c.SlabZStep = cfg.GetSlabZStep()
	c.SlabThresholdRatio = cfg.GetSlabThresholdRatio()
	c.SlabMergeGap = cfg.GetSlabMergeGap()
	c.WallGridSize = cfg.GetWallGridSize()
	c.WallBandFraction = cfg.GetWallBandFraction()
	c.WallThresholdRatio = cfg.GetWallThresholdRatio()
	c.WallMinCells = cfg.GetWallMinCells()
	c.ColumnGridSize = cfg.GetColumnGridSize()
	c.ColumnMaxBins = cfg.GetColumnMaxBins()
	c.ColumnMinHeight = cfg.GetColumnMinHeight()
	c.ColumnThresholdRatio = cfg.GetColumnThresholdRatio()
	return c
}

// Validate checks that every threshold is usable.
func (c *Config) Validate() error {
	if !(c.SlabZStep > 0) {
		return fmt.Errorf("SlabZStep must be positive, got %f", c.SlabZStep)
	}
	if c.SlabThresholdRatio < 0 || c.SlabThresholdRatio > 1 {
		return fmt.Errorf("SlabThresholdRatio must be between 0 and 1, got %f", c.SlabThresholdRatio)
	}
	if c.SlabMergeGap < 0 {
		return fmt.Errorf("SlabMergeGap must be non-negative, got %f", c.SlabMergeGap)
	}
	if !(c.WallGridSize > 0) {
		return fmt.Errorf("WallGridSize must be positive, got %f", c.WallGridSize)
	}
	if c.WallBandFraction < 0 || c.WallBandFraction >= 1 {
		return fmt.Errorf("WallBandFraction must be in [0,1), got %f", c.WallBandFraction)
	}
	if c.WallThresholdRatio < 0 || c.WallThresholdRatio > 1 {
		return fmt.Errorf("WallThresholdRatio must be between 0 and 1, got %f", c.WallThresholdRatio)
	}
	if c.WallMinCells < 0 {
		return fmt.Errorf("WallMinCells must be non-negative, got %d", c.WallMinCells)
	}
	if !(c.ColumnGridSize > 0) {
		return fmt.Errorf("ColumnGridSize must be positive, got %f", c.ColumnGridSize)
	}
	if c.ColumnMaxBins < 3 {
		return fmt.Errorf("ColumnMaxBins must be at least 3, got %d", c.ColumnMaxBins)
	}
	if c.ColumnThresholdRatio < 0 || c.ColumnThresholdRatio > 1 {
		return fmt.Errorf("ColumnThresholdRatio must be between 0 and 1, got %f", c.ColumnThresholdRatio)
	}
	if c.ColumnCapKeep > c.ColumnCapTrigger {
		return fmt.Errorf("ColumnCapKeep (%d) must not exceed ColumnCapTrigger (%d)", c.ColumnCapKeep, c.ColumnCapTrigger)
	}
	return nil
}

// WithSlabZStep sets the slab histogram bin width.
func (c *Config) WithSlabZStep(step float64) *Config {
	c.SlabZStep = step
	return c
}

// WithWallGridSize sets the wall occupancy cell size.
func (c *Config) WithWallGridSize(size float64) *Config {
	c.WallGridSize = size
	return c
}

// WithColumnGridSize sets the column occupancy cell size.
func (c *Config) WithColumnGridSize(size float64) *Config {
	c.ColumnGridSize = size
	return c
}

// WithWallMinCells sets how many occupied cells a grid line must exceed.
func (c *Config) WithWallMinCells(n int) *Config {
	c.WallMinCells = n
	return c
}

func orDefault(c *Config) *Config {
	if c == nil {
		return DefaultConfig()
	}
	return c
}

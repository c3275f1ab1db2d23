package detect

import (
	"github.com/banshee-data/scan2bim/internal/bim"
	"github.com/banshee-data/scan2bim/internal/bim/elements"
	"github.com/banshee-data/scan2bim/internal/bim/grid"
	"github.com/banshee-data/scan2bim/internal/bim/sample"
)

// DetectColumns finds free-standing columns as local density maxima of the
// full-height XY grid. Scans shorter than cfg.ColumnMinHeight are assumed
// to have none.
//
// When more than cfg.ColumnCapTrigger candidates are found only the first
// cfg.ColumnCapKeep (in scan order) are returned.
func DetectColumns(s *sample.PointSample, cfg *Config) []elements.Column {
	cfg = orDefault(cfg)
	zmin, zmax, ok := s.ZRange()
	if !ok {
		return nil
	}
	height := zmax - zmin
	if height < cfg.ColumnMinHeight {
		bim.Diagf("columns: z range %.2f below %.2f, skipping", height, cfg.ColumnMinHeight)
		return nil
	}

	g := grid.NewGrid2D(s.Points(), cfg.ColumnGridSize, cfg.ColumnMaxBins)
	if g == nil {
		return nil
	}
	threshold := cfg.ColumnThresholdRatio * g.Max()
	peaks := g.LocalMaxima(threshold)

	cols := make([]elements.Column, 0, len(peaks))
	for _, c := range peaks {
		x, y := g.Center(c)
		cols = append(cols, elements.Column{
			Position: bim.Vec3{x, y, zmin},
			Height:   height,
			Width:    cfg.ColumnWidth,
			Depth:    cfg.ColumnDepth,
		})
		bim.Tracef("column: cell %v count %.0f at (%.2f, %.2f)", c, g.Count(c), x, y)
	}

	if len(cols) > cfg.ColumnCapTrigger {
		bim.Opsf("columns: %d candidates exceed %d, keeping first %d", len(cols), cfg.ColumnCapTrigger, cfg.ColumnCapKeep)
		cols = cols[:cfg.ColumnCapKeep]
	}
	bim.Diagf("columns: %d detected (threshold %.1f)", len(cols), threshold)
	return cols
}

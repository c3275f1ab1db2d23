package detect

import (
	"math"

	"github.com/banshee-data/scan2bim/internal/bim"
	"github.com/banshee-data/scan2bim/internal/bim/elements"
	"github.com/banshee-data/scan2bim/internal/bim/grid"
	"github.com/banshee-data/scan2bim/internal/bim/sample"
)

// DetectWalls finds straight wall runs in the upper part of the scan.
//
// Points above zmin + cfg.WallBandFraction*range are binned into an XY
// grid. Every grid line (first each X index scanned along Y, then each Y
// index scanned along X) holding more than cfg.WallMinCells occupied cells
// yields one wall between its first and last occupied cell centres. Gaps
// along the line are ignored and overlapping runs at corners are kept.
func DetectWalls(s *sample.PointSample, cfg *Config) []elements.Wall {
	cfg = orDefault(cfg)
	zmin, zmax, ok := s.ZRange()
	if !ok {
		return nil
	}
	band := sample.UpperFraction(zmin, zmax, cfg.WallBandFraction)
	pts := band.Filter(s)
	if len(pts) == 0 {
		return nil
	}
	processed, kept, _, _ := band.Stats()
	bim.Diagf("walls: %d of %d points above z=%.3f", kept, processed, band.Floor)

	bandMin, bandMax := math.Inf(1), math.Inf(-1)
	for _, p := range pts {
		bandMin = math.Min(bandMin, p[2])
		bandMax = math.Max(bandMax, p[2])
	}
	height := bandMax - bandMin

	g := grid.NewGrid2D(pts, cfg.WallGridSize, 0)
	if g == nil {
		return nil
	}
	threshold := cfg.WallThresholdRatio * g.Max()
	nx, ny := g.Dims()

	var walls []elements.Wall
	emit := func(first, last grid.Cell, occupied int) {
		x0, y0 := g.Center(first)
		x1, y1 := g.Center(last)
		w := elements.Wall{
			Start:     bim.Vec3{x0, y0, bandMin},
			End:       bim.Vec3{x1, y1, bandMin},
			Height:    height,
			Thickness: cfg.WallThickness,
		}
		if w.Length() < cfg.WallMinLength {
			bim.Tracef("wall: dropped %v..%v, length %.3f", w.Start, w.End, w.Length())
			return
		}
		bim.Tracef("wall: %v..%v from %d cells", w.Start, w.End, occupied)
		walls = append(walls, w)
	}

	// Fixed X index, scan along Y.
	for ix := 0; ix < nx; ix++ {
		scanLine(ny, func(i int) grid.Cell { return grid.Cell{IX: ix, IY: i} }, g, threshold, cfg.WallMinCells, emit)
	}
	// Fixed Y index, scan along X.
	for iy := 0; iy < ny; iy++ {
		scanLine(nx, func(i int) grid.Cell { return grid.Cell{IX: i, IY: iy} }, g, threshold, cfg.WallMinCells, emit)
	}

	bim.Diagf("walls: %d segments from %dx%d grid (threshold %.1f)", len(walls), nx, ny, threshold)
	return walls
}

// scanLine walks n cells produced by at and reports the first and last
// occupied cell when more than minCells are occupied.
func scanLine(n int, at func(int) grid.Cell, g *grid.Grid2D, threshold float64, minCells int, emit func(first, last grid.Cell, occupied int)) {
	var first, last grid.Cell
	occupied := 0
	for i := 0; i < n; i++ {
		c := at(i)
		if !g.Occupied(c, threshold) {
			continue
		}
		if occupied == 0 {
			first = c
		}
		last = c
		occupied++
	}
	if occupied > minCells {
		emit(first, last, occupied)
	}
}

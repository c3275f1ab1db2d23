package grid

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/scan2bim/internal/bim"
)

// Cell addresses one Grid2D cell. IX indexes the X axis, IY the Y axis.
type Cell struct {
	IX, IY int
}

// Grid2D is an XY occupancy histogram. Counts holds one row per X index
// and one column per Y index.
type Grid2D struct {
	MinX, MinY   float64
	CellX, CellY float64
	Counts       *mat.Dense
}

// NewGrid2D bins the XY projection of pts into cells of the given size
// anchored at the minimum corner of the points. When maxBins > 0 an axis
// that would need more bins is capped at maxBins and its cell widened to
// cover the full extent. It returns nil when pts is empty or cell is not
// positive.
func NewGrid2D(pts []bim.Vec3, cell float64, maxBins int) *Grid2D {
	if len(pts) == 0 || !(cell > 0) {
		return nil
	}
	minX, maxX := pts[0][0], pts[0][0]
	minY, maxY := pts[0][1], pts[0][1]
	for _, p := range pts[1:] {
		minX, maxX = math.Min(minX, p[0]), math.Max(maxX, p[0])
		minY, maxY = math.Min(minY, p[1]), math.Max(maxY, p[1])
	}

	nx, cellX := binsFor(maxX-minX, cell, maxBins)
	ny, cellY := binsFor(maxY-minY, cell, maxBins)

	g := &Grid2D{
		MinX:   minX,
		MinY:   minY,
		CellX:  cellX,
		CellY:  cellY,
		Counts: mat.NewDense(nx, ny, nil),
	}
	for _, p := range pts {
		ix := clampIndex(int(math.Floor((p[0]-minX)/cellX)), nx)
		iy := clampIndex(int(math.Floor((p[1]-minY)/cellY)), ny)
		g.Counts.Set(ix, iy, g.Counts.At(ix, iy)+1)
	}
	return g
}

func binsFor(extent, cell float64, maxBins int) (int, float64) {
	n := int(math.Ceil(extent / cell))
	if n < 1 {
		n = 1
	}
	if maxBins > 0 && n > maxBins {
		return maxBins, extent / float64(maxBins)
	}
	return n, cell
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// Dims returns the number of cells along X and Y.
func (g *Grid2D) Dims() (nx, ny int) { return g.Counts.Dims() }

// Count returns the number of points in cell c.
func (g *Grid2D) Count(c Cell) float64 { return g.Counts.At(c.IX, c.IY) }

// Max returns the largest cell count.
func (g *Grid2D) Max() float64 { return mat.Max(g.Counts) }

// Center returns the XY centre of cell c.
func (g *Grid2D) Center(c Cell) (x, y float64) {
	return g.MinX + (float64(c.IX)+0.5)*g.CellX, g.MinY + (float64(c.IY)+0.5)*g.CellY
}

// Occupied reports whether cell c holds strictly more than threshold points.
func (g *Grid2D) Occupied(c Cell, threshold float64) bool {
	return g.Count(c) > threshold
}

// LocalMaxima returns interior cells whose count exceeds threshold and is
// at least as large as each of their eight neighbours. Border cells are
// never reported. Results are in scan order: X index outer, Y index inner.
func (g *Grid2D) LocalMaxima(threshold float64) []Cell {
	nx, ny := g.Dims()
	var out []Cell
	for ix := 1; ix < nx-1; ix++ {
		for iy := 1; iy < ny-1; iy++ {
			v := g.Counts.At(ix, iy)
			if v <= threshold {
				continue
			}
			if v == g.neighbourhoodMax(ix, iy) {
				out = append(out, Cell{IX: ix, IY: iy})
			}
		}
	}
	return out
}

func (g *Grid2D) neighbourhoodMax(ix, iy int) float64 {
	m := math.Inf(-1)
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			m = math.Max(m, g.Counts.At(ix+dx, iy+dy))
		}
	}
	return m
}

package testutil

import (
	"math/rand"

	"github.com/banshee-data/scan2bim/internal/bim"
)

// BoxRoomScene describes a synthetic rectangular room.
type BoxRoomScene struct {
	Width, Depth, Height float64

	FloorSpacing float64 // floor/ceiling plane point pitch
	WallSpacing  float64 // horizontal pitch along each wall
	WallLevels   float64 // vertical pitch of wall rings
	FillPoints   int     // uniformly scattered interior points
	Seed         int64
}

// DefaultBoxRoom is a 10 x 8 x 3 m room with dense floor, ceiling and
// walls plus 1000 uniformly scattered points.
func DefaultBoxRoom() BoxRoomScene {
	return BoxRoomScene{
		Width: 10, Depth: 8, Height: 3,
		FloorSpacing: 0.25,
		WallSpacing:  0.1,
		WallLevels:   0.1,
		FillPoints:   1000,
		Seed:         1,
	}
}

// Points generates the scene deterministically.
func (s BoxRoomScene) Points() []bim.Vec3 {
	var pts []bim.Vec3

	// Floor and ceiling planes.
	for _, z := range []float64{0, s.Height} {
		for x := 0; float64(x)*s.FloorSpacing <= s.Width; x++ {
			for y := 0; float64(y)*s.FloorSpacing <= s.Depth; y++ {
				pts = append(pts, bim.Vec3{float64(x) * s.FloorSpacing, float64(y) * s.FloorSpacing, z})
			}
		}
	}

	// Wall rings: points sit mid-pitch along each wall so they fall
	// cleanly inside grid cells.
	nx := int(s.Width/s.WallSpacing + 0.5)
	ny := int(s.Depth/s.WallSpacing + 0.5)
	nz := int(s.Height/s.WallLevels + 0.5)
	for k := 0; k <= nz; k++ {
		z := float64(k) * s.WallLevels
		for i := 0; i < nx; i++ {
			x := (float64(i) + 0.5) * s.WallSpacing
			pts = append(pts, bim.Vec3{x, 0, z}, bim.Vec3{x, s.Depth, z})
		}
		for j := 0; j < ny; j++ {
			y := (float64(j) + 0.5) * s.WallSpacing
			pts = append(pts, bim.Vec3{0, y, z}, bim.Vec3{s.Width, y, z})
		}
	}

	rng := rand.New(rand.NewSource(s.Seed))
	for i := 0; i < s.FillPoints; i++ {
		pts = append(pts, bim.Vec3{
			rng.Float64() * s.Width,
			rng.Float64() * s.Depth,
			rng.Float64() * s.Height,
		})
	}
	return pts
}

// TwoPlanes returns n points on each of two horizontal planes at z0 and z1
// spread over a size x size square.
func TwoPlanes(z0, z1, size float64, n int) []bim.Vec3 {
	pts := make([]bim.Vec3, 0, 2*n)
	side := 1
	for side*side < n {
		side++
	}
	step := size / float64(side)
	for _, z := range []float64{z0, z1} {
		for i := 0; i < n; i++ {
			pts = append(pts, bim.Vec3{float64(i%side) * step, float64(i/side) * step, z})
		}
	}
	return pts
}

// ColumnPeaks returns a scene of rows x cols isolated dense spots spaced
// 1 m apart on a 0.5 m grid, spanning z in [0, height]. Every spot is a
// strict local maximum of a 0.5 m occupancy grid anchored at the origin.
func ColumnPeaks(rows, cols int, height float64) []bim.Vec3 {
	pts := []bim.Vec3{
		{0, 0, 0},
		{float64(cols) + 2, float64(rows) + 2, height},
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			x := 1.25 + float64(c)
			y := 1.25 + float64(r)
			for k := 0; k < 10; k++ {
				pts = append(pts, bim.Vec3{x, y, height * float64(k) / 9})
			}
		}
	}
	return pts
}

// WallLine returns a scene whose upper band holds a single grid line of
// n consecutive occupied 0.25 m cells along Y, plus one far anchor point
// and one low point that fixes the height range at [0, 1].
func WallLine(n int) []bim.Vec3 {
	pts := []bim.Vec3{
		{0.125, 0.125, 0},
		{4.125, 4.125, 1},
	}
	for k := 0; k < n; k++ {
		pts = append(pts, bim.Vec3{0.125, 0.125 + 0.25*float64(k), 1})
	}
	return pts
}

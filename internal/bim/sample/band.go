package sample

import "math"

// HeightBand keeps points whose Z lies in the half-open band (Floor, Ceiling].
// The wall detector uses it to discard the lower half of a room, where
// furniture and clutter would otherwise dominate the occupancy grid.
type HeightBand struct {
	Floor   float64
	Ceiling float64

	pointsProcessed    int64
	pointsInBand       int64
	pointsAtOrBelow    int64
	pointsAboveCeiling int64
}

// NewHeightBand returns a band over (floor, ceiling].
func NewHeightBand(floor, ceiling float64) *HeightBand {
	return &HeightBand{Floor: floor, Ceiling: ceiling}
}

// UpperFraction returns a band keeping points strictly above
// zmin + frac*(zmax-zmin), with no ceiling.
func UpperFraction(zmin, zmax, frac float64) *HeightBand {
	return NewHeightBand(zmin+frac*(zmax-zmin), math.Inf(1))
}

// Filter returns the points of s inside the band. The sample itself is
// not modified.
func (f *HeightBand) Filter(s *PointSample) []Point {
	if s == nil || s.Empty() {
		return nil
	}
	out := make([]Point, 0, s.Len()/2)
	for _, p := range s.points {
		f.pointsProcessed++
		switch {
		case p[2] <= f.Floor:
			f.pointsAtOrBelow++
		case p[2] > f.Ceiling:
			f.pointsAboveCeiling++
		default:
			f.pointsInBand++
			out = append(out, p)
		}
	}
	return out
}

// Stats returns the counters accumulated across Filter calls.
func (f *HeightBand) Stats() (processed, kept, below, above int64) {
	return f.pointsProcessed, f.pointsInBand, f.pointsAtOrBelow, f.pointsAboveCeiling
}

// ResetStats clears the counters.
func (f *HeightBand) ResetStats() {
	f.pointsProcessed, f.pointsInBand, f.pointsAtOrBelow, f.pointsAboveCeiling = 0, 0, 0, 0
}

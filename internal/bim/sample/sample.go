package sample

import (
	"fmt"
	"math"

	"github.com/banshee-data/scan2bim/internal/bim"
)

// Point is a single scan coordinate in metres.
type Point = bim.Vec3

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min bim.Vec3 `json:"min"`
	Max bim.Vec3 `json:"max"`
}

// Extent returns Max-Min per axis.
func (b Bounds) Extent() bim.Vec3 { return b.Max.Sub(b.Min) }

// Center returns the box midpoint.
func (b Bounds) Center() bim.Vec3 { return b.Min.Add(b.Max).Scale(0.5) }

// Contains reports whether p lies inside the closed box.
func (b Bounds) Contains(p Point) bool {
	for i := 0; i < 3; i++ {
		if p[i] < b.Min[i] || p[i] > b.Max[i] {
			return false
		}
	}
	return true
}

// BoundsOf returns the tight box around pts. The zero box is returned
// for an empty slice.
func BoundsOf(pts []Point) Bounds {
	if len(pts) == 0 {
		return Bounds{}
	}
	b := Bounds{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		for i := 0; i < 3; i++ {
			b.Min[i] = math.Min(b.Min[i], p[i])
			b.Max[i] = math.Max(b.Max[i], p[i])
		}
	}
	return b
}

// ValidationError reports an inconsistent point sample.
type ValidationError struct {
	Field   string // "points" or "bounds"
	Index   int    // offending point index, -1 when not point specific
	Message string
}

func (e *ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("invalid %s[%d]: %s", e.Field, e.Index, e.Message)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// PointSample is a read-only view of a cleaned point cloud.
type PointSample struct {
	points []Point
	bounds Bounds
}

// NewPointSample copies pts and computes their exact bounds.
func NewPointSample(pts []Point) (*PointSample, error) {
	if err := CheckFinite(pts); err != nil {
		return nil, err
	}
	cp := make([]Point, len(pts))
	copy(cp, pts)
	return &PointSample{points: cp, bounds: BoundsOf(cp)}, nil
}

// NewPointSampleWithBounds copies pts and adopts a caller supplied box,
// which must enclose every point.
func NewPointSampleWithBounds(pts []Point, b Bounds) (*PointSample, error) {
	if !b.Min.IsFinite() || !b.Max.IsFinite() {
		return nil, &ValidationError{Field: "bounds", Index: -1, Message: "non-finite corner"}
	}
	for i := 0; i < 3; i++ {
		if b.Min[i] > b.Max[i] {
			return nil, &ValidationError{Field: "bounds", Index: -1,
				Message: fmt.Sprintf("min %g exceeds max %g on axis %d", b.Min[i], b.Max[i], i)}
		}
	}
	if err := CheckFinite(pts); err != nil {
		return nil, err
	}
	for i, p := range pts {
		if !b.Contains(p) {
			return nil, &ValidationError{Field: "points", Index: i,
				Message: fmt.Sprintf("%v outside bounds %v..%v", p, b.Min, b.Max)}
		}
	}
	cp := make([]Point, len(pts))
	copy(cp, pts)
	return &PointSample{points: cp, bounds: b}, nil
}

// CheckFinite returns a ValidationError for the first point with a NaN or
// infinite coordinate.
func CheckFinite(pts []Point) error {
	for i, p := range pts {
		if !p.IsFinite() {
			return &ValidationError{Field: "points", Index: i, Message: "non-finite coordinate"}
		}
	}
	return nil
}

// Len returns the number of points.
func (s *PointSample) Len() int { return len(s.points) }

// Empty reports whether the sample has no points.
func (s *PointSample) Empty() bool { return len(s.points) == 0 }

// Bounds returns the enclosing box.
func (s *PointSample) Bounds() Bounds { return s.bounds }

// At returns the i-th point.
func (s *PointSample) At(i int) Point { return s.points[i] }

// Points returns a copy of the coordinates.
func (s *PointSample) Points() []Point {
	cp := make([]Point, len(s.points))
	copy(cp, s.points)
	return cp
}

// Each calls fn for every point in order.
func (s *PointSample) Each(fn func(i int, p Point)) {
	for i, p := range s.points {
		fn(i, p)
	}
}

// ZRange returns the observed min and max Z of the points, which may be
// tighter than the bounds. ok is false for an empty sample.
func (s *PointSample) ZRange() (zmin, zmax float64, ok bool) {
	if len(s.points) == 0 {
		return 0, 0, false
	}
	zmin, zmax = s.points[0][2], s.points[0][2]
	for _, p := range s.points[1:] {
		zmin = math.Min(zmin, p[2])
		zmax = math.Max(zmax, p[2])
	}
	return zmin, zmax, true
}

// Zs returns the Z coordinates in point order.
func (s *PointSample) Zs() []float64 {
	out := make([]float64, len(s.points))
	for i, p := range s.points {
		out[i] = p[2]
	}
	return out
}

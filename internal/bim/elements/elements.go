// Package elements defines the structural element variants produced by
// detection: slabs, walls and columns. Each variant carries only the
// fields relevant to its kind.
package elements

import (
	"fmt"
	"math"

	"github.com/banshee-data/scan2bim/internal/bim"
)

// Fixed element dimensions, in metres.
const (
	SlabThickness = 0.3
	WallThickness = 0.2
	ColumnWidth   = 0.4
	ColumnDepth   = 0.4

	// MinWallLength is the shortest wall kept by detection and synthesis.
	MinWallLength = 0.1
)

// Kind discriminates element variants.
type Kind int

const (
	KindSlab Kind = iota + 1
	KindWall
	KindColumn
)

func (k Kind) String() string {
	switch k {
	case KindSlab:
		return "slab"
	case KindWall:
		return "wall"
	case KindColumn:
		return "column"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText accepts the names produced by MarshalText.
func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "slab":
		*k = KindSlab
	case "wall":
		*k = KindWall
	case "column":
		*k = KindColumn
	default:
		return fmt.Errorf("unknown element kind %q", string(b))
	}
	return nil
}

// Element is implemented by Slab, Wall and Column.
type Element interface {
	Kind() Kind
	// Storey returns the storey index, 0 when unassigned.
	Storey() int
	// BaseZ returns the elevation the element stands on.
	BaseZ() float64
	Validate() error
}

func storeyOrDefault(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func intPtr(v int) *int { return &v }

// Slab is a horizontal floor or ceiling plate.
type Slab struct {
	Z           float64 `json:"z"`
	Thickness   float64 `json:"thickness"`
	Density     float64 `json:"density,omitempty"`
	StoreyIndex *int    `json:"storey,omitempty"`
}

// NewSlab returns a slab at elevation z with the standard thickness.
func NewSlab(z float64) Slab { return Slab{Z: z, Thickness: SlabThickness} }

func (Slab) Kind() Kind { return KindSlab }
func (s Slab) Storey() int { return storeyOrDefault(s.StoreyIndex) }
func (s Slab) BaseZ() float64 { return s.Z }
func (s Slab) WithStorey(i int) Slab {
	s.StoreyIndex = intPtr(i)
	return s
}

func (s Slab) Validate() error {
	if math.IsNaN(s.Z) || math.IsInf(s.Z, 0) {
		return fmt.Errorf("slab z must be finite, got %v", s.Z)
	}
	if !(s.Thickness > 0) {
		return fmt.Errorf("slab thickness must be positive, got %v", s.Thickness)
	}
	return nil
}

// Wall is a straight vertical wall running from Start to End.
type Wall struct {
	Start       bim.Vec3 `json:"start"`
	End         bim.Vec3 `json:"end"`
	Height      float64  `json:"height"`
	Thickness   float64  `json:"thickness"`
	StoreyIndex *int     `json:"storey,omitempty"`
}

// NewWall returns a wall with the standard thickness.
func NewWall(start, end bim.Vec3, height float64) Wall {
	return Wall{Start: start, End: end, Height: height, Thickness: WallThickness}
}

func (Wall) Kind() Kind { return KindWall }
func (w Wall) Storey() int { return storeyOrDefault(w.StoreyIndex) }
func (w Wall) BaseZ() float64 { return w.Start[2] }
func (w Wall) WithStorey(i int) Wall {
	w.StoreyIndex = intPtr(i)
	return w
}

// Length returns the planar distance between Start and End.
func (w Wall) Length() float64 { return w.Start.PlanarDistance(w.End) }

func (w Wall) Validate() error {
	if !w.Start.IsFinite() || !w.End.IsFinite() {
		return fmt.Errorf("wall endpoints must be finite")
	}
	if l := w.Length(); l < MinWallLength {
		return fmt.Errorf("wall length must be at least %g, got %g", MinWallLength, l)
	}
	if !(w.Height > 0) {
		return fmt.Errorf("wall height must be positive, got %v", w.Height)
	}
	if !(w.Thickness > 0) {
		return fmt.Errorf("wall thickness must be positive, got %v", w.Thickness)
	}
	return nil
}

// Column is a free-standing rectangular column centred on Position.
type Column struct {
	Position    bim.Vec3 `json:"position"`
	Height      float64  `json:"height"`
	Width       float64  `json:"width"`
	Depth       float64  `json:"depth"`
	StoreyIndex *int     `json:"storey,omitempty"`
}

// NewColumn returns a column with the standard footprint.
func NewColumn(pos bim.Vec3, height float64) Column {
	return Column{Position: pos, Height: height, Width: ColumnWidth, Depth: ColumnDepth}
}

func (Column) Kind() Kind { return KindColumn }
func (c Column) Storey() int { return storeyOrDefault(c.StoreyIndex) }
func (c Column) BaseZ() float64 { return c.Position[2] }
func (c Column) WithStorey(i int) Column {
	c.StoreyIndex = intPtr(i)
	return c
}

func (c Column) Validate() error {
	if !c.Position.IsFinite() {
		return fmt.Errorf("column position must be finite")
	}
	if !(c.Height > 0) || !(c.Width > 0) || !(c.Depth > 0) {
		return fmt.Errorf("column dimensions must be positive, got h=%v w=%v d=%v", c.Height, c.Width, c.Depth)
	}
	return nil
}

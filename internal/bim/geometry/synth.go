package geometry

import (
	"fmt"
	"math"

	"github.com/banshee-data/scan2bim/internal/bim"
	"github.com/banshee-data/scan2bim/internal/bim/elements"
	"github.com/banshee-data/scan2bim/internal/bim/sample"
)

func upright(loc bim.Vec3, ref bim.Vec3) Placement {
	return Placement{Location: loc, Axis: bim.UnitZ, RefDirection: ref}
}

func extrudeUp(depth float64) Extrusion {
	return Extrusion{Direction: bim.UnitZ, Depth: depth}
}

// SynthesizeSlab sizes a slab to the whole model footprint. Slabs carry no
// contour of their own, so the bounds of the scan stand in for it. It
// reports false when the footprint has no area.
func SynthesizeSlab(s elements.Slab, bounds sample.Bounds) (Solid, bool) {
	ext := bounds.Extent()
	if !(ext[0] > 0 && ext[1] > 0) {
		return Solid{}, false
	}
	c := bounds.Center()
	return Solid{
		Kind: elements.KindSlab,
		Name: fmt.Sprintf("Slab at Z=%.2f", s.Z),
		Profile: Profile{
			Kind:   ProfileRectangle,
			XDim:   ext[0],
			YDim:   ext[1],
			Offset: bim.Vec3{-ext[0] / 2, -ext[1] / 2, 0},
		},
		Extrusion: extrudeUp(s.Thickness),
		Placement: upright(bim.Vec3{c[0], c[1], s.Z}, bim.UnitX),
		Storey:    s.Storey(),
	}, true
}

// SynthesizeWall orients a length x thickness profile along the wall and
// centres it on the start-end line. It reports false for walls shorter
// than elements.MinWallLength.
func SynthesizeWall(w elements.Wall) (Solid, bool) {
	dx := w.End[0] - w.Start[0]
	dy := w.End[1] - w.Start[1]
	length := math.Hypot(dx, dy)
	if length < elements.MinWallLength {
		return Solid{}, false
	}
	angle := math.Atan2(dy, dx)
	return Solid{
		Kind: elements.KindWall,
		Name: "Wall",
		Profile: Profile{
			Kind:   ProfileRectangle,
			XDim:   length,
			YDim:   w.Thickness,
			Offset: bim.Vec3{0, -w.Thickness / 2, 0},
		},
		Extrusion: extrudeUp(w.Height),
		Placement: upright(w.Start, bim.Vec3{math.Cos(angle), math.Sin(angle), 0}),
		Storey:    w.Storey(),
	}, true
}

// SynthesizeColumn centres a width x depth profile on the column position.
func SynthesizeColumn(c elements.Column) Solid {
	return Solid{
		Kind: elements.KindColumn,
		Name: "Column",
		Profile: Profile{
			Kind:   ProfileRectangle,
			XDim:   c.Width,
			YDim:   c.Depth,
			Offset: bim.Vec3{-c.Width / 2, -c.Depth / 2, 0},
		},
		Extrusion: extrudeUp(c.Height),
		Placement: upright(c.Position, bim.UnitX),
		Storey:    c.Storey(),
	}
}

// Synthesize dispatches on the element variant. bounds is only consulted
// for slabs.
func Synthesize(el elements.Element, bounds sample.Bounds) (Solid, bool) {
	switch e := el.(type) {
	case elements.Slab:
		return SynthesizeSlab(e, bounds)
	case elements.Wall:
		return SynthesizeWall(e)
	case elements.Column:
		return SynthesizeColumn(e), true
	default:
		bim.Diagf("geometry: unsupported element %T", el)
		return Solid{}, false
	}
}

// SynthesizeAll synthesizes slabs, then walls, then columns, skipping
// elements that produce no geometry.
func SynthesizeAll(slabs []elements.Slab, walls []elements.Wall, cols []elements.Column, bounds sample.Bounds) []Solid {
	out := make([]Solid, 0, len(slabs)+len(walls)+len(cols))
	for _, s := range slabs {
		if solid, ok := SynthesizeSlab(s, bounds); ok {
			out = append(out, solid)
		} else {
			bim.Tracef("geometry: skipped slab at z=%.3f with footprint %v", s.Z, bounds.Extent())
		}
	}
	for _, w := range walls {
		if solid, ok := SynthesizeWall(w); ok {
			out = append(out, solid)
		} else {
			bim.Tracef("geometry: skipped short wall %v..%v", w.Start, w.End)
		}
	}
	for _, c := range cols {
		out = append(out, SynthesizeColumn(c))
	}
	return out
}

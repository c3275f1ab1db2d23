package geometry

import (
	"fmt"
	"math"

	"github.com/banshee-data/scan2bim/internal/bim"
	"github.com/banshee-data/scan2bim/internal/bim/elements"
)

// ProfileKind identifies the shape of a Profile.
type ProfileKind int

const (
	ProfileRectangle ProfileKind = iota + 1
)

func (k ProfileKind) String() string {
	if k == ProfileRectangle {
		return "rectangle"
	}
	return fmt.Sprintf("ProfileKind(%d)", int(k))
}

func (k ProfileKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Profile is a 2D cross-section in the placement's local XY plane.
// The rectangle spans [Offset.X, Offset.X+XDim] x [Offset.Y, Offset.Y+YDim].
type Profile struct {
	Kind   ProfileKind `json:"kind"`
	XDim   float64     `json:"x_dim"`
	YDim   float64     `json:"y_dim"`
	Offset bim.Vec3    `json:"offset"`
}

// Center returns the profile centre in local coordinates.
func (p Profile) Center() bim.Vec3 {
	return bim.Vec3{p.Offset[0] + p.XDim/2, p.Offset[1] + p.YDim/2, p.Offset[2]}
}

// Extrusion sweeps a profile along Direction (local frame) by Depth.
type Extrusion struct {
	Direction bim.Vec3 `json:"direction"`
	Depth     float64  `json:"depth"`
}

// Placement positions a local frame in world space. Axis is the local Z and
// RefDirection the local X; both are unit length and orthogonal.
type Placement struct {
	Location     bim.Vec3 `json:"location"`
	Axis         bim.Vec3 `json:"axis"`
	RefDirection bim.Vec3 `json:"ref_direction"`
}

// Angle returns the rotation of the reference direction about +Z.
func (p Placement) Angle() float64 {
	return math.Atan2(p.RefDirection[1], p.RefDirection[0])
}

// ToWorld maps a local point into world space.
func (p Placement) ToWorld(local bim.Vec3) bim.Vec3 {
	x := p.RefDirection
	z := p.Axis
	y := z.Cross(x)
	return p.Location.
		Add(x.Scale(local[0])).
		Add(y.Scale(local[1])).
		Add(z.Scale(local[2]))
}

// Solid is the synthesized geometry of one element.
type Solid struct {
	Kind      elements.Kind `json:"kind"`
	Name      string        `json:"name"`
	Profile   Profile       `json:"profile"`
	Extrusion Extrusion     `json:"extrusion"`
	Placement Placement     `json:"placement"`
	Storey    int           `json:"storey"`
}

// Footprint returns the four world-space corners of the profile at the base
// of the solid, counter-clockwise starting from the local origin corner.
func (s Solid) Footprint() [4]bim.Vec3 {
	o := s.Profile.Offset
	local := [4]bim.Vec3{
		{o[0], o[1], 0},
		{o[0] + s.Profile.XDim, o[1], 0},
		{o[0] + s.Profile.XDim, o[1] + s.Profile.YDim, 0},
		{o[0], o[1] + s.Profile.YDim, 0},
	}
	var out [4]bim.Vec3
	for i, c := range local {
		out[i] = s.Placement.ToWorld(c)
	}
	return out
}

// Top returns the world z of the extruded end of the solid.
func (s Solid) Top() float64 {
	return s.Placement.Location[2] + s.Extrusion.Depth*s.Extrusion.Direction[2]
}

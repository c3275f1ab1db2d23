// Package mesh realises element solids as signed distance fields with sdfx
// and tessellates them into triangle meshes for preview and STL export.
package mesh

import (
	"errors"
	"fmt"
	"math"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/banshee-data/scan2bim/internal/bim"
	"github.com/banshee-data/scan2bim/internal/bim/geometry"
	"github.com/banshee-data/scan2bim/internal/bim/model"
)

// DefaultCells is the marching cubes resolution along the longest side of
// the meshed volume.
const DefaultCells = 96

// ErrUnsupportedAxis is returned for solids not extruded along +Z.
var ErrUnsupportedAxis = errors.New("only +Z extrusions can be meshed")

// Mesh is a triangle mesh. Arrays are flat: three floats per vertex, three
// floats per vertex normal and three indices per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	Name     string    `json:"name"`
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int { return len(m.Vertices) / 3 }

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int { return len(m.Indices) / 3 }

// IsEmpty reports whether the mesh has no geometry.
func (m *Mesh) IsEmpty() bool { return len(m.Vertices) == 0 }

// Append adds the triangles of o to m, re-basing its indices.
func (m *Mesh) Append(o *Mesh) {
	base := uint32(m.VertexCount())
	m.Vertices = append(m.Vertices, o.Vertices...)
	m.Normals = append(m.Normals, o.Normals...)
	for _, i := range o.Indices {
		m.Indices = append(m.Indices, base+i)
	}
}

// SolidSDF builds the signed distance field of one extruded solid. The
// profile box is centred on the origin by sdfx, so it is shifted to the
// profile centre, rotated about Z and moved to the placement location.
func SolidSDF(s geometry.Solid) (sdf.SDF3, error) {
	if s.Placement.Axis != bim.UnitZ || s.Extrusion.Direction != bim.UnitZ {
		return nil, ErrUnsupportedAxis
	}
	box, err := sdf.Box3D(v3.Vec{X: s.Profile.XDim, Y: s.Profile.YDim, Z: s.Extrusion.Depth}, 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Name, err)
	}
	c := s.Profile.Center()
	loc := s.Placement.Location
	m := sdf.Translate3d(v3.Vec{X: loc[0], Y: loc[1], Z: loc[2]}).
		Mul(sdf.RotateZ(s.Placement.Angle())).
		Mul(sdf.Translate3d(v3.Vec{X: c[0], Y: c[1], Z: s.Extrusion.Depth / 2}))
	return sdf.Transform3D(box, m), nil
}

// Union combines the fields of several solids.
func Union(solids []geometry.Solid) (sdf.SDF3, error) {
	if len(solids) == 0 {
		return nil, errors.New("no solids to combine")
	}
	fields := make([]sdf.SDF3, 0, len(solids))
	for _, s := range solids {
		f, err := SolidSDF(s)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return sdf.Union3D(fields...), nil
}

// Triangulate tessellates a field with uniform marching cubes.
func Triangulate(s sdf.SDF3, cells int, name string) *Mesh {
	if cells <= 0 {
		cells = DefaultCells
	}
	triangles := render.ToTriangles(s, render.NewMarchingCubesUniform(cells))

	out := &Mesh{
		Vertices: make([]float32, 0, len(triangles)*9),
		Normals:  make([]float32, 0, len(triangles)*9),
		Indices:  make([]uint32, 0, len(triangles)*3),
		Name:     name,
	}
	for _, tri := range triangles {
		n := tri.Normal()
		if math.IsNaN(n.X) {
			continue
		}
		for j := 0; j < 3; j++ {
			v := tri[j]
			out.Vertices = append(out.Vertices, float32(v.X), float32(v.Y), float32(v.Z))
			out.Normals = append(out.Normals, float32(n.X), float32(n.Y), float32(n.Z))
			out.Indices = append(out.Indices, uint32(len(out.Indices)))
		}
	}
	return out
}

// Options controls model meshing.
type Options struct {
	Cells int
	// Merge unions every solid into one field before tessellating. Without
	// it each solid is meshed on its own grid, which resolves thin walls
	// better on large models.
	Merge bool
}

// FromModel meshes every element of m.
func FromModel(m *model.BuildingModel, opts Options) (*Mesh, error) {
	solids := m.Solids()
	out := &Mesh{Name: "building"}
	if len(solids) == 0 {
		return out, nil
	}
	if opts.Merge {
		u, err := Union(solids)
		if err != nil {
			return nil, err
		}
		out.Append(Triangulate(u, opts.Cells, out.Name))
		return out, nil
	}
	for _, s := range solids {
		f, err := SolidSDF(s)
		if err != nil {
			return nil, err
		}
		out.Append(Triangulate(f, opts.Cells, s.Name))
	}
	bim.Diagf("mesh: %d solids -> %d triangles", len(solids), out.TriangleCount())
	return out, nil
}

package model

import (
	"slices"

	"github.com/samber/lo"

	"github.com/banshee-data/scan2bim/internal/bim"
	"github.com/banshee-data/scan2bim/internal/bim/elements"
	"github.com/banshee-data/scan2bim/internal/bim/geometry"
	"github.com/banshee-data/scan2bim/internal/bim/sample"
)

// Elements groups the detected elements by kind. The lists are never nil
// once produced by Assemble or Apply so they encode as [] rather than null.
type Elements struct {
	Slabs   []elements.Slab   `json:"slabs"`
	Walls   []elements.Wall   `json:"walls"`
	Columns []elements.Column `json:"columns"`
}

// Len returns the total number of elements.
func (e Elements) Len() int { return len(e.Slabs) + len(e.Walls) + len(e.Columns) }

// All returns every element as the Element interface, slabs first.
func (e Elements) All() []elements.Element {
	out := make([]elements.Element, 0, e.Len())
	for _, s := range e.Slabs {
		out = append(out, s)
	}
	for _, w := range e.Walls {
		out = append(out, w)
	}
	for _, c := range e.Columns {
		out = append(out, c)
	}
	return out
}

func (e Elements) clone() Elements {
	return Elements{
		Slabs:   append(make([]elements.Slab, 0, len(e.Slabs)), e.Slabs...),
		Walls:   append(make([]elements.Wall, 0, len(e.Walls)), e.Walls...),
		Columns: append(make([]elements.Column, 0, len(e.Columns)), e.Columns...),
	}
}

// BuildingModel is the aggregated output of one conversion.
type BuildingModel struct {
	PointCount int            `json:"point_count"`
	Bounds     *sample.Bounds `json:"bounds,omitempty"`
	Elements   Elements       `json:"elements"`
	Storeys    int            `json:"storeys"`
}

// Assemble bundles the detector output for s. It performs no filtering.
func Assemble(s *sample.PointSample, slabs []elements.Slab, walls []elements.Wall, cols []elements.Column) *BuildingModel {
	m := &BuildingModel{
		PointCount: s.Len(),
		Elements:   Elements{Slabs: slabs, Walls: walls, Columns: cols}.clone(),
	}
	if !s.Empty() {
		b := s.Bounds()
		m.Bounds = &b
	}
	m.Storeys = storeyCount(m.Elements)
	bim.Diagf("model: %d points, %d slabs, %d walls, %d columns, %d storeys",
		m.PointCount, len(slabs), len(walls), len(cols), m.Storeys)
	return m
}

// storeyCount is one more than the highest storey index in use, and 1 for
// a model without elements.
func storeyCount(e Elements) int {
	idx := lo.Map(e.All(), func(el elements.Element, _ int) int { return el.Storey() })
	if len(idx) == 0 {
		return 1
	}
	return lo.Max(idx) + 1
}

// BoundsOrZero returns the model bounds, or the zero box for an empty scan.
func (m *BuildingModel) BoundsOrZero() sample.Bounds {
	if m.Bounds == nil {
		return sample.Bounds{}
	}
	return *m.Bounds
}

// Solids synthesizes geometry for every element of m.
func (m *BuildingModel) Solids() []geometry.Solid {
	return geometry.SynthesizeAll(m.Elements.Slabs, m.Elements.Walls, m.Elements.Columns, m.BoundsOrZero())
}

// StoreyIndices returns the distinct storey indices in use, ascending,
// always including 0.
func (m *BuildingModel) StoreyIndices() []int {
	idx := lo.Uniq(append([]int{0}, lo.Map(m.Elements.All(), func(el elements.Element, _ int) int {
		return el.Storey()
	})...))
	slices.Sort(idx)
	return idx
}

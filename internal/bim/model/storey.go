package model

import (
	"slices"

	"github.com/banshee-data/scan2bim/internal/bim"
	"github.com/banshee-data/scan2bim/internal/bim/elements"
)

// DefaultStoreyTolerance lets an element base sit slightly below its floor
// slab and still belong to that storey.
const DefaultStoreyTolerance = 0.3

// AssignStoreys returns a copy of m in which every element carries a storey
// index. Slabs sorted by elevation define the storey floors: slab i opens
// storey i, and every other element joins the highest floor at or below its
// base plus tolerance. Elements below the lowest slab join storey 0.
func AssignStoreys(m *BuildingModel, tolerance float64) *BuildingModel {
	out := *m
	out.Elements = m.Elements.clone()

	floors := make([]float64, len(out.Elements.Slabs))
	for i, s := range out.Elements.Slabs {
		floors[i] = s.Z
	}
	slices.Sort(floors)

	storeyOf := func(base float64) int {
		idx := 0
		for i, z := range floors {
			if z <= base+tolerance {
				idx = i
			}
		}
		return idx
	}

	for i, s := range out.Elements.Slabs {
		out.Elements.Slabs[i] = s.WithStorey(storeyOf(s.Z))
	}
	for i, w := range out.Elements.Walls {
		out.Elements.Walls[i] = w.WithStorey(storeyOf(w.BaseZ()))
	}
	for i, c := range out.Elements.Columns {
		out.Elements.Columns[i] = c.WithStorey(storeyOf(c.BaseZ()))
	}
	out.Storeys = storeyCount(out.Elements)
	bim.Diagf("model: assigned %d elements to %d storeys", out.Elements.Len(), out.Storeys)
	return &out
}

// ElementsOnStorey returns the elements whose storey index is idx.
func (m *BuildingModel) ElementsOnStorey(idx int) []elements.Element {
	var out []elements.Element
	for _, el := range m.Elements.All() {
		if el.Storey() == idx {
			out = append(out, el)
		}
	}
	return out
}

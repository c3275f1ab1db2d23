package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/samber/lo"

	"github.com/banshee-data/scan2bim/internal/bim/elements"
)

// Patch replaces whole parts of a model. Nil fields are left untouched.
type Patch struct {
	Slabs   *[]elements.Slab   `json:"slabs,omitempty"`
	Walls   *[]elements.Wall   `json:"walls,omitempty"`
	Columns *[]elements.Column `json:"columns,omitempty"`
	Storeys *int               `json:"storeys,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Slabs == nil && p.Walls == nil && p.Columns == nil && p.Storeys == nil
}

// Fields returns the names of the parts the patch replaces.
func (p Patch) Fields() []string {
	var out []string
	if p.Slabs != nil {
		out = append(out, "slabs")
	}
	if p.Walls != nil {
		out = append(out, "walls")
	}
	if p.Columns != nil {
		out = append(out, "columns")
	}
	if p.Storeys != nil {
		out = append(out, "storeys")
	}
	return out
}

// DecodePatch reads a JSON patch. Unknown keys are rejected.
func DecodePatch(r io.Reader) (Patch, error) {
	var p Patch
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return Patch{}, fmt.Errorf("failed to decode model patch: %w", err)
	}
	if p.Empty() {
		return Patch{}, errors.New("model patch is empty")
	}
	return p, nil
}

// Validate checks every element the patch would introduce.
func (p Patch) Validate() error {
	var errs []error
	check := func(kind string, i int, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s[%d]: %w", kind, i, err))
		}
	}
	if p.Slabs != nil {
		for i, s := range *p.Slabs {
			check("slabs", i, s.Validate())
		}
	}
	if p.Walls != nil {
		for i, w := range *p.Walls {
			check("walls", i, w.Validate())
		}
	}
	if p.Columns != nil {
		for i, c := range *p.Columns {
			check("columns", i, c.Validate())
		}
	}
	if p.Storeys != nil && *p.Storeys < 1 {
		errs = append(errs, fmt.Errorf("storeys must be at least 1, got %d", *p.Storeys))
	}
	return errors.Join(errs...)
}

// Apply validates p and returns a patched copy of m. When storeys is not
// part of the patch it is recomputed from the element storey indices.
func (m *BuildingModel) Apply(p Patch) (*BuildingModel, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	out := *m
	out.Elements = m.Elements.clone()
	if p.Slabs != nil {
		out.Elements.Slabs = lo.Ternary(*p.Slabs == nil, []elements.Slab{}, *p.Slabs)
	}
	if p.Walls != nil {
		out.Elements.Walls = lo.Ternary(*p.Walls == nil, []elements.Wall{}, *p.Walls)
	}
	if p.Columns != nil {
		out.Elements.Columns = lo.Ternary(*p.Columns == nil, []elements.Column{}, *p.Columns)
	}
	used := storeyCount(out.Elements)
	if p.Storeys != nil && *p.Storeys < used {
		return nil, fmt.Errorf("storeys %d is below the %d storeys referenced by elements", *p.Storeys, used)
	}
	out.Storeys = lo.FromPtrOr(p.Storeys, used)
	return &out, nil
}

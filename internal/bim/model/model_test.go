package model

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/scan2bim/internal/bim"
	"github.com/banshee-data/scan2bim/internal/bim/detect"
	"github.com/banshee-data/scan2bim/internal/bim/elements"
	"github.com/banshee-data/scan2bim/internal/bim/sample"
	"github.com/banshee-data/scan2bim/internal/testutil"
)

func TestAssemble_Empty(t *testing.T) {
	s, err := sample.NewPointSample(nil)
	require.NoError(t, err)

	m := Assemble(s, nil, nil, nil)
	assert.Equal(t, 0, m.PointCount)
	assert.Nil(t, m.Bounds)
	assert.Equal(t, 1, m.Storeys)

	b, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"point_count":0,"elements":{"slabs":[],"walls":[],"columns":[]},"storeys":1}`, string(b))
}

func TestAssemble_CopiesInputs(t *testing.T) {
	s, err := sample.NewPointSample([]bim.Vec3{{0, 0, 0}, {2, 3, 4}})
	require.NoError(t, err)

	walls := []elements.Wall{elements.NewWall(bim.Vec3{}, bim.Vec3{2, 0, 0}, 3)}
	m := Assemble(s, []elements.Slab{elements.NewSlab(0)}, walls, nil)
	walls[0].Height = 99

	require.NotNil(t, m.Bounds)
	assert.Equal(t, bim.Vec3{2, 3, 4}, m.Bounds.Max)
	assert.Equal(t, 2, m.PointCount)
	assert.Equal(t, 3.0, m.Elements.Walls[0].Height)
	assert.NotNil(t, m.Elements.Columns)
	assert.Len(t, m.Solids(), 2)
}

func TestAssemble_StoreyCountFromIndices(t *testing.T) {
	s, _ := sample.NewPointSample([]bim.Vec3{{0, 0, 0}})
	m := Assemble(s, nil, nil, []elements.Column{
		elements.NewColumn(bim.Vec3{}, 3),
		elements.NewColumn(bim.Vec3{}, 3).WithStorey(2),
	})
	assert.Equal(t, 3, m.Storeys)
	assert.Equal(t, []int{0, 2}, m.StoreyIndices())
	assert.Len(t, m.ElementsOnStorey(2), 1)
}

func TestPipelineIdempotent(t *testing.T) {
	s, err := sample.NewPointSample(testutil.DefaultBoxRoom().Points())
	require.NoError(t, err)

	run := func() *BuildingModel {
		return Assemble(s, detect.DetectSlabs(s, nil), detect.DetectWalls(s, nil), detect.DetectColumns(s, nil))
	}
	if diff := cmp.Diff(run(), run()); diff != "" {
		t.Errorf("pipeline not deterministic (-first +second):\n%s", diff)
	}
}

func TestAssignStoreys(t *testing.T) {
	s, _ := sample.NewPointSample([]bim.Vec3{{0, 0, 0}, {10, 10, 7}})
	m := Assemble(s,
		[]elements.Slab{elements.NewSlab(3.5), elements.NewSlab(0)},
		[]elements.Wall{
			elements.NewWall(bim.Vec3{0, 0, 1.5}, bim.Vec3{5, 0, 1.5}, 1.5),
			elements.NewWall(bim.Vec3{0, 0, 5}, bim.Vec3{5, 0, 5}, 1.5),
		},
		[]elements.Column{
			elements.NewColumn(bim.Vec3{1, 1, 3.3}, 3), // within tolerance of the upper floor
			elements.NewColumn(bim.Vec3{1, 1, -1}, 3),  // below every slab
		},
	)

	got := AssignStoreys(m, DefaultStoreyTolerance)
	assert.Equal(t, 1, got.Elements.Slabs[0].Storey())
	assert.Equal(t, 0, got.Elements.Slabs[1].Storey())
	assert.Equal(t, 0, got.Elements.Walls[0].Storey())
	assert.Equal(t, 1, got.Elements.Walls[1].Storey())
	assert.Equal(t, 1, got.Elements.Columns[0].Storey())
	assert.Equal(t, 0, got.Elements.Columns[1].Storey())
	assert.Equal(t, 2, got.Storeys)

	// The input model is untouched.
	assert.Nil(t, m.Elements.Walls[1].StoreyIndex)
	assert.Equal(t, 1, m.Storeys)
}

func TestDecodePatch(t *testing.T) {
	p, err := DecodePatch(strings.NewReader(`{"walls":[{"start":[0,0,0],"end":[3,0,0],"height":2.5,"thickness":0.2}],"storeys":2}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"walls", "storeys"}, p.Fields())

	_, err = DecodePatch(strings.NewReader(`{"doors":[]}`))
	assert.Error(t, err, "unknown keys must be rejected")

	_, err = DecodePatch(strings.NewReader(`{}`))
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	s, _ := sample.NewPointSample([]bim.Vec3{{0, 0, 0}, {5, 5, 3}})
	m := Assemble(s, []elements.Slab{elements.NewSlab(0)}, nil, nil)

	tests := []struct {
		name    string
		patch   Patch
		wantErr bool
		check   func(t *testing.T, got *BuildingModel)
	}{
		{
			name:  "replace walls",
			patch: Patch{Walls: &[]elements.Wall{elements.NewWall(bim.Vec3{}, bim.Vec3{4, 0, 0}, 3)}},
			check: func(t *testing.T, got *BuildingModel) {
				assert.Len(t, got.Elements.Walls, 1)
				assert.Len(t, got.Elements.Slabs, 1)
			},
		},
		{
			name:  "clear slabs",
			patch: Patch{Slabs: &[]elements.Slab{}},
			check: func(t *testing.T, got *BuildingModel) {
				assert.NotNil(t, got.Elements.Slabs)
				assert.Empty(t, got.Elements.Slabs)
			},
		},
		{
			name:    "short wall rejected",
			patch:   Patch{Walls: &[]elements.Wall{elements.NewWall(bim.Vec3{}, bim.Vec3{0.05, 0, 0}, 3)}},
			wantErr: true,
		},
		{
			name:    "zero thickness rejected",
			patch:   Patch{Slabs: &[]elements.Slab{{Z: 1}}},
			wantErr: true,
		},
		{
			name:    "storeys below referenced",
			patch:   Patch{Columns: &[]elements.Column{elements.NewColumn(bim.Vec3{}, 3).WithStorey(3)}, Storeys: intp(1)},
			wantErr: true,
		},
		{
			name:  "explicit storeys",
			patch: Patch{Storeys: intp(4)},
			check: func(t *testing.T, got *BuildingModel) {
				assert.Equal(t, 4, got.Storeys)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Apply(tt.patch)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, got)
		})
	}
	assert.Len(t, m.Elements.Slabs, 1, "Apply must not mutate the receiver")
}

func intp(v int) *int { return &v }

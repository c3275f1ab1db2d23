package geometry

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/banshee-data/scan2bim/internal/bim"
	"github.com/banshee-data/scan2bim/internal/bim/elements"
	"github.com/banshee-data/scan2bim/internal/bim/sample"
)

const eps = 1e-9

var approx = cmpopts.EquateApprox(0, eps)

func near(a, b bim.Vec3) bool {
	return a.Sub(b).Norm() < eps
}

func TestSynthesizeSlab(t *testing.T) {
	bounds := sample.Bounds{Min: bim.Vec3{0, 0, 0}, Max: bim.Vec3{10, 8, 3}}
	got, ok := SynthesizeSlab(elements.NewSlab(3), bounds)
	if !ok {
		t.Fatal("expected geometry for a 10 x 8 footprint")
	}

	want := Solid{
		Kind:      elements.KindSlab,
		Name:      "Slab at Z=3.00",
		Profile:   Profile{Kind: ProfileRectangle, XDim: 10, YDim: 8, Offset: bim.Vec3{-5, -4, 0}},
		Extrusion: Extrusion{Direction: bim.UnitZ, Depth: 0.3},
		Placement: Placement{Location: bim.Vec3{5, 4, 3}, Axis: bim.UnitZ, RefDirection: bim.UnitX},
	}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("SynthesizeSlab mismatch (-want +got):\n%s", diff)
	}
}

func TestSynthesizeSlab_DegenerateFootprint(t *testing.T) {
	tests := []struct {
		name   string
		bounds sample.Bounds
	}{
		{"single point", sample.Bounds{Min: bim.Vec3{1, 1, 1}, Max: bim.Vec3{1, 1, 1}}},
		{"line along y", sample.Bounds{Min: bim.Vec3{2, 0, 0}, Max: bim.Vec3{2, 4.9, 3}}},
		{"line along x", sample.Bounds{Min: bim.Vec3{0, 2, 0}, Max: bim.Vec3{4.9, 2, 3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := SynthesizeSlab(elements.NewSlab(0), tt.bounds); ok {
				t.Error("expected no geometry for a zero-area footprint")
			}
			if _, ok := Synthesize(elements.NewSlab(0), tt.bounds); ok {
				t.Error("Synthesize: expected no geometry for a zero-area footprint")
			}
			if got := SynthesizeAll([]elements.Slab{elements.NewSlab(0)}, nil, nil, tt.bounds); len(got) != 0 {
				t.Errorf("SynthesizeAll returned %d solids, want 0", len(got))
			}
		})
	}
}

func TestSynthesizeWall_Diagonal(t *testing.T) {
	w := elements.NewWall(bim.Vec3{1, 1, 0.5}, bim.Vec3{4, 5, 0.5}, 2.5)
	got, ok := SynthesizeWall(w)
	if !ok {
		t.Fatal("expected geometry for a 5 m wall")
	}
	if math.Abs(got.Profile.XDim-5) > eps || got.Profile.YDim != 0.2 {
		t.Errorf("profile dims = %v x %v, want 5 x 0.2", got.Profile.XDim, got.Profile.YDim)
	}
	if !near(got.Profile.Offset, bim.Vec3{0, -0.1, 0}) {
		t.Errorf("profile offset = %v", got.Profile.Offset)
	}
	if !near(got.Placement.RefDirection, bim.Vec3{0.6, 0.8, 0}) {
		t.Errorf("ref direction = %v, want (0.6, 0.8, 0)", got.Placement.RefDirection)
	}
	if got.Placement.Location != w.Start {
		t.Errorf("location = %v, want start %v", got.Placement.Location, w.Start)
	}
	if got.Extrusion.Depth != 2.5 {
		t.Errorf("depth = %v, want 2.5", got.Extrusion.Depth)
	}
	if math.Abs(got.Placement.Angle()-math.Atan2(4, 3)) > eps {
		t.Errorf("angle = %v", got.Placement.Angle())
	}
}

func TestSynthesizeWall_CentredOnLine(t *testing.T) {
	w := elements.NewWall(bim.Vec3{0, 0, 0}, bim.Vec3{4, 0, 0}, 3)
	got, ok := SynthesizeWall(w)
	if !ok {
		t.Fatal("expected geometry")
	}
	fp := got.Footprint()
	want := [4]bim.Vec3{{0, -0.1, 0}, {4, -0.1, 0}, {4, 0.1, 0}, {0, 0.1, 0}}
	for i := range fp {
		if !near(fp[i], want[i]) {
			t.Errorf("corner %d = %v, want %v", i, fp[i], want[i])
		}
	}
}

func TestSynthesizeWall_TooShort(t *testing.T) {
	tests := []struct {
		name string
		end  bim.Vec3
		ok   bool
	}{
		{"zero length", bim.Vec3{0, 0, 0}, false},
		{"just under", bim.Vec3{0.09, 0, 0}, false},
		{"vertical offset only", bim.Vec3{0, 0, 5}, false},
		{"at minimum", bim.Vec3{0, 0.1, 0}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := SynthesizeWall(elements.NewWall(bim.Vec3{}, tt.end, 3))
			if ok != tt.ok {
				t.Errorf("ok = %v, want %v", ok, tt.ok)
			}
		})
	}
}

func TestSynthesizeColumn(t *testing.T) {
	c := elements.NewColumn(bim.Vec3{2, 3, 0}, 3).WithStorey(1)
	got := SynthesizeColumn(c)
	if got.Storey != 1 {
		t.Errorf("storey = %d, want 1", got.Storey)
	}
	if got.Placement.RefDirection != bim.UnitX {
		t.Errorf("columns must not rotate, ref = %v", got.Placement.RefDirection)
	}
	fp := got.Footprint()
	if !near(fp[0], bim.Vec3{1.8, 2.8, 0}) || !near(fp[2], bim.Vec3{2.2, 3.2, 0}) {
		t.Errorf("footprint = %v", fp)
	}
	if got.Top() != 3 {
		t.Errorf("top = %v, want 3", got.Top())
	}
}

func TestPlacementFrameOrthonormal(t *testing.T) {
	for _, end := range []bim.Vec3{{1, 0, 0}, {-2, 3, 0}, {0, -7, 0}, {-1, -1, 0}} {
		s, ok := SynthesizeWall(elements.NewWall(bim.Vec3{}, end, 1))
		if !ok {
			t.Fatalf("no geometry for %v", end)
		}
		p := s.Placement
		if math.Abs(p.Axis.Norm()-1) > eps || math.Abs(p.RefDirection.Norm()-1) > eps {
			t.Errorf("%v: non-unit frame %v %v", end, p.Axis, p.RefDirection)
		}
		if math.Abs(p.Axis.Dot(p.RefDirection)) > eps {
			t.Errorf("%v: axis not orthogonal to ref direction", end)
		}
		// The far end of the profile lands on the wall end.
		if got := p.ToWorld(bim.Vec3{s.Profile.XDim, 0, 0}); !near(got, end) {
			t.Errorf("%v: profile end maps to %v", end, got)
		}
	}
}

func TestSynthesizeDispatch(t *testing.T) {
	bounds := sample.Bounds{Max: bim.Vec3{2, 2, 2}}
	cases := []struct {
		el   elements.Element
		kind elements.Kind
		ok   bool
	}{
		{elements.NewSlab(0), elements.KindSlab, true},
		{elements.NewWall(bim.Vec3{}, bim.Vec3{1, 0, 0}, 2), elements.KindWall, true},
		{elements.NewWall(bim.Vec3{}, bim.Vec3{0.01, 0, 0}, 2), 0, false},
		{elements.NewColumn(bim.Vec3{1, 1, 0}, 2), elements.KindColumn, true},
	}
	for _, tc := range cases {
		s, ok := Synthesize(tc.el, bounds)
		if ok != tc.ok {
			t.Errorf("%T: ok = %v, want %v", tc.el, ok, tc.ok)
			continue
		}
		if ok && s.Kind != tc.kind {
			t.Errorf("%T: kind = %v, want %v", tc.el, s.Kind, tc.kind)
		}
	}
}

func TestSynthesizeAll_SkipsShortWalls(t *testing.T) {
	solids := SynthesizeAll(
		[]elements.Slab{elements.NewSlab(0)},
		[]elements.Wall{
			elements.NewWall(bim.Vec3{}, bim.Vec3{3, 0, 0}, 2),
			elements.NewWall(bim.Vec3{}, bim.Vec3{0.05, 0, 0}, 2),
		},
		[]elements.Column{elements.NewColumn(bim.Vec3{1, 1, 0}, 2)},
		sample.Bounds{Max: bim.Vec3{3, 3, 2}},
	)
	if len(solids) != 3 {
		t.Fatalf("got %d solids, want 3", len(solids))
	}
	kinds := []elements.Kind{elements.KindSlab, elements.KindWall, elements.KindColumn}
	for i, k := range kinds {
		if solids[i].Kind != k {
			t.Errorf("solid %d kind = %v, want %v", i, solids[i].Kind, k)
		}
	}
}

package mesh

import (
	"bufio"
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/banshee-data/scan2bim/internal/bim"
	"github.com/banshee-data/scan2bim/internal/bim/elements"
	"github.com/banshee-data/scan2bim/internal/bim/geometry"
	"github.com/banshee-data/scan2bim/internal/bim/model"
	"github.com/banshee-data/scan2bim/internal/bim/sample"
)

type box struct{ min, max [3]float64 }

func extent(t *testing.T, m *Mesh) box {
	t.Helper()
	if m.IsEmpty() {
		t.Fatal("mesh is empty")
	}
	b := box{
		min: [3]float64{math.Inf(1), math.Inf(1), math.Inf(1)},
		max: [3]float64{math.Inf(-1), math.Inf(-1), math.Inf(-1)},
	}
	for i := 0; i < len(m.Vertices); i += 3 {
		for k := 0; k < 3; k++ {
			v := float64(m.Vertices[i+k])
			b.min[k] = math.Min(b.min[k], v)
			b.max[k] = math.Max(b.max[k], v)
		}
	}
	return b
}

func checkBox(t *testing.T, got box, min, max [3]float64, tol float64) {
	t.Helper()
	for k := 0; k < 3; k++ {
		if math.Abs(got.min[k]-min[k]) > tol || math.Abs(got.max[k]-max[k]) > tol {
			t.Errorf("axis %d: got [%.3f, %.3f], want [%.3f, %.3f]±%.2f",
				k, got.min[k], got.max[k], min[k], max[k], tol)
		}
	}
	t.Logf("bbox min=%v max=%v", got.min, got.max)
}

func TestSolidSDF_Column(t *testing.T) {
	s := geometry.SynthesizeColumn(elements.NewColumn(bim.Vec3{2, 3, 0}, 3))
	f, err := SolidSDF(s)
	if err != nil {
		t.Fatalf("SolidSDF: %v", err)
	}
	bb := f.BoundingBox()
	if math.Abs(bb.Min.X-1.8) > 1e-9 || math.Abs(bb.Max.Z-3) > 1e-9 {
		t.Errorf("bounding box = %+v", bb)
	}

	m := Triangulate(f, 24, s.Name)
	if m.TriangleCount() == 0 {
		t.Fatal("no triangles")
	}
	if len(m.Vertices) != len(m.Normals) {
		t.Fatalf("vertices %d != normals %d", len(m.Vertices), len(m.Normals))
	}
	checkBox(t, extent(t, m), [3]float64{1.8, 2.8, 0}, [3]float64{2.2, 3.2, 3}, 0.15)
}

func TestSolidSDF_RotatedWall(t *testing.T) {
	w := elements.NewWall(bim.Vec3{0, 0, 1}, bim.Vec3{0, 4, 1}, 2)
	s, ok := geometry.SynthesizeWall(w)
	if !ok {
		t.Fatal("wall rejected")
	}
	f, err := SolidSDF(s)
	if err != nil {
		t.Fatalf("SolidSDF: %v", err)
	}
	m := Triangulate(f, 40, s.Name)
	checkBox(t, extent(t, m), [3]float64{-0.1, 0, 1}, [3]float64{0.1, 4, 3}, 0.15)
}

func TestSolidSDF_RejectsTiltedAxis(t *testing.T) {
	s := geometry.SynthesizeColumn(elements.NewColumn(bim.Vec3{}, 3))
	s.Placement.Axis = bim.UnitX
	if _, err := SolidSDF(s); err != ErrUnsupportedAxis {
		t.Fatalf("err = %v, want ErrUnsupportedAxis", err)
	}
}

func testModel() *model.BuildingModel {
	return &model.BuildingModel{
		Bounds: &sample.Bounds{Min: bim.Vec3{0, 0, 0}, Max: bim.Vec3{4, 4, 3}},
		Elements: model.Elements{
			Slabs:   []elements.Slab{elements.NewSlab(0)},
			Columns: []elements.Column{elements.NewColumn(bim.Vec3{2, 2, 0}, 3)},
		},
		Storeys: 1,
	}
}

func TestFromModel(t *testing.T) {
	for _, merge := range []bool{false, true} {
		m, err := FromModel(testModel(), Options{Cells: 32, Merge: merge})
		if err != nil {
			t.Fatalf("merge=%v: %v", merge, err)
		}
		// Slab spans the bounds in XY and 0.3 thick; the column rises to 3.
		checkBox(t, extent(t, m), [3]float64{0, 0, 0}, [3]float64{4, 4, 3}, 0.2)
		for _, i := range m.Indices {
			if int(i) >= m.VertexCount() {
				t.Fatalf("merge=%v: index %d out of range %d", merge, i, m.VertexCount())
			}
		}
	}
}

func TestFromModel_Empty(t *testing.T) {
	m, err := FromModel(&model.BuildingModel{Storeys: 1}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !m.IsEmpty() {
		t.Errorf("expected empty mesh, got %d triangles", m.TriangleCount())
	}
}

func TestAppend(t *testing.T) {
	a := &Mesh{Vertices: make([]float32, 9), Normals: make([]float32, 9), Indices: []uint32{0, 1, 2}}
	b := &Mesh{Vertices: make([]float32, 9), Normals: make([]float32, 9), Indices: []uint32{0, 1, 2}}
	a.Append(b)
	if a.TriangleCount() != 2 || a.VertexCount() != 6 {
		t.Fatalf("got %d triangles %d vertices", a.TriangleCount(), a.VertexCount())
	}
	if a.Indices[3] != 3 || a.Indices[5] != 5 {
		t.Errorf("indices not rebased: %v", a.Indices)
	}
}

func TestWriteSTL(t *testing.T) {
	m := &Mesh{
		Vertices: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
		Normals:  []float32{0, 0, 1, 0, 0, 1, 0, 0, 1},
		Indices:  []uint32{0, 1, 2},
		Name:     "tri",
	}
	var buf bytes.Buffer
	if err := WriteSTL(&buf, m); err != nil {
		t.Fatal(err)
	}
	var lines []string
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		lines = append(lines, strings.TrimSpace(sc.Text()))
	}
	want := []string{
		"solid tri",
		"facet normal 0 0 1",
		"outer loop",
		"vertex 0 0 0",
		"vertex 1 0 0",
		"vertex 0 1 0",
		"endloop",
		"endfacet",
		"endsolid tri",
	}
	if strings.Join(lines, "\n") != strings.Join(want, "\n") {
		t.Errorf("stl =\n%s\nwant\n%s", strings.Join(lines, "\n"), strings.Join(want, "\n"))
	}
}

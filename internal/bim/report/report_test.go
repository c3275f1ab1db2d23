package report

import (
	"bytes"
	"strings"
	"testing"

	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/scan2bim/internal/bim"
	"github.com/banshee-data/scan2bim/internal/bim/detect"
	"github.com/banshee-data/scan2bim/internal/bim/elements"
	"github.com/banshee-data/scan2bim/internal/bim/model"
	"github.com/banshee-data/scan2bim/internal/bim/sample"
)

func roomModel() *model.BuildingModel {
	return &model.BuildingModel{
		PointCount: 1234,
		Bounds:     &sample.Bounds{Min: bim.Vec3{0, 0, 0}, Max: bim.Vec3{10, 8, 3}},
		Elements: model.Elements{
			Slabs: []elements.Slab{elements.NewSlab(0), elements.NewSlab(3)},
			Walls: []elements.Wall{
				elements.NewWall(bim.Vec3{0, 0, 1.5}, bim.Vec3{10, 0, 1.5}, 1.5),
				elements.NewWall(bim.Vec3{0, 0, 1.5}, bim.Vec3{0, 8, 1.5}, 1.5),
			},
			Columns: []elements.Column{elements.NewColumn(bim.Vec3{5, 4, 0}, 3)},
		},
		Storeys: 1,
	}
}

func TestOutlines_Closed(t *testing.T) {
	out := outlines(roomModel())
	if len(out) != 5 {
		t.Fatalf("got %d outlines, want 5", len(out))
	}
	for _, o := range out {
		if len(o.Points) != 5 || o.Points[0] != o.Points[4] {
			t.Errorf("%s outline not closed: %v", o.Name, o.Points)
		}
	}
	if out[0].Kind != elements.KindSlab || out[4].Kind != elements.KindColumn {
		t.Errorf("unexpected order: %v .. %v", out[0].Kind, out[4].Kind)
	}
}

func TestWriteHTML(t *testing.T) {
	prof := &detect.ZProfile{Origin: 0, Step: 0.05, Counts: []float64{400, 0, 0, 12, 380}, Threshold: 120}
	var buf bytes.Buffer
	if err := WriteHTML(&buf, Input{Title: "Room", Model: roomModel(), Profile: prof}); err != nil {
		t.Fatalf("WriteHTML: %v", err)
	}
	page := buf.String()
	for _, want := range []string{"<html", "Elevation profile", "Elements per storey", "Plan", "slab threshold", AssetsHost} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestWriteHTML_WithoutProfile(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteHTML(&buf, Input{Model: roomModel()}); err != nil {
		t.Fatalf("WriteHTML: %v", err)
	}
	if strings.Contains(buf.String(), "Elevation profile") {
		t.Error("profile chart rendered without a profile")
	}
}

func TestWriteHTML_NoModel(t *testing.T) {
	if err := WriteHTML(&bytes.Buffer{}, Input{}); err == nil {
		t.Fatal("expected error for missing model")
	}
}

func TestWritePlanPNG(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePlanPNG(&buf, roomModel(), "Room", 4*vg.Inch, 3*vg.Inch); err != nil {
		t.Fatalf("WritePlanPNG: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Errorf("output is not a PNG (%d bytes)", buf.Len())
	}
}

func TestWritePlanPNG_EmptyModel(t *testing.T) {
	var buf bytes.Buffer
	if err := WritePlanPNG(&buf, &model.BuildingModel{Storeys: 1}, "", 2*vg.Inch, 2*vg.Inch); err != nil {
		t.Fatalf("WritePlanPNG: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("empty output")
	}
}

package report

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/scan2bim/internal/bim"
	"github.com/banshee-data/scan2bim/internal/bim/elements"
	"github.com/banshee-data/scan2bim/internal/bim/model"
)

// PNGMediaType is the content type of WritePlanPNG output.
const PNGMediaType = "image/png"

var kinds = []elements.Kind{elements.KindSlab, elements.KindWall, elements.KindColumn}

var kindColors = map[elements.Kind]color.Color{
	elements.KindSlab:   color.RGBA{R: 0x9e, G: 0x9e, B: 0x9e, A: 0xff},
	elements.KindWall:   color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	elements.KindColumn: color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
}

// Outline is the closed footprint polygon of one solid.
type Outline struct {
	Kind   elements.Kind
	Name   string
	Points []bim.Vec3 // first point repeated at the end
}

func outlines(m *model.BuildingModel) []Outline {
	solids := m.Solids()
	out := make([]Outline, 0, len(solids))
	for _, s := range solids {
		fp := s.Footprint()
		out = append(out, Outline{
			Kind:   s.Kind,
			Name:   s.Name,
			Points: []bim.Vec3{fp[0], fp[1], fp[2], fp[3], fp[0]},
		})
	}
	return out
}

// Plan builds a gonum plot of the element footprints, one colour per kind.
func Plan(m *model.BuildingModel, title string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Y (m)"
	p.Legend.Top = true
	p.Legend.Left = false

	legend := map[elements.Kind]bool{}
	for _, o := range outlines(m) {
		pts := make(plotter.XYs, len(o.Points))
		for i, v := range o.Points {
			pts[i] = plotter.XY{X: v[0], Y: v[1]}
		}
		l, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("%s outline: %w", o.Name, err)
		}
		l.Color = kindColors[o.Kind]
		l.Width = vg.Points(1)
		p.Add(l)
		if !legend[o.Kind] {
			p.Legend.Add(o.Kind.String(), l)
			legend[o.Kind] = true
		}
	}
	if b := m.Bounds; b != nil {
		p.X.Min, p.X.Max = b.Min[0], b.Max[0]
		p.Y.Min, p.Y.Max = b.Min[1], b.Max[1]
	}
	p.Add(plotter.NewGrid())
	return p, nil
}

// WritePlanPNG renders the plan as a PNG of the given size.
func WritePlanPNG(w io.Writer, m *model.BuildingModel, title string, width, height vg.Length) error {
	p, err := Plan(m, title)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(width, height, "png")
	if err != nil {
		return fmt.Errorf("plan writer: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

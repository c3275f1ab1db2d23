package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/scan2bim/internal/bim"
	"github.com/banshee-data/scan2bim/internal/bim/detect"
	"github.com/banshee-data/scan2bim/internal/bim/export/ifc"
	"github.com/banshee-data/scan2bim/internal/bim/export/mesh"
	"github.com/banshee-data/scan2bim/internal/bim/model"
	"github.com/banshee-data/scan2bim/internal/bim/report"
)

// Format names an export encoding.
type Format string

const (
	FormatIFC  Format = "ifc"
	FormatJSON Format = "json"
	FormatSTL  Format = "stl"
	FormatPNG  Format = "png"
	FormatHTML Format = "html"
)

// Formats lists every supported export format.
var Formats = []Format{FormatIFC, FormatJSON, FormatSTL, FormatPNG, FormatHTML}

// ParseFormat resolves a format name, case-insensitively. An empty name
// selects IFC.
func ParseFormat(s string) (Format, error) {
	if s == "" {
		return FormatIFC, nil
	}
	f := Format(strings.ToLower(s))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// MediaType returns the HTTP content type of f.
func (f Format) MediaType() string {
	switch f {
	case FormatIFC:
		return ifc.MediaType
	case FormatSTL:
		return mesh.STLMediaType
	case FormatPNG:
		return report.PNGMediaType
	case FormatHTML:
		return report.HTMLMediaType
	default:
		return "application/json"
	}
}

// Extension returns the file extension of f, with the dot.
func (f Format) Extension() string { return "." + string(f) }

// ExportOptions carries per-format settings.
type ExportOptions struct {
	IFC       ifc.Options
	MeshCells int
	MergeMesh bool
	Title     string
	// Profile is included in HTML reports when set.
	Profile *detect.ZProfile
}

// Export encodes m in format f.
func Export(w io.Writer, f Format, m *model.BuildingModel, opts ExportOptions) error {
	switch f {
	case FormatIFC:
		sum, err := ifc.Write(w, m, opts.IFC)
		if err != nil {
			return err
		}
		bim.Diagf("export: ifc %d storeys, %d slabs, %d walls, %d columns, %d skipped",
			sum.Storeys, sum.Slabs, sum.Walls, sum.Columns, sum.Skipped)
		return nil
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(m)
	case FormatSTL:
		msh, err := mesh.FromModel(m, mesh.Options{Cells: opts.MeshCells, Merge: opts.MergeMesh})
		if err != nil {
			return err
		}
		return mesh.WriteSTL(w, msh)
	case FormatPNG:
		return report.WritePlanPNG(w, m, opts.Title, 10*vg.Inch, 8*vg.Inch)
	case FormatHTML:
		return report.WriteHTML(w, report.Input{Title: opts.Title, Model: m, Profile: opts.Profile})
	default:
		return fmt.Errorf("unknown export format %q", f)
	}
}

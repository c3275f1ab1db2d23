package report

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/scan2bim/internal/bim/detect"
	"github.com/banshee-data/scan2bim/internal/bim/elements"
	"github.com/banshee-data/scan2bim/internal/bim/model"
)

// AssetsHost is where rendered pages load the echarts scripts from.
var AssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// HTMLMediaType is the content type of WriteHTML output.
const HTMLMediaType = "text/html; charset=utf-8"

// Input is what a report is rendered from. Profile is optional.
type Input struct {
	Title   string
	Model   *model.BuildingModel
	Profile *detect.ZProfile
}

func (in Input) title() string {
	if in.Title == "" {
		return "Scan conversion"
	}
	return in.Title
}

// WriteHTML renders the interactive report page.
func WriteHTML(w io.Writer, in Input) error {
	if in.Model == nil {
		return fmt.Errorf("report: no model")
	}
	page := components.NewPage()
	page.SetAssetsHost(AssetsHost)
	if in.Profile != nil && len(in.Profile.Counts) > 0 {
		page.AddCharts(profileChart(in))
	}
	page.AddCharts(storeyChart(in), planChart(in))

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func initOpts(in Input, height string) charts.GlobalOpts {
	return charts.WithInitializationOpts(opts.Initialization{
		PageTitle:  in.title(),
		Width:      "100%",
		Height:     height,
		AssetsHost: AssetsHost,
	})
}

// profileChart shows point counts per elevation bin against the slab
// threshold.
func profileChart(in Input) *charts.Bar {
	p := in.Profile
	x := make([]string, len(p.Counts))
	counts := make([]opts.BarData, len(p.Counts))
	threshold := make([]opts.LineData, len(p.Counts))
	for i, c := range p.Counts {
		x[i] = fmt.Sprintf("%.2f", p.Center(i))
		counts[i] = opts.BarData{Value: c}
		threshold[i] = opts.LineData{Value: p.Threshold}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		initOpts(in, "420px"),
		charts.WithTitleOpts(opts.Title{Title: "Elevation profile", Subtitle: fmt.Sprintf("bin %.2f m, threshold %.0f points", p.Step, p.Threshold)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Z (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "points"}),
	)
	bar.SetXAxis(x).AddSeries("points", counts)

	line := charts.NewLine()
	line.SetXAxis(x).AddSeries("slab threshold", threshold)
	bar.Overlap(line)
	return bar
}

// storeyChart stacks element counts per storey.
func storeyChart(in Input) *charts.Bar {
	m := in.Model
	idx := m.StoreyIndices()
	x := make([]string, len(idx))
	series := map[elements.Kind][]opts.BarData{}
	for i, s := range idx {
		x[i] = fmt.Sprintf("storey %d", s)
		counts := map[elements.Kind]int{}
		for _, el := range m.ElementsOnStorey(s) {
			counts[el.Kind()]++
		}
		for _, k := range kinds {
			series[k] = append(series[k], opts.BarData{Value: counts[k]})
		}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		initOpts(in, "360px"),
		charts.WithTitleOpts(opts.Title{Title: "Elements per storey", Subtitle: fmt.Sprintf("%d points, %d elements", m.PointCount, m.Elements.Len())}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x)
	for _, k := range kinds {
		bar.AddSeries(k.String(), series[k], charts.WithBarChartOpts(opts.BarChart{Stack: "elements"}))
	}
	return bar
}

// planChart draws each footprint as a closed outline on value axes.
func planChart(in Input) *charts.Line {
	m := in.Model
	b := m.BoundsOrZero()
	pad := 0.5

	line := charts.NewLine()
	line.SetGlobalOptions(
		initOpts(in, "720px"),
		charts.WithTitleOpts(opts.Title{Title: "Plan", Subtitle: "element footprints"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "X (m)", Min: b.Min[0] - pad, Max: b.Max[0] + pad}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "Y (m)", Min: b.Min[1] - pad, Max: b.Max[1] + pad}),
	)
	for _, o := range outlines(m) {
		data := make([]opts.LineData, 0, len(o.Points))
		for _, p := range o.Points {
			data = append(data, opts.LineData{Value: []interface{}{p[0], p[1]}})
		}
		line.AddSeries(o.Kind.String(), data)
	}
	return line
}

package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/banshee-data/scan2bim/internal/bim/pipeline"
	"github.com/banshee-data/scan2bim/internal/fsutil"
)

func runConvert(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	formats := fs.String("format", "ifc", "Comma separated output formats ("+formatList()+")")
	outDir := fs.String("out", "", "Output directory (defaults to the input's directory)")
	merge := fs.Bool("merge-mesh", false, "Union all solids before meshing STL output")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("convert expects exactly one scan file, got %d", fs.NArg())
	}
	input := fs.Arg(0)

	fmts, err := parseFormats(*formats)
	if err != nil {
		return err
	}
	tuning, err := loadTuning(*configPath)
	if err != nil {
		return err
	}

	fsys := fsutil.OSFileSystem{}
	res, err := pipeline.Convert(ctx, fsys, input, pipeline.OptionsFromTuning(tuning))
	if err != nil {
		return err
	}

	m := res.Model
	fmt.Fprintf(out, "%s: %d points -> %d slabs, %d walls, %d columns, %d storeys\n",
		input, m.PointCount, len(m.Elements.Slabs), len(m.Elements.Walls), len(m.Elements.Columns), m.Storeys)
	if res.Filter.Input > 0 {
		fmt.Fprintf(out, "  cleaned %d points: %d outliers, %d after voxel grid\n", res.Filter.Input, res.Filter.Outliers, res.Filter.AfterVoxels)
	}
	for _, t := range res.Timings {
		fmt.Fprintf(out, "  %-10s %s\n", t.Stage, t.Duration.Round(time.Microsecond))
	}

	dir := *outDir
	if dir == "" {
		dir = filepath.Dir(input)
	}
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	opts := pipeline.ExportOptions{
		MeshCells: tuning.GetMeshCells(),
		MergeMesh: *merge,
		Title:     filepath.Base(input),
		Profile:   &res.Profile,
	}
	opts.IFC.FileName = base + pipeline.FormatIFC.Extension()
	for _, f := range fmts {
		var buf bytes.Buffer
		if err := pipeline.Export(&buf, f, m, opts); err != nil {
			return fmt.Errorf("export %s: %w", f, err)
		}
		path := filepath.Join(dir, base+f.Extension())
		if err := fsys.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %s (%d bytes)\n", path, buf.Len())
	}
	return nil
}

func parseFormats(s string) ([]pipeline.Format, error) {
	var out []pipeline.Format
	seen := map[pipeline.Format]bool{}
	for _, name := range strings.Split(s, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		f, err := pipeline.ParseFormat(name)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no output format given")
	}
	return out, nil
}

func formatList() string {
	names := make([]string, len(pipeline.Formats))
	for i, f := range pipeline.Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

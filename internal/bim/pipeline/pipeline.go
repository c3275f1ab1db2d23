package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/scan2bim/internal/bim"
	"github.com/banshee-data/scan2bim/internal/bim/detect"
	"github.com/banshee-data/scan2bim/internal/bim/elements"
	"github.com/banshee-data/scan2bim/internal/bim/ingest"
	"github.com/banshee-data/scan2bim/internal/bim/model"
	"github.com/banshee-data/scan2bim/internal/bim/sample"
	"github.com/banshee-data/scan2bim/internal/config"
	"github.com/banshee-data/scan2bim/internal/fsutil"
)

// Options configures a conversion.
type Options struct {
	Filter          ingest.FilterConfig
	Detect          *detect.Config
	AssignStoreys   bool
	StoreyTolerance float64
}

// DefaultOptions returns the stock conversion settings.
func DefaultOptions() Options {
	return Options{
		Filter:          ingest.DefaultFilterConfig(),
		Detect:          detect.DefaultConfig(),
		StoreyTolerance: model.DefaultStoreyTolerance,
	}
}

// OptionsFromTuning builds conversion settings from a tuning config.
func OptionsFromTuning(cfg *config.TuningConfig) Options {
	return Options{
		Filter:          ingest.FilterConfigFromTuning(cfg),
		Detect:          detect.ConfigFromTuning(cfg),
		AssignStoreys:   cfg.GetAssignStoreys(),
		StoreyTolerance: cfg.GetStoreyTolerance(),
	}
}

// Cleaned is the output of the clean stage.
type Cleaned struct {
	Points []bim.Vec3
	Stats  ingest.FilterStats
}

// Detection is the output of the detect stage.
type Detection struct {
	Sample  *sample.PointSample
	Profile detect.ZProfile
	Slabs   []elements.Slab
	Walls   []elements.Wall
	Columns []elements.Column
}

// Result is a finished conversion.
type Result struct {
	Model   *model.BuildingModel `json:"model"`
	Profile detect.ZProfile      `json:"profile"`
	Filter  ingest.FilterStats   `json:"filter"`
	Timings []Timing             `json:"timings"`
}

// LoadStage reads a scan file from fsys.
func LoadStage(fsys fsutil.FileSystem) Stage[string, []bim.Vec3] {
	return NewStage("load", func(_ context.Context, path string) ([]bim.Vec3, error) {
		return ingest.Load(fsys, path)
	})
}

// CleanStage removes outliers and downsamples.
func CleanStage(cfg ingest.FilterConfig) Stage[[]bim.Vec3, Cleaned] {
	return NewStage("clean", func(_ context.Context, pts []bim.Vec3) (Cleaned, error) {
		out, st, err := ingest.Clean(pts, cfg)
		return Cleaned{Points: out, Stats: st}, err
	})
}

// SampleStage validates the cleaned points into a PointSample.
func SampleStage() Stage[[]bim.Vec3, *sample.PointSample] {
	return NewStage("sample", func(_ context.Context, pts []bim.Vec3) (*sample.PointSample, error) {
		return sample.NewPointSample(pts)
	})
}

// DetectStage runs the three detectors concurrently over the same sample.
func DetectStage(cfg *detect.Config) Stage[*sample.PointSample, Detection] {
	return NewStage("detect", func(ctx context.Context, s *sample.PointSample) (Detection, error) {
		d := Detection{Sample: s}
		g, _ := errgroup.WithContext(ctx)
		g.Go(func() error {
			d.Slabs, d.Profile = detect.DetectSlabsWithProfile(s, cfg)
			return nil
		})
		g.Go(func() error {
			d.Walls = detect.DetectWalls(s, cfg)
			return nil
		})
		g.Go(func() error {
			d.Columns = detect.DetectColumns(s, cfg)
			return nil
		})
		if err := g.Wait(); err != nil {
			return Detection{}, err
		}
		return d, nil
	})
}

// AssembleStage bundles detections into a BuildingModel and optionally
// assigns storeys.
func AssembleStage(opts Options) Stage[Detection, *model.BuildingModel] {
	return NewStage("assemble", func(_ context.Context, d Detection) (*model.BuildingModel, error) {
		m := model.Assemble(d.Sample, d.Slabs, d.Walls, d.Columns)
		if opts.AssignStoreys {
			m = model.AssignStoreys(m, opts.StoreyTolerance)
		}
		return m, nil
	})
}

// FromPoints converts already-loaded points.
func FromPoints(ctx context.Context, pts []bim.Vec3, opts Options) (*Result, error) {
	rec := &Recorder{}
	cleaned, err := Timed(ctx, rec, CleanStage(opts.Filter), pts)
	if err != nil {
		return nil, err
	}
	res, err := FromSample(ctx, rec, cleaned.Points, opts)
	if err != nil {
		return nil, err
	}
	res.Filter = cleaned.Stats
	return res, nil
}

// FromSample runs sample validation, detection and assembly on points that
// are already clean. The returned Result has no filter stats.
func FromSample(ctx context.Context, rec *Recorder, pts []bim.Vec3, opts Options) (*Result, error) {
	s, err := Timed(ctx, rec, SampleStage(), pts)
	if err != nil {
		return nil, err
	}
	d, err := Timed(ctx, rec, DetectStage(opts.Detect), s)
	if err != nil {
		return nil, err
	}
	m, err := Timed(ctx, rec, AssembleStage(opts), d)
	if err != nil {
		return nil, err
	}
	res := &Result{Model: m, Profile: d.Profile}
	if rec != nil {
		res.Timings = rec.Timings
	}
	return res, nil
}

// Convert loads, cleans and converts the scan at path.
func Convert(ctx context.Context, fsys fsutil.FileSystem, path string, opts Options) (*Result, error) {
	rec := &Recorder{}
	pts, err := Timed(ctx, rec, LoadStage(fsys), path)
	if err != nil {
		return nil, err
	}
	res, err := FromPoints(ctx, pts, opts)
	if err != nil {
		return nil, err
	}
	res.Timings = append(rec.Timings, res.Timings...)
	m := res.Model
	bim.Opsf("pipeline: %s -> %d slabs, %d walls, %d columns",
		path, len(m.Elements.Slabs), len(m.Elements.Walls), len(m.Elements.Columns))
	return res, nil
}

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/banshee-data/scan2bim/internal/bim"
)

// Stage is one typed step of a conversion.
type Stage[I, O any] interface {
	Name() string
	Run(ctx context.Context, in I) (O, error)
}

type stageFunc[I, O any] struct {
	name string
	fn   func(context.Context, I) (O, error)
}

func (s stageFunc[I, O]) Name() string { return s.name }

func (s stageFunc[I, O]) Run(ctx context.Context, in I) (O, error) {
	if err := ctx.Err(); err != nil {
		var zero O
		return zero, fmt.Errorf("%s: %w", s.name, err)
	}
	return s.fn(ctx, in)
}

// NewStage wraps fn as a named Stage.
func NewStage[I, O any](name string, fn func(context.Context, I) (O, error)) Stage[I, O] {
	return stageFunc[I, O]{name: name, fn: fn}
}

// Timing records how long one stage ran.
type Timing struct {
	Stage    string        `json:"stage"`
	Duration time.Duration `json:"duration_ns"`
}

// Recorder collects stage timings. The zero value is ready to use; a nil
// Recorder records nothing.
type Recorder struct {
	Timings []Timing
}

func (r *Recorder) add(name string, d time.Duration) {
	if r == nil {
		return
	}
	r.Timings = append(r.Timings, Timing{Stage: name, Duration: d})
}

// Timed runs s, logs and records its duration, and wraps any error with
// the stage name.
func Timed[I, O any](ctx context.Context, rec *Recorder, s Stage[I, O], in I) (O, error) {
	start := time.Now()
	out, err := s.Run(ctx, in)
	d := time.Since(start)
	rec.add(s.Name(), d)
	if err != nil {
		bim.Opsf("pipeline: stage %s failed after %v: %v", s.Name(), d, err)
		var zero O
		return zero, fmt.Errorf("stage %s: %w", s.Name(), err)
	}
	bim.Diagf("pipeline: stage %s took %v", s.Name(), d)
	return out, nil
}

// Then composes two stages into one.
func Then[A, B, C any](first Stage[A, B], second Stage[B, C]) Stage[A, C] {
	return NewStage(first.Name()+"+"+second.Name(), func(ctx context.Context, in A) (C, error) {
		mid, err := first.Run(ctx, in)
		if err != nil {
			var zero C
			return zero, err
		}
		return second.Run(ctx, mid)
	})
}

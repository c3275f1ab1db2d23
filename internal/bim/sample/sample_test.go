package sample

import (
	"errors"
	"math"
	"testing"
)

func TestNewPointSample_ComputesBounds(t *testing.T) {
	s, err := NewPointSample([]Point{{1, 2, 3}, {-1, 5, 0}, {4, -2, 1}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b := s.Bounds()
	if b.Min != (Point{-1, -2, 0}) {
		t.Errorf("Min = %v, want [-1 -2 0]", b.Min)
	}
	if b.Max != (Point{4, 5, 3}) {
		t.Errorf("Max = %v, want [4 5 3]", b.Max)
	}
	if s.Len() != 3 {
		t.Errorf("Len = %d, want 3", s.Len())
	}
	if c := b.Center(); c != (Point{1.5, 1.5, 1.5}) {
		t.Errorf("Center = %v", c)
	}
}

func TestNewPointSample_CopiesInput(t *testing.T) {
	pts := []Point{{0, 0, 0}, {1, 1, 1}}
	s, err := NewPointSample(pts)
	if err != nil {
		t.Fatal(err)
	}
	pts[0] = Point{9, 9, 9}
	if s.At(0) != (Point{0, 0, 0}) {
		t.Errorf("sample changed after caller mutated input: %v", s.At(0))
	}
	out := s.Points()
	out[1] = Point{7, 7, 7}
	if s.At(1) != (Point{1, 1, 1}) {
		t.Errorf("sample changed after caller mutated Points(): %v", s.At(1))
	}
}

func TestNewPointSample_Empty(t *testing.T) {
	s, err := NewPointSample(nil)
	if err != nil {
		t.Fatalf("empty sample should be valid, got %v", err)
	}
	if !s.Empty() {
		t.Error("expected Empty() to be true")
	}
	if _, _, ok := s.ZRange(); ok {
		t.Error("ZRange should report !ok for empty sample")
	}
}

func TestNewPointSample_RejectsNonFinite(t *testing.T) {
	tests := []struct {
		name string
		pt   Point
	}{
		{"nan", Point{math.NaN(), 0, 0}},
		{"+inf", Point{0, math.Inf(1), 0}},
		{"-inf", Point{0, 0, math.Inf(-1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPointSample([]Point{{0, 0, 0}, tt.pt})
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Index != 1 || verr.Field != "points" {
				t.Errorf("got field=%s index=%d, want points/1", verr.Field, verr.Index)
			}
		})
	}
}

func TestNewPointSampleWithBounds(t *testing.T) {
	pts := []Point{{0, 0, 0}, {1, 1, 1}}

	t.Run("enclosing box accepted", func(t *testing.T) {
		b := Bounds{Min: Point{-1, -1, -1}, Max: Point{2, 2, 2}}
		s, err := NewPointSampleWithBounds(pts, b)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.Bounds() != b {
			t.Errorf("Bounds = %v, want %v", s.Bounds(), b)
		}
	})

	t.Run("point outside rejected", func(t *testing.T) {
		b := Bounds{Min: Point{0, 0, 0}, Max: Point{0.5, 2, 2}}
		_, err := NewPointSampleWithBounds(pts, b)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if verr.Index != 1 {
			t.Errorf("Index = %d, want 1", verr.Index)
		}
	})

	t.Run("inverted box rejected", func(t *testing.T) {
		b := Bounds{Min: Point{2, 0, 0}, Max: Point{1, 2, 2}}
		if _, err := NewPointSampleWithBounds(pts, b); err == nil {
			t.Fatal("expected error for min > max")
		}
	})

	t.Run("non-finite corner rejected", func(t *testing.T) {
		b := Bounds{Min: Point{0, 0, 0}, Max: Point{math.Inf(1), 2, 2}}
		if _, err := NewPointSampleWithBounds(pts, b); err == nil {
			t.Fatal("expected error for infinite corner")
		}
	})
}

func TestHeightBand_UpperFraction(t *testing.T) {
	s, err := NewPointSample([]Point{{0, 0, 0}, {0, 0, 1}, {0, 0, 2}, {0, 0, 3}, {0, 0, 4}})
	if err != nil {
		t.Fatal(err)
	}
	band := UpperFraction(0, 4, 0.5)
	kept := band.Filter(s)

	// z == 2 sits exactly on the cut and is excluded.
	if len(kept) != 2 {
		t.Fatalf("kept %d points, want 2: %v", len(kept), kept)
	}
	processed, inBand, below, above := band.Stats()
	if processed != 5 || inBand != 2 || below != 3 || above != 0 {
		t.Errorf("Stats = %d/%d/%d/%d, want 5/2/3/0", processed, inBand, below, above)
	}
	band.ResetStats()
	if p, _, _, _ := band.Stats(); p != 0 {
		t.Errorf("ResetStats left processed=%d", p)
	}
}

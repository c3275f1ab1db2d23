package grid

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Histogram1D is a fixed-width histogram over one axis. Bin i covers
// [Origin+i*Step, Origin+(i+1)*Step); the last bin also holds the maximum.
type Histogram1D struct {
	Origin float64
	Step   float64
	Counts []float64
}

// NewHistogram1D bins values with the given step, starting at their
// minimum. It returns an empty histogram when values is empty or step is
// not positive.
func NewHistogram1D(values []float64, step float64) *Histogram1D {
	if len(values) == 0 || !(step > 0) {
		return &Histogram1D{Step: step}
	}
	x := make([]float64, len(values))
	copy(x, values)
	sort.Float64s(x)
	lo, hi := x[0], x[len(x)-1]

	n := int(math.Ceil((hi - lo) / step))
	if n < 1 {
		n = 1
	}
	dividers := make([]float64, n+1)
	for i := range dividers {
		dividers[i] = lo + float64(i)*step
	}
	// stat.Histogram requires the last divider to be strictly above the
	// largest value.
	if dividers[n] <= hi {
		dividers[n] = math.Nextafter(hi, math.Inf(1))
	}

	return &Histogram1D{
		Origin: lo,
		Step:   step,
		Counts: stat.Histogram(nil, dividers, x, nil),
	}
}

// Len returns the number of bins.
func (h *Histogram1D) Len() int { return len(h.Counts) }

// Center returns the midpoint of bin i.
func (h *Histogram1D) Center(i int) float64 {
	return h.Origin + (float64(i)+0.5)*h.Step
}

// Max returns the largest bin count, or 0 for an empty histogram.
func (h *Histogram1D) Max() float64 {
	if len(h.Counts) == 0 {
		return 0
	}
	return floats.Max(h.Counts)
}

// Above returns the indices of bins whose count is strictly greater than
// threshold, in ascending order.
func (h *Histogram1D) Above(threshold float64) []int {
	var out []int
	for i, c := range h.Counts {
		if c > threshold {
			out = append(out, i)
		}
	}
	return out
}

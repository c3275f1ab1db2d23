package detect

import (
	"github.com/banshee-data/scan2bim/internal/bim"
	"github.com/banshee-data/scan2bim/internal/bim/elements"
	"github.com/banshee-data/scan2bim/internal/bim/grid"
	"github.com/banshee-data/scan2bim/internal/bim/sample"
)

// SlabCandidate is one histogram bin that passed the density threshold.
type SlabCandidate struct {
	Z     float64 // bin centre
	Count float64
}

// SlabCandidates returns the Z histogram of s together with the bins whose
// count exceeds cfg.SlabThresholdRatio of the peak, in ascending elevation.
func SlabCandidates(s *sample.PointSample, cfg *Config) (*grid.Histogram1D, []SlabCandidate) {
	cfg = orDefault(cfg)
	h := grid.NewHistogram1D(s.Zs(), cfg.SlabZStep)
	if h.Len() == 0 {
		return h, nil
	}
	threshold := cfg.SlabThresholdRatio * h.Max()
	idx := h.Above(threshold)
	out := make([]SlabCandidate, 0, len(idx))
	for _, i := range idx {
		out = append(out, SlabCandidate{Z: h.Center(i), Count: h.Counts[i]})
	}
	return h, out
}

// ZProfile is the elevation histogram that slab detection thresholds.
type ZProfile struct {
	Origin    float64   `json:"origin"`
	Step      float64   `json:"step"`
	Counts    []float64 `json:"counts"`
	Threshold float64   `json:"threshold"`
}

// Center returns the elevation at the middle of bin i.
func (p ZProfile) Center(i int) float64 {
	return p.Origin + (float64(i)+0.5)*p.Step
}

// Profile returns the Z histogram of s along with the slab threshold.
func Profile(s *sample.PointSample, cfg *Config) ZProfile {
	cfg = orDefault(cfg)
	h, _ := SlabCandidates(s, cfg)
	return profileOf(h, cfg)
}

func profileOf(h *grid.Histogram1D, cfg *Config) ZProfile {
	return ZProfile{
		Origin:    h.Origin,
		Step:      h.Step,
		Counts:    h.Counts,
		Threshold: cfg.SlabThresholdRatio * h.Max(),
	}
}

// DetectSlabs finds horizontal slabs as dense peaks of the Z profile.
// Neighbouring peaks closer than cfg.SlabMergeGap collapse into one slab
// at the mean of their bin centres.
func DetectSlabs(s *sample.PointSample, cfg *Config) []elements.Slab {
	cfg = orDefault(cfg)
	_, cands := SlabCandidates(s, cfg)
	return mergeSlabs(cands, cfg)
}

// DetectSlabsWithProfile is DetectSlabs that also returns the Z profile it
// thresholded, building the histogram once.
func DetectSlabsWithProfile(s *sample.PointSample, cfg *Config) ([]elements.Slab, ZProfile) {
	cfg = orDefault(cfg)
	h, cands := SlabCandidates(s, cfg)
	return mergeSlabs(cands, cfg), profileOf(h, cfg)
}

func mergeSlabs(cands []SlabCandidate, cfg *Config) []elements.Slab {
	if len(cands) == 0 {
		return nil
	}

	var slabs []elements.Slab
	group := []SlabCandidate{cands[0]}
	flush := func() {
		var sumZ, sumCount float64
		for _, c := range group {
			sumZ += c.Z
			sumCount += c.Count
		}
		slab := elements.Slab{
			Z:         sumZ / float64(len(group)),
			Thickness: cfg.SlabThickness,
			Density:   sumCount,
		}
		bim.Tracef("slab: z=%.3f from %d bins (%.0f points)", slab.Z, len(group), sumCount)
		slabs = append(slabs, slab)
	}
	for _, c := range cands[1:] {
		if c.Z-group[len(group)-1].Z < cfg.SlabMergeGap {
			group = append(group, c)
			continue
		}
		flush()
		group = []SlabCandidate{c}
	}
	flush()

	bim.Diagf("slabs: %d candidates merged into %d slabs", len(cands), len(slabs))
	return slabs
}

package ingest

import (
	"fmt"
	"math"

	"github.com/seqsense/pcgol/mat"
	"github.com/seqsense/pcgol/pc/filter/voxelgrid"
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/scan2bim/internal/bim"
	"github.com/banshee-data/scan2bim/internal/bim/sample"
	"github.com/banshee-data/scan2bim/internal/config"
)

// FilterConfig controls scan cleaning.
type FilterConfig struct {
	OutlierNeighbours int     // k nearest neighbours per point (default: 20, 0 disables)
	OutlierStdRatio   float64 // keep mean distance <= mu + ratio*sigma (default: 2.0)
	VoxelSize         float64 // voxel leaf size in metres (default: 0.05, 0 disables)
}

// DefaultFilterConfig returns the stock cleaning parameters.
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		OutlierNeighbours: 20,
		OutlierStdRatio:   2.0,
		VoxelSize:         0.05,
	}
}

// FilterConfigFromTuning reads the cleaning parameters from cfg.
func FilterConfigFromTuning(cfg *config.TuningConfig) FilterConfig {
	return FilterConfig{
		OutlierNeighbours: cfg.GetOutlierNeighbours(),
		OutlierStdRatio:   cfg.GetOutlierStdRatio(),
		VoxelSize:         cfg.GetVoxelSize(),
	}
}

// FilterStats records what the cleaning stages removed.
type FilterStats struct {
	Input       int `json:"input"`
	Outliers    int `json:"outliers"`
	AfterVoxels int `json:"after_voxels"`
}

// Clean runs outlier removal and then voxel downsampling. Points with a
// non-finite coordinate are rejected with a *sample.ValidationError before
// either stage sees them.
func Clean(pts []bim.Vec3, cfg FilterConfig) ([]bim.Vec3, FilterStats, error) {
	st := FilterStats{Input: len(pts)}
	if err := sample.CheckFinite(pts); err != nil {
		return nil, st, err
	}
	kept := RemoveStatisticalOutliers(pts, cfg.OutlierNeighbours, cfg.OutlierStdRatio)
	st.Outliers = len(pts) - len(kept)

	out, err := VoxelDownsample(kept, cfg.VoxelSize)
	if err != nil {
		return nil, st, err
	}
	st.AfterVoxels = len(out)
	bim.Opsf("ingest: %d points, %d outliers removed, %d after %.3fm voxels",
		st.Input, st.Outliers, st.AfterVoxels, cfg.VoxelSize)
	return out, st, nil
}

// RemoveStatisticalOutliers drops points whose mean distance to their k
// nearest neighbours exceeds the global mean of that statistic by more than
// stdRatio standard deviations. Samples with no more than k points, or
// k <= 0, are returned unchanged.
func RemoveStatisticalOutliers(pts []bim.Vec3, k int, stdRatio float64) []bim.Vec3 {
	if k <= 0 || len(pts) <= k {
		return append([]bim.Vec3(nil), pts...)
	}

	tp := make(kdtree.Points, len(pts))
	for i, p := range pts {
		tp[i] = kdtree.Point{p[0], p[1], p[2]}
	}
	// kdtree.New reorders its input, so query with the original points.
	tree := kdtree.New(append(kdtree.Points(nil), tp...), false)

	mean := make([]float64, len(pts))
	for i, q := range tp {
		keep := kdtree.NewNKeeper(k + 1)
		tree.NearestSet(keep, q)

		var sum float64
		var n int
		selfSkipped := false
		for _, cd := range keep.Heap {
			if cd.Comparable == nil {
				continue
			}
			if !selfSkipped && cd.Dist == 0 {
				selfSkipped = true
				continue
			}
			sum += math.Sqrt(cd.Dist)
			n++
		}
		if n > 0 {
			mean[i] = sum / float64(n)
		}
	}

	mu, sigma := stat.MeanStdDev(mean, nil)
	limit := mu + stdRatio*sigma
	out := make([]bim.Vec3, 0, len(pts))
	for i, p := range pts {
		if mean[i] <= limit {
			out = append(out, p)
		}
	}
	bim.Diagf("ingest: outlier limit %.4f (mu %.4f sigma %.4f), kept %d/%d", limit, mu, sigma, len(out), len(pts))
	return out
}

// VoxelDownsample replaces the points inside each cubic voxel of the given
// leaf size by their centroid. A non-positive size returns a copy of pts.
func VoxelDownsample(pts []bim.Vec3, size float64) ([]bim.Vec3, error) {
	if !(size > 0) || len(pts) == 0 {
		return append([]bim.Vec3(nil), pts...), nil
	}
	pp, err := toPointCloud(pts)
	if err != nil {
		return nil, fmt.Errorf("failed to build point cloud: %w", err)
	}
	leaf := float32(size)
	filtered, err := voxelgrid.New(mat.Vec3{leaf, leaf, leaf}).Filter(pp)
	if err != nil {
		return nil, fmt.Errorf("voxel filter failed: %w", err)
	}
	return fromPointCloud(filtered)
}

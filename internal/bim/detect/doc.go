// Package detect proposes structural elements from a point sample using
// density heuristics.
//
// DetectSlabs peaks the Z histogram, DetectWalls scans an XY occupancy grid
// of the upper height band, DetectColumns looks for local maxima of a
// coarser full-height grid. The detectors are pure functions over a
// read-only sample and may run concurrently. Degenerate input yields an
// empty result, never an error.
package detect

// Package grid owns Layer 2 of the building data model: density
// histograms over point samples.
//
// Histogram1D bins one coordinate (Z for slab detection). Grid2D bins the
// XY projection into square-ish cells for wall and column detection.
// Counts are float64 so the gonum helpers can operate on them directly.
package grid

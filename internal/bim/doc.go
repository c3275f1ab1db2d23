// Package bim is the root of the scan-to-building-model data model.
//
// The sub-packages are layered the same way a scan flows through the
// system:
//
//	ingest    L0  raw scan files, outlier removal, voxel downsampling
//	sample    L1  immutable point samples and their bounds
//	grid      L2  height histograms and XY occupancy grids
//	elements  L3  tagged slab/wall/column variants
//	detect    L3  density heuristics that propose elements
//	geometry  L4  profile/extrusion/placement synthesis
//	model     L5  building model assembly and edits
//
// Dependency rule: a layer may import layers below it, never above.
// pipeline is the composition root; export/* and report consume the
// finished model. None of the layers touch the database.
//
// This package itself only carries the shared Vec3 type and the
// ops/diag/trace log streams used by every layer.
package bim

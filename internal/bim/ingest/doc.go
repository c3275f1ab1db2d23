// Package ingest turns raw scan files into a cleaned point sample.
//
// Readers decode PCD (via pcgol) and delimited XYZ text. The cleaning stages
// mirror the usual scan preparation: statistical outlier removal over the k
// nearest neighbours followed by voxel-grid downsampling. Both stages are
// deterministic for a given input order.
package ingest

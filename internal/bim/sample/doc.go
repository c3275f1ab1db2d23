// Package sample owns Layer 1 of the building data model: the cleaned
// point sample every detector reads.
//
// A PointSample is immutable once constructed and carries an axis-aligned
// box that encloses every point. Construction is the only place a sample
// is validated; detectors trust it afterwards.
//
// Key types: Point, Bounds, PointSample, ValidationError, HeightBand.
package sample

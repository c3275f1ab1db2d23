// Package pipeline is the composition root for scan conversion.
//
// It wires the ingest, sample, detect and model layers into a chain of
// typed stages (load, clean, sample, detect, assemble) and the exporters
// into a single format switch. The pipeline owns no domain logic; every
// stage delegates to a layer package, so each stage can be run and tested
// on its own. None of the layer packages import pipeline.
package pipeline

// Package jobs records conversion requests in the job database and runs
// them on a bounded worker pool.
//
// A job moves uploaded -> processing -> completed|failed. A completed or
// failed job may be processed again; a processing job may not. Lookups of
// a job's model return a ModelResult whose Status says whether the model
// exists, so callers branch on a value instead of parsing errors.
package jobs

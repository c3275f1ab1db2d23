package jobs

import (
	"errors"
	"time"

	"github.com/banshee-data/scan2bim/internal/bim/model"
	"github.com/banshee-data/scan2bim/internal/bim/pipeline"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusUploaded   Status = "uploaded"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var (
	// ErrNotFound means no job has the requested id.
	ErrNotFound = errors.New("job not found")
	// ErrNotReady means the job exists but has no model yet.
	ErrNotReady = errors.New("model not ready")
	// ErrProcessing means the job is already being processed.
	ErrProcessing = errors.New("job is already processing")
	// ErrInvalidPatch wraps model patch validation failures.
	ErrInvalidPatch = errors.New("invalid model patch")
)

// Job is one conversion request.
type Job struct {
	ID          string     `json:"task_id"`
	Filename    string     `json:"filename"`
	UploadPath  string     `json:"-"`
	SizeBytes   int64      `json:"size_bytes"`
	Status      Status     `json:"status"`
	Error       string     `json:"error,omitempty"`
	Revision    int        `json:"revision"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ResultStatus classifies a model lookup.
type ResultStatus int

const (
	ResultOK ResultStatus = iota
	ResultNotFound
	ResultNotReady
)

func (s ResultStatus) String() string {
	switch s {
	case ResultOK:
		return "ok"
	case ResultNotFound:
		return "not_found"
	case ResultNotReady:
		return "not_ready"
	default:
		return "unknown"
	}
}

// ModelResult is the outcome of asking for a job's model. Job is set
// unless Status is ResultNotFound; Result only when Status is ResultOK.
type ModelResult struct {
	Status ResultStatus
	Job    *Job
	Result *pipeline.Result
}

// Model returns the building model, or nil when there is none.
func (r ModelResult) Model() *model.BuildingModel {
	if r.Result == nil {
		return nil
	}
	return r.Result.Model
}

// Err maps the status onto the package sentinels.
func (r ModelResult) Err() error {
	switch r.Status {
	case ResultNotFound:
		return ErrNotFound
	case ResultNotReady:
		return ErrNotReady
	default:
		return nil
	}
}

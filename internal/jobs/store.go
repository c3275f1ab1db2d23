package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/scan2bim/internal/bim/model"
	"github.com/banshee-data/scan2bim/internal/bim/pipeline"
	"github.com/banshee-data/scan2bim/internal/db"
	"github.com/banshee-data/scan2bim/internal/timeutil"
)

// Store persists jobs in the job database.
type Store struct {
	db    *db.DB
	clock timeutil.Clock
}

// NewStore returns a store over d. A nil clock uses the wall clock.
func NewStore(d *db.DB, clock timeutil.Clock) *Store {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Store{db: d, clock: clock}
}

// NewID returns a fresh job id.
func NewID() string { return uuid.NewString() }

const jobColumns = `job_id, filename, upload_path, size_bytes, status, error, revision,
	created_at, updated_at, started_at, completed_at`

// Create records a freshly uploaded scan. An empty j.ID is filled in.
func (s *Store) Create(ctx context.Context, j *Job) error {
	if j.ID == "" {
		j.ID = NewID()
	}
	now := s.clock.Now().UTC()
	j.Status, j.CreatedAt, j.UpdatedAt = StatusUploaded, now, now
	err := db.RetryOnBusy(func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO jobs (job_id, filename, upload_path, size_bytes, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			j.ID, j.Filename, j.UploadPath, j.SizeBytes, j.Status, now.UnixNano(), now.UnixNano())
		return err
	})
	if err != nil {
		return fmt.Errorf("inserting job %s: %w", j.ID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*Job, error) {
	var (
		j                  Job
		errMsg             sql.NullString
		created, updated   int64
		started, completed sql.NullInt64
	)
	if err := row.Scan(&j.ID, &j.Filename, &j.UploadPath, &j.SizeBytes, &j.Status, &errMsg, &j.Revision,
		&created, &updated, &started, &completed); err != nil {
		return nil, err
	}
	j.Error = errMsg.String
	j.CreatedAt = time.Unix(0, created).UTC()
	j.UpdatedAt = time.Unix(0, updated).UTC()
	j.StartedAt = optTime(started)
	j.CompletedAt = optTime(completed)
	return &j, nil
}

func optTime(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(0, v.Int64).UTC()
	return &t
}

// Get loads one job.
func (s *Store) Get(ctx context.Context, id string) (*Job, error) {
	j, err := scanJob(s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE job_id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading job %s: %w", id, err)
	}
	return j, nil
}

// List returns the newest jobs first, optionally restricted to status.
func (s *Store) List(ctx context.Context, status Status, limit int) ([]*Job, error) {
	if limit <= 0 {
		limit = 100
	}
	q := `SELECT ` + jobColumns + ` FROM jobs`
	args := []any{}
	if status != "" {
		q += ` WHERE status = ?`
		args = append(args, status)
	}
	q += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	defer rows.Close()
	var out []*Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// Claim moves a job into processing. It fails with ErrNotFound for an
// unknown id and ErrProcessing when the job is already running.
func (s *Store) Claim(ctx context.Context, id string) (*Job, error) {
	now := s.clock.Now().UTC().UnixNano()
	var n int64
	err := db.RetryOnBusy(func() error {
		res, err := s.db.ExecContext(ctx, `
			UPDATE jobs SET status = ?, error = NULL, started_at = ?, completed_at = NULL, updated_at = ?
			WHERE job_id = ? AND status != ?`,
			StatusProcessing, now, now, id, StatusProcessing)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("claiming job %s: %w", id, err)
	}
	if n == 0 {
		if _, err := s.Get(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrProcessing
	}
	return s.Get(ctx, id)
}

// Complete stores the conversion result and marks the job completed. Every
// completion starts a new revision and clears the edit log, so a revision
// number never names two different models of the same job.
func (s *Store) Complete(ctx context.Context, id string, res *pipeline.Result) error {
	body, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encoding result for %s: %w", id, err)
	}
	now := s.clock.Now().UTC().UnixNano()
	var n int64
	err = db.RetryOnBusy(func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()
		r, err := tx.ExecContext(ctx, `UPDATE jobs SET status = ?, result_json = ?, error = NULL,
			revision = revision + 1, completed_at = ?, updated_at = ? WHERE job_id = ?`,
			StatusCompleted, string(body), now, now, id)
		if err != nil {
			return err
		}
		if n, err = r.RowsAffected(); err != nil || n == 0 {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM model_edits WHERE job_id = ?`, id); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return fmt.Errorf("completing job %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Fail marks the job failed with cause. Any earlier result is discarded.
func (s *Store) Fail(ctx context.Context, id string, cause error) error {
	now := s.clock.Now().UTC().UnixNano()
	return s.finish(ctx, id, `UPDATE jobs SET status = ?, result_json = NULL, error = ?,
		completed_at = ?, updated_at = ? WHERE job_id = ?`,
		StatusFailed, cause.Error(), now, now, id)
}

func (s *Store) finish(ctx context.Context, id, query string, args ...any) error {
	var n int64
	err := db.RetryOnBusy(func() error {
		res, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("updating job %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Model looks up the conversion result of a job.
func (s *Store) Model(ctx context.Context, id string) (ModelResult, error) {
	j, err := s.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return ModelResult{Status: ResultNotFound}, nil
	}
	if err != nil {
		return ModelResult{}, err
	}
	if j.Status != StatusCompleted {
		return ModelResult{Status: ResultNotReady, Job: j}, nil
	}

	var body sql.NullString
	if err := s.db.QueryRowContext(ctx, `SELECT result_json FROM jobs WHERE job_id = ?`, id).Scan(&body); err != nil {
		return ModelResult{}, fmt.Errorf("loading result for %s: %w", id, err)
	}
	if !body.Valid {
		return ModelResult{Status: ResultNotReady, Job: j}, nil
	}
	var res pipeline.Result
	if err := json.Unmarshal([]byte(body.String), &res); err != nil {
		return ModelResult{}, fmt.Errorf("decoding result for %s: %w", id, err)
	}
	return ModelResult{Status: ResultOK, Job: j, Result: &res}, nil
}

// UpdateModel applies p to a completed job's model, bumps its revision and
// logs the edit. Validation failures wrap ErrInvalidPatch.
func (s *Store) UpdateModel(ctx context.Context, id string, p model.Patch) (ModelResult, error) {
	mr, err := s.Model(ctx, id)
	if err != nil || mr.Status != ResultOK {
		return mr, err
	}
	patched, err := mr.Result.Model.Apply(p)
	if err != nil {
		return ModelResult{}, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}
	res := *mr.Result
	res.Model = patched
	body, err := json.Marshal(&res)
	if err != nil {
		return ModelResult{}, fmt.Errorf("encoding result for %s: %w", id, err)
	}

	now := s.clock.Now().UTC()
	rev := mr.Job.Revision + 1
	err = db.RetryOnBusy(func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()
		r, err := tx.ExecContext(ctx, `UPDATE jobs SET result_json = ?, revision = ?, updated_at = ?
			WHERE job_id = ? AND revision = ? AND status = ?`,
			string(body), rev, now.UnixNano(), id, mr.Job.Revision, StatusCompleted)
		if err != nil {
			return err
		}
		if n, err := r.RowsAffected(); err != nil || n == 0 {
			return fmt.Errorf("job %s changed during update", id)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO model_edits (job_id, revision, fields, edited_at)
			VALUES (?, ?, ?, ?)`, id, rev, strings.Join(p.Fields(), ","), now.UnixNano()); err != nil {
			return err
		}
		return tx.Commit()
	})
	if err != nil {
		return ModelResult{}, fmt.Errorf("updating model for %s: %w", id, err)
	}

	j := *mr.Job
	j.Revision, j.UpdatedAt = rev, now
	return ModelResult{Status: ResultOK, Job: &j, Result: &res}, nil
}

// Edit is one logged model update.
type Edit struct {
	Revision int       `json:"revision"`
	Fields   []string  `json:"fields"`
	EditedAt time.Time `json:"edited_at"`
}

// Edits returns the model edit log of a job, oldest first.
func (s *Store) Edits(ctx context.Context, id string) ([]Edit, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT revision, fields, edited_at FROM model_edits WHERE job_id = ? ORDER BY revision`, id)
	if err != nil {
		return nil, fmt.Errorf("listing edits for %s: %w", id, err)
	}
	defer rows.Close()
	var out []Edit
	for rows.Next() {
		var (
			e      Edit
			fields string
			at     int64
		)
		if err := rows.Scan(&e.Revision, &fields, &at); err != nil {
			return nil, err
		}
		e.Fields = strings.Split(fields, ",")
		e.EditedAt = time.Unix(0, at).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

// RecoverInterrupted fails every job left in processing by a previous
// run of the service. It returns how many jobs it touched.
func (s *Store) RecoverInterrupted(ctx context.Context) (int, error) {
	now := s.clock.Now().UTC().UnixNano()
	res, err := s.db.ExecContext(ctx, `UPDATE jobs SET status = ?, error = ?, completed_at = ?, updated_at = ?
		WHERE status = ?`, StatusFailed, "interrupted by service restart", now, now, StatusProcessing)
	if err != nil {
		return 0, fmt.Errorf("recovering interrupted jobs: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Delete removes a job and its edit log.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.finish(ctx, id, `DELETE FROM jobs WHERE job_id = ?`, id)
}

package jobs

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/banshee-data/scan2bim/internal/bim/pipeline"
	"github.com/banshee-data/scan2bim/internal/fsutil"
	"github.com/banshee-data/scan2bim/internal/monitoring"
)

// ErrQueueFull is returned by Submit when every queue slot is taken.
var ErrQueueFull = errors.New("job queue is full")

// ErrStopped is returned by Submit after Stop.
var ErrStopped = errors.New("runner stopped")

// ConvertFunc runs one conversion. pipeline.Convert satisfies it.
type ConvertFunc func(ctx context.Context, fsys fsutil.FileSystem, path string, opts pipeline.Options) (*pipeline.Result, error)

// RunnerConfig configures a Runner.
type RunnerConfig struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
	Options   pipeline.Options

	// Convert defaults to pipeline.Convert.
	Convert ConvertFunc
	// OnFinish, when set, is called after each job settles.
	OnFinish func(id string, err error)
}

// Runner executes claimed jobs on a fixed pool of workers.
type Runner struct {
	store *Store
	fs    fsutil.FileSystem
	cfg   RunnerConfig

	queue chan string
	wg    sync.WaitGroup

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
}

// NewRunner returns a runner that reads uploads from fsys.
func NewRunner(store *Store, fsys fsutil.FileSystem, cfg RunnerConfig) *Runner {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.Convert == nil {
		cfg.Convert = pipeline.Convert
	}
	return &Runner{
		store: store,
		fs:    fsys,
		cfg:   cfg,
		queue: make(chan string, cfg.QueueSize),
	}
}

// Start launches the workers. Jobs run under ctx; cancelling it aborts
// them the same way Stop does.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true
	ctx, r.cancel = context.WithCancel(ctx)
	for i := 0; i < r.cfg.Workers; i++ {
		r.wg.Add(1)
		go r.work(ctx)
	}
	monitoring.Logf("jobs: started %d workers", r.cfg.Workers)
}

// Stop cancels running jobs and waits for the workers to exit. Jobs still
// queued stay in processing and are failed by the next
// RecoverInterrupted.
func (r *Runner) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	if r.cancel != nil {
		r.cancel()
	}
	close(r.queue)
	r.mu.Unlock()
	r.wg.Wait()
}

// Submit claims job id and queues it for conversion.
func (r *Runner) Submit(ctx context.Context, id string) (*Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return nil, ErrStopped
	}
	j, err := r.store.Claim(ctx, id)
	if err != nil {
		return nil, err
	}
	select {
	case r.queue <- id:
		monitoring.JobEventf(id, "queued")
		return j, nil
	default:
		if ferr := r.store.Fail(ctx, id, ErrQueueFull); ferr != nil {
			monitoring.JobEventf(id, "failed to release after full queue: %v", ferr)
		}
		return nil, ErrQueueFull
	}
}

func (r *Runner) work(ctx context.Context) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case id, ok := <-r.queue:
			if !ok {
				return
			}
			err := r.process(ctx, id)
			if r.cfg.OnFinish != nil {
				r.cfg.OnFinish(id, err)
			}
		}
	}
}

// process converts one job and records the outcome. The returned error is
// the conversion failure, if any.
func (r *Runner) process(ctx context.Context, id string) (err error) {
	j, err := r.store.Get(ctx, id)
	if err != nil {
		monitoring.JobEventf(id, "lookup failed: %v", err)
		return err
	}
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	monitoring.JobEventf(id, "processing %s (%d bytes)", j.Filename, j.SizeBytes)
	res, err := r.convert(ctx, j.UploadPath)

	// Settle with a fresh context so a cancelled job is still recorded.
	settle, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err != nil {
		monitoring.JobEventf(id, "failed after %s: %v", time.Since(start).Round(time.Millisecond), err)
		if ferr := r.store.Fail(settle, id, err); ferr != nil {
			monitoring.JobEventf(id, "recording failure: %v", ferr)
		}
		return err
	}
	if cerr := r.store.Complete(settle, id, res); cerr != nil {
		monitoring.JobEventf(id, "recording result: %v", cerr)
		return cerr
	}
	m := res.Model
	monitoring.JobEventf(id, "completed in %s: %d slabs, %d walls, %d columns",
		time.Since(start).Round(time.Millisecond),
		len(m.Elements.Slabs), len(m.Elements.Walls), len(m.Elements.Columns))
	return nil
}

func (r *Runner) convert(ctx context.Context, path string) (res *pipeline.Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			monitoring.Logf("jobs: conversion panic: %v\n%s", p, debug.Stack())
			res, err = nil, fmt.Errorf("conversion panicked: %v", p)
		}
	}()
	return r.cfg.Convert(ctx, r.fs, path, r.cfg.Options)
}

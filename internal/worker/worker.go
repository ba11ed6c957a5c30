// Package worker drains the jobs table: a fixed number of pollers claim due
// jobs, hand them to the JobHandler registered for their type and record the
// outcome. Failed jobs are rescheduled by the store until they run out of
// attempts.
package worker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/DukeRupert/greenmarine/internal/metrics"
	"github.com/DukeRupert/greenmarine/internal/repository"
)

type Worker struct {
	store    Store
	config   Config
	logger   *slog.Logger
	handlers map[string]JobHandler

	wake     chan struct{}
	quit     chan struct{}
	quitOnce sync.Once
	pollers  sync.WaitGroup
}

// New validates config. Register handlers before calling Start.
func New(store Store, config Config, logger *slog.Logger) (*Worker, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("worker config: %w", err)
	}
	return &Worker{
		store:    store,
		config:   config,
		logger:   logger,
		handlers: map[string]JobHandler{},
		wake:     make(chan struct{}, 1),
		quit:     make(chan struct{}),
	}, nil
}

// Register routes jobs of h.Type() to h, replacing any earlier handler.
func (w *Worker) Register(h JobHandler) {
	if _, dup := w.handlers[h.Type()]; dup {
		w.logger.Warn("Replacing job handler", "job_type", h.Type())
	}
	w.handlers[h.Type()] = h
}

// Notify wakes an idle poller. Safe to call from any goroutine; extra
// notifications while one is pending are dropped.
func (w *Worker) Notify() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Start resets jobs orphaned by a previous process and launches the pollers.
func (w *Worker) Start(ctx context.Context) {
	if n, err := w.store.RecoverStale(ctx, w.config.StaleJobThreshold); err != nil {
		w.logger.Error("Failed to recover stale jobs", "error", err)
	} else if n > 0 {
		w.logger.Warn("Recovered stale jobs", "count", n, "threshold", w.config.StaleJobThreshold)
	}

	w.pollers.Add(w.config.Concurrency)
	for id := 1; id <= w.config.Concurrency; id++ {
		go w.poll(ctx, w.logger.With("worker_id", id))
	}
	w.logger.Info("Worker started", "concurrency", w.config.Concurrency)
}

// Stop asks the pollers to finish their current job and waits at most
// ShutdownTimeout for them.
func (w *Worker) Stop() {
	w.quitOnce.Do(func() { close(w.quit) })

	done := make(chan struct{})
	go func() {
		w.pollers.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("Worker stopped")
	case <-time.After(w.config.ShutdownTimeout):
		w.logger.Warn("Worker shutdown timed out with jobs still running")
	}
}

func (w *Worker) stopping() bool {
	select {
	case <-w.quit:
		return true
	default:
		return false
	}
}

func (w *Worker) poll(ctx context.Context, logger *slog.Logger) {
	defer w.pollers.Done()

	tick := time.NewTicker(w.config.PollInterval)
	defer tick.Stop()

	for {
		select {
		case <-w.quit:
			return
		case <-ctx.Done():
			return
		case <-tick.C:
		case <-w.wake:
		}
		w.drain(ctx, logger)
	}
}

// drain runs due jobs back to back until the queue is empty.
func (w *Worker) drain(ctx context.Context, logger *slog.Logger) {
	for !w.stopping() {
		err := w.processNextJob(ctx, logger)
		if errors.Is(err, sql.ErrNoRows) {
			return
		}
		if err != nil {
			logger.Error("Failed to process job", "error", err)
			return
		}
	}
}

// processNextJob claims one job and runs it. sql.ErrNoRows means the queue
// had nothing due.
func (w *Worker) processNextJob(ctx context.Context, logger *slog.Logger) error {
	job, err := w.store.Claim(ctx)
	if err != nil {
		return err
	}
	logger = logger.With("job_id", job.ID, "job_type", job.JobType, "attempt", job.Attempts)

	metrics.JobStarted(job.JobType)
	start := time.Now()
	jobErr := w.executeJob(ctx, job)
	elapsed := time.Since(start)

	if jobErr != nil {
		logger.Error("Job failed", "error", jobErr)
		w.recordFailure(ctx, job, jobErr, elapsed, logger)
		return nil
	}

	logger.Info("Job completed", "duration_ms", elapsed.Milliseconds())
	metrics.JobCompleted(job.JobType, elapsed)
	if err := w.store.Complete(ctx, job.ID); err != nil {
		return fmt.Errorf("complete job %s: %w", job.ID, err)
	}
	return nil
}

func (w *Worker) executeJob(ctx context.Context, job repository.Job) error {
	h, ok := w.handlers[job.JobType]
	if !ok {
		return NewPermanentError(fmt.Errorf("no handler for job type %q", job.JobType))
	}

	ctx, cancel := context.WithTimeout(ctx, w.config.JobTimeout)
	defer cancel()
	return h.Handle(ctx, job.Payload)
}

// recordFailure hands the error to the store, which either reschedules the
// job with backoff or marks it failed for good.
func (w *Worker) recordFailure(ctx context.Context, job repository.Job, jobErr error, elapsed time.Duration, logger *slog.Logger) {
	permanent := IsPermanent(jobErr)

	status, err := w.store.Fail(ctx, job.ID, jobErr.Error(), permanent)
	switch {
	case err != nil:
		logger.Error("Failed to record job failure", "error", err)
		metrics.JobFailed(job.JobType, elapsed)
	case status == StatusPending:
		metrics.JobRetried(job.JobType, elapsed)
	default:
		if permanent {
			logger.Warn("Job will not be retried")
		}
		metrics.JobFailed(job.JobType, elapsed)
	}
}

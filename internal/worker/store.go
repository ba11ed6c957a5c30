package worker

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/DukeRupert/greenmarine/internal/repository"
)

// Job statuses returned by Store.Fail.
const (
	StatusPending = "pending"
	StatusFailed  = "failed"
)

// Store is the job queue the worker drains.
type Store interface {
	// Claim dequeues the next due job and marks it running.
	// Returns sql.ErrNoRows when nothing is due.
	Claim(ctx context.Context) (repository.Job, error)

	// Complete marks the job done.
	Complete(ctx context.Context, id uuid.UUID) error

	// Fail records the error and returns the resulting status: StatusPending
	// when the job was rescheduled, StatusFailed when it will not run again.
	Fail(ctx context.Context, id uuid.UUID, message string, permanent bool) (string, error)

	// RecoverStale resets running jobs started before threshold ago.
	RecoverStale(ctx context.Context, threshold time.Duration) (int64, error)
}

// PostgresStore implements Store on the jobs table.
type PostgresStore struct {
	db      *sql.DB
	queries *repository.Queries
}

// NewPostgresStore creates a job store.
func NewPostgresStore(db *sql.DB, queries *repository.Queries) *PostgresStore {
	return &PostgresStore{db: db, queries: queries}
}

func (s *PostgresStore) Claim(ctx context.Context) (repository.Job, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return repository.Job{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)

	job, err := qtx.DequeueJob(ctx)
	if err != nil {
		return repository.Job{}, err
	}
	if err := qtx.UpdateJobStarted(ctx, job.ID); err != nil {
		return repository.Job{}, fmt.Errorf("mark job started: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return repository.Job{}, fmt.Errorf("commit dequeue: %w", err)
	}

	job.Attempts++
	return job, nil
}

func (s *PostgresStore) Complete(ctx context.Context, id uuid.UUID) error {
	if err := s.queries.UpdateJobCompleted(ctx, id); err != nil {
		return fmt.Errorf("update job completed: %w", err)
	}
	return nil
}

func (s *PostgresStore) Fail(ctx context.Context, id uuid.UUID, message string, permanent bool) (string, error) {
	status, err := s.queries.UpdateJobFailed(ctx, repository.UpdateJobFailedParams{
		ErrorMessage: sql.NullString{String: message, Valid: true},
		Permanent:    permanent,
		ID:           id,
	})
	if err != nil {
		return "", fmt.Errorf("update job failed: %w", err)
	}
	return status, nil
}

func (s *PostgresStore) RecoverStale(ctx context.Context, threshold time.Duration) (int64, error) {
	return s.queries.RecoverStaleJobs(ctx, threshold.Seconds())
}

var _ Store = (*PostgresStore)(nil)

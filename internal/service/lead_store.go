package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/DukeRupert/greenmarine/internal/repository"
	"github.com/DukeRupert/greenmarine/internal/worker"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// errDuplicateSubmission means the submission id is already stored.
var errDuplicateSubmission = errors.New("duplicate submission")

// LeadStore persists leads and schedules their delivery.
type LeadStore interface {
	// CreateWithDelivery stores the lead and enqueues its forwarding job
	// atomically. Returns errDuplicateSubmission when the submission id
	// already exists.
	CreateWithDelivery(ctx context.Context, params repository.CreateLeadParams) (repository.Lead, error)

	GetLead(ctx context.Context, id uuid.UUID) (repository.Lead, error)
	GetLeadBySubmissionID(ctx context.Context, submissionID uuid.UUID) (repository.Lead, error)
}

// PostgresLeadStore implements LeadStore with one transaction per lead.
type PostgresLeadStore struct {
	db      *sql.DB
	queries *repository.Queries
}

// NewPostgresLeadStore creates a lead store.
func NewPostgresLeadStore(db *sql.DB, queries *repository.Queries) *PostgresLeadStore {
	return &PostgresLeadStore{db: db, queries: queries}
}

func (s *PostgresLeadStore) CreateWithDelivery(ctx context.Context, params repository.CreateLeadParams) (repository.Lead, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return repository.Lead{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	qtx := s.queries.WithTx(tx)

	lead, err := qtx.CreateLead(ctx, params)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.Lead{}, errDuplicateSubmission
		}
		return repository.Lead{}, fmt.Errorf("create lead: %w", err)
	}

	if _, err := worker.EnqueueForwardLead(ctx, qtx, lead.ID); err != nil {
		return repository.Lead{}, err
	}

	if err := tx.Commit(); err != nil {
		return repository.Lead{}, fmt.Errorf("commit lead: %w", err)
	}
	return lead, nil
}

func (s *PostgresLeadStore) GetLead(ctx context.Context, id uuid.UUID) (repository.Lead, error) {
	return s.queries.GetLead(ctx, id)
}

func (s *PostgresLeadStore) GetLeadBySubmissionID(ctx context.Context, submissionID uuid.UUID) (repository.Lead, error) {
	return s.queries.GetLeadBySubmissionID(ctx, submissionID)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

var _ LeadStore = (*PostgresLeadStore)(nil)

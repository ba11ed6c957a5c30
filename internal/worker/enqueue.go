package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/DukeRupert/greenmarine/internal/repository"
)

// JobTypeForwardLead delivers a stored lead to the CRM and by email.
const JobTypeForwardLead = "forward_lead"

const (
	PriorityNormal = 10
	PriorityHigh   = 20

	DefaultMaxAttempts = 8
)

// ForwardLeadPayload is stored with forward_lead jobs.
type ForwardLeadPayload struct {
	LeadID uuid.UUID `json:"lead_id"`
}

// Enqueuer is satisfied by *repository.Queries, including copies bound to
// a transaction with WithTx.
type Enqueuer interface {
	EnqueueJob(ctx context.Context, arg repository.EnqueueJobParams) (repository.Job, error)
}

// EnqueueOption adjusts the row before it is inserted.
type EnqueueOption func(*repository.EnqueueJobParams)

func WithPriority(priority int32) EnqueueOption {
	return func(p *repository.EnqueueJobParams) { p.Priority = priority }
}

func WithMaxAttempts(n int32) EnqueueOption {
	return func(p *repository.EnqueueJobParams) { p.MaxAttempts = n }
}

// WithDelay postpones the first attempt.
func WithDelay(d time.Duration) EnqueueOption {
	return func(p *repository.EnqueueJobParams) { p.ScheduledAt = p.ScheduledAt.Add(d) }
}

// EnqueueJob inserts a pending job carrying payload as JSON.
func EnqueueJob(ctx context.Context, q Enqueuer, jobType string, payload any, opts ...EnqueueOption) (repository.Job, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return repository.Job{}, fmt.Errorf("encode %s payload: %w", jobType, err)
	}

	params := repository.EnqueueJobParams{
		JobType:     jobType,
		Payload:     raw,
		Priority:    PriorityNormal,
		MaxAttempts: DefaultMaxAttempts,
		ScheduledAt: time.Now(),
	}
	for _, opt := range opts {
		opt(&params)
	}

	job, err := q.EnqueueJob(ctx, params)
	if err != nil {
		return repository.Job{}, fmt.Errorf("enqueue %s: %w", jobType, err)
	}
	return job, nil
}

func EnqueueForwardLead(ctx context.Context, q Enqueuer, leadID uuid.UUID, opts ...EnqueueOption) (repository.Job, error) {
	return EnqueueJob(ctx, q, JobTypeForwardLead, ForwardLeadPayload{LeadID: leadID}, opts...)
}

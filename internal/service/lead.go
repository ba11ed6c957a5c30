// Package service contains the business logic layer.
//
// This file implements lead intake: validation, persistence and scheduling
// of the delivery job.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/DukeRupert/greenmarine/internal/domain"
	"github.com/DukeRupert/greenmarine/internal/metrics"
	"github.com/DukeRupert/greenmarine/internal/monitor"
	"github.com/DukeRupert/greenmarine/internal/repository"
	"github.com/DukeRupert/greenmarine/internal/wizard"
)

// =============================================================================
// Interface Definition
// =============================================================================

// LeadService accepts leads from the wizard and from direct submissions.
type LeadService interface {
	// Submit stores a completed wizard payload. Re-submitting the same
	// SubmissionID is a no-op. Implements wizard.LeadSink.
	Submit(ctx context.Context, payload domain.LeadPayload) error

	// SubmitDirect recomputes the recommendation from raw answers and
	// stores the lead. Returns the stored payload.
	SubmitDirect(ctx context.Context, req DirectLeadRequest) (*domain.LeadPayload, error)

	// GetByID returns a stored lead.
	// Returns domain.ENOTFOUND if the lead does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error)
}

// DirectLeadRequest is a lead submitted without a server-side wizard session.
type DirectLeadRequest struct {
	SubmissionID uuid.UUID // Optional; generated when zero
	Contact      domain.ContactDetails
	Answers      domain.BoatAnswers
}

// Notifier wakes the delivery worker.
type Notifier interface {
	Notify()
}

// =============================================================================
// Implementation
// =============================================================================

// monitorTimeout bounds each monitor event relayed off the submit path.
const monitorTimeout = 5 * time.Second

type leadService struct {
	store       LeadStore
	recommender wizard.Recommender
	notifier    Notifier
	monitor     monitor.Recorder
	logger      *slog.Logger
	now         func() time.Time
	relays      sync.WaitGroup
}

// NewLeadService creates a LeadService. notifier may be nil when no worker
// runs in this process.
func NewLeadService(
	store LeadStore,
	recommender wizard.Recommender,
	notifier Notifier,
	recorder monitor.Recorder,
	logger *slog.Logger,
) LeadService {
	if recorder == nil {
		recorder = monitor.Nop{}
	}
	return &leadService{
		store:       store,
		recommender: recommender,
		notifier:    notifier,
		monitor:     recorder,
		logger:      logger,
		now:         time.Now,
	}
}

// Submit implements LeadService.
func (s *leadService) Submit(ctx context.Context, payload domain.LeadPayload) error {
	const op = "lead.submit"

	payload.Contact = payload.Contact.Trimmed()
	if err := payload.Contact.Validate(op); err != nil {
		return err
	}
	if payload.SubmissionID == uuid.Nil {
		return domain.Invalid(op, "submission id is required")
	}
	if payload.Source == "" {
		payload.Source = domain.LeadSourceCalculator
	}
	if payload.SubmittedAt.IsZero() {
		payload.SubmittedAt = s.now()
	}

	s.record(ctx, monitor.EventLeadReceived, map[string]any{
		"submissionId": payload.SubmissionID,
		"firstName":    payload.Contact.FirstName,
		"lastName":     payload.Contact.LastName,
		"email":        payload.Contact.Email,
		"boatType":     payload.Answers.BoatType,
	}, nil)

	params, err := createLeadParams(payload)
	if err != nil {
		return domain.Internal(err, op, "failed to encode recommendation")
	}

	lead, err := s.store.CreateWithDelivery(ctx, params)
	if errors.Is(err, errDuplicateSubmission) {
		s.logger.Info("duplicate lead submission ignored", "submission_id", payload.SubmissionID)
		return nil
	}
	if err != nil {
		s.logger.Error("failed to store lead", "submission_id", payload.SubmissionID, "error", err)
		s.record(ctx, monitor.EventLeadError, map[string]any{
			"submissionId": payload.SubmissionID,
			"email":        payload.Contact.Email,
		}, err)
		return domain.Unavailable(err, op, wizard.SubmitFailedMessage)
	}

	s.logger.Info("lead stored",
		"lead_id", lead.ID,
		"submission_id", lead.SubmissionID,
		"motor", lead.RecommendedMotor,
	)
	s.record(ctx, monitor.EventLeadSaved, map[string]any{"leadId": lead.ID}, nil)

	if s.notifier != nil {
		s.notifier.Notify()
	}
	return nil
}

// record relays a monitor event in the background. The event outlives the
// request context but not monitorTimeout.
func (s *leadService) record(ctx context.Context, eventType string, data map[string]any, err error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), monitorTimeout)
	s.relays.Add(1)
	go func() {
		defer s.relays.Done()
		defer cancel()
		s.monitor.Record(ctx, eventType, data, err)
	}()
}

// SubmitDirect implements LeadService.
func (s *leadService) SubmitDirect(ctx context.Context, req DirectLeadRequest) (*domain.LeadPayload, error) {
	const op = "lead.direct"

	contact := req.Contact.Trimmed()
	verr := &domain.ValidationError{Op: op}
	if err := contact.Validate(op); err != nil {
		var cv *domain.ValidationError
		if errors.As(err, &cv) {
			for k, v := range cv.Fields {
				verr.Add(k, v)
			}
		}
	}
	if err := req.Answers.Validate(op); err != nil {
		var av *domain.ValidationError
		if errors.As(err, &av) {
			for k, v := range av.Fields {
				verr.Add(k, v)
			}
		}
	}
	if verr.HasErrors() {
		metrics.LeadSubmitted("direct", verr)
		return nil, verr
	}

	submissionID := req.SubmissionID
	if submissionID == uuid.Nil {
		submissionID = uuid.New()
	}

	payload := &domain.LeadPayload{
		SubmissionID:   submissionID,
		Contact:        contact,
		Answers:        req.Answers,
		Recommendation: s.recommender.Recommend(req.Answers.Parameters()),
		SubmittedAt:    s.now(),
		Source:         domain.LeadSourceCalculator,
	}

	err := s.Submit(ctx, *payload)
	metrics.LeadSubmitted("direct", err)
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// GetByID implements LeadService.
func (s *leadService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error) {
	const op = "lead.get"

	row, err := s.store.GetLead(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "lead", id.String())
		}
		return nil, domain.Internal(err, op, "failed to get lead")
	}
	return toDomainLead(row), nil
}

// =============================================================================
// Mapping
// =============================================================================

// createLeadParams stores the engine input, not the raw answers, so the
// stored dimensions are the ones the recommendation was computed from.
func createLeadParams(p domain.LeadPayload) (repository.CreateLeadParams, error) {
	rec := p.Recommendation
	recJSON, err := json.Marshal(rec)
	if err != nil {
		return repository.CreateLeadParams{}, err
	}

	return repository.CreateLeadParams{
		SubmissionID:            p.SubmissionID,
		FirstName:               p.Contact.FirstName,
		LastName:                p.Contact.LastName,
		Email:                   p.Contact.Email,
		Phone:                   p.Contact.Phone,
		CustomerType:            string(p.Answers.CustomerType),
		BoatType:                string(p.Answers.BoatType),
		BoatLengthM:             rec.Input.LengthMeters,
		BoatWeightKg:            rec.Input.WeightKg,
		CurrentDrive:            string(p.Answers.CurrentDrive),
		WaterType:               string(p.Answers.WaterType),
		TripDuration:            string(p.Answers.TripDuration),
		RecommendedMotor:        rec.SelectedMotor.Name,
		RecommendedMotorPowerKw: rec.SelectedMotor.RatedPowerKw,
		RecommendedBatteryKwh:   rec.SelectedBatteryKwh,
		RecommendedSpeedKmh:     rec.CruisingSpeedKmh,
		RecommendedHours:        rec.EstimatedCruisingHours,
		BatteryOptionsKwh:       rec.SelectedMotor.BatteryOptionsKwh,
		Recommendation:          recJSON,
		Source:                  p.Source,
		SubmittedAt:             p.SubmittedAt,
	}, nil
}

func toDomainLead(row repository.Lead) *domain.Lead {
	lead := &domain.Lead{
		ID:           row.ID,
		SubmissionID: row.SubmissionID,
		Contact: domain.ContactDetails{
			FirstName: row.FirstName,
			LastName:  row.LastName,
			Email:     row.Email,
			Phone:     row.Phone,
		},
		Answers: domain.BoatAnswers{
			CustomerType: domain.CustomerType(row.CustomerType),
			BoatType:     domain.BoatType(row.BoatType),
			LengthMeters: row.BoatLengthM,
			WeightKg:     row.BoatWeightKg,
			CurrentDrive: domain.DriveType(row.CurrentDrive),
			WaterType:    domain.WaterType(row.WaterType),
			TripDuration: domain.TripDuration(row.TripDuration),
		},
		RecommendedMotor:        row.RecommendedMotor,
		RecommendedMotorPowerKw: row.RecommendedMotorPowerKw,
		RecommendedBatteryKwh:   row.RecommendedBatteryKwh,
		RecommendedSpeedKmh:     row.RecommendedSpeedKmh,
		RecommendedHours:        row.RecommendedHours,
		BatteryOptionsKwh:       row.BatteryOptionsKwh,
		Source:                  row.Source,
		Status:                  domain.LeadStatus(row.Status),
		SheetKey:                row.SheetKey.String,
		SubmittedAt:             row.SubmittedAt,
		CreatedAt:               row.CreatedAt,
	}
	if row.CrmPersonID.Valid {
		id := row.CrmPersonID.Int64
		lead.CRMPersonID = &id
	}
	if row.ForwardedAt.Valid {
		t := row.ForwardedAt.Time
		lead.ForwardedAt = &t
	}
	return lead
}

// PayloadFromLead rebuilds the submission payload from a stored row.
func PayloadFromLead(row repository.Lead) (domain.LeadPayload, error) {
	var rec domain.Recommendation
	if err := json.Unmarshal(row.Recommendation, &rec); err != nil {
		return domain.LeadPayload{}, err
	}
	lead := toDomainLead(row)
	return domain.LeadPayload{
		SubmissionID:   row.SubmissionID,
		Contact:        lead.Contact,
		Answers:        lead.Answers,
		Recommendation: rec,
		SubmittedAt:    row.SubmittedAt,
		Source:         row.Source,
	}, nil
}

var _ wizard.LeadSink = (*leadService)(nil)

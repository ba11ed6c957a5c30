package jobs

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"

	"github.com/DukeRupert/greenmarine/internal/crm"
	"github.com/DukeRupert/greenmarine/internal/domain"
	"github.com/DukeRupert/greenmarine/internal/email"
	"github.com/DukeRupert/greenmarine/internal/events"
	"github.com/DukeRupert/greenmarine/internal/metrics"
	"github.com/DukeRupert/greenmarine/internal/monitor"
	"github.com/DukeRupert/greenmarine/internal/report"
	"github.com/DukeRupert/greenmarine/internal/repository"
	"github.com/DukeRupert/greenmarine/internal/service"
	"github.com/DukeRupert/greenmarine/internal/storage"
	"github.com/DukeRupert/greenmarine/internal/worker"
)

// sheetURLExpiry is how long links to stored sheets stay valid.
const sheetURLExpiry = 7 * 24 * time.Hour

// LeadQueries is the subset of repository.Queries used by the handler.
type LeadQueries interface {
	GetLead(ctx context.Context, id uuid.UUID) (repository.Lead, error)
	SetLeadSheetKey(ctx context.Context, arg repository.SetLeadSheetKeyParams) error
	SetLeadCRMPerson(ctx context.Context, arg repository.SetLeadCRMPersonParams) error
	MarkLeadForwarded(ctx context.Context, id uuid.UUID) error
	MarkLeadFailed(ctx context.Context, id uuid.UUID) error
}

// ForwardLeadDeps groups the collaborators of ForwardLeadHandler. Only
// Queries is required; nil collaborators skip their step.
type ForwardLeadDeps struct {
	Queries    LeadQueries
	CRM        crm.Client
	Email      email.EmailService
	Sheets     report.Generator
	Storage    storage.Storage
	Publisher  events.Publisher
	Monitor    monitor.Recorder
	SalesEmail string
}

// ForwardLeadHandler delivers a stored lead: it renders and stores the
// recommendation sheet, creates the CRM person with a pinned note, sends the
// notification emails and publishes a lead event.
type ForwardLeadHandler struct {
	deps   ForwardLeadDeps
	logger *slog.Logger
}

// NewForwardLeadHandler creates a new handler for lead forwarding jobs.
func NewForwardLeadHandler(deps ForwardLeadDeps, logger *slog.Logger) *ForwardLeadHandler {
	if deps.Publisher == nil {
		deps.Publisher = events.NopPublisher{}
	}
	if deps.Monitor == nil {
		deps.Monitor = monitor.Nop{}
	}
	return &ForwardLeadHandler{deps: deps, logger: logger}
}

// Type returns the job type identifier.
func (h *ForwardLeadHandler) Type() string {
	return worker.JobTypeForwardLead
}

// Handle executes the forwarding job. CRM failures are retried unless Pipedrive
// rejected the request outright. Sheet, email and event failures are logged
// and do not fail the job.
func (h *ForwardLeadHandler) Handle(ctx context.Context, payload []byte) error {
	var p worker.ForwardLeadPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return worker.NewPermanentError(fmt.Errorf("invalid payload: %w", err))
	}

	logger := h.logger.With("lead_id", p.LeadID)

	// 1. Fetch the lead
	lead, err := h.deps.Queries.GetLead(ctx, p.LeadID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return worker.NewPermanentError(fmt.Errorf("lead not found: %w", err))
		}
		return fmt.Errorf("fetch lead: %w", err)
	}

	if domain.LeadStatus(lead.Status) == domain.LeadStatusForwarded {
		logger.Info("Lead already forwarded, skipping")
		return nil
	}

	leadPayload, err := service.PayloadFromLead(lead)
	if err != nil {
		return worker.NewPermanentError(fmt.Errorf("decode recommendation: %w", err))
	}
	summary := report.NewSummary(lead.ID, leadPayload)

	// 2. Recommendation sheet
	sheetKey, sheetURL := h.storeSheet(ctx, lead, summary, logger)

	// 3. CRM
	personID, err := h.forwardToCRM(ctx, lead, summary, logger)
	if err != nil {
		if crm.IsPermanent(err) {
			if markErr := h.deps.Queries.MarkLeadFailed(ctx, lead.ID); markErr != nil {
				logger.Error("Failed to mark lead as failed", "error", markErr)
			}
			h.publish(ctx, events.SubjectLeadFailed, lead, personID, sheetKey, err, logger)
			return worker.NewPermanentError(err)
		}
		return err
	}

	// 4. Emails
	h.sendEmails(ctx, summary, sheetURL, logger)

	// 5. Event
	h.publish(ctx, events.SubjectLeadForwarded, lead, personID, sheetKey, nil, logger)

	logger.Info("Lead forwarded", "crm_person_id", personID, "sheet_key", sheetKey)
	return nil
}

// storeSheet renders the PDF and returns its key and a link. Both are empty
// when the sheet could not be produced.
func (h *ForwardLeadHandler) storeSheet(ctx context.Context, lead repository.Lead, summary *report.Summary, logger *slog.Logger) (string, string) {
	if h.deps.Sheets == nil || h.deps.Storage == nil {
		return "", ""
	}

	key := storage.SheetKey(lead.ID)
	if lead.SheetKey.Valid && lead.SheetKey.String != "" {
		key = lead.SheetKey.String
	} else {
		var buf bytes.Buffer
		_, err := h.deps.Sheets.Generate(ctx, summary, &buf)
		metrics.SheetGenerated(err)
		if err != nil {
			logger.Error("Failed to generate sheet", "error", err)
			return "", ""
		}

		err = h.deps.Storage.Put(ctx, key, &buf, storage.PutOptions{
			ContentType: h.deps.Sheets.ContentType(),
			Overwrite:   true,
		})
		if err != nil {
			logger.Error("Failed to store sheet", "key", key, "error", err)
			return "", ""
		}

		if err := h.deps.Queries.SetLeadSheetKey(ctx, repository.SetLeadSheetKeyParams{
			ID:       lead.ID,
			SheetKey: sql.NullString{String: key, Valid: true},
		}); err != nil {
			logger.Error("Failed to record sheet key", "key", key, "error", err)
		}
	}

	url, err := h.deps.Storage.URL(ctx, key, sheetURLExpiry)
	if err != nil {
		logger.Warn("Failed to build sheet URL", "key", key, "error", err)
		return key, ""
	}
	return key, url
}

// forwardToCRM creates the person (once) and pins the summary note. The
// person id is saved before the note so a retry does not duplicate the person.
func (h *ForwardLeadHandler) forwardToCRM(ctx context.Context, lead repository.Lead, summary *report.Summary, logger *slog.Logger) (int64, error) {
	personID := lead.CrmPersonID.Int64

	if h.deps.CRM == nil {
		logger.Debug("CRM not configured, lead kept locally")
		return personID, nil
	}

	h.deps.Monitor.Record(ctx, monitor.EventCRMAttempt, map[string]any{"leadId": lead.ID}, nil)

	if !lead.CrmPersonID.Valid {
		person, err := h.deps.CRM.CreatePerson(ctx, crm.PersonParams{
			Name:  summary.Contact.FullName(),
			Email: summary.Contact.Email,
			Phone: summary.Contact.Phone,
		})
		if err != nil {
			h.recordCRMError(ctx, lead, err)
			return 0, fmt.Errorf("create crm person: %w", err)
		}
		personID = person.ID

		raw, _ := json.Marshal(person)
		if err := h.deps.Queries.SetLeadCRMPerson(ctx, repository.SetLeadCRMPersonParams{
			ID:          lead.ID,
			CrmPersonID: sql.NullInt64{Int64: person.ID, Valid: true},
			CrmResponse: pqtype.NullRawMessage{RawMessage: raw, Valid: raw != nil},
		}); err != nil {
			return personID, fmt.Errorf("save crm person: %w", err)
		}
	}

	if _, err := h.deps.CRM.AddNote(ctx, crm.NoteParams{
		PersonID: personID,
		Content:  summary.NoteContent(),
	}); err != nil {
		h.recordCRMError(ctx, lead, err)
		return personID, fmt.Errorf("add crm note: %w", err)
	}

	if err := h.deps.Queries.MarkLeadForwarded(ctx, lead.ID); err != nil {
		return personID, fmt.Errorf("mark lead forwarded: %w", err)
	}

	h.deps.Monitor.Record(ctx, monitor.EventCRMSuccess, map[string]any{
		"leadId":   lead.ID,
		"personId": personID,
	}, nil)
	return personID, nil
}

func (h *ForwardLeadHandler) recordCRMError(ctx context.Context, lead repository.Lead, err error) {
	h.deps.Monitor.Record(ctx, monitor.EventCRMError, map[string]any{
		"leadId": lead.ID,
		"email":  lead.Email,
	}, err)
}

func (h *ForwardLeadHandler) sendEmails(ctx context.Context, summary *report.Summary, sheetURL string, logger *slog.Logger) {
	if h.deps.Email == nil {
		return
	}
	if h.deps.SalesEmail != "" {
		if err := h.deps.Email.SendLeadNotification(ctx, h.deps.SalesEmail, summary, sheetURL); err != nil {
			logger.Error("Failed to send lead notification", "error", err)
		}
	}
	if err := h.deps.Email.SendCustomerConfirmation(ctx, summary, sheetURL); err != nil {
		logger.Error("Failed to send customer confirmation", "error", err)
	}
}

func (h *ForwardLeadHandler) publish(ctx context.Context, subject string, lead repository.Lead, personID int64, sheetKey string, cause error, logger *slog.Logger) {
	event := events.LeadEvent{
		LeadID:       lead.ID,
		SubmissionID: lead.SubmissionID,
		Motor:        lead.RecommendedMotor,
		BatteryKwh:   lead.RecommendedBatteryKwh,
		CRMPersonID:  personID,
		SheetKey:     sheetKey,
		OccurredAt:   time.Now(),
	}
	if cause != nil {
		event.Error = cause.Error()
	}
	if err := h.deps.Publisher.Publish(ctx, subject, event); err != nil {
		logger.Warn("Failed to publish lead event", "subject", subject, "error", err)
	}
}

var _ worker.JobHandler = (*ForwardLeadHandler)(nil)

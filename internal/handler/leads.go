package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/DukeRupert/greenmarine/internal/domain"
	"github.com/DukeRupert/greenmarine/internal/service"
	"github.com/DukeRupert/greenmarine/internal/wizard"
)

// =============================================================================
// Request/Response Types
// =============================================================================

// DirectLeadRequest is the flat lead message posted by the embedded
// calculator page. Any recommendation in the message is ignored and
// recomputed server-side.
type DirectLeadRequest struct {
	SubmissionID uuid.UUID `json:"submissionId"`

	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`

	CustomerType domain.CustomerType `json:"customerType"`
	BoatType     domain.BoatType     `json:"boatType"`
	BoatLength   flexFloat           `json:"boatLength"`
	BoatWeight   flexFloat           `json:"boatWeight"`
	CurrentDrive domain.DriveType    `json:"currentDrive"`
	WaterType    domain.WaterType    `json:"waterType"`
	TripDuration domain.TripDuration `json:"tripDuration"`
}

// DirectLeadResponse confirms a stored lead.
type DirectLeadResponse struct {
	SubmissionID   uuid.UUID                    `json:"submissionId"`
	Message        string                       `json:"message"`
	Recommendation domain.Recommendation        `json:"recommendation"`
	Display        domain.RecommendationDisplay `json:"display"`
}

// LeadResponse is the operator view of a stored lead.
type LeadResponse struct {
	ID           uuid.UUID             `json:"id"`
	SubmissionID uuid.UUID             `json:"submissionId"`
	Contact      domain.ContactDetails `json:"contact"`
	Answers      domain.BoatAnswers    `json:"answers"`
	Motor        string                `json:"recommendedMotor"`
	MotorPowerKw float64               `json:"recommendedMotorPowerKw"`
	BatteryKwh   float64               `json:"recommendedBatteryKwh"`
	SpeedKmh     float64               `json:"recommendedSpeedKmh"`
	Hours        float64               `json:"recommendedHours"`
	Status       domain.LeadStatus     `json:"status"`
	CRMPersonID  *int64                `json:"crmPersonId,omitempty"`
	SheetKey     string                `json:"sheetKey,omitempty"`
	SubmittedAt  time.Time             `json:"submittedAt"`
	ForwardedAt  *time.Time            `json:"forwardedAt,omitempty"`
}

// =============================================================================
// Handler Configuration
// =============================================================================

// LeadHandler accepts direct lead submissions and serves stored leads.
type LeadHandler struct {
	leads  service.LeadService
	logger *slog.Logger
}

// NewLeadHandler creates a new LeadHandler.
func NewLeadHandler(leads service.LeadService, logger *slog.Logger) *LeadHandler {
	return &LeadHandler{
		leads:  leads,
		logger: logger,
	}
}

// RegisterRoutes registers the lead routes.
//
// Routes:
// - POST /api/leads      -> Create (rate limited)
// - GET  /api/leads/{id} -> Show (operator auth)
func (h *LeadHandler) RegisterRoutes(mux *http.ServeMux, limit, requireOperator func(http.Handler) http.Handler) {
	mux.Handle("POST /api/leads", limit(http.HandlerFunc(h.Create)))
	mux.Handle("GET /api/leads/{id}", requireOperator(http.HandlerFunc(h.Show)))
}

// =============================================================================
// POST /api/leads
// =============================================================================

// Create stores a lead submitted outside a wizard session.
func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	const op = "lead.create"

	var req DirectLeadRequest
	if err := decodeJSON(w, r, op, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), submitTimeout)
	defer cancel()

	payload, err := h.leads.SubmitDirect(ctx, service.DirectLeadRequest{
		SubmissionID: req.SubmissionID,
		Contact: domain.ContactDetails{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Email:     req.Email,
			Phone:     req.Phone,
		},
		Answers: domain.BoatAnswers{
			CustomerType: req.CustomerType,
			BoatType:     req.BoatType,
			LengthMeters: float64(req.BoatLength),
			WeightKg:     float64(req.BoatWeight),
			CurrentDrive: req.CurrentDrive,
			WaterType:    req.WaterType,
			TripDuration: req.TripDuration,
		},
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, DirectLeadResponse{
		SubmissionID:   payload.SubmissionID,
		Message:        wizard.ConfirmationMessage,
		Recommendation: payload.Recommendation,
		Display:        payload.Recommendation.Display(),
	})
}

// =============================================================================
// GET /api/leads/{id}
// =============================================================================

// Show returns a stored lead with its delivery status.
func (h *LeadHandler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		NotFoundResponse(w, r, h.logger)
		return
	}

	lead, err := h.leads.GetByID(r.Context(), id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, LeadResponse{
		ID:           lead.ID,
		SubmissionID: lead.SubmissionID,
		Contact:      lead.Contact,
		Answers:      lead.Answers,
		Motor:        lead.RecommendedMotor,
		MotorPowerKw: lead.RecommendedMotorPowerKw,
		BatteryKwh:   lead.RecommendedBatteryKwh,
		SpeedKmh:     lead.RecommendedSpeedKmh,
		Hours:        lead.RecommendedHours,
		Status:       lead.Status,
		CRMPersonID:  lead.CRMPersonID,
		SheetKey:     lead.SheetKey,
		SubmittedAt:  lead.SubmittedAt,
		ForwardedAt:  lead.ForwardedAt,
	})
}

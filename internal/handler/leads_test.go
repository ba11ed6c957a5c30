package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DukeRupert/greenmarine/internal/domain"
	"github.com/DukeRupert/greenmarine/internal/service"
	"github.com/DukeRupert/greenmarine/internal/wizard"
)

type mockLeadService struct {
	SubmitFunc       func(ctx context.Context, p domain.LeadPayload) error
	SubmitDirectFunc func(ctx context.Context, req service.DirectLeadRequest) (*domain.LeadPayload, error)
	GetByIDFunc      func(ctx context.Context, id uuid.UUID) (*domain.Lead, error)
}

func (m *mockLeadService) Submit(ctx context.Context, p domain.LeadPayload) error {
	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, p)
	}
	return nil
}

func (m *mockLeadService) SubmitDirect(ctx context.Context, req service.DirectLeadRequest) (*domain.LeadPayload, error) {
	return m.SubmitDirectFunc(ctx, req)
}

func (m *mockLeadService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error) {
	return m.GetByIDFunc(ctx, id)
}

func newLeadMux(svc service.LeadService) *http.ServeMux {
	mux := http.NewServeMux()
	NewLeadHandler(svc, testLogger()).RegisterRoutes(mux, passthrough, passthrough)
	return mux
}

func TestLeadHandler_Create(t *testing.T) {
	var got service.DirectLeadRequest
	svc := &mockLeadService{
		SubmitDirectFunc: func(ctx context.Context, req service.DirectLeadRequest) (*domain.LeadPayload, error) {
			got = req
			return &domain.LeadPayload{
				SubmissionID: uuid.New(),
				Recommendation: domain.Recommendation{
					SelectedMotor:      domain.MotorCatalogEntry{Name: "GM 4kW", RatedPowerKw: 4},
					SelectedBatteryKwh: 10,
				},
			}, nil
		},
	}

	rec := httptest.NewRecorder()
	newLeadMux(svc).ServeHTTP(rec, jsonRequest(t, "POST", "/api/leads", map[string]any{
		"firstName":    "Jan",
		"lastName":     "Jansen",
		"email":        "jan@example.nl",
		"phone":        "0612345678",
		"customerType": "particulier",
		"boatType":     "sloep",
		"boatLength":   "6.5",
		"boatWeight":   2200,
		"tripDuration": "8+",
		"recommendation": map[string]any{
			"motor": "GM 25kW",
		},
	}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	assert.Equal(t, "Jan", got.Contact.FirstName)
	assert.Equal(t, 6.5, got.Answers.LengthMeters)
	assert.Equal(t, 2200.0, got.Answers.WeightKg)
	assert.Equal(t, domain.TripDurationLong, got.Answers.TripDuration)

	body := decodeBody[DirectLeadResponse](t, rec)
	assert.Equal(t, wizard.ConfirmationMessage, body.Message)
	assert.Equal(t, "GM 4kW", body.Display.MotorName)
}

func TestLeadHandler_Create_ValidationError(t *testing.T) {
	svc := &mockLeadService{
		SubmitDirectFunc: func(ctx context.Context, req service.DirectLeadRequest) (*domain.LeadPayload, error) {
			return nil, domain.NewValidationError("lead.direct", "email", "E-mailadres is verplicht")
		},
	}

	rec := httptest.NewRecorder()
	newLeadMux(svc).ServeHTTP(rec, jsonRequest(t, "POST", "/api/leads", map[string]any{"firstName": "Jan"}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody[JSONError](t, rec)
	assert.Contains(t, body.Error.Fields, "email")
}

func TestLeadHandler_Show(t *testing.T) {
	id := uuid.New()
	personID := int64(42)
	svc := &mockLeadService{
		GetByIDFunc: func(ctx context.Context, got uuid.UUID) (*domain.Lead, error) {
			if got != id {
				return nil, domain.NotFound("lead.get", "lead", got.String())
			}
			return &domain.Lead{
				ID:               id,
				Contact:          domain.ContactDetails{FirstName: "Jan"},
				RecommendedMotor: "GM 4kW",
				Status:           domain.LeadStatusForwarded,
				CRMPersonID:      &personID,
				SubmittedAt:      time.Date(2030, 5, 14, 15, 4, 0, 0, time.UTC),
			}, nil
		},
	}
	mux := newLeadMux(svc)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/api/leads/"+id.String(), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[LeadResponse](t, rec)
	assert.Equal(t, "GM 4kW", body.Motor)
	assert.Equal(t, domain.LeadStatusForwarded, body.Status)
	require.NotNil(t, body.CRMPersonID)
	assert.Equal(t, int64(42), *body.CRMPersonID)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/api/leads/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/api/leads/not-a-uuid", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

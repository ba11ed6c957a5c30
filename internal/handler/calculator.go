// Package handler contains the HTTP JSON API of the calculator.
//
// This file implements the catalog and the stateless recommendation endpoints.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/DukeRupert/greenmarine/internal/domain"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Engine computes recommendations against a catalog.
type Engine interface {
	Recommend(params domain.BoatParameters) domain.Recommendation
	Catalog() domain.Catalog
}

// =============================================================================
// Request/Response Types
// =============================================================================

// RecommendationRequest mirrors the calculator form fields.
type RecommendationRequest struct {
	BoatLength   flexFloat           `json:"boatLength"`
	BoatWeight   flexFloat           `json:"boatWeight"`
	TripDuration domain.TripDuration `json:"tripDuration"`
}

// RecommendationResponse pairs the raw figures with their display strings.
type RecommendationResponse struct {
	Recommendation domain.Recommendation        `json:"recommendation"`
	Display        domain.RecommendationDisplay `json:"display"`
}

// =============================================================================
// Handler Configuration
// =============================================================================

// CalculatorHandler serves the catalog and stateless recommendations.
type CalculatorHandler struct {
	engine Engine
	logger *slog.Logger
}

// NewCalculatorHandler creates a new CalculatorHandler.
func NewCalculatorHandler(engine Engine, logger *slog.Logger) *CalculatorHandler {
	return &CalculatorHandler{
		engine: engine,
		logger: logger,
	}
}

// RegisterRoutes registers the calculator routes.
//
// Routes:
// - GET  /api/catalog         -> Catalog
// - POST /api/recommendations -> Recommend
func (h *CalculatorHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/catalog", h.Catalog)
	mux.HandleFunc("POST /api/recommendations", h.Recommend)
}

// =============================================================================
// GET /api/catalog
// =============================================================================

// Catalog lists the motor catalog in ascending power order.
func (h *CalculatorHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"motors": h.engine.Catalog()})
}

// =============================================================================
// POST /api/recommendations
// =============================================================================

// Recommend computes a recommendation from JSON or form input. Missing and
// invalid dimensions fall back to the defaults; this endpoint never fails on
// input values.
func (h *CalculatorHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	const op = "calculator.recommend"

	var req RecommendationRequest
	if isForm(r) {
		if err := r.ParseForm(); err != nil {
			ErrorResponse(w, r, h.logger, domain.Invalid(op, "Ongeldig formulier"))
			return
		}
		req.BoatLength = flexFloat(parseFormFloat(r, "boatLength"))
		req.BoatWeight = flexFloat(parseFormFloat(r, "boatWeight"))
		req.TripDuration = domain.TripDuration(r.FormValue("tripDuration"))
	} else if err := decodeJSON(w, r, op, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	rec := h.engine.Recommend(domain.BoatParameters{
		LengthMeters: float64(req.BoatLength),
		WeightKg:     float64(req.BoatWeight),
		TripDuration: req.TripDuration,
	})

	writeJSON(w, http.StatusOK, RecommendationResponse{
		Recommendation: rec,
		Display:        rec.Display(),
	})
}

package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/DukeRupert/greenmarine/internal/csrf"
	"github.com/DukeRupert/greenmarine/internal/domain"
	"github.com/DukeRupert/greenmarine/internal/wizard"
)

// SessionCookieName holds the wizard session token.
const SessionCookieName = "gm_wizard"

// submitTimeout bounds a wizard submission once the lead sink is called.
const submitTimeout = 15 * time.Second

// SessionStore resolves session tokens to wizard controllers.
type SessionStore interface {
	Get(token string) (string, *wizard.Controller)
}

// WizardResponse is the body of every wizard endpoint.
type WizardResponse struct {
	State     wizard.Snapshot `json:"state"`
	Error     *ErrorBody      `json:"error,omitempty"`
	CSRFToken string          `json:"csrfToken,omitempty"`
}

// WizardHandler exposes the wizard state machine over HTTP. Each visitor
// gets a server-side session keyed by a cookie.
type WizardHandler struct {
	sessions     SessionStore
	sink         wizard.LeadSink
	cookieSecure bool
	logger       *slog.Logger
}

// NewWizardHandler creates a new WizardHandler. cookieSecure marks the
// session cookie Secure with SameSite=None so it survives in a cross-site
// iframe.
func NewWizardHandler(sessions SessionStore, sink wizard.LeadSink, cookieSecure bool, logger *slog.Logger) *WizardHandler {
	return &WizardHandler{
		sessions:     sessions,
		sink:         sink,
		cookieSecure: cookieSecure,
		logger:       logger,
	}
}

// RegisterRoutes registers the wizard routes. protect wraps every POST
// route and limitSubmit additionally wraps the submit endpoint.
func (h *WizardHandler) RegisterRoutes(mux *http.ServeMux, protect, limitSubmit func(http.Handler) http.Handler) {
	post := func(pattern string, fn http.HandlerFunc) {
		mux.Handle("POST "+pattern, protect(fn))
	}

	mux.HandleFunc("GET /api/wizard", h.State)
	post("/api/wizard/select", h.Select)
	post("/api/wizard/dimensions", h.Dimensions)
	post("/api/wizard/confirm", h.Confirm)
	post("/api/wizard/back", h.Back)
	post("/api/wizard/quote", h.Quote)
	post("/api/wizard/recalculate", h.Recalculate)
	post("/api/wizard/contact", h.Contact)
	mux.Handle("POST /api/wizard/submit", protect(limitSubmit(http.HandlerFunc(h.Submit))))
}

// =============================================================================
// Request Types
// =============================================================================

type selectRequest struct {
	Value string `json:"value"`
}

type dimensionsRequest struct {
	BoatLength flexFloat `json:"boatLength"`
	BoatWeight flexFloat `json:"boatWeight"`
}

// =============================================================================
// Handlers
// =============================================================================

// State returns the current snapshot, creating a session if needed. It also
// hands out the CSRF token the client must echo on every POST.
func (h *WizardHandler) State(w http.ResponseWriter, r *http.Request) {
	c := h.controller(w, r)

	token, err := csrf.EnsureToken(w, r, h.cookieSecure)
	if err != nil {
		h.respond(w, r, c.Snapshot(), domain.Internal(err, "wizard.state", "could not issue csrf token"))
		return
	}
	w.Header().Set(csrf.HeaderName, token)
	writeJSON(w, http.StatusOK, WizardResponse{State: c.Snapshot(), CSRFToken: token})
}

// Select records a categorical answer. The advance happens after the
// configured delay; clients poll State or re-render on the next call.
func (h *WizardHandler) Select(w http.ResponseWriter, r *http.Request) {
	c := h.controller(w, r)

	var req selectRequest
	if err := decodeJSON(w, r, "wizard.select", &req); err != nil {
		h.respond(w, r, c.Snapshot(), err)
		return
	}
	snap, err := c.Select(req.Value)
	h.respond(w, r, snap, err)
}

// Dimensions records slider values.
func (h *WizardHandler) Dimensions(w http.ResponseWriter, r *http.Request) {
	c := h.controller(w, r)

	var req dimensionsRequest
	if err := decodeJSON(w, r, "wizard.dimensions", &req); err != nil {
		h.respond(w, r, c.Snapshot(), err)
		return
	}
	snap, err := c.SetDimensions(float64(req.BoatLength), float64(req.BoatWeight))
	h.respond(w, r, snap, err)
}

// Confirm leaves the dimensions step.
func (h *WizardHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	snap, err := h.controller(w, r).ConfirmDimensions()
	h.respond(w, r, snap, err)
}

// Back goes one step back.
func (h *WizardHandler) Back(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.controller(w, r).Back(), nil)
}

// Quote opens the contact form from the results.
func (h *WizardHandler) Quote(w http.ResponseWriter, r *http.Request) {
	snap, err := h.controller(w, r).RequestQuote()
	h.respond(w, r, snap, err)
}

// Recalculate starts over.
func (h *WizardHandler) Recalculate(w http.ResponseWriter, r *http.Request) {
	snap, err := h.controller(w, r).Recalculate()
	h.respond(w, r, snap, err)
}

// Contact stores the contact form fields.
func (h *WizardHandler) Contact(w http.ResponseWriter, r *http.Request) {
	c := h.controller(w, r)

	var req domain.ContactDetails
	if err := decodeJSON(w, r, "wizard.contact", &req); err != nil {
		h.respond(w, r, c.Snapshot(), err)
		return
	}
	snap, err := c.SetContact(req)
	h.respond(w, r, snap, err)
}

// Submit hands the lead to the sink. A body with contact fields is applied
// first, so a client may submit the form in one call.
func (h *WizardHandler) Submit(w http.ResponseWriter, r *http.Request) {
	c := h.controller(w, r)

	var req domain.ContactDetails
	if err := decodeJSON(w, r, "wizard.submit", &req); err != nil {
		h.respond(w, r, c.Snapshot(), err)
		return
	}
	if req != (domain.ContactDetails{}) {
		if snap, err := c.SetContact(req); err != nil {
			h.respond(w, r, snap, err)
			return
		}
	}

	// The lead must be stored even if the visitor closes the page.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), submitTimeout)
	defer cancel()

	snap, err := c.Submit(ctx, h.sink)
	h.respond(w, r, snap, err)
}

// =============================================================================
// Helpers
// =============================================================================

// controller resolves the session from the cookie, refreshing the cookie
// when a new session was created.
func (h *WizardHandler) controller(w http.ResponseWriter, r *http.Request) *wizard.Controller {
	var token string
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		token = cookie.Value
	}

	newToken, c := h.sessions.Get(token)
	if newToken != token {
		cookie := &http.Cookie{
			Name:     SessionCookieName,
			Value:    newToken,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		}
		if h.cookieSecure {
			cookie.Secure = true
			cookie.SameSite = http.SameSiteNoneMode
		}
		http.SetCookie(w, cookie)
	}
	return c
}

// respond writes the snapshot, with the error mapped to its status when
// present.
func (h *WizardHandler) respond(w http.ResponseWriter, r *http.Request, snap wizard.Snapshot, err error) {
	if err == nil {
		writeJSON(w, http.StatusOK, WizardResponse{State: snap})
		return
	}

	status := ErrorCodeToHTTPStatus(domain.ErrorCode(err))
	logError(h.logger, r, err, status)
	writeJSON(w, status, WizardResponse{State: snap, Error: errorBody(err)})
}

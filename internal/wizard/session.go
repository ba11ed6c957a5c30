package wizard

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/DukeRupert/greenmarine/internal/domain"
)

// Phase is the coarse state of a session.
type Phase string

const (
	PhaseCollecting  Phase = "collecting"
	PhaseResults     Phase = "results"
	PhaseContactForm Phase = "contact_form"
	PhaseSubmitted   Phase = "submitted"
)

// ConfirmationMessage is shown once a lead was handed off.
const ConfirmationMessage = "Bedankt voor uw aanvraag! We nemen binnen 24 uur contact met u op."

// SubmitFailedMessage is shown when the lead sink failed. The visitor can
// retry without answering the questions again.
const SubmitFailedMessage = "Er is iets misgegaan bij het versturen van uw aanvraag. Probeer het opnieuw."

// Recommender produces a recommendation for the collected answers.
type Recommender interface {
	Recommend(params domain.BoatParameters) domain.Recommendation
}

// Ticket identifies a scheduled auto-advance. Only the most recent ticket
// can advance the session.
type Ticket uint64

// Submission identifies an in-flight lead hand-off.
type Submission struct {
	epoch uint64
}

// Session is a single visitor's questionnaire.
type Session struct {
	recommender Recommender

	phase          Phase
	step           int
	answers        domain.BoatAnswers
	contact        domain.ContactDetails
	recommendation *domain.Recommendation

	fieldErrors map[string]string
	submitErr   string

	lastTicket Ticket
	pending    Ticket

	submissionID uuid.UUID
	inFlight     bool
	epoch        uint64
}

// NewSession returns a session at the first step.
func NewSession(r Recommender) *Session {
	return &Session{
		recommender: r,
		phase:       PhaseCollecting,
	}
}

// Phase returns the current phase.
func (s *Session) Phase() Phase { return s.phase }

// StepIndex returns the current step index. It stays at the last step once
// collection has completed.
func (s *Session) StepIndex() int { return s.step }

// Answers returns the collected answers.
func (s *Session) Answers() domain.BoatAnswers { return s.answers }

// Recommendation returns the stored recommendation, if any.
func (s *Session) Recommendation() (domain.Recommendation, bool) {
	if s.recommendation == nil {
		return domain.Recommendation{}, false
	}
	return *s.recommendation, true
}

// HasPendingAdvance reports whether an auto-advance is scheduled.
func (s *Session) HasPendingAdvance() bool { return s.pending != 0 }

// =============================================================================
// Collecting
// =============================================================================

// Select records a categorical answer at the current step and returns the
// ticket for the follow-up advance. A later selection supersedes it.
func (s *Session) Select(value string) (Ticket, error) {
	const op = "wizard.select"

	if s.phase != PhaseCollecting {
		return 0, domain.Invalid(op, "no question is open")
	}
	step := steps[s.step]
	if step.Kind != KindChoice {
		return 0, domain.Invalid(op, "this step has no options")
	}
	if !step.HasOption(value) {
		return 0, domain.Invalid(op, fmt.Sprintf("%q is not an option for %s", value, step.ID))
	}

	s.record(step.ID, value)
	s.lastTicket++
	s.pending = s.lastTicket
	return s.pending, nil
}

func (s *Session) record(id StepID, value string) {
	switch id {
	case StepCustomerType:
		s.answers.CustomerType = domain.CustomerType(value)
	case StepBoatType:
		s.answers.BoatType = domain.BoatType(value)
	case StepCurrentDrive:
		s.answers.CurrentDrive = domain.DriveType(value)
	case StepWaterType:
		s.answers.WaterType = domain.WaterType(value)
	case StepTripDuration:
		s.answers.TripDuration = domain.TripDuration(value)
	}
}

// Advance performs the scheduled transition for t. Stale or cancelled
// tickets are ignored and Advance returns false.
func (s *Session) Advance(t Ticket) bool {
	if t == 0 || t != s.pending || s.phase != PhaseCollecting {
		return false
	}
	s.pending = 0
	s.next()
	return true
}

// SetDimensions records the slider values. Values are clamped to the slider
// bounds and snapped to the slider step.
func (s *Session) SetDimensions(lengthMeters, weightKg float64) error {
	const op = "wizard.dimensions"

	if s.phase != PhaseCollecting || steps[s.step].Kind != KindDimensions {
		return domain.Invalid(op, "boat dimensions are not being asked")
	}
	s.answers.LengthMeters = domain.SnapToStep(lengthMeters, domain.DefaultLengthMeters, domain.MinLengthMeters, domain.MaxLengthMeters, domain.LengthStepMeters)
	s.answers.WeightKg = domain.SnapToStep(weightKg, domain.DefaultWeightKg, domain.MinWeightKg, domain.MaxWeightKg, domain.WeightStepKg)
	return nil
}

// ConfirmDimensions moves past the dimensions step immediately.
func (s *Session) ConfirmDimensions() error {
	const op = "wizard.confirm"

	if s.phase != PhaseCollecting || steps[s.step].Kind != KindDimensions {
		return domain.Invalid(op, "boat dimensions are not being asked")
	}
	s.next()
	return nil
}

// next moves to the following step, or to Results after the last one.
func (s *Session) next() {
	if s.step < len(steps)-1 {
		s.step++
		return
	}
	s.enterResults()
}

// enterResults is the only place the recommender is called.
func (s *Session) enterResults() {
	rec := s.recommender.Recommend(s.answers.Parameters())
	s.recommendation = &rec
	s.phase = PhaseResults
}

// =============================================================================
// Navigation
// =============================================================================

// Back moves one step back. It is a no-op at the first step, in Results,
// after submission and while a submission is in flight. From the contact
// form it returns to Results with the recommendation unchanged.
func (s *Session) Back() {
	switch s.phase {
	case PhaseCollecting:
		if s.step == 0 {
			return
		}
		s.pending = 0
		s.step--
	case PhaseContactForm:
		if s.inFlight {
			return
		}
		s.phase = PhaseResults
		s.fieldErrors = nil
		s.submitErr = ""
	}
}

// RequestQuote opens the contact form for the current recommendation.
func (s *Session) RequestQuote() error {
	if s.phase != PhaseResults {
		return domain.Invalid("wizard.quote", "no recommendation to request a quote for")
	}
	s.phase = PhaseContactForm
	return nil
}

// Recalculate clears every answer and starts over. Any in-flight submission
// result is discarded when it completes.
func (s *Session) Recalculate() error {
	if s.phase == PhaseCollecting {
		return domain.Invalid("wizard.recalculate", "questionnaire is not finished")
	}
	s.reset()
	return nil
}

func (s *Session) reset() {
	s.phase = PhaseCollecting
	s.step = 0
	s.answers = domain.BoatAnswers{}
	s.contact = domain.ContactDetails{}
	s.recommendation = nil
	s.fieldErrors = nil
	s.submitErr = ""
	s.pending = 0
	s.submissionID = uuid.Nil
	s.inFlight = false
	s.epoch++
}

// =============================================================================
// Contact & Submission
// =============================================================================

// SetContact stores the contact form fields.
func (s *Session) SetContact(c domain.ContactDetails) error {
	if s.phase != PhaseContactForm {
		return domain.Invalid("wizard.contact", "contact form is not open")
	}
	if c != s.contact {
		s.submissionID = uuid.Nil
	}
	s.contact = c
	s.fieldErrors = nil
	return nil
}

// BeginSubmission validates the contact form and builds the lead payload.
// Only one submission can be in flight; it must be finished with
// CompleteSubmission.
func (s *Session) BeginSubmission(now time.Time) (Submission, domain.LeadPayload, error) {
	const op = "wizard.submit"

	if s.phase != PhaseContactForm {
		return Submission{}, domain.LeadPayload{}, domain.Invalid(op, "contact form is not open")
	}
	if s.inFlight {
		return Submission{}, domain.LeadPayload{}, domain.Conflict(op, "submission already in progress")
	}

	if err := s.contact.Validate(op); err != nil {
		s.fieldErrors = domain.FieldErrors(err)
		return Submission{}, domain.LeadPayload{}, err
	}
	s.fieldErrors = nil
	s.submitErr = ""

	// Retries of the same form reuse the ID so the store can deduplicate.
	if s.submissionID == uuid.Nil {
		s.submissionID = uuid.New()
	}

	payload := domain.LeadPayload{
		SubmissionID:   s.submissionID,
		Contact:        s.contact.Trimmed(),
		Answers:        s.answers,
		Recommendation: *s.recommendation,
		SubmittedAt:    now.UTC(),
		Source:         domain.LeadSourceCalculator,
	}
	s.inFlight = true
	return Submission{epoch: s.epoch}, payload, nil
}

// CompleteSubmission records the lead sink outcome. Results that arrive
// after a Recalculate, or once the contact form is no longer shown, are
// dropped.
func (s *Session) CompleteSubmission(sub Submission, err error) {
	if sub.epoch != s.epoch {
		return
	}
	s.inFlight = false
	if s.phase != PhaseContactForm {
		return
	}
	if err != nil {
		s.submitErr = SubmitFailedMessage
		return
	}
	s.submitErr = ""
	s.phase = PhaseSubmitted
}

// =============================================================================
// Snapshot
// =============================================================================

// Progress is the "Stap i van K" indicator.
type Progress struct {
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Percent int    `json:"percent"`
	Label   string `json:"label"`
}

// Dimensions are the slider positions shown on the specs step.
type Dimensions struct {
	LengthMeters float64 `json:"lengthMeters"`
	WeightKg     float64 `json:"weightKg"`
}

// Snapshot is a read-only view of a session for presentation.
type Snapshot struct {
	Phase          Phase                         `json:"phase"`
	StepIndex      int                           `json:"stepIndex"`
	Step           *Step                         `json:"step,omitempty"`
	Progress       Progress                      `json:"progress"`
	Answers        domain.BoatAnswers            `json:"answers"`
	Dimensions     Dimensions                    `json:"dimensions"`
	Contact        domain.ContactDetails         `json:"contact"`
	Recommendation *domain.Recommendation        `json:"recommendation,omitempty"`
	Display        *domain.RecommendationDisplay `json:"display,omitempty"`
	FieldErrors    map[string]string             `json:"fieldErrors,omitempty"`
	SubmitError    string                        `json:"submitError,omitempty"`
	PendingAdvance bool                          `json:"pendingAdvance"`
	Submitting     bool                          `json:"submitting"`
	CanGoBack      bool                          `json:"canGoBack"`
	Confirmation   string                        `json:"confirmation,omitempty"`
}

// Snapshot returns a copy of the session state.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		Phase:          s.phase,
		StepIndex:      s.step,
		Progress:       progress(s.step),
		Answers:        s.answers,
		Dimensions:     sliderPositions(s.answers),
		Contact:        s.contact,
		SubmitError:    s.submitErr,
		PendingAdvance: s.pending != 0,
		Submitting:     s.inFlight,
		CanGoBack:      (s.phase == PhaseCollecting && s.step > 0) || (s.phase == PhaseContactForm && !s.inFlight),
	}
	if s.phase == PhaseCollecting {
		step := StepAt(s.step)
		snap.Step = &step
	}
	if s.recommendation != nil {
		rec := *s.recommendation
		rec.SelectedMotor = rec.SelectedMotor.Clone()
		display := rec.Display()
		snap.Recommendation = &rec
		snap.Display = &display
	}
	if len(s.fieldErrors) > 0 {
		snap.FieldErrors = make(map[string]string, len(s.fieldErrors))
		for k, v := range s.fieldErrors {
			snap.FieldErrors[k] = v
		}
	}
	if s.phase == PhaseSubmitted {
		snap.Confirmation = ConfirmationMessage
	}
	return snap
}

func progress(step int) Progress {
	total := len(steps)
	current := step + 1
	return Progress{
		Current: current,
		Total:   total,
		Percent: int(math.Round(float64(current) / float64(total) * 100)),
		Label:   fmt.Sprintf("Stap %d van %d", current, total),
	}
}

// sliderPositions shows the defaults until the visitor moved the sliders.
func sliderPositions(a domain.BoatAnswers) Dimensions {
	d := Dimensions{LengthMeters: a.LengthMeters, WeightKg: a.WeightKg}
	if d.LengthMeters == 0 {
		d.LengthMeters = domain.DefaultLengthMeters
	}
	if d.WeightKg == 0 {
		d.WeightKg = domain.DefaultWeightKg
	}
	return d
}

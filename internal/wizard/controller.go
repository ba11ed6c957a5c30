package wizard

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/DukeRupert/greenmarine/internal/domain"
	"github.com/DukeRupert/greenmarine/internal/metrics"
)

// DefaultAdvanceDelay is the pause between a selection and the next step.
const DefaultAdvanceDelay = 300 * time.Millisecond

// LeadSink receives completed submissions.
type LeadSink interface {
	Submit(ctx context.Context, payload domain.LeadPayload) error
}

// Controller serializes access to a Session and runs its auto-advance timer.
type Controller struct {
	mu       sync.Mutex
	session  *Session
	delay    time.Duration
	timer    *time.Timer
	logger   *slog.Logger
	now      func() time.Time
	lastSeen time.Time
	closed   bool
}

// NewController creates a controller around a fresh session. A delay of
// zero advances synchronously within Select.
func NewController(r Recommender, delay time.Duration, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		session:  NewSession(r),
		delay:    delay,
		logger:   logger,
		now:      time.Now,
		lastSeen: time.Now(),
	}
}

// LastActive returns when the controller last handled an event.
func (c *Controller) LastActive() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSeen
}

// Close stops any pending timer. Later timer callbacks are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.stopTimer()
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Snapshot()
}

// Select records an answer and schedules the advance.
func (c *Controller) Select(value string) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	ticket, err := c.session.Select(value)
	if err != nil {
		return c.session.Snapshot(), err
	}
	c.observe("select")

	if c.delay <= 0 {
		c.advance(ticket)
		return c.session.Snapshot(), nil
	}

	c.stopTimer()
	c.timer = time.AfterFunc(c.delay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed {
			return
		}
		c.advance(ticket)
	})
	return c.session.Snapshot(), nil
}

// advance must be called with mu held.
func (c *Controller) advance(t Ticket) {
	if c.session.Advance(t) {
		c.observe("advance")
	}
}

// SetDimensions records slider values.
func (c *Controller) SetDimensions(lengthMeters, weightKg float64) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	err := c.session.SetDimensions(lengthMeters, weightKg)
	return c.session.Snapshot(), err
}

// ConfirmDimensions advances past the dimensions step.
func (c *Controller) ConfirmDimensions() (Snapshot, error) {
	return c.apply("confirm", c.session.ConfirmDimensions)
}

// Back goes one step back.
func (c *Controller) Back() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	c.stopTimer()
	c.session.Back()
	c.observe("back")
	return c.session.Snapshot()
}

// RequestQuote opens the contact form.
func (c *Controller) RequestQuote() (Snapshot, error) {
	return c.apply("quote", c.session.RequestQuote)
}

// Recalculate resets the session.
func (c *Controller) Recalculate() (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	c.stopTimer()
	if err := c.session.Recalculate(); err != nil {
		return c.session.Snapshot(), err
	}
	c.observe("recalculate")
	return c.session.Snapshot(), nil
}

// SetContact stores the contact form.
func (c *Controller) SetContact(details domain.ContactDetails) (Snapshot, error) {
	return c.apply("contact", func() error { return c.session.SetContact(details) })
}

// Submit validates the contact form and hands the lead to sink. The sink is
// called without holding the lock so the visitor can keep navigating.
// Sink failures are returned as EUNAVAILABLE with a retry-able message.
func (c *Controller) Submit(ctx context.Context, sink LeadSink) (Snapshot, error) {
	c.mu.Lock()
	c.touch()
	sub, payload, err := c.session.BeginSubmission(c.now())
	if err != nil {
		snap := c.session.Snapshot()
		c.mu.Unlock()
		return snap, err
	}
	c.mu.Unlock()

	sinkErr := sink.Submit(ctx, payload)
	metrics.LeadSubmitted("wizard", sinkErr)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.CompleteSubmission(sub, sinkErr)

	if sinkErr != nil {
		c.logger.Error("lead submission failed",
			"submission_id", payload.SubmissionID,
			"error", sinkErr,
		)
		var verr *domain.ValidationError
		if errors.As(sinkErr, &verr) {
			return c.session.Snapshot(), sinkErr
		}
		return c.session.Snapshot(), domain.Unavailable(sinkErr, "wizard.submit", SubmitFailedMessage)
	}

	c.logger.Info("lead submitted",
		"submission_id", payload.SubmissionID,
		"motor", payload.Recommendation.SelectedMotor.Name,
	)
	c.observe("submit")
	return c.session.Snapshot(), nil
}

func (c *Controller) apply(event string, fn func() error) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.touch()

	if err := fn(); err != nil {
		return c.session.Snapshot(), err
	}
	c.observe(event)
	return c.session.Snapshot(), nil
}

func (c *Controller) stopTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) touch() {
	c.lastSeen = c.now()
}

func (c *Controller) observe(event string) {
	metrics.WizardTransition(event, string(c.session.Phase()))
}

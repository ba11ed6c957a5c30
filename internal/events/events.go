// Package events publishes lead lifecycle events to NATS with
// OpenTelemetry trace propagation.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
)

// Subjects
const (
	SubjectLeadForwarded = "greenmarine.leads.forwarded"
	SubjectLeadFailed    = "greenmarine.leads.failed"
)

// LeadEvent is the message body for lead subjects.
type LeadEvent struct {
	LeadID       uuid.UUID `json:"lead_id"`
	SubmissionID uuid.UUID `json:"submission_id"`
	Motor        string    `json:"motor"`
	BatteryKwh   float64   `json:"battery_kwh"`
	CRMPersonID  int64     `json:"crm_person_id,omitempty"`
	SheetKey     string    `json:"sheet_key,omitempty"`
	Error        string    `json:"error,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Publisher sends events to a message bus.
type Publisher interface {
	Publish(ctx context.Context, subject string, event LeadEvent) error
	Close()
}

// headerCarrier adapts nats.Msg headers for the OTel TextMapCarrier.
type headerCarrier nats.Msg

func (c *headerCarrier) Get(key string) string {
	if c.Header == nil {
		return ""
	}
	return c.Header.Get(key)
}

func (c *headerCarrier) Set(key, val string) {
	if c.Header == nil {
		c.Header = make(nats.Header)
	}
	c.Header.Set(key, val)
}

func (c *headerCarrier) Keys() []string {
	if c.Header == nil {
		return nil
	}
	keys := make([]string, 0, len(c.Header))
	for k := range c.Header {
		keys = append(keys, k)
	}
	return keys
}

// NATSPublisher publishes JSON events on a NATS connection.
type NATSPublisher struct {
	conn   *nats.Conn
	logger *slog.Logger
}

// Connect dials the NATS server at url.
func Connect(url string, logger *slog.Logger) (*NATSPublisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("greenmarine"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return NewNATSPublisher(conn, logger), nil
}

// NewNATSPublisher wraps an existing connection.
func NewNATSPublisher(conn *nats.Conn, logger *slog.Logger) *NATSPublisher {
	return &NATSPublisher{conn: conn, logger: logger}
}

// Publish serializes event as JSON and publishes it on subject. Trace
// context from ctx is injected into the message headers.
func (p *NATSPublisher) Publish(ctx context.Context, subject string, event LeadEvent) error {
	msg, err := newMessage(ctx, subject, event)
	if err != nil {
		return err
	}
	if err := p.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	p.logger.Debug("event published", "subject", subject, "lead_id", event.LeadID)
	return nil
}

// Close drains the connection.
func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}

// Subscribe registers a handler for lead events on subject. Malformed
// messages are dropped.
func (p *NATSPublisher) Subscribe(subject string, handler func(context.Context, LeadEvent)) (*nats.Subscription, error) {
	return p.conn.Subscribe(subject, func(msg *nats.Msg) {
		ctx, event, err := decodeMessage(msg)
		if err != nil {
			p.logger.Warn("dropping malformed event", "subject", msg.Subject, "error", err)
			return
		}
		handler(ctx, event)
	})
}

func newMessage(ctx context.Context, subject string, event LeadEvent) (*nats.Msg, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	msg := &nats.Msg{Subject: subject, Data: data}
	otel.GetTextMapPropagator().Inject(ctx, (*headerCarrier)(msg))
	return msg, nil
}

func decodeMessage(msg *nats.Msg) (context.Context, LeadEvent, error) {
	var event LeadEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		return nil, event, err
	}
	ctx := otel.GetTextMapPropagator().Extract(context.Background(), (*headerCarrier)(msg))
	return ctx, event, nil
}

// NopPublisher discards events. Used when NATS_URL is unset.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, LeadEvent) error { return nil }

func (NopPublisher) Close() {}

var (
	_ Publisher = (*NATSPublisher)(nil)
	_ Publisher = NopPublisher{}
)

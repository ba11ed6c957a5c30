// Package monitor relays lead processing events to an external log endpoint.
//
// The relay never fails the caller: delivery errors are logged and dropped.
package monitor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Event types
const (
	EventLeadReceived = "lead_received"
	EventLeadSaved    = "lead_saved"
	EventLeadError    = "lead_error"
	EventCRMAttempt   = "crm_attempt"
	EventCRMSuccess   = "crm_success"
	EventCRMError     = "crm_error"
)

// Recorder records lead events.
type Recorder interface {
	Record(ctx context.Context, eventType string, data map[string]any, err error)
}

type entry struct {
	Timestamp time.Time      `json:"timestamp"`
	Type      string         `json:"type"`
	Data      map[string]any `json:"data"`
	Error     *entryError    `json:"error"`
}

type entryError struct {
	Message string `json:"message"`
}

// HTTPRecorder POSTs events as JSON to a log endpoint.
type HTTPRecorder struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger
	now      func() time.Time
}

// NewHTTPRecorder creates a recorder for endpoint. Returns a no-op recorder
// when endpoint is empty.
func NewHTTPRecorder(endpoint string, logger *slog.Logger) Recorder {
	if endpoint == "" {
		return Nop{}
	}
	return &HTTPRecorder{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 5 * time.Second},
		logger:   logger,
		now:      time.Now,
	}
}

func (r *HTTPRecorder) Record(ctx context.Context, eventType string, data map[string]any, err error) {
	e := entry{
		Timestamp: r.now().UTC(),
		Type:      eventType,
		Data:      data,
	}
	if err != nil {
		e.Error = &entryError{Message: err.Error()}
	}

	if sendErr := r.send(ctx, e); sendErr != nil {
		r.logger.Warn("failed to relay monitor event", "type", eventType, "error", sendErr)
	}
}

func (r *HTTPRecorder) send(ctx context.Context, e entry) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("log endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// Nop discards events.
type Nop struct{}

func (Nop) Record(context.Context, string, map[string]any, error) {}

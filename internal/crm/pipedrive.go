// Package crm forwards leads to Pipedrive.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/DukeRupert/greenmarine/internal/metrics"
)

const (
	// VisibleToCompany makes a person visible to the entire company.
	VisibleToCompany = 3

	defaultTimeout = 15 * time.Second
)

// ErrUnsuccessful is returned when Pipedrive answers 2xx with success=false.
var ErrUnsuccessful = errors.New("pipedrive: request not successful")

// Client is the subset of Pipedrive used for lead forwarding.
type Client interface {
	CreatePerson(ctx context.Context, params PersonParams) (*Person, error)
	AddNote(ctx context.Context, params NoteParams) (*Note, error)
	TestConnection(ctx context.Context) error
}

// Config contains configuration for the Pipedrive client
type Config struct {
	APIKey        string
	CompanyDomain string
	BaseURL       string // Overrides https://{CompanyDomain}.pipedrive.com

	RequestTimeout time.Duration
	RequestsPerSec float64
}

// PersonParams describes a person to create.
type PersonParams struct {
	Name  string
	Email string
	Phone string
}

// Person is a created Pipedrive person.
type Person struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// NoteParams describes a note pinned to a person.
type NoteParams struct {
	PersonID int64
	Content  string
}

// Note is a created Pipedrive note.
type Note struct {
	ID       int64 `json:"id"`
	PersonID int64 `json:"person_id"`
}

// APIError is a non-2xx response from Pipedrive.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("pipedrive: status %d", e.StatusCode)
	}
	return fmt.Sprintf("pipedrive: status %d: %s", e.StatusCode, e.Message)
}

// IsClientError reports whether retrying the same request cannot succeed.
// 429 is retryable.
func (e *APIError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500 && e.StatusCode != http.StatusTooManyRequests
}

// IsPermanent reports whether err is a Pipedrive error that should not be retried.
func IsPermanent(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsClientError()
	}
	return errors.Is(err, ErrUnsuccessful)
}

// PipedriveClient implements Client over the Pipedrive v1 REST API.
type PipedriveClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// New creates a Pipedrive client.
func New(config Config, logger *slog.Logger) (*PipedriveClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("pipedrive API key is required")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		if config.CompanyDomain == "" {
			return nil, fmt.Errorf("pipedrive company domain is required")
		}
		baseURL = fmt.Sprintf("https://%s.pipedrive.com", config.CompanyDomain)
	}

	if config.RequestTimeout == 0 {
		config.RequestTimeout = defaultTimeout
	}
	if config.RequestsPerSec == 0 {
		config.RequestsPerSec = 5
	}

	return &PipedriveClient{
		apiKey:  config.APIKey,
		baseURL: baseURL,
		client: &http.Client{
			Timeout:   config.RequestTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter: rate.NewLimiter(rate.Limit(config.RequestsPerSec), 2),
		logger:  logger,
	}, nil
}

// =============================================================================
// Operations
// =============================================================================

type contactField struct {
	Value   string `json:"value"`
	Primary bool   `json:"primary"`
	Label   string `json:"label"`
}

type createPersonRequest struct {
	Name      string         `json:"name"`
	Email     []contactField `json:"email"`
	Phone     []contactField `json:"phone"`
	VisibleTo int            `json:"visible_to"`
}

// CreatePerson creates a person with a primary work email and phone.
func (c *PipedriveClient) CreatePerson(ctx context.Context, params PersonParams) (*Person, error) {
	body := createPersonRequest{
		Name:      params.Name,
		Email:     []contactField{{Value: params.Email, Primary: true, Label: "work"}},
		Phone:     []contactField{{Value: params.Phone, Primary: true, Label: "work"}},
		VisibleTo: VisibleToCompany,
	}

	var person Person
	err := c.do(ctx, "create_person", http.MethodPost, "/api/v1/persons", body, &person)
	metrics.CRMCall("create_person", err)
	if err != nil {
		return nil, fmt.Errorf("create person: %w", err)
	}
	return &person, nil
}

type addNoteRequest struct {
	Content            string `json:"content"`
	PersonID           int64  `json:"person_id"`
	PinnedToPersonFlag bool   `json:"pinned_to_person_flag"`
}

// AddNote adds a note pinned to the person.
func (c *PipedriveClient) AddNote(ctx context.Context, params NoteParams) (*Note, error) {
	body := addNoteRequest{
		Content:            params.Content,
		PersonID:           params.PersonID,
		PinnedToPersonFlag: true,
	}

	var note Note
	err := c.do(ctx, "add_note", http.MethodPost, "/api/v1/notes", body, &note)
	metrics.CRMCall("add_note", err)
	if err != nil {
		return nil, fmt.Errorf("add note: %w", err)
	}
	return &note, nil
}

// TestConnection verifies the API key by listing users.
func (c *PipedriveClient) TestConnection(ctx context.Context) error {
	err := c.do(ctx, "test_connection", http.MethodGet, "/api/v1/users", nil, nil)
	metrics.CRMCall("test_connection", err)
	if err != nil {
		return fmt.Errorf("test connection: %w", err)
	}
	return nil
}

// =============================================================================
// Transport
// =============================================================================

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (c *PipedriveClient) do(ctx context.Context, op, method, path string, in, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := c.newRequest(ctx, method, path, in)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("pipedrive request",
		"operation", op,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: env.Error}
	}
	if decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}
	if !env.Success {
		if env.Error != "" {
			return fmt.Errorf("%w: %s", ErrUnsuccessful, env.Error)
		}
		return ErrUnsuccessful
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}

func (c *PipedriveClient) newRequest(ctx context.Context, method, path string, in any) (*http.Request, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	q := u.Query()
	q.Set("api_token", c.apiKey)
	u.RawQuery = q.Encode()

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

var _ Client = (*PipedriveClient)(nil)

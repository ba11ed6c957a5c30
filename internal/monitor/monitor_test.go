package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPRecorder_Record(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	rec := NewHTTPRecorder(srv.URL, slog.New(slog.DiscardHandler)).(*HTTPRecorder)
	rec.now = func() time.Time { return time.Date(2030, 5, 1, 10, 0, 0, 0, time.UTC) }

	rec.Record(context.Background(), EventCRMError, map[string]any{"email": "jan@example.nl"}, errors.New("boom"))

	assert.Equal(t, "crm_error", got["type"])
	assert.Equal(t, "2030-05-01T10:00:00Z", got["timestamp"])
	assert.Equal(t, map[string]any{"email": "jan@example.nl"}, got["data"])
	assert.Equal(t, map[string]any{"message": "boom"}, got["error"])
}

func TestHTTPRecorder_NullErrorOnSuccess(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	NewHTTPRecorder(srv.URL, slog.New(slog.DiscardHandler)).Record(context.Background(), EventLeadSaved, nil, nil)

	assert.Contains(t, got, "error")
	assert.Nil(t, got["error"])
}

func TestHTTPRecorder_FailsSilently(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	srv.Close()

	rec := NewHTTPRecorder(srv.URL, slog.New(slog.DiscardHandler))
	assert.NotPanics(t, func() {
		rec.Record(context.Background(), EventLeadReceived, map[string]any{"k": "v"}, nil)
	})
}

func TestNewHTTPRecorder_EmptyEndpoint(t *testing.T) {
	assert.IsType(t, Nop{}, NewHTTPRecorder("", nil))
}

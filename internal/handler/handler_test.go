package handler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DukeRupert/greenmarine/internal/catalog"
	"github.com/DukeRupert/greenmarine/internal/engine"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func testEngine(t *testing.T) *engine.Engine {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	e, err := engine.New(cat)
	require.NoError(t, err)
	return e
}

func passthrough(next http.Handler) http.Handler { return next }

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

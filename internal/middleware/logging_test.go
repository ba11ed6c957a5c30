package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func newBufferedLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, nil)), &buf
}

func TestRequestLoggingMiddleware_LogsBasicInfo(t *testing.T) {
	logger, buf := newBufferedLogger()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	req := httptest.NewRequest("POST", "/api/wizard/select", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	req.Header.Set("User-Agent", "calculator-test")
	NewRequestLoggingMiddleware(logger).Handler(handler).ServeHTTP(httptest.NewRecorder(), req)

	logOutput := buf.String()
	for _, want := range []string{"method=POST", "path=/api/wizard/select", "status=200", "bytes=11", "duration_ms=", "ip=192.168.1.1", "calculator-test"} {
		if !strings.Contains(logOutput, want) {
			t.Errorf("log should contain %q, got: %s", want, logOutput)
		}
	}
}

func TestRequestLoggingMiddleware_Levels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusOK, "level=INFO"},
		{http.StatusTooManyRequests, "level=WARN"},
		{http.StatusServiceUnavailable, "level=ERROR"},
	}

	for _, tc := range tests {
		logger, buf := newBufferedLogger()
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		})

		NewRequestLoggingMiddleware(logger).Handler(handler).
			ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/api/leads", nil))

		if !strings.Contains(buf.String(), tc.level) {
			t.Errorf("status %d: expected %s, got: %s", tc.status, tc.level, buf.String())
		}
	}
}

func TestRequestLoggingMiddleware_RedactsSensitiveQueryParams(t *testing.T) {
	logger, buf := newBufferedLogger()

	req := httptest.NewRequest("GET", "/api/wizard?email=jan@example.nl&step=2", nil)
	NewRequestLoggingMiddleware(logger).Handler(okHandler()).ServeHTTP(httptest.NewRecorder(), req)

	logOutput := buf.String()
	if strings.Contains(logOutput, "jan@example.nl") {
		t.Errorf("log should not contain email, got: %s", logOutput)
	}
	if !strings.Contains(logOutput, "email=[REDACTED]") || !strings.Contains(logOutput, "step=2") {
		t.Errorf("expected redacted query, got: %s", logOutput)
	}
}

func TestRequestLoggingMiddleware_IncludesTraceID(t *testing.T) {
	logger, buf := newBufferedLogger()

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})

	req := httptest.NewRequest("GET", "/api/catalog", nil)
	req = req.WithContext(trace.ContextWithSpanContext(context.Background(), sc))
	NewRequestLoggingMiddleware(logger).Handler(okHandler()).ServeHTTP(httptest.NewRecorder(), req)

	if !strings.Contains(buf.String(), "trace_id=4bf92f3577b34da6a3ce929d0e0e4736") {
		t.Errorf("expected trace id in log, got: %s", buf.String())
	}
}

func TestRequestLoggingMiddleware_SkipsNoisyPaths(t *testing.T) {
	for _, path := range []string{"/health", "/metrics", "/files/sheets/a.pdf"} {
		logger, buf := newBufferedLogger()
		NewRequestLoggingMiddleware(logger).Handler(okHandler()).
			ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", path, nil))

		if buf.Len() != 0 {
			t.Errorf("%s should not be logged, got: %s", path, buf.String())
		}
	}
}

func TestSanitizePath(t *testing.T) {
	tests := []struct {
		path, query, want string
	}{
		{"/api/catalog", "", "/api/catalog"},
		{"/x", "api_token=abc&x=1", "/x?api_token=[REDACTED]&x=1"},
		{"/x", "novalue", "/x"},
	}
	for _, tc := range tests {
		if got := sanitizePath(tc.path, tc.query); got != tc.want {
			t.Errorf("sanitizePath(%q, %q) = %q, want %q", tc.path, tc.query, got, tc.want)
		}
	}
}

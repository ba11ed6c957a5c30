package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/felixge/httpsnoop"
	"go.opentelemetry.io/otel/trace"
)

// RequestLoggingMiddleware writes one access log line per request.
type RequestLoggingMiddleware struct {
	logger *slog.Logger
}

func NewRequestLoggingMiddleware(logger *slog.Logger) *RequestLoggingMiddleware {
	return &RequestLoggingMiddleware{logger: logger}
}

// Handler logs everything except health checks, scrapes and file downloads.
// 5xx logs at error, 429 at warn.
func (m *RequestLoggingMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if quietPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		stats := httpsnoop.CaptureMetrics(next, w, r)

		attrs := []slog.Attr{
			slog.String("method", r.Method),
			slog.String("path", sanitizePath(r.URL.Path, r.URL.RawQuery)),
			slog.Int("status", stats.Code),
			slog.Int64("bytes", stats.Written),
			slog.Int64("duration_ms", stats.Duration.Milliseconds()),
			slog.String("ip", getClientIP(r)),
			slog.String("user_agent", r.UserAgent()),
		}
		if sc := trace.SpanContextFromContext(r.Context()); sc.HasTraceID() {
			attrs = append(attrs, slog.String("trace_id", sc.TraceID().String()))
		}

		m.logger.LogAttrs(r.Context(), levelForStatus(stats.Code), "request", attrs...)
	})
}

func levelForStatus(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status == http.StatusTooManyRequests:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

func quietPath(path string) bool {
	switch path {
	case "/health", "/metrics":
		return true
	}
	return strings.HasPrefix(path, "/files/")
}

// redactedParams are masked in the access log, contact details included.
var redactedParams = []string{"token", "key", "secret", "password", "api_key", "api_token", "apikey", "email", "phone"}

// sanitizePath re-attaches the query with secrets masked. Parameters
// without a value are dropped.
func sanitizePath(path, rawQuery string) string {
	if rawQuery == "" {
		return path
	}

	var kept []string
	for _, pair := range strings.Split(rawQuery, "&") {
		name, _, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		for _, secret := range redactedParams {
			if strings.EqualFold(name, secret) {
				pair = name + "=[REDACTED]"
				break
			}
		}
		kept = append(kept, pair)
	}

	if len(kept) == 0 {
		return path
	}
	return path + "?" + strings.Join(kept, "&")
}

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRouteLabel(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		path    string
		want    string
	}{
		{"matched pattern wins", "POST /api/wizard/select", "/api/wizard/select", "POST /api/wizard/select"},
		{"files collapse", "", "/files/sheets/abc.pdf", "/files/{key}"},
		{"uuid replaced", "", "/api/leads/0b9c6f0e-3c1a-4b8e-9d43-5c1f6f0f8e21", "/api/leads/{id}"},
		{"plain path", "", "/unknown", "/unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.path, nil)
			r.Pattern = tt.pattern
			if got := routeLabel(r); got != tt.want {
				t.Errorf("routeLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMiddleware_CapturesStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/catalog", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	Middleware(mux).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/catalog", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("expected status 418, got %d", rec.Code)
	}
}

func TestOutcome(t *testing.T) {
	if got := outcome(nil); got != "success" {
		t.Errorf("outcome(nil) = %q", got)
	}
	if got := outcome(http.ErrHandlerTimeout); got != "error" {
		t.Errorf("outcome(err) = %q", got)
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestBasicAuthMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		user, pass string
		setAuth    bool
		authUser   string
		authPass   string
		wantStatus int
	}{
		{"valid credentials", "admin", "secret123", true, "admin", "secret123", http.StatusOK},
		{"no credentials", "admin", "secret123", false, "", "", http.StatusUnauthorized},
		{"wrong password", "admin", "secret123", true, "admin", "nope", http.StatusUnauthorized},
		{"wrong user", "admin", "secret123", true, "root", "secret123", http.StatusUnauthorized},
		{"disabled", "", "", false, "", "", http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mw := NewBasicAuthMiddleware("metrics", tc.user, tc.pass)

			req := httptest.NewRequest("GET", "/metrics", nil)
			if tc.setAuth {
				req.SetBasicAuth(tc.authUser, tc.authPass)
			}
			rec := httptest.NewRecorder()
			mw.Handler(okHandler()).ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Errorf("expected status %d, got %d", tc.wantStatus, rec.Code)
			}
			if rec.Code == http.StatusUnauthorized {
				if got := rec.Header().Get("WWW-Authenticate"); got != `Basic realm="metrics"` {
					t.Errorf("unexpected WWW-Authenticate %q", got)
				}
			}
		})
	}
}

func TestBasicAuthMiddleware_Enabled(t *testing.T) {
	if NewBasicAuthMiddleware("x", "", "").Enabled() {
		t.Error("expected disabled without credentials")
	}
	if !NewBasicAuthMiddleware("x", "", "pw").Enabled() {
		t.Error("expected enabled with password only")
	}
}

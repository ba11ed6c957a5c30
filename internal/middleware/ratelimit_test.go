package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestLimiter(t *testing.T, max int, window time.Duration) (*RateLimiter, *time.Time) {
	t.Helper()
	rl := NewRateLimiter(max, window, slog.New(slog.DiscardHandler))
	t.Cleanup(rl.Close)

	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	return rl, &now
}

func TestRateLimiter_AllowsBurst(t *testing.T) {
	rl, _ := newTestLimiter(t, 5, 15*time.Minute)

	for i := 0; i < 5; i++ {
		if ok, _ := rl.Allow("192.168.1.1"); !ok {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	ok, wait := rl.Allow("192.168.1.1")
	if ok {
		t.Fatal("6th request should be blocked")
	}
	if wait != 3*time.Minute {
		t.Errorf("expected 3m until next token, got %v", wait)
	}
}

func TestRateLimiter_RefillsOverTime(t *testing.T) {
	rl, now := newTestLimiter(t, 2, time.Minute)

	rl.Allow("a")
	rl.Allow("a")
	if ok, _ := rl.Allow("a"); ok {
		t.Fatal("expected limit reached")
	}

	*now = now.Add(30 * time.Second)
	if ok, _ := rl.Allow("a"); !ok {
		t.Error("expected one token after half a window")
	}
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	rl, _ := newTestLimiter(t, 1, time.Minute)

	if ok, _ := rl.Allow("a"); !ok {
		t.Fatal("a should be allowed")
	}
	if ok, _ := rl.Allow("b"); !ok {
		t.Error("b should be allowed")
	}
}

func TestRateLimiter_ResetAndSweep(t *testing.T) {
	rl, now := newTestLimiter(t, 1, time.Minute)

	rl.Allow("a")
	rl.Reset("a")
	if ok, _ := rl.Allow("a"); !ok {
		t.Error("expected reset to clear the bucket")
	}

	*now = now.Add(2 * time.Minute)
	rl.sweep()
	if len(rl.entries) != 0 {
		t.Errorf("expected idle entries swept, got %d", len(rl.entries))
	}
}

func TestRateLimitMiddleware_Limit(t *testing.T) {
	rl, _ := newTestLimiter(t, 1, time.Minute)
	mw := NewRateLimitMiddleware(rl, slog.New(slog.DiscardHandler))
	handler := mw.Limit(okHandler())

	req := httptest.NewRequest("POST", "/api/leads", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request: expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: expected 429, got %d", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "60" {
		t.Errorf("expected Retry-After 60, got %q", got)
	}

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error.Code != "rate_limit" {
		t.Errorf("expected rate_limit error code, got %q", body.Error.Code)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded for", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.1:80", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": " 198.51.100.2 "}, "10.0.0.1:80", "198.51.100.2"},
		{"remote addr", nil, "192.0.2.1:5555", "192.0.2.1"},
		{"remote without port", nil, "192.0.2.1", "192.0.2.1"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tc.remote
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			if got := getClientIP(req); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

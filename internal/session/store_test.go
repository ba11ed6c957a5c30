package session

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DukeRupert/greenmarine/internal/domain"
	"github.com/DukeRupert/greenmarine/internal/wizard"
)

type stubRecommender struct{}

func (stubRecommender) Recommend(p domain.BoatParameters) domain.Recommendation {
	return domain.Recommendation{Input: p.Normalize()}
}

func newTestStore(t *testing.T, ttl time.Duration) *Store {
	return newCappedTestStore(t, ttl, 0)
}

func newCappedTestStore(t *testing.T, ttl time.Duration, maxSessions int) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := NewStore(func() *wizard.Controller {
		return wizard.NewController(stubRecommender{}, 0, logger)
	}, ttl, maxSessions, logger)
	t.Cleanup(s.Close)
	return s
}

func TestStore_GetCreatesSession(t *testing.T) {
	s := newTestStore(t, time.Hour)

	token, c := s.Get("")
	if token == "" {
		t.Fatal("expected a token")
	}
	if c == nil {
		t.Fatal("expected a controller")
	}

	again, c2 := s.Get(token)
	if again != token {
		t.Errorf("expected same token, got %q", again)
	}
	if c2 != c {
		t.Error("expected the same controller for the same token")
	}
	if s.Len() != 1 {
		t.Errorf("expected 1 session, got %d", s.Len())
	}
}

func TestStore_UnknownTokenGetsFreshSession(t *testing.T) {
	s := newTestStore(t, time.Hour)

	token, _ := s.Get("forged-token")
	if token == "forged-token" {
		t.Error("unknown tokens must not be adopted")
	}
}

func TestStore_SessionsAreIndependent(t *testing.T) {
	s := newTestStore(t, time.Hour)

	_, a := s.Get("")
	_, b := s.Get("")

	if _, err := a.Select("zakelijk"); err != nil {
		t.Fatalf("select: %v", err)
	}

	if got := b.Snapshot().StepIndex; got != 0 {
		t.Errorf("expected second session untouched, got step %d", got)
	}
	if got := a.Snapshot().StepIndex; got != 1 {
		t.Errorf("expected first session at step 1, got %d", got)
	}
}

func TestStore_Expire(t *testing.T) {
	s := newTestStore(t, time.Minute)
	token, _ := s.Get("")

	if _, ok := s.Lookup(token); !ok {
		t.Fatal("expected session to exist")
	}

	s.mu.Lock()
	s.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	s.mu.Unlock()

	if _, ok := s.Lookup(token); ok {
		t.Error("expected session to be expired")
	}
	if n := s.Expire(); n != 1 {
		t.Errorf("expected 1 expired session, got %d", n)
	}
	if s.Len() != 0 {
		t.Errorf("expected empty store, got %d", s.Len())
	}

	newToken, _ := s.Get(token)
	if newToken == token {
		t.Error("expired token must not be reused")
	}
}

func TestStore_Delete(t *testing.T) {
	s := newTestStore(t, time.Hour)
	token, _ := s.Get("")

	s.Delete(token)
	s.Delete(token)

	if s.Len() != 0 {
		t.Errorf("expected empty store, got %d", s.Len())
	}
}

func TestStore_CapEvictsLeastRecentlyActive(t *testing.T) {
	s := newCappedTestStore(t, time.Hour, 2)

	first, a := s.Get("")
	time.Sleep(2 * time.Millisecond)
	second, _ := s.Get("")
	time.Sleep(2 * time.Millisecond)
	a.Back()
	time.Sleep(2 * time.Millisecond)

	third, _ := s.Get("")

	if s.Len() != 2 {
		t.Fatalf("expected store capped at 2, got %d", s.Len())
	}
	if _, ok := s.Lookup(second); ok {
		t.Error("expected least recently active session to be evicted")
	}
	for _, token := range []string{first, third} {
		if _, ok := s.Lookup(token); !ok {
			t.Errorf("expected session %q to survive", token)
		}
	}
}

func TestStore_CapReclaimsExpiredFirst(t *testing.T) {
	s := newCappedTestStore(t, time.Minute, 2)
	stale, _ := s.Get("")
	s.Get("")

	s.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	s.Get("")

	if s.Len() != 1 {
		t.Fatalf("expected both expired sessions reclaimed, got %d sessions", s.Len())
	}
	if _, ok := s.Lookup(stale); ok {
		t.Error("expected expired session to be reclaimed")
	}
}

func TestStore_CookielessFloodStaysBounded(t *testing.T) {
	s := newCappedTestStore(t, time.Hour, 10)

	for range 100 {
		s.Get("")
	}
	if s.Len() != 10 {
		t.Errorf("expected 10 sessions, got %d", s.Len())
	}
}

// Package session keeps one wizard.Controller per HTTP visitor, keyed by an
// opaque token, and drops sessions that sit idle past the TTL.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/DukeRupert/greenmarine/internal/metrics"
	"github.com/DukeRupert/greenmarine/internal/wizard"
)

// Factory builds a new controller for a visitor.
type Factory func() *wizard.Controller

// Store maps session tokens to wizard controllers and expires idle ones.
// It holds at most max sessions; creating one beyond that evicts the least
// recently active session.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*wizard.Controller
	factory  Factory
	ttl      time.Duration
	max      int
	logger   *slog.Logger
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewStore creates a store and starts the cleanup goroutine. Call Close to
// stop it. A maxSessions of zero or less means no cap.
func NewStore(factory Factory, ttl time.Duration, maxSessions int, logger *slog.Logger) *Store {
	s := &Store{
		sessions: make(map[string]*wizard.Controller),
		factory:  factory,
		ttl:      ttl,
		max:      maxSessions,
		logger:   logger,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
	go s.cleanup()
	return s
}

// Get returns the controller for token, creating a new session when token
// is unknown or expired. The returned token may differ from the input.
func (s *Store) Get(token string) (string, *wizard.Controller) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.sessions[token]; ok && token != "" {
		if s.now().Sub(c.LastActive()) < s.ttl {
			return token, c
		}
		s.removeLocked(token)
	}

	if s.max > 0 && len(s.sessions) >= s.max {
		s.makeRoomLocked()
	}

	token = uuid.NewString()
	c := s.factory()
	s.sessions[token] = c
	metrics.WizardSessionsActive.Inc()
	s.logger.Debug("wizard session created")
	return token, c
}

// Lookup returns an existing, unexpired controller.
func (s *Store) Lookup(token string) (*wizard.Controller, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.sessions[token]
	if !ok || s.now().Sub(c.LastActive()) >= s.ttl {
		return nil, false
	}
	return c, true
}

// Delete removes a session.
func (s *Store) Delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(token)
}

// Len returns the number of stored sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Close stops the cleanup goroutine and all session timers.
func (s *Store) Close() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		s.mu.Lock()
		defer s.mu.Unlock()
		for token := range s.sessions {
			s.removeLocked(token)
		}
	})
}

func (s *Store) removeLocked(token string) {
	c, ok := s.sessions[token]
	if !ok {
		return
	}
	c.Close()
	delete(s.sessions, token)
	metrics.WizardSessionsActive.Dec()
}

// makeRoomLocked drops expired sessions and, when that frees nothing, the
// least recently active one.
func (s *Store) makeRoomLocked() {
	if s.expireLocked() > 0 {
		return
	}

	var oldest string
	var oldestAt time.Time
	for token, c := range s.sessions {
		if at := c.LastActive(); oldest == "" || at.Before(oldestAt) {
			oldest, oldestAt = token, at
		}
	}
	if oldest == "" {
		return
	}
	s.removeLocked(oldest)
	s.logger.Warn("wizard session limit reached, evicted least recently active session",
		"limit", s.max,
		"idle", s.now().Sub(oldestAt),
	)
}

// cleanup periodically removes idle sessions.
func (s *Store) cleanup() {
	interval := s.ttl / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			if n := s.Expire(); n > 0 {
				s.logger.Debug("expired wizard sessions", "count", n)
			}
		}
	}
}

// Expire removes every idle session and returns how many were removed.
func (s *Store) Expire() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expireLocked()
}

func (s *Store) expireLocked() int {
	now := s.now()
	removed := 0
	for token, c := range s.sessions {
		if now.Sub(c.LastActive()) >= s.ttl {
			s.removeLocked(token)
			removed++
		}
	}
	return removed
}

package service

import (
	"sync"
	"time"
)

// DefaultSessionTTL is how long an unlocked PIN stays usable.
const DefaultSessionTTL = time.Hour

// Session caches the unlocked PIN in process memory only, with a fixed
// expiry. It is the only place a PIN is held after authentication and is
// never persisted: every cold start re-prompts.
type Session struct {
	mu         sync.Mutex
	pin        string
	unlockedAt time.Time
	ttl        time.Duration
	now        func() time.Time
}

// NewSession creates a locked session. A non-positive ttl falls back to
// DefaultSessionTTL.
func NewSession(ttl time.Duration) *Session {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Session{
		ttl: ttl,
		now: time.Now,
	}
}

// Unlock stores pin with the current time as unlock timestamp.
func (s *Session) Unlock(pin string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pin = pin
	s.unlockedAt = s.now()
}

// Current returns the cached PIN if the session is still within its TTL.
// Expiry is checked lazily here, not by a background timer; an expired
// session is cleared on the spot.
func (s *Session) Current() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pin == "" {
		return "", false
	}
	if s.now().Sub(s.unlockedAt) >= s.ttl {
		s.pin = ""
		s.unlockedAt = time.Time{}
		return "", false
	}
	return s.pin, true
}

// Lock clears the cached PIN immediately (explicit logout).
func (s *Session) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pin = ""
	s.unlockedAt = time.Time{}
}

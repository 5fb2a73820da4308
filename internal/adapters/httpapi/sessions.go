package httpapi

import (
	"sync"
	"time"

	"studiostock/internal/core"
)

// DefaultSessionTTL bounds how long an untouched usage session is kept.
const DefaultSessionTTL = 12 * time.Hour

type session struct {
	batch *core.ConsumptionBatch
	seen  time.Time
}

// Sessions keeps the open consumption batches keyed by batch id. Idle
// sessions are dropped the next time one is opened.
type Sessions struct {
	mu   sync.Mutex
	open map[string]*session
	ttl  time.Duration
	now  func() time.Time
}

// NewSessions returns an empty registry. A non-positive ttl uses
// DefaultSessionTTL.
func NewSessions(ttl time.Duration, now func() time.Time) *Sessions {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if now == nil {
		now = time.Now
	}
	return &Sessions{open: make(map[string]*session), ttl: ttl, now: now}
}

// Add registers b and prunes idle sessions.
func (s *Sessions) Add(b *core.ConsumptionBatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for id, sess := range s.open {
		if now.Sub(sess.seen) > s.ttl {
			delete(s.open, id)
		}
	}
	s.open[b.ID()] = &session{batch: b, seen: now}
}

// Get returns the batch for id and marks it as used.
func (s *Sessions) Get(id string) (*core.ConsumptionBatch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.open[id]
	if !ok {
		return nil, false
	}
	if s.now().Sub(sess.seen) > s.ttl {
		delete(s.open, id)
		return nil, false
	}
	sess.seen = s.now()
	return sess.batch, true
}

// Remove forgets id.
func (s *Sessions) Remove(id string) {
	s.mu.Lock()
	delete(s.open, id)
	s.mu.Unlock()
}

// Len reports the number of open sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.open)
}

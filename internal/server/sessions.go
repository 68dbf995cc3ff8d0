package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-portfolio/pkg/preview"
	"github.com/goliatone/go-portfolio/pkg/state"
)

// defaultTab queues patches for clients that do not announce a tab id.
const defaultTab = "default"

// tab is one open editor page. Each tab drains its own patch queue so a
// request from one page never consumes updates meant for another.
type tab struct {
	mirror   *preview.Mirror
	lastSeen time.Time
}

// entry is the editor state behind one session cookie.
type entry struct {
	id       string
	session  *state.Session
	lastSeen time.Time

	mu        sync.Mutex
	tabs      map[string]*tab
	newMirror func(*state.Session) *preview.Mirror
}

// mirror returns the patch queue of tabID, opening it on first use.
func (e *entry) mirror(tabID string, now time.Time) *preview.Mirror {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.tabs[tabID]
	if !ok {
		t = &tab{mirror: e.newMirror(e.session)}
		e.tabs[tabID] = t
	}
	t.lastSeen = now
	return t.mirror
}

func (e *entry) tabCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.tabs)
}

func (e *entry) closeIdleTabs(now time.Time, ttl time.Duration) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	closed := 0
	for id, t := range e.tabs {
		if now.Sub(t.lastSeen) > ttl {
			t.mirror.Close()
			delete(e.tabs, id)
			closed++
		}
	}
	return closed
}

func (e *entry) close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for id, t := range e.tabs {
		t.mirror.Close()
		delete(e.tabs, id)
	}
}

// SessionStore keeps editor sessions in memory and evicts idle ones.
type SessionStore struct {
	mu        sync.Mutex
	entries   map[string]*entry
	ttl       time.Duration
	now       func() time.Time
	newFn     func() *state.Session
	newMirror func(*state.Session) *preview.Mirror
	logger    *slog.Logger
}

func newSessionStore(ttl time.Duration, now func() time.Time, newFn func() *state.Session, newMirror func(*state.Session) *preview.Mirror, logger *slog.Logger) *SessionStore {
	if now == nil {
		now = time.Now
	}
	return &SessionStore{
		entries:   make(map[string]*entry),
		ttl:       ttl,
		now:       now,
		newFn:     newFn,
		newMirror: newMirror,
		logger:    logger,
	}
}

// lookup returns the live entry for id and refreshes its idle timer.
func (s *SessionStore) lookup(id string) (*entry, bool) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	now := s.now()
	if now.Sub(e.lastSeen) > s.ttl {
		s.evictLocked(id, e)
		return nil, false
	}
	e.lastSeen = now
	return e, true
}

func (s *SessionStore) create() *entry {
	e := &entry{
		id:        uuid.NewString(),
		session:   s.newFn(),
		lastSeen:  s.now(),
		tabs:      make(map[string]*tab),
		newMirror: s.newMirror,
	}
	s.mu.Lock()
	s.entries[e.id] = e
	s.mu.Unlock()

	s.logger.Debug("session created", "session", e.id)
	return e
}

// Len reports the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Sweep evicts sessions idle for longer than the TTL and returns how many
// were removed. Idle tabs of live sessions are closed as well.
func (s *SessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, e := range s.entries {
		if now.Sub(e.lastSeen) > s.ttl {
			s.evictLocked(id, e)
			removed++
			continue
		}
		if n := e.closeIdleTabs(now, s.ttl); n > 0 {
			s.logger.Debug("closed idle tabs", "session", id, "count", n)
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (s *SessionStore) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Info("evicted idle sessions", "count", n, "remaining", s.Len())
			}
		}
	}
}

func (s *SessionStore) evictLocked(id string, e *entry) {
	delete(s.entries, id)
	e.close()
	s.logger.Debug("session evicted", "session", id)
}

package services

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"drive-rag-chatbot/internal/logger"
)

// Session owns the retrieval state for one user session: the active vector
// index and the last document selection. The index is replaced wholesale on
// each selection event; a query in flight always observes either the
// previous or the fully built index, never a partial one.
type Session struct {
	ID string

	mu       sync.RWMutex
	index    *VectorIndex
	selected []string
	lastSeen time.Time
}

// Index returns the active index (possibly nil).
func (s *Session) Index() *VectorIndex {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

// ReplaceIndex atomically swaps in a fully built index for a new selection.
func (s *Session) ReplaceIndex(index *VectorIndex, selected []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index = index
	s.selected = append([]string(nil), selected...)
}

// SelectedCount returns how many documents the session last selected.
func (s *Session) SelectedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.selected)
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return now.Sub(s.lastSeen)
}

// SessionStore hands out sessions keyed by an opaque cookie id and expires
// idle ones. There is deliberately no process-wide index: all retrieval
// state hangs off the session object.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	stopChan chan struct{}
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		stopChan: make(chan struct{}),
	}
}

// TTL returns the configured idle lifetime.
func (st *SessionStore) TTL() time.Duration { return st.ttl }

// Get returns the session for id, creating a fresh one when the id is empty
// or unknown (expired ids get a new session rather than an error).
func (st *SessionStore) Get(id string) *Session {
	now := time.Now()

	st.mu.Lock()
	defer st.mu.Unlock()

	if id != "" {
		if sess, ok := st.sessions[id]; ok {
			sess.touch(now)
			return sess
		}
	}

	sess := &Session{ID: uuid.NewString(), lastSeen: now}
	st.sessions[sess.ID] = sess
	return sess
}

// Start runs the expiry janitor until Stop is called.
func (st *SessionStore) Start() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	logger.Info("session janitor started", "ttl", st.ttl.String())

	for {
		select {
		case <-ticker.C:
			st.purgeExpired(time.Now())
		case <-st.stopChan:
			logger.Info("session janitor stopped")
			return
		}
	}
}

// Stop terminates the janitor loop.
func (st *SessionStore) Stop() {
	close(st.stopChan)
}

func (st *SessionStore) purgeExpired(now time.Time) {
	st.mu.Lock()
	defer st.mu.Unlock()

	for id, sess := range st.sessions {
		if sess.idleSince(now) > st.ttl {
			delete(st.sessions, id)
		}
	}
}

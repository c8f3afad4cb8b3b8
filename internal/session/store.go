package session

import (
	"sync"
	"time"

	"github.com/Paul-Pranta/bookspp/internal/metrics"
	"github.com/google/uuid"
)

// Store keeps one Session per browser visitor, in memory only
type Store struct {
	backend Backend
	idle    time.Duration
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*storeEntry
}

type storeEntry struct {
	session  *Session
	lastSeen time.Time
}

// NewStore creates a store whose sessions expire after idle without use
func NewStore(backend Backend, idle time.Duration) *Store {
	return &Store{
		backend:  backend,
		idle:     idle,
		now:      time.Now,
		sessions: make(map[string]*storeEntry),
	}
}

// Get returns the session for id, creating a fresh one under a new id when
// id is unknown. The returned id is the one the caller should keep.
func (st *Store) Get(id string) (*Session, string) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if entry, ok := st.sessions[id]; ok && id != "" {
		entry.lastSeen = st.now()
		return entry.session, id
	}

	id = uuid.NewString()
	entry := &storeEntry{session: New(st.backend), lastSeen: st.now()}
	st.sessions[id] = entry
	metrics.ActiveSessions.Set(float64(len(st.sessions)))
	return entry.session, id
}

// Sweep drops sessions idle for longer than the store's idle limit and
// returns how many were removed
func (st *Store) Sweep() int {
	st.mu.Lock()
	defer st.mu.Unlock()

	cutoff := st.now().Add(-st.idle)
	removed := 0
	for id, entry := range st.sessions {
		if entry.lastSeen.Before(cutoff) {
			delete(st.sessions, id)
			removed++
		}
	}
	metrics.ActiveSessions.Set(float64(len(st.sessions)))
	return removed
}

// Len returns the number of live sessions
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

package player

import (
	"sync"

	"github.com/google/uuid"
	"github.com/scenedeck/scenedeck/internal/highlight"
	"github.com/scenedeck/scenedeck/internal/timeline"
)

// Store holds the open player sessions. One session per open video; closing
// the video discards its session and timeline.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Open creates a session for a freshly loaded timeline and returns it.
func (st *Store) Open(folder, filename string, tl timeline.Timeline, criteria *highlight.Criteria) *Session {
	s := NewSession(uuid.NewString(), folder, filename, tl, criteria)

	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

// Get returns the session with the given id, or nil.
func (st *Store) Get(id string) *Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.sessions[id]
}

// Close discards a session. Closing an unknown id is harmless.
func (st *Store) Close(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

// Count returns the number of open sessions.
func (st *Store) Count() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

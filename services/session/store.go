// Package session keeps short per-session conversation history in memory.
package session

import (
	"context"
	"sync"

	"github.com/upb/clearpath-assistant/models"
)

// DefaultMaxTurns is the FIFO cap per session
const DefaultMaxTurns = 5

// DefaultSessionID is used when a caller does not name a session
const DefaultSessionID = "default"

// Store holds conversation history per session id
type Store interface {
	// History returns a copy of the session's turns, oldest first
	History(ctx context.Context, sessionID string) []models.ConversationTurn

	// Append adds a turn, dropping the oldest beyond the cap
	Append(ctx context.Context, sessionID string, turn models.ConversationTurn)

	// Clear removes the session
	Clear(ctx context.Context, sessionID string)

	// Exists reports whether the session has any history
	Exists(ctx context.Context, sessionID string) bool
}

type sessionHistory struct {
	mu    sync.Mutex
	turns []models.ConversationTurn
}

// MemoryStore is a process-lifetime Store. Each session has its own lock so
// concurrent sessions never contend.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionHistory
	maxTurns int
}

// NewMemoryStore creates a store. maxTurns <= 0 uses DefaultMaxTurns.
func NewMemoryStore(maxTurns int) *MemoryStore {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &MemoryStore{
		sessions: make(map[string]*sessionHistory),
		maxTurns: maxTurns,
	}
}

// MaxTurns returns the per-session cap
func (s *MemoryStore) MaxTurns() int {
	return s.maxTurns
}

func (s *MemoryStore) lookup(sessionID string) *sessionHistory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[sessionID]
}

func (s *MemoryStore) lookupOrCreate(sessionID string) *sessionHistory {
	if h := s.lookup(sessionID); h != nil {
		return h
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.sessions[sessionID]
	if !ok {
		h = &sessionHistory{}
		s.sessions[sessionID] = h
	}
	return h
}

// History implements Store
func (s *MemoryStore) History(_ context.Context, sessionID string) []models.ConversationTurn {
	h := s.lookup(sessionID)
	if h == nil {
		return []models.ConversationTurn{}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]models.ConversationTurn{}, h.turns...)
}

// Append implements Store
func (s *MemoryStore) Append(_ context.Context, sessionID string, turn models.ConversationTurn) {
	h := s.lookupOrCreate(sessionID)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = append(h.turns, turn)
	if over := len(h.turns) - s.maxTurns; over > 0 {
		h.turns = append([]models.ConversationTurn(nil), h.turns[over:]...)
	}
}

// Clear implements Store. Clearing an unknown session is a no-op.
func (s *MemoryStore) Clear(_ context.Context, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// Exists implements Store
func (s *MemoryStore) Exists(_ context.Context, sessionID string) bool {
	return s.lookup(sessionID) != nil
}

// Count returns the number of live sessions
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

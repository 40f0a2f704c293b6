package registry

import (
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/tripquorum/tripquorum/internal/domain/planning"
)

// ErrUnknownChat is returned when a chat id has no session yet.
var ErrUnknownChat = errors.New("unknown chat")

// SessionStore manages per-chat planning sessions with thread-safe
// access. Sessions are created on first use and live until process exit;
// a reset clears a session in place rather than replacing the pointer,
// so in-flight work holding the old pointer fails its stale check
// instead of resurrecting discarded state.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*planning.Session
}

// NewSessionStore creates an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*planning.Session),
	}
}

// GetOrCreate returns the session for a chat, creating it at the
// hotel-entry stage if the chat is new. Idempotent.
func (r *SessionStore) GetOrCreate(chatID string) *planning.Session {
	r.mu.RLock()
	session, ok := r.sessions[chatID]
	r.mu.RUnlock()
	if ok {
		return session
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Re-check under the write lock; another goroutine may have won.
	if session, ok := r.sessions[chatID]; ok {
		return session
	}
	session = planning.NewSession(chatID)
	r.sessions[chatID] = session
	return session
}

// Get retrieves the session for a chat.
func (r *SessionStore) Get(chatID string) (*planning.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[chatID]
	if !ok {
		return nil, ErrUnknownChat
	}
	return session, nil
}

// All returns all sessions ordered by chat id.
func (r *SessionStore) All() []*planning.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*planning.Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		result = append(result, session)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ChatID() < result[j].ChatID()
	})
	return result
}

// Count returns the number of known chats.
func (r *SessionStore) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

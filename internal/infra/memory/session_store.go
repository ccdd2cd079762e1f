package memory

import (
	"sync"

	"g1-quiz-service/internal/quiz"
)

// SessionStore is an in-memory implementation of app.SessionStore keyed by
// user ID. One live session per user.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*quiz.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*quiz.Session),
	}
}

func (s *SessionStore) GetOrCreate(userID string) *quiz.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[userID]; ok {
		return session
	}
	session := quiz.NewSession()
	s.sessions[userID] = session
	return session
}

func (s *SessionStore) Get(userID string) (*quiz.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[userID]
	return session, ok
}

func (s *SessionStore) Delete(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// Persist is a no-op: in-memory sessions live and die with the process.
func (s *SessionStore) Persist(string) {}

package redis

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"g1-quiz-service/internal/quiz"
	"github.com/redis/go-redis/v9"
)

// SessionStore keeps live sessions in a local map and mirrors their
// serializable subset (mode, answers, progress, settings) into Redis as
// JSON snapshots with a TTL. On a local miss it rehydrates from the
// snapshot; the restored session always comes back idle with no questions,
// since question content and mid-flight status are never persisted.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*quiz.Session
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*quiz.Session),
	}
}

func (s *SessionStore) GetOrCreate(userID string) *quiz.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[userID]; ok {
		return session
	}
	if session, ok := s.restore(userID); ok {
		s.sessions[userID] = session
		return session
	}
	session := quiz.NewSession()
	s.sessions[userID] = session
	return session
}

func (s *SessionStore) Get(userID string) (*quiz.Session, bool) {
	s.mu.RLock()
	session, ok := s.sessions[userID]
	s.mu.RUnlock()
	if ok {
		return session, true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[userID]; ok {
		return session, true
	}
	if session, ok := s.restore(userID); ok {
		s.sessions[userID] = session
		return session, true
	}
	return nil, false
}

func (s *SessionStore) Delete(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	_ = s.client.Del(context.Background(), s.key(userID)).Err()
}

// Persist writes the session snapshot to Redis, best-effort.
func (s *SessionStore) Persist(userID string) {
	s.mu.RLock()
	session, ok := s.sessions[userID]
	s.mu.RUnlock()
	if !ok {
		return
	}

	data, err := json.Marshal(session.Snapshot())
	if err != nil {
		return
	}
	_ = s.client.Set(context.Background(), s.key(userID), data, s.ttl).Err()
}

// restore must be called with the write lock held.
func (s *SessionStore) restore(userID string) (*quiz.Session, bool) {
	raw, err := s.client.Get(context.Background(), s.key(userID)).Bytes()
	if err != nil {
		return nil, false
	}
	var snap quiz.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, false
	}
	return quiz.Restore(snap), true
}

func (s *SessionStore) key(userID string) string {
	return "g1:session:" + userID
}

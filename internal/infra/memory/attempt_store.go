package memory

import (
	"context"
	"strconv"
	"sync"

	"g1-quiz-service/internal/domain"
)

// AttemptStore keeps completed attempts in memory, useful for tests and
// demo runs without Postgres.
type AttemptStore struct {
	mu       sync.RWMutex
	nextID   int64
	attempts map[string]domain.Attempt
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{
		nextID:   1,
		attempts: make(map[string]domain.Attempt),
	}
}

func (s *AttemptStore) SaveAttempt(_ context.Context, attempt domain.Attempt) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := strconv.FormatInt(s.nextID, 10)
	s.nextID++
	attempt.ID = id
	s.attempts[id] = attempt
	return id, nil
}

func (s *AttemptStore) GetAttempt(_ context.Context, id string) (domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	attempt, ok := s.attempts[id]
	if !ok {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	return attempt, nil
}

// IncorrectQuestionIDs returns the distinct question IDs the user answered
// incorrectly across all stored attempts.
func (s *AttemptStore) IncorrectQuestionIDs(_ context.Context, userID string) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[int64]struct{})
	var ids []int64
	for _, attempt := range s.attempts {
		if attempt.UserID != userID {
			continue
		}
		for _, answer := range attempt.Result.Answers {
			if answer.Correct {
				continue
			}
			if _, ok := seen[answer.QuestionID]; ok {
				continue
			}
			seen[answer.QuestionID] = struct{}{}
			ids = append(ids, answer.QuestionID)
		}
	}
	return ids, nil
}

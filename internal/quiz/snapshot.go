package quiz

import (
	"time"

	"g1-quiz-service/internal/domain"
)

// Snapshot is the serializable subset of a session that survives a reload:
// mode, answers, progress, and settings. Question content, cursor, result,
// and status are deliberately excluded; questions are re-fetched per session
// and a mid-flight status must not resume after a reload.
type Snapshot struct {
	Mode     domain.Mode                 `json:"mode"`
	Answers  map[int64]domain.UserAnswer `json:"userAnswers"`
	Progress domain.QuizProgress         `json:"progress"`
	Settings domain.QuizSettings         `json:"settings"`
}

// Snapshot captures the persistable subset of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		Mode:     s.mode,
		Answers:  s.copyAnswersLocked(),
		Progress: s.progress,
		Settings: s.settings,
	}
}

// Restore rebuilds a session from a persisted snapshot. The status is always
// forced to idle and the cursor to 0 regardless of what was persisted:
// active or submitting are meaningless without the unpersisted question
// sequence, so the rehydrated session must land in a safe resting state.
func Restore(snap Snapshot) *Session {
	return RestoreWithClock(snap, time.Now)
}

// RestoreWithClock is test-only for deterministic timestamps.
func RestoreWithClock(snap Snapshot, now func() time.Time) *Session {
	s := newSessionWithClock(now)
	s.mode = snap.Mode
	s.settings = snap.Settings
	s.progress = snap.Progress
	s.progress.CurrentQuestionIndex = 0
	if snap.Answers != nil {
		for id, a := range snap.Answers {
			s.answers[id] = a
		}
	}
	return s
}

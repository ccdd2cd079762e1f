package quiz

import (
	"sync"
	"time"

	"g1-quiz-service/internal/domain"
)

// User-facing messages surfaced through the error channel.
const (
	MsgNoQuestions       = "No questions available"
	MsgIncompleteAnswers = "Please answer all questions before submitting."
)

// Session is the live aggregate of a single quiz-taking attempt: the loaded
// question sequence, the cursor, the answer map, derived progress, settings,
// lifecycle status, and (after submit) the scored result.
//
// A session is owned by a single consumer; the mutex only guards against the
// transport and store touching it from different goroutines. Operations run
// to completion, there are no internal suspension points.
type Session struct {
	mu        sync.Mutex
	mode      domain.Mode
	status    domain.Status
	questions []domain.Question
	current   int
	answers   map[int64]domain.UserAnswer
	progress  domain.QuizProgress
	settings  domain.QuizSettings
	result    *domain.QuizResult
	errMsg    string
	now       func() time.Time
}

// NewSession returns an idle session with default settings and no questions.
func NewSession() *Session {
	return newSessionWithClock(time.Now)
}

// NewSessionWithClock is test-only for deterministic timestamps.
func NewSessionWithClock(now func() time.Time) *Session {
	return newSessionWithClock(now)
}

func newSessionWithClock(now func() time.Time) *Session {
	return &Session{
		status:   domain.StatusIdle,
		answers:  make(map[int64]domain.UserAnswer),
		settings: domain.DefaultSettings(),
		progress: domain.QuizProgress{Section: domain.SectionMixed},
		now:      now,
	}
}

// Status returns the current lifecycle status.
func (s *Session) Status() domain.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Mode returns the session mode set by the last Initialize call.
func (s *Session) Mode() domain.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Progress returns the derived progress view.
func (s *Session) Progress() domain.QuizProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

// Settings returns the current settings.
func (s *Session) Settings() domain.QuizSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Result returns the scored result, or nil before a successful submit.
func (s *Session) Result() *domain.QuizResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// ErrorMessage returns the stored user-facing error message, empty when none.
// It is always non-empty while the status is StatusError.
func (s *Session) ErrorMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// Questions returns a copy of the loaded question sequence.
func (s *Session) Questions() []domain.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Question, len(s.questions))
	copy(out, s.questions)
	return out
}

// CurrentIndex returns the cursor position.
func (s *Session) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

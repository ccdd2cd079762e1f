package quiz

import (
	"math"
	"strings"

	"g1-quiz-service/internal/domain"
)

// Initialize resets the session for a fresh quiz of the given mode and
// settings: questions, answers, result, cursor, and error are cleared,
// progress returns to its zero state, and the status lands on idle. The
// whole reset runs atomically under the session lock, so callers never
// observe a partially cleared session.
func (s *Session) Initialize(mode domain.Mode, settings domain.QuizSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status = domain.StatusLoading
	s.mode = mode
	s.settings = settings
	s.questions = nil
	s.answers = make(map[int64]domain.UserAnswer)
	s.result = nil
	s.errMsg = ""
	s.current = 0

	s.progress = domain.QuizProgress{Section: domain.SectionMixed}
	s.status = domain.StatusIdle
}

// Start activates the session. It requires at least one loaded question;
// otherwise the session transitions to the error state with MsgNoQuestions
// and ErrNoQuestions is returned. Starting is re-entrant: calling it again
// restarts from question 0 without reloading questions.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.questions) == 0 {
		s.errMsg = MsgNoQuestions
		s.status = domain.StatusError
		return domain.ErrNoQuestions
	}

	s.current = 0
	s.progress.CurrentQuestionIndex = 0
	s.errMsg = ""
	s.status = domain.StatusActive
	return nil
}

// Reset returns the session to idle for "practice again with the same
// configuration": mode and settings survive, everything else is cleared.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status = domain.StatusIdle
	s.questions = nil
	s.answers = make(map[int64]domain.UserAnswer)
	s.result = nil
	s.errMsg = ""
	s.current = 0
	s.progress = domain.QuizProgress{Section: domain.SectionMixed}
}

// Submit validates completeness, scores the attempt, and completes the
// session. A validation gap (any loaded question without an answer, or no
// questions at all) transitions to the error state with
// MsgIncompleteAnswers and returns ErrIncompleteAnswers; entered answers
// are kept so the caller can fill the gap and retry. Calling Submit on an
// already completed session returns the cached result without re-scoring.
func (s *Session) Submit() (*domain.QuizResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status == domain.StatusCompleted && s.result != nil {
		return s.result, nil
	}

	s.status = domain.StatusSubmitting

	if len(s.questions) == 0 || !s.allAnsweredLocked() {
		s.errMsg = MsgIncompleteAnswers
		s.status = domain.StatusError
		return nil, domain.ErrIncompleteAnswers
	}

	result := s.scoreLocked()
	s.result = &result
	s.errMsg = ""
	s.status = domain.StatusCompleted
	return s.result, nil
}

// UpdateSettings shallow-merges the patch into the current settings. Legal
// in any status; never transitions status.
func (s *Session) UpdateSettings(patch domain.SettingsPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if patch.TotalQuestions != nil {
		s.settings.TotalQuestions = *patch.TotalQuestions
	}
	if patch.PassingScore != nil {
		s.settings.PassingScore = *patch.PassingScore
	}
	if patch.ShuffleQuestions != nil {
		s.settings.ShuffleQuestions = *patch.ShuffleQuestions
	}
	if patch.ShowExplanations != nil {
		s.settings.ShowExplanations = *patch.ShowExplanations
	}
	if patch.TimeLimit != nil {
		s.settings.TimeLimit = *patch.TimeLimit
	}
}

// SetError stores a caller-supplied message and forces the error status.
// An empty message only clears the stored message without touching status.
func (s *Session) SetError(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if message == "" {
		s.errMsg = ""
		return
	}
	s.errMsg = message
	s.status = domain.StatusError
}

// ClearError clears the stored message and, only when the session is in the
// error state, returns it to idle.
func (s *Session) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.errMsg = ""
	if s.status == domain.StatusError {
		s.status = domain.StatusIdle
	}
}

// scoreLocked walks the loaded sequence in order, marks each stored answer
// correct or incorrect against the question's answer key, and aggregates
// overall and per-category tallies. Pass/fail applies one policy:
// percentage score measured against settings.PassingScore.
func (s *Session) scoreLocked() domain.QuizResult {
	result := domain.QuizResult{
		TotalQuestions: len(s.questions),
		Answers:        make([]domain.UserAnswer, 0, len(s.questions)),
		SubmittedAt:    s.now(),
	}

	for _, q := range s.questions {
		answer := s.answers[q.ID]
		answer.Correct = strings.EqualFold(answer.SelectedOption, q.CorrectOption)
		s.answers[q.ID] = answer
		result.Answers = append(result.Answers, answer)

		switch q.Category {
		case domain.CategorySigns:
			result.Signs.Total++
			if answer.Correct {
				result.Signs.Correct++
			}
		case domain.CategoryRules:
			result.Rules.Total++
			if answer.Correct {
				result.Rules.Correct++
			}
		}
		if answer.Correct {
			result.CorrectAnswers++
		}
	}

	result.Signs.Percentage = percentage(result.Signs.Correct, result.Signs.Total)
	result.Rules.Percentage = percentage(result.Rules.Correct, result.Rules.Total)
	result.PercentageScore = percentage(result.CorrectAnswers, result.TotalQuestions)
	result.Passed = result.PercentageScore >= s.settings.PassingScore
	return result
}

func percentage(correct, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(correct) / float64(total) * 100))
}

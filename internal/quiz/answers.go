package quiz

import (
	"math"
	"strings"

	"g1-quiz-service/internal/domain"
)

// SetQuestions replaces the entire question sequence, resets the cursor to 0,
// clears all prior answers, and recomputes progress. The section composition
// is detected once here from the supplied sequence. An empty sequence is
// legal and yields zero totals with a mixed section.
func (s *Session) SetQuestions(questions []domain.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.questions = make([]domain.Question, len(questions))
	copy(s.questions, questions)
	s.current = 0
	s.answers = make(map[int64]domain.UserAnswer)
	s.recomputeProgressLocked()
	s.progress.Section = detectSection(s.questions)
}

// SelectAnswer upserts the answer for questionID with the option normalized
// to lowercase. Re-answering the same question overwrites; progress is
// re-derived from the full answer map so redundant re-answers never double
// count. Options outside a-d are rejected with ErrInvalidOption and leave
// all state untouched.
func (s *Session) SelectAnswer(questionID int64, option string) error {
	normalized := strings.ToLower(strings.TrimSpace(option))
	if !validOption(normalized) {
		return domain.ErrInvalidOption
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.answers[questionID] = domain.UserAnswer{
		QuestionID:     questionID,
		SelectedOption: normalized,
	}
	s.recomputeProgressLocked()
	return nil
}

// UpdateAnswer is an alias for SelectAnswer with an identical contract.
func (s *Session) UpdateAnswer(questionID int64, option string) error {
	return s.SelectAnswer(questionID, option)
}

// CurrentQuestion returns the question at the cursor, or false when the
// cursor is out of range (e.g. empty question list).
func (s *Session) CurrentQuestion() (domain.Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current < 0 || s.current >= len(s.questions) {
		return domain.Question{}, false
	}
	return s.questions[s.current], true
}

// IsQuestionAnswered reports whether an answer entry exists for questionID.
func (s *Session) IsQuestionAnswered(questionID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.answers[questionID]
	return ok
}

// AnswerForQuestion returns the stored answer for questionID, or false when
// the question has not been answered.
func (s *Session) AnswerForQuestion(questionID int64) (domain.UserAnswer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	answer, ok := s.answers[questionID]
	return answer, ok
}

// Answers returns a copy of the answer map.
func (s *Session) Answers() map[int64]domain.UserAnswer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyAnswersLocked()
}

// CanSubmit reports whether a submit would pass validation: at least one
// question is loaded, the session is active, and every loaded question's ID
// has an entry in the answer map. Key-set coverage is checked rather than
// bare counts so stale answers for unloaded questions can never mask a gap.
func (s *Session) CanSubmit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status == domain.StatusActive && len(s.questions) > 0 && s.allAnsweredLocked()
}

func (s *Session) allAnsweredLocked() bool {
	for _, q := range s.questions {
		if _, ok := s.answers[q.ID]; !ok {
			return false
		}
	}
	return true
}

func (s *Session) copyAnswersLocked() map[int64]domain.UserAnswer {
	out := make(map[int64]domain.UserAnswer, len(s.answers))
	for id, a := range s.answers {
		out[id] = a
	}
	return out
}

// recomputeProgressLocked re-derives every counter from the full answer map.
// Deliberately not incremental: re-derivation keeps answer idempotence
// trivially correct at quiz-sized scales.
func (s *Session) recomputeProgressLocked() {
	categories := make(map[int64]domain.Category, len(s.questions))
	for _, q := range s.questions {
		categories[q.ID] = q.Category
	}

	signs, rules := 0, 0
	for id := range s.answers {
		switch categories[id] {
		case domain.CategorySigns:
			signs++
		case domain.CategoryRules:
			rules++
		}
	}

	total := len(s.questions)
	answered := len(s.answers)
	percent := 0
	if total > 0 {
		percent = int(math.Round(float64(answered) / float64(total) * 100))
	}

	s.progress.CurrentQuestionIndex = s.current
	s.progress.TotalQuestions = total
	s.progress.QuestionsAnswered = answered
	s.progress.SignsAnswered = signs
	s.progress.RulesAnswered = rules
	s.progress.PercentComplete = percent
}

func detectSection(questions []domain.Question) domain.Section {
	var hasSigns, hasRules bool
	for _, q := range questions {
		switch q.Category {
		case domain.CategorySigns:
			hasSigns = true
		case domain.CategoryRules:
			hasRules = true
		}
	}
	switch {
	case hasSigns && !hasRules:
		return domain.SectionSigns
	case hasRules && !hasSigns:
		return domain.SectionRules
	default:
		return domain.SectionMixed
	}
}

func validOption(option string) bool {
	switch option {
	case "a", "b", "c", "d":
		return true
	}
	return false
}

package quiz

// GoToQuestion moves the cursor to index. Out-of-range requests are silently
// ignored: the cursor does not move and no error is raised.
func (s *Session) GoToQuestion(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goToLocked(index)
}

// NextQuestion advances the cursor by one, a no-op at the last question.
func (s *Session) NextQuestion() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goToLocked(s.current + 1)
}

// PreviousQuestion retreats the cursor by one, a no-op at the first question.
func (s *Session) PreviousQuestion() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goToLocked(s.current - 1)
}

func (s *Session) goToLocked(index int) {
	if index < 0 || index >= len(s.questions) {
		return
	}
	s.current = index
	s.progress.CurrentQuestionIndex = index
}

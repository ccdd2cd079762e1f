package domain

import "errors"

var (
	// ErrNoQuestions is returned when a session is started with an empty question set.
	ErrNoQuestions = errors.New("no questions available")
	// ErrIncompleteAnswers is returned when a submit is attempted before every question is answered.
	ErrIncompleteAnswers = errors.New("not all questions answered")
	// ErrInvalidOption indicates a selected option outside the A-D alphabet.
	ErrInvalidOption = errors.New("invalid option letter")
	// ErrSessionNotFound is returned when a user has no live quiz session.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrQuestionNotFound indicates the question bank has no match for the criteria.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrAttemptNotFound indicates a stored attempt ID is invalid.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrAccessDenied indicates the user's tier does not cover the requested feature.
	ErrAccessDenied = errors.New("access denied")
)

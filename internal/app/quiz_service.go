package app

import (
	"context"
	"fmt"
	"sync"

	"g1-quiz-service/internal/domain"
	"g1-quiz-service/internal/quiz"
)

// Feature keys consulted against the entitlement checker before a flow runs.
const (
	FeaturePractice   = "practice"
	FeatureSimulation = "simulation"
	FeatureReview     = "review"
)

// SimulationPerSection is the official G1 composition: 20 signs + 20 rules.
const SimulationPerSection = 20

// QuestionRepository loads question content (from cache/backing store).
type QuestionRepository interface {
	FetchQuestions(ctx context.Context, criteria domain.QuestionCriteria) ([]domain.Question, error)
}

// AttemptStore persists completed attempts.
type AttemptStore interface {
	SaveAttempt(ctx context.Context, attempt domain.Attempt) (string, error)
	GetAttempt(ctx context.Context, id string) (domain.Attempt, error)
	IncorrectQuestionIDs(ctx context.Context, userID string) ([]int64, error)
}

// SessionStore abstracts how live sessions are kept (in-memory, Redis, etc).
// Exactly one session is live per user.
type SessionStore interface {
	GetOrCreate(userID string) *quiz.Session
	Get(userID string) (*quiz.Session, bool)
	Delete(userID string)
	// Persist saves the session's serializable subset; best-effort, no-op
	// for purely in-memory stores.
	Persist(userID string)
}

// EntitlementChecker gates premium session modes by subscription tier.
type EntitlementChecker interface {
	CheckAccess(ctx context.Context, userID, feature string) (domain.Access, error)
}

// QuizService orchestrates the initializer flows around the session state
// machine: check entitlement, initialize, fetch questions, load, start.
type QuizService struct {
	sessions     SessionStore
	questions    QuestionRepository
	attempts     AttemptStore
	entitlements EntitlementChecker

	mu          sync.Mutex
	lastAttempt map[string]string // userID -> attempt ID of the completed session
}

func NewQuizService(sessions SessionStore, questions QuestionRepository, attempts AttemptStore, entitlements EntitlementChecker) *QuizService {
	return &QuizService{
		sessions:     sessions,
		questions:    questions,
		attempts:     attempts,
		entitlements: entitlements,
		lastAttempt:  make(map[string]string),
	}
}

// StartPractice begins an unlimited practice session over one category.
func (s *QuizService) StartPractice(ctx context.Context, userID string, category domain.Category, settings domain.QuizSettings) error {
	access, err := s.checkAccess(ctx, userID, FeaturePractice)
	if err != nil {
		return err
	}

	mode := domain.ModeSignsPractice
	if category == domain.CategoryRules {
		mode = domain.ModeRulesPractice
	}

	limit := settings.TotalQuestions
	if access.MaxQuestions > 0 && (limit == 0 || limit > access.MaxQuestions) {
		limit = access.MaxQuestions
	}

	return s.startFlow(ctx, userID, mode, settings, domain.QuestionCriteria{
		Categories: []domain.Category{category},
		Limit:      limit,
		Shuffle:    true,
	})
}

// StartSimulation begins a fixed-composition mock knowledge test: 20 signs
// questions and 20 rules questions, shuffled within each section.
func (s *QuizService) StartSimulation(ctx context.Context, userID string, settings domain.QuizSettings) error {
	if _, err := s.checkAccess(ctx, userID, FeatureSimulation); err != nil {
		return err
	}

	session := s.sessions.GetOrCreate(userID)
	session.Initialize(domain.ModeSimulation, settings)
	s.forgetAttempt(userID)

	signs, err := s.questions.FetchQuestions(ctx, domain.QuestionCriteria{
		Categories: []domain.Category{domain.CategorySigns},
		Limit:      SimulationPerSection,
		Shuffle:    true,
	})
	if err != nil {
		session.SetError("Failed to load questions")
		return fmt.Errorf("fetch signs questions: %w", err)
	}
	rules, err := s.questions.FetchQuestions(ctx, domain.QuestionCriteria{
		Categories: []domain.Category{domain.CategoryRules},
		Limit:      SimulationPerSection,
		Shuffle:    true,
	})
	if err != nil {
		session.SetError("Failed to load questions")
		return fmt.Errorf("fetch rules questions: %w", err)
	}

	session.SetQuestions(append(signs, rules...))
	err = session.Start()
	s.sessions.Persist(userID)
	return err
}

// StartReview begins a session over the questions the user previously
// answered incorrectly across stored attempts.
func (s *QuizService) StartReview(ctx context.Context, userID string, settings domain.QuizSettings) error {
	if _, err := s.checkAccess(ctx, userID, FeatureReview); err != nil {
		return err
	}

	ids, err := s.attempts.IncorrectQuestionIDs(ctx, userID)
	if err != nil {
		return fmt.Errorf("list incorrect questions: %w", err)
	}

	// A clean record means there is nothing to review. An empty ID filter
	// would select the whole bank, so load nothing and let Start surface
	// the no-questions error.
	if len(ids) == 0 {
		session := s.sessions.GetOrCreate(userID)
		session.Initialize(domain.ModeReview, settings)
		s.forgetAttempt(userID)
		session.SetQuestions(nil)
		err = session.Start()
		s.sessions.Persist(userID)
		return err
	}

	return s.startFlow(ctx, userID, domain.ModeReview, settings, domain.QuestionCriteria{
		IDs:     ids,
		Shuffle: true,
	})
}

func (s *QuizService) startFlow(ctx context.Context, userID string, mode domain.Mode, settings domain.QuizSettings, criteria domain.QuestionCriteria) error {
	session := s.sessions.GetOrCreate(userID)
	session.Initialize(mode, settings)
	s.forgetAttempt(userID)

	questions, err := s.questions.FetchQuestions(ctx, criteria)
	if err != nil {
		session.SetError("Failed to load questions")
		return fmt.Errorf("fetch questions: %w", err)
	}

	session.SetQuestions(questions)
	err = session.Start()
	s.sessions.Persist(userID)
	return err
}

// Answer records the user's option for a question.
func (s *QuizService) Answer(_ context.Context, userID string, questionID int64, option string) error {
	session, ok := s.sessions.Get(userID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	if err := session.SelectAnswer(questionID, option); err != nil {
		return err
	}
	s.sessions.Persist(userID)
	return nil
}

// Submit scores the session and persists the completed attempt. Submitting
// an already completed session returns its stored attempt instead of
// creating a second record.
func (s *QuizService) Submit(ctx context.Context, userID string) (domain.Attempt, error) {
	session, ok := s.sessions.Get(userID)
	if !ok {
		return domain.Attempt{}, domain.ErrSessionNotFound
	}

	if session.Status() == domain.StatusCompleted {
		s.mu.Lock()
		id, ok := s.lastAttempt[userID]
		s.mu.Unlock()
		if ok {
			return s.attempts.GetAttempt(ctx, id)
		}
	}

	result, err := session.Submit()
	s.sessions.Persist(userID)
	if err != nil {
		return domain.Attempt{}, err
	}

	questions := session.Questions()
	ids := make([]int64, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}

	attempt := domain.Attempt{
		UserID:      userID,
		Mode:        session.Mode(),
		QuestionIDs: ids,
		Result:      *result,
		CreatedAt:   result.SubmittedAt,
	}
	id, err := s.attempts.SaveAttempt(ctx, attempt)
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("save attempt: %w", err)
	}
	attempt.ID = id

	s.mu.Lock()
	s.lastAttempt[userID] = id
	s.mu.Unlock()
	return attempt, nil
}

// Reset returns the user's session to idle, keeping mode and settings.
func (s *QuizService) Reset(_ context.Context, userID string) error {
	session, ok := s.sessions.Get(userID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.Reset()
	s.forgetAttempt(userID)
	s.sessions.Persist(userID)
	return nil
}

func (s *QuizService) forgetAttempt(userID string) {
	s.mu.Lock()
	delete(s.lastAttempt, userID)
	s.mu.Unlock()
}

// Session exposes the live session for transports that read state directly.
func (s *QuizService) Session(userID string) (*quiz.Session, bool) {
	return s.sessions.Get(userID)
}

// GetAttempt loads a stored attempt for the results view.
func (s *QuizService) GetAttempt(ctx context.Context, id string) (domain.Attempt, error) {
	return s.attempts.GetAttempt(ctx, id)
}

func (s *QuizService) checkAccess(ctx context.Context, userID, feature string) (domain.Access, error) {
	access, err := s.entitlements.CheckAccess(ctx, userID, feature)
	if err != nil {
		return domain.Access{}, fmt.Errorf("check access: %w", err)
	}
	if !access.Allowed {
		if access.Reason == "" {
			return access, domain.ErrAccessDenied
		}
		return access, fmt.Errorf("%s: %w", access.Reason, domain.ErrAccessDenied)
	}
	return access, nil
}

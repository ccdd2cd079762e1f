package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"g1-quiz-service/internal/app"
	"g1-quiz-service/internal/domain"
	"g1-quiz-service/internal/infra/memory"
	"g1-quiz-service/internal/quiz"
)

func testBank() []domain.Question {
	return []domain.Question{
		{ID: 1, Text: "Red octagon?", Category: domain.CategorySigns, OptionA: "Stop", OptionB: "Yield", OptionC: "Merge", OptionD: "Slow", CorrectOption: "A"},
		{ID: 2, Text: "Yellow diamond?", Category: domain.CategorySigns, OptionA: "School", OptionB: "Hazard", OptionC: "Hospital", OptionD: "Rail", CorrectOption: "B"},
		{ID: 3, Text: "City speed limit?", Category: domain.CategoryRules, OptionA: "40", OptionB: "60", OptionC: "50", OptionD: "70", CorrectOption: "C"},
		{ID: 4, Text: "Headlights when?", Category: domain.CategoryRules, OptionA: "Night only", OptionB: "Half hour before sunset", OptionC: "Rain only", OptionD: "Never", CorrectOption: "B"},
	}
}

func newTestService(premiumUsers ...string) *app.QuizService {
	sessions := memory.NewSessionStore()
	questions := memory.NewQuestionBank(memory.NewStaticQuestionLoader(testBank()), 5*time.Minute)
	attempts := memory.NewAttemptStore()
	entitlements := memory.NewEntitlements(premiumUsers, 0)
	return app.NewQuizService(sessions, questions, attempts, entitlements)
}

func TestStartPracticeActivatesSession(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	if err := service.StartPractice(ctx, "u1", domain.CategorySigns, domain.DefaultSettings()); err != nil {
		t.Fatalf("start practice: %v", err)
	}

	session, ok := service.Session("u1")
	if !ok {
		t.Fatalf("expected live session")
	}
	if session.Status() != domain.StatusActive {
		t.Fatalf("expected active, got %s", session.Status())
	}
	if session.Mode() != domain.ModeSignsPractice {
		t.Fatalf("expected signs practice mode, got %s", session.Mode())
	}
	for _, q := range session.Questions() {
		if q.Category != domain.CategorySigns {
			t.Fatalf("practice draw leaked category %s", q.Category)
		}
	}
	if session.Progress().Section != domain.SectionSigns {
		t.Fatalf("expected signs section, got %s", session.Progress().Section)
	}
}

func TestFreeTierPracticeCap(t *testing.T) {
	ctx := context.Background()
	sessions := memory.NewSessionStore()
	questions := memory.NewQuestionBank(memory.NewStaticQuestionLoader(testBank()), 5*time.Minute)
	service := app.NewQuizService(sessions, questions, memory.NewAttemptStore(), memory.NewEntitlements(nil, 1))

	if err := service.StartPractice(ctx, "free-user", domain.CategorySigns, domain.QuizSettings{TotalQuestions: 10, PassingScore: 80}); err != nil {
		t.Fatalf("start practice: %v", err)
	}
	session, _ := service.Session("free-user")
	if got := len(session.Questions()); got != 1 {
		t.Fatalf("expected free draw capped at 1 question, got %d", got)
	}
}

func TestSimulationRequiresPremium(t *testing.T) {
	ctx := context.Background()
	service := newTestService("premium-user")

	err := service.StartSimulation(ctx, "free-user", domain.DefaultSettings())
	if !errors.Is(err, domain.ErrAccessDenied) {
		t.Fatalf("expected access denied, got %v", err)
	}

	if err := service.StartSimulation(ctx, "premium-user", domain.DefaultSettings()); err != nil {
		t.Fatalf("premium simulation: %v", err)
	}
	session, _ := service.Session("premium-user")
	if session.Mode() != domain.ModeSimulation || session.Status() != domain.StatusActive {
		t.Fatalf("expected active simulation, got %s/%s", session.Mode(), session.Status())
	}
	// The test bank holds 2 signs + 2 rules; composition draws both sections.
	if session.Progress().Section != domain.SectionMixed {
		t.Fatalf("expected mixed composition, got %s", session.Progress().Section)
	}
}

func TestSubmitPersistsAttempt(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	if err := service.StartPractice(ctx, "u1", domain.CategoryRules, domain.DefaultSettings()); err != nil {
		t.Fatalf("start: %v", err)
	}
	session, _ := service.Session("u1")
	for _, q := range session.Questions() {
		if err := service.Answer(ctx, "u1", q.ID, "c"); err != nil {
			t.Fatalf("answer: %v", err)
		}
	}

	attempt, err := service.Submit(ctx, "u1")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if attempt.ID == "" {
		t.Fatalf("expected persisted attempt ID")
	}
	if attempt.Mode != domain.ModeRulesPractice {
		t.Fatalf("expected rules practice attempt, got %s", attempt.Mode)
	}

	stored, err := service.GetAttempt(ctx, attempt.ID)
	if err != nil {
		t.Fatalf("get attempt: %v", err)
	}
	if stored.Result.TotalQuestions != len(session.Questions()) {
		t.Fatalf("stored result mismatch: %+v", stored.Result)
	}
}

func TestResubmitReturnsStoredAttempt(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	if err := service.StartPractice(ctx, "u1", domain.CategorySigns, domain.DefaultSettings()); err != nil {
		t.Fatalf("start: %v", err)
	}
	session, _ := service.Session("u1")
	for _, q := range session.Questions() {
		if err := service.Answer(ctx, "u1", q.ID, "a"); err != nil {
			t.Fatalf("answer: %v", err)
		}
	}

	first, err := service.Submit(ctx, "u1")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	second, err := service.Submit(ctx, "u1")
	if err != nil {
		t.Fatalf("re-submit: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("re-submit created a new attempt: %s vs %s", second.ID, first.ID)
	}

	// A fresh run after reset stores a new attempt.
	if err := service.Reset(ctx, "u1"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if err := service.StartPractice(ctx, "u1", domain.CategorySigns, domain.DefaultSettings()); err != nil {
		t.Fatalf("restart: %v", err)
	}
	session, _ = service.Session("u1")
	for _, q := range session.Questions() {
		_ = service.Answer(ctx, "u1", q.ID, "b")
	}
	third, err := service.Submit(ctx, "u1")
	if err != nil {
		t.Fatalf("submit after reset: %v", err)
	}
	if third.ID == first.ID {
		t.Fatalf("expected a new attempt after reset")
	}
}

func TestSubmitIncompleteDoesNotPersist(t *testing.T) {
	ctx := context.Background()
	service := newTestService()

	if err := service.StartPractice(ctx, "u1", domain.CategorySigns, domain.DefaultSettings()); err != nil {
		t.Fatalf("start: %v", err)
	}

	_, err := service.Submit(ctx, "u1")
	if !errors.Is(err, domain.ErrIncompleteAnswers) {
		t.Fatalf("expected incomplete answers, got %v", err)
	}
	session, _ := service.Session("u1")
	if session.Status() != domain.StatusError {
		t.Fatalf("expected error state, got %s", session.Status())
	}
}

func TestReviewDrawsPreviouslyIncorrect(t *testing.T) {
	ctx := context.Background()
	service := newTestService("u1")

	// First run: answer everything with "a"; only Q1 is correct.
	if err := service.StartPractice(ctx, "u1", domain.CategorySigns, domain.DefaultSettings()); err != nil {
		t.Fatalf("start: %v", err)
	}
	session, _ := service.Session("u1")
	for _, q := range session.Questions() {
		_ = service.Answer(ctx, "u1", q.ID, "a")
	}
	if _, err := service.Submit(ctx, "u1"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if err := service.StartReview(ctx, "u1", domain.DefaultSettings()); err != nil {
		t.Fatalf("start review: %v", err)
	}
	session, _ = service.Session("u1")
	if session.Mode() != domain.ModeReview {
		t.Fatalf("expected review mode, got %s", session.Mode())
	}
	for _, q := range session.Questions() {
		if q.ID == 1 {
			t.Fatalf("review must exclude correctly answered questions")
		}
	}
	if len(session.Questions()) != 1 {
		t.Fatalf("expected only the missed signs question, got %d", len(session.Questions()))
	}
}

func TestReviewWithCleanRecord(t *testing.T) {
	ctx := context.Background()
	service := newTestService("u1")

	err := service.StartReview(ctx, "u1", domain.DefaultSettings())
	if !errors.Is(err, domain.ErrNoQuestions) {
		t.Fatalf("expected ErrNoQuestions for a clean record, got %v", err)
	}
	session, ok := service.Session("u1")
	if !ok {
		t.Fatalf("expected session")
	}
	if session.Status() != domain.StatusError {
		t.Fatalf("expected error state, got %s", session.Status())
	}
	if session.ErrorMessage() != quiz.MsgNoQuestions {
		t.Fatalf("expected %q, got %q", quiz.MsgNoQuestions, session.ErrorMessage())
	}
	if len(session.Questions()) != 0 {
		t.Fatalf("clean record must not draw any questions, got %d", len(session.Questions()))
	}
}

func TestAnswerWithoutSession(t *testing.T) {
	service := newTestService()
	if err := service.Answer(context.Background(), "nobody", 1, "a"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
}

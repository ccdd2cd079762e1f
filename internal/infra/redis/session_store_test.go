package redis

import (
	"testing"
	"time"

	"g1-quiz-service/internal/domain"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestSessionStorePersistsSnapshot(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Minute)

	session := store.GetOrCreate("u1")
	session.Initialize(domain.ModeSimulation, domain.DefaultSettings())
	session.SetQuestions([]domain.Question{
		{ID: 1, Category: domain.CategorySigns, CorrectOption: "A"},
	})
	if err := session.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	_ = session.SelectAnswer(1, "a")

	store.Persist("u1")
	if !mr.Exists("g1:session:u1") {
		t.Fatalf("expected redis key to be set")
	}

	store.Delete("u1")
	if mr.Exists("g1:session:u1") {
		t.Fatalf("expected redis key to be removed")
	}
}

func TestSessionStoreRehydratesIdle(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Minute)

	session := store.GetOrCreate("u1")
	session.Initialize(domain.ModeRulesPractice, domain.DefaultSettings())
	session.SetQuestions([]domain.Question{
		{ID: 3, Category: domain.CategoryRules, CorrectOption: "C"},
	})
	if err := session.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	_ = session.SelectAnswer(3, "c")
	store.Persist("u1")

	// Simulate a reload: a fresh store with only redis state.
	reloaded := NewSessionStore(client, time.Minute)
	restored, ok := reloaded.Get("u1")
	if !ok {
		t.Fatalf("expected rehydrated session")
	}
	if restored.Status() != domain.StatusIdle {
		t.Fatalf("rehydrated status must be idle, got %s", restored.Status())
	}
	if len(restored.Questions()) != 0 {
		t.Fatalf("question content must not survive a reload")
	}
	if restored.Mode() != domain.ModeRulesPractice {
		t.Fatalf("mode must survive, got %s", restored.Mode())
	}
	answer, ok := restored.AnswerForQuestion(3)
	if !ok || answer.SelectedOption != "c" {
		t.Fatalf("answers must survive, got %+v ok=%v", answer, ok)
	}
}

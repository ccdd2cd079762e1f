package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"g1-quiz-service/internal/app"
	"g1-quiz-service/internal/config"
	"g1-quiz-service/internal/domain"
	"g1-quiz-service/internal/infra/memory"
	pginfra "g1-quiz-service/internal/infra/postgres"
	redisinfra "g1-quiz-service/internal/infra/redis"
	transport "g1-quiz-service/internal/transport/http"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	sessionTTL := config.TTLDuration(cfg.Redis.TTL, 24*time.Hour)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var loader memory.QuestionLoader = memory.NewStaticQuestionLoader(sampleQuestions())
	if pool != nil {
		loader = pginfra.NewQuestionLoader(pool)
	}

	questionTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var questions app.QuestionRepository
	if redisClient != nil {
		questions = redisinfra.NewQuestionBank(redisClient, loader, questionTTL)
	} else {
		questions = memory.NewQuestionBank(loader, questionTTL)
	}

	var sessions app.SessionStore
	if redisClient != nil {
		sessions = redisinfra.NewSessionStore(redisClient, sessionTTL)
	} else {
		sessions = memory.NewSessionStore()
	}

	var attempts app.AttemptStore = memory.NewAttemptStore()
	if pool != nil {
		attempts = pginfra.NewAttemptStore(pool)
	}

	entitlements := memory.NewEntitlements(cfg.Quiz.PremiumUsers, cfg.Quiz.FreePracticeCap)
	service := app.NewQuizService(sessions, questions, attempts, entitlements)

	defaultSettings := domain.DefaultSettings()
	if cfg.Quiz.PassingScore > 0 {
		defaultSettings.PassingScore = cfg.Quiz.PassingScore
	}
	wsHandler := transport.NewWSHandler(service, defaultSettings)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting g1 quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuestions provides a minimal G1 bank for running without Postgres.
func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			ID: 1, Category: domain.CategorySigns,
			Text:    "What does a red octagonal sign mean?",
			OptionA: "Stop completely", OptionB: "Yield to traffic", OptionC: "Slow down", OptionD: "No entry",
			CorrectOption: "A", Topic: "regulatory signs",
			Explanation: "A red octagon always means a full stop.",
		},
		{
			ID: 2, Category: domain.CategorySigns,
			Text:    "A yellow diamond-shaped sign indicates?",
			OptionA: "A school zone", OptionB: "A warning of hazard ahead", OptionC: "A construction zone", OptionD: "A hospital",
			CorrectOption: "B", Topic: "warning signs",
		},
		{
			ID: 3, Category: domain.CategoryRules,
			Text:    "Unless otherwise posted, the maximum speed limit in cities and towns is?",
			OptionA: "40 km/h", OptionB: "60 km/h", OptionC: "50 km/h", OptionD: "70 km/h",
			CorrectOption: "C", Topic: "speed limits",
		},
		{
			ID: 4, Category: domain.CategoryRules,
			Text:    "When must you use your headlights?",
			OptionA: "Only at night", OptionB: "Between a half hour before sunset and a half hour after sunrise", OptionC: "Only in poor weather", OptionD: "Never during the day",
			CorrectOption: "B", Topic: "lighting",
		},
	}
}

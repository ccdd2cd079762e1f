package integration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"g1-quiz-service/internal/app"
	"g1-quiz-service/internal/domain"
	pginfra "g1-quiz-service/internal/infra/postgres"
	pgmigrations "g1-quiz-service/internal/infra/postgres/migrations"
	redisinfra "g1-quiz-service/internal/infra/redis"
	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

func TestPracticeFlowEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedQuestions(t, ctx, pgURL)

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}

	loader := pginfra.NewQuestionLoader(pool)
	questions := redisinfra.NewQuestionBank(redisClient, loader, 5*time.Minute)
	sessions := redisinfra.NewSessionStore(redisClient, 5*time.Minute)
	attempts := pginfra.NewAttemptStore(pool)
	entitlements := newAllowAll()
	service := app.NewQuizService(sessions, questions, attempts, entitlements)

	if err := service.StartPractice(ctx, "u1", domain.CategorySigns, domain.DefaultSettings()); err != nil {
		t.Fatalf("start practice: %v", err)
	}
	session, ok := service.Session("u1")
	if !ok {
		t.Fatalf("expected live session")
	}
	loaded := session.Questions()
	if len(loaded) != 2 {
		t.Fatalf("expected 2 signs questions, got %d", len(loaded))
	}

	// Answer the first question right and the second wrong.
	if err := service.Answer(ctx, "u1", loaded[0].ID, strings.ToLower(loaded[0].CorrectOption)); err != nil {
		t.Fatalf("answer: %v", err)
	}
	wrong := "a"
	if strings.EqualFold(loaded[1].CorrectOption, "A") {
		wrong = "b"
	}
	if err := service.Answer(ctx, "u1", loaded[1].ID, wrong); err != nil {
		t.Fatalf("answer: %v", err)
	}

	attempt, err := service.Submit(ctx, "u1")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if attempt.Result.CorrectAnswers != 1 || attempt.Result.TotalQuestions != 2 {
		t.Fatalf("unexpected result: %+v", attempt.Result)
	}

	stored, err := service.GetAttempt(ctx, attempt.ID)
	if err != nil {
		t.Fatalf("get attempt: %v", err)
	}
	if stored.Result.PercentageScore != 50 {
		t.Fatalf("expected 50%%, got %d", stored.Result.PercentageScore)
	}

	// The missed question feeds the review draw.
	if err := service.StartReview(ctx, "u1", domain.DefaultSettings()); err != nil {
		t.Fatalf("start review: %v", err)
	}
	session, _ = service.Session("u1")
	reviewQs := session.Questions()
	if len(reviewQs) != 1 || reviewQs[0].ID != loaded[1].ID {
		t.Fatalf("expected the missed question in review, got %+v", reviewQs)
	}
}

type allowAll struct{}

func newAllowAll() allowAll { return allowAll{} }

func (allowAll) CheckAccess(context.Context, string, string) (domain.Access, error) {
	return domain.Access{Allowed: true}, nil
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func seedQuestions(t *testing.T, ctx context.Context, dsn string) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	rows := []struct {
		text, category, a, b, c, d, correct string
	}{
		{"What does a red octagonal sign mean?", "signs", "Stop", "Yield", "Merge", "Slow", "A"},
		{"A yellow diamond-shaped sign indicates?", "signs", "School", "Hazard ahead", "Hospital", "Rail", "B"},
		{"Unless posted, the city speed limit is?", "rules", "40 km/h", "60 km/h", "50 km/h", "70 km/h", "C"},
	}
	for _, r := range rows {
		if _, err := db.ExecContext(ctx, `
			INSERT INTO questions (question, category, option_a, option_b, option_c, option_d, correct_option)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.text, r.category, r.a, r.b, r.c, r.d, r.correct); err != nil {
			t.Fatalf("insert question: %v", err)
		}
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}

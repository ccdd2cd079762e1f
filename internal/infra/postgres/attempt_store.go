package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"g1-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// AttemptStore persists completed attempts; the scored result is stored as
// JSONB so per-answer correctness can be queried for review sessions.
type AttemptStore struct {
	pool *pgxpool.Pool
}

func NewAttemptStore(pool *pgxpool.Pool) *AttemptStore {
	return &AttemptStore{pool: pool}
}

func (s *AttemptStore) SaveAttempt(ctx context.Context, attempt domain.Attempt) (string, error) {
	result, err := json.Marshal(attempt.Result)
	if err != nil {
		return "", fmt.Errorf("marshal result: %w", err)
	}

	var id int64
	err = s.pool.QueryRow(ctx, `
		INSERT INTO attempts (user_id, mode, question_ids, result, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		attempt.UserID, string(attempt.Mode), attempt.QuestionIDs, result, attempt.CreatedAt,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert attempt: %w", err)
	}
	return strconv.FormatInt(id, 10), nil
}

func (s *AttemptStore) GetAttempt(ctx context.Context, id string) (domain.Attempt, error) {
	numericID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}

	attempt := domain.Attempt{ID: id}
	var mode string
	var raw []byte
	err = s.pool.QueryRow(ctx, `
		SELECT user_id, mode, question_ids, result, created_at
		FROM attempts
		WHERE id = $1`, numericID,
	).Scan(&attempt.UserID, &mode, &attempt.QuestionIDs, &raw, &attempt.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("load attempt: %w", err)
	}
	if err := json.Unmarshal(raw, &attempt.Result); err != nil {
		return domain.Attempt{}, fmt.Errorf("unmarshal result: %w", err)
	}
	attempt.Mode = domain.Mode(mode)
	return attempt, nil
}

// IncorrectQuestionIDs unnests the stored answer lists and returns the
// distinct question IDs the user ever got wrong.
func (s *AttemptStore) IncorrectQuestionIDs(ctx context.Context, userID string) ([]int64, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT (answer->>'questionId')::bigint
		FROM attempts, jsonb_array_elements(result->'answers') AS answer
		WHERE user_id = $1 AND (answer->>'correct')::boolean = false`, userID)
	if err != nil {
		return nil, fmt.Errorf("list incorrect questions: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan question id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate question ids: %w", err)
	}
	return ids, nil
}

package postgres

import (
	"context"
	"fmt"

	"g1-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuestionLoader loads question content from Postgres.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) LoadByCategory(ctx context.Context, category domain.Category) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT id, question, category, option_a, option_b, option_c, option_d,
		       correct_option, COALESCE(image_url, ''), COALESCE(topic, ''), COALESCE(explanation, '')
		FROM questions
		WHERE category = $1
		ORDER BY id`, string(category))
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var q domain.Question
		var cat string
		if err := rows.Scan(&q.ID, &q.Text, &cat, &q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD,
			&q.CorrectOption, &q.ImageURL, &q.Topic, &q.Explanation); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q.Category = domain.Category(cat)
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return questions, nil
}

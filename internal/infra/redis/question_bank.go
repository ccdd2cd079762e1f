package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"g1-quiz-service/internal/domain"
	"g1-quiz-service/internal/infra/memory"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuestionBank caches question content in Redis (hash per category, one
// field per question ID holding the question JSON) and falls back to a
// loader on cache miss:
//
//	HSET g1:questions:{category} {questionID} {question JSON}
type QuestionBank struct {
	client *redis.Client
	loader memory.QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewQuestionBank(client *redis.Client, loader memory.QuestionLoader, ttl time.Duration) *QuestionBank {
	return &QuestionBank{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// FetchQuestions mirrors memory.QuestionBank but reads through Redis.
func (b *QuestionBank) FetchQuestions(ctx context.Context, criteria domain.QuestionCriteria) ([]domain.Question, error) {
	categories := criteria.Categories
	if len(categories) == 0 {
		categories = []domain.Category{domain.CategorySigns, domain.CategoryRules}
	}

	var pool []domain.Question
	for _, category := range categories {
		questions, err := b.categoryQuestions(ctx, category)
		if err != nil {
			return nil, err
		}
		pool = append(pool, questions...)
	}

	if len(criteria.IDs) > 0 {
		wanted := make(map[int64]struct{}, len(criteria.IDs))
		for _, id := range criteria.IDs {
			wanted[id] = struct{}{}
		}
		filtered := pool[:0]
		for _, q := range pool {
			if _, ok := wanted[q.ID]; ok {
				filtered = append(filtered, q)
			}
		}
		pool = filtered
	}

	if criteria.Shuffle {
		b.mu.Lock()
		b.rnd.Shuffle(len(pool), func(i, j int) {
			pool[i], pool[j] = pool[j], pool[i]
		})
		b.mu.Unlock()
	}

	if criteria.Limit > 0 && len(pool) > criteria.Limit {
		pool = pool[:criteria.Limit]
	}
	return pool, nil
}

func (b *QuestionBank) categoryQuestions(ctx context.Context, category domain.Category) ([]domain.Question, error) {
	key := b.categoryKey(category)

	fields, err := b.client.HGetAll(ctx, key).Result()
	if err == nil && len(fields) > 0 {
		return decodeQuestions(fields)
	}

	result, err, _ := b.sf.Do(string(category), func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		fields, err := b.client.HGetAll(ctx, key).Result()
		if err == nil && len(fields) > 0 {
			questions, err := decodeQuestions(fields)
			if err != nil {
				return nil, err
			}
			return questions, nil
		}

		questions, err := b.loader.LoadByCategory(ctx, category)
		if err != nil {
			return nil, err
		}

		ttl := b.ttlWithJitter()
		pipe := b.client.Pipeline()
		for _, q := range questions {
			data, err := json.Marshal(q)
			if err != nil {
				return nil, err
			}
			pipe.HSet(ctx, key, q.ID, string(data))
		}
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		_, _ = pipe.Exec(ctx)

		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (b *QuestionBank) categoryKey(category domain.Category) string {
	return "g1:questions:" + string(category)
}

func (b *QuestionBank) ttlWithJitter() time.Duration {
	if b.ttl <= 0 {
		return 0
	}
	jitterMax := int64(b.ttl) / 10
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ttl + time.Duration(b.rnd.Int63n(jitterMax+1))
}

func decodeQuestions(fields map[string]string) ([]domain.Question, error) {
	questions := make([]domain.Question, 0, len(fields))
	for _, raw := range fields {
		var q domain.Question
		if err := json.Unmarshal([]byte(raw), &q); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, nil
}

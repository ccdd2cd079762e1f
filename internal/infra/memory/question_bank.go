package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"g1-quiz-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// QuestionLoader fetches question content for one category from a backing
// store (Postgres, static bank, etc).
type QuestionLoader interface {
	LoadByCategory(ctx context.Context, category domain.Category) ([]domain.Question, error)
}

// QuestionBank caches per-category question sets with TTL to avoid repeated
// DB hits, then draws samples per request criteria.
type QuestionBank struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	rnd   *rand.Rand
	cache map[domain.Category]cachedCategory
}

type cachedCategory struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionBank(loader QuestionLoader, ttl time.Duration) *QuestionBank {
	return &QuestionBank{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[domain.Category]cachedCategory),
	}
}

// FetchQuestions returns questions matching the criteria, drawing from the
// per-category cache and filling it through the loader on miss.
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
	now := b.clock()

	b.mu.RLock()
	if entry, ok := b.cache[category]; ok && entry.expiresAt.After(now) {
		b.mu.RUnlock()
		return copyQuestions(entry.questions), nil
	}
	b.mu.RUnlock()

	result, err, _ := b.sf.Do(string(category), func() (interface{}, error) {
		now := b.clock()
		b.mu.RLock()
		if entry, ok := b.cache[category]; ok && entry.expiresAt.After(now) {
			b.mu.RUnlock()
			return entry.questions, nil
		}
		b.mu.RUnlock()

		questions, err := b.loader.LoadByCategory(ctx, category)
		if err != nil {
			return nil, err
		}

		ttl := b.ttlWithJitter()
		b.mu.Lock()
		b.cache[category] = cachedCategory{
			questions: questions,
			expiresAt: now.Add(ttl),
		}
		b.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return copyQuestions(result.([]domain.Question)), nil
}

// ttlWithJitter adds up to 10% jitter to spread expirations.
func (b *QuestionBank) ttlWithJitter() time.Duration {
	if b.ttl <= 0 {
		return 0
	}
	jitterMax := int64(b.ttl) / 10
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ttl + time.Duration(b.rnd.Int63n(jitterMax+1))
}

func copyQuestions(questions []domain.Question) []domain.Question {
	out := make([]domain.Question, len(questions))
	copy(out, questions)
	return out
}

// StaticQuestionLoader is a loader backed by an in-memory bank, useful for
// tests and demo runs without Postgres.
type StaticQuestionLoader struct {
	questions []domain.Question
}

func NewStaticQuestionLoader(questions []domain.Question) *StaticQuestionLoader {
	return &StaticQuestionLoader{questions: questions}
}

func (l *StaticQuestionLoader) LoadByCategory(_ context.Context, category domain.Category) ([]domain.Question, error) {
	var out []domain.Question
	for _, q := range l.questions {
		if q.Category == category {
			out = append(out, q)
		}
	}
	return out, nil
}

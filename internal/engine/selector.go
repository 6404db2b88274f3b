package engine

import (
	"context"

	"github.com/samber/lo"

	"github.com/yazbekw/quizbot/internal/domain/question"
)

// hardPickChance is the probability that a draw is served from the
// user's hard-flagged pool instead of the regular rotation.
const hardPickChance = 0.3

// pickNext draws the next question for a user: a hard-flagged question
// with probability hardPickChance, otherwise a random unanswered
// question from the user's selected topic (or the whole catalog). When
// the rotation is exhausted the answered set is cleared and the pool
// refilled, falling back to the default topic if the user's topic has
// no questions at all.
func (e *Engine) pickNext(ctx context.Context, chatID int64) (*question.Question, error) {
	if e.roll() < hardPickChance {
		if q, err := e.pickHard(ctx, chatID); err != nil {
			return nil, err
		} else if q != nil {
			return q, nil
		}
	}

	user, err := e.store.GetUser(ctx, chatID)
	if err != nil {
		return nil, err
	}

	scope := e.catalog.All()
	if user.SelectedTopic != "" {
		scope = e.catalog.ByTopic(user.SelectedTopic)
	}

	answered, err := e.store.AnsweredSet(ctx, chatID)
	if err != nil {
		return nil, err
	}

	candidates := lo.Filter(scope, func(q *question.Question, _ int) bool {
		_, seen := answered[q.ID]
		return !seen
	})

	if len(candidates) == 0 {
		if err := e.store.ClearAnswered(ctx, chatID); err != nil {
			return nil, err
		}
		candidates = scope
		if len(candidates) == 0 {
			candidates = e.catalog.ByTopic(question.DefaultTopic)
		}
	}

	if len(candidates) == 0 {
		return nil, ErrNoQuestions
	}
	return candidates[e.intn(len(candidates))], nil
}

// pickHard draws from the user's hard-flagged questions. Flags whose
// question no longer exists in the catalog are skipped. A nil question
// with nil error means the pool is empty.
func (e *Engine) pickHard(ctx context.Context, chatID int64) (*question.Question, error) {
	ids, err := e.store.HardFlags(ctx, chatID)
	if err != nil {
		return nil, err
	}

	pool := make([]*question.Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := e.catalog.ByID(id); ok {
			pool = append(pool, q)
		}
	}
	if len(pool) == 0 {
		return nil, nil
	}
	return pool[e.intn(len(pool))], nil
}

func (e *Engine) roll() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Float64()
}

func (e *Engine) intn(n int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rng.Intn(n)
}

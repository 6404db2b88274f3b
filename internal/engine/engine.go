// Package engine drives the quiz loop: drawing questions, scoring
// answers, and recording attempts, mistakes and session progress.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/yazbekw/quizbot/internal/arabic"
	"github.com/yazbekw/quizbot/internal/domain/learner"
	"github.com/yazbekw/quizbot/internal/domain/question"
	"github.com/yazbekw/quizbot/internal/store"
)

var (
	// ErrNoQuestions means no question can be served even after
	// resetting the user's rotation.
	ErrNoQuestions = errors.New("no questions available")
	// ErrQuestionGone means the referenced question is no longer in
	// the catalog.
	ErrQuestionGone = errors.New("question no longer exists")
	// ErrUnknownTopic means a topic name matched nothing in the
	// catalog, even fuzzily.
	ErrUnknownTopic = errors.New("unknown topic")
	// ErrNoCurrentQuestion means the user has no question in flight.
	ErrNoCurrentQuestion = errors.New("no current question")
)

// Verdict is the full outcome of one submitted answer, ready for the
// transport layer to render.
type Verdict struct {
	Question    *question.Question
	Correct     bool
	Accuracy    float64
	Explanation string
	ModelAnswer string
	Feedback    string // coaching text, only set on incorrect answers
}

// Engine wires the catalog, the store and the selection policy
// together. Safe for concurrent use.
type Engine struct {
	store   store.Store
	catalog *question.Catalog
	logger  *slog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand replaces the engine's randomness source. Used by tests to
// make draws deterministic.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

func New(st store.Store, catalog *question.Catalog, logger *slog.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:   st,
		catalog: catalog,
		logger:  logger,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Topics lists the catalog's topics, sorted.
func (e *Engine) Topics() []string {
	return e.catalog.Topics()
}

// Question looks a question up by id.
func (e *Engine) Question(id string) (*question.Question, bool) {
	return e.catalog.ByID(id)
}

// NextQuestion draws the next question for a user and pins it as the
// user's question in flight.
func (e *Engine) NextQuestion(ctx context.Context, chatID int64) (*question.Question, error) {
	if err := e.touch(ctx, chatID); err != nil {
		return nil, err
	}

	q, err := e.pickNext(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if err := e.store.SetCurrentQuestion(ctx, chatID, q.ID); err != nil {
		return nil, err
	}

	e.logger.Debug("question drawn", "chat_id", chatID, "question_id", q.ID, "topic", q.Topic)
	return q, nil
}

// CurrentQuestion returns the user's question in flight, if any.
func (e *Engine) CurrentQuestion(ctx context.Context, chatID int64) (*question.Question, error) {
	user, err := e.store.GetUser(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if user.CurrentQID == "" {
		return nil, ErrNoCurrentQuestion
	}
	q, ok := e.catalog.ByID(user.CurrentQID)
	if !ok {
		return nil, ErrQuestionGone
	}
	return q, nil
}

// SubmitChoice evaluates a tapped choice and records the outcome.
func (e *Engine) SubmitChoice(ctx context.Context, chatID int64, questionID string, index int) (*Verdict, error) {
	q, ok := e.catalog.ByID(questionID)
	if !ok {
		return nil, ErrQuestionGone
	}

	wrong := ""
	if index >= 0 && index < len(q.Choices) {
		wrong = arabic.Normalize(q.Choices[index])
	}
	return e.record(ctx, chatID, q, EvaluateChoice(q, index), wrong)
}

// SubmitText evaluates a typed answer and records the outcome.
func (e *Engine) SubmitText(ctx context.Context, chatID int64, questionID, text string) (*Verdict, error) {
	q, ok := e.catalog.ByID(questionID)
	if !ok {
		return nil, ErrQuestionGone
	}
	return e.record(ctx, chatID, q, EvaluateText(q, text), arabic.Normalize(text))
}

// record persists an evaluation: the attempt, the mistake (when
// incorrect), rotation progress, and session progress. The question is
// marked answered regardless of correctness so it leaves the rotation.
func (e *Engine) record(ctx context.Context, chatID int64, q *question.Question, ev Evaluation, wrong string) (*Verdict, error) {
	if err := e.touch(ctx, chatID); err != nil {
		return nil, err
	}

	if err := e.store.RecordAttempt(ctx, chatID, q.Topic, ev.Correct); err != nil {
		return nil, err
	}

	v := &Verdict{
		Question:    q,
		Correct:     ev.Correct,
		Accuracy:    ev.Accuracy,
		Explanation: ev.Explanation,
		ModelAnswer: q.ModelAnswer(),
	}

	if !ev.Correct {
		// An out-of-range choice index has no wrong-answer text;
		// nothing useful to aggregate.
		if wrong != "" {
			if err := e.store.RecordMistake(ctx, chatID, q.ID, wrong, ev.Accuracy); err != nil {
				return nil, err
			}
		}
		fb, err := e.feedback(ctx, chatID, q)
		if err != nil {
			return nil, err
		}
		v.Feedback = fb
	}

	if err := e.store.MarkAnswered(ctx, chatID, q.ID); err != nil {
		return nil, err
	}
	if err := e.store.SetCurrentQuestion(ctx, chatID, ""); err != nil {
		return nil, err
	}
	if err := e.store.IncrementOpenSession(ctx, chatID); err != nil {
		return nil, err
	}

	e.logger.Info("answer recorded",
		"chat_id", chatID, "question_id", q.ID, "correct", ev.Correct, "accuracy", ev.Accuracy)
	return v, nil
}

// RateQuestion stores a difficulty rating. Hard ratings flag the
// question for resurfacing.
func (e *Engine) RateQuestion(ctx context.Context, chatID int64, questionID string, rating learner.Rating) error {
	if _, ok := e.catalog.ByID(questionID); !ok {
		return ErrQuestionGone
	}
	if rating != learner.RatingHard {
		return nil
	}
	return e.store.FlagHard(ctx, chatID, questionID)
}

// SelectTopic resolves a topic name, fuzzily when no exact match
// exists, and pins it as the user's topic. Returns the resolved name.
func (e *Engine) SelectTopic(ctx context.Context, chatID int64, topic string) (string, error) {
	resolved, err := e.resolveTopic(topic)
	if err != nil {
		return "", err
	}
	if err := e.store.SetTopic(ctx, chatID, resolved); err != nil {
		return "", err
	}
	return resolved, nil
}

// ClearTopic returns the user to drawing from the whole catalog.
func (e *Engine) ClearTopic(ctx context.Context, chatID int64) error {
	return e.store.SetTopic(ctx, chatID, "")
}

func (e *Engine) resolveTopic(topic string) (string, error) {
	topic = strings.TrimSpace(topic)
	topics := e.catalog.Topics()
	for _, t := range topics {
		if t == topic {
			return t, nil
		}
	}
	ranks := fuzzy.RankFindNormalizedFold(topic, topics)
	if len(ranks) == 0 {
		return "", ErrUnknownTopic
	}
	best := ranks[0]
	for _, r := range ranks[1:] {
		if r.Distance < best.Distance {
			best = r
		}
	}
	return best.Target, nil
}

// StartSession opens a study session for the user.
func (e *Engine) StartSession(ctx context.Context, chatID int64) (string, error) {
	if err := e.touch(ctx, chatID); err != nil {
		return "", err
	}
	return e.store.StartSession(ctx, chatID)
}

// EndSession closes a study session.
func (e *Engine) EndSession(ctx context.Context, sessionID string) error {
	return e.store.EndSession(ctx, sessionID)
}

// Score reports a user's profile and their strongest topics.
func (e *Engine) Score(ctx context.Context, chatID int64) (*learner.User, []learner.TopicStat, error) {
	user, err := e.store.GetUser(ctx, chatID)
	if err != nil {
		return nil, nil, err
	}
	stats, err := e.store.TopTopicStats(ctx, chatID, 5)
	if err != nil {
		return nil, nil, err
	}
	return user, stats, nil
}

// touch makes sure the user row exists and refreshes last activity.
func (e *Engine) touch(ctx context.Context, chatID int64) error {
	if err := e.store.EnsureUser(ctx, chatID); err != nil {
		return err
	}
	return e.store.TouchUser(ctx, chatID)
}

package store

import (
	"context"
	"errors"
	"time"

	"github.com/yazbekw/quizbot/internal/domain/learner"
)

var (
	ErrNotFound = errors.New("not found")
)

// HourCount is one bucket of the sessions-per-hour report.
type HourCount struct {
	Hour  string `json:"hour"`
	Count int    `json:"count"`
}

// TopicCount is one bucket of the topic attempt distribution.
type TopicCount struct {
	Topic    string `json:"topic"`
	Attempts int    `json:"attempts"`
}

// Feedback is one stored user note.
type Feedback struct {
	ChatID    int64     `json:"chat_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the durable state behind the quiz engine. Implementations must
// give read-your-writes consistency within a single call chain; mutations
// that the engine treats as one attempt are applied atomically.
type Store interface {
	// Users
	EnsureUser(ctx context.Context, chatID int64) error
	GetUser(ctx context.Context, chatID int64) (*learner.User, error)
	TouchUser(ctx context.Context, chatID int64) error
	SetTopic(ctx context.Context, chatID int64, topic string) error
	SetCurrentQuestion(ctx context.Context, chatID int64, questionID string) error
	ListUserIDs(ctx context.Context) ([]int64, error)

	// Mastery ledger
	RecordAttempt(ctx context.Context, chatID int64, topic string, correct bool) error
	TopicStat(ctx context.Context, chatID int64, topic string) (*learner.TopicStat, error)
	TopTopicStats(ctx context.Context, chatID int64, limit int) ([]learner.TopicStat, error)

	// Answered round + hard flags
	MarkAnswered(ctx context.Context, chatID int64, questionID string) error
	AnsweredSet(ctx context.Context, chatID int64) (map[string]struct{}, error)
	ClearAnswered(ctx context.Context, chatID int64) error
	FlagHard(ctx context.Context, chatID int64, questionID string) error
	HardFlags(ctx context.Context, chatID int64) ([]string, error)

	// Mistake analysis
	RecordMistake(ctx context.Context, chatID int64, questionID, wrongAnswer string, accuracy float64) error
	TopQuestionErrors(ctx context.Context, questionID string, limit int) ([]learner.ErrorAggregate, error)
	TopUserMistake(ctx context.Context, chatID int64, questionID string) (*learner.MistakeRecord, error)

	// Sessions
	StartSession(ctx context.Context, chatID int64) (string, error)
	EndSession(ctx context.Context, sessionID string) error
	IncrementSession(ctx context.Context, sessionID string) error
	IncrementOpenSession(ctx context.Context, chatID int64) error
	GetSession(ctx context.Context, sessionID string) (*learner.Session, error)

	// Feedback + invites
	SaveFeedback(ctx context.Context, chatID int64, text string) error
	RecentFeedback(ctx context.Context, limit int) ([]Feedback, error)
	CreateInvite(ctx context.Context, chatID int64) (string, error)
	RedeemInvite(ctx context.Context, code string) error

	// Reporting (read-only aggregates)
	CountUsers(ctx context.Context) (int, error)
	CountActiveUsers(ctx context.Context, window time.Duration) (int, error)
	TotalQuestionsAnswered(ctx context.Context) (int, error)
	PeakHours(ctx context.Context, limit int) ([]HourCount, error)
	TopicDistribution(ctx context.Context) ([]TopicCount, error)
	TopErrors(ctx context.Context, limit int) ([]learner.ErrorAggregate, error)
}

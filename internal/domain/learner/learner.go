// Package learner holds the per-user state tracked by the quiz engine.
package learner

import "time"

// User is created on first interaction and never deleted.
type User struct {
	ChatID        int64
	RegisterDate  time.Time
	LastActive    time.Time
	Score         int
	Attempts      int
	SelectedTopic string // empty = no preference, draw from all topics
	CurrentQID    string // last question served, empty if none
}

// Accuracy returns the user's global correct percentage.
func (u *User) Accuracy() float64 {
	if u.Attempts == 0 {
		return 0
	}
	return float64(u.Score) / float64(u.Attempts) * 100
}

// TopicStat is the (user, topic) mastery aggregate. Correct never
// exceeds Attempts.
type TopicStat struct {
	Topic    string
	Correct  int
	Attempts int
}

// Accuracy returns the per-topic correct percentage.
func (ts *TopicStat) Accuracy() float64 {
	if ts.Attempts == 0 {
		return 0
	}
	return float64(ts.Correct) / float64(ts.Attempts) * 100
}

// MistakeRecord is a (user, question, wrong answer) aggregate. Accuracy
// holds the lowest value ever recorded for that exact wrong text.
type MistakeRecord struct {
	QuestionID  string
	WrongAnswer string
	Count       int
	Accuracy    float64
}

// ErrorAggregate counts a wrong answer for a question across all users.
type ErrorAggregate struct {
	QuestionID  string
	WrongAnswer string
	Count       int
}

// Session records one study session. End is zero while the session is
// open. Multiple open sessions per user are allowed.
type Session struct {
	ID                string
	ChatID            int64
	Start             time.Time
	End               time.Time
	QuestionsAnswered int
}

// Open reports whether the session has not been ended yet.
func (s *Session) Open() bool {
	return s.End.IsZero()
}

// Rating is a user's difficulty signal for a question.
type Rating string

const (
	RatingEasy Rating = "easy"
	RatingHard Rating = "hard"
)

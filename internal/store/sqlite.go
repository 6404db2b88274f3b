package store

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"github.com/yazbekw/quizbot/internal/domain/learner"
	"github.com/yazbekw/quizbot/internal/id"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    chat_id INTEGER PRIMARY KEY,
    register_date TEXT NOT NULL,
    last_active TEXT NOT NULL,
    score INTEGER DEFAULT 0,
    attempts INTEGER DEFAULT 0,
    selected_topic TEXT,
    current_question TEXT
);

CREATE TABLE IF NOT EXISTS user_topics (
    chat_id INTEGER NOT NULL,
    topic TEXT NOT NULL,
    correct INTEGER DEFAULT 0,
    attempts INTEGER DEFAULT 0,
    PRIMARY KEY (chat_id, topic)
);

CREATE TABLE IF NOT EXISTS user_answered (
    chat_id INTEGER NOT NULL,
    question_id TEXT NOT NULL,
    PRIMARY KEY (chat_id, question_id)
);

CREATE TABLE IF NOT EXISTS hard_questions (
    chat_id INTEGER NOT NULL,
    question_id TEXT NOT NULL,
    PRIMARY KEY (chat_id, question_id)
);

CREATE TABLE IF NOT EXISTS user_mistakes (
    chat_id INTEGER NOT NULL,
    question_id TEXT NOT NULL,
    wrong_answer TEXT NOT NULL,
    count INTEGER DEFAULT 1,
    accuracy REAL NOT NULL,
    last_updated TEXT NOT NULL,
    UNIQUE (chat_id, question_id, wrong_answer)
);

CREATE TABLE IF NOT EXISTS error_analysis (
    question_id TEXT NOT NULL,
    wrong_answer TEXT NOT NULL,
    count INTEGER DEFAULT 1,
    PRIMARY KEY (question_id, wrong_answer)
);

CREATE TABLE IF NOT EXISTS user_sessions (
    session_id TEXT PRIMARY KEY,
    chat_id INTEGER NOT NULL,
    start_time TEXT NOT NULL,
    end_time TEXT,
    questions_answered INTEGER DEFAULT 0
);

CREATE TABLE IF NOT EXISTS user_feedback (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    chat_id INTEGER NOT NULL,
    feedback_text TEXT NOT NULL,
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS user_invites (
    invite_code TEXT PRIMARY KEY,
    chat_id INTEGER NOT NULL,
    created_at TEXT NOT NULL,
    uses INTEGER DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_user_topics_chat ON user_topics (chat_id);
CREATE INDEX IF NOT EXISTS idx_sessions_chat ON user_sessions (chat_id);
CREATE INDEX IF NOT EXISTS idx_mistakes_chat ON user_mistakes (chat_id, question_id);
`

const timeLayout = time.RFC3339

// SQLiteStore implements Store on a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLite opens (creating if needed) the database at dbPath.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func now() string {
	return time.Now().UTC().Format(timeLayout)
}

// ============================================================================
// Users
// ============================================================================

func (s *SQLiteStore) EnsureUser(ctx context.Context, chatID int64) error {
	ts := now()
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO users (chat_id, register_date, last_active) VALUES (?, ?, ?)",
		chatID, ts, ts,
	)
	return err
}

func (s *SQLiteStore) GetUser(ctx context.Context, chatID int64) (*learner.User, error) {
	var (
		u                  learner.User
		registered, active string
		topic, current     sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT chat_id, register_date, last_active, score, attempts, selected_topic, current_question FROM users WHERE chat_id = ?",
		chatID,
	).Scan(&u.ChatID, &registered, &active, &u.Score, &u.Attempts, &topic, &current)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	u.RegisterDate, _ = time.Parse(timeLayout, registered)
	u.LastActive, _ = time.Parse(timeLayout, active)
	if topic.Valid {
		u.SelectedTopic = topic.String
	}
	if current.Valid {
		u.CurrentQID = current.String
	}
	return &u, nil
}

func (s *SQLiteStore) TouchUser(ctx context.Context, chatID int64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE users SET last_active = ? WHERE chat_id = ?", now(), chatID)
	return err
}

func (s *SQLiteStore) SetTopic(ctx context.Context, chatID int64, topic string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE users SET selected_topic = ? WHERE chat_id = ?", nullable(topic), chatID)
	return err
}

func (s *SQLiteStore) SetCurrentQuestion(ctx context.Context, chatID int64, questionID string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE users SET current_question = ? WHERE chat_id = ?", nullable(questionID), chatID)
	return err
}

func (s *SQLiteStore) ListUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT chat_id FROM users")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var chatID int64
		if err := rows.Scan(&chatID); err != nil {
			return nil, err
		}
		ids = append(ids, chatID)
	}
	return ids, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// ============================================================================
// Mastery ledger
// ============================================================================

// RecordAttempt applies the user-level and topic-level increments in one
// transaction so a crash cannot leave them inconsistent.
func (s *SQLiteStore) RecordAttempt(ctx context.Context, chatID int64, topic string, correct bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	delta := 0
	if correct {
		delta = 1
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE users SET attempts = attempts + 1, score = score + ? WHERE chat_id = ?",
		delta, chatID,
	); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO user_topics (chat_id, topic, correct, attempts) VALUES (?, ?, ?, 1)
		ON CONFLICT(chat_id, topic) DO UPDATE SET
			correct = correct + excluded.correct,
			attempts = attempts + 1`,
		chatID, topic, delta,
	); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *SQLiteStore) TopicStat(ctx context.Context, chatID int64, topic string) (*learner.TopicStat, error) {
	var ts learner.TopicStat
	err := s.db.QueryRowContext(ctx,
		"SELECT topic, correct, attempts FROM user_topics WHERE chat_id = ? AND topic = ?",
		chatID, topic,
	).Scan(&ts.Topic, &ts.Correct, &ts.Attempts)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

func (s *SQLiteStore) TopTopicStats(ctx context.Context, chatID int64, limit int) ([]learner.TopicStat, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT topic, correct, attempts FROM user_topics WHERE chat_id = ? ORDER BY attempts DESC LIMIT ?",
		chatID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []learner.TopicStat
	for rows.Next() {
		var ts learner.TopicStat
		if err := rows.Scan(&ts.Topic, &ts.Correct, &ts.Attempts); err != nil {
			return nil, err
		}
		stats = append(stats, ts)
	}
	return stats, rows.Err()
}

// ============================================================================
// Answered round + hard flags
// ============================================================================

func (s *SQLiteStore) MarkAnswered(ctx context.Context, chatID int64, questionID string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO user_answered (chat_id, question_id) VALUES (?, ?)",
		chatID, questionID)
	return err
}

func (s *SQLiteStore) AnsweredSet(ctx context.Context, chatID int64) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT question_id FROM user_answered WHERE chat_id = ?", chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	answered := make(map[string]struct{})
	for rows.Next() {
		var qid string
		if err := rows.Scan(&qid); err != nil {
			return nil, err
		}
		answered[qid] = struct{}{}
	}
	return answered, rows.Err()
}

func (s *SQLiteStore) ClearAnswered(ctx context.Context, chatID int64) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM user_answered WHERE chat_id = ?", chatID)
	return err
}

func (s *SQLiteStore) FlagHard(ctx context.Context, chatID int64, questionID string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO hard_questions (chat_id, question_id) VALUES (?, ?)",
		chatID, questionID)
	return err
}

func (s *SQLiteStore) HardFlags(ctx context.Context, chatID int64) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT question_id FROM hard_questions WHERE chat_id = ?", chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var qid string
		if err := rows.Scan(&qid); err != nil {
			return nil, err
		}
		ids = append(ids, qid)
	}
	return ids, rows.Err()
}

// ============================================================================
// Mistake analysis
// ============================================================================

// RecordMistake upserts both the global error aggregate and the per-user
// mistake record in one transaction. The per-user accuracy keeps the
// historical minimum for that exact wrong text.
func (s *SQLiteStore) RecordMistake(ctx context.Context, chatID int64, questionID, wrongAnswer string, accuracy float64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO error_analysis (question_id, wrong_answer, count) VALUES (?, ?, 1)
		ON CONFLICT(question_id, wrong_answer) DO UPDATE SET count = count + 1`,
		questionID, wrongAnswer,
	); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO user_mistakes (chat_id, question_id, wrong_answer, count, accuracy, last_updated)
		VALUES (?, ?, ?, 1, ?, ?)
		ON CONFLICT(chat_id, question_id, wrong_answer) DO UPDATE SET
			count = count + 1,
			accuracy = MIN(accuracy, excluded.accuracy),
			last_updated = excluded.last_updated`,
		chatID, questionID, wrongAnswer, accuracy, now(),
	); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *SQLiteStore) TopQuestionErrors(ctx context.Context, questionID string, limit int) ([]learner.ErrorAggregate, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT question_id, wrong_answer, count FROM error_analysis WHERE question_id = ? ORDER BY count DESC LIMIT ?",
		questionID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanErrorAggregates(rows)
}

func (s *SQLiteStore) TopUserMistake(ctx context.Context, chatID int64, questionID string) (*learner.MistakeRecord, error) {
	var m learner.MistakeRecord
	err := s.db.QueryRowContext(ctx, `
		SELECT question_id, wrong_answer, count, accuracy FROM user_mistakes
		WHERE chat_id = ? AND question_id = ?
		ORDER BY count DESC LIMIT 1`,
		chatID, questionID,
	).Scan(&m.QuestionID, &m.WrongAnswer, &m.Count, &m.Accuracy)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// ============================================================================
// Sessions
// ============================================================================

func (s *SQLiteStore) StartSession(ctx context.Context, chatID int64) (string, error) {
	sessionID := id.Session()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO user_sessions (session_id, chat_id, start_time, questions_answered) VALUES (?, ?, ?, 0)",
		sessionID, chatID, now(),
	)
	if err != nil {
		return "", err
	}
	return sessionID, nil
}

func (s *SQLiteStore) EndSession(ctx context.Context, sessionID string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE user_sessions SET end_time = ? WHERE session_id = ?", now(), sessionID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) IncrementSession(ctx context.Context, sessionID string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE user_sessions SET questions_answered = questions_answered + 1 WHERE session_id = ?",
		sessionID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementOpenSession bumps the counter of the user's most recently
// started open session. A user with no open session is a no-op.
func (s *SQLiteStore) IncrementOpenSession(ctx context.Context, chatID int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE user_sessions SET questions_answered = questions_answered + 1
		WHERE session_id = (
			SELECT session_id FROM user_sessions
			WHERE chat_id = ? AND end_time IS NULL
			ORDER BY start_time DESC LIMIT 1
		)`, chatID)
	return err
}

func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*learner.Session, error) {
	var (
		sess  learner.Session
		start string
		end   sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT session_id, chat_id, start_time, end_time, questions_answered FROM user_sessions WHERE session_id = ?",
		sessionID,
	).Scan(&sess.ID, &sess.ChatID, &start, &end, &sess.QuestionsAnswered)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	sess.Start, _ = time.Parse(timeLayout, start)
	if end.Valid {
		sess.End, _ = time.Parse(timeLayout, end.String)
	}
	return &sess, nil
}

// ============================================================================
// Feedback + invites
// ============================================================================

func (s *SQLiteStore) SaveFeedback(ctx context.Context, chatID int64, text string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO user_feedback (chat_id, feedback_text, created_at) VALUES (?, ?, ?)",
		chatID, text, now())
	return err
}

func (s *SQLiteStore) RecentFeedback(ctx context.Context, limit int) ([]Feedback, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT chat_id, feedback_text, created_at FROM user_feedback ORDER BY created_at DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var feedbacks []Feedback
	for rows.Next() {
		var (
			f  Feedback
			ts string
		)
		if err := rows.Scan(&f.ChatID, &f.Text, &ts); err != nil {
			return nil, err
		}
		f.CreatedAt, _ = time.Parse(timeLayout, ts)
		feedbacks = append(feedbacks, f)
	}
	return feedbacks, rows.Err()
}

func (s *SQLiteStore) CreateInvite(ctx context.Context, chatID int64) (string, error) {
	code := id.InviteCode()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO user_invites (invite_code, chat_id, created_at, uses) VALUES (?, ?, ?, 0)",
		code, chatID, now())
	if err != nil {
		return "", err
	}
	return code, nil
}

// RedeemInvite bumps the invite use counter and credits the inviter with
// five score points, atomically.
func (s *SQLiteStore) RedeemInvite(ctx context.Context, code string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE user_invites SET uses = uses + 1 WHERE invite_code = ?", code)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE users SET score = score + 5
		WHERE chat_id = (SELECT chat_id FROM user_invites WHERE invite_code = ?)`,
		code,
	); err != nil {
		return err
	}

	return tx.Commit()
}

// ============================================================================
// Reporting
// ============================================================================

func (s *SQLiteStore) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}

func (s *SQLiteStore) CountActiveUsers(ctx context.Context, window time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-window).Format(timeLayout)
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE last_active > ?", cutoff).Scan(&n)
	return n, err
}

func (s *SQLiteStore) TotalQuestionsAnswered(ctx context.Context) (int, error) {
	var n sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		"SELECT SUM(questions_answered) FROM user_sessions").Scan(&n)
	if err != nil {
		return 0, err
	}
	return int(n.Int64), nil
}

func (s *SQLiteStore) PeakHours(ctx context.Context, limit int) ([]HourCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT strftime('%H', start_time) AS hour, COUNT(*)
		FROM user_sessions
		GROUP BY hour
		ORDER BY COUNT(*) DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hours []HourCount
	for rows.Next() {
		var hc HourCount
		if err := rows.Scan(&hc.Hour, &hc.Count); err != nil {
			return nil, err
		}
		hours = append(hours, hc)
	}
	return hours, rows.Err()
}

func (s *SQLiteStore) TopicDistribution(ctx context.Context) ([]TopicCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT topic, SUM(attempts) FROM user_topics
		GROUP BY topic ORDER BY SUM(attempts) DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var topics []TopicCount
	for rows.Next() {
		var tc TopicCount
		if err := rows.Scan(&tc.Topic, &tc.Attempts); err != nil {
			return nil, err
		}
		topics = append(topics, tc)
	}
	return topics, rows.Err()
}

func (s *SQLiteStore) TopErrors(ctx context.Context, limit int) ([]learner.ErrorAggregate, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT question_id, wrong_answer, count FROM error_analysis ORDER BY count DESC LIMIT ?",
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanErrorAggregates(rows)
}

func scanErrorAggregates(rows *sql.Rows) ([]learner.ErrorAggregate, error) {
	var aggs []learner.ErrorAggregate
	for rows.Next() {
		var ea learner.ErrorAggregate
		if err := rows.Scan(&ea.QuestionID, &ea.WrongAnswer, &ea.Count); err != nil {
			return nil, err
		}
		aggs = append(aggs, ea)
	}
	return aggs, rows.Err()
}

package engine_test

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yazbekw/quizbot/internal/domain/learner"
	"github.com/yazbekw/quizbot/internal/domain/question"
	"github.com/yazbekw/quizbot/internal/engine"
	"github.com/yazbekw/quizbot/internal/store"
)

const chatID int64 = 1001

// zeroSource makes every roll land at 0, forcing the hard-question
// branch and the first candidate on every draw.
type zeroSource struct{}

func (zeroSource) Int63() int64 { return 0 }
func (zeroSource) Seed(int64)   {}

func testCatalog(t *testing.T) *question.Catalog {
	t.Helper()
	catalog, err := question.NewCatalog([]*question.Question{
		{
			ID: "q1", Topic: "جغرافيا", Body: "ما هي عاصمة سوريا؟",
			Kind:    question.KindMultipleChoice,
			Choices: []string{"دمشق", "حلب"}, CorrectIndices: []int{0},
		},
		{
			ID: "q2", Topic: "البيئة", Body: "عرف النظام البيئي",
			Kind:     question.KindKeywords,
			Keywords: []string{"نظام", "طاقة"},
		},
		{
			ID: "q3", Topic: "عام", Body: "سؤال مقالي",
			Kind:   question.KindFreeText,
			Answer: "الماء أساس الحياة",
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return catalog
}

func newEngine(t *testing.T, catalog *question.Catalog, opts ...engine.Option) (*engine.Engine, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "quiz.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	logger := slog.New(slog.DiscardHandler)
	return engine.New(st, catalog, logger, opts...), st
}

func TestNextQuestion_NeverRepeatsWithinRotation(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t, testCatalog(t))

	seen := make(map[string]bool)
	for i := 0; i < 3; i++ {
		q, err := e.NextQuestion(ctx, chatID)
		if err != nil {
			t.Fatal(err)
		}
		if seen[q.ID] {
			t.Fatalf("question %s served twice in one rotation", q.ID)
		}
		seen[q.ID] = true

		if _, err := e.SubmitText(ctx, chatID, q.ID, "إجابة ما"); err != nil {
			t.Fatal(err)
		}
	}
	if len(seen) != 3 {
		t.Fatalf("served %d distinct questions, want 3", len(seen))
	}
}

func TestNextQuestion_ExhaustionResetsRotation(t *testing.T) {
	ctx := context.Background()
	e, st := newEngine(t, testCatalog(t))

	for i := 0; i < 3; i++ {
		q, err := e.NextQuestion(ctx, chatID)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := e.SubmitText(ctx, chatID, q.ID, "إجابة"); err != nil {
			t.Fatal(err)
		}
	}

	// All answered; the next draw must reset and still serve.
	if _, err := e.NextQuestion(ctx, chatID); err != nil {
		t.Fatalf("post-exhaustion draw failed: %v", err)
	}
	answered, err := st.AnsweredSet(ctx, chatID)
	if err != nil {
		t.Fatal(err)
	}
	if len(answered) != 0 {
		t.Fatalf("answered set not cleared, %d left", len(answered))
	}
}

func TestNextQuestion_EmptyTopicFallsBackToDefault(t *testing.T) {
	ctx := context.Background()
	e, st := newEngine(t, testCatalog(t))

	if err := st.EnsureUser(ctx, chatID); err != nil {
		t.Fatal(err)
	}
	// A topic that exists nowhere in the catalog.
	if err := st.SetTopic(ctx, chatID, "تاريخ"); err != nil {
		t.Fatal(err)
	}

	q, err := e.NextQuestion(ctx, chatID)
	if err != nil {
		t.Fatal(err)
	}
	if q.Topic != question.DefaultTopic {
		t.Fatalf("fallback served topic %q, want %q", q.Topic, question.DefaultTopic)
	}
}

func TestNextQuestion_EmptyCatalog(t *testing.T) {
	catalog, err := question.NewCatalog(nil)
	if err != nil {
		t.Fatal(err)
	}
	e, _ := newEngine(t, catalog)

	if _, err := e.NextQuestion(context.Background(), chatID); !errors.Is(err, engine.ErrNoQuestions) {
		t.Fatalf("err = %v, want ErrNoQuestions", err)
	}
}

func TestNextQuestion_HardFlagsResurface(t *testing.T) {
	ctx := context.Background()
	e, st := newEngine(t, testCatalog(t), engine.WithRand(rand.New(zeroSource{})))

	if err := st.EnsureUser(ctx, chatID); err != nil {
		t.Fatal(err)
	}
	if err := e.RateQuestion(ctx, chatID, "q2", learner.RatingHard); err != nil {
		t.Fatal(err)
	}
	// Answered or not, a hard question stays in the resurfacing pool.
	if err := st.MarkAnswered(ctx, chatID, "q2"); err != nil {
		t.Fatal(err)
	}

	q, err := e.NextQuestion(ctx, chatID)
	if err != nil {
		t.Fatal(err)
	}
	if q.ID != "q2" {
		t.Fatalf("drew %s, want hard-flagged q2", q.ID)
	}
}

func TestRateQuestion_EasyDoesNotFlag(t *testing.T) {
	ctx := context.Background()
	e, st := newEngine(t, testCatalog(t))

	if err := st.EnsureUser(ctx, chatID); err != nil {
		t.Fatal(err)
	}
	if err := e.RateQuestion(ctx, chatID, "q1", learner.RatingEasy); err != nil {
		t.Fatal(err)
	}
	flags, err := st.HardFlags(ctx, chatID)
	if err != nil {
		t.Fatal(err)
	}
	if len(flags) != 0 {
		t.Fatalf("easy rating created %d flags", len(flags))
	}

	if err := e.RateQuestion(ctx, chatID, "missing", learner.RatingHard); !errors.Is(err, engine.ErrQuestionGone) {
		t.Fatalf("err = %v, want ErrQuestionGone", err)
	}
}

func TestSubmitChoice_CorrectAnswer(t *testing.T) {
	ctx := context.Background()
	e, st := newEngine(t, testCatalog(t))

	v, err := e.SubmitChoice(ctx, chatID, "q1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if !v.Correct || v.Accuracy != 100 {
		t.Fatalf("correct=%v accuracy=%v, want true/100", v.Correct, v.Accuracy)
	}
	if v.Feedback != "" {
		t.Fatal("correct answer should carry no coaching feedback")
	}

	user, err := st.GetUser(ctx, chatID)
	if err != nil {
		t.Fatal(err)
	}
	if user.Score != 1 || user.Attempts != 1 {
		t.Fatalf("score=%d attempts=%d, want 1/1", user.Score, user.Attempts)
	}
}

func TestSubmitText_RepeatedMistakeAggregates(t *testing.T) {
	ctx := context.Background()
	e, st := newEngine(t, testCatalog(t))

	for i := 0; i < 2; i++ {
		v, err := e.SubmitText(ctx, chatID, "q2", "هو نظام متكامل")
		if err != nil {
			t.Fatal(err)
		}
		if v.Correct || v.Accuracy != 50 {
			t.Fatalf("correct=%v accuracy=%v, want false/50", v.Correct, v.Accuracy)
		}
		// The own-mistake section shows up from the very first wrong
		// answer onward; its record is written before feedback runs.
		if !strings.Contains(v.Feedback, "🔁") {
			t.Fatalf("feedback missing own-mistake section: %q", v.Feedback)
		}
	}

	mistake, err := st.TopUserMistake(ctx, chatID, "q2")
	if err != nil {
		t.Fatal(err)
	}
	if mistake.Count != 2 {
		t.Fatalf("mistake count = %d, want 2", mistake.Count)
	}

	aggs, err := st.TopQuestionErrors(ctx, "q2", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(aggs) != 1 || aggs[0].Count != 2 {
		t.Fatalf("aggregates = %+v, want one entry with count 2", aggs)
	}
}

func TestSubmitChoice_OutOfRangeRecordsNoMistake(t *testing.T) {
	ctx := context.Background()
	e, st := newEngine(t, testCatalog(t))

	v, err := e.SubmitChoice(ctx, chatID, "q1", 5)
	if err != nil {
		t.Fatal(err)
	}
	if v.Correct {
		t.Fatal("out-of-range index accepted as correct")
	}

	if _, err := st.TopUserMistake(ctx, chatID, "q1"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound for empty wrong answer", err)
	}
	aggs, err := st.TopQuestionErrors(ctx, "q1", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(aggs) != 0 {
		t.Fatalf("aggregates = %+v, want none", aggs)
	}
}

func TestSubmit_UnknownQuestion(t *testing.T) {
	e, _ := newEngine(t, testCatalog(t))

	if _, err := e.SubmitText(context.Background(), chatID, "missing", "x"); !errors.Is(err, engine.ErrQuestionGone) {
		t.Fatalf("err = %v, want ErrQuestionGone", err)
	}
	if _, err := e.SubmitChoice(context.Background(), chatID, "missing", 0); !errors.Is(err, engine.ErrQuestionGone) {
		t.Fatalf("err = %v, want ErrQuestionGone", err)
	}
}

func TestCurrentQuestion_PinnedAndClearedBySubmit(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t, testCatalog(t))

	if _, err := e.CurrentQuestion(ctx, chatID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound before first contact", err)
	}

	q, err := e.NextQuestion(ctx, chatID)
	if err != nil {
		t.Fatal(err)
	}
	cur, err := e.CurrentQuestion(ctx, chatID)
	if err != nil {
		t.Fatal(err)
	}
	if cur.ID != q.ID {
		t.Fatalf("current = %s, want %s", cur.ID, q.ID)
	}

	if _, err := e.SubmitText(ctx, chatID, q.ID, "إجابة"); err != nil {
		t.Fatal(err)
	}
	if _, err := e.CurrentQuestion(ctx, chatID); !errors.Is(err, engine.ErrNoCurrentQuestion) {
		t.Fatalf("err = %v, want ErrNoCurrentQuestion after submit", err)
	}
}

func TestSelectTopic_ExactAndFuzzy(t *testing.T) {
	ctx := context.Background()
	e, st := newEngine(t, testCatalog(t))
	if err := st.EnsureUser(ctx, chatID); err != nil {
		t.Fatal(err)
	}

	got, err := e.SelectTopic(ctx, chatID, "البيئة")
	if err != nil {
		t.Fatal(err)
	}
	if got != "البيئة" {
		t.Fatalf("resolved %q, want البيئة", got)
	}

	// Partial input still resolves to the full topic name.
	got, err = e.SelectTopic(ctx, chatID, "بيئة")
	if err != nil {
		t.Fatal(err)
	}
	if got != "البيئة" {
		t.Fatalf("fuzzy resolved %q, want البيئة", got)
	}

	if _, err := e.SelectTopic(ctx, chatID, "فيزياء نووية"); !errors.Is(err, engine.ErrUnknownTopic) {
		t.Fatalf("err = %v, want ErrUnknownTopic", err)
	}

	user, err := st.GetUser(ctx, chatID)
	if err != nil {
		t.Fatal(err)
	}
	if user.SelectedTopic != "البيئة" {
		t.Fatalf("stored topic %q, want البيئة", user.SelectedTopic)
	}
}

func TestSessions_SubmitIncrementsOpenSession(t *testing.T) {
	ctx := context.Background()
	e, st := newEngine(t, testCatalog(t))

	sid, err := e.StartSession(ctx, chatID)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := e.SubmitChoice(ctx, chatID, "q1", 1); err != nil {
		t.Fatal(err)
	}
	if _, err := e.SubmitText(ctx, chatID, "q3", "الماء أساس الحياة"); err != nil {
		t.Fatal(err)
	}

	sess, err := st.GetSession(ctx, sid)
	if err != nil {
		t.Fatal(err)
	}
	if sess.QuestionsAnswered != 2 {
		t.Fatalf("questions answered = %d, want 2", sess.QuestionsAnswered)
	}

	if err := e.EndSession(ctx, sid); err != nil {
		t.Fatal(err)
	}
	sess, err = st.GetSession(ctx, sid)
	if err != nil {
		t.Fatal(err)
	}
	if sess.Open() {
		t.Fatal("session still open after end")
	}
}

func TestScore_ReportsUserAndTopics(t *testing.T) {
	ctx := context.Background()
	e, _ := newEngine(t, testCatalog(t))

	if _, err := e.SubmitChoice(ctx, chatID, "q1", 0); err != nil {
		t.Fatal(err)
	}
	if _, err := e.SubmitText(ctx, chatID, "q2", "لا أعرف"); err != nil {
		t.Fatal(err)
	}

	user, stats, err := e.Score(ctx, chatID)
	if err != nil {
		t.Fatal(err)
	}
	if user.Score != 1 || user.Attempts != 2 {
		t.Fatalf("score=%d attempts=%d, want 1/2", user.Score, user.Attempts)
	}
	if len(stats) != 2 {
		t.Fatalf("topic stats = %d, want 2", len(stats))
	}
}

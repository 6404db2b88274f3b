package engine_test

import (
	"strings"
	"testing"

	"github.com/yazbekw/quizbot/internal/domain/question"
	"github.com/yazbekw/quizbot/internal/engine"
)

func mcqQuestion() *question.Question {
	return &question.Question{
		ID:             "q1",
		Topic:          "جغرافيا",
		Body:           "ما هي عاصمة سوريا؟",
		Kind:           question.KindMultipleChoice,
		Choices:        []string{"دمشق", "حلب", "حمص"},
		CorrectIndices: []int{0},
		Explanation:    "دمشق هي العاصمة",
	}
}

func TestEvaluateChoice_CorrectIsFullScore(t *testing.T) {
	ev := engine.EvaluateChoice(mcqQuestion(), 0)
	if !ev.Correct || ev.Accuracy != 100 {
		t.Fatalf("correct=%v accuracy=%v, want true/100", ev.Correct, ev.Accuracy)
	}
}

func TestEvaluateChoice_WrongIsZero(t *testing.T) {
	ev := engine.EvaluateChoice(mcqQuestion(), 1)
	if ev.Correct || ev.Accuracy != 0 {
		t.Fatalf("correct=%v accuracy=%v, want false/0", ev.Correct, ev.Accuracy)
	}
}

func TestEvaluateChoice_OutOfRangeIndex(t *testing.T) {
	for _, idx := range []int{-1, 3, 100} {
		if ev := engine.EvaluateChoice(mcqQuestion(), idx); ev.Correct {
			t.Fatalf("index %d accepted as correct", idx)
		}
	}
}

func TestEvaluateText_TypedChoiceMatchesAfterNormalization(t *testing.T) {
	// The typed form carries diacritics; the stored choice does not.
	ev := engine.EvaluateText(mcqQuestion(), "دِمَشْق")
	if !ev.Correct || ev.Accuracy != 100 {
		t.Fatalf("correct=%v accuracy=%v, want true/100", ev.Correct, ev.Accuracy)
	}

	if ev := engine.EvaluateText(mcqQuestion(), "بيروت"); ev.Correct {
		t.Fatal("unrelated typed choice accepted")
	}
}

func keywordQuestion(keywords []string) *question.Question {
	return &question.Question{
		ID:       "q2",
		Topic:    "البيئة",
		Body:     "عرف النظام البيئي",
		Kind:     question.KindKeywords,
		Keywords: keywords,
	}
}

func TestEvaluateText_KeywordsPartialMatch(t *testing.T) {
	q := keywordQuestion([]string{"نظام", "طاقة"})

	ev := engine.EvaluateText(q, "هو نظام متكامل")
	if ev.Correct {
		t.Fatal("one of two keywords should not pass")
	}
	if ev.Accuracy != 50 {
		t.Fatalf("accuracy = %v, want 50", ev.Accuracy)
	}

	ev = engine.EvaluateText(q, "نظام يعتمد على الطاقة")
	if !ev.Correct || ev.Accuracy != 100 {
		t.Fatalf("correct=%v accuracy=%v, want true/100", ev.Correct, ev.Accuracy)
	}
}

func TestEvaluateText_KeywordThresholdInclusive(t *testing.T) {
	keywords := []string{
		"ماء", "هواء", "تربة", "شمس", "نبات",
		"حيوان", "غذاء", "طاقة", "توازن", "مناخ",
	}
	q := keywordQuestion(keywords)

	// Seven of ten matched sits exactly on the pass mark.
	ev := engine.EvaluateText(q, strings.Join(keywords[:7], " "))
	if !ev.Correct || ev.Accuracy != 70 {
		t.Fatalf("correct=%v accuracy=%v, want true/70", ev.Correct, ev.Accuracy)
	}

	ev = engine.EvaluateText(q, strings.Join(keywords[:6], " "))
	if ev.Correct {
		t.Fatalf("six of ten passed with accuracy %v", ev.Accuracy)
	}
}

func freeTextQuestion(answer string) *question.Question {
	return &question.Question{
		ID:     "q3",
		Topic:  "عام",
		Body:   "سؤال مقالي",
		Kind:   question.KindFreeText,
		Answer: answer,
	}
}

func TestEvaluateText_FreeTextExactMatch(t *testing.T) {
	ev := engine.EvaluateText(freeTextQuestion("الماء أساس الحياة"), "الماء أساس الحياة")
	if !ev.Correct || ev.Accuracy != 100 {
		t.Fatalf("correct=%v accuracy=%v, want true/100", ev.Correct, ev.Accuracy)
	}
}

func TestEvaluateText_FreeTextThresholdExclusive(t *testing.T) {
	// "abc" against "abcdefg": 3 matched runes over 10 total is
	// exactly 60%, which must NOT pass.
	ev := engine.EvaluateText(freeTextQuestion("abcdefg"), "abc")
	if ev.Accuracy != 60 {
		t.Fatalf("accuracy = %v, want 60", ev.Accuracy)
	}
	if ev.Correct {
		t.Fatal("accuracy of exactly 60 must be incorrect")
	}
}

func TestEvaluateText_UnknownKindNeverCorrect(t *testing.T) {
	q := &question.Question{ID: "q4", Kind: question.KindUnknown, Body: "سؤال بلا إجابة"}
	ev := engine.EvaluateText(q, "أي شيء")
	if ev.Correct || ev.Accuracy != 0 {
		t.Fatalf("correct=%v accuracy=%v, want false/0", ev.Correct, ev.Accuracy)
	}
	if ev.Explanation == "" {
		t.Fatal("missing placeholder explanation")
	}
}

func TestExplain_FallbackChain(t *testing.T) {
	q := freeTextQuestion("جواب")
	q.Explanation = ""
	q.AnswerExample = ""
	if got := engine.Explain(q); !strings.Contains(got, "لا يوجد شرح متوفر حالياً") {
		t.Fatalf("missing placeholder: %q", got)
	}

	q.AnswerExample = "مثال الإجابة"
	if got := engine.Explain(q); !strings.Contains(got, "مثال الإجابة") {
		t.Fatalf("answer example not used: %q", got)
	}

	q.Explanation = "الشرح الكامل"
	got := engine.Explain(q)
	if !strings.Contains(got, "الشرح الكامل") || strings.Contains(got, "مثال الإجابة") {
		t.Fatalf("explanation should win over example: %q", got)
	}
}

func TestExplain_IncludesKeywordsAndReference(t *testing.T) {
	q := keywordQuestion([]string{"نظام", "طاقة"})
	q.Reference = "صفحة 12"
	got := engine.Explain(q)
	for _, want := range []string{"نظام", "طاقة", "صفحة 12"} {
		if !strings.Contains(got, want) {
			t.Fatalf("explanation %q missing %q", got, want)
		}
	}
}

func TestHint_FallbackChain(t *testing.T) {
	q := keywordQuestion([]string{"أ", "ب", "ج", "د"})
	q.Hint = "تلميح مباشر"
	if got := engine.Hint(q); got != "تلميح مباشر" {
		t.Fatalf("hint = %q", got)
	}

	q.Hint = ""
	got := engine.Hint(q)
	if !strings.Contains(got, "أ") || strings.Contains(got, "د") {
		t.Fatalf("keyword hint should carry only the first three: %q", got)
	}

	q.Keywords = nil
	if got := engine.Hint(q); got == "" {
		t.Fatal("generic hint missing")
	}
}

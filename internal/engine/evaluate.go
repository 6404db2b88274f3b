package engine

import (
	"fmt"
	"strings"

	"github.com/yazbekw/quizbot/internal/arabic"
	"github.com/yazbekw/quizbot/internal/domain/question"
	"github.com/yazbekw/quizbot/internal/textmatch"
)

const (
	// keywordThreshold: keyword answers need at least this accuracy.
	keywordThreshold = 70
	// freeTextThreshold: free-text answers must exceed this accuracy.
	freeTextThreshold = 60
)

// Evaluation is the outcome of scoring one submitted answer. Evaluation
// never touches storage; recording is the engine's responsibility.
type Evaluation struct {
	Correct     bool
	Accuracy    float64 // always within [0,100]
	Explanation string
}

// EvaluateChoice scores a discrete choice selection. Accuracy is binary.
func EvaluateChoice(q *question.Question, index int) Evaluation {
	if q.Kind != question.KindMultipleChoice {
		return evaluateUnknown()
	}

	ev := Evaluation{Explanation: Explain(q)}
	if q.IsCorrectChoice(index) {
		ev.Correct = true
		ev.Accuracy = 100
	}
	return ev
}

// EvaluateText scores a free-form answer against the question's answer
// model. The raw text is normalized internally.
func EvaluateText(q *question.Question, text string) Evaluation {
	normalized := arabic.Normalize(text)

	switch q.Kind {
	case question.KindMultipleChoice:
		return evaluateChoiceText(q, normalized)
	case question.KindKeywords:
		return evaluateKeywords(q, normalized)
	case question.KindFreeText:
		return evaluateFreeText(q, normalized)
	default:
		return evaluateUnknown()
	}
}

// evaluateChoiceText handles a choice question answered by typing the
// choice out instead of tapping a button. Exact normalized match only.
func evaluateChoiceText(q *question.Question, normalized string) Evaluation {
	ev := Evaluation{Explanation: Explain(q)}
	for _, choice := range q.CorrectChoices() {
		if normalized == arabic.Normalize(choice) {
			ev.Correct = true
			ev.Accuracy = 100
			break
		}
	}
	return ev
}

// evaluateKeywords matches each required keyword as a contiguous
// substring of the normalized answer.
func evaluateKeywords(q *question.Question, normalized string) Evaluation {
	if len(q.Keywords) == 0 {
		return evaluateUnknown()
	}

	matched := 0
	for _, kw := range q.Keywords {
		if strings.Contains(normalized, arabic.Normalize(kw)) {
			matched++
		}
	}

	accuracy := float64(matched) / float64(len(q.Keywords)) * 100
	return Evaluation{
		Correct:  accuracy >= keywordThreshold,
		Accuracy: accuracy,
		Explanation: fmt.Sprintf("🔑 الكلمات المطلوبة: %s\n\n📊 نسبة الدقة: %.1f%%",
			strings.Join(q.Keywords, "، "), accuracy),
	}
}

// evaluateFreeText compares against the canonical reference answer by
// longest-matching-block similarity. Exactly 60 is still incorrect.
func evaluateFreeText(q *question.Question, normalized string) Evaluation {
	accuracy := textmatch.Percent(normalized, arabic.Normalize(q.Answer))
	return Evaluation{
		Correct:     accuracy > freeTextThreshold,
		Accuracy:    accuracy,
		Explanation: fmt.Sprintf("%s\n\n📊 نسبة التطابق: %.1f%%", Explain(q), accuracy),
	}
}

func evaluateUnknown() Evaluation {
	return Evaluation{Explanation: "⚠️ لا توجد إجابة مرجعية لهذا السؤال."}
}

// Explain renders the explanation text for a question from its
// explanation, reference-answer, keyword and citation fields.
func Explain(q *question.Question) string {
	var b strings.Builder
	b.WriteString("📚 الشرح:\n")

	switch {
	case q.Explanation != "":
		b.WriteString(q.Explanation)
	case q.AnswerExample != "":
		b.WriteString(q.AnswerExample)
	default:
		b.WriteString("لا يوجد شرح متوفر حالياً")
	}

	if len(q.Keywords) > 0 {
		b.WriteString("\n\n🔑 الكلمات المفتاحية المطلوبة:\n- ")
		b.WriteString(strings.Join(q.Keywords, "\n- "))
	}

	if q.Reference != "" {
		b.WriteString("\n\n📖 المرجع: ")
		b.WriteString(q.Reference)
	}

	return b.String()
}

// Hint renders hint text: the question's own hint, else its leading
// keywords, else a generic nudge.
func Hint(q *question.Question) string {
	if q.Hint != "" {
		return q.Hint
	}
	if len(q.Keywords) > 0 {
		head := q.Keywords
		if len(head) > 3 {
			head = head[:3]
		}
		return fmt.Sprintf("💡 ركز على هذه المفاهيم: %s...", strings.Join(head, "، "))
	}
	return "💡 حاول التفكير في المفاهيم الأساسية المتعلقة بالسؤال"
}

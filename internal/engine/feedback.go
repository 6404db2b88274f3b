package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yazbekw/quizbot/internal/domain/question"
	"github.com/yazbekw/quizbot/internal/store"
)

// remediationThreshold: topic accuracy below this adds a review nudge.
const remediationThreshold = 50

// feedback builds the coaching text shown after an incorrect answer:
// the most common wrong answers to this question across all users, the
// user's own most repeated mistake on it, and the user's accuracy in
// the question's topic.
func (e *Engine) feedback(ctx context.Context, chatID int64, q *question.Question) (string, error) {
	var parts []string

	aggs, err := e.store.TopQuestionErrors(ctx, q.ID, 3)
	if err != nil {
		return "", err
	}
	if len(aggs) > 0 {
		var b strings.Builder
		b.WriteString("⚠️ الأخطاء الشائعة في هذا السؤال:")
		for _, a := range aggs {
			fmt.Fprintf(&b, "\n- \"%s\" (تكررت %d مرة)", truncate(a.WrongAnswer, 30), a.Count)
		}
		parts = append(parts, b.String())
	}

	mistake, err := e.store.TopUserMistake(ctx, chatID, q.ID)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return "", err
	default:
		parts = append(parts, fmt.Sprintf("🔁 لقد أخطأت في هذا السؤال %d مرة بإجابة: \"%s\"",
			mistake.Count, truncate(mistake.WrongAnswer, 30)))
	}

	stat, err := e.store.TopicStat(ctx, chatID, q.Topic)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return "", err
	case stat.Attempts > 0:
		parts = append(parts, fmt.Sprintf("📊 دقتك في موضوع %s: %.1f%%", q.Topic, stat.Accuracy()))
		if stat.Accuracy() < remediationThreshold {
			parts = append(parts, "💡 ننصحك بمراجعة هذا الموضوع جيداً")
		}
	}

	if len(parts) == 0 {
		return "حاول مراجعة الإجابة النموذجية للتعلم من أخطائك.", nil
	}
	return strings.Join(parts, "\n\n"), nil
}

// truncate shortens s to at most n runes, marking the cut.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/yazbekw/quizbot/internal/domain/question"
	"github.com/yazbekw/quizbot/internal/engine"
)

const errText = "⚠️ حدث خطأ. حاول مرة أخرى لاحقاً."

func mainMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎯 سؤال جديد", "next"),
			tgbotapi.NewInlineKeyboardButtonData("📚 المواضيع", "topics"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏆 نقاطي", "score"),
			tgbotapi.NewInlineKeyboardButtonData("🚪 إنهاء الجلسة", "end"),
		),
	)
}

// sendQuestion renders a question with its action buttons. Choice
// questions get one button per choice.
func (b *Bot) sendQuestion(chatID int64, q *question.Question) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📝 [%s] %s", q.Topic, q.Body)
	if q.Page != "" {
		fmt.Fprintf(&sb, "\n\n📄 الصفحة: %s", q.Page)
	}
	if q.Kind == question.KindKeywords || q.Kind == question.KindFreeText {
		sb.WriteString("\n\n✍️ اكتب إجابتك في رسالة")
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	if q.Kind == question.KindMultipleChoice {
		for i, choice := range q.Choices {
			data := fmt.Sprintf("answer:%s:%d", q.ID, i)
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(choice, data)))
		}
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("💡 تلميح", "hint:"+q.ID),
		tgbotapi.NewInlineKeyboardButtonData("📚 شرح", "explain:"+q.ID),
	))

	b.sendWithMarkup(chatID, sb.String(), tgbotapi.NewInlineKeyboardMarkup(rows...))
}

// sendVerdict renders the evaluation outcome plus rating and next
// buttons.
func (b *Bot) sendVerdict(chatID int64, v *engine.Verdict) {
	var sb strings.Builder
	if v.Correct {
		fmt.Fprintf(&sb, "✅ إجابة صحيحة! (%.1f%%) أحسنت 🎉", v.Accuracy)
	} else {
		sb.WriteString("❌ إجابة غير صحيحة")
		if v.ModelAnswer != "" {
			fmt.Fprintf(&sb, "\n\n✔️ الإجابة النموذجية:\n%s", v.ModelAnswer)
		}
	}
	if v.Explanation != "" {
		sb.WriteString("\n\n")
		sb.WriteString(v.Explanation)
	}
	if v.Feedback != "" {
		sb.WriteString("\n\n")
		sb.WriteString(v.Feedback)
	}

	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("😌 سهل", "rate:easy:"+v.Question.ID),
			tgbotapi.NewInlineKeyboardButtonData("😅 صعب", "rate:hard:"+v.Question.ID),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➡️ السؤال التالي", "next"),
		),
	)
	b.sendWithMarkup(chatID, sb.String(), markup)
}

func (b *Bot) sendTopicKeyboard(chatID int64) {
	topics := b.engine.Topics()
	if len(topics) == 0 {
		b.send(chatID, "⚠️ لا توجد مواضيع متاحة.")
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, topic := range topics {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(topic, "select:"+topic)))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🔀 كل المواضيع", "select:*")))

	b.sendWithMarkup(chatID, "📚 اختر موضوعاً:", tgbotapi.NewInlineKeyboardMarkup(rows...))
}

package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/yazbekw/quizbot/internal/engine"
	"github.com/yazbekw/quizbot/internal/store"
)

const helpText = `📖 الأوامر المتاحة:

/question - سؤال جديد
/hint - تلميح للسؤال الحالي
/explain - شرح السؤال الحالي
/topics - اختيار موضوع
/score - نقاطك وإحصائياتك
/invite - دعوة صديق
/feedback - إرسال ملاحظات

أجب على الأسئلة بكتابة إجابتك أو بالضغط على الخيارات.`

const feedbackPrompt = "📝 اكتب ملاحظاتك في رد على هذه الرسالة:"

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	if code := strings.TrimSpace(msg.CommandArguments()); code != "" {
		switch err := b.store.RedeemInvite(ctx, code); {
		case errors.Is(err, store.ErrNotFound):
			b.send(chatID, "⚠️ رمز الدعوة غير صالح أو مستخدم بالفعل.")
		case err != nil:
			b.logger.Error("redeem invite", "chat_id", chatID, "error", err)
		default:
			b.send(chatID, "🎉 تم قبول الدعوة!")
		}
	}

	sid, err := b.engine.StartSession(ctx, chatID)
	if err != nil {
		b.logger.Error("start session", "chat_id", chatID, "error", err)
		b.send(chatID, errText)
		return
	}
	b.rememberSession(chatID, sid)

	welcome := "👋 أهلاً بك في بوت المذاكرة!\n\n" +
		"سأطرح عليك أسئلة وأصحح إجاباتك وأتابع تقدمك.\n\n" + helpText
	b.sendWithMarkup(chatID, welcome, mainMenu())
}

func (b *Bot) sendNextQuestion(ctx context.Context, chatID int64) {
	q, err := b.engine.NextQuestion(ctx, chatID)
	if err != nil {
		if errors.Is(err, engine.ErrNoQuestions) {
			b.send(chatID, "⚠️ لا توجد أسئلة متاحة حالياً.")
			return
		}
		b.logger.Error("next question", "chat_id", chatID, "error", err)
		b.send(chatID, errText)
		return
	}
	b.sendQuestion(chatID, q)
}

func (b *Bot) handleHint(ctx context.Context, chatID int64) {
	q, err := b.engine.CurrentQuestion(ctx, chatID)
	if err != nil {
		b.send(chatID, noCurrentText(err))
		return
	}
	b.send(chatID, engine.Hint(q))
}

func (b *Bot) handleExplain(ctx context.Context, chatID int64) {
	q, err := b.engine.CurrentQuestion(ctx, chatID)
	if err != nil {
		b.send(chatID, noCurrentText(err))
		return
	}
	b.send(chatID, engine.Explain(q))
}

func noCurrentText(err error) string {
	if errors.Is(err, engine.ErrNoCurrentQuestion) || errors.Is(err, store.ErrNotFound) {
		return "لا يوجد سؤال حالي. اطلب سؤالاً بالأمر /question"
	}
	return errText
}

func (b *Bot) handleScore(ctx context.Context, chatID int64) {
	user, stats, err := b.engine.Score(ctx, chatID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			b.send(chatID, "ابدأ أولاً بالأمر /start")
			return
		}
		b.logger.Error("score", "chat_id", chatID, "error", err)
		b.send(chatID, errText)
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🏆 نقاطك: %d\n📝 المحاولات: %d\n📊 الدقة: %.1f%%", user.Score, user.Attempts, user.Accuracy())
	if user.SelectedTopic != "" {
		fmt.Fprintf(&sb, "\n📚 الموضوع المختار: %s", user.SelectedTopic)
	}
	if len(stats) > 0 {
		sb.WriteString("\n\n📈 حسب الموضوع:")
		for _, st := range stats {
			fmt.Fprintf(&sb, "\n- %s: %.1f%% (%d محاولة)", st.Topic, st.Accuracy(), st.Attempts)
		}
	}
	b.send(chatID, sb.String())
}

func (b *Bot) handleSelectTopic(ctx context.Context, chatID int64, arg string) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		b.sendTopicKeyboard(chatID)
		return
	}
	b.selectTopic(ctx, chatID, arg)
}

func (b *Bot) selectTopic(ctx context.Context, chatID int64, topic string) {
	resolved, err := b.engine.SelectTopic(ctx, chatID, topic)
	if err != nil {
		if errors.Is(err, engine.ErrUnknownTopic) {
			b.send(chatID, fmt.Sprintf("⚠️ لا يوجد موضوع باسم \"%s\". استخدم /topics لعرض المواضيع.", topic))
			return
		}
		b.logger.Error("select topic", "chat_id", chatID, "error", err)
		b.send(chatID, errText)
		return
	}
	b.send(chatID, fmt.Sprintf("✅ تم اختيار موضوع: %s\n\nاطلب سؤالاً بالأمر /question", resolved))
}

func (b *Bot) handleInvite(ctx context.Context, chatID int64) {
	if err := b.store.EnsureUser(ctx, chatID); err != nil {
		b.logger.Error("ensure user", "chat_id", chatID, "error", err)
		b.send(chatID, errText)
		return
	}
	code, err := b.store.CreateInvite(ctx, chatID)
	if err != nil {
		b.logger.Error("create invite", "chat_id", chatID, "error", err)
		b.send(chatID, errText)
		return
	}
	b.send(chatID, fmt.Sprintf("🎁 شارك هذا الرابط مع أصدقائك واحصل على نقاط إضافية:\n%s", b.inviteLink(code)))
}

func (b *Bot) handleFeedbackPrompt(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, feedbackPrompt)
	msg.ReplyMarkup = tgbotapi.ForceReply{ForceReply: true}
	if _, err := b.tg.Send(msg); err != nil {
		b.logger.Error("send failed", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) handleFeedbackReply(ctx context.Context, msg *tgbotapi.Message) {
	if err := b.store.SaveFeedback(ctx, msg.Chat.ID, msg.Text); err != nil {
		b.logger.Error("save feedback", "chat_id", msg.Chat.ID, "error", err)
		b.send(msg.Chat.ID, errText)
		return
	}
	b.send(msg.Chat.ID, "🙏 شكراً لملاحظاتك!")

	if b.adminChatID != 0 {
		b.send(b.adminChatID, fmt.Sprintf("💬 ملاحظة جديدة من %d:\n\n%s", msg.Chat.ID, msg.Text))
	}
}

// handleStats renders the admin report. Hidden from everyone else.
func (b *Bot) handleStats(ctx context.Context, chatID int64) {
	if chatID != b.adminChatID {
		b.send(chatID, "أمر غير معروف. استخدم /help لعرض الأوامر المتاحة.")
		return
	}

	users, err := b.store.CountUsers(ctx)
	if err != nil {
		b.logger.Error("stats: count users", "error", err)
		b.send(chatID, errText)
		return
	}
	active, err := b.store.CountActiveUsers(ctx, 7*24*time.Hour)
	if err != nil {
		b.logger.Error("stats: active users", "error", err)
		b.send(chatID, errText)
		return
	}
	answered, err := b.store.TotalQuestionsAnswered(ctx)
	if err != nil {
		b.logger.Error("stats: total answered", "error", err)
		b.send(chatID, errText)
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 إحصائيات البوت\n\n👥 المستخدمون: %d\n🟢 النشطون خلال أسبوع: %d\n📝 الأسئلة المجابة: %d", users, active, answered)

	if hours, err := b.store.PeakHours(ctx, 3); err == nil && len(hours) > 0 {
		sb.WriteString("\n\n⏰ ساعات الذروة:")
		for _, h := range hours {
			fmt.Fprintf(&sb, "\n- الساعة %s: %d رسالة", h.Hour, h.Count)
		}
	}
	if topics, err := b.store.TopicDistribution(ctx); err == nil && len(topics) > 0 {
		sb.WriteString("\n\n📚 توزيع المواضيع:")
		for _, tc := range topics {
			fmt.Fprintf(&sb, "\n- %s: %d محاولة", tc.Topic, tc.Attempts)
		}
	}
	if errs, err := b.store.TopErrors(ctx, 5); err == nil && len(errs) > 0 {
		sb.WriteString("\n\n⚠️ الأخطاء الأكثر شيوعاً:")
		for _, e := range errs {
			label := e.QuestionID
			if q, ok := b.engine.Question(e.QuestionID); ok {
				label = truncateRunes(q.Body, 40)
			}
			fmt.Fprintf(&sb, "\n- %s: \"%s\" (%d مرة)", label, e.WrongAnswer, e.Count)
		}
	}
	b.send(chatID, sb.String())
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

// handleAnswerText treats free text as an answer to the question in
// flight.
func (b *Bot) handleAnswerText(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	q, err := b.engine.CurrentQuestion(ctx, chatID)
	if err != nil {
		b.send(chatID, noCurrentText(err))
		return
	}

	v, err := b.engine.SubmitText(ctx, chatID, q.ID, msg.Text)
	if err != nil {
		b.logger.Error("submit text", "chat_id", chatID, "error", err)
		b.send(chatID, errText)
		return
	}
	b.sendVerdict(chatID, v)
}

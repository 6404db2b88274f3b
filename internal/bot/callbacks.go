package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/yazbekw/quizbot/internal/domain/learner"
	"github.com/yazbekw/quizbot/internal/engine"
)

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	b.logger.Debug("callback received", "chat_id", chatID, "data", cb.Data)

	action, rest, _ := strings.Cut(cb.Data, ":")
	switch action {
	case "answer":
		b.ack(cb.ID, "جارٍ التصحيح...")
		b.handleAnswerCallback(ctx, chatID, rest)
	case "hint":
		b.ack(cb.ID, "")
		b.handleHint(ctx, chatID)
	case "explain":
		b.ack(cb.ID, "")
		b.handleExplain(ctx, chatID)
	case "rate":
		b.handleRateCallback(ctx, cb, rest)
	case "next":
		b.ack(cb.ID, "")
		b.sendNextQuestion(ctx, chatID)
	case "topics":
		b.ack(cb.ID, "")
		b.sendTopicKeyboard(chatID)
	case "select":
		b.ack(cb.ID, "")
		if rest == "*" {
			b.handleClearTopic(ctx, chatID)
			return
		}
		b.selectTopic(ctx, chatID, rest)
	case "score":
		b.ack(cb.ID, "")
		b.handleScore(ctx, chatID)
	case "end":
		b.handleEndSession(ctx, cb)
	default:
		b.ack(cb.ID, "")
	}
}

// handleAnswerCallback grades a tapped choice. Data is "qid:index".
func (b *Bot) handleAnswerCallback(ctx context.Context, chatID int64, data string) {
	qid, idxStr, ok := strings.Cut(data, ":")
	if !ok {
		return
	}
	idx, err := strconv.Atoi(idxStr)
	if err != nil {
		return
	}

	v, err := b.engine.SubmitChoice(ctx, chatID, qid, idx)
	if err != nil {
		if errors.Is(err, engine.ErrQuestionGone) {
			b.send(chatID, "⚠️ هذا السؤال لم يعد متاحاً. اطلب سؤالاً جديداً بالأمر /question")
			return
		}
		b.logger.Error("submit choice", "chat_id", chatID, "error", err)
		b.send(chatID, errText)
		return
	}
	b.sendVerdict(chatID, v)
}

// handleRateCallback stores a difficulty rating. Data is "easy:qid" or
// "hard:qid".
func (b *Bot) handleRateCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, data string) {
	ratingStr, qid, ok := strings.Cut(data, ":")
	if !ok {
		b.ack(cb.ID, "")
		return
	}

	rating := learner.RatingEasy
	if ratingStr == "hard" {
		rating = learner.RatingHard
	}

	if err := b.engine.RateQuestion(ctx, cb.Message.Chat.ID, qid, rating); err != nil {
		if !errors.Is(err, engine.ErrQuestionGone) {
			b.logger.Error("rate question", "chat_id", cb.Message.Chat.ID, "error", err)
		}
		b.ack(cb.ID, "")
		return
	}

	if rating == learner.RatingHard {
		b.ack(cb.ID, "سيظهر هذا السؤال مرة أخرى للمراجعة 🔄")
	} else {
		b.ack(cb.ID, "تم التقييم 👍")
	}
}

func (b *Bot) handleClearTopic(ctx context.Context, chatID int64) {
	if err := b.engine.ClearTopic(ctx, chatID); err != nil {
		b.logger.Error("clear topic", "chat_id", chatID, "error", err)
		b.send(chatID, errText)
		return
	}
	b.send(chatID, "✅ سيتم اختيار الأسئلة من جميع المواضيع.")
}

func (b *Bot) handleEndSession(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID
	sid, ok := b.takeSession(chatID)
	if !ok {
		b.ack(cb.ID, "لا توجد جلسة مفتوحة")
		return
	}
	if err := b.engine.EndSession(ctx, sid); err != nil {
		b.logger.Error("end session", "chat_id", chatID, "error", err)
		b.ack(cb.ID, "")
		return
	}
	b.ack(cb.ID, "")
	b.send(chatID, "👋 انتهت الجلسة. عد متى شئت بالأمر /start")
}

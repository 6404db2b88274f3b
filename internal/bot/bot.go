// Package bot is the Telegram transport: it turns updates into engine
// calls and renders verdicts, hints and reports back as messages.
package bot

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/yazbekw/quizbot/internal/engine"
	"github.com/yazbekw/quizbot/internal/store"
)

const (
	cmdStart       = "start"
	cmdHelp        = "help"
	cmdQuestion    = "question"
	cmdHint        = "hint"
	cmdExplain     = "explain"
	cmdScore       = "score"
	cmdTopics      = "topics"
	cmdSelectTopic = "select_topic"
	cmdInvite      = "invite"
	cmdFeedback    = "feedback"
	cmdStats       = "stats"
)

// client is the slice of the Telegram API used for message delivery.
type client interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot dispatches Telegram updates to the quiz engine.
type Bot struct {
	api         *tgbotapi.BotAPI // polling and bot identity
	tg          client           // outgoing messages
	engine      *engine.Engine
	store       store.Store
	logger      *slog.Logger
	adminChatID int64

	mu       sync.Mutex
	sessions map[int64]string // chat id -> open session id
}

func New(api *tgbotapi.BotAPI, eng *engine.Engine, st store.Store, logger *slog.Logger, adminChatID int64) *Bot {
	return &Bot{
		api:         api,
		tg:          api,
		engine:      eng,
		store:       st,
		logger:      logger,
		adminChatID: adminChatID,
		sessions:    make(map[int64]string),
	}
}

// RunPolling consumes updates over long polling until ctx is done.
func (b *Bot) RunPolling(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.logger.Info("bot polling started", "username", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate processes one update. Also the entry point for webhook
// delivery.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	b.logger.Debug("message received", "chat_id", chatID, "text", msg.Text)

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	if msg.ReplyToMessage != nil && msg.ReplyToMessage.Text == feedbackPrompt {
		b.handleFeedbackReply(ctx, msg)
		return
	}

	b.handleAnswerText(ctx, msg)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case cmdStart:
		b.handleStart(ctx, msg)
	case cmdHelp:
		b.send(msg.Chat.ID, helpText)
	case cmdQuestion:
		b.sendNextQuestion(ctx, msg.Chat.ID)
	case cmdHint:
		b.handleHint(ctx, msg.Chat.ID)
	case cmdExplain:
		b.handleExplain(ctx, msg.Chat.ID)
	case cmdScore:
		b.handleScore(ctx, msg.Chat.ID)
	case cmdTopics:
		b.sendTopicKeyboard(msg.Chat.ID)
	case cmdSelectTopic:
		b.handleSelectTopic(ctx, msg.Chat.ID, msg.CommandArguments())
	case cmdInvite:
		b.handleInvite(ctx, msg.Chat.ID)
	case cmdFeedback:
		b.handleFeedbackPrompt(msg.Chat.ID)
	case cmdStats:
		b.handleStats(ctx, msg.Chat.ID)
	default:
		b.send(msg.Chat.ID, "أمر غير معروف. استخدم /help لعرض الأوامر المتاحة.")
	}
}

// rememberSession records the open session for a chat so the end
// button can close it later.
func (b *Bot) rememberSession(chatID int64, sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessions[chatID] = sessionID
}

func (b *Bot) takeSession(chatID int64) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sid, ok := b.sessions[chatID]
	delete(b.sessions, chatID)
	return sid, ok
}

// send delivers a plain text message, logging failures.
func (b *Bot) send(chatID int64, text string) {
	if _, err := b.tg.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.logger.Error("send failed", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) sendWithMarkup(chatID int64, text string, markup tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = markup
	if _, err := b.tg.Send(msg); err != nil {
		b.logger.Error("send failed", "chat_id", chatID, "error", err)
	}
}

// ack answers a callback query so the client stops its spinner.
func (b *Bot) ack(callbackID, text string) {
	if _, err := b.tg.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		b.logger.Error("callback ack failed", "error", err)
	}
}

// inviteLink builds the deep link that redeems an invite code.
func (b *Bot) inviteLink(code string) string {
	return "https://t.me/" + b.api.Self.UserName + "?start=" + strings.TrimSpace(code)
}

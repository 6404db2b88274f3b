// Package reminder sends the daily study nudge to every known user.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/yazbekw/quizbot/internal/store"
	"github.com/yazbekw/quizbot/internal/worker"
)

const message = "⏰ حان وقت المذاكرة!\n\nخصص 15 دقيقة الآن لحل بعض الأسئلة 📚\n\nاضغط /question للبدء"

const broadcastWorkers = 3

// Sender is the slice of the Telegram client the reminder needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Reminder fires once a day at a fixed local hour.
type Reminder struct {
	store  store.Store
	sender Sender
	logger *slog.Logger
	hour   int
}

func New(st store.Store, sender Sender, logger *slog.Logger, hour int) *Reminder {
	return &Reminder{store: st, sender: sender, logger: logger, hour: hour}
}

// Run blocks until ctx is done, broadcasting at each day's scheduled
// hour. Delivery failures are logged and never retried.
func (r *Reminder) Run(ctx context.Context) {
	for {
		wait := time.Until(r.nextAt(time.Now()))
		r.logger.Info("reminder scheduled", "in", wait.Round(time.Second))

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
			r.broadcast(ctx)
		}
	}
}

// nextAt returns the next occurrence of the reminder hour after now.
func (r *Reminder) nextAt(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), r.hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func (r *Reminder) broadcast(ctx context.Context) {
	ids, err := r.store.ListUserIDs(ctx)
	if err != nil {
		r.logger.Error("reminder: list users", "error", err)
		return
	}
	if len(ids) == 0 {
		return
	}

	pool := worker.NewPool[error](broadcastWorkers, len(ids))
	for _, chatID := range ids {
		id := chatID
		pool.Submit(fmt.Sprintf("%d", id), func() error {
			_, err := r.sender.Send(tgbotapi.NewMessage(id, message))
			return err
		})
	}
	pool.Close()

	sent := 0
	for res := range pool.Results() {
		if res.Output != nil {
			r.logger.Warn("reminder: send failed", "chat_id", res.JobID, "error", res.Output)
			continue
		}
		sent++
	}
	r.logger.Info("reminder broadcast done", "sent", sent, "total", len(ids))
}

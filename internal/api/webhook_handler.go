package api

import (
	"encoding/json"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// postWebhook receives Telegram updates when running in webhook mode.
// The bot token in the path keeps strangers from injecting updates.
func (h *Handler) postWebhook(w http.ResponseWriter, r *http.Request) {
	if r.PathValue("token") != h.botToken {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.logger.Warn("webhook: bad update payload", "error", err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	h.bot.HandleUpdate(r.Context(), update)
	w.WriteHeader(http.StatusOK)
}

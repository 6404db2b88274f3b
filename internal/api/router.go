// internal/api/router.go
package api

import "net/http"

// RegisterRoutes attaches all API routes to the mux.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	// Telegram update delivery (webhook mode)
	mux.HandleFunc("POST /webhook/{token}", h.postWebhook)

	// Admin reporting
	mux.HandleFunc("GET /admin/stats", h.getStats)
	mux.HandleFunc("GET /admin/feedback", h.listFeedback)
	mux.HandleFunc("GET /admin/dashboard", h.getDashboard)
}

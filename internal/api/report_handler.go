package api

import (
	"html/template"
	"net/http"
	"time"

	"github.com/yazbekw/quizbot/internal/store"
)

const activeWindow = 7 * 24 * time.Hour

type statsResponse struct {
	Users          int                `json:"users"`
	ActiveUsers    int                `json:"active_users"`
	TotalAnswered  int                `json:"total_answered"`
	PeakHours      []store.HourCount  `json:"peak_hours"`
	TopicBreakdown []store.TopicCount `json:"topic_breakdown"`
}

type dashboardData struct {
	*statsResponse
	Feedback []store.Feedback
}

func (h *Handler) collectStats(r *http.Request) (*statsResponse, error) {
	ctx := r.Context()

	users, err := h.store.CountUsers(ctx)
	if err != nil {
		return nil, err
	}
	active, err := h.store.CountActiveUsers(ctx, activeWindow)
	if err != nil {
		return nil, err
	}
	answered, err := h.store.TotalQuestionsAnswered(ctx)
	if err != nil {
		return nil, err
	}
	hours, err := h.store.PeakHours(ctx, 5)
	if err != nil {
		return nil, err
	}
	topics, err := h.store.TopicDistribution(ctx)
	if err != nil {
		return nil, err
	}

	return &statsResponse{
		Users:          users,
		ActiveUsers:    active,
		TotalAnswered:  answered,
		PeakHours:      hours,
		TopicBreakdown: topics,
	}, nil
}

// getStats returns usage aggregates as JSON.
func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.collectStats(r)
	if h.handleStoreError(w, err, "stats") {
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// listFeedback returns the most recent user feedback entries.
func (h *Handler) listFeedback(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.RecentFeedback(r.Context(), 50)
	if h.handleStoreError(w, err, "feedback") {
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="ar" dir="rtl">
<head>
<meta charset="utf-8">
<title>لوحة التحكم</title>
<style>
body { font-family: sans-serif; margin: 2rem; }
table { border-collapse: collapse; margin-top: 1rem; }
td, th { border: 1px solid #ccc; padding: 0.4rem 0.8rem; }
</style>
</head>
<body>
<h1>📊 لوحة تحكم البوت</h1>
<ul>
<li>المستخدمون: {{.Users}}</li>
<li>النشطون خلال أسبوع: {{.ActiveUsers}}</li>
<li>الأسئلة المجابة: {{.TotalAnswered}}</li>
</ul>
<h2>ساعات الذروة</h2>
<table><tr><th>الساعة</th><th>الرسائل</th></tr>
{{range .PeakHours}}<tr><td>{{.Hour}}</td><td>{{.Count}}</td></tr>{{end}}
</table>
<h2>توزيع المواضيع</h2>
<table><tr><th>الموضوع</th><th>المحاولات</th></tr>
{{range .TopicBreakdown}}<tr><td>{{.Topic}}</td><td>{{.Attempts}}</td></tr>{{end}}
</table>
<h2>آخر الملاحظات</h2>
<table><tr><th>المستخدم</th><th>الملاحظة</th><th>التاريخ</th></tr>
{{range .Feedback}}<tr><td>{{.ChatID}}</td><td>{{.Text}}</td><td>{{.CreatedAt.Format "2006-01-02 15:04"}}</td></tr>{{end}}
</table>
</body>
</html>`))

// getDashboard renders the admin dashboard as HTML.
func (h *Handler) getDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.collectStats(r)
	if h.handleStoreError(w, err, "stats") {
		return
	}
	feedback, err := h.store.RecentFeedback(r.Context(), 10)
	if h.handleStoreError(w, err, "feedback") {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := dashboardTmpl.Execute(w, dashboardData{statsResponse: stats, Feedback: feedback}); err != nil {
		h.logger.Error("dashboard render", "error", err)
	}
}

package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/onnwee/boothpulse/internal/middleware"
	"github.com/onnwee/boothpulse/internal/notify"
)

// Notifier broadcasts refresh notifications to connected dashboards.
type Notifier interface {
	NotifyDataUpdated(now time.Time) int
}

// NotifyResponse is returned by POST /api/notify.
type NotifyResponse struct {
	Type      string `json:"type"`
	Delivered int    `json:"delivered"`
}

// NotifyHandlers lets the ingestion service announce new data.
type NotifyHandlers struct {
	notifier Notifier
	metrics  *ViewMetrics
}

// NewNotifyHandlers creates the notify handlers. metrics may be nil.
func NewNotifyHandlers(notifier Notifier, metrics *ViewMetrics) *NotifyHandlers {
	return &NotifyHandlers{notifier: notifier, metrics: metrics}
}

// Notify handles POST /api/notify. The body is ignored.
func (h *NotifyHandlers) Notify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, "POST")
		return
	}

	delivered := h.notifier.NotifyDataUpdated(time.Now().UTC())
	if h.metrics != nil {
		h.metrics.AddNotifications(delivered)
	}
	middleware.Annotate(r.Context(), slog.Int("delivered", delivered))

	WriteJSON(w, r.Context(), http.StatusAccepted, NotifyResponse{
		Type:      notify.TypeDataUpdated,
		Delivered: delivered,
	})
}

package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig collects the handlers mounted by NewRouter. Nil handlers
// leave their routes unregistered.
type RouterConfig struct {
	Health    *HealthHandlers
	Views     *ViewHandlers
	Synthetic *SyntheticHandlers
	Notify    *NotifyHandlers

	// WebSocket serves GET /ws.
	WebSocket http.Handler

	// Gatherer backs GET /metrics.
	Gatherer prometheus.Gatherer

	ServiceName string
}

// NewRouter builds the API mux. Unknown paths get a JSON 404.
func NewRouter(cfg RouterConfig) *http.ServeMux {
	mux := http.NewServeMux()

	if cfg.Health != nil {
		mux.HandleFunc("/health", cfg.Health.Health)
		mux.HandleFunc("/ready", cfg.Health.Ready)
	}
	if cfg.Gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}
	if cfg.Views != nil {
		mux.HandleFunc("/api/views/{view}", cfg.Views.ServeView)
	}
	if cfg.Synthetic != nil {
		mux.HandleFunc("/api/synthetic/trends", cfg.Synthetic.Trends)
	}
	if cfg.Notify != nil {
		mux.HandleFunc("/api/notify", cfg.Notify.Notify)
	}
	if cfg.WebSocket != nil {
		mux.Handle("/ws", cfg.WebSocket)
	}

	name := cfg.ServiceName
	if name == "" {
		name = "boothpulse"
	}
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			WriteError(w, r.Context(), http.StatusNotFound, ErrCodeNotFound, "The requested resource was not found")
			return
		}
		WriteJSON(w, r.Context(), http.StatusOK, map[string]string{
			"service": name,
			"status":  "ok",
		})
	})

	return mux
}

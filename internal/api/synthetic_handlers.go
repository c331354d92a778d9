package api

import (
	"net/http"
	"time"

	"github.com/onnwee/boothpulse/internal/synthetic"
)

// SyntheticHandlers serves placeholder chart data. Every payload is marked
// "synthetic": true and never derives from telemetry.
type SyntheticHandlers struct {
	gen *synthetic.Generator
	now func() time.Time
}

// NewSyntheticHandlers creates the synthetic handlers. now may be nil.
func NewSyntheticHandlers(gen *synthetic.Generator, now func() time.Time) *SyntheticHandlers {
	if now == nil {
		now = time.Now
	}
	return &SyntheticHandlers{gen: gen, now: now}
}

// Trends handles GET /api/synthetic/trends.
func (h *SyntheticHandlers) Trends(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, "GET")
		return
	}
	WriteJSON(w, r.Context(), http.StatusOK, h.gen.Placeholders(h.now()))
}

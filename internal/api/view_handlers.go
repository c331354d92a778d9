package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/onnwee/boothpulse/internal/middleware"
	"github.com/onnwee/boothpulse/internal/proximity"
	"github.com/onnwee/boothpulse/internal/ranking"
	"github.com/onnwee/boothpulse/internal/source"
	"github.com/onnwee/boothpulse/internal/stats"
	"github.com/onnwee/boothpulse/internal/tracing"
	"github.com/onnwee/boothpulse/internal/views"
)

// View names served under /api/views/{view}.
const (
	ViewDashboard        = "dashboard"
	ViewBooths           = "booths"
	ViewVisitors         = "visitors"
	ViewAssistantContext = "assistant-context"
)

// DefaultMaxBodyBytes limits POSTed snapshots.
const DefaultMaxBodyBytes = 8 << 20

// maxLoggedDiagnostics caps per-request WARN lines; the full list is in the response.
const maxLoggedDiagnostics = 10

type viewFunc func(raws []proximity.RawEvent, opts views.Options) (any, views.Meta)

var catalogue = map[string]viewFunc{
	ViewDashboard: func(raws []proximity.RawEvent, opts views.Options) (any, views.Meta) {
		v := views.BuildDashboard(raws, opts)
		return v, v.Meta
	},
	ViewBooths: func(raws []proximity.RawEvent, opts views.Options) (any, views.Meta) {
		v := views.BuildBoothComparison(raws, opts)
		return v, v.Meta
	},
	ViewVisitors: func(raws []proximity.RawEvent, opts views.Options) (any, views.Meta) {
		v := views.BuildVisitorAnalytics(raws, opts)
		return v, v.Meta
	},
	ViewAssistantContext: func(raws []proximity.RawEvent, opts views.Options) (any, views.Meta) {
		v := views.BuildAssistantContext(raws, opts)
		return v, v.Meta
	},
}

// ViewHandlersConfig configures the view handlers.
type ViewHandlersConfig struct {
	// Source supplies snapshots for GET requests. Nil disables GET.
	Source source.Source
	Model  proximity.PathLoss
	TopN   int

	Metrics *ViewMetrics // optional
	Stats   *stats.Set   // optional
	Logger  *slog.Logger // defaults to slog.Default()

	// Now is passed to every pass; nil means time.Now.
	Now          func() time.Time
	MaxBodyBytes int64
}

// ViewHandlers serves the analytics views. Each request fetches or decodes
// its own snapshot and runs one pass; nothing is cached.
type ViewHandlers struct {
	source       source.Source
	model        proximity.PathLoss
	topN         int
	metrics      *ViewMetrics
	stats        *stats.Set
	logger       *slog.Logger
	now          func() time.Time
	maxBodyBytes int64
}

// NewViewHandlers creates the view handlers.
func NewViewHandlers(cfg ViewHandlersConfig) *ViewHandlers {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	return &ViewHandlers{
		source:       cfg.Source,
		model:        cfg.Model,
		topN:         cfg.TopN,
		metrics:      cfg.Metrics,
		stats:        cfg.Stats,
		logger:       logger,
		now:          cfg.Now,
		maxBodyBytes: maxBody,
	}
}

// ServeView handles GET and POST /api/views/{view}.
//
// GET runs the view over the configured source. POST runs it over the
// request body: a JSON array, {"events":[...]}, or CBOR with
// Content-Type: application/cbor.
func (h *ViewHandlers) ServeView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := r.PathValue("view")

	build, ok := catalogue[name]
	if !ok {
		WriteError(w, ctx, http.StatusNotFound, ErrCodeNotFound, "Unknown view: "+name)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		methodNotAllowed(w, r, "GET, POST")
		return
	}

	opts, err := h.options(r, name)
	if err != nil {
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeValidation, err.Error())
		return
	}

	var (
		raws  []proximity.RawEvent
		input string
	)
	if r.Method == http.MethodPost {
		input = "body"
		raws, ok = h.decodeBody(w, r)
	} else {
		input = "source"
		raws, ok = h.fetch(w, r)
	}
	if !ok {
		return
	}

	start := time.Now()
	passCtx, end := tracing.StartPassSpan(ctx, name, len(raws))
	result, meta := build(raws, opts)
	excluded, warnings := meta.Counts()
	tracing.RecordPass(passCtx, excluded, warnings)
	end(nil)
	elapsed := time.Since(start)

	if h.metrics != nil {
		h.metrics.ObservePass(name, input, elapsed.Seconds(), meta.Events, excluded, warnings)
	}
	if h.stats != nil {
		h.stats.For(name).Record(meta.Events, excluded, warnings)
	}
	h.logDiagnostics(ctx, name, meta)

	middleware.Annotate(ctx,
		slog.String("view", name),
		slog.String("input", input),
		slog.Int("events", meta.Events),
		slog.Int("excluded", excluded),
		slog.Int("warnings", warnings),
	)
	WriteJSON(w, ctx, http.StatusOK, result)
}

// options parses the query parameters that apply to view.
func (h *ViewHandlers) options(r *http.Request, view string) (views.Options, error) {
	q := r.URL.Query()

	rng, err := proximity.ParseTimeRange(q.Get("range"))
	if err != nil {
		return views.Options{}, err
	}

	opts := views.Options{
		Range: rng,
		TopN:  h.topN,
		Model: h.model,
		Now:   h.now,
	}

	switch view {
	case ViewDashboard:
		opts.Booth = q.Get("booth")
	case ViewBooths:
		metric, err := ranking.ParseMetric(q.Get("metric"))
		if err != nil {
			return views.Options{}, err
		}
		opts.Metric = metric
	}
	return opts, nil
}

func (h *ViewHandlers) fetch(w http.ResponseWriter, r *http.Request) ([]proximity.RawEvent, bool) {
	ctx := r.Context()
	if h.source == nil {
		WriteError(w, ctx, http.StatusServiceUnavailable, ErrCodeSourceUnavailable,
			"No telemetry source configured; POST a snapshot instead")
		return nil, false
	}

	raws, err := h.source.Fetch(ctx)
	if err == nil {
		return raws, true
	}

	if h.metrics != nil {
		h.metrics.IncSourceErrors(h.source.Name())
	}
	h.logger.ErrorContext(ctx, "snapshot fetch failed",
		slog.String("source", h.source.Name()),
		slog.String("error", err.Error()),
	)
	switch {
	case errors.Is(err, context.Canceled):
		// Client went away; nothing useful to write.
		middleware.SetErrorCode(ctx, ErrCodeSourceUnavailable)
	case errors.Is(err, source.ErrUnavailable):
		WriteError(w, ctx, http.StatusBadGateway, ErrCodeSourceError, "Telemetry source unavailable")
	default:
		WriteError(w, ctx, http.StatusBadGateway, ErrCodeSourceError, "Telemetry source returned an invalid snapshot")
	}
	return nil, false
}

func (h *ViewHandlers) decodeBody(w http.ResponseWriter, r *http.Request) ([]proximity.RawEvent, bool) {
	ctx := r.Context()
	body := http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	defer body.Close()

	_, endSpan := tracing.StartSpan(ctx, "decode snapshot")
	raws, err := source.Decode(body, r.Header.Get("Content-Type"))
	endSpan(err)
	if err == nil {
		tracing.SetAttributes(ctx, attribute.Int("boothpulse.body.events", len(raws)))
		return raws, true
	}

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		WriteError(w, ctx, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "Snapshot exceeds size limit")
	case errors.Is(err, source.ErrUnsupportedContentType):
		WriteError(w, ctx, http.StatusUnsupportedMediaType, ErrCodeUnsupportedMediaType,
			"Content-Type must be application/json or application/cbor")
	default:
		WriteError(w, ctx, http.StatusBadRequest, ErrCodeBadRequest, "Malformed snapshot: "+err.Error())
	}
	return nil, false
}

func (h *ViewHandlers) logDiagnostics(ctx context.Context, view string, meta views.Meta) {
	for i, d := range meta.Diagnostics {
		if i == maxLoggedDiagnostics {
			h.logger.WarnContext(ctx, "further diagnostics omitted",
				slog.String("view", view),
				slog.Int("omitted", len(meta.Diagnostics)-i),
			)
			return
		}
		h.logger.WarnContext(ctx, "event diagnostic",
			slog.String("view", view),
			slog.Int("event_index", d.Index),
			slog.String("device_id", d.DeviceID),
			slog.String("kind", d.Kind),
			slog.String("severity", string(d.Severity)),
			slog.String("message", d.Message),
		)
	}
}

// Package main is the entry point for the API server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/onnwee/boothpulse/internal/api"
	"github.com/onnwee/boothpulse/internal/config"
	"github.com/onnwee/boothpulse/internal/health"
	"github.com/onnwee/boothpulse/internal/middleware"
	"github.com/onnwee/boothpulse/internal/notify"
	"github.com/onnwee/boothpulse/internal/proximity"
	"github.com/onnwee/boothpulse/internal/source"
	"github.com/onnwee/boothpulse/internal/stats"
	"github.com/onnwee/boothpulse/internal/synthetic"
	"github.com/onnwee/boothpulse/internal/tracing"
)

const serviceName = "boothpulse-api"

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	statsInterval     = 5 * time.Minute
	rateLimitCleanup  = time.Minute
	shutdownTimeout   = 10 * time.Second
	tracingFlushLimit = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (env vars take precedence)")
	help := flag.Bool("help", false, "display help message")
	flag.Parse()

	if *help {
		fmt.Println("BoothPulse API Server")
		fmt.Println()
		fmt.Println("Usage: api [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg, errs := config.Load(*configPath)
	env := config.DefaultEnv
	if cfg != nil {
		env = cfg.Env
	}
	logger := middleware.NewLogger(env)
	slog.SetDefault(logger)

	if len(errs) > 0 {
		for _, err := range errs {
			logger.Error("invalid configuration", "error", err)
		}
		os.Exit(1)
	}

	summary := make([]any, 0, 2*len(cfg.LogSummary()))
	for k, v := range cfg.LogSummary() {
		summary = append(summary, k, v)
	}
	logger.Info("configuration loaded", summary...)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

// run serves until ctx is cancelled, then shuts down gracefully.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", ":"+strconv.Itoa(cfg.Port))
	if err != nil {
		a.close(context.Background())
		return fmt.Errorf("listen: %w", err)
	}
	return serve(ctx, a, ln, logger)
}

// serve runs the HTTP server on ln until ctx is cancelled.
func serve(ctx context.Context, a *app, ln net.Listener, logger *slog.Logger) error {
	server := &http.Server{
		Handler:      a.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", ln.Addr().String())
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		a.close(context.Background())
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Hijacked WebSocket connections are not tracked by Shutdown.
	a.hub.Close()
	err := server.Shutdown(shutdownCtx)
	a.close(shutdownCtx)
	if err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// app holds the wired handler and the resources that need closing.
type app struct {
	handler  http.Handler
	hub      *notify.Hub
	stats    *stats.Set
	registry *prometheus.Registry
	tracer   *tracing.Provider
	redis    *redis.Client
	logger   *slog.Logger
	cancel   context.CancelFunc
}

// newApp wires every component from cfg. Background workers stop when ctx
// is cancelled or close is called.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	ctx, cancel := context.WithCancel(ctx)
	a := &app{logger: logger, cancel: cancel}

	tp, err := tracing.NewProvider(tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: version,
		Enabled:        cfg.TracingEnabled,
		Environment:    cfg.Env,
		Source:         sourceKind(cfg),
		ExporterType:   cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplingRate:   cfg.TracingSampleRate,
		InsecureMode:   cfg.TracingInsecure,
		Logger:         logger,
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("tracing: %w", err)
	}
	a.tracer = tp

	model := pathLoss(cfg, logger)

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a.hub = notify.NewHub(logger, cfg.CORSAllowedOrigins)

	httpMetrics := middleware.NewMetrics()
	viewMetrics := api.NewViewMetrics(a.hub.ClientCount)
	if err := httpMetrics.Register(a.registry); err != nil {
		a.close(context.Background())
		return nil, fmt.Errorf("registering http metrics: %w", err)
	}
	if err := viewMetrics.Register(a.registry); err != nil {
		a.close(context.Background())
		return nil, fmt.Errorf("registering view metrics: %w", err)
	}

	var (
		store        middleware.RateLimitStore
		redisChecker api.HealthChecker
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			a.close(context.Background())
			return nil, fmt.Errorf("parsing REDIS_URL: %w", err)
		}
		a.redis = redis.NewClient(opts)
		store = middleware.NewRedisRateLimitStore(a.redis).WithMetrics(httpMetrics)
		redisChecker = health.NewRedisChecker(a.redis)
		logger.Info("rate limiting backed by redis", "addr", opts.Addr)
	} else {
		mem := middleware.NewInMemoryRateLimitStore()
		mem.StartCleanup(ctx, rateLimitCleanup)
		store = mem
		logger.Info("rate limiting in memory")
	}

	src, sourceChecker := snapshotSource(cfg)
	if src == nil {
		logger.Warn("no telemetry source configured; GET views will return 503")
	}

	a.stats = stats.NewSet()
	go a.stats.Report(ctx, logger, statsInterval)

	router := api.NewRouter(api.RouterConfig{
		Health: api.NewHealthHandlers(api.HealthHandlersConfig{
			RedisChecker:   redisChecker,
			SourceChecker:  sourceChecker,
			MetricsEnabled: true,
		}),
		Views: api.NewViewHandlers(api.ViewHandlersConfig{
			Source:  src,
			Model:   model,
			TopN:    cfg.TopN,
			Metrics: viewMetrics,
			Stats:   a.stats,
			Logger:  logger,
		}),
		Synthetic: api.NewSyntheticHandlers(synthetic.New(uint64(time.Now().UnixNano())), nil),
		Notify:    api.NewNotifyHandlers(a.hub, viewMetrics),
		WebSocket: a.hub,
		Gatherer:  a.registry,
	})

	globalLimit := middleware.DefaultGlobalLimit()
	globalLimit.RequestsPerWindow = cfg.RateLimitRequests
	ipKey := middleware.IPKeyFunc()

	var handler http.Handler = router
	handler = middleware.MethodRateLimiter(
		middleware.RateLimiter(store, middleware.DefaultSubmitLimit(), ipKey, httpMetrics),
		http.MethodPost,
	)(handler)
	handler = middleware.RateLimiter(store, globalLimit, ipKey, httpMetrics)(handler)
	handler = middleware.CORS(middleware.DashboardCORSConfig(cfg.CORSAllowedOrigins))(handler)
	handler = middleware.HTTPMetrics(httpMetrics)(handler)
	handler = middleware.Tracing(serviceName)(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.RequestID(handler)
	a.handler = handler

	return a, nil
}

// close stops background workers and releases clients. It is safe to call
// more than once.
func (a *app) close(ctx context.Context) {
	a.cancel()
	if a.hub != nil {
		a.hub.Close()
	}
	if a.stats != nil {
		a.stats.LogSummary(a.logger)
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && !errors.Is(err, redis.ErrClosed) {
			a.logger.Warn("failed to close redis client", "error", err)
		}
	}
	if a.tracer != nil {
		flushCtx, cancel := context.WithTimeout(ctx, tracingFlushLimit)
		defer cancel()
		if err := a.tracer.Shutdown(flushCtx); err != nil {
			a.logger.Warn("failed to flush traces", "error", err)
		}
	}
}

// pathLoss returns the calibration file's model when one is configured and
// readable, and the configured reference and exponent otherwise.
func pathLoss(cfg *config.Config, logger *slog.Logger) proximity.PathLoss {
	model := proximity.PathLoss{
		ReferenceRSSI: cfg.RSSIReferenceDBm,
		Exponent:      cfg.PathLossExponent,
	}
	if cfg.CalibrationFile == "" {
		return model
	}
	calibrated, err := proximity.LoadCalibration(cfg.CalibrationFile)
	if err != nil {
		logger.Warn("calibration unusable, using configured path loss",
			"path", cfg.CalibrationFile,
			"reference_rssi", model.ReferenceRSSI,
			"exponent", model.Exponent)
		return model
	}
	logger.Info("calibration loaded",
		"path", cfg.CalibrationFile,
		"reference_rssi", calibrated.ReferenceRSSI,
		"exponent", calibrated.Exponent)
	return calibrated
}

// sourceKind names the configured source the way snapshotSource picks it.
func sourceKind(cfg *config.Config) string {
	switch {
	case cfg.SourceURL != "":
		return "http"
	case cfg.SourceFile != "":
		return "file"
	default:
		return "none"
	}
}

// snapshotSource builds the configured source and its readiness checker.
// Both are nil when no source is configured.
func snapshotSource(cfg *config.Config) (source.Source, api.HealthChecker) {
	switch {
	case cfg.SourceURL != "":
		timeout := time.Duration(cfg.SourceTimeoutSeconds) * time.Second
		return source.NewHTTP(cfg.SourceURL, timeout), health.NewSourceChecker(cfg.SourceURL)
	case cfg.SourceFile != "":
		return source.NewFile(cfg.SourceFile), health.NewFileChecker(cfg.SourceFile)
	default:
		return nil, nil
	}
}

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"vahan-dashboard/internal/config"
	"vahan-dashboard/internal/generator"
	"vahan-dashboard/internal/middleware"
	"vahan-dashboard/internal/models"
	"vahan-dashboard/internal/observability"
	"vahan-dashboard/internal/server"
	"vahan-dashboard/internal/services"
	"vahan-dashboard/internal/ui/templates"
)

const (
	renderTimeout      = 10 * time.Second
	datasetLoadTimeout = 30 * time.Second
	cacheMaxAge        = "public, max-age=300"
)

func handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	w.Header().Set("Cache-Control", cacheMaxAge)
	if err := templates.Dashboard().Render(ctx, w); err != nil {
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}

func datasetParams(cfg config.DatasetConfig) generator.Params {
	categories := make([]models.Category, len(cfg.Categories))
	for i, c := range cfg.Categories {
		categories[i] = models.Category(c)
	}
	return generator.Params{
		Start:      cfg.StartDate,
		End:        cfg.EndDate,
		Categories: categories,
		States:     cfg.States,
		Seed:       cfg.Seed,
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", "1.0.0",
		"config", cfg,
	)

	analytics := services.NewAnalytics(logger)

	ctx, cancel := context.WithTimeout(context.Background(), datasetLoadTimeout)
	defer cancel()

	start := time.Now()
	if err := analytics.Load(ctx, datasetParams(cfg.Dataset), cfg.Dataset.RollingWindow); err != nil {
		logger.Error("failed to load dataset", "error", err)
		os.Exit(1)
	}
	logger.Info("dataset ready", "duration", time.Since(start))

	templateHandlers := &server.TemplateHandlers{
		Dashboard: handleDashboard,
	}

	srv := server.NewServer(analytics, logger, templateHandlers)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	handler := middlewareChain(srv)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("shutting down analytics service")
		return nil
	})

	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}

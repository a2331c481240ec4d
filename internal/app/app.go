// Package app assembles the dashboard server: configuration, logging,
// tracing, the dataset pipeline, and the HTTP router.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mlpulse/internal/analytics"
	"mlpulse/internal/config"
	"mlpulse/internal/geocode"
	"mlpulse/internal/infrastructure"
	"mlpulse/internal/middleware"
	"mlpulse/internal/services"
	transporthttp "mlpulse/internal/transport/http"
)

// App holds the assembled application.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	tracing *infrastructure.Tracing
	service *services.DatasetService
	server  *http.Server
}

// New builds the application from configuration.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	tracing, err := infrastructure.InitTracing(ctx, "mlpulse-dashboard")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	resolver := geocode.NewResolver(geocode.Config{
		BaseURL:           cfg.Geocode.BaseURL,
		Timeout:           cfg.Geocode.Timeout,
		RequestsPerSecond: cfg.Geocode.RequestsPerSecond,
		Burst:             cfg.Geocode.Burst,
		MaxRetries:        cfg.Geocode.MaxRetries,
	}, logger)

	engine := analytics.NewEngine(analytics.Config{
		MinGenreRatings: cfg.Analytics.MinGenreRatings,
		MinYearRatings:  cfg.Analytics.MinYearRatings,
		MinMovieRatings: cfg.Analytics.MinMovieRatings,
		TopN:            cfg.Analytics.TopN,
		AgeBandWidth:    cfg.Analytics.AgeBandWidth,
		AgeBandMin:      cfg.Analytics.AgeBandMin,
		AgeBandMax:      cfg.Analytics.AgeBandMax,
	}, logger)

	service := services.NewDatasetService(cfg.Dataset, engine, resolver, logger)
	exportSvc := services.NewExportService(cfg.Dataset.ExportDir, logger)

	registry := prometheus.NewRegistry()
	metrics := middleware.NewMetrics(registry)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.StructuredLogger(logger))
	router.Use(middleware.Recoverer(logger))
	router.Use(middleware.RateLimit(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst))
	router.Use(metrics.Handler)

	router.Mount("/api/health", transporthttp.NewHealthHandler().Routes())
	router.Mount("/api", transporthttp.NewDashboardHandler(service, exportSvc, logger).Routes())
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &App{
		cfg:     cfg,
		logger:  logger,
		tracing: tracing,
		service: service,
		server:  server,
	}, nil
}

// Run loads the dataset, starts the HTTP server, and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	if err := a.service.Load(ctx, a.cfg.Dataset.Path); err != nil {
		return fmt.Errorf("dataset load failed: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("dashboard server listening", slog.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-stop:
		a.logger.Info("shutting down", slog.String("signal", sig.String()))
	case <-ctx.Done():
		a.logger.Info("shutting down", slog.String("reason", "context canceled"))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown failed", slog.String("error", err.Error()))
	}
	if err := a.tracing.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("tracing shutdown failed", slog.String("error", err.Error()))
	}
	return nil
}

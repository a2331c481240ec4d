package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"mlpulse/internal/analytics"
	"mlpulse/internal/config"
	"mlpulse/internal/dataset"
	apperrors "mlpulse/internal/errors"
	"mlpulse/pkg/contracts/domain"
)

// QueryParams carries the caller-tunable knobs of a dashboard evaluation.
type QueryParams struct {
	MinRatings     int      `json:"min_ratings"`
	TopN           int      `json:"top_n"`
	AgeCurveGenres []string `json:"age_curve_genres"`
}

// DatasetService owns the session-scoped dataset cache: the cleaned table
// and the expanded, enriched table are built once per source path and
// treated as immutable until the path changes. Every query runs against
// fresh copies derived from these canonical tables.
type DatasetService struct {
	logger   *slog.Logger
	loader   *dataset.Loader
	resolver dataset.RegionResolver
	engine   *analytics.Engine
	cfg      config.DatasetConfig

	mu       sync.RWMutex
	path     string
	cleaned  *domain.Table
	expanded *domain.Table
	stats    *dataset.LoadStats
	loadedAt time.Time
}

// NewDatasetService creates the service. resolver may be nil when state
// enrichment is disabled in the config.
func NewDatasetService(cfg config.DatasetConfig, engine *analytics.Engine, resolver dataset.RegionResolver, logger *slog.Logger) *DatasetService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DatasetService{
		logger:   logger.With(slog.String("component", "dataset_service")),
		loader:   dataset.NewLoader(logger),
		resolver: resolver,
		engine:   engine,
		cfg:      cfg,
	}
}

// Load builds the canonical tables for the given source path. A repeated
// call with the cached path is a no-op; a different path invalidates the
// cache and rebuilds.
func (s *DatasetService) Load(ctx context.Context, path string) error {
	s.mu.RLock()
	current := s.path
	loaded := s.cleaned != nil
	s.mu.RUnlock()
	if loaded && current == path {
		return nil
	}

	s.logger.InfoContext(ctx, "building dataset cache", slog.String("path", path))
	start := time.Now()

	cleaned, stats, err := s.loader.Load(ctx, path)
	if err != nil {
		return err
	}

	expanded := dataset.Expand(cleaned)
	expanded = dataset.AddAgeGroup(expanded, s.cfg.AgeBinSize)
	if s.cfg.EnrichState && s.resolver != nil {
		expanded = dataset.AddState(ctx, expanded, s.resolver, s.logger)
	}

	s.mu.Lock()
	s.path = path
	s.cleaned = cleaned
	s.expanded = expanded
	s.stats = stats
	s.loadedAt = time.Now()
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "dataset cache ready",
		slog.String("path", path),
		slog.Int("cleaned_rows", cleaned.Len()),
		slog.Int("expanded_rows", expanded.Len()),
		slog.Duration("elapsed", time.Since(start)))
	return nil
}

// Cleaned returns the canonical cleaned table.
func (s *DatasetService) Cleaned() (*domain.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cleaned == nil {
		return nil, apperrors.NewLoadError("dataset not loaded", nil)
	}
	return s.cleaned, nil
}

// Expanded returns the canonical genre-exploded, enriched table.
func (s *DatasetService) Expanded() (*domain.Table, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.expanded == nil {
		return nil, apperrors.NewLoadError("dataset not loaded", nil)
	}
	return s.expanded, nil
}

// Stats returns the load statistics of the cached dataset.
func (s *DatasetService) Stats() *dataset.LoadStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// Dashboard evaluates the filter against the expanded table and runs all
// six aggregate queries. An empty filtered subset yields empty result
// tables, never an error.
func (s *DatasetService) Dashboard(ctx context.Context, f domain.Filter, p QueryParams) (*domain.DashboardResult, error) {
	expanded, err := s.Expanded()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	subset := analytics.Apply(expanded, f)
	result := s.engine.Dashboard(subset, p.MinRatings, p.TopN, p.AgeCurveGenres)

	s.logger.DebugContext(ctx, "dashboard computed",
		slog.Int("filtered_rows", subset.Len()),
		slog.Duration("elapsed", time.Since(start)))
	return result, nil
}

// EDA renders the diagnostics report for the cleaned table.
func (s *DatasetService) EDA(ctx context.Context) (string, error) {
	cleaned, err := s.Cleaned()
	if err != nil {
		return "", err
	}
	return dataset.Report(cleaned, s.Stats()), nil
}

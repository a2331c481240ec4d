package http

import (
	"context"

	"mlpulse/internal/dataset"
	"mlpulse/internal/services"
	"mlpulse/pkg/contracts/domain"
)

// DashboardServiceInterface defines the query surface consumed by the
// HTTP handlers.
type DashboardServiceInterface interface {
	Dashboard(ctx context.Context, f domain.Filter, p services.QueryParams) (*domain.DashboardResult, error)
	EDA(ctx context.Context) (string, error)
	Stats() *dataset.LoadStats
}

// DashboardExporter writes a dashboard result to files and returns the
// written paths.
type DashboardExporter interface {
	Export(format, prefix string, result *domain.DashboardResult) ([]string, error)
}

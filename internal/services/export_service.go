package services

import (
	"fmt"
	"log/slog"
	"time"

	apperrors "mlpulse/internal/errors"
	"mlpulse/internal/exporter"
	"mlpulse/pkg/contracts/domain"
)

// ExportService writes dashboard results to disk in the requested format.
type ExportService struct {
	csv    *exporter.CSVWriter
	excel  *exporter.ExcelWriter
	logger *slog.Logger
}

// NewExportService creates an export service writing under outDir.
func NewExportService(outDir string, logger *slog.Logger) *ExportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportService{
		csv:    exporter.NewCSVWriter(outDir, logger),
		excel:  exporter.NewExcelWriter(outDir, logger),
		logger: logger.With(slog.String("component", "export_service")),
	}
}

// Export writes the result tables in the given format ("csv" or "xlsx")
// and returns the written file paths. Filenames are prefixed and
// timestamped so repeated exports never clobber each other.
func (s *ExportService) Export(format, prefix string, result *domain.DashboardResult) ([]string, error) {
	stamp := time.Now().Format("20060102_150405")
	name := fmt.Sprintf("%s_%s", prefix, stamp)

	switch format {
	case "csv":
		return s.csv.WriteDashboard(name, result)
	case "xlsx":
		path, err := s.excel.WriteDashboard(name+".xlsx", result)
		if err != nil {
			return nil, err
		}
		return []string{path}, nil
	default:
		return nil, apperrors.NewValidationError(fmt.Sprintf("unsupported export format %q", format), nil)
	}
}

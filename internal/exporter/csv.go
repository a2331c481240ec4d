// Package exporter writes result tables to CSV and Excel files for
// download or offline inspection.
package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"mlpulse/pkg/contracts/domain"
)

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	outDir string
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer rooted at outDir.
func NewCSVWriter(outDir string, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{outDir: outDir, logger: logger.With(slog.String("component", "csv_exporter"))}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes data to a CSV file under the export directory and
// returns the full path.
func (w *CSVWriter) WriteCSV(name string, options WriteOptions) (string, error) {
	fullPath := filepath.Join(w.outDir, name)

	w.logger.Info("writing CSV export",
		slog.String("path", fullPath),
		slog.Int("record_count", len(options.Records)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	defer file.Close()

	if options.BOMPrefix {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return "", fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return "", fmt.Errorf("failed to write headers: %w", err)
		}
	}
	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return "", fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return fullPath, writer.Error()
}

// WriteDashboard writes every result table of a dashboard evaluation as a
// separate CSV file and returns the written paths.
func (w *CSVWriter) WriteDashboard(prefix string, result *domain.DashboardResult) ([]string, error) {
	var paths []string
	for _, table := range dashboardTables(result) {
		path, err := w.WriteCSV(fmt.Sprintf("%s_%s.csv", prefix, table.name), WriteOptions{
			Headers:   table.headers,
			Records:   table.rows,
			BOMPrefix: true,
		})
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// resultTable is the flattened form shared by the CSV and Excel writers.
type resultTable struct {
	name    string
	headers []string
	rows    [][]string
}

func dashboardTables(result *domain.DashboardResult) []resultTable {
	popularity := resultTable{
		name:    "genre_popularity",
		headers: []string{"Genre", "Movies"},
	}
	for _, r := range result.GenrePopularity {
		popularity.rows = append(popularity.rows, []string{r.Genre, strconv.Itoa(r.Movies)})
	}

	satisfaction := resultTable{
		name:    "genre_satisfaction",
		headers: []string{"Genre", "MeanRating", "NumRatings"},
	}
	for _, r := range result.GenreSatisfaction {
		satisfaction.rows = append(satisfaction.rows, []string{r.Genre, formatMean(r.MeanRating), strconv.Itoa(r.NumRatings)})
	}

	trend := resultTable{
		name:    "rating_trend",
		headers: []string{"Year", "MeanRating", "NumRatings"},
	}
	for _, r := range result.RatingTrend {
		trend.rows = append(trend.rows, []string{strconv.Itoa(r.Year), formatMean(r.MeanRating), strconv.Itoa(r.NumRatings)})
	}

	movies := resultTable{
		name:    "top_movies",
		headers: []string{"MovieID", "Title", "MeanRating", "NumRatings"},
	}
	for _, r := range result.TopMovies {
		movies.rows = append(movies.rows, []string{strconv.FormatInt(r.MovieID, 10), r.Title, formatMean(r.MeanRating), strconv.Itoa(r.NumRatings)})
	}

	curves := resultTable{
		name:    "age_curves",
		headers: []string{"Genre", "AgeBand", "MeanRating", "NumRatings"},
	}
	for _, r := range result.AgeCurves {
		curves.rows = append(curves.rows, []string{r.Genre, r.AgeBand, formatMean(r.MeanRating), strconv.Itoa(r.NumRatings)})
	}

	return []resultTable{popularity, satisfaction, trend, movies, curves}
}

func formatMean(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

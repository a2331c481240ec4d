package exporter

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlpulse/pkg/contracts/domain"
)

func sampleResult() *domain.DashboardResult {
	return &domain.DashboardResult{
		FilteredRows: 5,
		GenrePopularity: []domain.GenrePopularityRow{
			{Genre: "Action", Movies: 2},
			{Genre: "Comedy", Movies: 1},
		},
		GenreSatisfaction: []domain.GenreSatisfactionRow{
			{Genre: "Comedy", MeanRating: 4.5, NumRatings: 2},
			{Genre: "Action", MeanRating: 4, NumRatings: 3},
		},
		RatingTrend: []domain.YearTrendRow{
			{Year: 1995, MeanRating: 4.25, NumRatings: 4},
		},
		TopMovies: []domain.MovieStatRow{
			{MovieID: 1, Title: "M1", MeanRating: 4.5, NumRatings: 2},
		},
		AgeCurves: []domain.AgeCurvePoint{
			{Genre: "Action", AgeBand: "25-29", MeanRating: 4, NumRatings: 3},
		},
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := strings.TrimPrefix(string(data), "\xef\xbb\xbf")
	rows, err := csv.NewReader(strings.NewReader(content)).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVWriter_WriteCSV(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir, nil)

	path, err := w.WriteCSV("out.csv", WriteOptions{
		Headers:   []string{"a", "b"},
		Records:   [][]string{{"1", "2"}, {"3", "4"}},
		BOMPrefix: true,
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "out.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "\xef\xbb\xbf"))

	rows := readCSV(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"a", "b"}, rows[0])
	assert.Equal(t, []string{"3", "4"}, rows[2])
}

func TestCSVWriter_WriteDashboard(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir, nil)

	paths, err := w.WriteDashboard("report", sampleResult())
	require.NoError(t, err)
	require.Len(t, paths, 5)

	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	assert.Equal(t, []string{
		"report_genre_popularity.csv",
		"report_genre_satisfaction.csv",
		"report_rating_trend.csv",
		"report_top_movies.csv",
		"report_age_curves.csv",
	}, names)

	popularity := readCSV(t, paths[0])
	require.Len(t, popularity, 3)
	assert.Equal(t, []string{"Genre", "Movies"}, popularity[0])
	assert.Equal(t, []string{"Action", "2"}, popularity[1])

	satisfaction := readCSV(t, paths[1])
	assert.Equal(t, []string{"Comedy", "4.5000", "2"}, satisfaction[1])

	movies := readCSV(t, paths[3])
	assert.Equal(t, []string{"1", "M1", "4.5000", "2"}, movies[1])
}

func TestCSVWriter_EmptyResult(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir, nil)

	paths, err := w.WriteDashboard("empty", &domain.DashboardResult{})
	require.NoError(t, err)
	require.Len(t, paths, 5)

	// Header-only files, no data rows.
	rows := readCSV(t, paths[0])
	assert.Len(t, rows, 1)
}

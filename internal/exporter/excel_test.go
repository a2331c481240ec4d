package exporter

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"mlpulse/pkg/contracts/domain"
)

func TestExcelWriter_WriteDashboard(t *testing.T) {
	dir := t.TempDir()
	w := NewExcelWriter(dir, nil)

	path, err := w.WriteDashboard("report.xlsx", sampleResult())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "report.xlsx"), path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{
		"genre_popularity",
		"genre_satisfaction",
		"rating_trend",
		"top_movies",
		"age_curves",
	}, f.GetSheetList())

	header, err := f.GetCellValue("genre_popularity", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Genre", header)

	genre, err := f.GetCellValue("genre_popularity", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Action", genre)

	mean, err := f.GetCellValue("genre_satisfaction", "B2")
	require.NoError(t, err)
	assert.Equal(t, "4.5000", mean)
}

func TestExcelWriter_EmptyResult(t *testing.T) {
	w := NewExcelWriter(t.TempDir(), nil)

	path, err := w.WriteDashboard("empty.xlsx", &domain.DashboardResult{})
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("rating_trend")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

package services

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlpulse/internal/analytics"
	"mlpulse/internal/config"
	"mlpulse/pkg/contracts/domain"
)

const csvHeader = "user_id,movie_id,title,rating,timestamp,age,gender,occupation,zip_code,genres,year\n"

func writeDataset(t *testing.T, name string, rows string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(csvHeader+rows), 0644))
	return path
}

func newTestService() *DatasetService {
	cfg := config.DatasetConfig{Path: "unused", AgeBinSize: 10, EnrichState: false}
	engine := analytics.NewEngine(analytics.Config{MinYearRatings: 1}, slog.Default())
	return NewDatasetService(cfg, engine, nil, slog.Default())
}

func TestDatasetService_LoadAndQuery(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	path := writeDataset(t, "a.csv",
		"1,10,Toy Story,4.0,978300760,25,M,engineer,02134,Action|Comedy,1995\n"+
			"2,10,Toy Story,5.0,978300760,30,F,artist,10001,Action|Comedy,1995\n"+
			"3,11,Heat,3.0,978300760,40,M,other,60601,Action,1995\n")

	require.NoError(t, svc.Load(ctx, path))

	cleaned, err := svc.Cleaned()
	require.NoError(t, err)
	assert.Equal(t, 3, cleaned.Len())

	expanded, err := svc.Expanded()
	require.NoError(t, err)
	assert.Equal(t, 5, expanded.Len())
	assert.True(t, expanded.Schema.HasAgeGroup)

	result, err := svc.Dashboard(ctx, domain.Filter{}, QueryParams{MinRatings: 1, TopN: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, result.FilteredRows)
	require.NotEmpty(t, result.GenrePopularity)
	assert.Equal(t, "Action", result.GenrePopularity[0].Genre)
	assert.Equal(t, 2, result.GenrePopularity[0].Movies)

	report, err := svc.EDA(ctx)
	require.NoError(t, err)
	assert.Contains(t, report, "Shape: 3 rows")
}

func TestDatasetService_CacheInvalidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	pathA := writeDataset(t, "a.csv", "1,10,Toy Story,4.0,978300760,25,M,engineer,02134,Action,1995\n")
	require.NoError(t, svc.Load(ctx, pathA))

	// Growing the file behind the cache changes nothing on a repeat load
	// with the same path.
	f, err := os.OpenFile(pathA, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, err = f.WriteString("2,11,Heat,3.0,978300760,40,M,other,60601,Action,1995\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, svc.Load(ctx, pathA))
	cleaned, err := svc.Cleaned()
	require.NoError(t, err)
	assert.Equal(t, 1, cleaned.Len())

	// A different path invalidates and rebuilds.
	pathB := writeDataset(t, "b.csv",
		"1,10,Toy Story,4.0,978300760,25,M,engineer,02134,Action,1995\n"+
			"2,11,Heat,3.0,978300760,40,M,other,60601,Action,1995\n")
	require.NoError(t, svc.Load(ctx, pathB))
	cleaned, err = svc.Cleaned()
	require.NoError(t, err)
	assert.Equal(t, 2, cleaned.Len())
}

func TestDatasetService_NotLoaded(t *testing.T) {
	svc := newTestService()

	_, err := svc.Cleaned()
	assert.Error(t, err)
	_, err = svc.Expanded()
	assert.Error(t, err)
	_, err = svc.Dashboard(context.Background(), domain.Filter{}, QueryParams{})
	assert.Error(t, err)
	_, err = svc.EDA(context.Background())
	assert.Error(t, err)
	assert.Nil(t, svc.Stats())
}

func TestDatasetService_LoadFailureKeepsError(t *testing.T) {
	svc := newTestService()
	err := svc.Load(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
}

// Command eda loads a ratings dataset, prints the quick-EDA diagnostics
// report to the console, and optionally exports the unfiltered dashboard
// result tables.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"mlpulse/internal/analytics"
	"mlpulse/internal/config"
	"mlpulse/internal/dataset"
	"mlpulse/internal/geocode"
	"mlpulse/internal/infrastructure"
	"mlpulse/internal/services"
	"mlpulse/pkg/contracts/domain"
)

func main() {
	var (
		path        = flag.String("data", "", "path to the ratings CSV (defaults to configured dataset path)")
		export      = flag.String("export", "", "export unfiltered dashboard tables: csv or xlsx")
		enrichState = flag.Bool("state", false, "run the ZIP-to-state enrichment pass (network lookups)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	if *path == "" {
		*path = cfg.Dataset.Path
	}

	// Console tool: force readable text logs regardless of server defaults.
	logCfg := cfg.Logging
	logCfg.Format = "text"
	logCfg.Output = "console"
	logger, err := infrastructure.InitializeLogger(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	loader := dataset.NewLoader(logger)
	cleaned, stats, err := loader.Load(ctx, *path)
	if err != nil {
		logger.Error("dataset load failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	fmt.Print(dataset.Report(cleaned, stats))

	if *export == "" {
		return
	}

	expanded := dataset.Expand(cleaned)
	expanded = dataset.AddAgeGroup(expanded, cfg.Dataset.AgeBinSize)
	if *enrichState {
		resolver := geocode.NewResolver(geocode.Config{
			BaseURL:           cfg.Geocode.BaseURL,
			Timeout:           cfg.Geocode.Timeout,
			RequestsPerSecond: cfg.Geocode.RequestsPerSecond,
			Burst:             cfg.Geocode.Burst,
			MaxRetries:        cfg.Geocode.MaxRetries,
		}, logger)
		expanded = dataset.AddState(ctx, expanded, resolver, logger)
	}

	engine := analytics.NewEngine(analytics.Config{
		MinGenreRatings: cfg.Analytics.MinGenreRatings,
		MinYearRatings:  cfg.Analytics.MinYearRatings,
		MinMovieRatings: cfg.Analytics.MinMovieRatings,
		TopN:            cfg.Analytics.TopN,
		AgeBandWidth:    cfg.Analytics.AgeBandWidth,
		AgeBandMin:      cfg.Analytics.AgeBandMin,
		AgeBandMax:      cfg.Analytics.AgeBandMax,
	}, logger)

	result := engine.Dashboard(analytics.Apply(expanded, domain.Filter{}), 0, 0, nil)

	exportSvc := services.NewExportService(cfg.Dataset.ExportDir, logger)
	paths, err := exportSvc.Export(*export, "eda", result)
	if err != nil {
		logger.Error("export failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	for _, p := range paths {
		fmt.Printf("wrote %s\n", p)
	}
}

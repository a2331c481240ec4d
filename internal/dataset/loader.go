package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "mlpulse/internal/errors"
	"mlpulse/pkg/contracts/domain"
)

// LoadStats is the parse-warning ledger for one load: malformed values are
// converted to missing and counted here, never raised.
type LoadStats struct {
	RowsRead          int `json:"rows_read"`
	RowsKept          int `json:"rows_kept"`
	DuplicatesDropped int `json:"duplicates_dropped"`
	BadRatings        int `json:"bad_ratings"`
	BadTimestamps     int `json:"bad_timestamps"`
	BadYears          int `json:"bad_years"`
	BadAges           int `json:"bad_ages"`
}

// Loader reads and cleans the ratings dataset.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a new dataset loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger.With(slog.String("component", "dataset_loader"))}
}

// requiredColumns are the columns every source file must carry.
var requiredColumns = []string{
	"user_id", "movie_id", "title", "rating",
	"age", "gender", "occupation", "zip_code", "genres", "year",
}

// Load reads the CSV at path and produces the cleaned table:
// timestamps parsed (epoch seconds preferred), year/age coerced to numeric
// or missing, genres normalized to pipe-delimited tokens, exact duplicates
// dropped once at the end. Only structural failures return an error.
func (l *Loader) Load(ctx context.Context, path string) (*domain.Table, *LoadStats, error) {
	l.logger.InfoContext(ctx, "loading ratings dataset", slog.String("path", path))

	file, err := os.Open(path)
	if err != nil {
		return nil, nil, apperrors.NewLoadError("failed to open dataset file", err).WithContext("path", path)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, apperrors.NewLoadError("failed to read dataset header", err).WithContext("path", path)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, nil, apperrors.NewLoadError(
				fmt.Sprintf("required column %q missing from dataset", name), nil).WithContext("path", path)
		}
	}

	schema := domain.Schema{
		HasTimestamp:  hasColumn(cols, "timestamp"),
		HasRatingYear: hasColumn(cols, "rating_year"),
		HasDecade:     hasColumn(cols, "decade"),
		HasState:      hasColumn(cols, "state"),
	}

	stats := &LoadStats{}
	table := &domain.Table{Schema: schema}
	seen := make(map[string]struct{})

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// A ragged or unparseable row means the file itself is broken;
			// truncating at it would report success on a partial table.
			return nil, nil, apperrors.NewLoadError("malformed dataset row", err).WithContext("path", path)
		}
		stats.RowsRead++

		rec, ok := l.parseRow(row, cols, schema, stats)
		if !ok {
			continue
		}

		// Exact-match dedup over the post-cleaning fields.
		key := dedupKey(&rec)
		if _, dup := seen[key]; dup {
			stats.DuplicatesDropped++
			continue
		}
		seen[key] = struct{}{}
		table.Records = append(table.Records, rec)
	}
	stats.RowsKept = len(table.Records)

	l.logger.InfoContext(ctx, "dataset loaded",
		slog.Int("rows_read", stats.RowsRead),
		slog.Int("rows_kept", stats.RowsKept),
		slog.Int("duplicates_dropped", stats.DuplicatesDropped),
		slog.Int("bad_timestamps", stats.BadTimestamps),
		slog.Int("bad_years", stats.BadYears),
		slog.Int("bad_ages", stats.BadAges))

	return table, stats, nil
}

func hasColumn(cols map[string]int, name string) bool {
	_, ok := cols[name]
	return ok
}

func (l *Loader) parseRow(row []string, cols map[string]int, schema domain.Schema, stats *LoadStats) (domain.RatingRecord, bool) {
	cell := func(name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var rec domain.RatingRecord

	rec.UserID, _ = strconv.ParseInt(cell("user_id"), 10, 64)
	rec.MovieID, _ = strconv.ParseInt(cell("movie_id"), 10, 64)
	rec.Title = cell("title")

	rating, err := strconv.ParseFloat(cell("rating"), 64)
	if err != nil {
		stats.BadRatings++
		return rec, false
	}
	rec.Rating = rating

	rec.Gender = cell("gender")
	rec.Occupation = cell("occupation")
	rec.ZipCode = cell("zip_code")
	rec.Genres = NormalizeGenres(cell("genres"))
	rec.Decade = cell("decade")
	if schema.HasState {
		rec.State = cell("state")
	}

	if schema.HasTimestamp {
		if ts, ok := parseTimestamp(cell("timestamp")); ok {
			rec.Timestamp = &ts
		} else if cell("timestamp") != "" {
			stats.BadTimestamps++
		}
	}

	if schema.HasRatingYear {
		if y, err := strconv.Atoi(cell("rating_year")); err == nil {
			rec.RatingYear = &y
		}
	} else if rec.Timestamp != nil {
		y := rec.Timestamp.Year()
		rec.RatingYear = &y
	}

	if v := cell("year"); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			rec.Year = &y
		} else if f, err := strconv.ParseFloat(v, 64); err == nil {
			y := int(f)
			rec.Year = &y
		} else {
			stats.BadYears++
		}
	}

	if v := cell("age"); v != "" {
		if a, err := strconv.ParseFloat(v, 64); err == nil {
			rec.Age = &a
		} else {
			stats.BadAges++
		}
	}

	return rec, true
}

// parseTimestamp prefers the epoch-seconds interpretation, falling back to
// common date-string layouts.
func parseTimestamp(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), true
	}
	if secs, err := strconv.ParseFloat(raw, 64); err == nil {
		return time.Unix(int64(secs), 0).UTC(), true
	}
	for _, layout := range []string{
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02",
	} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

// NormalizeGenres unifies the two dataset dialects (comma- and
// pipe-separated genre lists) into one pipe-delimited string with no
// internal whitespace. Missing input becomes the empty string. The
// operation is idempotent.
func NormalizeGenres(raw string) string {
	s := strings.ReplaceAll(raw, " ", "")
	s = strings.ReplaceAll(s, ",", "|")
	return s
}

// dedupKey builds the exact-match identity of a cleaned record.
func dedupKey(r *domain.RatingRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d|%d|%s|%g|%s|%s|%s|%s", r.UserID, r.MovieID, r.Title, r.Rating, r.Gender, r.Occupation, r.ZipCode, r.Genres)
	if r.Timestamp != nil {
		fmt.Fprintf(&b, "|%d", r.Timestamp.Unix())
	} else {
		b.WriteString("|-")
	}
	if r.RatingYear != nil {
		fmt.Fprintf(&b, "|%d", *r.RatingYear)
	} else {
		b.WriteString("|-")
	}
	if r.Year != nil {
		fmt.Fprintf(&b, "|%d", *r.Year)
	} else {
		b.WriteString("|-")
	}
	if r.Age != nil {
		fmt.Fprintf(&b, "|%g", *r.Age)
	} else {
		b.WriteString("|-")
	}
	fmt.Fprintf(&b, "|%s|%s", r.Decade, r.State)
	return b.String()
}

package dataset

import (
	"fmt"
	"sort"
	"strings"

	"mlpulse/pkg/contracts/domain"
)

// maxGenreSample caps the number of distinct genre tokens printed.
const maxGenreSample = 30

// Report renders a human-readable structural summary of the cleaned table:
// shape, columns and their types, missing-value counts, rating histogram,
// distinct genre sample, release-year range, and the top movies by rating
// count. Console/log output only; nothing downstream consumes it.
func Report(t *domain.Table, stats *LoadStats) string {
	var b strings.Builder

	b.WriteString("=== QUICK EDA ===\n")
	fmt.Fprintf(&b, "Shape: %d rows\n", t.Len())
	cols := columnTypes(t.Schema)
	fmt.Fprintf(&b, "Columns (%d): %s\n", len(cols), strings.Join(cols, ", "))
	if stats != nil {
		fmt.Fprintf(&b, "Load: %d read, %d duplicates dropped, %d bad ratings, %d bad timestamps, %d bad years, %d bad ages\n",
			stats.RowsRead, stats.DuplicatesDropped, stats.BadRatings, stats.BadTimestamps, stats.BadYears, stats.BadAges)
	}

	b.WriteString("\nMissing value counts:\n")
	var missingTimestamp, missingYear, missingAge, emptyGenres, emptyZip int
	for i := range t.Records {
		r := &t.Records[i]
		if r.Timestamp == nil {
			missingTimestamp++
		}
		if r.Year == nil {
			missingYear++
		}
		if r.Age == nil {
			missingAge++
		}
		if r.Genres == "" {
			emptyGenres++
		}
		if r.ZipCode == "" {
			emptyZip++
		}
	}
	if t.Schema.HasTimestamp {
		fmt.Fprintf(&b, "  timestamp: %d\n", missingTimestamp)
	}
	fmt.Fprintf(&b, "  year:      %d\n", missingYear)
	fmt.Fprintf(&b, "  age:       %d\n", missingAge)
	fmt.Fprintf(&b, "  genres:    %d\n", emptyGenres)
	fmt.Fprintf(&b, "  zip_code:  %d\n", emptyZip)

	b.WriteString("\nRating distribution:\n")
	hist := make(map[float64]int)
	for i := range t.Records {
		hist[t.Records[i].Rating]++
	}
	ratings := make([]float64, 0, len(hist))
	for r := range hist {
		ratings = append(ratings, r)
	}
	sort.Float64s(ratings)
	for _, r := range ratings {
		fmt.Fprintf(&b, "  %.1f: %d\n", r, hist[r])
	}

	genres := distinctGenres(t)
	sample := genres
	if len(sample) > maxGenreSample {
		sample = sample[:maxGenreSample]
	}
	fmt.Fprintf(&b, "\nUnique genres (sample): %s (total %d)\n", strings.Join(sample, ", "), len(genres))

	if minYear, maxYear, ok := yearRange(t); ok {
		fmt.Fprintf(&b, "\nYear range: %d - %d\n", minYear, maxYear)
	} else {
		b.WriteString("\nYear range: n/a\n")
	}

	b.WriteString("\nTop 10 movies by # ratings:\n")
	for _, m := range topMoviesByCount(t, 10) {
		fmt.Fprintf(&b, "  %-40s count=%d mean=%.2f\n", truncate(m.Title, 40), m.NumRatings, m.MeanRating)
	}

	b.WriteString("=== END EDA ===\n")
	return b.String()
}

// columnTypes lists the populated columns with their static types. Optional
// columns appear only when the schema says the source (or an enrichment
// pass) provided them.
func columnTypes(s domain.Schema) []string {
	cols := []string{
		"user_id int64",
		"movie_id int64",
		"title string",
		"rating float64",
	}
	if s.HasTimestamp {
		cols = append(cols, "timestamp time")
	}
	if s.HasTimestamp || s.HasRatingYear {
		cols = append(cols, "rating_year int")
	}
	cols = append(cols,
		"age float64",
		"gender string",
		"occupation string",
		"zip_code string",
		"genres string",
		"year int",
	)
	if s.HasDecade {
		cols = append(cols, "decade string")
	}
	if s.HasState {
		cols = append(cols, "state string")
	}
	if s.HasAgeGroup {
		cols = append(cols, "age_group string")
	}
	return cols
}

func distinctGenres(t *domain.Table) []string {
	set := make(map[string]struct{})
	for i := range t.Records {
		for _, tok := range SplitGenres(t.Records[i].Genres) {
			set[tok] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for g := range set {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

func yearRange(t *domain.Table) (int, int, bool) {
	minYear, maxYear := 0, 0
	found := false
	for i := range t.Records {
		y := t.Records[i].Year
		if y == nil {
			continue
		}
		if !found || *y < minYear {
			minYear = *y
		}
		if !found || *y > maxYear {
			maxYear = *y
		}
		found = true
	}
	return minYear, maxYear, found
}

func topMoviesByCount(t *domain.Table, n int) []domain.MovieStatRow {
	type acc struct {
		title string
		sum   float64
		count int
	}
	groups := make(map[int64]*acc)
	for i := range t.Records {
		r := &t.Records[i]
		g, ok := groups[r.MovieID]
		if !ok {
			g = &acc{title: r.Title}
			groups[r.MovieID] = g
		}
		g.sum += r.Rating
		g.count++
	}
	rows := make([]domain.MovieStatRow, 0, len(groups))
	for id, g := range groups {
		rows = append(rows, domain.MovieStatRow{
			MovieID:    id,
			Title:      g.title,
			MeanRating: g.sum / float64(g.count),
			NumRatings: g.count,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].NumRatings != rows[j].NumRatings {
			return rows[i].NumRatings > rows[j].NumRatings
		}
		return rows[i].MovieID < rows[j].MovieID
	})
	if len(rows) > n {
		rows = rows[:n]
	}
	return rows
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

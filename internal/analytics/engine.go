package analytics

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"mlpulse/pkg/contracts/domain"
)

// Config holds the default thresholds of the aggregate queries.
type Config struct {
	MinGenreRatings int // minimum rating count for the top-genres view
	MinYearRatings  int // smoothing cutoff for the year trend
	MinMovieRatings int // default minimum rating count for top movies
	TopN            int // default leaderboard size
	AgeBandWidth    int // width of the age-curve bands
	AgeBandMin      int // inclusive lower edge of the first band
	AgeBandMax      int // exclusive upper edge of the last band
}

// DefaultConfig returns the thresholds the dashboard ships with.
func DefaultConfig() Config {
	return Config{
		MinGenreRatings: 50,
		MinYearRatings:  5,
		MinMovieRatings: 50,
		TopN:            5,
		AgeBandWidth:    5,
		AgeBandMin:      10,
		AgeBandMax:      100,
	}
}

// Engine runs the aggregate queries. It is stateless apart from its
// configured thresholds; every method takes the (filtered) expanded table.
type Engine struct {
	cfg    Config
	logger *slog.Logger
}

// NewEngine creates an aggregation engine with the given configuration,
// filling unset thresholds from DefaultConfig.
func NewEngine(cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.MinGenreRatings <= 0 {
		cfg.MinGenreRatings = def.MinGenreRatings
	}
	if cfg.MinYearRatings <= 0 {
		cfg.MinYearRatings = def.MinYearRatings
	}
	if cfg.MinMovieRatings <= 0 {
		cfg.MinMovieRatings = def.MinMovieRatings
	}
	if cfg.TopN <= 0 {
		cfg.TopN = def.TopN
	}
	if cfg.AgeBandWidth <= 0 {
		cfg.AgeBandWidth = def.AgeBandWidth
	}
	if cfg.AgeBandMax <= cfg.AgeBandMin {
		cfg.AgeBandMin = def.AgeBandMin
		cfg.AgeBandMax = def.AgeBandMax
	}
	return &Engine{cfg: cfg, logger: logger.With(slog.String("component", "analytics_engine"))}
}

// Config returns the engine's effective thresholds.
func (e *Engine) Config() Config { return e.cfg }

// GenrePopularity counts distinct rated movies per genre, descending by
// count, ties broken by genre name ascending.
func (e *Engine) GenrePopularity(t *domain.Table) []domain.GenrePopularityRow {
	movies := make(map[string]map[int64]struct{})
	for i := range t.Records {
		r := &t.Records[i]
		set, ok := movies[r.Genres]
		if !ok {
			set = make(map[int64]struct{})
			movies[r.Genres] = set
		}
		set[r.MovieID] = struct{}{}
	}

	rows := make([]domain.GenrePopularityRow, 0, len(movies))
	for genre, set := range movies {
		rows = append(rows, domain.GenrePopularityRow{Genre: genre, Movies: len(set)})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Movies != rows[j].Movies {
			return rows[i].Movies > rows[j].Movies
		}
		return rows[i].Genre < rows[j].Genre
	})
	return rows
}

// GenreSatisfaction computes mean rating and rating count per genre,
// sorted by mean descending, ties broken by count descending then genre
// ascending.
func (e *Engine) GenreSatisfaction(t *domain.Table) []domain.GenreSatisfactionRow {
	type acc struct {
		sum   float64
		count int
	}
	groups := make(map[string]*acc)
	for i := range t.Records {
		r := &t.Records[i]
		g, ok := groups[r.Genres]
		if !ok {
			g = &acc{}
			groups[r.Genres] = g
		}
		g.sum += r.Rating
		g.count++
	}

	rows := make([]domain.GenreSatisfactionRow, 0, len(groups))
	for genre, g := range groups {
		rows = append(rows, domain.GenreSatisfactionRow{
			Genre:      genre,
			MeanRating: g.sum / float64(g.count),
			NumRatings: g.count,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].MeanRating != rows[j].MeanRating {
			return rows[i].MeanRating > rows[j].MeanRating
		}
		if rows[i].NumRatings != rows[j].NumRatings {
			return rows[i].NumRatings > rows[j].NumRatings
		}
		return rows[i].Genre < rows[j].Genre
	})
	return rows
}

// TopGenres filters the satisfaction rows down to genres with at least the
// configured minimum rating count.
func (e *Engine) TopGenres(satisfaction []domain.GenreSatisfactionRow) []domain.GenreSatisfactionRow {
	out := make([]domain.GenreSatisfactionRow, 0, len(satisfaction))
	for _, row := range satisfaction {
		if row.NumRatings >= e.cfg.MinGenreRatings {
			out = append(out, row)
		}
	}
	return out
}

// RatingTrendByYear computes mean rating and count per release year,
// suppressing years below the smoothing threshold, sorted ascending by
// year for charting. Rows with missing year are skipped.
func (e *Engine) RatingTrendByYear(t *domain.Table) []domain.YearTrendRow {
	type acc struct {
		sum   float64
		count int
	}
	groups := make(map[int]*acc)
	for i := range t.Records {
		r := &t.Records[i]
		if r.Year == nil {
			continue
		}
		g, ok := groups[*r.Year]
		if !ok {
			g = &acc{}
			groups[*r.Year] = g
		}
		g.sum += r.Rating
		g.count++
	}

	rows := make([]domain.YearTrendRow, 0, len(groups))
	for year, g := range groups {
		if g.count < e.cfg.MinYearRatings {
			continue
		}
		rows = append(rows, domain.YearTrendRow{
			Year:       year,
			MeanRating: g.sum / float64(g.count),
			NumRatings: g.count,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Year < rows[j].Year })
	return rows
}

// TopMovies ranks movies with at least minRatings ratings by mean rating
// descending, ties broken by count descending then movie id ascending,
// truncated to topN. Non-positive arguments fall back to the configured
// defaults.
func (e *Engine) TopMovies(t *domain.Table, minRatings, topN int) []domain.MovieStatRow {
	if minRatings <= 0 {
		minRatings = e.cfg.MinMovieRatings
	}
	if topN <= 0 {
		topN = e.cfg.TopN
	}

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
		if g.count < minRatings {
			continue
		}
		rows = append(rows, domain.MovieStatRow{
			MovieID:    id,
			Title:      g.title,
			MeanRating: g.sum / float64(g.count),
			NumRatings: g.count,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].MeanRating != rows[j].MeanRating {
			return rows[i].MeanRating > rows[j].MeanRating
		}
		if rows[i].NumRatings != rows[j].NumRatings {
			return rows[i].NumRatings > rows[j].NumRatings
		}
		return rows[i].MovieID < rows[j].MovieID
	})
	if len(rows) > topN {
		rows = rows[:topN]
	}
	return rows
}

// AgeRatingCurves buckets ages into fixed-width bands and computes mean
// rating and count per (genre, band) for the requested genres. Series
// appear in the requested genre order; bands with no rows are omitted.
func (e *Engine) AgeRatingCurves(t *domain.Table, genres []string) []domain.AgeCurvePoint {
	width := e.cfg.AgeBandWidth
	lo, hi := e.cfg.AgeBandMin, e.cfg.AgeBandMax
	numBands := (hi - lo) / width

	type acc struct {
		sum   float64
		count int
	}

	points := make([]domain.AgeCurvePoint, 0)
	for _, genre := range genres {
		bands := make([]acc, numBands)
		for i := range t.Records {
			r := &t.Records[i]
			if r.Genres != genre || r.Age == nil {
				continue
			}
			age := int(*r.Age)
			if age < lo || age >= lo+numBands*width {
				continue
			}
			idx := (age - lo) / width
			bands[idx].sum += r.Rating
			bands[idx].count++
		}
		for idx := range bands {
			if bands[idx].count == 0 {
				continue
			}
			start := lo + idx*width
			points = append(points, domain.AgeCurvePoint{
				Genre:      genre,
				AgeBand:    fmt.Sprintf("%d-%d", start, start+width-1),
				MeanRating: bands[idx].sum / float64(bands[idx].count),
				NumRatings: bands[idx].count,
			})
		}
	}
	return points
}

// PopularitySatisfactionCorrelation computes the Pearson correlation
// between per-genre rating count and per-genre mean rating, from the
// satisfaction query's rows. Defined is false when fewer than two genres
// exist or either series has zero variance.
func (e *Engine) PopularitySatisfactionCorrelation(satisfaction []domain.GenreSatisfactionRow) domain.Correlation {
	n := len(satisfaction)
	result := domain.Correlation{Genres: n}
	if n < 2 {
		return result
	}

	var sumX, sumY float64
	for _, row := range satisfaction {
		sumX += float64(row.NumRatings)
		sumY += row.MeanRating
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var cov, varX, varY float64
	for _, row := range satisfaction {
		dx := float64(row.NumRatings) - meanX
		dy := row.MeanRating - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return result
	}

	result.Coefficient = cov / math.Sqrt(varX*varY)
	result.Defined = true
	return result
}

// Dashboard runs all six queries against the filtered table and bundles
// the result tables. ageCurveGenres selects the series for query five; when
// empty, the four most-rated genres are used, matching the dashboard's
// default selection.
func (e *Engine) Dashboard(t *domain.Table, minRatings, topN int, ageCurveGenres []string) *domain.DashboardResult {
	satisfaction := e.GenreSatisfaction(t)

	if len(ageCurveGenres) == 0 {
		byVolume := make([]domain.GenreSatisfactionRow, len(satisfaction))
		copy(byVolume, satisfaction)
		sort.SliceStable(byVolume, func(i, j int) bool {
			return byVolume[i].NumRatings > byVolume[j].NumRatings
		})
		for i := 0; i < len(byVolume) && i < 4; i++ {
			ageCurveGenres = append(ageCurveGenres, byVolume[i].Genre)
		}
	}

	return &domain.DashboardResult{
		FilteredRows:      t.Len(),
		GenrePopularity:   e.GenrePopularity(t),
		GenreSatisfaction: satisfaction,
		TopGenres:         e.TopGenres(satisfaction),
		RatingTrend:       e.RatingTrendByYear(t),
		TopMovies:         e.TopMovies(t, minRatings, topN),
		AgeCurves:         e.AgeRatingCurves(t, ageCurveGenres),
		Correlation:       e.PopularitySatisfactionCorrelation(satisfaction),
	}
}

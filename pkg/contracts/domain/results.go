package domain

// GenrePopularityRow is one row of the genre popularity query: the number
// of distinct rated movies carrying the genre.
type GenrePopularityRow struct {
	Genre  string `json:"genre" csv:"Genre"`
	Movies int    `json:"movies" csv:"Movies"`
}

// GenreSatisfactionRow is one row of the genre satisfaction query.
type GenreSatisfactionRow struct {
	Genre      string  `json:"genre" csv:"Genre"`
	MeanRating float64 `json:"mean_rating" csv:"MeanRating"`
	NumRatings int     `json:"n_ratings" csv:"NumRatings"`
}

// YearTrendRow is one row of the rating-by-release-year trend.
type YearTrendRow struct {
	Year       int     `json:"year" csv:"Year"`
	MeanRating float64 `json:"mean_rating" csv:"MeanRating"`
	NumRatings int     `json:"n_ratings" csv:"NumRatings"`
}

// MovieStatRow is one row of the top-movies leaderboard.
type MovieStatRow struct {
	MovieID    int64   `json:"movie_id" csv:"MovieID"`
	Title      string  `json:"title" csv:"Title"`
	MeanRating float64 `json:"mean_rating" csv:"MeanRating"`
	NumRatings int     `json:"n_ratings" csv:"NumRatings"`
}

// AgeCurvePoint is one (genre, age band) point of the age-vs-rating curves.
type AgeCurvePoint struct {
	Genre      string  `json:"genre" csv:"Genre"`
	AgeBand    string  `json:"age_band" csv:"AgeBand"`
	MeanRating float64 `json:"mean_rating" csv:"MeanRating"`
	NumRatings int     `json:"n_ratings" csv:"NumRatings"`
}

// Correlation is the Pearson correlation between per-genre rating volume
// and per-genre mean rating. Defined is false when fewer than two genres
// were available or one of the series had zero variance.
type Correlation struct {
	Coefficient float64 `json:"coefficient"`
	Genres      int     `json:"genres"`
	Defined     bool    `json:"defined"`
}

// DashboardResult bundles the output of all six aggregate queries for one
// filter evaluation, ready for tabular or chart presentation.
type DashboardResult struct {
	FilteredRows      int                    `json:"filtered_rows"`
	GenrePopularity   []GenrePopularityRow   `json:"genre_popularity"`
	GenreSatisfaction []GenreSatisfactionRow `json:"genre_satisfaction"`
	TopGenres         []GenreSatisfactionRow `json:"top_genres"`
	RatingTrend       []YearTrendRow         `json:"rating_trend"`
	TopMovies         []MovieStatRow         `json:"top_movies"`
	AgeCurves         []AgeCurvePoint        `json:"age_curves"`
	Correlation       Correlation            `json:"correlation"`
}

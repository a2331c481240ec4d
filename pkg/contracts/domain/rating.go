package domain

import "time"

// GenreUnknown is the sentinel genre assigned to ratings whose genre list
// was empty after cleaning.
const GenreUnknown = "Unknown"

// RatingRecord represents one rating event joined with the rater's
// demographics and the movie's metadata. Optional fields use pointers so
// "missing" is distinguishable from a zero value.
type RatingRecord struct {
	UserID     int64      `json:"user_id" csv:"UserID"`
	MovieID    int64      `json:"movie_id" csv:"MovieID"`
	Title      string     `json:"title" csv:"Title"`
	Rating     float64    `json:"rating" csv:"Rating"`
	Timestamp  *time.Time `json:"timestamp,omitempty" csv:"Timestamp"`
	RatingYear *int       `json:"rating_year,omitempty" csv:"RatingYear"`
	Age        *float64   `json:"age,omitempty" csv:"Age"`
	Gender     string     `json:"gender" csv:"Gender"`
	Occupation string     `json:"occupation" csv:"Occupation"`
	ZipCode    string     `json:"zip_code" csv:"ZipCode"`

	// Genres holds the pipe-delimited list in the cleaned table and exactly
	// one genre token in the expanded table.
	Genres string `json:"genres" csv:"Genres"`
	// GenresList is the full pre-explosion token list, retained on every
	// expanded row for consumers that must avoid genre-multiplicity
	// double-counting.
	GenresList []string `json:"genres_list,omitempty" csv:"-"`

	Year   *int   `json:"year,omitempty" csv:"Year"`
	Decade string `json:"decade,omitempty" csv:"Decade"`

	// Derived enrichment columns.
	AgeGroup string `json:"age_group,omitempty" csv:"AgeGroup"`
	State    string `json:"state,omitempty" csv:"State"`
}

// Schema records which optional columns were present in the source file,
// validated once at load time so consumers never probe column names again.
type Schema struct {
	HasTimestamp  bool `json:"has_timestamp"`
	HasRatingYear bool `json:"has_rating_year"`
	HasDecade     bool `json:"has_decade"`
	HasState      bool `json:"has_state"`
	HasAgeGroup   bool `json:"has_age_group"`
}

// Table is an immutable in-memory ratings table plus its schema flags.
// Derivations (explode, enrich, filter) always allocate a new Table.
type Table struct {
	Records []RatingRecord `json:"records"`
	Schema  Schema         `json:"schema"`
}

// Len returns the number of rows in the table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// CloneShape returns a new empty table carrying over the schema flags,
// pre-sized for n rows.
func (t *Table) CloneShape(n int) *Table {
	return &Table{
		Records: make([]RatingRecord, 0, n),
		Schema:  t.Schema,
	}
}

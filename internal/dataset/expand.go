package dataset

import (
	"strings"

	"mlpulse/pkg/contracts/domain"
)

// SplitGenres splits a normalized genre string into its tokens, discarding
// empty ones.
func SplitGenres(genres string) []string {
	if genres == "" {
		return nil
	}
	parts := strings.Split(genres, "|")
	tokens := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			tokens = append(tokens, p)
		}
	}
	return tokens
}

// Expand produces the genre-exploded table: one row per (rating, genre)
// pair, genre rows in the same order as the tokens in the original string.
// A rating whose genre list is empty still appears exactly once, with the
// "Unknown" sentinel genre. Every expanded row carries GenresList, the full
// pre-explosion token list for that rating.
func Expand(t *domain.Table) *domain.Table {
	out := t.CloneShape(t.Len())
	for i := range t.Records {
		rec := &t.Records[i]
		tokens := SplitGenres(rec.Genres)
		if len(tokens) == 0 {
			row := *rec
			row.Genres = domain.GenreUnknown
			row.GenresList = nil
			out.Records = append(out.Records, row)
			continue
		}
		for _, tok := range tokens {
			row := *rec
			row.Genres = tok
			row.GenresList = tokens
			out.Records = append(out.Records, row)
		}
	}
	return out
}

package domain

import "sort"

// Selection is a tri-state set constraint: either unconstrained ("match
// everything") or an explicit subset of allowed values. The zero value is
// unconstrained. An explicit empty subset matches nothing, so a caller that
// deselects every option gets an empty result instead of the full table.
type Selection struct {
	constrained bool
	values      map[string]struct{}
}

// Unconstrained returns a selection that matches every value.
func Unconstrained() Selection {
	return Selection{}
}

// Subset returns a selection that matches exactly the given values.
// Subset() with no values matches nothing.
func Subset(values ...string) Selection {
	s := Selection{constrained: true, values: make(map[string]struct{}, len(values))}
	for _, v := range values {
		s.values[v] = struct{}{}
	}
	return s
}

// Constrained reports whether the selection restricts values at all.
func (s Selection) Constrained() bool { return s.constrained }

// Contains reports whether v passes the selection.
func (s Selection) Contains(v string) bool {
	if !s.constrained {
		return true
	}
	_, ok := s.values[v]
	return ok
}

// Values returns the selected values in sorted order, nil when unconstrained.
func (s Selection) Values() []string {
	if !s.constrained {
		return nil
	}
	out := make([]string, 0, len(s.values))
	for v := range s.values {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Filter is the predicate set applied to the expanded table before
// aggregation. All active constraints combine with logical AND.
type Filter struct {
	// AgeMin/AgeMax bound the rater's age, inclusive on both ends.
	// A nil bound is inactive. Rows with missing age never match an
	// active age constraint.
	AgeMin *float64 `json:"age_min,omitempty"`
	AgeMax *float64 `json:"age_max,omitempty"`

	Genders     Selection `json:"-"`
	Occupations Selection `json:"-"`
	// Genres is a single-token membership test against the exploded genre,
	// not a substring match on the delimited list.
	Genres Selection `json:"-"`
}

// Matches reports whether a single expanded row passes the filter.
func (f Filter) Matches(r *RatingRecord) bool {
	if f.AgeMin != nil || f.AgeMax != nil {
		if r.Age == nil {
			return false
		}
		if f.AgeMin != nil && *r.Age < *f.AgeMin {
			return false
		}
		if f.AgeMax != nil && *r.Age > *f.AgeMax {
			return false
		}
	}
	if !f.Genders.Contains(r.Gender) {
		return false
	}
	if !f.Occupations.Contains(r.Occupation) {
		return false
	}
	if !f.Genres.Contains(r.Genres) {
		return false
	}
	return true
}

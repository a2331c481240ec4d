package dataset

import (
	"context"
	"fmt"
	"log/slog"

	"mlpulse/pkg/contracts/domain"
)

// RegionResolver is the external ZIP-to-state capability consumed by the
// state enrichment pass.
type RegionResolver interface {
	Resolve(ctx context.Context, zipCode string) (string, bool)
}

// AddAgeGroup returns a copy of the table with the AgeGroup column filled.
// Bucket boundaries start at 0 and extend in binSize steps far enough to
// cover the actual maximum non-missing age; buckets are left-inclusive,
// right-exclusive, labeled "{start}-{start+binSize-1}". Rows with missing
// age keep an empty bucket.
func AddAgeGroup(t *domain.Table, binSize int) *domain.Table {
	if binSize <= 0 {
		binSize = 10
	}

	maxAge, found := maxObservedAge(t)
	out := t.CloneShape(t.Len())
	out.Schema.HasAgeGroup = true

	// Upper edge of the last bucket, exclusive. Mirrors bins built from 0
	// to max+binSize in binSize steps.
	var upper float64
	if found {
		upper = float64((int(maxAge)/binSize + 1) * binSize)
	}

	for i := range t.Records {
		row := t.Records[i]
		row.AgeGroup = ""
		if found && row.Age != nil {
			age := *row.Age
			if age >= 0 && age < upper {
				start := (int(age) / binSize) * binSize
				row.AgeGroup = fmt.Sprintf("%d-%d", start, start+binSize-1)
			}
		}
		out.Records = append(out.Records, row)
	}
	return out
}

func maxObservedAge(t *domain.Table) (float64, bool) {
	var maxAge float64
	found := false
	for i := range t.Records {
		if a := t.Records[i].Age; a != nil {
			if !found || *a > maxAge {
				maxAge = *a
			}
			found = true
		}
	}
	return maxAge, found
}

// AddState returns a copy of the table with the State column filled from
// the ZIP code via the resolver. The pass is idempotent: a table whose
// schema already carries a state column is returned unchanged. One resolve
// per distinct ZIP code; unresolvable codes get an empty state.
func AddState(ctx context.Context, t *domain.Table, resolver RegionResolver, logger *slog.Logger) *domain.Table {
	if t.Schema.HasState {
		return t
	}
	if logger == nil {
		logger = slog.Default()
	}

	states := make(map[string]string)
	for i := range t.Records {
		zip := t.Records[i].ZipCode
		if _, ok := states[zip]; ok {
			continue
		}
		state, ok := resolver.Resolve(ctx, zip)
		if !ok {
			state = ""
		}
		states[zip] = state
	}

	logger.InfoContext(ctx, "state enrichment complete",
		slog.Int("distinct_zips", len(states)),
		slog.Int("rows", t.Len()))

	out := t.CloneShape(t.Len())
	out.Schema.HasState = true
	for i := range t.Records {
		row := t.Records[i]
		row.State = states[row.ZipCode]
		out.Records = append(out.Records, row)
	}
	return out
}

package analytics

import (
	"mlpulse/pkg/contracts/domain"
)

// Apply evaluates the filter against the expanded table and returns a fresh
// table holding the matching rows. The input is never mutated; adding
// constraints can only shrink the result.
func Apply(t *domain.Table, f domain.Filter) *domain.Table {
	out := t.CloneShape(t.Len())
	for i := range t.Records {
		if f.Matches(&t.Records[i]) {
			out.Records = append(out.Records, t.Records[i])
		}
	}
	return out
}

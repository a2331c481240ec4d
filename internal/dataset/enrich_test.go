package dataset

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlpulse/pkg/contracts/domain"
)

func ageTable(ages ...*float64) *domain.Table {
	t := &domain.Table{}
	for i, a := range ages {
		t.Records = append(t.Records, domain.RatingRecord{
			UserID:  int64(i + 1),
			ZipCode: "02134",
			Age:     a,
		})
	}
	return t
}

func ptr(v float64) *float64 { return &v }

func TestAddAgeGroup(t *testing.T) {
	tests := []struct {
		name    string
		age     *float64
		binSize int
		want    string
	}{
		{"bucket start", ptr(20), 10, "20-29"},
		{"bucket end", ptr(29), 10, "20-29"},
		{"next bucket boundary", ptr(30), 10, "30-39"},
		{"zero age", ptr(0), 10, "0-9"},
		{"missing age", nil, 10, ""},
		{"narrow bins", ptr(27), 5, "25-29"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// A high companion age keeps the computed bin range wide enough.
			table := ageTable(tt.age, ptr(60))
			out := AddAgeGroup(table, tt.binSize)
			assert.Equal(t, tt.want, out.Records[0].AgeGroup)
		})
	}
}

func TestAddAgeGroup_MaxAgeOnBucketBoundary(t *testing.T) {
	// The maximum observed age sitting exactly on a bucket edge still gets
	// a bucket of its own.
	out := AddAgeGroup(ageTable(ptr(30)), 10)
	assert.Equal(t, "30-39", out.Records[0].AgeGroup)
}

func TestAddAgeGroup_AllMissing(t *testing.T) {
	out := AddAgeGroup(ageTable(nil, nil), 10)
	for _, r := range out.Records {
		assert.Equal(t, "", r.AgeGroup)
	}
	assert.True(t, out.Schema.HasAgeGroup)
}

func TestAddAgeGroup_DoesNotMutateInput(t *testing.T) {
	table := ageTable(ptr(25))
	_ = AddAgeGroup(table, 10)
	assert.Equal(t, "", table.Records[0].AgeGroup)
	assert.False(t, table.Schema.HasAgeGroup)
}

type stubResolver struct {
	states map[string]string
	calls  int
}

func (s *stubResolver) Resolve(_ context.Context, zip string) (string, bool) {
	s.calls++
	state, ok := s.states[zip]
	return state, ok
}

func TestAddState(t *testing.T) {
	table := &domain.Table{Records: []domain.RatingRecord{
		{UserID: 1, ZipCode: "02134"},
		{UserID: 2, ZipCode: "02134"},
		{UserID: 3, ZipCode: "99999"},
	}}
	resolver := &stubResolver{states: map[string]string{"02134": "MA"}}

	out := AddState(context.Background(), table, resolver, slog.Default())

	require.Len(t, out.Records, 3)
	assert.Equal(t, "MA", out.Records[0].State)
	assert.Equal(t, "MA", out.Records[1].State)
	assert.Equal(t, "", out.Records[2].State)
	assert.True(t, out.Schema.HasState)

	// One resolve per distinct zip.
	assert.Equal(t, 2, resolver.calls)

	// Input untouched.
	assert.Equal(t, "", table.Records[0].State)
}

func TestAddState_Idempotent(t *testing.T) {
	table := &domain.Table{
		Records: []domain.RatingRecord{{UserID: 1, ZipCode: "02134", State: "MA"}},
		Schema:  domain.Schema{HasState: true},
	}
	resolver := &stubResolver{states: map[string]string{}}

	out := AddState(context.Background(), table, resolver, slog.Default())

	assert.Same(t, table, out)
	assert.Zero(t, resolver.calls)
}

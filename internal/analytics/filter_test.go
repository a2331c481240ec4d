package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mlpulse/pkg/contracts/domain"
)

func ptr(v float64) *float64 { return &v }

func sampleExpanded() *domain.Table {
	return &domain.Table{Records: []domain.RatingRecord{
		{UserID: 1, MovieID: 10, Rating: 4, Age: ptr(25), Gender: "M", Occupation: "engineer", Genres: "Action"},
		{UserID: 1, MovieID: 10, Rating: 4, Age: ptr(25), Gender: "M", Occupation: "engineer", Genres: "Comedy"},
		{UserID: 2, MovieID: 11, Rating: 5, Age: ptr(40), Gender: "F", Occupation: "artist", Genres: "Action"},
		{UserID: 3, MovieID: 12, Rating: 3, Age: nil, Gender: "F", Occupation: "other", Genres: "Drama"},
	}}
}

func TestApply(t *testing.T) {
	table := sampleExpanded()

	tests := []struct {
		name   string
		filter domain.Filter
		want   int
	}{
		{"no constraints", domain.Filter{}, 4},
		{"age range inclusive", domain.Filter{AgeMin: ptr(25), AgeMax: ptr(40)}, 3},
		{"age excludes missing", domain.Filter{AgeMin: ptr(0), AgeMax: ptr(100)}, 3},
		{"gender subset", domain.Filter{Genders: domain.Subset("F")}, 2},
		{"genre single-token membership", domain.Filter{Genres: domain.Subset("Action")}, 2},
		{"combined AND", domain.Filter{Genders: domain.Subset("F"), Genres: domain.Subset("Action")}, 1},
		{"explicit empty selection matches nothing", domain.Filter{Genders: domain.Subset()}, 0},
		{"occupation subset", domain.Filter{Occupations: domain.Subset("engineer")}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subset := Apply(table, tt.filter)
			assert.Equal(t, tt.want, subset.Len())
		})
	}
}

func TestApply_Monotone(t *testing.T) {
	table := sampleExpanded()

	loose := Apply(table, domain.Filter{AgeMin: ptr(0), AgeMax: ptr(100)})
	tight := Apply(table, domain.Filter{AgeMin: ptr(0), AgeMax: ptr(100), Genders: domain.Subset("F")})
	tighter := Apply(table, domain.Filter{AgeMin: ptr(30), AgeMax: ptr(100), Genders: domain.Subset("F")})

	assert.GreaterOrEqual(t, loose.Len(), tight.Len())
	assert.GreaterOrEqual(t, tight.Len(), tighter.Len())
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	table := sampleExpanded()
	before := table.Len()

	subset := Apply(table, domain.Filter{Genders: domain.Subset("F")})
	subset.Records[0].Gender = "X"

	assert.Equal(t, before, table.Len())
	assert.Equal(t, "M", table.Records[0].Gender)
}

func TestSelection(t *testing.T) {
	unconstrained := domain.Unconstrained()
	assert.False(t, unconstrained.Constrained())
	assert.True(t, unconstrained.Contains("anything"))
	assert.Nil(t, unconstrained.Values())

	empty := domain.Subset()
	assert.True(t, empty.Constrained())
	assert.False(t, empty.Contains("anything"))
	assert.Equal(t, []string{}, empty.Values())

	subset := domain.Subset("B", "A")
	assert.True(t, subset.Contains("A"))
	assert.False(t, subset.Contains("C"))
	assert.Equal(t, []string{"A", "B"}, subset.Values())
}

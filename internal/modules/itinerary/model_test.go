package itinerary

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSpec() TripSpec {
	return TripSpec{
		Departure:   "Lyon",
		Destination: "Bali",
		Duration:    10,
		Budget:      2500,
		Travelers:   2,
		Interests:   "plages, temples",
	}
}

func TestTripSpec_NormalizeDefaultsTravelers(t *testing.T) {
	s := validSpec()
	s.Travelers = 0
	s.Destination = "  Bali "
	s.Normalize()

	assert.Equal(t, 1, s.Travelers)
	assert.Equal(t, "Bali", s.Destination)
}

func TestTripSpec_Validate(t *testing.T) {
	cases := map[string]func(*TripSpec){
		"missing departure":   func(s *TripSpec) { s.Departure = " " },
		"missing destination": func(s *TripSpec) { s.Destination = "" },
		"zero duration":       func(s *TripSpec) { s.Duration = 0 },
		"negative budget":     func(s *TripSpec) { s.Budget = -10 },
		"no travelers":        func(s *TripSpec) { s.Travelers = 0 },
	}
	for name, mutate := range cases {
		s := validSpec()
		mutate(&s)
		err := s.Validate()
		assert.True(t, errors.Is(err, ErrValidation), name)
	}
	assert.NoError(t, validSpec().Validate())
}

func TestPatch_ApplyOnlyTouchesSetFields(t *testing.T) {
	p := Plan{TripSpec: validSpec(), GeneratedPlan: "Jour 1"}
	budget := 3000.0
	dest := " Lombok "
	Patch{Budget: &budget, Destination: &dest}.Apply(&p)

	assert.Equal(t, 3000.0, p.Budget)
	assert.Equal(t, "Lombok", p.Destination)
	assert.Equal(t, 10, p.Duration)
	assert.Equal(t, "Jour 1", p.GeneratedPlan)
}

func TestPlan_CloneDoesNotAliasStartDate(t *testing.T) {
	d := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	p := Plan{TripSpec: validSpec()}
	p.StartDate = &d

	c := p.Clone()
	*c.StartDate = c.StartDate.AddDate(0, 0, 3)

	assert.Equal(t, 1, p.StartDate.Day())
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-07-14")
	require.NoError(t, err)
	assert.Equal(t, "2026-07-14", d.Format(DateLayout))

	d, err = ParseDate("2026-07-14T18:30:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, "2026-07-14", d.Format(DateLayout))

	d, err = ParseDate("  ")
	require.NoError(t, err)
	assert.Nil(t, d)

	_, err = ParseDate("14 juillet")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPlan_SameContent(t *testing.T) {
	a := Plan{ID: "p", OwnerID: "o", TripSpec: validSpec(), GeneratedPlan: "x", Version: 1}
	b := a.Clone()
	b.Version = 7
	b.UpdatedAt = time.Now()
	assert.True(t, a.SameContent(b))

	b.GeneratedPlan = "y"
	assert.False(t, a.SameContent(b))
}

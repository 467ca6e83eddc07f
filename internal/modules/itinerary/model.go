// README: Itinerary plan aggregate, trip specification and partial updates.
package itinerary

import (
	"fmt"
	"math"
	"strings"
	"time"

	"voyage/internal/types"
)

// DateLayout is the calendar-date format used for start dates on the wire and in prompts.
const DateLayout = "2006-01-02"

// TripSpec is the user-supplied intent a plan is generated from.
type TripSpec struct {
	Departure   string
	Destination string
	Duration    int // days
	StartDate   *time.Time
	Budget      float64
	Travelers   int
	Interests   string
}

// Normalize trims free-text fields and applies the single-traveler default.
func (s *TripSpec) Normalize() {
	s.Departure = strings.TrimSpace(s.Departure)
	s.Destination = strings.TrimSpace(s.Destination)
	s.Interests = strings.TrimSpace(s.Interests)
	if s.Travelers == 0 {
		s.Travelers = 1
	}
}

// Validate reports the first invalid field, wrapped in ErrValidation.
func (s TripSpec) Validate() error {
	switch {
	case strings.TrimSpace(s.Departure) == "":
		return fmt.Errorf("%w: departure is required", ErrValidation)
	case strings.TrimSpace(s.Destination) == "":
		return fmt.Errorf("%w: destination is required", ErrValidation)
	case s.Duration < 1:
		return fmt.Errorf("%w: duration must be at least one day", ErrValidation)
	case s.Budget <= 0 || math.IsNaN(s.Budget) || math.IsInf(s.Budget, 0):
		return fmt.Errorf("%w: budget must be a positive amount", ErrValidation)
	case s.Travelers < 1:
		return fmt.Errorf("%w: travelers must be at least 1", ErrValidation)
	}
	return nil
}

// Plan is the persisted itinerary: the trip parameters plus the generated text.
type Plan struct {
	ID      types.ID
	OwnerID types.ID
	TripSpec
	GeneratedPlan string
	Version       int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Clone returns a deep copy so callers can mutate it without touching the original.
func (p Plan) Clone() Plan {
	if p.StartDate != nil {
		d := *p.StartDate
		p.StartDate = &d
	}
	return p
}

// SameContent compares the user-visible fields, ignoring version and timestamps.
func (p Plan) SameContent(o Plan) bool {
	return p.ID == o.ID &&
		p.OwnerID == o.OwnerID &&
		p.Departure == o.Departure &&
		p.Destination == o.Destination &&
		p.Duration == o.Duration &&
		sameDate(p.StartDate, o.StartDate) &&
		p.Budget == o.Budget &&
		p.Travelers == o.Travelers &&
		p.Interests == o.Interests &&
		p.GeneratedPlan == o.GeneratedPlan
}

func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Format(DateLayout) == b.Format(DateLayout)
}

// Patch holds a partial update; nil fields are left untouched.
type Patch struct {
	Departure     *string
	Destination   *string
	Duration      *int
	StartDate     *time.Time
	Budget        *float64
	Travelers     *int
	Interests     *string
	GeneratedPlan *string
}

func (p Patch) Apply(plan *Plan) {
	if p.Departure != nil {
		plan.Departure = strings.TrimSpace(*p.Departure)
	}
	if p.Destination != nil {
		plan.Destination = strings.TrimSpace(*p.Destination)
	}
	if p.Duration != nil {
		plan.Duration = *p.Duration
	}
	if p.StartDate != nil {
		d := *p.StartDate
		plan.StartDate = &d
	}
	if p.Budget != nil {
		plan.Budget = *p.Budget
	}
	if p.Travelers != nil {
		plan.Travelers = *p.Travelers
	}
	if p.Interests != nil {
		plan.Interests = strings.TrimSpace(*p.Interests)
	}
	if p.GeneratedPlan != nil {
		plan.GeneratedPlan = *p.GeneratedPlan
	}
}

// ParseDate accepts a calendar date or an RFC 3339 timestamp. Blank input yields nil.
func ParseDate(v string) (*time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	if d, err := time.Parse(DateLayout, v); err == nil {
		return &d, nil
	}
	ts, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, fmt.Errorf("%w: start date %q is not a date", ErrValidation, v)
	}
	d := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	return &d, nil
}

// README: Classification of model output and merge of updates into a plan.
package planner

import (
	"regexp"
	"unicode/utf8"

	"voyage/internal/modules/itinerary"
)

// FullPlanMinLength is the length, in characters, above which a reply is
// treated as a regenerated itinerary even without a day marker.
const FullPlanMinLength = 500

var dayMarker = regexp.MustCompile(`(?i)\b(?:jour|day)\s*1\b`)

// IsFullPlan decides whether visible text replaces the itinerary or is a side reply.
func IsFullPlan(text string) bool {
	return dayMarker.MatchString(text) || utf8.RuneCountInString(text) > FullPlanMinLength
}

// Outcome is the in-memory result of reconciliation; nothing is persisted yet.
type Outcome struct {
	Plan     itinerary.Plan
	Replaced bool
	// Applied lists the structured fields that changed value.
	Applied []string
}

// Reconcile merges one response into a copy of plan. Conversational replies
// leave the plan untouched. A full plan replaces the text and applies every
// sanitized update; fields that failed sanitization were dropped upstream and
// so keep their current value.
func Reconcile(plan itinerary.Plan, visible string, upd Updates) Outcome {
	next := plan.Clone()
	if !IsFullPlan(visible) {
		return Outcome{Plan: next}
	}

	next.GeneratedPlan = visible
	var applied []string
	if upd.Budget != nil && *upd.Budget != next.Budget {
		next.Budget = *upd.Budget
		applied = append(applied, FieldBudget)
	}
	if upd.Destination != nil && *upd.Destination != next.Destination {
		next.Destination = *upd.Destination
		applied = append(applied, FieldDestination)
	}
	if upd.Duration != nil && *upd.Duration != next.Duration {
		next.Duration = *upd.Duration
		applied = append(applied, FieldDuration)
	}
	if upd.StartDate != nil && (next.StartDate == nil || !next.StartDate.Equal(*upd.StartDate)) {
		d := *upd.StartDate
		next.StartDate = &d
		applied = append(applied, FieldStartDate)
	}
	if upd.Travelers != nil && *upd.Travelers != next.Travelers {
		next.Travelers = *upd.Travelers
		applied = append(applied, FieldTravelers)
	}
	return Outcome{Plan: next, Replaced: true, Applied: applied}
}

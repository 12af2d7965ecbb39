package widget

import (
	"github.com/NJonasFigge/fadable-calendar/period"
)

// holidayCategory is the category tag counted by HolidaysCount, compared
// case-insensitively.
const holidayCategory = "holiday"

// HolidaysCount counts the occurrences tagged as holidays in the period.
type HolidaysCount struct{}

func (*HolidaysCount) Name() string { return "holidays-count" }

func (*HolidaysCount) Value(p *period.Period) float64 {
	count := 0
	for _, occ := range p.Occurrences() {
		if occ.Event.HasCategory(holidayCategory) {
			count++
		}
	}
	return float64(count)
}

// Classify maps any non-zero holiday count to the positive token.
func (*HolidaysCount) Classify(value float64) Classification {
	if value >= 1 {
		return ClassPositive
	}
	return ClassNeutral
}

func (*HolidaysCount) HighlightClasses() []string {
	return []string{"event-holiday"}
}

// ExceptionsCount counts the recurrence exception instants falling inside
// the period.
type ExceptionsCount struct{}

func (*ExceptionsCount) Name() string { return "exceptions-count" }

func (*ExceptionsCount) Value(p *period.Period) float64 {
	return float64(len(p.ExceptionInstants()))
}

// Classify applies the tiered thresholds at 1 and 5 exceptions.
func (*ExceptionsCount) Classify(value float64) Classification {
	switch {
	case value >= 5:
		return ClassAlert
	case value >= 1:
		return ClassWarning
	default:
		return ClassNeutral
	}
}

func (*ExceptionsCount) HighlightClasses() []string {
	return []string{"event-exception"}
}

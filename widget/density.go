package widget

import (
	"github.com/NJonasFigge/fadable-calendar/period"
)

// Density classification thresholds. Below densityLow is "low", at or
// above densityHigh is "high", the half-open band between is "normal".
const (
	densityLow  = 0.8
	densityHigh = 1.5
)

// EventDensity measures the period's total occurrence count relative to
// the average of its lookback chain.
type EventDensity struct{}

func (*EventDensity) Name() string { return "event-density" }

// Value is the raw measured quantity: the total occurrence count. The
// lookback normalization happens in Evaluate.
func (*EventDensity) Value(p *period.Period) float64 {
	return float64(len(p.Occurrences()))
}

func (*EventDensity) Classify(density float64) Classification {
	switch {
	case density < densityLow:
		return ClassLow
	case density < densityHigh:
		return ClassNormal
	default:
		return ClassHigh
	}
}

func (*EventDensity) HighlightClasses() []string {
	return []string{"event"}
}

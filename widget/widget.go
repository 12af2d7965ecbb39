// Package widget computes summary metrics over a Period and classifies
// them into qualitative labels for the render layer.
package widget

import (
	"github.com/NJonasFigge/fadable-calendar/period"
)

// DefaultLookback is how many preceding periods density widgets compare
// against.
const DefaultLookback = 4

// Classification is the qualitative label a widget assigns to its value:
// a density level or a color token.
type Classification string

// Density levels.
const (
	ClassLow    Classification = "low"
	ClassNormal Classification = "normal"
	ClassHigh   Classification = "high"
)

// Count color tokens.
const (
	ClassNeutral  Classification = "neutral"
	ClassPositive Classification = "positive"
	ClassWarning  Classification = "warning"
	ClassAlert    Classification = "alert"
)

// Widget is one member of the sealed variant set. Widgets are stateless;
// they borrow Periods and never mutate them.
type Widget interface {
	// Name is a stable identifier used in markup class names.
	Name() string
	// Value computes the widget's core scalar over one period.
	Value(p *period.Period) float64
	// Classify maps a computed value to its qualitative label.
	Classify(value float64) Classification
	// HighlightClasses are the CSS class names highlighted on hover.
	HighlightClasses() []string
}

// Result is one evaluated (value, classification, highlights) triple.
type Result struct {
	Widget         string
	Value          float64
	Classification Classification
	Highlights     []string
}

// Evaluate computes a widget's result for the given period. Density
// variants are normalized against a lookback chain of prior periods
// resolved through the store; count variants use their raw value.
func Evaluate(w Widget, p *period.Period, store *period.Store, lookback int) (Result, error) {
	value := w.Value(p)

	if d, ok := w.(*EventDensity); ok {
		prior, err := store.Lookback(p, lookback)
		if err != nil {
			return Result{}, err
		}
		values := make([]float64, len(prior))
		for i, pp := range prior {
			values[i] = d.Value(pp)
		}
		value = Density(value, values)
	}

	return Result{
		Widget:         w.Name(),
		Value:          value,
		Classification: w.Classify(value),
		Highlights:     w.HighlightClasses(),
	}, nil
}

// Density normalizes a current value against the mean of the lookback
// values. An empty lookback and an all-zero lookback both yield 1.0, the
// neutral "unchanged" density, so there is never a division by zero.
func Density(current float64, lookback []float64) float64 {
	if len(lookback) == 0 {
		return 1.0
	}
	var sum float64
	for _, v := range lookback {
		sum += v
	}
	avg := sum / float64(len(lookback))
	if avg == 0 {
		return 1.0
	}
	return current / avg
}

// Defaults returns the standard widget set in display order.
func Defaults() []Widget {
	return []Widget{
		&EventDensity{},
		&HolidaysCount{},
		&ExceptionsCount{},
	}
}

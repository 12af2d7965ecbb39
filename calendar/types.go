package calendar

import (
	"fmt"
)

// Error types
type ErrorType string

const (
	ErrInvalidRecurrenceRule ErrorType = "invalid_recurrence_rule"
	ErrInvalidDateRange      ErrorType = "invalid_date_range"
	ErrAmbiguousTimezone     ErrorType = "ambiguous_timezone"
)

// Error represents a calendar-domain error
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Calendar is one parsed iCalendar source overlaid on the view.
// Events keep their source order; the projection layer relies on that
// order for deterministic layouts.
type Calendar struct {
	// Name is a human-friendly label for the source.
	Name string
	// Color is the calendar-level default color. Events without their own
	// COLOR property inherit it.
	Color string
	// Events are the parsed VEVENTs of this source, in document order.
	Events []Event
}

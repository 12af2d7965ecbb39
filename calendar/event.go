package calendar

import (
	"strings"
	"time"

	"github.com/samber/mo"
)

// ExDate is a single EXDATE instant of a recurring event. DateOnly marks
// exceptions that were specified as a bare calendar date; those match any
// occurrence on the same day rather than one exact instant.
type ExDate struct {
	Time     time.Time
	DateOnly bool
}

// Event is a read-only view over a parsed VEVENT. If RRule is present,
// Start is the recurrence anchor (DTSTART) and every generated occurrence
// ends at its start plus Duration().
type Event struct {
	UID   string
	Title string

	Start  time.Time
	End    time.Time
	AllDay bool

	// RRule is the raw RRULE value, without the "RRULE:" prefix.
	RRule mo.Option[string]
	// RDates are additional recurrence instants (RDATE).
	RDates []time.Time
	// ExDates are excluded instants (EXDATE).
	ExDates []ExDate
	// RecurrenceID marks an override instance of a recurring event.
	RecurrenceID mo.Option[time.Time]

	Categories []string
	// Color is the event-level COLOR property. It takes precedence over
	// the owning calendar's color.
	Color mo.Option[string]
}

// Duration is the fixed span carried onto every occurrence of the event.
func (e Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// HasCategory reports whether the event carries the given category tag,
// compared case-insensitively.
func (e Event) HasCategory(name string) bool {
	for _, c := range e.Categories {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}

// ResolvedColor returns the event's display color: the event COLOR if set,
// otherwise the calendar color.
func (e Event) ResolvedColor(calColor string) string {
	if c, ok := e.Color.Get(); ok && c != "" {
		return c
	}
	return calColor
}

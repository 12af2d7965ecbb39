package recurrence

import (
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/NJonasFigge/fadable-calendar/calendar"
)

// Engine expands an event's recurrence rule plus exception dates into
// concrete occurrence start instants within a bounded window.
type Engine struct{}

// NewEngine creates a new recurrence engine instance
func NewEngine() *Engine {
	return &Engine{}
}

// Result holds the outcome of expanding one event over a window.
type Result struct {
	// Starts are the occurrence start instants inside the window, in
	// ascending order. Each occurrence's end is its start plus the
	// event's fixed duration.
	Starts []time.Time
	// Exceptions are the rule-generated instants inside the window that
	// were removed by the event's exception set. They are surfaced
	// separately so exception-count widgets can see them; they are never
	// merged into Starts.
	Exceptions []time.Time
}

// Expand materializes the event's occurrence starts within
// [windowStart, windowEnd] inclusive.
//
// Non-recurring events contribute their single start instant when the
// event's span overlaps the window; splitting a multi-day span into days
// is the caller's job. Recurring events are expanded from the raw RRULE
// anchored at the event's start, merged with RDATE instants, and filtered
// against EXDATE at matching precision. Malformed rule text is a hard
// error for this event.
func (e *Engine) Expand(ev calendar.Event, windowStart, windowEnd time.Time) (Result, error) {
	var result Result

	if windowEnd.Before(windowStart) {
		return result, &calendar.Error{
			Type:    calendar.ErrInvalidDateRange,
			Message: "window end is before window start",
		}
	}

	rruleText, recurring := ev.RRule.Get()
	if !recurring {
		if timeRangesOverlap(ev.Start, ev.End, windowStart, windowEnd) {
			result.Starts = append(result.Starts, ev.Start)
		}
		return result, nil
	}

	candidates, err := e.expandRule(ev.Start, rruleText, windowStart, windowEnd)
	if err != nil {
		return result, err
	}
	candidates = mergeRDates(candidates, ev.RDates, windowStart, windowEnd)

	for _, inst := range candidates {
		if e.isExcluded(inst, ev.ExDates) {
			result.Exceptions = append(result.Exceptions, inst)
			continue
		}
		result.Starts = append(result.Starts, inst)
	}

	return result, nil
}

// expandRule expands a raw RRULE within the given time range, anchored at
// the event's original start instant.
func (e *Engine) expandRule(anchor time.Time, rruleText string, windowStart, windowEnd time.Time) ([]time.Time, error) {
	r, err := rrule.StrToRRule(rruleText)
	if err != nil {
		return nil, &calendar.Error{
			Type:    calendar.ErrInvalidRecurrenceRule,
			Message: "failed to parse RRULE " + rruleText,
			Err:     err,
		}
	}
	r.DTStart(anchor)

	var set rrule.Set
	set.RRule(r)

	// Between wants the range in the anchor's location; inclusive of both
	// endpoints.
	rangeStart := windowStart.In(anchor.Location())
	rangeEnd := windowEnd.In(anchor.Location())
	return set.Between(rangeStart, rangeEnd, true), nil
}

// mergeRDates folds in-window RDATE instants into the generated sequence,
// keeping ascending order and dropping duplicates.
func mergeRDates(starts []time.Time, rdates []time.Time, windowStart, windowEnd time.Time) []time.Time {
	if len(rdates) == 0 {
		return starts
	}

	for _, rd := range rdates {
		if rd.Before(windowStart) || rd.After(windowEnd) {
			continue
		}
		dup := false
		for _, s := range starts {
			if s.Equal(rd) {
				dup = true
				break
			}
		}
		if !dup {
			starts = append(starts, rd)
		}
	}

	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })
	return starts
}

// isExcluded checks if a given instant is removed by the EXDATE set.
// Date-only exceptions match any occurrence on the same calendar day in
// the exception's location; time-bearing exceptions require exact
// instant equality.
func (e *Engine) isExcluded(t time.Time, exdates []calendar.ExDate) bool {
	for _, ex := range exdates {
		if ex.DateOnly {
			local := t.In(ex.Time.Location())
			ly, lm, ld := local.Date()
			ey, em, ed := ex.Time.Date()
			if ly == ey && lm == em && ld == ed {
				return true
			}
			continue
		}
		if t.Equal(ex.Time) {
			return true
		}
	}
	return false
}

func timeRangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	if aEnd.Before(bStart) {
		return false
	}
	if bEnd.Before(aStart) {
		return false
	}
	return true
}

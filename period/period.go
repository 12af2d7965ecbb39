package period

import (
	"fmt"
	"sort"
	"time"

	"github.com/NJonasFigge/fadable-calendar/calendar"
	"github.com/NJonasFigge/fadable-calendar/recurrence"
)

// Type identifies the kind of display window a Period covers.
type Type string

// Type constants for the supported display windows.
const (
	TypeWeek  Type = "week"
	TypeMonth Type = "month"
	TypeYear  Type = "year"
)

// Valid returns true if the type is a recognized value.
func (t Type) Valid() bool {
	switch t {
	case TypeWeek, TypeMonth, TypeYear:
		return true
	default:
		return false
	}
}

const minutesPerDay = 24 * 60

// Occurrence is one concrete instance of an event projected onto a single
// day of a period window, in day-local minute coordinates.
type Occurrence struct {
	// Date is midnight of the day this occurrence falls on.
	Date time.Time
	// StartMinutes/EndMinutes are minutes into the day, clipped to
	// [0, 1440]. An occurrence spanning midnight is split per day.
	StartMinutes int
	EndMinutes   int

	Event        calendar.Event
	CalendarName string
	// Color is the resolved display color: event color over calendar color.
	Color string
}

// Diagnostic records a per-event expansion failure. One broken event never
// prevents the rest of the period from materializing.
type Diagnostic struct {
	UID          string
	CalendarName string
	Err          error
}

// Period is one immutable display window over a set of calendars. All
// occurrences and in-window exception instants are computed once at
// construction; every accessor afterwards is a side-effect-free read.
type Period struct {
	typ         Type
	start       time.Time // midnight of the first day
	end         time.Time // midnight of the last day (inclusive)
	startOfWeek int
	calendars   []calendar.Calendar

	occurrences []Occurrence
	exceptions  []time.Time
	diags       []Diagnostic
}

// FromAnchorDate creates the Period of the given type containing anchor.
// startOfWeek is the weekday the week starts on, 0 = Monday through
// 6 = Sunday; it only affects week periods. The anchor's location defines
// the day boundaries of the window.
func FromAnchorDate(typ Type, anchor time.Time, startOfWeek int, calendars []calendar.Calendar) (*Period, error) {
	if !typ.Valid() {
		return nil, &calendar.Error{
			Type:    calendar.ErrInvalidDateRange,
			Message: fmt.Sprintf("unknown period type %q", typ),
		}
	}
	if startOfWeek < 0 || startOfWeek > 6 {
		return nil, &calendar.Error{
			Type:    calendar.ErrInvalidDateRange,
			Message: fmt.Sprintf("start of week %d outside [0,6]", startOfWeek),
		}
	}

	start := canonicalStart(typ, anchor, startOfWeek)
	return fromStart(typ, start, startOfWeek, calendars), nil
}

// fromStart builds a period whose start date is already canonical.
func fromStart(typ Type, start time.Time, startOfWeek int, calendars []calendar.Calendar) *Period {
	p := &Period{
		typ:         typ,
		start:       start,
		end:         periodEnd(typ, start),
		startOfWeek: startOfWeek,
		calendars:   calendars,
	}
	p.compute()
	return p
}

// Type returns the period's window kind.
func (p *Period) Type() Type { return p.typ }

// StartDate returns midnight of the first day of the window.
func (p *Period) StartDate() time.Time { return p.start }

// EndDate returns midnight of the last (inclusive) day of the window.
func (p *Period) EndDate() time.Time { return p.end }

// Days lists every day of the window as midnight instants.
func (p *Period) Days() []time.Time {
	var days []time.Time
	for d := p.start; !d.After(p.end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Occurrences returns every occurrence in the window, sorted by
// (date, start minutes, end minutes) with source order breaking ties.
// This ordering is load-bearing for deterministic row assignment.
func (p *Period) Occurrences() []Occurrence { return p.occurrences }

// OccurrencesOn returns the occurrences falling on the given day, in the
// same deterministic order as Occurrences.
func (p *Period) OccurrencesOn(day time.Time) []Occurrence {
	y, m, d := day.Date()
	var out []Occurrence
	for _, occ := range p.occurrences {
		oy, om, od := occ.Date.Date()
		if oy == y && om == m && od == d {
			out = append(out, occ)
		}
	}
	return out
}

// ExceptionInstants returns the recurrence exception instants falling
// inside the window, ascending and deduplicated.
func (p *Period) ExceptionInstants() []time.Time { return p.exceptions }

// Diagnostics returns the per-event expansion failures collected while
// the period was materialized.
func (p *Period) Diagnostics() []Diagnostic { return p.diags }

// Previous returns a new Period one full span earlier. It shares no
// mutable state with the receiver.
func (p *Period) Previous() *Period {
	return fromStart(p.typ, p.shift(-1), p.startOfWeek, p.calendars)
}

// Next returns a new Period one full span later.
func (p *Period) Next() *Period {
	return fromStart(p.typ, p.shift(1), p.startOfWeek, p.calendars)
}

// shift returns the canonical start date n spans away. Month and year
// spans follow the calendar length of the new period, so navigating over
// short months and leap years stays exact.
func (p *Period) shift(n int) time.Time {
	switch p.typ {
	case TypeWeek:
		return p.start.AddDate(0, 0, 7*n)
	case TypeMonth:
		return p.start.AddDate(0, n, 0)
	default:
		return p.start.AddDate(n, 0, 0)
	}
}

// compute materializes occurrences and exception instants for the window.
// Expansion and exception discovery are two outputs of the same pass over
// the cached result; nothing here mutates after construction.
func (p *Period) compute() {
	engine := recurrence.NewEngine()
	windowStart := p.start
	windowEnd := p.end.AddDate(0, 0, 1).Add(-time.Nanosecond)

	for _, cal := range p.calendars {
		for _, ev := range cal.Events {
			res, err := engine.Expand(ev, windowStart, windowEnd)
			if err != nil {
				p.diags = append(p.diags, Diagnostic{
					UID:          ev.UID,
					CalendarName: cal.Name,
					Err:          err,
				})
				continue
			}
			for _, s := range res.Starts {
				p.appendClipped(ev, cal, s)
			}
			for _, ex := range res.Exceptions {
				p.addException(ex)
			}
		}
	}

	sort.SliceStable(p.occurrences, func(i, j int) bool {
		a, b := p.occurrences[i], p.occurrences[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.StartMinutes != b.StartMinutes {
			return a.StartMinutes < b.StartMinutes
		}
		return a.EndMinutes < b.EndMinutes
	})
	sort.Slice(p.exceptions, func(i, j int) bool {
		return p.exceptions[i].Before(p.exceptions[j])
	})
}

// appendClipped projects one occurrence start instant onto the window's
// days, clamping midnight-spanning occurrences to [0, 1440] per day.
func (p *Period) appendClipped(ev calendar.Event, cal calendar.Calendar, start time.Time) {
	loc := p.start.Location()
	s := start.In(loc)
	occEnd := s.Add(ev.Duration())

	for day := p.start; !day.After(p.end); day = day.AddDate(0, 0, 1) {
		dayEnd := day.AddDate(0, 0, 1)
		if !s.Before(dayEnd) {
			continue // begins on a later day
		}
		if occEnd.Before(day) || (occEnd.Equal(day) && occEnd.After(s)) {
			break // ended before this day began
		}

		startMin := 0
		if s.After(day) {
			startMin = clampMinutes(int(s.Sub(day).Minutes()))
		}
		endMin := minutesPerDay
		if occEnd.Before(dayEnd) {
			endMin = clampMinutes(int(occEnd.Sub(day).Minutes()))
		}
		if endMin < startMin {
			endMin = startMin
		}

		p.occurrences = append(p.occurrences, Occurrence{
			Date:         day,
			StartMinutes: startMin,
			EndMinutes:   endMin,
			Event:        ev,
			CalendarName: cal.Name,
			Color:        ev.ResolvedColor(cal.Color),
		})
	}
}

func (p *Period) addException(inst time.Time) {
	for _, e := range p.exceptions {
		if e.Equal(inst) {
			return
		}
	}
	p.exceptions = append(p.exceptions, inst)
}

func clampMinutes(m int) int {
	if m < 0 {
		return 0
	}
	if m > minutesPerDay {
		return minutesPerDay
	}
	return m
}

// canonicalStart computes the canonical start date of the period of the
// given type containing anchor.
func canonicalStart(typ Type, anchor time.Time, startOfWeek int) time.Time {
	y, m, d := anchor.Date()
	loc := anchor.Location()
	day := time.Date(y, m, d, 0, 0, 0, 0, loc)

	switch typ {
	case TypeWeek:
		// Weekday with Monday = 0, matching the startOfWeek convention.
		weekday := (int(day.Weekday()) + 6) % 7
		delta := ((weekday-startOfWeek)%7 + 7) % 7
		return day.AddDate(0, 0, -delta)
	case TypeMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc)
	default:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
	}
}

// periodEnd returns midnight of the last day of the period starting at
// the given canonical start.
func periodEnd(typ Type, start time.Time) time.Time {
	switch typ {
	case TypeWeek:
		return start.AddDate(0, 0, 6)
	case TypeMonth:
		return start.AddDate(0, 1, 0).AddDate(0, 0, -1)
	default:
		return start.AddDate(1, 0, 0).AddDate(0, 0, -1)
	}
}

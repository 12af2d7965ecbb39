package calendar

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
	"github.com/samber/mo"
)

const (
	propColor           = "COLOR"
	propAppleCalColor   = "X-APPLE-CALENDAR-COLOR"
	propRecurrenceID    = "RECURRENCE-ID"
	defaultEventTitle   = "Untitled"
	defaultCalendarName = "Calendar"
)

// Decode parses a single ICS payload into a Calendar view. Individual
// VEVENTs that cannot be interpreted are skipped; the calendar as a whole
// only fails when the payload itself is undecodable.
func Decode(r io.Reader, name string) (*Calendar, error) {
	cal, err := ical.NewDecoder(r).Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to decode calendar: %w", err)
	}

	if name == "" {
		name = defaultCalendarName
		if p := cal.Props.Get("X-WR-CALNAME"); p != nil && p.Value != "" {
			name = p.Value
		}
	}

	out := &Calendar{
		Name:  name,
		Color: calendarColor(cal),
	}

	for _, ve := range cal.Events() {
		ev, err := parseEvent(ve)
		if err != nil {
			// Skip the broken VEVENT, keep the rest of the source.
			continue
		}
		out.Events = append(out.Events, ev)
	}

	return out, nil
}

// DecodeString is a convenience wrapper for in-memory ICS payloads.
func DecodeString(ics, name string) (*Calendar, error) {
	return Decode(strings.NewReader(ics), name)
}

// calendarColor returns the calendar-level default color, preferring the
// RFC 7986 COLOR property over the Apple extension.
func calendarColor(cal *ical.Calendar) string {
	if p := cal.Props.Get(propColor); p != nil && p.Value != "" {
		return p.Value
	}
	if p := cal.Props.Get(propAppleCalColor); p != nil && p.Value != "" {
		return p.Value
	}
	return ""
}

func parseEvent(ve ical.Event) (Event, error) {
	var out Event

	if p := ve.Props.Get(ical.PropUID); p != nil && p.Value != "" {
		out.UID = p.Value
	} else {
		// Deterministic identity is not possible without a UID; mint one
		// so downstream keys stay unique.
		out.UID = uuid.NewString()
	}

	out.Title = defaultEventTitle
	if p := ve.Props.Get(ical.PropSummary); p != nil && p.Value != "" {
		out.Title = p.Value
	}

	start, end, allDay, err := extractTimes(ve)
	if err != nil {
		return out, err
	}
	out.Start = start
	out.End = end
	out.AllDay = allDay

	if p := ve.Props.Get(ical.PropRecurrenceRule); p != nil && p.Value != "" {
		out.RRule = mo.Some(p.Value)
	}

	for _, p := range ve.Props.Values(ical.PropRecurrenceDates) {
		for _, rd := range parseDateList(p.Value, p.Params, start.Location()) {
			out.RDates = append(out.RDates, rd.Time)
		}
	}

	for _, p := range ve.Props.Values(ical.PropExceptionDates) {
		out.ExDates = append(out.ExDates, parseDateList(p.Value, p.Params, start.Location())...)
	}

	if p := ve.Props.Get(propRecurrenceID); p != nil && p.Value != "" {
		if rid, ok := parseInstant(p.Value, p.Params, start.Location()); ok {
			out.RecurrenceID = mo.Some(rid.Time)
		}
	}

	for _, p := range ve.Props.Values(ical.PropCategories) {
		for _, c := range strings.Split(p.Value, ",") {
			c = strings.TrimSpace(c)
			if c != "" {
				out.Categories = append(out.Categories, c)
			}
		}
	}

	if p := ve.Props.Get(propColor); p != nil && p.Value != "" {
		out.Color = mo.Some(p.Value)
	}

	return out, nil
}

// extractTimes derives the event's start and end instants.
//
//   - DTEND wins when present; a same-date all-day DTEND is stretched to
//     the start of the next day.
//   - Otherwise DURATION is applied to DTSTART.
//   - Otherwise all-day events default to one day, timed events to an
//     instantaneous span.
func extractTimes(ve ical.Event) (start, end time.Time, allDay bool, err error) {
	dtstart := ve.Props.Get(ical.PropDateTimeStart)
	if dtstart == nil {
		return start, end, false, fmt.Errorf("missing DTSTART")
	}
	allDay = isDateOnlyProp(dtstart.Params, dtstart.Value)

	start, err = ve.Props.DateTime(ical.PropDateTimeStart, nil)
	if err != nil {
		return start, end, allDay, fmt.Errorf("invalid DTSTART: %w", err)
	}

	if dtend, derr := ve.Props.DateTime(ical.PropDateTimeEnd, nil); derr == nil && !dtend.IsZero() {
		end = dtend
		sy, sm, sd := start.Date()
		ey, em, ed := end.Date()
		if allDay && sy == ey && sm == em && sd == ed {
			end = start.AddDate(0, 0, 1)
		}
		return start, end, allDay, nil
	}

	if durProp := ve.Props.Get(ical.PropDuration); durProp != nil {
		dur, derr := durProp.Duration()
		if derr != nil {
			return start, end, allDay, fmt.Errorf("invalid DURATION: %w", derr)
		}
		return start, start.Add(dur), allDay, nil
	}

	if allDay {
		return start, start.AddDate(0, 0, 1), allDay, nil
	}
	return start, start, allDay, nil
}

// isDateOnlyProp reports whether a date property carries a bare DATE value
// (VALUE=DATE parameter, or a value without a time part).
func isDateOnlyProp(params map[string][]string, value string) bool {
	if params != nil {
		if vs := params["VALUE"]; len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			return true
		}
	}
	return !strings.Contains(value, "T")
}

// parseDateList parses a comma-separated EXDATE/RDATE value into instants.
// Values without a resolvable TZID fall back to the event's own location.
func parseDateList(value string, params map[string][]string, eventLoc *time.Location) []ExDate {
	if value == "" {
		return nil
	}

	var out []ExDate
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if inst, ok := parseInstant(part, params, eventLoc); ok {
			out = append(out, inst)
		}
	}
	return out
}

// parseInstant parses one iCalendar date or date-time string.
func parseInstant(value string, params map[string][]string, eventLoc *time.Location) (ExDate, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return ExDate{}, false
	}

	loc := eventLoc
	if loc == nil {
		loc = time.UTC
	}
	if params != nil {
		if tzids := params["TZID"]; len(tzids) > 0 && tzids[0] != "" {
			if l, err := time.LoadLocation(tzids[0]); err == nil {
				loc = l
			}
			// Unresolvable TZID keeps the event's own location. That is
			// the ambiguous-timezone fallback and is not fatal.
		}
	}

	if isDateOnlyProp(params, value) {
		t, err := time.ParseInLocation("20060102", value, loc)
		if err != nil {
			return ExDate{}, false
		}
		return ExDate{Time: t, DateOnly: true}, true
	}

	if strings.HasSuffix(value, "Z") {
		t, err := time.Parse("20060102T150405Z", value)
		if err != nil {
			return ExDate{}, false
		}
		return ExDate{Time: t}, true
	}

	t, err := time.ParseInLocation("20060102T150405", value, loc)
	if err != nil {
		return ExDate{}, false
	}
	return ExDate{Time: t}, true
}

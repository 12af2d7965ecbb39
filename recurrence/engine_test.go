package recurrence

import (
	"errors"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NJonasFigge/fadable-calendar/calendar"
)

func timedEvent(start, end time.Time) calendar.Event {
	return calendar.Event{
		UID:   "evt-1",
		Title: "Test",
		Start: start,
		End:   end,
	}
}

func TestEngine_Expand_NonRecurring(t *testing.T) {
	engine := NewEngine()

	start := time.Date(2024, 1, 3, 14, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 3, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		windowStart time.Time
		windowEnd   time.Time
		wantStarts  int
	}{
		{
			name:        "start inside window",
			windowStart: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			windowEnd:   time.Date(2024, 1, 7, 23, 59, 59, 0, time.UTC),
			wantStarts:  1,
		},
		{
			name:        "entirely before window",
			windowStart: time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC),
			windowEnd:   time.Date(2024, 1, 10, 23, 59, 59, 0, time.UTC),
			wantStarts:  0,
		},
		{
			name:        "entirely after window",
			windowStart: time.Date(2023, 12, 25, 0, 0, 0, 0, time.UTC),
			windowEnd:   time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC),
			wantStarts:  0,
		},
		{
			name:        "span overlaps window start",
			windowStart: time.Date(2024, 1, 3, 14, 30, 0, 0, time.UTC),
			windowEnd:   time.Date(2024, 1, 9, 23, 59, 59, 0, time.UTC),
			wantStarts:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := engine.Expand(timedEvent(start, end), tt.windowStart, tt.windowEnd)
			require.NoError(t, err)
			assert.Len(t, res.Starts, tt.wantStarts)
			assert.Empty(t, res.Exceptions)
			if tt.wantStarts == 1 {
				assert.True(t, res.Starts[0].Equal(start), "expected the event start, got %v", res.Starts[0])
			}
		})
	}
}

func TestEngine_Expand_DailyWithDateOnlyExdate(t *testing.T) {
	engine := NewEngine()

	// Daily 09:00-09:30 from Jan 1, EXDATE Jan 3 (date-only).
	ev := timedEvent(
		time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC),
	)
	ev.RRule = mo.Some("FREQ=DAILY")
	ev.ExDates = []calendar.ExDate{
		{Time: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), DateOnly: true},
	}

	windowStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	windowEnd := time.Date(2024, 1, 7, 23, 59, 59, 0, time.UTC)

	res, err := engine.Expand(ev, windowStart, windowEnd)
	require.NoError(t, err)

	require.Len(t, res.Starts, 6)
	excluded := time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC)
	for _, s := range res.Starts {
		assert.False(t, s.Equal(excluded), "excluded instant %v was returned", s)
	}

	require.Len(t, res.Exceptions, 1)
	assert.True(t, res.Exceptions[0].Equal(excluded))
}

func TestEngine_Expand_ExactInstantExdate(t *testing.T) {
	engine := NewEngine()

	ev := timedEvent(
		time.Date(2024, 2, 5, 10, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 5, 11, 0, 0, 0, time.UTC),
	)
	ev.RRule = mo.Some("FREQ=WEEKLY;COUNT=3;BYDAY=MO")
	ev.ExDates = []calendar.ExDate{
		{Time: time.Date(2024, 2, 12, 10, 0, 0, 0, time.UTC)},
		// Same day but different time must not match at exact precision.
		{Time: time.Date(2024, 2, 19, 8, 0, 0, 0, time.UTC)},
	}

	res, err := engine.Expand(ev,
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, res.Starts, 2)
	assert.True(t, res.Starts[0].Equal(time.Date(2024, 2, 5, 10, 0, 0, 0, time.UTC)))
	assert.True(t, res.Starts[1].Equal(time.Date(2024, 2, 19, 10, 0, 0, 0, time.UTC)))
	require.Len(t, res.Exceptions, 1)
	assert.True(t, res.Exceptions[0].Equal(time.Date(2024, 2, 12, 10, 0, 0, 0, time.UTC)))
}

func TestEngine_Expand_RDateMerge(t *testing.T) {
	engine := NewEngine()

	ev := timedEvent(
		time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 4, 13, 0, 0, 0, time.UTC),
	)
	ev.RRule = mo.Some("FREQ=WEEKLY;COUNT=2")
	ev.RDates = []time.Time{
		time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC),
		// Duplicate of a rule-generated instant, must not double up.
		time.Date(2024, 3, 11, 12, 0, 0, 0, time.UTC),
		// Outside the window, must be dropped.
		time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC),
	}

	res, err := engine.Expand(ev,
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC))
	require.NoError(t, err)

	require.Len(t, res.Starts, 3)
	assert.True(t, res.Starts[0].Equal(time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)))
	assert.True(t, res.Starts[1].Equal(time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC)))
	assert.True(t, res.Starts[2].Equal(time.Date(2024, 3, 11, 12, 0, 0, 0, time.UTC)))
}

func TestEngine_Expand_MalformedRule(t *testing.T) {
	engine := NewEngine()

	ev := timedEvent(
		time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
	)
	ev.RRule = mo.Some("FREQ=SOMETIMES")

	_, err := engine.Expand(ev,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 7, 23, 59, 59, 0, time.UTC))
	require.Error(t, err)

	var calErr *calendar.Error
	require.True(t, errors.As(err, &calErr))
	assert.Equal(t, calendar.ErrInvalidRecurrenceRule, calErr.Type)
}

func TestEngine_Expand_InvalidWindow(t *testing.T) {
	engine := NewEngine()

	ev := timedEvent(
		time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
	)

	_, err := engine.Expand(ev,
		time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)

	var calErr *calendar.Error
	require.True(t, errors.As(err, &calErr))
	assert.Equal(t, calendar.ErrInvalidDateRange, calErr.Type)
}

package period

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NJonasFigge/fadable-calendar/calendar"
)

func TestStore_GetMemoizes(t *testing.T) {
	store, err := NewStore(nil, 0)
	require.NoError(t, err)

	p1, err := store.Get(TypeWeek, utcDate(2024, time.January, 1))
	require.NoError(t, err)
	// A different anchor inside the same week hits the same entry.
	p2, err := store.Get(TypeWeek, utcDate(2024, time.January, 4))
	require.NoError(t, err)
	assert.Same(t, p1, p2)

	p3, err := store.Get(TypeWeek, utcDate(2024, time.January, 8))
	require.NoError(t, err)
	assert.NotSame(t, p1, p3)

	stats := store.Stats()
	assert.Equal(t, 2, stats.CachedPeriods)
	assert.Equal(t, 0, stats.Calendars)
}

func TestStore_GetInvalidType(t *testing.T) {
	store, err := NewStore(nil, 0)
	require.NoError(t, err)

	_, err = store.Get(Type("fortnight"), utcDate(2024, time.January, 1))
	require.Error(t, err)
	var calErr *calendar.Error
	require.True(t, errors.As(err, &calErr))
	assert.Equal(t, calendar.ErrInvalidDateRange, calErr.Type)
}

func TestNewStore_InvalidStartOfWeek(t *testing.T) {
	_, err := NewStore(nil, -1)
	require.Error(t, err)
	_, err = NewStore(nil, 7)
	require.Error(t, err)
}

func TestStore_ConcurrentGetSameKey(t *testing.T) {
	store, err := NewStore(nil, 0)
	require.NoError(t, err)

	const workers = 16
	results := make([]*Period, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := store.Get(TypeWeek, utcDate(2024, time.January, 3))
			assert.NoError(t, err)
			results[i] = p
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		assert.Same(t, results[0], results[i])
	}
	assert.Equal(t, 1, store.Stats().CachedPeriods)
}

func TestStore_Lookback(t *testing.T) {
	store, err := NewStore(nil, 0)
	require.NoError(t, err)

	current, err := store.Get(TypeWeek, utcDate(2024, time.January, 29))
	require.NoError(t, err)

	prevs, err := store.Lookback(current, 4)
	require.NoError(t, err)
	require.Len(t, prevs, 4)

	wantStarts := []time.Time{
		utcDate(2024, time.January, 22),
		utcDate(2024, time.January, 15),
		utcDate(2024, time.January, 8),
		utcDate(2024, time.January, 1),
	}
	for i, p := range prevs {
		assert.True(t, p.StartDate().Equal(wantStarts[i]), "lookback %d: got %v", i, p.StartDate())
	}

	// The lookback periods are now cached alongside the current one.
	assert.Equal(t, 5, store.Stats().CachedPeriods)
	again, err := store.Get(TypeWeek, utcDate(2024, time.January, 22))
	require.NoError(t, err)
	assert.Same(t, prevs[0], again)
}

func TestStore_AddCalendarInvalidates(t *testing.T) {
	store, err := NewStore(nil, 0)
	require.NoError(t, err)

	before, err := store.Get(TypeWeek, utcDate(2024, time.January, 1))
	require.NoError(t, err)
	assert.Empty(t, before.Occurrences())

	store.AddCalendar(calendar.Calendar{Name: "Work", Events: []calendar.Event{{
		UID:   "meeting",
		Title: "Meeting",
		Start: time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 2, 11, 0, 0, 0, time.UTC),
	}}})

	assert.Equal(t, 0, store.Stats().CachedPeriods)
	assert.Equal(t, 1, store.Stats().Calendars)

	after, err := store.Get(TypeWeek, utcDate(2024, time.January, 1))
	require.NoError(t, err)
	assert.NotSame(t, before, after)
	require.Len(t, after.Occurrences(), 1)
	assert.Equal(t, "meeting", after.Occurrences()[0].Event.UID)
}

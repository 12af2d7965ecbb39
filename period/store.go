package period

import (
	"sync"
	"time"

	"github.com/NJonasFigge/fadable-calendar/calendar"
)

// Store memoizes Period instances keyed by (type, canonical start date).
// It owns every Period it hands out; borrowers must never mutate them.
// Reads and writes of the same key are serialized so concurrent requests
// never duplicate an expansion, while distinct keys compute in parallel.
type Store struct {
	mu          sync.Mutex
	entries     map[storeKey]*storeEntry
	calendars   []calendar.Calendar
	startOfWeek int
}

type storeKey struct {
	Typ   Type
	Start string // canonical start date, ISO form
}

type storeEntry struct {
	once   sync.Once
	period *Period
	err    error
}

// NewStore creates a Store over the given calendars.
func NewStore(calendars []calendar.Calendar, startOfWeek int) (*Store, error) {
	if startOfWeek < 0 || startOfWeek > 6 {
		return nil, &calendar.Error{
			Type:    calendar.ErrInvalidDateRange,
			Message: "start of week outside [0,6]",
		}
	}
	return &Store{
		entries:     make(map[storeKey]*storeEntry),
		calendars:   calendars,
		startOfWeek: startOfWeek,
	}, nil
}

// Get creates or retrieves the Period of the given type containing
// anchor. Anchors inside the same window map to the same cached Period.
func (s *Store) Get(typ Type, anchor time.Time) (*Period, error) {
	if !typ.Valid() {
		return nil, &calendar.Error{
			Type:    calendar.ErrInvalidDateRange,
			Message: "unknown period type " + string(typ),
		}
	}

	start := canonicalStart(typ, anchor, s.startOfWeek)
	key := storeKey{Typ: typ, Start: start.Format("2006-01-02")}

	s.mu.Lock()
	entry, ok := s.entries[key]
	if !ok {
		entry = &storeEntry{}
		s.entries[key] = entry
	}
	calendars := s.calendars
	s.mu.Unlock()

	entry.once.Do(func() {
		entry.period, entry.err = FromAnchorDate(typ, start, s.startOfWeek, calendars)
	})
	return entry.period, entry.err
}

// Lookback returns the n periods immediately preceding p, oldest last,
// each resolved through the store's cache.
func (s *Store) Lookback(p *Period, n int) ([]*Period, error) {
	out := make([]*Period, 0, n)
	current := p
	for i := 0; i < n; i++ {
		prev, err := s.Get(current.Type(), current.shift(-1))
		if err != nil {
			return nil, err
		}
		out = append(out, prev)
		current = prev
	}
	return out, nil
}

// AddCalendar appends a calendar source. Cached periods were computed
// without it, so the memo is dropped; keys repopulate on next access.
func (s *Store) AddCalendar(cal calendar.Calendar) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calendars = append(s.calendars, cal)
	s.entries = make(map[storeKey]*storeEntry)
}

// Stats returns store statistics.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		CachedPeriods: len(s.entries),
		Calendars:     len(s.calendars),
	}
}

// Stats provides information about the store's contents.
type Stats struct {
	CachedPeriods int
	Calendars     int
}

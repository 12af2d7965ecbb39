// Package layout assigns same-day occurrences to vertical display rows so
// that no two occurrences in one row overlap in time.
package layout

import (
	"github.com/NJonasFigge/fadable-calendar/period"
)

// AssignRows packs the given occurrences of one day into the minimum
// number of display rows using greedy interval partitioning. The input
// must be sorted by start minutes (the order Period.OccurrencesOn
// produces); the greedy first-free-row scan is then optimal and
// deterministic.
//
// rows[i] is the row index of occurrences[i]. totalRows is at least 1
// even for an empty day, since the display always reserves one row.
func AssignRows(occurrences []period.Occurrence) (rows []int, totalRows int) {
	rows = make([]int, len(occurrences))

	// rowEnds[r] is the end minute of the latest occurrence placed in
	// row r. A row is free for an occurrence when its end is at or
	// before the occurrence's start ([start, end) intervals).
	var rowEnds []int

	for i, occ := range occurrences {
		assigned := -1
		for r, end := range rowEnds {
			if end <= occ.StartMinutes {
				assigned = r
				break
			}
		}
		if assigned == -1 {
			rowEnds = append(rowEnds, occ.EndMinutes)
			assigned = len(rowEnds) - 1
		} else {
			rowEnds[assigned] = occ.EndMinutes
		}
		rows[i] = assigned
	}

	totalRows = len(rowEnds)
	if totalRows < 1 {
		totalRows = 1
	}
	return rows, totalRows
}

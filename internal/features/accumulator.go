package features

// Accumulator is the running state of one player-season: either no history
// yet, or the cumulative totals through the last gameweek.
type Accumulator struct {
	started bool
	total   Stats
}

// HasHistory reports whether any fixture has been accumulated.
func (a Accumulator) HasHistory() bool { return a.started }

// Total returns the cumulative totals; zero while there is no history.
func (a Accumulator) Total() Stats { return a.total }

// Step applies one gameweek. present is false for a blank gameweek. It
// returns the next state and, when emit is true, the cumulative totals to
// report for this gameweek. A blank gameweek before any history emits
// nothing; after history it carries the previous totals forward.
func Step(a Accumulator, c Stats, present bool) (next Accumulator, cumulative Stats, emit bool) {
	switch {
	case !a.started && !present:
		return a, Stats{}, false
	case !a.started:
		next = Accumulator{started: true, total: c}
	case !present:
		next = a
	default:
		next = Accumulator{started: true, total: a.total.Add(c)}
	}
	return next, next.total, true
}

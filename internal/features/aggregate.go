package features

import (
	"errors"
	"fmt"
	"sort"

	"fpl-points-predictor/internal/gwdata"
)

// ErrMalformedContribution marks input that would corrupt the running totals:
// more than two fixtures in one gameweek or a negative counting statistic.
var ErrMalformedContribution = errors.New("malformed match contribution")

// MaxMatchesPerGameweek is the double-gameweek ceiling.
const MaxMatchesPerGameweek = 2

// Aggregate combines a player's fixtures for one gameweek. ok is false when
// there were no fixtures (blank gameweek).
func Aggregate(matches []gwdata.RawMatchRecord) (c Stats, ok bool, err error) {
	if len(matches) > MaxMatchesPerGameweek {
		return Stats{}, false, fmt.Errorf("%w: %d matches in one gameweek", ErrMalformedContribution, len(matches))
	}
	if len(matches) == 0 {
		return Stats{}, false, nil
	}

	for _, m := range matches {
		s := statsFromRecord(m)
		if err := checkNonNegative(s); err != nil {
			return Stats{}, false, err
		}
		c = c.Add(s)
	}
	return c, true, nil
}

func checkNonNegative(s Stats) error {
	var bad []string
	for name, v := range s.counting() {
		if v < 0 {
			bad = append(bad, name)
		}
	}
	if len(bad) == 0 {
		return nil
	}
	sort.Strings(bad)
	return fmt.Errorf("%w: negative %v", ErrMalformedContribution, bad)
}

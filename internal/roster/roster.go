package roster

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"fpl-points-predictor/internal/season"
)

// ErrAmbiguousIdentity is returned when a name matches more than one player
// in a season. Such players are skipped rather than guessed.
var ErrAmbiguousIdentity = errors.New("ambiguous player identity")

// FullName is the name used in gameweek CSVs.
func FullName(first, second string) string {
	return first + " " + second
}

// Normalize folds accents and case so "Martin Ødegaard" and "martin odegaard"
// compare equal. Characters with no ASCII decomposition are dropped.
func Normalize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range norm.NFKD.String(name) {
		if r > unicode.MaxASCII {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return strings.TrimSpace(b.String())
}

type key struct{ first, second string }

// Index looks season summaries up by name, exactly or normalized.
type Index struct {
	exact      map[key][]season.Summary
	normalized map[key][]season.Summary
}

func NewIndex(rows []season.Summary) *Index {
	ix := &Index{
		exact:      make(map[key][]season.Summary, len(rows)),
		normalized: make(map[key][]season.Summary, len(rows)),
	}
	for _, r := range rows {
		k := key{r.FirstName, r.SecondName}
		ix.exact[k] = append(ix.exact[k], r)
		nk := key{Normalize(r.FirstName), Normalize(r.SecondName)}
		ix.normalized[nk] = append(ix.normalized[nk], r)
	}
	return ix
}

// Lookup finds the summary for an exact (first, second) name. ok is false
// when there is no match; more than one match is ErrAmbiguousIdentity.
func (ix *Index) Lookup(first, second string) (s season.Summary, ok bool, err error) {
	return pick(ix.exact[key{first, second}], first, second)
}

// LookupNormalized is Lookup on accent- and case-folded names.
func (ix *Index) LookupNormalized(first, second string) (season.Summary, bool, error) {
	return pick(ix.normalized[key{Normalize(first), Normalize(second)}], first, second)
}

// Count returns how many summaries share an exact name.
func (ix *Index) Count(first, second string) int {
	return len(ix.exact[key{first, second}])
}

func pick(matches []season.Summary, first, second string) (season.Summary, bool, error) {
	switch len(matches) {
	case 0:
		return season.Summary{}, false, nil
	case 1:
		return matches[0], true, nil
	default:
		return season.Summary{}, false, fmt.Errorf("%w: %d players named %q", ErrAmbiguousIdentity, len(matches), FullName(first, second))
	}
}

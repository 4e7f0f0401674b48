package training

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"fpl-points-predictor/internal/features"
	"fpl-points-predictor/internal/roster"
	"fpl-points-predictor/internal/season"
)

// SeriesSource yields a player's cumulative series for a season.
type SeriesSource interface {
	Series(ctx context.Context, season, player string) ([]features.CumulativeRow, error)
}

// Assembler builds training rows for one season from its summaries, the
// previous season's summaries and each player's cumulative series.
type Assembler struct {
	Series  SeriesSource
	Workers int
	Logger  *slog.Logger
}

// Season returns one row per emitted series gameweek for every player in
// current. Players with an ambiguous name, an unknown position or a series
// that fails integrity checks are logged and skipped. Output is sorted by
// (second name, first name, gw).
func (a *Assembler) Season(ctx context.Context, thisYear string, prev, current []season.Summary) ([]Row, error) {
	log := a.Logger
	if log == nil {
		log = slog.Default()
	}
	workers := a.Workers
	if workers < 1 {
		workers = 1
	}

	prevIdx := roster.NewIndex(prev)
	curIdx := roster.NewIndex(current)

	perPlayer := make([][]Row, len(current))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, p := range current {
		if _, err := ElementTypeIndex(p.ElementType); err != nil {
			log.Info("skipping player", "season", thisYear, "player", roster.FullName(p.FirstName, p.SecondName), "reason", err.Error())
			continue
		}
		if _, _, err := curIdx.Lookup(p.FirstName, p.SecondName); err != nil {
			log.Warn("skipping player", "season", thisYear, "error", err)
			continue
		}
		prevRow, found, err := prevIdx.Lookup(p.FirstName, p.SecondName)
		if err != nil {
			log.Warn("skipping player", "season", thisYear, "error", err)
			continue
		}
		var prevPtr *season.Summary
		if found {
			pr := prevRow
			prevPtr = &pr
		}

		g.Go(func() error {
			name := roster.FullName(p.FirstName, p.SecondName)
			series, err := a.Series.Series(ctx, thisYear, name)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if errors.Is(err, features.ErrMalformedContribution) {
					log.Warn("skipping player with malformed gameweek data", "season", thisYear, "player", name, "error", err)
					return nil
				}
				return err
			}
			rows := make([]Row, 0, len(series))
			for _, cr := range series {
				rows = append(rows, Row{
					FirstName:   p.FirstName,
					SecondName:  p.SecondName,
					ElementType: p.ElementType,
					Year:        thisYear,
					GW:          cr.GW,
					TotalPoints: p.TotalPoints,
					Prev:        prevPtr,
					Current:     cr,
				})
			}
			perPlayer[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []Row
	for _, rows := range perPlayer {
		out = append(out, rows...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SecondName != out[j].SecondName {
			return out[i].SecondName < out[j].SecondName
		}
		if out[i].FirstName != out[j].FirstName {
			return out[i].FirstName < out[j].FirstName
		}
		return out[i].GW < out[j].GW
	})
	log.Info("assembled training rows", "season", thisYear, "players", len(current), "rows", len(out))
	return out, nil
}

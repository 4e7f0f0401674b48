package featurestore

import (
	"context"
	"log/slog"

	"fpl-points-predictor/internal/features"
)

// Cached serves series from Store, building and saving on a miss. A series
// with unavailable gameweeks is returned but not saved, so it is rebuilt once
// the missing rosters (or the rest of an in-progress season) can be fetched.
// Store failures are logged and only cost a rebuild. A nil Store always builds.
type Cached struct {
	Store   Store
	Builder *features.Builder
	Logger  *slog.Logger
}

func (c *Cached) Series(ctx context.Context, season, player string) ([]features.CumulativeRow, error) {
	log := c.Logger
	if log == nil {
		log = slog.Default()
	}
	if c.Store != nil {
		rows, ok, err := c.Store.LoadSeries(ctx, season, player)
		if err != nil {
			log.Warn("feature store read failed", "season", season, "player", player, "error", err)
		} else if ok {
			return rows, nil
		}
	}

	s, err := c.Builder.Build(ctx, player, season)
	if err != nil {
		return nil, err
	}
	if c.Store == nil {
		return s.Rows, nil
	}
	if !s.Complete() {
		log.Debug("series incomplete, not cached", "season", season, "player", player, "unavailable", len(s.Unavailable))
		return s.Rows, nil
	}
	if err := c.Store.SaveSeries(ctx, season, player, s.Rows); err != nil {
		log.Warn("feature store write failed", "season", season, "player", player, "error", err)
	}
	return s.Rows, nil
}

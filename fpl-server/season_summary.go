package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"fpl-points-predictor/internal/roster"
	"fpl-points-predictor/internal/season"
)

// SeasonSummaryArgs are the input arguments for the season_summary tool.
type SeasonSummaryArgs struct {
	FirstName  string `json:"first_name" jsonschema:"Player first name (required)"`
	SecondName string `json:"second_name" jsonschema:"Player second name (required)"`
	Season     string `json:"season,omitempty" jsonschema:"Season such as 2023-24 (default current)"`
}

// SeasonSummaryOutput is the output of the season_summary tool.
type SeasonSummaryOutput struct {
	Season string `json:"season"`
	season.Summary
}

func buildSeasonSummary(ctx context.Context, cfg ServerConfig, args SeasonSummaryArgs) (SeasonSummaryOutput, error) {
	first, second := strings.TrimSpace(args.FirstName), strings.TrimSpace(args.SecondName)
	if first == "" || second == "" {
		return SeasonSummaryOutput{}, fmt.Errorf("first_name and second_name are required")
	}
	s := resolveSeason(cfg, args.Season)

	rows, err := loadSummaries(ctx, cfg, s)
	if err != nil {
		return SeasonSummaryOutput{}, err
	}
	idx := roster.NewIndex(rows)
	sum, ok, err := idx.Lookup(first, second)
	if err == nil && !ok {
		sum, ok, err = idx.LookupNormalized(first, second)
	}
	if err != nil {
		return SeasonSummaryOutput{}, err
	}
	if !ok {
		return SeasonSummaryOutput{}, fmt.Errorf("player not found in %s: %s", s, roster.FullName(first, second))
	}
	return SeasonSummaryOutput{Season: s, Summary: sum}, nil
}

// loadSummaries reads prepared summaries for a season, fetching and
// processing them when missing and a client is configured.
func loadSummaries(ctx context.Context, cfg ServerConfig, s string) ([]season.Summary, error) {
	dir := filepath.Join(cfg.DerivedRoot, "prev_years")
	rows, err := season.ReadCSV(season.Path(dir, s))
	if err == nil {
		return rows, nil
	}
	if !errors.Is(err, fs.ErrNotExist) || cfg.Client == nil {
		return nil, err
	}
	if cfg.Log != nil {
		cfg.Log.Info("season summaries missing, fetching", "season", s)
	}
	return season.FetchAndProcess(ctx, cfg.Client, s, dir, false)
}

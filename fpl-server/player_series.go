package main

import (
	"context"
	"fmt"
	"strings"

	"fpl-points-predictor/internal/features"
)

// PlayerSeriesArgs are the input arguments for the player_series tool.
type PlayerSeriesArgs struct {
	Player string `json:"player" jsonschema:"Full player name as it appears in the gameweek dataset (required)"`
	Season string `json:"season,omitempty" jsonschema:"Season such as 2023-24 (default current)"`
	GW     int    `json:"gw,omitempty" jsonschema:"Only return the row for this gameweek (0 = all rows)"`
}

// PlayerSeriesOutput is the output of the player_series tool.
type PlayerSeriesOutput struct {
	Player  string                   `json:"player"`
	Season  string                   `json:"season"`
	FirstGW int                      `json:"first_gw"`
	Rows    []features.CumulativeRow `json:"rows"`
}

func buildPlayerSeries(ctx context.Context, cfg ServerConfig, args PlayerSeriesArgs) (PlayerSeriesOutput, error) {
	player := strings.TrimSpace(args.Player)
	if player == "" {
		return PlayerSeriesOutput{}, fmt.Errorf("player is required")
	}
	if args.GW < 0 || args.GW > features.GameweeksPerSeason {
		return PlayerSeriesOutput{}, fmt.Errorf("gw must be between 1 and %d", features.GameweeksPerSeason)
	}
	s := resolveSeason(cfg, args.Season)

	rows, err := cfg.Series.Series(ctx, s, player)
	if err != nil {
		return PlayerSeriesOutput{}, err
	}
	if len(rows) == 0 {
		return PlayerSeriesOutput{}, fmt.Errorf("%s has no appearances in %s", player, s)
	}

	out := PlayerSeriesOutput{Player: player, Season: s, FirstGW: rows[0].GW, Rows: rows}
	if args.GW > 0 {
		row, ok := features.At(rows, args.GW)
		if !ok {
			return PlayerSeriesOutput{}, fmt.Errorf("%s had not appeared by gw%d of %s (first appearance gw%d)", player, args.GW, s, rows[0].GW)
		}
		out.Rows = []features.CumulativeRow{row}
	}
	return out, nil
}

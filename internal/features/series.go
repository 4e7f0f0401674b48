package features

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"fpl-points-predictor/internal/gwdata"
)

// GameweeksPerSeason is the fixed Premier League calendar length.
const GameweeksPerSeason = 38

// CumulativeRow is a player's season-to-date totals after gameweek GW.
// Matches is the number of fixtures in that gameweek alone (0, 1 or 2).
type CumulativeRow struct {
	GW            int     `json:"gw"`
	Matches       int     `json:"matches"`
	TotalPoints   float64 `json:"current_total_points"`
	GoalsScored   float64 `json:"current_goals_scored"`
	Assists       float64 `json:"current_assists"`
	Minutes       float64 `json:"current_minutes"`
	GoalsConceded float64 `json:"current_goals_conceded"`
	Creativity    float64 `json:"current_creativity"`
	Influence     float64 `json:"current_influence"`
	Threat        float64 `json:"current_threat"`
	Bonus         float64 `json:"current_bonus"`
	ICTIndex      float64 `json:"current_ict_index"`
	CleanSheets   float64 `json:"current_clean_sheets"`
	YellowCards   float64 `json:"current_yellow_cards"`
	RedCards      float64 `json:"current_red_cards"`
	Cards         float64 `json:"current_cards"`
	CardsPer90    float64 `json:"current_cards_per_90"`
	PointsPer90   float64 `json:"current_points_per_90"`
}

// NewRow builds the row for gameweek gw from cumulative totals, deriving the
// per-90 rates from the totals.
func NewRow(gw, matches int, s Stats) CumulativeRow {
	return CumulativeRow{
		GW:            gw,
		Matches:       matches,
		TotalPoints:   s.TotalPoints,
		GoalsScored:   s.GoalsScored,
		Assists:       s.Assists,
		Minutes:       s.Minutes,
		GoalsConceded: s.GoalsConceded,
		Creativity:    s.Creativity,
		Influence:     s.Influence,
		Threat:        s.Threat,
		Bonus:         s.Bonus,
		ICTIndex:      s.ICTIndex,
		CleanSheets:   s.CleanSheets,
		YellowCards:   s.YellowCards,
		RedCards:      s.RedCards,
		Cards:         s.Cards,
		CardsPer90:    RatePer90(s.Cards, s.Minutes),
		PointsPer90:   RatePer90(s.TotalPoints, s.Minutes),
	}
}

// Builder walks a season one gameweek at a time for a single player.
type Builder struct {
	Source gwdata.Source
	Logger *slog.Logger
}

// NewBuilder returns a Builder over src, logging to slog.Default when logger is nil.
func NewBuilder(src gwdata.Source, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{Source: src, Logger: logger}
}

// Series is a built season plus the gameweeks whose rosters could not be
// fetched and were treated as blank.
type Series struct {
	Rows        []CumulativeRow
	Unavailable []int
}

// Complete reports whether every gameweek's roster was fetched.
func (s Series) Complete() bool { return len(s.Unavailable) == 0 }

// BuildSeries returns the player's cumulative rows for gameweeks 1..38 of
// season. See Build.
func (b *Builder) BuildSeries(ctx context.Context, player string, season string) ([]CumulativeRow, error) {
	s, err := b.Build(ctx, player, season)
	if err != nil {
		return nil, err
	}
	return s.Rows, nil
}

// Build walks gameweeks 1..38 of season for player. Gameweeks before the
// player's first fixture produce no row. A gameweek whose roster cannot be
// fetched is logged, treated as blank and listed in Unavailable; malformed
// fixture data fails the whole series.
func (b *Builder) Build(ctx context.Context, player string, season string) (Series, error) {
	log := b.Logger
	if log == nil {
		log = slog.Default()
	}

	var (
		acc Accumulator
		out = Series{Rows: make([]CumulativeRow, 0, GameweeksPerSeason)}
	)
	for gw := 1; gw <= GameweeksPerSeason; gw++ {
		if err := ctx.Err(); err != nil {
			return Series{}, err
		}

		roster, err := b.Source.GameweekRows(ctx, season, gw)
		if err != nil {
			if ctx.Err() != nil {
				return Series{}, ctx.Err()
			}
			log.Warn("gameweek data unavailable, treating as blank",
				"season", season, "gw", gw, "player", player, "error", err)
			out.Unavailable = append(out.Unavailable, gw)
			roster = nil
		}
		matches := gwdata.FilterPlayer(roster, player)

		contribution, present, err := Aggregate(matches)
		if err != nil {
			return Series{}, fmt.Errorf("%s %s gw%d: %w", player, season, gw, err)
		}

		var (
			cumulative Stats
			emit       bool
		)
		acc, cumulative, emit = Step(acc, contribution, present)
		if !emit {
			continue
		}
		out.Rows = append(out.Rows, NewRow(gw, len(matches), cumulative))
	}

	RoundSeries(out.Rows)
	return out, nil
}

// RoundSeries rounds every numeric field to two decimals in place.
func RoundSeries(rows []CumulativeRow) {
	for i := range rows {
		r := &rows[i]
		for _, f := range []*float64{
			&r.TotalPoints, &r.GoalsScored, &r.Assists, &r.Minutes, &r.GoalsConceded,
			&r.Creativity, &r.Influence, &r.Threat, &r.Bonus, &r.ICTIndex,
			&r.CleanSheets, &r.YellowCards, &r.RedCards, &r.Cards,
			&r.CardsPer90, &r.PointsPer90,
		} {
			*f = Round2(*f)
		}
	}
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Latest returns the last row of a series, if any.
func Latest(rows []CumulativeRow) (CumulativeRow, bool) {
	if len(rows) == 0 {
		return CumulativeRow{}, false
	}
	return rows[len(rows)-1], true
}

// At returns the row emitted for gameweek gw, if any.
func At(rows []CumulativeRow, gw int) (CumulativeRow, bool) {
	for _, r := range rows {
		if r.GW == gw {
			return r, true
		}
	}
	return CumulativeRow{}, false
}

package training

import (
	"fmt"
	"math"

	"fpl-points-predictor/internal/features"
	"fpl-points-predictor/internal/season"
)

// Row is one (player, season, gameweek) training record before
// preprocessing: identity, the season-total target, last season's summary
// and the cumulative series row for the gameweek.
type Row struct {
	FirstName   string
	SecondName  string
	ElementType string
	Year        string
	GW          int
	TotalPoints float64 // target: the player's points for the whole season

	Prev    *season.Summary // nil when the player has no previous season
	Current features.CumulativeRow
}

// PrevSeasonPlayed reports whether the row carries last season's summary.
func (r Row) PrevSeasonPlayed() bool { return r.Prev != nil }

// FeatureNames is the fixed column order of a feature vector.
var FeatureNames = []string{
	"element_type",
	"gw",
	"prev_total_points",
	"prev_goals_scored",
	"prev_assists",
	"prev_minutes",
	"prev_goals_conceded",
	"prev_creativity",
	"prev_influence",
	"prev_threat",
	"prev_bonus",
	"prev_ict_index",
	"prev_clean_sheets",
	"prev_cards_per_90",
	"prev_points_per_90",
	"prev_season_played",
	"matches",
	"current_total_points",
	"current_goals_scored",
	"current_assists",
	"current_minutes",
	"current_goals_conceded",
	"current_creativity",
	"current_influence",
	"current_threat",
	"current_bonus",
	"current_ict_index",
	"current_clean_sheets",
	"current_cards_per_90",
	"current_points_per_90",
}

// prevStart and prevEnd bound the prev_ numeric columns in FeatureNames
// (prev_season_played excluded).
const (
	prevStart = 2
	prevEnd   = 15
)

// ElementTypes maps dataset position codes to model inputs.
var ElementTypes = map[string]int{"GK": 0, "DEF": 1, "MID": 2, "FWD": 3}

// ElementTypeIndex returns the model input for a position code.
func ElementTypeIndex(code string) (int, error) {
	v, ok := ElementTypes[code]
	if !ok {
		return 0, fmt.Errorf("unknown element type %q", code)
	}
	return v, nil
}

// Vector lays out one feature vector in FeatureNames order. Previous-season
// columns are NaN when prev is nil; FillPrevMeans replaces them.
func Vector(elementType, gw int, prev *season.Summary, cur features.CumulativeRow) []float64 {
	x := make([]float64, 0, len(FeatureNames))
	x = append(x, float64(elementType), float64(gw))
	if prev != nil {
		x = append(x,
			prev.TotalPoints, prev.GoalsScored, prev.Assists, prev.Minutes,
			prev.GoalsConceded, prev.Creativity, prev.Influence, prev.Threat,
			prev.Bonus, prev.ICTIndex, prev.CleanSheets, prev.CardsPer90,
			prev.PointsPer90, 1,
		)
	} else {
		for i := prevStart; i < prevEnd; i++ {
			x = append(x, math.NaN())
		}
		x = append(x, 0)
	}
	x = append(x,
		float64(cur.Matches),
		cur.TotalPoints, cur.GoalsScored, cur.Assists, cur.Minutes,
		cur.GoalsConceded, cur.Creativity, cur.Influence, cur.Threat,
		cur.Bonus, cur.ICTIndex, cur.CleanSheets, cur.CardsPer90, cur.PointsPer90,
	)
	return x
}

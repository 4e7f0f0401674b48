package features

import "fpl-points-predictor/internal/gwdata"

// Stats holds the counting statistics of one gameweek's fixture(s), or a
// running total of them. Cards is YellowCards + RedCards.
type Stats struct {
	TotalPoints   float64 `json:"total_points"`
	GoalsScored   float64 `json:"goals_scored"`
	Assists       float64 `json:"assists"`
	Minutes       float64 `json:"minutes"`
	GoalsConceded float64 `json:"goals_conceded"`
	Creativity    float64 `json:"creativity"`
	Influence     float64 `json:"influence"`
	Threat        float64 `json:"threat"`
	Bonus         float64 `json:"bonus"`
	ICTIndex      float64 `json:"ict_index"`
	CleanSheets   float64 `json:"clean_sheets"`
	YellowCards   float64 `json:"yellow_cards"`
	RedCards      float64 `json:"red_cards"`
	Cards         float64 `json:"cards"`
}

func statsFromRecord(r gwdata.RawMatchRecord) Stats {
	return Stats{
		TotalPoints:   r.TotalPoints,
		GoalsScored:   r.GoalsScored,
		Assists:       r.Assists,
		Minutes:       r.Minutes,
		GoalsConceded: r.GoalsConceded,
		Creativity:    r.Creativity,
		Influence:     r.Influence,
		Threat:        r.Threat,
		Bonus:         r.Bonus,
		ICTIndex:      r.ICTIndex,
		CleanSheets:   r.CleanSheets,
		YellowCards:   r.YellowCards,
		RedCards:      r.RedCards,
		Cards:         r.YellowCards + r.RedCards,
	}
}

// Add returns the elementwise sum of s and o.
func (s Stats) Add(o Stats) Stats {
	return Stats{
		TotalPoints:   s.TotalPoints + o.TotalPoints,
		GoalsScored:   s.GoalsScored + o.GoalsScored,
		Assists:       s.Assists + o.Assists,
		Minutes:       s.Minutes + o.Minutes,
		GoalsConceded: s.GoalsConceded + o.GoalsConceded,
		Creativity:    s.Creativity + o.Creativity,
		Influence:     s.Influence + o.Influence,
		Threat:        s.Threat + o.Threat,
		Bonus:         s.Bonus + o.Bonus,
		ICTIndex:      s.ICTIndex + o.ICTIndex,
		CleanSheets:   s.CleanSheets + o.CleanSheets,
		YellowCards:   s.YellowCards + o.YellowCards,
		RedCards:      s.RedCards + o.RedCards,
		Cards:         s.Cards + o.Cards,
	}
}

// counting returns the fields that can never drop below zero. TotalPoints is
// excluded: FPL deducts points for own goals, red cards and missed penalties.
func (s Stats) counting() map[string]float64 {
	return map[string]float64{
		"goals_scored":   s.GoalsScored,
		"assists":        s.Assists,
		"minutes":        s.Minutes,
		"goals_conceded": s.GoalsConceded,
		"creativity":     s.Creativity,
		"influence":      s.Influence,
		"threat":         s.Threat,
		"bonus":          s.Bonus,
		"ict_index":      s.ICTIndex,
		"clean_sheets":   s.CleanSheets,
		"yellow_cards":   s.YellowCards,
		"red_cards":      s.RedCards,
	}
}

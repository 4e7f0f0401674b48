package gwdata

// StatFields are the per-fixture columns read from a gameweek CSV. The names
// must match the dataset header exactly; a renamed column reads as 0.
var StatFields = []string{
	"total_points",
	"goals_scored",
	"assists",
	"minutes",
	"goals_conceded",
	"creativity",
	"influence",
	"threat",
	"bonus",
	"ict_index",
	"clean_sheets",
	"yellow_cards",
	"red_cards",
}

// RawMatchRecord is one player's line for one fixture in a gameweek CSV.
// A player has zero (blank), one, or two (double) records per gameweek.
type RawMatchRecord struct {
	Name          string  `json:"name"`
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
}

// field returns a pointer to the stat named by a StatFields entry.
func (r *RawMatchRecord) field(name string) *float64 {
	switch name {
	case "total_points":
		return &r.TotalPoints
	case "goals_scored":
		return &r.GoalsScored
	case "assists":
		return &r.Assists
	case "minutes":
		return &r.Minutes
	case "goals_conceded":
		return &r.GoalsConceded
	case "creativity":
		return &r.Creativity
	case "influence":
		return &r.Influence
	case "threat":
		return &r.Threat
	case "bonus":
		return &r.Bonus
	case "ict_index":
		return &r.ICTIndex
	case "clean_sheets":
		return &r.CleanSheets
	case "yellow_cards":
		return &r.YellowCards
	case "red_cards":
		return &r.RedCards
	default:
		return nil
	}
}

// FilterPlayer returns the records whose Name equals name exactly.
func FilterPlayer(rows []RawMatchRecord, name string) []RawMatchRecord {
	var out []RawMatchRecord
	for _, r := range rows {
		if r.Name == name {
			out = append(out, r)
		}
	}
	return out
}

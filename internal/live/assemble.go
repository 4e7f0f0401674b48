package live

import (
	"log/slog"

	"fpl-points-predictor/internal/features"
	"fpl-points-predictor/internal/roster"
	"fpl-points-predictor/internal/season"
	"fpl-points-predictor/internal/training"
)

// positionCount is the number of outfield/keeper element types. The API
// numbers them 1..4; anything above (managers) is not a player.
const positionCount = 4

// CurrentRow expresses an element's season-to-date API totals as a
// cumulative row. The API does not say how many fixtures the player had in
// gw, so Matches is 1.
func CurrentRow(e Element, gw int) features.CumulativeRow {
	s := features.Stats{
		TotalPoints:   float64(e.TotalPoints),
		GoalsScored:   float64(e.GoalsScored),
		Assists:       float64(e.Assists),
		Minutes:       float64(e.Minutes),
		GoalsConceded: float64(e.GoalsConceded),
		Creativity:    parseFloat(e.Creativity),
		Influence:     parseFloat(e.Influence),
		Threat:        parseFloat(e.Threat),
		Bonus:         float64(e.Bonus),
		ICTIndex:      parseFloat(e.ICTIndex),
		CleanSheets:   float64(e.CleanSheets),
		YellowCards:   float64(e.YellowCards),
		RedCards:      float64(e.RedCards),
		Cards:         float64(e.YellowCards + e.RedCards),
	}
	return features.NewRow(gw, 1, s)
}

// Assembler turns live API elements into model inputs.
type Assembler struct {
	// Series optionally maps full names to the player's latest series row,
	// which replaces the API totals (and carries the real match count).
	Series map[string]features.CumulativeRow
	Logger *slog.Logger
}

// Assemble joins elements with last season's summaries on normalized names.
// Previous-season names shared by more than one player are dropped so they
// cannot attach to the wrong player; missing previous-season values are
// filled with column means.
func (a *Assembler) Assemble(elements []Element, prev []season.Summary, year string, gw int) []training.Example {
	log := a.Logger
	if log == nil {
		log = slog.Default()
	}

	prevIdx := roster.NewIndex(dropDuplicateNames(prev))

	out := make([]training.Example, 0, len(elements))
	for _, e := range elements {
		et := e.ElementType - 1
		if et < 0 || et >= positionCount {
			continue
		}

		var prevPtr *season.Summary
		if s, ok, err := prevIdx.LookupNormalized(e.FirstName, e.SecondName); err == nil && ok {
			prevPtr = &s
		}

		cur := CurrentRow(e, gw)
		if row, ok := a.Series[roster.FullName(e.FirstName, e.SecondName)]; ok {
			row.GW = gw
			cur = row
		}

		out = append(out, training.Example{
			Code:       e.Code,
			FirstName:  e.FirstName,
			SecondName: e.SecondName,
			Year:       year,
			X:          training.Vector(et, gw, prevPtr, cur),
		})
	}

	training.FillPrevMeans(out)
	training.RoundExamples(out)
	log.Info("assembled live rows", "season", year, "gw", gw, "elements", len(elements), "rows", len(out))
	return out
}

func dropDuplicateNames(rows []season.Summary) []season.Summary {
	type key struct{ first, second string }
	counts := make(map[key]int, len(rows))
	for _, r := range rows {
		counts[key{roster.Normalize(r.FirstName), roster.Normalize(r.SecondName)}]++
	}
	out := make([]season.Summary, 0, len(rows))
	for _, r := range rows {
		if counts[key{roster.Normalize(r.FirstName), roster.Normalize(r.SecondName)}] == 1 {
			out = append(out, r)
		}
	}
	return out
}

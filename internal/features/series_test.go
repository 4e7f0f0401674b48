package features

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"fpl-points-predictor/internal/gwdata"
)

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

const testSeason = "2023-24"

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// seasonSource returns a StaticSource with every gameweek available. Each
// roster holds a filler player plus whatever records are given for that gw.
func seasonSource(byGW map[int][]gwdata.RawMatchRecord) gwdata.StaticSource {
	gws := make(map[int][]gwdata.RawMatchRecord, GameweeksPerSeason)
	for gw := 1; gw <= GameweeksPerSeason; gw++ {
		rows := []gwdata.RawMatchRecord{{Name: "Filler Player", Minutes: 90, TotalPoints: 1}}
		rows = append(rows, byGW[gw]...)
		gws[gw] = rows
	}
	return gwdata.StaticSource{testSeason: gws}
}

func match(minutes, points float64) gwdata.RawMatchRecord {
	return gwdata.RawMatchRecord{Name: "Test Player", Minutes: minutes, TotalPoints: points}
}

func build(t *testing.T, src gwdata.Source) []CumulativeRow {
	t.Helper()
	rows, err := NewBuilder(src, quietLogger()).BuildSeries(context.Background(), "Test Player", testSeason)
	if err != nil {
		t.Fatalf("BuildSeries: %v", err)
	}
	return rows
}

func countingFields(r CumulativeRow) []float64 {
	return []float64{
		r.TotalPoints, r.GoalsScored, r.Assists, r.Minutes, r.GoalsConceded,
		r.Creativity, r.Influence, r.Threat, r.Bonus, r.ICTIndex,
		r.CleanSheets, r.YellowCards, r.RedCards, r.Cards,
	}
}

// -----------------------------------------------------------------------------
// Series
// -----------------------------------------------------------------------------

func TestBuildSeries_EndToEnd(t *testing.T) {
	src := seasonSource(map[int][]gwdata.RawMatchRecord{
		1: {match(90, 6)},
		3: {match(45, 3), match(45, 4)},
	})
	rows := build(t, src)

	// gw3 onward carries forward, so every gameweek from 1 emits.
	if len(rows) != GameweeksPerSeason {
		t.Fatalf("expected %d rows, got %d", GameweeksPerSeason, len(rows))
	}
	want := []struct {
		gw, matches     int
		minutes, points float64
	}{
		{1, 1, 90, 6},
		{2, 0, 90, 6},
		{3, 2, 180, 13},
	}
	for i, w := range want {
		r := rows[i]
		if r.GW != w.gw || r.Matches != w.matches || r.Minutes != w.minutes || r.TotalPoints != w.points {
			t.Errorf("row %d: want gw=%d matches=%d minutes=%v points=%v, got %+v",
				i, w.gw, w.matches, w.minutes, w.points, r)
		}
	}
	if rows[2].PointsPer90 != 0 || rows[2].CardsPer90 != 0 {
		t.Errorf("gw3 per-90 should be floored, got points=%v cards=%v", rows[2].PointsPer90, rows[2].CardsPer90)
	}
}

func TestBuildSeries_NoHistorySuppression(t *testing.T) {
	src := seasonSource(map[int][]gwdata.RawMatchRecord{5: {match(90, 6)}})
	rows := build(t, src)

	if len(rows) == 0 {
		t.Fatal("expected rows")
	}
	first := rows[0]
	if first.GW != 5 {
		t.Errorf("first row gw: want 5, got %d", first.GW)
	}
	if first.Minutes != 90 || first.TotalPoints != 6 {
		t.Errorf("first row: want minutes=90 points=6, got %+v", first)
	}
	if len(rows) != GameweeksPerSeason-4 {
		t.Errorf("expected %d rows, got %d", GameweeksPerSeason-4, len(rows))
	}
}

func TestBuildSeries_NeverPlayed(t *testing.T) {
	rows := build(t, seasonSource(nil))
	if len(rows) != 0 {
		t.Errorf("expected no rows, got %d", len(rows))
	}
}

func TestBuildSeries_CarryForward(t *testing.T) {
	src := seasonSource(map[int][]gwdata.RawMatchRecord{
		1: {{Name: "Test Player", Minutes: 90, TotalPoints: 8, GoalsScored: 1, YellowCards: 1}},
		2: {{Name: "Test Player", Minutes: 90, TotalPoints: 2}},
		3: {{Name: "Test Player", Minutes: 90, TotalPoints: 3, Creativity: 12.4}},
	})
	rows := build(t, src)

	prev, _ := At(rows, 3)
	next, ok := At(rows, 4)
	if !ok {
		t.Fatal("expected a gw4 row")
	}
	if next.Matches != 0 {
		t.Errorf("gw4 matches: want 0, got %d", next.Matches)
	}
	prev.GW, prev.Matches = next.GW, next.Matches
	if prev != next {
		t.Errorf("carry-forward changed totals:\n gw3 %+v\n gw4 %+v", prev, next)
	}
	if next.PointsPer90 != Round2(RatePer90(13, 270)) {
		t.Errorf("points per 90: want %v, got %v", Round2(RatePer90(13, 270)), next.PointsPer90)
	}
	if next.CardsPer90 != Round2(RatePer90(1, 270)) {
		t.Errorf("cards per 90: want %v, got %v", Round2(RatePer90(1, 270)), next.CardsPer90)
	}
}

func TestBuildSeries_Monotonic(t *testing.T) {
	byGW := map[int][]gwdata.RawMatchRecord{}
	for gw := 2; gw <= GameweeksPerSeason; gw += 3 {
		byGW[gw] = []gwdata.RawMatchRecord{{
			Name: "Test Player", Minutes: float64(gw % 91), TotalPoints: float64(gw%7) - 1,
			Creativity: 3.3, Influence: 10.1, Threat: 7.7, ICTIndex: 2.1,
			GoalsConceded: 1, YellowCards: float64(gw % 2),
		}}
	}
	byGW[20] = append(byGW[20], gwdata.RawMatchRecord{Name: "Test Player", Minutes: 90, TotalPoints: 12, GoalsScored: 2})
	rows := build(t, seasonSource(byGW))

	for i := 1; i < len(rows); i++ {
		if rows[i].GW <= rows[i-1].GW {
			t.Fatalf("gameweeks not ascending at %d: %d after %d", i, rows[i].GW, rows[i-1].GW)
		}
		prev, cur := countingFields(rows[i-1]), countingFields(rows[i])
		// index 0 is total_points, which can fall on a deduction.
		for j := 1; j < len(cur); j++ {
			if cur[j] < prev[j] {
				t.Errorf("gw%d field %d decreased: %v -> %v", rows[i].GW, j, prev[j], cur[j])
			}
		}
	}
}

func TestBuildSeries_Idempotent(t *testing.T) {
	src := seasonSource(map[int][]gwdata.RawMatchRecord{
		1:  {{Name: "Test Player", Minutes: 90, TotalPoints: 6, Creativity: 10.1, Influence: 22.6}},
		4:  {{Name: "Test Player", Minutes: 77, TotalPoints: 3, Threat: 33.333}},
		9:  {match(45, 1), match(90, 9)},
		30: {{Name: "Test Player", Minutes: 90, TotalPoints: -1, RedCards: 1}},
	})

	a, err := json.Marshal(build(t, src))
	if err != nil {
		t.Fatal(err)
	}
	b, err := json.Marshal(build(t, src))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("two builds over the same source differ")
	}
}

func TestBuildSeries_UnavailableGameweekIsBlank(t *testing.T) {
	src := seasonSource(map[int][]gwdata.RawMatchRecord{1: {match(90, 6)}, 3: {match(90, 2)}})
	delete(src[testSeason], 2)

	rows := build(t, src)
	r, ok := At(rows, 2)
	if !ok {
		t.Fatal("expected a carried-forward gw2 row")
	}
	if r.Matches != 0 || r.TotalPoints != 6 {
		t.Errorf("gw2: want matches=0 points=6, got %+v", r)
	}
	if r3, _ := At(rows, 3); r3.TotalPoints != 8 {
		t.Errorf("gw3 points: want 8, got %v", r3.TotalPoints)
	}
}

func TestBuild_ReportsUnavailableGameweeks(t *testing.T) {
	src := seasonSource(map[int][]gwdata.RawMatchRecord{1: {match(90, 6)}})
	delete(src[testSeason], 2)
	delete(src[testSeason], 5)

	s, err := NewBuilder(src, quietLogger()).Build(context.Background(), "Test Player", testSeason)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if s.Complete() {
		t.Error("series with missing gameweeks reported complete")
	}
	if len(s.Unavailable) != 2 || s.Unavailable[0] != 2 || s.Unavailable[1] != 5 {
		t.Errorf("unavailable: want [2 5], got %v", s.Unavailable)
	}

	full, err := NewBuilder(seasonSource(map[int][]gwdata.RawMatchRecord{1: {match(90, 6)}}), quietLogger()).
		Build(context.Background(), "Test Player", testSeason)
	if err != nil || !full.Complete() {
		t.Errorf("full season: complete=%v err=%v", full.Complete(), err)
	}
}

func TestBuildSeries_MalformedFailsSeries(t *testing.T) {
	src := seasonSource(map[int][]gwdata.RawMatchRecord{
		1: {match(90, 6)},
		2: {match(90, 1), match(90, 1), match(90, 1)},
	})
	_, err := NewBuilder(src, quietLogger()).BuildSeries(context.Background(), "Test Player", testSeason)
	if !errors.Is(err, ErrMalformedContribution) {
		t.Errorf("expected ErrMalformedContribution, got %v", err)
	}
}

func TestBuildSeries_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewBuilder(seasonSource(nil), quietLogger()).BuildSeries(ctx, "Test Player", testSeason)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRoundSeries(t *testing.T) {
	rows := []CumulativeRow{{Creativity: 12.345, Influence: 1.004, PointsPer90: 4.999}}
	RoundSeries(rows)
	if rows[0].Creativity != 12.35 && rows[0].Creativity != 12.34 {
		t.Errorf("creativity not rounded: %v", rows[0].Creativity)
	}
	if rows[0].Influence != 1 {
		t.Errorf("influence: want 1, got %v", rows[0].Influence)
	}
	if rows[0].PointsPer90 != 5 {
		t.Errorf("points per 90: want 5, got %v", rows[0].PointsPer90)
	}
}

func TestLatest(t *testing.T) {
	if _, ok := Latest(nil); ok {
		t.Error("expected no latest row for empty series")
	}
	r, ok := Latest([]CumulativeRow{{GW: 1}, {GW: 7}})
	if !ok || r.GW != 7 {
		t.Errorf("want gw 7, got %+v ok=%v", r, ok)
	}
}

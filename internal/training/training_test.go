package training

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"fpl-points-predictor/internal/features"
	"fpl-points-predictor/internal/featurestore"
	"fpl-points-predictor/internal/gwdata"
	"fpl-points-predictor/internal/logger"
	"fpl-points-predictor/internal/season"
)

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

const thisYear = "2023-24"

func rec(name string, minutes, points float64) gwdata.RawMatchRecord {
	return gwdata.RawMatchRecord{Name: name, Minutes: minutes, TotalPoints: points}
}

// fixtureSource plays Saka every gameweek, White from gw3, both Davies
// players every gameweek, and gives Broken three fixtures in gw2.
func fixtureSource() gwdata.StaticSource {
	gws := map[int][]gwdata.RawMatchRecord{}
	for gw := 1; gw <= features.GameweeksPerSeason; gw++ {
		rows := []gwdata.RawMatchRecord{
			rec("Bukayo Saka", 90, 5),
			rec("Ben Davies", 90, 2),
			rec("Ben Davies", 10, 1),
			rec("Bad Broken", 90, 1),
		}
		if gw >= 3 {
			rows = append(rows, rec("Ben White", 90, 3))
		}
		if gw == 2 {
			rows = append(rows, rec("Bad Broken", 90, 1), rec("Bad Broken", 90, 1))
		}
		gws[gw] = rows
	}
	return gwdata.StaticSource{thisYear: gws}
}

func currentSummaries() []season.Summary {
	return []season.Summary{
		{FirstName: "Bukayo", SecondName: "Saka", ElementType: "MID", TotalPoints: 190},
		{FirstName: "Ben", SecondName: "White", ElementType: "DEF", TotalPoints: 110},
		{FirstName: "Ben", SecondName: "Davies", ElementType: "DEF", TotalPoints: 40},
		{FirstName: "Ben", SecondName: "Davies", ElementType: "DEF", TotalPoints: 20},
		{FirstName: "Bad", SecondName: "Broken", ElementType: "FWD", TotalPoints: 10},
		{FirstName: "Mikel", SecondName: "Arteta", ElementType: "AM", TotalPoints: 8},
	}
}

func prevSummaries() []season.Summary {
	return []season.Summary{
		{FirstName: "Bukayo", SecondName: "Saka", ElementType: "MID", TotalPoints: 200, Minutes: 3000, PointsPer90: 6},
	}
}

func newAssembler(store featurestore.Store) *Assembler {
	return &Assembler{
		Series: &featurestore.Cached{
			Store:   store,
			Builder: features.NewBuilder(fixtureSource(), logger.Discard()),
			Logger:  logger.Discard(),
		},
		Workers: 4,
		Logger:  logger.Discard(),
	}
}

// -----------------------------------------------------------------------------
// Assembler
// -----------------------------------------------------------------------------

func TestAssembler_Season(t *testing.T) {
	rows, err := newAssembler(nil).Season(context.Background(), thisYear, prevSummaries(), currentSummaries())
	if err != nil {
		t.Fatalf("Season: %v", err)
	}

	counts := map[string]int{}
	for _, r := range rows {
		counts[r.FirstName+" "+r.SecondName]++
	}
	if counts["Bukayo Saka"] != 38 {
		t.Errorf("Saka rows: want 38, got %d", counts["Bukayo Saka"])
	}
	if counts["Ben White"] != 36 {
		t.Errorf("White rows: want 36, got %d", counts["Ben White"])
	}
	for _, skipped := range []string{"Ben Davies", "Bad Broken", "Mikel Arteta"} {
		if counts[skipped] != 0 {
			t.Errorf("%s should be skipped, got %d rows", skipped, counts[skipped])
		}
	}

	// Sorted by second name: Saka before White.
	if rows[0].SecondName != "Saka" || rows[0].GW != 1 {
		t.Errorf("first row: got %s gw%d", rows[0].SecondName, rows[0].GW)
	}
	if last := rows[len(rows)-1]; last.SecondName != "White" || last.GW != 38 {
		t.Errorf("last row: got %s gw%d", last.SecondName, last.GW)
	}

	saka := rows[9]
	if saka.GW != 10 || saka.Current.Minutes != 900 || saka.Current.TotalPoints != 50 {
		t.Errorf("Saka gw10: got %+v", saka.Current)
	}
	if saka.TotalPoints != 190 {
		t.Errorf("target: want season total 190, got %v", saka.TotalPoints)
	}
	if !saka.PrevSeasonPlayed() || saka.Prev.TotalPoints != 200 {
		t.Errorf("Saka prev: got %+v", saka.Prev)
	}

	white := rows[38]
	if white.SecondName != "White" || white.GW != 3 || white.PrevSeasonPlayed() {
		t.Errorf("White first row: got %s gw%d prev=%v", white.SecondName, white.GW, white.PrevSeasonPlayed())
	}
}

func TestAssembler_UsesFeatureStore(t *testing.T) {
	ctx := context.Background()
	store := featurestore.NewMemory()
	cached := []features.CumulativeRow{{GW: 1, Matches: 1, Minutes: 1, TotalPoints: 1}}
	if err := store.SaveSeries(ctx, thisYear, "Bukayo Saka", cached); err != nil {
		t.Fatal(err)
	}

	rows, err := newAssembler(store).Season(ctx, thisYear, nil, currentSummaries()[:2])
	if err != nil {
		t.Fatalf("Season: %v", err)
	}
	if rows[0].SecondName != "Saka" || rows[0].Current.Minutes != 1 {
		t.Errorf("expected cached Saka series, got %+v", rows[0])
	}
	if _, ok, _ := store.LoadSeries(ctx, thisYear, "Ben White"); !ok {
		t.Error("built series not saved to store")
	}
}

func TestAssembler_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newAssembler(nil).Season(ctx, thisYear, nil, currentSummaries()); err == nil {
		t.Error("expected error from cancelled context")
	}
}

// -----------------------------------------------------------------------------
// Preprocess
// -----------------------------------------------------------------------------

func TestVector_Layout(t *testing.T) {
	prev := &season.Summary{TotalPoints: 100, PointsPer90: 4.5}
	cur := features.CumulativeRow{GW: 7, Matches: 2, Minutes: 540, CardsPer90: 0.17, PointsPer90: 5.5}

	x := Vector(2, 7, prev, cur)
	if len(x) != len(FeatureNames) {
		t.Fatalf("vector length %d, want %d", len(x), len(FeatureNames))
	}
	e := Example{X: x}
	checks := map[string]float64{
		"element_type":          2,
		"gw":                    7,
		"prev_total_points":     100,
		"prev_points_per_90":    4.5,
		"prev_season_played":    1,
		"matches":               2,
		"current_minutes":       540,
		"current_cards_per_90":  0.17,
		"current_points_per_90": 5.5,
	}
	for name, want := range checks {
		if got := e.Feature(name); got != want {
			t.Errorf("%s: want %v, got %v", name, want, got)
		}
	}

	x = Vector(0, 1, nil, cur)
	if len(x) != len(FeatureNames) {
		t.Fatalf("no-prev vector length %d", len(x))
	}
	if !math.IsNaN(Example{X: x}.Feature("prev_minutes")) {
		t.Error("missing prev should be NaN before filling")
	}
	if (Example{X: x}).Feature("prev_season_played") != 0 {
		t.Error("prev_season_played should be 0")
	}
}

func TestPreprocess_FillsPrevMeans(t *testing.T) {
	rows := []Row{
		{ElementType: "GK", GW: 1, TotalPoints: 100, Prev: &season.Summary{TotalPoints: 90, Minutes: 3000}},
		{ElementType: "FWD", GW: 1, TotalPoints: 50, Prev: &season.Summary{TotalPoints: 30, Minutes: 1001}},
		{ElementType: "MID", GW: 2, TotalPoints: 10.555},
	}
	ex, err := Preprocess(rows)
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	if got := ex[0].Feature("element_type"); got != 0 {
		t.Errorf("GK: got %v", got)
	}
	if got := ex[1].Feature("element_type"); got != 3 {
		t.Errorf("FWD: got %v", got)
	}
	if got := ex[2].Feature("prev_total_points"); got != 60 {
		t.Errorf("filled prev_total_points: want 60, got %v", got)
	}
	if got := ex[2].Feature("prev_minutes"); got != 2000.5 {
		t.Errorf("filled prev_minutes: want 2000.5, got %v", got)
	}
	if got := ex[2].Feature("prev_season_played"); got != 0 {
		t.Errorf("prev_season_played: got %v", got)
	}
	if ex[2].Target != 10.56 && ex[2].Target != 10.55 {
		t.Errorf("target not rounded: %v", ex[2].Target)
	}

	if _, err := Preprocess([]Row{{ElementType: "AM"}}); err == nil {
		t.Error("expected error for unknown element type")
	}
}

func TestPreprocess_NoPrevAnywhere(t *testing.T) {
	ex, err := Preprocess([]Row{{ElementType: "DEF", GW: 1}})
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range ex[0].X {
		if math.IsNaN(v) {
			t.Errorf("feature %s left NaN", FeatureNames[i])
		}
	}
}

// -----------------------------------------------------------------------------
// CSV
// -----------------------------------------------------------------------------

func TestExamplesCSV(t *testing.T) {
	rows := []Row{
		{ElementType: "MID", GW: 4, TotalPoints: 150, Prev: &season.Summary{TotalPoints: 120},
			Current: features.CumulativeRow{GW: 4, Matches: 1, Minutes: 360, TotalPoints: 20, PointsPer90: 5}},
		{ElementType: "GK", GW: 4, TotalPoints: 90,
			Current: features.CumulativeRow{GW: 4, Matches: 1, Minutes: 360, TotalPoints: 12, PointsPer90: 3}},
	}
	want, err := Preprocess(rows)
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	path := ExamplesPath(dir, thisYear)
	if err := WriteExamplesCSV(path, want); err != nil {
		t.Fatalf("WriteExamplesCSV: %v", err)
	}
	got, err := ReadExamplesCSV(path)
	if err != nil {
		t.Fatalf("ReadExamplesCSV: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 examples, got %d", len(got))
	}
	for i := range want {
		if got[i].Target != want[i].Target {
			t.Errorf("example %d target: want %v, got %v", i, want[i].Target, got[i].Target)
		}
		for j := range want[i].X {
			if got[i].X[j] != want[i].X[j] {
				t.Errorf("example %d %s: want %v, got %v", i, FeatureNames[j], want[i].X[j], got[i].X[j])
			}
		}
	}

	if err := WriteRowsCSV(RowsPath(dir, thisYear), rows); err != nil {
		t.Fatalf("WriteRowsCSV: %v", err)
	}
	if _, err := ReadExamplesCSV(filepath.Join(dir, "missing.csv")); err == nil {
		t.Error("expected error for missing file")
	}
}

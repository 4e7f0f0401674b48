package season

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"fpl-points-predictor/internal/features"
	"fpl-points-predictor/internal/fetch"
)

// Player is one row of a season's cleaned_players.csv.
type Player struct {
	FirstName     string
	SecondName    string
	ElementType   string // GK, DEF, MID or FWD
	TotalPoints   float64
	GoalsScored   float64
	Assists       float64
	Minutes       float64
	GoalsConceded float64
	Creativity    float64
	Influence     float64
	Threat        float64
	Bonus         float64
	ICTIndex      float64
	CleanSheets   float64
	RedCards      float64
	YellowCards   float64
}

// Summary is a player's whole-season line with card counts replaced by
// per-90 rates. It is the "previous season" half of a training row.
type Summary struct {
	FirstName     string  `json:"first_name"`
	SecondName    string  `json:"second_name"`
	ElementType   string  `json:"element_type"`
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
	CardsPer90    float64 `json:"cards_per_90"`
	PointsPer90   float64 `json:"points_per_90"`
}

// Columns is the header order of a processed season CSV.
var Columns = []string{
	"first_name", "second_name", "element_type", "total_points",
	"goals_scored", "assists", "minutes", "goals_conceded",
	"creativity", "influence", "threat", "bonus", "ict_index",
	"clean_sheets", "cards_per_90", "points_per_90",
}

// ----- parsing -----

// ParsePlayersCSV decodes a cleaned_players.csv. Unknown columns are
// ignored; missing stat columns read as 0.
func ParsePlayersCSV(r io.Reader) ([]Player, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	hdr, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := headerIndex(hdr)
	for _, req := range []string{"first_name", "second_name", "element_type"} {
		if _, ok := idx[req]; !ok {
			return nil, fmt.Errorf("cleaned_players: %s column missing", req)
		}
	}

	var out []Player
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		line++
		f := fields{idx: idx, rec: rec, line: line}
		p := Player{
			FirstName:     f.str("first_name"),
			SecondName:    f.str("second_name"),
			ElementType:   f.str("element_type"),
			TotalPoints:   f.num("total_points"),
			GoalsScored:   f.num("goals_scored"),
			Assists:       f.num("assists"),
			Minutes:       f.num("minutes"),
			GoalsConceded: f.num("goals_conceded"),
			Creativity:    f.num("creativity"),
			Influence:     f.num("influence"),
			Threat:        f.num("threat"),
			Bonus:         f.num("bonus"),
			ICTIndex:      f.num("ict_index"),
			CleanSheets:   f.num("clean_sheets"),
			RedCards:      f.num("red_cards"),
			YellowCards:   f.num("yellow_cards"),
		}
		if f.err != nil {
			return nil, f.err
		}
		out = append(out, p)
	}
	return out, nil
}

// Process converts raw season rows into summaries: per-90 rates are derived
// from cards and points, raw card counts are dropped, values rounded to 2dp.
func Process(players []Player) []Summary {
	r := features.Round2
	out := make([]Summary, 0, len(players))
	for _, p := range players {
		out = append(out, Summary{
			FirstName:     p.FirstName,
			SecondName:    p.SecondName,
			ElementType:   p.ElementType,
			TotalPoints:   r(p.TotalPoints),
			GoalsScored:   r(p.GoalsScored),
			Assists:       r(p.Assists),
			Minutes:       r(p.Minutes),
			GoalsConceded: r(p.GoalsConceded),
			Creativity:    r(p.Creativity),
			Influence:     r(p.Influence),
			Threat:        r(p.Threat),
			Bonus:         r(p.Bonus),
			ICTIndex:      r(p.ICTIndex),
			CleanSheets:   r(p.CleanSheets),
			CardsPer90:    r(features.RatePer90(p.RedCards+p.YellowCards, p.Minutes)),
			PointsPer90:   r(features.RatePer90(p.TotalPoints, p.Minutes)),
		})
	}
	return out
}

// ----- processed season files -----

// Path is where the processed summaries for season live under dir.
func Path(dir, season string) string {
	return filepath.Join(dir, season+"_season_data.csv")
}

func WriteCSV(path string, rows []Summary) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(Columns); err != nil {
		return err
	}
	for _, s := range rows {
		if err := w.Write(s.record()); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func ReadCSV(path string) ([]Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseSummaries(f)
}

// ParseSummaries decodes a processed season CSV written by WriteCSV.
func ParseSummaries(r io.Reader) ([]Summary, error) {
	cr := csv.NewReader(r)
	hdr, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := headerIndex(hdr)
	for _, c := range Columns {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("season csv: %s column missing", c)
		}
	}

	var out []Summary
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		line++
		f := fields{idx: idx, rec: rec, line: line}
		s := Summary{
			FirstName:     f.str("first_name"),
			SecondName:    f.str("second_name"),
			ElementType:   f.str("element_type"),
			TotalPoints:   f.num("total_points"),
			GoalsScored:   f.num("goals_scored"),
			Assists:       f.num("assists"),
			Minutes:       f.num("minutes"),
			GoalsConceded: f.num("goals_conceded"),
			Creativity:    f.num("creativity"),
			Influence:     f.num("influence"),
			Threat:        f.num("threat"),
			Bonus:         f.num("bonus"),
			ICTIndex:      f.num("ict_index"),
			CleanSheets:   f.num("clean_sheets"),
			CardsPer90:    f.num("cards_per_90"),
			PointsPer90:   f.num("points_per_90"),
		}
		if f.err != nil {
			return nil, f.err
		}
		out = append(out, s)
	}
	return out, nil
}

func (s Summary) record() []string {
	n := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return []string{
		s.FirstName, s.SecondName, s.ElementType, n(s.TotalPoints),
		n(s.GoalsScored), n(s.Assists), n(s.Minutes), n(s.GoalsConceded),
		n(s.Creativity), n(s.Influence), n(s.Threat), n(s.Bonus), n(s.ICTIndex),
		n(s.CleanSheets), n(s.CardsPer90), n(s.PointsPer90),
	}
}

// FetchAndProcess downloads cleaned_players.csv for season, processes it and
// writes the summaries to Path(dir, season).
func FetchAndProcess(ctx context.Context, c *fetch.Client, season, dir string, force bool) ([]Summary, error) {
	body, err := c.CleanedPlayers(ctx, season, force)
	if err != nil {
		return nil, fmt.Errorf("fetch %s cleaned_players: %w", season, err)
	}
	players, err := ParsePlayersCSV(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s cleaned_players: %w", season, err)
	}
	rows := Process(players)
	if err := WriteCSV(Path(dir, season), rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// ----- helpers -----

func headerIndex(hdr []string) map[string]int {
	idx := make(map[string]int, len(hdr))
	for i, h := range hdr {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	return idx
}

// fields reads named cells from one record, keeping the first parse error.
type fields struct {
	idx  map[string]int
	rec  []string
	line int
	err  error
}

func (f *fields) str(name string) string {
	i, ok := f.idx[name]
	if !ok || i >= len(f.rec) {
		return ""
	}
	return strings.TrimSpace(f.rec[i])
}

func (f *fields) num(name string) float64 {
	s := f.str(name)
	if s == "" || f.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		f.err = fmt.Errorf("line %d column %s: %w", f.line, name, err)
		return 0
	}
	return v
}

package predict

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"fpl-points-predictor/internal/features"
	"fpl-points-predictor/internal/model"
	"fpl-points-predictor/internal/training"
)

type Prediction struct {
	Code        int     `json:"code"`
	FirstName   string  `json:"first_name"`
	SecondName  string  `json:"second_name"`
	ElementType int     `json:"element_type"`
	Points      float64 `json:"total_points_prediction"`
}

// PositionNames indexes element types 0..3.
var PositionNames = []string{"Goalkeepers", "Defenders", "Midfielders", "Forwards"}

func PositionName(elementType int) string {
	if elementType < 0 || elementType >= len(PositionNames) {
		return "Unknown"
	}
	return PositionNames[elementType]
}

// Run scores examples with r and returns ranked predictions.
func Run(r model.Regressor, ex []training.Example) ([]Prediction, error) {
	X, _ := training.Matrix(ex)
	y, err := r.Predict(X)
	if err != nil {
		return nil, err
	}
	out := make([]Prediction, len(ex))
	for i, e := range ex {
		out[i] = Prediction{
			Code:        e.Code,
			FirstName:   e.FirstName,
			SecondName:  e.SecondName,
			ElementType: int(e.Feature("element_type")),
			Points:      features.Round2(y[i]),
		}
	}
	Rank(out)
	return out, nil
}

// Rank sorts by predicted points descending; ties break on name.
func Rank(preds []Prediction) {
	sort.SliceStable(preds, func(i, j int) bool {
		a, b := preds[i], preds[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.SecondName != b.SecondName {
			return a.SecondName < b.SecondName
		}
		return a.FirstName < b.FirstName
	})
}

// TopN returns the n highest predictions for one element type. n <= 0
// returns every match.
func TopN(preds []Prediction, elementType, n int) []Prediction {
	var out []Prediction
	for _, p := range preds {
		if p.ElementType == elementType {
			out = append(out, p)
		}
	}
	Rank(out)
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Path is where predictions for (gw, season) are written under dir.
func Path(dir string, gw int, season string) string {
	return filepath.Join(dir, "predictions", fmt.Sprintf("%d_%s_predictions.csv", gw, season))
}

var columns = []string{"total_points_prediction", "code", "first_name", "second_name", "element_type"}

func WriteCSV(path string, preds []Prediction) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(columns); err != nil {
		return err
	}
	for _, p := range preds {
		rec := []string{
			strconv.FormatFloat(p.Points, 'f', 2, 64),
			strconv.Itoa(p.Code),
			p.FirstName,
			p.SecondName,
			strconv.Itoa(p.ElementType),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func ReadCSV(path string) ([]Prediction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cr := csv.NewReader(f)
	hdr, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := map[string]int{}
	for i, h := range hdr {
		idx[strings.TrimSpace(h)] = i
	}
	for _, c := range columns {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("predictions csv: %s column missing", c)
		}
	}

	var out []Prediction
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		pts, err := strconv.ParseFloat(rec[idx["total_points_prediction"]], 64)
		if err != nil {
			return nil, err
		}
		code, err := strconv.Atoi(rec[idx["code"]])
		if err != nil {
			return nil, err
		}
		et, err := strconv.Atoi(rec[idx["element_type"]])
		if err != nil {
			return nil, err
		}
		out = append(out, Prediction{
			Code:        code,
			FirstName:   rec[idx["first_name"]],
			SecondName:  rec[idx["second_name"]],
			ElementType: et,
			Points:      pts,
		})
	}
	return out, nil
}

// FormatTop renders the top n per position as plain text.
func FormatTop(preds []Prediction, n int) string {
	var b strings.Builder
	for et, name := range PositionNames {
		fmt.Fprintf(&b, "\n=== Top %d %s ===\n", n, name)
		for i, p := range TopN(preds, et, n) {
			fmt.Fprintf(&b, "%d. %-25s %.2f pts\n", i+1, p.FirstName+" "+p.SecondName, p.Points)
		}
	}
	return b.String()
}

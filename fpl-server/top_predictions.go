package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"fpl-points-predictor/internal/predict"
	"fpl-points-predictor/internal/training"
)

// TopPredictionsArgs are the input arguments for the top_predictions tool.
type TopPredictionsArgs struct {
	Season   string `json:"season,omitempty" jsonschema:"Season such as 2025-26 (default current)"`
	GW       int    `json:"gw,omitempty" jsonschema:"Gameweek of the prediction run (0 = latest)"`
	Position string `json:"position,omitempty" jsonschema:"GK|DEF|MID|FWD (default all positions)"`
	Limit    int    `json:"limit,omitempty" jsonschema:"How many players to return (default 10)"`
}

// TopPredictionsOutput is the output of the top_predictions tool.
type TopPredictionsOutput struct {
	Season      string               `json:"season"`
	GW          int                  `json:"gw"`
	Position    string               `json:"position"`
	Predictions []predict.Prediction `json:"predictions"`
}

func buildTopPredictions(cfg ServerConfig, args TopPredictionsArgs) (TopPredictionsOutput, error) {
	s := resolveSeason(cfg, args.Season)
	limit := args.Limit
	if limit <= 0 {
		limit = 10
	}

	gw := args.GW
	if gw <= 0 {
		latest, err := latestPredictionGW(cfg.DerivedRoot, s)
		if err != nil {
			return TopPredictionsOutput{}, err
		}
		gw = latest
	}
	preds, err := predict.ReadCSV(predict.Path(cfg.DerivedRoot, gw, s))
	if err != nil {
		return TopPredictionsOutput{}, fmt.Errorf("no predictions for %s gw%d: %w", s, gw, err)
	}

	out := TopPredictionsOutput{Season: s, GW: gw, Position: "all"}
	pos := strings.ToUpper(strings.TrimSpace(args.Position))
	if pos == "" {
		predict.Rank(preds)
		if len(preds) > limit {
			preds = preds[:limit]
		}
		out.Predictions = preds
		return out, nil
	}
	et, err := training.ElementTypeIndex(pos)
	if err != nil {
		return TopPredictionsOutput{}, fmt.Errorf("position must be GK, DEF, MID or FWD: %w", err)
	}
	out.Position = predict.PositionName(et)
	out.Predictions = predict.TopN(preds, et, limit)
	return out, nil
}

// latestPredictionGW finds the highest gameweek with a predictions file for s.
func latestPredictionGW(derivedRoot, s string) (int, error) {
	dir := filepath.Dir(predict.Path(derivedRoot, 0, s))
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("no predictions yet: %w", err)
	}
	suffix := "_" + s + "_predictions.csv"
	best := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, suffix) {
			continue
		}
		gw, err := strconv.Atoi(strings.TrimSuffix(name, suffix))
		if err != nil {
			continue
		}
		if gw > best {
			best = gw
		}
	}
	if best == 0 {
		return 0, fmt.Errorf("no predictions for %s", s)
	}
	return best, nil
}

package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"fpl-points-predictor/internal/features"
	"fpl-points-predictor/internal/live"
	"fpl-points-predictor/internal/model"
	"fpl-points-predictor/internal/predict"
	"fpl-points-predictor/internal/roster"
	"fpl-points-predictor/internal/season"
	"fpl-points-predictor/internal/training"
)

// PrevYearsDir is where processed season summaries live.
func (e *Env) PrevYearsDir() string {
	return filepath.Join(e.Cfg.DerivedDir, "prev_years")
}

// Predownload fetches every gameweek CSV of the given seasons into the raw
// cache. Failures are logged and counted; only context errors abort.
func (e *Env) Predownload(ctx context.Context, seasons []string) (fetched, failed int, err error) {
	for _, s := range seasons {
		for gw := 1; gw <= features.GameweeksPerSeason; gw++ {
			if err := ctx.Err(); err != nil {
				return fetched, failed, err
			}
			if _, err := e.Client.GameweekCSV(ctx, s, gw, e.Cfg.Fetch.Force); err != nil {
				if ctx.Err() != nil {
					return fetched, failed, ctx.Err()
				}
				e.Log.Warn("gameweek download failed", "season", s, "gw", gw, "error", err)
				failed++
				continue
			}
			fetched++
		}
		e.Log.Info("season downloaded", "season", s)
	}
	return fetched, failed, nil
}

// PrepareSeasons downloads and processes cleaned_players.csv for each
// season, returning the summaries keyed by season.
func (e *Env) PrepareSeasons(ctx context.Context, seasons []string) (map[string][]season.Summary, error) {
	out := make(map[string][]season.Summary, len(seasons))
	for _, s := range seasons {
		rows, err := season.FetchAndProcess(ctx, e.Client, s, e.PrevYearsDir(), e.Cfg.Fetch.Force)
		if err != nil {
			return nil, err
		}
		e.Log.Info("season summaries written", "season", s, "players", len(rows), "path", season.Path(e.PrevYearsDir(), s))
		out[s] = rows
	}
	return out, nil
}

// TrainResult reports what Train produced.
type TrainResult struct {
	Examples  int
	Train     int
	Test      int
	Metrics   model.Metrics
	ModelPath string
}

// Train assembles training data for every configured season pair, fits a
// ridge model on a held-out split to report metrics, then refits on all
// examples and saves the model.
func (e *Env) Train(ctx context.Context) (*TrainResult, error) {
	cfg := e.Cfg
	summaries, err := e.PrepareSeasons(ctx, cfg.Seasons)
	if err != nil {
		return nil, err
	}

	asm := &training.Assembler{Series: e.Series(), Workers: cfg.Training.Workers, Logger: e.Log}

	var all []training.Example
	for _, pair := range cfg.TrainingPairs() {
		prevYear, thisYear := pair[0], pair[1]
		start := time.Now()
		rows, err := asm.Season(ctx, thisYear, summaries[prevYear], summaries[thisYear])
		if err != nil {
			return nil, fmt.Errorf("assemble %s: %w", thisYear, err)
		}
		if err := training.WriteRowsCSV(training.RowsPath(cfg.DerivedDir, thisYear), rows); err != nil {
			return nil, err
		}
		ex, err := training.Preprocess(rows)
		if err != nil {
			return nil, fmt.Errorf("preprocess %s: %w", thisYear, err)
		}
		if err := training.WriteExamplesCSV(training.ExamplesPath(cfg.DerivedDir, thisYear), ex); err != nil {
			return nil, err
		}
		e.Log.Info("season prepared", "season", thisYear, "prev", prevYear, "rows", len(rows), "elapsed", time.Since(start).Round(time.Millisecond))
		all = append(all, ex...)
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("no training examples for seasons %v", cfg.Seasons)
	}

	X, y := training.Matrix(all)
	trainIdx, testIdx := model.Split(len(all), cfg.Training.TestFraction, cfg.Training.Seed)
	res := &TrainResult{Examples: len(all), Train: len(trainIdx), Test: len(testIdx), ModelPath: cfg.Training.ModelPath}

	if len(trainIdx) > 0 && len(testIdx) > 0 {
		trX, trY := model.Subset(X, y, trainIdx)
		teX, teY := model.Subset(X, y, testIdx)
		holdout := model.NewRidge(cfg.Training.Lambda, training.FeatureNames)
		if err := holdout.Fit(trX, trY); err != nil {
			return nil, fmt.Errorf("fit holdout model: %w", err)
		}
		pred, err := holdout.Predict(teX)
		if err != nil {
			return nil, err
		}
		m, err := model.Evaluate(teY, pred)
		if err != nil {
			return nil, err
		}
		res.Metrics = m
		e.Log.Info("holdout evaluation", "train", len(trainIdx), "test", len(testIdx), "mse", m.MSE, "r2", m.R2)
	}

	final := model.NewRidge(cfg.Training.Lambda, training.FeatureNames)
	if err := final.Fit(X, y); err != nil {
		return nil, fmt.Errorf("fit model: %w", err)
	}
	if err := model.Save(cfg.Training.ModelPath, final); err != nil {
		return nil, err
	}
	e.Log.Info("model saved", "path", cfg.Training.ModelPath, "examples", len(all))
	return res, nil
}

// PredictOptions controls a live prediction run.
type PredictOptions struct {
	// GW is the gameweek the features describe; 0 means the last finished one.
	GW int
	// UseSeries overlays each player's cumulative series (built from the
	// gameweek dataset) on the API's season totals.
	UseSeries bool
}

// PredictResult holds ranked predictions and where they were written.
type PredictResult struct {
	GW          int
	Predictions []predict.Prediction
	Path        string
}

// Predict pulls the live FPL snapshot, builds model inputs for the current
// season and writes ranked predictions.
func (e *Env) Predict(ctx context.Context, opts PredictOptions) (*PredictResult, error) {
	cfg := e.Cfg
	bs, err := live.FetchBootstrap(ctx, e.Client, true)
	if err != nil {
		return nil, fmt.Errorf("fetch bootstrap-static: %w", err)
	}
	gw := opts.GW
	if gw <= 0 {
		gw = bs.LastFinishedGW()
	}
	if gw <= 0 {
		return nil, fmt.Errorf("no finished gameweek in %s yet", cfg.CurrentSeason)
	}

	prev, err := e.prevSummaries(ctx)
	if err != nil {
		return nil, err
	}

	asm := &live.Assembler{Logger: e.Log}
	if opts.UseSeries {
		asm.Series, err = e.latestRows(ctx, bs.Elements, gw)
		if err != nil {
			return nil, err
		}
	}
	ex := asm.Assemble(bs.Elements, prev, cfg.CurrentSeason, gw)

	r, err := model.Load(cfg.Training.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	preds, err := predict.Run(r, ex)
	if err != nil {
		return nil, err
	}
	path := predict.Path(cfg.DerivedDir, gw, cfg.CurrentSeason)
	if err := predict.WriteCSV(path, preds); err != nil {
		return nil, err
	}
	e.Log.Info("predictions written", "season", cfg.CurrentSeason, "gw", gw, "players", len(preds), "path", path)
	return &PredictResult{GW: gw, Predictions: preds, Path: path}, nil
}

// prevSummaries reads the previous season's processed summaries, fetching
// them when they have not been prepared yet.
func (e *Env) prevSummaries(ctx context.Context) ([]season.Summary, error) {
	path := season.Path(e.PrevYearsDir(), e.Cfg.PrevSeason)
	if rows, err := season.ReadCSV(path); err == nil {
		return rows, nil
	}
	return season.FetchAndProcess(ctx, e.Client, e.Cfg.PrevSeason, e.PrevYearsDir(), e.Cfg.Fetch.Force)
}

// latestRows builds the current-season series for every element and keeps
// the row describing gw. When the dataset lags behind the API the latest
// earlier row is used instead.
func (e *Env) latestRows(ctx context.Context, elements []live.Element, gw int) (map[string]features.CumulativeRow, error) {
	src := e.Series()
	out := make(map[string]features.CumulativeRow, len(elements))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(e.Cfg.Training.Workers, 1))
	for _, el := range elements {
		name := roster.FullName(el.FirstName, el.SecondName)
		g.Go(func() error {
			rows, err := src.Series(ctx, e.Cfg.CurrentSeason, name)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				e.Log.Warn("series unavailable, using API totals", "player", name, "error", err)
				return nil
			}
			row, ok := features.At(rows, gw)
			if !ok {
				if last, found := features.Latest(rows); found && last.GW < gw {
					row, ok = last, true
				}
			}
			if ok {
				mu.Lock()
				out[name] = row
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	e.Log.Info("series overlay built", "season", e.Cfg.CurrentSeason, "gw", gw, "players", len(out))
	return out, nil
}

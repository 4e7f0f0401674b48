package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"fpl-points-predictor/internal/config"
	"fpl-points-predictor/internal/logger"
	"fpl-points-predictor/internal/pipeline"
	"fpl-points-predictor/internal/predict"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config (optional)")
		gw         = flag.Int("gw", 0, "gameweek the features describe (0 = last finished)")
		modelPath  = flag.String("model", "", "fitted model to load (overrides config)")
		useSeries  = flag.Bool("series", false, "overlay cumulative series built from the gameweek dataset")
		top        = flag.Int("top", 10, "players to print per position")
	)
	flag.Parse()

	config.LoadDotEnv()
	cfg, err := config.Load(*configPath)
	must(err)
	if *modelPath != "" {
		cfg.Training.ModelPath = *modelPath
	}
	lg := logger.Init(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	env, err := pipeline.Setup(ctx, cfg, lg)
	must(err)
	defer env.Close()

	res, err := env.Predict(ctx, pipeline.PredictOptions{GW: *gw, UseSeries: *useSeries})
	must(err)

	fmt.Printf("Predictions after GW%d (%s) written to %s\n\n", res.GW, cfg.CurrentSeason, res.Path)
	fmt.Print(predict.FormatTop(res.Predictions, *top))
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

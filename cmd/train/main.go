package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"fpl-points-predictor/internal/config"
	"fpl-points-predictor/internal/logger"
	"fpl-points-predictor/internal/pipeline"
)

func main() {
	var (
		configPath  = flag.String("config", "", "path to YAML config (optional)")
		derivedRoot = flag.String("derived-root", "", "root directory for derived output (overrides config)")
		modelPath   = flag.String("model", "", "where to save the fitted model (overrides config)")
		lambda      = flag.Float64("lambda", -1, "ridge penalty (overrides config)")
		workers     = flag.Int("workers", 0, "concurrent series builds (overrides config)")
		predownload = flag.Bool("predownload", true, "fetch every training gameweek CSV before building features")
		force       = flag.Bool("force", false, "re-download files already in the cache")
		jsonOut     = flag.Bool("json", false, "print the training report as JSON on stdout")
	)
	flag.Parse()

	config.LoadDotEnv()
	cfg, err := config.Load(*configPath)
	must(err)
	if *derivedRoot != "" {
		cfg.DerivedDir = *derivedRoot
	}
	if *modelPath != "" {
		cfg.Training.ModelPath = *modelPath
	}
	if *lambda >= 0 {
		cfg.Training.Lambda = *lambda
	}
	if *workers > 0 {
		cfg.Training.Workers = *workers
	}
	cfg.Fetch.Force = cfg.Fetch.Force || *force
	lg := logger.Init(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	env, err := pipeline.Setup(ctx, cfg, lg)
	must(err)
	defer env.Close()

	start := time.Now()
	if *predownload {
		fetched, failed, err := env.Predownload(ctx, cfg.Seasons)
		must(err)
		lg.Info("predownload complete", "fetched", fetched, "failed", failed)
	}

	res, err := env.Train(ctx)
	must(err)
	lg.Info("training complete", "examples", res.Examples, "mse", res.Metrics.MSE, "r2", res.Metrics.R2, "elapsed", time.Since(start).Round(time.Second))

	if *jsonOut {
		b, err := json.MarshalIndent(res, "", "  ")
		must(err)
		fmt.Println(string(b))
	}
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

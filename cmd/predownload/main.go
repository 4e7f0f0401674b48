package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"fpl-points-predictor/internal/config"
	"fpl-points-predictor/internal/logger"
	"fpl-points-predictor/internal/pipeline"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config (optional)")
		seasons    = flag.String("seasons", "", "comma-separated seasons to fetch (default: training seasons + current)")
		rawRoot    = flag.String("raw-root", "", "root directory for raw downloads (overrides config)")
		sleepMS    = flag.Int("sleep-ms", -1, "sleep between requests in ms (overrides config)")
		force      = flag.Bool("force", false, "re-download files already in the cache")
	)
	flag.Parse()

	config.LoadDotEnv()
	cfg, err := config.Load(*configPath)
	must(err)
	if *rawRoot != "" {
		cfg.DataDir = *rawRoot
	}
	if *sleepMS >= 0 {
		cfg.Fetch.Sleep = time.Duration(*sleepMS) * time.Millisecond
	}
	cfg.Fetch.Force = cfg.Fetch.Force || *force
	lg := logger.Init(cfg.Log.Level, cfg.Log.Format)

	list := append(append([]string{}, cfg.Seasons...), cfg.CurrentSeason)
	if *seasons != "" {
		list = parseList(*seasons)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	env, err := pipeline.Setup(ctx, cfg, lg)
	must(err)
	defer env.Close()

	start := time.Now()
	fetched, failed, err := env.Predownload(ctx, list)
	must(err)
	lg.Info("predownload complete", "seasons", len(list), "fetched", fetched, "failed", failed, "elapsed", time.Since(start).Round(time.Second))
}

func parseList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

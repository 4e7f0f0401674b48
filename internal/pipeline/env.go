package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"fpl-points-predictor/internal/config"
	"fpl-points-predictor/internal/features"
	"fpl-points-predictor/internal/featurestore"
	"fpl-points-predictor/internal/fetch"
	"fpl-points-predictor/internal/gwdata"
	"fpl-points-predictor/internal/store"
)

// Env is the wired dependency graph shared by the CLIs and the server.
type Env struct {
	Cfg    *config.Config
	Log    *slog.Logger
	Raw    *store.Store
	Client *fetch.Client
	Source gwdata.Source
	Store  featurestore.Store

	redis *redis.Client
}

// Setup builds the fetch client, the gameweek source chain (disk cache,
// optional Redis, in-process memo) and the feature store.
func Setup(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Env, error) {
	if log == nil {
		log = slog.Default()
	}
	raw := store.New(cfg.DataDir)

	client := fetch.NewClient(raw)
	client.DatasetURL = cfg.Fetch.DatasetURL
	client.APIURL = cfg.Fetch.APIURL
	client.UserAgent = cfg.Fetch.UserAgent
	client.Sleep = cfg.Fetch.Sleep
	if cfg.Fetch.Timeout > 0 {
		client.HTTP = &http.Client{Timeout: cfg.Fetch.Timeout}
	}

	env := &Env{Cfg: cfg, Log: log, Raw: raw, Client: client}

	var src gwdata.Source = &gwdata.RemoteSource{Client: client, Force: cfg.Fetch.Force}
	if cfg.Redis.Addr != "" {
		rc, err := gwdata.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Warn("redis unavailable, continuing without it", "addr", cfg.Redis.Addr, "error", err)
		} else {
			env.redis = rc
			src = &gwdata.RedisSource{Client: rc, Next: src, TTL: cfg.Redis.TTL, Logger: log}
			log.Info("redis gameweek cache enabled", "addr", cfg.Redis.Addr)
		}
	}
	env.Source = gwdata.NewMemo(src)

	fs, err := featurestore.Open(ctx, cfg.FeatureStore)
	if err != nil {
		env.Close()
		return nil, err
	}
	env.Store = fs
	log.Info("feature store opened", "driver", cfg.FeatureStore.Driver)
	return env, nil
}

// Builder returns a series builder over the env's source.
func (e *Env) Builder() *features.Builder {
	return features.NewBuilder(e.Source, e.Log)
}

// Series returns a player's cumulative series through the feature store.
func (e *Env) Series() *featurestore.Cached {
	return &featurestore.Cached{Store: e.Store, Builder: e.Builder(), Logger: e.Log}
}

func (e *Env) Close() error {
	var errs []error
	if e.Store != nil {
		errs = append(errs, e.Store.Close())
	}
	if e.redis != nil {
		errs = append(errs, e.redis.Close())
	}
	return errors.Join(errs...)
}

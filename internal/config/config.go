package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// DataDir holds raw downloads (gameweek CSVs, season CSVs, API snapshots).
	DataDir string `yaml:"data_dir"`
	// DerivedDir holds everything the pipeline writes.
	DerivedDir string `yaml:"derived_dir"`

	// Seasons are the training seasons in chronological order. Each season
	// after the first is paired with the one before it.
	Seasons       []string `yaml:"seasons"`
	CurrentSeason string   `yaml:"current_season"`
	PrevSeason    string   `yaml:"prev_season"`

	Fetch        FetchConfig        `yaml:"fetch"`
	Training     TrainingConfig     `yaml:"training"`
	Redis        RedisConfig        `yaml:"redis"`
	FeatureStore FeatureStoreConfig `yaml:"feature_store"`
	Log          LogConfig          `yaml:"log"`
	Server       ServerConfig       `yaml:"server"`
}

type FetchConfig struct {
	DatasetURL string        `yaml:"dataset_url"`
	APIURL     string        `yaml:"api_url"`
	UserAgent  string        `yaml:"user_agent"`
	Sleep      time.Duration `yaml:"sleep"`
	Timeout    time.Duration `yaml:"timeout"`
	Force      bool          `yaml:"force"`
}

type TrainingConfig struct {
	Workers      int     `yaml:"workers"`
	TestFraction float64 `yaml:"test_fraction"`
	Seed         uint64  `yaml:"seed"`
	Lambda       float64 `yaml:"lambda"`
	ModelPath    string  `yaml:"model_path"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"` // empty disables the cache
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type FeatureStoreConfig struct {
	Driver string `yaml:"driver"` // memory, sqlite or postgres
	Path   string `yaml:"path"`   // sqlite file
	DSN    string `yaml:"dsn"`    // postgres connection string
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or text
}

type ServerConfig struct {
	Addr   string `yaml:"addr"`
	APIKey string `yaml:"api_key"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		DataDir:       "data/raw",
		DerivedDir:    "data/derived",
		Seasons:       []string{"2020-21", "2021-22", "2022-23", "2023-24", "2024-25"},
		CurrentSeason: "2025-26",
		PrevSeason:    "2024-25",
		Fetch: FetchConfig{
			DatasetURL: "https://raw.githubusercontent.com/vaastav/Fantasy-Premier-League/master/data",
			APIURL:     "https://fantasy.premierleague.com/api",
			UserAgent:  "fpl-points-predictor/1.0",
			Sleep:      100 * time.Millisecond,
			Timeout:    30 * time.Second,
		},
		Training: TrainingConfig{
			Workers:      8,
			TestFraction: 0.2,
			Seed:         42,
			Lambda:       1.0,
			ModelPath:    "models/ridge.json",
		},
		Redis: RedisConfig{TTL: 24 * time.Hour},
		FeatureStore: FeatureStoreConfig{
			Driver: "sqlite",
			Path:   "data/derived/features.db",
		},
		Log:    LogConfig{Level: "info", Format: "json"},
		Server: ServerConfig{Addr: ":8080"},
	}
}

// Load reads a YAML file over the defaults, then applies environment
// overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads the first .env file found among paths into the process
// environment. Existing variables are not overwritten. It returns the path
// that was loaded, or "" if none was found.
func LoadDotEnv(paths ...string) string {
	if len(paths) == 0 {
		paths = []string{".env", "../.env", "../../.env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err == nil {
			return p
		}
	}
	return ""
}

// ApplyEnv overrides fields from well-known environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.FeatureStore.DSN = v
	}
	if v := os.Getenv("FEATURE_STORE"); v != "" {
		c.FeatureStore.Driver = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REDIS_DB: %w", err)
		}
		c.Redis.DB = n
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("FPL_MCP_API_KEY"); v != "" {
		c.Server.APIKey = v
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.DataDir == "" {
		errs = append(errs, errors.New("data_dir is required"))
	}
	if c.DerivedDir == "" {
		errs = append(errs, errors.New("derived_dir is required"))
	}
	if c.Training.TestFraction < 0 || c.Training.TestFraction >= 1 {
		errs = append(errs, fmt.Errorf("training.test_fraction must be in [0,1), got %v", c.Training.TestFraction))
	}
	if c.Training.Lambda < 0 {
		errs = append(errs, fmt.Errorf("training.lambda must be >= 0, got %v", c.Training.Lambda))
	}
	if c.Training.Workers < 1 {
		errs = append(errs, fmt.Errorf("training.workers must be >= 1, got %d", c.Training.Workers))
	}
	switch c.FeatureStore.Driver {
	case "memory":
	case "sqlite":
		if c.FeatureStore.Path == "" {
			errs = append(errs, errors.New("feature_store.path is required for sqlite"))
		}
	case "postgres":
		if c.FeatureStore.DSN == "" {
			errs = append(errs, errors.New("feature_store.dsn (or DATABASE_URL) is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown feature_store.driver %q", c.FeatureStore.Driver))
	}
	return errors.Join(errs...)
}

// TrainingPairs returns (previous, current) season pairs for training.
func (c *Config) TrainingPairs() [][2]string {
	var out [][2]string
	for i := 1; i < len(c.Seasons); i++ {
		out = append(out, [2]string{c.Seasons[i-1], c.Seasons[i]})
	}
	return out
}

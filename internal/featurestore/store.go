package featurestore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"fpl-points-predictor/internal/config"
	"fpl-points-predictor/internal/features"
)

// Store persists built series keyed by (season, player). A saved empty
// series is a real answer (the player never featured) and loads with ok=true.
type Store interface {
	SaveSeries(ctx context.Context, season, player string, rows []features.CumulativeRow) error
	LoadSeries(ctx context.Context, season, player string) ([]features.CumulativeRow, bool, error)
	Close() error
}

// Open returns the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.FeatureStoreConfig) (Store, error) {
	switch cfg.Driver {
	case "memory":
		return NewMemory(), nil
	case "sqlite":
		return NewSQLite(ctx, cfg.Path)
	case "postgres":
		return NewPostgres(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("featurestore: unknown driver %q", cfg.Driver)
	}
}

// Memory keeps series in process. Safe for concurrent use.
type Memory struct {
	mu     sync.RWMutex
	series map[string][]features.CumulativeRow
}

func NewMemory() *Memory {
	return &Memory{series: make(map[string][]features.CumulativeRow)}
}

func memKey(season, player string) string { return season + "\x00" + player }

func (m *Memory) SaveSeries(_ context.Context, season, player string, rows []features.CumulativeRow) error {
	cp := make([]features.CumulativeRow, len(rows))
	copy(cp, rows)
	m.mu.Lock()
	m.series[memKey(season, player)] = cp
	m.mu.Unlock()
	return nil
}

func (m *Memory) LoadSeries(_ context.Context, season, player string) ([]features.CumulativeRow, bool, error) {
	m.mu.RLock()
	rows, ok := m.series[memKey(season, player)]
	m.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	cp := make([]features.CumulativeRow, len(rows))
	copy(cp, rows)
	return cp, true, nil
}

func (m *Memory) Close() error { return nil }

func encodeRows(rows []features.CumulativeRow) ([]byte, error) {
	if rows == nil {
		rows = []features.CumulativeRow{}
	}
	return json.Marshal(rows)
}

func decodeRows(b []byte) ([]features.CumulativeRow, error) {
	var rows []features.CumulativeRow
	if err := json.Unmarshal(b, &rows); err != nil {
		return nil, fmt.Errorf("decode series: %w", err)
	}
	return rows, nil
}

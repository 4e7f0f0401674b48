package gwdata

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"fpl-points-predictor/internal/fetch"
)

// ErrUnavailable reports that a season/gameweek roster could not be obtained.
var ErrUnavailable = errors.New("gameweek data unavailable")

// Source returns every player's match records for one season/gameweek.
// Implementations must be idempotent; callers filter by player.
type Source interface {
	GameweekRows(ctx context.Context, season string, gw int) ([]RawMatchRecord, error)
}

// RemoteSource reads gameweek CSVs through the fetch client, which serves
// the disk cache first and falls back to the dataset.
type RemoteSource struct {
	Client *fetch.Client
	Force  bool
}

func (s *RemoteSource) GameweekRows(ctx context.Context, season string, gw int) ([]RawMatchRecord, error) {
	body, err := s.Client.GameweekCSV(ctx, season, gw, s.Force)
	if err != nil {
		return nil, fmt.Errorf("%w: %s gw%d: %v", ErrUnavailable, season, gw, err)
	}
	rows, err := ParseGameweekCSV(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %s gw%d: %v", ErrUnavailable, season, gw, err)
	}
	return rows, nil
}

// StaticSource serves fixed rows keyed by season then gameweek.
// A gameweek with no entry is unavailable; an empty slice is a real roster.
type StaticSource map[string]map[int][]RawMatchRecord

func (s StaticSource) GameweekRows(_ context.Context, season string, gw int) ([]RawMatchRecord, error) {
	rows, ok := s[season][gw]
	if !ok {
		return nil, fmt.Errorf("%w: %s gw%d", ErrUnavailable, season, gw)
	}
	out := make([]RawMatchRecord, len(rows))
	copy(out, rows)
	return out, nil
}

// Memo keeps parsed rosters in memory so concurrent series builds share one
// fetch per gameweek. Failures are not memoized. The shared fetch runs
// detached from any one caller's cancellation; each caller stops waiting when
// its own ctx is done.
type Memo struct {
	Next Source

	group singleflight.Group
	mu    sync.RWMutex
	rows  map[string][]RawMatchRecord
}

func NewMemo(next Source) *Memo {
	return &Memo{Next: next, rows: make(map[string][]RawMatchRecord)}
}

func (m *Memo) GameweekRows(ctx context.Context, season string, gw int) ([]RawMatchRecord, error) {
	key := fmt.Sprintf("%s/%d", season, gw)

	m.mu.RLock()
	rows, ok := m.rows[key]
	m.mu.RUnlock()
	if ok {
		return rows, nil
	}

	fetchCtx := context.WithoutCancel(ctx)
	ch := m.group.DoChan(key, func() (any, error) {
		rows, err := m.Next.GameweekRows(fetchCtx, season, gw)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.rows[key] = rows
		m.mu.Unlock()
		return rows, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]RawMatchRecord), nil
	}
}

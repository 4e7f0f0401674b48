package featurestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"fpl-points-predictor/internal/features"
)

// SQLite stores series as JSON text in a single table.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." && path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One writer; concurrent assemblers serialize through the pool.
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS player_series (
		season TEXT NOT NULL,
		player TEXT NOT NULL,
		series_json TEXT NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (season, player)
	);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("sqlite schema: %w", err)
	}
	return nil
}

func (s *SQLite) SaveSeries(ctx context.Context, season, player string, rows []features.CumulativeRow) error {
	b, err := encodeRows(rows)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO player_series (season, player, series_json, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (season, player) DO UPDATE SET series_json = excluded.series_json, updated_at = excluded.updated_at`,
		season, player, string(b), time.Now().Unix())
	return err
}

func (s *SQLite) LoadSeries(ctx context.Context, season, player string) ([]features.CumulativeRow, bool, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT series_json FROM player_series WHERE season = ? AND player = ?`, season, player).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	rows, err := decodeRows([]byte(body))
	if err != nil {
		return nil, false, err
	}
	return rows, true, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

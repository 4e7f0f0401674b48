package featurestore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fpl-points-predictor/internal/features"
)

// Postgres stores series as JSONB rows in a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects, pings and ensures the schema exists.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	p := &Postgres{pool: pool}
	if err := p.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

func (p *Postgres) initSchema(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS player_series (
			season TEXT NOT NULL,
			player TEXT NOT NULL,
			series_json JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (season, player)
		)`)
	if err != nil {
		return fmt.Errorf("postgres schema: %w", err)
	}
	return nil
}

func (p *Postgres) SaveSeries(ctx context.Context, season, player string, rows []features.CumulativeRow) error {
	b, err := encodeRows(rows)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO player_series (season, player, series_json, updated_at) VALUES ($1, $2, $3, now())
		ON CONFLICT (season, player) DO UPDATE SET series_json = EXCLUDED.series_json, updated_at = now()`,
		season, player, string(b))
	return err
}

func (p *Postgres) LoadSeries(ctx context.Context, season, player string) ([]features.CumulativeRow, bool, error) {
	var body []byte
	err := p.pool.QueryRow(ctx,
		`SELECT series_json::text FROM player_series WHERE season = $1 AND player = $2`, season, player).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	rows, err := decodeRows(body)
	if err != nil {
		return nil, false, err
	}
	return rows, true, nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

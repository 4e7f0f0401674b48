package gwdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSource is a read-through cache in front of another Source. Redis
// failures degrade to the upstream source.
type RedisSource struct {
	Client *redis.Client
	Next   Source
	TTL    time.Duration
	Logger *slog.Logger
}

func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func RedisKey(season string, gw int) string {
	return fmt.Sprintf("fpl:gw:%s:%d", season, gw)
}

func (s *RedisSource) GameweekRows(ctx context.Context, season string, gw int) ([]RawMatchRecord, error) {
	key := RedisKey(season, gw)
	log := s.Logger
	if log == nil {
		log = slog.Default()
	}

	data, err := s.Client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var rows []RawMatchRecord
		if err := json.Unmarshal(data, &rows); err == nil {
			return rows, nil
		}
		log.Warn("discarding undecodable cached gameweek", "key", key)
	case !errors.Is(err, redis.Nil):
		log.Warn("redis get failed", "key", key, "error", err)
	}

	rows, err := s.Next.GameweekRows(ctx, season, gw)
	if err != nil {
		return nil, err
	}

	b, err := json.Marshal(rows)
	if err != nil {
		return nil, err
	}
	if err := s.Client.Set(ctx, key, b, s.TTL).Err(); err != nil {
		log.Warn("redis set failed", "key", key, "error", err)
	}
	return rows, nil
}

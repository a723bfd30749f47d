package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"perfume-backoffice/internal/config"

	"github.com/redis/go-redis/v9"
)

func ConnectRedis(cfg *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisURL,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		PoolSize:     10,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

// RedisMirror shares collection snapshots between server processes.
type RedisMirror struct {
	rdb *redis.Client
}

func NewRedisMirror(rdb *redis.Client) *RedisMirror {
	return &RedisMirror{rdb: rdb}
}

func (m *RedisMirror) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := m.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		return data, true, nil
	case errors.Is(err, redis.Nil):
		return nil, false, nil
	default:
		return nil, false, err
	}
}

func (m *RedisMirror) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return m.rdb.Set(ctx, key, data, ttl).Err()
}

func (m *RedisMirror) Del(ctx context.Context, key string) error {
	return m.rdb.Del(ctx, key).Err()
}

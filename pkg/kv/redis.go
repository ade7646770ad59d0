package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/sajidhasan/fieldorder/pkg/config"
	"github.com/sajidhasan/fieldorder/pkg/logger"
)

const redisKeyNamespace = "fieldorder:kv"

// RedisStore backs the document store with Redis for deployments where the
// device state lives in a shared cache instead of on disk.
type RedisStore struct {
	raw *redis.Client
}

// NewRedisStore connects and verifies reachability.
func NewRedisStore(ctx context.Context, cfg config.KVConfig, logg *logger.Logger) (*RedisStore, error) {
	if cfg.RedisURL == "" {
		return nil, errors.New("kv redis url is required")
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing kv redis url: %w", err)
	}
	opts.DialTimeout = cfg.RedisDialTimeout
	opts.ReadTimeout = cfg.RedisReadTimeout
	opts.WriteTimeout = cfg.RedisWriteTimeout

	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping kv redis: %w", err)
	}
	if logg != nil {
		logg.Info(ctx, "kv redis connection established")
	}
	return &RedisStore{raw: raw}, nil
}

func redisKey(key string) string {
	return redisKeyNamespace + ":" + key
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.raw.Get(ctx, redisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read key %q: %w", key, err)
	}
	return data, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.raw.Set(ctx, redisKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("write key %q: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.raw.Del(ctx, redisKey(key)).Err(); err != nil {
		return fmt.Errorf("delete key %q: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.raw.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.raw.Close()
}

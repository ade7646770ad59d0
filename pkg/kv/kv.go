package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/sajidhasan/fieldorder/pkg/config"
	"github.com/sajidhasan/fieldorder/pkg/logger"
)

// ErrNotFound is returned when a key has no value.
var ErrNotFound = errors.New("kv: key not found")

// Store is the string-keyed document store backing the cart, the order
// queue and the cached session. Values are JSON payloads.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

// New builds the configured backend.
func New(ctx context.Context, cfg config.KVConfig, logg *logger.Logger) (Store, error) {
	switch cfg.Backend {
	case BackendFile, "":
		return NewFileStore(cfg.Dir)
	case BackendRedis:
		return NewRedisStore(ctx, cfg, logg)
	default:
		return nil, fmt.Errorf("unknown kv backend %q", cfg.Backend)
	}
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is empty because every tag spells the full variable name.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	KV       KVConfig
	Remote   RemoteConfig
	Sync     SyncConfig
	Password PasswordConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FIELDORDER_APP_ENV" default:"dev"`
	Port         string `envconfig:"FIELDORDER_APP_PORT" default:"7421"`
	LogLevel     string `envconfig:"FIELDORDER_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FIELDORDER_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// DBConfig points at the embedded sqlite file holding the customer cache.
type DBConfig struct {
	Path        string `envconfig:"FIELDORDER_DB_PATH" default:"fieldorder.db"`
	AutoMigrate bool   `envconfig:"FIELDORDER_DB_AUTO_MIGRATE" default:"true"`
}

// KVConfig selects the key-value backend for the cart/queue/session keys.
type KVConfig struct {
	Backend string `envconfig:"FIELDORDER_KV_BACKEND" default:"file"`
	Dir     string `envconfig:"FIELDORDER_KV_DIR" default:"data/kv"`

	RedisURL          string        `envconfig:"FIELDORDER_KV_REDIS_URL"`
	RedisDialTimeout  time.Duration `envconfig:"FIELDORDER_KV_REDIS_DIAL_TIMEOUT" default:"5s"`
	RedisReadTimeout  time.Duration `envconfig:"FIELDORDER_KV_REDIS_READ_TIMEOUT" default:"5s"`
	RedisWriteTimeout time.Duration `envconfig:"FIELDORDER_KV_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// RemoteConfig describes the upstream ERP REST API.
type RemoteConfig struct {
	BaseURL     string        `envconfig:"FIELDORDER_REMOTE_BASE_URL" required:"true"`
	Timeout     time.Duration `envconfig:"FIELDORDER_REMOTE_TIMEOUT" default:"15s"`
	SearchLimit int           `envconfig:"FIELDORDER_REMOTE_SEARCH_LIMIT" default:"10"`
}

type SyncConfig struct {
	PageSize int `envconfig:"FIELDORDER_SYNC_PAGE_SIZE" default:"100"`
}

// PasswordConfig tunes the Argon2id hash protecting offline unlock.
type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"FIELDORDER_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"FIELDORDER_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"FIELDORDER_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"FIELDORDER_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"FIELDORDER_ARGON_KEY_LEN" default:"32"`
}

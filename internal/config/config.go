// Package config provides runtime configuration values for the service.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"studiostock/internal/blob"
	"studiostock/internal/cache"
	"studiostock/internal/core"
)

// Config holds configuration knobs for the HTTP server and the record store
// stack.
type Config struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration
	LogLevel        string
	GuardWrites     bool
	Storage         core.StorageConfig

	// Metrics names the operation metrics exporter: "prometheus" or "expvar".
	Metrics string
	// TraceOutput receives JSON trace lines: "stdout", "stderr" or a file
	// path. Empty disables tracing.
	TraceOutput string

	// ReorderMultiplier scales the minimum when sizing shopping list lines.
	ReorderMultiplier decimal.Decimal
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func boolenv(key string, def bool) bool {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func decenv(key string, def decimal.Decimal) decimal.Decimal {
	d, err := decimal.NewFromString(getenv(key, ""))
	if err != nil {
		return def
	}
	return d
}

// durenv accepts Go durations ("30s") and plain seconds ("30").
func durenv(key string, def time.Duration) time.Duration {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if sec, err := strconv.Atoi(v); err == nil {
		return time.Duration(sec) * time.Second
	}
	return def
}

// Load reads the optional dotenv files (".env" when none are named) and then
// collects configuration from the environment with defaults. Variables
// already set in the environment win over dotenv values.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	} else if err := godotenv.Load(files...); err != nil {
		return Config{}, err
	}
	return FromEnv(), nil
}

// FromEnv collects configuration from the environment with defaults.
func FromEnv() Config {
	return Config{
		HTTPAddr:          getenv("STUDIOSTOCK_HTTP_ADDR", ":8080"),
		ShutdownTimeout:   durenv("STUDIOSTOCK_SHUTDOWN_TIMEOUT", 15*time.Second),
		LogLevel:          getenv("STUDIOSTOCK_LOG_LEVEL", "info"),
		GuardWrites:       boolenv("STUDIOSTOCK_GUARD_WRITES", false),
		ReorderMultiplier: decenv("STUDIOSTOCK_REORDER_MULTIPLIER", decimal.NewFromInt(1)),
		Metrics:           getenv("STUDIOSTOCK_METRICS", "prometheus"),
		TraceOutput:       getenv("STUDIOSTOCK_TRACE_OUTPUT", ""),
		Storage: core.StorageConfig{
			Driver:      core.StorageDriver(getenv("STUDIOSTOCK_STORAGE_DRIVER", string(core.StorageSheet))),
			SheetKey:    getenv("STUDIOSTOCK_SHEET_KEY", "estoque.csv"),
			SQLitePath:  getenv("STUDIOSTOCK_SQLITE_PATH", "studiostock.db"),
			PostgresDSN: getenv("STUDIOSTOCK_POSTGRES_DSN", ""),
			Blob: blob.Config{
				Driver: blob.Driver(getenv("STUDIOSTOCK_BLOB_DRIVER", string(blob.DriverFilesystem))),
				FSRoot: getenv("STUDIOSTOCK_BLOB_FS_ROOT", "./blobdata"),
				S3: blob.S3Config{
					Region:          getenv("STUDIOSTOCK_BLOB_S3_REGION", "us-east-1"),
					Bucket:          getenv("STUDIOSTOCK_BLOB_S3_BUCKET", ""),
					Endpoint:        getenv("STUDIOSTOCK_BLOB_S3_ENDPOINT", ""),
					AccessKeyID:     getenv("STUDIOSTOCK_BLOB_S3_ACCESS_KEY_ID", ""),
					SecretAccessKey: getenv("STUDIOSTOCK_BLOB_S3_SECRET_ACCESS_KEY", ""),
					SessionToken:    getenv("STUDIOSTOCK_BLOB_S3_SESSION_TOKEN", ""),
					PathStyle:       boolenv("STUDIOSTOCK_BLOB_S3_PATH_STYLE", false),
				},
			},
			Cache:    core.CacheDriver(getenv("STUDIOSTOCK_CACHE_DRIVER", string(core.CacheMemory))),
			CacheTTL: durenv("STUDIOSTOCK_CACHE_TTL", core.DefaultCacheTTL),
			Redis: cache.RedisConfig{
				Addr:     getenv("STUDIOSTOCK_REDIS_ADDR", "localhost:6379"),
				Password: getenv("STUDIOSTOCK_REDIS_PASSWORD", ""),
				DB:       atoienv("STUDIOSTOCK_REDIS_DB", 0),
				Prefix:   getenv("STUDIOSTOCK_REDIS_PREFIX", "studiostock:"),
			},
			Timeout: durenv("STUDIOSTOCK_STORE_TIMEOUT", core.DefaultStoreTimeout),
		},
	}
}

package core

import (
	"context"
	"fmt"
	"time"

	"studiostock/internal/blob"
	"studiostock/internal/cache"
	"studiostock/internal/infra/persistence/memory"
	"studiostock/internal/infra/persistence/postgres"
	"studiostock/internal/infra/persistence/sheet"
	"studiostock/internal/infra/persistence/sqlite"
	"studiostock/pkg/domain"
)

// StorageDriver identifies a concrete record store implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSheet    StorageDriver = "sheet"    // CSV sheet in a blob store
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
)

// CacheDriver identifies the read cache placed in front of the store.
type CacheDriver string

const (
	CacheNone   CacheDriver = "none"
	CacheMemory CacheDriver = "memory"
	CacheRedis  CacheDriver = "redis"
)

// StorageConfig selects and configures the record store stack.
type StorageConfig struct {
	Driver      StorageDriver
	SheetKey    string
	SQLitePath  string
	PostgresDSN string
	Blob        blob.Config
	Cache       CacheDriver
	CacheTTL    time.Duration
	Redis       cache.RedisConfig
	Timeout     time.Duration
}

// OpenRecordStore builds the configured backend wrapped with the timeout and
// cache decorators. The returned function releases backend resources.
func OpenRecordStore(ctx context.Context, cfg StorageConfig, logger Logger) (domain.RecordStore, func() error, error) {
	if logger == nil {
		logger = noopLogger{}
	}
	var (
		closers []func() error
		base    domain.RecordStore
	)
	closeAll := func() error {
		var first error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil && first == nil {
				first = err
			}
		}
		return first
	}

	driver := cfg.Driver
	if driver == "" {
		driver = StorageSheet
	}
	switch driver {
	case StorageMemory:
		base = memory.NewStore()
	case StorageSheet:
		blobs, err := blob.Open(ctx, cfg.Blob)
		if err != nil {
			return nil, nil, fmt.Errorf("open blob store: %w", err)
		}
		base = sheet.NewStore(blobs, cfg.SheetKey)
	case StorageSQLite:
		st, err := sqlite.NewStore(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, st.Close)
		base = st
	case StoragePostgres:
		st, err := postgres.NewStore(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, st.Close)
		base = st
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %s", driver)
	}
	logger.Info("record store opened", "driver", string(driver))

	store := domain.RecordStore(NewTimeoutStore(base, cfg.Timeout))
	switch cfg.Cache {
	case CacheNone:
	case "", CacheMemory:
		store = NewCachedStore(store, cache.NewMemory(), "", cfg.CacheTTL, logger)
	case CacheRedis:
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			_ = closeAll()
			return nil, nil, err
		}
		rc := cache.NewRedis(client, cfg.Redis.Prefix)
		closers = append(closers, rc.Close)
		store = NewCachedStore(store, rc, "", cfg.CacheTTL, logger)
	default:
		_ = closeAll()
		return nil, nil, fmt.Errorf("unknown cache driver %s", cfg.Cache)
	}
	return store, closeAll, nil
}

package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"studiostock/internal/cache"
	"studiostock/internal/infra/persistence/tabular"
	"studiostock/pkg/domain"
)

// Compile-time contract assertions.
var (
	_ domain.RecordStore = (*CachedStore)(nil)
	_ domain.RecordStore = (*TimeoutStore)(nil)
	_ Invalidator        = (*CachedStore)(nil)
	_ FreshLoader        = (*CachedStore)(nil)
)

// DefaultCacheTTL bounds how long a cached read is served.
const DefaultCacheTTL = 30 * time.Second

// DefaultStoreTimeout bounds every backend call.
const DefaultStoreTimeout = 10 * time.Second

// CachedStore serves Load from a short-lived cache and drops the cached copy
// whenever ReplaceAll succeeds, before returning.
type CachedStore struct {
	inner  domain.RecordStore
	cache  cache.Cache
	key    string
	ttl    time.Duration
	logger Logger
	// stale is set while a failed invalidation may have left an outdated
	// entry behind; reads bypass the cache until a delete succeeds.
	stale atomic.Bool
}

// NewCachedStore wraps inner with c. A non-positive ttl uses DefaultCacheTTL.
func NewCachedStore(inner domain.RecordStore, c cache.Cache, key string, ttl time.Duration, logger Logger) *CachedStore {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if key == "" {
		key = "studiostock:sheet"
	}
	if logger == nil {
		logger = noopLogger{}
	}
	return &CachedStore{inner: inner, cache: c, key: key, ttl: ttl, logger: logger}
}

// Load returns the cached collection when present, otherwise reads through.
func (s *CachedStore) Load(ctx context.Context) (domain.Collection, error) {
	if s.stale.Load() {
		if err := s.Invalidate(ctx); err != nil {
			return s.inner.Load(ctx)
		}
	}
	raw, ok, err := s.cache.Get(ctx, s.key)
	if err != nil {
		s.logger.Warn("cache read failed", "key", s.key, "error", err)
	}
	if ok {
		var rows [][]string
		if err := json.Unmarshal(raw, &rows); err == nil {
			if items, err := tabular.Decode(rows); err == nil {
				return items, nil
			}
		}
		s.logger.Warn("discarding undecodable cache entry", "key", s.key)
	}
	return s.LoadFresh(ctx)
}

// LoadFresh reads the backend directly and repopulates the cache.
func (s *CachedStore) LoadFresh(ctx context.Context) (domain.Collection, error) {
	items, err := s.inner.Load(ctx)
	if err != nil {
		return nil, err
	}
	if s.stale.Load() {
		return items, nil
	}
	raw, err := json.Marshal(tabular.Encode(items))
	if err == nil {
		err = s.cache.Set(ctx, s.key, raw, s.ttl)
	}
	if err != nil {
		s.logger.Warn("cache write failed", "key", s.key, "error", err)
	}
	return items, nil
}

// ReplaceAll writes through and invalidates the cached copy.
func (s *CachedStore) ReplaceAll(ctx context.Context, items domain.Collection) error {
	if err := s.inner.ReplaceAll(ctx, items); err != nil {
		return err
	}
	if err := s.Invalidate(ctx); err != nil {
		s.logger.Error("cache invalidation failed; bypassing cache", "key", s.key, "error", err)
	}
	return nil
}

// Invalidate drops the cached copy.
func (s *CachedStore) Invalidate(ctx context.Context) error {
	if err := s.cache.Del(ctx, s.key); err != nil {
		s.stale.Store(true)
		return err
	}
	s.stale.Store(false)
	return nil
}

// TimeoutStore bounds every call to inner and reports transport failures as
// domain.ErrStoreUnavailable. Schema and invariant errors pass through.
type TimeoutStore struct {
	inner   domain.RecordStore
	timeout time.Duration
}

// NewTimeoutStore wraps inner. A non-positive timeout uses DefaultStoreTimeout.
func NewTimeoutStore(inner domain.RecordStore, timeout time.Duration) *TimeoutStore {
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	return &TimeoutStore{inner: inner, timeout: timeout}
}

// Load reads inner within the timeout.
func (s *TimeoutStore) Load(ctx context.Context) (domain.Collection, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	items, err := s.inner.Load(ctx)
	if err != nil {
		return nil, unavailable("load", err)
	}
	return items, nil
}

// ReplaceAll overwrites inner within the timeout.
func (s *TimeoutStore) ReplaceAll(ctx context.Context, items domain.Collection) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.inner.ReplaceAll(ctx, items); err != nil {
		return unavailable("replace all", err)
	}
	return nil
}

func unavailable(op string, err error) error {
	if errors.Is(err, domain.ErrSchemaMismatch) ||
		errors.Is(err, domain.ErrInvariantViolation) ||
		errors.Is(err, domain.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrStoreUnavailable, op, err)
}

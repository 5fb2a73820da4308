package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"studiostock/internal/cache"
	"studiostock/internal/infra/persistence/memory"
	"studiostock/pkg/domain"
)

// flakyCache wraps a memory cache and fails deletes while delErr is set.
type flakyCache struct {
	*cache.Memory
	delErr error
	getErr error
}

func (f *flakyCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	return f.Memory.Get(ctx, key)
}

func (f *flakyCache) Del(ctx context.Context, keys ...string) error {
	if f.delErr != nil {
		return f.delErr
	}
	return f.Memory.Del(ctx, keys...)
}

func TestCachedStoreServesRepeatedLoads(t *testing.T) {
	ctx := context.Background()
	base := memory.NewStoreWithItems(studioFixture())
	st := NewCachedStore(base, cache.NewMemory(), "", time.Minute, nil)
	for i := 0; i < 3; i++ {
		items, err := st.Load(ctx)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if !items.Equal(studioFixture()) {
			t.Fatalf("cached collection differs")
		}
	}
	if base.Loads() != 1 {
		t.Fatalf("expected one backend read, got %d", base.Loads())
	}
	if _, err := st.LoadFresh(ctx); err != nil {
		t.Fatalf("load fresh: %v", err)
	}
	if base.Loads() != 2 {
		t.Fatalf("LoadFresh must bypass the cache")
	}
}

func TestCachedStoreInvalidatesOnWrite(t *testing.T) {
	ctx := context.Background()
	base := memory.NewStoreWithItems(studioFixture())
	c := cache.NewMemory()
	st := NewCachedStore(base, c, "", time.Minute, nil)
	if _, err := st.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	next := studioFixture()[:2]
	if err := st.ReplaceAll(ctx, next); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if c.Len() != 0 {
		t.Fatalf("cache must be empty once ReplaceAll returns")
	}
	items, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("read after write returned stale data: %v", items.IDs())
	}
}

func TestCachedStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := fixedNow
	base := memory.NewStoreWithItems(studioFixture())
	c := cache.NewMemory().WithClock(func() time.Time { return now })
	st := NewCachedStore(base, c, "k", time.Second, nil)
	_, _ = st.Load(ctx)
	_, _ = st.Load(ctx)
	now = now.Add(2 * time.Second)
	_, _ = st.Load(ctx)
	if base.Loads() != 2 {
		t.Fatalf("expected expiry to force a second read, got %d", base.Loads())
	}
}

func TestCachedStoreBypassesAfterFailedInvalidation(t *testing.T) {
	ctx := context.Background()
	base := memory.NewStoreWithItems(studioFixture())
	fc := &flakyCache{Memory: cache.NewMemory(), delErr: errors.New("redis down")}
	log := &recordingLogger{}
	st := NewCachedStore(base, fc, "", time.Minute, log)
	if _, err := st.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := st.ReplaceAll(ctx, studioFixture()[:1]); err != nil {
		t.Fatalf("write must succeed even when invalidation fails: %v", err)
	}
	if len(log.errors) != 1 {
		t.Fatalf("failed invalidation should be logged")
	}
	items, err := st.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("stale cache entry served after write")
	}
	fc.delErr = nil
	if _, err := st.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	loads := base.Loads()
	if _, err := st.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if base.Loads() != loads {
		t.Fatalf("cache should be used again once a delete succeeds")
	}
}

func TestCachedStoreReadErrorsAreMisses(t *testing.T) {
	ctx := context.Background()
	base := memory.NewStoreWithItems(studioFixture())
	fc := &flakyCache{Memory: cache.NewMemory(), getErr: errors.New("timeout")}
	st := NewCachedStore(base, fc, "", time.Minute, nil)
	items, err := st.Load(ctx)
	if err != nil || len(items) != 3 {
		t.Fatalf("cache errors must fall through to the backend: %v", err)
	}
	_ = fc.Set(ctx, "studiostock:sheet", []byte("not json"), time.Minute)
	fc.getErr = nil
	if items, err := st.Load(ctx); err != nil || len(items) != 3 {
		t.Fatalf("undecodable entries must be discarded: %v", err)
	}
}

func TestTimeoutStoreErrorMapping(t *testing.T) {
	ctx := context.Background()
	base := memory.NewStoreWithRows([][]string{{"ID"}})
	st := NewTimeoutStore(base, time.Second)
	if _, err := st.Load(ctx); !errors.Is(err, domain.ErrSchemaMismatch) || errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("schema mismatch must pass through unchanged, got %v", err)
	}
	base.FailWrites(errors.New("connection reset"))
	if err := st.ReplaceAll(ctx, studioFixture()); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected store unavailable, got %v", err)
	}
}

type blockingStore struct{}

func (blockingStore) Load(ctx context.Context) (domain.Collection, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingStore) ReplaceAll(ctx context.Context, _ domain.Collection) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestTimeoutStoreBoundsCalls(t *testing.T) {
	st := NewTimeoutStore(blockingStore{}, 20*time.Millisecond)
	_, err := st.Load(context.Background())
	if !errors.Is(err, domain.ErrStoreUnavailable) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline wrapped as store unavailable, got %v", err)
	}
	if err := st.ReplaceAll(context.Background(), nil); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected store unavailable, got %v", err)
	}
}

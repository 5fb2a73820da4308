package memory

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"studiostock/internal/blob/core"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()
	if s.Driver() != core.DriverMemory {
		t.Fatalf("driver mismatch")
	}
	if _, err := s.Put(ctx, "a.csv", bytes.NewReader([]byte("one")), core.PutOptions{Metadata: map[string]string{"k": "v"}}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := s.Put(ctx, "a.csv", bytes.NewReader([]byte("two")), core.PutOptions{}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	_, rc, err := s.Get(ctx, "a.csv")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if body, _ := io.ReadAll(rc); string(body) != "two" {
		t.Fatalf("expected overwritten body, got %q", body)
	}
	if s.Puts() != 2 {
		t.Fatalf("expected 2 puts, got %d", s.Puts())
	}
	ok, _ := s.Delete(ctx, "a.csv")
	if !ok {
		t.Fatalf("expected delete true")
	}
	if _, err := s.Head(ctx, "a.csv"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, _, err := s.Get(ctx, "a.csv"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMemoryStoreMetadataIsolation(t *testing.T) {
	ctx := context.Background()
	s := New()
	md := map[string]string{"k": "v"}
	if _, err := s.Put(ctx, "a.csv", bytes.NewReader(nil), core.PutOptions{Metadata: md}); err != nil {
		t.Fatalf("put: %v", err)
	}
	md["k"] = "changed"
	info, err := s.Head(ctx, "a.csv")
	if err != nil {
		t.Fatalf("head: %v", err)
	}
	if info.Metadata["k"] != "v" {
		t.Fatalf("metadata aliased caller map")
	}
}

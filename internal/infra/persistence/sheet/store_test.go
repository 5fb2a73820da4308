package sheet

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"studiostock/internal/blob/core"
	"studiostock/internal/infra/blob/fs"
	"studiostock/internal/infra/blob/memory"
	"studiostock/internal/infra/blob/s3"
	"studiostock/pkg/domain"
)

func sampleItems() domain.Collection {
	return domain.Collection{
		{ID: 1, Name: "Tinta Preta Dynamic", Brand: "Dynamic", Category: "Tintas", Supplier: "Art Tattoo", Unit: "Frasco",
			QuantityOnHand: decimal.NewFromInt(4), MinimumQuantity: decimal.NewFromInt(2), UnitCost: decimal.RequireFromString("79.90"),
			LastPurchaseDate: domain.MustParseDate("2024-05-10")},
		{ID: 2, Name: "Papel Hectográfico", Category: "Decalque", Supplier: "Spirit", Unit: "Unidade",
			QuantityOnHand: decimal.RequireFromString("12.5"), MinimumQuantity: decimal.NewFromInt(20), Notes: "comprar, urgente"},
	}
}

func TestSheetStoreAcrossDrivers(t *testing.T) {
	fsStore, err := fs.New(t.TempDir())
	if err != nil {
		t.Fatalf("fs: %v", err)
	}
	drivers := map[string]core.Store{
		"memory": memory.New(),
		"fs":     fsStore,
		"s3":     s3.NewMockForTests(),
	}
	for name, blobs := range drivers {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := NewStore(blobs, "")
			if store.Key() != DefaultKey {
				t.Fatalf("expected default key")
			}
			empty, err := store.Load(ctx)
			if err != nil || len(empty) != 0 {
				t.Fatalf("missing sheet should load empty: %v %v", empty, err)
			}
			if err := store.ReplaceAll(ctx, sampleItems()); err != nil {
				t.Fatalf("replace all: %v", err)
			}
			got, err := store.Load(ctx)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if !got.Equal(sampleItems()) {
				t.Fatalf("round trip mismatch: %+v", got)
			}
			if err := store.ReplaceAll(ctx, domain.Collection{}); err != nil {
				t.Fatalf("replace with empty: %v", err)
			}
			got, err = store.Load(ctx)
			if err != nil || len(got) != 0 {
				t.Fatalf("expected empty after overwrite: %v %v", got, err)
			}
		})
	}
}

func TestSheetStoreSchemaMismatch(t *testing.T) {
	ctx := context.Background()
	blobs := memory.New()
	if _, err := blobs.Put(ctx, "custom.csv", strings.NewReader("ID,Nome do Item\n1,Agulha\n"), core.PutOptions{}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := NewStore(blobs, "custom.csv").Load(ctx); !errors.Is(err, domain.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}

type brokenBlobs struct {
	*memory.Store
	err error
}

func (b brokenBlobs) Get(context.Context, string) (core.Info, io.ReadCloser, error) {
	return core.Info{}, nil, b.err
}

func (b brokenBlobs) Put(context.Context, string, io.Reader, core.PutOptions) (core.Info, error) {
	return core.Info{}, b.err
}

func TestSheetStorePropagatesBlobErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("bucket offline")
	store := NewStore(brokenBlobs{Store: memory.New(), err: boom}, "estoque.csv")
	if _, err := store.Load(ctx); !errors.Is(err, boom) {
		t.Fatalf("expected load error, got %v", err)
	}
	if err := store.ReplaceAll(ctx, sampleItems()); !errors.Is(err, boom) {
		t.Fatalf("expected write error, got %v", err)
	}
}

package core

import (
	"context"
	"errors"
	"testing"

	"studiostock/pkg/domain"
)

func scenarioItems() domain.Collection {
	return domain.Collection{
		{ID: 1, Name: "Cartucho 7RL", Category: "Agulhas", Supplier: "Cheyenne", Unit: "Caixa", QuantityOnHand: dec("25"), MinimumQuantity: dec("30")},
		{ID: 2, Name: "Luva Nitrílica", Category: "Descartáveis", Supplier: "Descarpack", Unit: "Caixa", QuantityOnHand: dec("240"), MinimumQuantity: dec("100")},
	}
}

func TestConsumptionScenario(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, scenarioItems())
	batch, err := svc.NewConsumption(ctx)
	if err != nil {
		t.Fatalf("new consumption: %v", err)
	}
	if err := batch.Stage(2, dec("5")); err != nil {
		t.Fatalf("stage: %v", err)
	}
	if n, err := batch.Commit(ctx); err != nil || n != 1 {
		t.Fatalf("commit: n=%d err=%v", n, err)
	}
	snap := svc.Repository().Snapshot()
	if got := mustFind(t, snap, 2).QuantityOnHand; !got.Equal(dec("235")) {
		t.Fatalf("expected 235 gloves, got %s", got)
	}
	list := ShortfallList(snap)
	if len(list) != 1 || list[0].Item.ID != 1 || !list[0].ReorderQuantity.Equal(dec("5")) {
		t.Fatalf("expected only item 1 short by 5, got %+v", list)
	}
	if batch.Len() != 0 {
		t.Fatalf("batch should be empty after commit")
	}
	if store.Writes() != 1 {
		t.Fatalf("expected one overwrite, got %d", store.Writes())
	}
	persisted, _ := store.Load(ctx)
	if !persisted.Equal(snap) {
		t.Fatalf("backend and repository diverged")
	}
}

func TestConsumptionIsAtomic(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, scenarioItems())
	batch, _ := svc.NewConsumption(ctx)
	_ = batch.Stage(1, dec("20"))
	_ = batch.Stage(2, dec("300"))
	_, err := batch.Commit(ctx)
	var ise *domain.InsufficientStockError
	if !errors.As(err, &ise) || !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected insufficient stock, got %v", err)
	}
	if ise.ItemID != 2 || !ise.Requested.Equal(dec("300")) || !ise.Available.Equal(dec("240")) {
		t.Fatalf("unexpected detail %+v", ise)
	}
	if !svc.Repository().Snapshot().Equal(scenarioItems()) {
		t.Fatalf("repository must be untouched after a failed batch")
	}
	if store.Writes() != 0 {
		t.Fatalf("nothing should be written")
	}
	if batch.Len() != 2 {
		t.Fatalf("failed batch must be retained, got %d lines", batch.Len())
	}
}

func TestConsumptionAggregatesLinesPerItem(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, scenarioItems())
	batch, _ := svc.NewConsumption(ctx)
	_ = batch.Stage(1, dec("20"))
	_ = batch.Stage(1, dec("10"))
	if _, err := batch.Commit(ctx); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("two lines totalling 30 exceed 25 on hand, got %v", err)
	}
	batch.Discard()
	_ = batch.Stage(1, dec("20"))
	_ = batch.Stage(1, dec("5"))
	if _, err := batch.Commit(ctx); err != nil {
		t.Fatalf("consuming exactly what is on hand should succeed: %v", err)
	}
	if got := mustFind(t, svc.Repository().Snapshot(), 1).QuantityOnHand; !got.IsZero() {
		t.Fatalf("expected zero left, got %s", got)
	}
}

func TestConsumptionStageValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, scenarioItems())
	batch, _ := svc.NewConsumption(ctx)
	if err := batch.Stage(9, dec("1")); !errors.Is(err, domain.ErrUnknownItem) {
		t.Fatalf("expected unknown item, got %v", err)
	}
	for _, q := range []string{"0", "-2"} {
		if err := batch.Stage(1, dec(q)); !errors.Is(err, domain.ErrNonPositiveQuantity) {
			t.Fatalf("expected non-positive quantity for %s, got %v", q, err)
		}
	}
	if batch.Len() != 0 {
		t.Fatalf("invalid lines must not be staged")
	}
	_ = batch.Stage(2, dec("1.5"))
	lines := batch.Lines()
	if len(lines) != 1 || lines[0].Name != "Luva Nitrílica" || lines[0].Unit != "Caixa" {
		t.Fatalf("unexpected lines %+v", lines)
	}
	if batch.ID() == "" || batch.CreatedAt().IsZero() {
		t.Fatalf("batch should carry id and creation time")
	}
}

func TestConsumptionEmptyCommitIsNoop(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, scenarioItems())
	batch, _ := svc.NewConsumption(ctx)
	if _, err := batch.Commit(ctx); err != nil {
		t.Fatalf("empty commit: %v", err)
	}
	_ = batch.Stage(1, dec("1"))
	batch.Discard()
	if _, err := batch.Commit(ctx); err != nil {
		t.Fatalf("commit after discard: %v", err)
	}
	if store.Writes() != 0 {
		t.Fatalf("no-op commits must not write")
	}
}

func TestConsumptionPersistFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, scenarioItems())
	batch, _ := svc.NewConsumption(ctx)
	_ = batch.Stage(2, dec("5"))
	quota := errors.New("quota exceeded")
	store.FailWrites(quota)
	_, err := batch.Commit(ctx)
	if !errors.Is(err, domain.ErrPersistFailure) || !errors.Is(err, quota) {
		t.Fatalf("expected persist failure wrapping cause, got %v", err)
	}
	if !svc.Repository().Snapshot().Equal(scenarioItems()) {
		t.Fatalf("repository must roll back")
	}
	if batch.Len() != 1 {
		t.Fatalf("batch must be retained for retry")
	}
	store.FailWrites(nil)
	if _, err := batch.Commit(ctx); err != nil {
		t.Fatalf("retry: %v", err)
	}
}

func TestConsumptionItemDeletedAfterStaging(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, scenarioItems())
	batch, _ := svc.NewConsumption(ctx)
	_ = batch.Stage(1, dec("2"))
	if _, err := svc.Reconcile(ctx, ReconcileRequest{Delete: []int64{1}}); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if _, err := batch.Commit(ctx); !errors.Is(err, domain.ErrUnknownItem) {
		t.Fatalf("expected unknown item, got %v", err)
	}
}

func TestApplyConsumptionDoesNotMutateInput(t *testing.T) {
	in := scenarioItems()
	out, err := ApplyConsumption(in, []ConsumptionLine{{ItemID: 1, Quantity: dec("5")}})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !in.Equal(scenarioItems()) || !out[0].QuantityOnHand.Equal(dec("20")) {
		t.Fatalf("input mutated or output wrong")
	}
	if _, err := ApplyConsumption(in, []ConsumptionLine{{ItemID: 1, Quantity: dec("0")}}); !errors.Is(err, domain.ErrNonPositiveQuantity) {
		t.Fatalf("expected non-positive error, got %v", err)
	}
}

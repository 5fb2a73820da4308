package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"studiostock/internal/infra/persistence/memory"
	"studiostock/pkg/domain"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func ptr[T any](v T) *T { return &v }

var fixedNow = time.Date(2024, 6, 3, 14, 30, 0, 0, time.UTC)

func fixedClock() Clock { return ClockFunc(func() time.Time { return fixedNow }) }

// studioFixture is a small studio inventory: one item below minimum, one
// comfortably stocked, one above minimum with a brand.
func studioFixture() domain.Collection {
	return domain.Collection{
		{ID: 1, Name: "Cartucho 7RL", Category: "Agulhas", Supplier: "Cheyenne", Unit: "Caixa",
			QuantityOnHand: dec("25"), MinimumQuantity: dec("30"), UnitCost: dec("90")},
		{ID: 2, Name: "Luva Nitrílica", Category: "Descartáveis", Supplier: "Descarpack", Unit: "Caixa",
			QuantityOnHand: dec("240"), MinimumQuantity: dec("100"), UnitCost: dec("1.5")},
		{ID: 3, Name: "Tinta Preta", Brand: "Dynamic", Spec: "Triple Black", Category: "Tintas", Supplier: "Art Tattoo", Unit: "Frasco",
			QuantityOnHand: dec("4"), MinimumQuantity: dec("2"), UnitCost: dec("80")},
	}
}

func newTestService(t *testing.T, items domain.Collection, opts ...Option) (*Service, *memory.Store) {
	t.Helper()
	store := memory.NewStoreWithItems(items)
	opts = append([]Option{WithClock(fixedClock())}, opts...)
	svc := NewService(store, opts...)
	if _, err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	return svc, store
}

func mustFind(t *testing.T, c domain.Collection, id int64) domain.Item {
	t.Helper()
	it, ok := c.Find(id)
	if !ok {
		t.Fatalf("item %d missing from %v", id, c.IDs())
	}
	return it
}

type captureAuditRecorder struct {
	mu      sync.Mutex
	entries []AuditEntry
}

func (c *captureAuditRecorder) Record(_ context.Context, entry AuditEntry) {
	c.mu.Lock()
	c.entries = append(c.entries, entry)
	c.mu.Unlock()
}

func (c *captureAuditRecorder) has(op string, status AuditStatus) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.entries {
		if e.Operation == op && e.Status == status {
			return true
		}
	}
	return false
}

type metricsCall struct {
	op      string
	success bool
}

type captureMetricsRecorder struct {
	mu    sync.Mutex
	calls []metricsCall
}

func (c *captureMetricsRecorder) Observe(_ context.Context, op string, success bool, _ time.Duration) {
	c.mu.Lock()
	c.calls = append(c.calls, metricsCall{op: op, success: success})
	c.mu.Unlock()
}

func (c *captureMetricsRecorder) has(op string, success bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, call := range c.calls {
		if call.op == op && call.success == success {
			return true
		}
	}
	return false
}

type captureTracer struct {
	mu    sync.Mutex
	ended map[string][]error
}

func (c *captureTracer) Start(ctx context.Context, op string) (context.Context, TraceSpan) {
	return ctx, &captureSpan{tracer: c, op: op}
}

type captureSpan struct {
	tracer *captureTracer
	op     string
}

func (s *captureSpan) End(err error) {
	s.tracer.mu.Lock()
	defer s.tracer.mu.Unlock()
	if s.tracer.ended == nil {
		s.tracer.ended = make(map[string][]error)
	}
	s.tracer.ended[s.op] = append(s.tracer.ended[s.op], err)
}

type captureInventory struct {
	mu   sync.Mutex
	last *Summary
	n    int
}

func (c *captureInventory) ObserveInventory(_ context.Context, s Summary) {
	c.mu.Lock()
	c.last = &s
	c.n++
	c.mu.Unlock()
}

type recordingLogger struct {
	mu     sync.Mutex
	errors []string
	warns  []string
}

func (l *recordingLogger) Debug(string, ...any) {}
func (l *recordingLogger) Info(string, ...any)  {}
func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	l.warns = append(l.warns, msg)
	l.mu.Unlock()
}
func (l *recordingLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	l.errors = append(l.errors, msg)
	l.mu.Unlock()
}

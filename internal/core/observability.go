package core

import (
	"context"
	"time"
)

// Logger is the structured logging contract used by the service. *slog.Logger
// satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// MetricsRecorder observes the outcome and latency of service operations.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

type noopMetricsRecorder struct{}

func (noopMetricsRecorder) Observe(context.Context, string, bool, time.Duration) {}

// InventoryObserver receives the inventory summary after every successful
// refresh or mutation.
type InventoryObserver interface {
	ObserveInventory(ctx context.Context, summary Summary)
}

type noopInventoryObserver struct{}

func (noopInventoryObserver) ObserveInventory(context.Context, Summary) {}

// Tracer starts spans around service operations.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// TraceSpan is ended exactly once with the operation's error (nil on success).
type TraceSpan interface {
	End(err error)
}

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}

// AuditStatus is the outcome of an audited operation.
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusError   AuditStatus = "error"
)

// AuditAction classifies what an audited operation did to the item sheet.
type AuditAction string

const (
	AuditActionRefresh   AuditAction = "refresh"
	AuditActionReconcile AuditAction = "reconcile"
	AuditActionCreate    AuditAction = "create"
	AuditActionConsume   AuditAction = "consume"
)

// AuditEntry describes one completed mutation or refresh.
type AuditEntry struct {
	Operation string
	Action    AuditAction
	ItemIDs   []int64
	Status    AuditStatus
	Error     string
	Duration  time.Duration
	Timestamp time.Time
}

// AuditRecorder receives audit entries.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

type noopAuditRecorder struct{}

func (noopAuditRecorder) Record(context.Context, AuditEntry) {}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

type serviceOptions struct {
	clock     Clock
	logger    Logger
	metrics   MetricsRecorder
	tracer    Tracer
	audit     AuditRecorder
	inventory InventoryObserver
	guard     bool
}

func defaultServiceOptions() serviceOptions {
	return serviceOptions{
		clock:     ClockFunc(time.Now),
		logger:    noopLogger{},
		metrics:   noopMetricsRecorder{},
		tracer:    noopTracer{},
		audit:     noopAuditRecorder{},
		inventory: noopInventoryObserver{},
	}
}

// Option customises a Service.
type Option func(*serviceOptions)

// WithClock sets the time source used for audit timestamps and default
// purchase dates.
func WithClock(clock Clock) Option {
	return func(o *serviceOptions) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger Logger) Option {
	return func(o *serviceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetricsRecorder sets the operation metrics sink.
func WithMetricsRecorder(metrics MetricsRecorder) Option {
	return func(o *serviceOptions) {
		if metrics != nil {
			o.metrics = metrics
		}
	}
}

// WithTracer sets the span tracer.
func WithTracer(tracer Tracer) Option {
	return func(o *serviceOptions) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// WithAuditRecorder sets the audit sink.
func WithAuditRecorder(audit AuditRecorder) Option {
	return func(o *serviceOptions) {
		if audit != nil {
			o.audit = audit
		}
	}
}

// WithInventoryObserver sets the sink notified with the inventory summary.
func WithInventoryObserver(observer InventoryObserver) Option {
	return func(o *serviceOptions) {
		if observer != nil {
			o.inventory = observer
		}
	}
}

// WithWriteGuard enables the fingerprint precondition checked before every
// overwrite: the backend is re-read and must still match the last durable
// state, otherwise the write fails with domain.ErrConflict.
func WithWriteGuard(enabled bool) Option {
	return func(o *serviceOptions) { o.guard = enabled }
}

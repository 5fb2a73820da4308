package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"studiostock/internal/infra/persistence/tabular"
	"studiostock/pkg/domain"
)

// Invalidator is implemented by stores that hold a read cache.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// FreshLoader is implemented by stores that can read past their cache.
type FreshLoader interface {
	LoadFresh(ctx context.Context) (domain.Collection, error)
}

// Service owns the session's Repository and persists every mutation through
// the RecordStore. Mutations are serialised; each one computes a new
// collection, swaps it into the Repository and overwrites the backend. A
// failed overwrite rolls the Repository back.
type Service struct {
	store  domain.RecordStore
	repo   *Repository
	opts   serviceOptions
	mu     sync.Mutex
	loaded bool
}

// NewService constructs a service over store. Nothing is read until the first
// call that needs the collection.
func NewService(store domain.RecordStore, opts ...Option) *Service {
	o := defaultServiceOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Service{store: store, repo: NewRepository(), opts: o}
}

// Repository exposes the in-process collection.
func (s *Service) Repository() *Repository { return s.repo }

// Snapshot returns the current collection. The backend is read through its
// cache; when it differs from the last durable state the Repository is
// restored from it.
func (s *Service) Snapshot(ctx context.Context) (domain.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.observe(ctx, "snapshot", "", func(ctx context.Context) ([]int64, error) {
		items, err := s.store.Load(ctx)
		if err != nil {
			return nil, err
		}
		if s.loaded && tabular.Fingerprint(items) == s.repo.Fingerprint() {
			return nil, nil
		}
		return nil, s.restoreLocked(ctx, items)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Snapshot(), nil
}

// Refresh drops any cached read and reloads the collection from the backend.
func (s *Service) Refresh(ctx context.Context) (domain.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.observe(ctx, "refresh", AuditActionRefresh, func(ctx context.Context) ([]int64, error) {
		return nil, s.refreshLocked(ctx)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Snapshot(), nil
}

func (s *Service) refreshLocked(ctx context.Context) error {
	if inv, ok := s.store.(Invalidator); ok {
		if err := inv.Invalidate(ctx); err != nil {
			s.opts.logger.Warn("cache invalidation failed", "error", err)
		}
	}
	items, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	return s.restoreLocked(ctx, items)
}

func (s *Service) ensureLoadedLocked(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	return s.refreshLocked(ctx)
}

func (s *Service) restoreLocked(ctx context.Context, items domain.Collection) error {
	assigned, err := s.repo.Restore(items)
	if err != nil {
		return err
	}
	s.loaded = true
	snapshot := s.repo.Snapshot()
	for _, it := range snapshot {
		if it.LastPurchaseDate.Unparsed() {
			s.opts.logger.Warn("purchase date kept verbatim", "item_id", it.ID, "value", it.LastPurchaseDate.String())
		}
	}
	if assigned > 0 {
		s.opts.logger.Warn("assigned ids to rows without one", "rows", assigned)
		if err := s.store.ReplaceAll(ctx, snapshot); err != nil {
			s.loaded = false
			return fmt.Errorf("%w: %w", domain.ErrPersistFailure, err)
		}
		s.repo.markDurable(snapshot)
	}
	s.opts.logger.Debug("collection restored", "items", len(snapshot))
	s.opts.inventory.ObserveInventory(ctx, Summarize(snapshot))
	return nil
}

// Reconcile merges an editor submission and persists the result. Row level
// rejections are reported in the result; the rest of the batch is kept.
func (s *Service) Reconcile(ctx context.Context, req ReconcileRequest) (ReconcileResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result ReconcileResult
	err := s.observe(ctx, "reconcile", AuditActionReconcile, func(ctx context.Context) ([]int64, error) {
		var err error
		result, err = s.reconcileLocked(ctx, req)
		if err != nil {
			return nil, err
		}
		ids := append(append(append([]int64(nil), result.Created...), result.Updated...), result.Deleted...)
		return ids, nil
	})
	if err != nil {
		return ReconcileResult{}, err
	}
	return result, nil
}

func (s *Service) reconcileLocked(ctx context.Context, req ReconcileRequest) (ReconcileResult, error) {
	if err := s.ensureLoadedLocked(ctx); err != nil {
		return ReconcileResult{}, err
	}
	original := s.repo.Snapshot()
	req.Today = domain.NewDate(s.opts.clock.Now())
	result, err := Reconcile(original, req, s.repo.allocator())
	if err != nil {
		return ReconcileResult{}, err
	}
	for _, rj := range result.Rejected {
		s.opts.logger.Info("edit rejected", "index", rj.Index, "item_id", rj.ItemID, "field", rj.Field, "reason", rj.Reason)
	}
	if !result.Changed() {
		return result, nil
	}
	if err := s.persistLocked(ctx, original, result.Items); err != nil {
		return ReconcileResult{}, err
	}
	return result, nil
}

// AddItem creates one item from edit. Unlike Reconcile, a rejected row is an
// error.
func (s *Service) AddItem(ctx context.Context, edit domain.ItemEdit) (domain.Item, error) {
	edit.ID = nil
	edit.Exclude = false
	s.mu.Lock()
	defer s.mu.Unlock()
	var created domain.Item
	err := s.observe(ctx, "add_item", AuditActionCreate, func(ctx context.Context) ([]int64, error) {
		result, err := s.reconcileLocked(ctx, ReconcileRequest{Edits: []domain.ItemEdit{edit}})
		if err != nil {
			return nil, err
		}
		if len(result.Rejected) > 0 {
			return nil, result.Rejected[0].Err
		}
		created, _ = result.Items.Find(result.Created[0])
		return result.Created, nil
	})
	if err != nil {
		return domain.Item{}, err
	}
	return created, nil
}

// NewConsumption opens an empty consumption batch bound to the service,
// loading the collection first if needed.
func (s *Service) NewConsumption(ctx context.Context) (*ConsumptionBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(ctx); err != nil {
		return nil, err
	}
	return &ConsumptionBatch{id: uuid.New(), svc: s, created: s.opts.clock.Now()}, nil
}

func (s *Service) consume(ctx context.Context, lines []ConsumptionLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.observe(ctx, "consume", AuditActionConsume, func(ctx context.Context) ([]int64, error) {
		if err := s.ensureLoadedLocked(ctx); err != nil {
			return nil, err
		}
		original := s.repo.Snapshot()
		next, err := ApplyConsumption(original, lines)
		if err != nil {
			return nil, err
		}
		if err := s.persistLocked(ctx, original, next); err != nil {
			return nil, err
		}
		ids := make([]int64, 0, len(lines))
		for _, l := range lines {
			ids = append(ids, l.ItemID)
		}
		return ids, nil
	})
}

// persistLocked swaps next into the Repository and overwrites the backend.
// When the overwrite fails the Repository is rolled back to prev.
func (s *Service) persistLocked(ctx context.Context, prev, next domain.Collection) error {
	if s.opts.guard {
		if err := s.checkUnchangedLocked(ctx); err != nil {
			return err
		}
	}
	if err := s.repo.Replace(next); err != nil {
		return err
	}
	if err := s.store.ReplaceAll(ctx, next); err != nil {
		s.repo.rollback(prev)
		s.opts.logger.Error("overwrite failed, repository rolled back", "error", err, "items", len(prev))
		return fmt.Errorf("%w: %w", domain.ErrPersistFailure, err)
	}
	s.repo.markDurable(next)
	s.opts.inventory.ObserveInventory(ctx, Summarize(next))
	return nil
}

func (s *Service) checkUnchangedLocked(ctx context.Context) error {
	var (
		current domain.Collection
		err     error
	)
	if fl, ok := s.store.(FreshLoader); ok {
		current, err = fl.LoadFresh(ctx)
	} else {
		current, err = s.store.Load(ctx)
	}
	if err != nil {
		return err
	}
	if tabular.Fingerprint(current) != s.repo.Fingerprint() {
		return domain.ErrConflict
	}
	return nil
}

// observe wraps an operation with tracing, metrics, audit and error logging.
// An empty action skips the audit entry.
func (s *Service) observe(ctx context.Context, op string, action AuditAction, fn func(context.Context) ([]int64, error)) (err error) {
	start := time.Now()
	ctx, span := s.opts.tracer.Start(ctx, op)
	defer func() {
		duration := time.Since(start)
		span.End(err)
		s.opts.metrics.Observe(ctx, op, err == nil, duration)
		if err != nil && !isValidation(err) {
			s.opts.logger.Error("operation failed", "operation", op, "error", err)
		}
	}()
	ids, err := fn(ctx)
	if action == "" {
		return err
	}
	entry := AuditEntry{
		Operation: op,
		Action:    action,
		ItemIDs:   ids,
		Status:    AuditStatusSuccess,
		Duration:  time.Since(start),
		Timestamp: s.opts.clock.Now(),
	}
	if err != nil {
		entry.Status = AuditStatusError
		entry.Error = err.Error()
	}
	s.opts.audit.Record(ctx, entry)
	return err
}

// isValidation reports caller errors that do not warrant an error log.
func isValidation(err error) bool {
	for _, target := range []error{
		domain.ErrInvariantViolation,
		domain.ErrUnknownItem,
		domain.ErrNonPositiveQuantity,
		domain.ErrInsufficientStock,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

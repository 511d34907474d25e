package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pfm/internal/amqp"
	"pfm/internal/core"
	"pfm/internal/log"
	"pfm/internal/store"
)

// MirrorWorker keeps a replica store in step with the primary one. Events
// give it fast incremental updates; Reconcile repairs anything missed.
type MirrorWorker struct {
	source  store.TransactionStore
	replica store.Replica
	logger  *log.Logger
}

// ReconcileStats counts what one Reconcile pass changed.
type ReconcileStats struct {
	Copied  int
	Removed int
}

func NewMirrorWorker(source store.TransactionStore, replica store.Replica, logger *log.Logger) *MirrorWorker {
	if logger == nil {
		logger = log.Nop()
	}
	return &MirrorWorker{
		source:  source,
		replica: replica,
		logger:  logger.WithComponent(log.ComponentWorker),
	}
}

// HandleEvent applies one transaction event. Events without ids, such as
// a bulk load, fall back to a full reconcile.
func (w *MirrorWorker) HandleEvent(ctx context.Context, ev *amqp.TransactionEvent) error {
	w.logger.InfoContext(ctx, "Processing transaction event", "kind", ev.Kind, log.FieldCount, ev.Count)

	if len(ev.IDs) == 0 {
		_, err := w.Reconcile(ctx)
		return err
	}

	switch ev.Kind {
	case amqp.EventCreated:
		return w.copyIDs(ctx, ev.IDs)
	case amqp.EventDeleted:
		var errs []error
		for _, id := range ev.IDs {
			if err := w.replica.DeleteByID(ctx, id); err != nil && !errors.Is(err, core.ErrNotFound) {
				errs = append(errs, fmt.Errorf("delete %s from replica: %w", id, err))
			}
		}
		return errors.Join(errs...)
	}
	return fmt.Errorf("unhandled event kind %q", ev.Kind)
}

func (w *MirrorWorker) copyIDs(ctx context.Context, ids []string) error {
	all, err := w.source.List(ctx)
	if err != nil {
		return fmt.Errorf("list source: %w", err)
	}
	byID := make(map[string]core.Transaction, len(all))
	for _, t := range all {
		byID[t.ID] = t
	}
	var errs []error
	for _, id := range ids {
		t, ok := byID[id]
		if !ok {
			// Deleted again before the event arrived.
			continue
		}
		if err := w.replica.Put(ctx, t); err != nil {
			errs = append(errs, fmt.Errorf("copy %s to replica: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// Reconcile copies rows missing from the replica and removes rows the
// source no longer has. Rows present in both are left alone.
func (w *MirrorWorker) Reconcile(ctx context.Context) (ReconcileStats, error) {
	var stats ReconcileStats

	src, err := w.source.List(ctx)
	if err != nil {
		return stats, fmt.Errorf("list source: %w", err)
	}
	dst, err := w.replica.List(ctx)
	if err != nil {
		return stats, fmt.Errorf("list replica: %w", err)
	}

	inSource := make(map[string]struct{}, len(src))
	for _, t := range src {
		inSource[t.ID] = struct{}{}
	}
	inReplica := make(map[string]struct{}, len(dst))
	for _, t := range dst {
		inReplica[t.ID] = struct{}{}
	}

	var errs []error
	for _, t := range src {
		if _, ok := inReplica[t.ID]; ok {
			continue
		}
		if err := w.replica.Put(ctx, t); err != nil {
			errs = append(errs, fmt.Errorf("copy %s: %w", t.ID, err))
			continue
		}
		stats.Copied++
	}
	for _, t := range dst {
		if _, ok := inSource[t.ID]; ok {
			continue
		}
		if err := w.replica.DeleteByID(ctx, t.ID); err != nil && !errors.Is(err, core.ErrNotFound) {
			errs = append(errs, fmt.Errorf("remove %s: %w", t.ID, err))
			continue
		}
		stats.Removed++
	}

	w.logger.InfoContext(ctx, "Reconcile finished",
		log.FieldOperation, log.OpReconcile, "copied", stats.Copied, "removed", stats.Removed, "errors", len(errs))
	return stats, errors.Join(errs...)
}

// Run reconciles once immediately and then every interval until ctx ends.
// Failed passes are logged and retried on the next tick.
func (w *MirrorWorker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := w.Reconcile(ctx); err != nil && ctx.Err() == nil {
			w.logger.ErrorContext(ctx, "Reconcile failed", log.NewFields().WithOperation(log.OpReconcile).WithError(err).ToSlice()...)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

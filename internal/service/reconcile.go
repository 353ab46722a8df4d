package service

import (
	"context"
	"fmt"
	"strings"

	"gemhub-inventory-api/internal/model"
	"gemhub-inventory-api/pkg/logger"
)

// DiamondStore is the persistence surface the reconciler needs: a snapshot
// query, one unordered bulk upsert, and batched disposition of stale
// listings.
type DiamondStore interface {
	ListAvailableStockIDs(ctx context.Context, owner string) ([]string, error)
	BulkUpsert(ctx context.Context, owner string, ops []model.UpsertOp) (model.BulkResult, error)
	ArchiveByStockIDs(ctx context.Context, owner string, stockIDs []string) (int64, error)
	DeleteByStockIDs(ctx context.Context, owner string, stockIDs []string) (int64, error)
}

// ReconcileOptions tune one reconciliation run.
type ReconcileOptions struct {
	// Disposition decides what happens to stale listings.
	Disposition model.Disposition

	// WipeOnEmpty treats an empty batch as a "remove everything" signal.
	// Remote and file-transfer syncs set this; uploads do not, so an
	// accidental empty upload cannot wipe an inventory.
	WipeOnEmpty bool
}

// Reconciler applies one validated batch of canonical records against the
// persisted inventory of an owner.
type Reconciler struct {
	store DiamondStore
	log   *logger.Logger
}

// NewReconciler creates a reconciler over the given store.
func NewReconciler(store DiamondStore, log *logger.Logger) *Reconciler {
	return &Reconciler{store: store, log: log}
}

// Reconcile inserts new listings, updates changed ones, and applies the
// disposition policy to previously available listings absent from the
// batch. Counts come from the bulk operation outcomes, not re-queries.
func (r *Reconciler) Reconcile(ctx context.Context, owner string, records []model.Record, opts ReconcileOptions) (model.SyncResult, error) {
	snapshot, err := r.store.ListAvailableStockIDs(ctx, owner)
	if err != nil {
		return model.SyncResult{}, fmt.Errorf("failed to snapshot inventory: %w", err)
	}

	if len(records) == 0 {
		if !opts.WipeOnEmpty {
			return model.SyncResult{Success: true, Message: "Feed contained no listings; inventory unchanged."}, nil
		}
		// Intentional branch: an empty feed from a remote source means the
		// supplier has nothing for sale any more.
		removed, err := r.dispose(ctx, owner, snapshot, opts.Disposition)
		if err != nil {
			return model.SyncResult{}, err
		}
		return model.SyncResult{
			Success: true,
			Message: "Feed was empty. Removed all available listings.",
			Removed: removed,
		}, nil
	}

	incoming := make(map[string]bool, len(records))
	ops := make([]model.UpsertOp, 0, len(records))
	for _, record := range records {
		stockID := record.StockID()
		incoming[stockID] = true
		ops = append(ops, buildUpsertOp(record))
	}

	bulk, err := r.store.BulkUpsert(ctx, owner, ops)
	if err != nil {
		return model.SyncResult{}, fmt.Errorf("failed to apply feed: %w", err)
	}

	var stale []string
	for _, stockID := range snapshot {
		if !incoming[stockID] {
			stale = append(stale, stockID)
		}
	}
	removed, err := r.dispose(ctx, owner, stale, opts.Disposition)
	if err != nil {
		// The upsert already committed; report what happened rather than
		// hiding the partial application.
		return model.SyncResult{}, fmt.Errorf("feed applied (%d added, %d updated) but stale cleanup failed: %w",
			bulk.Added, bulk.Updated, err)
	}

	r.log.Info("reconciliation complete",
		"owner", owner,
		"feed_total", len(records),
		"added", bulk.Added,
		"updated", bulk.Updated,
		"removed", removed,
	)
	return model.SyncResult{
		Success:     true,
		Message:     "Sync completed successfully.",
		TotalInFeed: len(records),
		Added:       bulk.Added,
		Updated:     bulk.Updated,
		Removed:     removed,
	}, nil
}

// buildUpsertOp turns a canonical record into one reconciliation write. A
// missing or explicitly available status becomes a full upsert that makes
// the listing AVAILABLE; any other feed-declared status is written verbatim
// (upper-cased) onto the existing listing only.
func buildUpsertOp(record model.Record) model.UpsertOp {
	availability := strings.ToUpper(strings.TrimSpace(record.Availability()))
	if availability == "" || availability == model.AvailabilityAvailable {
		fields := make(model.Record, len(record))
		for k, v := range record {
			if k == model.FieldAvailability {
				continue
			}
			fields[k] = v
		}
		return model.UpsertOp{StockID: record.StockID(), Fields: fields, Upsert: true}
	}
	return model.UpsertOp{StockID: record.StockID(), Status: availability, Upsert: false}
}

func (r *Reconciler) dispose(ctx context.Context, owner string, stockIDs []string, disposition model.Disposition) (int64, error) {
	if len(stockIDs) == 0 {
		return 0, nil
	}
	if disposition == model.DispositionDelete {
		n, err := r.store.DeleteByStockIDs(ctx, owner, stockIDs)
		if err != nil {
			return 0, fmt.Errorf("failed to delete stale listings: %w", err)
		}
		return n, nil
	}
	n, err := r.store.ArchiveByStockIDs(ctx, owner, stockIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to archive stale listings: %w", err)
	}
	return n, nil
}

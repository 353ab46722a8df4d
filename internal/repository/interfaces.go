package repository

import (
	"context"
	"errors"
	"time"

	"gemhub-inventory-api/internal/model"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("record not found")

// ErrDuplicateStockID is returned when a manual create collides with an
// existing (owner, stockId) pair.
var ErrDuplicateStockID = errors.New("diamond with this stock id already exists for owner")

// ListFilter narrows and pages diamond listings.
type ListFilter struct {
	Owner  string
	Search string
	Page   int
	Limit  int
}

// DiamondRepository defines diamond data access. Reconciliation uses the
// snapshot / bulk-upsert / batched-disposition methods; the HTTP surface
// uses the rest.
type DiamondRepository interface {
	// ListAvailableStockIDs snapshots the stock ids currently AVAILABLE for
	// the owner.
	ListAvailableStockIDs(ctx context.Context, owner string) ([]string, error)

	// BulkUpsert executes the reconciliation ops as one unordered batch so
	// a failure on one listing does not block the others.
	BulkUpsert(ctx context.Context, owner string, ops []model.UpsertOp) (model.BulkResult, error)

	// ArchiveByStockIDs flips the given listings to ARCHIVED and returns the
	// affected count.
	ArchiveByStockIDs(ctx context.Context, owner string, stockIDs []string) (int64, error)

	// DeleteByStockIDs removes the given listings and returns the affected
	// count.
	DeleteByStockIDs(ctx context.Context, owner string, stockIDs []string) (int64, error)

	Create(ctx context.Context, d *model.Diamond) error
	FindByID(ctx context.Context, id string) (*model.Diamond, error)
	FindByStockID(ctx context.Context, owner, stockID string) (*model.Diamond, error)
	List(ctx context.Context, filter ListFilter) ([]model.Diamond, int64, error)
	Update(ctx context.Context, id string, fields model.Record) (*model.Diamond, error)
	UpdateAvailability(ctx context.Context, id, availability string) error
	Delete(ctx context.Context, id string) error

	// Stats returns operational statistics about the inventory store.
	Stats(ctx context.Context) (map[string]interface{}, error)

	Close() error
}

// SupplierConfigRepository persists per-owner sync configuration.
type SupplierConfigRepository interface {
	// Get returns the owner's config, or (nil, nil) when none exists.
	Get(ctx context.Context, owner string) (*model.SupplierConfig, error)

	// Save creates or overwrites the owner's config.
	Save(ctx context.Context, cfg *model.SupplierConfig) error

	// ListAutoSync returns configs with auto-sync enabled and a usable
	// locator.
	ListAutoSync(ctx context.Context) ([]model.SupplierConfig, error)

	// UpdateLastRun records the outcome of one scheduled sync.
	UpdateLastRun(ctx context.Context, owner string, at time.Time, status string) error
}

// AccountRepository defines account credential access for the auth layer.
type AccountRepository interface {
	// FindByAPIKey returns the active account holding the given API key.
	FindByAPIKey(ctx context.Context, apiKey string) (*model.Account, error)
}

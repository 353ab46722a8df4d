package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gemhub-inventory-api/internal/model"
	"gemhub-inventory-api/pkg/logger"
)

// fakeDiamondStore is an in-memory DiamondStore tracking stock id →
// availability plus the attribute set last written for it.
type fakeDiamondStore struct {
	listings map[string]*fakeListing

	snapshotErr error
	bulkErr     error
	disposeErr  error

	archived []string
	deleted  []string
}

type fakeListing struct {
	availability string
	fields       model.Record
}

func newFakeDiamondStore() *fakeDiamondStore {
	return &fakeDiamondStore{listings: make(map[string]*fakeListing)}
}

func (s *fakeDiamondStore) seed(stockID, availability string, fields model.Record) {
	s.listings[stockID] = &fakeListing{availability: availability, fields: fields}
}

func (s *fakeDiamondStore) ListAvailableStockIDs(ctx context.Context, owner string) ([]string, error) {
	if s.snapshotErr != nil {
		return nil, s.snapshotErr
	}
	var out []string
	for id, l := range s.listings {
		if l.availability == model.AvailabilityAvailable {
			out = append(out, id)
		}
	}
	return out, nil
}

func (s *fakeDiamondStore) BulkUpsert(ctx context.Context, owner string, ops []model.UpsertOp) (model.BulkResult, error) {
	if s.bulkErr != nil {
		return model.BulkResult{}, s.bulkErr
	}
	var result model.BulkResult
	for _, op := range ops {
		existing, ok := s.listings[op.StockID]
		if !op.Upsert {
			if ok && existing.availability != op.Status {
				existing.availability = op.Status
				result.Updated++
			}
			continue
		}
		if !ok {
			s.listings[op.StockID] = &fakeListing{
				availability: model.AvailabilityAvailable,
				fields:       op.Fields,
			}
			result.Added++
			continue
		}
		changed := existing.availability != model.AvailabilityAvailable
		for k, v := range op.Fields {
			if existing.fields[k] != v {
				changed = true
			}
		}
		existing.availability = model.AvailabilityAvailable
		existing.fields = op.Fields
		if changed {
			result.Updated++
		}
	}
	return result, nil
}

func (s *fakeDiamondStore) ArchiveByStockIDs(ctx context.Context, owner string, stockIDs []string) (int64, error) {
	if s.disposeErr != nil {
		return 0, s.disposeErr
	}
	var n int64
	for _, id := range stockIDs {
		if l, ok := s.listings[id]; ok && l.availability != model.AvailabilityArchived {
			l.availability = model.AvailabilityArchived
			n++
		}
	}
	s.archived = append(s.archived, stockIDs...)
	return n, nil
}

func (s *fakeDiamondStore) DeleteByStockIDs(ctx context.Context, owner string, stockIDs []string) (int64, error) {
	if s.disposeErr != nil {
		return 0, s.disposeErr
	}
	var n int64
	for _, id := range stockIDs {
		if _, ok := s.listings[id]; ok {
			delete(s.listings, id)
			n++
		}
	}
	s.deleted = append(s.deleted, stockIDs...)
	return n, nil
}

func record(stockID string, carat float64, extra model.Record) model.Record {
	r := model.Record{model.FieldStockID: stockID, model.FieldCarat: carat}
	for k, v := range extra {
		r[k] = v
	}
	return r
}

func TestReconcileAddsUpdatesAndArchives(t *testing.T) {
	store := newFakeDiamondStore()
	store.seed("A1", model.AvailabilityAvailable, model.Record{
		model.FieldStockID: "A1", model.FieldCarat: 1.0, model.FieldShape: "Round",
	})
	store.seed("A3", model.AvailabilityAvailable, model.Record{
		model.FieldStockID: "A3", model.FieldCarat: 2.0,
	})

	r := NewReconciler(store, logger.NewNop())
	// A1 changes shape, A2 is new, A3 is absent from the batch.
	batch := []model.Record{
		record("A1", 1.0, model.Record{model.FieldShape: "Oval"}),
		record("A2", 0.9, nil),
	}

	result, err := r.Reconcile(context.Background(), "owner-1", batch, ReconcileOptions{
		Disposition: model.DispositionArchive,
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 2, result.TotalInFeed)
	assert.Equal(t, int64(1), result.Added)
	assert.Equal(t, int64(1), result.Updated)
	assert.Equal(t, int64(1), result.Removed)

	// A3 vanished from the feed and got archived, not deleted.
	assert.Equal(t, []string{"A3"}, store.archived)
	assert.Equal(t, model.AvailabilityArchived, store.listings["A3"].availability)
	assert.Equal(t, "Oval", store.listings["A1"].fields[model.FieldShape])
}

func TestReconcileIsIdempotent(t *testing.T) {
	store := newFakeDiamondStore()
	r := NewReconciler(store, logger.NewNop())
	batch := []model.Record{record("A1", 1.0, nil), record("A2", 2.0, nil)}

	first, err := r.Reconcile(context.Background(), "owner-1", batch, ReconcileOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), first.Added)

	second, err := r.Reconcile(context.Background(), "owner-1", batch, ReconcileOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), second.Added)
	assert.Equal(t, int64(0), second.Updated)
	assert.Equal(t, int64(0), second.Removed)
	assert.True(t, second.Success)
}

func TestReconcileDeleteDisposition(t *testing.T) {
	store := newFakeDiamondStore()
	store.seed("OLD", model.AvailabilityAvailable, model.Record{model.FieldStockID: "OLD"})

	r := NewReconciler(store, logger.NewNop())
	result, err := r.Reconcile(context.Background(), "owner-1",
		[]model.Record{record("NEW", 1.5, nil)},
		ReconcileOptions{Disposition: model.DispositionDelete})
	require.NoError(t, err)

	assert.Equal(t, int64(1), result.Removed)
	assert.Equal(t, []string{"OLD"}, store.deleted)
	_, exists := store.listings["OLD"]
	assert.False(t, exists)
}

func TestReconcileNonAvailableStatusOnlyTouchesExisting(t *testing.T) {
	store := newFakeDiamondStore()
	store.seed("A1", model.AvailabilityAvailable, model.Record{model.FieldStockID: "A1"})

	r := NewReconciler(store, logger.NewNop())
	batch := []model.Record{
		record("A1", 1.0, model.Record{model.FieldAvailability: "sold"}),
		record("GHOST", 1.0, model.Record{model.FieldAvailability: "sold"}),
	}

	result, err := r.Reconcile(context.Background(), "owner-1", batch, ReconcileOptions{})
	require.NoError(t, err)

	// A1 flips to SOLD; GHOST was never in inventory and is not created.
	assert.Equal(t, model.AvailabilitySold, store.listings["A1"].availability)
	_, exists := store.listings["GHOST"]
	assert.False(t, exists)
	assert.Equal(t, int64(0), result.Added)
	assert.Equal(t, int64(1), result.Updated)
	// A sold listing in the feed is still in the feed: nothing is stale.
	assert.Equal(t, int64(0), result.Removed)
}

func TestReconcileEmptyBatchWithoutWipe(t *testing.T) {
	store := newFakeDiamondStore()
	store.seed("A1", model.AvailabilityAvailable, nil)

	r := NewReconciler(store, logger.NewNop())
	result, err := r.Reconcile(context.Background(), "owner-1", nil, ReconcileOptions{})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, int64(0), result.Removed)
	assert.Equal(t, model.AvailabilityAvailable, store.listings["A1"].availability)
}

func TestReconcileEmptyBatchWipes(t *testing.T) {
	store := newFakeDiamondStore()
	store.seed("A1", model.AvailabilityAvailable, nil)
	store.seed("A2", model.AvailabilityAvailable, nil)
	store.seed("S1", model.AvailabilitySold, nil)

	r := NewReconciler(store, logger.NewNop())
	result, err := r.Reconcile(context.Background(), "owner-1", nil, ReconcileOptions{
		WipeOnEmpty: true,
		Disposition: model.DispositionArchive,
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, int64(2), result.Removed)
	// Only previously available listings are touched.
	assert.Equal(t, model.AvailabilitySold, store.listings["S1"].availability)
}

func TestReconcileSnapshotFailure(t *testing.T) {
	store := newFakeDiamondStore()
	store.snapshotErr = errors.New("connection reset")

	r := NewReconciler(store, logger.NewNop())
	_, err := r.Reconcile(context.Background(), "owner-1",
		[]model.Record{record("A1", 1.0, nil)}, ReconcileOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "snapshot")
}

func TestReconcilePartialFailureIsReported(t *testing.T) {
	store := newFakeDiamondStore()
	store.seed("STALE", model.AvailabilityAvailable, nil)
	store.disposeErr = errors.New("archive failed")

	r := NewReconciler(store, logger.NewNop())
	_, err := r.Reconcile(context.Background(), "owner-1",
		[]model.Record{record("A1", 1.0, nil)}, ReconcileOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stale cleanup failed")
	assert.Contains(t, err.Error(), "1 added")
}

func TestBuildUpsertOpExcludesAvailabilityFromFields(t *testing.T) {
	op := buildUpsertOp(model.Record{
		model.FieldStockID:      "A1",
		model.FieldCarat:        1.0,
		model.FieldAvailability: "AVAILABLE",
	})
	assert.True(t, op.Upsert)
	_, has := op.Fields[model.FieldAvailability]
	assert.False(t, has)
}

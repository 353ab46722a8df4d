package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gemhub-inventory-api/internal/events"
	"gemhub-inventory-api/internal/model"
	"gemhub-inventory-api/pkg/logger"
)

type fakeSupplierStore struct {
	configs  map[string]*model.SupplierConfig
	lastRuns map[string]string
}

func newFakeSupplierStore() *fakeSupplierStore {
	return &fakeSupplierStore{
		configs:  make(map[string]*model.SupplierConfig),
		lastRuns: make(map[string]string),
	}
}

func (s *fakeSupplierStore) Get(ctx context.Context, owner string) (*model.SupplierConfig, error) {
	cfg, ok := s.configs[owner]
	if !ok {
		return nil, nil
	}
	copied := *cfg
	return &copied, nil
}

func (s *fakeSupplierStore) Save(ctx context.Context, cfg *model.SupplierConfig) error {
	copied := *cfg
	s.configs[cfg.Owner] = &copied
	return nil
}

func (s *fakeSupplierStore) ListAutoSync(ctx context.Context) ([]model.SupplierConfig, error) {
	var out []model.SupplierConfig
	for _, cfg := range s.configs {
		if cfg.AutoSync && cfg.HasLocator() {
			out = append(out, *cfg)
		}
	}
	return out, nil
}

func (s *fakeSupplierStore) UpdateLastRun(ctx context.Context, owner string, at time.Time, status string) error {
	s.lastRuns[owner] = status
	return nil
}

type capturingPublisher struct {
	events []model.SyncResult
}

func (p *capturingPublisher) PublishSyncResult(ctx context.Context, owner, source string, result model.SyncResult) {
	p.events = append(p.events, result)
}

var uploadMapping = model.Mapping{
	model.FieldStockID: "Stock",
	model.FieldCarat:   "Carat",
	model.FieldShape:   "Shape",
}

func newTestEngine(store DiamondStore, suppliers SupplierStore, pub *capturingPublisher) *SyncEngine {
	var publisher events.Publisher
	if pub != nil {
		publisher = pub
	}
	return NewSyncEngine(store, suppliers, publisher, logger.NewNop(), SyncEngineConfig{})
}

func TestSyncFromUpload(t *testing.T) {
	store := newFakeDiamondStore()
	pub := &capturingPublisher{}
	engine := newTestEngine(store, nil, pub)

	data := []byte("Stock,Carat,Shape\nA1,1.01,RD\nA2,0.90,PS\n")
	result := engine.SyncFromUpload(context.Background(), "owner-1", data, uploadMapping)

	require.True(t, result.Success, result.Message)
	assert.Equal(t, 2, result.TotalInFeed)
	assert.Equal(t, int64(2), result.Added)
	assert.Equal(t, "Round", store.listings["A1"].fields[model.FieldShape])

	require.Len(t, pub.events, 1)
	assert.Equal(t, int64(2), pub.events[0].Added)
}

func TestSyncFromUploadRequiresOwnerAndMapping(t *testing.T) {
	engine := newTestEngine(newFakeDiamondStore(), nil, nil)
	data := []byte("Stock,Carat\nA1,1.0\n")

	result := engine.SyncFromUpload(context.Background(), "", data, uploadMapping)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "owner")

	result = engine.SyncFromUpload(context.Background(), "owner-1", data, nil)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "mapping")
}

func TestSyncFromUploadAllRowsInvalid(t *testing.T) {
	store := newFakeDiamondStore()
	store.seed("KEEP", model.AvailabilityAvailable, nil)
	engine := newTestEngine(store, nil, nil)

	data := []byte("Stock,Carat\nA1,N/A\nA2,broken\n")
	result := engine.SyncFromUpload(context.Background(), "owner-1", data, uploadMapping)

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "all 2 rows")
	// A rejected batch must not disturb existing inventory.
	assert.Equal(t, model.AvailabilityAvailable, store.listings["KEEP"].availability)
}

func TestSyncFromUploadEmptyFileDoesNotWipe(t *testing.T) {
	store := newFakeDiamondStore()
	store.seed("A1", model.AvailabilityAvailable, nil)
	pub := &capturingPublisher{}
	engine := newTestEngine(store, nil, pub)

	result := engine.SyncFromUpload(context.Background(), "owner-1", nil, uploadMapping)

	assert.True(t, result.Success)
	assert.Equal(t, model.AvailabilityAvailable, store.listings["A1"].availability)
	// Nothing changed, so nothing is published.
	assert.Empty(t, pub.events)
}

func TestSyncFromRemoteFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": [{"Stock": "R1", "Carat": "1.50", "Shape": "OV"}]}`))
	}))
	defer srv.Close()

	store := newFakeDiamondStore()
	suppliers := newFakeSupplierStore()
	engine := newTestEngine(store, suppliers, nil)

	result := engine.SyncFromRemoteFeed(context.Background(), "owner-1", srv.URL, uploadMapping, true)

	require.True(t, result.Success, result.Message)
	assert.Equal(t, int64(1), result.Added)
	assert.Equal(t, "Oval", store.listings["R1"].fields[model.FieldShape])

	// enableAutoSync persists the locator and mapping.
	cfg := suppliers.configs["owner-1"]
	require.NotNil(t, cfg)
	assert.True(t, cfg.AutoSync)
	assert.Equal(t, srv.URL, cfg.FeedURL)
	assert.Equal(t, uploadMapping, cfg.Mapping)
}

func TestSyncFromRemoteFeedFailureDoesNotPersistConfig(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	suppliers := newFakeSupplierStore()
	engine := newTestEngine(newFakeDiamondStore(), suppliers, nil)

	result := engine.SyncFromRemoteFeed(context.Background(), "owner-1", srv.URL, uploadMapping, true)

	assert.False(t, result.Success)
	assert.Contains(t, result.Message, "502")
	assert.Empty(t, suppliers.configs)
}

func TestSyncFromRemoteFeedEmptyBodyWipes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := newFakeDiamondStore()
	store.seed("A1", model.AvailabilityAvailable, nil)
	store.seed("A2", model.AvailabilityAvailable, nil)
	engine := newTestEngine(store, nil, nil)

	result := engine.SyncFromRemoteFeed(context.Background(), "owner-1", srv.URL, uploadMapping, false)

	require.True(t, result.Success)
	assert.Equal(t, int64(2), result.Removed)
	assert.Equal(t, model.AvailabilityArchived, store.listings["A1"].availability)
}

func TestSyncUsesConfiguredDisposition(t *testing.T) {
	store := newFakeDiamondStore()
	store.seed("STALE", model.AvailabilityAvailable, nil)

	suppliers := newFakeSupplierStore()
	suppliers.configs["owner-1"] = &model.SupplierConfig{
		Owner:       "owner-1",
		Disposition: model.DispositionDelete,
	}
	engine := newTestEngine(store, suppliers, nil)

	data := []byte("Stock,Carat\nNEW,1.0\n")
	result := engine.SyncFromUpload(context.Background(), "owner-1", data, uploadMapping)

	require.True(t, result.Success, result.Message)
	assert.Equal(t, []string{"STALE"}, store.deleted)
	assert.Empty(t, store.archived)
}

func TestSyncSerializesSameOwner(t *testing.T) {
	store := newFakeDiamondStore()
	engine := newTestEngine(store, nil, nil)
	data := []byte("Stock,Carat\nA1,1.01\nA2,0.55\n")

	const workers = 8
	results := make([]model.SyncResult, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = engine.SyncFromUpload(context.Background(), "owner-1", data, uploadMapping)
		}(i)
	}
	wg.Wait()

	// The runs are serialized per owner: exactly one sees the inserts, the
	// rest reconcile an identical feed to a no-op. No run may archive a
	// listing a concurrent run just wrote.
	var added, updated, removed int64
	for _, r := range results {
		require.True(t, r.Success, r.Message)
		added += r.Added
		updated += r.Updated
		removed += r.Removed
	}
	assert.Equal(t, int64(2), added)
	assert.Equal(t, int64(0), updated)
	assert.Equal(t, int64(0), removed)
	assert.Equal(t, model.AvailabilityAvailable, store.listings["A1"].availability)
	assert.Equal(t, model.AvailabilityAvailable, store.listings["A2"].availability)
}

func TestPreviewUploadHeaders(t *testing.T) {
	engine := newTestEngine(newFakeDiamondStore(), nil, nil)

	headers, err := engine.PreviewUploadHeaders([]byte("Stock #,Weight\nA1,1.0\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Stock #", "Weight"}, headers)

	_, err = engine.PreviewUploadHeaders(nil)
	require.Error(t, err)
}

func TestPreviewRemoteFeedHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"sku": "A1", "ct": 1}]`))
	}))
	defer srv.Close()

	engine := newTestEngine(newFakeDiamondStore(), nil, nil)
	headers, err := engine.PreviewRemoteFeedHeaders(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"sku", "ct"}, headers)
}

func TestSchedulerRunOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Stock,Carat\nS1,1.0\n"))
	}))
	defer srv.Close()

	store := newFakeDiamondStore()
	suppliers := newFakeSupplierStore()
	suppliers.configs["owner-1"] = &model.SupplierConfig{
		Owner:    "owner-1",
		Mapping:  uploadMapping,
		FeedURL:  srv.URL,
		AutoSync: true,
	}
	suppliers.configs["owner-2"] = &model.SupplierConfig{
		Owner:    "owner-2",
		Mapping:  uploadMapping,
		FeedURL:  srv.URL + "/missing",
		AutoSync: false, // disabled, must be skipped
	}

	engine := newTestEngine(store, suppliers, nil)
	scheduler := NewAutoSyncScheduler(engine, suppliers, SchedulerConfig{}, logger.NewNop())
	scheduler.RunOnce()

	assert.Equal(t, "Success: 1 added, 0 updated, 0 removed.", suppliers.lastRuns["owner-1"])
	_, ran := suppliers.lastRuns["owner-2"]
	assert.False(t, ran)
	assert.Equal(t, model.AvailabilityAvailable, store.listings["S1"].availability)
}

func TestSchedulerRecordsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	suppliers := newFakeSupplierStore()
	suppliers.configs["owner-1"] = &model.SupplierConfig{
		Owner:    "owner-1",
		Mapping:  uploadMapping,
		FeedURL:  srv.URL,
		AutoSync: true,
	}

	engine := newTestEngine(newFakeDiamondStore(), suppliers, nil)
	scheduler := NewAutoSyncScheduler(engine, suppliers, SchedulerConfig{}, logger.NewNop())
	scheduler.RunOnce()

	status := suppliers.lastRuns["owner-1"]
	assert.Contains(t, status, "Failed:")
	assert.Contains(t, status, "403")
}

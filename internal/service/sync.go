package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gemhub-inventory-api/internal/adapter"
	"gemhub-inventory-api/internal/events"
	"gemhub-inventory-api/internal/feed"
	"gemhub-inventory-api/internal/model"
	"gemhub-inventory-api/pkg/logger"
)

// SupplierStore persists per-owner sync configuration.
type SupplierStore interface {
	Get(ctx context.Context, owner string) (*model.SupplierConfig, error)
	Save(ctx context.Context, cfg *model.SupplierConfig) error
	ListAutoSync(ctx context.Context) ([]model.SupplierConfig, error)
	UpdateLastRun(ctx context.Context, owner string, at time.Time, status string) error
}

// SyncEngineConfig holds the engine's tunables.
type SyncEngineConfig struct {
	FetchTimeout    time.Duration
	TransferTimeout time.Duration
	Disposition     model.Disposition
	Synonyms        feed.SynonymTable
}

// SyncEngine composes one source adapter with the parse → normalize → map →
// validate → reconcile pipeline. It never lets a failure escape as an
// error: every sync call returns a SyncResult.
type SyncEngine struct {
	reconciler *Reconciler
	suppliers  SupplierStore
	publisher  events.Publisher
	log        *logger.Logger
	cfg        SyncEngineConfig

	// Syncs for the same owner must not overlap: two concurrent runs would
	// race on the stale-detection snapshot.
	locks sync.Map // owner -> *sync.Mutex
}

// NewSyncEngine wires the engine. suppliers may be nil, which disables
// configuration persistence and auto-sync.
func NewSyncEngine(store DiamondStore, suppliers SupplierStore, publisher events.Publisher, log *logger.Logger, cfg SyncEngineConfig) *SyncEngine {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = adapter.DefaultFetchTimeout
	}
	if cfg.TransferTimeout <= 0 {
		cfg.TransferTimeout = adapter.DefaultTransferTimeout
	}
	if cfg.Disposition == "" {
		cfg.Disposition = model.DispositionArchive
	}
	if cfg.Synonyms == nil {
		cfg.Synonyms = feed.DefaultSynonyms
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &SyncEngine{
		reconciler: NewReconciler(store, log),
		suppliers:  suppliers,
		publisher:  publisher,
		log:        log,
		cfg:        cfg,
	}
}

// SyncFromUpload reconciles an already-received file against the owner's
// inventory. Uploads never treat an empty batch as a wipe signal.
func (e *SyncEngine) SyncFromUpload(ctx context.Context, owner string, data []byte, mapping model.Mapping) model.SyncResult {
	src := &adapter.UploadSource{Data: data}
	return e.runSync(ctx, owner, src, mapping, false)
}

// SyncFromRemoteFeed fetches and reconciles a remote HTTP feed. When
// enableAutoSync is set, the URL and mapping are persisted for the
// scheduler on success.
func (e *SyncEngine) SyncFromRemoteFeed(ctx context.Context, owner, url string, mapping model.Mapping, enableAutoSync bool) model.SyncResult {
	src := adapter.NewRemoteFeedSource(url, e.cfg.FetchTimeout)
	result := e.runSync(ctx, owner, src, mapping, true)
	if result.Success && enableAutoSync {
		e.persistConfig(ctx, owner, mapping, func(cfg *model.SupplierConfig) {
			cfg.FeedURL = url
		})
	}
	return result
}

// SyncFromFileTransfer downloads and reconciles a file from an FTP server.
func (e *SyncEngine) SyncFromFileTransfer(ctx context.Context, owner string, info model.FTPInfo, mapping model.Mapping, enableAutoSync bool) model.SyncResult {
	src := adapter.NewFileTransferSource(info, e.cfg.TransferTimeout)
	result := e.runSync(ctx, owner, src, mapping, true)
	if result.Success && enableAutoSync {
		e.persistConfig(ctx, owner, mapping, func(cfg *model.SupplierConfig) {
			cfg.FTP = &info
		})
	}
	return result
}

// PreviewUploadHeaders returns the column list of an uploaded file.
func (e *SyncEngine) PreviewUploadHeaders(data []byte) ([]string, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot get headers from an empty file")
	}
	return feed.Headers(data)
}

// PreviewRemoteFeedHeaders fetches a remote feed and returns its columns.
func (e *SyncEngine) PreviewRemoteFeedHeaders(ctx context.Context, url string) ([]string, error) {
	return e.previewHeaders(ctx, adapter.NewRemoteFeedSource(url, e.cfg.FetchTimeout))
}

// PreviewFileTransferHeaders downloads a file and returns its columns.
func (e *SyncEngine) PreviewFileTransferHeaders(ctx context.Context, info model.FTPInfo) ([]string, error) {
	return e.previewHeaders(ctx, adapter.NewFileTransferSource(info, e.cfg.TransferTimeout))
}

func (e *SyncEngine) previewHeaders(ctx context.Context, src adapter.Source) ([]string, error) {
	data, err := src.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("cannot get headers from an empty feed")
	}
	return feed.Headers(data)
}

// runSync is the single pipeline every sync call goes through.
func (e *SyncEngine) runSync(ctx context.Context, owner string, src adapter.Source, mapping model.Mapping, wipeOnEmpty bool) model.SyncResult {
	if owner == "" {
		return model.Failure("owner is required")
	}
	if len(mapping) == 0 {
		return model.Failure("field mapping is required")
	}

	unlock := e.lockOwner(owner)
	defer unlock()

	log := e.log.With("owner", owner, "source", src.Kind())

	data, err := src.Fetch(ctx)
	if err != nil {
		log.Warn("feed fetch failed", "error", err)
		return model.Failure(err.Error())
	}

	opts := ReconcileOptions{
		Disposition: e.dispositionFor(ctx, owner),
		WipeOnEmpty: wipeOnEmpty,
	}

	if len(data) == 0 {
		result, err := e.reconciler.Reconcile(ctx, owner, nil, opts)
		if err != nil {
			log.Error("empty-feed reconciliation failed", "error", err)
			return model.Failure(err.Error())
		}
		e.publish(ctx, owner, src.Kind(), result)
		return result
	}

	rows, err := feed.Parse(data)
	if err != nil {
		log.Warn("feed parse failed", "error", err)
		return model.Failure(err.Error())
	}

	records, diags, err := feed.Process(rows, mapping, e.cfg.Synonyms)
	if err != nil {
		log.Warn("feed processing failed", "error", err, "diagnostics", len(diags))
		return model.Failure(err.Error())
	}
	if len(diags) > 0 {
		log.Info("skipped invalid rows", "skipped", len(diags), "valid", len(records))
	}

	result, err := e.reconciler.Reconcile(ctx, owner, records, opts)
	if err != nil {
		log.Error("reconciliation failed", "error", err)
		return model.Failure(err.Error())
	}
	e.publish(ctx, owner, src.Kind(), result)
	return result
}

func (e *SyncEngine) publish(ctx context.Context, owner, source string, result model.SyncResult) {
	if result.Success && result.Changed() {
		e.publisher.PublishSyncResult(ctx, owner, source, result)
	}
}

// dispositionFor resolves the stale-listing policy: the owner's configured
// choice when present, else the engine default.
func (e *SyncEngine) dispositionFor(ctx context.Context, owner string) model.Disposition {
	if e.suppliers != nil {
		cfg, err := e.suppliers.Get(ctx, owner)
		if err != nil {
			e.log.Warn("failed to load supplier config", "owner", owner, "error", err)
		} else if cfg != nil && cfg.Disposition != "" {
			return cfg.Disposition
		}
	}
	return e.cfg.Disposition
}

// persistConfig stores the mapping and source locator for scheduled
// re-syncs, preserving any other configured fields.
func (e *SyncEngine) persistConfig(ctx context.Context, owner string, mapping model.Mapping, set func(*model.SupplierConfig)) {
	if e.suppliers == nil {
		e.log.Warn("auto-sync requested but config persistence is disabled", "owner", owner)
		return
	}
	cfg, err := e.suppliers.Get(ctx, owner)
	if err != nil {
		e.log.Warn("failed to load supplier config", "owner", owner, "error", err)
		return
	}
	if cfg == nil {
		cfg = &model.SupplierConfig{Owner: owner}
	}
	cfg.Mapping = mapping
	cfg.AutoSync = true
	set(cfg)
	if err := e.suppliers.Save(ctx, cfg); err != nil {
		e.log.Warn("failed to persist supplier config", "owner", owner, "error", err)
	}
}

// lockOwner serializes sync attempts per owner.
func (e *SyncEngine) lockOwner(owner string) func() {
	v, _ := e.locks.LoadOrStore(owner, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

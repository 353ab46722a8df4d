package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gemhub-inventory-api/internal/model"
	"gemhub-inventory-api/pkg/logger"
)

// SchedulerConfig holds configuration for the auto-sync scheduler.
type SchedulerConfig struct {
	// Interval is how often enabled suppliers are re-synced.
	Interval time.Duration

	// RunTimeout bounds one whole scheduler pass.
	RunTimeout time.Duration
}

// AutoSyncScheduler periodically re-syncs every supplier whose persisted
// config has auto-sync enabled and a usable locator. One supplier's failure
// never aborts the rest of the pass.
type AutoSyncScheduler struct {
	engine    *SyncEngine
	suppliers SupplierStore
	config    SchedulerConfig
	log       *logger.Logger

	ticker    *time.Ticker
	stopCh    chan struct{}
	stopOnce  sync.Once
	isRunning bool
	mu        sync.Mutex
}

// NewAutoSyncScheduler creates the scheduler.
func NewAutoSyncScheduler(engine *SyncEngine, suppliers SupplierStore, config SchedulerConfig, log *logger.Logger) *AutoSyncScheduler {
	if config.Interval == 0 {
		config.Interval = 5 * time.Minute
	}
	if config.RunTimeout == 0 {
		config.RunTimeout = 30 * time.Minute
	}
	return &AutoSyncScheduler{
		engine:    engine,
		suppliers: suppliers,
		config:    config,
		log:       log,
		stopCh:    make(chan struct{}),
	}
}

// Start begins the scheduling loop.
func (s *AutoSyncScheduler) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.ticker = time.NewTicker(s.config.Interval)
	s.mu.Unlock()

	s.log.Info("auto-sync scheduler started", "interval", s.config.Interval)
	go s.run()
}

func (s *AutoSyncScheduler) run() {
	for {
		select {
		case <-s.ticker.C:
			s.RunOnce()
		case <-s.stopCh:
			s.log.Info("auto-sync scheduler stopped")
			return
		}
	}
}

// RunOnce executes one scheduler pass.
func (s *AutoSyncScheduler) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.RunTimeout)
	defer cancel()

	configs, err := s.suppliers.ListAutoSync(ctx)
	if err != nil {
		s.log.Error("failed to enumerate auto-sync suppliers", "error", err)
		return
	}
	if len(configs) == 0 {
		s.log.Debug("no suppliers enabled for auto-sync")
		return
	}
	s.log.Info("running scheduled sync", "suppliers", len(configs))

	for i := range configs {
		s.syncSupplier(ctx, &configs[i])
	}
}

func (s *AutoSyncScheduler) syncSupplier(ctx context.Context, cfg *model.SupplierConfig) {
	var result model.SyncResult
	switch {
	case cfg.FeedURL != "":
		result = s.engine.SyncFromRemoteFeed(ctx, cfg.Owner, cfg.FeedURL, cfg.Mapping, false)
	case cfg.FTP != nil && cfg.FTP.Host != "":
		result = s.engine.SyncFromFileTransfer(ctx, cfg.Owner, *cfg.FTP, cfg.Mapping, false)
	default:
		return
	}

	status := fmt.Sprintf("Success: %d added, %d updated, %d removed.",
		result.Added, result.Updated, result.Removed)
	if !result.Success {
		status = "Failed: " + result.Message
		s.log.Warn("scheduled sync failed", "owner", cfg.Owner, "message", result.Message)
	}

	if err := s.suppliers.UpdateLastRun(ctx, cfg.Owner, time.Now(), status); err != nil {
		s.log.Warn("failed to record sync outcome", "owner", cfg.Owner, "error", err)
	}
}

// Stop stops the scheduler.
func (s *AutoSyncScheduler) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.stopCh)
		s.isRunning = false
	})
}

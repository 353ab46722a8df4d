package handler

import (
	"net/http"
	"runtime"
	"time"

	"gemhub-inventory-api/internal/middleware"
	"gemhub-inventory-api/internal/model"
	"gemhub-inventory-api/internal/repository"
	"gemhub-inventory-api/internal/service"
	"gemhub-inventory-api/pkg/apierror"
	"gemhub-inventory-api/pkg/response"
)

// AdminHandler handles admin-related HTTP requests.
type AdminHandler struct {
	diamonds  repository.DiamondRepository
	scheduler *service.AutoSyncScheduler
	dbType    string
	startTime time.Time
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(
	diamonds repository.DiamondRepository,
	scheduler *service.AutoSyncScheduler,
	dbType string,
) *AdminHandler {
	return &AdminHandler{
		diamonds:  diamonds,
		scheduler: scheduler,
		dbType:    dbType,
		startTime: time.Now(),
	}
}

// requireAdmin rejects non-admin callers.
func requireAdmin(r *http.Request) error {
	token := middleware.GetTokenData(r.Context())
	if token == nil || token.Role != model.RoleAdmin {
		return apierror.Forbidden("admin access required")
	}
	return nil
}

// GetStats handles GET /api/v1/admin/stats
func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	if err := requireAdmin(r); err != nil {
		response.Error(w, err)
		return
	}

	ctx := r.Context()
	stats := make(map[string]interface{})

	// System info
	stats["uptime_seconds"] = int64(time.Since(h.startTime).Seconds())
	stats["uptime_human"] = time.Since(h.startTime).Round(time.Second).String()
	stats["server_time"] = time.Now().Format(time.RFC3339)
	stats["db_type"] = h.dbType

	// Memory stats
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	stats["memory"] = map[string]interface{}{
		"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
		"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
		"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
		"heap_alloc_mb":  float64(memStats.HeapAlloc) / 1024 / 1024,
		"heap_inuse_mb":  float64(memStats.HeapInuse) / 1024 / 1024,
		"num_gc":         memStats.NumGC,
		"goroutines":     runtime.NumGoroutine(),
	}

	// Inventory store stats
	if h.diamonds != nil {
		dbStats, err := h.diamonds.Stats(ctx)
		if err == nil {
			dbStats["status"] = "connected"
			stats["inventory"] = dbStats
		} else {
			stats["inventory"] = map[string]interface{}{
				"status": "error",
				"error":  err.Error(),
			}
		}
	} else {
		stats["inventory"] = map[string]interface{}{
			"status": "not_configured",
		}
	}

	stats["scheduler"] = map[string]interface{}{
		"enabled": h.scheduler != nil,
	}

	// Runtime info
	stats["runtime"] = map[string]interface{}{
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"cpus":       runtime.NumCPU(),
	}

	response.OK(w, stats)
}

// TriggerAutoSync handles POST /api/v1/admin/autosync/run. It kicks one full
// scheduler pass outside the regular cadence.
func (h *AdminHandler) TriggerAutoSync(w http.ResponseWriter, r *http.Request) {
	if err := requireAdmin(r); err != nil {
		response.Error(w, err)
		return
	}

	if h.scheduler == nil {
		response.Error(w, apierror.ServiceUnavailable("auto-sync scheduler is not configured"))
		return
	}

	go h.scheduler.RunOnce()
	response.OK(w, map[string]string{"status": "triggered"})
}

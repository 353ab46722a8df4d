package router

import (
	"net/http"

	"gemhub-inventory-api/internal/handler"
	"gemhub-inventory-api/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler          *handler.Handler
	SyncHandler      *handler.SyncHandler
	InventoryHandler *handler.InventoryHandler
	SupplierHandler  *handler.SupplierHandler
	AdminHandler     *handler.AdminHandler
	AuthHandler      *handler.AuthHandler
	AuthMiddleware   func(http.Handler) http.Handler
	Recovery         func(http.Handler) http.Handler
	Logging          func(http.Handler) http.Handler
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	if cfg.Recovery != nil {
		r.Use(cfg.Recovery)
	}
	r.Use(middleware.RequestID)
	if cfg.Logging != nil {
		r.Use(cfg.Logging)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Token"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// PUBLIC routes (no auth required)
	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
		r.Get("/api/v1/health", cfg.Handler.Health)
	}
	if cfg.AuthHandler != nil {
		r.Post("/api/v1/auth/token", cfg.AuthHandler.GenerateToken)
	}

	// AUTHENTICATED routes
	r.Group(func(r chi.Router) {
		if cfg.AuthMiddleware != nil {
			r.Use(cfg.AuthMiddleware)
		}

		r.Route("/api/v1", func(r chi.Router) {
			if cfg.AuthHandler != nil {
				r.Route("/auth", func(r chi.Router) {
					r.Post("/revoke", cfg.AuthHandler.RevokeToken)
					r.Post("/refresh", cfg.AuthHandler.RefreshToken)
				})
			}

			if cfg.InventoryHandler != nil {
				r.Route("/diamonds", func(r chi.Router) {
					r.Post("/", cfg.InventoryHandler.Create)
					r.Get("/", cfg.InventoryHandler.List)
					r.Get("/stock/{stockId}", cfg.InventoryHandler.GetByStockID)
					r.Get("/{id}", cfg.InventoryHandler.Get)
					r.Patch("/{id}", cfg.InventoryHandler.Update)
					r.Patch("/{id}/availability", cfg.InventoryHandler.UpdateAvailability)
					r.Delete("/{id}", cfg.InventoryHandler.Delete)
				})
			}

			r.Route("/inventory", func(r chi.Router) {
				if cfg.SyncHandler != nil {
					r.Route("/sync", func(r chi.Router) {
						r.Post("/upload", cfg.SyncHandler.SyncFromUpload)
						r.Post("/feed", cfg.SyncHandler.SyncFromFeed)
						r.Post("/ftp", cfg.SyncHandler.SyncFromFTP)
					})
					r.Route("/preview", func(r chi.Router) {
						r.Post("/upload", cfg.SyncHandler.PreviewUploadHeaders)
						r.Post("/feed", cfg.SyncHandler.PreviewFeedHeaders)
						r.Post("/ftp", cfg.SyncHandler.PreviewFTPHeaders)
					})
				}
				if cfg.SupplierHandler != nil {
					r.Get("/config", cfg.SupplierHandler.GetConfig)
					r.Patch("/config", cfg.SupplierHandler.UpdateConfig)
				}
			})

			if cfg.AdminHandler != nil {
				r.Route("/admin", func(r chi.Router) {
					r.Get("/stats", cfg.AdminHandler.GetStats)
					r.Post("/autosync/run", cfg.AdminHandler.TriggerAutoSync)
				})
			}
		})
	})

	return r
}

package handler

import (
	"net/http"
	"time"

	"gemhub-inventory-api/pkg/response"
)

// StartTime tracks when the server started for uptime calculation
var StartTime = time.Now()

// Handler contains shared HTTP handlers.
type Handler struct {
	version string
}

// New creates a new handler.
func New(version string) *Handler {
	return &Handler{version: version}
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

// Health handles GET /api/v1/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	response.OK(w, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   h.version,
	})
}

// StatusResponse represents the public status response.
type StatusResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

// Status handles GET /api/status
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	response.OK(w, StatusResponse{
		Status: "ok",
		Uptime: time.Since(StartTime).Round(time.Second).String(),
	})
}

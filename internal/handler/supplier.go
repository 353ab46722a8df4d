package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"gemhub-inventory-api/internal/middleware"
	"gemhub-inventory-api/internal/model"
	"gemhub-inventory-api/internal/repository"
	"gemhub-inventory-api/pkg/apierror"
	"gemhub-inventory-api/pkg/response"
)

// SupplierHandler exposes per-supplier sync configuration.
type SupplierHandler struct {
	suppliers repository.SupplierConfigRepository
}

// NewSupplierHandler creates a new supplier config handler.
func NewSupplierHandler(suppliers repository.SupplierConfigRepository) *SupplierHandler {
	return &SupplierHandler{suppliers: suppliers}
}

// GetConfig handles GET /api/v1/inventory/config. FTP credentials are
// redacted from the response.
func (h *SupplierHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	owner := middleware.ResolveOwner(r.Context(), r.URL.Query().Get("sellerId"))
	if owner == "" {
		response.Error(w, apierror.BadRequest("owner identification failed"))
		return
	}

	cfg, err := h.suppliers.Get(r.Context(), owner)
	if err != nil {
		response.Error(w, err)
		return
	}
	if cfg == nil {
		response.Error(w, apierror.NotFound("no sync configuration for this supplier"))
		return
	}

	if cfg.FTP != nil {
		redacted := *cfg.FTP
		redacted.Password = ""
		cfg.FTP = &redacted
	}
	response.OK(w, cfg)
}

type updateConfigRequest struct {
	AutoSync    *bool              `json:"autoSync,omitempty"`
	Disposition *model.Disposition `json:"disposition,omitempty"`
	SellerID    string             `json:"sellerId,omitempty"`
}

// UpdateConfig handles PATCH /api/v1/inventory/config. Only the auto-sync
// flag and the stale-listing disposition can be changed here; mapping and
// locators are captured by the sync endpoints themselves.
func (h *SupplierHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req updateConfigRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	if req.AutoSync == nil && req.Disposition == nil {
		response.Error(w, apierror.BadRequest("nothing to update"))
		return
	}
	if req.Disposition != nil && !req.Disposition.Valid() {
		response.Error(w, apierror.BadRequest("disposition must be archive or delete"))
		return
	}

	owner := middleware.ResolveOwner(r.Context(), req.SellerID)
	if owner == "" {
		response.Error(w, apierror.BadRequest("owner identification failed"))
		return
	}

	cfg, err := h.suppliers.Get(r.Context(), owner)
	if err != nil {
		response.Error(w, err)
		return
	}
	if cfg == nil {
		cfg = &model.SupplierConfig{Owner: owner}
	}

	if req.AutoSync != nil {
		cfg.AutoSync = *req.AutoSync
	}
	if req.Disposition != nil {
		cfg.Disposition = *req.Disposition
	}
	cfg.UpdatedAt = time.Now().UTC()

	if err := h.suppliers.Save(r.Context(), cfg); err != nil {
		response.Error(w, err)
		return
	}

	if cfg.FTP != nil {
		redacted := *cfg.FTP
		redacted.Password = ""
		cfg.FTP = &redacted
	}
	response.OK(w, cfg)
}

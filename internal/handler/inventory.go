package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"gemhub-inventory-api/internal/middleware"
	"gemhub-inventory-api/internal/model"
	"gemhub-inventory-api/internal/repository"
	"gemhub-inventory-api/pkg/apierror"
	"gemhub-inventory-api/pkg/response"
)

// InventoryHandler handles manual diamond CRUD requests.
type InventoryHandler struct {
	diamonds repository.DiamondRepository
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(diamonds repository.DiamondRepository) *InventoryHandler {
	return &InventoryHandler{diamonds: diamonds}
}

// Create handles POST /api/v1/diamonds.
func (h *InventoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var d model.Diamond
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	d.StockID = strings.TrimSpace(d.StockID)
	if d.StockID == "" {
		response.Error(w, apierror.ValidationError("validation failed",
			apierror.FieldError{Field: "stockId", Message: "stockId is required"}))
		return
	}
	if d.Carat <= 0 {
		response.Error(w, apierror.ValidationError("validation failed",
			apierror.FieldError{Field: "carat", Message: "carat must be positive"}))
		return
	}

	d.Owner = middleware.ResolveOwner(r.Context(), d.Owner)
	if d.Owner == "" {
		response.Error(w, apierror.BadRequest("owner identification failed"))
		return
	}
	if d.Availability == "" {
		d.Availability = model.AvailabilityAvailable
	} else {
		d.Availability = strings.ToUpper(d.Availability)
	}

	if err := h.diamonds.Create(r.Context(), &d); err != nil {
		if errors.Is(err, repository.ErrDuplicateStockID) {
			response.Error(w, apierror.Conflict(fmt.Sprintf("stock id %q already exists", d.StockID)))
			return
		}
		response.Error(w, err)
		return
	}
	response.Created(w, d)
}

// List handles GET /api/v1/diamonds.
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 || limit > 200 {
		limit = 50
	}

	owner := middleware.ResolveOwner(r.Context(), q.Get("sellerId"))
	if owner == "" {
		response.Error(w, apierror.BadRequest("owner identification failed"))
		return
	}

	filter := repository.ListFilter{
		Owner:  owner,
		Search: strings.TrimSpace(q.Get("search")),
		Page:   page,
		Limit:  limit,
	}

	diamonds, total, err := h.diamonds.List(r.Context(), filter)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSONWithMeta(w, http.StatusOK, diamonds, page, limit, total)
}

// Get handles GET /api/v1/diamonds/{id}.
func (h *InventoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.findOwned(r, chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, d)
}

// GetByStockID handles GET /api/v1/diamonds/stock/{stockId}.
func (h *InventoryHandler) GetByStockID(w http.ResponseWriter, r *http.Request) {
	owner := middleware.ResolveOwner(r.Context(), r.URL.Query().Get("sellerId"))
	if owner == "" {
		response.Error(w, apierror.BadRequest("owner identification failed"))
		return
	}

	d, err := h.diamonds.FindByStockID(r.Context(), owner, chi.URLParam(r, "stockId"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Error(w, apierror.NotFound("diamond not found"))
			return
		}
		response.Error(w, err)
		return
	}
	response.OK(w, d)
}

// Update handles PATCH /api/v1/diamonds/{id}. The body is a partial document
// of canonical fields; unknown keys are rejected.
func (h *InventoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	fields, err := recordFromBody(body)
	if err != nil {
		response.Error(w, err)
		return
	}
	if len(fields) == 0 {
		response.Error(w, apierror.BadRequest("no fields to update"))
		return
	}

	if _, err := h.findOwned(r, id); err != nil {
		response.Error(w, err)
		return
	}

	d, err := h.diamonds.Update(r.Context(), id, fields)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Error(w, apierror.NotFound("diamond not found"))
			return
		}
		response.Error(w, err)
		return
	}
	response.OK(w, d)
}

// UpdateAvailability handles PATCH /api/v1/diamonds/{id}/availability.
func (h *InventoryHandler) UpdateAvailability(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body struct {
		Availability string `json:"availability"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	status := strings.ToUpper(strings.TrimSpace(body.Availability))
	if status == "" {
		response.Error(w, apierror.BadRequest("availability is required"))
		return
	}

	if _, err := h.findOwned(r, id); err != nil {
		response.Error(w, err)
		return
	}

	if err := h.diamonds.UpdateAvailability(r.Context(), id, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Error(w, apierror.NotFound("diamond not found"))
			return
		}
		response.Error(w, err)
		return
	}
	response.OK(w, map[string]interface{}{
		"id":           id,
		"availability": status,
		"updatedAt":    time.Now().UTC(),
	})
}

// Delete handles DELETE /api/v1/diamonds/{id}.
func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := h.findOwned(r, id); err != nil {
		response.Error(w, err)
		return
	}

	if err := h.diamonds.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Error(w, apierror.NotFound("diamond not found"))
			return
		}
		response.Error(w, err)
		return
	}
	response.NoContent(w)
}

// findOwned loads the diamond and verifies the caller may act on it. Admins
// may act on any listing; suppliers only on their own.
func (h *InventoryHandler) findOwned(r *http.Request, id string) (*model.Diamond, error) {
	d, err := h.diamonds.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apierror.NotFound("diamond not found")
		}
		return nil, err
	}

	token := middleware.GetTokenData(r.Context())
	if token != nil && token.Role != model.RoleAdmin && token.Owner != d.Owner {
		return nil, apierror.Forbidden("listing belongs to another supplier")
	}
	return d, nil
}

// recordFromBody converts a partial JSON document into a typed Record. The
// stockId and owner keys cannot be changed after creation.
func recordFromBody(body map[string]interface{}) (model.Record, error) {
	fields := make(model.Record, len(body))
	for name, raw := range body {
		field, ok := model.ParseField(name)
		if !ok {
			return nil, apierror.BadRequest(fmt.Sprintf("unknown field %q", name))
		}
		if field == model.FieldStockID {
			return nil, apierror.BadRequest("stockId cannot be changed")
		}
		if field.IsNumeric() {
			num, ok := raw.(float64)
			if !ok {
				return nil, apierror.BadRequest(fmt.Sprintf("field %q must be a number", name))
			}
			fields[field] = num
			continue
		}
		str, ok := raw.(string)
		if !ok {
			return nil, apierror.BadRequest(fmt.Sprintf("field %q must be a string", name))
		}
		if field == model.FieldAvailability {
			str = strings.ToUpper(strings.TrimSpace(str))
		}
		fields[field] = str
	}
	return fields, nil
}

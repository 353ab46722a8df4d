package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"gemhub-inventory-api/internal/middleware"
	"gemhub-inventory-api/internal/model"
	"gemhub-inventory-api/internal/service"
	"gemhub-inventory-api/pkg/apierror"
	"gemhub-inventory-api/pkg/response"
)

// maxUploadSize bounds uploaded feed files (32 MiB).
const maxUploadSize = 32 << 20

// SyncHandler handles inventory sync and header preview requests.
type SyncHandler struct {
	engine *service.SyncEngine
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(engine *service.SyncEngine) *SyncHandler {
	return &SyncHandler{engine: engine}
}

// feedSyncRequest is the body for POST /inventory/sync/feed.
type feedSyncRequest struct {
	APIURL         string        `json:"apiUrl"`
	Mapping        model.Mapping `json:"mapping"`
	EnableAutoSync bool          `json:"enableAutoSync"`
	SellerID       string        `json:"sellerId"`
}

// ftpSyncRequest is the body for POST /inventory/sync/ftp.
type ftpSyncRequest struct {
	Host           string        `json:"host"`
	User           string        `json:"user"`
	Password       string        `json:"password"`
	Path           string        `json:"path"`
	Mapping        model.Mapping `json:"mapping"`
	EnableAutoSync bool          `json:"enableAutoSync"`
	SellerID       string        `json:"sellerId"`
}

// SyncFromUpload handles POST /api/v1/inventory/sync/upload. The request is
// multipart form data carrying the file, a JSON mapping string, and an
// optional sellerId.
func (h *SyncHandler) SyncFromUpload(w http.ResponseWriter, r *http.Request) {
	data, mapping, sellerID, err := readUploadForm(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	owner := middleware.ResolveOwner(r.Context(), sellerID)
	if owner == "" {
		response.Error(w, apierror.BadRequest("owner identification failed"))
		return
	}

	result := h.engine.SyncFromUpload(r.Context(), owner, data, mapping)
	writeSyncResult(w, result)
}

// SyncFromFeed handles POST /api/v1/inventory/sync/feed.
func (h *SyncHandler) SyncFromFeed(w http.ResponseWriter, r *http.Request) {
	var req feedSyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	if req.APIURL == "" || len(req.Mapping) == 0 {
		response.Error(w, apierror.BadRequest("apiUrl and mapping are required"))
		return
	}

	owner := middleware.ResolveOwner(r.Context(), req.SellerID)
	if owner == "" {
		response.Error(w, apierror.BadRequest("owner identification failed"))
		return
	}

	result := h.engine.SyncFromRemoteFeed(r.Context(), owner, req.APIURL, req.Mapping, req.EnableAutoSync)
	writeSyncResult(w, result)
}

// SyncFromFTP handles POST /api/v1/inventory/sync/ftp.
func (h *SyncHandler) SyncFromFTP(w http.ResponseWriter, r *http.Request) {
	var req ftpSyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	if req.Host == "" || req.Path == "" || len(req.Mapping) == 0 {
		response.Error(w, apierror.BadRequest("host, path and mapping are required"))
		return
	}

	owner := middleware.ResolveOwner(r.Context(), req.SellerID)
	if owner == "" {
		response.Error(w, apierror.BadRequest("owner identification failed"))
		return
	}

	info := model.FTPInfo{Host: req.Host, User: req.User, Password: req.Password, Path: req.Path}
	result := h.engine.SyncFromFileTransfer(r.Context(), owner, info, req.Mapping, req.EnableAutoSync)
	writeSyncResult(w, result)
}

// PreviewUploadHeaders handles POST /api/v1/inventory/preview/upload.
func (h *SyncHandler) PreviewUploadHeaders(w http.ResponseWriter, r *http.Request) {
	data, _, _, err := readUploadForm(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	headers, err := h.engine.PreviewUploadHeaders(data)
	if err != nil {
		response.Error(w, apierror.BadRequest(err.Error()))
		return
	}
	response.OK(w, map[string]interface{}{"headers": headers})
}

// PreviewFeedHeaders handles POST /api/v1/inventory/preview/feed.
func (h *SyncHandler) PreviewFeedHeaders(w http.ResponseWriter, r *http.Request) {
	var req feedSyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	if req.APIURL == "" {
		response.Error(w, apierror.BadRequest("apiUrl is required"))
		return
	}

	headers, err := h.engine.PreviewRemoteFeedHeaders(r.Context(), req.APIURL)
	if err != nil {
		response.Error(w, apierror.BadRequest(err.Error()))
		return
	}
	response.OK(w, map[string]interface{}{"headers": headers})
}

// PreviewFTPHeaders handles POST /api/v1/inventory/preview/ftp.
func (h *SyncHandler) PreviewFTPHeaders(w http.ResponseWriter, r *http.Request) {
	var req ftpSyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	if req.Host == "" || req.Path == "" {
		response.Error(w, apierror.BadRequest("host and path are required"))
		return
	}

	info := model.FTPInfo{Host: req.Host, User: req.User, Password: req.Password, Path: req.Path}
	headers, err := h.engine.PreviewFileTransferHeaders(r.Context(), info)
	if err != nil {
		response.Error(w, apierror.BadRequest(err.Error()))
		return
	}
	response.OK(w, map[string]interface{}{"headers": headers})
}

// readUploadForm extracts the file bytes, mapping, and sellerId from a
// multipart upload request. The mapping part is optional for previews.
func readUploadForm(r *http.Request) ([]byte, model.Mapping, string, error) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return nil, nil, "", apierror.BadRequest("invalid multipart form")
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		return nil, nil, "", apierror.BadRequest("no file uploaded")
	}
	defer file.Close()

	data, err := readLimited(file, maxUploadSize)
	if err != nil {
		return nil, nil, "", apierror.BadRequest(err.Error())
	}

	var mapping model.Mapping
	if raw := r.FormValue("mapping"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &mapping); err != nil {
			return nil, nil, "", apierror.BadRequest("mapping is not valid JSON")
		}
	}
	return data, mapping, r.FormValue("sellerId"), nil
}

// readLimited reads at most limit bytes and rejects a source holding more.
// A silently truncated feed would reconcile as if the cut-off listings had
// vanished, so oversized uploads must fail outright.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file")
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("uploaded file exceeds the %d byte limit", limit)
	}
	return data, nil
}

// writeSyncResult maps a SyncResult onto the HTTP envelope. Failed syncs
// return 400 with the result body, mirroring the synchronous contract.
func writeSyncResult(w http.ResponseWriter, result model.SyncResult) {
	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadRequest
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(result)
}

package handler

import (
	"encoding/json"
	"net/http"

	"gemhub-inventory-api/internal/model"
	"gemhub-inventory-api/internal/repository"
	"gemhub-inventory-api/internal/service"
	"gemhub-inventory-api/pkg/apierror"
	"gemhub-inventory-api/pkg/response"
)

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	tokenService *service.TokenService
	accounts     repository.AccountRepository
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(tokenService *service.TokenService, accounts repository.AccountRepository) *AuthHandler {
	return &AuthHandler{
		tokenService: tokenService,
		accounts:     accounts,
	}
}

// TokenRequest represents the request body for token generation.
type TokenRequest struct {
	APIKey string `json:"apiKey"`
}

// TokenResponse represents the response for token generation.
type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// GenerateToken handles POST /auth/token
func (h *AuthHandler) GenerateToken(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	if req.APIKey == "" {
		response.Error(w, apierror.BadRequest("apiKey is required"))
		return
	}

	account, err := h.accounts.FindByAPIKey(r.Context(), req.APIKey)
	if err != nil {
		response.Error(w, apierror.Unauthorized("invalid api key"))
		return
	}

	tokenData := model.TokenData{
		AccountID: account.ID,
		Owner:     account.Owner,
		Name:      account.Name,
		Role:      account.Role,
	}

	token, err := h.tokenService.GenerateToken(r.Context(), tokenData)
	if err != nil {
		response.Error(w, apierror.InternalError("failed to generate token"))
		return
	}

	response.OK(w, TokenResponse{
		Token:     token,
		ExpiresIn: int(service.TokenTTL.Seconds()),
	})
}

// RevokeToken handles POST /auth/revoke
func (h *AuthHandler) RevokeToken(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Token")
	if token == "" {
		response.Error(w, apierror.BadRequest("X-Token header required"))
		return
	}

	if err := h.tokenService.RevokeToken(r.Context(), token); err != nil {
		response.Error(w, apierror.InternalError("failed to revoke token"))
		return
	}

	response.OK(w, map[string]string{"status": "revoked"})
}

// RefreshToken handles POST /auth/refresh
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Token")
	if token == "" {
		response.Error(w, apierror.BadRequest("X-Token header required"))
		return
	}

	if err := h.tokenService.RefreshToken(r.Context(), token); err != nil {
		response.Error(w, apierror.Unauthorized(err.Error()))
		return
	}

	response.OK(w, map[string]interface{}{
		"status":     "refreshed",
		"expires_in": int(service.TokenTTL.Seconds()),
	})
}

package middleware

import (
	"context"
	"net/http"

	"gemhub-inventory-api/internal/model"
	"gemhub-inventory-api/internal/service"
	"gemhub-inventory-api/pkg/apierror"
	"gemhub-inventory-api/pkg/response"
)

// TokenDataKey is the key for storing token data in request context.
const TokenDataKey contextKey = "token_data"

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	TokenService *service.TokenService
}

// NewAuthMiddleware creates an authentication middleware with injected
// dependencies. Requests must carry a valid X-Token header.
func NewAuthMiddleware(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.TokenService == nil {
				response.Error(w, apierror.ServiceUnavailable("authentication is not configured"))
				return
			}

			token := r.Header.Get("X-Token")
			if token == "" {
				response.Error(w, apierror.Unauthorized("X-Token header is required"))
				return
			}

			data, err := cfg.TokenService.ValidateToken(r.Context(), token)
			if err != nil {
				response.Error(w, apierror.Unauthorized(err.Error()))
				return
			}

			ctx := context.WithValue(r.Context(), TokenDataKey, data)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetTokenData retrieves the authenticated token data from context.
func GetTokenData(ctx context.Context) *model.TokenData {
	if data, ok := ctx.Value(TokenDataKey).(*model.TokenData); ok {
		return data
	}
	return nil
}

// ResolveOwner returns the owner an authenticated request acts on. Admins
// may act on behalf of a supplier via an explicit seller id; everyone else
// acts on their own inventory.
func ResolveOwner(ctx context.Context, sellerID string) string {
	data := GetTokenData(ctx)
	if data == nil {
		return ""
	}
	if data.Role == model.RoleAdmin && sellerID != "" {
		return sellerID
	}
	return data.Owner
}

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	apiContext "orgconsole/internal/api/context"
	"orgconsole/internal/engine/tenancy"
	apperrors "orgconsole/internal/pkg/errors"
	"orgconsole/internal/platform/auth"
)

// RevocationSource returns the last sign-out time of a principal in unix ms.
type RevocationSource interface {
	SessionsRevokedAt(ctx context.Context, principalID string) (int64, error)
}

type AuthMiddleware struct {
	tokenSvc    *auth.TokenService
	revocations RevocationSource
}

func NewAuthMiddleware(tokenSvc *auth.TokenService, revocations RevocationSource) *AuthMiddleware {
	return &AuthMiddleware{tokenSvc: tokenSvc, revocations: revocations}
}

func (m *AuthMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			apperrors.WriteError(w, http.StatusUnauthorized, apperrors.ErrCodeUnauthorized, "Missing authorization header", nil)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			apperrors.WriteError(w, http.StatusUnauthorized, apperrors.ErrCodeUnauthorized, "Invalid authorization header format", nil)
			return
		}

		claims, err := m.tokenSvc.ValidateAccessToken(parts[1])
		if err != nil {
			apperrors.WriteError(w, http.StatusUnauthorized, apperrors.ErrCodeUnauthorized, "Invalid or expired token", nil)
			return
		}

		revokedAt, err := m.revocations.SessionsRevokedAt(r.Context(), claims.PrincipalID)
		switch {
		case errors.Is(err, tenancy.ErrPrincipalNotFound):
			apperrors.WriteError(w, http.StatusUnauthorized, apperrors.ErrCodeUnauthorized, "Unknown principal", nil)
			return
		case err != nil:
			apperrors.WriteEngineError(w, tenancy.Wrap("check session", err), nil)
			return
		case claims.RevokedBy(revokedAt):
			apperrors.WriteError(w, http.StatusUnauthorized, apperrors.ErrCodeUnauthorized, "Session has been signed out", nil)
			return
		}

		ctx := context.WithValue(r.Context(), apiContext.Claims, claims)
		next(w, r.WithContext(ctx))
	}
}

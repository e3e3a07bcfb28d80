package middleware

import (
	"context"
	"net/http"

	apiContext "orgconsole/internal/api/context"
	"orgconsole/internal/engine/access"
	apperrors "orgconsole/internal/pkg/errors"
	"orgconsole/internal/platform/auth"
)

// AccessMiddleware resolves the caller's access state and stores it in the
// request context. It must run after AuthMiddleware.
type AccessMiddleware struct {
	resolver *access.Resolver
}

func NewAccessMiddleware(resolver *access.Resolver) *AccessMiddleware {
	return &AccessMiddleware{resolver: resolver}
}

func (m *AccessMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := r.Context().Value(apiContext.Claims).(*auth.Claims)

		state, err := m.resolver.Resolve(r.Context(), claims.PrincipalID)
		if err != nil {
			apperrors.WriteEngineError(w, err, nil)
			return
		}

		ctx := context.WithValue(r.Context(), apiContext.AccessState, state)
		next(w, r.WithContext(ctx))
	}
}

// RequireSuperAdmin lets only principals holding a Super-admin membership through.
func (m *AccessMiddleware) RequireSuperAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := r.Context().Value(apiContext.Claims).(*auth.Claims)

		ok, err := m.resolver.IsSuperAdmin(r.Context(), claims.PrincipalID)
		if err != nil {
			apperrors.WriteEngineError(w, err, nil)
			return
		}
		if !ok {
			apperrors.WriteError(w, http.StatusForbidden, apperrors.ErrCodeForbidden, "Insufficient permissions", nil)
			return
		}

		next(w, r)
	}
}

package handlers

import (
	"context"
	"net/http"

	"orgconsole/internal/engine/access"
	"orgconsole/internal/pkg/errors"
	"orgconsole/internal/platform/auth"
)

type revocationSource interface {
	SessionsRevokedAt(ctx context.Context, principalID string) (int64, error)
}

type AuthHandler struct {
	resolver    *access.Resolver
	tokenSvc    *auth.TokenService
	revocations revocationSource
}

func NewAuthHandler(resolver *access.Resolver, tokenSvc *auth.TokenService, revocations revocationSource) *AuthHandler {
	return &AuthHandler{
		resolver:    resolver,
		tokenSvc:    tokenSvc,
		revocations: revocations,
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	// OrganizationID optionally picks the tenant to sign in to.
	OrganizationID string `json:"organization_id"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decode(w, r, &req) {
		return
	}

	state, err := h.resolver.SignIn(r.Context(), req.Email, req.Password, req.OrganizationID)
	if err != nil {
		errors.WriteEngineError(w, err, nil)
		return
	}
	writeSession(w, http.StatusOK, h.tokenSvc, state, true)
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh issues a new access token for the principal's current active tenant.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !decode(w, r, &req) {
		return
	}

	claims, err := h.tokenSvc.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid refresh token", nil)
		return
	}

	revokedAt, err := h.revocations.SessionsRevokedAt(r.Context(), claims.PrincipalID)
	if err != nil || claims.RevokedBy(revokedAt) {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid refresh token", nil)
		return
	}

	state, err := h.resolver.Resolve(r.Context(), claims.PrincipalID)
	if err != nil {
		errors.WriteEngineError(w, err, nil)
		return
	}
	writeSession(w, http.StatusOK, h.tokenSvc, state, false)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.resolver.SignOut(r.Context(), claimsFrom(r).PrincipalID); err != nil {
		errors.WriteEngineError(w, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package handlers

import (
	"net/http"

	"orgconsole/internal/engine/access"
	"orgconsole/internal/pkg/errors"
	"orgconsole/internal/platform/auth"
)

// MeHandler serves the caller's own access state. Routes run behind the access middleware.
type MeHandler struct {
	resolver *access.Resolver
	tokenSvc *auth.TokenService
}

func NewMeHandler(resolver *access.Resolver, tokenSvc *auth.TokenService) *MeHandler {
	return &MeHandler{resolver: resolver, tokenSvc: tokenSvc}
}

func (h *MeHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, stateFrom(r))
}

type SwitchOrganizationRequest struct {
	OrganizationID string `json:"organization_id"`
}

// SwitchOrganization re-targets the session and returns a token for the new tenant.
func (h *MeHandler) SwitchOrganization(w http.ResponseWriter, r *http.Request) {
	var req SwitchOrganizationRequest
	if !decode(w, r, &req) {
		return
	}

	principalID := stateFrom(r).PrincipalID
	if err := h.resolver.SwitchActiveTenant(r.Context(), principalID, req.OrganizationID); err != nil {
		errors.WriteEngineError(w, err, nil)
		return
	}

	state, err := h.resolver.Resolve(r.Context(), principalID)
	if err != nil {
		errors.WriteEngineError(w, err, nil)
		return
	}
	writeSession(w, http.StatusOK, h.tokenSvc, state, false)
}

type UpdateProfileRequest struct {
	FullName string `json:"full_name"`
}

func (h *MeHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if !decode(w, r, &req) {
		return
	}

	state, err := h.resolver.UpdateDisplayName(r.Context(), stateFrom(r).PrincipalID, req.FullName)
	if err != nil {
		errors.WriteEngineError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

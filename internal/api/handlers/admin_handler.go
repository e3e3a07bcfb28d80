package handlers

import (
	"net/http"

	"orgconsole/internal/engine/membership"
	"orgconsole/internal/pkg/errors"
	"orgconsole/internal/platform/models"
)

// AdminHandler exposes tenant management to super-admins.
type AdminHandler struct {
	members *membership.Service
}

func NewAdminHandler(members *membership.Service) *AdminHandler {
	return &AdminHandler{members: members}
}

func (h *AdminHandler) ListOrganizations(w http.ResponseWriter, r *http.Request) {
	entries, err := h.members.ListDirectory(r.Context())
	if err != nil {
		errors.WriteEngineError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *AdminHandler) UpdateOrganization(w http.ResponseWriter, r *http.Request) {
	var req membership.OrganizationUpdate
	if !decode(w, r, &req) {
		return
	}

	org, err := h.members.UpdateOrganization(r.Context(), claimsFrom(r).PrincipalID, param(r, "org_id"), req)
	if err != nil {
		errors.WriteEngineError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, org)
}

type BlockRequest struct {
	Blocked *bool `json:"blocked"`
}

func decodeBlock(w http.ResponseWriter, r *http.Request) (bool, bool) {
	var req BlockRequest
	if !decode(w, r, &req) {
		return false, false
	}
	if req.Blocked == nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "blocked is required", nil)
		return false, false
	}
	return *req.Blocked, true
}

func (h *AdminHandler) BlockOrganization(w http.ResponseWriter, r *http.Request) {
	blocked, ok := decodeBlock(w, r)
	if !ok {
		return
	}
	if err := h.members.SetOrganizationBlock(r.Context(), claimsFrom(r).PrincipalID, param(r, "org_id"), blocked); err != nil {
		errors.WriteEngineError(w, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type AddMemberRequest struct {
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

func (h *AdminHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	var req AddMemberRequest
	if !decode(w, r, &req) {
		return
	}

	m, err := h.members.AddMember(r.Context(), claimsFrom(r).PrincipalID, param(r, "org_id"), req.Email, req.Role)
	if err != nil {
		errors.WriteEngineError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *AdminHandler) BlockMembership(w http.ResponseWriter, r *http.Request) {
	blocked, ok := decodeBlock(w, r)
	if !ok {
		return
	}
	if err := h.members.SetMembershipBlock(r.Context(), claimsFrom(r).PrincipalID, param(r, "membership_id"), blocked); err != nil {
		errors.WriteEngineError(w, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) RemoveMembership(w http.ResponseWriter, r *http.Request) {
	removal, err := h.members.RemoveMembership(r.Context(), claimsFrom(r).PrincipalID, param(r, "membership_id"))
	if err != nil {
		errors.WriteEngineError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, removal)
}

func (h *AdminHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.members.ListPlans(r.Context())
	if err != nil {
		errors.WriteEngineError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, plans)
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.members.ListUsers(r.Context())
	if err != nil {
		errors.WriteEngineError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

type RenameUserRequest struct {
	FullName string `json:"full_name"`
}

func (h *AdminHandler) RenameUser(w http.ResponseWriter, r *http.Request) {
	var req RenameUserRequest
	if !decode(w, r, &req) {
		return
	}

	profile, err := h.members.RenameUser(r.Context(), claimsFrom(r).PrincipalID, param(r, "principal_id"), req.FullName)
	if err != nil {
		errors.WriteEngineError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

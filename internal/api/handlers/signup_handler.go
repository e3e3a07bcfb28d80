package handlers

import (
	"net/http"

	"orgconsole/internal/engine/access"
	"orgconsole/internal/engine/membership"
	"orgconsole/internal/engine/provisioning"
	"orgconsole/internal/pkg/errors"
	"orgconsole/internal/platform/auth"
)

type SignupHandler struct {
	provisioner *provisioning.Provisioner
	resolver    *access.Resolver
	members     *membership.Service
	tokenSvc    *auth.TokenService
}

func NewSignupHandler(provisioner *provisioning.Provisioner, resolver *access.Resolver, members *membership.Service, tokenSvc *auth.TokenService) *SignupHandler {
	return &SignupHandler{
		provisioner: provisioner,
		resolver:    resolver,
		members:     members,
		tokenSvc:    tokenSvc,
	}
}

// CreateOrganization registers (or signs in) the caller and makes it the Admin of a new tenant.
func (h *SignupHandler) CreateOrganization(w http.ResponseWriter, r *http.Request) {
	var req provisioning.CreateOrganizationRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.provisioner.CreateOrganization(r.Context(), req)
	if err != nil {
		errors.WriteEngineError(w, err, nil)
		return
	}
	h.respond(w, r, res.PrincipalID)
}

// JoinOrganization registers (or signs in) the caller and makes it a Member of an existing tenant.
func (h *SignupHandler) JoinOrganization(w http.ResponseWriter, r *http.Request) {
	var req provisioning.JoinOrganizationRequest
	if !decode(w, r, &req) {
		return
	}

	res, err := h.provisioner.JoinOrganization(r.Context(), req)
	if err != nil {
		errors.WriteEngineError(w, err, nil)
		return
	}
	h.respond(w, r, res.PrincipalID)
}

func (h *SignupHandler) respond(w http.ResponseWriter, r *http.Request, principalID string) {
	// The saga committed; a failed read here doesn't undo it.
	state, err := h.resolver.Resolve(r.Context(), principalID)
	if err != nil {
		errors.WriteEngineError(w, err, nil)
		return
	}
	writeSession(w, http.StatusCreated, h.tokenSvc, state, true)
}

func (h *SignupHandler) Joinable(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.members.ListJoinable(r.Context())
	if err != nil {
		errors.WriteEngineError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, orgs)
}

package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"

	apiContext "orgconsole/internal/api/context"
	"orgconsole/internal/api/handlers"
	"orgconsole/internal/api/middleware"
)

type Dependencies struct {
	SignupHandler    *handlers.SignupHandler
	AuthHandler      *handlers.AuthHandler
	MeHandler        *handlers.MeHandler
	AdminHandler     *handlers.AdminHandler
	AuditHandler     *handlers.AuditHandler
	HealthHandler    *handlers.HealthHandler
	MetricsHandler   *handlers.MetricsHandler
	AuthMiddleware   *middleware.AuthMiddleware
	AccessMiddleware *middleware.AccessMiddleware
	RateLimiter      *middleware.RateLimiter
}

type middlewareFunc = func(http.HandlerFunc) http.HandlerFunc

func NewRouter(deps *Dependencies) *httprouter.Router {
	router := httprouter.New()

	handle := func(method, path string, handler http.HandlerFunc, middlewares ...middlewareFunc) {
		middlewares = append([]middlewareFunc{middleware.Instrument(path), middleware.ClientInfo}, middlewares...)
		router.Handle(method, path, chain(handler, middlewares...))
	}

	authMid := deps.AuthMiddleware.Handle
	accessMid := deps.AccessMiddleware.Handle
	superAdmin := deps.AccessMiddleware.RequireSuperAdmin
	limit := deps.RateLimiter.Limit

	router.GET("/health", wrap(deps.HealthHandler.Check))
	router.GET("/metrics", wrap(deps.MetricsHandler.Export))

	// Provisioning
	handle(http.MethodPost, "/api/v1/signup/organization", deps.SignupHandler.CreateOrganization, limit("signup"))
	handle(http.MethodPost, "/api/v1/signup/member", deps.SignupHandler.JoinOrganization, limit("signup"))
	handle(http.MethodGet, "/api/v1/organizations/joinable", deps.SignupHandler.Joinable)

	// Sessions
	handle(http.MethodPost, "/api/v1/auth/login", deps.AuthHandler.Login, limit("login"))
	handle(http.MethodPost, "/api/v1/auth/refresh", deps.AuthHandler.Refresh, limit("login"))
	handle(http.MethodPost, "/api/v1/auth/logout", deps.AuthHandler.Logout, authMid)

	// Caller's own state
	handle(http.MethodGet, "/api/v1/me", deps.MeHandler.Get, authMid, accessMid)
	handle(http.MethodPost, "/api/v1/me/active-organization", deps.MeHandler.SwitchOrganization, authMid, accessMid)
	handle(http.MethodPatch, "/api/v1/me/profile", deps.MeHandler.UpdateProfile, authMid, accessMid)

	// Tenant management
	handle(http.MethodGet, "/api/v1/admin/organizations", deps.AdminHandler.ListOrganizations, authMid, superAdmin)
	handle(http.MethodPatch, "/api/v1/admin/organizations/:org_id", deps.AdminHandler.UpdateOrganization, authMid, superAdmin)
	handle(http.MethodPost, "/api/v1/admin/organizations/:org_id/block", deps.AdminHandler.BlockOrganization, authMid, superAdmin)
	handle(http.MethodPost, "/api/v1/admin/organizations/:org_id/members", deps.AdminHandler.AddMember, authMid, superAdmin)
	handle(http.MethodPost, "/api/v1/admin/memberships/:membership_id/block", deps.AdminHandler.BlockMembership, authMid, superAdmin)
	handle(http.MethodDelete, "/api/v1/admin/memberships/:membership_id", deps.AdminHandler.RemoveMembership, authMid, superAdmin)
	handle(http.MethodGet, "/api/v1/admin/users", deps.AdminHandler.ListUsers, authMid, superAdmin)
	handle(http.MethodPatch, "/api/v1/admin/users/:principal_id", deps.AdminHandler.RenameUser, authMid, superAdmin)
	handle(http.MethodGet, "/api/v1/admin/plans", deps.AdminHandler.ListPlans, authMid, superAdmin)
	handle(http.MethodGet, "/api/v1/admin/audit", deps.AuditHandler.List, authMid, superAdmin)

	return router
}

// Helper function to chain middlewares
func chain(handler http.HandlerFunc, middlewares ...middlewareFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

// Convert http.HandlerFunc to httprouter.Handle
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}

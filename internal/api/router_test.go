package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"orgconsole/internal/api/handlers"
	"orgconsole/internal/api/middleware"
	"orgconsole/internal/engine/access"
	"orgconsole/internal/engine/membership"
	"orgconsole/internal/engine/provisioning"
	"orgconsole/internal/platform/audit"
	"orgconsole/internal/platform/auth"
	"orgconsole/internal/platform/config"
	"orgconsole/internal/platform/database"
	"orgconsole/internal/platform/identity"
	"orgconsole/internal/platform/models"
	"orgconsole/internal/platform/repositories"
)

type testServer struct {
	*httptest.Server
	t  *testing.T
	db *sql.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	db, err := database.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(ctx, db))
	require.NoError(t, database.Seed(ctx, db, config.SeedConfig{
		DefaultOrganization: config.DefaultOrganizationConfig{Name: "No Organization", RegistrationNumber: "DEFAULT", TaxNumber: "DEFAULT"},
		Plans:               []config.PlanConfig{{ID: "plan_team", Name: "Team", MaxUsers: 25, PriceCents: 4900, Currency: "USD"}},
	}))

	log := zerolog.Nop()
	store := repositories.NewStore(db)
	idp := identity.NewLocal(db, identity.WithCost(bcrypt.MinCost))
	auditLog := audit.NewLogger(db, log)
	resolver := access.NewResolver(store, idp, log)
	members := membership.NewService(store, idp, auditLog, log)
	provisioner := provisioning.NewProvisioner(store, idp, auditLog, log)
	tokens := auth.NewTokenService(config.JWTConfig{Secret: "test-secret", AccessTokenTTL: time.Hour, RefreshTokenTTL: 24 * time.Hour})

	router := NewRouter(&Dependencies{
		SignupHandler:    handlers.NewSignupHandler(provisioner, resolver, members, tokens),
		AuthHandler:      handlers.NewAuthHandler(resolver, tokens, idp),
		MeHandler:        handlers.NewMeHandler(resolver, tokens),
		AdminHandler:     handlers.NewAdminHandler(members),
		AuditHandler:     handlers.NewAuditHandler(auditLog),
		HealthHandler:    handlers.NewHealthHandler(db),
		MetricsHandler:   handlers.NewMetricsHandler(),
		AuthMiddleware:   middleware.NewAuthMiddleware(tokens, idp),
		AccessMiddleware: middleware.NewAccessMiddleware(resolver),
		RateLimiter:      middleware.NewRateLimiter(ctx),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, t: t, db: db}
}

func (s *testServer) do(method, path, token string, body, out interface{}) int {
	s.t.Helper()
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		payload = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.URL+path, payload)
	require.NoError(s.t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(s.t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 && resp.StatusCode != http.StatusNoContent {
		require.NoError(s.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

type stateBody struct {
	PrincipalID        string               `json:"principal_id"`
	DisplayName        string               `json:"display_name"`
	ActiveOrganization *models.Organization `json:"active_organization"`
	Role               models.Role          `json:"role"`
	Blocked            bool                 `json:"blocked"`
	IsSuperAdmin       bool                 `json:"is_super_admin"`
	Tenants            []json.RawMessage    `json:"tenants"`
}

type sessionBody struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	State        stateBody `json:"state"`
}

func createOrganization(s *testServer, email, name, reg string) sessionBody {
	s.t.Helper()
	var out sessionBody
	status := s.do(http.MethodPost, "/api/v1/signup/organization", "", map[string]string{
		"email":                email,
		"password":             "correct-horse",
		"organization_name":    name,
		"registration_number":  reg,
		"tax_number":           "TAX-" + reg,
		"subscription_plan_id": "plan_team",
	}, &out)
	require.Equal(s.t, http.StatusCreated, status)
	return out
}

func TestSignupAndSession(t *testing.T) {
	s := newTestServer(t)

	created := createOrganization(s, "jane.doe@example.com", "Acme", "REG-1")
	require.NotEmpty(t, created.AccessToken)
	require.NotEmpty(t, created.RefreshToken)
	require.Equal(t, "Acme", created.State.ActiveOrganization.Name)
	require.Equal(t, models.RoleAdmin, created.State.Role)
	require.Equal(t, "Jane Doe", created.State.DisplayName)

	var me stateBody
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/me", created.AccessToken, nil, &me))
	require.Equal(t, created.State.PrincipalID, me.PrincipalID)

	var renamed stateBody
	require.Equal(t, http.StatusOK, s.do(http.MethodPatch, "/api/v1/me/profile", created.AccessToken, map[string]string{"full_name": "J. Doe"}, &renamed))
	require.Equal(t, "J. Doe", renamed.DisplayName)

	var refreshed sessionBody
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refresh_token": created.RefreshToken}, &refreshed))
	require.NotEmpty(t, refreshed.AccessToken)

	// Each token only works where it was meant to.
	require.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/v1/me", created.RefreshToken, nil, nil))
	require.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refresh_token": created.AccessToken}, nil))

	require.Equal(t, http.StatusNoContent, s.do(http.MethodPost, "/api/v1/auth/logout", created.AccessToken, nil, nil))
	require.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/api/v1/me", created.AccessToken, nil, nil))
	require.Equal(t, http.StatusUnauthorized, s.do(http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refresh_token": created.RefreshToken}, nil))

	// Sessions are stamped in milliseconds; step past the sign-out stamp.
	time.Sleep(5 * time.Millisecond)

	var login sessionBody
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "jane.doe@example.com", "password": "correct-horse",
	}, &login))
	require.Equal(t, created.State.ActiveOrganization.ID, login.State.ActiveOrganization.ID)
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/me", login.AccessToken, nil, nil))
}

func TestJoinAndAdministration(t *testing.T) {
	s := newTestServer(t)

	root := createOrganization(s, "root@example.com", "Acme", "REG-1")
	_, err := s.db.Exec(`UPDATE memberships SET role_id = ? WHERE principal_id = ?`, database.RoleID(models.RoleSuperAdmin), root.State.PrincipalID)
	require.NoError(t, err)
	orgID := root.State.ActiveOrganization.ID

	var joinable []models.Organization
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/organizations/joinable", "", nil, &joinable))
	require.Len(t, joinable, 1)
	require.Equal(t, orgID, joinable[0].ID)

	var joined sessionBody
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/api/v1/signup/member", "", map[string]string{
		"email": "sam@example.com", "password": "correct-horse", "organization_id": orgID,
	}, &joined))
	require.Equal(t, models.RoleMember, joined.State.Role)
	require.Equal(t, orgID, joined.State.ActiveOrganization.ID)

	// Members can't reach tenant management.
	require.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/api/v1/admin/organizations", joined.AccessToken, nil, nil))

	var directory []struct {
		Organization models.Organization `json:"organization"`
		MemberCount  int                 `json:"member_count"`
		Members      []models.Membership `json:"members"`
	}
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/admin/organizations", root.AccessToken, nil, &directory))
	require.Len(t, directory, 2)

	var acme *models.Membership
	for _, entry := range directory {
		if entry.Organization.ID != orgID {
			continue
		}
		require.Equal(t, 2, entry.MemberCount)
		for i := range entry.Members {
			if entry.Members[i].PrincipalID == joined.State.PrincipalID {
				acme = &entry.Members[i]
			}
		}
	}
	require.NotNil(t, acme)

	block := map[string]bool{"blocked": true}
	require.Equal(t, http.StatusNoContent, s.do(http.MethodPost, "/api/v1/admin/memberships/"+acme.ID+"/block", root.AccessToken, block, nil))

	var me stateBody
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/me", joined.AccessToken, nil, &me))
	require.True(t, me.Blocked)

	// Super-admin memberships are protected.
	var rootMembershipID string
	require.NoError(t, s.db.QueryRow(`SELECT id FROM memberships WHERE principal_id = ?`, root.State.PrincipalID).Scan(&rootMembershipID))
	require.Equal(t, http.StatusBadRequest, s.do(http.MethodPost, "/api/v1/admin/memberships/"+rootMembershipID+"/block", root.AccessToken, block, nil))

	var removal struct {
		LeftDanglingActiveTenant bool `json:"left_dangling_active_tenant"`
	}
	require.Equal(t, http.StatusOK, s.do(http.MethodDelete, "/api/v1/admin/memberships/"+acme.ID, root.AccessToken, nil, &removal))
	require.True(t, removal.LeftDanglingActiveTenant)

	var users []struct {
		Principal   models.Principal `json:"principal"`
		DisplayName string           `json:"display_name"`
		Memberships []struct {
			Organization models.Organization `json:"organization"`
		} `json:"memberships"`
	}
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/admin/users", root.AccessToken, nil, &users))
	require.Len(t, users, 2)
	require.Equal(t, "Root", users[0].DisplayName)
	require.Equal(t, "Sam", users[1].DisplayName)
	require.Len(t, users[0].Memberships, 1)
	require.Empty(t, users[1].Memberships)

	var renamed models.Profile
	require.Equal(t, http.StatusOK, s.do(http.MethodPatch, "/api/v1/admin/users/"+joined.State.PrincipalID, root.AccessToken,
		map[string]string{"full_name": "Samantha Ray"}, &renamed))
	require.Equal(t, "Samantha Ray", *renamed.FullName)
	require.Equal(t, http.StatusForbidden, s.do(http.MethodPatch, "/api/v1/admin/users/"+root.State.PrincipalID, joined.AccessToken,
		map[string]string{"full_name": "Nope"}, nil))
	require.Equal(t, http.StatusNotFound, s.do(http.MethodPatch, "/api/v1/admin/users/usr_missing", root.AccessToken,
		map[string]string{"full_name": "Ghost"}, nil))

	var plans []models.SubscriptionPlan
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/admin/plans", root.AccessToken, nil, &plans))
	require.Len(t, plans, 1)

	var entries []struct {
		Action string `json:"action"`
	}
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/admin/audit?organization_id="+orgID, root.AccessToken, nil, &entries))
	require.NotEmpty(t, entries)
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t)
	createOrganization(s, "jane@example.com", "Acme", "REG-1")

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
	}{
		{"malformed body", http.MethodPost, "/api/v1/auth/login", "not an object", http.StatusBadRequest},
		{"wrong password", http.MethodPost, "/api/v1/auth/login", map[string]string{"email": "jane@example.com", "password": "wrong-horse"}, http.StatusUnauthorized},
		{"duplicate identifiers", http.MethodPost, "/api/v1/signup/organization", map[string]string{
			"email": "other@example.com", "password": "correct-horse", "organization_name": "Copy",
			"registration_number": "REG-1", "tax_number": "TAX-NEW",
		}, http.StatusConflict},
		{"join default tenant", http.MethodPost, "/api/v1/signup/member", map[string]string{
			"email": "other@example.com", "password": "correct-horse", "organization_id": database.DefaultOrganizationID,
		}, http.StatusBadRequest},
		{"join missing tenant", http.MethodPost, "/api/v1/signup/member", map[string]string{
			"email": "other@example.com", "password": "correct-horse", "organization_id": "org_missing",
		}, http.StatusNotFound},
		{"unauthenticated admin", http.MethodGet, "/api/v1/admin/organizations", nil, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.status, s.do(tt.method, tt.path, "", tt.body, nil))
		})
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	var health struct {
		Status string `json:"status"`
	}
	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health", "", nil, &health))
	require.Equal(t, "healthy", health.Status)

	s.do(http.MethodGet, "/api/v1/organizations/joinable", "", nil, nil)

	resp, err := http.Get(s.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(raw), "orgconsole_http_requests_total")
}

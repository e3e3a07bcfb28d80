package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	apiContext "orgconsole/internal/api/context"
	"orgconsole/internal/engine/access"
	"orgconsole/internal/engine/tenancy"
	"orgconsole/internal/engine/tenancy/tenancytest"
	"orgconsole/internal/platform/audit"
	"orgconsole/internal/platform/auth"
	"orgconsole/internal/platform/config"
	"orgconsole/internal/platform/models"
)

type revocations map[string]int64

func (r revocations) SessionsRevokedAt(ctx context.Context, principalID string) (int64, error) {
	if principalID == "usr_broken" {
		return 0, errors.New("database is locked")
	}
	at, ok := r[principalID]
	if !ok {
		return 0, tenancy.ErrPrincipalNotFound
	}
	return at, nil
}

func ok(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestAuthMiddleware(t *testing.T) {
	tokens := auth.NewTokenService(config.JWTConfig{Secret: "test-secret", AccessTokenTTL: time.Hour})
	issue := func(pid string) string {
		token, err := tokens.GenerateAccessToken(pid, "", "", pid+"@example.com")
		require.NoError(t, err)
		return token
	}

	refresh, err := tokens.GenerateRefreshToken("usr_active")
	require.NoError(t, err)

	future := time.Now().Add(time.Minute).UnixMilli()
	m := NewAuthMiddleware(tokens, revocations{
		"usr_active":     0,
		"usr_signed_out": future,
	})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + issue("usr_active"), http.StatusOK},
		{"signed out", "Bearer " + issue("usr_signed_out"), http.StatusUnauthorized},
		{"deleted principal", "Bearer " + issue("usr_deleted"), http.StatusUnauthorized},
		{"revocation lookup fails", "Bearer " + issue("usr_broken"), http.StatusBadGateway},
		{"refresh token", "Bearer " + refresh, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			m.Handle(func(w http.ResponseWriter, r *http.Request) {
				claims := r.Context().Value(apiContext.Claims).(*auth.Claims)
				require.Equal(t, "usr_active", claims.PrincipalID)
				ok(w, r)
			})(rr, req)
			require.Equal(t, tt.status, rr.Code)
		})
	}
}

func withClaims(req *http.Request, pid string) *http.Request {
	ctx := context.WithValue(req.Context(), apiContext.Claims, &auth.Claims{PrincipalID: pid})
	return req.WithContext(ctx)
}

func TestAccessMiddleware(t *testing.T) {
	store := tenancytest.NewStore()
	identity := tenancytest.NewIdentity()
	resolver := access.NewResolver(store, identity, zerolog.Nop())
	m := NewAccessMiddleware(resolver)

	root := identity.Register("root@example.com", "secret-123")
	user := identity.Register("user@example.com", "secret-123")
	org := store.Organization("acme", -1)
	store.Member(root, org.ID, models.RoleSuperAdmin)
	store.Member(user, org.ID, models.RoleMember)

	t.Run("resolves state", func(t *testing.T) {
		rr := httptest.NewRecorder()
		m.Handle(func(w http.ResponseWriter, r *http.Request) {
			state := r.Context().Value(apiContext.AccessState).(*access.AccessState)
			require.Equal(t, user, state.PrincipalID)
			require.Len(t, state.Tenants, 1)
			ok(w, r)
		})(rr, withClaims(httptest.NewRequest(http.MethodGet, "/", nil), user))
		require.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("unknown principal", func(t *testing.T) {
		rr := httptest.NewRecorder()
		m.Handle(ok)(rr, withClaims(httptest.NewRequest(http.MethodGet, "/", nil), "usr_missing"))
		require.Equal(t, http.StatusNotFound, rr.Code)
	})

	gate := []struct {
		name   string
		pid    string
		status int
	}{
		{"super-admin passes", root, http.StatusOK},
		{"member is forbidden", user, http.StatusForbidden},
	}
	for _, tt := range gate {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			m.RequireSuperAdmin(ok)(rr, withClaims(httptest.NewRequest(http.MethodGet, "/", nil), tt.pid))
			require.Equal(t, tt.status, rr.Code)
		})
	}
}

func TestRateLimiter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(ctx)
	rl.now = func() time.Time { return now }

	handler := rl.Limit("signup")(ok)
	call := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.RemoteAddr = addr
		rr := httptest.NewRecorder()
		handler(rr, req)
		return rr.Code
	}

	for i := 0; i < rateLimits["signup"]; i++ {
		require.Equal(t, http.StatusOK, call("10.0.0.1:5000"))
	}
	require.Equal(t, http.StatusTooManyRequests, call("10.0.0.1:5001"))
	require.Equal(t, http.StatusOK, call("10.0.0.2:5000"))

	now = now.Add(time.Minute)
	require.Equal(t, http.StatusOK, call("10.0.0.1:5000"))
}

func TestInstrument(t *testing.T) {
	rr := httptest.NewRecorder()
	Instrument("/teapot")(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})(rr, httptest.NewRequest(http.MethodGet, "/teapot", nil))
	require.Equal(t, http.StatusTeapot, rr.Code)
}

func TestClientInfo(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/organizations/org_1/block", nil)
	req.RemoteAddr = "203.0.113.7:51234"
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_0) Safari/605.1.15")

	var seen audit.Request
	ClientInfo(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = audit.RequestFrom(r.Context())
	})(httptest.NewRecorder(), req)

	require.Equal(t, "203.0.113.7", seen.IPAddress)
	require.Contains(t, seen.UserAgent, "Safari")
}

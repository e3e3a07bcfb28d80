// Package access derives what a principal may see and do from stored rows:
// the active tenant, effective block state, role and subscription expiration.
package access

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"orgconsole/internal/engine/tenancy"
	"orgconsole/internal/platform/models"
)

// TenantEntry is one tenant the principal belongs to.
type TenantEntry struct {
	Organization      *models.Organization     `json:"organization"`
	MembershipID      string                   `json:"membership_id"`
	Role              models.Role              `json:"role"`
	MembershipBlocked bool                     `json:"membership_blocked"`
	Blocked           bool                     `json:"blocked"`
	Plan              *models.SubscriptionPlan `json:"plan,omitempty"`
	Expiration        Expiration               `json:"expiration"`
}

// AccessState is the effective state of a principal, recomputed on every read.
type AccessState struct {
	PrincipalID string          `json:"principal_id"`
	Email       string          `json:"email"`
	DisplayName string          `json:"display_name"`
	Profile     *models.Profile `json:"profile"`

	ActiveOrganization  *models.Organization `json:"active_organization,omitempty"`
	Membership          *models.Membership   `json:"membership,omitempty"`
	Role                models.Role          `json:"role,omitempty"`
	MembershipBlocked   bool                 `json:"membership_blocked"`
	OrganizationBlocked bool                 `json:"organization_blocked"`
	Blocked             bool                 `json:"blocked"`
	Expiration          Expiration           `json:"expiration"`

	// DanglingActiveTenant is set when the profile points at a tenant the
	// principal no longer belongs to. It is reported, never repaired here.
	DanglingActiveTenant bool `json:"dangling_active_tenant"`

	Tenants      []TenantEntry `json:"tenants"`
	IsSuperAdmin bool          `json:"is_super_admin"`
}

type Resolver struct {
	store    tenancy.TenantStore
	identity tenancy.IdentityProvider
	logger   zerolog.Logger
	now      func() time.Time
}

func NewResolver(store tenancy.TenantStore, identity tenancy.IdentityProvider, logger zerolog.Logger) *Resolver {
	return &Resolver{
		store:    store,
		identity: identity,
		logger:   logger.With().Str("component", "access").Logger(),
		now:      time.Now,
	}
}

// WithClock replaces the clock used for expiration checks.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	return r
}

// Resolve computes the access state of principalID. The only write it may
// perform is creating a missing profile.
func (r *Resolver) Resolve(ctx context.Context, principalID string) (*AccessState, error) {
	const op = "resolve access state"

	if principalID == "" {
		return nil, tenancy.Invalid(op, "principal id is required")
	}

	principal, err := r.identity.GetPrincipal(ctx, principalID)
	if err != nil {
		return nil, tenancy.Wrap(op, err)
	}

	profile, _, err := tenancy.EnsureProfile(ctx, r.store, principalID, nil)
	if err != nil {
		return nil, tenancy.Wrap(op, err)
	}

	tenants, unreadable, superAdmin, err := r.tenants(ctx, principalID)
	if err != nil {
		return nil, tenancy.Wrap(op, err)
	}

	state := &AccessState{
		PrincipalID:  principalID,
		Email:        principal.Email,
		DisplayName:  DisplayName(profile.FullName, principal.Email),
		Profile:      profile,
		Tenants:      tenants,
		IsSuperAdmin: superAdmin,
	}

	if profile.ActiveOrganizationID == nil {
		return state, nil
	}
	activeID := *profile.ActiveOrganizationID

	for i := range tenants {
		t := tenants[i]
		if t.Organization.ID != activeID {
			continue
		}
		state.ActiveOrganization = t.Organization
		state.Membership = &models.Membership{
			ID:             t.MembershipID,
			PrincipalID:    principalID,
			OrganizationID: activeID,
			RoleName:       t.Role,
			IsBlocked:      t.MembershipBlocked,
		}
		state.Role = t.Role
		state.MembershipBlocked = t.MembershipBlocked
		state.OrganizationBlocked = t.Organization.IsBlocked
		state.Blocked = t.Blocked
		state.Expiration = t.Expiration
		return state, nil
	}

	// A membership backs the active tenant but its row can't be read. It is
	// not dangling; its block state is unknown, so access stays blocked.
	if unreadable[activeID] {
		state.Blocked = true
		state.Expiration = ExpirationUnknown
		return state, nil
	}

	// No membership backs the active tenant.
	org, err := r.store.GetOrganization(ctx, activeID)
	switch {
	case errors.Is(err, tenancy.ErrOrganizationNotFound):
		state.DanglingActiveTenant = true
		r.logger.Warn().Str("principal_id", principalID).Str("organization_id", activeID).Msg("active tenant no longer exists")
		return state, nil
	case err != nil:
		return nil, tenancy.Wrap(op, err)
	}

	state.ActiveOrganization = org
	state.OrganizationBlocked = org.IsBlocked
	state.Blocked = EffectiveBlocked(nil, org)
	state.Expiration = ExpirationOf(org, r.now())
	if !org.IsDefault {
		state.DanglingActiveTenant = true
		r.logger.Warn().Str("principal_id", principalID).Str("organization_id", activeID).Msg("active tenant has no matching membership")
	}
	return state, nil
}

// tenants lists every tenant principalID belongs to in membership creation order.
// A membership whose tenant is gone or unreadable is skipped; unreadable
// collects the ids of the latter. A tenant whose plan can't be read is
// reported with ExpirationUnknown. superAdmin is true when any membership,
// listed or not, carries the Super-admin role.
func (r *Resolver) tenants(ctx context.Context, principalID string) (entries []TenantEntry, unreadable map[string]bool, superAdmin bool, err error) {
	memberships, err := r.store.ListMembershipsByPrincipal(ctx, principalID)
	if err != nil {
		return nil, nil, false, err
	}

	now := r.now()
	entries = make([]TenantEntry, 0, len(memberships))
	unreadable = map[string]bool{}
	for _, m := range memberships {
		if m.RoleName == models.RoleSuperAdmin {
			superAdmin = true
		}

		org, err := r.store.GetOrganization(ctx, m.OrganizationID)
		if errors.Is(err, tenancy.ErrOrganizationNotFound) {
			r.logger.Warn().Str("membership_id", m.ID).Str("organization_id", m.OrganizationID).Msg("skipping membership of missing organization")
			continue
		}
		if err != nil {
			r.logger.Warn().Err(err).Str("membership_id", m.ID).Str("organization_id", m.OrganizationID).Msg("skipping membership of unreadable organization")
			unreadable[m.OrganizationID] = true
			continue
		}

		plan, expiration := PlanOf(ctx, r.store, org, now, r.logger)
		entries = append(entries, TenantEntry{
			Organization:      org,
			MembershipID:      m.ID,
			Role:              m.RoleName,
			MembershipBlocked: m.IsBlocked,
			Blocked:           EffectiveBlocked(m, org),
			Plan:              plan,
			Expiration:        expiration,
		})
	}
	return entries, unreadable, superAdmin, nil
}

// IsSuperAdmin reports whether any of the principal's memberships carries the
// Super-admin role. Memberships of vanished tenants still count.
func (r *Resolver) IsSuperAdmin(ctx context.Context, principalID string) (bool, error) {
	memberships, err := r.store.ListMembershipsByPrincipal(ctx, principalID)
	if err != nil {
		return false, tenancy.Wrap("check super-admin", err)
	}
	for _, m := range memberships {
		if m.RoleName == models.RoleSuperAdmin {
			return true, nil
		}
	}
	return false, nil
}

package access

import (
	"context"

	"orgconsole/internal/engine/tenancy"
)

// SwitchActiveTenant points the principal's profile at orgID. Membership is
// checked against the store at call time, so a membership revoked after the
// tenant list was rendered is refused and the profile is left unchanged.
func (r *Resolver) SwitchActiveTenant(ctx context.Context, principalID, orgID string) error {
	const op = "switch active tenant"

	if principalID == "" || orgID == "" {
		return tenancy.Invalid(op, "principal and organization are required")
	}

	memberships, err := r.store.FindMemberships(ctx, principalID, orgID)
	if err != nil {
		return tenancy.Wrap(op, err)
	}
	if len(memberships) == 0 {
		return tenancy.E(tenancy.KindNotFound, op, tenancy.ErrNotMember)
	}

	if _, _, err := tenancy.EnsureProfile(ctx, r.store, principalID, nil); err != nil {
		return tenancy.Wrap(op, err)
	}
	if err := r.store.SetActiveOrganization(ctx, principalID, &orgID); err != nil {
		return tenancy.Wrap(op, err)
	}

	r.logger.Info().Str("principal_id", principalID).Str("organization_id", orgID).Msg("active tenant switched")
	return nil
}

// UpdateDisplayName stores name on the principal's profile. A blank name
// clears it so the email-derived fallback applies again.
func (r *Resolver) UpdateDisplayName(ctx context.Context, principalID, name string) (*AccessState, error) {
	const op = "update display name"

	if principalID == "" {
		return nil, tenancy.Invalid(op, "principal id is required")
	}
	fullName, ok := NormalizeFullName(name)
	if !ok {
		return nil, tenancy.Invalid(op, "name must be at most %d characters", MaxFullNameLength)
	}

	if _, _, err := tenancy.EnsureProfile(ctx, r.store, principalID, nil); err != nil {
		return nil, tenancy.Wrap(op, err)
	}
	if err := r.store.UpdateProfileName(ctx, principalID, fullName); err != nil {
		return nil, tenancy.Wrap(op, err)
	}
	return r.Resolve(ctx, principalID)
}

// SignIn authenticates the principal and selects a tenant. orgID picks the
// tenant explicitly. When it is empty the profile's current active tenant is
// kept if still valid, else the oldest membership wins. A principal without
// memberships can't sign in.
func (r *Resolver) SignIn(ctx context.Context, email, secret, orgID string) (*AccessState, error) {
	const op = "sign in"

	if email == "" || secret == "" {
		return nil, tenancy.Invalid(op, "email and password are required")
	}

	principalID, err := r.identity.Authenticate(ctx, email, secret)
	if err != nil {
		return nil, tenancy.Wrap(op, err)
	}

	state, err := r.Resolve(ctx, principalID)
	if err != nil {
		return nil, err
	}
	if len(state.Tenants) == 0 {
		return nil, tenancy.E(tenancy.KindNotFound, op, tenancy.ErrNotMember)
	}

	target := orgID
	if target == "" {
		if state.Membership != nil {
			return state, nil
		}
		target = state.Tenants[0].Organization.ID
	}
	if err := r.SwitchActiveTenant(ctx, principalID, target); err != nil {
		return nil, err
	}
	return r.Resolve(ctx, principalID)
}

// SignOut revokes every session issued to the principal so far.
func (r *Resolver) SignOut(ctx context.Context, principalID string) error {
	if err := r.identity.SignOut(ctx, principalID); err != nil {
		return tenancy.Wrap("sign out", err)
	}
	return nil
}

package membership

import (
	"orgconsole/internal/engine/tenancy"
	"orgconsole/internal/platform/models"
)

// Path identifies the flow proposing a membership. Only organization creation
// may hand out Super-admin.
type Path int

const (
	PathSelfService Path = iota
	PathAdministrative
	PathOrganizationCreation
)

func (p Path) String() string {
	switch p {
	case PathAdministrative:
		return "administrative"
	case PathOrganizationCreation:
		return "organization_creation"
	default:
		return "self_service"
	}
}

// Proposal is a membership insert that has not happened yet.
type Proposal struct {
	PrincipalID    string
	OrganizationID string
	Role           models.Role
	Path           Path
}

// Snapshot is the state a Proposal is checked against. It is read separately
// from the eventual insert, so a passing check is advisory under concurrent writers.
type Snapshot struct {
	// Existing holds the memberships already linking the proposal's principal and organization.
	Existing []*models.Membership
	// MemberCount is the organization's membership count, block state irrelevant.
	MemberCount int
	// Plan is nil when the organization has no subscription plan (no seat cap).
	Plan *models.SubscriptionPlan
	// DefaultTenant exempts the organization from seat enforcement.
	DefaultTenant bool
	// HasSuperAdmin reports whether a Super-admin membership already exists in the organization.
	HasSuperAdmin bool
}

// Check returns nil when the proposal is allowed or the violation otherwise.
// It has no side effects.
func Check(p Proposal, s Snapshot) error {
	const op = "check membership"

	if p.PrincipalID == "" || p.OrganizationID == "" {
		return tenancy.Invalid(op, "principal and organization are required")
	}
	if !p.Role.Valid() {
		return tenancy.Invalid(op, "unknown role %q", p.Role)
	}
	if p.Role == models.RoleSuperAdmin && (p.Path != PathOrganizationCreation || s.HasSuperAdmin) {
		return tenancy.E(tenancy.KindValidation, op, tenancy.ErrRoleNotAssignable)
	}

	for _, m := range s.Existing {
		if m.PrincipalID == p.PrincipalID && m.OrganizationID == p.OrganizationID {
			return tenancy.E(tenancy.KindConflict, op, tenancy.ErrDuplicateMembership)
		}
	}

	if !s.DefaultTenant && s.Plan != nil && !s.Plan.Unlimited() && s.MemberCount >= s.Plan.MaxUsers {
		return tenancy.E(tenancy.KindConflict, op, tenancy.ErrSeatLimitExceeded)
	}
	return nil
}

package tenancy

import (
	"context"

	"orgconsole/internal/platform/audit"
	"orgconsole/internal/platform/models"
)

// IdentityProvider authenticates principals and owns their records.
type IdentityProvider interface {
	// CreatePrincipal registers a new principal.
	// Returns ErrAlreadyRegistered if the email is taken.
	CreatePrincipal(ctx context.Context, email, secret string) (string, error)

	// Authenticate checks credentials and returns the principal id.
	// Returns ErrInvalidCredentials on a bad email/secret pair.
	Authenticate(ctx context.Context, email, secret string) (string, error)

	// DeletePrincipal removes a principal. Only used to compensate a failed provisioning.
	DeletePrincipal(ctx context.Context, principalID string) error

	// GetPrincipal returns ErrPrincipalNotFound if the principal doesn't exist.
	GetPrincipal(ctx context.Context, principalID string) (*models.Principal, error)

	// LookupByEmail returns ErrPrincipalNotFound if no principal uses the email.
	LookupByEmail(ctx context.Context, email string) (*models.Principal, error)

	// ListPrincipals returns every principal ordered by email.
	ListPrincipals(ctx context.Context) ([]*models.Principal, error)

	// SignOut invalidates every session issued to the principal so far.
	SignOut(ctx context.Context, principalID string) error
}

// OrganizationStore holds tenants. Every call is atomic for a single row only.
type OrganizationStore interface {
	// GetOrganization returns ErrOrganizationNotFound if the row doesn't exist.
	GetOrganization(ctx context.Context, id string) (*models.Organization, error)

	// ListOrganizations returns all tenants ordered by name.
	ListOrganizations(ctx context.Context) ([]*models.Organization, error)

	// FindOrganizationsByIdentifiers returns tenants using either number.
	FindOrganizationsByIdentifiers(ctx context.Context, registrationNumber, taxNumber string) ([]*models.Organization, error)

	InsertOrganization(ctx context.Context, org *models.Organization) error

	// UpdateOrganization returns ErrOrganizationNotFound if the row doesn't exist.
	UpdateOrganization(ctx context.Context, org *models.Organization) error

	SetOrganizationBlocked(ctx context.Context, id string, blocked bool) error

	DeleteOrganization(ctx context.Context, id string) error
}

// MembershipStore holds principal-to-tenant links.
type MembershipStore interface {
	// GetMembership returns ErrMembershipNotFound if the row doesn't exist.
	GetMembership(ctx context.Context, id string) (*models.Membership, error)

	// ListMembershipsByPrincipal returns memberships ordered by creation time.
	ListMembershipsByPrincipal(ctx context.Context, principalID string) ([]*models.Membership, error)

	// ListMembershipsByOrganization returns memberships ordered by creation time.
	ListMembershipsByOrganization(ctx context.Context, orgID string) ([]*models.Membership, error)

	ListMembershipsByRole(ctx context.Context, role models.Role) ([]*models.Membership, error)

	// FindMemberships returns the memberships linking principalID to orgID (zero or one in a healthy store).
	FindMemberships(ctx context.Context, principalID, orgID string) ([]*models.Membership, error)

	// CountMemberships counts memberships of a tenant regardless of block state.
	CountMemberships(ctx context.Context, orgID string) (int, error)

	// InsertMembership returns ErrDuplicateMembership when the store's uniqueness constraint fires.
	InsertMembership(ctx context.Context, m *models.Membership) error

	SetMembershipBlocked(ctx context.Context, id string, blocked bool) error

	// DeleteMembership returns ErrMembershipNotFound if the row doesn't exist.
	DeleteMembership(ctx context.Context, id string) error
}

// ProfileStore holds per-principal profile rows.
type ProfileStore interface {
	// GetProfile returns ErrProfileNotFound if the principal has no profile yet.
	GetProfile(ctx context.Context, principalID string) (*models.Profile, error)

	ListProfiles(ctx context.Context) ([]*models.Profile, error)

	InsertProfile(ctx context.Context, p *models.Profile) error

	UpdateProfileName(ctx context.Context, principalID string, fullName *string) error

	// SetActiveOrganization stores orgID (nil clears it) and touches last_active_at.
	SetActiveOrganization(ctx context.Context, principalID string, orgID *string) error

	DeleteProfile(ctx context.Context, principalID string) error
}

// ReferenceStore serves immutable reference data.
type ReferenceStore interface {
	// GetPlan returns ErrPlanNotFound if the row doesn't exist.
	GetPlan(ctx context.Context, id string) (*models.SubscriptionPlan, error)

	// ListPlans returns plans ordered by price.
	ListPlans(ctx context.Context) ([]*models.SubscriptionPlan, error)

	// GetRoleByName returns ErrRoleNotFound if the role was never seeded.
	GetRoleByName(ctx context.Context, name models.Role) (*models.RoleRecord, error)
}

// TenantStore is the durable owner of every row the engine reads or writes.
type TenantStore interface {
	OrganizationStore
	MembershipStore
	ProfileStore
	ReferenceStore
}

// Auditor records administrative mutations. Implementations must not fail the caller.
type Auditor interface {
	Record(ctx context.Context, entry audit.Entry)
}

// NopAuditor discards every entry.
type NopAuditor struct{}

func (NopAuditor) Record(context.Context, audit.Entry) {}

// MultiAuditor hands every entry to each auditor in order.
type MultiAuditor []Auditor

func (m MultiAuditor) Record(ctx context.Context, entry audit.Entry) {
	for _, a := range m {
		a.Record(ctx, entry)
	}
}

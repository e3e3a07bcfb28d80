package membership

import (
	"testing"

	"github.com/stretchr/testify/require"

	"orgconsole/internal/engine/tenancy"
	"orgconsole/internal/platform/models"
)

func TestCheck(t *testing.T) {
	plan := func(max int) *models.SubscriptionPlan { return &models.SubscriptionPlan{ID: "plan", MaxUsers: max} }
	proposal := func(role models.Role, path Path) Proposal {
		return Proposal{PrincipalID: "usr_1", OrganizationID: "org_1", Role: role, Path: path}
	}
	existing := []*models.Membership{{ID: "mem_1", PrincipalID: "usr_1", OrganizationID: "org_1", RoleName: models.RoleMember}}

	tests := []struct {
		name     string
		proposal Proposal
		snapshot Snapshot
		wantErr  error
		wantKind tenancy.Kind
	}{
		{
			name:     "Allowed Under Limit",
			proposal: proposal(models.RoleMember, PathSelfService),
			snapshot: Snapshot{MemberCount: 1, Plan: plan(2)},
		},
		{
			name:     "Seat Limit Reached",
			proposal: proposal(models.RoleMember, PathAdministrative),
			snapshot: Snapshot{MemberCount: 2, Plan: plan(2)},
			wantErr:  tenancy.ErrSeatLimitExceeded,
			wantKind: tenancy.KindConflict,
		},
		{
			name:     "Seat Limit Over",
			proposal: proposal(models.RoleMember, PathAdministrative),
			snapshot: Snapshot{MemberCount: 3, Plan: plan(2)},
			wantErr:  tenancy.ErrSeatLimitExceeded,
			wantKind: tenancy.KindConflict,
		},
		{
			name:     "Unlimited Plan",
			proposal: proposal(models.RoleMember, PathSelfService),
			snapshot: Snapshot{MemberCount: 1000, Plan: plan(-1)},
		},
		{
			name:     "No Plan",
			proposal: proposal(models.RoleMember, PathSelfService),
			snapshot: Snapshot{MemberCount: 1000},
		},
		{
			name:     "Default Tenant Exempt",
			proposal: proposal(models.RoleMember, PathAdministrative),
			snapshot: Snapshot{MemberCount: 5, Plan: plan(1), DefaultTenant: true},
		},
		{
			name:     "Duplicate",
			proposal: proposal(models.RoleMember, PathSelfService),
			snapshot: Snapshot{Existing: existing, MemberCount: 1, Plan: plan(10)},
			wantErr:  tenancy.ErrDuplicateMembership,
			wantKind: tenancy.KindConflict,
		},
		{
			name:     "Duplicate Wins Over Seat Limit",
			proposal: proposal(models.RoleMember, PathSelfService),
			snapshot: Snapshot{Existing: existing, MemberCount: 1, Plan: plan(1)},
			wantErr:  tenancy.ErrDuplicateMembership,
			wantKind: tenancy.KindConflict,
		},
		{
			name:     "Super-admin Self Service",
			proposal: proposal(models.RoleSuperAdmin, PathSelfService),
			snapshot: Snapshot{},
			wantErr:  tenancy.ErrRoleNotAssignable,
			wantKind: tenancy.KindValidation,
		},
		{
			name:     "Super-admin Administrative",
			proposal: proposal(models.RoleSuperAdmin, PathAdministrative),
			snapshot: Snapshot{},
			wantErr:  tenancy.ErrRoleNotAssignable,
			wantKind: tenancy.KindValidation,
		},
		{
			name:     "Super-admin Organization Creation",
			proposal: proposal(models.RoleSuperAdmin, PathOrganizationCreation),
			snapshot: Snapshot{},
		},
		{
			name:     "Second Super-admin",
			proposal: proposal(models.RoleSuperAdmin, PathOrganizationCreation),
			snapshot: Snapshot{HasSuperAdmin: true},
			wantErr:  tenancy.ErrRoleNotAssignable,
			wantKind: tenancy.KindValidation,
		},
		{
			name:     "Unknown Role",
			proposal: proposal(models.Role("Owner"), PathSelfService),
			snapshot: Snapshot{},
			wantErr:  tenancy.ErrInvalidInput,
			wantKind: tenancy.KindValidation,
		},
		{
			name:     "Missing Principal",
			proposal: Proposal{OrganizationID: "org_1", Role: models.RoleMember},
			snapshot: Snapshot{},
			wantErr:  tenancy.ErrInvalidInput,
			wantKind: tenancy.KindValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(tt.proposal, tt.snapshot)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
			require.Equal(t, tt.wantKind, tenancy.KindOf(err))
		})
	}
}

func TestPathString(t *testing.T) {
	require.Equal(t, "self_service", PathSelfService.String())
	require.Equal(t, "administrative", PathAdministrative.String())
	require.Equal(t, "organization_creation", PathOrganizationCreation.String())
}

package provisioning

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"orgconsole/internal/engine/tenancy"
	"orgconsole/internal/platform/audit"
	"orgconsole/internal/platform/models"
)

func joinRequest(orgID string) JoinOrganizationRequest {
	return JoinOrganizationRequest{
		Email:          "member@example.com",
		Password:       "correct-horse",
		FullName:       "Max Member",
		OrganizationID: orgID,
	}
}

func TestJoinOrganization_NewPrincipal(t *testing.T) {
	f := newFixture(t)
	org := f.store.Organization("acme", 5)

	res, err := f.p.JoinOrganization(context.Background(), joinRequest(org.ID))
	require.NoError(t, err)
	require.True(t, res.PrincipalCreated)
	require.Equal(t, models.RoleMember, res.Membership.RoleName)

	profile := f.store.Profile(res.PrincipalID)
	require.NotNil(t, profile)
	require.Equal(t, org.ID, *profile.ActiveOrganizationID)
	require.Equal(t, "Max Member", *profile.FullName)
	// New principals get the tenant pre-set at profile creation.
	require.False(t, f.store.Called("SetActiveOrganization"))
	require.Equal(t, []string{audit.ActionMemberJoined}, f.auditor.Actions())
}

func TestJoinOrganization_ExistingPrincipal(t *testing.T) {
	f := newFixture(t)
	pid := f.identity.Register("member@example.com", "correct-horse")
	home := f.store.Organization("home", 5)
	target := f.store.Organization("target", 5)
	f.store.Member(pid, home.ID, models.RoleAdmin)
	f.store.PutProfile(&models.Profile{ID: "prf_1", PrincipalID: pid, ActiveOrganizationID: &home.ID})

	res, err := f.p.JoinOrganization(context.Background(), joinRequest(target.ID))
	require.NoError(t, err)
	require.False(t, res.PrincipalCreated)
	require.Equal(t, target.ID, *f.store.Profile(pid).ActiveOrganizationID)
	require.Len(t, f.store.Memberships(), 2)
}

func TestJoinOrganization_TwiceYieldsDuplicate(t *testing.T) {
	f := newFixture(t)
	org := f.store.Organization("acme", 5)

	_, err := f.p.JoinOrganization(context.Background(), joinRequest(org.ID))
	require.NoError(t, err)

	_, err = f.p.JoinOrganization(context.Background(), joinRequest(org.ID))
	require.ErrorIs(t, err, tenancy.ErrDuplicateMembership)
	require.Equal(t, tenancy.KindConflict, tenancy.KindOf(err))
	require.Len(t, f.store.Memberships(), 1)
	require.Equal(t, 1, f.identity.Count())
}

func TestJoinOrganization_SeatLimitRollsBackNewPrincipal(t *testing.T) {
	f := newFixture(t)
	org := f.store.Organization("acme", 1)
	f.store.Member("usr_existing", org.ID, models.RoleAdmin)

	_, err := f.p.JoinOrganization(context.Background(), joinRequest(org.ID))
	require.ErrorIs(t, err, tenancy.ErrSeatLimitExceeded)

	var sagaErr *SagaError
	require.ErrorAs(t, err, &sagaErr)
	require.Equal(t, "insert member membership", sagaErr.Step)
	require.Len(t, sagaErr.Compensations, 2)
	require.False(t, sagaErr.CompensationFailed())

	require.Equal(t, 0, f.identity.Count())
	require.Len(t, f.store.Memberships(), 1)
	require.True(t, f.store.Called("DeleteProfile"))
}

func TestJoinOrganization_ActivationFailureRevertsMembership(t *testing.T) {
	f := newFixture(t)
	pid := f.identity.Register("member@example.com", "correct-horse")
	home := f.store.Organization("home", 5)
	target := f.store.Organization("target", 5)
	f.store.PutProfile(&models.Profile{ID: "prf_1", PrincipalID: pid, ActiveOrganizationID: &home.ID})
	f.store.FailOn("SetActiveOrganization", errors.New("write timeout"))

	_, err := f.p.JoinOrganization(context.Background(), joinRequest(target.ID))
	var sagaErr *SagaError
	require.ErrorAs(t, err, &sagaErr)
	require.Equal(t, "activate organization", sagaErr.Step)

	require.Empty(t, f.store.Memberships())
	require.Equal(t, home.ID, *f.store.Profile(pid).ActiveOrganizationID)
	require.True(t, f.identity.Exists(pid))
}

func TestJoinOrganization_RejectsDefaultTenant(t *testing.T) {
	f := newFixture(t)
	def := f.store.DefaultOrganization()

	_, err := f.p.JoinOrganization(context.Background(), joinRequest(def.ID))
	require.ErrorIs(t, err, tenancy.ErrDefaultTenant)
	require.Equal(t, tenancy.KindValidation, tenancy.KindOf(err))
	require.Empty(t, f.identity.Calls())
}

func TestJoinOrganization_UnknownOrganization(t *testing.T) {
	f := newFixture(t)

	_, err := f.p.JoinOrganization(context.Background(), joinRequest("org_missing"))
	require.ErrorIs(t, err, tenancy.ErrOrganizationNotFound)
	require.Equal(t, tenancy.KindNotFound, tenancy.KindOf(err))
	require.Empty(t, f.identity.Calls())
}

func TestJoinOrganization_WrongSecretForExistingEmail(t *testing.T) {
	f := newFixture(t)
	org := f.store.Organization("acme", 5)
	f.identity.Register("member@example.com", "another-secret")

	_, err := f.p.JoinOrganization(context.Background(), joinRequest(org.ID))
	require.ErrorIs(t, err, tenancy.ErrInvalidCredentials)
	require.Equal(t, 1, f.identity.Count())
	require.Empty(t, f.store.Memberships())
}

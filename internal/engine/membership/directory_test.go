package membership

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"orgconsole/internal/engine/access"
	"orgconsole/internal/engine/tenancy"
	"orgconsole/internal/platform/models"
)

func TestUpdateOrganization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	org := f.store.Organization("acme", 5)
	f.store.PutPlan(&models.SubscriptionPlan{ID: "plan_big", Name: "Big", MaxUsers: 50})

	name := "Acme Holdings"
	planID := "plan_big"
	start, end := int64(1_700_000_000), int64(1_800_000_000)

	updated, err := f.svc.UpdateOrganization(ctx, actor, org.ID, OrganizationUpdate{
		Name:                  &name,
		SubscriptionPlanID:    &planID,
		SubscriptionStartDate: &start,
		SubscriptionEndDate:   &end,
	})
	require.NoError(t, err)
	require.Equal(t, name, updated.Name)
	require.Equal(t, planID, *updated.SubscriptionPlanID)

	stored, err := f.store.GetOrganization(ctx, org.ID)
	require.NoError(t, err)
	require.Equal(t, name, stored.Name)
	require.Equal(t, end, *stored.SubscriptionEndDate)
}

func TestUpdateOrganization_Rejections(t *testing.T) {
	blank := "  "
	missingPlan := "plan_missing"
	start, end := int64(200), int64(100)
	blocked := true

	tests := []struct {
		name     string
		update   OrganizationUpdate
		onDef    bool
		wantErr  error
		wantKind tenancy.Kind
	}{
		{"Blank Name", OrganizationUpdate{Name: &blank}, false, tenancy.ErrInvalidInput, tenancy.KindValidation},
		{"Unknown Plan", OrganizationUpdate{SubscriptionPlanID: &missingPlan}, false, tenancy.ErrPlanNotFound, tenancy.KindNotFound},
		{"Window Reversed", OrganizationUpdate{SubscriptionStartDate: &start, SubscriptionEndDate: &end}, false, tenancy.ErrInvalidInput, tenancy.KindValidation},
		{"Block Default", OrganizationUpdate{Blocked: &blocked}, true, tenancy.ErrDefaultTenant, tenancy.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			var org *models.Organization
			if tt.onDef {
				org = f.store.DefaultOrganization()
			} else {
				org = f.store.Organization("acme", 5)
			}

			_, err := f.svc.UpdateOrganization(context.Background(), actor, org.ID, tt.update)
			require.ErrorIs(t, err, tt.wantErr)
			require.Equal(t, tt.wantKind, tenancy.KindOf(err))
			require.False(t, f.store.Called("UpdateOrganization"))
		})
	}
}

func TestListDirectory(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	f := newFixture(t, WithFetchConcurrency(2), WithClock(func() time.Time { return now }))
	ctx := context.Background()

	zeta := f.store.Organization("zeta", 5)
	alpha := f.store.Organization("alpha", 5)
	ended := now.Add(-time.Hour).Unix()
	alpha.SubscriptionEndDate = &ended
	f.store.PutOrganization(alpha)

	broken := f.store.Organization("beta", -1)
	missing := "plan_gone"
	broken.SubscriptionPlanID = &missing
	f.store.PutOrganization(broken)

	f.store.Member("usr_1", zeta.ID, models.RoleAdmin)
	f.store.Member("usr_2", zeta.ID, models.RoleMember)
	f.store.Member("usr_1", alpha.ID, models.RoleMember)

	entries, err := f.svc.ListDirectory(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	require.Equal(t, "alpha", entries[0].Organization.Name)
	require.Equal(t, access.ExpirationExpired, entries[0].Expiration)
	require.Equal(t, 1, entries[0].MemberCount)

	require.Equal(t, "beta", entries[1].Organization.Name)
	require.Equal(t, access.ExpirationUnknown, entries[1].Expiration)
	require.Nil(t, entries[1].Plan)

	require.Equal(t, "zeta", entries[2].Organization.Name)
	require.Equal(t, 2, entries[2].MemberCount)
	require.NotNil(t, entries[2].Plan)
	require.Equal(t, access.ExpirationActive, entries[2].Expiration)
}

func TestListDirectory_UnreadablePlan(t *testing.T) {
	f := newFixture(t)
	org := f.store.Organization("acme", 5)
	f.store.FailOnRow(*org.SubscriptionPlanID, errors.New("connection reset"))

	entries, err := f.svc.ListDirectory(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, access.ExpirationUnknown, entries[0].Expiration)
	require.Nil(t, entries[0].Plan)
}

func TestListDirectory_FetchFailure(t *testing.T) {
	f := newFixture(t)
	f.store.Organization("acme", 5)
	f.store.FailOn("ListMembershipsByOrganization", errors.New("timeout"))

	_, err := f.svc.ListDirectory(context.Background())
	require.Equal(t, tenancy.KindDependency, tenancy.KindOf(err))
}

func TestListJoinable(t *testing.T) {
	f := newFixture(t)
	f.store.DefaultOrganization()
	f.store.Organization("zeta", 5)
	f.store.Organization("alpha", 5)

	orgs, err := f.svc.ListJoinable(context.Background())
	require.NoError(t, err)
	require.Len(t, orgs, 2)
	require.Equal(t, "alpha", orgs[0].Name)
	require.Equal(t, "zeta", orgs[1].Name)
}

func TestListPlans(t *testing.T) {
	f := newFixture(t)
	f.store.PutPlan(&models.SubscriptionPlan{ID: "plan_pro", Name: "Pro", MaxUsers: 20, PriceCents: 4900})
	f.store.PutPlan(&models.SubscriptionPlan{ID: "plan_free", Name: "Free", MaxUsers: 3, PriceCents: 0})

	plans, err := f.svc.ListPlans(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 2)
	require.Equal(t, "plan_free", plans[0].ID)
}

package membership

import (
	"context"

	"orgconsole/internal/engine/tenancy"
	"orgconsole/internal/platform/models"
)

// LoadSnapshot reads the live state Check needs for proposing role to
// principalID in org. A dangling plan reference fails the load rather than
// silently lifting the seat cap.
func LoadSnapshot(ctx context.Context, store tenancy.TenantStore, principalID string, org *models.Organization, role models.Role) (Snapshot, error) {
	const op = "load membership snapshot"

	snap := Snapshot{DefaultTenant: org.IsDefault}

	existing, err := store.FindMemberships(ctx, principalID, org.ID)
	if err != nil {
		return snap, tenancy.Wrap(op, err)
	}
	snap.Existing = existing

	count, err := store.CountMemberships(ctx, org.ID)
	if err != nil {
		return snap, tenancy.Wrap(op, err)
	}
	snap.MemberCount = count

	if org.SubscriptionPlanID != nil {
		plan, err := store.GetPlan(ctx, *org.SubscriptionPlanID)
		if err != nil {
			return snap, tenancy.Wrap(op, err)
		}
		snap.Plan = plan
	}

	if role == models.RoleSuperAdmin {
		members, err := store.ListMembershipsByOrganization(ctx, org.ID)
		if err != nil {
			return snap, tenancy.Wrap(op, err)
		}
		for _, m := range members {
			if m.RoleName == models.RoleSuperAdmin {
				snap.HasSuperAdmin = true
				break
			}
		}
	}
	return snap, nil
}

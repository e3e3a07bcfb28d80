package membership

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"orgconsole/internal/engine/access"
	"orgconsole/internal/engine/tenancy"
	"orgconsole/internal/pkg/validator"
	"orgconsole/internal/platform/audit"
	"orgconsole/internal/platform/metrics"
	"orgconsole/internal/platform/models"
)

// OrganizationUpdate carries the fields an administrator may change. Nil
// fields are left untouched. ClearSubscriptionWindow drops both dates.
type OrganizationUpdate struct {
	Name                    *string `json:"name,omitempty"`
	Email                   *string `json:"email,omitempty"`
	Address                 *string `json:"address,omitempty"`
	Phone                   *string `json:"phone,omitempty"`
	SubscriptionPlanID      *string `json:"subscription_plan_id,omitempty"`
	SubscriptionStartDate   *int64  `json:"subscription_start_date,omitempty"`
	SubscriptionEndDate     *int64  `json:"subscription_end_date,omitempty"`
	ClearSubscriptionWindow bool    `json:"clear_subscription_window,omitempty"`
	Blocked                 *bool   `json:"is_blocked,omitempty"`
}

// UpdateOrganization applies u to orgID.
func (s *Service) UpdateOrganization(ctx context.Context, actorID, orgID string, u OrganizationUpdate) (_ *models.Organization, err error) {
	const op = "update organization"
	defer func() { metrics.IncAdminOperation("organization_update", metrics.Result(err)) }()

	org, err := s.store.GetOrganization(ctx, orgID)
	if err != nil {
		return nil, tenancy.Wrap(op, err)
	}

	changed := []string{}
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if err := validator.Required("name", name); err != nil {
			return nil, tenancy.Invalid(op, "%v", err)
		}
		org.Name = name
		changed = append(changed, "name")
	}
	if u.Email != nil {
		if *u.Email != "" {
			if err := validator.Email(*u.Email); err != nil {
				return nil, tenancy.Invalid(op, "%v", err)
			}
		}
		org.Email = emptyToNil(*u.Email)
		changed = append(changed, "email")
	}
	if u.Address != nil {
		org.Address = emptyToNil(*u.Address)
		changed = append(changed, "address")
	}
	if u.Phone != nil {
		org.Phone = emptyToNil(*u.Phone)
		changed = append(changed, "phone")
	}
	if u.SubscriptionPlanID != nil {
		if *u.SubscriptionPlanID == "" {
			org.SubscriptionPlanID = nil
		} else {
			if _, err := s.store.GetPlan(ctx, *u.SubscriptionPlanID); err != nil {
				return nil, tenancy.Wrap(op, err)
			}
			planID := *u.SubscriptionPlanID
			org.SubscriptionPlanID = &planID
		}
		changed = append(changed, "subscription_plan_id")
	}
	if u.ClearSubscriptionWindow {
		org.SubscriptionStartDate, org.SubscriptionEndDate = nil, nil
		changed = append(changed, "subscription_window")
	}
	if u.SubscriptionStartDate != nil {
		org.SubscriptionStartDate = u.SubscriptionStartDate
		changed = append(changed, "subscription_start_date")
	}
	if u.SubscriptionEndDate != nil {
		org.SubscriptionEndDate = u.SubscriptionEndDate
		changed = append(changed, "subscription_end_date")
	}
	if err := validator.Window(org.SubscriptionStartDate, org.SubscriptionEndDate); err != nil {
		return nil, tenancy.Invalid(op, "%v", err)
	}
	if u.Blocked != nil {
		if org.IsDefault && *u.Blocked {
			return nil, tenancy.E(tenancy.KindValidation, op, tenancy.ErrDefaultTenant)
		}
		org.IsBlocked = *u.Blocked
		changed = append(changed, "is_blocked")
	}

	if len(changed) == 0 {
		return org, nil
	}
	org.UpdatedAt = s.now().Unix()
	if err := s.store.UpdateOrganization(ctx, org); err != nil {
		return nil, tenancy.Wrap(op, err)
	}

	s.logger.Info().Str("actor_id", actorID).Str("organization_id", orgID).Strs("fields", changed).Msg("organization updated")
	s.auditor.Record(ctx, audit.Entry{
		ActorID:        actorID,
		OrganizationID: orgID,
		Action:         audit.ActionOrganizationUpdated,
		ResourceType:   "organization",
		ResourceID:     orgID,
		Metadata:       map[string]interface{}{"fields": changed},
	})
	return org, nil
}

func emptyToNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// DirectoryEntry is one row of the administrative organization listing.
type DirectoryEntry struct {
	Organization *models.Organization     `json:"organization"`
	Plan         *models.SubscriptionPlan `json:"plan,omitempty"`
	MemberCount  int                      `json:"member_count"`
	Members      []*models.Membership     `json:"members"`
	Expiration   access.Expiration        `json:"expiration"`
}

// ListDirectory lists every tenant ordered by name with its plan and members.
// Member lists are fetched concurrently; an unreadable plan degrades the entry
// to ExpirationUnknown instead of failing the listing.
func (s *Service) ListDirectory(ctx context.Context) ([]DirectoryEntry, error) {
	const op = "list directory"

	orgs, err := s.store.ListOrganizations(ctx)
	if err != nil {
		return nil, tenancy.Wrap(op, err)
	}

	now := s.now()
	entries := make([]DirectoryEntry, len(orgs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fetchConcurrency)
	for i, org := range orgs {
		entries[i] = DirectoryEntry{Organization: org}
		g.Go(func() error {
			members, err := s.store.ListMembershipsByOrganization(gctx, org.ID)
			if err != nil {
				return err
			}
			entries[i].Members = members
			entries[i].MemberCount = len(members)
			entries[i].Plan, entries[i].Expiration = access.PlanOf(gctx, s.store, org, now, s.logger)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, tenancy.Wrap(op, err)
	}
	return entries, nil
}

// ListJoinable returns the tenants a principal may ask to join, ordered by name.
// The default tenant is never joinable.
func (s *Service) ListJoinable(ctx context.Context) ([]*models.Organization, error) {
	orgs, err := s.store.ListOrganizations(ctx)
	if err != nil {
		return nil, tenancy.Wrap("list joinable organizations", err)
	}
	joinable := make([]*models.Organization, 0, len(orgs))
	for _, org := range orgs {
		if !org.IsDefault {
			joinable = append(joinable, org)
		}
	}
	return joinable, nil
}

// ListPlans returns the subscription plans ordered by price.
func (s *Service) ListPlans(ctx context.Context) ([]*models.SubscriptionPlan, error) {
	plans, err := s.store.ListPlans(ctx)
	if err != nil {
		return nil, tenancy.Wrap("list plans", err)
	}
	return plans, nil
}

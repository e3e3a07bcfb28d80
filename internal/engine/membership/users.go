package membership

import (
	"context"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"orgconsole/internal/engine/access"
	"orgconsole/internal/engine/tenancy"
	"orgconsole/internal/platform/audit"
	"orgconsole/internal/platform/metrics"
	"orgconsole/internal/platform/models"
)

// UserMembership is one tenant of a listed user.
type UserMembership struct {
	Membership   *models.Membership       `json:"membership"`
	Organization *models.Organization     `json:"organization"`
	Plan         *models.SubscriptionPlan `json:"plan,omitempty"`
	Blocked      bool                     `json:"blocked"`
	Expiration   access.Expiration        `json:"expiration"`
}

// UserEntry is one row of the administrative user listing.
type UserEntry struct {
	Principal   *models.Principal `json:"principal"`
	Profile     *models.Profile   `json:"profile"`
	DisplayName string            `json:"display_name"`
	Memberships []UserMembership  `json:"memberships"`
}

type orgView struct {
	org        *models.Organization
	plan       *models.SubscriptionPlan
	expiration access.Expiration
}

// ListUsers lists every principal ordered by display name, each with its
// profile and memberships. Missing profiles are created on the way. A
// membership of a vanished tenant is left out and an unreadable plan degrades
// to ExpirationUnknown.
func (s *Service) ListUsers(ctx context.Context) ([]UserEntry, error) {
	const op = "list users"

	principals, err := s.identity.ListPrincipals(ctx)
	if err != nil {
		return nil, tenancy.Wrap(op, err)
	}
	orgs, err := s.store.ListOrganizations(ctx)
	if err != nil {
		return nil, tenancy.Wrap(op, err)
	}

	now := s.now()
	views := make(map[string]orgView, len(orgs))
	for _, org := range orgs {
		plan, expiration := access.PlanOf(ctx, s.store, org, now, s.logger)
		views[org.ID] = orgView{org: org, plan: plan, expiration: expiration}
	}

	entries := make([]UserEntry, len(principals))
	for i, p := range principals {
		profile, _, err := tenancy.EnsureProfile(ctx, s.store, p.ID, nil)
		if err != nil {
			return nil, tenancy.Wrap(op, err)
		}
		entries[i] = UserEntry{Principal: p, Profile: profile, DisplayName: access.DisplayName(profile.FullName, p.Email)}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fetchConcurrency)
	for i := range entries {
		g.Go(func() error {
			memberships, err := s.store.ListMembershipsByPrincipal(gctx, entries[i].Principal.ID)
			if err != nil {
				return err
			}
			entries[i].Memberships = make([]UserMembership, 0, len(memberships))
			for _, m := range memberships {
				v, ok := views[m.OrganizationID]
				if !ok {
					s.logger.Warn().Str("membership_id", m.ID).Str("organization_id", m.OrganizationID).Msg("skipping membership of missing organization")
					continue
				}
				entries[i].Memberships = append(entries[i].Memberships, UserMembership{
					Membership:   m,
					Organization: v.org,
					Plan:         v.plan,
					Blocked:      access.EffectiveBlocked(m, v.org),
					Expiration:   v.expiration,
				})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, tenancy.Wrap(op, err)
	}

	sort.SliceStable(entries, func(a, b int) bool {
		na, nb := strings.ToLower(entries[a].DisplayName), strings.ToLower(entries[b].DisplayName)
		if na != nb {
			return na < nb
		}
		return entries[a].Principal.Email < entries[b].Principal.Email
	})
	return entries, nil
}

// RenameUser sets another principal's full name. A blank name clears it.
func (s *Service) RenameUser(ctx context.Context, actorID, principalID, name string) (_ *models.Profile, err error) {
	const op = "rename user"
	defer func() { metrics.IncAdminOperation("user_rename", metrics.Result(err)) }()

	fullName, ok := access.NormalizeFullName(name)
	if !ok {
		return nil, tenancy.Invalid(op, "name must be at most %d characters", access.MaxFullNameLength)
	}
	if _, err := s.identity.GetPrincipal(ctx, principalID); err != nil {
		return nil, tenancy.Wrap(op, err)
	}
	profile, _, err := tenancy.EnsureProfile(ctx, s.store, principalID, nil)
	if err != nil {
		return nil, tenancy.Wrap(op, err)
	}
	if err := s.store.UpdateProfileName(ctx, principalID, fullName); err != nil {
		return nil, tenancy.Wrap(op, err)
	}
	profile.FullName = fullName

	var orgID string
	if profile.ActiveOrganizationID != nil {
		orgID = *profile.ActiveOrganizationID
	}
	s.logger.Info().Str("actor_id", actorID).Str("principal_id", principalID).Msg("user renamed")
	s.auditor.Record(ctx, audit.Entry{
		ActorID:        actorID,
		OrganizationID: orgID,
		Action:         audit.ActionProfileRenamed,
		ResourceType:   "profile",
		ResourceID:     profile.ID,
		Metadata:       map[string]interface{}{"principal_id": principalID},
	})
	return profile, nil
}

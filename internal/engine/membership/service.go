package membership

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"orgconsole/internal/engine/tenancy"
	"orgconsole/internal/pkg/validator"
	"orgconsole/internal/platform/audit"
	"orgconsole/internal/platform/metrics"
	"orgconsole/internal/platform/models"
)

// Service runs the administrative operations on tenants and memberships.
// Every operation takes the acting principal explicitly for the audit trail.
type Service struct {
	store            tenancy.TenantStore
	identity         tenancy.IdentityProvider
	auditor          tenancy.Auditor
	logger           zerolog.Logger
	fetchConcurrency int
	now              func() time.Time
}

type Option func(*Service)

// WithFetchConcurrency bounds the concurrent member-list reads of ListDirectory.
func WithFetchConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.fetchConcurrency = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store tenancy.TenantStore, identity tenancy.IdentityProvider, auditor tenancy.Auditor, logger zerolog.Logger, opts ...Option) *Service {
	if auditor == nil {
		auditor = tenancy.NopAuditor{}
	}
	s := &Service{
		store:            store,
		identity:         identity,
		auditor:          auditor,
		logger:           logger.With().Str("component", "membership").Logger(),
		fetchConcurrency: 4,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetOrganizationBlock flips the tenant's block flag. Members' effective state
// follows implicitly; no membership row is written.
func (s *Service) SetOrganizationBlock(ctx context.Context, actorID, orgID string, blocked bool) (err error) {
	const op = "set organization block"
	defer func() { metrics.IncAdminOperation("organization_block", metrics.Result(err)) }()

	org, err := s.store.GetOrganization(ctx, orgID)
	if err != nil {
		return tenancy.Wrap(op, err)
	}
	if org.IsDefault {
		return tenancy.E(tenancy.KindValidation, op, tenancy.ErrDefaultTenant)
	}
	if err := s.store.SetOrganizationBlocked(ctx, orgID, blocked); err != nil {
		return tenancy.Wrap(op, err)
	}

	s.logger.Info().Str("actor_id", actorID).Str("organization_id", orgID).Bool("blocked", blocked).Msg("organization block changed")
	s.auditor.Record(ctx, audit.Entry{
		ActorID:        actorID,
		OrganizationID: orgID,
		Action:         audit.ActionOrganizationBlocked,
		ResourceType:   "organization",
		ResourceID:     orgID,
		Metadata:       map[string]interface{}{"blocked": blocked},
	})
	return nil
}

// SetMembershipBlock flips a membership's own block flag. Super-admin
// memberships and memberships of the default tenant, where the flag never
// takes effect, are refused before any write.
func (s *Service) SetMembershipBlock(ctx context.Context, actorID, membershipID string, blocked bool) (err error) {
	const op = "set membership block"
	defer func() { metrics.IncAdminOperation("membership_block", metrics.Result(err)) }()

	m, err := s.store.GetMembership(ctx, membershipID)
	if err != nil {
		return tenancy.Wrap(op, err)
	}
	if m.RoleName.Protected() {
		return tenancy.E(tenancy.KindValidation, op, tenancy.ErrProtectedMembership)
	}
	org, err := s.store.GetOrganization(ctx, m.OrganizationID)
	if err != nil {
		return tenancy.Wrap(op, err)
	}
	if org.IsDefault {
		return tenancy.E(tenancy.KindValidation, op, tenancy.ErrDefaultTenant)
	}
	if err := s.store.SetMembershipBlocked(ctx, membershipID, blocked); err != nil {
		return tenancy.Wrap(op, err)
	}

	s.logger.Info().Str("actor_id", actorID).Str("membership_id", membershipID).Bool("blocked", blocked).Msg("membership block changed")
	s.auditor.Record(ctx, audit.Entry{
		ActorID:        actorID,
		OrganizationID: m.OrganizationID,
		Action:         audit.ActionMemberBlocked,
		ResourceType:   "membership",
		ResourceID:     membershipID,
		Metadata:       map[string]interface{}{"blocked": blocked, "principal_id": m.PrincipalID},
	})
	return nil
}

// Removal describes a deleted membership.
type Removal struct {
	Membership *models.Membership `json:"membership"`
	// LeftDanglingActiveTenant reports that the removed principal's profile
	// still points at the tenant. It is not cleared here.
	LeftDanglingActiveTenant bool `json:"left_dangling_active_tenant"`
}

// RemoveMembership hard-deletes a membership. Super-admin memberships are
// refused before any delete is attempted.
func (s *Service) RemoveMembership(ctx context.Context, actorID, membershipID string) (_ *Removal, err error) {
	const op = "remove membership"
	defer func() { metrics.IncAdminOperation("membership_remove", metrics.Result(err)) }()

	m, err := s.store.GetMembership(ctx, membershipID)
	if err != nil {
		return nil, tenancy.Wrap(op, err)
	}
	if m.RoleName.Protected() {
		return nil, tenancy.E(tenancy.KindValidation, op, tenancy.ErrProtectedMembership)
	}
	if err := s.store.DeleteMembership(ctx, membershipID); err != nil {
		return nil, tenancy.Wrap(op, err)
	}

	removal := &Removal{Membership: m}
	profile, perr := s.store.GetProfile(ctx, m.PrincipalID)
	switch {
	case perr == nil:
		removal.LeftDanglingActiveTenant = profile.ActiveOrganizationID != nil && *profile.ActiveOrganizationID == m.OrganizationID
	case !errors.Is(perr, tenancy.ErrProfileNotFound):
		s.logger.Warn().Err(perr).Str("principal_id", m.PrincipalID).Msg("could not check active tenant after removal")
	}
	if removal.LeftDanglingActiveTenant {
		s.logger.Warn().Str("principal_id", m.PrincipalID).Str("organization_id", m.OrganizationID).Msg("removed membership was the active tenant")
	}

	s.auditor.Record(ctx, audit.Entry{
		ActorID:        actorID,
		OrganizationID: m.OrganizationID,
		Action:         audit.ActionMemberRemoved,
		ResourceType:   "membership",
		ResourceID:     membershipID,
		Metadata:       map[string]interface{}{"principal_id": m.PrincipalID, "role": string(m.RoleName)},
	})
	return removal, nil
}

// AddMember links an existing principal, found by email, to orgID with role
// (Member when empty). It never creates principals.
func (s *Service) AddMember(ctx context.Context, actorID, orgID, email string, role models.Role) (_ *models.Membership, err error) {
	const op = "add member"
	defer func() { metrics.IncAdminOperation("membership_add", metrics.Result(err)) }()

	email = strings.TrimSpace(email)
	if err := validator.Email(email); err != nil {
		return nil, tenancy.Invalid(op, "%v", err)
	}
	if role == "" {
		role = models.RoleMember
	}

	org, err := s.store.GetOrganization(ctx, orgID)
	if err != nil {
		return nil, tenancy.Wrap(op, err)
	}
	principal, err := s.identity.LookupByEmail(ctx, email)
	if err != nil {
		return nil, tenancy.Wrap(op, err)
	}

	m, err := Admit(ctx, s.store, Proposal{
		PrincipalID:    principal.ID,
		OrganizationID: org.ID,
		Role:           role,
		Path:           PathAdministrative,
	}, org)
	if err != nil {
		return nil, tenancy.Wrap(op, err)
	}

	s.logger.Info().Str("actor_id", actorID).Str("organization_id", orgID).Str("principal_id", principal.ID).Msg("member added")
	s.auditor.Record(ctx, audit.Entry{
		ActorID:        actorID,
		OrganizationID: orgID,
		Action:         audit.ActionMemberAdded,
		ResourceType:   "membership",
		ResourceID:     m.ID,
		Metadata:       map[string]interface{}{"principal_id": principal.ID, "role": string(role)},
	})
	return m, nil
}

// Admit checks p against a fresh snapshot of org and inserts the membership.
// The store's uniqueness constraint remains the backstop for racing writers.
func Admit(ctx context.Context, store tenancy.TenantStore, p Proposal, org *models.Organization) (*models.Membership, error) {
	const op = "admit membership"

	snap, err := LoadSnapshot(ctx, store, p.PrincipalID, org, p.Role)
	if err != nil {
		return nil, err
	}
	if err := Check(p, snap); err != nil {
		metrics.IncMembershipDecision(p.Path.String(), outcome(err))
		return nil, err
	}
	metrics.IncMembershipDecision(p.Path.String(), "allowed")

	role, err := store.GetRoleByName(ctx, p.Role)
	if err != nil {
		return nil, tenancy.Wrap(op, err)
	}

	m := &models.Membership{
		ID:             "mem_" + uuid.New().String(),
		PrincipalID:    p.PrincipalID,
		OrganizationID: p.OrganizationID,
		RoleID:         role.ID,
		RoleName:       role.Name,
		CreatedAt:      time.Now().Unix(),
	}
	if err := store.InsertMembership(ctx, m); err != nil {
		return nil, tenancy.Wrap(op, err)
	}
	return m, nil
}

func outcome(err error) string {
	switch {
	case errors.Is(err, tenancy.ErrDuplicateMembership):
		return "duplicate"
	case errors.Is(err, tenancy.ErrSeatLimitExceeded):
		return "seat_limit"
	case errors.Is(err, tenancy.ErrRoleNotAssignable):
		return "role_not_assignable"
	default:
		return "invalid"
	}
}

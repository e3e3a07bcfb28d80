package provisioning

import (
	"context"
	"strings"

	"orgconsole/internal/engine/membership"
	"orgconsole/internal/engine/tenancy"
	"orgconsole/internal/pkg/validator"
	"orgconsole/internal/platform/audit"
	"orgconsole/internal/platform/models"
)

type JoinOrganizationRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	FullName       string `json:"full_name"`
	OrganizationID string `json:"organization_id"`
}

func (r *JoinOrganizationRequest) validate() error {
	const op = "validate join request"

	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.OrganizationID = strings.TrimSpace(r.OrganizationID)

	for _, err := range []error{
		validator.Email(r.Email),
		validator.Secret(r.Password),
		validator.Required("organization", r.OrganizationID),
	} {
		if err != nil {
			return tenancy.Invalid(op, "%v", err)
		}
	}
	return nil
}

type JoinOrganizationResult struct {
	PrincipalID      string             `json:"principal_id"`
	PrincipalCreated bool               `json:"principal_created"`
	Membership       *models.Membership `json:"membership"`
}

// JoinOrganization makes the principal, signed in or newly registered, a
// Member of an existing tenant and points its profile at that tenant.
func (p *Provisioner) JoinOrganization(ctx context.Context, req JoinOrganizationRequest) (*JoinOrganizationResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	res := &JoinOrganizationResult{}
	var (
		org         *models.Organization
		priorActive *string
	)

	saga := NewSaga("join_organization", p.logger).
		Step("load organization", func(ctx context.Context) (Compensation, error) {
			var err error
			org, err = p.store.GetOrganization(ctx, req.OrganizationID)
			if err != nil {
				return nil, err
			}
			if org.IsDefault {
				return nil, tenancy.E(tenancy.KindValidation, "load organization", tenancy.ErrDefaultTenant)
			}
			return nil, nil
		}).
		Step("resolve principal", func(ctx context.Context) (Compensation, error) {
			id, created, err := p.resolvePrincipal(ctx, req.Email, req.Password)
			if err != nil {
				return nil, err
			}
			res.PrincipalID, res.PrincipalCreated = id, created
			if !created {
				return nil, nil
			}
			return p.deletePrincipal(id), nil
		}).
		Step("create profile", func(ctx context.Context) (Compensation, error) {
			if !res.PrincipalCreated {
				return nil, nil
			}
			profile := tenancy.NewProfile(res.PrincipalID, optional(req.FullName), &org.ID)
			if err := p.store.InsertProfile(ctx, profile); err != nil {
				return nil, err
			}
			return func(ctx context.Context) error {
				return p.store.DeleteProfile(ctx, res.PrincipalID)
			}, nil
		}).
		Step("insert member membership", func(ctx context.Context) (Compensation, error) {
			m, err := membership.Admit(ctx, p.store, membership.Proposal{
				PrincipalID:    res.PrincipalID,
				OrganizationID: org.ID,
				Role:           models.RoleMember,
				Path:           membership.PathSelfService,
			}, org)
			if err != nil {
				return nil, err
			}
			res.Membership = m
			return func(ctx context.Context) error {
				return p.store.DeleteMembership(ctx, m.ID)
			}, nil
		}).
		Step("ensure profile", func(ctx context.Context) (Compensation, error) {
			if res.PrincipalCreated {
				return nil, nil
			}
			profile, created, err := tenancy.EnsureProfile(ctx, p.store, res.PrincipalID, optional(req.FullName))
			if err != nil {
				return nil, err
			}
			priorActive = profile.ActiveOrganizationID
			if !created {
				return nil, nil
			}
			return func(ctx context.Context) error {
				return p.store.DeleteProfile(ctx, res.PrincipalID)
			}, nil
		}).
		Step("activate organization", func(ctx context.Context) (Compensation, error) {
			if res.PrincipalCreated {
				return nil, nil
			}
			if err := p.store.SetActiveOrganization(ctx, res.PrincipalID, &org.ID); err != nil {
				return nil, err
			}
			return func(ctx context.Context) error {
				return p.store.SetActiveOrganization(ctx, res.PrincipalID, priorActive)
			}, nil
		})

	if err := saga.Run(ctx); err != nil {
		return nil, err
	}

	p.logger.Info().Str("principal_id", res.PrincipalID).Str("organization_id", org.ID).Bool("principal_created", res.PrincipalCreated).Msg("organization joined")
	p.auditor.Record(ctx, audit.Entry{
		ActorID:        res.PrincipalID,
		OrganizationID: org.ID,
		Action:         audit.ActionMemberJoined,
		ResourceType:   "membership",
		ResourceID:     res.Membership.ID,
		Metadata:       map[string]interface{}{"principal_created": res.PrincipalCreated},
	})
	return res, nil
}

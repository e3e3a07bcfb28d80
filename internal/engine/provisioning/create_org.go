package provisioning

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"orgconsole/internal/engine/membership"
	"orgconsole/internal/engine/tenancy"
	"orgconsole/internal/pkg/validator"
	"orgconsole/internal/platform/audit"
	"orgconsole/internal/platform/models"
)

type CreateOrganizationRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`

	Name               string `json:"organization_name"`
	RegistrationNumber string `json:"registration_number"`
	TaxNumber          string `json:"tax_number"`
	OrganizationEmail  string `json:"organization_email"`
	Address            string `json:"address"`
	Phone              string `json:"phone"`
	SubscriptionPlanID string `json:"subscription_plan_id"`
}

func (r *CreateOrganizationRequest) normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Name = strings.TrimSpace(r.Name)
	r.RegistrationNumber = strings.TrimSpace(r.RegistrationNumber)
	r.TaxNumber = strings.TrimSpace(r.TaxNumber)
	r.SubscriptionPlanID = strings.TrimSpace(r.SubscriptionPlanID)
}

func (r *CreateOrganizationRequest) validate() error {
	const op = "validate organization request"

	checks := []error{
		validator.Email(r.Email),
		validator.Secret(r.Password),
		validator.Required("organization name", r.Name),
		validator.Identifier("registration number", r.RegistrationNumber),
		validator.Identifier("tax number", r.TaxNumber),
	}
	if r.OrganizationEmail != "" {
		checks = append(checks, validator.Email(r.OrganizationEmail))
	}
	for _, err := range checks {
		if err != nil {
			return tenancy.Invalid(op, "%v", err)
		}
	}
	return nil
}

type CreateOrganizationResult struct {
	PrincipalID      string               `json:"principal_id"`
	PrincipalCreated bool                 `json:"principal_created"`
	Organization     *models.Organization `json:"organization"`
	Membership       *models.Membership   `json:"membership"`
}

// CreateOrganization makes the principal, signed in or newly registered, the
// Admin of a brand-new tenant that becomes its active one.
func (p *Provisioner) CreateOrganization(ctx context.Context, req CreateOrganizationRequest) (*CreateOrganizationResult, error) {
	req.normalize()
	if err := req.validate(); err != nil {
		return nil, err
	}

	res := &CreateOrganizationResult{}
	now := time.Now().Unix()
	org := &models.Organization{
		ID:                 "org_" + uuid.New().String(),
		Name:               req.Name,
		Email:              optional(req.OrganizationEmail),
		Address:            optional(req.Address),
		Phone:              optional(req.Phone),
		RegistrationNumber: req.RegistrationNumber,
		TaxNumber:          req.TaxNumber,
		SubscriptionPlanID: optional(req.SubscriptionPlanID),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if org.SubscriptionPlanID != nil {
		org.SubscriptionStartDate = &now
	}
	var priorActive *string

	saga := NewSaga("create_organization", p.logger).
		Step("check identifiers", func(ctx context.Context) (Compensation, error) {
			existing, err := p.store.FindOrganizationsByIdentifiers(ctx, org.RegistrationNumber, org.TaxNumber)
			if err != nil {
				return nil, err
			}
			if len(existing) > 0 {
				return nil, tenancy.E(tenancy.KindConflict, "check identifiers", tenancy.ErrTenantAlreadyExists)
			}
			if org.SubscriptionPlanID != nil {
				if _, err := p.store.GetPlan(ctx, *org.SubscriptionPlanID); err != nil {
					return nil, err
				}
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
		Step("ensure profile", func(ctx context.Context) (Compensation, error) {
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
		Step("insert organization", func(ctx context.Context) (Compensation, error) {
			if err := p.store.InsertOrganization(ctx, org); err != nil {
				return nil, err
			}
			return func(ctx context.Context) error {
				return p.store.DeleteOrganization(ctx, org.ID)
			}, nil
		}).
		Step("activate organization", func(ctx context.Context) (Compensation, error) {
			if err := p.store.SetActiveOrganization(ctx, res.PrincipalID, &org.ID); err != nil {
				return nil, err
			}
			return func(ctx context.Context) error {
				return p.store.SetActiveOrganization(ctx, res.PrincipalID, priorActive)
			}, nil
		}).
		Step("insert admin membership", func(ctx context.Context) (Compensation, error) {
			m, err := membership.Admit(ctx, p.store, membership.Proposal{
				PrincipalID:    res.PrincipalID,
				OrganizationID: org.ID,
				Role:           models.RoleAdmin,
				Path:           membership.PathOrganizationCreation,
			}, org)
			if err != nil {
				return nil, err
			}
			res.Membership = m
			return func(ctx context.Context) error {
				return p.store.DeleteMembership(ctx, m.ID)
			}, nil
		})

	if err := saga.Run(ctx); err != nil {
		return nil, err
	}
	res.Organization = org

	p.logger.Info().Str("principal_id", res.PrincipalID).Str("organization_id", org.ID).Bool("principal_created", res.PrincipalCreated).Msg("organization created")
	p.auditor.Record(ctx, audit.Entry{
		ActorID:        res.PrincipalID,
		OrganizationID: org.ID,
		Action:         audit.ActionOrganizationCreated,
		ResourceType:   "organization",
		ResourceID:     org.ID,
		Metadata:       map[string]interface{}{"membership_id": res.Membership.ID, "principal_created": res.PrincipalCreated},
	})
	return res, nil
}

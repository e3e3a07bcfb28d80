package provisioning

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"orgconsole/internal/engine/tenancy"
)

type Provisioner struct {
	store    tenancy.TenantStore
	identity tenancy.IdentityProvider
	auditor  tenancy.Auditor
	logger   zerolog.Logger
}

func NewProvisioner(store tenancy.TenantStore, identity tenancy.IdentityProvider, auditor tenancy.Auditor, logger zerolog.Logger) *Provisioner {
	if auditor == nil {
		auditor = tenancy.NopAuditor{}
	}
	return &Provisioner{
		store:    store,
		identity: identity,
		auditor:  auditor,
		logger:   logger.With().Str("component", "provisioning").Logger(),
	}
}

// resolvePrincipal signs the principal in, or registers it when no account
// matches. An email that is registered under another secret is an
// authentication failure, not a conflict.
func (p *Provisioner) resolvePrincipal(ctx context.Context, email, secret string) (id string, created bool, err error) {
	const op = "resolve principal"

	id, err = p.identity.Authenticate(ctx, email, secret)
	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, tenancy.ErrInvalidCredentials) {
		return "", false, tenancy.Wrap(op, err)
	}

	id, err = p.identity.CreatePrincipal(ctx, email, secret)
	if errors.Is(err, tenancy.ErrAlreadyRegistered) {
		return "", false, tenancy.E(tenancy.KindAuthentication, op, tenancy.ErrInvalidCredentials)
	}
	if err != nil {
		return "", false, tenancy.Wrap(op, err)
	}
	return id, true, nil
}

func (p *Provisioner) deletePrincipal(id string) Compensation {
	return func(ctx context.Context) error {
		return p.identity.DeletePrincipal(ctx, id)
	}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

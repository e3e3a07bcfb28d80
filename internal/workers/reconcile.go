// Package workers holds the periodic background jobs run by cmd/worker.
package workers

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"orgconsole/internal/engine/access"
	"orgconsole/internal/engine/tenancy"
	"orgconsole/internal/platform/metrics"
)

const DefaultInterval = 5 * time.Minute

// DanglingProfile is a profile whose active tenant is not backed by a membership.
type DanglingProfile struct {
	PrincipalID    string `json:"principal_id"`
	OrganizationID string `json:"organization_id"`
	// OrganizationMissing is set when the tenant itself no longer exists.
	OrganizationMissing bool `json:"organization_missing"`
}

type Report struct {
	CheckedAt            int64             `json:"checked_at"`
	DanglingProfiles     []DanglingProfile `json:"dangling_profiles"`
	ExpiredOrganizations []string          `json:"expired_organizations"`
}

// Reconciler finds state the engine tolerates but an operator should look at.
// It never writes.
type Reconciler struct {
	store  tenancy.TenantStore
	logger zerolog.Logger
	now    func() time.Time
}

func NewReconciler(store tenancy.TenantStore, logger zerolog.Logger) *Reconciler {
	return &Reconciler{
		store:  store,
		logger: logger.With().Str("component", "reconciler").Logger(),
		now:    time.Now,
	}
}

// Reconcile builds a report and publishes its counts as gauges.
func (r *Reconciler) Reconcile(ctx context.Context) (*Report, error) {
	now := r.now()
	report := &Report{CheckedAt: now.Unix()}

	orgs, err := r.store.ListOrganizations(ctx)
	if err != nil {
		return nil, err
	}
	defaults := map[string]bool{}
	for _, org := range orgs {
		if org.IsDefault {
			defaults[org.ID] = true
			continue
		}
		if access.IsExpired(org, now) {
			report.ExpiredOrganizations = append(report.ExpiredOrganizations, org.ID)
		}
	}

	profiles, err := r.store.ListProfiles(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range profiles {
		if p.ActiveOrganizationID == nil || defaults[*p.ActiveOrganizationID] {
			continue
		}
		orgID := *p.ActiveOrganizationID

		memberships, err := r.store.FindMemberships(ctx, p.PrincipalID, orgID)
		if err != nil {
			return nil, err
		}
		_, err = r.store.GetOrganization(ctx, orgID)
		missing := errors.Is(err, tenancy.ErrOrganizationNotFound)
		if err != nil && !missing {
			return nil, err
		}
		if len(memberships) > 0 && !missing {
			continue
		}
		report.DanglingProfiles = append(report.DanglingProfiles, DanglingProfile{
			PrincipalID:         p.PrincipalID,
			OrganizationID:      orgID,
			OrganizationMissing: missing,
		})
	}

	metrics.SetDanglingActiveTenants(len(report.DanglingProfiles))
	metrics.SetExpiredSubscriptions(len(report.ExpiredOrganizations))

	for _, d := range report.DanglingProfiles {
		r.logger.Warn().Str("principal_id", d.PrincipalID).Str("organization_id", d.OrganizationID).
			Bool("organization_missing", d.OrganizationMissing).Msg("dangling active tenant")
	}
	r.logger.Info().Int("dangling_profiles", len(report.DanglingProfiles)).
		Int("expired_organizations", len(report.ExpiredOrganizations)).Msg("reconciliation finished")
	return report, nil
}

// Run reconciles every interval until ctx is done. A failed pass is logged and
// retried on the next tick.
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := r.Reconcile(ctx); err != nil && ctx.Err() == nil {
			r.logger.Error().Err(err).Msg("reconciliation failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

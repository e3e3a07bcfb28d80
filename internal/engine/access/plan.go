package access

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"orgconsole/internal/engine/tenancy"
	"orgconsole/internal/platform/models"
)

// PlanOf reads org's subscription plan for a listing. A plan that can't be
// read, missing or otherwise, is logged and degrades the expiration to
// ExpirationUnknown instead of failing the caller. Write paths must not use
// it: they fail closed on a dangling plan.
func PlanOf(ctx context.Context, plans tenancy.ReferenceStore, org *models.Organization, now time.Time, logger zerolog.Logger) (*models.SubscriptionPlan, Expiration) {
	expiration := ExpirationOf(org, now)
	if org.SubscriptionPlanID == nil {
		return nil, expiration
	}
	plan, err := plans.GetPlan(ctx, *org.SubscriptionPlanID)
	if err != nil {
		logger.Warn().Err(err).Str("organization_id", org.ID).Str("plan_id", *org.SubscriptionPlanID).Msg("subscription plan unreadable")
		return nil, ExpirationUnknown
	}
	return plan, expiration
}

package tenancytest

import (
	"fmt"
	"sync/atomic"
	"time"

	"orgconsole/internal/platform/models"
)

var fixtureSeq atomic.Int64

// DefaultOrganization stores the seeded no-organization fallback tenant.
func (s *Store) DefaultOrganization() *models.Organization {
	org := &models.Organization{
		ID:                 "org_default",
		Name:               "Default",
		RegistrationNumber: "DEFAULT",
		TaxNumber:          "DEFAULT",
		IsDefault:          true,
	}
	s.PutOrganization(org)
	return org
}

// Organization stores a regular tenant on a plan with maxUsers seats.
// A negative maxUsers stores a tenant without any plan.
func (s *Store) Organization(name string, maxUsers int) *models.Organization {
	n := fixtureSeq.Add(1)
	org := &models.Organization{
		ID:                 fmt.Sprintf("org_%s_%d", name, n),
		Name:               name,
		RegistrationNumber: fmt.Sprintf("REG-%d", n),
		TaxNumber:          fmt.Sprintf("TAX-%d", n),
		CreatedAt:          time.Now().Unix(),
		UpdatedAt:          time.Now().Unix(),
	}
	if maxUsers >= 0 {
		plan := &models.SubscriptionPlan{
			ID:       fmt.Sprintf("plan_%d", n),
			Name:     fmt.Sprintf("plan-%d", maxUsers),
			MaxUsers: maxUsers,
			Currency: "USD",
		}
		s.PutPlan(plan)
		org.SubscriptionPlanID = &plan.ID
	}
	s.PutOrganization(org)
	return org
}

// Member stores a membership with the given role and returns it.
func (s *Store) Member(principalID, orgID string, role models.Role) *models.Membership {
	m := &models.Membership{
		ID:             fmt.Sprintf("mem_%d", fixtureSeq.Add(1)),
		PrincipalID:    principalID,
		OrganizationID: orgID,
		RoleName:       role,
	}
	s.PutMembership(m)
	return m
}

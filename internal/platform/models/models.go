package models

// Principal is the identity-provider view of a person. Credentials never leave the provider.
type Principal struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	CreatedAt int64  `json:"created_at"`
}

// Profile is one-to-one with a Principal.
type Profile struct {
	ID                   string  `json:"id"`
	PrincipalID          string  `json:"principal_id"`
	FullName             *string `json:"full_name,omitempty"`
	ActiveOrganizationID *string `json:"active_organization_id,omitempty"`
	LastActiveAt         *int64  `json:"last_active_at,omitempty"`
	CreatedAt            int64   `json:"created_at"`
	UpdatedAt            int64   `json:"updated_at"`
}

type Organization struct {
	ID                    string  `json:"id"`
	Name                  string  `json:"name"`
	Email                 *string `json:"email,omitempty"`
	Address               *string `json:"address,omitempty"`
	Phone                 *string `json:"phone,omitempty"`
	RegistrationNumber    string  `json:"registration_number"`
	TaxNumber             string  `json:"tax_number"`
	SubscriptionPlanID    *string `json:"subscription_plan_id,omitempty"`
	SubscriptionStartDate *int64  `json:"subscription_start_date,omitempty"`
	SubscriptionEndDate   *int64  `json:"subscription_end_date,omitempty"`
	IsDefault             bool    `json:"is_default"`
	IsBlocked             bool    `json:"is_blocked"`
	CreatedAt             int64   `json:"created_at"`
	UpdatedAt             int64   `json:"updated_at"`
}

// SubscriptionPlan is immutable reference data. A negative MaxUsers means unlimited seats.
type SubscriptionPlan struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	MaxUsers   int    `json:"max_users"`
	PriceCents int64  `json:"price_cents"`
	Currency   string `json:"currency"`
}

// Unlimited reports whether the plan places no cap on memberships.
func (p *SubscriptionPlan) Unlimited() bool {
	return p.MaxUsers < 0
}

type Membership struct {
	ID             string `json:"id"`
	PrincipalID    string `json:"principal_id"`
	OrganizationID string `json:"organization_id"`
	RoleID         string `json:"role_id"`
	RoleName       Role   `json:"role_name"`
	IsBlocked      bool   `json:"is_blocked"`
	CreatedAt      int64  `json:"created_at"`
}

// RoleRecord is the lookup row backing a Role.
type RoleRecord struct {
	ID   string `json:"id"`
	Name Role   `json:"name"`
}

package repositories

import (
	"database/sql"

	"orgconsole/internal/engine/tenancy"
)

// Store is the SQL tenant store. Each method is a single statement; nothing
// here spans rows in a transaction.
type Store struct {
	*OrganizationRepository
	*MembershipRepository
	*ProfileRepository
	*ReferenceRepository
}

var _ tenancy.TenantStore = (*Store)(nil)

func NewStore(db *sql.DB) *Store {
	return &Store{
		OrganizationRepository: NewOrganizationRepository(db),
		MembershipRepository:   NewMembershipRepository(db),
		ProfileRepository:      NewProfileRepository(db),
		ReferenceRepository:    NewReferenceRepository(db),
	}
}

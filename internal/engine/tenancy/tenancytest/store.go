// Package tenancytest provides in-memory implementations of the tenancy
// contracts for tests. Any method can be made to fail with FailOn, and every
// call is recorded so tests can assert on what was (not) attempted.
package tenancytest

import (
	"context"
	"sort"
	"sync"
	"time"

	"orgconsole/internal/engine/tenancy"
	"orgconsole/internal/platform/models"
)

type recorder struct {
	calls       []string
	failures    map[string]error
	rowFailures map[string]error
}

func (r *recorder) enter(method string) error {
	r.calls = append(r.calls, method)
	return r.failures[method]
}

// enterRow is enter for single-row reads; a failure set on id wins.
func (r *recorder) enterRow(method, id string) error {
	if err := r.enter(method); err != nil {
		return err
	}
	return r.rowFailures[id]
}

// Store implements tenancy.TenantStore in memory.
type Store struct {
	mu sync.Mutex
	recorder

	orgs        map[string]*models.Organization
	memberships map[string]*models.Membership
	profiles    map[string]*models.Profile // principal_id -> profile
	plans       map[string]*models.SubscriptionPlan
	roles       map[models.Role]*models.RoleRecord
	seq         int64
}

var _ tenancy.TenantStore = (*Store)(nil)

// NewStore returns a store seeded with the three roles.
func NewStore() *Store {
	s := &Store{
		recorder:    recorder{failures: map[string]error{}, rowFailures: map[string]error{}},
		orgs:        map[string]*models.Organization{},
		memberships: map[string]*models.Membership{},
		profiles:    map[string]*models.Profile{},
		plans:       map[string]*models.SubscriptionPlan{},
		roles:       map[models.Role]*models.RoleRecord{},
	}
	for _, r := range models.Roles {
		s.roles[r] = &models.RoleRecord{ID: "role_" + string(r), Name: r}
	}
	return s
}

// FailOn makes every later call to method return err. A nil err clears it.
func (s *Store) FailOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, method)
		return
	}
	s.failures[method] = err
}

// FailOnRow makes single-row reads (GetOrganization, GetPlan) of id return err.
// A nil err clears it.
func (s *Store) FailOnRow(id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.rowFailures, id)
		return
	}
	s.rowFailures[id] = err
}

// Calls returns the method names invoked so far, in order.
func (s *Store) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// Called reports whether method was invoked at least once.
func (s *Store) Called(method string) bool {
	for _, c := range s.Calls() {
		if c == method {
			return true
		}
	}
	return false
}

// PutOrganization stores org directly, bypassing failure injection.
func (s *Store) PutOrganization(org *models.Organization) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *org
	s.orgs[org.ID] = &clone
}

func (s *Store) PutPlan(plan *models.SubscriptionPlan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *plan
	s.plans[plan.ID] = &clone
}

func (s *Store) PutProfile(p *models.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *p
	s.profiles[p.PrincipalID] = &clone
}

// PutMembership stores m directly. CreatedAt is filled with a monotonic value when zero.
func (s *Store) PutMembership(m *models.Membership) {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *m
	if clone.CreatedAt == 0 {
		s.seq++
		clone.CreatedAt = s.seq
	}
	if clone.RoleID == "" {
		clone.RoleID = "role_" + string(clone.RoleName)
	}
	s.memberships[m.ID] = &clone
}

// Organizations returns a snapshot of all tenants.
func (s *Store) Organizations() []*models.Organization {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Organization, 0, len(s.orgs))
	for _, o := range s.orgs {
		clone := *o
		out = append(out, &clone)
	}
	return out
}

// Memberships returns a snapshot of all memberships.
func (s *Store) Memberships() []*models.Membership {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Membership, 0, len(s.memberships))
	for _, m := range s.memberships {
		clone := *m
		out = append(out, &clone)
	}
	return out
}

// Profile returns the stored profile or nil.
func (s *Store) Profile(principalID string) *models.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[principalID]
	if !ok {
		return nil
	}
	clone := *p
	return &clone
}

func (s *Store) GetOrganization(ctx context.Context, id string) (*models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enterRow("GetOrganization", id); err != nil {
		return nil, err
	}
	o, ok := s.orgs[id]
	if !ok {
		return nil, tenancy.ErrOrganizationNotFound
	}
	clone := *o
	return &clone, nil
}

func (s *Store) ListOrganizations(ctx context.Context) ([]*models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListOrganizations"); err != nil {
		return nil, err
	}
	out := make([]*models.Organization, 0, len(s.orgs))
	for _, o := range s.orgs {
		clone := *o
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) FindOrganizationsByIdentifiers(ctx context.Context, registrationNumber, taxNumber string) ([]*models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("FindOrganizationsByIdentifiers"); err != nil {
		return nil, err
	}
	var out []*models.Organization
	for _, o := range s.orgs {
		if o.RegistrationNumber == registrationNumber || o.TaxNumber == taxNumber {
			clone := *o
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (s *Store) InsertOrganization(ctx context.Context, org *models.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("InsertOrganization"); err != nil {
		return err
	}
	for _, o := range s.orgs {
		if o.ID == org.ID || o.RegistrationNumber == org.RegistrationNumber || o.TaxNumber == org.TaxNumber {
			return tenancy.ErrTenantAlreadyExists
		}
	}
	clone := *org
	s.orgs[org.ID] = &clone
	return nil
}

func (s *Store) UpdateOrganization(ctx context.Context, org *models.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("UpdateOrganization"); err != nil {
		return err
	}
	if _, ok := s.orgs[org.ID]; !ok {
		return tenancy.ErrOrganizationNotFound
	}
	clone := *org
	clone.UpdatedAt = time.Now().Unix()
	s.orgs[org.ID] = &clone
	return nil
}

func (s *Store) SetOrganizationBlocked(ctx context.Context, id string, blocked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("SetOrganizationBlocked"); err != nil {
		return err
	}
	o, ok := s.orgs[id]
	if !ok {
		return tenancy.ErrOrganizationNotFound
	}
	o.IsBlocked = blocked
	return nil
}

func (s *Store) DeleteOrganization(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("DeleteOrganization"); err != nil {
		return err
	}
	if _, ok := s.orgs[id]; !ok {
		return tenancy.ErrOrganizationNotFound
	}
	delete(s.orgs, id)
	return nil
}

func (s *Store) GetMembership(ctx context.Context, id string) (*models.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetMembership"); err != nil {
		return nil, err
	}
	m, ok := s.memberships[id]
	if !ok {
		return nil, tenancy.ErrMembershipNotFound
	}
	clone := *m
	return &clone, nil
}

func (s *Store) filterMemberships(keep func(*models.Membership) bool) []*models.Membership {
	var out []*models.Membership
	for _, m := range s.memberships {
		if keep(m) {
			clone := *m
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt == out[j].CreatedAt {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt < out[j].CreatedAt
	})
	return out
}

func (s *Store) ListMembershipsByPrincipal(ctx context.Context, principalID string) ([]*models.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListMembershipsByPrincipal"); err != nil {
		return nil, err
	}
	return s.filterMemberships(func(m *models.Membership) bool { return m.PrincipalID == principalID }), nil
}

func (s *Store) ListMembershipsByOrganization(ctx context.Context, orgID string) ([]*models.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListMembershipsByOrganization"); err != nil {
		return nil, err
	}
	return s.filterMemberships(func(m *models.Membership) bool { return m.OrganizationID == orgID }), nil
}

func (s *Store) ListMembershipsByRole(ctx context.Context, role models.Role) ([]*models.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListMembershipsByRole"); err != nil {
		return nil, err
	}
	return s.filterMemberships(func(m *models.Membership) bool { return m.RoleName == role }), nil
}

func (s *Store) FindMemberships(ctx context.Context, principalID, orgID string) ([]*models.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("FindMemberships"); err != nil {
		return nil, err
	}
	return s.filterMemberships(func(m *models.Membership) bool {
		return m.PrincipalID == principalID && m.OrganizationID == orgID
	}), nil
}

func (s *Store) CountMemberships(ctx context.Context, orgID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("CountMemberships"); err != nil {
		return 0, err
	}
	n := 0
	for _, m := range s.memberships {
		if m.OrganizationID == orgID {
			n++
		}
	}
	return n, nil
}

func (s *Store) InsertMembership(ctx context.Context, m *models.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("InsertMembership"); err != nil {
		return err
	}
	for _, existing := range s.memberships {
		if existing.PrincipalID == m.PrincipalID && existing.OrganizationID == m.OrganizationID {
			return tenancy.ErrDuplicateMembership
		}
	}
	clone := *m
	s.seq++
	if clone.CreatedAt == 0 {
		clone.CreatedAt = s.seq
	}
	s.memberships[m.ID] = &clone
	return nil
}

func (s *Store) SetMembershipBlocked(ctx context.Context, id string, blocked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("SetMembershipBlocked"); err != nil {
		return err
	}
	m, ok := s.memberships[id]
	if !ok {
		return tenancy.ErrMembershipNotFound
	}
	m.IsBlocked = blocked
	return nil
}

func (s *Store) DeleteMembership(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("DeleteMembership"); err != nil {
		return err
	}
	if _, ok := s.memberships[id]; !ok {
		return tenancy.ErrMembershipNotFound
	}
	delete(s.memberships, id)
	return nil
}

func (s *Store) GetProfile(ctx context.Context, principalID string) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetProfile"); err != nil {
		return nil, err
	}
	p, ok := s.profiles[principalID]
	if !ok {
		return nil, tenancy.ErrProfileNotFound
	}
	clone := *p
	return &clone, nil
}

func (s *Store) ListProfiles(ctx context.Context) ([]*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListProfiles"); err != nil {
		return nil, err
	}
	out := make([]*models.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		clone := *p
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PrincipalID < out[j].PrincipalID })
	return out, nil
}

func (s *Store) InsertProfile(ctx context.Context, p *models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("InsertProfile"); err != nil {
		return err
	}
	if _, ok := s.profiles[p.PrincipalID]; ok {
		return tenancy.E(tenancy.KindConflict, "insert profile", tenancy.ErrInvalidInput)
	}
	clone := *p
	s.profiles[p.PrincipalID] = &clone
	return nil
}

func (s *Store) UpdateProfileName(ctx context.Context, principalID string, fullName *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("UpdateProfileName"); err != nil {
		return err
	}
	p, ok := s.profiles[principalID]
	if !ok {
		return tenancy.ErrProfileNotFound
	}
	p.FullName = fullName
	p.UpdatedAt = time.Now().Unix()
	return nil
}

func (s *Store) SetActiveOrganization(ctx context.Context, principalID string, orgID *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("SetActiveOrganization"); err != nil {
		return err
	}
	p, ok := s.profiles[principalID]
	if !ok {
		return tenancy.ErrProfileNotFound
	}
	now := time.Now().Unix()
	if orgID != nil {
		id := *orgID
		p.ActiveOrganizationID = &id
	} else {
		p.ActiveOrganizationID = nil
	}
	p.LastActiveAt = &now
	p.UpdatedAt = now
	return nil
}

func (s *Store) DeleteProfile(ctx context.Context, principalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("DeleteProfile"); err != nil {
		return err
	}
	if _, ok := s.profiles[principalID]; !ok {
		return tenancy.ErrProfileNotFound
	}
	delete(s.profiles, principalID)
	return nil
}

func (s *Store) GetPlan(ctx context.Context, id string) (*models.SubscriptionPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enterRow("GetPlan", id); err != nil {
		return nil, err
	}
	p, ok := s.plans[id]
	if !ok {
		return nil, tenancy.ErrPlanNotFound
	}
	clone := *p
	return &clone, nil
}

func (s *Store) ListPlans(ctx context.Context) ([]*models.SubscriptionPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("ListPlans"); err != nil {
		return nil, err
	}
	out := make([]*models.SubscriptionPlan, 0, len(s.plans))
	for _, p := range s.plans {
		clone := *p
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PriceCents < out[j].PriceCents })
	return out, nil
}

func (s *Store) GetRoleByName(ctx context.Context, name models.Role) (*models.RoleRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter("GetRoleByName"); err != nil {
		return nil, err
	}
	r, ok := s.roles[name]
	if !ok {
		return nil, tenancy.ErrRoleNotFound
	}
	clone := *r
	return &clone, nil
}

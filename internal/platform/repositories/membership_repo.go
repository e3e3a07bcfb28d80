package repositories

import (
	"context"
	"database/sql"
	"errors"

	"orgconsole/internal/engine/tenancy"
	"orgconsole/internal/platform/models"
)

const membershipSelect = `
	SELECT m.id, m.principal_id, m.organization_id, m.role_id, r.name, m.is_blocked, m.created_at
	FROM memberships m
	JOIN roles r ON r.id = m.role_id`

func scanMembership(row rowScanner) (*models.Membership, error) {
	m := &models.Membership{}
	var role string
	if err := row.Scan(&m.ID, &m.PrincipalID, &m.OrganizationID, &m.RoleID, &role, &m.IsBlocked, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.RoleName = models.Role(role)
	return m, nil
}

type MembershipRepository struct {
	db *sql.DB
}

func NewMembershipRepository(db *sql.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

func (r *MembershipRepository) GetMembership(ctx context.Context, id string) (*models.Membership, error) {
	m, err := scanMembership(r.db.QueryRowContext(ctx, membershipSelect+` WHERE m.id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, tenancy.ErrMembershipNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *MembershipRepository) list(ctx context.Context, where string, args ...any) ([]*models.Membership, error) {
	rows, err := r.db.QueryContext(ctx, membershipSelect+` WHERE `+where+` ORDER BY m.created_at, m.rowid`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *MembershipRepository) ListMembershipsByPrincipal(ctx context.Context, principalID string) ([]*models.Membership, error) {
	return r.list(ctx, `m.principal_id = ?`, principalID)
}

func (r *MembershipRepository) ListMembershipsByOrganization(ctx context.Context, orgID string) ([]*models.Membership, error) {
	return r.list(ctx, `m.organization_id = ?`, orgID)
}

func (r *MembershipRepository) ListMembershipsByRole(ctx context.Context, role models.Role) ([]*models.Membership, error) {
	return r.list(ctx, `r.name = ?`, string(role))
}

func (r *MembershipRepository) FindMemberships(ctx context.Context, principalID, orgID string) ([]*models.Membership, error) {
	return r.list(ctx, `m.principal_id = ? AND m.organization_id = ?`, principalID, orgID)
}

func (r *MembershipRepository) CountMemberships(ctx context.Context, orgID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM memberships WHERE organization_id = ?`, orgID).Scan(&n)
	return n, err
}

// InsertMembership relies on UNIQUE(principal_id, organization_id) as the
// authoritative guard against racing inserts.
func (r *MembershipRepository) InsertMembership(ctx context.Context, m *models.Membership) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO memberships (id, principal_id, organization_id, role_id, is_blocked, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, m.ID, m.PrincipalID, m.OrganizationID, m.RoleID, m.IsBlocked, m.CreatedAt)
	if isUniqueViolation(err) {
		return tenancy.ErrDuplicateMembership
	}
	return err
}

func (r *MembershipRepository) SetMembershipBlocked(ctx context.Context, id string, blocked bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE memberships SET is_blocked = ? WHERE id = ?`, blocked, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	return expectOne(affected, err, tenancy.ErrMembershipNotFound)
}

func (r *MembershipRepository) DeleteMembership(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM memberships WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	return expectOne(affected, err, tenancy.ErrMembershipNotFound)
}

package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"orgconsole/internal/engine/tenancy"
	"orgconsole/internal/platform/models"
)

const profileColumns = `id, principal_id, full_name, active_organization_id, last_active_at, created_at, updated_at`

func scanProfile(row rowScanner) (*models.Profile, error) {
	p := &models.Profile{}
	if err := row.Scan(&p.ID, &p.PrincipalID, &p.FullName, &p.ActiveOrganizationID, &p.LastActiveAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

type ProfileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) GetProfile(ctx context.Context, principalID string) (*models.Profile, error) {
	p, err := scanProfile(r.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE principal_id = ?`, principalID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, tenancy.ErrProfileNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *ProfileRepository) ListProfiles(ctx context.Context) ([]*models.Profile, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+profileColumns+` FROM profiles ORDER BY principal_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ProfileRepository) InsertProfile(ctx context.Context, p *models.Profile) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (`+profileColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.PrincipalID, p.FullName, p.ActiveOrganizationID, p.LastActiveAt, p.CreatedAt, p.UpdatedAt)
	if isUniqueViolation(err) {
		return tenancy.E(tenancy.KindConflict, "insert profile", err)
	}
	return err
}

func (r *ProfileRepository) UpdateProfileName(ctx context.Context, principalID string, fullName *string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE profiles SET full_name = ?, updated_at = ? WHERE principal_id = ?`, fullName, time.Now().Unix(), principalID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	return expectOne(affected, err, tenancy.ErrProfileNotFound)
}

func (r *ProfileRepository) SetActiveOrganization(ctx context.Context, principalID string, orgID *string) error {
	now := time.Now().Unix()
	res, err := r.db.ExecContext(ctx, `
		UPDATE profiles SET active_organization_id = ?, last_active_at = ?, updated_at = ? WHERE principal_id = ?
	`, orgID, now, now, principalID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	return expectOne(affected, err, tenancy.ErrProfileNotFound)
}

func (r *ProfileRepository) DeleteProfile(ctx context.Context, principalID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM profiles WHERE principal_id = ?`, principalID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	return expectOne(affected, err, tenancy.ErrProfileNotFound)
}

package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"orgconsole/internal/engine/tenancy"
	"orgconsole/internal/platform/models"
)

const organizationColumns = `id, name, email, address, phone, registration_number, tax_number, subscription_plan_id,
	subscription_start_date, subscription_end_date, is_default, is_blocked, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrganization(row rowScanner) (*models.Organization, error) {
	org := &models.Organization{}
	err := row.Scan(&org.ID, &org.Name, &org.Email, &org.Address, &org.Phone, &org.RegistrationNumber, &org.TaxNumber,
		&org.SubscriptionPlanID, &org.SubscriptionStartDate, &org.SubscriptionEndDate, &org.IsDefault, &org.IsBlocked,
		&org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return org, nil
}

type OrganizationRepository struct {
	db *sql.DB
}

func NewOrganizationRepository(db *sql.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

func (r *OrganizationRepository) GetOrganization(ctx context.Context, id string) (*models.Organization, error) {
	org, err := scanOrganization(r.db.QueryRowContext(ctx, `SELECT `+organizationColumns+` FROM organizations WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, tenancy.ErrOrganizationNotFound
		}
		return nil, err
	}
	return org, nil
}

func (r *OrganizationRepository) list(ctx context.Context, query string, args ...any) ([]*models.Organization, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orgs []*models.Organization
	for rows.Next() {
		org, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, org)
	}
	return orgs, rows.Err()
}

func (r *OrganizationRepository) ListOrganizations(ctx context.Context) ([]*models.Organization, error) {
	return r.list(ctx, `SELECT `+organizationColumns+` FROM organizations ORDER BY name, id`)
}

func (r *OrganizationRepository) FindOrganizationsByIdentifiers(ctx context.Context, registrationNumber, taxNumber string) ([]*models.Organization, error) {
	return r.list(ctx, `SELECT `+organizationColumns+` FROM organizations WHERE registration_number = ? OR tax_number = ?`, registrationNumber, taxNumber)
}

func (r *OrganizationRepository) InsertOrganization(ctx context.Context, org *models.Organization) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO organizations (`+organizationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, org.ID, org.Name, org.Email, org.Address, org.Phone, org.RegistrationNumber, org.TaxNumber, org.SubscriptionPlanID,
		org.SubscriptionStartDate, org.SubscriptionEndDate, org.IsDefault, org.IsBlocked, org.CreatedAt, org.UpdatedAt)
	if isUniqueViolation(err) {
		return tenancy.ErrTenantAlreadyExists
	}
	return err
}

func (r *OrganizationRepository) UpdateOrganization(ctx context.Context, org *models.Organization) error {
	if org.UpdatedAt == 0 {
		org.UpdatedAt = time.Now().Unix()
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE organizations
		SET name = ?, email = ?, address = ?, phone = ?, subscription_plan_id = ?,
			subscription_start_date = ?, subscription_end_date = ?, is_blocked = ?, updated_at = ?
		WHERE id = ?
	`, org.Name, org.Email, org.Address, org.Phone, org.SubscriptionPlanID,
		org.SubscriptionStartDate, org.SubscriptionEndDate, org.IsBlocked, org.UpdatedAt, org.ID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	return expectOne(affected, err, tenancy.ErrOrganizationNotFound)
}

func (r *OrganizationRepository) SetOrganizationBlocked(ctx context.Context, id string, blocked bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE organizations SET is_blocked = ?, updated_at = ? WHERE id = ?`, blocked, time.Now().Unix(), id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	return expectOne(affected, err, tenancy.ErrOrganizationNotFound)
}

func (r *OrganizationRepository) DeleteOrganization(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM organizations WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	return expectOne(affected, err, tenancy.ErrOrganizationNotFound)
}

package repositories

import (
	"context"
	"database/sql"
	"errors"

	"orgconsole/internal/engine/tenancy"
	"orgconsole/internal/platform/models"
)

type ReferenceRepository struct {
	db *sql.DB
}

func NewReferenceRepository(db *sql.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

func (r *ReferenceRepository) GetPlan(ctx context.Context, id string) (*models.SubscriptionPlan, error) {
	p := &models.SubscriptionPlan{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, max_users, price_cents, currency FROM subscription_plans WHERE id = ?
	`, id).Scan(&p.ID, &p.Name, &p.MaxUsers, &p.PriceCents, &p.Currency)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, tenancy.ErrPlanNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *ReferenceRepository) ListPlans(ctx context.Context) ([]*models.SubscriptionPlan, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, max_users, price_cents, currency FROM subscription_plans ORDER BY price_cents, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []*models.SubscriptionPlan
	for rows.Next() {
		p := &models.SubscriptionPlan{}
		if err := rows.Scan(&p.ID, &p.Name, &p.MaxUsers, &p.PriceCents, &p.Currency); err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

func (r *ReferenceRepository) GetRoleByName(ctx context.Context, name models.Role) (*models.RoleRecord, error) {
	rec := &models.RoleRecord{}
	var roleName string
	err := r.db.QueryRowContext(ctx, `SELECT id, name FROM roles WHERE name = ?`, string(name)).Scan(&rec.ID, &roleName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, tenancy.ErrRoleNotFound
		}
		return nil, err
	}
	rec.Name = models.Role(roleName)
	return rec, nil
}

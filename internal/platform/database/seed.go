package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"orgconsole/internal/platform/config"
	"orgconsole/internal/platform/models"
)

// DefaultOrganizationID is the fixed id of the seeded fallback tenant.
const DefaultOrganizationID = "org_default"

// RoleID returns the seeded id of role.
func RoleID(role models.Role) string {
	return "role_" + string(role)
}

// Seed writes the reference rows: roles, subscription plans and the default
// tenant. Existing rows are left untouched so seeding can be repeated.
func Seed(ctx context.Context, db *sql.DB, cfg config.SeedConfig) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, role := range models.Roles {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO roles (id, name) VALUES (?, ?)`, RoleID(role), string(role)); err != nil {
			return fmt.Errorf("seed role %s: %w", role, err)
		}
	}

	for _, p := range cfg.Plans {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO subscription_plans (id, name, max_users, price_cents, currency)
			VALUES (?, ?, ?, ?, ?)
		`, p.ID, p.Name, p.MaxUsers, p.PriceCents, p.Currency); err != nil {
			return fmt.Errorf("seed plan %s: %w", p.ID, err)
		}
	}

	def := cfg.DefaultOrganization
	var existing int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM organizations WHERE is_default = 1`).Scan(&existing); err != nil {
		return fmt.Errorf("check default organization: %w", err)
	}
	if existing == 0 {
		now := time.Now().Unix()
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO organizations (id, name, registration_number, tax_number, is_default, is_blocked, created_at, updated_at)
			VALUES (?, ?, ?, ?, 1, 0, ?, ?)
		`, DefaultOrganizationID, def.Name, def.RegistrationNumber, def.TaxNumber, now, now); err != nil {
			return fmt.Errorf("seed default organization: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	log.Info().Int("plans", len(cfg.Plans)).Bool("default_organization_created", existing == 0).Msg("reference data seeded")
	return nil
}

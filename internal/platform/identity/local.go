package identity

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"

	"orgconsole/internal/engine/tenancy"
	"orgconsole/internal/platform/models"
)

// dummyHash is compared against when the email is unknown so both failure
// paths cost one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("orgconsole-dummy-secret"), bcrypt.DefaultCost)

// Local is the identity provider backed by the principals table.
type Local struct {
	db   *sql.DB
	cost int
}

var _ tenancy.IdentityProvider = (*Local)(nil)

type Option func(*Local)

// WithCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func WithCost(cost int) Option {
	return func(l *Local) { l.cost = cost }
}

func NewLocal(db *sql.DB, opts ...Option) *Local {
	l := &Local{db: db, cost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (l *Local) CreatePrincipal(ctx context.Context, email, secret string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), l.cost)
	if err != nil {
		return "", err
	}

	id := "usr_" + uuid.NewString()
	_, err = l.db.ExecContext(ctx, `
		INSERT INTO principals (id, email, password_hash, created_at)
		VALUES (?, ?, ?, ?)
	`, id, normalizeEmail(email), string(hashed), time.Now().Unix())
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return "", tenancy.ErrAlreadyRegistered
		}
		return "", err
	}
	return id, nil
}

func (l *Local) Authenticate(ctx context.Context, email, secret string) (string, error) {
	var id, hash string
	err := l.db.QueryRowContext(ctx, `SELECT id, password_hash FROM principals WHERE email = ?`, normalizeEmail(email)).Scan(&id, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		bcrypt.CompareHashAndPassword(dummyHash, []byte(secret))
		return "", tenancy.ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)); err != nil {
		return "", tenancy.ErrInvalidCredentials
	}
	return id, nil
}

func (l *Local) DeletePrincipal(ctx context.Context, principalID string) error {
	res, err := l.db.ExecContext(ctx, `DELETE FROM principals WHERE id = ?`, principalID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return tenancy.ErrPrincipalNotFound
	}
	return nil
}

func (l *Local) get(ctx context.Context, where string, arg string) (*models.Principal, error) {
	p := &models.Principal{}
	err := l.db.QueryRowContext(ctx, `SELECT id, email, created_at FROM principals WHERE `+where+` = ?`, arg).
		Scan(&p.ID, &p.Email, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, tenancy.ErrPrincipalNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (l *Local) GetPrincipal(ctx context.Context, principalID string) (*models.Principal, error) {
	return l.get(ctx, "id", principalID)
}

func (l *Local) LookupByEmail(ctx context.Context, email string) (*models.Principal, error) {
	return l.get(ctx, "email", normalizeEmail(email))
}

func (l *Local) ListPrincipals(ctx context.Context) ([]*models.Principal, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT id, email, created_at FROM principals ORDER BY email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var principals []*models.Principal
	for rows.Next() {
		p := &models.Principal{}
		if err := rows.Scan(&p.ID, &p.Email, &p.CreatedAt); err != nil {
			return nil, err
		}
		principals = append(principals, p)
	}
	return principals, rows.Err()
}

// SignOut stamps the revocation time in unix milliseconds. Sessions issued at
// or before it are rejected.
func (l *Local) SignOut(ctx context.Context, principalID string) error {
	res, err := l.db.ExecContext(ctx, `UPDATE principals SET sessions_revoked_at = ? WHERE id = ?`, time.Now().UnixMilli(), principalID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return tenancy.ErrPrincipalNotFound
	}
	return nil
}

// SessionsRevokedAt returns the last sign-out time in unix milliseconds, or zero if the principal never signed out.
func (l *Local) SessionsRevokedAt(ctx context.Context, principalID string) (int64, error) {
	var revoked sql.NullInt64
	err := l.db.QueryRowContext(ctx, `SELECT sessions_revoked_at FROM principals WHERE id = ?`, principalID).Scan(&revoked)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, tenancy.ErrPrincipalNotFound
	}
	if err != nil {
		return 0, err
	}
	return revoked.Int64, nil
}

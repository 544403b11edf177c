package admins

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventpilot/backend/internal/models"
	"github.com/eventpilot/backend/pkg/utils"
)

const adminColumns = `id, username, email, password, last_login, created_at`

// Repository handles admin account persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an admins repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByLogin returns an admin by username or email, nil when none.
func (r *Repository) GetByLogin(ctx context.Context, login string) (*models.Admin, error) {
	const q = `SELECT ` + adminColumns + ` FROM admins
		WHERE username = $1 OR LOWER(email) = LOWER($1)`
	var a models.Admin
	err := r.pool.QueryRow(ctx, q, login).
		Scan(&a.ID, &a.Username, &a.Email, &a.Password, &a.LastLogin, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// StampLastLogin records a successful login.
func (r *Repository) StampLastLogin(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE admins SET last_login = NOW() WHERE id = $1`, id)
	return err
}

// EnsureAdmin creates the bootstrap admin account if it does not exist.
// Called at startup when ADMIN_USERNAME/ADMIN_PASSWORD are configured.
func (r *Repository) EnsureAdmin(ctx context.Context, username, email, password string) error {
	existing, err := r.GetByLogin(ctx, username)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	hash, err := utils.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO admins (id, username, email, password) VALUES (gen_random_uuid(), $1, LOWER($2), $3)
		 ON CONFLICT (username) DO NOTHING`,
		username, email, hash)
	return err
}

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventpilot/backend/internal/models"
)

// ErrDuplicate is returned when a unique constraint (email, phone,
// username) rejects an insert.
var ErrDuplicate = errors.New("duplicate value")

const userColumns = `id, name, username, email, COALESCE(phone,''), password,
	reset_token, reset_expires,
	instagram, snapchat, twitter, company_name, position, activity_type, gender, goal,
	ai_description, is_active, created_at, updated_at`

// Repository handles user account persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an auth repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Username, &u.Email, &u.Phone, &u.Password,
		&u.ResetToken, &u.ResetExpires,
		&u.Instagram, &u.Snapchat, &u.Twitter, &u.CompanyName, &u.Position,
		&u.ActivityType, &u.Gender, &u.Goal, &u.AIDescription, &u.IsActive,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Create inserts a new user. Returns ErrDuplicate on email, phone, or
// username collisions so callers can retry username generation.
func (r *Repository) Create(ctx context.Context, u *models.User) error {
	const q = `INSERT INTO users
		(id, name, username, email, phone, password,
		 instagram, snapchat, twitter, company_name, position, activity_type, gender, goal,
		 ai_description)
		VALUES (gen_random_uuid(), $1, $2, LOWER($3), NULLIF($4,''), $5,
		 $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, email, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, u.Name, u.Username, u.Email, u.Phone, u.Password,
		u.Instagram, u.Snapchat, u.Twitter, u.CompanyName, u.Position,
		u.ActivityType, u.Gender, u.Goal, u.AIDescription).
		Scan(&u.ID, &u.Email, &u.CreatedAt, &u.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// GetUser returns a user by ID.
func (r *Repository) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetByEmail returns a user by email, nil when none exists.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

// GetByUsername returns a user by username, nil when none exists.
func (r *Repository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

// FindByContact matches an account by email or phone, nil when none.
func (r *Repository) FindByContact(ctx context.Context, email, phone string) (*models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users
		WHERE ($1 <> '' AND LOWER(email) = $1) OR ($2 <> '' AND phone = $2)
		LIMIT 1`
	u, err := scanUser(r.pool.QueryRow(ctx, q, email, phone))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

// SetResetToken stores a password reset token with its expiry.
func (r *Repository) SetResetToken(ctx context.Context, userID uuid.UUID, token string, expires time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET reset_token = $2, reset_expires = $3, updated_at = NOW() WHERE id = $1`,
		userID, token, expires)
	return err
}

// GetByResetToken returns the user holding an unexpired reset token,
// nil when the token is unknown or expired.
func (r *Repository) GetByResetToken(ctx context.Context, token string) (*models.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE reset_token = $1 AND reset_expires > NOW()`, token))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

// UpdatePassword sets a new password hash and clears any reset token.
func (r *Repository) UpdatePassword(ctx context.Context, userID uuid.UUID, hash string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE users SET password = $2, reset_token = NULL, reset_expires = NULL, updated_at = NOW() WHERE id = $1`,
		userID, hash)
	return err
}

// UpdateProfile rewrites the editable profile fields.
func (r *Repository) UpdateProfile(ctx context.Context, u *models.User) error {
	const q = `UPDATE users SET name = $2, phone = NULLIF($3,''),
		instagram = $4, snapchat = $5, twitter = $6, company_name = $7, position = $8,
		activity_type = $9, gender = $10, goal = $11, ai_description = $12,
		updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	err := r.pool.QueryRow(ctx, q, u.ID, u.Name, u.Phone,
		u.Instagram, u.Snapchat, u.Twitter, u.CompanyName, u.Position,
		u.ActivityType, u.Gender, u.Goal, u.AIDescription).Scan(&u.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

package invites

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventpilot/backend/internal/models"
)

const inviteColumns = `id, session_id, email, token, used, expires_at, sent_at, created_at`

// Repository handles invite persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an invites repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanInvite(row pgx.Row) (*models.Invite, error) {
	var i models.Invite
	err := row.Scan(&i.ID, &i.SessionID, &i.Email, &i.Token, &i.Used,
		&i.ExpiresAt, &i.SentAt, &i.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

// Create inserts an invite.
func (r *Repository) Create(ctx context.Context, i *models.Invite) error {
	const q = `INSERT INTO invites (id, session_id, email, token, expires_at)
		VALUES (gen_random_uuid(), $1, LOWER($2), $3, $4)
		RETURNING id, email, created_at`
	return r.pool.QueryRow(ctx, q, i.SessionID, i.Email, i.Token, i.ExpiresAt).
		Scan(&i.ID, &i.Email, &i.CreatedAt)
}

// GetByID returns an invite, nil when missing.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Invite, error) {
	i, err := scanInvite(r.pool.QueryRow(ctx,
		`SELECT `+inviteColumns+` FROM invites WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return i, err
}

// GetByToken returns an invite by token, nil when missing.
func (r *Repository) GetByToken(ctx context.Context, token string) (*models.Invite, error) {
	i, err := scanInvite(r.pool.QueryRow(ctx,
		`SELECT `+inviteColumns+` FROM invites WHERE token = $1`, token))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return i, err
}

// FindLive returns an unused, unexpired invite for session+email, nil
// when none. Used to dedup sends.
func (r *Repository) FindLive(ctx context.Context, sessionID uuid.UUID, email string) (*models.Invite, error) {
	const q = `SELECT ` + inviteColumns + ` FROM invites
		WHERE session_id = $1 AND LOWER(email) = LOWER($2) AND used = FALSE AND expires_at > NOW()
		LIMIT 1`
	i, err := scanInvite(r.pool.QueryRow(ctx, q, sessionID, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return i, err
}

// Consume flips used false -> true; the flag never reverses.
func (r *Repository) Consume(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE invites SET used = TRUE WHERE id = $1 AND used = FALSE`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// MarkSent stamps the delivery time.
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE invites SET sent_at = NOW() WHERE id = $1`, id)
	return err
}

// Refresh replaces the token and extends the expiry of an unused invite.
func (r *Repository) Refresh(ctx context.Context, id uuid.UUID, token string, expires time.Time) (bool, error) {
	const q = `UPDATE invites SET token = $2, expires_at = $3 WHERE id = $1 AND used = FALSE`
	tag, err := r.pool.Exec(ctx, q, id, token, expires)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListBySession returns a session's invites, newest first.
func (r *Repository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.Invite, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+inviteColumns+` FROM invites WHERE session_id = $1 ORDER BY created_at DESC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Invite
	for rows.Next() {
		i, err := scanInvite(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *i)
	}
	return list, rows.Err()
}

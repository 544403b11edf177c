package sessions

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventpilot/backend/internal/models"
	"github.com/eventpilot/backend/internal/registrations"
)

const sessionColumns = `id, session_number, title, description, date,
	guest_name, guest_profile, max_participants, max_companions, status,
	requires_approval, show_participant_count, location, registration_deadline,
	show_countdown, enable_mini_view, custom_confirmation_message, embed_enabled,
	COALESCE(slug,''), invite_only, invite_message, created_at`

// Repository handles session persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a sessions repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanSession(row pgx.Row) (*models.Session, error) {
	var s models.Session
	err := row.Scan(&s.ID, &s.SessionNumber, &s.Title, &s.Description, &s.Date,
		&s.GuestName, &s.GuestProfile, &s.MaxParticipants, &s.MaxCompanions, &s.Status,
		&s.RequiresApproval, &s.ShowParticipants, &s.Location, &s.RegistrationDeadline,
		&s.ShowCountdown, &s.EnableMiniView, &s.ConfirmationMessage, &s.EmbedEnabled,
		&s.Slug, &s.InviteOnly, &s.InviteMessage, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts a session, generating the slug when absent.
func (r *Repository) Create(ctx context.Context, s *models.Session) error {
	s.GenerateSlug()
	const q = `INSERT INTO sessions
		(id, session_number, title, description, date, guest_name, guest_profile,
		 max_participants, max_companions, status, requires_approval, show_participant_count,
		 location, registration_deadline, show_countdown, enable_mini_view,
		 custom_confirmation_message, embed_enabled, slug, invite_only, invite_message)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
		 $14, $15, $16, $17, NULLIF($18,''), $19, $20)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, s.SessionNumber, s.Title, s.Description, s.Date,
		s.GuestName, s.GuestProfile, s.MaxParticipants, s.MaxCompanions, s.Status,
		s.RequiresApproval, s.ShowParticipants, s.Location, s.RegistrationDeadline,
		s.ShowCountdown, s.EnableMiniView, s.ConfirmationMessage, s.EmbedEnabled,
		s.Slug, s.InviteOnly, s.InviteMessage).
		Scan(&s.ID, &s.CreatedAt)
}

// GetSession returns a session by ID.
func (r *Repository) GetSession(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	s, err := scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, registrations.ErrNotFound
	}
	return s, err
}

// GetBySlug returns a session by slug.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*models.Session, error) {
	s, err := scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE slug = $1`, slug))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, registrations.ErrNotFound
	}
	return s, err
}

// CountApproved returns the approved headcount for a session.
func (r *Repository) CountApproved(ctx context.Context, sessionID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations WHERE session_id = $1 AND is_approved = TRUE`, sessionID).Scan(&n)
	return n, err
}

// List returns all sessions, newest event first.
func (r *Repository) List(ctx context.Context) ([]models.Session, error) {
	return r.list(ctx, `SELECT `+sessionColumns+` FROM sessions ORDER BY date DESC`)
}

// ListUpcoming returns open sessions whose date is in the future, soonest first.
func (r *Repository) ListUpcoming(ctx context.Context) ([]models.Session, error) {
	return r.list(ctx, `SELECT `+sessionColumns+` FROM sessions
		WHERE status = 'open' AND date > NOW() ORDER BY date ASC`)
}

func (r *Repository) list(ctx context.Context, q string) ([]models.Session, error) {
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *s)
	}
	return list, rows.Err()
}

// Update rewrites the mutable fields of a session.
func (r *Repository) Update(ctx context.Context, s *models.Session) error {
	const q = `UPDATE sessions SET
		session_number = $2, title = $3, description = $4, date = $5,
		guest_name = $6, guest_profile = $7, max_participants = $8, max_companions = $9,
		status = $10, requires_approval = $11, show_participant_count = $12, location = $13,
		registration_deadline = $14, show_countdown = $15, enable_mini_view = $16,
		custom_confirmation_message = $17, embed_enabled = $18, slug = NULLIF($19,''),
		invite_only = $20, invite_message = $21
		WHERE id = $1`
	tag, err := r.pool.Exec(ctx, q, s.ID, s.SessionNumber, s.Title, s.Description, s.Date,
		s.GuestName, s.GuestProfile, s.MaxParticipants, s.MaxCompanions, s.Status,
		s.RequiresApproval, s.ShowParticipants, s.Location, s.RegistrationDeadline,
		s.ShowCountdown, s.EnableMiniView, s.ConfirmationMessage, s.EmbedEnabled, s.Slug,
		s.InviteOnly, s.InviteMessage)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return registrations.ErrNotFound
	}
	return nil
}

// Delete removes a session and, via cascade, its registrations.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return registrations.ErrNotFound
	}
	return nil
}

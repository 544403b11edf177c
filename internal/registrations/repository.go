package registrations

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventpilot/backend/internal/models"
)

const regColumns = `id, session_id, user_id, is_approved, approval_notes,
	COALESCE(guest_name,''), COALESCE(guest_email,''), COALESCE(guest_phone,''),
	COALESCE(guest_instagram,''), COALESCE(guest_snapchat,''), COALESCE(guest_twitter,''),
	COALESCE(guest_company_name,''), COALESCE(guest_position,''), COALESCE(guest_activity_type,''),
	COALESCE(guest_gender,''), COALESCE(guest_goal,''), registered_at`

// Repository handles registration and companion persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a registrations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanRegistration(row pgx.Row) (*models.Registration, error) {
	var reg models.Registration
	err := row.Scan(&reg.ID, &reg.SessionID, &reg.UserID, &reg.IsApproved, &reg.ApprovalNotes,
		&reg.Guest.Name, &reg.Guest.Email, &reg.Guest.Phone,
		&reg.Guest.Instagram, &reg.Guest.Snapchat, &reg.Guest.Twitter,
		&reg.Guest.CompanyName, &reg.Guest.Position, &reg.Guest.ActivityType,
		&reg.Guest.Gender, &reg.Guest.Goal, &reg.RegisteredAt)
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// Create inserts a registration. Empty guest fields are stored as NULL
// so the account-XOR-guest check constraint holds.
func (r *Repository) Create(ctx context.Context, reg *models.Registration) error {
	const q = `INSERT INTO registrations
		(id, session_id, user_id, is_approved, approval_notes,
		 guest_name, guest_email, guest_phone, guest_instagram, guest_snapchat, guest_twitter,
		 guest_company_name, guest_position, guest_activity_type, guest_gender, guest_goal)
		VALUES (gen_random_uuid(), $1, $2, $3, $4,
		 NULLIF($5,''), NULLIF($6,''), NULLIF($7,''), NULLIF($8,''), NULLIF($9,''), NULLIF($10,''),
		 NULLIF($11,''), NULLIF($12,''), NULLIF($13,''), NULLIF($14,''), NULLIF($15,''))
		RETURNING id, registered_at`
	g := reg.Guest
	return r.pool.QueryRow(ctx, q, reg.SessionID, reg.UserID, reg.IsApproved, reg.ApprovalNotes,
		g.Name, g.Email, g.Phone, g.Instagram, g.Snapchat, g.Twitter,
		g.CompanyName, g.Position, g.ActivityType, g.Gender, g.Goal).
		Scan(&reg.ID, &reg.RegisteredAt)
}

// GetByID returns a registration by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	reg, err := scanRegistration(r.pool.QueryRow(ctx,
		`SELECT `+regColumns+` FROM registrations WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return reg, err
}

// FindByUser returns the user's registration for a session, nil when none.
func (r *Repository) FindByUser(ctx context.Context, sessionID, userID uuid.UUID) (*models.Registration, error) {
	reg, err := scanRegistration(r.pool.QueryRow(ctx,
		`SELECT `+regColumns+` FROM registrations WHERE session_id = $1 AND user_id = $2`, sessionID, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return reg, err
}

// FindByGuestContact matches a guest registration by email or phone, nil when none.
func (r *Repository) FindByGuestContact(ctx context.Context, sessionID uuid.UUID, email, phone string) (*models.Registration, error) {
	const q = `SELECT ` + regColumns + ` FROM registrations
		WHERE session_id = $1 AND user_id IS NULL
		AND (($2 <> '' AND LOWER(guest_email) = $2) OR ($3 <> '' AND guest_phone = $3))
		LIMIT 1`
	reg, err := scanRegistration(r.pool.QueryRow(ctx, q, sessionID, email, phone))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return reg, err
}

// MarkApproved flips is_approved false -> true; approval never reverses.
func (r *Repository) MarkApproved(ctx context.Context, id uuid.UUID, notes string) (bool, error) {
	const q = `UPDATE registrations SET is_approved = TRUE, approval_notes = $2
		WHERE id = $1 AND is_approved = FALSE`
	tag, err := r.pool.Exec(ctx, q, id, notes)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ApproveAllPending approves every pending registration for a session
// and returns the transitioned rows.
func (r *Repository) ApproveAllPending(ctx context.Context, sessionID uuid.UUID) ([]models.Registration, error) {
	const q = `UPDATE registrations SET is_approved = TRUE
		WHERE session_id = $1 AND is_approved = FALSE
		RETURNING ` + regColumns
	rows, err := r.pool.Query(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *reg)
	}
	return list, rows.Err()
}

// AdoptGuests assigns ownerless guest registrations matching the
// contact to the user and clears the guest bundle. Rows that already
// belong to an account are never touched.
func (r *Repository) AdoptGuests(ctx context.Context, userID uuid.UUID, email, phone string) (int, error) {
	const q = `UPDATE registrations SET user_id = $1,
		guest_name = NULL, guest_email = NULL, guest_phone = NULL,
		guest_instagram = NULL, guest_snapchat = NULL, guest_twitter = NULL,
		guest_company_name = NULL, guest_position = NULL, guest_activity_type = NULL,
		guest_gender = NULL, guest_goal = NULL
		WHERE user_id IS NULL
		AND (($2 <> '' AND LOWER(guest_email) = $2) OR ($3 <> '' AND guest_phone = $3))`
	tag, err := r.pool.Exec(ctx, q, userID, email, phone)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// ListBySession returns all registrations for a session, newest first.
func (r *Repository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.Registration, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+regColumns+` FROM registrations WHERE session_id = $1 ORDER BY registered_at DESC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *reg)
	}
	return list, rows.Err()
}

const companionColumns = `id, registration_id, name, company, title, phone, email, converted_registration_id, created_at`

// CreateCompanion inserts a companion row.
func (r *Repository) CreateCompanion(ctx context.Context, comp *models.Companion) error {
	const q = `INSERT INTO companions (id, registration_id, name, company, title, phone, email)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, comp.RegistrationID, comp.Name, comp.Company, comp.Title, comp.Phone, comp.Email).
		Scan(&comp.ID, &comp.CreatedAt)
}

// GetCompanionByID returns a companion by ID.
func (r *Repository) GetCompanionByID(ctx context.Context, id uuid.UUID) (*models.Companion, error) {
	var comp models.Companion
	err := r.pool.QueryRow(ctx,
		`SELECT `+companionColumns+` FROM companions WHERE id = $1`, id).
		Scan(&comp.ID, &comp.RegistrationID, &comp.Name, &comp.Company, &comp.Title,
			&comp.Phone, &comp.Email, &comp.ConvertedRegistrationID, &comp.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &comp, nil
}

// ListCompanionsByRegistration returns a registration's companions.
func (r *Repository) ListCompanionsByRegistration(ctx context.Context, registrationID uuid.UUID) ([]models.Companion, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+companionColumns+` FROM companions WHERE registration_id = $1 ORDER BY created_at`, registrationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Companion
	for rows.Next() {
		var comp models.Companion
		if err := rows.Scan(&comp.ID, &comp.RegistrationID, &comp.Name, &comp.Company, &comp.Title,
			&comp.Phone, &comp.Email, &comp.ConvertedRegistrationID, &comp.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, comp)
	}
	return list, rows.Err()
}

// CountCompanionsByRegistration returns how many companions a registration has.
func (r *Repository) CountCompanionsByRegistration(ctx context.Context, registrationID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM companions WHERE registration_id = $1`, registrationID).Scan(&n)
	return n, err
}

// SetCompanionConverted records the promoted registration; the link is write-once.
func (r *Repository) SetCompanionConverted(ctx context.Context, companionID, registrationID uuid.UUID) (bool, error) {
	const q = `UPDATE companions SET converted_registration_id = $2
		WHERE id = $1 AND converted_registration_id IS NULL`
	tag, err := r.pool.Exec(ctx, q, companionID, registrationID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RegistrationSummary is one row of a member's registration history.
type RegistrationSummary struct {
	RegistrationID uuid.UUID  `json:"registration_id"`
	SessionID      uuid.UUID  `json:"session_id"`
	SessionNumber  int        `json:"session_number"`
	Title          string     `json:"title"`
	Date           time.Time  `json:"date"`
	Location       string     `json:"location,omitempty"`
	IsApproved     bool       `json:"is_approved"`
	Attended       bool       `json:"attended"`
	RegisteredAt   time.Time  `json:"registered_at"`
}

// ExportRow is one line of the admin member export.
type ExportRow struct {
	Name            string
	Email           string
	Phone           string
	ActivityType    string
	CompanyName     string
	Position        string
	AttendanceCount int
}

// Repository handles member-facing read models.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a users repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListRegistrations returns a user's registrations with session details,
// newest event first.
func (r *Repository) ListRegistrations(ctx context.Context, userID uuid.UUID) ([]RegistrationSummary, error) {
	const q = `SELECT reg.id, s.id, s.session_number, s.title, s.date, s.location,
		reg.is_approved, COALESCE(a.attended, FALSE), reg.registered_at
		FROM registrations reg
		JOIN sessions s ON s.id = reg.session_id
		LEFT JOIN attendance a ON a.session_id = reg.session_id AND a.user_id = reg.user_id
		WHERE reg.user_id = $1
		ORDER BY s.date DESC`
	rows, err := r.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []RegistrationSummary
	for rows.Next() {
		var s RegistrationSummary
		if err := rows.Scan(&s.RegistrationID, &s.SessionID, &s.SessionNumber, &s.Title,
			&s.Date, &s.Location, &s.IsApproved, &s.Attended, &s.RegisteredAt); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// ExportRows returns every member with their attendance count for the
// admin CSV export.
func (r *Repository) ExportRows(ctx context.Context) ([]ExportRow, error) {
	const q = `SELECT u.name, u.email, COALESCE(u.phone,''), u.activity_type,
		u.company_name, u.position,
		COUNT(a.id) FILTER (WHERE a.attended) AS attendance_count
		FROM users u
		LEFT JOIN attendance a ON a.user_id = u.id
		WHERE u.is_active
		GROUP BY u.id
		ORDER BY u.name, u.email`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []ExportRow
	for rows.Next() {
		var row ExportRow
		if err := rows.Scan(&row.Name, &row.Email, &row.Phone, &row.ActivityType,
			&row.CompanyName, &row.Position, &row.AttendanceCount); err != nil {
			return nil, err
		}
		list = append(list, row)
	}
	return list, rows.Err()
}

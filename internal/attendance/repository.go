package attendance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eventpilot/backend/internal/models"
)

// Stats summarizes attendance for a session.
type Stats struct {
	Registered int `json:"registered"`
	CheckedIn  int `json:"checked_in"`
	QRVerified int `json:"qr_verified"`
}

// Repository handles attendance persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an attendance repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Mark upserts the attendance row for (user, session). Marking attended
// stamps check_in_time once; re-marking is idempotent and never clears
// an earlier check-in.
func (r *Repository) Mark(ctx context.Context, userID, sessionID uuid.UUID, attended, qrVerified bool) (*models.Attendance, error) {
	const q = `INSERT INTO attendance (id, user_id, session_id, attended, check_in_time, qr_verified)
		VALUES (gen_random_uuid(), $1, $2, $3, CASE WHEN $3 THEN NOW() END, $4)
		ON CONFLICT (user_id, session_id) DO UPDATE SET
			attended = attendance.attended OR EXCLUDED.attended,
			check_in_time = COALESCE(attendance.check_in_time, EXCLUDED.check_in_time),
			qr_verified = attendance.qr_verified OR EXCLUDED.qr_verified
		RETURNING id, user_id, session_id, attended, check_in_time, qr_verified`
	var a models.Attendance
	err := r.pool.QueryRow(ctx, q, userID, sessionID, attended, qrVerified).
		Scan(&a.ID, &a.UserID, &a.SessionID, &a.Attended, &a.CheckInTime, &a.QRVerified)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Row is one attendance listing entry with member identity.
type Row struct {
	UserID      uuid.UUID  `json:"user_id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Attended    bool       `json:"attended"`
	CheckInTime *time.Time `json:"check_in_time,omitempty"`
	QRVerified  bool       `json:"qr_verified"`
}

// ListBySession returns per-member attendance for a session alongside
// aggregate stats.
func (r *Repository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]Row, Stats, error) {
	const q = `SELECT u.id, u.name, u.email,
		COALESCE(a.attended, FALSE), a.check_in_time, COALESCE(a.qr_verified, FALSE)
		FROM registrations reg
		JOIN users u ON u.id = reg.user_id
		LEFT JOIN attendance a ON a.user_id = reg.user_id AND a.session_id = reg.session_id
		WHERE reg.session_id = $1 AND reg.is_approved
		ORDER BY u.name`
	rows, err := r.pool.Query(ctx, q, sessionID)
	if err != nil {
		return nil, Stats{}, err
	}
	defer rows.Close()

	var list []Row
	var stats Stats
	for rows.Next() {
		var row Row
		if err := rows.Scan(&row.UserID, &row.Name, &row.Email,
			&row.Attended, &row.CheckInTime, &row.QRVerified); err != nil {
			return nil, Stats{}, err
		}
		stats.Registered++
		if row.Attended {
			stats.CheckedIn++
		}
		if row.QRVerified {
			stats.QRVerified++
		}
		list = append(list, row)
	}
	return list, stats, rows.Err()
}

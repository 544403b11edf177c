package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DashboardCounts are the headline numbers on the admin dashboard.
type DashboardCounts struct {
	TotalMembers        int `json:"total_members"`
	TotalSessions       int `json:"total_sessions"`
	UpcomingSessions    int `json:"upcoming_sessions"`
	PendingApprovals    int `json:"pending_approvals"`
	RecentRegistrations int `json:"recent_registrations"`
}

// SessionPerformance is one session's registration/attendance record.
type SessionPerformance struct {
	SessionID      uuid.UUID `json:"session_id"`
	Title          string    `json:"title"`
	Date           time.Time `json:"date"`
	Approved       int       `json:"approved"`
	Attended       int       `json:"attended"`
	AttendanceRate float64   `json:"attendance_rate"`
}

// MemberRecord is one member row in the dataset handed to the AI
// generator for analysis and search.
type MemberRecord struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ActivityType  string `json:"activity_type,omitempty"`
	CompanyName   string `json:"company_name,omitempty"`
	Position      string `json:"position,omitempty"`
	Goal          string `json:"goal,omitempty"`
	Registrations int    `json:"registrations"`
	Attended      int    `json:"attended"`
}

// Repository aggregates reporting queries across the schema.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an analytics repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Counts loads the dashboard counters. Recent registrations cover the
// last 30 days.
func (r *Repository) Counts(ctx context.Context) (DashboardCounts, error) {
	const q = `SELECT
		(SELECT COUNT(*) FROM users WHERE is_active),
		(SELECT COUNT(*) FROM sessions),
		(SELECT COUNT(*) FROM sessions WHERE status = 'open' AND date > NOW()),
		(SELECT COUNT(*) FROM registrations WHERE NOT is_approved),
		(SELECT COUNT(*) FROM registrations WHERE registered_at > NOW() - INTERVAL '30 days')`
	var c DashboardCounts
	err := r.pool.QueryRow(ctx, q).Scan(
		&c.TotalMembers, &c.TotalSessions, &c.UpcomingSessions,
		&c.PendingApprovals, &c.RecentRegistrations,
	)
	return c, err
}

// Performance returns past sessions ranked by attendance rate. Only
// account-holder registrations count toward attendance since guests
// have no attendance rows.
func (r *Repository) Performance(ctx context.Context, limit int) ([]SessionPerformance, error) {
	const q = `SELECT s.id, s.title, s.date,
		COUNT(reg.id) FILTER (WHERE reg.is_approved) AS approved,
		COUNT(a.id) FILTER (WHERE a.attended) AS attended
		FROM sessions s
		LEFT JOIN registrations reg ON reg.session_id = s.id
		LEFT JOIN attendance a ON a.session_id = s.id AND a.user_id = reg.user_id
		WHERE s.date < NOW()
		GROUP BY s.id
		ORDER BY s.date DESC
		LIMIT $1`
	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []SessionPerformance
	for rows.Next() {
		var p SessionPerformance
		if err := rows.Scan(&p.SessionID, &p.Title, &p.Date, &p.Approved, &p.Attended); err != nil {
			return nil, err
		}
		if p.Approved > 0 {
			p.AttendanceRate = float64(p.Attended) / float64(p.Approved)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// MemberDataset builds the member rows fed to the AI generator.
func (r *Repository) MemberDataset(ctx context.Context) ([]MemberRecord, error) {
	const q = `SELECT u.id, u.name, u.activity_type, u.company_name, u.position, u.goal,
		COUNT(reg.id), COUNT(a.id) FILTER (WHERE a.attended)
		FROM users u
		LEFT JOIN registrations reg ON reg.user_id = u.id
		LEFT JOIN attendance a ON a.user_id = u.id AND a.session_id = reg.session_id
		WHERE u.is_active
		GROUP BY u.id
		ORDER BY u.created_at`
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []MemberRecord
	for rows.Next() {
		var m MemberRecord
		var id uuid.UUID
		if err := rows.Scan(&id, &m.Name, &m.ActivityType, &m.CompanyName,
			&m.Position, &m.Goal, &m.Registrations, &m.Attended); err != nil {
			return nil, err
		}
		m.ID = id.String()
		list = append(list, m)
	}
	return list, rows.Err()
}

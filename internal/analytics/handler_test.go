package analytics

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecommendations(t *testing.T) {
	now := time.Now()

	t.Run("healthy state yields no recommendations", func(t *testing.T) {
		counts := DashboardCounts{UpcomingSessions: 2}
		perf := []SessionPerformance{
			{Title: "Meetup 5", Date: now, Approved: 40, Attended: 35, AttendanceRate: 0.875},
			{Title: "Meetup 4", Date: now, Approved: 30, Attended: 27, AttendanceRate: 0.9},
		}
		assert.Empty(t, recommendations(counts, perf))
	})

	t.Run("pending approvals surfaced", func(t *testing.T) {
		recs := recommendations(DashboardCounts{PendingApprovals: 7, UpcomingSessions: 1}, nil)
		assert.Len(t, recs, 1)
		assert.Contains(t, recs[0], "7 registrations")
	})

	t.Run("low average attendance flagged", func(t *testing.T) {
		counts := DashboardCounts{UpcomingSessions: 1}
		perf := []SessionPerformance{
			{Title: "Meetup 3", Approved: 50, Attended: 15, AttendanceRate: 0.3},
			{Title: "Meetup 2", Approved: 40, Attended: 18, AttendanceRate: 0.45},
		}
		recs := recommendations(counts, perf)
		found := false
		for _, r := range recs {
			if strings.Contains(r, "below 50%") {
				found = true
			}
		}
		assert.True(t, found, "expected low-attendance recommendation, got %v", recs)
	})

	t.Run("latest session underperforming its average", func(t *testing.T) {
		counts := DashboardCounts{UpcomingSessions: 1}
		perf := []SessionPerformance{
			{Title: "Quiet Night", Approved: 50, Attended: 10, AttendanceRate: 0.2},
			{Title: "Meetup 2", Approved: 40, Attended: 36, AttendanceRate: 0.9},
			{Title: "Meetup 1", Approved: 40, Attended: 36, AttendanceRate: 0.9},
		}
		recs := recommendations(counts, perf)
		found := false
		for _, r := range recs {
			if strings.Contains(r, "Quiet Night") {
				found = true
			}
		}
		assert.True(t, found, "expected underperformer recommendation, got %v", recs)
	})

	t.Run("no upcoming sessions", func(t *testing.T) {
		recs := recommendations(DashboardCounts{}, nil)
		assert.Len(t, recs, 1)
		assert.Contains(t, recs[0], "No upcoming sessions")
	})

	t.Run("never returns nil", func(t *testing.T) {
		assert.NotNil(t, recommendations(DashboardCounts{UpcomingSessions: 1}, nil))
	})
}

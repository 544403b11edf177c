package analytics

import (
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eventpilot/backend/internal/ai"
	"github.com/eventpilot/backend/pkg/cache"
	"github.com/eventpilot/backend/pkg/response"
)

const (
	performanceLimit = 20
	analyzeCacheTTL  = 30 * time.Minute
)

// SearchRequest is the body for POST /admin/search.
type SearchRequest struct {
	Query string `json:"query" binding:"required"`
}

// Handler exposes the admin dashboard and AI analytics endpoints.
type Handler struct {
	repo      *Repository
	generator *ai.Generator
	cache     *cache.Cache
	logger    *zap.Logger
}

// NewHandler creates an analytics handler. cache may be nil to disable
// response caching.
func NewHandler(repo *Repository, generator *ai.Generator, c *cache.Cache, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, generator: generator, cache: c, logger: logger}
}

// Dashboard handles GET /admin/dashboard: headline counters, recent
// session performance, and heuristic recommendations derived from it.
func (h *Handler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()

	counts, err := h.repo.Counts(ctx)
	if err != nil {
		h.logger.Error("dashboard counts failed", zap.Error(err))
		response.Internal(c, "failed to load dashboard")
		return
	}
	performance, err := h.repo.Performance(ctx, performanceLimit)
	if err != nil {
		h.logger.Error("dashboard performance failed", zap.Error(err))
		response.Internal(c, "failed to load dashboard")
		return
	}
	if performance == nil {
		performance = []SessionPerformance{}
	}
	response.OK(c, gin.H{
		"counts":          counts,
		"performance":     performance,
		"recommendations": recommendations(counts, performance),
	})
}

// Analyze handles GET /admin/analytics/:kind. Responses are cached per
// kind so repeated dashboard loads do not re-hit the model provider;
// degraded documents are never cached.
func (h *Handler) Analyze(c *gin.Context) {
	kind := ai.AnalyzeKind(c.Param("kind"))
	ctx := c.Request.Context()
	key := "analytics:" + string(kind)

	if h.cache != nil {
		var cached ai.AnalysisResult
		if err := h.cache.Get(ctx, key, &cached); err == nil {
			response.OK(c, cached)
			return
		} else if !errors.Is(err, cache.ErrMiss) {
			h.logger.Warn("analytics cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	dataset, err := h.repo.MemberDataset(ctx)
	if err != nil {
		h.logger.Error("analytics dataset failed", zap.Error(err))
		response.Internal(c, "failed to load analytics data")
		return
	}
	result, err := h.generator.Analyze(ctx, kind, dataset)
	if err != nil {
		response.BadRequest(c, fmt.Sprintf("unsupported analysis kind %q", kind))
		return
	}
	if h.cache != nil && !result.Degraded {
		if err := h.cache.Set(ctx, key, result, analyzeCacheTTL); err != nil {
			h.logger.Warn("analytics cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	response.OK(c, result)
}

// Search handles POST /admin/search — natural-language member search.
func (h *Handler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "query is required")
		return
	}
	ctx := c.Request.Context()

	dataset, err := h.repo.MemberDataset(ctx)
	if err != nil {
		h.logger.Error("search dataset failed", zap.Error(err))
		response.Internal(c, "failed to load member data")
		return
	}
	response.OK(c, h.generator.Search(ctx, req.Query, dataset))
}

// recommendations derives plain operational suggestions from the
// counters and recent performance. No model involved.
func recommendations(counts DashboardCounts, performance []SessionPerformance) []string {
	var recs []string
	if counts.PendingApprovals > 0 {
		recs = append(recs, fmt.Sprintf("%d registrations are awaiting approval.", counts.PendingApprovals))
	}

	var rated int
	var rateSum float64
	for _, p := range performance {
		if p.Approved == 0 {
			continue
		}
		rated++
		rateSum += p.AttendanceRate
	}
	if rated > 0 {
		avg := rateSum / float64(rated)
		if avg < 0.5 {
			recs = append(recs, "Average attendance is below 50%; consider reminder emails before each session.")
		}
		if p := performance[0]; p.Approved > 0 && p.AttendanceRate < avg*0.75 {
			recs = append(recs, fmt.Sprintf("%q attendance was well below your average; review its timing or format.", p.Title))
		}
	}
	if counts.UpcomingSessions == 0 {
		recs = append(recs, "No upcoming sessions are open; schedule the next one to keep members engaged.")
	}
	if recs == nil {
		recs = []string{}
	}
	return recs
}

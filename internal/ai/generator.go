package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// AnalyzeKind selects the analysis lens over a registration dataset.
type AnalyzeKind string

const (
	AnalyzeDemographics AnalyzeKind = "demographics"
	AnalyzeTrends       AnalyzeKind = "trends"
	AnalyzeInsights     AnalyzeKind = "insights"
)

// ErrUnknownKind is returned by Analyze for kinds outside the fixed set.
var ErrUnknownKind = fmt.Errorf("unknown analysis kind")

// DescribeResult is the profile description output. Degraded means the
// model was unavailable or unusable and Description is empty.
type DescribeResult struct {
	Description string `json:"description"`
	Degraded    bool   `json:"degraded"`
}

// AnalysisResult is the structured analysis document. On any model
// failure the fixed fallback document is returned with Degraded=true;
// RawData always carries the input dataset either way.
type AnalysisResult struct {
	Summary         string         `json:"summary"`
	KeyInsights     []string       `json:"key_insights"`
	Recommendations []string       `json:"recommendations"`
	Metrics         map[string]any `json:"metrics"`
	RawData         any            `json:"raw_data"`
	Degraded        bool           `json:"degraded"`
}

// SearchMatch is one ranked hit from a natural-language search.
type SearchMatch struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Reason string  `json:"reason"`
	Score  float64 `json:"score"`
}

// SearchResult is the ranked search output; empty matches when degraded.
type SearchResult struct {
	Matches  []SearchMatch `json:"matches"`
	Degraded bool          `json:"degraded"`
}

// Generator produces AI-backed insight documents with deterministic
// fallbacks. A nil client (no API key configured) degrades every call.
type Generator struct {
	client  Client
	logger  *zap.Logger
	timeout time.Duration
}

// NewGenerator creates a Generator. client may be nil to run in
// permanently degraded mode.
func NewGenerator(client Client, timeout time.Duration, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Generator{client: client, logger: logger, timeout: timeout}
}

// Describe writes a short professional profile description from a
// member's stated goal and activity type.
func (g *Generator) Describe(ctx context.Context, goal, activity string) DescribeResult {
	if g.client == nil {
		return DescribeResult{Degraded: true}
	}
	prompt := fmt.Sprintf(
		"Write a professional description (2-3 sentences, third person) for a networking event member.\nActivity: %s\nGoal: %s\nRespond as JSON: {\"description\": \"...\"}",
		activity, goal,
	)
	raw, err := g.complete(ctx, "You write concise professional bios.", prompt)
	if err != nil {
		g.logger.Warn("describe degraded", zap.Error(err))
		return DescribeResult{Degraded: true}
	}
	var out struct {
		Description string `json:"description"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil || out.Description == "" {
		g.logger.Warn("describe returned unusable output")
		return DescribeResult{Degraded: true}
	}
	return DescribeResult{Description: out.Description}
}

// Analyze runs one of the fixed analysis kinds over a dataset. The
// only error is ErrUnknownKind; model failures return the fallback
// document instead.
func (g *Generator) Analyze(ctx context.Context, kind AnalyzeKind, dataset any) (AnalysisResult, error) {
	system, ok := analyzePrompts[kind]
	if !ok {
		return AnalysisResult{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	fallback := fallbackAnalysis(kind, dataset)
	if g.client == nil {
		return fallback, nil
	}

	data, err := json.Marshal(dataset)
	if err != nil {
		g.logger.Warn("analyze dataset not serializable", zap.Error(err))
		return fallback, nil
	}
	prompt := fmt.Sprintf(
		"Analyze this event registration dataset and respond as JSON with keys summary (string), key_insights (string array), recommendations (string array), metrics (object).\nDataset: %s",
		data,
	)
	raw, err := g.complete(ctx, system, prompt)
	if err != nil {
		g.logger.Warn("analyze degraded", zap.String("kind", string(kind)), zap.Error(err))
		return fallback, nil
	}
	var out AnalysisResult
	if err := json.Unmarshal([]byte(raw), &out); err != nil || out.Summary == "" {
		g.logger.Warn("analyze returned unusable output", zap.String("kind", string(kind)))
		return fallback, nil
	}
	out.RawData = dataset
	return out, nil
}

// Search ranks dataset entries against a natural-language query.
func (g *Generator) Search(ctx context.Context, query string, dataset any) SearchResult {
	if g.client == nil {
		return SearchResult{Matches: []SearchMatch{}, Degraded: true}
	}
	data, err := json.Marshal(dataset)
	if err != nil {
		g.logger.Warn("search dataset not serializable", zap.Error(err))
		return SearchResult{Matches: []SearchMatch{}, Degraded: true}
	}
	prompt := fmt.Sprintf(
		"Given this member dataset, return the entries best matching the query, ranked.\nQuery: %s\nDataset: %s\nRespond as JSON: {\"matches\": [{\"id\": \"...\", \"name\": \"...\", \"reason\": \"...\", \"score\": 0.0}]}",
		query, data,
	)
	raw, err := g.complete(ctx, "You match people to search queries and explain why.", prompt)
	if err != nil {
		g.logger.Warn("search degraded", zap.Error(err))
		return SearchResult{Matches: []SearchMatch{}, Degraded: true}
	}
	var out SearchResult
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		g.logger.Warn("search returned unusable output")
		return SearchResult{Matches: []SearchMatch{}, Degraded: true}
	}
	if out.Matches == nil {
		out.Matches = []SearchMatch{}
	}
	return out
}

func (g *Generator) complete(ctx context.Context, system, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	return g.client.Complete(ctx, system, prompt)
}

var analyzePrompts = map[AnalyzeKind]string{
	AnalyzeDemographics: "You analyze the demographic composition of event attendees.",
	AnalyzeTrends:       "You analyze registration and attendance trends across event sessions.",
	AnalyzeInsights:     "You extract actionable insights from event registration data.",
}

// fallbackAnalysis is the deterministic document served when the model
// is unreachable or returns garbage.
func fallbackAnalysis(kind AnalyzeKind, dataset any) AnalysisResult {
	return AnalysisResult{
		Summary:         fmt.Sprintf("Automated %s analysis is temporarily unavailable.", kind),
		KeyInsights:     []string{"AI analysis could not be generated for this request."},
		Recommendations: []string{"Retry later or review the raw data directly."},
		Metrics:         map[string]any{},
		RawData:         dataset,
		Degraded:        true,
	}
}

package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeClient) Complete(_ context.Context, _, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestDescribe(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		g := NewGenerator(&fakeClient{response: `{"description":"Runs a design studio focused on brand identity."}`}, time.Second, nil)
		res := g.Describe(context.Background(), "meet collaborators", "design")
		assert.False(t, res.Degraded)
		assert.Equal(t, "Runs a design studio focused on brand identity.", res.Description)
	})

	t.Run("model error degrades", func(t *testing.T) {
		g := NewGenerator(&fakeClient{err: errors.New("timeout")}, time.Second, nil)
		res := g.Describe(context.Background(), "goal", "activity")
		assert.True(t, res.Degraded)
		assert.Empty(t, res.Description)
	})

	t.Run("nil client degrades", func(t *testing.T) {
		g := NewGenerator(nil, time.Second, nil)
		res := g.Describe(context.Background(), "goal", "activity")
		assert.True(t, res.Degraded)
	})
}

func TestAnalyze(t *testing.T) {
	dataset := map[string]int{"registrations": 42}

	t.Run("unknown kind", func(t *testing.T) {
		g := NewGenerator(&fakeClient{}, time.Second, nil)
		_, err := g.Analyze(context.Background(), AnalyzeKind("vibes"), dataset)
		assert.ErrorIs(t, err, ErrUnknownKind)
	})

	t.Run("success echoes raw data", func(t *testing.T) {
		g := NewGenerator(&fakeClient{response: `{"summary":"Healthy growth.","key_insights":["More founders this month"],"recommendations":["Add capacity"],"metrics":{"growth":0.2}}`}, time.Second, nil)
		res, err := g.Analyze(context.Background(), AnalyzeTrends, dataset)
		require.NoError(t, err)
		assert.False(t, res.Degraded)
		assert.Equal(t, "Healthy growth.", res.Summary)
		assert.Equal(t, dataset, res.RawData)
	})

	t.Run("malformed output falls back", func(t *testing.T) {
		g := NewGenerator(&fakeClient{response: `not json at all`}, time.Second, nil)
		res, err := g.Analyze(context.Background(), AnalyzeDemographics, dataset)
		require.NoError(t, err)
		assert.True(t, res.Degraded)
		assert.NotEmpty(t, res.Summary)
		assert.NotEmpty(t, res.KeyInsights)
		assert.NotEmpty(t, res.Recommendations)
		assert.Equal(t, dataset, res.RawData)
	})

	t.Run("model error falls back", func(t *testing.T) {
		g := NewGenerator(&fakeClient{err: errors.New("connection refused")}, time.Second, nil)
		res, err := g.Analyze(context.Background(), AnalyzeInsights, dataset)
		require.NoError(t, err)
		assert.True(t, res.Degraded)
		assert.Equal(t, dataset, res.RawData)
	})

	t.Run("nil client falls back without error", func(t *testing.T) {
		g := NewGenerator(nil, time.Second, nil)
		res, err := g.Analyze(context.Background(), AnalyzeTrends, dataset)
		require.NoError(t, err)
		assert.True(t, res.Degraded)
	})
}

func TestSearch(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		g := NewGenerator(&fakeClient{response: `{"matches":[{"id":"u1","name":"Sara","reason":"Works in fintech","score":0.9}]}`}, time.Second, nil)
		res := g.Search(context.Background(), "fintech founders", []string{"u1"})
		assert.False(t, res.Degraded)
		require.Len(t, res.Matches, 1)
		assert.Equal(t, "Sara", res.Matches[0].Name)
	})

	t.Run("failure yields empty non-nil matches", func(t *testing.T) {
		g := NewGenerator(&fakeClient{err: errors.New("boom")}, time.Second, nil)
		res := g.Search(context.Background(), "query", nil)
		assert.True(t, res.Degraded)
		assert.NotNil(t, res.Matches)
		assert.Empty(t, res.Matches)
	})
}

package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/wellcast-go/internal/models"
)

type stubGenerator struct {
	name  string
	text  string
	err   error
	delay time.Duration
	calls int
	mu    sync.Mutex
}

func (g *stubGenerator) Name() string { return g.name }

func (g *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	if g.delay > 0 {
		select {
		case <-time.After(g.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return g.text, g.err
}

type panickingStrategy struct{}

func (panickingStrategy) Name() string { return "panicky" }
func (panickingStrategy) Generate(context.Context, RecommendationContext) ([]models.Recommendation, error) {
	panic("unexpected nil")
}

type countingSourceRecorder struct {
	mu      sync.Mutex
	sources []string
}

func (r *countingSourceRecorder) RecordRecommendationSource(source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = append(r.sources, source)
}

func testRecommendationContext(risk models.RiskLevel, factor string) RecommendationContext {
	return RecommendationContext{
		RiskLevel:        risk,
		PrimaryFactor:    models.PrimaryFactor{Category: factor, Description: "Meeting schedule is adding pressure"},
		EmotionalWeather: models.EmotionalWeather{Label: "Overcast", Description: "Heavy skies"},
		Factors: models.ForecastFactors{
			Positive: []string{"sleep patterns are healthy"},
			Negative: []string{"calendar-event patterns indicate stress", "High meeting load detected"},
		},
		OverallScore: -22.4,
		Trend:        models.TrendDeclining,
		SignalCount:  12,
	}
}

func TestRecommendationGenerator_AlwaysFailingBackendUsesTemplates(t *testing.T) {
	for _, risk := range []models.RiskLevel{models.RiskLevelLow, models.RiskLevelModerate, models.RiskLevelHigh, models.RiskLevelCritical} {
		for _, factor := range []string{"check-in", "task", "calendar-event", "sleep", "activity", "data-insufficiency", ""} {
			generator := &stubGenerator{name: "openai", err: errors.New("connection refused")}
			recommender := NewRecommendationGenerator(quietLogger(), nil, NewGenerativeStrategy(generator, nil, time.Second))

			recs, err := recommender.Recommend(context.Background(), testRecommendationContext(risk, factor))

			require.NoError(t, err)
			assert.GreaterOrEqual(t, len(recs), 1)
			assert.LessOrEqual(t, len(recs), 2)
			for _, rec := range recs {
				assert.NotEmpty(t, rec.Text)
				assert.NotEmpty(t, rec.Category)
				assert.NotEmpty(t, rec.Priority)
				assert.NotEmpty(t, rec.Reasoning)
			}
			assert.Equal(t, FallbackRecommendation(risk), recs[0])
		}
	}
}

func TestRecommendationGenerator_UsesGeneratedText(t *testing.T) {
	generator := &stubGenerator{name: "openai", text: "1. Take a short break this afternoon and step outside.\n" +
		"2. Schedule focus blocks this week.\n" +
		"3. Build a sustainable routine for the next month."}
	recorder := &countingSourceRecorder{}
	recommender := NewRecommendationGenerator(quietLogger(), recorder, NewGenerativeStrategy(generator, nil, time.Second))

	recs, err := recommender.Recommend(context.Background(), testRecommendationContext(models.RiskLevelModerate, "calendar-event"))
	require.NoError(t, err)

	require.Len(t, recs, 3)
	assert.Equal(t, "Take a short break this afternoon and step outside.", recs[0].Text)
	assert.Equal(t, models.RecommendationShortTerm, recs[0].Category)
	assert.Equal(t, models.PriorityMedium, recs[0].Priority)
	assert.Equal(t, 0.85, recs[0].Confidence)
	assert.Equal(t, 0.8, recs[1].Confidence)
	assert.Equal(t, models.RecommendationLongTerm, recs[2].Category)
	assert.Contains(t, recs[0].Reasoning, "calendar-event")
	assert.Contains(t, recs[0].Reasoning, "moderate")
	assert.Equal(t, []string{"openai"}, recorder.sources)
}

func TestRecommendationGenerator_FallsThroughChainInOrder(t *testing.T) {
	first := &stubGenerator{name: "openai", err: errors.New("rate limited")}
	second := &stubGenerator{name: "huggingface", text: "- Stop checking email after dinner today\n- Plan a lighter week"}
	recorder := &countingSourceRecorder{}
	recommender := NewRecommendationGenerator(quietLogger(), recorder,
		NewGenerativeStrategy(first, nil, time.Second),
		NewGenerativeStrategy(second, nil, time.Second),
	)

	recs, err := recommender.Recommend(context.Background(), testRecommendationContext(models.RiskLevelLow, "task"))
	require.NoError(t, err)

	require.Len(t, recs, 2)
	assert.Equal(t, models.RecommendationImmediate, recs[0].Category)
	assert.Equal(t, models.PriorityHigh, recs[0].Priority)
	assert.Equal(t, models.RecommendationShortTerm, recs[1].Category)
	assert.Equal(t, models.PriorityLow, recs[1].Priority)
	assert.Equal(t, []string{"huggingface"}, recorder.sources)
	assert.Equal(t, []string{"openai", "huggingface", "template"}, recommender.Strategies())
}

func TestRecommendationGenerator_TimeoutFallsBack(t *testing.T) {
	generator := &stubGenerator{name: "openai", text: "Rest more", delay: time.Second}
	recommender := NewRecommendationGenerator(quietLogger(), nil, NewGenerativeStrategy(generator, nil, 20*time.Millisecond))

	start := time.Now()
	recs, err := recommender.Recommend(context.Background(), testRecommendationContext(models.RiskLevelHigh, "sleep"))
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, FallbackRecommendation(models.RiskLevelHigh), recs[0])
	assert.Equal(t, factorTemplates[models.SignalTypeSleep], recs[1])
}

func TestRecommendationGenerator_EmptyResponseFallsBack(t *testing.T) {
	generator := &stubGenerator{name: "openai", text: "ok"}
	recommender := NewRecommendationGenerator(quietLogger(), nil, NewGenerativeStrategy(generator, nil, time.Second))

	recs, err := recommender.Recommend(context.Background(), testRecommendationContext(models.RiskLevelLow, "unknown"))
	require.NoError(t, err)

	require.Len(t, recs, 1)
	assert.Equal(t, FallbackRecommendation(models.RiskLevelLow), recs[0])
}

func TestRecommendationGenerator_RecoversPanics(t *testing.T) {
	recommender := NewRecommendationGenerator(quietLogger(), nil, panickingStrategy{})

	recs, err := recommender.Recommend(context.Background(), testRecommendationContext(models.RiskLevelCritical, "activity"))
	require.NoError(t, err)

	require.Len(t, recs, 2)
	assert.Equal(t, models.RecommendationImmediate, recs[0].Category)
}

func TestRecommendationGenerator_OnlyFailingStrategiesErrors(t *testing.T) {
	recommender := &RecommendationGenerator{
		strategies: []RecommendationStrategy{panickingStrategy{}},
		logger:     quietLogger(),
	}

	recs, err := recommender.Recommend(context.Background(), testRecommendationContext(models.RiskLevelLow, "task"))

	assert.Nil(t, recs)
	assert.ErrorIs(t, err, ErrNoRecommendations)
}

func TestRecommendationGenerator_CircuitBreakerSkipsBackend(t *testing.T) {
	generator := &stubGenerator{name: "openai", err: errors.New("503")}
	breaker := NewCircuitBreaker("openai", CircuitBreakerConfig{FailureThreshold: 2, OpenTimeout: time.Hour}, quietLogger())
	recommender := NewRecommendationGenerator(quietLogger(), nil, NewGenerativeStrategy(generator, breaker, time.Second))

	for i := 0; i < 5; i++ {
		recs, err := recommender.Recommend(context.Background(), testRecommendationContext(models.RiskLevelLow, "task"))
		require.NoError(t, err)
		require.NotEmpty(t, recs)
	}

	assert.Equal(t, 2, generator.calls)
	assert.Equal(t, CircuitOpen, breaker.State())
}

func TestTemplateRecommendations(t *testing.T) {
	recs := templateRecommendations(models.RiskLevelModerate, "sleep")
	require.Len(t, recs, 2)
	assert.Equal(t, models.RecommendationShortTerm, recs[0].Category)
	assert.Equal(t, models.PriorityMedium, recs[0].Priority)

	assert.Len(t, templateRecommendations(models.RiskLevelLow, models.PrimaryFactorDataInsufficiency), 1)
}

func TestFallbackRecommendation(t *testing.T) {
	tests := []struct {
		risk     models.RiskLevel
		category models.RecommendationCategory
		priority models.RecommendationPriority
	}{
		{models.RiskLevelLow, models.RecommendationLongTerm, models.PriorityLow},
		{models.RiskLevelModerate, models.RecommendationShortTerm, models.PriorityMedium},
		{models.RiskLevelHigh, models.RecommendationImmediate, models.PriorityHigh},
		{models.RiskLevelCritical, models.RecommendationImmediate, models.PriorityHigh},
		{"bogus", models.RecommendationImmediate, models.PriorityHigh},
	}
	for _, tt := range tests {
		rec := FallbackRecommendation(tt.risk)
		assert.Equal(t, tt.category, rec.Category, string(tt.risk))
		assert.Equal(t, tt.priority, rec.Priority, string(tt.risk))
	}
}

func TestBuildRecommendationPrompt(t *testing.T) {
	prompt := buildRecommendationPrompt(testRecommendationContext(models.RiskLevelHigh, "calendar-event"))

	for _, want := range []string{"high risk", "-22.4", "declining", "Overcast", "calendar-event", "High meeting load detected", "12 recent signals", "3 to 5"} {
		assert.True(t, strings.Contains(prompt, want), "prompt missing %q", want)
	}
	assert.NotContains(t, prompt, "Mixed patterns")
}

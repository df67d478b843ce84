package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/wellcast-go/internal/models"
	"github.com/irfndi/wellcast-go/internal/utils"
)

var engineNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

type MockRecommender struct {
	mock.Mock
}

func (m *MockRecommender) Recommend(ctx context.Context, rc RecommendationContext) ([]models.Recommendation, error) {
	args := m.Called(ctx, rc)
	recs, _ := args.Get(0).([]models.Recommendation)
	return recs, args.Error(1)
}

type panickingRecommender struct{}

func (panickingRecommender) Recommend(context.Context, RecommendationContext) ([]models.Recommendation, error) {
	panic("boom")
}

type recordedForecast struct {
	risk     models.RiskLevel
	degraded bool
}

type stubForecastRecorder struct {
	mu       sync.Mutex
	observed []recordedForecast
}

func (r *stubForecastRecorder) ObserveForecast(risk models.RiskLevel, degraded bool, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observed = append(r.observed, recordedForecast{risk: risk, degraded: degraded})
}

func newTestEngine(opts ...ForecastEngineOption) *ForecastEngine {
	opts = append([]ForecastEngineOption{WithClock(func() time.Time { return engineNow })}, opts...)
	return NewForecastEngine(NewDefaultScoringRubric(), models.DefaultForecastConfig(), quietLogger(), opts...)
}

func checkIns(n int, emotional, energy, stress string) []models.WellnessSignal {
	signals := make([]models.WellnessSignal, 0, n)
	for i := 0; i < n; i++ {
		signals = append(signals, newSignal(models.SignalTypeCheckIn, engineNow.Add(-time.Duration(i+1)*time.Hour), map[string]interface{}{
			models.MetaEmotionalState: emotional,
			models.MetaEnergyLevel:    energy,
			models.MetaStressLevel:    stress,
		}))
	}
	return signals
}

func TestForecastEngine_RejectsMissingUserID(t *testing.T) {
	engine := newTestEngine()

	for _, userID := range []string{"", "   "} {
		forecast, err := engine.ComputeForecast(context.Background(), userID, checkIns(5, "good", "good", "low"), nil)
		require.Error(t, err)
		assert.True(t, utils.IsValidationError(err))
		assert.Nil(t, forecast)
	}
}

func TestForecastEngine_DegradedForecast(t *testing.T) {
	engine := newTestEngine()

	forecast, err := engine.ComputeForecast(context.Background(), "user-1", checkIns(4, "excellent", "high", "none"), nil)
	require.NoError(t, err)

	assert.Equal(t, "user-1", forecast.UserID)
	assert.Equal(t, engineNow, forecast.Timestamp)
	assert.Equal(t, 0.0, forecast.OverallScore)
	assert.Equal(t, models.RiskLevelLow, forecast.RiskLevel)
	assert.Equal(t, 0.1, forecast.Confidence)
	assert.Equal(t, models.TrendStable, forecast.Trend)
	assert.NotEmpty(t, forecast.Factors.Negative)
	assert.Len(t, forecast.Recommendations, 3)
	assert.Equal(t, engineNow.Add(24*time.Hour), forecast.NextCheckIn)
	assert.Equal(t, models.PrimaryFactorDataInsufficiency, forecast.PrimaryFactor.Category)
	assert.True(t, forecast.IsDegraded())
	assert.Equal(t, 4, forecast.Metadata.SignalCount)
	assert.Equal(t, "Foggy", forecast.EmotionalWeather.Label)
}

func TestForecastEngine_DegradedForAnySmallSet(t *testing.T) {
	engine := newTestEngine()

	for n := 0; n < 5; n++ {
		forecast, err := engine.ComputeForecast(context.Background(), "user-1", checkIns(n, "terrible", "exhausted", "overwhelming"), nil)
		require.NoError(t, err)
		assert.Equal(t, models.RiskLevelLow, forecast.RiskLevel, "n=%d", n)
		assert.Equal(t, 0.1, forecast.Confidence, "n=%d", n)
		assert.Equal(t, models.TrendStable, forecast.Trend, "n=%d", n)
		assert.NotEmpty(t, forecast.Factors.Negative, "n=%d", n)
	}
}

func TestForecastEngine_SignalsOutsideWindowAreIgnored(t *testing.T) {
	engine := newTestEngine()
	signals := checkIns(6, "good", "good", "low")
	signals[4].Timestamp = engineNow.Add(-15 * 24 * time.Hour)
	signals[5].Timestamp = engineNow.Add(-30 * 24 * time.Hour)

	forecast, err := engine.ComputeForecast(context.Background(), "user-1", signals, nil)
	require.NoError(t, err)

	assert.True(t, forecast.IsDegraded())
	assert.Equal(t, 4, forecast.Metadata.SignalCount)
}

func TestForecastEngine_SignalCountMatchesWindow(t *testing.T) {
	engine := newTestEngine()
	signals := checkIns(8, "good", "good", "low")
	signals[7].Timestamp = engineNow.Add(-20 * 24 * time.Hour)

	forecast, err := engine.ComputeForecast(context.Background(), "user-1", signals, nil)
	require.NoError(t, err)

	assert.False(t, forecast.IsDegraded())
	assert.Equal(t, 7, forecast.Metadata.SignalCount)
	assert.Equal(t, signals[6].Timestamp, forecast.Metadata.TimeRange.Start)
	assert.Equal(t, signals[0].Timestamp, forecast.Metadata.TimeRange.End)
}

func TestForecastEngine_ExcellentCheckIns(t *testing.T) {
	engine := newTestEngine()

	forecast, err := engine.ComputeForecast(context.Background(), "user-1", checkIns(5, "excellent", "high", "none"), nil)
	require.NoError(t, err)

	assert.InDelta(t, 80, forecast.OverallScore, 1e-9)
	assert.Equal(t, models.RiskLevelLow, forecast.RiskLevel)
	assert.Equal(t, models.TrendStable, forecast.Trend)
	assert.InDelta(t, 0.5, forecast.Confidence, 1e-9)
	assert.Equal(t, []string{"check-in patterns are healthy"}, forecast.Factors.Positive)
	assert.Equal(t, string(models.SignalTypeCheckIn), forecast.PrimaryFactor.Category)
	assert.Equal(t, 0.0, forecast.PrimaryFactor.Impact)
	assert.Equal(t, "Sunny", forecast.EmotionalWeather.Label)
	assert.Equal(t, engineNow.Add(72*time.Hour), forecast.NextCheckIn)

	require.Len(t, forecast.Recommendations, 2)
	assert.Equal(t, FallbackRecommendation(models.RiskLevelLow), forecast.Recommendations[0])
	assert.Equal(t, factorTemplates[models.SignalTypeCheckIn], forecast.Recommendations[1])
	assert.GreaterOrEqual(t, forecast.Metadata.ProcessingTime, 0.0)
}

func TestForecastEngine_TerribleCheckInsAverageToNeutral(t *testing.T) {
	engine := newTestEngine()

	forecast, err := engine.ComputeForecast(context.Background(), "user-1", checkIns(5, "terrible", "exhausted", "overwhelming"), nil)
	require.NoError(t, err)

	assert.InDelta(t, 10.0/3, forecast.OverallScore, 1e-9)
	assert.Equal(t, models.RiskLevelModerate, forecast.RiskLevel)
	assert.Equal(t, []string{"check-in patterns are mixed"}, forecast.Factors.Neutral)
	assert.Equal(t, engineNow.Add(24*time.Hour), forecast.NextCheckIn)
}

func TestForecastEngine_ConfigOverride(t *testing.T) {
	engine := newTestEngine()
	minSignals := 2
	override := &models.ForecastConfigOverride{
		MinSignalsRequired: &minSignals,
		RiskThresholds:     &models.RiskThresholds{Low: 90, Moderate: 70, High: 50, Critical: 0},
	}

	forecast, err := engine.ComputeForecast(context.Background(), "user-1", checkIns(2, "excellent", "high", "none"), override)
	require.NoError(t, err)

	assert.False(t, forecast.IsDegraded())
	assert.Equal(t, models.RiskLevelModerate, forecast.RiskLevel)
	assert.Equal(t, engineNow.Add(24*time.Hour), forecast.NextCheckIn)
	assert.Equal(t, 5, engine.Config().MinSignalsRequired)
}

func TestForecastEngine_UnknownTypesScoreZero(t *testing.T) {
	engine := newTestEngine()
	signals := make([]models.WellnessSignal, 5)
	for i := range signals {
		signals[i] = newSignal("mood-ring", engineNow.Add(-time.Hour), nil)
	}

	forecast, err := engine.ComputeForecast(context.Background(), "user-1", signals, nil)
	require.NoError(t, err)

	assert.Equal(t, 0.0, forecast.OverallScore)
	assert.Equal(t, models.RiskLevelModerate, forecast.RiskLevel)
	assert.Contains(t, forecast.Factors.Neutral, "mood-ring patterns are mixed")
}

func TestForecastEngine_RecommenderFailureFallsBack(t *testing.T) {
	recommender := new(MockRecommender)
	recommender.On("Recommend", mock.Anything, mock.Anything).Return(nil, errors.New("backend unavailable"))
	engine := newTestEngine(WithRecommender(recommender))

	forecast, err := engine.ComputeForecast(context.Background(), "user-1", checkIns(5, "excellent", "high", "none"), nil)
	require.NoError(t, err)

	require.Len(t, forecast.Recommendations, 1)
	assert.Equal(t, FallbackRecommendation(models.RiskLevelLow), forecast.Recommendations[0])
	recommender.AssertExpectations(t)
}

func TestForecastEngine_EmptyRecommendationsFallBack(t *testing.T) {
	recommender := new(MockRecommender)
	recommender.On("Recommend", mock.Anything, mock.Anything).Return([]models.Recommendation{}, nil)
	engine := newTestEngine(WithRecommender(recommender))

	forecast, err := engine.ComputeForecast(context.Background(), "user-1", checkIns(5, "terrible", "exhausted", "overwhelming"), nil)
	require.NoError(t, err)

	require.Len(t, forecast.Recommendations, 1)
	assert.Equal(t, FallbackRecommendation(models.RiskLevelModerate), forecast.Recommendations[0])
}

func TestForecastEngine_RecommenderPanicFallsBack(t *testing.T) {
	engine := newTestEngine(WithRecommender(panickingRecommender{}))

	forecast, err := engine.ComputeForecast(context.Background(), "user-1", checkIns(5, "excellent", "high", "none"), nil)
	require.NoError(t, err)

	require.Len(t, forecast.Recommendations, 1)
	assert.Equal(t, models.RecommendationLongTerm, forecast.Recommendations[0].Category)
}

func TestForecastEngine_RecommenderReceivesContext(t *testing.T) {
	recommender := new(MockRecommender)
	recommender.On("Recommend", mock.Anything, mock.MatchedBy(func(rc RecommendationContext) bool {
		return rc.RiskLevel == models.RiskLevelLow &&
			rc.SignalCount == 5 &&
			rc.EmotionalWeather.Label == "Sunny" &&
			rc.PrimaryFactor.Category == "check-in"
	})).Return([]models.Recommendation{{Text: "Keep it up", Category: models.RecommendationLongTerm, Priority: models.PriorityLow}}, nil)
	engine := newTestEngine(WithRecommender(recommender))

	forecast, err := engine.ComputeForecast(context.Background(), "user-1", checkIns(5, "excellent", "high", "none"), nil)
	require.NoError(t, err)

	require.Len(t, forecast.Recommendations, 1)
	assert.Equal(t, "Keep it up", forecast.Recommendations[0].Text)
	recommender.AssertExpectations(t)
}

func TestForecastEngine_RecordsMetrics(t *testing.T) {
	recorder := &stubForecastRecorder{}
	engine := newTestEngine(WithForecastRecorder(recorder))

	_, err := engine.ComputeForecast(context.Background(), "user-1", checkIns(5, "excellent", "high", "none"), nil)
	require.NoError(t, err)
	_, err = engine.ComputeForecast(context.Background(), "user-1", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, []recordedForecast{
		{risk: models.RiskLevelLow, degraded: false},
		{risk: models.RiskLevelLow, degraded: true},
	}, recorder.observed)
}

func TestForecastEngine_ConcurrentCallsAreIndependent(t *testing.T) {
	engine := newTestEngine()
	signals := append(checkIns(5, "good", "moderate", "high"), checkIns(3, "terrible", "low", "overwhelming")...)

	expected, err := engine.ComputeForecast(context.Background(), "user-1", signals, nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*models.BurnoutForecast, 20)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = engine.ComputeForecast(context.Background(), "user-1", signals, nil)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		require.NotNil(t, got)
		got.Metadata.ProcessingTime = expected.Metadata.ProcessingTime
		assert.Equal(t, expected, got)
	}
}

func TestClassifyRisk(t *testing.T) {
	thresholds := models.DefaultForecastConfig().RiskThresholds

	tests := []struct {
		score float64
		want  models.RiskLevel
	}{
		{80, models.RiskLevelLow},
		{20, models.RiskLevelLow},
		{19.99, models.RiskLevelModerate},
		{-10, models.RiskLevelModerate},
		{-10.01, models.RiskLevelHigh},
		{-30, models.RiskLevelHigh},
		{-30.01, models.RiskLevelCritical},
		{-50, models.RiskLevelCritical},
		{-100, models.RiskLevelCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, classifyRisk(tt.score, thresholds), "score %.2f", tt.score)
	}
}

func TestClassifyRisk_NonMonotonicThresholdsKeepCheckOrder(t *testing.T) {
	thresholds := models.RiskThresholds{Low: -10, Moderate: 20, High: -30, Critical: -50}

	assert.Equal(t, models.RiskLevelLow, classifyRisk(0, thresholds))
	assert.Equal(t, models.RiskLevelLow, classifyRisk(50, thresholds))
	assert.Equal(t, models.RiskLevelHigh, classifyRisk(-20, thresholds))
	assert.Equal(t, models.RiskLevelCritical, classifyRisk(-40, thresholds))
}

func TestCalculateNextCheckIn(t *testing.T) {
	assert.Equal(t, engineNow.Add(72*time.Hour), calculateNextCheckIn(models.RiskLevelLow, engineNow))
	assert.Equal(t, engineNow.Add(24*time.Hour), calculateNextCheckIn(models.RiskLevelModerate, engineNow))
	assert.Equal(t, engineNow.Add(12*time.Hour), calculateNextCheckIn(models.RiskLevelHigh, engineNow))
	assert.Equal(t, engineNow.Add(6*time.Hour), calculateNextCheckIn(models.RiskLevelCritical, engineNow))
}

func scoresAt(ts time.Time, values ...float64) []models.SignalScore {
	scores := make([]models.SignalScore, len(values))
	for i, v := range values {
		scores[i] = models.SignalScore{
			Signal: models.WellnessSignal{Type: models.SignalTypeCheckIn, Timestamp: ts},
			Score:  v,
			Weight: 0.35,
		}
	}
	return scores
}

func TestCalculateTrend(t *testing.T) {
	cfg := models.DefaultForecastConfig().TrendAnalysis
	recent := engineNow.Add(-time.Hour)

	assert.Equal(t, models.TrendImproving, calculateTrend(scoresAt(recent, 0, 10, 20, 30), engineNow, cfg))
	assert.Equal(t, models.TrendDeclining, calculateTrend(scoresAt(recent, 30, 20, 10, 0), engineNow, cfg))
	assert.Equal(t, models.TrendStable, calculateTrend(scoresAt(recent, 10, 12, 11, 13), engineNow, cfg))
	assert.Equal(t, models.TrendStable, calculateTrend(scoresAt(recent, 0, 50), engineNow, cfg))
}

func TestCalculateTrend_SteepDeclineIsDecliningNotCritical(t *testing.T) {
	cfg := models.DefaultForecastConfig().TrendAnalysis

	trend := calculateTrend(scoresAt(engineNow.Add(-time.Hour), 90, 40, -10, -60), engineNow, cfg)

	assert.Equal(t, models.TrendDeclining, trend)
}

func TestCalculateTrend_UsesInputOrderNotTimestamps(t *testing.T) {
	cfg := models.DefaultForecastConfig().TrendAnalysis
	scores := []models.SignalScore{
		{Signal: models.WellnessSignal{Timestamp: engineNow.Add(-1 * time.Hour)}, Score: 0},
		{Signal: models.WellnessSignal{Timestamp: engineNow.Add(-2 * time.Hour)}, Score: 20},
		{Signal: models.WellnessSignal{Timestamp: engineNow.Add(-3 * time.Hour)}, Score: 40},
	}

	assert.Equal(t, models.TrendImproving, calculateTrend(scores, engineNow, cfg))
}

func TestCalculateTrend_IgnoresOldSignals(t *testing.T) {
	cfg := models.DefaultForecastConfig().TrendAnalysis
	scores := append(scoresAt(engineNow.Add(-10*24*time.Hour), 0, 10, 20), scoresAt(engineNow.Add(-time.Hour), 30, 40)...)

	assert.Equal(t, models.TrendStable, calculateTrend(scores, engineNow, cfg))
}

func TestCalculateConfidence(t *testing.T) {
	recent := engineNow.Add(-time.Hour)

	assert.InDelta(t, 1.0, calculateConfidence(scoresAt(recent, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0), engineNow), 1e-9)
	assert.InDelta(t, 0.2*0.3*(2.0/3), calculateConfidence(scoresAt(recent, 100, -100), engineNow), 1e-9)
	assert.Equal(t, 0.0, calculateConfidence(scoresAt(engineNow.Add(-8*24*time.Hour), 10, 10, 10), engineNow))
	assert.Equal(t, 0.0, calculateConfidence(nil, engineNow))

	// variance 100 gives a factor of 0.5
	assert.InDelta(t, 0.4*0.5, calculateConfidence(scoresAt(recent, 10, -10, 10, -10), engineNow), 1e-9)
}

func TestCalculateOverallScore(t *testing.T) {
	scores := []models.SignalScore{
		{Score: 80, Weight: 0.35},
		{Score: -40, Weight: 0.25},
	}

	assert.InDelta(t, (80*0.35-40*0.25)/0.6, calculateOverallScore(scores), 1e-9)
	assert.Equal(t, 0.0, calculateOverallScore(nil))
	assert.Equal(t, 0.0, calculateOverallScore([]models.SignalScore{{Score: 50, Weight: 0}}))
}

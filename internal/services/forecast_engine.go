package services

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/irfndi/wellcast-go/internal/models"
	"github.com/irfndi/wellcast-go/internal/utils"
)

const (
	degradedConfidence     = 0.1
	degradedNextCheckIn    = 24 * time.Hour
	insufficientDataFactor = "Insufficient data for an accurate forecast; keep logging check-ins"

	trendImprovingSlope = 5.0
	trendDecliningSlope = -5.0
	trendCriticalSlope  = -15.0
)

var nextCheckInOffsets = map[models.RiskLevel]time.Duration{
	models.RiskLevelLow:      72 * time.Hour,
	models.RiskLevelModerate: 24 * time.Hour,
	models.RiskLevelHigh:     12 * time.Hour,
	models.RiskLevelCritical: 6 * time.Hour,
}

// ForecastRecorder receives per-forecast observations
type ForecastRecorder interface {
	ObserveForecast(risk models.RiskLevel, degraded bool, duration time.Duration)
}

// ForecastEngine computes burnout forecasts. It holds only immutable
// configuration and collaborators, so one engine serves concurrent calls.
type ForecastEngine struct {
	rubric      *ScoringRubric
	config      models.ForecastConfig
	recommender Recommender
	recorder    ForecastRecorder
	logger      *logrus.Logger
	tracer      trace.Tracer
	clock       func() time.Time
}

// ForecastEngineOption customizes a ForecastEngine
type ForecastEngineOption func(*ForecastEngine)

// WithRecommender replaces the template-only recommender
func WithRecommender(r Recommender) ForecastEngineOption {
	return func(e *ForecastEngine) { e.recommender = r }
}

// WithForecastRecorder attaches a metrics recorder
func WithForecastRecorder(r ForecastRecorder) ForecastEngineOption {
	return func(e *ForecastEngine) { e.recorder = r }
}

// WithClock overrides the time source
func WithClock(clock func() time.Time) ForecastEngineOption {
	return func(e *ForecastEngine) { e.clock = clock }
}

// NewForecastEngine creates an engine around rubric and config
func NewForecastEngine(rubric *ScoringRubric, config models.ForecastConfig, logger *logrus.Logger, opts ...ForecastEngineOption) *ForecastEngine {
	if rubric == nil {
		rubric = NewDefaultScoringRubric()
	}
	e := &ForecastEngine{
		rubric: rubric,
		config: config,
		logger: logger,
		tracer: otel.Tracer("github.com/irfndi/wellcast-go/internal/services"),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.recommender == nil {
		e.recommender = NewRecommendationGenerator(logger, nil)
	}
	return e
}

// Config returns the engine's base configuration
func (e *ForecastEngine) Config() models.ForecastConfig {
	return e.config
}

// Rubric returns the scoring rubric used by the engine
func (e *ForecastEngine) Rubric() *ScoringRubric {
	return e.rubric
}

// ComputeForecast builds a forecast for userID from signals. The only error
// it returns is a validation error for a missing user id; too few signals
// yields a degraded forecast instead.
func (e *ForecastEngine) ComputeForecast(ctx context.Context, userID string, signals []models.WellnessSignal, override *models.ForecastConfigOverride) (*models.BurnoutForecast, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, utils.NewFieldValidationError("userId", "user id is required")
	}

	start := time.Now()
	now := e.clock()
	cfg := e.config.Merge(override)

	ctx, span := e.tracer.Start(ctx, "ForecastEngine.ComputeForecast",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("signals.input", len(signals)),
		))
	defer span.End()

	windowed := filterSince(signals, now.Add(-days(cfg.AnalysisWindow)))
	span.SetAttributes(attribute.Int("signals.windowed", len(windowed)))

	var forecast *models.BurnoutForecast
	if len(windowed) < cfg.MinSignalsRequired {
		forecast = e.degradedForecast(userID, now, windowed)
	} else {
		forecast = e.fullForecast(ctx, userID, now, cfg, windowed)
	}

	elapsed := time.Since(start)
	forecast.Metadata.ProcessingTime = float64(elapsed.Microseconds()) / 1000
	span.SetAttributes(
		attribute.String("forecast.risk_level", string(forecast.RiskLevel)),
		attribute.Bool("forecast.degraded", forecast.IsDegraded()),
	)
	if e.recorder != nil {
		e.recorder.ObserveForecast(forecast.RiskLevel, forecast.IsDegraded(), elapsed)
	}

	e.logger.WithFields(logrus.Fields{
		"user_id":       userID,
		"signal_count":  forecast.Metadata.SignalCount,
		"risk_level":    forecast.RiskLevel,
		"overall_score": forecast.OverallScore,
		"trend":         forecast.Trend,
		"degraded":      forecast.IsDegraded(),
	}).Debug("Forecast computed")

	return forecast, nil
}

func (e *ForecastEngine) degradedForecast(userID string, now time.Time, windowed []models.WellnessSignal) *models.BurnoutForecast {
	return &models.BurnoutForecast{
		UserID:       userID,
		Timestamp:    now,
		OverallScore: 0,
		RiskLevel:    models.RiskLevelLow,
		Confidence:   degradedConfidence,
		Trend:        models.TrendStable,
		Factors: models.ForecastFactors{
			Positive: []string{},
			Negative: []string{insufficientDataFactor},
			Neutral:  []string{},
		},
		EmotionalWeather: insufficientDataWeather(),
		PrimaryFactor: models.PrimaryFactor{
			Category:       models.PrimaryFactorDataInsufficiency,
			Impact:         0,
			Description:    "Not enough recent signals to identify a primary factor",
			Recommendation: "Log a check-in each day so the forecast can learn your patterns",
		},
		Recommendations: degradedRecommendations(),
		NextCheckIn:     now.Add(degradedNextCheckIn),
		Metadata: models.ForecastMetadata{
			SignalCount: len(windowed),
			TimeRange:   signalTimeRange(windowed, now),
		},
	}
}

func (e *ForecastEngine) fullForecast(ctx context.Context, userID string, now time.Time, cfg models.ForecastConfig, windowed []models.WellnessSignal) *models.BurnoutForecast {
	scores := e.rubric.ScoreSignals(windowed)

	overall := calculateOverallScore(scores)
	risk := classifyRisk(overall, cfg.RiskThresholds)
	trend := calculateTrend(scores, now, cfg.TrendAnalysis)
	factors := identifyFactors(scores, now)
	primary := determinePrimaryFactor(scores, now)
	weather := determineEmotionalWeather(overall, trend)

	rc := RecommendationContext{
		RiskLevel:        risk,
		PrimaryFactor:    primary,
		EmotionalWeather: weather,
		Factors:          factors,
		OverallScore:     overall,
		Trend:            trend,
		SignalCount:      len(scores),
	}
	recommendations := e.recommend(ctx, userID, rc)

	return &models.BurnoutForecast{
		UserID:           userID,
		Timestamp:        now,
		OverallScore:     overall,
		RiskLevel:        risk,
		Confidence:       calculateConfidence(scores, now),
		Trend:            trend,
		Factors:          factors,
		EmotionalWeather: weather,
		PrimaryFactor:    primary,
		Recommendations:  recommendations,
		NextCheckIn:      calculateNextCheckIn(risk, now),
		Metadata: models.ForecastMetadata{
			SignalCount: len(windowed),
			TimeRange:   signalTimeRange(windowed, now),
		},
	}
}

// recommend never fails: a broken or empty recommender degrades to the
// single risk-level template.
func (e *ForecastEngine) recommend(ctx context.Context, userID string, rc RecommendationContext) (recs []models.Recommendation) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.WithFields(logrus.Fields{
				"user_id": userID,
				"panic":   r,
			}).Error("Recommender panicked, using fallback")
			recs = []models.Recommendation{FallbackRecommendation(rc.RiskLevel)}
		}
	}()

	recs, err := e.recommender.Recommend(ctx, rc)
	if err != nil || len(recs) == 0 {
		fields := logrus.Fields{"user_id": userID, "risk_level": rc.RiskLevel}
		if err != nil {
			fields["error"] = err.Error()
		}
		e.logger.WithFields(fields).Warn("Recommendation generation failed, using fallback")
		return []models.Recommendation{FallbackRecommendation(rc.RiskLevel)}
	}
	return recs
}

func days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}

// filterSince keeps signals at or after cutoff, preserving input order
func filterSince(signals []models.WellnessSignal, cutoff time.Time) []models.WellnessSignal {
	kept := make([]models.WellnessSignal, 0, len(signals))
	for _, s := range signals {
		if !s.Timestamp.Before(cutoff) {
			kept = append(kept, s)
		}
	}
	return kept
}

func signalTimeRange(signals []models.WellnessSignal, now time.Time) models.TimeRange {
	if len(signals) == 0 {
		return models.TimeRange{Start: now, End: now}
	}
	start, end := signals[0].Timestamp, signals[0].Timestamp
	for _, s := range signals[1:] {
		if s.Timestamp.Before(start) {
			start = s.Timestamp
		}
		if s.Timestamp.After(end) {
			end = s.Timestamp
		}
	}
	return models.TimeRange{Start: start, End: end}
}

// calculateOverallScore is the weight-averaged score, 0 when no weight
func calculateOverallScore(scores []models.SignalScore) float64 {
	var weighted, totalWeight float64
	for _, s := range scores {
		weighted += s.Score * s.Weight
		totalWeight += s.Weight
	}
	if totalWeight == 0 {
		return 0
	}
	return weighted / totalWeight
}

// classifyRisk checks low, moderate and high in that order; a score equal to
// a threshold lands in that threshold's band. Critical is the floor.
func classifyRisk(score float64, t models.RiskThresholds) models.RiskLevel {
	switch {
	case score >= t.Low:
		return models.RiskLevelLow
	case score >= t.Moderate:
		return models.RiskLevelModerate
	case score >= t.High:
		return models.RiskLevelHigh
	default:
		return models.RiskLevelCritical
	}
}

func calculateConfidence(scores []models.SignalScore, now time.Time) float64 {
	if len(scores) == 0 {
		return 0
	}
	sampleFactor := min(float64(len(scores))/10, 1)
	varianceFactor := max(0.3, 1-calculatePopulationVariance(scoreValues(scores))/200)
	recencyFactor := min(float64(len(recentScores(scores, now)))/3, 1)
	return clampFloat64(sampleFactor*varianceFactor*recencyFactor, 0, 1)
}

// calculateTrend regresses score against position in input order. The
// critical branch sits behind the declining one and cannot fire.
func calculateTrend(scores []models.SignalScore, now time.Time, cfg models.TrendAnalysisConfig) models.Trend {
	cutoff := now.Add(-days(cfg.WindowDays))
	var values []float64
	for _, s := range scores {
		if !s.Signal.Timestamp.Before(cutoff) {
			values = append(values, s.Score)
		}
	}
	if len(values) < cfg.MinDataPoints || len(values) < 2 {
		return models.TrendStable
	}

	slope := calculateLinearRegressionSlope(values)
	switch {
	case slope > trendImprovingSlope:
		return models.TrendImproving
	case slope < trendDecliningSlope:
		return models.TrendDeclining
	case slope < trendCriticalSlope:
		return models.TrendCritical
	default:
		return models.TrendStable
	}
}

func calculateNextCheckIn(risk models.RiskLevel, now time.Time) time.Time {
	offset, ok := nextCheckInOffsets[risk]
	if !ok {
		offset = nextCheckInOffsets[models.RiskLevelCritical]
	}
	return now.Add(offset)
}

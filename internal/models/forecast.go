package models

import (
	"fmt"
	"time"
)

// RiskLevel is the coarse burnout risk classification
type RiskLevel string

const (
	RiskLevelLow      RiskLevel = "low"
	RiskLevelModerate RiskLevel = "moderate"
	RiskLevelHigh     RiskLevel = "high"
	RiskLevelCritical RiskLevel = "critical"
)

// Trend is the direction of recent score movement
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
	TrendCritical  Trend = "critical"
)

// RecommendationCategory is the time horizon of a recommendation
type RecommendationCategory string

const (
	RecommendationImmediate RecommendationCategory = "immediate"
	RecommendationShortTerm RecommendationCategory = "short-term"
	RecommendationLongTerm  RecommendationCategory = "long-term"
)

// RecommendationPriority ranks recommendations
type RecommendationPriority string

const (
	PriorityHigh   RecommendationPriority = "high"
	PriorityMedium RecommendationPriority = "medium"
	PriorityLow    RecommendationPriority = "low"
)

// PrimaryFactorDataInsufficiency marks the degraded forecast's primary factor.
const PrimaryFactorDataInsufficiency = "data-insufficiency"

// Recommendation is one actionable suggestion attached to a forecast
type Recommendation struct {
	Text       string                 `json:"text"`
	Category   RecommendationCategory `json:"category"`
	Priority   RecommendationPriority `json:"priority"`
	Confidence float64                `json:"confidence"`
	Reasoning  string                 `json:"reasoning"`
}

// ForecastFactors holds human readable pattern descriptions
type ForecastFactors struct {
	Positive []string `json:"positive"`
	Negative []string `json:"negative"`
	Neutral  []string `json:"neutral"`
}

// EmotionalWeather is the presentation-oriented summary of a forecast
type EmotionalWeather struct {
	Label       string  `json:"label"`
	Description string  `json:"description"`
	Intensity   float64 `json:"intensity"`
	Icon        string  `json:"icon"`
}

// PrimaryFactor is the signal type judged most responsible for negative impact
type PrimaryFactor struct {
	Category       string  `json:"category"`
	Impact         float64 `json:"impact"`
	Description    string  `json:"description"`
	Recommendation string  `json:"recommendation"`
}

// TimeRange spans the signals used by a forecast
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ForecastMetadata describes how a forecast was produced.
// ProcessingTime is in milliseconds.
type ForecastMetadata struct {
	SignalCount    int       `json:"signalCount"`
	TimeRange      TimeRange `json:"timeRange"`
	ProcessingTime float64   `json:"processingTime"`
}

// BurnoutForecast is the output record of one forecast computation.
// A forecast is never updated in place.
type BurnoutForecast struct {
	UserID           string           `json:"userId"`
	Timestamp        time.Time        `json:"timestamp"`
	OverallScore     float64          `json:"overallScore"`
	RiskLevel        RiskLevel        `json:"riskLevel"`
	Confidence       float64          `json:"confidence"`
	Trend            Trend            `json:"trend"`
	Factors          ForecastFactors  `json:"factors"`
	EmotionalWeather EmotionalWeather `json:"emotionalWeather"`
	PrimaryFactor    PrimaryFactor    `json:"primaryFactor"`
	Recommendations  []Recommendation `json:"recommendations"`
	NextCheckIn      time.Time        `json:"nextCheckIn"`
	Metadata         ForecastMetadata `json:"metadata"`
}

// StorageKey returns the persistence key userId_timestampMillis
func (f *BurnoutForecast) StorageKey() string {
	return fmt.Sprintf("%s_%d", f.UserID, f.Timestamp.UnixMilli())
}

// IsDegraded reports whether the forecast is the insufficient-data variant
func (f *BurnoutForecast) IsDegraded() bool {
	return f.PrimaryFactor.Category == PrimaryFactorDataInsufficiency
}

package services

import (
	"github.com/irfndi/wellcast-go/internal/models"
)

// RubricEntry maps one categorical metadata value to a score.
// Weight is advisory and does not feed aggregation.
type RubricEntry struct {
	Score  float64 `json:"score"`
	Weight float64 `json:"weight"`
}

// AttributeRubric scores the values of a single metadata key
type AttributeRubric struct {
	Key    string
	Values map[string]RubricEntry
}

// Lookup returns the entry for value, or the zero entry when the value is
// missing or unrecognized.
func (a AttributeRubric) Lookup(value string) RubricEntry {
	entry, ok := a.Values[value]
	if !ok {
		return RubricEntry{}
	}
	return entry
}

// SignalRubric scores one signal type: the attribute scores are summed and
// divided by Divisor. Missing attributes still count toward the divisor.
type SignalRubric struct {
	BaseWeight float64
	Divisor    float64
	Attributes []AttributeRubric
}

// ScoringRubric converts wellness signals into signal scores. It is pure data
// and safe for concurrent use.
type ScoringRubric struct {
	rubrics map[models.SignalType]SignalRubric
}

// NewScoringRubric creates a rubric from explicit per-type tables
func NewScoringRubric(rubrics map[models.SignalType]SignalRubric) *ScoringRubric {
	return &ScoringRubric{rubrics: rubrics}
}

// NewDefaultScoringRubric returns the standard wellness rubric
func NewDefaultScoringRubric() *ScoringRubric {
	return NewScoringRubric(map[models.SignalType]SignalRubric{
		models.SignalTypeCheckIn: {
			BaseWeight: 0.35,
			Divisor:    3,
			Attributes: []AttributeRubric{
				{Key: models.MetaEmotionalState, Values: map[string]RubricEntry{
					"excellent":   {80, 0.4},
					"good":        {65, 0.4},
					"neutral":     {45, 0.4},
					"low":         {25, 0.4},
					"stressed":    {20, 0.4},
					"overwhelmed": {10, 0.4},
					"terrible":    {0, 0.4},
				}},
				{Key: models.MetaEnergyLevel, Values: map[string]RubricEntry{
					"high":      {70, 0.3},
					"good":      {55, 0.3},
					"moderate":  {45, 0.3},
					"low":       {25, 0.3},
					"exhausted": {10, 0.3},
				}},
				{Key: models.MetaStressLevel, Values: map[string]RubricEntry{
					"none":         {90, 0.3},
					"low":          {70, 0.3},
					"moderate":     {45, 0.3},
					"high":         {15, 0.3},
					"overwhelming": {0, 0.3},
				}},
			},
		},
		models.SignalTypeTask: {
			BaseWeight: 0.25,
			Divisor:    1,
			Attributes: []AttributeRubric{
				{Key: models.MetaCompletionRate, Values: map[string]RubricEntry{
					"80-100%": {40, 0.5},
					"60-79%":  {20, 0.5},
					"40-59%":  {0, 0.5},
					"20-39%":  {-20, 0.5},
					"0-19%":   {-40, 0.5},
				}},
				{Key: models.MetaComplexity, Values: map[string]RubricEntry{
					"low":       {10, 0.2},
					"medium":    {0, 0.2},
					"high":      {-10, 0.2},
					"very-high": {-20, 0.2},
				}},
				{Key: models.MetaDeadlinePressure, Values: map[string]RubricEntry{
					"none":     {10, 0.3},
					"low":      {5, 0.3},
					"moderate": {-5, 0.3},
					"high":     {-20, 0.3},
					"extreme":  {-30, 0.3},
				}},
			},
		},
		models.SignalTypeCalendarEvent: {
			BaseWeight: 0.20,
			Divisor:    1,
			Attributes: []AttributeRubric{
				{Key: models.MetaMeetingFrequency, Values: map[string]RubricEntry{
					"0-2": {20, 0.4},
					"3-5": {0, 0.4},
					"6-8": {-20, 0.4},
					"9+":  {-40, 0.4},
				}},
				{Key: models.MetaMeetingDuration, Values: map[string]RubricEntry{
					"short":     {10, 0.3},
					"medium":    {0, 0.3},
					"long":      {-15, 0.3},
					"very-long": {-30, 0.3},
				}},
				{Key: models.MetaTimeOfDay, Values: map[string]RubricEntry{
					"morning":    {5, 0.15},
					"midday":     {5, 0.15},
					"afternoon":  {0, 0.15},
					"evening":    {-10, 0.15},
					"late-night": {-20, 0.15},
				}},
				{Key: models.MetaMeetingType, Values: map[string]RubricEntry{
					"focus-time": {15, 0.15},
					"one-on-one": {5, 0.15},
					"team":       {0, 0.15},
					"client":     {-5, 0.15},
					"all-hands":  {-5, 0.15},
				}},
			},
		},
		models.SignalTypeSleep: {
			BaseWeight: 0.15,
			Divisor:    2,
			Attributes: []AttributeRubric{
				{Key: models.MetaSleepDuration, Values: map[string]RubricEntry{
					"8+":          {50, 0.5},
					"7-8":         {40, 0.5},
					"6-7":         {0, 0.5},
					"5-6":         {-30, 0.5},
					"less-than-5": {-60, 0.5},
				}},
				{Key: models.MetaSleepQuality, Values: map[string]RubricEntry{
					"excellent": {60, 0.5},
					"good":      {30, 0.5},
					"fair":      {0, 0.5},
					"poor":      {-30, 0.5},
					"very-poor": {-60, 0.5},
				}},
			},
		},
		models.SignalTypeActivity: {
			BaseWeight: 0.05,
			Divisor:    2,
			Attributes: []AttributeRubric{
				{Key: models.MetaWorkHours, Values: map[string]RubricEntry{
					"less-than-6": {20, 0.5},
					"6-8":         {30, 0.5},
					"8-10":        {-10, 0.5},
					"10-12":       {-40, 0.5},
					"12+":         {-70, 0.5},
				}},
				{Key: models.MetaBreakFrequency, Values: map[string]RubricEntry{
					"frequent":   {40, 0.5},
					"regular":    {20, 0.5},
					"occasional": {-10, 0.5},
					"rare":       {-30, 0.5},
					"none":       {-50, 0.5},
				}},
			},
		},
	})
}

// BaseWeight returns the aggregation weight for a signal type, 0 if unknown
func (r *ScoringRubric) BaseWeight(signalType models.SignalType) float64 {
	return r.rubrics[signalType].BaseWeight
}

// CalculateSignalScore scores a single signal. It is total: unknown types
// and unknown metadata values contribute zero.
func (r *ScoringRubric) CalculateSignalScore(signal models.WellnessSignal) models.SignalScore {
	rubric, ok := r.rubrics[signal.Type]
	if !ok {
		return models.SignalScore{
			Signal:   signal,
			Category: models.SignalCategoryNeutral,
		}
	}

	var sum float64
	for _, attr := range rubric.Attributes {
		sum += attr.Lookup(signal.MetadataString(attr.Key)).Score
	}

	score := sum
	if rubric.Divisor > 0 {
		score = sum / rubric.Divisor
	}

	return models.SignalScore{
		Signal:   signal,
		Score:    score,
		Weight:   rubric.BaseWeight,
		Category: CategorizeScore(score),
	}
}

// ScoreSignals scores every signal, preserving input order
func (r *ScoringRubric) ScoreSignals(signals []models.WellnessSignal) []models.SignalScore {
	scores := make([]models.SignalScore, 0, len(signals))
	for _, s := range signals {
		scores = append(scores, r.CalculateSignalScore(s))
	}
	return scores
}

// CategorizeScore maps a score to positive (> 20), negative (< -20) or neutral
func CategorizeScore(score float64) models.SignalCategory {
	switch {
	case score > 20:
		return models.SignalCategoryPositive
	case score < -20:
		return models.SignalCategoryNegative
	default:
		return models.SignalCategoryNeutral
	}
}

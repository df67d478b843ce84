package services

import (
	"github.com/irfndi/wellcast-go/internal/models"
)

var riskTemplates = map[models.RiskLevel]models.Recommendation{
	models.RiskLevelLow: {
		Text:       "Continue your current wellness practices and keep up regular check-ins",
		Category:   models.RecommendationLongTerm,
		Priority:   models.PriorityLow,
		Confidence: 0.8,
		Reasoning:  "Your wellness indicators are healthy; consistency keeps them that way",
	},
	models.RiskLevelModerate: {
		Text:       "Take short breaks during the day and review your workload for the week",
		Category:   models.RecommendationShortTerm,
		Priority:   models.PriorityMedium,
		Confidence: 0.75,
		Reasoning:  "Early signs of strain respond well to small, regular recovery habits",
	},
	models.RiskLevelHigh: {
		Text:       "Take a day off or reduce your workload to recover",
		Category:   models.RecommendationImmediate,
		Priority:   models.PriorityHigh,
		Confidence: 0.8,
		Reasoning:  "High burnout risk calls for a real break from sustained pressure",
	},
	models.RiskLevelCritical: {
		Text:       "Take immediate action: consider time off and reach out to your manager or a support professional",
		Category:   models.RecommendationImmediate,
		Priority:   models.PriorityHigh,
		Confidence: 0.9,
		Reasoning:  "Critical burnout risk needs support beyond self-management",
	},
}

var factorTemplates = map[models.SignalType]models.Recommendation{
	models.SignalTypeCheckIn: {
		Text:       "Spend five minutes each day noting your mood, energy and stress",
		Category:   models.RecommendationShortTerm,
		Priority:   models.PriorityMedium,
		Confidence: 0.7,
		Reasoning:  "Check-ins are the main driver of your current forecast",
	},
	models.SignalTypeTask: {
		Text:       "Break large tasks into smaller steps and renegotiate unrealistic deadlines",
		Category:   models.RecommendationShortTerm,
		Priority:   models.PriorityMedium,
		Confidence: 0.7,
		Reasoning:  "Task load and completion are weighing on your wellbeing",
	},
	models.SignalTypeCalendarEvent: {
		Text:       "Block focus time on your calendar and decline non-essential meetings",
		Category:   models.RecommendationShortTerm,
		Priority:   models.PriorityMedium,
		Confidence: 0.7,
		Reasoning:  "Meeting load is the largest negative factor in your forecast",
	},
	models.SignalTypeSleep: {
		Text:       "Keep a consistent bedtime and aim for seven to eight hours of sleep",
		Category:   models.RecommendationLongTerm,
		Priority:   models.PriorityMedium,
		Confidence: 0.7,
		Reasoning:  "Poor or short sleep is the largest negative factor in your forecast",
	},
	models.SignalTypeActivity: {
		Text:       "Set a firm end to your workday and take a short break every hour",
		Category:   models.RecommendationLongTerm,
		Priority:   models.PriorityMedium,
		Confidence: 0.7,
		Reasoning:  "Long hours without breaks are the largest negative factor in your forecast",
	},
}

// insufficientDataRecommendations are attached to every degraded forecast.
var insufficientDataRecommendations = []models.Recommendation{
	{
		Text:       "Complete a daily wellness check-in to build your forecast",
		Category:   models.RecommendationImmediate,
		Priority:   models.PriorityHigh,
		Confidence: 0.9,
		Reasoning:  "More check-ins are needed before a reliable forecast can be made",
	},
	{
		Text:       "Connect your calendar and task tools for a fuller picture",
		Category:   models.RecommendationShortTerm,
		Priority:   models.PriorityMedium,
		Confidence: 0.8,
		Reasoning:  "Workload signals improve forecast accuracy",
	},
	{
		Text:       "Log your sleep and daily activity for the next week",
		Category:   models.RecommendationLongTerm,
		Priority:   models.PriorityLow,
		Confidence: 0.7,
		Reasoning:  "Recovery signals complete the burnout picture",
	},
}

// FallbackRecommendation returns the fixed recommendation for a risk level.
// Unknown levels get the critical template.
func FallbackRecommendation(risk models.RiskLevel) models.Recommendation {
	rec, ok := riskTemplates[risk]
	if !ok {
		return riskTemplates[models.RiskLevelCritical]
	}
	return rec
}

// templateRecommendations builds the risk template plus an optional factor template
func templateRecommendations(risk models.RiskLevel, primaryFactor string) []models.Recommendation {
	recs := []models.Recommendation{FallbackRecommendation(risk)}
	if rec, ok := factorTemplates[models.SignalType(primaryFactor)]; ok {
		recs = append(recs, rec)
	}
	return recs
}

func degradedRecommendations() []models.Recommendation {
	recs := make([]models.Recommendation, len(insufficientDataRecommendations))
	copy(recs, insufficientDataRecommendations)
	return recs
}

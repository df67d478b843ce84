package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/irfndi/wellcast-go/internal/models"
)

const maxRecommendations = 5

var (
	listMarkerPattern = regexp.MustCompile(`^\s*(?:[-*•]+|\(?\d+[.):]|[a-zA-Z][.)])\s*`)
	sentenceSplitter  = regexp.MustCompile(`[.!?]+\s+`)

	immediateKeywords = []string{"immediate", "now", "today", "urgent", "right away", "stop", "take time off"}
	shortTermKeywords = []string{"this week", "next few days", "short break", "schedule", "plan"}
	urgencyKeywords   = []string{"urgent", "immediate", "immediately", "right away", "now", "today"}
)

// splitRecommendationText turns free text into candidate recommendation
// lines. Multi-line answers are split per line; a single paragraph is split
// per sentence.
func splitRecommendationText(text string) []string {
	var rawLines []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) != "" {
			rawLines = append(rawLines, line)
		}
	}
	if len(rawLines) == 1 {
		rawLines = sentenceSplitter.Split(rawLines[0], -1)
	}

	lines := make([]string, 0, len(rawLines))
	for _, line := range rawLines {
		line = strings.TrimSpace(listMarkerPattern.ReplaceAllString(line, ""))
		line = strings.Trim(line, "*_\"` ")
		if len(line) < 8 {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// containsKeyword is a case-insensitive substring test, so inflected forms
// like "planning" or "short breaks" match their keyword.
func containsKeyword(line string, keywords []string) bool {
	lower := strings.ToLower(line)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func classifyRecommendationCategory(line string) models.RecommendationCategory {
	switch {
	case containsKeyword(line, immediateKeywords):
		return models.RecommendationImmediate
	case containsKeyword(line, shortTermKeywords):
		return models.RecommendationShortTerm
	default:
		return models.RecommendationLongTerm
	}
}

func classifyRecommendationPriority(line string, risk models.RiskLevel) models.RecommendationPriority {
	switch {
	case risk == models.RiskLevelHigh || risk == models.RiskLevelCritical:
		return models.PriorityHigh
	case containsKeyword(line, urgencyKeywords):
		return models.PriorityHigh
	case risk == models.RiskLevelModerate:
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}

// syntheticConfidence decays by position: 0.85, 0.80, 0.75 ...
func syntheticConfidence(index int) float64 {
	c := decimal.NewFromFloat(0.85).Sub(decimal.NewFromFloat(0.05).Mul(decimal.NewFromInt(int64(index))))
	f, _ := c.Round(2).Float64()
	return f
}

// parseGeneratedRecommendations converts backend text into at most five
// recommendations. It returns an empty slice when nothing usable was found.
func parseGeneratedRecommendations(text string, rc RecommendationContext, source string) []models.Recommendation {
	lines := splitRecommendationText(text)
	if len(lines) > maxRecommendations {
		lines = lines[:maxRecommendations]
	}

	reasoning := fmt.Sprintf("Generated by %s for %s risk with %s as the primary factor",
		source, rc.RiskLevel, rc.PrimaryFactor.Category)

	recs := make([]models.Recommendation, 0, len(lines))
	for i, line := range lines {
		recs = append(recs, models.Recommendation{
			Text:       line,
			Category:   classifyRecommendationCategory(line),
			Priority:   classifyRecommendationPriority(line, rc.RiskLevel),
			Confidence: syntheticConfidence(i),
			Reasoning:  reasoning,
		})
	}
	return recs
}

package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/irfndi/wellcast-go/internal/models"
)

const recentWindow = 7 * 24 * time.Hour

var (
	lowCompletionRates   = map[string]bool{"0-19%": true, "20-39%": true}
	highDeadlinePressure = map[string]bool{"high": true, "extreme": true}
	heavyMeetingFreq     = map[string]bool{"6-8": true, "9+": true}
	longMeetingDuration  = map[string]bool{"long": true, "very-long": true}
	offHoursMeetings     = map[string]bool{"evening": true, "late-night": true}
	shortSleep           = map[string]bool{"5-6": true, "less-than-5": true}
	poorSleepQuality     = map[string]bool{"poor": true, "very-poor": true}
	longWorkHours        = map[string]bool{"10-12": true, "12+": true}
	missingBreaks        = map[string]bool{"rare": true, "none": true}
)

// groupScoresByType groups scores by signal type. Known types come first in
// attribution order, unknown types follow alphabetically.
func groupScoresByType(scores []models.SignalScore) ([]models.SignalType, map[models.SignalType][]models.SignalScore) {
	groups := make(map[models.SignalType][]models.SignalScore)
	for _, s := range scores {
		groups[s.Signal.Type] = append(groups[s.Signal.Type], s)
	}

	order := make([]models.SignalType, 0, len(groups))
	for _, t := range models.SignalTypes {
		if _, ok := groups[t]; ok {
			order = append(order, t)
		}
	}
	var unknown []models.SignalType
	for t := range groups {
		if !t.IsKnown() {
			unknown = append(unknown, t)
		}
	}
	sort.Slice(unknown, func(i, j int) bool { return unknown[i] < unknown[j] })

	return append(order, unknown...), groups
}

func scoreValues(scores []models.SignalScore) []float64 {
	values := make([]float64, len(scores))
	for i, s := range scores {
		values[i] = s.Score
	}
	return values
}

func recentScores(scores []models.SignalScore, now time.Time) []models.SignalScore {
	cutoff := now.Add(-recentWindow)
	var recent []models.SignalScore
	for _, s := range scores {
		if !s.Signal.Timestamp.Before(cutoff) {
			recent = append(recent, s)
		}
	}
	return recent
}

// shareMatching returns the fraction of scores whose signal satisfies match
func shareMatching(scores []models.SignalScore, match func(models.WellnessSignal) bool) float64 {
	if len(scores) == 0 {
		return 0
	}
	n := 0
	for _, s := range scores {
		if match(s.Signal) {
			n++
		}
	}
	return float64(n) / float64(len(scores))
}

// identifyFactors describes per-type patterns and adds rule-based insights
func identifyFactors(scores []models.SignalScore, now time.Time) models.ForecastFactors {
	factors := models.ForecastFactors{
		Positive: []string{},
		Negative: []string{},
		Neutral:  []string{},
	}

	order, groups := groupScoresByType(scores)
	for _, t := range order {
		mean := calculateMeanFloat64(scoreValues(groups[t]))
		switch {
		case mean > 20:
			factors.Positive = append(factors.Positive, fmt.Sprintf("%s patterns are healthy", t))
		case mean < -20:
			factors.Negative = append(factors.Negative, fmt.Sprintf("%s patterns indicate stress", t))
		default:
			factors.Neutral = append(factors.Neutral, fmt.Sprintf("%s patterns are mixed", t))
		}
	}

	recentCheckIns := recentScores(groups[models.SignalTypeCheckIn], now)
	if len(recentCheckIns) == 0 {
		factors.Negative = append(factors.Negative, "No recent wellness check-ins")
	} else if calculateMeanFloat64(scoreValues(recentCheckIns)) < -10 {
		factors.Negative = append(factors.Negative, "Recent check-ins show declining wellness")
	}

	tasks := groups[models.SignalTypeTask]
	if len(tasks) > 0 && shareMatching(tasks, func(s models.WellnessSignal) bool {
		return lowCompletionRates[s.MetadataString(models.MetaCompletionRate)]
	}) > 0.5 {
		factors.Negative = append(factors.Negative, "Task completion rates are declining")
	}

	for _, s := range groups[models.SignalTypeCalendarEvent] {
		if s.Signal.MetadataString(models.MetaMeetingFrequency) == "9+" ||
			s.Signal.MetadataString(models.MetaMeetingDuration) == "very-long" {
			factors.Negative = append(factors.Negative, "High meeting load detected")
			break
		}
	}

	return factors
}

// determinePrimaryFactor picks the signal type with the most negative mean
// weighted impact. Ties keep the earlier type; with no negative impact the
// primary factor defaults to check-in with impact 0.
func determinePrimaryFactor(scores []models.SignalScore, now time.Time) models.PrimaryFactor {
	_, groups := groupScoresByType(scores)

	primary := models.SignalTypeCheckIn
	minImpact := 0.0
	for _, t := range models.SignalTypes {
		group := groups[t]
		if len(group) == 0 {
			continue
		}
		var total float64
		for _, s := range group {
			total += s.Score * s.Weight
		}
		impact := total / float64(len(group))
		if impact < minImpact {
			minImpact = impact
			primary = t
		}
	}

	description, recommendation := analyzeFactor(primary, groups[primary], now)
	return models.PrimaryFactor{
		Category:       string(primary),
		Impact:         minImpact,
		Description:    description,
		Recommendation: recommendation,
	}
}

func analyzeFactor(t models.SignalType, scores []models.SignalScore, now time.Time) (string, string) {
	switch t {
	case models.SignalTypeTask:
		return analyzeTaskFactor(scores)
	case models.SignalTypeCalendarEvent:
		return analyzeCalendarFactor(scores)
	case models.SignalTypeSleep:
		return analyzeSleepFactor(scores)
	case models.SignalTypeActivity:
		return analyzeActivityFactor(scores)
	default:
		return analyzeCheckInFactor(scores, now)
	}
}

func analyzeCheckInFactor(scores []models.SignalScore, now time.Time) (string, string) {
	recent := recentScores(scores, now)
	if len(recent) == 0 {
		return "No wellness check-ins in the last 7 days",
			"Complete a short daily check-in so changes in mood and energy are caught early"
	}

	avg := calculateMeanFloat64(scoreValues(recent))
	switch {
	case avg < 30:
		return fmt.Sprintf("Recent check-ins (%d in the last 7 days) show low mood, low energy or high stress", len(recent)),
			"Talk with someone you trust and block recovery time this week"
	case avg < 60:
		return fmt.Sprintf("Recent check-ins (%d in the last 7 days) show mixed mood and energy", len(recent)),
			"Notice what drains your energy and schedule short recovery breaks"
	default:
		return fmt.Sprintf("Recent check-ins (%d in the last 7 days) are generally positive", len(recent)),
			"Keep checking in regularly to catch changes early"
	}
}

func analyzeTaskFactor(scores []models.SignalScore) (string, string) {
	lowShare := shareMatching(scores, func(s models.WellnessSignal) bool {
		return lowCompletionRates[s.MetadataString(models.MetaCompletionRate)]
	})
	if lowShare > 0.5 {
		return fmt.Sprintf("%.0f%% of tasks have low completion rates", lowShare*100),
			"Break large tasks into smaller steps and renegotiate unrealistic deadlines"
	}

	pressureShare := shareMatching(scores, func(s models.WellnessSignal) bool {
		return highDeadlinePressure[s.MetadataString(models.MetaDeadlinePressure)]
	})
	if pressureShare > 0.5 {
		return fmt.Sprintf("%.0f%% of tasks are under high deadline pressure", pressureShare*100),
			"Agree on priorities with your team and move non-critical deadlines"
	}

	return "Task workload is adding to stress",
		"Review your task list and drop or delegate lower-value work"
}

func analyzeCalendarFactor(scores []models.SignalScore) (string, string) {
	heavyShare := shareMatching(scores, func(s models.WellnessSignal) bool {
		return heavyMeetingFreq[s.MetadataString(models.MetaMeetingFrequency)] ||
			longMeetingDuration[s.MetadataString(models.MetaMeetingDuration)]
	})
	if heavyShare > 0.3 {
		return fmt.Sprintf("%.0f%% of calendar events show heavy or long meetings", heavyShare*100),
			"Decline or shorten non-essential meetings and protect focus blocks"
	}

	offHoursShare := shareMatching(scores, func(s models.WellnessSignal) bool {
		return offHoursMeetings[s.MetadataString(models.MetaTimeOfDay)]
	})
	if offHoursShare > 0.3 {
		return fmt.Sprintf("%.0f%% of meetings fall in the evening or late at night", offHoursShare*100),
			"Keep meetings within core hours and guard your evenings"
	}

	return "Meeting schedule is adding pressure",
		"Batch meetings together to leave longer uninterrupted stretches"
}

func analyzeSleepFactor(scores []models.SignalScore) (string, string) {
	shortShare := shareMatching(scores, func(s models.WellnessSignal) bool {
		return shortSleep[s.MetadataString(models.MetaSleepDuration)]
	})
	if shortShare > 0.5 {
		return fmt.Sprintf("%.0f%% of nights had less than 6 hours of sleep", shortShare*100),
			"Set a consistent bedtime and aim for at least 7 hours of sleep"
	}

	poorShare := shareMatching(scores, func(s models.WellnessSignal) bool {
		return poorSleepQuality[s.MetadataString(models.MetaSleepQuality)]
	})
	if poorShare > 0.5 {
		return fmt.Sprintf("%.0f%% of nights had poor sleep quality", poorShare*100),
			"Wind down without screens for 30 minutes before bed"
	}

	return "Sleep patterns are irregular",
		"Keep regular sleep and wake times, including weekends"
}

func analyzeActivityFactor(scores []models.SignalScore) (string, string) {
	longShare := shareMatching(scores, func(s models.WellnessSignal) bool {
		return longWorkHours[s.MetadataString(models.MetaWorkHours)]
	})
	if longShare > 0.5 {
		return fmt.Sprintf("%.0f%% of days exceeded 10 working hours", longShare*100),
			"Set a firm end time for your workday"
	}

	breakShare := shareMatching(scores, func(s models.WellnessSignal) bool {
		return missingBreaks[s.MetadataString(models.MetaBreakFrequency)]
	})
	if breakShare > 0.5 {
		return fmt.Sprintf("%.0f%% of days had few or no breaks", breakShare*100),
			"Take a 5 minute break every hour and step away for lunch"
	}

	return "Work rhythm lacks recovery time",
		"Plan short movement breaks through the day"
}

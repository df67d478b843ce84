package models

import "time"

// SignalType identifies the source of a wellness signal
type SignalType string

const (
	SignalTypeCheckIn       SignalType = "check-in"
	SignalTypeTask          SignalType = "task"
	SignalTypeCalendarEvent SignalType = "calendar-event"
	SignalTypeSleep         SignalType = "sleep"
	SignalTypeActivity      SignalType = "activity"
)

// SignalTypes lists the known signal types in attribution order.
var SignalTypes = []SignalType{
	SignalTypeCheckIn,
	SignalTypeTask,
	SignalTypeCalendarEvent,
	SignalTypeSleep,
	SignalTypeActivity,
}

// IsKnown reports whether t is one of the recognized signal types
func (t SignalType) IsKnown() bool {
	for _, known := range SignalTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Recognized metadata keys per signal type
const (
	MetaEmotionalState   = "emotionalState"
	MetaEnergyLevel      = "energyLevel"
	MetaStressLevel      = "stressLevel"
	MetaCompletionRate   = "completionRate"
	MetaComplexity       = "complexity"
	MetaDeadlinePressure = "deadlinePressure"
	MetaMeetingFrequency = "meetingFrequency"
	MetaMeetingDuration  = "meetingDuration"
	MetaTimeOfDay        = "timeOfDay"
	MetaMeetingType      = "meetingType"
	MetaSleepDuration    = "sleepDuration"
	MetaSleepQuality     = "sleepQuality"
	MetaWorkHours        = "workHours"
	MetaBreakFrequency   = "breakFrequency"
)

// WellnessSignal is one timestamped observation about a subject's wellbeing.
// Signals are immutable once created.
type WellnessSignal struct {
	ID        string                 `json:"id,omitempty" yaml:"id,omitempty"`
	UserID    string                 `json:"userId,omitempty" yaml:"userId,omitempty"`
	Type      SignalType             `json:"type" yaml:"type"`
	Timestamp time.Time              `json:"timestamp" yaml:"timestamp"`
	Value     float64                `json:"value" yaml:"value"`
	Metadata  map[string]interface{} `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// MetadataString returns the metadata value for key when it is a string.
// Missing keys and non-string values yield an empty string.
func (s WellnessSignal) MetadataString(key string) string {
	if s.Metadata == nil {
		return ""
	}
	v, ok := s.Metadata[key].(string)
	if !ok {
		return ""
	}
	return v
}

// SignalCategory classifies a signal score
type SignalCategory string

const (
	SignalCategoryPositive SignalCategory = "positive"
	SignalCategoryNeutral  SignalCategory = "neutral"
	SignalCategoryNegative SignalCategory = "negative"
)

// SignalScore is the derived score for a single signal. Never persisted.
type SignalScore struct {
	Signal   WellnessSignal `json:"signal"`
	Score    float64        `json:"score"`
	Weight   float64        `json:"weight"`
	Category SignalCategory `json:"category"`
}

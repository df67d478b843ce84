package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/irfndi/wellcast-go/internal/models"
)

// EventForecastComputed is emitted after a forecast is stored
const EventForecastComputed = "FORECAST_COMPUTED"

// ForecastEvent is the message published for each stored forecast
type ForecastEvent struct {
	EventID         string           `json:"eventId"`
	EventType       string           `json:"eventType"`
	UserID          string           `json:"userId"`
	ForecastKey     string           `json:"forecastKey"`
	OverallScore    float64          `json:"overallScore"`
	RiskLevel       models.RiskLevel `json:"riskLevel"`
	Trend           models.Trend     `json:"trend"`
	Confidence      float64          `json:"confidence"`
	Degraded        bool             `json:"degraded"`
	NextCheckIn     time.Time        `json:"nextCheckIn"`
	ForecastAt      time.Time        `json:"forecastAt"`
	PublishedAt     time.Time        `json:"publishedAt"`
	Recommendations int              `json:"recommendationCount"`
}

// NewForecastEvent builds the event for forecast
func NewForecastEvent(forecast *models.BurnoutForecast, now time.Time) ForecastEvent {
	return ForecastEvent{
		EventID:         uuid.NewString(),
		EventType:       EventForecastComputed,
		UserID:          forecast.UserID,
		ForecastKey:     forecast.StorageKey(),
		OverallScore:    forecast.OverallScore,
		RiskLevel:       forecast.RiskLevel,
		Trend:           forecast.Trend,
		Confidence:      forecast.Confidence,
		Degraded:        forecast.IsDegraded(),
		NextCheckIn:     forecast.NextCheckIn,
		ForecastAt:      forecast.Timestamp,
		PublishedAt:     now.UTC(),
		Recommendations: len(forecast.Recommendations),
	}
}

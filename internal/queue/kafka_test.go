package queue

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/wellcast-go/internal/models"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestProducer_PublishForecast(t *testing.T) {
	w := &recordingWriter{}
	p := newProducer(w, quietLogger())
	now := time.Date(2024, 3, 1, 12, 0, 5, 0, time.UTC)
	p.now = func() time.Time { return now }

	forecast := &models.BurnoutForecast{
		UserID:          "user-1",
		Timestamp:       now.Add(-5 * time.Second),
		OverallScore:    -35,
		RiskLevel:       models.RiskLevelCritical,
		Trend:           models.TrendDeclining,
		Confidence:      0.6,
		Recommendations: []models.Recommendation{{Text: "Rest"}},
		PrimaryFactor:   models.PrimaryFactor{Category: "sleep"},
	}

	require.NoError(t, p.PublishForecast(context.Background(), forecast))
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, []byte("user-1"), msg.Key)
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, EventForecastComputed, string(msg.Headers[0].Value))

	var event ForecastEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, EventForecastComputed, event.EventType)
	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, forecast.StorageKey(), event.ForecastKey)
	assert.Equal(t, models.RiskLevelCritical, event.RiskLevel)
	assert.False(t, event.Degraded)
	assert.Equal(t, 1, event.Recommendations)
	assert.True(t, event.PublishedAt.Equal(now))
}

func TestProducer_PublishForecast_WriteError(t *testing.T) {
	w := &recordingWriter{err: errors.New("leader not available")}
	p := newProducer(w, quietLogger())

	err := p.PublishForecast(context.Background(), &models.BurnoutForecast{UserID: "user-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "leader not available")
}

func TestProducer_Close(t *testing.T) {
	w := &recordingWriter{}
	require.NoError(t, newProducer(w, quietLogger()).Close())
	assert.True(t, w.closed)
}

func TestNewForecastEvent_Degraded(t *testing.T) {
	forecast := &models.BurnoutForecast{
		UserID:        "user-2",
		PrimaryFactor: models.PrimaryFactor{Category: models.PrimaryFactorDataInsufficiency},
	}
	event := NewForecastEvent(forecast, time.Now())
	assert.True(t, event.Degraded)

	other := NewForecastEvent(forecast, time.Now())
	assert.NotEqual(t, event.EventID, other.EventID)
}

func TestNoopPublisher(t *testing.T) {
	var p NoopPublisher
	assert.NoError(t, p.PublishForecast(context.Background(), &models.BurnoutForecast{}))
	assert.NoError(t, p.Close())
}

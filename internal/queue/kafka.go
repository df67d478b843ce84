package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/wellcast-go/internal/models"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes forecast events to Kafka, keyed by user id so a
// subject's events stay on one partition.
type Producer struct {
	writer messageWriter
	logger *logrus.Logger
	now    func() time.Time
}

// NewProducer creates a new Kafka producer
func NewProducer(brokers []string, topic string, logger *logrus.Logger) *Producer {
	return newProducer(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		BatchTimeout: 10 * time.Millisecond,
	}, logger)
}

func newProducer(w messageWriter, logger *logrus.Logger) *Producer {
	return &Producer{writer: w, logger: logger, now: time.Now}
}

// PublishForecast sends a FORECAST_COMPUTED event for forecast
func (p *Producer) PublishForecast(ctx context.Context, forecast *models.BurnoutForecast) error {
	event := NewForecastEvent(forecast, p.now())
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode forecast event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(forecast.UserID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(EventForecastComputed)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	p.logger.WithFields(logrus.Fields{
		"event_id": event.EventID,
		"user_id":  forecast.UserID,
		"risk":     forecast.RiskLevel,
	}).Debug("Published forecast event")
	return nil
}

// Close closes the producer
func (p *Producer) Close() error {
	return p.writer.Close()
}

// NoopPublisher discards events. Used when Kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishForecast(context.Context, *models.BurnoutForecast) error { return nil }

func (NoopPublisher) Close() error { return nil }

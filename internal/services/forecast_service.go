package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/irfndi/wellcast-go/internal/database"
	"github.com/irfndi/wellcast-go/internal/models"
	"github.com/irfndi/wellcast-go/internal/utils"
)

const (
	MaxSignalsPerRequest = 500
	maxSignalListDays    = 365
)

// ErrForecastNotFound is returned when a subject has no stored forecast
var ErrForecastNotFound = errors.New("forecast not found")

// SignalStore persists wellness signals
type SignalStore interface {
	SaveSignals(ctx context.Context, userID string, signals []models.WellnessSignal) ([]models.WellnessSignal, error)
	ListSignals(ctx context.Context, userID string, since time.Time) ([]models.WellnessSignal, error)
}

// ForecastStore persists forecasts
type ForecastStore interface {
	SaveForecast(ctx context.Context, forecast *models.BurnoutForecast) error
	LatestForecast(ctx context.Context, userID string) (*models.BurnoutForecast, error)
	ForecastHistory(ctx context.Context, userID string, limit int) ([]*models.BurnoutForecast, error)
}

// ForecastCache holds each subject's latest forecast. A miss is (nil, nil).
type ForecastCache interface {
	GetLatest(ctx context.Context, userID string) (*models.BurnoutForecast, error)
	SetLatest(ctx context.Context, forecast *models.BurnoutForecast) error
}

// ForecastPublisher announces stored forecasts
type ForecastPublisher interface {
	PublishForecast(ctx context.Context, forecast *models.BurnoutForecast) error
}

// SignalRecorder counts stored signals
type SignalRecorder interface {
	RecordSignal(signalType models.SignalType)
}

// ForecastService ties the engine to storage, cache and events
type ForecastService struct {
	engine    *ForecastEngine
	signals   SignalStore
	forecasts ForecastStore
	cache     ForecastCache
	publisher ForecastPublisher
	recorder  SignalRecorder
	logger    *logrus.Logger
	now       func() time.Time
}

// NewForecastService creates a forecast service. cache, publisher and
// recorder may be nil.
func NewForecastService(engine *ForecastEngine, signals SignalStore, forecasts ForecastStore, cache ForecastCache, publisher ForecastPublisher, recorder SignalRecorder, logger *logrus.Logger) *ForecastService {
	return &ForecastService{
		engine:    engine,
		signals:   signals,
		forecasts: forecasts,
		cache:     cache,
		publisher: publisher,
		recorder:  recorder,
		logger:    logger,
		now:       time.Now,
	}
}

// RecordSignals validates and stores a batch of signals for userID
func (s *ForecastService) RecordSignals(ctx context.Context, userID string, signals []models.WellnessSignal) ([]models.WellnessSignal, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	if err := ValidateSignals(signals); err != nil {
		return nil, err
	}

	saved, err := s.signals.SaveSignals(ctx, userID, signals)
	if err != nil {
		return nil, fmt.Errorf("failed to record signals: %w", err)
	}

	if s.recorder != nil {
		for _, sig := range saved {
			s.recorder.RecordSignal(sig.Type)
		}
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"count":   len(saved),
	}).Info("Recorded wellness signals")
	return saved, nil
}

// ListSignals returns userID's signals from the last lookbackDays days. A
// non-positive lookback uses the analysis window.
func (s *ForecastService) ListSignals(ctx context.Context, userID string, lookbackDays int) ([]models.WellnessSignal, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	n := lookbackDays
	if n <= 0 {
		n = s.engine.Config().AnalysisWindow
	}
	n = min(n, maxSignalListDays)

	signals, err := s.signals.ListSignals(ctx, userID, s.now().Add(-days(n)))
	if err != nil {
		return nil, fmt.Errorf("failed to list signals: %w", err)
	}
	return signals, nil
}

// GenerateForecast computes a forecast from stored signals and stores it.
// Cache and event failures are logged and do not fail the call.
func (s *ForecastService) GenerateForecast(ctx context.Context, userID string, override *models.ForecastConfigOverride) (*models.BurnoutForecast, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	if err := ValidateOverride(override); err != nil {
		return nil, err
	}

	cfg := s.engine.Config().Merge(override)
	signals, err := s.signals.ListSignals(ctx, userID, s.now().Add(-days(cfg.AnalysisWindow)))
	if err != nil {
		return nil, fmt.Errorf("failed to load signals: %w", err)
	}

	forecast, err := s.engine.ComputeForecast(ctx, userID, signals, override)
	if err != nil {
		return nil, err
	}

	if err := s.forecasts.SaveForecast(ctx, forecast); err != nil {
		return nil, fmt.Errorf("failed to store forecast: %w", err)
	}

	log := s.logger.WithFields(logrus.Fields{
		"user_id":      userID,
		"forecast_key": forecast.StorageKey(),
	})
	if s.cache != nil {
		if err := s.cache.SetLatest(ctx, forecast); err != nil {
			log.WithError(err).Warn("Failed to cache forecast")
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishForecast(ctx, forecast); err != nil {
			log.WithError(err).Warn("Failed to publish forecast event")
		}
	}

	return forecast, nil
}

// PreviewForecast runs the engine over caller-supplied signals without
// storing anything.
func (s *ForecastService) PreviewForecast(ctx context.Context, userID string, signals []models.WellnessSignal, override *models.ForecastConfigOverride) (*models.BurnoutForecast, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	if len(signals) > MaxSignalsPerRequest {
		return nil, utils.NewFieldValidationError("signals", fmt.Sprintf("at most %d signals per request", MaxSignalsPerRequest))
	}
	if err := ValidateOverride(override); err != nil {
		return nil, err
	}
	return s.engine.ComputeForecast(ctx, userID, signals, override)
}

// LatestForecast returns the newest forecast, from cache when possible. A miss
// reads through to the store without refilling the cache: only GenerateForecast
// writes it, so a slow read can never overwrite a newer forecast.
func (s *ForecastService) LatestForecast(ctx context.Context, userID string) (*models.BurnoutForecast, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	if s.cache != nil {
		cached, err := s.cache.GetLatest(ctx, userID)
		if err != nil {
			s.logger.WithError(err).WithField("user_id", userID).Warn("Forecast cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	forecast, err := s.forecasts.LatestForecast(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrForecastNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest forecast: %w", err)
	}
	return forecast, nil
}

// ForecastHistory returns stored forecasts newest first
func (s *ForecastService) ForecastHistory(ctx context.Context, userID string, limit int) ([]*models.BurnoutForecast, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	history, err := s.forecasts.ForecastHistory(ctx, userID, database.ClampHistoryLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to load forecast history: %w", err)
	}
	return history, nil
}

func validateUserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return utils.NewFieldValidationError("userId", "user id is required")
	}
	return nil
}

// ValidateSignals checks a batch submitted for storage
func ValidateSignals(signals []models.WellnessSignal) error {
	if len(signals) == 0 {
		return utils.NewFieldValidationError("signals", "at least one signal is required")
	}
	if len(signals) > MaxSignalsPerRequest {
		return utils.NewFieldValidationError("signals", fmt.Sprintf("at most %d signals per request", MaxSignalsPerRequest))
	}
	for i, sig := range signals {
		if strings.TrimSpace(string(sig.Type)) == "" {
			return utils.NewFieldValidationError(fmt.Sprintf("signals[%d].type", i), "type is required")
		}
		if sig.Timestamp.IsZero() {
			return utils.NewFieldValidationError(fmt.Sprintf("signals[%d].timestamp", i), "timestamp is required")
		}
	}
	return nil
}

// ValidateOverride rejects overrides with non-positive window sizes
func ValidateOverride(o *models.ForecastConfigOverride) error {
	if o == nil {
		return nil
	}
	if o.AnalysisWindow != nil && *o.AnalysisWindow <= 0 {
		return utils.NewFieldValidationError("config.analysisWindow", "must be positive")
	}
	if o.MinSignalsRequired != nil && *o.MinSignalsRequired < 0 {
		return utils.NewFieldValidationError("config.minSignalsRequired", "must not be negative")
	}
	if o.TrendAnalysis != nil && (o.TrendAnalysis.WindowDays <= 0 || o.TrendAnalysis.MinDataPoints <= 0) {
		return utils.NewFieldValidationError("config.trendAnalysis", "window and minimum data points must be positive")
	}
	return nil
}

package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/irfndi/wellcast-go/internal/config"
)

// SignalPurger deletes old signals
type SignalPurger interface {
	DeleteSignalsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// ForecastPurger deletes old forecasts
type ForecastPurger interface {
	DeleteForecastsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// CleanupRecorder counts deleted rows per table
type CleanupRecorder interface {
	RecordCleanup(table string, deleted int64)
}

// CleanupResult summarizes one cleanup run
type CleanupResult struct {
	SignalsDeleted   int64
	ForecastsDeleted int64
	Duration         time.Duration
}

// CleanupService handles automatic cleanup of old data
type CleanupService struct {
	signals   SignalPurger
	forecasts ForecastPurger
	recorder  CleanupRecorder
	logger    *logrus.Logger
	retry     RetryPolicy
	now       func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewCleanupService creates a new cleanup service. recorder may be nil.
func NewCleanupService(signals SignalPurger, forecasts ForecastPurger, recorder CleanupRecorder, logger *logrus.Logger) *CleanupService {
	ctx, cancel := context.WithCancel(context.Background())
	return &CleanupService{
		signals:   signals,
		forecasts: forecasts,
		recorder:  recorder,
		logger:    logger,
		retry:     DatabaseRetryPolicy(),
		now:       time.Now,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start runs one cleanup immediately and then one per interval until Stop
func (c *CleanupService) Start(cfg config.CleanupConfig) {
	interval := time.Duration(cfg.IntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = time.Hour
	}

	c.logger.WithFields(logrus.Fields{
		"signal_retention_days":   cfg.SignalRetentionDays,
		"forecast_retention_days": cfg.ForecastRetentionDays,
		"interval":                interval,
	}).Info("Starting cleanup service")

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		if _, err := c.RunCleanup(c.ctx, cfg); err != nil {
			c.logger.WithError(err).Error("Initial cleanup failed")
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-c.ctx.Done():
				return
			case <-ticker.C:
				if _, err := c.RunCleanup(c.ctx, cfg); err != nil {
					c.logger.WithError(err).Error("Cleanup failed")
				}
			}
		}
	}()
}

// Stop stops the cleanup loop and waits for a running pass to finish
func (c *CleanupService) Stop() {
	c.logger.Info("Stopping cleanup service")
	c.cancel()
	c.wg.Wait()
}

// RunCleanup deletes signals and forecasts older than their retention.
// A non-positive retention disables cleanup for that table.
func (c *CleanupService) RunCleanup(ctx context.Context, cfg config.CleanupConfig) (CleanupResult, error) {
	start := time.Now()
	now := c.now()
	var result CleanupResult

	if cfg.SignalRetentionDays > 0 {
		cutoff := now.Add(-days(cfg.SignalRetentionDays))
		err := ExecuteWithRetry(ctx, c.logger, "cleanup_signals", c.retry, func(ctx context.Context) error {
			n, err := c.signals.DeleteSignalsBefore(ctx, cutoff)
			result.SignalsDeleted = n
			return err
		})
		if err != nil {
			return result, fmt.Errorf("failed to cleanup signals: %w", err)
		}
		c.record("wellness_signals", result.SignalsDeleted, cfg.SignalRetentionDays)
	}

	if cfg.ForecastRetentionDays > 0 {
		cutoff := now.Add(-days(cfg.ForecastRetentionDays))
		err := ExecuteWithRetry(ctx, c.logger, "cleanup_forecasts", c.retry, func(ctx context.Context) error {
			n, err := c.forecasts.DeleteForecastsBefore(ctx, cutoff)
			result.ForecastsDeleted = n
			return err
		})
		if err != nil {
			return result, fmt.Errorf("failed to cleanup forecasts: %w", err)
		}
		c.record("burnout_forecasts", result.ForecastsDeleted, cfg.ForecastRetentionDays)
	}

	result.Duration = time.Since(start)
	c.logger.WithFields(logrus.Fields{
		"signals_deleted":   result.SignalsDeleted,
		"forecasts_deleted": result.ForecastsDeleted,
		"duration":          result.Duration,
	}).Info("Data cleanup completed")
	return result, nil
}

func (c *CleanupService) record(table string, deleted int64, retentionDays int) {
	if c.recorder != nil {
		c.recorder.RecordCleanup(table, deleted)
	}
	if deleted > 0 {
		c.logger.WithFields(logrus.Fields{
			"table":          table,
			"deleted":        deleted,
			"retention_days": retentionDays,
		}).Info("Cleaned up old records")
	}
}

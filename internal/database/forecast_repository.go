package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/irfndi/wellcast-go/internal/models"
)

const (
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 100
)

// ForecastRepository stores forecasts as JSONB payloads keyed by
// userId_timestampMillis.
type ForecastRepository struct {
	db DBTX
}

// NewForecastRepository creates a new forecast repository
func NewForecastRepository(db DBTX) *ForecastRepository {
	return &ForecastRepository{db: db}
}

// SaveForecast inserts a forecast, replacing any row with the same key
func (r *ForecastRepository) SaveForecast(ctx context.Context, forecast *models.BurnoutForecast) error {
	payload, err := json.Marshal(forecast)
	if err != nil {
		return fmt.Errorf("failed to encode forecast: %w", err)
	}

	query := `
		INSERT INTO burnout_forecasts (id, user_id, forecast_at, overall_score, risk_level, confidence, trend, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			overall_score = EXCLUDED.overall_score,
			risk_level = EXCLUDED.risk_level,
			confidence = EXCLUDED.confidence,
			trend = EXCLUDED.trend,
			payload = EXCLUDED.payload
	`

	_, err = r.db.Exec(ctx, query,
		forecast.StorageKey(),
		forecast.UserID,
		forecast.Timestamp.UTC(),
		forecast.OverallScore,
		string(forecast.RiskLevel),
		forecast.Confidence,
		string(forecast.Trend),
		payload,
	)
	if err != nil {
		return fmt.Errorf("failed to save forecast: %w", err)
	}
	return nil
}

// LatestForecast returns userID's most recent forecast or ErrNotFound
func (r *ForecastRepository) LatestForecast(ctx context.Context, userID string) (*models.BurnoutForecast, error) {
	query := `
		SELECT payload FROM burnout_forecasts
		WHERE user_id = $1
		ORDER BY forecast_at DESC
		LIMIT 1
	`

	var payload []byte
	if err := r.db.QueryRow(ctx, query, userID).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to query latest forecast: %w", err)
	}
	return decodeForecast(payload)
}

// ForecastHistory returns up to limit forecasts for userID, newest first.
// limit is clamped to [1, MaxHistoryLimit], with 0 meaning the default.
func (r *ForecastRepository) ForecastHistory(ctx context.Context, userID string, limit int) ([]*models.BurnoutForecast, error) {
	limit = ClampHistoryLimit(limit)

	query := `
		SELECT payload FROM burnout_forecasts
		WHERE user_id = $1
		ORDER BY forecast_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query forecast history: %w", err)
	}
	defer rows.Close()

	forecasts := []*models.BurnoutForecast{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan forecast: %w", err)
		}
		forecast, err := decodeForecast(payload)
		if err != nil {
			return nil, err
		}
		forecasts = append(forecasts, forecast)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate forecasts: %w", err)
	}
	return forecasts, nil
}

// DeleteForecastsBefore removes forecasts made before cutoff
func (r *ForecastRepository) DeleteForecastsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM burnout_forecasts WHERE forecast_at < $1`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete forecasts: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ClampHistoryLimit applies the default and maximum history page size
func ClampHistoryLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		return MaxHistoryLimit
	default:
		return limit
	}
}

func decodeForecast(payload []byte) (*models.BurnoutForecast, error) {
	var forecast models.BurnoutForecast
	if err := json.Unmarshal(payload, &forecast); err != nil {
		return nil, fmt.Errorf("failed to decode forecast: %w", err)
	}
	return &forecast, nil
}

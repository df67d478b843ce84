package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/irfndi/wellcast-go/internal/models"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("record not found")

// SignalRepository stores wellness signals
type SignalRepository struct {
	db    DBTX
	newID func() string
}

// NewSignalRepository creates a new signal repository
func NewSignalRepository(db DBTX) *SignalRepository {
	return &SignalRepository{
		db:    db,
		newID: func() string { return uuid.NewString() },
	}
}

// SaveSignals inserts signals for userID in one transaction and returns them
// with ids and user id filled in.
func (r *SignalRepository) SaveSignals(ctx context.Context, userID string, signals []models.WellnessSignal) ([]models.WellnessSignal, error) {
	if len(signals) == 0 {
		return []models.WellnessSignal{}, nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	query := `
		INSERT INTO wellness_signals (id, user_id, signal_type, value, metadata, observed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	saved := make([]models.WellnessSignal, 0, len(signals))
	for _, s := range signals {
		s.ID = r.newID()
		s.UserID = userID

		metadata, err := marshalMetadata(s.Metadata)
		if err != nil {
			return nil, err
		}

		if _, err := tx.Exec(ctx, query, s.ID, s.UserID, string(s.Type), s.Value, metadata, s.Timestamp.UTC()); err != nil {
			return nil, fmt.Errorf("failed to insert signal: %w", err)
		}
		saved = append(saved, s)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit signals: %w", err)
	}
	return saved, nil
}

// ListSignals returns userID's signals observed at or after since, oldest first
func (r *SignalRepository) ListSignals(ctx context.Context, userID string, since time.Time) ([]models.WellnessSignal, error) {
	query := `
		SELECT id, user_id, signal_type, value, metadata, observed_at
		FROM wellness_signals
		WHERE user_id = $1 AND observed_at >= $2
		ORDER BY observed_at ASC, created_at ASC
	`

	rows, err := r.db.Query(ctx, query, userID, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query signals: %w", err)
	}
	defer rows.Close()

	signals := []models.WellnessSignal{}
	for rows.Next() {
		var (
			s          models.WellnessSignal
			signalType string
			metadata   []byte
		)
		if err := rows.Scan(&s.ID, &s.UserID, &signalType, &s.Value, &metadata, &s.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan signal: %w", err)
		}
		s.Type = models.SignalType(signalType)
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &s.Metadata); err != nil {
				return nil, fmt.Errorf("failed to decode signal metadata: %w", err)
			}
		}
		signals = append(signals, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate signals: %w", err)
	}
	return signals, nil
}

// DeleteSignalsBefore removes signals observed before cutoff
func (r *SignalRepository) DeleteSignalsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM wellness_signals WHERE observed_at < $1`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete signals: %w", err)
	}
	return tag.RowsAffected(), nil
}

func marshalMetadata(metadata map[string]interface{}) ([]byte, error) {
	if metadata == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode signal metadata: %w", err)
	}
	return b, nil
}

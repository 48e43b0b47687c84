package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/junexi0828/focusmate-sub001/internal/model"
)

type PresenceRepository interface {
	FindByUserID(ctx context.Context, userID string) (*model.Presence, error)
	Upsert(ctx context.Context, userID string, isOnline bool, statusMessage *string) (*model.Presence, error)
	IncrementConnection(ctx context.Context, userID string) (int, error)
	DecrementConnection(ctx context.Context, userID string) (int, error)
	CleanupStale(ctx context.Context, thresholdMinutes int) (int64, error)
}

type presenceRepo struct {
	db *sqlx.DB
}

func NewPresenceRepository(db *sqlx.DB) PresenceRepository {
	return &presenceRepo{db: db}
}

func (r *presenceRepo) FindByUserID(ctx context.Context, userID string) (*model.Presence, error) {
	var p model.Presence
	err := r.db.GetContext(ctx, &p, `
		SELECT * FROM presences WHERE user_id = $1
	`, userID)
	return HandleNotFound(&p, err)
}

func (r *presenceRepo) Upsert(ctx context.Context, userID string, isOnline bool, statusMessage *string) (*model.Presence, error) {
	var p model.Presence
	err := r.db.GetContext(ctx, &p, `
		INSERT INTO presences (user_id, is_online, last_seen_at, status_message)
		VALUES ($1, $2, NOW(), $3)
		ON CONFLICT (user_id) DO UPDATE SET
			is_online = EXCLUDED.is_online,
			last_seen_at = NOW(),
			status_message = COALESCE(EXCLUDED.status_message, presences.status_message),
			updated_at = NOW()
		RETURNING *
	`, userID, isOnline, statusMessage)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// IncrementConnection bumps the connection count for userID, creating the
// presence row on first contact, and returns the new count.
func (r *presenceRepo) IncrementConnection(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		INSERT INTO presences (user_id, is_online, last_seen_at, connection_count)
		VALUES ($1, FALSE, NOW(), 1)
		ON CONFLICT (user_id) DO UPDATE SET
			connection_count = presences.connection_count + 1,
			updated_at = NOW()
		RETURNING connection_count
	`, userID)
	return count, err
}

// DecrementConnection lowers the connection count, clamped at zero, and
// returns the new count.
func (r *presenceRepo) DecrementConnection(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		UPDATE presences SET
			connection_count = GREATEST(connection_count - 1, 0),
			updated_at = NOW()
		WHERE user_id = $1
		RETURNING connection_count
	`, userID)
	return count, err
}

// CleanupStale forces offline any presence row not touched within the
// threshold. Compensates for crashed clients whose disconnect was never
// observed.
func (r *presenceRepo) CleanupStale(ctx context.Context, thresholdMinutes int) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE presences SET
			is_online = FALSE,
			connection_count = 0,
			updated_at = NOW()
		WHERE (is_online = TRUE OR connection_count > 0)
		AND updated_at < NOW() - ($1 * INTERVAL '1 minute')
	`, thresholdMinutes)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

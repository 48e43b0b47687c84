package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/junexi0828/focusmate-sub001/internal/model"
)

type TimerRepository interface {
	FindByRoomID(ctx context.Context, roomID string) (*model.Timer, error)
	Create(ctx context.Context, timer *model.Timer) (*model.Timer, error)
	Update(ctx context.Context, timer *model.Timer) (*model.Timer, error)
	DeleteByRoomID(ctx context.Context, roomID string) error
}

type timerRepo struct {
	db *sqlx.DB
}

func NewTimerRepository(db *sqlx.DB) TimerRepository {
	return &timerRepo{db: db}
}

func (r *timerRepo) FindByRoomID(ctx context.Context, roomID string) (*model.Timer, error) {
	var timer model.Timer
	err := r.db.GetContext(ctx, &timer, `
		SELECT * FROM timers WHERE room_id = $1
	`, roomID)
	return HandleNotFound(&timer, err)
}

func (r *timerRepo) Create(ctx context.Context, timer *model.Timer) (*model.Timer, error) {
	var created model.Timer
	err := r.db.GetContext(ctx, &created, `
		INSERT INTO timers
			(id, room_id, status, phase, duration_sec, remaining_sec, is_auto_start)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (room_id) DO UPDATE SET updated_at = NOW()
		RETURNING *
	`, timer.ID, timer.RoomID, timer.Status, timer.Phase,
		timer.DurationSec, timer.RemainingSec, timer.IsAutoStart)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Update persists every mutable timer field. The caller holds the room
// lock, so a full-row write cannot race another writer.
func (r *timerRepo) Update(ctx context.Context, timer *model.Timer) (*model.Timer, error) {
	var updated model.Timer
	err := r.db.GetContext(ctx, &updated, `
		UPDATE timers SET
			status = $2,
			phase = $3,
			duration_sec = $4,
			remaining_sec = $5,
			started_at = $6,
			paused_at = $7,
			completed_at = $8,
			is_auto_start = $9,
			updated_at = NOW()
		WHERE id = $1
		RETURNING *
	`, timer.ID, timer.Status, timer.Phase, timer.DurationSec, timer.RemainingSec,
		timer.StartedAt, timer.PausedAt, timer.CompletedAt, timer.IsAutoStart)
	return HandleNotFound(&updated, err)
}

func (r *timerRepo) DeleteByRoomID(ctx context.Context, roomID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM timers WHERE room_id = $1`, roomID)
	return err
}

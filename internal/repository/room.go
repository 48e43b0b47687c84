package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/junexi0828/focusmate-sub001/internal/model"
)

type RoomRepository interface {
	FindByID(ctx context.Context, id string) (*model.Room, error)
	FindByName(ctx context.Context, name string) (*model.Room, error)
	ListActive(ctx context.Context) ([]model.Room, error)
	Create(ctx context.Context, params model.CreateRoomParams) (*model.Room, error)
	Update(ctx context.Context, id string, params model.UpdateRoomParams) (*model.Room, error)
	SetHost(ctx context.Context, id string, hostID *string) error
	Deactivate(ctx context.Context, id string) error
}

type roomRepo struct {
	db *sqlx.DB
}

func NewRoomRepository(db *sqlx.DB) RoomRepository {
	return &roomRepo{db: db}
}

func (r *roomRepo) FindByID(ctx context.Context, id string) (*model.Room, error) {
	var room model.Room
	err := r.db.GetContext(ctx, &room, `
		SELECT * FROM rooms WHERE id = $1
	`, id)
	return HandleNotFound(&room, err)
}

func (r *roomRepo) FindByName(ctx context.Context, name string) (*model.Room, error) {
	var room model.Room
	err := r.db.GetContext(ctx, &room, `
		SELECT * FROM rooms WHERE name = $1
	`, name)
	return HandleNotFound(&room, err)
}

func (r *roomRepo) ListActive(ctx context.Context) ([]model.Room, error) {
	var rooms []model.Room
	err := r.db.SelectContext(ctx, &rooms, `
		SELECT * FROM rooms
		WHERE is_active = TRUE
		ORDER BY created_at DESC
	`)
	return rooms, err
}

func (r *roomRepo) Create(ctx context.Context, params model.CreateRoomParams) (*model.Room, error) {
	var room model.Room
	err := r.db.GetContext(ctx, &room, `
		INSERT INTO rooms
			(id, name, work_duration_sec, break_duration_sec, auto_start_break, remove_on_leave)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING *
	`, params.ID, params.Name, params.WorkDurationSec, params.BreakDurationSec,
		params.AutoStartBreak, params.RemoveOnLeave)
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *roomRepo) Update(ctx context.Context, id string, params model.UpdateRoomParams) (*model.Room, error) {
	var room model.Room
	err := r.db.GetContext(ctx, &room, `
		UPDATE rooms SET
			name = COALESCE($2, name),
			work_duration_sec = COALESCE($3, work_duration_sec),
			break_duration_sec = COALESCE($4, break_duration_sec),
			auto_start_break = COALESCE($5, auto_start_break),
			remove_on_leave = COALESCE($6, remove_on_leave),
			updated_at = NOW()
		WHERE id = $1 AND is_active = TRUE
		RETURNING *
	`, id, params.Name, params.WorkDurationSec, params.BreakDurationSec,
		params.AutoStartBreak, params.RemoveOnLeave)
	return HandleNotFound(&room, err)
}

func (r *roomRepo) SetHost(ctx context.Context, id string, hostID *string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE rooms SET host_id = $2, updated_at = NOW() WHERE id = $1
	`, id, hostID)
	return err
}

// Deactivate soft-deletes a room. The row is kept because the timer row
// references it.
func (r *roomRepo) Deactivate(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE rooms SET
			is_active = FALSE,
			deleted_at = NOW(),
			updated_at = NOW()
		WHERE id = $1
	`, id)
	return err
}

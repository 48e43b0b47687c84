package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/junexi0828/focusmate-sub001/internal/model"
)

type ParticipantRepository interface {
	FindByID(ctx context.Context, id string) (*model.Participant, error)
	ListByRoomID(ctx context.Context, roomID string, activeOnly bool) ([]model.Participant, error)
	CountConnected(ctx context.Context, roomID string) (int, error)
	Create(ctx context.Context, params model.CreateParticipantParams) (*model.Participant, error)
	MarkLeft(ctx context.Context, id string, leftAt time.Time) error
	SetHost(ctx context.Context, id string, isHost bool) error
	FindOldestConnected(ctx context.Context, roomID string) (*model.Participant, error)
	// WithTx returns a new repository that uses the given transaction
	WithTx(tx *sqlx.Tx) ParticipantRepository
}

// participantDB is an interface satisfied by both *sqlx.DB and *sqlx.Tx
type participantDB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

type participantRepo struct {
	db participantDB
}

func NewParticipantRepository(db *sqlx.DB) ParticipantRepository {
	return &participantRepo{db: db}
}

func (r *participantRepo) WithTx(tx *sqlx.Tx) ParticipantRepository {
	return &participantRepo{db: tx}
}

func (r *participantRepo) FindByID(ctx context.Context, id string) (*model.Participant, error) {
	var p model.Participant
	err := r.db.GetContext(ctx, &p, `
		SELECT * FROM participants WHERE id = $1
	`, id)
	return HandleNotFound(&p, err)
}

func (r *participantRepo) ListByRoomID(ctx context.Context, roomID string, activeOnly bool) ([]model.Participant, error) {
	var participants []model.Participant
	query := `
		SELECT * FROM participants
		WHERE room_id = $1
		ORDER BY joined_at ASC
	`
	if activeOnly {
		query = `
			SELECT * FROM participants
			WHERE room_id = $1 AND is_connected = TRUE
			ORDER BY joined_at ASC
		`
	}
	err := r.db.SelectContext(ctx, &participants, query, roomID)
	return participants, err
}

func (r *participantRepo) CountConnected(ctx context.Context, roomID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM participants
		WHERE room_id = $1 AND is_connected = TRUE
	`, roomID)
	return count, err
}

func (r *participantRepo) Create(ctx context.Context, params model.CreateParticipantParams) (*model.Participant, error) {
	var p model.Participant
	err := r.db.GetContext(ctx, &p, `
		INSERT INTO participants
			(id, room_id, user_id, username, is_connected, is_host, joined_at)
		VALUES ($1, $2, $3, $4, TRUE, $5, $6)
		RETURNING *
	`, params.ID, params.RoomID, params.UserID, params.Username, params.IsHost, params.JoinedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *participantRepo) MarkLeft(ctx context.Context, id string, leftAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE participants SET
			is_connected = FALSE,
			is_host = FALSE,
			left_at = $2
		WHERE id = $1
	`, id, leftAt)
	return err
}

func (r *participantRepo) SetHost(ctx context.Context, id string, isHost bool) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE participants SET is_host = $2 WHERE id = $1
	`, id, isHost)
	return err
}

func (r *participantRepo) FindOldestConnected(ctx context.Context, roomID string) (*model.Participant, error) {
	var p model.Participant
	err := r.db.GetContext(ctx, &p, `
		SELECT * FROM participants
		WHERE room_id = $1 AND is_connected = TRUE
		ORDER BY joined_at ASC
		LIMIT 1
	`, roomID)
	return HandleNotFound(&p, err)
}

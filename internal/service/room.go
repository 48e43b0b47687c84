package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/junexi0828/focusmate-sub001/internal/clock"
	"github.com/junexi0828/focusmate-sub001/internal/config"
	"github.com/junexi0828/focusmate-sub001/internal/database"
	apperrors "github.com/junexi0828/focusmate-sub001/internal/errors"
	"github.com/junexi0828/focusmate-sub001/internal/hub"
	"github.com/junexi0828/focusmate-sub001/internal/model"
	"github.com/junexi0828/focusmate-sub001/internal/repository"
	"github.com/junexi0828/focusmate-sub001/internal/timer"
	"github.com/junexi0828/focusmate-sub001/internal/util"
)

// TxRunner runs a function inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn database.TxFunc) error
}

var _ TxRunner = (*database.DB)(nil)

// RoomSnapshot is the coherent read-side tuple for a room.
type RoomSnapshot struct {
	Room             model.Room           `json:"room"`
	Timer            *model.TimerSnapshot `json:"timer,omitempty"`
	ParticipantCount int                  `json:"participant_count"`
}

// ParticipantJoined is the participant_joined event payload.
type ParticipantJoined struct {
	Participant model.Participant `json:"participant"`
	Total       int               `json:"total"`
}

// ParticipantLeft is the participant_left event payload.
type ParticipantLeft struct {
	ParticipantID string `json:"participant_id"`
	Total         int    `json:"total"`
}

// PhaseCompleted is the phase_completed event payload.
type PhaseCompleted struct {
	OutgoingPhase model.TimerPhase `json:"outgoing_phase"`
	IncomingPhase model.TimerPhase `json:"incoming_phase"`
	AutoStarted   bool             `json:"auto_started"`
}

type CreateRoomInput struct {
	Name           string `json:"name"`
	WorkDuration   int    `json:"work_duration"`
	BreakDuration  int    `json:"break_duration"`
	AutoStartBreak bool   `json:"auto_start_break"`
	RemoveOnLeave  bool   `json:"remove_on_leave"`
}

type UpdateRoomInput struct {
	Name           *string `json:"name"`
	WorkDuration   *int    `json:"work_duration"`
	BreakDuration  *int    `json:"break_duration"`
	AutoStartBreak *bool   `json:"auto_start_break"`
	RemoveOnLeave  *bool   `json:"remove_on_leave"`
}

type JoinRoomInput struct {
	Username string  `json:"username"`
	UserID   *string `json:"user_id"`
}

// RoomService orchestrates room, timer and participant state. Every
// mutation and snapshot read for a given room serializes through that
// room's mutex; events are broadcast in mutation order while the lock
// is still held (sink delivery itself is a non-blocking enqueue).
//
// Host policy: the first joiner of an empty room becomes host. When the
// host leaves, the oldest still-connected participant is promoted.
type RoomService struct {
	tx           TxRunner
	rooms        repository.RoomRepository
	timers       repository.TimerRepository
	participants repository.ParticipantRepository
	roomHub      *hub.Hub
	clk          clock.Clock
	locks        *lockMap

	defaultWorkSec  int
	defaultBreakSec int
	maxParticipants int
}

func NewRoomService(
	tx TxRunner,
	rooms repository.RoomRepository,
	timers repository.TimerRepository,
	participants repository.ParticipantRepository,
	roomHub *hub.Hub,
	clk clock.Clock,
	cfg *config.Config,
) *RoomService {
	return &RoomService{
		tx:              tx,
		rooms:           rooms,
		timers:          timers,
		participants:    participants,
		roomHub:         roomHub,
		clk:             clk,
		locks:           newLockMap(),
		defaultWorkSec:  cfg.WorkDurationSec,
		defaultBreakSec: cfg.BreakDurationSec,
		maxParticipants: cfg.MaxParticipantsPerRoom,
	}
}

// Room CRUD

func (s *RoomService) CreateRoom(ctx context.Context, input CreateRoomInput) (*model.Room, error) {
	if input.WorkDuration == 0 {
		input.WorkDuration = s.defaultWorkSec
	}
	if input.BreakDuration == 0 {
		input.BreakDuration = s.defaultBreakSec
	}
	if err := validateRoomSettings(input.Name, input.WorkDuration, input.BreakDuration); err != nil {
		return nil, err
	}

	room, err := s.rooms.Create(ctx, model.CreateRoomParams{
		ID:               uuid.NewString(),
		Name:             input.Name,
		WorkDurationSec:  input.WorkDuration,
		BreakDurationSec: input.BreakDuration,
		AutoStartBreak:   input.AutoStartBreak,
		RemoveOnLeave:    input.RemoveOnLeave,
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.RoomNameTaken(input.Name)
		}
		return nil, apperrors.Store(err)
	}

	log.Info().
		Str("roomId", room.ID).
		Str("name", room.Name).
		Msg("room created")

	return room, nil
}

func (s *RoomService) ListRooms(ctx context.Context) ([]model.Room, error) {
	rooms, err := s.rooms.ListActive(ctx)
	if err != nil {
		return nil, apperrors.Store(err)
	}
	return rooms, nil
}

// GetRoom returns a coherent snapshot of room, timer and participant
// count, observed under the room lock.
func (s *RoomService) GetRoom(ctx context.Context, roomID string) (*RoomSnapshot, error) {
	unlock := s.locks.acquire(roomID)
	defer unlock()

	room, err := s.activeRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	count, err := s.participants.CountConnected(ctx, roomID)
	if err != nil {
		return nil, apperrors.Store(err)
	}

	snapshot := &RoomSnapshot{Room: *room, ParticipantCount: count}

	t, err := s.timers.FindByRoomID(ctx, roomID)
	if err != nil {
		return nil, apperrors.Store(err)
	}
	if t != nil {
		snap := timer.Snapshot(*t, s.clk.Now())
		snapshot.Timer = &snap
	}

	return snapshot, nil
}

func (s *RoomService) UpdateRoom(ctx context.Context, roomID string, input UpdateRoomInput) (*model.Room, error) {
	unlock := s.locks.acquire(roomID)
	defer unlock()

	current, err := s.activeRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	name := current.Name
	if input.Name != nil {
		name = *input.Name
	}
	workSec := current.WorkDurationSec
	if input.WorkDuration != nil {
		workSec = *input.WorkDuration
	}
	breakSec := current.BreakDurationSec
	if input.BreakDuration != nil {
		breakSec = *input.BreakDuration
	}
	if err := validateRoomSettings(name, workSec, breakSec); err != nil {
		return nil, err
	}

	room, err := s.rooms.Update(ctx, roomID, model.UpdateRoomParams{
		Name:             input.Name,
		WorkDurationSec:  input.WorkDuration,
		BreakDurationSec: input.BreakDuration,
		AutoStartBreak:   input.AutoStartBreak,
		RemoveOnLeave:    input.RemoveOnLeave,
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.RoomNameTaken(name)
		}
		return nil, apperrors.Store(err)
	}
	if room == nil {
		return nil, apperrors.RoomNotFound()
	}

	s.roomHub.Broadcast(roomID, hub.Event{
		Type:    hub.EventRoomUpdated,
		RoomID:  roomID,
		Payload: hub.MarshalPayload(room),
	})

	return room, nil
}

// DeleteRoom soft-deletes: the row stays because the timer row
// references it. The room's lock entry is reclaimed afterwards.
func (s *RoomService) DeleteRoom(ctx context.Context, roomID string) error {
	unlock := s.locks.acquire(roomID)
	defer unlock()

	room, err := s.activeRoom(ctx, roomID)
	if err != nil {
		return err
	}

	if err := s.rooms.Deactivate(ctx, roomID); err != nil {
		return apperrors.Store(err)
	}

	room.IsActive = false
	s.roomHub.Broadcast(roomID, hub.Event{
		Type:    hub.EventRoomUpdated,
		RoomID:  roomID,
		Payload: hub.MarshalPayload(room),
	})

	s.locks.forget(roomID)

	log.Info().Str("roomId", roomID).Msg("room deactivated")
	return nil
}

// Timer commands

// GetOrCreateTimer returns the room's timer snapshot, creating the row
// on first access.
func (s *RoomService) GetOrCreateTimer(ctx context.Context, roomID string) (*model.TimerSnapshot, error) {
	unlock := s.locks.acquire(roomID)
	defer unlock()

	room, err := s.activeRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	t, err := s.timers.FindByRoomID(ctx, roomID)
	if err != nil {
		return nil, apperrors.Store(err)
	}
	if t == nil {
		fresh := timer.New(uuid.NewString(), roomID, roomSettings(room))
		t, err = s.timers.Create(ctx, &fresh)
		if err != nil {
			return nil, apperrors.Store(err)
		}
		log.Debug().Str("roomId", roomID).Str("timerId", t.ID).Msg("timer created")
	}

	snap := timer.Snapshot(*t, s.clk.Now())
	return &snap, nil
}

func (s *RoomService) StartTimer(ctx context.Context, roomID string) (*model.TimerSnapshot, error) {
	return s.mutateTimer(ctx, roomID, func(t model.Timer, _ timer.RoomSettings, now time.Time) (model.Timer, []hub.Event, error) {
		next, err := timer.Start(t, now)
		return next, nil, err
	})
}

func (s *RoomService) PauseTimer(ctx context.Context, roomID string) (*model.TimerSnapshot, error) {
	return s.mutateTimer(ctx, roomID, func(t model.Timer, _ timer.RoomSettings, now time.Time) (model.Timer, []hub.Event, error) {
		next, err := timer.Pause(t, now)
		return next, nil, err
	})
}

func (s *RoomService) ResumeTimer(ctx context.Context, roomID string) (*model.TimerSnapshot, error) {
	return s.mutateTimer(ctx, roomID, func(t model.Timer, _ timer.RoomSettings, now time.Time) (model.Timer, []hub.Event, error) {
		next, err := timer.Resume(t, now)
		return next, nil, err
	})
}

func (s *RoomService) ResetTimer(ctx context.Context, roomID string) (*model.TimerSnapshot, error) {
	return s.mutateTimer(ctx, roomID, func(t model.Timer, settings timer.RoomSettings, _ time.Time) (model.Timer, []hub.Event, error) {
		return timer.Reset(t, settings), nil, nil
	})
}

func (s *RoomService) CompletePhase(ctx context.Context, roomID string) (*model.TimerSnapshot, error) {
	return s.mutateTimer(ctx, roomID, func(t model.Timer, settings timer.RoomSettings, now time.Time) (model.Timer, []hub.Event, error) {
		next, result, err := timer.Complete(t, settings, now)
		if err != nil {
			return t, nil, err
		}
		completed := hub.Event{
			Type:   hub.EventPhaseCompleted,
			RoomID: roomID,
			Payload: hub.MarshalPayload(PhaseCompleted{
				OutgoingPhase: result.OutgoingPhase,
				IncomingPhase: result.IncomingPhase,
				AutoStarted:   result.AutoStarted,
			}),
		}
		return next, []hub.Event{completed}, nil
	})
}

// mutateTimer runs one timer command under the room lock: load, apply
// the pure transition, persist, broadcast. Extra events (phase_completed)
// precede the timer_state broadcast.
func (s *RoomService) mutateTimer(
	ctx context.Context,
	roomID string,
	apply func(t model.Timer, settings timer.RoomSettings, now time.Time) (model.Timer, []hub.Event, error),
) (*model.TimerSnapshot, error) {
	unlock := s.locks.acquire(roomID)
	defer unlock()

	room, err := s.activeRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	t, err := s.timers.FindByRoomID(ctx, roomID)
	if err != nil {
		return nil, apperrors.Store(err)
	}
	if t == nil {
		return nil, apperrors.TimerNotFound()
	}

	now := s.clk.Now()
	next, extraEvents, err := apply(*t, roomSettings(room), now)
	if err != nil {
		return nil, err
	}

	updated, err := s.timers.Update(ctx, &next)
	if err != nil {
		return nil, apperrors.Store(err)
	}
	if updated == nil {
		return nil, apperrors.TimerNotFound()
	}

	snap := timer.Snapshot(*updated, now)

	for _, event := range extraEvents {
		s.roomHub.Broadcast(roomID, event)
	}
	s.roomHub.Broadcast(roomID, hub.Event{
		Type:    hub.EventTimerState,
		RoomID:  roomID,
		Payload: hub.MarshalPayload(snap),
	})

	return &snap, nil
}

// Participants

// Join adds a connected participant. Capacity check and insert run in
// one transaction; the first joiner of an empty room becomes host.
func (s *RoomService) Join(ctx context.Context, roomID string, input JoinRoomInput) (*model.Participant, error) {
	if input.Username == "" {
		return nil, apperrors.MissingRequired("username")
	}

	unlock := s.locks.acquire(roomID)
	defer unlock()

	room, err := s.activeRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	var participant *model.Participant
	var total int

	err = s.tx.WithTx(ctx, func(tx *sqlx.Tx) error {
		repo := s.participants.WithTx(tx)

		count, err := repo.CountConnected(ctx, roomID)
		if err != nil {
			return apperrors.Store(err)
		}
		if count >= s.maxParticipants {
			return apperrors.RoomFull(s.maxParticipants)
		}

		participant, err = repo.Create(ctx, model.CreateParticipantParams{
			ID:       uuid.NewString(),
			RoomID:   roomID,
			UserID:   input.UserID,
			Username: input.Username,
			IsHost:   count == 0,
			JoinedAt: s.clk.Now(),
		})
		if err != nil {
			return apperrors.Store(err)
		}
		total = count + 1
		return nil
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.Store(err)
	}

	if participant.IsHost {
		if err := s.rooms.SetHost(ctx, roomID, &participant.ID); err != nil {
			log.Error().Err(err).Str("roomId", roomID).Msg("failed to record host on room")
		}
		room.HostID = &participant.ID
	}

	s.roomHub.Broadcast(roomID, hub.Event{
		Type:   hub.EventParticipantJoined,
		RoomID: roomID,
		Payload: hub.MarshalPayload(ParticipantJoined{
			Participant: *participant,
			Total:       total,
		}),
	})

	log.Info().
		Str("roomId", roomID).
		Str("participantId", participant.ID).
		Str("username", participant.Username).
		Bool("isHost", participant.IsHost).
		Int("total", total).
		Msg("participant joined")

	return participant, nil
}

// Leave disconnects a participant. If the host left, the oldest
// still-connected participant is promoted.
func (s *RoomService) Leave(ctx context.Context, participantID string) error {
	if !util.IsValidUUID(participantID) {
		return apperrors.ParticipantNotFound()
	}
	participant, err := s.participants.FindByID(ctx, participantID)
	if err != nil {
		return apperrors.Store(err)
	}
	if participant == nil {
		return apperrors.ParticipantNotFound()
	}

	roomID := participant.RoomID
	unlock := s.locks.acquire(roomID)
	defer unlock()

	// re-read under the lock; a concurrent leave may have won
	participant, err = s.participants.FindByID(ctx, participantID)
	if err != nil {
		return apperrors.Store(err)
	}
	if participant == nil || !participant.IsConnected {
		return apperrors.ParticipantNotFound()
	}

	if err := s.participants.MarkLeft(ctx, participantID, s.clk.Now()); err != nil {
		return apperrors.Store(err)
	}

	if participant.IsHost {
		if err := s.promoteOldest(ctx, roomID); err != nil {
			log.Error().Err(err).Str("roomId", roomID).Msg("host reassignment failed")
		}
	}

	total, err := s.participants.CountConnected(ctx, roomID)
	if err != nil {
		return apperrors.Store(err)
	}

	s.roomHub.Broadcast(roomID, hub.Event{
		Type:   hub.EventParticipantLeft,
		RoomID: roomID,
		Payload: hub.MarshalPayload(ParticipantLeft{
			ParticipantID: participantID,
			Total:         total,
		}),
	})

	log.Info().
		Str("roomId", roomID).
		Str("participantId", participantID).
		Int("total", total).
		Msg("participant left")

	return nil
}

func (s *RoomService) ListParticipants(ctx context.Context, roomID string, activeOnly bool) ([]model.Participant, error) {
	if _, err := s.activeRoom(ctx, roomID); err != nil {
		return nil, err
	}

	participants, err := s.participants.ListByRoomID(ctx, roomID, activeOnly)
	if err != nil {
		return nil, apperrors.Store(err)
	}
	return participants, nil
}

// TimerStateEvent builds the reconciliation snapshot delivered to a
// newly attached room sink.
func (s *RoomService) TimerStateEvent(ctx context.Context, roomID string) (*hub.Event, error) {
	snap, err := s.GetOrCreateTimer(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return &hub.Event{
		Type:    hub.EventTimerState,
		RoomID:  roomID,
		Payload: hub.MarshalPayload(snap),
	}, nil
}

// helpers

func (s *RoomService) activeRoom(ctx context.Context, roomID string) (*model.Room, error) {
	// the id column is a Postgres uuid; a malformed id is just not found
	if !util.IsValidUUID(roomID) {
		return nil, apperrors.RoomNotFound()
	}
	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		return nil, apperrors.Store(err)
	}
	if room == nil || !room.IsActive {
		return nil, apperrors.RoomNotFound()
	}
	return room, nil
}

func (s *RoomService) promoteOldest(ctx context.Context, roomID string) error {
	next, err := s.participants.FindOldestConnected(ctx, roomID)
	if err != nil {
		return err
	}
	if next == nil {
		return s.rooms.SetHost(ctx, roomID, nil)
	}
	if err := s.participants.SetHost(ctx, next.ID, true); err != nil {
		return err
	}
	if err := s.rooms.SetHost(ctx, roomID, &next.ID); err != nil {
		return err
	}
	log.Info().
		Str("roomId", roomID).
		Str("participantId", next.ID).
		Msg("host reassigned")
	return nil
}

func roomSettings(room *model.Room) timer.RoomSettings {
	return timer.RoomSettings{
		WorkDurationSec:  room.WorkDurationSec,
		BreakDurationSec: room.BreakDurationSec,
		AutoStartBreak:   room.AutoStartBreak,
	}
}

func validateRoomSettings(name string, workSec, breakSec int) error {
	if !util.IsValidRoomName(name) {
		return apperrors.InvalidInput("name", "must be 3-50 characters of letters, digits, '_' or '-'")
	}
	if workSec < config.MinWorkDurationSec || workSec > config.MaxWorkDurationSec {
		return apperrors.InvalidInput("work_duration",
			fmt.Sprintf("must be between %d and %d seconds", config.MinWorkDurationSec, config.MaxWorkDurationSec))
	}
	if breakSec < config.MinBreakDurationSec || breakSec > config.MaxBreakDurationSec {
		return apperrors.InvalidInput("break_duration",
			fmt.Sprintf("must be between %d and %d seconds", config.MinBreakDurationSec, config.MaxBreakDurationSec))
	}
	return nil
}

package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/junexi0828/focusmate-sub001/internal/clock"
	apperrors "github.com/junexi0828/focusmate-sub001/internal/errors"
	"github.com/junexi0828/focusmate-sub001/internal/hub"
	"github.com/junexi0828/focusmate-sub001/internal/model"
	"github.com/junexi0828/focusmate-sub001/internal/repository"
)

// FriendPresence is the payload of friend_online / friend_offline
// events.
type FriendPresence struct {
	UserID   string `json:"user_id"`
	IsOnline bool   `json:"is_online"`
}

// PresenceService counts device connections per user and broadcasts
// online/offline transitions to the user's friends. All transitions for
// one user serialize through that user's mutex, so is_online tracks
// connection_count > 0 at the end of every operation.
type PresenceService struct {
	presences repository.PresenceRepository
	friends   repository.FriendRepository
	userHub   *hub.Hub
	clk       clock.Clock
	locks     *lockMap
}

func NewPresenceService(
	presences repository.PresenceRepository,
	friends repository.FriendRepository,
	userHub *hub.Hub,
	clk clock.Clock,
) *PresenceService {
	return &PresenceService{
		presences: presences,
		friends:   friends,
		userHub:   userHub,
		clk:       clk,
		locks:     newLockMap(),
	}
}

// Connect registers one more device connection for userID and attaches
// sink to the user's namespace. The first connection flips the user
// online and notifies friends; further connections are silent.
func (s *PresenceService) Connect(ctx context.Context, userID string, sink hub.Sink) error {
	unlock := s.locks.acquire(userID)
	defer unlock()

	count, err := s.presences.IncrementConnection(ctx, userID)
	if err != nil {
		return apperrors.Store(err)
	}

	if count == 1 {
		if _, err := s.presences.Upsert(ctx, userID, true, nil); err != nil {
			return apperrors.Store(err)
		}
		s.notifyFriends(ctx, userID, true)
	}

	s.userHub.Attach(userID, sink)

	log.Debug().
		Str("userId", userID).
		Int("connectionCount", count).
		Msg("presence connection opened")

	return nil
}

// Disconnect drops one device connection and detaches sink. The last
// connection flips the user offline and notifies friends.
func (s *PresenceService) Disconnect(ctx context.Context, userID string, sink hub.Sink) error {
	unlock := s.locks.acquire(userID)
	defer unlock()

	s.userHub.Detach(userID, sink)

	count, err := s.presences.DecrementConnection(ctx, userID)
	if err != nil {
		return apperrors.Store(err)
	}

	if count == 0 {
		if _, err := s.presences.Upsert(ctx, userID, false, nil); err != nil {
			return apperrors.Store(err)
		}
		s.notifyFriends(ctx, userID, false)
	}

	log.Debug().
		Str("userId", userID).
		Int("connectionCount", count).
		Msg("presence connection closed")

	return nil
}

// Get returns the presence row for userID, or nil if the user was never
// seen.
func (s *PresenceService) Get(ctx context.Context, userID string) (*model.Presence, error) {
	presence, err := s.presences.FindByUserID(ctx, userID)
	if err != nil {
		return nil, apperrors.Store(err)
	}
	return presence, nil
}

// SetStatusMessage updates the user's status line without touching the
// online state.
func (s *PresenceService) SetStatusMessage(ctx context.Context, userID string, message string) (*model.Presence, error) {
	unlock := s.locks.acquire(userID)
	defer unlock()

	current, err := s.presences.FindByUserID(ctx, userID)
	if err != nil {
		return nil, apperrors.Store(err)
	}
	isOnline := current != nil && current.IsOnline

	presence, err := s.presences.Upsert(ctx, userID, isOnline, &message)
	if err != nil {
		return nil, apperrors.Store(err)
	}
	return presence, nil
}

// CleanupStale forces offline every presence row untouched for longer
// than thresholdMinutes. Invoked by the background sweeper.
func (s *PresenceService) CleanupStale(ctx context.Context, thresholdMinutes int) (int64, error) {
	return s.presences.CleanupStale(ctx, thresholdMinutes)
}

func (s *PresenceService) notifyFriends(ctx context.Context, userID string, isOnline bool) {
	friendIDs, err := s.friends.FriendIDs(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("userId", userID).Msg("failed to load friend ids")
		return
	}

	eventType := hub.EventFriendOnline
	if !isOnline {
		eventType = hub.EventFriendOffline
	}
	event := hub.Event{
		Type:   eventType,
		UserID: userID,
		Payload: hub.MarshalPayload(FriendPresence{
			UserID:   userID,
			IsOnline: isOnline,
		}),
	}

	for _, friendID := range friendIDs {
		s.userHub.Broadcast(friendID, event)
	}
}

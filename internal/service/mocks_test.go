package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/junexi0828/focusmate-sub001/internal/database"
	"github.com/junexi0828/focusmate-sub001/internal/hub"
	"github.com/junexi0828/focusmate-sub001/internal/model"
	"github.com/junexi0828/focusmate-sub001/internal/repository"
)

// In-memory fakes standing in for the Postgres repositories.

type mockTxRunner struct{}

func (m *mockTxRunner) WithTx(ctx context.Context, fn database.TxFunc) error {
	return fn(nil)
}

type mockRoomRepo struct {
	mu    sync.Mutex
	rooms map[string]model.Room
}

func newMockRoomRepo() *mockRoomRepo {
	return &mockRoomRepo{rooms: make(map[string]model.Room)}
}

func (m *mockRoomRepo) FindByID(ctx context.Context, id string) (*model.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if room, ok := m.rooms[id]; ok {
		return &room, nil
	}
	return nil, nil
}

func (m *mockRoomRepo) FindByName(ctx context.Context, name string) (*model.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, room := range m.rooms {
		if room.Name == name {
			return &room, nil
		}
	}
	return nil, nil
}

func (m *mockRoomRepo) ListActive(ctx context.Context) ([]model.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Room
	for _, room := range m.rooms {
		if room.IsActive {
			out = append(out, room)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockRoomRepo) Create(ctx context.Context, params model.CreateRoomParams) (*model.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, room := range m.rooms {
		if room.Name == params.Name {
			return nil, &pq.Error{Code: "23505"}
		}
	}
	room := model.Room{
		ID:               params.ID,
		Name:             params.Name,
		WorkDurationSec:  params.WorkDurationSec,
		BreakDurationSec: params.BreakDurationSec,
		AutoStartBreak:   params.AutoStartBreak,
		RemoveOnLeave:    params.RemoveOnLeave,
		IsActive:         true,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
	m.rooms[room.ID] = room
	return &room, nil
}

func (m *mockRoomRepo) Update(ctx context.Context, id string, params model.UpdateRoomParams) (*model.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	room, ok := m.rooms[id]
	if !ok || !room.IsActive {
		return nil, nil
	}
	if params.Name != nil {
		for otherID, other := range m.rooms {
			if otherID != id && other.Name == *params.Name {
				return nil, &pq.Error{Code: "23505"}
			}
		}
		room.Name = *params.Name
	}
	if params.WorkDurationSec != nil {
		room.WorkDurationSec = *params.WorkDurationSec
	}
	if params.BreakDurationSec != nil {
		room.BreakDurationSec = *params.BreakDurationSec
	}
	if params.AutoStartBreak != nil {
		room.AutoStartBreak = *params.AutoStartBreak
	}
	if params.RemoveOnLeave != nil {
		room.RemoveOnLeave = *params.RemoveOnLeave
	}
	m.rooms[id] = room
	return &room, nil
}

func (m *mockRoomRepo) SetHost(ctx context.Context, id string, hostID *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if room, ok := m.rooms[id]; ok {
		room.HostID = hostID
		m.rooms[id] = room
	}
	return nil
}

func (m *mockRoomRepo) Deactivate(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if room, ok := m.rooms[id]; ok {
		room.IsActive = false
		m.rooms[id] = room
	}
	return nil
}

type mockTimerRepo struct {
	mu     sync.Mutex
	timers map[string]model.Timer // keyed by room id
}

func newMockTimerRepo() *mockTimerRepo {
	return &mockTimerRepo{timers: make(map[string]model.Timer)}
}

func (m *mockTimerRepo) FindByRoomID(ctx context.Context, roomID string) (*model.Timer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.timers[roomID]; ok {
		return &t, nil
	}
	return nil, nil
}

func (m *mockTimerRepo) Create(ctx context.Context, timer *model.Timer) (*model.Timer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.timers[timer.RoomID]; ok {
		return &existing, nil
	}
	m.timers[timer.RoomID] = *timer
	return timer, nil
}

func (m *mockTimerRepo) Update(ctx context.Context, timer *model.Timer) (*model.Timer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for roomID, existing := range m.timers {
		if existing.ID == timer.ID {
			m.timers[roomID] = *timer
			return timer, nil
		}
	}
	return nil, nil
}

func (m *mockTimerRepo) DeleteByRoomID(ctx context.Context, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.timers, roomID)
	return nil
}

type mockParticipantRepo struct {
	mu           sync.Mutex
	participants map[string]model.Participant
}

func newMockParticipantRepo() *mockParticipantRepo {
	return &mockParticipantRepo{participants: make(map[string]model.Participant)}
}

func (m *mockParticipantRepo) WithTx(tx *sqlx.Tx) repository.ParticipantRepository {
	return m
}

func (m *mockParticipantRepo) FindByID(ctx context.Context, id string) (*model.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.participants[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (m *mockParticipantRepo) ListByRoomID(ctx context.Context, roomID string, activeOnly bool) ([]model.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Participant
	for _, p := range m.participants {
		if p.RoomID != roomID {
			continue
		}
		if activeOnly && !p.IsConnected {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out, nil
}

func (m *mockParticipantRepo) CountConnected(ctx context.Context, roomID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, p := range m.participants {
		if p.RoomID == roomID && p.IsConnected {
			count++
		}
	}
	return count, nil
}

func (m *mockParticipantRepo) Create(ctx context.Context, params model.CreateParticipantParams) (*model.Participant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := model.Participant{
		ID:          params.ID,
		RoomID:      params.RoomID,
		UserID:      params.UserID,
		Username:    params.Username,
		IsConnected: true,
		IsHost:      params.IsHost,
		JoinedAt:    params.JoinedAt,
	}
	m.participants[p.ID] = p
	return &p, nil
}

func (m *mockParticipantRepo) MarkLeft(ctx context.Context, id string, leftAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.participants[id]; ok {
		p.IsConnected = false
		p.IsHost = false
		p.LeftAt = &leftAt
		m.participants[id] = p
	}
	return nil
}

func (m *mockParticipantRepo) SetHost(ctx context.Context, id string, isHost bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.participants[id]; ok {
		p.IsHost = isHost
		m.participants[id] = p
	}
	return nil
}

func (m *mockParticipantRepo) FindOldestConnected(ctx context.Context, roomID string) (*model.Participant, error) {
	list, _ := m.ListByRoomID(ctx, roomID, true)
	if len(list) == 0 {
		return nil, nil
	}
	return &list[0], nil
}

type mockPresenceRepo struct {
	mu        sync.Mutex
	presences map[string]model.Presence
}

func newMockPresenceRepo() *mockPresenceRepo {
	return &mockPresenceRepo{presences: make(map[string]model.Presence)}
}

func (m *mockPresenceRepo) FindByUserID(ctx context.Context, userID string) (*model.Presence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.presences[userID]; ok {
		return &p, nil
	}
	return nil, nil
}

func (m *mockPresenceRepo) Upsert(ctx context.Context, userID string, isOnline bool, statusMessage *string) (*model.Presence, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.presences[userID]
	p.UserID = userID
	p.IsOnline = isOnline
	p.LastSeenAt = time.Now()
	if statusMessage != nil {
		p.StatusMessage = statusMessage
	}
	p.UpdatedAt = time.Now()
	m.presences[userID] = p
	return &p, nil
}

func (m *mockPresenceRepo) IncrementConnection(ctx context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.presences[userID]
	p.UserID = userID
	p.ConnectionCount++
	p.UpdatedAt = time.Now()
	m.presences[userID] = p
	return p.ConnectionCount, nil
}

func (m *mockPresenceRepo) DecrementConnection(ctx context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.presences[userID]
	p.UserID = userID
	if p.ConnectionCount > 0 {
		p.ConnectionCount--
	}
	p.UpdatedAt = time.Now()
	m.presences[userID] = p
	return p.ConnectionCount, nil
}

func (m *mockPresenceRepo) CleanupStale(ctx context.Context, thresholdMinutes int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().Add(-time.Duration(thresholdMinutes) * time.Minute)
	var swept int64
	for userID, p := range m.presences {
		if (p.IsOnline || p.ConnectionCount > 0) && p.UpdatedAt.Before(cutoff) {
			p.IsOnline = false
			p.ConnectionCount = 0
			p.UpdatedAt = time.Now()
			m.presences[userID] = p
			swept++
		}
	}
	return swept, nil
}

type mockFriendRepo struct {
	friends map[string][]string
}

func (m *mockFriendRepo) FriendIDs(ctx context.Context, userID string) ([]string, error) {
	return m.friends[userID], nil
}

// recordingSink collects delivered events for assertions.
type recordingSink struct {
	mu     sync.Mutex
	events []hub.Event
}

func (s *recordingSink) Deliver(event hub.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) received() []hub.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]hub.Event, len(s.events))
	copy(out, s.events)
	return out
}

func (s *recordingSink) types() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	for i, e := range s.events {
		out[i] = e.Type
	}
	return out
}

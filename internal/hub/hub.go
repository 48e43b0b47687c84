// Package hub implements in-process fan-out of room and presence events.
// A Hub maps a key (room id or user id, one Hub instance per namespace)
// to the set of sinks currently subscribed to that key.
package hub

import (
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"
)

// Event types broadcast on the room namespace.
const (
	EventTimerState        = "timer_state"
	EventParticipantJoined = "participant_joined"
	EventParticipantLeft   = "participant_left"
	EventPhaseCompleted    = "phase_completed"
	EventRoomUpdated       = "room_updated"
)

// Event types broadcast on the user namespace.
const (
	EventFriendOnline  = "friend_online"
	EventFriendOffline = "friend_offline"
)

// Event is a single fan-out message. Payload is pre-encoded so every
// sink serializes the identical bytes.
type Event struct {
	Type    string          `json:"type"`
	RoomID  string          `json:"room_id,omitempty"`
	UserID  string          `json:"user_id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Sink is an outbound channel accepting one event at a time. Deliver
// must not block: implementations enqueue onto a buffer and report an
// error when the buffer is full or the channel is gone. A failed sink
// is detached and never retried.
type Sink interface {
	Deliver(event Event) error
}

// Hub is a process-local registry key -> set<Sink>. Delivery is
// at-most-once; there is no durable queue. Ordering per key follows the
// order Broadcast was called.
type Hub struct {
	mu    sync.RWMutex
	sinks map[string]map[Sink]struct{}
}

func New() *Hub {
	return &Hub{sinks: make(map[string]map[Sink]struct{})}
}

// Attach subscribes sink to key.
func (h *Hub) Attach(key string, sink Sink) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.sinks[key] == nil {
		h.sinks[key] = make(map[Sink]struct{})
	}
	h.sinks[key][sink] = struct{}{}
}

// Detach removes sink from key. The key's entry is dropped once its
// sink set is empty.
func (h *Hub) Detach(key string, sink Sink) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sinks, ok := h.sinks[key]; ok {
		delete(sinks, sink)
		if len(sinks) == 0 {
			delete(h.sinks, key)
		}
	}
}

// Broadcast delivers event to every sink attached to key. Delivery
// iterates a snapshot of the set, so a Deliver call never runs under
// the hub lock. A sink that fails is detached and the loop continues;
// one broken subscriber never affects the others.
func (h *Hub) Broadcast(key string, event Event) {
	h.mu.RLock()
	snapshot := make([]Sink, 0, len(h.sinks[key]))
	for sink := range h.sinks[key] {
		snapshot = append(snapshot, sink)
	}
	h.mu.RUnlock()

	for _, sink := range snapshot {
		if err := sink.Deliver(event); err != nil {
			log.Warn().
				Err(err).
				Str("key", key).
				Str("eventType", event.Type).
				Msg("sink delivery failed, detaching")
			h.Detach(key, sink)
		}
	}
}

// SinkCount returns the number of sinks attached to key.
func (h *Hub) SinkCount(key string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sinks[key])
}

// TotalSinks returns the number of sinks across all keys.
func (h *Hub) TotalSinks() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, sinks := range h.sinks {
		total += len(sinks)
	}
	return total
}

// MarshalPayload encodes v for use as an Event payload. Encoding
// happens once, before fan-out, never per sink.
func MarshalPayload(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event payload")
		return json.RawMessage("{}")
	}
	return data
}

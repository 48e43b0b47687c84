package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/junexi0828/focusmate-sub001/internal/httputil"
	"github.com/junexi0828/focusmate-sub001/internal/hub"
	"github.com/junexi0828/focusmate-sub001/internal/middleware"
	"github.com/junexi0828/focusmate-sub001/internal/service"
)

// Handler upgrades connections and registers them with the room or
// user hub. Room-scoped sockets observe room events and may signal
// join/leave; user-scoped sockets observe presence events of friends.
type Handler struct {
	roomService     *service.RoomService
	presenceService *service.PresenceService
	roomHub         *hub.Hub
	auth            *middleware.AuthMiddleware
	writeWait       time.Duration
	upgrader        websocket.Upgrader
}

func NewHandler(
	roomService *service.RoomService,
	presenceService *service.PresenceService,
	roomHub *hub.Hub,
	auth *middleware.AuthMiddleware,
	writeWait time.Duration,
) *Handler {
	return &Handler{
		roomService:     roomService,
		presenceService: presenceService,
		roomHub:         roomHub,
		auth:            auth,
		writeWait:       writeWait,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// cross-origin policy is enforced at the edge
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/rooms/{roomID}", h.Room)
	r.Get("/presence", h.Presence)

	return r
}

// GET /ws/rooms/{roomID}?token=...
func (h *Handler) Room(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	user, err := h.auth.Authenticate(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		httputil.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid token"})
		return
	}

	// reject before upgrading so the client sees a clean 404
	if _, err := h.roomService.GetRoom(r.Context(), roomID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}

	client := NewClient(conn, h.writeWait)
	go client.WritePump()

	// reconciliation snapshot goes out before the sink joins the hub,
	// so broadcasts can never land ahead of it and rewind the viewer
	if event, err := h.roomService.TimerStateEvent(r.Context(), roomID); err == nil {
		if derr := client.Deliver(*event); derr != nil {
			log.Debug().Err(derr).Str("roomId", roomID).Msg("initial snapshot delivery failed")
		}
	}

	h.roomHub.Attach(roomID, client)

	log.Info().
		Str("roomId", roomID).
		Str("userId", user.ID).
		Msg("room socket connected")

	// participant owned by this connection, if the client joined
	var mu sync.Mutex
	var participantID string

	client.ReadPump(func(frame ControlFrame) {
		switch frame.Type {
		case "join":
			username := frame.Username
			if username == "" {
				username = user.Username
			}
			participant, err := h.roomService.Join(r.Context(), roomID, service.JoinRoomInput{
				Username: username,
				UserID:   &user.ID,
			})
			if err != nil {
				log.Warn().Err(err).Str("roomId", roomID).Msg("ws join rejected")
				return
			}
			mu.Lock()
			participantID = participant.ID
			mu.Unlock()

		case "leave":
			mu.Lock()
			pid := participantID
			participantID = ""
			mu.Unlock()
			if pid != "" {
				if err := h.roomService.Leave(r.Context(), pid); err != nil {
					log.Warn().Err(err).Str("participantId", pid).Msg("ws leave failed")
				}
			}

		default:
			log.Debug().Str("type", frame.Type).Msg("ignoring unknown control frame")
		}
	})

	// connection is gone: detach and release the participant
	h.roomHub.Detach(roomID, client)
	client.Close()

	mu.Lock()
	pid := participantID
	mu.Unlock()
	if pid != "" {
		if err := h.roomService.Leave(r.Context(), pid); err != nil {
			log.Warn().Err(err).Str("participantId", pid).Msg("leave on disconnect failed")
		}
	}

	log.Info().
		Str("roomId", roomID).
		Str("userId", user.ID).
		Msg("room socket disconnected")
}

// GET /ws/presence?token=...
func (h *Handler) Presence(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.Authenticate(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		httputil.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid token"})
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}

	client := NewClient(conn, h.writeWait)
	go client.WritePump()

	if err := h.presenceService.Connect(r.Context(), user.ID, client); err != nil {
		log.Error().Err(err).Str("userId", user.ID).Msg("presence connect failed")
		client.Close()
		return
	}

	log.Info().Str("userId", user.ID).Msg("presence socket connected")

	client.ReadPump(func(frame ControlFrame) {
		// presence sockets are read-only
	})

	if err := h.presenceService.Disconnect(r.Context(), user.ID, client); err != nil {
		log.Error().Err(err).Str("userId", user.ID).Msg("presence disconnect failed")
	}
	client.Close()

	log.Info().Str("userId", user.ID).Msg("presence socket disconnected")
}

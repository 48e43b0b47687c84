package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/junexi0828/focusmate-sub001/internal/errors"
	"github.com/junexi0828/focusmate-sub001/internal/middleware"
	"github.com/junexi0828/focusmate-sub001/internal/service"
)

type ParticipantHandler struct {
	roomService *service.RoomService
}

func NewParticipantHandler(roomService *service.RoomService) *ParticipantHandler {
	return &ParticipantHandler{roomService: roomService}
}

func (h *ParticipantHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/{roomID}/join", h.Join)
	r.Get("/{roomID}", h.List)
	r.Delete("/{participantID}", h.Leave)

	return r
}

// POST /participants/{roomID}/join
func (h *ParticipantHandler) Join(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	var input service.JoinRoomInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, apperrors.ValidationError("invalid request body"))
		return
	}

	// an authenticated user joins as themselves unless stated otherwise
	if user := middleware.GetUser(r.Context()); user != nil && input.UserID == nil {
		input.UserID = &user.ID
		if input.Username == "" {
			input.Username = user.Username
		}
	}

	participant, err := h.roomService.Join(r.Context(), roomID, input)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, participant)
}

// GET /participants/{roomID}
func (h *ParticipantHandler) List(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	activeOnly := r.URL.Query().Get("include_left") != "true"
	participants, err := h.roomService.ListParticipants(r.Context(), roomID, activeOnly)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"participants": participants,
		"total":        len(participants),
	})
}

// DELETE /participants/{participantID}
func (h *ParticipantHandler) Leave(w http.ResponseWriter, r *http.Request) {
	participantID := chi.URLParam(r, "participantID")

	if err := h.roomService.Leave(r.Context(), participantID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "left"})
}

package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/junexi0828/focusmate-sub001/internal/errors"
	"github.com/junexi0828/focusmate-sub001/internal/service"
)

type RoomHandler struct {
	roomService *service.RoomService
}

func NewRoomHandler(roomService *service.RoomService) *RoomHandler {
	return &RoomHandler{roomService: roomService}
}

func (h *RoomHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{roomID}", h.Get)
	r.Put("/{roomID}", h.Update)
	r.Delete("/{roomID}", h.Delete)

	return r
}

// POST /rooms
func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input service.CreateRoomInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, apperrors.ValidationError("invalid request body"))
		return
	}

	room, err := h.roomService.CreateRoom(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, room)
}

// GET /rooms
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.roomService.ListRooms(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"rooms": rooms})
}

// GET /rooms/{roomID}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	snapshot, err := h.roomService.GetRoom(r.Context(), roomID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}

// PUT /rooms/{roomID}
func (h *RoomHandler) Update(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	var input service.UpdateRoomInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, apperrors.ValidationError("invalid request body"))
		return
	}

	room, err := h.roomService.UpdateRoom(r.Context(), roomID, input)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, room)
}

// DELETE /rooms/{roomID}
func (h *RoomHandler) Delete(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")

	if err := h.roomService.DeleteRoom(r.Context(), roomID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/junexi0828/focusmate-sub001/internal/service"
)

type TimerHandler struct {
	roomService *service.RoomService
}

func NewTimerHandler(roomService *service.RoomService) *TimerHandler {
	return &TimerHandler{roomService: roomService}
}

func (h *TimerHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/{roomID}", h.Get)
	r.Post("/{roomID}/start", h.Start)
	r.Post("/{roomID}/pause", h.Pause)
	r.Post("/{roomID}/resume", h.Resume)
	r.Post("/{roomID}/reset", h.Reset)
	r.Post("/{roomID}/complete", h.Complete)

	return r
}

// GET /timer/{roomID}
func (h *TimerHandler) Get(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.roomService.GetOrCreateTimer(r.Context(), chi.URLParam(r, "roomID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// POST /timer/{roomID}/start
func (h *TimerHandler) Start(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.roomService.StartTimer(r.Context(), chi.URLParam(r, "roomID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// POST /timer/{roomID}/pause
func (h *TimerHandler) Pause(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.roomService.PauseTimer(r.Context(), chi.URLParam(r, "roomID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// POST /timer/{roomID}/resume
func (h *TimerHandler) Resume(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.roomService.ResumeTimer(r.Context(), chi.URLParam(r, "roomID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// POST /timer/{roomID}/reset
func (h *TimerHandler) Reset(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.roomService.ResetTimer(r.Context(), chi.URLParam(r, "roomID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// POST /timer/{roomID}/complete
func (h *TimerHandler) Complete(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.roomService.CompletePhase(r.Context(), chi.URLParam(r, "roomID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

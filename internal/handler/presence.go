package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/junexi0828/focusmate-sub001/internal/errors"
	"github.com/junexi0828/focusmate-sub001/internal/middleware"
	"github.com/junexi0828/focusmate-sub001/internal/model"
	"github.com/junexi0828/focusmate-sub001/internal/service"
)

type PresenceHandler struct {
	presenceService *service.PresenceService
}

func NewPresenceHandler(presenceService *service.PresenceService) *PresenceHandler {
	return &PresenceHandler{presenceService: presenceService}
}

func (h *PresenceHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/{userID}", h.Get)
	r.Put("/status", h.SetStatus)

	return r
}

// GET /presence/{userID}
func (h *PresenceHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	presence, err := h.presenceService.Get(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	// a user with no presence row has simply never connected
	if presence == nil {
		presence = &model.Presence{UserID: userID, IsOnline: false}
	}

	writeJSON(w, http.StatusOK, presence)
}

// PUT /presence/status
func (h *PresenceHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		writeError(w, apperrors.Unauthorized("authentication required"))
		return
	}

	var input struct {
		StatusMessage string `json:"status_message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, apperrors.ValidationError("invalid request body"))
		return
	}

	presence, err := h.presenceService.SetStatusMessage(r.Context(), user.ID, input.StatusMessage)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, presence)
}

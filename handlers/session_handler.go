package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/upb/clearpath-assistant/models"
	"github.com/upb/clearpath-assistant/services"
	"github.com/upb/clearpath-assistant/services/session"
	"github.com/upb/clearpath-assistant/utils"
	"go.uber.org/zap"
)

// SessionResponse is the history of one conversation session
type SessionResponse struct {
	ID    string                    `json:"id"`
	Turns []models.ConversationTurn `json:"turns"`
}

// SessionHandler exposes conversation history
type SessionHandler struct {
	store  session.Store
	logger *zap.Logger
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(store session.Store, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		store:  store,
		logger: logger,
	}
}

// HandleGet handles GET /api/v1/sessions/{id}
func (h *SessionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.store.Exists(r.Context(), id) {
		HandleServiceError(w, services.ErrSessionNotFound, h.logger)
		return
	}

	_ = utils.WriteOK(w, SessionResponse{
		ID:    id,
		Turns: h.store.History(r.Context(), id),
	})
}

// HandleDelete handles DELETE /api/v1/sessions/{id}. Clearing an unknown
// session succeeds.
func (h *SessionHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.store.Clear(r.Context(), id)

	h.logger.Debug("session cleared", zap.String("session_id", id))
	utils.WriteNoContent(w)
}

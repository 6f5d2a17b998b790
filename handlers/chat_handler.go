package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/upb/clearpath-assistant/middleware"
	"github.com/upb/clearpath-assistant/models"
	"github.com/upb/clearpath-assistant/services"
	"github.com/upb/clearpath-assistant/utils"
	"go.uber.org/zap"
)

// legacyErrorText is returned in the response field when the legacy chat route fails
const legacyErrorText = "Server error. Please try again."

// ChatRequest is the JSON body of POST /api/v1/chat
type ChatRequest struct {
	Query     string `json:"query" validate:"required"`
	SessionID string `json:"session_id,omitempty" validate:"omitempty,max=128,printascii"`
}

// ChatService defines the pipeline operations the chat routes need
type ChatService interface {
	// Ask answers a query within a conversation session
	Ask(ctx context.Context, query, sessionID string) (*models.AnswerResult, error)

	// Search returns shaped passages for a query without a completion
	Search(ctx context.Context, query string) ([]models.Passage, error)
}

// ChatHandler handles question answering and search requests
type ChatHandler struct {
	service ChatService
	logger  *zap.Logger
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(service ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		service: service,
		logger:  logger,
	}
}

// HandleChat handles POST /api/v1/chat
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		h.logger.Warn("request validation failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleValidationError(w, err, h.logger)
		return
	}

	result, err := h.service.Ask(ctx, req.Query, req.SessionID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if err := utils.WriteOK(w, result); err != nil {
		h.logger.Error("failed to write chat response", zap.Error(err))
	}
}

// HandleLegacyChat handles GET /chat?q=&session=. The answer is written
// unwrapped so existing frontends keep working.
func (h *ChatHandler) HandleLegacyChat(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	sessionID := r.URL.Query().Get("session")

	if query == "" {
		_ = utils.WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing query"})
		return
	}

	result, err := h.service.Ask(r.Context(), query, sessionID)
	if err != nil {
		status := StatusForError(err)
		h.logger.Error("chat request failed",
			zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
			zap.Int("status", status),
			zap.Error(err))
		if status == http.StatusBadRequest {
			_ = utils.WriteJSON(w, status, map[string]string{"error": errorMessage(err)})
			return
		}
		_ = utils.WriteJSON(w, status, map[string]interface{}{
			"response": legacyErrorText,
			"flagged":  true,
		})
		return
	}

	if err := utils.WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("failed to write chat response", zap.Error(err))
	}
}

// HandleSearch handles GET /api/v1/search?q=
func (h *ChatHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	passages, err := h.search(r)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, passages)
}

// HandleLegacySearch handles GET /search?q= and writes the bare passage list
func (h *ChatHandler) HandleLegacySearch(w http.ResponseWriter, r *http.Request) {
	passages, err := h.search(r)
	if err != nil {
		h.logger.Error("search failed", zap.Error(err))
		_ = utils.WriteJSON(w, StatusForError(err), map[string]string{"error": "Search failed"})
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, passages)
}

func (h *ChatHandler) search(r *http.Request) ([]models.Passage, error) {
	query := r.URL.Query().Get("q")
	if query == "" {
		return nil, services.ErrMissingQuery
	}
	return h.service.Search(r.Context(), query)
}

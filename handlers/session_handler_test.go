package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/upb/clearpath-assistant/models"
	"github.com/upb/clearpath-assistant/services/session"
)

func newSessionRouter(store session.Store) http.Handler {
	h := NewSessionHandler(store, zap.NewNop())
	r := chi.NewRouter()
	r.Get("/api/v1/sessions/{id}", h.HandleGet)
	r.Delete("/api/v1/sessions/{id}", h.HandleDelete)
	return r
}

func TestSessionHandler_Get(t *testing.T) {
	store := session.NewMemoryStore(5)
	store.Append(context.Background(), "s1", models.ConversationTurn{User: "hi", Bot: "hello"})
	router := newSessionRouter(store)

	t.Run("existing session", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/sessions/s1", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var response struct {
			Data SessionResponse `json:"data"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, "s1", response.Data.ID)
		assert.Equal(t, []models.ConversationTurn{{User: "hi", Bot: "hello"}}, response.Data.Turns)
	})

	t.Run("unknown session", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/sessions/nope", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestSessionHandler_Delete(t *testing.T) {
	store := session.NewMemoryStore(5)
	store.Append(context.Background(), "s1", models.ConversationTurn{User: "hi", Bot: "hello"})
	router := newSessionRouter(store)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/sessions/s1", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.False(t, store.Exists(context.Background(), "s1"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/sessions/s1", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

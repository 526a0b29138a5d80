package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"liveshare/internal/session"
)

// StatusHandler exposes a liveness probe with the current session
// count.
type StatusHandler struct {
	store *session.Store
}

func NewStatusHandler(store *session.Store) *StatusHandler {
	return &StatusHandler{store: store}
}

func (h *StatusHandler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", h.health)
}

func (h *StatusHandler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":   "ok",
		"sessions": h.store.Len(),
	})
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

package handlers

import (
	"math"
	"net/http"

	"turing-backend/internal/models"
	"turing-backend/internal/services"
)

// SessionHandler exposes the session aggregator. The client holds its
// session ID and sends it in X-Session-ID; losing it just starts a fresh
// session.
type SessionHandler struct {
	sessions *services.SessionService
}

func NewSessionHandler(sessions *services.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	stats := h.sessions.Get(r.Context(), r.Header.Get("X-Session-ID"))
	writeJSON(w, http.StatusOK, sessionView(stats))
}

func (h *SessionHandler) Clear(w http.ResponseWriter, r *http.Request) {
	stats := h.sessions.Clear(r.Context(), r.Header.Get("X-Session-ID"))
	writeJSON(w, http.StatusOK, sessionView(stats))
}

func sessionView(stats models.SessionStats) map[string]interface{} {
	return map[string]interface{}{
		"stats":            stats,
		"overall_accuracy": math.Round(stats.OverallAccuracy()*100) / 100,
		"duration_seconds": int(stats.Duration().Seconds()),
	}
}

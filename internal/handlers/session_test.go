package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"turing-backend/internal/models"
	"turing-backend/internal/services"
)

func sessionTestRouter(sessions *services.SessionService) http.Handler {
	h := NewSessionHandler(sessions)
	r := chi.NewRouter()
	r.Get("/api/v1/session", h.Get)
	r.Post("/api/v1/session/clear", h.Clear)
	return r
}

func TestSessionGet_UnknownIDReturnsFreshStats(t *testing.T) {
	sessions := services.NewSessionService(&fakeSessionStore{sessions: map[string]models.SessionStats{}})
	router := sessionTestRouter(sessions)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/session", nil)
	req.Header.Set("X-Session-ID", "sess-unknown")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Stats           models.SessionStats `json:"stats"`
		OverallAccuracy float64             `json:"overall_accuracy"`
		DurationSeconds int                 `json:"duration_seconds"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Stats.SessionID != "sess-unknown" {
		t.Errorf("session ID = %q, want sess-unknown", body.Stats.SessionID)
	}
	if body.Stats.RoundsPlayed != 0 || body.OverallAccuracy != 0 {
		t.Errorf("expected zeroed stats, got %+v", body)
	}
}

func TestSessionClear_IssuesFreshID(t *testing.T) {
	store := &fakeSessionStore{sessions: map[string]models.SessionStats{}}
	sessions := services.NewSessionService(store)
	router := sessionTestRouter(sessions)

	sessions.AddRound(context.Background(), "sess-1", models.RoundSummary{
		RoundID:      uuid.New(),
		Category:     "Poetry",
		NumQuestions: 3,
		Score:        2,
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/session/clear", nil)
	req.Header.Set("X-Session-ID", "sess-1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Stats models.SessionStats `json:"stats"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Stats.SessionID == "" || body.Stats.SessionID == "sess-1" {
		t.Errorf("expected a fresh session ID, got %q", body.Stats.SessionID)
	}
	if body.Stats.RoundsPlayed != 0 {
		t.Errorf("rounds played = %d, want 0", body.Stats.RoundsPlayed)
	}

	// The old session must be gone from the store too.
	if _, ok, _ := store.Load(context.Background(), "sess-1"); ok {
		t.Error("cleared session still present in store")
	}
}

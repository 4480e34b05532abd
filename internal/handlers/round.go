package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"turing-backend/internal/middleware"
	"turing-backend/internal/models"
	"turing-backend/internal/services"
	"turing-backend/internal/worker"
)

// RetryQueue parks submissions that failed against the round log. Nil
// disables queueing; the caller just gets the error.
type RetryQueue interface {
	Enqueue(ctx context.Context, job worker.RetryJob) error
}

// RoundHandler owns POST /submit-data: the idempotent round-logging
// endpoint. The round itself runs elsewhere (browser or game socket);
// this path only persists finished summaries.
type RoundHandler struct {
	submit   *services.SubmitService
	sessions *services.SessionService
	retry    RetryQueue
}

func NewRoundHandler(submit *services.SubmitService, sessions *services.SessionService, retry RetryQueue) *RoundHandler {
	return &RoundHandler{submit: submit, sessions: sessions, retry: retry}
}

func (h *RoundHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitRoundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	// The verified token is the source of truth; the inlined user object
	// only fills in when the route runs without the auth middleware.
	identity := middleware.GetIdentity(r.Context())
	if identity.Email == "" && req.User != nil {
		identity = *req.User
	}

	outcome, err := h.submit.Submit(r.Context(), identity, req)
	if err != nil {
		// Store outages are recoverable: park the submission for the
		// retry workers, then report the failure so the client can
		// also retry on its own. Both paths dedup on the round ID.
		var unavailable *services.UnavailableError
		if errors.As(err, &unavailable) && h.retry != nil {
			if qerr := h.retry.Enqueue(r.Context(), worker.RetryJob{Identity: identity, Request: req}); qerr != nil {
				log.Printf("failed to queue round %s for retry: %v", req.RoundID, qerr)
			}
		}
		handleServiceError(w, r, err)
		return
	}

	// Fold the round into the caller's session once it is actually stored.
	if outcome == services.OutcomeSuccess {
		if sessionID := r.Header.Get("X-Session-ID"); sessionID != "" {
			if summary, ok := summaryFromRequest(req); ok {
				h.sessions.AddRound(r.Context(), sessionID, summary)
			}
		}
	}

	switch outcome {
	case services.OutcomeDuplicate:
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "duplicate",
			"message": "Round already logged",
		})
	default:
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "success",
			"message": "Round logged successfully",
		})
	}
}

func summaryFromRequest(req models.SubmitRoundRequest) (models.RoundSummary, bool) {
	roundID, err := uuid.Parse(strings.TrimSpace(req.RoundID))
	if err != nil {
		return models.RoundSummary{}, false
	}
	return models.RoundSummary{
		RoundID:        roundID,
		Category:       req.Category,
		NumQuestions:   req.NumQuestions,
		Score:          req.Score,
		AccuracyPct:    req.AccuracyPct,
		AvgTimeSeconds: req.AvgTimeSeconds,
	}, true
}

// Shared helpers

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

func errorRespWithFields(code, message string, fields map[string]string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			Fields:    fields,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch e := err.(type) {
	case *services.ValidationError:
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", e.Fields, r))
	case *services.UnauthorizedError:
		writeJSON(w, http.StatusUnauthorized, errorResp("UNAUTHORIZED", e.Message, r))
	case *services.NotFoundError:
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", e.Message, r))
	case *services.UnavailableError:
		writeJSON(w, http.StatusInternalServerError, errorResp("STORE_UNAVAILABLE", e.Message, r))
	default:
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
	}
}

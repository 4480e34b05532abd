package services

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"turing-backend/internal/models"
)

// SessionStore persists session stats between requests. The Redis
// implementation lives in the repository package; tests use miniredis.
type SessionStore interface {
	Load(ctx context.Context, sessionID string) (models.SessionStats, bool, error)
	Save(ctx context.Context, stats models.SessionStats) error
	Delete(ctx context.Context, sessionID string) error
}

// SessionService accumulates per-session statistics across rounds. The
// store is best-effort: if it is unavailable the totals degrade to
// this-request-only rather than failing the round.
type SessionService struct {
	store SessionStore
}

func NewSessionService(store SessionStore) *SessionService {
	return &SessionService{store: store}
}

func freshStats() models.SessionStats {
	return models.SessionStats{
		SessionID: uuid.NewString(),
		StartTime: time.Now(),
		Rounds:    []models.SessionRound{},
	}
}

// Get returns the stats for a session, or a fresh zeroed session when the
// ID is unknown or empty.
func (s *SessionService) Get(ctx context.Context, sessionID string) models.SessionStats {
	if sessionID == "" {
		return freshStats()
	}

	stats, ok, err := s.store.Load(ctx, sessionID)
	if err != nil {
		log.Printf("session store unavailable, serving fresh stats: %v", err)
		return freshStats()
	}
	if !ok {
		stats = freshStats()
		stats.SessionID = sessionID
	}
	return stats
}

// AddRound folds one finished round into the running totals. Rounds are
// recorded in the order they finished, regardless of when their log
// submissions completed.
func (s *SessionService) AddRound(ctx context.Context, sessionID string, summary models.RoundSummary) models.SessionStats {
	stats := s.Get(ctx, sessionID)

	stats.RoundsPlayed++
	stats.TotalQuestions += summary.NumQuestions
	stats.TotalCorrect += summary.Score
	stats.Rounds = append(stats.Rounds, models.SessionRound{
		RoundID:        summary.RoundID.String(),
		Category:       summary.Category,
		Score:          summary.Score,
		NumQuestions:   summary.NumQuestions,
		AccuracyPct:    summary.AccuracyPct,
		AvgTimeSeconds: summary.AvgTimeSeconds,
		FinishedAt:     time.Now(),
	})

	if err := s.store.Save(ctx, stats); err != nil {
		log.Printf("failed to persist session %s: %v", stats.SessionID, err)
	}
	return stats
}

// Clear discards the session and starts a new one with a fresh ID.
func (s *SessionService) Clear(ctx context.Context, sessionID string) models.SessionStats {
	if sessionID != "" {
		if err := s.store.Delete(ctx, sessionID); err != nil {
			log.Printf("failed to delete session %s: %v", sessionID, err)
		}
	}

	stats := freshStats()
	if err := s.store.Save(ctx, stats); err != nil {
		log.Printf("failed to persist session %s: %v", stats.SessionID, err)
	}
	return stats
}

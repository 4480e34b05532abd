package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"turing-backend/internal/models"
)

// Sessions outlive a page reload but not a day.
const sessionTTL = 24 * time.Hour

// SessionRepo persists session stats in Redis, one JSON blob per session.
type SessionRepo struct {
	redis *redis.Client
}

func NewSessionRepo(redisClient *redis.Client) *SessionRepo {
	return &SessionRepo{redis: redisClient}
}

func sessionKey(sessionID string) string {
	return "session:" + sessionID
}

func (r *SessionRepo) Load(ctx context.Context, sessionID string) (models.SessionStats, bool, error) {
	data, err := r.redis.Get(ctx, sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.SessionStats{}, false, nil
	}
	if err != nil {
		return models.SessionStats{}, false, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}

	var stats models.SessionStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return models.SessionStats{}, false, fmt.Errorf("failed to decode session %s: %w", sessionID, err)
	}
	return stats, true, nil
}

func (r *SessionRepo) Save(ctx context.Context, stats models.SessionStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", stats.SessionID, err)
	}

	if err := r.redis.Set(ctx, sessionKey(stats.SessionID), data, sessionTTL).Err(); err != nil {
		return fmt.Errorf("failed to save session %s: %w", stats.SessionID, err)
	}
	return nil
}

func (r *SessionRepo) Delete(ctx context.Context, sessionID string) error {
	if err := r.redis.Del(ctx, sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	return nil
}

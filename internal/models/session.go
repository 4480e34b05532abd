package models

import "time"

// SessionRound is the compact per-round record kept in session stats.
type SessionRound struct {
	RoundID        string    `json:"round_id"`
	Category       string    `json:"category"`
	Score          int       `json:"score"`
	NumQuestions   int       `json:"num_questions"`
	AccuracyPct    float64   `json:"accuracy_pct"`
	AvgTimeSeconds float64   `json:"avg_time_seconds"`
	FinishedAt     time.Time `json:"finished_at"`
}

// SessionStats accumulates across rounds in one play session. Not a
// server-of-record: losing it costs nothing but the on-screen totals.
type SessionStats struct {
	SessionID      string         `json:"session_id"`
	RoundsPlayed   int            `json:"rounds_played"`
	TotalQuestions int            `json:"total_questions"`
	TotalCorrect   int            `json:"total_correct"`
	StartTime      time.Time      `json:"start_time"`
	Rounds         []SessionRound `json:"rounds"`
}

// OverallAccuracy is the cumulative percentage across all rounds played.
func (s SessionStats) OverallAccuracy() float64 {
	if s.TotalQuestions == 0 {
		return 0
	}
	return 100 * float64(s.TotalCorrect) / float64(s.TotalQuestions)
}

// Duration is the elapsed session time.
func (s SessionStats) Duration() time.Duration {
	return time.Since(s.StartTime)
}

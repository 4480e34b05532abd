package models

import (
	"math"

	"github.com/google/uuid"
)

// Mode selects how a question is presented.
type Mode string

const (
	// ModeSwipe shows a single response; the player labels it human or AI.
	ModeSwipe Mode = "swipe"
	// ModeCompare shows both responses side by side; the player picks the
	// one they believe is human.
	ModeCompare Mode = "compare"
)

func (m Mode) Valid() bool {
	return m == ModeSwipe || m == ModeCompare
}

// Choice is the label a player assigns to a shown response.
type Choice string

const (
	ChoiceHuman Choice = "Human"
	ChoiceAI    Choice = "AI"
	// ChoiceNone is recorded when the question timer expires with no input.
	ChoiceNone Choice = "None"
)

// RoundConfig is fixed when a round starts.
type RoundConfig struct {
	Condition     string `json:"condition"` // empty means all topics
	QuestionCount int    `json:"question_count"`
	Mode          Mode   `json:"mode"`
	TimeLimitSecs int    `json:"time_limit_seconds"` // 0 disables the countdown
}

// QuestionResult is one answered (or timed-out) question, immutable once
// appended to a round's history.
type QuestionResult struct {
	QuestionNumber   int      `json:"question_number"`
	Prompt           string   `json:"prompt"`
	UserChoice       Choice   `json:"user_choice"`
	Correct          bool     `json:"correct"`
	CorrectAnswer    Choice   `json:"correct_answer"`
	HumanResponse    string   `json:"human_response"`
	AIResponse       string   `json:"ai_response"`
	TimeTakenSeconds *float64 `json:"time_taken_seconds"`
	TimedOut         bool     `json:"timed_out"`
}

// RoundSummary is the canonical payload sent to the round log.
type RoundSummary struct {
	RoundID        uuid.UUID `json:"round_id"`
	Category       string    `json:"category"`
	NumQuestions   int       `json:"num_questions"`
	Score          int       `json:"score"`
	HumanCorrect   int       `json:"human_correct"`
	AccuracyPct    float64   `json:"accuracy_pct"`
	AvgTimeSeconds float64   `json:"avg_time_seconds"`
}

// AccuracyPct computes the rounded percentage of correct answers.
// Defined as 0 when numQuestions is 0.
func AccuracyPct(score, numQuestions int) float64 {
	if numQuestions == 0 {
		return 0
	}
	return math.Round(100 * float64(score) / float64(numQuestions))
}

// Identity is the authenticated player attached by the server to every
// logged round. Given and family names are optional claims.
type Identity struct {
	Email      string `json:"email"`
	Name       string `json:"name,omitempty"`
	GivenName  string `json:"given_name,omitempty"`
	FamilyName string `json:"family_name,omitempty"`
}

// SubmitRoundRequest is the body of POST /api/v1/submit-data.
type SubmitRoundRequest struct {
	RoundID        string    `json:"roundId"`
	Category       string    `json:"category"`
	NumQuestions   int       `json:"numQuestions"`
	Score          int       `json:"score"`
	AccuracyPct    float64   `json:"accuracyPct"`
	AvgTimeSeconds float64   `json:"avgTimeSeconds"`
	User           *Identity `json:"user,omitempty"`
}

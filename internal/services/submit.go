package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"turing-backend/internal/models"
	"turing-backend/internal/sheets"
)

// RoundLog is the contract the submitter needs from the round store: a
// membership test over the round-id column and a blind append. The two
// calls have no transactional composition; see Submit for the consequence.
type RoundLog interface {
	Exists(ctx context.Context, roundID string) (bool, error)
	Append(ctx context.Context, row sheets.Row) error
}

// Outcome of a round submission.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	// OutcomeDuplicate means a row with this round ID is already logged.
	// Not an error: it is how retries and double-invocations stay safe.
	OutcomeDuplicate Outcome = "duplicate"
)

// SubmitService packages finished rounds and writes them to the round log
// at most once per round ID.
type SubmitService struct {
	log        RoundLog
	timeout    time.Duration
	appVersion string
}

func NewSubmitService(log RoundLog, timeout time.Duration, appVersion string) *SubmitService {
	return &SubmitService{log: log, timeout: timeout, appVersion: appVersion}
}

// Submit validates the payload, checks the log for the round ID and appends
// one row. Re-invoking with the same round ID is safe: the second call
// reports OutcomeDuplicate without writing.
//
// The existence check and the append are separate network calls, so two
// concurrent submissions for one round ID can both pass the check and
// produce two rows. Round IDs are minted once per round start and the UI
// submits once per finished round, so the window only opens under
// multi-tab or adversarial use; it is accepted rather than eliminated.
func (s *SubmitService) Submit(ctx context.Context, identity models.Identity, req models.SubmitRoundRequest) (Outcome, error) {
	if strings.TrimSpace(identity.Email) == "" {
		return "", &UnauthorizedError{Message: "User not authenticated"}
	}

	roundID, fieldErrors := validateSubmit(req)
	if len(fieldErrors) > 0 {
		// Fail fast: no network call for a malformed payload.
		return "", &ValidationError{Fields: fieldErrors}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	exists, err := s.log.Exists(ctx, roundID.String())
	if err != nil {
		return "", storeError("Failed to check for duplicate round", err)
	}
	if exists {
		return OutcomeDuplicate, nil
	}

	if err := s.log.Append(ctx, s.buildRow(identity, req, roundID)); err != nil {
		return "", storeError("Failed to write round to the log", err)
	}
	return OutcomeSuccess, nil
}

func validateSubmit(req models.SubmitRoundRequest) (uuid.UUID, map[string]string) {
	fieldErrors := make(map[string]string)

	roundID, err := uuid.Parse(strings.TrimSpace(req.RoundID))
	if err != nil || roundID.Version() != 4 {
		fieldErrors["roundId"] = "Must be a valid v4 UUID"
	}
	if req.NumQuestions < 1 || req.NumQuestions > 1000 {
		fieldErrors["numQuestions"] = "Must be between 1 and 1000"
	}
	if req.Score < 0 || req.Score > req.NumQuestions {
		fieldErrors["score"] = "Must be between 0 and numQuestions"
	}
	if req.AccuracyPct < 0 || req.AccuracyPct > 100 {
		fieldErrors["accuracyPct"] = "Must be between 0 and 100"
	}
	if req.AvgTimeSeconds < 0 || req.AvgTimeSeconds > 600 {
		fieldErrors["avgTimeSeconds"] = "Must be between 0 and 600"
	}

	return roundID, fieldErrors
}

func (s *SubmitService) buildRow(identity models.Identity, req models.SubmitRoundRequest, roundID uuid.UUID) sheets.Row {
	first, last := identity.GivenName, identity.FamilyName
	if first == "" || last == "" {
		parts := strings.Fields(identity.Name)
		if first == "" && len(parts) > 0 {
			first = parts[0]
		}
		if last == "" && len(parts) > 1 {
			last = strings.Join(parts[1:], " ")
		}
	}

	uni, _, _ := strings.Cut(identity.Email, "@")

	return sheets.Row{
		Timestamp:      time.Now(),
		RoundID:        roundID.String(),
		Email:          identity.Email,
		Uni:            uni,
		FirstName:      first,
		LastName:       last,
		Category:       req.Category,
		NumQuestions:   req.NumQuestions,
		Score:          req.Score,
		AccuracyPct:    req.AccuracyPct,
		AvgTimeSeconds: req.AvgTimeSeconds,
		AppVersion:     s.appVersion,
		Notes:          "",
	}
}

func storeError(message string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		message = "Round log timed out"
	}
	return &UnavailableError{Message: message, Err: err}
}

// SummaryRequest converts an engine summary into the wire payload Submit
// expects, so the WebSocket path and the HTTP path share one entrance.
func SummaryRequest(summary models.RoundSummary) models.SubmitRoundRequest {
	return models.SubmitRoundRequest{
		RoundID:        summary.RoundID.String(),
		Category:       summary.Category,
		NumQuestions:   summary.NumQuestions,
		Score:          summary.Score,
		AccuracyPct:    summary.AccuracyPct,
		AvgTimeSeconds: summary.AvgTimeSeconds,
	}
}

package game

import (
	"errors"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"turing-backend/internal/models"
)

var (
	// ErrEmptyRound means the chosen filter matched no eligible content.
	ErrEmptyRound = errors.New("no eligible content for this round")
	// ErrRoundFinished is returned for answers arriving after the last question.
	ErrRoundFinished = errors.New("round already finished")
	ErrWrongMode     = errors.New("answer does not match presentation mode")
	ErrBadMode       = errors.New("unknown presentation mode")
)

// State of the round lifecycle.
type State int

const (
	InProgress State = iota
	Finished
)

// Presentation is what the player sees for the current question. The
// engine keeps which slot holds the human response to itself.
type Presentation struct {
	QuestionNumber int         `json:"question_number"` // 1-based
	TotalQuestions int         `json:"total_questions"`
	Prompt         string      `json:"prompt"`
	Mode           models.Mode `json:"mode"`

	// Swipe mode: the single response to judge.
	ShownText string `json:"shown_text,omitempty"`

	// Compare mode: both responses in randomized slot order.
	FirstText  string `json:"first_text,omitempty"`
	SecondText string `json:"second_text,omitempty"`
}

// Engine drives one round: it owns the selected items, the per-question
// coin flips, the running tallies and the ordered history. One Engine per
// round; a new round means a new Engine.
//
// Methods are safe for the interleaving of an input handler and a countdown
// timer callback.
type Engine struct {
	mu  sync.Mutex
	rng *rand.Rand

	cfg     models.RoundConfig
	roundID uuid.UUID
	items   []models.ContentItem

	state        State
	idx          int
	score        int
	humanCorrect int
	history      []models.QuestionResult

	shownIsHuman  bool
	humanFirst    bool
	questionStart time.Time
	startedAt     time.Time
}

// Start selects the round's items from the pool and presents the first
// question. It refuses to start a round with zero eligible items.
// A nil rng gets a fresh time-seeded source.
func Start(pool []models.ContentItem, cfg models.RoundConfig, rng *rand.Rand) (*Engine, error) {
	if !cfg.Mode.Valid() {
		return nil, ErrBadMode
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	items := SelectRound(pool, cfg.Condition, cfg.QuestionCount, rng)
	if len(items) == 0 {
		return nil, ErrEmptyRound
	}

	e := &Engine{
		rng:       rng,
		cfg:       cfg,
		roundID:   uuid.New(),
		items:     items,
		state:     InProgress,
		startedAt: time.Now(),
	}
	e.present()
	return e, nil
}

// present flips the per-question coins and arms the question clock.
// Caller must hold e.mu (or be the constructor).
func (e *Engine) present() {
	e.shownIsHuman = e.rng.Intn(2) == 0
	e.humanFirst = e.rng.Intn(2) == 0
	e.questionStart = time.Now()
}

func (e *Engine) RoundID() uuid.UUID { return e.roundID }

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) Finished() bool { return e.State() == Finished }

// QuestionIndex returns the 0-based index of the question currently
// awaiting input. Used by timer callbacks to detect staleness.
func (e *Engine) QuestionIndex() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.idx
}

// Current returns the presentation for the question awaiting input,
// or false when the round is finished.
func (e *Engine) Current() (Presentation, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == Finished {
		return Presentation{}, false
	}

	item := e.items[e.idx]
	p := Presentation{
		QuestionNumber: e.idx + 1,
		TotalQuestions: len(e.items),
		Prompt:         item.Prompt,
		Mode:           e.cfg.Mode,
	}
	switch e.cfg.Mode {
	case models.ModeSwipe:
		if e.shownIsHuman {
			p.ShownText = item.Human
		} else {
			p.ShownText = item.AI
		}
	case models.ModeCompare:
		if e.humanFirst {
			p.FirstText, p.SecondText = item.Human, item.AI
		} else {
			p.FirstText, p.SecondText = item.AI, item.Human
		}
	}
	return p, true
}

// AnswerSwipe records a swipe-mode answer: the player claims the shown
// response is human or AI. Correct when the claim matches the source.
func (e *Engine) AnswerSwipe(choice models.Choice) (models.QuestionResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == Finished {
		return models.QuestionResult{}, ErrRoundFinished
	}
	if e.cfg.Mode != models.ModeSwipe {
		return models.QuestionResult{}, ErrWrongMode
	}
	if choice != models.ChoiceHuman && choice != models.ChoiceAI {
		return models.QuestionResult{}, ErrWrongMode
	}

	correct := (choice == models.ChoiceHuman) == e.shownIsHuman
	return e.record(choice, correct, false), nil
}

// Pick records a compare-mode answer: the player clicks the slot they
// believe holds the human response. Correct when the clicked slot does.
func (e *Engine) Pick(first bool) (models.QuestionResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == Finished {
		return models.QuestionResult{}, ErrRoundFinished
	}
	if e.cfg.Mode != models.ModeCompare {
		return models.QuestionResult{}, ErrWrongMode
	}

	pickedHuman := first == e.humanFirst
	choice := models.ChoiceAI
	if pickedHuman {
		choice = models.ChoiceHuman
	}
	return e.record(choice, pickedHuman, false), nil
}

// Timeout force-advances question expectedIdx as an explicit no-answer
// outcome: never correct, distinct from a wrong guess. expectedIdx is the
// QuestionIndex captured when the countdown was armed; the comparison
// happens under the engine lock, so a timer that lost the race with an
// answer returns false instead of expiring the next question. Also false
// once the round is finished.
func (e *Engine) Timeout(expectedIdx int) (models.QuestionResult, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == Finished || e.idx != expectedIdx {
		return models.QuestionResult{}, false
	}
	return e.record(models.ChoiceNone, false, true), true
}

// record appends one QuestionResult, updates tallies and advances.
// Caller must hold e.mu.
func (e *Engine) record(choice models.Choice, correct, timedOut bool) models.QuestionResult {
	item := e.items[e.idx]

	correctAnswer := models.ChoiceAI
	switch e.cfg.Mode {
	case models.ModeSwipe:
		if e.shownIsHuman {
			correctAnswer = models.ChoiceHuman
		}
	case models.ModeCompare:
		// Compare always asks the player to find the human response.
		correctAnswer = models.ChoiceHuman
	}

	var taken *float64
	if !timedOut {
		secs := math.Round(time.Since(e.questionStart).Seconds()*100) / 100
		taken = &secs
	}

	result := models.QuestionResult{
		QuestionNumber:   e.idx + 1,
		Prompt:           item.Prompt,
		UserChoice:       choice,
		Correct:          correct,
		CorrectAnswer:    correctAnswer,
		HumanResponse:    item.Human,
		AIResponse:       item.AI,
		TimeTakenSeconds: taken,
		TimedOut:         timedOut,
	}
	e.history = append(e.history, result)

	if correct {
		e.score++
		if correctAnswer == models.ChoiceHuman {
			e.humanCorrect++
		}
	}

	e.idx++
	if e.idx == len(e.items) {
		e.state = Finished
	} else {
		e.present()
	}
	return result
}

func (e *Engine) Score() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.score
}

func (e *Engine) HumanCorrect() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.humanCorrect
}

// History returns a copy of the answered questions in question order.
func (e *Engine) History() []models.QuestionResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.QuestionResult, len(e.history))
	copy(out, e.history)
	return out
}

// Summary freezes the round into the payload sent to the round log.
// Only meaningful once the round is finished.
func (e *Engine) Summary() (models.RoundSummary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != Finished {
		return models.RoundSummary{}, errors.New("round still in progress")
	}

	category := e.cfg.Condition
	if category == "" {
		category = "Mixed"
	}

	var total float64
	var answered int
	for _, h := range e.history {
		if h.TimeTakenSeconds != nil {
			total += *h.TimeTakenSeconds
			answered++
		}
	}
	avg := 0.0
	if answered > 0 {
		avg = math.Round(total/float64(answered)*100) / 100
	}

	return models.RoundSummary{
		RoundID:        e.roundID,
		Category:       category,
		NumQuestions:   len(e.items),
		Score:          e.score,
		HumanCorrect:   e.humanCorrect,
		AccuracyPct:    models.AccuracyPct(e.score, len(e.items)),
		AvgTimeSeconds: avg,
	}, nil
}

// Package websocket hosts the interactive game transport: one connection
// plays rounds against a server-side engine, including the per-question
// countdown. Scoring and logging semantics are identical to the HTTP path.
package websocket

import (
	"context"
	"log"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"turing-backend/internal/game"
	"turing-backend/internal/middleware"
	"turing-backend/internal/models"
	"turing-backend/internal/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ClientMessage is anything the player sends over the socket.
type ClientMessage struct {
	Type      string `json:"type"` // start | answer | pick | quit
	Condition string `json:"condition,omitempty"`
	Mode      string `json:"mode,omitempty"`
	SessionID string `json:"session_id,omitempty"`

	Choice string `json:"choice,omitempty"` // answer: Human | AI
	Slot   string `json:"slot,omitempty"`   // pick: first | second
}

// ServerMessage is everything the server pushes back.
type ServerMessage struct {
	Type string `json:"type"` // question | result | finished | saved | error

	Question  *game.Presentation      `json:"question,omitempty"`
	TimeLimit int                     `json:"time_limit_seconds,omitempty"`
	Result    *models.QuestionResult  `json:"result,omitempty"`
	Summary   *models.RoundSummary    `json:"summary,omitempty"`
	History   []models.QuestionResult `json:"history,omitempty"`
	Session   *models.SessionStats    `json:"session,omitempty"`
	Saved     string                  `json:"saved,omitempty"` // success | duplicate | failed
	RoundID   string                  `json:"round_id,omitempty"`
	Message   string                  `json:"message,omitempty"`
}

// GameServer upgrades connections and runs one engine per socket.
type GameServer struct {
	auth     *middleware.Auth
	pool     []models.ContentItem
	submit   *services.SubmitService
	sessions *services.SessionService

	questionsPerRound int
	questionTime      time.Duration // 0 disables the countdown
}

func NewGameServer(
	auth *middleware.Auth,
	pool []models.ContentItem,
	submit *services.SubmitService,
	sessions *services.SessionService,
	questionsPerRound int,
	questionTime time.Duration,
) *GameServer {
	return &GameServer{
		auth:              auth,
		pool:              pool,
		submit:            submit,
		sessions:          sessions,
		questionsPerRound: questionsPerRound,
		questionTime:      questionTime,
	}
}

func (s *GameServer) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	identity, err := s.auth.VerifyToken(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	c := &gameConn{
		server:   s,
		conn:     conn,
		identity: identity,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	c.readLoop()
}

// gameConn is the per-connection state. The mutex covers the engine, the
// timer and the active round ID against the interleaving of the read loop,
// timer callbacks and submission goroutines.
type gameConn struct {
	server   *GameServer
	conn     *websocket.Conn
	identity models.Identity
	rng      *rand.Rand

	writeMu sync.Mutex

	mu        sync.Mutex
	engine    *game.Engine
	timer     *time.Timer
	roundID   uuid.UUID // currently active round; stale callbacks compare against it
	sessionID string
	submitted bool
}

func (c *gameConn) readLoop() {
	defer func() {
		c.mu.Lock()
		c.stopTimer()
		c.mu.Unlock()
		c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case "start":
			c.handleStart(msg)
		case "answer":
			c.handleAnswer(msg)
		case "pick":
			c.handlePick(msg)
		case "quit":
			c.handleQuit()
		default:
			c.send(ServerMessage{Type: "error", Message: "Unknown message type"})
		}
	}
}

func (c *gameConn) handleStart(msg ClientMessage) {
	mode := models.Mode(msg.Mode)
	if msg.Mode == "" {
		mode = models.ModeCompare
	}

	engine, err := game.Start(c.server.pool, models.RoundConfig{
		Condition:     msg.Condition,
		QuestionCount: c.server.questionsPerRound,
		Mode:          mode,
		TimeLimitSecs: int(c.server.questionTime.Seconds()),
	}, c.rng)
	if err != nil {
		c.send(ServerMessage{Type: "error", Message: err.Error()})
		return
	}

	c.mu.Lock()
	// Starting a new round abandons the previous one: its timer dies here
	// and any in-flight submission callback will see a changed round ID.
	c.stopTimer()
	c.engine = engine
	c.roundID = engine.RoundID()
	c.sessionID = msg.SessionID
	c.submitted = false
	c.mu.Unlock()

	c.sendQuestion(engine)
	c.armTimer(engine)
}

func (c *gameConn) handleAnswer(msg ClientMessage) {
	c.mu.Lock()
	engine := c.engine
	c.stopTimer()
	c.mu.Unlock()

	if engine == nil {
		c.send(ServerMessage{Type: "error", Message: "No round in progress"})
		return
	}

	result, err := engine.AnswerSwipe(models.Choice(msg.Choice))
	if err != nil {
		c.send(ServerMessage{Type: "error", Message: err.Error()})
		c.armTimer(engine)
		return
	}
	c.advance(engine, result)
}

func (c *gameConn) handlePick(msg ClientMessage) {
	c.mu.Lock()
	engine := c.engine
	c.stopTimer()
	c.mu.Unlock()

	if engine == nil {
		c.send(ServerMessage{Type: "error", Message: "No round in progress"})
		return
	}
	if msg.Slot != "first" && msg.Slot != "second" {
		c.send(ServerMessage{Type: "error", Message: "Slot must be first or second"})
		c.armTimer(engine)
		return
	}

	result, err := engine.Pick(msg.Slot == "first")
	if err != nil {
		c.send(ServerMessage{Type: "error", Message: err.Error()})
		c.armTimer(engine)
		return
	}
	c.advance(engine, result)
}

func (c *gameConn) handleQuit() {
	c.mu.Lock()
	c.stopTimer()
	c.engine = nil
	c.roundID = uuid.Nil
	c.mu.Unlock()
}

// advance sends the recorded result, then either the next question or the
// round finish.
func (c *gameConn) advance(engine *game.Engine, result models.QuestionResult) {
	c.send(ServerMessage{Type: "result", Result: &result})

	if engine.Finished() {
		c.finish(engine)
		return
	}
	c.sendQuestion(engine)
	c.armTimer(engine)
}

func (c *gameConn) sendQuestion(engine *game.Engine) {
	p, ok := engine.Current()
	if !ok {
		return
	}
	c.send(ServerMessage{
		Type:      "question",
		Question:  &p,
		TimeLimit: int(c.server.questionTime.Seconds()),
	})
}

// armTimer schedules the countdown for the question currently awaiting
// input. The captured index travels into Engine.Timeout, which compares
// and records under one lock, so a timer that lost the race with an
// answer can never expire the next question.
func (c *gameConn) armTimer(engine *game.Engine) {
	if c.server.questionTime <= 0 || engine.Finished() {
		return
	}

	expectedIdx := engine.QuestionIndex()
	c.mu.Lock()
	c.stopTimer()
	c.timer = time.AfterFunc(c.server.questionTime, func() {
		c.onTimeout(engine, expectedIdx)
	})
	c.mu.Unlock()
}

func (c *gameConn) onTimeout(engine *game.Engine, expectedIdx int) {
	c.mu.Lock()
	stale := c.engine != engine
	c.mu.Unlock()
	if stale {
		return
	}

	result, ok := engine.Timeout(expectedIdx)
	if !ok {
		return
	}
	c.advance(engine, result)
}

// stopTimer cancels any pending countdown. Caller must hold c.mu.
func (c *gameConn) stopTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// finish folds the round into the session immediately (rounds aggregate in
// finish order) and logs it in the background, reporting the saved status
// once known. The engine triggers exactly one automatic submission per
// round; duplicates can only come from manual retries, which the submit
// service deduplicates.
func (c *gameConn) finish(engine *game.Engine) {
	summary, err := engine.Summary()
	if err != nil {
		c.send(ServerMessage{Type: "error", Message: err.Error()})
		return
	}

	c.mu.Lock()
	alreadySubmitted := c.submitted
	c.submitted = true
	sessionID := c.sessionID
	c.mu.Unlock()

	var session *models.SessionStats
	if sessionID != "" {
		stats := c.server.sessions.AddRound(context.Background(), sessionID, summary)
		session = &stats
	}

	c.send(ServerMessage{
		Type:    "finished",
		Summary: &summary,
		History: engine.History(),
		Session: session,
		RoundID: summary.RoundID.String(),
	})

	if alreadySubmitted {
		return
	}

	roundID := summary.RoundID
	go func() {
		outcome, err := c.server.submit.Submit(context.Background(), c.identity, services.SummaryRequest(summary))

		// A newer round may have started while the log call was in
		// flight; its saved status is not ours to report.
		c.mu.Lock()
		stale := c.roundID != roundID
		c.mu.Unlock()
		if stale {
			return
		}

		saved := string(outcome)
		if err != nil {
			log.Printf("failed to log round %s: %v", roundID, err)
			saved = "failed"
		}
		c.send(ServerMessage{Type: "saved", Saved: saved, RoundID: roundID.String()})
	}()
}

func (c *gameConn) send(msg ServerMessage) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteJSON(msg); err != nil {
		log.Printf("WebSocket write failed: %v", err)
	}
}

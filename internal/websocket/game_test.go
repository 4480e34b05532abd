package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"turing-backend/internal/middleware"
	"turing-backend/internal/models"
	"turing-backend/internal/services"
	"turing-backend/internal/sheets"
)

type memorySessionStore struct {
	mu   sync.Mutex
	data map[string]models.SessionStats
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{data: map[string]models.SessionStats{}}
}

func (m *memorySessionStore) Load(ctx context.Context, id string) (models.SessionStats, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats, ok := m.data[id]
	return stats, ok, nil
}

func (m *memorySessionStore) Save(ctx context.Context, stats models.SessionStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[stats.SessionID] = stats
	return nil
}

func (m *memorySessionStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

func testPool(n int) []models.ContentItem {
	pool := make([]models.ContentItem, 0, n)
	for i := 0; i < n; i++ {
		id := string(rune('a' + i))
		pool = append(pool, models.ContentItem{
			ID:        id,
			Condition: "Poetry",
			Prompt:    "prompt " + id,
			Human:     "human " + id,
			AI:        "ai " + id,
		})
	}
	return pool
}

// dialGame stands up a server around the game handler and opens an
// authenticated connection to it.
func dialGame(t *testing.T, gs *GameServer, auth *middleware.Auth) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(gs.HandleWebSocket))
	t.Cleanup(srv.Close)

	token, err := auth.GenerateToken(models.Identity{
		Email:      "abc1234@columbia.edu",
		Name:       "Ada Lovelace",
		GivenName:  "Ada",
		FamilyName: "Lovelace",
	}, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) ServerMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg ServerMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	return msg
}

func TestGameSocket_PlaysFullRoundAndLogsOnce(t *testing.T) {
	log := sheets.NewMemoryLog()
	submit := services.NewSubmitService(log, 5*time.Second, "1.0.0")
	sessions := services.NewSessionService(newMemorySessionStore())
	auth := middleware.NewAuth("test-secret", "columbia.edu")

	gs := NewGameServer(auth, testPool(5), submit, sessions, 3, 0)
	conn := dialGame(t, gs, auth)

	if err := conn.WriteJSON(ClientMessage{Type: "start", Condition: "Poetry", Mode: "swipe", SessionID: "sess-ws"}); err != nil {
		t.Fatalf("start: %v", err)
	}

	for i := 1; i <= 3; i++ {
		q := readMessage(t, conn)
		if q.Type != "question" {
			t.Fatalf("message %d: got type %q, want question", i, q.Type)
		}
		if q.Question.QuestionNumber != i {
			t.Errorf("question number = %d, want %d", q.Question.QuestionNumber, i)
		}

		if err := conn.WriteJSON(ClientMessage{Type: "answer", Choice: "Human"}); err != nil {
			t.Fatalf("answer: %v", err)
		}
		res := readMessage(t, conn)
		if res.Type != "result" {
			t.Fatalf("after answer %d: got type %q, want result", i, res.Type)
		}
	}

	fin := readMessage(t, conn)
	if fin.Type != "finished" {
		t.Fatalf("got type %q, want finished", fin.Type)
	}
	if fin.Summary.NumQuestions != 3 {
		t.Errorf("summary questions = %d, want 3", fin.Summary.NumQuestions)
	}
	if len(fin.History) != 3 {
		t.Errorf("history length = %d, want 3", len(fin.History))
	}
	if fin.Session == nil || fin.Session.RoundsPlayed != 1 {
		t.Errorf("expected session with one round, got %+v", fin.Session)
	}

	saved := readMessage(t, conn)
	if saved.Type != "saved" || saved.Saved != "success" {
		t.Fatalf("got %+v, want saved/success", saved)
	}
	if len(log.Rows()) != 1 {
		t.Fatalf("logged %d rows, want 1", len(log.Rows()))
	}
	if log.Rows()[0].Uni != "abc1234" {
		t.Errorf("logged uni = %q, want abc1234", log.Rows()[0].Uni)
	}
}

func TestGameSocket_RejectsMissingToken(t *testing.T) {
	log := sheets.NewMemoryLog()
	submit := services.NewSubmitService(log, 5*time.Second, "1.0.0")
	sessions := services.NewSessionService(newMemorySessionStore())
	auth := middleware.NewAuth("test-secret", "columbia.edu")

	gs := NewGameServer(auth, testPool(3), submit, sessions, 3, 0)
	srv := httptest.NewServer(http.HandlerFunc(gs.HandleWebSocket))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected dial to fail without a token")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 handshake response, got %+v", resp)
	}
}

func TestGameSocket_AnswerWithoutRound(t *testing.T) {
	log := sheets.NewMemoryLog()
	submit := services.NewSubmitService(log, 5*time.Second, "1.0.0")
	sessions := services.NewSessionService(newMemorySessionStore())
	auth := middleware.NewAuth("test-secret", "columbia.edu")

	gs := NewGameServer(auth, testPool(3), submit, sessions, 3, 0)
	conn := dialGame(t, gs, auth)

	if err := conn.WriteJSON(ClientMessage{Type: "answer", Choice: "Human"}); err != nil {
		t.Fatalf("answer: %v", err)
	}
	msg := readMessage(t, conn)
	if msg.Type != "error" {
		t.Fatalf("got type %q, want error", msg.Type)
	}
}

func TestGameSocket_TimeoutAdvancesQuestion(t *testing.T) {
	log := sheets.NewMemoryLog()
	submit := services.NewSubmitService(log, 5*time.Second, "1.0.0")
	sessions := services.NewSessionService(newMemorySessionStore())
	auth := middleware.NewAuth("test-secret", "columbia.edu")

	gs := NewGameServer(auth, testPool(3), submit, sessions, 2, 50*time.Millisecond)
	conn := dialGame(t, gs, auth)

	if err := conn.WriteJSON(ClientMessage{Type: "start", Condition: "Poetry", Mode: "swipe"}); err != nil {
		t.Fatalf("start: %v", err)
	}

	q := readMessage(t, conn)
	if q.Type != "question" {
		t.Fatalf("got type %q, want question", q.Type)
	}

	// Let the countdown fire instead of answering.
	res := readMessage(t, conn)
	if res.Type != "result" {
		t.Fatalf("got type %q, want result", res.Type)
	}
	if !res.Result.TimedOut {
		t.Error("expected a timed-out result")
	}
	if res.Result.Correct {
		t.Error("timed-out question must not count as correct")
	}
	if res.Result.TimeTakenSeconds != nil {
		t.Error("timed-out question must not record a time")
	}

	next := readMessage(t, conn)
	if next.Type != "question" || next.Question.QuestionNumber != 2 {
		t.Fatalf("expected question 2 after timeout, got %+v", next)
	}
}

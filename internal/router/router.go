package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"turing-backend/internal/handlers"
	"turing-backend/internal/middleware"
	"turing-backend/internal/websocket"
)

func New(
	auth *middleware.Auth,
	roundHandler *handlers.RoundHandler,
	contentHandler *handlers.ContentHandler,
	sessionHandler *handlers.SessionHandler,
	gameServer *websocket.GameServer,
	frontendURL string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(frontendURL))

	// Submission rate limiter (30 req/min per IP)
	submitLimiter := middleware.NewRateLimiter(30, time.Minute)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Content Routes (public) ────
		r.Get("/content/themes", contentHandler.Themes)

		// ──── Round Logging ────
		r.Group(func(r chi.Router) {
			r.Use(submitLimiter.Middleware)
			r.Use(auth.Middleware)
			r.Post("/submit-data", roundHandler.Submit)
		})

		// ──── Session Routes ────
		r.Route("/session", func(r chi.Router) {
			r.Use(auth.Middleware)
			r.Get("/", sessionHandler.Get)
			r.Post("/clear", sessionHandler.Clear)
		})

		// ──── WebSocket ────
		r.Get("/ws", gameServer.HandleWebSocket)
	})

	return r
}

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"turing-backend/internal/config"
	"turing-backend/internal/database"
	"turing-backend/internal/handlers"
	"turing-backend/internal/middleware"
	"turing-backend/internal/repository"
	"turing-backend/internal/router"
	"turing-backend/internal/services"
	"turing-backend/internal/sheets"
	"turing-backend/internal/websocket"
	"turing-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting Turing Game Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Client ────
	redisClient, err := database.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClient.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Step 5: Load Content Corpus ────
	// The corpus is read-only at runtime, so one load at startup serves
	// every round. An empty corpus is a deployment error, not something
	// to limp through.
	contentRepo := repository.NewContentRepo(pool)
	corpus, err := contentRepo.ListAll(context.Background())
	if err != nil {
		log.Fatalf("✗ Content corpus load failed: %v", err)
	}
	if len(corpus) == 0 {
		log.Fatal("✗ Content corpus is empty; run cmd/import first")
	}
	log.Printf("✓ Content corpus loaded (%d items)", len(corpus))

	// ──── Step 6: Initialize Google Sheets Round Log ────
	roundLog, err := sheets.NewClient(
		context.Background(),
		[]byte(cfg.SheetsCredsJSON),
		cfg.SpreadsheetID,
		cfg.SheetTabName,
	)
	if err != nil {
		log.Fatalf("✗ Google Sheets client initialization failed: %v", err)
	}
	log.Println("✓ Google Sheets round log initialized")

	// ──── Initialize Services ────
	auth := middleware.NewAuth(cfg.JWTSecret, cfg.AllowedEmailDomain)
	submitService := services.NewSubmitService(
		roundLog,
		time.Duration(cfg.SubmitTimeoutSec)*time.Second,
		cfg.AppVersion,
	)
	sessionService := services.NewSessionService(repository.NewSessionRepo(redisClient))

	// ──── Initialize Handlers ────
	retryQueue := worker.NewQueue(redisClient)
	roundHandler := handlers.NewRoundHandler(submitService, sessionService, retryQueue)
	contentHandler := handlers.NewContentHandler(corpus)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	gameServer := websocket.NewGameServer(
		auth,
		corpus,
		submitService,
		sessionService,
		cfg.QuestionsPerRound,
		time.Duration(cfg.QuestionTimeSecs)*time.Second,
	)

	// ──── Step 7: Start Retry Worker Pool ────
	var retryPool *worker.Pool
	if cfg.RetryWorkers > 0 {
		retryPool = worker.NewPool(redisClient, submitService, cfg.RetryWorkers)
		retryPool.Start()
		log.Printf("✓ Retry worker pool started (%d goroutines)", cfg.RetryWorkers)
	}

	// ──── Step 8: Start HTTP Server ────
	r := router.New(
		auth,
		roundHandler,
		contentHandler,
		sessionHandler,
		gameServer,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		if retryPool != nil {
			retryPool.Stop()
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ Turing Game Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("✗ Server failed: %v", err)
	}
}

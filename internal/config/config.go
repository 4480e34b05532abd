package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// JWT
	JWTSecret string

	// Access control
	AllowedEmailDomain string // empty disables the domain gate

	// Google Sheets round log
	SpreadsheetID    string
	SheetTabName     string
	SheetsCredsJSON  string // service-account key, raw JSON
	SubmitTimeoutSec int

	// Gemini (content import only)
	GeminiAPIKey string

	// Game policy
	QuestionsPerRound int
	QuestionTimeSecs  int // per-question countdown; 0 disables
	DefaultMode       string

	// Background retry
	RetryWorkers int

	// Misc
	AppVersion  string
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:        getEnvOrDefault("PORT", "8080"),
		Env:         getEnvOrDefault("ENV", "development"),
		DatabaseURL: mustGetEnv("DATABASE_URL"),
		RedisURL:    mustGetEnv("REDIS_URL"),
		JWTSecret:   mustGetEnv("JWT_SECRET"),

		AllowedEmailDomain: getEnvOrDefault("ALLOWED_EMAIL_DOMAIN", ""),

		SpreadsheetID:    mustGetEnv("GOOGLE_SHEETS_SPREADSHEET_ID"),
		SheetTabName:     getEnvOrDefault("GOOGLE_SHEETS_TAB_NAME", "round_results"),
		SheetsCredsJSON:  mustGetEnv("GOOGLE_SHEETS_CREDENTIALS_JSON"),
		SubmitTimeoutSec: getEnvAsIntOrDefault("SUBMIT_TIMEOUT_SECONDS", 15),

		GeminiAPIKey: getEnvOrDefault("GEMINI_API_KEY", ""),

		QuestionsPerRound: getEnvAsIntOrDefault("QUESTIONS_PER_ROUND", 15),
		QuestionTimeSecs:  getEnvAsIntOrDefault("QUESTION_TIME_SECONDS", 30),
		DefaultMode:       getEnvOrDefault("DEFAULT_GAME_MODE", "compare"),

		RetryWorkers: getEnvAsIntOrDefault("RETRY_WORKERS", 0),

		AppVersion:  getEnvOrDefault("APP_VERSION", ""),
		FrontendURL: getEnvOrDefault("FRONTEND_URL", "http://localhost:3000"),
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

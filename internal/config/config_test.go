package config

import (
	"os"
	"testing"
)

func TestGetEnvOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal string
		expected   string
	}{
		{"uses env value", "TEST_VAR_1", "hello", "default", "hello"},
		{"uses default when empty", "TEST_VAR_2", "", "default", "default"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, result)
			}
		})
	}
}

func TestGetEnvAsIntOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal int
		expected   int
	}{
		{"parses integer", "TEST_INT_1", "15", 3, 15},
		{"uses default for empty", "TEST_INT_2", "", 3, 3},
		{"uses default for non-numeric", "TEST_INT_3", "abc", 3, 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			result := getEnvAsIntOrDefault(tc.key, tc.defaultVal)
			if result != tc.expected {
				t.Errorf("Expected %d, got %d", tc.expected, result)
			}
		})
	}
}

func TestLoadGameDefaults(t *testing.T) {
	for _, key := range []string{"DATABASE_URL", "REDIS_URL", "JWT_SECRET",
		"GOOGLE_SHEETS_SPREADSHEET_ID", "GOOGLE_SHEETS_CREDENTIALS_JSON"} {
		os.Setenv(key, "test-value")
		defer os.Unsetenv(key)
	}

	cfg := Load()

	if cfg.QuestionsPerRound != 15 {
		t.Errorf("Expected 15 questions per round, got %d", cfg.QuestionsPerRound)
	}
	if cfg.QuestionTimeSecs != 30 {
		t.Errorf("Expected 30s question timer, got %d", cfg.QuestionTimeSecs)
	}
	if cfg.DefaultMode != "compare" {
		t.Errorf("Expected default mode 'compare', got %q", cfg.DefaultMode)
	}
	if cfg.SheetTabName != "round_results" {
		t.Errorf("Expected tab 'round_results', got %q", cfg.SheetTabName)
	}
	if cfg.SubmitTimeoutSec != 15 {
		t.Errorf("Expected 15s submit timeout, got %d", cfg.SubmitTimeoutSec)
	}
}

// Package config loads runtime configuration from the environment.
package config

import (
	"os"
	"strconv"
)

// Config holds runtime configuration. The API key is read from the
// environment only; never committed.
type Config struct {
	// Addr is the listen address for the HTTP server.
	Addr string
	// DBPath is the path to the SQLite database file.
	DBPath string
	// Provider selects the upstream LLM provider (e.g. "anthropic").
	Provider string
	// Model is the model id used for exchanges.
	Model string
	// APIKey is set from ANTHROPIC_API_KEY.
	APIKey string
	// MaxIterations caps tool rounds per exchange.
	MaxIterations int
	// HistoryLimit caps how many recent messages feed each exchange.
	HistoryLimit int
	// MaxTokens caps tokens per model turn.
	MaxTokens int
}

// Load reads configuration from the environment with sensible defaults.
func Load() Config {
	cfg := Config{
		Addr:          getenv("MISSIONCTL_ADDR", ":8000"),
		DBPath:        getenv("MISSIONCTL_DB_PATH", "missionctl.db"),
		Provider:      getenv("MISSIONCTL_PROVIDER", "anthropic"),
		Model:         getenv("MISSIONCTL_MODEL", "claude-sonnet-4-5-20250929"),
		APIKey:        os.Getenv("ANTHROPIC_API_KEY"),
		MaxIterations: getenvInt("MISSIONCTL_MAX_ITERATIONS", 20),
		HistoryLimit:  getenvInt("MISSIONCTL_HISTORY_LIMIT", 20),
		MaxTokens:     getenvInt("MISSIONCTL_MAX_TOKENS", 4096),
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

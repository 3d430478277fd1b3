package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds process-wide settings loaded once at startup.
type Config struct {
	AllowedOrigins []string
	JiraBaseURL    string
}

func Load() *Config {
	// .env is optional; real deployments use actual env vars
	_ = godotenv.Load()

	return &Config{
		AllowedOrigins: []string{getenv("ALLOWED_ORIGIN", "*")},
		JiraBaseURL:    os.Getenv("JIRA_BASE_URL"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

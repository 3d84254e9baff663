package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL     string
	HTTPAddr        string
	CanvasBaseURL   string
	TodoistBaseURL  string
	Timezone        *time.Location
	PollInterval    int // seconds, schedule reload
	ShutdownTimeout int // seconds
	HTTPTimeout     time.Duration
	Log             LogConfig
}

type LogConfig struct {
	Level    string
	Encoding string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error in production)
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	tzName := getEnv("INSTITUTION_TIMEZONE", "America/New_York")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid INSTITUTION_TIMEZONE %q: %w", tzName, err)
	}

	pollInterval, err := getEnvInt("POLL_INTERVAL", 60)
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := getEnvInt("SHUTDOWN_TIMEOUT", 30)
	if err != nil {
		return nil, err
	}

	httpTimeout, err := time.ParseDuration(getEnv("HTTP_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}

	canvasBaseURL := os.Getenv("CANVAS_BASE_URL")
	if canvasBaseURL == "" {
		fmt.Println("Warning: CANVAS_BASE_URL not set, assignment fetching will not work")
	}

	return &Config{
		DatabaseURL:     dbURL,
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		CanvasBaseURL:   canvasBaseURL,
		TodoistBaseURL:  getEnv("TODOIST_BASE_URL", "https://api.todoist.com/rest/v2"),
		Timezone:        loc,
		PollInterval:    pollInterval,
		ShutdownTimeout: shutdownTimeout,
		HTTPTimeout:     httpTimeout,
		Log: LogConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			Encoding: getEnv("LOG_ENCODING", "console"),
		},
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, raw)
	}
	return n, nil
}

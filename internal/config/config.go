package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// HTTP server
	HTTPTimeout time.Duration

	// Storage
	RedisURL         string // empty keeps user data in process memory
	StoragePrefix    string
	InteractionLimit int

	// Advisor
	RulesFile              string // empty uses the embedded rule tables
	ConversationTimeout    time.Duration
	MaxConversationHistory int
	MaxRecommendations     int
	ConfidenceThreshold    float64
	SessionTTL             time.Duration
	InteractionQueueSize   int

	// Resilience
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	// Observability
	OTLPEndpoint string

	// JWT / Auth
	JWTSecret string // empty trusts the X-User-ID header
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	conversationTimeout := getEnvDuration("CONVERSATION_TIMEOUT", 30*time.Minute)

	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		RedisURL:         getEnv("REDIS_URL", ""),
		StoragePrefix:    getEnv("STORAGE_PREFIX", "@AIProductAdvisor:"),
		InteractionLimit: getEnvInt("INTERACTION_LOG_LIMIT", 100),

		RulesFile:              getEnv("ADVISOR_RULES_FILE", ""),
		ConversationTimeout:    conversationTimeout,
		MaxConversationHistory: getEnvInt("MAX_CONVERSATION_HISTORY", 50),
		MaxRecommendations:     getEnvInt("MAX_RECOMMENDATIONS", 5),
		ConfidenceThreshold:    getEnvFloat("CONFIDENCE_THRESHOLD", 0.7),
		SessionTTL:             getEnvDuration("SESSION_TTL", 2*conversationTimeout),
		InteractionQueueSize:   getEnvInt("INTERACTION_QUEUE_SIZE", 256),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 4),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		JWTSecret: getEnv("JWT_SECRET", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

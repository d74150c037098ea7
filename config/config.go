// Package config loads runtime configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port        string
	Environment string

	// Database
	DatabaseURL string
	MongoDBURL  string
	MongoDBName string
	RedisURL    string

	// JWT
	JWTSecret string

	// OpenAI
	OpenAIAPIKey   string
	LLMModel       string
	LLMMaxTokens   int
	LLMTemperature float64
	LLMTimeout     time.Duration

	// Pipeline
	BulkBatchSize   int
	RunLockTTL      time.Duration
	NoResponseDays  int
	TraceMaxTextLen int

	// Learning
	LearningAlpha float64
	LearningScale float64

	// Reply classification
	ConfidenceFloor float64

	// CORS
	AllowedOrigins []string
}

func Load() (*Config, error) {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", ""),
		MongoDBURL:  getEnv("MONGODB_URL", ""),
		MongoDBName: getEnv("MONGODB_DATABASE", "leadflow"),
		RedisURL:    getEnv("REDIS_URL", ""),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", ""),

		// OpenAI
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		LLMModel:       getEnv("LLM_MODEL", "gpt-4o-mini"),
		LLMMaxTokens:   getEnvInt("LLM_MAX_TOKENS", 2048),
		LLMTemperature: getEnvFloat("LLM_TEMPERATURE", 0.2),
		LLMTimeout:     time.Duration(getEnvInt("LLM_TIMEOUT_SEC", 30)) * time.Second,

		// Pipeline
		BulkBatchSize:   getEnvInt("BULK_BATCH_SIZE", 100),
		RunLockTTL:      time.Duration(getEnvInt("RUN_LOCK_TTL_SEC", 120)) * time.Second,
		NoResponseDays:  getEnvInt("NO_RESPONSE_DAYS", 14),
		TraceMaxTextLen: getEnvInt("TRACE_MAX_TEXT_LEN", 200),

		// Learning
		LearningAlpha: getEnvFloat("LEARNING_ALPHA", 0.1),
		LearningScale: getEnvFloat("LEARNING_SCALE", 2.0),

		// Reply classification
		ConfidenceFloor: getEnvFloat("REPLY_CONFIDENCE_FLOOR", 0.35),

		// CORS
		AllowedOrigins: getEnvSlice("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

// HasLLM reports whether an external model credential is configured.
func (c *Config) HasLLM() bool {
	return c.OpenAIAPIKey != ""
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

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

	// Assistant
	AssistantProvider   string // "gemini" | "openai"
	GeminiAPIKey        string
	OpenAIAPIKey        string
	AssistantConcurrent int
	AssistantRatePerMin int
	ResumePath          string

	// SMTP
	SMTPHost string
	SMTPPort string
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	// Owner / frontend
	AdminEmail  string
	FrontendURL string
	SiteName    string
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

		AssistantProvider:   getEnvOrDefault("ASSISTANT_PROVIDER", "gemini"),
		GeminiAPIKey:        getEnvOrDefault("GEMINI_API_KEY", ""),
		OpenAIAPIKey:        getEnvOrDefault("OPENAI_API_KEY", ""),
		AssistantConcurrent: getEnvAsIntOrDefault("ASSISTANT_CONCURRENT_REQUESTS", 5),
		AssistantRatePerMin: getEnvAsIntOrDefault("ASSISTANT_REQUESTS_PER_MINUTE", 20),
		ResumePath:          getEnvOrDefault("RESUME_PATH", ""),

		SMTPHost: getEnvOrDefault("SMTP_HOST", ""),
		SMTPPort: getEnvOrDefault("SMTP_PORT", "587"),
		SMTPUser: getEnvOrDefault("SMTP_USER", ""),
		SMTPPass: getEnvOrDefault("SMTP_PASS", ""),
		SMTPFrom: getEnvOrDefault("SMTP_FROM", "noreply@folio.dev"),

		AdminEmail:  getEnvOrDefault("ADMIN_EMAIL", ""),
		FrontendURL: getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
		SiteName:    getEnvOrDefault("SITE_NAME", "Folio"),
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

package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Agent     AgentConfig
	Chat      ChatConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type AgentConfig struct {
	LLMProvider   string // "ollama" or "openai"
	LLMModel      string // e.g. "llama3", "gpt-4o-mini"
	OllamaBaseURL string
	OpenAIBaseURL string
	OpenAIAPIKey  string
	MaxAttempts   int
	CallTimeout   time.Duration
	BackoffBase   time.Duration
}

type ChatConfig struct {
	MaxMessageLen    int
	MaxConversations int
	MessageViewCap   int
	HistoryLimit     int
}

type RateLimitConfig struct {
	Backend  string // "memory" or "redis"
	Window   time.Duration
	Capacity int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Agent: AgentConfig{
			LLMProvider:   getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:      getEnv("LLM_MODEL", "llama3"),
			OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
			OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
			MaxAttempts:   getEnvAsInt("LLM_MAX_ATTEMPTS", 3),
			CallTimeout:   getEnvAsDuration("LLM_CALL_TIMEOUT", 12*time.Second),
			BackoffBase:   getEnvAsDuration("LLM_BACKOFF_BASE", 500*time.Millisecond),
		},
		Chat: ChatConfig{
			MaxMessageLen:    getEnvAsInt("CHAT_MAX_MESSAGE_LEN", 4000),
			MaxConversations: getEnvAsInt("CHAT_MAX_CONVERSATIONS", 100),
			MessageViewCap:   getEnvAsInt("CHAT_MESSAGE_VIEW_CAP", 1000),
			HistoryLimit:     getEnvAsInt("CHAT_HISTORY_LIMIT", 20),
		},
		RateLimit: RateLimitConfig{
			Backend:  getEnv("RATE_LIMIT_BACKEND", "memory"),
			Window:   getEnvAsDuration("RATE_LIMIT_WINDOW", 60*time.Second),
			Capacity: getEnvAsInt("RATE_LIMIT_CAPACITY", 60),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}

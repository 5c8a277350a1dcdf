package bootstrap

import (
	"context"
	"log"

	"ai-todo-agent-be/internal/config"
	"ai-todo-agent-be/internal/controller"
	"ai-todo-agent-be/internal/pkg/logger"
	"ai-todo-agent-be/internal/repository/unitofwork"
	"ai-todo-agent-be/internal/service"
	"ai-todo-agent-be/pkg/agent"
	"ai-todo-agent-be/pkg/agent/tools"
	"ai-todo-agent-be/pkg/llm/factory"
	"ai-todo-agent-be/pkg/ratelimit"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController controller.IChatController
	TaskController controller.ITaskController

	// Exposed for graceful shutdown
	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. LLM provider
	llmProvider, err := factory.NewLLMProvider(
		cfg.Agent.LLMProvider,
		cfg.Agent.LLMModel,
		llmBaseURL(cfg),
		cfg.Agent.OpenAIAPIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Agent.LLMProvider, cfg.Agent.LLMModel)

	// 3. Rate limiter
	var limiter ratelimit.Limiter
	if cfg.RateLimit.Backend == "redis" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		limiter = ratelimit.NewRedisLimiter(rdb, cfg.RateLimit.Window, cfg.RateLimit.Capacity)
		log.Println("[INFO] Using rate limit backend: redis")
	} else {
		limiter = ratelimit.NewMemoryLimiter(cfg.RateLimit.Window, cfg.RateLimit.Capacity)
		log.Println("[INFO] Using rate limit backend: memory")
	}

	// 4. Services
	taskService := service.NewTaskService(uowFactory, sysLogger)

	registry := tools.NewRegistry(taskService)
	resolver := agent.NewResolver(llmProvider, registry, sysLogger, agent.Config{
		MaxAttempts:  cfg.Agent.MaxAttempts,
		CallTimeout:  cfg.Agent.CallTimeout,
		BackoffBase:  cfg.Agent.BackoffBase,
		HistoryLimit: cfg.Chat.HistoryLimit,
	})

	chatService := service.NewChatService(uowFactory, resolver, limiter, sysLogger, service.ChatConfig{
		MaxMessageLen:    cfg.Chat.MaxMessageLen,
		MaxConversations: cfg.Chat.MaxConversations,
		MessageViewCap:   cfg.Chat.MessageViewCap,
		HistoryLimit:     cfg.Chat.HistoryLimit,
	})

	// 5. Controllers
	return &Container{
		ChatController: controller.NewChatController(chatService),
		TaskController: controller.NewTaskController(taskService),
		Logger:         sysLogger,
	}
}

func llmBaseURL(cfg *config.Config) string {
	if cfg.Agent.LLMProvider == "openai" {
		return cfg.Agent.OpenAIBaseURL
	}
	return cfg.Agent.OllamaBaseURL
}

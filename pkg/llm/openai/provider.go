package openai

import (
	"context"
	"errors"

	"ai-todo-agent-be/pkg/llm"

	goopenai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider speaks the OpenAI chat-completions API. It also covers any
// OpenAI-compatible gateway via a custom base URL.
type OpenAIProvider struct {
	client    *goopenai.Client
	modelName string
}

var _ llm.LLMProvider = &OpenAIProvider{}

func NewOpenAIProvider(apiKey, baseURL, modelName string) *OpenAIProvider {
	cfg := goopenai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIProvider{
		client:    goopenai.NewClientWithConfig(cfg),
		modelName: modelName,
	}
}

func (p *OpenAIProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	options := &llm.Options{
		Temperature: 0.7,
	}
	for _, opt := range opts {
		opt(options)
	}

	messages := make([]goopenai.ChatCompletionMessage, len(history))
	for i, msg := range history {
		role := msg.Role
		if role == "model" {
			role = goopenai.ChatMessageRoleAssistant
		}
		messages[i] = goopenai.ChatCompletionMessage{
			Role:    role,
			Content: msg.Content,
		}
	}

	model := p.modelName
	if options.Model != "" {
		model = options.Model
	}

	req := goopenai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: float32(options.Temperature),
	}
	if options.MaxTokens > 0 {
		req.MaxTokens = options.MaxTokens
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		// Normalize API errors so callers can classify transient failures
		// the same way across providers.
		var apiErr *goopenai.APIError
		if errors.As(err, &apiErr) {
			return "", &llm.StatusError{Code: apiErr.HTTPStatusCode, Body: apiErr.Message}
		}
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("openai: empty choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}

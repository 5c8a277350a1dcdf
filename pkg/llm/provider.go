package llm

import (
	"context"
	"errors"
	"fmt"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// Generate sends a single prompt to the model (convenience method)
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)
}

// StatusError is returned by providers when the upstream answered with a
// non-success HTTP status. Callers use it to tell transient failures apart
// from permanent ones.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.Code, e.Body)
}

// IsTransient reports whether an upstream error is worth retrying:
// timeouts, connection failures, 429 and 5xx-class statuses. A 4xx status
// (other than 429) means the request itself is bad and will not improve.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code == 429 || statusErr.Code >= 500
	}
	// Context cancellation of the parent request is not retryable.
	if errors.Is(err, context.Canceled) {
		return false
	}
	// Deadline, DNS and connection errors all land here.
	return true
}

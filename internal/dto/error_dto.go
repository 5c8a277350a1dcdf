package dto

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by services, tools and the HTTP error handler.
// A resource owned by another user is reported with the same not-found
// error as a missing one, so existence never leaks across users.
var (
	ErrTaskNotFound         = errors.New("task not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrUpstreamUnavailable  = errors.New("assistant is temporarily unavailable")
)

// ValidationError carries the reason a request was rejected before any
// business logic ran.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Reason)
}

// RateLimitedError carries machine-readable throttle guidance so a
// well-behaved client can self-schedule the retry.
type RateLimitedError struct {
	RetryAfterSeconds int `json:"retry_after_seconds"`
	Limit             int `json:"limit"`
	Remaining         int `json:"remaining"`
	ResetAfterSeconds int `json:"reset_after_seconds"`
}

func (e *RateLimitedError) Error() string {
	return "rate limit exceeded"
}

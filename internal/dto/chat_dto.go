package dto

import (
	"time"

	"ai-todo-agent-be/internal/entity"

	"github.com/google/uuid"
)

type SendChatRequest struct {
	// ConversationId is a conversation uuid, "latest", or empty. Empty and
	// "latest" both resolve to the most recently active conversation,
	// creating one if the caller has none.
	ConversationId string `json:"conversation_id,omitempty"`
	Message        string `json:"message" validate:"required"`
}

type ToolInvocationDTO struct {
	Tool      string                 `json:"tool"`
	Arguments map[string]interface{} `json:"arguments,omitempty"`
	Status    string                 `json:"status"`
	Result    interface{}            `json:"result,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

func ToolInvocationsFromEntity(records []entity.ToolInvocationRecord) []ToolInvocationDTO {
	if len(records) == 0 {
		return nil
	}
	out := make([]ToolInvocationDTO, len(records))
	for i, r := range records {
		out[i] = ToolInvocationDTO{
			Tool:      r.Tool,
			Arguments: r.Arguments,
			Status:    r.Status,
			Result:    r.Result,
			Error:     r.Error,
		}
	}
	return out
}

type SendChatResponse struct {
	ConversationId  uuid.UUID           `json:"conversation_id"`
	Reply           string              `json:"reply"`
	ToolInvocations []ToolInvocationDTO `json:"tool_invocations,omitempty"`
}

type ConversationResponse struct {
	Id             uuid.UUID `json:"id"`
	Title          string    `json:"title"`
	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
}

type MessageResponse struct {
	Id              uuid.UUID           `json:"id"`
	Role            string              `json:"role"`
	Content         string              `json:"content"`
	ToolInvocations []ToolInvocationDTO `json:"tool_invocations,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
}

type ListMessagesResponse struct {
	ConversationId uuid.UUID          `json:"conversation_id"`
	Messages       []*MessageResponse `json:"messages"`
	Total          int64              `json:"total"`
}

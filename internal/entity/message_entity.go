package entity

import (
	"time"

	"github.com/google/uuid"
)

// ToolInvocationRecord captures one tool execution attempted during an
// assistant turn. It is embedded in the message, never stored standalone.
type ToolInvocationRecord struct {
	Tool      string                 `json:"tool"`
	Arguments map[string]interface{} `json:"arguments"`
	Status    string                 `json:"status"` // "success" | "failed"
	Result    interface{}            `json:"result,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

type Message struct {
	Id              uuid.UUID
	ConversationId  uuid.UUID
	Role            string
	Content         string
	ToolInvocations []ToolInvocationRecord
	Seq             int64
	CreatedAt       time.Time
}

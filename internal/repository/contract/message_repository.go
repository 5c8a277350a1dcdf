package contract

import (
	"context"

	"ai-todo-agent-be/internal/entity"
	"ai-todo-agent-be/internal/repository/specification"

	"github.com/google/uuid"
)

type MessageRepository interface {
	// Create persists an append-only message. Seq must already be assigned
	// via NextSeq inside the same transaction.
	Create(ctx context.Context, message *entity.Message) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// NextSeq returns the next monotonic sequence number for a conversation.
	NextSeq(ctx context.Context, conversationId uuid.UUID) (int64, error)
	DeleteByConversationId(ctx context.Context, conversationId uuid.UUID) error
}

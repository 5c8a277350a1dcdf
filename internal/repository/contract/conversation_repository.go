package contract

import (
	"context"

	"ai-todo-agent-be/internal/entity"
	"ai-todo-agent-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ConversationRepository interface {
	Create(ctx context.Context, conversation *entity.Conversation) error
	Update(ctx context.Context, conversation *entity.Conversation) error
	// Archive soft-deletes a conversation (removes it from the active
	// listing without destroying history).
	Archive(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Conversation, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Conversation, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// TouchActivity bumps the last-activity timestamp without rewriting
	// the rest of the row.
	TouchActivity(ctx context.Context, id uuid.UUID) error
}

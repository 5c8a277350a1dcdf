package contract

import (
	"context"

	"ai-todo-agent-be/internal/entity"
	"ai-todo-agent-be/internal/repository/specification"

	"github.com/google/uuid"
)

type TaskRepository interface {
	Create(ctx context.Context, task *entity.Task) error
	Update(ctx context.Context, task *entity.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Task, error)
	// FindOneUnscoped also sees soft-deleted rows. Needed to distinguish
	// "already deleted" (idempotent success) from "never existed".
	FindOneUnscoped(ctx context.Context, specs ...specification.Specification) (*entity.Task, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Task, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}

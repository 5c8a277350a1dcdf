package tools

import (
	"context"

	"ai-todo-agent-be/internal/entity"

	"github.com/google/uuid"
)

// TaskAdapter is the seam to task persistence. Every method takes the
// authenticated user id explicitly; implementations must scope all reads
// and writes by it and report foreign-owned ids as dto.ErrTaskNotFound.
type TaskAdapter interface {
	CreateTask(ctx context.Context, userId uuid.UUID, title, description string) (*entity.Task, error)
	ListTasks(ctx context.Context, userId uuid.UUID, completed *bool) ([]*entity.Task, error)
	UpdateTask(ctx context.Context, userId, taskId uuid.UUID, title, description *string) (*entity.Task, error)
	DeleteTask(ctx context.Context, userId, taskId uuid.UUID) error
	SetTaskCompletion(ctx context.Context, userId, taskId uuid.UUID, completed bool) (*entity.Task, error)
}

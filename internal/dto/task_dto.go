package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateTaskRequest struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description"`
}

type UpdateTaskRequest struct {
	Id          uuid.UUID
	Title       *string `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
}

type CompleteTaskRequest struct {
	Id        uuid.UUID
	Completed *bool `json:"completed" validate:"required"`
}

type TaskResponse struct {
	Id          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

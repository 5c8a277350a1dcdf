package tools

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Argument shapes for the five tools. Model output is loosely-typed JSON,
// so every shape is decoded strictly (unknown fields rejected) and then
// validated before any store call. Nothing is trusted structurally.

const maxTitleLen = 255

type AddTaskArgs struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

func (a *AddTaskArgs) Validate() error {
	a.Title = strings.TrimSpace(a.Title)
	if a.Title == "" {
		return fmt.Errorf("title is required")
	}
	if len(a.Title) > maxTitleLen {
		return fmt.Errorf("title exceeds %d characters", maxTitleLen)
	}
	return nil
}

type ListTasksArgs struct {
	Completed *bool `json:"completed,omitempty"`
}

func (a *ListTasksArgs) Validate() error {
	return nil
}

type UpdateTaskArgs struct {
	TaskId      string  `json:"task_id"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`

	parsedId uuid.UUID
}

func (a *UpdateTaskArgs) Validate() error {
	id, err := parseTaskId(a.TaskId)
	if err != nil {
		return err
	}
	a.parsedId = id
	if a.Title == nil && a.Description == nil {
		return fmt.Errorf("at least one of title or description is required")
	}
	if a.Title != nil {
		trimmed := strings.TrimSpace(*a.Title)
		if trimmed == "" {
			return fmt.Errorf("title cannot be empty")
		}
		if len(trimmed) > maxTitleLen {
			return fmt.Errorf("title exceeds %d characters", maxTitleLen)
		}
		a.Title = &trimmed
	}
	return nil
}

type DeleteTaskArgs struct {
	TaskId string `json:"task_id"`

	parsedId uuid.UUID
}

func (a *DeleteTaskArgs) Validate() error {
	id, err := parseTaskId(a.TaskId)
	if err != nil {
		return err
	}
	a.parsedId = id
	return nil
}

type CompleteTaskArgs struct {
	TaskId    string `json:"task_id"`
	Completed *bool  `json:"completed"`

	parsedId uuid.UUID
}

func (a *CompleteTaskArgs) Validate() error {
	id, err := parseTaskId(a.TaskId)
	if err != nil {
		return err
	}
	a.parsedId = id
	if a.Completed == nil {
		return fmt.Errorf("completed is required")
	}
	return nil
}

func parseTaskId(raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, fmt.Errorf("task_id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("task_id is not a valid id")
	}
	return id, nil
}

// decodeStrict unmarshals raw JSON into v, rejecting unknown fields.
func decodeStrict(raw json.RawMessage, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("malformed arguments: %v", err)
	}
	return nil
}

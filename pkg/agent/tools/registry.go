package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ai-todo-agent-be/internal/dto"
	"ai-todo-agent-be/internal/entity"

	"github.com/google/uuid"
)

// The fixed five-tool set. Anything else proposed by the model is dropped
// before it can reach the task store.
const (
	ToolAddTask      = "add_task"
	ToolListTasks    = "list_tasks"
	ToolUpdateTask   = "update_task"
	ToolDeleteTask   = "delete_task"
	ToolCompleteTask = "complete_task"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Failure kinds, distinguishable by callers. A task owned by another user
// reports as FailureNotFound, identical to a missing one.
const (
	FailureValidation = "validation"
	FailureNotFound   = "not_found"
	FailureInternal   = "internal"
)

var knownTools = map[string]bool{
	ToolAddTask:      true,
	ToolListTasks:    true,
	ToolUpdateTask:   true,
	ToolDeleteTask:   true,
	ToolCompleteTask: true,
}

// IsKnown reports whether name belongs to the fixed tool set.
func IsKnown(name string) bool {
	return knownTools[name]
}

// Names returns the allowlisted tool names.
func Names() []string {
	return []string{ToolAddTask, ToolListTasks, ToolUpdateTask, ToolDeleteTask, ToolCompleteTask}
}

// TaskView is the task shape exposed in tool results and invocation records.
type TaskView struct {
	Id          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Completed   bool      `json:"completed"`
}

func taskView(t *entity.Task) TaskView {
	return TaskView{
		Id:          t.Id,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
	}
}

// Outcome is the result of one tool invocation: either a success payload or
// a typed failure, plus a human sentence used in the confirmation reply.
type Outcome struct {
	Tool        string
	Arguments   map[string]interface{}
	Status      string
	FailureKind string
	Error       string
	Result      interface{}
	Summary     string
}

func (o Outcome) Succeeded() bool {
	return o.Status == StatusSuccess
}

// Registry maps the five tools onto the TaskAdapter. The authenticated
// userId is injected here on every call: the model chooses what to do,
// never on whose data to do it.
type Registry struct {
	adapter TaskAdapter
}

func NewRegistry(adapter TaskAdapter) *Registry {
	return &Registry{adapter: adapter}
}

// Invoke validates the argument bundle and executes the named tool as
// userId. Unknown tool names fail with a validation outcome; the resolver
// is expected to have filtered them already.
func (r *Registry) Invoke(ctx context.Context, userId uuid.UUID, name string, rawArgs json.RawMessage) Outcome {
	out := Outcome{Tool: name, Arguments: argumentMap(rawArgs)}

	if !IsKnown(name) {
		return failed(out, FailureValidation, fmt.Sprintf("unknown tool %q", name), "I can't do that.")
	}

	switch name {
	case ToolAddTask:
		return r.addTask(ctx, userId, rawArgs, out)
	case ToolListTasks:
		return r.listTasks(ctx, userId, rawArgs, out)
	case ToolUpdateTask:
		return r.updateTask(ctx, userId, rawArgs, out)
	case ToolDeleteTask:
		return r.deleteTask(ctx, userId, rawArgs, out)
	case ToolCompleteTask:
		return r.completeTask(ctx, userId, rawArgs, out)
	}
	// Unreachable: IsKnown covers the switch.
	return failed(out, FailureInternal, "unhandled tool", "Something went wrong.")
}

func (r *Registry) addTask(ctx context.Context, userId uuid.UUID, rawArgs json.RawMessage, out Outcome) Outcome {
	var args AddTaskArgs
	if err := decodeStrict(rawArgs, &args); err != nil {
		return failed(out, FailureValidation, err.Error(), "I couldn't add that task: the request was malformed.")
	}
	if err := args.Validate(); err != nil {
		return failed(out, FailureValidation, err.Error(), fmt.Sprintf("I couldn't add that task: %s.", err))
	}

	task, err := r.adapter.CreateTask(ctx, userId, args.Title, args.Description)
	if err != nil {
		return storeFailure(out, err, "add the task")
	}

	out.Status = StatusSuccess
	out.Result = taskView(task)
	out.Summary = fmt.Sprintf("I added the task %q.", task.Title)
	return out
}

func (r *Registry) listTasks(ctx context.Context, userId uuid.UUID, rawArgs json.RawMessage, out Outcome) Outcome {
	var args ListTasksArgs
	if len(rawArgs) > 0 {
		if err := decodeStrict(rawArgs, &args); err != nil {
			return failed(out, FailureValidation, err.Error(), "I couldn't list your tasks: the request was malformed.")
		}
	}

	tasks, err := r.adapter.ListTasks(ctx, userId, args.Completed)
	if err != nil {
		return storeFailure(out, err, "list your tasks")
	}

	views := make([]TaskView, len(tasks))
	for i, t := range tasks {
		views[i] = taskView(t)
	}

	out.Status = StatusSuccess
	out.Result = views
	out.Summary = listSummary(views)
	return out
}

func (r *Registry) updateTask(ctx context.Context, userId uuid.UUID, rawArgs json.RawMessage, out Outcome) Outcome {
	var args UpdateTaskArgs
	if err := decodeStrict(rawArgs, &args); err != nil {
		return failed(out, FailureValidation, err.Error(), "I couldn't update that task: the request was malformed.")
	}
	if err := args.Validate(); err != nil {
		return failed(out, FailureValidation, err.Error(), fmt.Sprintf("I couldn't update that task: %s.", err))
	}

	task, err := r.adapter.UpdateTask(ctx, userId, args.parsedId, args.Title, args.Description)
	if err != nil {
		return storeFailure(out, err, "update that task")
	}

	out.Status = StatusSuccess
	out.Result = taskView(task)
	out.Summary = fmt.Sprintf("I updated the task %q.", task.Title)
	return out
}

func (r *Registry) deleteTask(ctx context.Context, userId uuid.UUID, rawArgs json.RawMessage, out Outcome) Outcome {
	var args DeleteTaskArgs
	if err := decodeStrict(rawArgs, &args); err != nil {
		return failed(out, FailureValidation, err.Error(), "I couldn't delete that task: the request was malformed.")
	}
	if err := args.Validate(); err != nil {
		return failed(out, FailureValidation, err.Error(), fmt.Sprintf("I couldn't delete that task: %s.", err))
	}

	if err := r.adapter.DeleteTask(ctx, userId, args.parsedId); err != nil {
		return storeFailure(out, err, "delete that task")
	}

	out.Status = StatusSuccess
	out.Summary = "I deleted the task."
	return out
}

func (r *Registry) completeTask(ctx context.Context, userId uuid.UUID, rawArgs json.RawMessage, out Outcome) Outcome {
	var args CompleteTaskArgs
	if err := decodeStrict(rawArgs, &args); err != nil {
		return failed(out, FailureValidation, err.Error(), "I couldn't change that task: the request was malformed.")
	}
	if err := args.Validate(); err != nil {
		return failed(out, FailureValidation, err.Error(), fmt.Sprintf("I couldn't change that task: %s.", err))
	}

	task, err := r.adapter.SetTaskCompletion(ctx, userId, args.parsedId, *args.Completed)
	if err != nil {
		return storeFailure(out, err, "change that task")
	}

	out.Status = StatusSuccess
	out.Result = taskView(task)
	if task.Completed {
		out.Summary = fmt.Sprintf("I marked %q as done.", task.Title)
	} else {
		out.Summary = fmt.Sprintf("I marked %q as not done.", task.Title)
	}
	return out
}

func listSummary(views []TaskView) string {
	switch len(views) {
	case 0:
		return "You have no tasks right now."
	case 1:
		return "You have 1 task."
	default:
		return fmt.Sprintf("You have %d tasks.", len(views))
	}
}

func failed(out Outcome, kind, errMsg, summary string) Outcome {
	out.Status = StatusFailed
	out.FailureKind = kind
	out.Error = errMsg
	out.Summary = summary
	return out
}

func storeFailure(out Outcome, err error, action string) Outcome {
	if errors.Is(err, dto.ErrTaskNotFound) {
		return failed(out, FailureNotFound, err.Error(), fmt.Sprintf("I couldn't %s: I couldn't find it.", action))
	}
	return failed(out, FailureInternal, err.Error(), fmt.Sprintf("I couldn't %s right now.", action))
}

func argumentMap(rawArgs json.RawMessage) map[string]interface{} {
	if len(rawArgs) == 0 {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(rawArgs, &m); err != nil {
		return map[string]interface{}{"_raw": string(rawArgs)}
	}
	return m
}

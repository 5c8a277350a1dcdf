package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"ai-todo-agent-be/internal/dto"
	"ai-todo-agent-be/internal/entity"

	"github.com/google/uuid"
)

// fakeAdapter keeps tasks in a map and records which userId each call was
// scoped to.
type fakeAdapter struct {
	tasks       map[uuid.UUID]*entity.Task
	lastUserId  uuid.UUID
	failWith    error
	deletedOnce map[uuid.UUID]bool
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{
		tasks:       make(map[uuid.UUID]*entity.Task),
		deletedOnce: make(map[uuid.UUID]bool),
	}
}

func (f *fakeAdapter) CreateTask(_ context.Context, userId uuid.UUID, title, description string) (*entity.Task, error) {
	f.lastUserId = userId
	if f.failWith != nil {
		return nil, f.failWith
	}
	task := &entity.Task{Id: uuid.New(), UserId: userId, Title: title, Description: description}
	f.tasks[task.Id] = task
	return task, nil
}

func (f *fakeAdapter) ListTasks(_ context.Context, userId uuid.UUID, completed *bool) ([]*entity.Task, error) {
	f.lastUserId = userId
	if f.failWith != nil {
		return nil, f.failWith
	}
	var out []*entity.Task
	for _, t := range f.tasks {
		if t.UserId != userId {
			continue
		}
		if completed != nil && t.Completed != *completed {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeAdapter) UpdateTask(_ context.Context, userId, taskId uuid.UUID, title, description *string) (*entity.Task, error) {
	f.lastUserId = userId
	task, ok := f.tasks[taskId]
	if !ok || task.UserId != userId {
		return nil, dto.ErrTaskNotFound
	}
	if title != nil {
		task.Title = *title
	}
	if description != nil {
		task.Description = *description
	}
	return task, nil
}

func (f *fakeAdapter) DeleteTask(_ context.Context, userId, taskId uuid.UUID) error {
	f.lastUserId = userId
	task, ok := f.tasks[taskId]
	if !ok || task.UserId != userId {
		if f.deletedOnce[taskId] {
			return nil
		}
		return dto.ErrTaskNotFound
	}
	delete(f.tasks, taskId)
	f.deletedOnce[taskId] = true
	return nil
}

func (f *fakeAdapter) SetTaskCompletion(_ context.Context, userId, taskId uuid.UUID, completed bool) (*entity.Task, error) {
	f.lastUserId = userId
	task, ok := f.tasks[taskId]
	if !ok || task.UserId != userId {
		return nil, dto.ErrTaskNotFound
	}
	task.Completed = completed
	return task, nil
}

func TestInvokeAddTask(t *testing.T) {
	adapter := newFakeAdapter()
	registry := NewRegistry(adapter)
	userId := uuid.New()

	out := registry.Invoke(context.Background(), userId, ToolAddTask, json.RawMessage(`{"title": "Buy milk"}`))

	if !out.Succeeded() {
		t.Fatalf("expected success, got %q (%s)", out.Status, out.Error)
	}
	if adapter.lastUserId != userId {
		t.Errorf("adapter called as %s, want %s", adapter.lastUserId, userId)
	}
	view, ok := out.Result.(TaskView)
	if !ok {
		t.Fatalf("Result is %T, want TaskView", out.Result)
	}
	if view.Title != "Buy milk" {
		t.Errorf("Title = %q", view.Title)
	}
}

func TestInvokeValidation(t *testing.T) {
	registry := NewRegistry(newFakeAdapter())
	userId := uuid.New()

	tests := []struct {
		name string
		tool string
		args string
	}{
		{"empty title", ToolAddTask, `{"title": "   "}`},
		{"unknown field", ToolAddTask, `{"title": "x", "user_id": "evil"}`},
		{"bad task id", ToolDeleteTask, `{"task_id": "not-a-uuid"}`},
		{"missing completed", ToolCompleteTask, fmt.Sprintf(`{"task_id": %q}`, uuid.New())},
		{"update with no changes", ToolUpdateTask, fmt.Sprintf(`{"task_id": %q}`, uuid.New())},
		{"malformed json", ToolListTasks, `{"completed": `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := registry.Invoke(context.Background(), userId, tt.tool, json.RawMessage(tt.args))
			if out.Succeeded() {
				t.Fatal("expected failure")
			}
			if out.FailureKind != FailureValidation {
				t.Errorf("FailureKind = %q, want %q", out.FailureKind, FailureValidation)
			}
		})
	}
}

func TestInvokeUnknownTool(t *testing.T) {
	registry := NewRegistry(newFakeAdapter())

	out := registry.Invoke(context.Background(), uuid.New(), "drop_database", nil)
	if out.Succeeded() || out.FailureKind != FailureValidation {
		t.Fatalf("unknown tool must fail validation, got %+v", out)
	}
}

func TestInvokeUserIdCannotBeOverridden(t *testing.T) {
	adapter := newFakeAdapter()
	registry := NewRegistry(adapter)
	userId := uuid.New()

	// A user_id smuggled into the arguments must be rejected, not honored.
	out := registry.Invoke(context.Background(), userId, ToolAddTask,
		json.RawMessage(fmt.Sprintf(`{"title": "x", "user_id": %q}`, uuid.New())))

	if out.Succeeded() {
		t.Fatal("expected strict decoding to reject extra user_id field")
	}
	if len(adapter.tasks) != 0 {
		t.Error("no task should have been created")
	}
}

func TestInvokeForeignTaskIsNotFound(t *testing.T) {
	adapter := newFakeAdapter()
	registry := NewRegistry(adapter)

	owner := uuid.New()
	task, _ := adapter.CreateTask(context.Background(), owner, "secret", "")

	out := registry.Invoke(context.Background(), uuid.New(), ToolCompleteTask,
		json.RawMessage(fmt.Sprintf(`{"task_id": %q, "completed": true}`, task.Id)))

	if out.Succeeded() {
		t.Fatal("expected failure")
	}
	if out.FailureKind != FailureNotFound {
		t.Errorf("FailureKind = %q, want %q", out.FailureKind, FailureNotFound)
	}
	if adapter.tasks[task.Id].Completed {
		t.Error("foreign task must not be modified")
	}
}

func TestInvokeDeleteIsIdempotent(t *testing.T) {
	adapter := newFakeAdapter()
	registry := NewRegistry(adapter)
	userId := uuid.New()

	task, _ := adapter.CreateTask(context.Background(), userId, "ephemeral", "")
	args := json.RawMessage(fmt.Sprintf(`{"task_id": %q}`, task.Id))

	first := registry.Invoke(context.Background(), userId, ToolDeleteTask, args)
	second := registry.Invoke(context.Background(), userId, ToolDeleteTask, args)

	if !first.Succeeded() || !second.Succeeded() {
		t.Fatalf("both deletes should succeed, got %q then %q", first.Status, second.Status)
	}
}

func TestInvokeListWithFilter(t *testing.T) {
	adapter := newFakeAdapter()
	registry := NewRegistry(adapter)
	userId := uuid.New()

	done, _ := adapter.CreateTask(context.Background(), userId, "done", "")
	done.Completed = true
	adapter.CreateTask(context.Background(), userId, "pending", "")

	out := registry.Invoke(context.Background(), userId, ToolListTasks, json.RawMessage(`{"completed": true}`))

	if !out.Succeeded() {
		t.Fatalf("expected success, got %s", out.Error)
	}
	views := out.Result.([]TaskView)
	if len(views) != 1 || views[0].Title != "done" {
		t.Errorf("views = %+v, want just the completed one", views)
	}
}

func TestInvokeStoreFailure(t *testing.T) {
	adapter := newFakeAdapter()
	adapter.failWith = fmt.Errorf("connection refused")
	registry := NewRegistry(adapter)

	out := registry.Invoke(context.Background(), uuid.New(), ToolAddTask, json.RawMessage(`{"title": "x"}`))

	if out.Succeeded() {
		t.Fatal("expected failure")
	}
	if out.FailureKind != FailureInternal {
		t.Errorf("FailureKind = %q, want %q", out.FailureKind, FailureInternal)
	}
	if out.Summary == "" {
		t.Error("failed outcome must still carry a user-facing summary")
	}
}

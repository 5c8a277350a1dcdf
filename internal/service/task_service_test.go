package service

import (
	"context"
	"errors"
	"testing"

	"ai-todo-agent-be/internal/dto"
	"ai-todo-agent-be/internal/pkg/logger"

	"github.com/google/uuid"
)

func newTestTaskService() ITaskService {
	return NewTaskService(newFakeFactory(), &logger.NopLogger{})
}

func TestTaskServiceCreateAndList(t *testing.T) {
	svc := newTestTaskService()
	ctx := context.Background()
	userId := uuid.New()

	created, err := svc.CreateTask(ctx, userId, "Buy milk", "2 liters")
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if created.Id == uuid.Nil {
		t.Error("task id not assigned")
	}

	tasks, err := svc.ListTasks(ctx, userId, nil)
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "Buy milk" {
		t.Errorf("tasks = %+v", tasks)
	}
}

func TestTaskServiceListFiltersByCompletion(t *testing.T) {
	svc := newTestTaskService()
	ctx := context.Background()
	userId := uuid.New()

	done, _ := svc.CreateTask(ctx, userId, "done", "")
	svc.CreateTask(ctx, userId, "pending", "")
	if _, err := svc.SetTaskCompletion(ctx, userId, done.Id, true); err != nil {
		t.Fatalf("SetTaskCompletion: %v", err)
	}

	completed := true
	tasks, err := svc.ListTasks(ctx, userId, &completed)
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "done" {
		t.Errorf("tasks = %+v, want only the completed one", tasks)
	}
}

func TestTaskServiceCrossUserIsolation(t *testing.T) {
	svc := newTestTaskService()
	ctx := context.Background()
	owner := uuid.New()
	stranger := uuid.New()

	task, _ := svc.CreateTask(ctx, owner, "secret", "")

	newTitle := "stolen"
	if _, err := svc.UpdateTask(ctx, stranger, task.Id, &newTitle, nil); !errors.Is(err, dto.ErrTaskNotFound) {
		t.Errorf("UpdateTask err = %v, want ErrTaskNotFound", err)
	}
	if err := svc.DeleteTask(ctx, stranger, task.Id); !errors.Is(err, dto.ErrTaskNotFound) {
		t.Errorf("DeleteTask err = %v, want ErrTaskNotFound", err)
	}
	if _, err := svc.SetTaskCompletion(ctx, stranger, task.Id, true); !errors.Is(err, dto.ErrTaskNotFound) {
		t.Errorf("SetTaskCompletion err = %v, want ErrTaskNotFound", err)
	}

	tasks, _ := svc.ListTasks(ctx, stranger, nil)
	if len(tasks) != 0 {
		t.Errorf("stranger sees %d tasks, want 0", len(tasks))
	}

	// The owner's task is untouched by all of the above.
	kept, err := svc.ListTasks(ctx, owner, nil)
	if err != nil || len(kept) != 1 || kept[0].Title != "secret" || kept[0].Completed {
		t.Errorf("owner tasks = %+v, err = %v", kept, err)
	}
}

func TestTaskServiceDeleteIsIdempotent(t *testing.T) {
	svc := newTestTaskService()
	ctx := context.Background()
	userId := uuid.New()

	task, _ := svc.CreateTask(ctx, userId, "ephemeral", "")

	if err := svc.DeleteTask(ctx, userId, task.Id); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := svc.DeleteTask(ctx, userId, task.Id); err != nil {
		t.Fatalf("second delete of same task: %v", err)
	}

	// A task that never existed is still not-found.
	if err := svc.DeleteTask(ctx, userId, uuid.New()); !errors.Is(err, dto.ErrTaskNotFound) {
		t.Errorf("delete of unknown id: %v, want ErrTaskNotFound", err)
	}
}

func TestTaskServiceCompletionIsIdempotent(t *testing.T) {
	svc := newTestTaskService()
	ctx := context.Background()
	userId := uuid.New()

	task, _ := svc.CreateTask(ctx, userId, "repeat", "")

	first, err := svc.SetTaskCompletion(ctx, userId, task.Id, true)
	if err != nil {
		t.Fatalf("SetTaskCompletion: %v", err)
	}
	second, err := svc.SetTaskCompletion(ctx, userId, task.Id, true)
	if err != nil {
		t.Fatalf("repeated SetTaskCompletion: %v", err)
	}
	if !first.Completed || !second.Completed {
		t.Errorf("completed = %v then %v, want true both times", first.Completed, second.Completed)
	}
}

func TestTaskServiceUpdatePartialFields(t *testing.T) {
	svc := newTestTaskService()
	ctx := context.Background()
	userId := uuid.New()

	task, _ := svc.CreateTask(ctx, userId, "original", "keep me")

	newTitle := "renamed"
	updated, err := svc.UpdateTask(ctx, userId, task.Id, &newTitle, nil)
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if updated.Title != "renamed" {
		t.Errorf("Title = %q", updated.Title)
	}
	if updated.Description != "keep me" {
		t.Errorf("Description = %q, want unchanged", updated.Description)
	}
}

func TestTaskServiceDTORoundTrip(t *testing.T) {
	svc := newTestTaskService()
	ctx := context.Background()
	userId := uuid.New()

	res, err := svc.Create(ctx, userId, &dto.CreateTaskRequest{Title: "from rest", Description: "via dto"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	completed := true
	done, err := svc.Complete(ctx, userId, &dto.CompleteTaskRequest{Id: res.Id, Completed: &completed})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !done.Completed {
		t.Error("Completed = false after complete")
	}

	if err := svc.Remove(ctx, userId, res.Id); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	listed, _ := svc.List(ctx, userId, nil)
	if len(listed) != 0 {
		t.Errorf("List after delete = %d items, want 0", len(listed))
	}
}

package service

import (
	"context"
	"time"

	"ai-todo-agent-be/internal/dto"
	"ai-todo-agent-be/internal/entity"
	"ai-todo-agent-be/internal/pkg/logger"
	"ai-todo-agent-be/internal/repository/specification"
	"ai-todo-agent-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// ITaskService is the task store adapter: five user-scoped operations used
// both by the REST task API and by the agent's tool registry. All methods
// take the authenticated userId explicitly and report foreign-owned ids as
// dto.ErrTaskNotFound.
type ITaskService interface {
	Create(ctx context.Context, userId uuid.UUID, request *dto.CreateTaskRequest) (*dto.TaskResponse, error)
	List(ctx context.Context, userId uuid.UUID, completed *bool) ([]*dto.TaskResponse, error)
	Update(ctx context.Context, userId uuid.UUID, request *dto.UpdateTaskRequest) (*dto.TaskResponse, error)
	Complete(ctx context.Context, userId uuid.UUID, request *dto.CompleteTaskRequest) (*dto.TaskResponse, error)
	Remove(ctx context.Context, userId, taskId uuid.UUID) error

	// Entity-level operations backing tools.TaskAdapter.
	CreateTask(ctx context.Context, userId uuid.UUID, title, description string) (*entity.Task, error)
	ListTasks(ctx context.Context, userId uuid.UUID, completed *bool) ([]*entity.Task, error)
	UpdateTask(ctx context.Context, userId, taskId uuid.UUID, title, description *string) (*entity.Task, error)
	DeleteTask(ctx context.Context, userId, taskId uuid.UUID) error
	SetTaskCompletion(ctx context.Context, userId, taskId uuid.UUID, completed bool) (*entity.Task, error)
}

type taskService struct {
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
}

func NewTaskService(uowFactory unitofwork.RepositoryFactory, log logger.ILogger) ITaskService {
	return &taskService{
		uowFactory: uowFactory,
		logger:     log,
	}
}

// --- DTO layer (REST controllers) ---

func (s *taskService) Create(ctx context.Context, userId uuid.UUID, request *dto.CreateTaskRequest) (*dto.TaskResponse, error) {
	task, err := s.CreateTask(ctx, userId, request.Title, request.Description)
	if err != nil {
		return nil, err
	}
	return taskResponse(task), nil
}

func (s *taskService) List(ctx context.Context, userId uuid.UUID, completed *bool) ([]*dto.TaskResponse, error) {
	tasks, err := s.ListTasks(ctx, userId, completed)
	if err != nil {
		return nil, err
	}
	responses := make([]*dto.TaskResponse, len(tasks))
	for i, t := range tasks {
		responses[i] = taskResponse(t)
	}
	return responses, nil
}

func (s *taskService) Update(ctx context.Context, userId uuid.UUID, request *dto.UpdateTaskRequest) (*dto.TaskResponse, error) {
	task, err := s.UpdateTask(ctx, userId, request.Id, request.Title, request.Description)
	if err != nil {
		return nil, err
	}
	return taskResponse(task), nil
}

func (s *taskService) Complete(ctx context.Context, userId uuid.UUID, request *dto.CompleteTaskRequest) (*dto.TaskResponse, error) {
	task, err := s.SetTaskCompletion(ctx, userId, request.Id, *request.Completed)
	if err != nil {
		return nil, err
	}
	return taskResponse(task), nil
}

func (s *taskService) Remove(ctx context.Context, userId, taskId uuid.UUID) error {
	return s.DeleteTask(ctx, userId, taskId)
}

// --- Entity layer (tool registry adapter) ---

func (s *taskService) CreateTask(ctx context.Context, userId uuid.UUID, title, description string) (*entity.Task, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	task := &entity.Task{
		Id:          uuid.New(),
		UserId:      userId,
		Title:       title,
		Description: description,
		CreatedAt:   time.Now(),
	}

	if err := uow.TaskRepository().Create(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskService) ListTasks(ctx context.Context, userId uuid.UUID, completed *bool) ([]*entity.Task, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	specs := []specification.Specification{
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: false},
	}
	if completed != nil {
		specs = append(specs, specification.ByCompleted{Completed: *completed})
	}

	return uow.TaskRepository().FindAll(ctx, specs...)
}

func (s *taskService) UpdateTask(ctx context.Context, userId, taskId uuid.UUID, title, description *string) (*entity.Task, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	task, err := s.findOwnedTask(ctx, uow, userId, taskId)
	if err != nil {
		return nil, err
	}

	if title != nil {
		task.Title = *title
	}
	if description != nil {
		task.Description = *description
	}

	if err := uow.TaskRepository().Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskService) DeleteTask(ctx context.Context, userId, taskId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	task, err := uow.TaskRepository().FindOne(ctx,
		specification.ByID{ID: taskId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return err
	}
	if task == nil {
		// Deleting an already-deleted task reflects the end state and
		// succeeds; a task that never belonged to the caller is not-found.
		ghost, err := uow.TaskRepository().FindOneUnscoped(ctx,
			specification.ByID{ID: taskId},
			specification.UserOwnedBy{UserID: userId},
		)
		if err != nil {
			return err
		}
		if ghost != nil && ghost.IsDeleted {
			return nil
		}
		s.auditMiss(ctx, uow, userId, taskId)
		return dto.ErrTaskNotFound
	}

	return uow.TaskRepository().Delete(ctx, taskId)
}

func (s *taskService) SetTaskCompletion(ctx context.Context, userId, taskId uuid.UUID, completed bool) (*entity.Task, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	task, err := s.findOwnedTask(ctx, uow, userId, taskId)
	if err != nil {
		return nil, err
	}

	if task.Completed == completed {
		// Idempotent: repeating the call yields the same end state.
		return task, nil
	}

	task.Completed = completed
	if err := uow.TaskRepository().Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskService) findOwnedTask(ctx context.Context, uow unitofwork.UnitOfWork, userId, taskId uuid.UUID) (*entity.Task, error) {
	task, err := uow.TaskRepository().FindOne(ctx,
		specification.ByID{ID: taskId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if task == nil {
		s.auditMiss(ctx, uow, userId, taskId)
		return nil, dto.ErrTaskNotFound
	}
	return task, nil
}

// auditMiss logs cross-user access attempts distinctly. The caller still
// sees a plain not-found so existence never leaks.
func (s *taskService) auditMiss(ctx context.Context, uow unitofwork.UnitOfWork, userId, taskId uuid.UUID) {
	foreign, err := uow.TaskRepository().FindOne(ctx, specification.ByID{ID: taskId})
	if err != nil || foreign == nil {
		return
	}
	s.logger.Warn("audit", "task access across user boundary", map[string]interface{}{
		"task_id":   taskId.String(),
		"caller_id": userId.String(),
		"owner_id":  foreign.UserId.String(),
	})
}

func taskResponse(t *entity.Task) *dto.TaskResponse {
	return &dto.TaskResponse{
		Id:          t.Id,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

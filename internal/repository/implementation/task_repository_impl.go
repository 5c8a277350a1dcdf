package implementation

import (
	"context"
	"errors"

	"ai-todo-agent-be/internal/entity"
	"ai-todo-agent-be/internal/mapper"
	"ai-todo-agent-be/internal/model"
	"ai-todo-agent-be/internal/repository/contract"
	"ai-todo-agent-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.TaskMapper
}

func NewTaskRepository(db *gorm.DB) contract.TaskRepository {
	return &TaskRepositoryImpl{
		db:     db,
		mapper: mapper.NewTaskMapper(),
	}
}

func (r *TaskRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *TaskRepositoryImpl) Create(ctx context.Context, task *entity.Task) error {
	m := r.mapper.ToModel(task)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*task = *r.mapper.ToEntity(m)
	return nil
}

func (r *TaskRepositoryImpl) Update(ctx context.Context, task *entity.Task) error {
	m := r.mapper.ToModel(task)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*task = *r.mapper.ToEntity(m)
	return nil
}

func (r *TaskRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Task{}, id).Error
}

func (r *TaskRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Task, error) {
	var m model.Task
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *TaskRepositoryImpl) FindOneUnscoped(ctx context.Context, specs ...specification.Specification) (*entity.Task, error) {
	var m model.Task
	query := r.applySpecifications(r.db.WithContext(ctx).Unscoped(), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *TaskRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Task, error) {
	var models []*model.Task
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *TaskRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Task{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

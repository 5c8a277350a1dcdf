package implementation

import (
	"context"
	"errors"
	"time"

	"ai-todo-agent-be/internal/entity"
	"ai-todo-agent-be/internal/mapper"
	"ai-todo-agent-be/internal/model"
	"ai-todo-agent-be/internal/repository/contract"
	"ai-todo-agent-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ConversationRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewConversationRepository(db *gorm.DB) contract.ConversationRepository {
	return &ConversationRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *ConversationRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ConversationRepositoryImpl) Create(ctx context.Context, conversation *entity.Conversation) error {
	m := r.mapper.ConversationToModel(conversation)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*conversation = *r.mapper.ConversationToEntity(m)
	return nil
}

func (r *ConversationRepositoryImpl) Update(ctx context.Context, conversation *entity.Conversation) error {
	m := r.mapper.ConversationToModel(conversation)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*conversation = *r.mapper.ConversationToEntity(m)
	return nil
}

func (r *ConversationRepositoryImpl) Archive(ctx context.Context, id uuid.UUID) error {
	// Soft delete only: history survives, the listing no longer shows it.
	return r.db.WithContext(ctx).Delete(&model.Conversation{}, id).Error
}

func (r *ConversationRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Unscoped().Delete(&model.Conversation{}, id).Error
}

func (r *ConversationRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Conversation, error) {
	var m model.Conversation
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ConversationToEntity(&m), nil
}

func (r *ConversationRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Conversation, error) {
	var models []*model.Conversation
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Conversation, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ConversationToEntity(m)
	}
	return entities, nil
}

func (r *ConversationRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Conversation{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ConversationRepositoryImpl) TouchActivity(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&model.Conversation{}).
		Where("id = ?", id).
		Update("updated_at", time.Now()).Error
}

package implementation

import (
	"context"

	"ai-todo-agent-be/internal/entity"
	"ai-todo-agent-be/internal/mapper"
	"ai-todo-agent-be/internal/model"
	"ai-todo-agent-be/internal/repository/contract"
	"ai-todo-agent-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ChatMapper
}

func NewMessageRepository(db *gorm.DB) contract.MessageRepository {
	return &MessageRepositoryImpl{
		db:     db,
		mapper: mapper.NewChatMapper(),
	}
}

func (r *MessageRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *MessageRepositoryImpl) Create(ctx context.Context, message *entity.Message) error {
	m := r.mapper.MessageToModel(message)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*message = *r.mapper.MessageToEntity(m)
	return nil
}

func (r *MessageRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Message, error) {
	var models []*model.Message
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.MessagesToEntities(models), nil
}

func (r *MessageRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Message{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *MessageRepositoryImpl) NextSeq(ctx context.Context, conversationId uuid.UUID) (int64, error) {
	// Runs inside the append transaction, so concurrent turns on the same
	// conversation still produce a valid total order.
	var maxSeq int64
	err := r.db.WithContext(ctx).
		Model(&model.Message{}).
		Where("conversation_id = ?", conversationId).
		Select("COALESCE(MAX(seq), 0)").
		Scan(&maxSeq).Error
	if err != nil {
		return 0, err
	}
	return maxSeq + 1, nil
}

func (r *MessageRepositoryImpl) DeleteByConversationId(ctx context.Context, conversationId uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationId).
		Delete(&model.Message{}).Error
}

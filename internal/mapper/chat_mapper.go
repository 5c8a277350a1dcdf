package mapper

import (
	"encoding/json"
	"time"

	"ai-todo-agent-be/internal/entity"
	"ai-todo-agent-be/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

// Conversation Mappers

func (m *ChatMapper) ConversationToEntity(c *model.Conversation) *entity.Conversation {
	if c == nil {
		return nil
	}

	var deletedAt *time.Time
	if c.DeletedAt.Valid {
		t := c.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !c.UpdatedAt.IsZero() {
		t := c.UpdatedAt
		updatedAt = &t
	}

	return &entity.Conversation{
		Id:        c.Id,
		UserId:    c.UserId,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: updatedAt,
		DeletedAt: deletedAt,
		IsDeleted: c.DeletedAt.Valid,
	}
}

func (m *ChatMapper) ConversationToModel(c *entity.Conversation) *model.Conversation {
	if c == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if c.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *c.DeletedAt, Valid: true}
	} else if c.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if c.UpdatedAt != nil {
		updatedAt = *c.UpdatedAt
	}

	return &model.Conversation{
		Id:        c.Id,
		UserId:    c.UserId,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: updatedAt,
		DeletedAt: deletedAt,
	}
}

// Message Mappers

func (m *ChatMapper) MessageToEntity(msg *model.Message) *entity.Message {
	if msg == nil {
		return nil
	}

	var invocations []entity.ToolInvocationRecord
	if len(msg.ToolInvocations) > 0 {
		// A malformed row loses its invocation records rather than failing
		// the whole history read.
		_ = json.Unmarshal(msg.ToolInvocations, &invocations)
	}

	return &entity.Message{
		Id:              msg.Id,
		ConversationId:  msg.ConversationId,
		Role:            msg.Role,
		Content:         msg.Content,
		ToolInvocations: invocations,
		Seq:             msg.Seq,
		CreatedAt:       msg.CreatedAt,
	}
}

func (m *ChatMapper) MessageToModel(msg *entity.Message) *model.Message {
	if msg == nil {
		return nil
	}

	var invocations datatypes.JSON
	if len(msg.ToolInvocations) > 0 {
		if raw, err := json.Marshal(msg.ToolInvocations); err == nil {
			invocations = datatypes.JSON(raw)
		}
	}

	return &model.Message{
		Id:              msg.Id,
		ConversationId:  msg.ConversationId,
		Role:            msg.Role,
		Content:         msg.Content,
		ToolInvocations: invocations,
		Seq:             msg.Seq,
		CreatedAt:       msg.CreatedAt,
	}
}

func (m *ChatMapper) MessagesToEntities(msgs []*model.Message) []*entity.Message {
	entities := make([]*entity.Message, len(msgs))
	for i, msg := range msgs {
		entities[i] = m.MessageToEntity(msg)
	}
	return entities
}

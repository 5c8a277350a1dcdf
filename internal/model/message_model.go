package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Messages are append-only: no UpdatedAt column, no soft delete. The
// unique (conversation_id, seq) index makes the per-conversation order a
// total one; concurrent appends that race to the same seq lose the insert
// and retry with a fresh number.
type Message struct {
	Id              uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ConversationId  uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_messages_conversation_seq,priority:1"`
	Role            string         `gorm:"type:varchar(16);not null"`
	Content         string         `gorm:"type:text;not null"`
	ToolInvocations datatypes.JSON `gorm:"type:jsonb"`
	Seq             int64          `gorm:"not null;uniqueIndex:idx_messages_conversation_seq,priority:2"`
	CreatedAt       time.Time      `gorm:"autoCreateTime"`
}

func (Message) TableName() string {
	return "messages"
}

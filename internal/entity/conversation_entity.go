package entity

import (
	"time"

	"github.com/google/uuid"
)

type Conversation struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Title     string
	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
	IsDeleted bool
}

// LastActivity returns the timestamp used for "latest" resolution and for
// cap-eviction ordering.
func (c *Conversation) LastActivity() time.Time {
	if c.UpdatedAt != nil {
		return *c.UpdatedAt
	}
	return c.CreatedAt
}

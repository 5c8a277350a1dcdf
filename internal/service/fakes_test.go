package service

import (
	"context"
	"sort"
	"time"

	"ai-todo-agent-be/internal/entity"
	"ai-todo-agent-be/internal/repository/contract"
	"ai-todo-agent-be/internal/repository/specification"
	"ai-todo-agent-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// memStore is a shared in-memory backing store for the fake repositories.
// Specifications are interpreted by type switch; only the shapes the
// services actually use are supported.
type memStore struct {
	conversations []*entity.Conversation
	messages      []*entity.Message
	tasks         []*entity.Task

	// messageCreateErrs is consumed front-to-back by fakeMessageRepo.Create;
	// a nil entry means the call succeeds.
	messageCreateErrs []error
}

type fakeFactory struct {
	store *memStore
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{store: &memStore{}}
}

func (f *fakeFactory) NewUnitOfWork(_ context.Context) unitofwork.UnitOfWork {
	return &fakeUow{store: f.store}
}

type fakeUow struct {
	store *memStore
}

func (u *fakeUow) Begin(_ context.Context) error { return nil }
func (u *fakeUow) Commit() error                 { return nil }
func (u *fakeUow) Rollback() error               { return nil }

func (u *fakeUow) ConversationRepository() contract.ConversationRepository {
	return &fakeConversationRepo{store: u.store}
}

func (u *fakeUow) MessageRepository() contract.MessageRepository {
	return &fakeMessageRepo{store: u.store}
}

func (u *fakeUow) TaskRepository() contract.TaskRepository {
	return &fakeTaskRepo{store: u.store}
}

// query captures the subset of specification semantics the fakes honor.
type query struct {
	id             *uuid.UUID
	userId         *uuid.UUID
	conversationId *uuid.UUID
	completed      *bool
	orderField     string
	orderDesc      bool
	limit          int
	offset         int
}

func parseSpecs(specs []specification.Specification) query {
	q := query{limit: -1}
	for _, s := range specs {
		switch spec := s.(type) {
		case specification.ByID:
			id := spec.ID
			q.id = &id
		case specification.UserOwnedBy:
			userId := spec.UserID
			q.userId = &userId
		case specification.ByConversationID:
			conversationId := spec.ConversationID
			q.conversationId = &conversationId
		case specification.ByCompleted:
			completed := spec.Completed
			q.completed = &completed
		case specification.OrderBy:
			q.orderField = spec.Field
			q.orderDesc = spec.Desc
		case specification.Pagination:
			q.limit = spec.Limit
			q.offset = spec.Offset
		}
	}
	return q
}

func paginate[T any](items []T, q query) []T {
	if q.offset > 0 {
		if q.offset >= len(items) {
			return nil
		}
		items = items[q.offset:]
	}
	if q.limit >= 0 && q.limit < len(items) {
		items = items[:q.limit]
	}
	return items
}

// --- conversations ---

type fakeConversationRepo struct {
	store *memStore
}

func (r *fakeConversationRepo) match(c *entity.Conversation, q query, unscoped bool) bool {
	if !unscoped && c.IsDeleted {
		return false
	}
	if q.id != nil && c.Id != *q.id {
		return false
	}
	if q.userId != nil && c.UserId != *q.userId {
		return false
	}
	return true
}

func (r *fakeConversationRepo) find(q query) []*entity.Conversation {
	var out []*entity.Conversation
	for _, c := range r.store.conversations {
		if r.match(c, q, false) {
			out = append(out, c)
		}
	}
	if q.orderField == "updated_at" || q.orderField == "created_at" {
		sort.SliceStable(out, func(i, j int) bool {
			a, b := out[i].LastActivity(), out[j].LastActivity()
			if q.orderField == "created_at" {
				a, b = out[i].CreatedAt, out[j].CreatedAt
			}
			if q.orderDesc {
				return a.After(b)
			}
			return a.Before(b)
		})
	}
	return paginate(out, q)
}

func (r *fakeConversationRepo) Create(_ context.Context, conversation *entity.Conversation) error {
	c := *conversation
	r.store.conversations = append(r.store.conversations, &c)
	return nil
}

func (r *fakeConversationRepo) Update(_ context.Context, conversation *entity.Conversation) error {
	now := time.Now()
	for i, c := range r.store.conversations {
		if c.Id == conversation.Id {
			updated := *conversation
			updated.UpdatedAt = &now
			r.store.conversations[i] = &updated
			*conversation = updated
			return nil
		}
	}
	return nil
}

func (r *fakeConversationRepo) Archive(_ context.Context, id uuid.UUID) error {
	now := time.Now()
	for _, c := range r.store.conversations {
		if c.Id == id {
			c.IsDeleted = true
			c.DeletedAt = &now
		}
	}
	return nil
}

func (r *fakeConversationRepo) Delete(_ context.Context, id uuid.UUID) error {
	kept := r.store.conversations[:0]
	for _, c := range r.store.conversations {
		if c.Id != id {
			kept = append(kept, c)
		}
	}
	r.store.conversations = kept
	return nil
}

func (r *fakeConversationRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.Conversation, error) {
	found := r.find(parseSpecs(specs))
	if len(found) == 0 {
		return nil, nil
	}
	c := *found[0]
	return &c, nil
}

func (r *fakeConversationRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.Conversation, error) {
	return r.find(parseSpecs(specs)), nil
}

func (r *fakeConversationRepo) Count(_ context.Context, specs ...specification.Specification) (int64, error) {
	q := parseSpecs(specs)
	q.limit = -1
	q.offset = 0
	return int64(len(r.find(q))), nil
}

func (r *fakeConversationRepo) TouchActivity(_ context.Context, id uuid.UUID) error {
	now := time.Now()
	for _, c := range r.store.conversations {
		if c.Id == id {
			c.UpdatedAt = &now
		}
	}
	return nil
}

// --- messages ---

type fakeMessageRepo struct {
	store *memStore
}

func (r *fakeMessageRepo) find(q query) []*entity.Message {
	var out []*entity.Message
	for _, m := range r.store.messages {
		if q.conversationId != nil && m.ConversationId != *q.conversationId {
			continue
		}
		out = append(out, m)
	}
	if q.orderField == "seq" {
		sort.SliceStable(out, func(i, j int) bool {
			if q.orderDesc {
				return out[i].Seq > out[j].Seq
			}
			return out[i].Seq < out[j].Seq
		})
	}
	return paginate(out, q)
}

func (r *fakeMessageRepo) Create(_ context.Context, message *entity.Message) error {
	if len(r.store.messageCreateErrs) > 0 {
		err := r.store.messageCreateErrs[0]
		r.store.messageCreateErrs = r.store.messageCreateErrs[1:]
		if err != nil {
			return err
		}
	}
	m := *message
	r.store.messages = append(r.store.messages, &m)
	return nil
}

func (r *fakeMessageRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.Message, error) {
	return r.find(parseSpecs(specs)), nil
}

func (r *fakeMessageRepo) Count(_ context.Context, specs ...specification.Specification) (int64, error) {
	q := parseSpecs(specs)
	q.limit = -1
	q.offset = 0
	return int64(len(r.find(q))), nil
}

func (r *fakeMessageRepo) NextSeq(_ context.Context, conversationId uuid.UUID) (int64, error) {
	var max int64
	for _, m := range r.store.messages {
		if m.ConversationId == conversationId && m.Seq > max {
			max = m.Seq
		}
	}
	return max + 1, nil
}

func (r *fakeMessageRepo) DeleteByConversationId(_ context.Context, conversationId uuid.UUID) error {
	kept := r.store.messages[:0]
	for _, m := range r.store.messages {
		if m.ConversationId != conversationId {
			kept = append(kept, m)
		}
	}
	r.store.messages = kept
	return nil
}

// --- tasks ---

type fakeTaskRepo struct {
	store *memStore
}

func (r *fakeTaskRepo) find(q query, unscoped bool) []*entity.Task {
	var out []*entity.Task
	for _, t := range r.store.tasks {
		if !unscoped && t.IsDeleted {
			continue
		}
		if q.id != nil && t.Id != *q.id {
			continue
		}
		if q.userId != nil && t.UserId != *q.userId {
			continue
		}
		if q.completed != nil && t.Completed != *q.completed {
			continue
		}
		out = append(out, t)
	}
	if q.orderField == "created_at" {
		sort.SliceStable(out, func(i, j int) bool {
			if q.orderDesc {
				return out[i].CreatedAt.After(out[j].CreatedAt)
			}
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		})
	}
	return paginate(out, q)
}

func (r *fakeTaskRepo) Create(_ context.Context, task *entity.Task) error {
	t := *task
	r.store.tasks = append(r.store.tasks, &t)
	return nil
}

func (r *fakeTaskRepo) Update(_ context.Context, task *entity.Task) error {
	now := time.Now()
	for i, t := range r.store.tasks {
		if t.Id == task.Id {
			updated := *task
			updated.UpdatedAt = &now
			r.store.tasks[i] = &updated
			*task = updated
			return nil
		}
	}
	return nil
}

func (r *fakeTaskRepo) Delete(_ context.Context, id uuid.UUID) error {
	now := time.Now()
	for _, t := range r.store.tasks {
		if t.Id == id {
			t.IsDeleted = true
			t.DeletedAt = &now
		}
	}
	return nil
}

func (r *fakeTaskRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.Task, error) {
	found := r.find(parseSpecs(specs), false)
	if len(found) == 0 {
		return nil, nil
	}
	t := *found[0]
	return &t, nil
}

func (r *fakeTaskRepo) FindOneUnscoped(_ context.Context, specs ...specification.Specification) (*entity.Task, error) {
	found := r.find(parseSpecs(specs), true)
	if len(found) == 0 {
		return nil, nil
	}
	t := *found[0]
	return &t, nil
}

func (r *fakeTaskRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.Task, error) {
	return r.find(parseSpecs(specs), false), nil
}

func (r *fakeTaskRepo) Count(_ context.Context, specs ...specification.Specification) (int64, error) {
	q := parseSpecs(specs)
	q.limit = -1
	q.offset = 0
	return int64(len(r.find(q, false))), nil
}

package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"ai-todo-agent-be/internal/constant"
	"ai-todo-agent-be/internal/dto"
	"ai-todo-agent-be/internal/entity"
	"ai-todo-agent-be/internal/pkg/logger"
	"ai-todo-agent-be/internal/repository/specification"
	"ai-todo-agent-be/internal/repository/unitofwork"
	"ai-todo-agent-be/pkg/agent"
	"ai-todo-agent-be/pkg/llm"
	"ai-todo-agent-be/pkg/ratelimit"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IntentResolver is the seam between the chat pipeline and the agent. The
// concrete implementation is *agent.Resolver.
type IntentResolver interface {
	Resolve(ctx context.Context, userId uuid.UUID, history []llm.Message, userMessage string) (*agent.Resolution, error)
}

type IChatService interface {
	SendChat(ctx context.Context, userId uuid.UUID, request *dto.SendChatRequest) (*dto.SendChatResponse, error)
	ListConversations(ctx context.Context, userId uuid.UUID, limit int) ([]*dto.ConversationResponse, error)
	ListMessages(ctx context.Context, userId, conversationId uuid.UUID, limit, offset int) (*dto.ListMessagesResponse, error)
	DeleteConversation(ctx context.Context, userId, conversationId uuid.UUID) error
}

// ChatConfig bounds the conversation store and the chat handler.
type ChatConfig struct {
	MaxMessageLen    int
	MaxConversations int
	MessageViewCap   int
	HistoryLimit     int
}

func DefaultChatConfig() ChatConfig {
	return ChatConfig{
		MaxMessageLen:    constant.DefaultMaxMessageLen,
		MaxConversations: constant.DefaultMaxConversations,
		MessageViewCap:   constant.DefaultMessageViewCap,
		HistoryLimit:     20,
	}
}

type chatService struct {
	uowFactory unitofwork.RepositoryFactory
	resolver   IntentResolver
	limiter    ratelimit.Limiter
	logger     logger.ILogger
	cfg        ChatConfig
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	resolver IntentResolver,
	limiter ratelimit.Limiter,
	log logger.ILogger,
	cfg ChatConfig,
) IChatService {
	if cfg.MaxMessageLen <= 0 {
		cfg.MaxMessageLen = constant.DefaultMaxMessageLen
	}
	if cfg.MaxConversations <= 0 {
		cfg.MaxConversations = constant.DefaultMaxConversations
	}
	if cfg.MessageViewCap <= 0 {
		cfg.MessageViewCap = constant.DefaultMessageViewCap
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 20
	}
	return &chatService{
		uowFactory: uowFactory,
		resolver:   resolver,
		limiter:    limiter,
		logger:     log,
		cfg:        cfg,
	}
}

// SendChat runs one full turn: admission, conversation resolution, durable
// user-message append, intent resolution with tool execution, and durable
// assistant-message append. The user message is persisted before the
// upstream call so a failed turn still shows up in history.
func (s *chatService) SendChat(ctx context.Context, userId uuid.UUID, request *dto.SendChatRequest) (*dto.SendChatResponse, error) {
	message := strings.TrimSpace(request.Message)
	if message == "" {
		return nil, &dto.ValidationError{Reason: "message must not be empty"}
	}
	if utf8.RuneCountInString(message) > s.cfg.MaxMessageLen {
		return nil, &dto.ValidationError{Reason: "message exceeds maximum length"}
	}

	if err := s.admit(ctx, userId); err != nil {
		return nil, err
	}

	conversation, err := s.resolveConversation(ctx, userId, request.ConversationId)
	if err != nil {
		return nil, err
	}

	history, err := s.loadHistory(ctx, conversation.Id)
	if err != nil {
		return nil, err
	}

	if err := s.appendMessage(ctx, conversation, &entity.Message{
		Id:             uuid.New(),
		ConversationId: conversation.Id,
		Role:           constant.ChatMessageRoleUser,
		Content:        message,
		CreatedAt:      time.Now(),
	}); err != nil {
		return nil, err
	}

	resolution, err := s.resolver.Resolve(ctx, userId, history, message)
	if err != nil {
		return nil, err
	}

	if err := s.appendMessage(ctx, conversation, &entity.Message{
		Id:              uuid.New(),
		ConversationId:  conversation.Id,
		Role:            constant.ChatMessageRoleAssistant,
		Content:         resolution.Reply,
		ToolInvocations: resolution.Records,
		CreatedAt:       time.Now(),
	}); err != nil {
		return nil, err
	}

	return &dto.SendChatResponse{
		ConversationId:  conversation.Id,
		Reply:           resolution.Reply,
		ToolInvocations: dto.ToolInvocationsFromEntity(resolution.Records),
	}, nil
}

// ListConversations returns the caller's active conversations, most
// recently active first. A non-positive limit falls back to the default
// page size.
func (s *chatService) ListConversations(ctx context.Context, userId uuid.UUID, limit int) ([]*dto.ConversationResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if limit <= 0 {
		limit = constant.DefaultConversationPageSize
	}

	conversations, err := uow.ConversationRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "updated_at", Desc: true},
		specification.Pagination{Limit: limit},
	)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.ConversationResponse, len(conversations))
	for i, c := range conversations {
		responses[i] = conversationResponse(c)
	}
	return responses, nil
}

// ListMessages returns messages oldest-first. With no explicit pagination
// the view is capped to the most recent MessageViewCap messages; older
// ones stay reachable through offset.
func (s *chatService) ListMessages(ctx context.Context, userId, conversationId uuid.UUID, limit, offset int) (*dto.ListMessagesResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if _, err := s.findOwnedConversation(ctx, uow, userId, conversationId); err != nil {
		return nil, err
	}

	total, err := uow.MessageRepository().Count(ctx, specification.ByConversationID{ConversationID: conversationId})
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = s.cfg.MessageViewCap
		if offset == 0 && total > int64(limit) {
			offset = int(total) - limit
		}
	}
	if limit > s.cfg.MessageViewCap {
		limit = s.cfg.MessageViewCap
	}

	messages, err := uow.MessageRepository().FindAll(ctx,
		specification.ByConversationID{ConversationID: conversationId},
		specification.OrderBy{Field: "seq", Desc: false},
		specification.Pagination{Limit: limit, Offset: offset},
	)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.MessageResponse, len(messages))
	for i, m := range messages {
		responses[i] = &dto.MessageResponse{
			Id:              m.Id,
			Role:            m.Role,
			Content:         m.Content,
			ToolInvocations: dto.ToolInvocationsFromEntity(m.ToolInvocations),
			CreatedAt:       m.CreatedAt,
		}
	}

	return &dto.ListMessagesResponse{
		ConversationId: conversationId,
		Messages:       responses,
		Total:          total,
	}, nil
}

// DeleteConversation removes a conversation and its messages for good.
// This is the only path that hard-deletes chat history.
func (s *chatService) DeleteConversation(ctx context.Context, userId, conversationId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if _, err := s.findOwnedConversation(ctx, uow, userId, conversationId); err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.MessageRepository().DeleteByConversationId(ctx, conversationId); err != nil {
		return err
	}
	if err := uow.ConversationRepository().Delete(ctx, conversationId); err != nil {
		return err
	}

	return uow.Commit()
}

// admit consults the rate limiter. A broken limiter backend fails open:
// throttling is protective, not load-bearing, so an outage there must not
// take chat down with it.
func (s *chatService) admit(ctx context.Context, userId uuid.UUID) error {
	result, err := s.limiter.Admit(ctx, userId.String())
	if err != nil {
		s.logger.Warn("chat_service", "rate limiter unavailable, admitting request", map[string]interface{}{
			"user_id": userId.String(),
			"error":   err.Error(),
		})
		return nil
	}
	if !result.Allowed {
		s.logger.Info("chat_service", "request rate limited", map[string]interface{}{
			"user_id":     userId.String(),
			"retry_after": result.RetryAfter.String(),
		})
		return &dto.RateLimitedError{
			RetryAfterSeconds: ceilSeconds(result.RetryAfter),
			Limit:             result.Limit,
			Remaining:         result.Remaining,
			ResetAfterSeconds: ceilSeconds(result.ResetAfter),
		}
	}
	return nil
}

// resolveConversation maps the request's conversation reference to an owned
// conversation: a uuid must exist and belong to the caller, while empty or
// "latest" resumes the most recently active conversation or starts a new one.
func (s *chatService) resolveConversation(ctx context.Context, userId uuid.UUID, reference string) (*entity.Conversation, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	reference = strings.TrimSpace(reference)
	if reference != "" && reference != constant.ConversationIdLatest {
		conversationId, err := uuid.Parse(reference)
		if err != nil {
			return nil, &dto.ValidationError{Reason: "conversation_id must be a uuid or \"latest\""}
		}
		return s.findOwnedConversation(ctx, uow, userId, conversationId)
	}

	latest, err := uow.ConversationRepository().FindOne(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "updated_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}
	if latest != nil {
		return latest, nil
	}

	return s.createConversation(ctx, userId)
}

// createConversation starts an untitled conversation, archiving the least
// recently active one first when the caller is at the cap.
func (s *chatService) createConversation(ctx context.Context, userId uuid.UUID) (*entity.Conversation, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	active, err := uow.ConversationRepository().Count(ctx, specification.UserOwnedBy{UserID: userId})
	if err != nil {
		return nil, err
	}
	for active >= int64(s.cfg.MaxConversations) {
		oldest, err := uow.ConversationRepository().FindOne(ctx,
			specification.UserOwnedBy{UserID: userId},
			specification.OrderBy{Field: "updated_at", Desc: false},
		)
		if err != nil {
			return nil, err
		}
		if oldest == nil {
			break
		}
		if err := uow.ConversationRepository().Archive(ctx, oldest.Id); err != nil {
			return nil, err
		}
		s.logger.Info("chat_service", "conversation archived at cap", map[string]interface{}{
			"user_id":         userId.String(),
			"conversation_id": oldest.Id.String(),
		})
		active--
	}

	conversation := &entity.Conversation{
		Id:        uuid.New(),
		UserId:    userId,
		CreatedAt: time.Now(),
	}
	if err := uow.ConversationRepository().Create(ctx, conversation); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return conversation, nil
}

func (s *chatService) findOwnedConversation(ctx context.Context, uow unitofwork.UnitOfWork, userId, conversationId uuid.UUID) (*entity.Conversation, error) {
	conversation, err := uow.ConversationRepository().FindOne(ctx,
		specification.ByID{ID: conversationId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		s.auditConversationMiss(ctx, uow, userId, conversationId)
		return nil, dto.ErrConversationNotFound
	}
	return conversation, nil
}

func (s *chatService) auditConversationMiss(ctx context.Context, uow unitofwork.UnitOfWork, userId, conversationId uuid.UUID) {
	foreign, err := uow.ConversationRepository().FindOne(ctx, specification.ByID{ID: conversationId})
	if err != nil || foreign == nil {
		return
	}
	s.logger.Warn("audit", "conversation access across user boundary", map[string]interface{}{
		"conversation_id": conversationId.String(),
		"caller_id":       userId.String(),
		"owner_id":        foreign.UserId.String(),
	})
}

// loadHistory returns the most recent turns oldest-first for prompt
// assembly.
func (s *chatService) loadHistory(ctx context.Context, conversationId uuid.UUID) ([]llm.Message, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	messages, err := uow.MessageRepository().FindAll(ctx,
		specification.ByConversationID{ConversationID: conversationId},
		specification.OrderBy{Field: "seq", Desc: true},
		specification.Pagination{Limit: s.cfg.HistoryLimit},
	)
	if err != nil {
		return nil, err
	}

	history := make([]llm.Message, len(messages))
	for i, m := range messages {
		history[len(messages)-1-i] = llm.Message{Role: m.Role, Content: m.Content}
	}
	return history, nil
}

// seqConflictRetries bounds how often an append is retried when two turns
// on the same conversation race to the same sequence number.
const seqConflictRetries = 3

// appendMessage assigns the next sequence number and persists the message
// in one transaction, then bumps the conversation's activity. The unique
// (conversation_id, seq) index rejects a concurrent append that read the
// same max; the loser retries with a fresh number.
func (s *chatService) appendMessage(ctx context.Context, conversation *entity.Conversation, message *entity.Message) error {
	var err error
	for attempt := 0; attempt < seqConflictRetries; attempt++ {
		err = s.appendMessageOnce(ctx, conversation, message)
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}
		s.logger.Info("chat_service", "sequence conflict on append, retrying", map[string]interface{}{
			"conversation_id": conversation.Id.String(),
			"attempt":         attempt + 1,
		})
	}
	return err
}

// appendMessageOnce runs one append transaction. The first user message
// also names the conversation.
func (s *chatService) appendMessageOnce(ctx context.Context, conversation *entity.Conversation, message *entity.Message) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	seq, err := uow.MessageRepository().NextSeq(ctx, conversation.Id)
	if err != nil {
		return err
	}
	message.Seq = seq

	if err := uow.MessageRepository().Create(ctx, message); err != nil {
		return err
	}

	if conversation.Title == "" && message.Role == constant.ChatMessageRoleUser {
		conversation.Title = deriveTitle(message.Content)
		if err := uow.ConversationRepository().Update(ctx, conversation); err != nil {
			return err
		}
	} else if err := uow.ConversationRepository().TouchActivity(ctx, conversation.Id); err != nil {
		return err
	}

	return uow.Commit()
}

// deriveTitle takes the first words of the message up to TitlePrefixLen
// runes, trimming at a word boundary when possible.
func deriveTitle(message string) string {
	message = strings.Join(strings.Fields(message), " ")
	if utf8.RuneCountInString(message) <= constant.TitlePrefixLen {
		return message
	}
	runes := []rune(message)
	cut := string(runes[:constant.TitlePrefixLen])
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut
}

func conversationResponse(c *entity.Conversation) *dto.ConversationResponse {
	return &dto.ConversationResponse{
		Id:             c.Id,
		Title:          c.Title,
		CreatedAt:      c.CreatedAt,
		LastActivityAt: c.LastActivity(),
	}
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	secs := int(d / time.Second)
	if d%time.Second != 0 {
		secs++
	}
	return secs
}

package controller

import (
	"strconv"

	"ai-todo-agent-be/internal/dto"
	"ai-todo-agent-be/internal/pkg/serverutils"
	"ai-todo-agent-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Send(ctx *fiber.Ctx) error
	ListConversations(ctx *fiber.Ctx) error
	ListMessages(ctx *fiber.Ctx) error
	DeleteConversation(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
}

func NewChatController(chatService service.IChatService) IChatController {
	return &chatController{
		chatService: chatService,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("send", c.Send)
	h.Get("conversations", c.ListConversations)
	h.Get("conversations/:id/messages", c.ListMessages)
	h.Delete("conversations/:id", c.DeleteConversation)
}

func (c *chatController) Send(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.SendChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.SendChat(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success send chat", res))
}

func (c *chatController) ListConversations(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	limit, _ := strconv.Atoi(ctx.Query("limit", "0"))

	res, err := c.chatService.ListConversations(ctx.Context(), userId, limit)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list conversations", res))
}

func (c *chatController) ListMessages(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	idParam := ctx.Params("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		return dto.ErrConversationNotFound
	}

	limit, _ := strconv.Atoi(ctx.Query("limit", "0"))
	offset, _ := strconv.Atoi(ctx.Query("offset", "0"))

	res, err := c.chatService.ListMessages(ctx.Context(), userId, id, limit, offset)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list messages", res))
}

func (c *chatController) DeleteConversation(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	idParam := ctx.Params("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		return dto.ErrConversationNotFound
	}

	if err := c.chatService.DeleteConversation(ctx.Context(), userId, id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete conversation", nil))
}

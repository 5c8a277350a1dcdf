package controller

import (
	"ai-todo-agent-be/internal/dto"
	"ai-todo-agent-be/internal/pkg/serverutils"
	"ai-todo-agent-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ITaskController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Update(ctx *fiber.Ctx) error
	Complete(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
}

type taskController struct {
	taskService service.ITaskService
}

func NewTaskController(taskService service.ITaskService) ITaskController {
	return &taskController{
		taskService: taskService,
	}
}

func (c *taskController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/task/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("", c.Create)
	h.Get("", c.List)
	h.Put(":id", c.Update)
	h.Patch(":id/complete", c.Complete)
	h.Delete(":id", c.Delete)
}

func (c *taskController) Create(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var req dto.CreateTaskRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.taskService.Create(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success create task", res))
}

func (c *taskController) List(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	var completed *bool
	switch ctx.Query("completed") {
	case "true":
		v := true
		completed = &v
	case "false":
		v := false
		completed = &v
	}

	res, err := c.taskService.List(ctx.Context(), userId, completed)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list tasks", res))
}

func (c *taskController) Update(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	idParam := ctx.Params("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		return dto.ErrTaskNotFound
	}

	var req dto.UpdateTaskRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	req.Id = id

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.taskService.Update(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success update task", res))
}

func (c *taskController) Complete(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	idParam := ctx.Params("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		return dto.ErrTaskNotFound
	}

	var req dto.CompleteTaskRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	req.Id = id

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.taskService.Complete(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success complete task", res))
}

func (c *taskController) Delete(ctx *fiber.Ctx) error {
	userIdStr := ctx.Locals("user_id").(string)
	userId, _ := uuid.Parse(userIdStr)

	idParam := ctx.Params("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		return dto.ErrTaskNotFound
	}

	if err := c.taskService.Remove(ctx.Context(), userId, id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete task", nil))
}

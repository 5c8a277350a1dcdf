package serverutils

import (
	"errors"
	"strconv"

	"ai-todo-agent-be/internal/dto"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware maps service errors to HTTP statuses. Anything
// unrecognized is a 500 with a generic message so internals never leak.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var validationErr *dto.ValidationError
		if errors.As(err, &validationErr) {
			return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse(fiber.StatusBadRequest, validationErr.Reason))
		}

		var rateErr *dto.RateLimitedError
		if errors.As(err, &rateErr) {
			ctx.Set("Retry-After", strconv.Itoa(rateErr.RetryAfterSeconds))
			return ctx.Status(fiber.StatusTooManyRequests).JSON(
				ErrorResponseWithData(fiber.StatusTooManyRequests, "Too many requests", rateErr))
		}

		switch {
		case errors.Is(err, dto.ErrTaskNotFound):
			return ctx.Status(fiber.StatusNotFound).JSON(ErrorResponse(fiber.StatusNotFound, "Task not found"))
		case errors.Is(err, dto.ErrConversationNotFound):
			return ctx.Status(fiber.StatusNotFound).JSON(ErrorResponse(fiber.StatusNotFound, "Conversation not found"))
		case errors.Is(err, dto.ErrUpstreamUnavailable):
			return ctx.Status(fiber.StatusBadGateway).JSON(ErrorResponse(fiber.StatusBadGateway, "Assistant is temporarily unavailable"))
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, fiberErr.Message))
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(fiber.StatusInternalServerError, "Internal server error"))
	}
}

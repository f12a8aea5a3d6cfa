package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
)

// writeError traduce errores de dominio a respuestas /api (dto.ErrorResponse).
func writeError(c *fiber.Ctx, err error) error {
	status, code := classifyError(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		msg = "error interno"
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

// writeFunctionError traduce errores para /functions: {"error": "..."} con 400, 401, 403 o 500.
func writeFunctionError(c *fiber.Ctx, err error) error {
	status, _ := classifyError(err)
	switch status {
	case fiber.StatusUnauthorized, fiber.StatusForbidden, fiber.StatusInternalServerError:
	case fiber.StatusGatewayTimeout:
		status = fiber.StatusInternalServerError
	default:
		status = fiber.StatusBadRequest
	}
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		msg = "error interno"
	}
	return c.Status(status).JSON(dto.FunctionError{Error: msg})
}

func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrInsufficientStock):
		return fiber.StatusConflict, "INSUFFICIENT_STOCK"
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, domain.ErrDuplicate):
		return fiber.StatusConflict, "DUPLICATE"
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, "CONFLICT"
	case errors.Is(err, domain.ErrTimeout):
		return fiber.StatusGatewayTimeout, "TIMEOUT"
	}
	return fiber.StatusInternalServerError, "INTERNAL"
}

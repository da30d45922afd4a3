package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/storelink/transfer-api/internal/application/dto"
	"github.com/storelink/transfer-api/internal/domain"
)

// fail maps a domain error to its HTTP response. Validation errors carry
// their field detail (including the 1-based line index) in the body.
func fail(c *fiber.Ctx, err error) error {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		resp := dto.ErrorResponse{Code: "VALIDATION", Message: vErr.Message}
		for _, f := range vErr.Fields {
			resp.Details = append(resp.Details, dto.ErrorDetail{Line: f.Line, Field: f.Field, Message: f.Message})
		}
		return c.Status(fiber.StatusBadRequest).JSON(resp)
	}
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrUnauthorized), errors.Is(err, domain.ErrUserNotFound):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "invalid credentials"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "access denied"})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "resource not found"})
	case errors.Is(err, domain.ErrEmailTaken), errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: "the operation conflicted with a concurrent change, retry"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}

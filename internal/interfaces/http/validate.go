package http

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/storelink/transfer-api/internal/application/dto"
)

var validate = validator.New()

// parseAndValidate decodes the JSON body into out and runs struct validation.
// On failure the 400 response is written and false is returned.
func parseAndValidate(c *fiber.Ctx, out any) bool {
	if err := c.BodyParser(out); err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "invalid request body"})
		return false
	}
	if err := validate.Struct(out); err != nil {
		resp := dto.ErrorResponse{Code: "VALIDATION", Message: "validation failed"}
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			for _, fe := range vErrs {
				resp.Details = append(resp.Details, dto.ErrorDetail{
					Field:   fe.Field(),
					Message: "failed on the '" + fe.Tag() + "' rule",
				})
			}
		}
		_ = c.Status(fiber.StatusBadRequest).JSON(resp)
		return false
	}
	return true
}

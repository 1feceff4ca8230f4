package middlewares

import (
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"hospital-backend/billing"
)

// ErrorHandler centralizes error responses and keeps messages sanitized.
func ErrorHandler(c *fiber.Ctx, err error) error {
	// 1) Billing taxonomy errors (specific, user-actionable messages)
	var be *billing.Error
	if errors.As(err, &be) {
		status := fiber.StatusInternalServerError
		switch be.Kind {
		case billing.KindValidation:
			status = fiber.StatusUnprocessableEntity
		case billing.KindConflict:
			status = fiber.StatusConflict
		case billing.KindNotFound:
			status = fiber.StatusNotFound
		case billing.KindSecurity:
			// Never applied; always worth an audit trail entry.
			log.Printf("security event: %v (path=%s ip=%s)", err, c.Path(), c.IP())
			status = fiber.StatusBadRequest
		case billing.KindExternal:
			log.Printf("gateway error: %v", err)
			status = fiber.StatusBadGateway
		}
		return c.Status(status).JSON(fiber.Map{"message": be.Message})
	}

	// 2) Fiber errors (use their status code + message)
	if fe, ok := err.(*fiber.Error); ok {
		return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
	}

	// 3) Validation errors (422 + per-field info)
	if ve, ok := err.(validator.ValidationErrors); ok {
		out := make(map[string]string, len(ve))
		for _, fe := range ve {
			// fe.Field() is struct field name; you can map to json tag if you prefer
			out[fe.Field()] = fe.Tag()
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"message": "validation failed",
			"errors":  out,
		})
	}

	// 4) Unknown errors (500)
	log.Printf("internal error: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": "internal server error",
	})
}

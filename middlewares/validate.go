package middlewares

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// BindAndValidate parses the request body into dst and runs the struct tags
// through the shared validator. Parse failures come back as 400; tag failures
// surface as validator.ValidationErrors for the error handler to turn into a
// 422 with per-field detail.
func BindAndValidate(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return validate.Struct(dst)
}

// ValidateStruct validates a value outside the bind path, for payloads
// assembled in a handler rather than parsed from the body.
func ValidateStruct(v interface{}) error {
	return validate.Struct(v)
}

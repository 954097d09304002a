package middleware

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// ValidateBody parses the request body into dest and runs struct validation.
// Failures surface as fiber errors so the global error handler renders them;
// handlers invoke this inline with their own request struct to keep dest
// per-request.
func ValidateBody(dest interface{}) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := c.BodyParser(dest); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		if err := validate.Struct(dest); err != nil {
			var validationErrors validator.ValidationErrors
			if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
				return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
			}
			firstError := validationErrors[0]

			var errorMessage string
			switch firstError.Tag() {
			case "required":
				errorMessage = firstError.Field() + " is required"
			case "email":
				errorMessage = "invalid email format"
			case "min":
				errorMessage = firstError.Field() + " is too short"
			case "max":
				errorMessage = firstError.Field() + " is too long"
			case "uuid":
				errorMessage = "invalid UUID format"
			default:
				errorMessage = "validation failed for " + firstError.Field()
			}

			return fiber.NewError(fiber.StatusBadRequest, errorMessage)
		}

		return c.Next()
	}
}

package api

import (
	"perfume-backoffice/internal/form"

	"github.com/gofiber/fiber/v2"
)

// parseBody decodes the JSON body into a T and checks its validate tags.
func parseBody[T any](c *fiber.Ctx) (T, error) {
	var body T
	if err := c.BodyParser(&body); err != nil {
		return body, fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if errs := form.Struct[T](nil)(body); len(errs) > 0 {
		return body, errs
	}
	return body, nil
}

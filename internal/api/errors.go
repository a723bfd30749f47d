package api

import (
	"context"
	"errors"

	"perfume-backoffice/internal/form"
	"perfume-backoffice/internal/schema"
	"perfume-backoffice/internal/service"
	"perfume-backoffice/internal/store"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrorHandler renders every error as {"error": message}. Validation
// failures are 422 and carry the offending fields.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{"error": fe.Message})
	}

	var ferrs form.Errors
	if errors.As(err, &ferrs) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":  "Validation failed",
			"fields": ferrs,
		})
	}
	var verr *schema.ValidationError
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":  "Validation failed",
			"fields": verr.FieldMap(),
		})
	}

	status, msg := classify(err)
	if status == fiber.StatusInternalServerError {
		zap.S().Errorw("unexpected error", "method", c.Method(), "path", c.Path(), "error", err)
	} else {
		zap.S().Debugw("request failed", "path", c.Path(), "status", status, "error", err)
	}
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fiber.StatusNotFound, "Record not found"
	case errors.Is(err, store.ErrConflict):
		return fiber.StatusConflict, "Conflicts with existing data"
	case errors.Is(err, store.ErrGeneratedColumn):
		return fiber.StatusBadRequest, "Payload contains a generated column"
	case errors.Is(err, service.ErrSubmitInProgress):
		return fiber.StatusConflict, "A submission is already in progress"
	case errors.Is(err, service.ErrNoEditSession):
		return fiber.StatusConflict, "No edit session is open"
	case errors.Is(err, store.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusServiceUnavailable, "Store unavailable, try again"
	}
	return fiber.StatusInternalServerError, "Unexpected server error"
}

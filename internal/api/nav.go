package api

import (
	"perfume-backoffice/internal/shell"

	"github.com/gofiber/fiber/v2"
)

// GET /api/nav
func NavHandler(n *shell.Navigation) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(n.State())
	}
}

// POST /api/nav/toggle
func ToggleNavHandler(n *shell.Navigation) fiber.Handler {
	return func(c *fiber.Ctx) error {
		n.Toggle()
		return c.JSON(n.State())
	}
}

// POST /api/nav/open
func OpenNavHandler(n *shell.Navigation) fiber.Handler {
	return func(c *fiber.Ctx) error {
		n.Open()
		return c.JSON(n.State())
	}
}

// POST /api/nav/close
func CloseNavHandler(n *shell.Navigation) fiber.Handler {
	return func(c *fiber.Ctx) error {
		n.Close()
		return c.JSON(n.State())
	}
}

type navigateRequest struct {
	Path string `json:"path"`
}

// POST /api/nav/navigate
func NavigateHandler(n *shell.Navigation) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body navigateRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if !n.Navigate(body.Path) {
			return fiber.NewError(fiber.StatusNotFound, "Unknown page")
		}
		return c.JSON(n.State())
	}
}

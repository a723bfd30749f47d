package api

import (
	"context"

	"perfume-backoffice/internal/service"

	"github.com/gofiber/fiber/v2"
)

// editable is the edit session surface shared by the entity services.
type editable[E, F any] interface {
	List(ctx context.Context) ([]E, error)
	BeginEdit(E)
	BeginCreate()
	CancelEdit()
	Form() service.FormView[F]
	Submit(ctx context.Context) (E, error)
}

type sessionHandlers[E, F any] struct {
	svc  editable[E, F]
	idOf func(E) string
	set  func(ctx context.Context, values F) error
}

// mount registers the edit session routes of one entity on r.
func (h sessionHandlers[E, F]) mount(r fiber.Router) {
	r.Get("/form", h.form())
	r.Put("/form", h.put())
	r.Post("/form/submit", h.submit())
	r.Post("/new", h.beginCreate())
	r.Delete("/edit", h.cancel())
	r.Post("/:id/edit", h.beginEdit())
}

// GET /api/:entity/form
func (h sessionHandlers[E, F]) form() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(h.svc.Form())
	}
}

// POST /api/:entity/:id/edit
func (h sessionHandlers[E, F]) beginEdit() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		items, err := h.svc.List(c.UserContext())
		if err != nil {
			return err
		}
		for _, it := range items {
			if h.idOf(it) == id {
				h.svc.BeginEdit(it)
				return c.JSON(h.svc.Form())
			}
		}
		return fiber.NewError(fiber.StatusNotFound, "Record not found")
	}
}

// POST /api/:entity/new
func (h sessionHandlers[E, F]) beginCreate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		h.svc.BeginCreate()
		return c.JSON(h.svc.Form())
	}
}

// PUT /api/:entity/form replaces the values of the open form.
func (h sessionHandlers[E, F]) put() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var values F
		if err := c.BodyParser(&values); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if err := h.set(c.UserContext(), values); err != nil {
			return err
		}
		return c.JSON(h.svc.Form())
	}
}

// POST /api/:entity/form/submit
func (h sessionHandlers[E, F]) submit() fiber.Handler {
	return func(c *fiber.Ctx) error {
		isNew := h.svc.Form().Session.New
		saved, err := h.svc.Submit(c.UserContext())
		if err != nil {
			return err
		}
		if isNew {
			return c.Status(fiber.StatusCreated).JSON(saved)
		}
		return c.JSON(saved)
	}
}

// DELETE /api/:entity/edit
func (h sessionHandlers[E, F]) cancel() fiber.Handler {
	return func(c *fiber.Ctx) error {
		h.svc.CancelEdit()
		return c.JSON(h.svc.Form())
	}
}

func deleted(c *fiber.Ctx, id string) error {
	return c.JSON(fiber.Map{"id": id, "deleted": true})
}

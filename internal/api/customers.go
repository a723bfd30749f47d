package api

import (
	"perfume-backoffice/internal/models"
	"perfume-backoffice/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GET /api/customers?q=
func ListCustomersHandler(s *service.CustomerService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		customers, err := s.Search(c.UserContext(), c.Query("q"))
		if err != nil {
			return err
		}
		return c.JSON(customers)
	}
}

// POST /api/customers
func CreateCustomerHandler(s *service.CustomerService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		body, err := parseBody[models.CustomerCreate](c)
		if err != nil {
			return err
		}
		customer, err := s.Create(c.UserContext(), body)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(customer)
	}
}

// PATCH /api/customers/:id sends only the fields present in the body.
func UpdateCustomerHandler(s *service.CustomerService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		body, err := parseBody[models.CustomerUpdate](c)
		if err != nil {
			return err
		}
		customer, err := s.Update(c.UserContext(), c.Params("id"), body)
		if err != nil {
			return err
		}
		return c.JSON(customer)
	}
}

// DELETE /api/customers/:id
func DeleteCustomerHandler(s *service.CustomerService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if err := s.Delete(c.UserContext(), id); err != nil {
			return err
		}
		return deleted(c, id)
	}
}

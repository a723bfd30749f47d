package api

import (
	"bytes"
	"strconv"
	"time"

	"perfume-backoffice/internal/models"
	"perfume-backoffice/internal/service"
	"perfume-backoffice/internal/sheet"

	"github.com/gofiber/fiber/v2"
)

// GET /api/orders?status=&payment_status=
func ListOrdersHandler(s *service.OrderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		orders, err := s.List(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(filterOrders(c, orders))
	}
}

// GET /api/orders/export?status=&payment_status= downloads the orders as .xlsx.
func ExportOrdersHandler(s *service.OrderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		orders, err := s.List(c.UserContext())
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		if err := sheet.WriteOrders(&buf, filterOrders(c, orders)); err != nil {
			return err
		}
		c.Attachment("orders-" + time.Now().Format("2006-01-02") + ".xlsx")
		c.Set(fiber.HeaderContentType, xlsxContentType)
		return c.Send(buf.Bytes())
	}
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func filterOrders(c *fiber.Ctx, orders []models.Order) []models.Order {
	status := models.OrderStatus(c.Query("status"))
	payment := models.PaymentStatus(c.Query("payment_status"))
	if status == "" && payment == "" {
		return orders
	}

	res := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if status != "" && o.Status != status {
			continue
		}
		if payment != "" && o.PaymentStatus != payment {
			continue
		}
		res = append(res, o)
	}
	return res
}

// GET /api/orders/customers?q= backs the customer autocomplete.
func SearchOrderCustomersHandler(s *service.OrderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		customers, err := s.SearchCustomers(c.UserContext(), c.Query("q"))
		if err != nil {
			return err
		}
		return c.JSON(customers)
	}
}

// GET /api/orders/quote?product_id=&quantity_id=&custom_quantity_ml=
func QuoteHandler(s *service.OrderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		productID := c.Query("product_id")
		quantityID := c.Query("quantity_id")
		if productID == "" {
			return fiber.NewError(fiber.StatusBadRequest, "product_id is required")
		}

		var customML *float64
		if raw := c.Query("custom_quantity_ml"); raw != "" {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "custom_quantity_ml must be a number")
			}
			customML = &v
		}
		if quantityID == "" && customML == nil {
			return fiber.NewError(fiber.StatusBadRequest, "quantity_id or custom_quantity_ml is required")
		}

		price, err := s.Quote(c.UserContext(), productID, quantityID, customML)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"price": price})
	}
}

// POST /api/orders
func CreateOrderHandler(s *service.OrderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		body, err := parseBody[models.OrderCreate](c)
		if err != nil {
			return err
		}
		order, err := s.Create(c.UserContext(), body)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(order)
	}
}

// PATCH /api/orders/:id
func UpdateOrderHandler(s *service.OrderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		body, err := parseBody[models.OrderUpdate](c)
		if err != nil {
			return err
		}
		order, err := s.Update(c.UserContext(), c.Params("id"), body)
		if err != nil {
			return err
		}
		return c.JSON(order)
	}
}

// DELETE /api/orders/:id
func DeleteOrderHandler(s *service.OrderService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if err := s.Delete(c.UserContext(), id); err != nil {
			return err
		}
		return deleted(c, id)
	}
}

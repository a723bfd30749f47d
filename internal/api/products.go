package api

import (
	"path/filepath"
	"strings"

	"perfume-backoffice/internal/models"
	"perfume-backoffice/internal/service"
	"perfume-backoffice/internal/sheet"

	"github.com/gofiber/fiber/v2"
)

// GET /api/products?q=&brand=&gender=&season=
func ListProductsHandler(s *service.ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		products, err := s.List(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(service.Filter(products, service.ProductFilter{
			Search: c.Query("q"),
			Brand:  c.Query("brand"),
			Gender: models.Gender(c.Query("gender")),
			Season: c.Query("season"),
		}))
	}
}

// GET /api/products/facets
func ProductFacetsHandler(s *service.ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		products, err := s.List(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(service.Facets(products))
	}
}

// POST /api/products
func CreateProductHandler(s *service.ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		body, err := parseBody[models.ProductCreate](c)
		if err != nil {
			return err
		}
		product, err := s.Create(c.UserContext(), body)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(product)
	}
}

// POST /api/products/import takes a multipart "file" holding an .xlsx sheet
// with a header row (name, brand, gender, season, *_notes, price_10ml, ...).
func ImportProductsHandler(s *service.ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "File upload failed: "+err.Error())
		}
		if !strings.EqualFold(filepath.Ext(fileHeader.Filename), ".xlsx") {
			return fiber.NewError(fiber.StatusBadRequest, "Only .xlsx files can be imported")
		}

		file, err := fileHeader.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not open upload: "+err.Error())
		}
		defer file.Close()

		rows, err := sheet.ReadRows(file)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Could not read sheet: "+err.Error())
		}
		return c.JSON(s.Import(c.UserContext(), rows))
	}
}

// PATCH /api/products/:id
func UpdateProductHandler(s *service.ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		body, err := parseBody[models.ProductUpdate](c)
		if err != nil {
			return err
		}
		product, err := s.Update(c.UserContext(), c.Params("id"), body)
		if err != nil {
			return err
		}
		return c.JSON(product)
	}
}

// DELETE /api/products/:id
func DeleteProductHandler(s *service.ProductService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if err := s.Delete(c.UserContext(), id); err != nil {
			return err
		}
		return deleted(c, id)
	}
}

// GET /api/quantities
func ListQuantitiesHandler(s *service.QuantityService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		quantities, err := s.List(c.UserContext())
		if err != nil {
			return err
		}
		return c.JSON(quantities)
	}
}

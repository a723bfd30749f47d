package api

import (
	"context"

	"perfume-backoffice/internal/auth"
	"perfume-backoffice/internal/config"
	"perfume-backoffice/internal/models"
	"perfume-backoffice/internal/service"
	"perfume-backoffice/internal/shell"

	"github.com/gofiber/fiber/v2"
)

type Services struct {
	Customers  *service.CustomerService
	Products   *service.ProductService
	Quantities *service.QuantityService
	Orders     *service.OrderService
	Nav        *shell.Navigation
}

// Register mounts every route under api. Session routes are registered before
// the :id routes so "/form" and "/new" are not taken for ids.
func Register(api fiber.Router, cfg *config.Config, s Services) {
	if cfg.AuthEnabled() {
		api.Post("/auth/login", auth.LoginHandler(cfg))
	}

	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))
	protected.Get("/auth/me", auth.MeHandler())

	// Customers
	customers := protected.Group("/customers")
	sessionHandlers[models.Customer, service.CustomerForm]{
		svc:  s.Customers,
		idOf: func(c models.Customer) string { return c.ID },
		set: func(_ context.Context, v service.CustomerForm) error {
			return s.Customers.UpdateForm(func(f *service.CustomerForm) { *f = v })
		},
	}.mount(customers)
	customers.Get("/", ListCustomersHandler(s.Customers))
	customers.Post("/", CreateCustomerHandler(s.Customers))
	customers.Patch("/:id", UpdateCustomerHandler(s.Customers))
	customers.Delete("/:id", DeleteCustomerHandler(s.Customers))

	// Products
	products := protected.Group("/products")
	products.Get("/facets", ProductFacetsHandler(s.Products))
	products.Post("/import", ImportProductsHandler(s.Products))
	sessionHandlers[models.Product, service.ProductForm]{
		svc:  s.Products,
		idOf: func(p models.Product) string { return p.ID },
		set: func(_ context.Context, v service.ProductForm) error {
			return s.Products.UpdateForm(func(f *service.ProductForm) { *f = v })
		},
	}.mount(products)
	products.Get("/", ListProductsHandler(s.Products))
	products.Post("/", CreateProductHandler(s.Products))
	products.Patch("/:id", UpdateProductHandler(s.Products))
	products.Delete("/:id", DeleteProductHandler(s.Products))

	protected.Get("/quantities", ListQuantitiesHandler(s.Quantities))

	// Orders
	orders := protected.Group("/orders")
	orders.Get("/customers", SearchOrderCustomersHandler(s.Orders))
	orders.Get("/quote", QuoteHandler(s.Orders))
	orders.Get("/export", ExportOrdersHandler(s.Orders))
	sessionHandlers[models.Order, service.OrderForm]{
		svc:  s.Orders,
		idOf: func(o models.Order) string { return o.ID },
		set: func(ctx context.Context, v service.OrderForm) error {
			return s.Orders.UpdateForm(ctx, func(f *service.OrderForm) { *f = v })
		},
	}.mount(orders)
	orders.Get("/", ListOrdersHandler(s.Orders))
	orders.Post("/", CreateOrderHandler(s.Orders))
	orders.Patch("/:id", UpdateOrderHandler(s.Orders))
	orders.Delete("/:id", DeleteOrderHandler(s.Orders))

	// Navigation shell
	nav := protected.Group("/nav")
	nav.Get("/", NavHandler(s.Nav))
	nav.Post("/toggle", ToggleNavHandler(s.Nav))
	nav.Post("/open", OpenNavHandler(s.Nav))
	nav.Post("/close", CloseNavHandler(s.Nav))
	nav.Post("/navigate", NavigateHandler(s.Nav))
}

package api

import (
	"context"
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"

	"storefront/internal/inventory/entity"
	"storefront/internal/inventory/service"
)

// ProductService is the application surface the handlers need.
type ProductService interface {
	GetProduct(ctx context.Context, id int) (*entity.Product, error)
	CreateProduct(ctx context.Context, in service.CreateProductInput) (*entity.Product, error)
	UpdateProduct(ctx context.Context, id int, in service.UpdateProductInput) (*entity.Product, error)
	DeleteProduct(ctx context.Context, id int) error
	ListProducts(ctx context.Context, skip, take int) ([]*entity.Product, error)
	AdjustQuantity(ctx context.Context, id, quantity int, op entity.QuantityOp) error
	CheckAvailability(ctx context.Context, id, quantity int) (bool, error)
}

type ProductHandler struct {
	productService ProductService
}

// NewProductHandler creates a new instance of ProductHandler.
func NewProductHandler(productService ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// Register wires the inventory routes. adminGuard protects the routes the
// original restricted to the ADMIN role.
func (h *ProductHandler) Register(e *echo.Echo, adminGuard ...echo.MiddlewareFunc) {
	e.GET("/inventory/products/:id", h.GetProduct)
	e.GET("/inventory/products", h.ListProducts)
	e.GET("/inventory/products/:id/check-availability", h.CheckAvailability)
	e.PUT("/inventory/products/:id/quantity", h.UpdateQuantity)

	admin := e.Group("/inventory", adminGuard...)
	admin.POST("/products", h.CreateProduct)
	admin.PUT("/products/:id", h.UpdateProduct)
	admin.DELETE("/products/:id", h.DeleteProduct)
}

func paramID(c echo.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, false
	}
	return id, true
}

// GetProduct returns a product --> GET /inventory/products/:id
func (h *ProductHandler) GetProduct(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return c.JSON(400, map[string]string{"error": "Invalid product ID"})
	}

	product, err := h.productService.GetProduct(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, entity.ErrProductNotFound) {
			return c.JSON(404, map[string]string{"error": "Product not found"})
		}
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	return c.JSON(200, product)
}

// ListProducts returns a page of products --> GET /inventory/products?skip=&take=
func (h *ProductHandler) ListProducts(c echo.Context) error {
	skip, _ := strconv.Atoi(c.QueryParam("skip"))
	take, _ := strconv.Atoi(c.QueryParam("take"))

	products, err := h.productService.ListProducts(c.Request().Context(), skip, take)
	if err != nil {
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	if products == nil {
		products = []*entity.Product{}
	}
	return c.JSON(200, products)
}

// CheckAvailability reports whether stock covers a quantity -->
// GET /inventory/products/:id/check-availability?quantity=
func (h *ProductHandler) CheckAvailability(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return c.JSON(400, map[string]string{"error": "Invalid product ID"})
	}
	quantity, err := strconv.Atoi(c.QueryParam("quantity"))
	if err != nil || quantity <= 0 {
		return c.JSON(400, map[string]string{"error": "Invalid quantity"})
	}

	available, err := h.productService.CheckAvailability(c.Request().Context(), id, quantity)
	if err != nil {
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	return c.JSON(200, available)
}

// CreateProduct stores a new product --> POST /inventory/products (ADMIN)
func (h *ProductHandler) CreateProduct(c echo.Context) error {
	req := struct {
		Name        string  `json:"name"`
		Description string  `json:"description"`
		Price       float64 `json:"price"`
		Quantity    int     `json:"quantity"`
	}{}
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}
	if req.Name == "" || req.Price < 0 || req.Quantity < 0 {
		return c.JSON(400, map[string]string{"error": "Invalid product fields"})
	}

	product, err := h.productService.CreateProduct(c.Request().Context(), service.CreateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Quantity:    req.Quantity,
	})
	if err != nil {
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	return c.JSON(200, product)
}

// UpdateProduct applies a partial update --> PUT /inventory/products/:id (ADMIN)
func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return c.JSON(400, map[string]string{"error": "Invalid product ID"})
	}

	req := struct {
		Name        *string  `json:"name"`
		Description *string  `json:"description"`
		Price       *float64 `json:"price"`
		Quantity    *int     `json:"quantity"`
	}{}
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}

	product, err := h.productService.UpdateProduct(c.Request().Context(), id, service.UpdateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Quantity:    req.Quantity,
	})
	if err != nil {
		if errors.Is(err, entity.ErrProductNotFound) {
			return c.JSON(404, map[string]string{"error": "Product not found"})
		}
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	return c.JSON(200, product)
}

// DeleteProduct removes a product --> DELETE /inventory/products/:id (ADMIN)
func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return c.JSON(400, map[string]string{"error": "Invalid product ID"})
	}

	if err := h.productService.DeleteProduct(c.Request().Context(), id); err != nil {
		if errors.Is(err, entity.ErrProductNotFound) {
			return c.JSON(404, map[string]string{"error": "Product not found"})
		}
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	return c.JSON(200, map[string]string{"message": "Product deleted"})
}

// UpdateQuantity adjusts stock --> PUT /inventory/products/:id/quantity
// A subtract beyond available stock answers 409 so callers can tell a refusal
// apart from a transport failure.
func (h *ProductHandler) UpdateQuantity(c echo.Context) error {
	id, ok := paramID(c)
	if !ok {
		return c.JSON(400, map[string]string{"error": "Invalid product ID"})
	}

	req := struct {
		Quantity  int    `json:"quantity"`
		Operation string `json:"operation"` // "add" or "subtract"
	}{}
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload"})
	}

	err := h.productService.AdjustQuantity(c.Request().Context(), id, req.Quantity, entity.QuantityOp(req.Operation))
	if err != nil {
		switch {
		case errors.Is(err, entity.ErrProductNotFound):
			return c.JSON(404, map[string]string{"error": "Product not found"})
		case errors.Is(err, entity.ErrInsufficientStock):
			return c.JSON(409, map[string]string{"error": "Insufficient stock", "code": "insufficient_stock"})
		case errors.Is(err, entity.ErrInvalidOperation):
			return c.JSON(400, map[string]string{"error": "Invalid quantity operation"})
		default:
			return c.JSON(500, map[string]string{"error": err.Error()})
		}
	}
	return c.JSON(200, map[string]string{"message": "Quantity updated"})
}

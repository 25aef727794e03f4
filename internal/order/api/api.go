package api

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"storefront/internal/auth"
	"storefront/internal/order/entity"
	"storefront/internal/order/repository"
	"storefront/internal/order/service"
)

// OrderPlacer is the orchestrator surface the handlers need.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, in service.PlaceOrderInput) (*entity.Order, error)
}

// OrderReader serves order lookups.
type OrderReader interface {
	GetOrderByID(ctx context.Context, id int) (*entity.Order, error)
	ListOrdersByUser(ctx context.Context, userID int) ([]*entity.Order, error)
}

type OrderHandler struct {
	orders   OrderPlacer
	reader   OrderReader
	verifier service.CredentialVerifier
}

// NewOrderHandler creates a new instance of OrderHandler.
func NewOrderHandler(orders OrderPlacer, reader OrderReader, verifier service.CredentialVerifier) *OrderHandler {
	return &OrderHandler{orders: orders, reader: reader, verifier: verifier}
}

// Register wires the order routes into the echo instance.
func (h *OrderHandler) Register(e *echo.Echo) {
	e.POST("/order-requests", h.CreateOrderRequest)
	e.GET("/orders/:id", h.GetOrder)
	e.GET("/orders", h.ListOrders)
}

type placementResponse struct {
	Quantity    int       `json:"quantity"`
	ProductName string    `json:"productName"`
	TotalPrice  float64   `json:"totalPrice"`
	UserID      int       `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// CreateOrderRequest places one order --> POST /order-requests
func (h *OrderHandler) CreateOrderRequest(c echo.Context) error {
	req := struct {
		ProductID int `json:"productId"`
		Quantity  int `json:"quantity"`
	}{}
	if err := c.Bind(&req); err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid request payload", "code": "invalid_request_body"})
	}

	order, err := h.orders.PlaceOrder(c.Request().Context(), service.PlaceOrderInput{
		Credential:     c.Request().Header.Get("Authorization"),
		IdempotencyKey: c.Request().Header.Get("Idempotency-Key"),
		ProductID:      req.ProductID,
		Quantity:       req.Quantity,
	})
	if err != nil {
		return writePlacementError(c, err)
	}

	return c.JSON(200, placementResponse{
		Quantity:    order.Quantity,
		ProductName: order.ProductName,
		TotalPrice:  order.TotalPrice,
		UserID:      order.UserID,
		CreatedAt:   order.CreatedAt,
	})
}

// writePlacementError maps each terminal placement outcome to a distinct
// status and code without leaking transport detail.
func writePlacementError(c echo.Context, err error) error {
	var insufficient *entity.InsufficientStockError

	switch {
	case errors.Is(err, entity.ErrUnauthorized):
		return c.JSON(401, map[string]string{"error": "Unauthorized", "code": "unauthorized"})
	case errors.As(err, &insufficient):
		return c.JSON(400, map[string]interface{}{
			"error":     "Insufficient stock",
			"code":      "insufficient_stock",
			"available": insufficient.Available,
		})
	case errors.Is(err, entity.ErrInsufficientStock):
		return c.JSON(400, map[string]string{"error": "Insufficient stock", "code": "insufficient_stock"})
	case errors.Is(err, entity.ErrProductNotFound):
		return c.JSON(400, map[string]string{"error": "Product not found", "code": "product_not_found"})
	case errors.Is(err, entity.ErrInvalidQuantity):
		return c.JSON(400, map[string]string{"error": "Quantity must be positive", "code": "invalid_quantity"})
	case errors.Is(err, entity.ErrIdempotencyReplay):
		return c.JSON(409, map[string]string{"error": "Idempotency key already used", "code": "idempotency_replay"})
	case errors.Is(err, entity.ErrInconsistentState):
		return c.JSON(500, map[string]string{"error": "Order could not be completed", "code": "inconsistent_state"})
	case errors.Is(err, entity.ErrDependencyUnavailable):
		return c.JSON(502, map[string]string{"error": "Dependency unavailable", "code": "dependency_unavailable"})
	case errors.Is(err, entity.ErrStorageFailure):
		return c.JSON(500, map[string]string{"error": "Order storage failure", "code": "storage_failure"})
	default:
		return c.JSON(500, map[string]string{"error": err.Error(), "code": "internal_error"})
	}
}

// GetOrder returns one of the caller's orders --> GET /orders/:id
func (h *OrderHandler) GetOrder(c echo.Context) error {
	caller, err := h.verifier.Verify(c.Request().Header.Get("Authorization"))
	if err != nil {
		return c.JSON(401, map[string]string{"error": "Unauthorized", "code": "unauthorized"})
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(400, map[string]string{"error": "Invalid ID"})
	}

	order, err := h.reader.GetOrderByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return c.JSON(404, map[string]string{"error": "Order not found"})
		}
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	if order.UserID != caller.UserID && caller.Role != auth.RoleAdmin {
		return c.JSON(404, map[string]string{"error": "Order not found"})
	}

	return c.JSON(200, order)
}

// ListOrders returns the caller's orders --> GET /orders
func (h *OrderHandler) ListOrders(c echo.Context) error {
	caller, err := h.verifier.Verify(c.Request().Header.Get("Authorization"))
	if err != nil {
		return c.JSON(401, map[string]string{"error": "Unauthorized", "code": "unauthorized"})
	}

	orders, err := h.reader.ListOrdersByUser(c.Request().Context(), caller.UserID)
	if err != nil {
		return c.JSON(500, map[string]string{"error": err.Error()})
	}
	if orders == nil {
		orders = []*entity.Order{}
	}
	return c.JSON(200, orders)
}

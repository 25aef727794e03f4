package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/order/entity"
)

// ErrOrderNotFound is returned when an order id does not exist.
var ErrOrderNotFound = errors.New("order not found")

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db}
}

// CreateOrder durably inserts the order and assigns its identifier. Orders
// are append-only; there is no update or delete.
func (r *OrderRepository) CreateOrder(ctx context.Context, order *entity.Order) (*entity.Order, error) {
	query := `INSERT INTO orders (product_id, user_id, quantity, total_price, product_name, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		order.ProductID, order.UserID, order.Quantity, order.TotalPrice,
		order.ProductName, order.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrStorageFailure, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrStorageFailure, err)
	}

	order.ID = int(id)
	return order, nil
}

func (r *OrderRepository) GetOrderByID(ctx context.Context, id int) (*entity.Order, error) {
	order := &entity.Order{}
	query := `SELECT id, product_id, user_id, quantity, total_price, product_name, created_at FROM orders WHERE id = ?`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&order.ID, &order.ProductID, &order.UserID, &order.Quantity,
		&order.TotalPrice, &order.ProductName, &order.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *OrderRepository) ListOrdersByUser(ctx context.Context, userID int) ([]*entity.Order, error) {
	var orders []*entity.Order

	query := `SELECT id, product_id, user_id, quantity, total_price, product_name, created_at FROM orders WHERE user_id = ? ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var order entity.Order
		err := rows.Scan(
			&order.ID, &order.ProductID, &order.UserID, &order.Quantity,
			&order.TotalPrice, &order.ProductName, &order.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		orders = append(orders, &order)
	}

	return orders, rows.Err()
}

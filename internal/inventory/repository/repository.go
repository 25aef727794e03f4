package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"storefront/internal/inventory/entity"
)

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db}
}

func (r *ProductRepository) GetProductByID(ctx context.Context, id int) (*entity.Product, error) {
	product := &entity.Product{}
	query := `SELECT id, name, description, price, quantity, created_at, updated_at FROM products WHERE id = ?`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&product.ID, &product.Name, &product.Description, &product.Price,
		&product.Quantity, &product.CreatedAt, &product.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (r *ProductRepository) CreateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error) {
	query := `INSERT INTO products (name, description, price, quantity, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query,
		product.Name, product.Description, product.Price, product.Quantity,
		product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	product.ID = int(id)
	return product, nil
}

func (r *ProductRepository) UpdateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error) {
	query := `UPDATE products SET name = ?, description = ?, price = ?, quantity = ?, updated_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query,
		product.Name, product.Description, product.Price, product.Quantity,
		product.UpdatedAt, product.ID,
	)
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (r *ProductRepository) DeleteProduct(ctx context.Context, id int) error {
	query := `DELETE FROM products WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return entity.ErrProductNotFound
	}
	return nil
}

func (r *ProductRepository) ListProducts(ctx context.Context, skip, take int) ([]*entity.Product, error) {
	var products []*entity.Product

	// MySQL requires a LIMIT when OFFSET is present.
	if take <= 0 {
		take = 1<<31 - 1
	}
	query := `SELECT id, name, description, price, quantity, created_at, updated_at FROM products ORDER BY id LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, take, skip)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var product entity.Product
		err := rows.Scan(
			&product.ID, &product.Name, &product.Description, &product.Price,
			&product.Quantity, &product.CreatedAt, &product.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		products = append(products, &product)
	}

	return products, rows.Err()
}

// AdjustQuantity applies a stock delta in a single conditional statement so
// concurrent subtracts against the same product serialize in the database.
// A subtract that would drive quantity negative returns ErrInsufficientStock.
func (r *ProductRepository) AdjustQuantity(ctx context.Context, id, quantity int, op entity.QuantityOp, now time.Time) error {
	var query string
	var args []interface{}

	switch op {
	case entity.OpAdd:
		query = `UPDATE products SET quantity = quantity + ?, updated_at = ? WHERE id = ?`
		args = []interface{}{quantity, now, id}
	case entity.OpSubtract:
		query = `UPDATE products SET quantity = quantity - ?, updated_at = ? WHERE id = ? AND quantity >= ?`
		args = []interface{}{quantity, now, id, quantity}
	default:
		return entity.ErrInvalidOperation
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}

	// No row updated: either the product is missing or the guard refused the
	// subtract. Distinguish with a follow-up read.
	if _, err := r.GetProductByID(ctx, id); err != nil {
		return err
	}
	return entity.ErrInsufficientStock
}

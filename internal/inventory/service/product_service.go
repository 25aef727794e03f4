package service

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog"

	"storefront/internal/clock"
	"storefront/internal/inventory/entity"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("service", "inventory").Logger()

// ProductRepository is the persistence surface the service needs.
type ProductRepository interface {
	GetProductByID(ctx context.Context, id int) (*entity.Product, error)
	CreateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error)
	UpdateProduct(ctx context.Context, product *entity.Product) (*entity.Product, error)
	DeleteProduct(ctx context.Context, id int) error
	ListProducts(ctx context.Context, skip, take int) ([]*entity.Product, error)
	AdjustQuantity(ctx context.Context, id, quantity int, op entity.QuantityOp, now time.Time) error
}

// ProductCache caches product reads. A nil-returning Get is a miss. Cache
// failures never fail the request; the store stays authoritative.
type ProductCache interface {
	GetProduct(ctx context.Context, id int) (*entity.Product, error)
	SetProduct(ctx context.Context, product *entity.Product) error
	DeleteProduct(ctx context.Context, id int) error
}

// ProductService owns the inventory operations.
type ProductService struct {
	productRepo ProductRepository
	cache       ProductCache
	clock       clock.Clock
}

// NewProductService creates a new instance of ProductService.
func NewProductService(productRepo ProductRepository, cache ProductCache, clk clock.Clock) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		cache:       cache,
		clock:       clk,
	}
}

// GetProduct retrieves a product, serving from cache when possible.
func (p *ProductService) GetProduct(ctx context.Context, id int) (*entity.Product, error) {
	if cached, err := p.cache.GetProduct(ctx, id); err != nil {
		logger.Warn().Err(err).Msgf("Error reading product %d from cache", id)
	} else if cached != nil {
		return cached, nil
	}

	product, err := p.productRepo.GetProductByID(ctx, id)
	if err != nil {
		if !errors.Is(err, entity.ErrProductNotFound) {
			logger.Error().Err(err).Msgf("Error getting product by ID %d", id)
		}
		return nil, err
	}

	if err := p.cache.SetProduct(ctx, product); err != nil {
		logger.Warn().Err(err).Msgf("Error setting product %d in cache", id)
	}
	return product, nil
}

// CreateProductInput carries the fields of a new product.
type CreateProductInput struct {
	Name        string
	Description string
	Price       float64
	Quantity    int
}

// CreateProduct stores a new product.
func (p *ProductService) CreateProduct(ctx context.Context, in CreateProductInput) (*entity.Product, error) {
	now := p.clock.Now()
	product, err := p.productRepo.CreateProduct(ctx, &entity.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Quantity:    in.Quantity,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Error creating product")
		return nil, err
	}
	return product, nil
}

// UpdateProductInput carries a partial update; nil fields keep their value.
type UpdateProductInput struct {
	Name        *string
	Description *string
	Price       *float64
	Quantity    *int
}

// UpdateProduct applies a partial update to a product.
func (p *ProductService) UpdateProduct(ctx context.Context, id int, in UpdateProductInput) (*entity.Product, error) {
	product, err := p.productRepo.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		product.Name = *in.Name
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.Price != nil {
		product.Price = *in.Price
	}
	if in.Quantity != nil {
		product.Quantity = *in.Quantity
	}
	product.UpdatedAt = p.clock.Now()

	updated, err := p.productRepo.UpdateProduct(ctx, product)
	if err != nil {
		logger.Error().Err(err).Msgf("Error updating product %d", id)
		return nil, err
	}

	p.invalidate(ctx, id)
	return updated, nil
}

// DeleteProduct removes a product.
func (p *ProductService) DeleteProduct(ctx context.Context, id int) error {
	if err := p.productRepo.DeleteProduct(ctx, id); err != nil {
		if !errors.Is(err, entity.ErrProductNotFound) {
			logger.Error().Err(err).Msgf("Error deleting product %d", id)
		}
		return err
	}
	p.invalidate(ctx, id)
	return nil
}

// ListProducts returns a page of products.
func (p *ProductService) ListProducts(ctx context.Context, skip, take int) ([]*entity.Product, error) {
	products, err := p.productRepo.ListProducts(ctx, skip, take)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing products")
		return nil, err
	}
	return products, nil
}

// AdjustQuantity applies a stock delta. Subtract beyond available stock
// returns ErrInsufficientStock; the guard runs atomically in the store so
// concurrent subtracts against one product cannot both win.
func (p *ProductService) AdjustQuantity(ctx context.Context, id, quantity int, op entity.QuantityOp) error {
	if quantity <= 0 {
		return entity.ErrInvalidOperation
	}
	if op != entity.OpAdd && op != entity.OpSubtract {
		return entity.ErrInvalidOperation
	}

	if err := p.productRepo.AdjustQuantity(ctx, id, quantity, op, p.clock.Now()); err != nil {
		if errors.Is(err, entity.ErrInsufficientStock) {
			logger.Warn().Msgf("Product %d out of stock for quantity %d", id, quantity)
		} else if !errors.Is(err, entity.ErrProductNotFound) {
			logger.Error().Err(err).Msgf("Error adjusting quantity for product %d", id)
		}
		return err
	}

	p.invalidate(ctx, id)
	return nil
}

// CheckAvailability reports whether the requested quantity is on hand. The
// answer is advisory; the authoritative guard lives in AdjustQuantity.
func (p *ProductService) CheckAvailability(ctx context.Context, id, quantity int) (bool, error) {
	product, err := p.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, entity.ErrProductNotFound) {
			return false, nil
		}
		return false, err
	}
	return product.Quantity >= quantity, nil
}

func (p *ProductService) invalidate(ctx context.Context, id int) {
	if err := p.cache.DeleteProduct(ctx, id); err != nil {
		logger.Warn().Err(err).Msgf("Error deleting product %d from cache", id)
	}
}

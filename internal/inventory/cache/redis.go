package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"storefront/internal/inventory/entity"
)

// ProductCache is a read-through cache on top of the product store.
type ProductCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewProductCache wraps a redis client. Entries expire after ttl; zero means
// no expiry.
func NewProductCache(rdb *redis.Client, ttl time.Duration) *ProductCache {
	return &ProductCache{rdb: rdb, ttl: ttl}
}

func productKey(id int) string {
	return fmt.Sprintf("product:%d", id)
}

// GetProduct returns the cached product, or (nil, nil) on a miss.
func (c *ProductCache) GetProduct(ctx context.Context, id int) (*entity.Product, error) {
	data, err := c.rdb.Get(ctx, productKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var product entity.Product
	if err := json.Unmarshal([]byte(data), &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *ProductCache) SetProduct(ctx context.Context, product *entity.Product) error {
	data, err := json.Marshal(product)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, productKey(product.ID), data, c.ttl).Err()
}

func (c *ProductCache) DeleteProduct(ctx context.Context, id int) error {
	return c.rdb.Del(ctx, productKey(id)).Err()
}

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"storefront/internal/order/entity"
)

// QuantityOp is the direction of a remote stock adjustment.
type QuantityOp string

const (
	OpIncrease QuantityOp = "add"
	OpDecrease QuantityOp = "subtract"
)

// Inventory is a typed client for the inventory collaborator.
type Inventory struct {
	baseURL    string
	httpClient *http.Client
}

// NewInventory creates a client against the inventory service base URL
// (e.g. "http://localhost:8081").
func NewInventory(baseURL string, timeout time.Duration) *Inventory {
	return &Inventory{
		baseURL:    baseURL,
		httpClient: newHTTPClient(timeout),
	}
}

// FetchProduct returns the current product view, entity.ErrProductNotFound on
// a remote 404, or entity.ErrDependencyUnavailable on any other failure.
func (c *Inventory) FetchProduct(ctx context.Context, id int) (*entity.Product, error) {
	resp, err := doRead(ctx, c.httpClient, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet,
			fmt.Sprintf("%s/inventory/products/%d", c.baseURL, id), nil)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, entity.ErrProductNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: inventory returned status %d", entity.ErrDependencyUnavailable, resp.StatusCode)
	}

	var product entity.Product
	if err := json.NewDecoder(resp.Body).Decode(&product); err != nil {
		return nil, fmt.Errorf("%w: decoding product: %v", entity.ErrDependencyUnavailable, err)
	}
	return &product, nil
}

// AdjustQuantity applies a signed stock delta on the remote side. A refused
// decrease (underflow guard) is entity.ErrInsufficientStock, a business
// outcome kept distinct from transport failures. The call is mutating and is
// never retried.
func (c *Inventory) AdjustQuantity(ctx context.Context, id, quantity int, op QuantityOp) error {
	body, err := json.Marshal(struct {
		Quantity  int    `json:"quantity"`
		Operation string `json:"operation"`
	}{Quantity: quantity, Operation: string(op)})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		fmt.Sprintf("%s/inventory/products/%d/quantity", c.baseURL, id), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", entity.ErrDependencyUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return entity.ErrProductNotFound
	// Only 409 is a stock refusal; a remote 400 means the request itself was
	// malformed and must not masquerade as insufficient stock.
	case resp.StatusCode == http.StatusConflict:
		return entity.ErrInsufficientStock
	default:
		return fmt.Errorf("%w: inventory returned status %d", entity.ErrDependencyUnavailable, resp.StatusCode)
	}
}

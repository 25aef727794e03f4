package entity

import "time"

// Order is the record produced by a successful placement. Immutable once
// created; there is no update or delete in this workflow.
type Order struct {
	ID          int       `json:"id"`
	ProductID   int       `json:"product_id"`
	UserID      int       `json:"user_id"`
	Quantity    int       `json:"quantity"`
	TotalPrice  float64   `json:"total_price"`
	ProductName string    `json:"product_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// Product is the orchestrator's read view of an inventory record. Fetched
// fresh on every placement, never cached across requests.
type Product struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

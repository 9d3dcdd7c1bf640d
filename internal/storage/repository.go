package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrInsufficientStock indicates an order asked for more units than the
	// product has in stock.
	ErrInsufficientStock = errors.New("insufficient stock")
)

// ProductFilter selects and pages product listings.
type ProductFilter struct {
	// Search matches a substring of the product name when non-empty.
	Search string
	Limit  int
	Offset int
}

// OrderFilter selects and pages order listings.
type OrderFilter struct {
	// CustomerID filters by customer when > 0.
	CustomerID int64
	// Status filters by order status when non-empty.
	Status string
	Limit  int
	Offset int
}

// NewOrderItem is one requested product line when creating an order.
type NewOrderItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// Repository is the persistence layer wrapped by the read-through cache.
// All reads are idempotent.
type Repository interface {
	CreateProduct(ctx context.Context, p *Product) error
	GetProduct(ctx context.Context, id int64) (*Product, error)
	ListProducts(ctx context.Context, f ProductFilter) (*ProductList, error)
	UpdateProduct(ctx context.Context, p *Product) error
	DeleteProduct(ctx context.Context, id int64) error

	// CreateOrder validates every requested product, records unit prices,
	// decrements stock and computes the order total, atomically.
	CreateOrder(ctx context.Context, customerID int64, status string, items []NewOrderItem) (*Order, error)
	GetOrder(ctx context.Context, id int64) (*Order, error)
	ListOrders(ctx context.Context, f OrderFilter) (*OrderList, error)
	UpdateOrderStatus(ctx context.Context, id int64, status string) (*Order, error)

	// DeleteOrder removes the order and its items and restores product
	// stock.
	DeleteOrder(ctx context.Context, id int64) error
}

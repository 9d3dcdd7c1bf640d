// Package storage provides the relational models and repositories for
// products and orders.
package storage

import (
	"time"
)

// Product is an item available for purchase.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Order is a customer order with its items.
type Order struct {
	ID          int64       `json:"id"`
	CustomerID  int64       `json:"customer_id"`
	Status      string      `json:"status"`
	TotalAmount float64     `json:"total_amount"`
	Items       []OrderItem `json:"items"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// OrderItem is one product line within an order. UnitPrice is the product
// price at order time, not the current price.
type OrderItem struct {
	ID        int64   `json:"id"`
	OrderID   int64   `json:"order_id"`
	ProductID int64   `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// ProductList is a page of products with the unpaged total.
type ProductList struct {
	Items []Product `json:"items"`
	Total int       `json:"total"`
}

// OrderList is a page of orders with the unpaged total.
type OrderList struct {
	Items []Order `json:"items"`
	Total int     `json:"total"`
}

// OrderStatusPending is the initial status of a new order.
const OrderStatusPending = "pending"

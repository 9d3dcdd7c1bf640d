package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryRepository implements Repository in memory. It backs handler tests
// and local development without a MySQL instance.
type MemoryRepository struct {
	mu         sync.Mutex
	products   map[int64]*Product
	orders     map[int64]*Order
	nextProd   int64
	nextOrder  int64
	nextItemID int64
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *MemoryRepository {
	return &MemoryRepository{
		products:   make(map[int64]*Product),
		orders:     make(map[int64]*Order),
		nextProd:   1,
		nextOrder:  1,
		nextItemID: 1,
	}
}

func (r *MemoryRepository) CreateProduct(_ context.Context, p *Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	p.ID = r.nextProd
	r.nextProd++
	p.CreatedAt = now
	p.UpdatedAt = now

	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *MemoryRepository) GetProduct(_ context.Context, id int64) (*Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *MemoryRepository) ListProducts(_ context.Context, f ProductFilter) (*ProductList, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []Product
	for _, p := range r.products {
		if f.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Search)) {
			continue
		}
		matched = append(matched, *p)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	return &ProductList{Items: page(matched, f.Limit, f.Offset), Total: len(matched)}, nil
}

func (r *MemoryRepository) UpdateProduct(_ context.Context, p *Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.products[p.ID]
	if !ok {
		return ErrNotFound
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now().UTC()

	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *MemoryRepository) DeleteProduct(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return ErrNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *MemoryRepository) CreateOrder(_ context.Context, customerID int64, status string, items []NewOrderItem) (*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if status == "" {
		status = OrderStatusPending
	}

	// Validate everything before mutating stock so a failure leaves the
	// repository unchanged, like the SQL transaction does.
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("product %d: quantity must be positive", item.ProductID)
		}
		p, ok := r.products[item.ProductID]
		if !ok {
			return nil, fmt.Errorf("product %d: %w", item.ProductID, ErrNotFound)
		}
		if p.Stock < item.Quantity {
			return nil, fmt.Errorf("product %d: %w", item.ProductID, ErrInsufficientStock)
		}
	}

	now := time.Now().UTC()
	order := &Order{
		ID:         r.nextOrder,
		CustomerID: customerID,
		Status:     status,
		Items:      []OrderItem{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	r.nextOrder++

	for _, item := range items {
		p := r.products[item.ProductID]
		p.Stock -= item.Quantity
		p.UpdatedAt = now

		order.Items = append(order.Items, OrderItem{
			ID:        r.nextItemID,
			OrderID:   order.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: p.Price,
		})
		r.nextItemID++
		order.TotalAmount += p.Price * float64(item.Quantity)
	}

	cp := cloneOrder(order)
	r.orders[order.ID] = cp
	return order, nil
}

func (r *MemoryRepository) GetOrder(_ context.Context, id int64) (*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneOrder(o), nil
}

func (r *MemoryRepository) ListOrders(_ context.Context, f OrderFilter) (*OrderList, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []Order
	for _, o := range r.orders {
		if f.CustomerID > 0 && o.CustomerID != f.CustomerID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		matched = append(matched, *cloneOrder(o))
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	return &OrderList{Items: page(matched, f.Limit, f.Offset), Total: len(matched)}, nil
}

func (r *MemoryRepository) UpdateOrderStatus(_ context.Context, id int64, status string) (*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = time.Now().UTC()
	return cloneOrder(o), nil
}

func (r *MemoryRepository) DeleteOrder(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return ErrNotFound
	}

	now := time.Now().UTC()
	for _, item := range o.Items {
		if p, ok := r.products[item.ProductID]; ok {
			p.Stock += item.Quantity
			p.UpdatedAt = now
		}
	}
	delete(r.orders, id)
	return nil
}

func cloneOrder(o *Order) *Order {
	cp := *o
	cp.Items = append([]OrderItem{}, o.Items...)
	return &cp
}

func page[T any](items []T, limit, offset int) []T {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

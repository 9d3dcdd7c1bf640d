package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func seedProduct(t *testing.T, repo *MemoryRepository, name string, price float64, stock int) *Product {
	t.Helper()
	p := &Product{Name: name, Price: price, Stock: stock}
	if err := repo.CreateProduct(context.Background(), p); err != nil {
		t.Fatalf("seeding product %q: %v", name, err)
	}
	return p
}

func TestMemory_ProductCRUD(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()

	p := seedProduct(t, repo, "lamp", 19.99, 10)
	if p.ID == 0 {
		t.Fatal("CreateProduct did not assign an id")
	}
	if p.CreatedAt.IsZero() || p.UpdatedAt.IsZero() {
		t.Error("CreateProduct did not stamp timestamps")
	}

	got, err := repo.GetProduct(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProduct error = %v", err)
	}
	if got.Name != "lamp" || got.Price != 19.99 || got.Stock != 10 {
		t.Errorf("GetProduct = %+v, want seeded values", got)
	}

	got.Name = "desk lamp"
	got.Price = 24.99
	if err := repo.UpdateProduct(ctx, got); err != nil {
		t.Fatalf("UpdateProduct error = %v", err)
	}
	updated, err := repo.GetProduct(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProduct after update error = %v", err)
	}
	if updated.Name != "desk lamp" || updated.Price != 24.99 {
		t.Errorf("update not applied: %+v", updated)
	}
	if !updated.CreatedAt.Equal(p.CreatedAt) {
		t.Error("UpdateProduct must preserve CreatedAt")
	}

	if err := repo.DeleteProduct(ctx, p.ID); err != nil {
		t.Fatalf("DeleteProduct error = %v", err)
	}
	if _, err := repo.GetProduct(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetProduct after delete = %v, want ErrNotFound", err)
	}
}

func TestMemory_NotFound(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()

	if _, err := repo.GetProduct(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetProduct = %v, want ErrNotFound", err)
	}
	if err := repo.UpdateProduct(ctx, &Product{ID: 999}); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateProduct = %v, want ErrNotFound", err)
	}
	if err := repo.DeleteProduct(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteProduct = %v, want ErrNotFound", err)
	}
	if _, err := repo.GetOrder(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetOrder = %v, want ErrNotFound", err)
	}
	if _, err := repo.UpdateOrderStatus(ctx, 999, "shipped"); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateOrderStatus = %v, want ErrNotFound", err)
	}
	if err := repo.DeleteOrder(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteOrder = %v, want ErrNotFound", err)
	}
}

func TestMemory_ListProducts(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		seedProduct(t, repo, fmt.Sprintf("widget %02d", i), 1.0, 1)
	}
	seedProduct(t, repo, "Lamp Deluxe", 30.0, 1)

	list, err := repo.ListProducts(ctx, ProductFilter{Limit: 10})
	if err != nil {
		t.Fatalf("ListProducts error = %v", err)
	}
	if len(list.Items) != 10 {
		t.Errorf("page size = %d, want 10", len(list.Items))
	}
	if list.Total != 16 {
		t.Errorf("Total = %d, want 16", list.Total)
	}

	page2, err := repo.ListProducts(ctx, ProductFilter{Limit: 10, Offset: 10})
	if err != nil {
		t.Fatalf("ListProducts page 2 error = %v", err)
	}
	if len(page2.Items) != 6 {
		t.Errorf("page 2 size = %d, want 6", len(page2.Items))
	}
	if page2.Items[0].ID == list.Items[0].ID {
		t.Error("pages overlap")
	}

	// Search is a case-insensitive substring match on the name.
	found, err := repo.ListProducts(ctx, ProductFilter{Search: "lamp"})
	if err != nil {
		t.Fatalf("ListProducts search error = %v", err)
	}
	if found.Total != 1 || found.Items[0].Name != "Lamp Deluxe" {
		t.Errorf("search result = %+v, want only Lamp Deluxe", found.Items)
	}

	// Offset past the end yields an empty page, not an error.
	empty, err := repo.ListProducts(ctx, ProductFilter{Limit: 10, Offset: 100})
	if err != nil {
		t.Fatalf("ListProducts past end error = %v", err)
	}
	if len(empty.Items) != 0 {
		t.Errorf("page past end = %d items, want 0", len(empty.Items))
	}
}

func TestMemory_CreateOrder(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()

	lamp := seedProduct(t, repo, "lamp", 20.0, 5)
	desk := seedProduct(t, repo, "desk", 100.0, 2)

	order, err := repo.CreateOrder(ctx, 7, "", []NewOrderItem{
		{ProductID: lamp.ID, Quantity: 2},
		{ProductID: desk.ID, Quantity: 1},
	})
	if err != nil {
		t.Fatalf("CreateOrder error = %v", err)
	}

	if order.Status != OrderStatusPending {
		t.Errorf("default status = %q, want %q", order.Status, OrderStatusPending)
	}
	if order.TotalAmount != 140.0 {
		t.Errorf("TotalAmount = %v, want 140", order.TotalAmount)
	}
	if len(order.Items) != 2 {
		t.Fatalf("order has %d items, want 2", len(order.Items))
	}
	if order.Items[0].UnitPrice != 20.0 {
		t.Errorf("UnitPrice not recorded from product: %v", order.Items[0].UnitPrice)
	}

	// Stock is decremented by the ordered quantities.
	lampAfter, _ := repo.GetProduct(ctx, lamp.ID)
	deskAfter, _ := repo.GetProduct(ctx, desk.ID)
	if lampAfter.Stock != 3 {
		t.Errorf("lamp stock = %d, want 3", lampAfter.Stock)
	}
	if deskAfter.Stock != 1 {
		t.Errorf("desk stock = %d, want 1", deskAfter.Stock)
	}
}

func TestMemory_CreateOrder_InsufficientStock(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()

	lamp := seedProduct(t, repo, "lamp", 20.0, 5)
	desk := seedProduct(t, repo, "desk", 100.0, 1)

	// The second line exceeds stock; the whole order fails and the first
	// line's stock must be untouched.
	_, err := repo.CreateOrder(ctx, 7, "", []NewOrderItem{
		{ProductID: lamp.ID, Quantity: 2},
		{ProductID: desk.ID, Quantity: 3},
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("CreateOrder = %v, want ErrInsufficientStock", err)
	}

	lampAfter, _ := repo.GetProduct(ctx, lamp.ID)
	if lampAfter.Stock != 5 {
		t.Errorf("lamp stock after failed order = %d, want 5", lampAfter.Stock)
	}

	list, _ := repo.ListOrders(ctx, OrderFilter{})
	if list.Total != 0 {
		t.Errorf("orders after failed create = %d, want 0", list.Total)
	}
}

func TestMemory_CreateOrder_UnknownProduct(t *testing.T) {
	repo := NewMemory()

	_, err := repo.CreateOrder(context.Background(), 7, "", []NewOrderItem{
		{ProductID: 999, Quantity: 1},
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("CreateOrder with unknown product = %v, want ErrNotFound", err)
	}
}

func TestMemory_CreateOrder_InvalidQuantity(t *testing.T) {
	repo := NewMemory()
	lamp := seedProduct(t, repo, "lamp", 20.0, 5)

	_, err := repo.CreateOrder(context.Background(), 7, "", []NewOrderItem{
		{ProductID: lamp.ID, Quantity: 0},
	})
	if err == nil {
		t.Error("CreateOrder with zero quantity should fail")
	}
}

func TestMemory_UpdateOrderStatus(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()

	lamp := seedProduct(t, repo, "lamp", 20.0, 5)
	order, err := repo.CreateOrder(ctx, 7, "", []NewOrderItem{{ProductID: lamp.ID, Quantity: 1}})
	if err != nil {
		t.Fatalf("CreateOrder error = %v", err)
	}

	updated, err := repo.UpdateOrderStatus(ctx, order.ID, "shipped")
	if err != nil {
		t.Fatalf("UpdateOrderStatus error = %v", err)
	}
	if updated.Status != "shipped" {
		t.Errorf("Status = %q, want shipped", updated.Status)
	}

	got, _ := repo.GetOrder(ctx, order.ID)
	if got.Status != "shipped" {
		t.Errorf("persisted status = %q, want shipped", got.Status)
	}
}

func TestMemory_DeleteOrder_RestoresStock(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()

	lamp := seedProduct(t, repo, "lamp", 20.0, 5)
	order, err := repo.CreateOrder(ctx, 7, "", []NewOrderItem{{ProductID: lamp.ID, Quantity: 3}})
	if err != nil {
		t.Fatalf("CreateOrder error = %v", err)
	}

	if err := repo.DeleteOrder(ctx, order.ID); err != nil {
		t.Fatalf("DeleteOrder error = %v", err)
	}

	lampAfter, _ := repo.GetProduct(ctx, lamp.ID)
	if lampAfter.Stock != 5 {
		t.Errorf("stock after order delete = %d, want 5", lampAfter.Stock)
	}
	if _, err := repo.GetOrder(ctx, order.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetOrder after delete = %v, want ErrNotFound", err)
	}
}

func TestMemory_ListOrders_Filters(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()

	lamp := seedProduct(t, repo, "lamp", 20.0, 100)

	mk := func(customer int64, status string) *Order {
		o, err := repo.CreateOrder(ctx, customer, status, []NewOrderItem{{ProductID: lamp.ID, Quantity: 1}})
		if err != nil {
			t.Fatalf("CreateOrder error = %v", err)
		}
		return o
	}

	mk(1, "pending")
	mk(1, "shipped")
	mk(2, "pending")

	byCustomer, err := repo.ListOrders(ctx, OrderFilter{CustomerID: 1})
	if err != nil {
		t.Fatalf("ListOrders by customer error = %v", err)
	}
	if byCustomer.Total != 2 {
		t.Errorf("customer 1 orders = %d, want 2", byCustomer.Total)
	}

	byStatus, err := repo.ListOrders(ctx, OrderFilter{Status: "pending"})
	if err != nil {
		t.Fatalf("ListOrders by status error = %v", err)
	}
	if byStatus.Total != 2 {
		t.Errorf("pending orders = %d, want 2", byStatus.Total)
	}

	both, err := repo.ListOrders(ctx, OrderFilter{CustomerID: 1, Status: "pending"})
	if err != nil {
		t.Fatalf("ListOrders combined error = %v", err)
	}
	if both.Total != 1 {
		t.Errorf("combined filter orders = %d, want 1", both.Total)
	}
}

func TestMemory_CloneSemantics(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()

	p := seedProduct(t, repo, "lamp", 20.0, 5)

	// Mutating a returned value must not leak into the repository.
	got, _ := repo.GetProduct(ctx, p.ID)
	got.Name = "mutated"

	again, _ := repo.GetProduct(ctx, p.ID)
	if again.Name != "lamp" {
		t.Errorf("repository state mutated through returned value: %q", again.Name)
	}
}

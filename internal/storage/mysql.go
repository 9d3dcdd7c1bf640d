package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLRepository implements Repository on a pooled MySQL connection.
type MySQLRepository struct {
	db *sql.DB
}

// NewMySQL opens a pooled MySQL connection for the given DSN.
// The DSN must include parseTime=true so DATETIME columns scan into
// time.Time.
func NewMySQL(dsn string, poolSize int) (*MySQLRepository, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	if poolSize > 0 {
		db.SetMaxOpenConns(poolSize)
		db.SetMaxIdleConns(poolSize)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	return &MySQLRepository{db: db}, nil
}

// Ping verifies the database is reachable.
func (r *MySQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close releases the connection pool.
func (r *MySQLRepository) Close() error {
	return r.db.Close()
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		description TEXT,
		price DOUBLE NOT NULL,
		stock INT NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		INDEX idx_products_name (name)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		customer_id BIGINT NOT NULL,
		status VARCHAR(50) NOT NULL DEFAULT 'pending',
		total_amount DOUBLE NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		INDEX idx_orders_customer (customer_id)
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		order_id BIGINT NOT NULL,
		product_id BIGINT NOT NULL,
		quantity INT NOT NULL,
		unit_price DOUBLE NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (order_id) REFERENCES orders(id),
		FOREIGN KEY (product_id) REFERENCES products(id)
	)`,
}

// EnsureSchema creates the tables if they do not exist.
func (r *MySQLRepository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (r *MySQLRepository) CreateProduct(ctx context.Context, p *Product) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO products (name, description, price, stock, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.Name, p.Description, p.Price, p.Stock, now, now)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert product id: %w", err)
	}
	p.ID = id
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

func (r *MySQLRepository) GetProduct(ctx context.Context, id int64) (*Product, error) {
	var p Product
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, description, price, stock, created_at, updated_at
		 FROM products WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select product: %w", err)
	}
	return &p, nil
}

func (r *MySQLRepository) ListProducts(ctx context.Context, f ProductFilter) (*ProductList, error) {
	where := ""
	args := []interface{}{}
	if f.Search != "" {
		where = " WHERE name LIKE ?"
		args = append(args, "%"+f.Search+"%")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products"+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	limit, offset := pageBounds(f.Limit, f.Offset)
	args = append(args, limit, offset)
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description, price, stock, created_at, updated_at
		 FROM products`+where+` ORDER BY id LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	list := &ProductList{Items: []Product{}, Total: total}
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list.Items = append(list.Items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return list, nil
}

func (r *MySQLRepository) UpdateProduct(ctx context.Context, p *Product) error {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET name = ?, description = ?, price = ?, stock = ?, updated_at = ?
		 WHERE id = ?`,
		p.Name, p.Description, p.Price, p.Stock, now, p.ID)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if affected == 0 {
		// MySQL reports 0 affected rows for no-op updates too, so confirm
		// the record really is missing.
		var exists int
		err := r.db.QueryRowContext(ctx, `SELECT 1 FROM products WHERE id = ?`, p.ID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("update product: %w", err)
		}
	}
	p.UpdatedAt = now
	return nil
}

func (r *MySQLRepository) DeleteProduct(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MySQLRepository) CreateOrder(ctx context.Context, customerID int64, status string, items []NewOrderItem) (*Order, error) {
	if status == "" {
		status = OrderStatusPending
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin order tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO orders (customer_id, status, total_amount, created_at, updated_at)
		 VALUES (?, ?, 0, ?, ?)`,
		customerID, status, now, now)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}
	orderID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("insert order id: %w", err)
	}

	order := &Order{
		ID:         orderID,
		CustomerID: customerID,
		Status:     status,
		Items:      []OrderItem{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	var total float64
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("product %d: quantity must be positive", item.ProductID)
		}

		var price float64
		var stock int
		err := tx.QueryRowContext(ctx,
			`SELECT price, stock FROM products WHERE id = ? FOR UPDATE`, item.ProductID).
			Scan(&price, &stock)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("product %d: %w", item.ProductID, ErrNotFound)
		}
		if err != nil {
			return nil, fmt.Errorf("lock product %d: %w", item.ProductID, err)
		}
		if stock < item.Quantity {
			return nil, fmt.Errorf("product %d: %w", item.ProductID, ErrInsufficientStock)
		}

		itemRes, err := tx.ExecContext(ctx,
			`INSERT INTO order_items (order_id, product_id, quantity, unit_price, created_at)
			 VALUES (?, ?, ?, ?, ?)`,
			orderID, item.ProductID, item.Quantity, price, now)
		if err != nil {
			return nil, fmt.Errorf("insert order item: %w", err)
		}
		itemID, err := itemRes.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("insert order item id: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE products SET stock = stock - ?, updated_at = ? WHERE id = ?`,
			item.Quantity, now, item.ProductID); err != nil {
			return nil, fmt.Errorf("decrement stock for product %d: %w", item.ProductID, err)
		}

		total += price * float64(item.Quantity)
		order.Items = append(order.Items, OrderItem{
			ID:        itemID,
			OrderID:   orderID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: price,
		})
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE orders SET total_amount = ? WHERE id = ?`, total, orderID); err != nil {
		return nil, fmt.Errorf("update order total: %w", err)
	}
	order.TotalAmount = total

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit order: %w", err)
	}
	return order, nil
}

func (r *MySQLRepository) GetOrder(ctx context.Context, id int64) (*Order, error) {
	var o Order
	err := r.db.QueryRowContext(ctx,
		`SELECT id, customer_id, status, total_amount, created_at, updated_at
		 FROM orders WHERE id = ?`, id).
		Scan(&o.ID, &o.CustomerID, &o.Status, &o.TotalAmount, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select order: %w", err)
	}

	items, err := r.loadOrderItems(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

func (r *MySQLRepository) ListOrders(ctx context.Context, f OrderFilter) (*OrderList, error) {
	where := ""
	args := []interface{}{}
	if f.CustomerID > 0 {
		where = appendClause(where, "customer_id = ?")
		args = append(args, f.CustomerID)
	}
	if f.Status != "" {
		where = appendClause(where, "status = ?")
		args = append(args, f.Status)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders"+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}

	limit, offset := pageBounds(f.Limit, f.Offset)
	args = append(args, limit, offset)
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, customer_id, status, total_amount, created_at, updated_at
		 FROM orders`+where+` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	list := &OrderList{Items: []Order{}, Total: total}
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.Status, &o.TotalAmount, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		list.Items = append(list.Items, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}

	for i := range list.Items {
		items, err := r.loadOrderItems(ctx, list.Items[i].ID)
		if err != nil {
			return nil, err
		}
		list.Items[i].Items = items
	}
	return list, nil
}

func (r *MySQLRepository) UpdateOrderStatus(ctx context.Context, id int64, status string) (*Order, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`, status, now, id)
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update order status: %w", err)
	}
	if affected == 0 {
		var exists int
		err := r.db.QueryRowContext(ctx, `SELECT 1 FROM orders WHERE id = ?`, id).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("update order status: %w", err)
		}
	}
	return r.GetOrder(ctx, id)
}

func (r *MySQLRepository) DeleteOrder(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	rows, err := tx.QueryContext(ctx,
		`SELECT product_id, quantity FROM order_items WHERE order_id = ?`, id)
	if err != nil {
		return fmt.Errorf("select order items: %w", err)
	}
	type restore struct {
		productID int64
		quantity  int
	}
	var restores []restore
	for rows.Next() {
		var re restore
		if err := rows.Scan(&re.productID, &re.quantity); err != nil {
			rows.Close()
			return fmt.Errorf("scan order item: %w", err)
		}
		restores = append(restores, re)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate order items: %w", err)
	}
	rows.Close()

	for _, re := range restores {
		if _, err := tx.ExecContext(ctx,
			`UPDATE products SET stock = stock + ?, updated_at = ? WHERE id = ?`,
			re.quantity, now, re.productID); err != nil {
			return fmt.Errorf("restore stock for product %d: %w", re.productID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = ?`, id); err != nil {
		return fmt.Errorf("delete order items: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

func (r *MySQLRepository) loadOrderItems(ctx context.Context, orderID int64) ([]OrderItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, order_id, product_id, quantity, unit_price
		 FROM order_items WHERE order_id = ? ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("select order items: %w", err)
	}
	defer rows.Close()

	items := []OrderItem{}
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	return items, nil
}

// pageBounds clamps list paging to sane values (defaults match the API's
// query validation: limit 10, max 100).
func pageBounds(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func appendClause(where, clause string) string {
	if where == "" {
		return " WHERE " + clause
	}
	return where + " AND " + clause
}

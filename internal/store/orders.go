package store

import (
	"context"
	"database/sql"

	"storefront-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// CheckoutTx is the set of operations available inside an order-creation
// transaction. Everything invoked through it commits or rolls back as one
// unit; stock decrements are guarded so concurrent checkouts can never
// drive count_in_stock negative.
type CheckoutTx interface {
	ProductByID(ctx context.Context, id int64) (*models.Product, error)
	DecrementStock(ctx context.Context, productID int64, qty int) (bool, error)
	InsertOrder(ctx context.Context, order *models.Order) error
	InsertOrderItem(ctx context.Context, item *models.OrderItem) error
	ClearCart(ctx context.Context, userID int64) error
}

type checkoutTx struct {
	tx *sqlx.Tx
}

// WithinCheckoutTx runs fn inside a database transaction. Any error from fn
// rolls the whole transaction back.
func (s *Store) WithinCheckoutTx(ctx context.Context, fn func(tx CheckoutTx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(&checkoutTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

func (t *checkoutTx) ProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := t.tx.GetContext(ctx, &product, "SELECT * FROM products WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, models.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// DecrementStock performs a conditional decrement: the update only matches
// when enough stock remains, so the affected-row count doubles as the
// oversell guard regardless of isolation level.
func (t *checkoutTx) DecrementStock(ctx context.Context, productID int64, qty int) (bool, error) {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE products
		 SET count_in_stock = count_in_stock - $1, updated_at = NOW()
		 WHERE id = $2 AND count_in_stock >= $1`,
		qty, productID)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (t *checkoutTx) InsertOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (
			order_number, user_id,
			billing_name, billing_email, billing_phone, billing_address,
			billing_country, billing_state, billing_zip, billing_company, billing_notes,
			payment_method, payment_status, status,
			subtotal, shipping_fee, tax_amount, total_amount, idempotency_key
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17, $18, $19
		)
		RETURNING id, created_at, updated_at`

	return t.tx.QueryRowxContext(ctx, query,
		order.OrderNumber, order.UserID,
		order.Name, order.Email, order.Phone, order.Address,
		order.Country, order.State, order.Zip, order.Company, order.Notes,
		order.PaymentMethod, order.PaymentStatus, order.Status,
		order.Subtotal, order.ShippingFee, order.TaxAmount, order.TotalAmount,
		order.IdempotencyKey,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
}

func (t *checkoutTx) InsertOrderItem(ctx context.Context, item *models.OrderItem) error {
	query := `
		INSERT INTO order_items (order_id, product_id, name, image, price, sale_price, unit_price, quantity, subtotal)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	return t.tx.GetContext(ctx, &item.ID, query,
		item.OrderID, item.ProductID, item.Name, item.Image,
		item.Price, item.SalePrice, item.UnitPrice, item.Quantity, item.Subtotal)
}

func (t *checkoutTx) ClearCart(ctx context.Context, userID int64) error {
	_, err := t.tx.ExecContext(ctx, "DELETE FROM cart_items WHERE user_id = $1", userID)
	return err
}

// Unique constraints on the orders table, for conflict handling.
const (
	OrderNumberConstraint    = "orders_order_number_key"
	IdempotencyKeyConstraint = "orders_idempotency_key_key"
)

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, models.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderByIdempotencyKey retrieves an order by idempotency key, nil if none
func (s *Store) GetOrderByIdempotencyKey(ctx context.Context, key string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE idempotency_key = $1", key)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrdersByUserID retrieves orders for a user, newest first
func (s *Store) GetOrdersByUserID(ctx context.Context, userID int64) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE user_id = $1 ORDER BY created_at DESC", userID)
	return orders, err
}

// GetOrders retrieves all orders, newest first
func (s *Store) GetOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders, "SELECT * FROM orders ORDER BY created_at DESC")
	return orders, err
}

// GetOrderItemsByOrderID retrieves all items for an order
func (s *Store) GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1 ORDER BY id", orderID)
	return items, err
}

// UpdateOrderStatus moves an order to a new status. The current status is
// part of the predicate so a stale transition loses instead of overwriting.
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID int64, from, to string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3",
		to, orderID, from)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

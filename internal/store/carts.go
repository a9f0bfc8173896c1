package store

import (
	"context"

	"storefront-service/internal/models"
)

// cartItemColumns joins each cart row with the current catalog fields so
// server-cart reads always reflect live product data. Guest carts keep
// their own add-time snapshot instead.
const cartItemColumns = `
	ci.product_id, ci.quantity, ci.added_at,
	p.name, p.image, p.category, p.price, p.sale_price, p.is_on_sale, p.count_in_stock`

// GetCartItems retrieves a user's server cart joined with current product data
func (s *Store) GetCartItems(ctx context.Context, userID int64) ([]models.CartItem, error) {
	var items []models.CartItem
	err := s.db.SelectContext(ctx, &items,
		`SELECT `+cartItemColumns+`
		 FROM cart_items ci
		 JOIN products p ON p.id = ci.product_id
		 WHERE ci.user_id = $1
		 ORDER BY ci.added_at`, userID)
	return items, err
}

// UpsertCartItem adds qty units of a product to a user's cart. An existing
// line item is incremented; the resulting quantity is clamped to the
// product's current stock in the same statement.
func (s *Store) UpsertCartItem(ctx context.Context, userID, productID int64, qty int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cart_items (user_id, product_id, quantity)
		 VALUES ($1, $2, LEAST($3, (SELECT count_in_stock FROM products WHERE id = $2)))
		 ON CONFLICT (user_id, product_id) DO UPDATE
		 SET quantity = LEAST(cart_items.quantity + EXCLUDED.quantity,
		                      (SELECT count_in_stock FROM products WHERE id = $2))`,
		userID, productID, qty)
	return err
}

// SetCartItemQuantity sets the exact quantity of an existing line item.
// The caller validates the quantity against stock beforehand.
func (s *Store) SetCartItemQuantity(ctx context.Context, userID, productID int64, qty int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cart_items (user_id, product_id, quantity)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = EXCLUDED.quantity`,
		userID, productID, qty)
	return err
}

// DeleteCartItem removes a line item; removing an absent item is a no-op
func (s *Store) DeleteCartItem(ctx context.Context, userID, productID int64) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2", userID, productID)
	return err
}

// ClearCart empties a user's server cart
func (s *Store) ClearCart(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM cart_items WHERE user_id = $1", userID)
	return err
}

// GetWishlistItems retrieves a user's wishlist joined with current product data
func (s *Store) GetWishlistItems(ctx context.Context, userID int64) ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	err := s.db.SelectContext(ctx, &items,
		`SELECT wi.product_id, wi.added_at,
		        p.name, p.image, p.category, p.price, p.sale_price, p.is_on_sale
		 FROM wishlist_items wi
		 JOIN products p ON p.id = wi.product_id
		 WHERE wi.user_id = $1
		 ORDER BY wi.added_at`, userID)
	return items, err
}

// AddWishlistItem adds a product to a user's wishlist; already present is a no-op
func (s *Store) AddWishlistItem(ctx context.Context, userID, productID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO wishlist_items (user_id, product_id)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id, product_id) DO NOTHING`,
		userID, productID)
	return err
}

// DeleteWishlistItem removes a product from a user's wishlist
func (s *Store) DeleteWishlistItem(ctx context.Context, userID, productID int64) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2", userID, productID)
	return err
}

// ClearWishlist empties a user's wishlist
func (s *Store) ClearWishlist(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM wishlist_items WHERE user_id = $1", userID)
	return err
}

package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"storefront-service/internal/models"

	"github.com/go-redis/redis/v8"
)

// Client wraps Redis for two concerns: whole-document guest cart/wishlist
// storage keyed by session id (the server-side stand-in for browser local
// storage: absent key reads as empty, every write replaces the whole
// document), and a read-through cache of product stock counts used for
// cart-time clamping.
type Client struct {
	rdb      *redis.Client
	guestTTL time.Duration
	stockTTL time.Duration
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int, guestTTL time.Duration) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{
		rdb:      rdb,
		guestTTL: guestTTL,
		stockTTL: 5 * time.Minute,
	}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

func guestCartKey(sessionID string) string     { return "guest:cart:" + sessionID }
func guestWishlistKey(sessionID string) string { return "guest:wishlist:" + sessionID }
func stockKey(productID int64) string          { return fmt.Sprintf("stock:%d", productID) }

// GetGuestCart loads a guest cart document. A missing key is an empty
// cart, never an error.
func (c *Client) GetGuestCart(ctx context.Context, sessionID string) (*models.Cart, error) {
	cart := &models.Cart{Items: []models.CartItem{}}
	if err := c.getJSON(ctx, guestCartKey(sessionID), cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// SaveGuestCart writes the whole cart document, refreshing the session TTL
func (c *Client) SaveGuestCart(ctx context.Context, sessionID string, cart *models.Cart) error {
	return c.setJSON(ctx, guestCartKey(sessionID), cart)
}

// DeleteGuestCart removes a guest cart document
func (c *Client) DeleteGuestCart(ctx context.Context, sessionID string) error {
	return c.rdb.Del(ctx, guestCartKey(sessionID)).Err()
}

// GetGuestWishlist loads a guest wishlist document; missing key means empty
func (c *Client) GetGuestWishlist(ctx context.Context, sessionID string) (*models.Wishlist, error) {
	wl := &models.Wishlist{Items: []models.WishlistItem{}}
	if err := c.getJSON(ctx, guestWishlistKey(sessionID), wl); err != nil {
		return nil, err
	}
	return wl, nil
}

// SaveGuestWishlist writes the whole wishlist document
func (c *Client) SaveGuestWishlist(ctx context.Context, sessionID string, wl *models.Wishlist) error {
	return c.setJSON(ctx, guestWishlistKey(sessionID), wl)
}

// DeleteGuestWishlist removes a guest wishlist document
func (c *Client) DeleteGuestWishlist(ctx context.Context, sessionID string) error {
	return c.rdb.Del(ctx, guestWishlistKey(sessionID)).Err()
}

func (c *Client) getJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("redis get %s failed: %w", key, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("corrupt document at %s: %w", key, err)
	}
	return nil
}

func (c *Client) setJSON(ctx context.Context, key string, val interface{}) error {
	data, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	if err := c.rdb.Set(ctx, key, data, c.guestTTL).Err(); err != nil {
		return fmt.Errorf("redis set %s failed: %w", key, err)
	}
	return nil
}

// CacheStock stores a product's stock count
func (c *Client) CacheStock(ctx context.Context, productID int64, count int) error {
	return c.rdb.Set(ctx, stockKey(productID), count, c.stockTTL).Err()
}

// CachedStock retrieves a cached stock count; ok is false on a miss
func (c *Client) CachedStock(ctx context.Context, productID int64) (int, bool, error) {
	val, err := c.rdb.Get(ctx, stockKey(productID)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	count, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt stock value for product %d: %w", productID, err)
	}
	return count, true, nil
}

// InvalidateStock drops cached stock counts, typically after a checkout
// decremented them in the database.
func (c *Client) InvalidateStock(ctx context.Context, productIDs ...int64) error {
	if len(productIDs) == 0 {
		return nil
	}
	keys := make([]string, len(productIDs))
	for i, id := range productIDs {
		keys[i] = stockKey(id)
	}
	return c.rdb.Del(ctx, keys...).Err()
}

package service

import (
	"context"
	"sync"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/store"

	"github.com/lib/pq"
)

// fakeKV is an in-memory stand-in for the Redis guest-session storage.
// Documents round-trip through copies so forgotten writes show up as
// test failures, the same way a real serialization boundary would.
type fakeKV struct {
	mu        sync.Mutex
	carts     map[string]*models.Cart
	wishlists map[string]*models.Wishlist
}

func newFakeKV() *fakeKV {
	return &fakeKV{
		carts:     make(map[string]*models.Cart),
		wishlists: make(map[string]*models.Wishlist),
	}
}

func copyCart(c *models.Cart) *models.Cart {
	out := &models.Cart{Items: make([]models.CartItem, len(c.Items))}
	copy(out.Items, c.Items)
	return out
}

func copyWishlist(w *models.Wishlist) *models.Wishlist {
	out := &models.Wishlist{Items: make([]models.WishlistItem, len(w.Items))}
	copy(out.Items, w.Items)
	return out
}

func (kv *fakeKV) GetGuestCart(ctx context.Context, sessionID string) (*models.Cart, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if c, ok := kv.carts[sessionID]; ok {
		return copyCart(c), nil
	}
	return &models.Cart{Items: []models.CartItem{}}, nil
}

func (kv *fakeKV) SaveGuestCart(ctx context.Context, sessionID string, cart *models.Cart) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.carts[sessionID] = copyCart(cart)
	return nil
}

func (kv *fakeKV) DeleteGuestCart(ctx context.Context, sessionID string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	delete(kv.carts, sessionID)
	return nil
}

func (kv *fakeKV) GetGuestWishlist(ctx context.Context, sessionID string) (*models.Wishlist, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if w, ok := kv.wishlists[sessionID]; ok {
		return copyWishlist(w), nil
	}
	return &models.Wishlist{Items: []models.WishlistItem{}}, nil
}

func (kv *fakeKV) SaveGuestWishlist(ctx context.Context, sessionID string, wl *models.Wishlist) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.wishlists[sessionID] = copyWishlist(wl)
	return nil
}

func (kv *fakeKV) DeleteGuestWishlist(ctx context.Context, sessionID string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	delete(kv.wishlists, sessionID)
	return nil
}

func (kv *fakeKV) hasCart(sessionID string) bool {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	_, ok := kv.carts[sessionID]
	return ok
}

// fakeDB is an in-memory stand-in for the Postgres store: product
// catalog, per-user carts and wishlists, and the checkout transaction
// with snapshot-on-failure rollback. A mutex serializes transactions the
// way the database's row locks would.
type fakeDB struct {
	mu          sync.Mutex
	products    map[int64]*models.Product
	carts       map[int64]map[int64]*models.CartItem
	wishlists   map[int64]map[int64]*models.WishlistItem
	orders      []*models.Order
	orderItems  map[int64][]models.OrderItem
	nextOrderID int64

	insertOrderErrs []error
}

func newFakeDB(products ...*models.Product) *fakeDB {
	db := &fakeDB{
		products:    make(map[int64]*models.Product),
		carts:       make(map[int64]map[int64]*models.CartItem),
		wishlists:   make(map[int64]map[int64]*models.WishlistItem),
		orderItems:  make(map[int64][]models.OrderItem),
		nextOrderID: 1,
	}
	for _, p := range products {
		db.products[p.ID] = p
	}
	return db
}

func (db *fakeDB) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.productByIDLocked(id)
}

func (db *fakeDB) productByIDLocked(id int64) (*models.Product, error) {
	p, ok := db.products[id]
	if !ok {
		return nil, models.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (db *fakeDB) GetProducts(ctx context.Context) ([]models.Product, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]models.Product, 0, len(db.products))
	for _, p := range db.products {
		out = append(out, *p)
	}
	return out, nil
}

func (db *fakeDB) GetProductReviews(ctx context.Context, productID int64) ([]models.Review, error) {
	return nil, nil
}

func (db *fakeDB) setStock(productID int64, count int) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.products[productID].CountInStock = count
}

func (db *fakeDB) setPrice(productID int64, price int64) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.products[productID].Price = price
}

func (db *fakeDB) GetCartItems(ctx context.Context, userID int64) ([]models.CartItem, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.cartItemsLocked(userID), nil
}

func (db *fakeDB) cartItemsLocked(userID int64) []models.CartItem {
	items := make([]models.CartItem, 0, len(db.carts[userID]))
	for _, item := range db.carts[userID] {
		joined := *item
		if p, ok := db.products[item.ProductID]; ok {
			joined.Name = p.Name
			joined.Image = p.Image
			joined.Category = p.Category
			joined.Price = p.Price
			joined.SalePrice = p.SalePrice
			joined.IsOnSale = p.IsOnSale
			joined.CountInStock = p.CountInStock
		}
		items = append(items, joined)
	}
	return items
}

func (db *fakeDB) UpsertCartItem(ctx context.Context, userID, productID int64, qty int) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.carts[userID] == nil {
		db.carts[userID] = make(map[int64]*models.CartItem)
	}
	stock := 0
	if p, ok := db.products[productID]; ok {
		stock = p.CountInStock
	}
	if item, ok := db.carts[userID][productID]; ok {
		item.Quantity += qty
		if item.Quantity > stock {
			item.Quantity = stock
		}
		return nil
	}
	if qty > stock {
		qty = stock
	}
	db.carts[userID][productID] = &models.CartItem{ProductID: productID, Quantity: qty, AddedAt: time.Now()}
	return nil
}

func (db *fakeDB) SetCartItemQuantity(ctx context.Context, userID, productID int64, qty int) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.carts[userID] == nil {
		db.carts[userID] = make(map[int64]*models.CartItem)
	}
	if item, ok := db.carts[userID][productID]; ok {
		item.Quantity = qty
		return nil
	}
	db.carts[userID][productID] = &models.CartItem{ProductID: productID, Quantity: qty, AddedAt: time.Now()}
	return nil
}

func (db *fakeDB) DeleteCartItem(ctx context.Context, userID, productID int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.carts[userID], productID)
	return nil
}

func (db *fakeDB) ClearCart(ctx context.Context, userID int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.carts, userID)
	return nil
}

func (db *fakeDB) GetWishlistItems(ctx context.Context, userID int64) ([]models.WishlistItem, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	items := make([]models.WishlistItem, 0, len(db.wishlists[userID]))
	for _, item := range db.wishlists[userID] {
		items = append(items, *item)
	}
	return items, nil
}

func (db *fakeDB) AddWishlistItem(ctx context.Context, userID, productID int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.wishlists[userID] == nil {
		db.wishlists[userID] = make(map[int64]*models.WishlistItem)
	}
	if _, ok := db.wishlists[userID][productID]; !ok {
		db.wishlists[userID][productID] = &models.WishlistItem{ProductID: productID, AddedAt: time.Now()}
	}
	return nil
}

func (db *fakeDB) DeleteWishlistItem(ctx context.Context, userID, productID int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.wishlists[userID], productID)
	return nil
}

func (db *fakeDB) ClearWishlist(ctx context.Context, userID int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	delete(db.wishlists, userID)
	return nil
}

// uniqueViolation mimics the pq error a constraint conflict produces.
func uniqueViolation(constraint string) error {
	return &pq.Error{Code: "23505", Constraint: constraint}
}

type fakeTx struct {
	db *fakeDB
}

func (db *fakeDB) WithinCheckoutTx(ctx context.Context, fn func(tx store.CheckoutTx) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	snapshot := db.snapshotLocked()
	if err := fn(&fakeTx{db: db}); err != nil {
		db.restoreLocked(snapshot)
		return err
	}
	return nil
}

type dbSnapshot struct {
	products    map[int64]models.Product
	carts       map[int64]map[int64]models.CartItem
	orders      []*models.Order
	orderItems  map[int64][]models.OrderItem
	nextOrderID int64
}

func (db *fakeDB) snapshotLocked() dbSnapshot {
	s := dbSnapshot{
		products:    make(map[int64]models.Product, len(db.products)),
		carts:       make(map[int64]map[int64]models.CartItem, len(db.carts)),
		orders:      append([]*models.Order(nil), db.orders...),
		orderItems:  make(map[int64][]models.OrderItem, len(db.orderItems)),
		nextOrderID: db.nextOrderID,
	}
	for id, p := range db.products {
		s.products[id] = *p
	}
	for userID, cart := range db.carts {
		s.carts[userID] = make(map[int64]models.CartItem, len(cart))
		for pid, item := range cart {
			s.carts[userID][pid] = *item
		}
	}
	for orderID, items := range db.orderItems {
		s.orderItems[orderID] = append([]models.OrderItem(nil), items...)
	}
	return s
}

func (db *fakeDB) restoreLocked(s dbSnapshot) {
	db.products = make(map[int64]*models.Product, len(s.products))
	for id := range s.products {
		p := s.products[id]
		db.products[id] = &p
	}
	db.carts = make(map[int64]map[int64]*models.CartItem, len(s.carts))
	for userID, cart := range s.carts {
		db.carts[userID] = make(map[int64]*models.CartItem, len(cart))
		for pid := range cart {
			item := cart[pid]
			db.carts[userID][pid] = &item
		}
	}
	db.orders = s.orders
	db.orderItems = s.orderItems
	db.nextOrderID = s.nextOrderID
}

func (t *fakeTx) ProductByID(ctx context.Context, id int64) (*models.Product, error) {
	return t.db.productByIDLocked(id)
}

func (t *fakeTx) DecrementStock(ctx context.Context, productID int64, qty int) (bool, error) {
	p, ok := t.db.products[productID]
	if !ok || p.CountInStock < qty {
		return false, nil
	}
	p.CountInStock -= qty
	return true, nil
}

func (t *fakeTx) InsertOrder(ctx context.Context, order *models.Order) error {
	if len(t.db.insertOrderErrs) > 0 {
		err := t.db.insertOrderErrs[0]
		t.db.insertOrderErrs = t.db.insertOrderErrs[1:]
		if err != nil {
			return err
		}
	}
	for _, existing := range t.db.orders {
		if existing.OrderNumber == order.OrderNumber {
			return uniqueViolation(store.OrderNumberConstraint)
		}
		if order.IdempotencyKey != "" && existing.IdempotencyKey == order.IdempotencyKey {
			return uniqueViolation(store.IdempotencyKeyConstraint)
		}
	}
	order.ID = t.db.nextOrderID
	t.db.nextOrderID++
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	stored := *order
	t.db.orders = append(t.db.orders, &stored)
	return nil
}

func (t *fakeTx) InsertOrderItem(ctx context.Context, item *models.OrderItem) error {
	item.ID = int64(len(t.db.orderItems[item.OrderID]) + 1)
	t.db.orderItems[item.OrderID] = append(t.db.orderItems[item.OrderID], *item)
	return nil
}

func (t *fakeTx) ClearCart(ctx context.Context, userID int64) error {
	delete(t.db.carts, userID)
	return nil
}

func (db *fakeDB) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, o := range db.orders {
		if o.ID == id {
			cp := *o
			return &cp, nil
		}
	}
	return nil, models.ErrOrderNotFound
}

func (db *fakeDB) GetOrderByIdempotencyKey(ctx context.Context, key string) (*models.Order, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, o := range db.orders {
		if o.IdempotencyKey == key {
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

func (db *fakeDB) GetOrdersByUserID(ctx context.Context, userID int64) ([]models.Order, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []models.Order
	for _, o := range db.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (db *fakeDB) GetOrders(ctx context.Context) ([]models.Order, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]models.Order, 0, len(db.orders))
	for _, o := range db.orders {
		out = append(out, *o)
	}
	return out, nil
}

func (db *fakeDB) GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return append([]models.OrderItem(nil), db.orderItems[orderID]...), nil
}

func (db *fakeDB) UpdateOrderStatus(ctx context.Context, orderID int64, from, to string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, o := range db.orders {
		if o.ID == orderID && o.Status == from {
			o.Status = to
			return true, nil
		}
	}
	return false, nil
}

func (db *fakeDB) cartQuantity(userID, productID int64) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	if item, ok := db.carts[userID][productID]; ok {
		return item.Quantity
	}
	return 0
}

// fakeStockCache implements the stock cache over a plain map.
type fakeStockCache struct {
	mu     sync.Mutex
	stocks map[int64]int
}

func newFakeStockCache() *fakeStockCache {
	return &fakeStockCache{stocks: make(map[int64]int)}
}

func (c *fakeStockCache) CachedStock(ctx context.Context, productID int64) (int, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	count, ok := c.stocks[productID]
	return count, ok, nil
}

func (c *fakeStockCache) CacheStock(ctx context.Context, productID int64, count int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stocks[productID] = count
	return nil
}

func (c *fakeStockCache) InvalidateStock(ctx context.Context, productIDs ...int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range productIDs {
		delete(c.stocks, id)
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"time"

	"storefront-service/internal/auth"
	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

type serverCartDB interface {
	GetCartItems(ctx context.Context, userID int64) ([]models.CartItem, error)
	UpsertCartItem(ctx context.Context, userID, productID int64, qty int) error
	SetCartItemQuantity(ctx context.Context, userID, productID int64, qty int) error
	DeleteCartItem(ctx context.Context, userID, productID int64) error
	ClearCart(ctx context.Context, userID int64) error
}

type guestCartKV interface {
	GetGuestCart(ctx context.Context, sessionID string) (*models.Cart, error)
	SaveGuestCart(ctx context.Context, sessionID string, cart *models.Cart) error
	DeleteGuestCart(ctx context.Context, sessionID string) error
}

// CartStore is one logical cart bound to its owner. Two implementations
// exist: a guest cart living as a whole document in session storage, and a
// server cart living row-per-item in the database. Callers never branch on
// the mode; they get the right store from CartService once per request.
type CartStore interface {
	Fetch(ctx context.Context) (*models.Cart, error)
	AddItem(ctx context.Context, p *models.Product, qty int) (*models.Cart, error)
	SetQuantity(ctx context.Context, p *models.Product, qty int) (*models.Cart, error)
	RemoveItem(ctx context.Context, productID int64) (*models.Cart, error)
	Clear(ctx context.Context) error
}

// guestCart persists the whole cart document on every mutation
// (write-through). A missing document reads as an empty cart.
type guestCart struct {
	kv        guestCartKV
	sessionID string
}

func (g *guestCart) Fetch(ctx context.Context) (*models.Cart, error) {
	return g.kv.GetGuestCart(ctx, g.sessionID)
}

// AddItem upserts a line item, incrementing an existing quantity. The
// result is silently clamped to the product's known stock; the display
// snapshot is refreshed from the catalog at every add.
func (g *guestCart) AddItem(ctx context.Context, p *models.Product, qty int) (*models.Cart, error) {
	cart, err := g.kv.GetGuestCart(ctx, g.sessionID)
	if err != nil {
		return nil, err
	}

	if item := cart.Item(p.ID); item != nil {
		newQty := item.Quantity + qty
		if newQty > p.CountInStock {
			newQty = p.CountInStock
		}
		if newQty < 1 {
			return g.RemoveItem(ctx, p.ID)
		}
		item.Quantity = newQty
		applySnapshot(item, p)
	} else {
		if qty > p.CountInStock {
			qty = p.CountInStock
		}
		if qty < 1 {
			return cart, nil
		}
		item := models.CartItem{ProductID: p.ID, Quantity: qty, AddedAt: time.Now()}
		applySnapshot(&item, p)
		cart.Items = append(cart.Items, item)
	}

	if err := g.kv.SaveGuestCart(ctx, g.sessionID, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (g *guestCart) SetQuantity(ctx context.Context, p *models.Product, qty int) (*models.Cart, error) {
	cart, err := g.kv.GetGuestCart(ctx, g.sessionID)
	if err != nil {
		return nil, err
	}

	if item := cart.Item(p.ID); item != nil {
		item.Quantity = qty
	} else {
		item := models.CartItem{ProductID: p.ID, Quantity: qty, AddedAt: time.Now()}
		applySnapshot(&item, p)
		cart.Items = append(cart.Items, item)
	}

	if err := g.kv.SaveGuestCart(ctx, g.sessionID, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (g *guestCart) RemoveItem(ctx context.Context, productID int64) (*models.Cart, error) {
	cart, err := g.kv.GetGuestCart(ctx, g.sessionID)
	if err != nil {
		return nil, err
	}

	kept := cart.Items[:0]
	for _, item := range cart.Items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	cart.Items = kept

	if err := g.kv.SaveGuestCart(ctx, g.sessionID, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (g *guestCart) Clear(ctx context.Context) error {
	return g.kv.DeleteGuestCart(ctx, g.sessionID)
}

func applySnapshot(item *models.CartItem, p *models.Product) {
	item.Name = p.Name
	item.Image = p.Image
	item.Category = p.Category
	item.Price = p.Price
	item.SalePrice = p.SalePrice
	item.IsOnSale = p.IsOnSale
	item.CountInStock = p.CountInStock
}

// serverCart delegates to the database; reads return the authoritative
// row set joined with live product data.
type serverCart struct {
	db     serverCartDB
	userID int64
}

func (s *serverCart) Fetch(ctx context.Context) (*models.Cart, error) {
	items, err := s.db.GetCartItems(ctx, s.userID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.CartItem{}
	}
	return &models.Cart{Items: items}, nil
}

func (s *serverCart) AddItem(ctx context.Context, p *models.Product, qty int) (*models.Cart, error) {
	if err := s.db.UpsertCartItem(ctx, s.userID, p.ID, qty); err != nil {
		return nil, err
	}
	return s.Fetch(ctx)
}

func (s *serverCart) SetQuantity(ctx context.Context, p *models.Product, qty int) (*models.Cart, error) {
	if err := s.db.SetCartItemQuantity(ctx, s.userID, p.ID, qty); err != nil {
		return nil, err
	}
	return s.Fetch(ctx)
}

func (s *serverCart) RemoveItem(ctx context.Context, productID int64) (*models.Cart, error) {
	if err := s.db.DeleteCartItem(ctx, s.userID, productID); err != nil {
		return nil, err
	}
	return s.Fetch(ctx)
}

func (s *serverCart) Clear(ctx context.Context) error {
	return s.db.ClearCart(ctx, s.userID)
}

// CartService presents one logical cart regardless of authentication
// state and owns the login/logout transition rules.
type CartService struct {
	db      serverCartDB
	kv      guestCartKV
	catalog *CatalogService
	logger  *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(db serverCartDB, kv guestCartKV, catalog *CatalogService) *CartService {
	return &CartService{
		db:      db,
		kv:      kv,
		catalog: catalog,
		logger:  util.GetLogger(),
	}
}

func (s *CartService) storeFor(ident auth.Identity) CartStore {
	if ident.Authenticated() {
		return &serverCart{db: s.db, userID: ident.UserID}
	}
	return &guestCart{kv: s.kv, sessionID: ident.SessionID}
}

func cartMode(ident auth.Identity) string {
	if ident.Authenticated() {
		return "server"
	}
	return "guest"
}

// Fetch returns the caller's current cart; an unknown guest session is an
// empty cart, not an error.
func (s *CartService) Fetch(ctx context.Context, ident auth.Identity) (*models.Cart, error) {
	return s.storeFor(ident).Fetch(ctx)
}

// AddItem upserts a line item, incrementing any existing quantity. The
// resulting quantity is clamped to current stock rather than rejected.
func (s *CartService) AddItem(ctx context.Context, ident auth.Identity, productID int64, qty int) (*models.Cart, error) {
	if qty < 1 {
		qty = 1
	}
	p, err := s.catalog.Product(ctx, productID)
	if err != nil {
		return nil, err
	}

	cart, err := s.storeFor(ident).AddItem(ctx, p, qty)
	if err != nil {
		return nil, err
	}
	util.CartMutationsTotal.WithLabelValues(cartMode(ident), "add").Inc()
	return cart, nil
}

// UpdateQuantity sets an exact quantity. Zero or negative removes the
// item; a quantity above current stock is rejected with an
// InsufficientStockError so the caller can offer a correction.
func (s *CartService) UpdateQuantity(ctx context.Context, ident auth.Identity, productID int64, qty int) (*models.Cart, error) {
	if qty <= 0 {
		return s.RemoveItem(ctx, ident, productID)
	}

	p, err := s.catalog.Product(ctx, productID)
	if err != nil {
		return nil, err
	}
	stock, err := s.catalog.Stock(ctx, productID)
	if err != nil {
		return nil, err
	}
	if qty > stock {
		return nil, &models.InsufficientStockError{
			ProductID:   p.ID,
			ProductName: p.Name,
			Available:   stock,
			Requested:   qty,
		}
	}

	cart, err := s.storeFor(ident).SetQuantity(ctx, p, qty)
	if err != nil {
		return nil, err
	}
	util.CartMutationsTotal.WithLabelValues(cartMode(ident), "update").Inc()
	return cart, nil
}

// RemoveItem deletes a line item; removing an absent item is a no-op.
func (s *CartService) RemoveItem(ctx context.Context, ident auth.Identity, productID int64) (*models.Cart, error) {
	cart, err := s.storeFor(ident).RemoveItem(ctx, productID)
	if err != nil {
		return nil, err
	}
	util.CartMutationsTotal.WithLabelValues(cartMode(ident), "remove").Inc()
	return cart, nil
}

// Clear empties the caller's cart.
func (s *CartService) Clear(ctx context.Context, ident auth.Identity) error {
	if err := s.storeFor(ident).Clear(ctx); err != nil {
		return err
	}
	util.CartMutationsTotal.WithLabelValues(cartMode(ident), "clear").Inc()
	return nil
}

// MergeGuestCart folds a guest session's cart into the signed-in user's
// server cart: quantities for the same product are summed and clamped to
// current stock, products that no longer exist are dropped, and the guest
// document is deleted afterward.
func (s *CartService) MergeGuestCart(ctx context.Context, userID int64, sessionID string) (*models.Cart, error) {
	guest, err := s.kv.GetGuestCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	srv := &serverCart{db: s.db, userID: userID}
	for _, item := range guest.Items {
		p, err := s.catalog.Product(ctx, item.ProductID)
		if errors.Is(err, models.ErrProductNotFound) {
			s.logger.Info("Dropping stale guest cart item",
				zap.Int64("product_id", item.ProductID),
				zap.String("session_id", sessionID))
			continue
		}
		if err != nil {
			return nil, err
		}
		if _, err := srv.AddItem(ctx, p, item.Quantity); err != nil {
			return nil, err
		}
	}

	if err := s.kv.DeleteGuestCart(ctx, sessionID); err != nil {
		s.logger.Warn("Failed to delete merged guest cart",
			zap.String("session_id", sessionID),
			zap.Error(err))
	}
	return srv.Fetch(ctx)
}

// SnapshotToGuest copies the user's server cart into the guest session
// document on logout. Server-side state is left untouched.
func (s *CartService) SnapshotToGuest(ctx context.Context, userID int64, sessionID string) (*models.Cart, error) {
	srv := &serverCart{db: s.db, userID: userID}
	cart, err := srv.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.kv.SaveGuestCart(ctx, sessionID, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// RemainingAddable reports how many more units of a product the caller
// can still add given current stock and cart contents, floor zero.
func (s *CartService) RemainingAddable(ctx context.Context, ident auth.Identity, productID int64) (int, error) {
	p, err := s.catalog.Product(ctx, productID)
	if err != nil {
		return 0, err
	}
	cart, err := s.Fetch(ctx, ident)
	if err != nil {
		return 0, err
	}
	return cart.RemainingAddable(p), nil
}

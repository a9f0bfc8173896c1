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

type serverWishlistDB interface {
	GetWishlistItems(ctx context.Context, userID int64) ([]models.WishlistItem, error)
	AddWishlistItem(ctx context.Context, userID, productID int64) error
	DeleteWishlistItem(ctx context.Context, userID, productID int64) error
	ClearWishlist(ctx context.Context, userID int64) error
}

type guestWishlistKV interface {
	GetGuestWishlist(ctx context.Context, sessionID string) (*models.Wishlist, error)
	SaveGuestWishlist(ctx context.Context, sessionID string, wl *models.Wishlist) error
	DeleteGuestWishlist(ctx context.Context, sessionID string) error
}

// WishlistService mirrors the cart's guest/server duality without
// quantities: membership is boolean and unconstrained by stock.
type WishlistService struct {
	db      serverWishlistDB
	kv      guestWishlistKV
	catalog *CatalogService
	logger  *zap.Logger
}

// NewWishlistService creates a new wishlist service
func NewWishlistService(db serverWishlistDB, kv guestWishlistKV, catalog *CatalogService) *WishlistService {
	return &WishlistService{
		db:      db,
		kv:      kv,
		catalog: catalog,
		logger:  util.GetLogger(),
	}
}

// Fetch returns the caller's wishlist; an unknown guest session is empty.
func (s *WishlistService) Fetch(ctx context.Context, ident auth.Identity) (*models.Wishlist, error) {
	if ident.Authenticated() {
		items, err := s.db.GetWishlistItems(ctx, ident.UserID)
		if err != nil {
			return nil, err
		}
		if items == nil {
			items = []models.WishlistItem{}
		}
		return &models.Wishlist{Items: items}, nil
	}
	return s.kv.GetGuestWishlist(ctx, ident.SessionID)
}

// Add puts a product on the wishlist; adding it twice is a no-op.
func (s *WishlistService) Add(ctx context.Context, ident auth.Identity, productID int64) (*models.Wishlist, error) {
	p, err := s.catalog.Product(ctx, productID)
	if err != nil {
		return nil, err
	}

	if ident.Authenticated() {
		if err := s.db.AddWishlistItem(ctx, ident.UserID, p.ID); err != nil {
			return nil, err
		}
		return s.Fetch(ctx, ident)
	}

	wl, err := s.kv.GetGuestWishlist(ctx, ident.SessionID)
	if err != nil {
		return nil, err
	}
	if !wl.Contains(p.ID) {
		wl.Items = append(wl.Items, models.WishlistItem{
			ProductID: p.ID,
			Name:      p.Name,
			Image:     p.Image,
			Category:  p.Category,
			Price:     p.Price,
			SalePrice: p.SalePrice,
			IsOnSale:  p.IsOnSale,
			AddedAt:   time.Now(),
		})
		if err := s.kv.SaveGuestWishlist(ctx, ident.SessionID, wl); err != nil {
			return nil, err
		}
	}
	return wl, nil
}

// Remove takes a product off the wishlist; absence is a no-op.
func (s *WishlistService) Remove(ctx context.Context, ident auth.Identity, productID int64) (*models.Wishlist, error) {
	if ident.Authenticated() {
		if err := s.db.DeleteWishlistItem(ctx, ident.UserID, productID); err != nil {
			return nil, err
		}
		return s.Fetch(ctx, ident)
	}

	wl, err := s.kv.GetGuestWishlist(ctx, ident.SessionID)
	if err != nil {
		return nil, err
	}
	kept := wl.Items[:0]
	for _, item := range wl.Items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	wl.Items = kept
	if err := s.kv.SaveGuestWishlist(ctx, ident.SessionID, wl); err != nil {
		return nil, err
	}
	return wl, nil
}

// Clear empties the wishlist.
func (s *WishlistService) Clear(ctx context.Context, ident auth.Identity) error {
	if ident.Authenticated() {
		return s.db.ClearWishlist(ctx, ident.UserID)
	}
	return s.kv.DeleteGuestWishlist(ctx, ident.SessionID)
}

// MergeGuestWishlist unions a guest session's wishlist into the signed-in
// user's server wishlist, dropping stale product references, then deletes
// the guest document.
func (s *WishlistService) MergeGuestWishlist(ctx context.Context, userID int64, sessionID string) (*models.Wishlist, error) {
	guest, err := s.kv.GetGuestWishlist(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	for _, item := range guest.Items {
		if _, err := s.catalog.Product(ctx, item.ProductID); errors.Is(err, models.ErrProductNotFound) {
			s.logger.Info("Dropping stale guest wishlist item",
				zap.Int64("product_id", item.ProductID),
				zap.String("session_id", sessionID))
			continue
		} else if err != nil {
			return nil, err
		}
		if err := s.db.AddWishlistItem(ctx, userID, item.ProductID); err != nil {
			return nil, err
		}
	}

	if err := s.kv.DeleteGuestWishlist(ctx, sessionID); err != nil {
		s.logger.Warn("Failed to delete merged guest wishlist",
			zap.String("session_id", sessionID),
			zap.Error(err))
	}
	return s.Fetch(ctx, auth.Identity{UserID: userID})
}

// SnapshotToGuest copies the user's server wishlist into the guest
// session document on logout.
func (s *WishlistService) SnapshotToGuest(ctx context.Context, userID int64, sessionID string) (*models.Wishlist, error) {
	wl, err := s.Fetch(ctx, auth.Identity{UserID: userID})
	if err != nil {
		return nil, err
	}
	if err := s.kv.SaveGuestWishlist(ctx, sessionID, wl); err != nil {
		return nil, err
	}
	return wl, nil
}

package service

import (
	"context"

	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

type productDB interface {
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	GetProducts(ctx context.Context) ([]models.Product, error)
	GetProductReviews(ctx context.Context, productID int64) ([]models.Review, error)
}

type stockCache interface {
	CachedStock(ctx context.Context, productID int64) (int, bool, error)
	CacheStock(ctx context.Context, productID int64, count int) error
	InvalidateStock(ctx context.Context, productIDs ...int64) error
}

// CatalogService reads the product catalog. Stock lookups used for
// cart-time clamping go through a Redis read-through cache; the checkout
// transaction never uses it and always re-reads the database.
type CatalogService struct {
	db     productDB
	cache  stockCache
	logger *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(db productDB, cache stockCache) *CatalogService {
	return &CatalogService{
		db:     db,
		cache:  cache,
		logger: util.GetLogger(),
	}
}

// Product retrieves a product from the database and refreshes its cached
// stock count on the way out.
func (s *CatalogService) Product(ctx context.Context, id int64) (*models.Product, error) {
	p, err := s.db.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.CacheStock(ctx, p.ID, p.CountInStock); err != nil {
			s.logger.Warn("Failed to refresh stock cache",
				zap.Int64("product_id", p.ID),
				zap.Error(err))
		}
	}
	return p, nil
}

// Stock returns a product's current stock count, preferring the cache.
func (s *CatalogService) Stock(ctx context.Context, productID int64) (int, error) {
	if s.cache != nil {
		count, ok, err := s.cache.CachedStock(ctx, productID)
		if err != nil {
			s.logger.Warn("Stock cache lookup failed, falling back to DB",
				zap.Int64("product_id", productID),
				zap.Error(err))
		} else if ok {
			util.StockCacheLookupsTotal.WithLabelValues("hit").Inc()
			return count, nil
		}
	}
	util.StockCacheLookupsTotal.WithLabelValues("miss").Inc()

	p, err := s.db.GetProductByID(ctx, productID)
	if err != nil {
		return 0, err
	}
	if s.cache != nil {
		if err := s.cache.CacheStock(ctx, productID, p.CountInStock); err != nil {
			s.logger.Warn("Failed to populate stock cache",
				zap.Int64("product_id", productID),
				zap.Error(err))
		}
	}
	return p.CountInStock, nil
}

// ListProducts retrieves the full catalog
func (s *CatalogService) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.db.GetProducts(ctx)
}

// Reviews retrieves reviews for a product
func (s *CatalogService) Reviews(ctx context.Context, productID int64) ([]models.Review, error) {
	return s.db.GetProductReviews(ctx, productID)
}

// SyncStockToCache primes the stock cache from the database at startup.
func (s *CatalogService) SyncStockToCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	products, err := s.db.GetProducts(ctx)
	if err != nil {
		return err
	}
	for i := range products {
		if err := s.cache.CacheStock(ctx, products[i].ID, products[i].CountInStock); err != nil {
			s.logger.Error("Failed to prime stock cache",
				zap.Int64("product_id", products[i].ID),
				zap.Error(err))
		}
	}
	s.logger.Info("Stock cache primed", zap.Int("count", len(products)))
	return nil
}

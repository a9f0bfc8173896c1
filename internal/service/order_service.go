package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront-service/internal/auth"
	"storefront-service/internal/models"
	"storefront-service/internal/ordernum"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxOrderNumberAttempts bounds regeneration when a generated order number
// collides with an existing one.
const maxOrderNumberAttempts = 3

type checkoutStore interface {
	WithinCheckoutTx(ctx context.Context, fn func(tx store.CheckoutTx) error) error
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	GetOrderByIdempotencyKey(ctx context.Context, key string) (*models.Order, error)
	GetOrdersByUserID(ctx context.Context, userID int64) ([]models.Order, error)
	GetOrders(ctx context.Context) ([]models.Order, error)
	GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, from, to string) (bool, error)
}

type eventPublisher interface {
	PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error
	PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error
}

type stockInvalidator interface {
	InvalidateStock(ctx context.Context, productIDs ...int64) error
}

// OrderService is the single place a checkout becomes a durable order.
// Stock validation, price snapshotting, the stock decrement, the order
// insert, and the server-cart wipe all commit or roll back as one
// database transaction.
type OrderService struct {
	store       checkoutStore
	numbers     *ordernum.Generator
	events      eventPublisher
	cache       stockInvalidator
	shippingFee int64
	taxRate     float64
	logger      *zap.Logger
}

// NewOrderService creates a new order service. events and cache may be nil.
func NewOrderService(st checkoutStore, numbers *ordernum.Generator, events eventPublisher, cache stockInvalidator, shippingFee int64, taxRate float64) *OrderService {
	return &OrderService{
		store:       st,
		numbers:     numbers,
		events:      events,
		cache:       cache,
		shippingFee: shippingFee,
		taxRate:     taxRate,
		logger:      util.GetLogger(),
	}
}

// PlaceOrderRequest is the checkout payload. Any client-sent prices,
// subtotals, or totals are advisory; the server recomputes everything.
type PlaceOrderRequest struct {
	BillingInfo    models.BillingInfo `json:"billing_info" binding:"required"`
	PaymentMethod  string             `json:"payment_method" binding:"required"`
	Items          []OrderItemRequest `json:"items" binding:"required,min=1"`
	Subtotal       int64              `json:"subtotal"`
	TotalAmount    int64              `json:"total_amount"`
	OrderNotes     string             `json:"order_notes,omitempty"`
	IdempotencyKey string             `json:"idempotency_key,omitempty"`
}

// OrderItemRequest identifies a product and desired quantity. Display
// fields the client may attach alongside are ignored.
type OrderItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,min=1"`
}

func validatePlaceOrder(req *PlaceOrderRequest) error {
	var missing []string
	billing := map[string]string{
		"name":    req.BillingInfo.Name,
		"email":   req.BillingInfo.Email,
		"phone":   req.BillingInfo.Phone,
		"address": req.BillingInfo.Address,
		"country": req.BillingInfo.Country,
		"state":   req.BillingInfo.State,
		"zip":     req.BillingInfo.Zip,
	}
	for _, field := range []string{"name", "email", "phone", "address", "country", "state", "zip"} {
		if billing[field] == "" {
			missing = append(missing, field)
		}
	}
	if !models.ValidPaymentMethod(req.PaymentMethod) {
		missing = append(missing, "payment_method")
	}
	if len(req.Items) == 0 {
		missing = append(missing, "items")
	}
	for _, item := range req.Items {
		if item.ProductID == 0 || item.Quantity < 1 {
			missing = append(missing, "items")
			break
		}
	}
	if len(missing) > 0 {
		return &models.ValidationError{Fields: missing}
	}
	return nil
}

// PlaceOrder runs the checkout transaction for a user and returns the
// created order with its item snapshots.
func (s *OrderService) PlaceOrder(ctx context.Context, userID int64, req *PlaceOrderRequest) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.PlaceOrder")
	defer span.End()

	start := time.Now()
	defer func() {
		util.CheckoutLatency.Observe(time.Since(start).Seconds())
	}()

	if err := validatePlaceOrder(req); err != nil {
		util.OrdersFailedTotal.WithLabelValues("validation").Inc()
		return nil, err
	}

	if req.IdempotencyKey == "" {
		req.IdempotencyKey = uuid.New().String()
	}

	if existing, err := s.existingOrder(ctx, req.IdempotencyKey); err != nil {
		return nil, err
	} else if existing != nil {
		s.logger.Info("Duplicate checkout request",
			zap.String("idempotency_key", req.IdempotencyKey),
			zap.Int64("order_id", existing.ID))
		return existing, nil
	}

	var order *models.Order
	for attempt := 0; attempt < maxOrderNumberAttempts; attempt++ {
		candidate := &models.Order{
			OrderNumber:    s.numbers.Next(),
			UserID:         userID,
			BillingInfo:    req.BillingInfo,
			PaymentMethod:  req.PaymentMethod,
			PaymentStatus:  models.PaymentStatusPending,
			Status:         models.OrderStatusPending,
			IdempotencyKey: req.IdempotencyKey,
		}
		if req.OrderNotes != "" && candidate.Notes == "" {
			candidate.Notes = req.OrderNotes
		}

		err := s.store.WithinCheckoutTx(ctx, func(tx store.CheckoutTx) error {
			return s.checkout(ctx, tx, candidate, userID, req.Items)
		})
		if err == nil {
			order = candidate
			break
		}
		if store.IsUniqueViolation(err, store.OrderNumberConstraint) {
			util.OrderNumberRetriesTotal.Inc()
			s.logger.Warn("Order number collision, regenerating",
				zap.String("order_number", candidate.OrderNumber))
			continue
		}
		if store.IsUniqueViolation(err, store.IdempotencyKeyConstraint) {
			// Raced with a duplicate submit; the first writer wins.
			return s.existingOrder(ctx, req.IdempotencyKey)
		}
		s.countFailure(err)
		return nil, err
	}
	if order == nil {
		util.OrdersFailedTotal.WithLabelValues("order_number_exhausted").Inc()
		return nil, fmt.Errorf("could not allocate a unique order number")
	}

	util.OrdersCreatedTotal.Inc()
	s.logger.Info("Order created",
		zap.Int64("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.Int64("total_amount", order.TotalAmount))

	s.afterCommit(ctx, order)
	return order, nil
}

// checkout implements the transaction body: per item in input order,
// re-fetch the product, decrement stock behind the conditional guard,
// snapshot the price, then persist the order and empty the server cart.
func (s *OrderService) checkout(ctx context.Context, tx store.CheckoutTx, order *models.Order, userID int64, items []OrderItemRequest) error {
	var subtotal int64
	snapshots := make([]models.OrderItem, 0, len(items))

	for _, req := range items {
		p, err := tx.ProductByID(ctx, req.ProductID)
		if errors.Is(err, models.ErrProductNotFound) {
			return fmt.Errorf("product %d: %w", req.ProductID, models.ErrProductNotFound)
		}
		if err != nil {
			return err
		}

		ok, err := tx.DecrementStock(ctx, p.ID, req.Quantity)
		if err != nil {
			return err
		}
		if !ok {
			// Re-read so the reported availability reflects any racing
			// checkout that just depleted the stock.
			available := p.CountInStock
			if fresh, err := tx.ProductByID(ctx, p.ID); err == nil {
				available = fresh.CountInStock
			}
			return &models.InsufficientStockError{
				ProductID:   p.ID,
				ProductName: p.Name,
				Available:   available,
				Requested:   req.Quantity,
			}
		}

		unit := p.EffectivePrice()
		lineSubtotal := unit * int64(req.Quantity)
		subtotal += lineSubtotal

		snapshots = append(snapshots, models.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Image:     p.Image,
			Price:     p.Price,
			SalePrice: p.SalePrice,
			UnitPrice: unit,
			Quantity:  req.Quantity,
			Subtotal:  lineSubtotal,
		})
	}

	order.Subtotal = subtotal
	order.ShippingFee = s.shippingFee
	order.TaxAmount = int64(float64(subtotal) * s.taxRate)
	order.TotalAmount = order.Subtotal + order.ShippingFee + order.TaxAmount

	if err := tx.InsertOrder(ctx, order); err != nil {
		return err
	}
	for i := range snapshots {
		snapshots[i].OrderID = order.ID
		if err := tx.InsertOrderItem(ctx, &snapshots[i]); err != nil {
			return err
		}
	}
	order.Items = snapshots

	return tx.ClearCart(ctx, userID)
}

func (s *OrderService) countFailure(err error) {
	var stockErr *models.InsufficientStockError
	switch {
	case errors.Is(err, models.ErrProductNotFound):
		util.OrdersFailedTotal.WithLabelValues("product_not_found").Inc()
	case errors.As(err, &stockErr):
		util.OrdersFailedTotal.WithLabelValues("insufficient_stock").Inc()
	default:
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
	}
}

// afterCommit handles non-transactional follow-ups: dropping stale stock
// cache entries and publishing the creation event. Failures are logged,
// never surfaced; the order already exists.
func (s *OrderService) afterCommit(ctx context.Context, order *models.Order) {
	if s.cache != nil {
		ids := make([]int64, len(order.Items))
		for i := range order.Items {
			ids[i] = order.Items[i].ProductID
		}
		if err := s.cache.InvalidateStock(ctx, ids...); err != nil {
			s.logger.Warn("Failed to invalidate stock cache", zap.Error(err))
		}
	}

	if s.events == nil {
		return
	}
	itemData := make([]models.OrderItemData, len(order.Items))
	for i, item := range order.Items {
		itemData[i] = models.OrderItemData{
			ProductID: item.ProductID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Subtotal:  item.Subtotal,
		}
	}
	event := &models.OrderCreatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderCreated,
			Timestamp: time.Now(),
		},
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Email:       order.Email,
		TotalAmount: order.TotalAmount,
		Items:       itemData,
	}
	if err := s.events.PublishOrderCreated(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderCreated event", zap.Error(err))
	}
}

// existingOrder loads an order by idempotency key with items attached,
// or nil when the key is unused.
func (s *OrderService) existingOrder(ctx context.Context, key string) (*models.Order, error) {
	order, err := s.store.GetOrderByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to check idempotency: %w", err)
	}
	if order == nil {
		return nil, nil
	}
	items, err := s.store.GetOrderItemsByOrderID(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

// GetOrder retrieves one order; only its owner or an admin may read it.
func (s *OrderService) GetOrder(ctx context.Context, ident auth.Identity, orderID int64) (*models.Order, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !ident.IsAdmin() && order.UserID != ident.UserID {
		return nil, models.ErrForbidden
	}
	items, err := s.store.GetOrderItemsByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

// ListUserOrders retrieves the caller's orders, newest first.
func (s *OrderService) ListUserOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	return s.store.GetOrdersByUserID(ctx, userID)
}

// ListOrders retrieves all orders (admin).
func (s *OrderService) ListOrders(ctx context.Context) ([]models.Order, error) {
	return s.store.GetOrders(ctx)
}

// UpdateStatus moves an order along the fixed status progression (admin).
func (s *OrderService) UpdateStatus(ctx context.Context, orderID int64, to string) (*models.Order, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !models.ValidStatusTransition(order.Status, to) {
		return nil, &models.StatusTransitionError{From: order.Status, To: to}
	}

	ok, err := s.store.UpdateOrderStatus(ctx, orderID, order.Status, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost a race with another status update; report against the
		// state we read.
		return nil, &models.StatusTransitionError{From: order.Status, To: to}
	}

	from := order.Status
	order.Status = to
	s.logger.Info("Order status updated",
		zap.Int64("order_id", orderID),
		zap.String("from", from),
		zap.String("to", to))

	if s.events != nil {
		event := &models.OrderStatusChangedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeOrderStatusChanged,
				Timestamp: time.Now(),
			},
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			UserID:      order.UserID,
			From:        from,
			To:          to,
		}
		if err := s.events.PublishOrderStatusChanged(ctx, event); err != nil {
			s.logger.Error("Failed to publish OrderStatusChanged event", zap.Error(err))
		}
	}
	return order, nil
}

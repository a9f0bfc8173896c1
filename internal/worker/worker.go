package worker

import (
	"context"

	"storefront-service/internal/broker"
	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// NotificationWorker consumes order events and emits customer
// notifications. It sits entirely outside the checkout path: order
// creation never waits on it, and losing it loses notifications only.
type NotificationWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(consumer *broker.Consumer) *NotificationWorker {
	w := &NotificationWorker{
		consumer: consumer,
		logger:   util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnOrderCreated(w.handleOrderCreated)
	eventHandler.OnOrderStatusChanged(w.handleOrderStatusChanged)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *NotificationWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting notification worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *NotificationWorker) Stop() error {
	w.logger.Info("Stopping notification worker")
	return w.consumer.Close()
}

// handleOrderCreated sends the order confirmation. Delivery is a log line
// for now; a mail provider slots in here without touching the consumer.
func (w *NotificationWorker) handleOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error {
	w.logger.Info("Order confirmation notification",
		zap.String("order_number", event.OrderNumber),
		zap.String("email", event.Email),
		zap.Int64("total_amount", event.TotalAmount),
		zap.Int("item_count", len(event.Items)))

	util.NotificationsSentTotal.WithLabelValues(event.EventType).Inc()
	return nil
}

func (w *NotificationWorker) handleOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error {
	w.logger.Info("Order status notification",
		zap.String("order_number", event.OrderNumber),
		zap.String("from", event.From),
		zap.String("to", event.To))

	util.NotificationsSentTotal.WithLabelValues(event.EventType).Inc()
	return nil
}

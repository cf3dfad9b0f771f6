package service

import (
	"context"
	"time"

	"textile-backoffice/internal/models"
	"textile-backoffice/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// notifier publishes events once the writes they describe are committed.
// Failures are logged and never reach the caller.
type notifier struct {
	events EventPublisher
	logger *zap.Logger
}

func newNotifier(events EventPublisher) notifier {
	return notifier{events: events, logger: util.GetLogger()}
}

func baseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}

func (n notifier) entityChanged(ctx context.Context, collection, id, action string) {
	if n.events == nil {
		return
	}
	err := n.events.PublishEntityChanged(ctx, &models.EntityChangedEvent{
		BaseEvent:  baseEvent(models.EventTypeEntityChanged),
		Collection: collection,
		EntityID:   id,
		Action:     action,
	})
	if err != nil {
		n.logger.Error("Failed to publish EntityChanged event",
			zap.String("collection", collection), zap.String("id", id), zap.Error(err))
	}
}

func (n notifier) stockChanged(ctx context.Context, changes []StockChange) {
	if n.events == nil {
		return
	}
	for _, c := range changes {
		err := n.events.PublishStockChanged(ctx, &models.StockChangedEvent{
			BaseEvent:   baseEvent(models.EventTypeStockChanged),
			ProductID:   c.ProductID,
			UnsoldStock: c.UnsoldStock,
			DepotStock:  c.DepotStock,
			Reason:      c.Reason,
		})
		if err != nil {
			n.logger.Error("Failed to publish StockChanged event", zap.String("product_id", c.ProductID), zap.Error(err))
		}
	}
}

func (n notifier) orderCreated(ctx context.Context, order *models.Order) {
	if n.events == nil {
		return
	}
	err := n.events.PublishOrderCreated(ctx, &models.OrderCreatedEvent{
		BaseEvent:  baseEvent(models.EventTypeOrderCreated),
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		Items:      order.Items,
	})
	if err != nil {
		n.logger.Error("Failed to publish OrderCreated event", zap.String("order_id", order.ID), zap.Error(err))
	}
}

func (n notifier) orderShipped(ctx context.Context, order *models.Order) {
	if n.events == nil {
		return
	}
	err := n.events.PublishOrderShipped(ctx, &models.OrderShippedEvent{
		BaseEvent: baseEvent(models.EventTypeOrderShipped),
		OrderID:   order.ID,
		Items:     order.Items,
	})
	if err != nil {
		n.logger.Error("Failed to publish OrderShipped event", zap.String("order_id", order.ID), zap.Error(err))
	}
}

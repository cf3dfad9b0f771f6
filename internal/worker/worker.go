package worker

import (
	"context"

	"textile-backoffice/internal/broker"
	"textile-backoffice/internal/models"
	"textile-backoffice/internal/util"

	"go.uber.org/zap"
)

// MessageSource is a broker subscription
type MessageSource interface {
	StartConsuming(ctx context.Context, handler broker.MessageHandler) error
	Close() error
}

// ChangePublisher fans events out to connected clients
type ChangePublisher interface {
	PublishChange(ctx context.Context, payload []byte) error
}

// NotificationWorker relays domain events to the change stream and raises
// low-stock alerts
type NotificationWorker struct {
	consumer     MessageSource
	eventHandler *broker.EventHandler
	changes      ChangePublisher
	threshold    int
	logger       *zap.Logger
}

// NewNotificationWorker creates a new notification worker. changes may be
// nil, in which case only alerts are raised.
func NewNotificationWorker(consumer MessageSource, changes ChangePublisher, lowStockThreshold int) *NotificationWorker {
	w := &NotificationWorker{
		consumer:     consumer,
		eventHandler: broker.NewEventHandler(),
		changes:      changes,
		threshold:    lowStockThreshold,
		logger:       util.GetLogger(),
	}

	w.eventHandler.OnAny(w.forward)
	w.eventHandler.OnStockChanged(w.checkStock)
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

func (w *NotificationWorker) forward(ctx context.Context, event models.BaseEvent, raw []byte) error {
	if w.changes == nil {
		return nil
	}
	if err := w.changes.PublishChange(ctx, raw); err != nil {
		// the stream is best effort; do not block the partition on it
		w.logger.Warn("Failed to forward change",
			zap.String("event_id", event.EventID),
			zap.String("type", event.EventType),
			zap.Error(err))
	}
	return nil
}

func (w *NotificationWorker) checkStock(ctx context.Context, event *models.StockChangedEvent) error {
	for _, counter := range w.lowCounters(event) {
		util.LowStockAlertsTotal.WithLabelValues(counter).Inc()
		w.logger.Warn("Low stock",
			zap.String("product_id", event.ProductID),
			zap.String("counter", counter),
			zap.Int("unsold_stock", event.UnsoldStock),
			zap.Int("depot_stock", event.DepotStock),
			zap.Int("threshold", w.threshold))
	}
	return nil
}

// lowCounters names the counters of event that fell below the threshold
func (w *NotificationWorker) lowCounters(event *models.StockChangedEvent) []string {
	var low []string
	if event.UnsoldStock < w.threshold {
		low = append(low, "unsold")
	}
	if event.DepotStock < w.threshold {
		low = append(low, "depot")
	}
	return low
}

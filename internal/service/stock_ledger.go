package service

import (
	"context"
	"errors"
	"fmt"

	"textile-backoffice/internal/models"
	"textile-backoffice/internal/util"

	"go.uber.org/zap"
)

// StockChange is the state of a product's counters after a ledger write
type StockChange struct {
	ProductID   string `json:"product_id"`
	UnsoldStock int    `json:"unsold_stock"`
	DepotStock  int    `json:"depot_stock"`
	Reason      string `json:"reason"`
}

// LedgerResult lists the counters written and the products that were skipped
type LedgerResult struct {
	Changes []StockChange
	Skipped []string
}

// StockLedger keeps depot and unsold stock in step with the order lifecycle.
// Its methods write through the context they are given, so callers decide
// the transaction boundary. Line items whose product is gone are skipped.
type StockLedger struct {
	products StockRepository
	logger   *zap.Logger
}

// NewStockLedger creates a new stock ledger
func NewStockLedger(products StockRepository) *StockLedger {
	return &StockLedger{
		products: products,
		logger:   util.GetLogger(),
	}
}

// ApplyOrderCreated takes every line's quantity out of unsold stock, floored at 0
func (l *StockLedger) ApplyOrderCreated(ctx context.Context, items []models.OrderItem) (*LedgerResult, error) {
	return l.apply(ctx, items, models.StockReasonOrderCreated, l.products.DecrementUnsoldStock)
}

// ApplyShipment takes every line's quantity out of depot stock, floored at 0
func (l *StockLedger) ApplyShipment(ctx context.Context, items []models.OrderItem) (*LedgerResult, error) {
	return l.apply(ctx, items, models.StockReasonShipment, l.products.DecrementDepotStock)
}

// Restock adds quantity to a product's depot stock
func (l *StockLedger) Restock(ctx context.Context, productID string, quantity int) (*StockChange, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: restock quantity must be positive", models.ErrValidation)
	}

	if err := l.products.IncrementDepotStock(ctx, productID, quantity); err != nil {
		return nil, err
	}
	util.StockAdjustmentsTotal.WithLabelValues(models.StockReasonRestock).Inc()

	return l.snapshot(ctx, productID, models.StockReasonRestock)
}

func (l *StockLedger) apply(
	ctx context.Context,
	items []models.OrderItem,
	reason string,
	write func(ctx context.Context, id string, quantity int) error,
) (*LedgerResult, error) {
	result := &LedgerResult{}
	touched := make(map[string]bool, len(items))
	var order []string

	for _, item := range items {
		if err := write(ctx, item.ProductID, item.Quantity); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				l.logger.Warn("Skipping line item for missing product",
					zap.String("product_id", item.ProductID),
					zap.String("reason", reason))
				util.StockItemsSkippedTotal.WithLabelValues(reason).Inc()
				result.Skipped = append(result.Skipped, item.ProductID)
				continue
			}
			return nil, fmt.Errorf("failed to adjust stock of %s: %w", item.ProductID, err)
		}
		util.StockAdjustmentsTotal.WithLabelValues(reason).Inc()

		if !touched[item.ProductID] {
			touched[item.ProductID] = true
			order = append(order, item.ProductID)
		}
	}

	for _, id := range order {
		change, err := l.snapshot(ctx, id, reason)
		if err != nil {
			return nil, err
		}
		result.Changes = append(result.Changes, *change)
	}
	return result, nil
}

func (l *StockLedger) snapshot(ctx context.Context, productID, reason string) (*StockChange, error) {
	p, err := l.products.GetProductByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to read stock of %s: %w", productID, err)
	}
	return &StockChange{
		ProductID:   p.ID,
		UnsoldStock: p.UnsoldStock,
		DepotStock:  p.DepotStock,
		Reason:      reason,
	}, nil
}

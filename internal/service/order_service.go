package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"textile-backoffice/internal/models"
	"textile-backoffice/internal/store"
	"textile-backoffice/internal/util"

	"go.uber.org/zap"
)

// OrderService runs the order workflow: RECEIVED on creation, SHIPPED once
// the goods leave the depot, nothing after that.
type OrderService struct {
	tx             TxRunner
	orders         OrderRepository
	customers      CustomerRepository
	products       ProductRepository
	ledger         *StockLedger
	activity       *ActivityLogService
	idempotency    IdempotencyStore
	idempotencyTTL time.Duration
	notify         notifier
	logger         *zap.Logger
}

// NewOrderService creates a new order service. idempotency may be nil, in
// which case request keys are ignored.
func NewOrderService(
	tx TxRunner,
	orders OrderRepository,
	customers CustomerRepository,
	products ProductRepository,
	ledger *StockLedger,
	activity *ActivityLogService,
	idempotency IdempotencyStore,
	idempotencyTTL time.Duration,
	events EventPublisher,
) *OrderService {
	return &OrderService{
		tx:             tx,
		orders:         orders,
		customers:      customers,
		products:       products,
		ledger:         ledger,
		activity:       activity,
		idempotency:    idempotency,
		idempotencyTTL: idempotencyTTL,
		notify:         newNotifier(events),
		logger:         util.GetLogger(),
	}
}

// NewCustomerRequest describes a customer created together with an order.
// Contact is split on "@": an address goes to Email, anything else to Phone.
type NewCustomerRequest struct {
	Name    string `json:"name"`
	Contact string `json:"contact,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// CreateOrderRequest represents a request to create an order
type CreateOrderRequest struct {
	CustomerID     string              `json:"customer_id,omitempty"`
	NewCustomer    *NewCustomerRequest `json:"new_customer,omitempty"`
	Items          []models.OrderItem  `json:"items"`
	Notes          string              `json:"notes,omitempty"`
	IdempotencyKey string              `json:"-"`
}

func (r *CreateOrderRequest) normalize() {
	r.CustomerID = strings.TrimSpace(r.CustomerID)
	r.Notes = strings.TrimSpace(r.Notes)
	if nc := r.NewCustomer; nc != nil {
		nc.Name = strings.TrimSpace(nc.Name)
		nc.Email = strings.TrimSpace(nc.Email)
		nc.Phone = strings.TrimSpace(nc.Phone)
		if contact := strings.TrimSpace(nc.Contact); contact != "" {
			if strings.Contains(contact, "@") {
				if nc.Email == "" {
					nc.Email = contact
				}
			} else if nc.Phone == "" {
				nc.Phone = contact
			}
		}
	}
	for i := range r.Items {
		r.Items[i].ProductID = strings.TrimSpace(r.Items[i].ProductID)
	}
}

func (r *CreateOrderRequest) validate() error {
	if len(r.Items) == 0 {
		return fmt.Errorf("%w: order needs at least one line item", models.ErrValidation)
	}
	for i, item := range r.Items {
		if item.ProductID == "" {
			return fmt.Errorf("%w: line %d has no product", models.ErrValidation, i+1)
		}
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: line %d quantity must be positive", models.ErrValidation, i+1)
		}
	}

	switch {
	case r.CustomerID != "" && r.NewCustomer != nil:
		return fmt.Errorf("%w: give either a customer id or a new customer, not both", models.ErrValidation)
	case r.CustomerID != "":
		return nil
	case r.NewCustomer == nil:
		return fmt.Errorf("%w: order needs a customer", models.ErrValidation)
	case r.NewCustomer.Name == "":
		return fmt.Errorf("%w: new customer needs a name", models.ErrValidation)
	case r.NewCustomer.Email == "" && r.NewCustomer.Phone == "":
		return fmt.Errorf("%w: new customer needs an email or a phone", models.ErrValidation)
	}
	return nil
}

// CreateOrder validates the request, creates the customer when asked to,
// stores the order as RECEIVED and takes its quantities out of unsold stock,
// all in one transaction. With an idempotency key, a repeated request returns
// the order created by the first one.
func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (order *models.Order, err error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer func() { util.EndSpan(span, err) }()

	req.normalize()
	if err := req.validate(); err != nil {
		util.OrdersFailedTotal.WithLabelValues("invalid_request").Inc()
		return nil, err
	}

	if req.IdempotencyKey != "" && s.idempotency != nil {
		existing, claimed, claimErr := s.idempotency.ClaimIdempotencyKey(ctx, req.IdempotencyKey, s.idempotencyTTL)
		if claimErr != nil {
			return nil, fmt.Errorf("failed to check idempotency: %w", claimErr)
		}
		if !claimed {
			if existing == "" {
				return nil, fmt.Errorf("%w: request %s is still being processed", models.ErrConflict, req.IdempotencyKey)
			}
			s.logger.Info("Duplicate order request detected",
				zap.String("idempotency_key", req.IdempotencyKey),
				zap.String("order_id", existing))
			util.OrdersDuplicateTotal.Inc()
			return s.orders.GetOrderByID(ctx, existing)
		}

		defer func() {
			if err != nil || order == nil {
				if relErr := s.idempotency.ReleaseIdempotencyKey(ctx, req.IdempotencyKey); relErr != nil {
					s.logger.Warn("Failed to release idempotency key", zap.Error(relErr))
				}
				return
			}
			if setErr := s.idempotency.CompleteIdempotencyKey(ctx, req.IdempotencyKey, order.ID, s.idempotencyTTL); setErr != nil {
				s.logger.Warn("Failed to store idempotency result", zap.Error(setErr))
			}
		}()
	}

	var (
		newCustomer *models.Customer
		ledger      *LedgerResult
	)
	start := time.Now()

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		customer, created, err := s.resolveCustomer(ctx, req)
		if err != nil {
			return err
		}
		if created {
			newCustomer = customer
		}

		if err := s.ensureProductsExist(ctx, req.Items); err != nil {
			return err
		}

		order = &models.Order{
			ID:         newID(prefixOrder),
			CustomerID: customer.ID,
			Customer:   models.OrderCustomer(*customer),
			Items:      append(models.OrderItems(nil), req.Items...),
			Status:     models.OrderStatusReceived,
			Notes:      req.Notes,
			CreatedAt:  now(),
		}
		if err := s.orders.CreateOrder(ctx, order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		ledger, err = s.ledger.ApplyOrderCreated(ctx, order.Items)
		return err
	})
	util.TxDuration.WithLabelValues("create_order").Observe(time.Since(start).Seconds())
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}

	util.OrdersCreatedTotal.Inc()
	s.logger.Info("Order created",
		zap.String("order_id", order.ID),
		zap.String("customer_id", order.CustomerID),
		zap.Int("items", len(order.Items)))

	if newCustomer != nil {
		s.notify.entityChanged(ctx, models.CollectionCustomers, newCustomer.ID, models.ChangeCreated)
	}
	s.notify.entityChanged(ctx, models.CollectionOrders, order.ID, models.ChangeCreated)
	s.notify.orderCreated(ctx, order)
	s.notify.stockChanged(ctx, ledger.Changes)

	return order, nil
}

func (s *OrderService) resolveCustomer(ctx context.Context, req *CreateOrderRequest) (*models.Customer, bool, error) {
	if req.CustomerID != "" {
		customer, err := s.customers.GetCustomerByID(ctx, req.CustomerID)
		if errors.Is(err, models.ErrNotFound) {
			return nil, false, fmt.Errorf("%w: customer %s does not exist", models.ErrValidation, req.CustomerID)
		}
		return customer, false, err
	}

	customer := &models.Customer{
		ID:        newID(prefixCustomer),
		Name:      req.NewCustomer.Name,
		Email:     req.NewCustomer.Email,
		Phone:     req.NewCustomer.Phone,
		CreatedAt: now(),
	}
	if err := s.customers.CreateCustomer(ctx, customer); err != nil {
		return nil, false, fmt.Errorf("failed to create customer: %w", err)
	}
	return customer, true, nil
}

func (s *OrderService) ensureProductsExist(ctx context.Context, items []models.OrderItem) error {
	ids := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}

	products, err := s.products.GetProductsByIDs(ctx, ids)
	if err != nil {
		return err
	}
	if len(products) == len(ids) {
		return nil
	}

	found := make(map[string]bool, len(products))
	for _, p := range products {
		found[p.ID] = true
	}
	for _, id := range ids {
		if !found[id] {
			return fmt.Errorf("%w: product %s does not exist", models.ErrValidation, id)
		}
	}
	return nil
}

// ShipOrder moves a RECEIVED order to SHIPPED and takes its quantities out of
// depot stock in the same transaction. Shipping an order that is already
// SHIPPED returns it unchanged.
func (s *OrderService) ShipOrder(ctx context.Context, id string) (order *models.Order, err error) {
	ctx, span := util.StartSpan(ctx, "OrderService.ShipOrder")
	defer func() { util.EndSpan(span, err) }()

	var (
		ledger *LedgerResult
		moved  bool
	)
	start := time.Now()

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		order, err = s.orders.GetOrderByID(ctx, id)
		if err != nil {
			return err
		}
		if order.Status == models.OrderStatusShipped {
			return nil
		}

		moved, err = s.orders.TransitionOrderStatus(ctx, id, models.OrderStatusReceived, models.OrderStatusShipped)
		if err != nil || !moved {
			return err
		}
		order.Status = models.OrderStatusShipped

		ledger, err = s.ledger.ApplyShipment(ctx, order.Items)
		return err
	})
	util.TxDuration.WithLabelValues("ship_order").Observe(time.Since(start).Seconds())
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues(failureReason(err)).Inc()
		return nil, err
	}

	if !moved {
		s.logger.Info("Order already shipped", zap.String("order_id", id))
		return order, nil
	}

	util.OrdersShippedTotal.Inc()
	s.logger.Info("Order shipped", zap.String("order_id", id), zap.Strings("skipped_products", ledger.Skipped))

	s.notify.entityChanged(ctx, models.CollectionOrders, order.ID, models.ChangeUpdated)
	s.notify.orderShipped(ctx, order)
	s.notify.stockChanged(ctx, ledger.Changes)

	return order, nil
}

// UpdateStatus drives the workflow to status. Only RECEIVED to SHIPPED
// moves; asking for the current status is a no-op and going back is
// ErrInvalidTransition.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error) {
	if _, err := models.ParseOrderStatus(string(status)); err != nil {
		return nil, err
	}
	if status == models.OrderStatusShipped {
		return s.ShipOrder(ctx, id)
	}

	order, err := s.orders.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status != status {
		util.OrdersFailedTotal.WithLabelValues("invalid_transition").Inc()
		return nil, fmt.Errorf("%w: order %s is %s and cannot go back to %s",
			models.ErrInvalidTransition, id, order.Status, status)
	}
	return order, nil
}

// GetOrder retrieves an order by ID
func (s *OrderService) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.GetOrder")
	defer span.End()

	return s.orders.GetOrderByID(ctx, id)
}

// ListOrders returns orders newest first
func (s *OrderService) ListOrders(ctx context.Context, filter store.OrderFilter) ([]models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.ListOrders")
	defer span.End()

	if filter.Status != "" {
		if _, err := models.ParseOrderStatus(string(filter.Status)); err != nil {
			return nil, err
		}
	}
	return s.orders.ListOrders(ctx, filter)
}

// DeleteOrder moves an order into the activity log. Stock taken by the order
// is not given back.
func (s *OrderService) DeleteOrder(ctx context.Context, id string) (err error) {
	ctx, span := util.StartSpan(ctx, "OrderService.DeleteOrder")
	defer func() { util.EndSpan(span, err) }()

	var entry *models.ActivityLogItem
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		order, err := s.orders.GetOrderByID(ctx, id)
		if err != nil {
			return err
		}
		entry, err = s.activity.RecordDeletion(ctx, OrderDescription(order), order)
		if err != nil {
			return err
		}
		return s.orders.DeleteOrder(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Order deleted", zap.String("order_id", id), zap.String("log_id", entry.ID))
	s.notify.entityChanged(ctx, models.CollectionOrders, id, models.ChangeDeleted)
	s.notify.entityChanged(ctx, models.CollectionActivity, entry.ID, models.ChangeCreated)
	return nil
}

// OrderDescription is the activity log text for a deleted order
func OrderDescription(order *models.Order) string {
	short := order.ID
	if len(short) > 6 {
		short = short[len(short)-6:]
	}
	return fmt.Sprintf("Order #%s - %s", short, order.Customer.Name)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, models.ErrValidation):
		return "validation"
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	case errors.Is(err, models.ErrConflict):
		return "conflict"
	default:
		return "db_error"
	}
}

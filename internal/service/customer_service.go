package service

import (
	"context"
	"fmt"
	"strings"

	"textile-backoffice/internal/models"
	"textile-backoffice/internal/store"
	"textile-backoffice/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CustomerService manages customer records
type CustomerService struct {
	tx        TxRunner
	customers CustomerRepository
	orders    OrderRepository
	products  ProductRepository
	activity  *ActivityLogService
	notify    notifier
	logger    *zap.Logger
}

// NewCustomerService creates a new customer service
func NewCustomerService(
	tx TxRunner,
	customers CustomerRepository,
	orders OrderRepository,
	products ProductRepository,
	activity *ActivityLogService,
	events EventPublisher,
) *CustomerService {
	return &CustomerService{
		tx:        tx,
		customers: customers,
		orders:    orders,
		products:  products,
		activity:  activity,
		notify:    newNotifier(events),
		logger:    util.GetLogger(),
	}
}

// CustomerInput represents a request to create a customer
type CustomerInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// CreateCustomer adds a customer
func (s *CustomerService) CreateCustomer(ctx context.Context, in *CustomerInput) (*models.Customer, error) {
	ctx, span := util.StartSpan(ctx, "CustomerService.CreateCustomer")
	defer span.End()

	customer := &models.Customer{
		ID:        newID(prefixCustomer),
		Name:      strings.TrimSpace(in.Name),
		Email:     strings.TrimSpace(in.Email),
		Phone:     strings.TrimSpace(in.Phone),
		CreatedAt: now(),
	}
	if customer.Name == "" {
		return nil, fmt.Errorf("%w: customer name is required", models.ErrValidation)
	}

	if err := s.customers.CreateCustomer(ctx, customer); err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	s.logger.Info("Customer created", zap.String("customer_id", customer.ID))
	s.notify.entityChanged(ctx, models.CollectionCustomers, customer.ID, models.ChangeCreated)
	return customer, nil
}

// ListCustomers returns customers matching search by name, email or phone
func (s *CustomerService) ListCustomers(ctx context.Context, search string) ([]models.Customer, error) {
	return s.customers.ListCustomers(ctx, strings.TrimSpace(search))
}

// CustomerDetail is a customer with its order history
type CustomerDetail struct {
	Customer   *models.Customer `json:"customer"`
	Orders     []models.Order   `json:"orders"`
	TotalSpent decimal.Decimal  `json:"total_spent"`
}

// GetCustomerDetail loads a customer, its orders and what they add up to at
// current prices
func (s *CustomerService) GetCustomerDetail(ctx context.Context, id string) (*CustomerDetail, error) {
	ctx, span := util.StartSpan(ctx, "CustomerService.GetCustomerDetail")
	defer span.End()

	detail := &CustomerDetail{}
	var products []models.Product

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		detail.Customer, err = s.customers.GetCustomerByID(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		detail.Orders, err = s.orders.ListOrders(gctx, store.OrderFilter{CustomerID: id})
		return err
	})
	g.Go(func() error {
		var err error
		products, err = s.products.ListProducts(gctx, store.ProductFilter{})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	prices := priceIndex(products)
	detail.TotalSpent = decimal.Zero
	for i := range detail.Orders {
		detail.TotalSpent = detail.TotalSpent.Add(detail.Orders[i].Total(prices))
	}
	return detail, nil
}

// DeleteCustomer moves a customer into the activity log. Orders keep their
// embedded copy of the customer.
func (s *CustomerService) DeleteCustomer(ctx context.Context, id string) (err error) {
	ctx, span := util.StartSpan(ctx, "CustomerService.DeleteCustomer")
	defer func() { util.EndSpan(span, err) }()

	var entry *models.ActivityLogItem
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		customer, err := s.customers.GetCustomerByID(ctx, id)
		if err != nil {
			return err
		}
		entry, err = s.activity.RecordDeletion(ctx, customer.Name, customer)
		if err != nil {
			return err
		}
		return s.customers.DeleteCustomer(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Customer deleted", zap.String("customer_id", id), zap.String("log_id", entry.ID))
	s.notify.entityChanged(ctx, models.CollectionCustomers, id, models.ChangeDeleted)
	s.notify.entityChanged(ctx, models.CollectionActivity, entry.ID, models.ChangeCreated)
	return nil
}

func priceIndex(products []models.Product) map[string]decimal.Decimal {
	prices := make(map[string]decimal.Decimal, len(products))
	for _, p := range products {
		prices[p.ID] = p.Price
	}
	return prices
}

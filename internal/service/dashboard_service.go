package service

import (
	"context"
	"time"

	"textile-backoffice/internal/models"
	"textile-backoffice/internal/store"
	"textile-backoffice/internal/util"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// DefaultLowStockThreshold is used when none is configured
const DefaultLowStockThreshold = 10

// Dashboard is the landing page summary
type Dashboard struct {
	TotalRevenue   decimal.Decimal `json:"total_revenue"`
	MonthlyRevenue decimal.Decimal `json:"monthly_revenue"`
	OrderCount     int             `json:"order_count"`
	OrdersToShip   int             `json:"orders_to_ship"`
	CustomerCount  int             `json:"customer_count"`
	ProductCount   int             `json:"product_count"`
	LowUnsoldStock int             `json:"low_unsold_stock"`
	LowDepotStock  int             `json:"low_depot_stock"`
	RecentOrders   []models.Order  `json:"recent_orders"`
}

// DashboardService computes the landing page summary
type DashboardService struct {
	orders    OrderRepository
	customers CustomerRepository
	products  ProductRepository
	threshold int
	clock     func() time.Time
}

func NewDashboardService(orders OrderRepository, customers CustomerRepository, products ProductRepository, lowStockThreshold int) *DashboardService {
	if lowStockThreshold <= 0 {
		lowStockThreshold = DefaultLowStockThreshold
	}
	return &DashboardService{
		orders:    orders,
		customers: customers,
		products:  products,
		threshold: lowStockThreshold,
		clock:     time.Now,
	}
}

const recentOrderCount = 5

// Summary prices every order at current product prices. Monthly revenue
// covers orders created in the current calendar month (UTC).
func (s *DashboardService) Summary(ctx context.Context) (*Dashboard, error) {
	ctx, span := util.StartSpan(ctx, "DashboardService.Summary")
	defer span.End()

	var (
		orders    []models.Order
		customers []models.Customer
		products  []models.Product
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		orders, err = s.orders.ListOrders(gctx, store.OrderFilter{})
		return err
	})
	g.Go(func() (err error) {
		customers, err = s.customers.ListCustomers(gctx, "")
		return err
	})
	g.Go(func() (err error) {
		products, err = s.products.ListProducts(gctx, store.ProductFilter{})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := s.clock().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	prices := priceIndex(products)

	d := &Dashboard{
		TotalRevenue:   decimal.Zero,
		MonthlyRevenue: decimal.Zero,
		OrderCount:     len(orders),
		CustomerCount:  len(customers),
		ProductCount:   len(products),
		RecentOrders:   []models.Order{},
	}
	for i := range orders {
		total := orders[i].Total(prices)
		d.TotalRevenue = d.TotalRevenue.Add(total)
		if !orders[i].CreatedAt.Before(monthStart) {
			d.MonthlyRevenue = d.MonthlyRevenue.Add(total)
		}
		if orders[i].Status == models.OrderStatusReceived {
			d.OrdersToShip++
		}
	}
	for _, p := range products {
		if p.UnsoldStock < s.threshold {
			d.LowUnsoldStock++
		}
		if p.DepotStock < s.threshold {
			d.LowDepotStock++
		}
	}
	if len(orders) > recentOrderCount {
		orders = orders[:recentOrderCount]
	}
	d.RecentOrders = append(d.RecentOrders, orders...)
	return d, nil
}

package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"textile-backoffice/internal/auth"
	"textile-backoffice/internal/models"
	"textile-backoffice/internal/store"
	"textile-backoffice/internal/store/testhelper"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeEvents struct {
	mu    sync.Mutex
	types []string
	stock []models.StockChangedEvent
}

func (f *fakeEvents) record(eventType string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.types = append(f.types, eventType)
}

func (f *fakeEvents) PublishEntityChanged(ctx context.Context, e *models.EntityChangedEvent) error {
	f.record(e.EventType)
	return nil
}

func (f *fakeEvents) PublishOrderCreated(ctx context.Context, e *models.OrderCreatedEvent) error {
	f.record(e.EventType)
	return nil
}

func (f *fakeEvents) PublishOrderShipped(ctx context.Context, e *models.OrderShippedEvent) error {
	f.record(e.EventType)
	return nil
}

func (f *fakeEvents) PublishStockChanged(ctx context.Context, e *models.StockChangedEvent) error {
	f.record(e.EventType)
	f.mu.Lock()
	f.stock = append(f.stock, *e)
	f.mu.Unlock()
	return nil
}

func (f *fakeEvents) count(eventType string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.types {
		if t == eventType {
			n++
		}
	}
	return n
}

type fakeIdempotency struct {
	mu   sync.Mutex
	keys map[string]string
}

func (f *fakeIdempotency) ClaimIdempotencyKey(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.keys[key]; ok {
		return v, false, nil
	}
	f.keys[key] = ""
	return "", true, nil
}

func (f *fakeIdempotency) CompleteIdempotencyKey(ctx context.Context, key, result string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys[key] = result
	return nil
}

func (f *fakeIdempotency) ReleaseIdempotencyKey(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.keys, key)
	return nil
}

type fakeSessions struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func (f *fakeSessions) RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[tokenID] = true
	return nil
}

func (f *fakeSessions) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.revoked[tokenID], nil
}

type harness struct {
	store     *store.Store
	events    *fakeEvents
	idem      *fakeIdempotency
	sessions  *fakeSessions
	ledger    *StockLedger
	activity  *ActivityLogService
	users     *UserService
	catalog   *CatalogService
	customers *CustomerService
	orders    *OrderService
	dashboard *DashboardService
}

func newHarness(t *testing.T) *harness {
	return newHarnessWithStock(t, nil)
}

// newHarnessWithStock lets a test swap the stock write path
func newHarnessWithStock(t *testing.T, stock StockRepository) *harness {
	t.Helper()

	s := testhelper.NewStore(t)
	if stock == nil {
		stock = s
	}
	h := &harness{
		store:    s,
		events:   &fakeEvents{},
		idem:     &fakeIdempotency{keys: map[string]string{}},
		sessions: &fakeSessions{revoked: map[string]bool{}},
	}

	tokens := auth.NewJWTManager("a-test-secret-that-is-long-enough-for-hs256", "backoffice-test", time.Hour)

	h.ledger = NewStockLedger(stock)
	h.activity = NewActivityLogService(s, s, s, h.events)
	h.users = NewUserService(s, s, h.activity, tokens, h.sessions, bcrypt.MinCost, h.events)
	h.catalog = NewCatalogService(s, s, s, h.ledger, h.activity, h.events)
	h.customers = NewCustomerService(s, s, s, s, h.activity, h.events)
	h.orders = NewOrderService(s, s, s, s, h.ledger, h.activity, h.idem, time.Hour, h.events)
	h.dashboard = NewDashboardService(s, s, s, DefaultLowStockThreshold)
	return h
}

func (h *harness) product(t *testing.T, name string, unsold, depot int, price string) *models.Product {
	t.Helper()
	p, err := h.catalog.CreateProduct(context.Background(), &ProductInput{
		Name:        name,
		Model:       name + "-M",
		Price:       decimal.RequireFromString(price),
		UnsoldStock: unsold,
		DepotStock:  depot,
		Category:    "T-Shirt",
		Brand:       "Marka A",
	})
	require.NoError(t, err)
	return p
}

func (h *harness) customer(t *testing.T, name string) *models.Customer {
	t.Helper()
	c, err := h.customers.CreateCustomer(context.Background(), &CustomerInput{Name: name, Email: "info@example.com"})
	require.NoError(t, err)
	return c
}

func (h *harness) stock(t *testing.T, id string) (unsold, depot int) {
	t.Helper()
	p, err := h.store.GetProductByID(context.Background(), id)
	require.NoError(t, err)
	return p.UnsoldStock, p.DepotStock
}

func assertSameProduct(t *testing.T, want, got *models.Product) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.Model, got.Model)
	assert.True(t, want.Price.Equal(got.Price), "price %s != %s", want.Price, got.Price)
	assert.Equal(t, want.UnsoldStock, got.UnsoldStock)
	assert.Equal(t, want.DepotStock, got.DepotStock)
	assert.Equal(t, want.DepotLocation, got.DepotLocation)
	assert.Equal(t, want.Notes, got.Notes)
	assert.Equal(t, want.Category, got.Category)
	assert.Equal(t, want.Brand, got.Brand)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
}

func assertSameOrder(t *testing.T, want, got *models.Order) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.CustomerID, got.CustomerID)
	assert.Equal(t, want.Customer.Name, got.Customer.Name)
	assert.Equal(t, want.Items, got.Items)
	assert.Equal(t, want.Status, got.Status)
	assert.Equal(t, want.Notes, got.Notes)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
}

package service

import (
	"context"
	"time"

	"textile-backoffice/internal/models"
	"textile-backoffice/internal/store"

	"github.com/google/uuid"
)

// TxRunner runs fn in one unit of work. Repository calls made with the
// context passed to fn join it.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id string) error
}

type ProductRepository interface {
	CreateProduct(ctx context.Context, product *models.Product) error
	GetProductByID(ctx context.Context, id string) (*models.Product, error)
	GetProductsByIDs(ctx context.Context, ids []string) ([]models.Product, error)
	ListProducts(ctx context.Context, filter store.ProductFilter) ([]models.Product, error)
	UpdateProduct(ctx context.Context, product *models.Product) error
	UpdateProductNotes(ctx context.Context, id, notes string) error
	DeleteProduct(ctx context.Context, id string) error
}

// StockRepository is the only write path to the stock counters
type StockRepository interface {
	GetProductByID(ctx context.Context, id string) (*models.Product, error)
	DecrementUnsoldStock(ctx context.Context, id string, quantity int) error
	DecrementDepotStock(ctx context.Context, id string, quantity int) error
	IncrementDepotStock(ctx context.Context, id string, quantity int) error
}

type CustomerRepository interface {
	CreateCustomer(ctx context.Context, customer *models.Customer) error
	GetCustomerByID(ctx context.Context, id string) (*models.Customer, error)
	ListCustomers(ctx context.Context, search string) ([]models.Customer, error)
	DeleteCustomer(ctx context.Context, id string) error
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	ListOrders(ctx context.Context, filter store.OrderFilter) ([]models.Order, error)
	TransitionOrderStatus(ctx context.Context, id string, from, to models.OrderStatus) (bool, error)
	DeleteOrder(ctx context.Context, id string) error
}

type CatalogRepository interface {
	CreateCategory(ctx context.Context, category *models.Category) error
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateBrand(ctx context.Context, brand *models.Brand) error
	ListBrands(ctx context.Context) ([]models.Brand, error)
}

type ActivityRepository interface {
	CreateActivityLogItem(ctx context.Context, item *models.ActivityLogItem) error
	GetActivityLogItem(ctx context.Context, id string) (*models.ActivityLogItem, error)
	ListActivityLog(ctx context.Context, filter store.ActivityFilter) ([]models.ActivityLogItem, error)
	DeleteActivityLogItem(ctx context.Context, id string) error
}

// RecordWriter re-inserts restored snapshots under their original ids
type RecordWriter interface {
	UpsertUser(ctx context.Context, user *models.User) error
	UpsertProduct(ctx context.Context, product *models.Product) error
	UpsertCustomer(ctx context.Context, customer *models.Customer) error
	UpsertOrder(ctx context.Context, order *models.Order) error
}

// EventPublisher carries domain events to the broker
type EventPublisher interface {
	PublishEntityChanged(ctx context.Context, event *models.EntityChangedEvent) error
	PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error
	PublishOrderShipped(ctx context.Context, event *models.OrderShippedEvent) error
	PublishStockChanged(ctx context.Context, event *models.StockChangedEvent) error
}

// IdempotencyStore remembers which order a client request key produced
type IdempotencyStore interface {
	ClaimIdempotencyKey(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	CompleteIdempotencyKey(ctx context.Context, key, result string, ttl time.Duration) error
	ReleaseIdempotencyKey(ctx context.Context, key string) error
}

// SessionStore tracks revoked session tokens
type SessionStore interface {
	RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}

// ID prefixes per collection
const (
	prefixUser     = "user"
	prefixProduct  = "prod"
	prefixCustomer = "cus"
	prefixOrder    = "ord"
	prefixCategory = "cat"
	prefixBrand    = "brand"
	prefixLog      = "log"
)

func newID(prefix string) string {
	return prefix + "_" + uuid.New().String()
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

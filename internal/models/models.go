package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Role is one of the fixed back-office roles
type Role string

// Roles
const (
	RoleGeneralManager Role = "genel_mudur"
	RoleDepotManager   Role = "depo_muduru"
	RoleSalesRep       Role = "satis_elemani"
	RoleAccountant     Role = "muhasebeci"
)

// AllRoles lists every role in display order
var AllRoles = []Role{RoleGeneralManager, RoleDepotManager, RoleSalesRep, RoleAccountant}

// ParseRole validates a role string
func ParseRole(s string) (Role, error) {
	for _, r := range AllRoles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: unknown role %q", ErrValidation, s)
}

// Language is a user's preferred UI language
type Language string

// Languages
const (
	LanguageTR Language = "tr"
	LanguageEN Language = "en"
	LanguageAR Language = "ar"
)

// DefaultLanguage is assigned to new users
const DefaultLanguage = LanguageEN

// ParseLanguage validates a language code
func ParseLanguage(s string) (Language, error) {
	switch Language(s) {
	case LanguageTR, LanguageEN, LanguageAR:
		return Language(s), nil
	}
	return "", fmt.Errorf("%w: unknown language %q", ErrValidation, s)
}

// User represents a back-office staff member
type User struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Role         Role      `db:"role" json:"role"`
	Language     Language  `db:"language" json:"language"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Product represents a textile article with its two stock counters
type Product struct {
	ID            string          `db:"id" json:"id"`
	Name          string          `db:"name" json:"name"`
	Model         string          `db:"model" json:"model"`
	Price         decimal.Decimal `db:"price" json:"price"`
	UnsoldStock   int             `db:"unsold_stock" json:"unsold_stock"`
	DepotStock    int             `db:"depot_stock" json:"depot_stock"`
	DepotLocation string          `db:"depot_location" json:"depot_location"`
	Notes         string          `db:"notes" json:"notes"`
	ImageURL      string          `db:"image_url" json:"image_url"`
	ImageHint     string          `db:"image_hint" json:"image_hint"`
	Category      string          `db:"category" json:"category"`
	Brand         string          `db:"brand" json:"brand"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

// Customer represents a buyer
type Customer struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Phone     string    `db:"phone" json:"phone"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// OrderCustomer is the copy of the customer embedded in an order, stored as JSON
type OrderCustomer Customer

// Value implements driver.Valuer
func (c OrderCustomer) Value() (driver.Value, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (c *OrderCustomer) Scan(src interface{}) error {
	return scanJSON(src, c)
}

// Category is a flat reference entry
type Category struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Brand is a flat reference entry
type Brand struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// OrderStatus is the order workflow state
type OrderStatus string

// Order statuses
const (
	OrderStatusReceived OrderStatus = "RECEIVED"
	OrderStatusShipped  OrderStatus = "SHIPPED"
)

// ParseOrderStatus validates a status string
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case OrderStatusReceived, OrderStatusShipped:
		return OrderStatus(s), nil
	}
	return "", fmt.Errorf("%w: unknown order status %q", ErrValidation, s)
}

// OrderItem is a single order line
type OrderItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// OrderItems is stored as a JSON column
type OrderItems []OrderItem

// Value implements driver.Valuer
func (items OrderItems) Value() (driver.Value, error) {
	if items == nil {
		items = OrderItems{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (items *OrderItems) Scan(src interface{}) error {
	return scanJSON(src, items)
}

// Order represents a customer order
type Order struct {
	ID         string        `db:"id" json:"id"`
	CustomerID string        `db:"customer_id" json:"customer_id"`
	Customer   OrderCustomer `db:"customer" json:"customer"`
	Items      OrderItems    `db:"items" json:"items"`
	Status     OrderStatus   `db:"status" json:"status"`
	Notes      string        `db:"notes" json:"notes"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
}

// Total prices the order with the given product prices; lines whose product
// is gone are left out.
func (o *Order) Total(prices map[string]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		price, ok := prices[item.ProductID]
		if !ok {
			continue
		}
		total = total.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

func scanJSON(src interface{}, dst interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported JSON column type %T", src)
	}
}

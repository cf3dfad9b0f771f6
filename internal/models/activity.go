package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// EntityType tags the origin collection of a deleted record
type EntityType string

// Entity types that can be soft-deleted and restored
const (
	EntityUser     EntityType = "user"
	EntityProduct  EntityType = "product"
	EntityOrder    EntityType = "order"
	EntityCustomer EntityType = "customer"
)

// ParseEntityType validates an entity type tag
func ParseEntityType(s string) (EntityType, error) {
	switch EntityType(s) {
	case EntityUser, EntityProduct, EntityOrder, EntityCustomer:
		return EntityType(s), nil
	}
	return "", fmt.Errorf("%w: unknown entity type %q", ErrValidation, s)
}

// Snapshot is the full JSON copy of a deleted record
type Snapshot []byte

// Value implements driver.Valuer
func (s Snapshot) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "null", nil
	}
	return string(s), nil
}

// Scan implements sql.Scanner
func (s *Snapshot) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*s = nil
	case []byte:
		*s = append(Snapshot(nil), v...)
	case string:
		*s = Snapshot(v)
	default:
		return fmt.Errorf("unsupported snapshot column type %T", src)
	}
	return nil
}

// MarshalJSON embeds the snapshot as raw JSON
func (s Snapshot) MarshalJSON() ([]byte, error) {
	if len(s) == 0 {
		return []byte("null"), nil
	}
	return s, nil
}

// UnmarshalJSON keeps a copy of the raw JSON
func (s *Snapshot) UnmarshalJSON(b []byte) error {
	*s = append(Snapshot(nil), b...)
	return nil
}

// ActivityLogItem records a deleted entity so it can be restored later
type ActivityLogItem struct {
	ID          string     `db:"id" json:"id"`
	Type        EntityType `db:"entity_type" json:"type"`
	EntityID    string     `db:"entity_id" json:"entity_id"`
	Description string     `db:"description" json:"description"`
	DeletedAt   time.Time  `db:"deleted_at" json:"deleted_at"`
	Data        Snapshot   `db:"data" json:"data"`
}

// userRecord keeps the password hash in a user snapshot
type userRecord struct {
	User
	PasswordHash string `json:"password_hash"`
}

// NewDeletedRecord snapshots a user, product, customer or order by value.
func NewDeletedRecord(description string, record interface{}) (*ActivityLogItem, error) {
	item := &ActivityLogItem{Description: description}

	var value interface{}
	switch r := record.(type) {
	case *User:
		item.Type, item.EntityID = EntityUser, r.ID
		value = userRecord{User: *r, PasswordHash: r.PasswordHash}
	case *Product:
		item.Type, item.EntityID, value = EntityProduct, r.ID, r
	case *Customer:
		item.Type, item.EntityID, value = EntityCustomer, r.ID, r
	case *Order:
		item.Type, item.EntityID, value = EntityOrder, r.ID, r
	default:
		return nil, fmt.Errorf("cannot snapshot %T", record)
	}

	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	item.Data = data
	return item, nil
}

// DecodeUser returns the user snapshot, password hash included
func (l *ActivityLogItem) DecodeUser() (*User, error) {
	if l.Type != EntityUser {
		return nil, l.typeMismatch(EntityUser)
	}
	var rec userRecord
	if err := json.Unmarshal(l.Data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode user snapshot: %w", err)
	}
	u := rec.User
	u.PasswordHash = rec.PasswordHash
	return &u, nil
}

// DecodeProduct returns the product snapshot
func (l *ActivityLogItem) DecodeProduct() (*Product, error) {
	if l.Type != EntityProduct {
		return nil, l.typeMismatch(EntityProduct)
	}
	var p Product
	if err := json.Unmarshal(l.Data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode product snapshot: %w", err)
	}
	return &p, nil
}

// DecodeCustomer returns the customer snapshot
func (l *ActivityLogItem) DecodeCustomer() (*Customer, error) {
	if l.Type != EntityCustomer {
		return nil, l.typeMismatch(EntityCustomer)
	}
	var c Customer
	if err := json.Unmarshal(l.Data, &c); err != nil {
		return nil, fmt.Errorf("failed to decode customer snapshot: %w", err)
	}
	return &c, nil
}

// DecodeOrder returns the order snapshot
func (l *ActivityLogItem) DecodeOrder() (*Order, error) {
	if l.Type != EntityOrder {
		return nil, l.typeMismatch(EntityOrder)
	}
	var o Order
	if err := json.Unmarshal(l.Data, &o); err != nil {
		return nil, fmt.Errorf("failed to decode order snapshot: %w", err)
	}
	return &o, nil
}

// Redacted returns a copy safe to show to clients; user snapshots lose the
// password hash.
func (l ActivityLogItem) Redacted() ActivityLogItem {
	if l.Type != EntityUser {
		return l
	}
	u, err := l.DecodeUser()
	if err != nil {
		l.Data = nil
		return l
	}
	data, err := json.Marshal(u)
	if err != nil {
		l.Data = nil
		return l
	}
	l.Data = data
	return l
}

func (l *ActivityLogItem) typeMismatch(want EntityType) error {
	return fmt.Errorf("%w: log entry %s holds a %s, not a %s", ErrValidation, l.ID, l.Type, want)
}

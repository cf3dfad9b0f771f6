package models

import "time"

// Event types
const (
	EventTypeEntityChanged = "ENTITY_CHANGED"
	EventTypeOrderCreated  = "ORDER_CREATED"
	EventTypeOrderShipped  = "ORDER_SHIPPED"
	EventTypeStockChanged  = "STOCK_CHANGED"
)

// Collections named in change events
const (
	CollectionUsers      = "users"
	CollectionProducts   = "products"
	CollectionCustomers  = "customers"
	CollectionOrders     = "orders"
	CollectionCategories = "categories"
	CollectionBrands     = "brands"
	CollectionActivity   = "activity_log"
)

// Change actions
const (
	ChangeCreated  = "created"
	ChangeUpdated  = "updated"
	ChangeDeleted  = "deleted"
	ChangeRestored = "restored"
)

// Stock change reasons
const (
	StockReasonOrderCreated = "order_created"
	StockReasonShipment     = "shipment"
	StockReasonRestock      = "restock"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// EntityChangedEvent tells observers that a collection changed
type EntityChangedEvent struct {
	BaseEvent
	Collection string `json:"collection"`
	EntityID   string `json:"entity_id"`
	Action     string `json:"action"`
}

// OrderCreatedEvent published when an order is accepted
type OrderCreatedEvent struct {
	BaseEvent
	OrderID    string      `json:"order_id"`
	CustomerID string      `json:"customer_id"`
	Items      []OrderItem `json:"items"`
}

// OrderShippedEvent published when an order leaves the depot
type OrderShippedEvent struct {
	BaseEvent
	OrderID string      `json:"order_id"`
	Items   []OrderItem `json:"items"`
}

// StockChangedEvent carries the counters of a product after a ledger write
type StockChangedEvent struct {
	BaseEvent
	ProductID   string `json:"product_id"`
	UnsoldStock int    `json:"unsold_stock"`
	DepotStock  int    `json:"depot_stock"`
	Reason      string `json:"reason"`
}

package store

import (
	"context"

	"textile-backoffice/internal/models"

	sq "github.com/Masterminds/squirrel"
)

const orderColumns = "id, customer_id, customer, items, status, notes, created_at"

// OrderFilter narrows ListOrders
type OrderFilter struct {
	Status     models.OrderStatus
	CustomerID string
}

// CreateOrder inserts a new order
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now()
	}
	_, err := s.q(ctx).ExecContext(ctx, s.db.Rebind(`
		INSERT INTO orders (`+orderColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		order.ID, order.CustomerID, order.Customer, order.Items, order.Status, order.Notes, order.CreatedAt)
	if err != nil {
		return mapGetError(err, "order", order.ID)
	}
	return nil
}

// UpsertOrder writes an order under its own id, replacing any row with that id
func (s *Store) UpsertOrder(ctx context.Context, order *models.Order) error {
	_, err := s.q(ctx).ExecContext(ctx, s.db.Rebind(`
		INSERT INTO orders (`+orderColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			customer_id = excluded.customer_id,
			customer = excluded.customer,
			items = excluded.items,
			status = excluded.status,
			notes = excluded.notes,
			created_at = excluded.created_at`),
		order.ID, order.CustomerID, order.Customer, order.Items, order.Status, order.Notes, order.CreatedAt)
	if err != nil {
		return mapGetError(err, "order", order.ID)
	}
	return nil
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := s.get(ctx, &order, "SELECT "+orderColumns+" FROM orders WHERE id = ?", id); err != nil {
		return nil, mapGetError(err, "order", id)
	}
	return &order, nil
}

// ListOrders retrieves orders, newest first
func (s *Store) ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	b := sq.Select(orderColumns).From("orders").OrderBy("created_at DESC", "id DESC")
	if filter.Status != "" {
		b = b.Where(sq.Eq{"status": string(filter.Status)})
	}
	if filter.CustomerID != "" {
		b = b.Where(sq.Eq{"customer_id": filter.CustomerID})
	}

	orders := []models.Order{}
	err := s.selectBuilder(ctx, &orders, b)
	return orders, err
}

// TransitionOrderStatus moves an order from one status to another. It
// reports false, without error, when the order exists but is not in from.
func (s *Store) TransitionOrderStatus(ctx context.Context, id string, from, to models.OrderStatus) (bool, error) {
	res, err := s.q(ctx).ExecContext(ctx,
		s.db.Rebind("UPDATE orders SET status = ? WHERE id = ? AND status = ?"),
		to, id, from)
	if err != nil {
		return false, mapGetError(err, "order", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, mapGetError(err, "order", id)
	}
	if n > 0 {
		return true, nil
	}

	if _, err := s.GetOrderByID(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

// DeleteOrder removes an order
func (s *Store) DeleteOrder(ctx context.Context, id string) error {
	return s.exec(ctx, "order", id, "DELETE FROM orders WHERE id = ?", id)
}

package store

import (
	"context"

	"textile-backoffice/internal/models"

	sq "github.com/Masterminds/squirrel"
)

const customerColumns = "id, name, email, phone, created_at"

// CreateCustomer inserts a new customer
func (s *Store) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	if customer.CreatedAt.IsZero() {
		customer.CreatedAt = now()
	}
	_, err := s.q(ctx).ExecContext(ctx, s.db.Rebind(`
		INSERT INTO customers (`+customerColumns+`) VALUES (?, ?, ?, ?, ?)`),
		customer.ID, customer.Name, customer.Email, customer.Phone, customer.CreatedAt)
	if err != nil {
		return mapGetError(err, "customer", customer.ID)
	}
	return nil
}

// UpsertCustomer writes a customer under its own id, replacing any row with that id
func (s *Store) UpsertCustomer(ctx context.Context, customer *models.Customer) error {
	_, err := s.q(ctx).ExecContext(ctx, s.db.Rebind(`
		INSERT INTO customers (`+customerColumns+`) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			phone = excluded.phone,
			created_at = excluded.created_at`),
		customer.ID, customer.Name, customer.Email, customer.Phone, customer.CreatedAt)
	if err != nil {
		return mapGetError(err, "customer", customer.ID)
	}
	return nil
}

// GetCustomerByID retrieves a customer by ID
func (s *Store) GetCustomerByID(ctx context.Context, id string) (*models.Customer, error) {
	var customer models.Customer
	if err := s.get(ctx, &customer, "SELECT "+customerColumns+" FROM customers WHERE id = ?", id); err != nil {
		return nil, mapGetError(err, "customer", id)
	}
	return &customer, nil
}

// ListCustomers retrieves customers, newest first, optionally matching search
// against name, email or phone
func (s *Store) ListCustomers(ctx context.Context, search string) ([]models.Customer, error) {
	b := sq.Select(customerColumns).From("customers").OrderBy("created_at DESC", "id DESC")
	if search != "" {
		pattern := likePattern(search)
		b = b.Where(sq.Or{
			sq.Like{"LOWER(name)": pattern},
			sq.Like{"LOWER(email)": pattern},
			sq.Like{"LOWER(phone)": pattern},
		})
	}

	customers := []models.Customer{}
	err := s.selectBuilder(ctx, &customers, b)
	return customers, err
}

// DeleteCustomer removes a customer
func (s *Store) DeleteCustomer(ctx context.Context, id string) error {
	return s.exec(ctx, "customer", id, "DELETE FROM customers WHERE id = ?", id)
}

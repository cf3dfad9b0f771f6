package store

import (
	"context"

	"textile-backoffice/internal/models"

	sq "github.com/Masterminds/squirrel"
)

const productColumns = `id, name, model, price, unsold_stock, depot_stock, depot_location,
	notes, image_url, image_hint, category, brand, created_at`

// ProductFilter narrows ListProducts
type ProductFilter struct {
	Category string
	Brand    string
	Search   string
}

func productArgs(p *models.Product) []interface{} {
	return []interface{}{
		p.ID, p.Name, p.Model, p.Price, p.UnsoldStock, p.DepotStock, p.DepotLocation,
		p.Notes, p.ImageURL, p.ImageHint, p.Category, p.Brand, p.CreatedAt,
	}
}

// CreateProduct inserts a new product
func (s *Store) CreateProduct(ctx context.Context, product *models.Product) error {
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now()
	}
	_, err := s.q(ctx).ExecContext(ctx, s.db.Rebind(`
		INSERT INTO products (`+productColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		productArgs(product)...)
	if err != nil {
		return mapGetError(err, "product", product.ID)
	}
	return nil
}

// UpsertProduct writes a product under its own id, replacing any row with that id
func (s *Store) UpsertProduct(ctx context.Context, product *models.Product) error {
	_, err := s.q(ctx).ExecContext(ctx, s.db.Rebind(`
		INSERT INTO products (`+productColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			model = excluded.model,
			price = excluded.price,
			unsold_stock = excluded.unsold_stock,
			depot_stock = excluded.depot_stock,
			depot_location = excluded.depot_location,
			notes = excluded.notes,
			image_url = excluded.image_url,
			image_hint = excluded.image_hint,
			category = excluded.category,
			brand = excluded.brand,
			created_at = excluded.created_at`),
		productArgs(product)...)
	if err != nil {
		return mapGetError(err, "product", product.ID)
	}
	return nil
}

// GetProductByID retrieves a product by ID
func (s *Store) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	if err := s.get(ctx, &product, "SELECT "+productColumns+" FROM products WHERE id = ?", id); err != nil {
		return nil, mapGetError(err, "product", id)
	}
	return &product, nil
}

// GetProductsByIDs retrieves the products that still exist among ids
func (s *Store) GetProductsByIDs(ctx context.Context, ids []string) ([]models.Product, error) {
	products := []models.Product{}
	if len(ids) == 0 {
		return products, nil
	}
	err := s.selectBuilder(ctx, &products, sq.Select(productColumns).
		From("products").
		Where(sq.Eq{"id": ids}))
	return products, err
}

// ListProducts retrieves products, newest first
func (s *Store) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	b := sq.Select(productColumns).From("products").OrderBy("created_at DESC", "id DESC")
	if filter.Category != "" {
		b = b.Where(sq.Eq{"category": filter.Category})
	}
	if filter.Brand != "" {
		b = b.Where(sq.Eq{"brand": filter.Brand})
	}
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		b = b.Where(sq.Or{
			sq.Like{"LOWER(name)": pattern},
			sq.Like{"LOWER(model)": pattern},
		})
	}

	products := []models.Product{}
	err := s.selectBuilder(ctx, &products, b)
	return products, err
}

// UpdateProduct overwrites the descriptive fields of a product. Stock
// counters are left alone.
func (s *Store) UpdateProduct(ctx context.Context, product *models.Product) error {
	return s.exec(ctx, "product", product.ID, `
		UPDATE products SET
			name = ?, model = ?, price = ?, depot_location = ?, notes = ?,
			image_url = ?, image_hint = ?, category = ?, brand = ?
		WHERE id = ?`,
		product.Name, product.Model, product.Price, product.DepotLocation, product.Notes,
		product.ImageURL, product.ImageHint, product.Category, product.Brand, product.ID)
}

// UpdateProductNotes replaces the free-text notes of a product
func (s *Store) UpdateProductNotes(ctx context.Context, id, notes string) error {
	return s.exec(ctx, "product", id, "UPDATE products SET notes = ? WHERE id = ?", notes, id)
}

// DeleteProduct removes a product
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	return s.exec(ctx, "product", id, "DELETE FROM products WHERE id = ?", id)
}

// DecrementUnsoldStock lowers unsold stock, floored at 0
func (s *Store) DecrementUnsoldStock(ctx context.Context, id string, quantity int) error {
	return s.exec(ctx, "product", id, `
		UPDATE products
		SET unsold_stock = CASE WHEN unsold_stock > ? THEN unsold_stock - ? ELSE 0 END
		WHERE id = ?`,
		quantity, quantity, id)
}

// DecrementDepotStock lowers depot stock, floored at 0
func (s *Store) DecrementDepotStock(ctx context.Context, id string, quantity int) error {
	return s.exec(ctx, "product", id, `
		UPDATE products
		SET depot_stock = CASE WHEN depot_stock > ? THEN depot_stock - ? ELSE 0 END
		WHERE id = ?`,
		quantity, quantity, id)
}

// IncrementDepotStock raises depot stock
func (s *Store) IncrementDepotStock(ctx context.Context, id string, quantity int) error {
	return s.exec(ctx, "product", id,
		"UPDATE products SET depot_stock = depot_stock + ? WHERE id = ?", quantity, id)
}

package store

import (
	"context"

	"textile-backoffice/internal/models"
)

// CreateCategory appends a category
func (s *Store) CreateCategory(ctx context.Context, category *models.Category) error {
	_, err := s.q(ctx).ExecContext(ctx,
		s.db.Rebind("INSERT INTO categories (id, name) VALUES (?, ?)"),
		category.ID, category.Name)
	if err != nil {
		return mapGetError(err, "category", category.ID)
	}
	return nil
}

// ListCategories retrieves all categories by name
func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	err := s.selectAll(ctx, &categories, "SELECT id, name FROM categories ORDER BY name, id")
	return categories, err
}

// CreateBrand appends a brand
func (s *Store) CreateBrand(ctx context.Context, brand *models.Brand) error {
	_, err := s.q(ctx).ExecContext(ctx,
		s.db.Rebind("INSERT INTO brands (id, name) VALUES (?, ?)"),
		brand.ID, brand.Name)
	if err != nil {
		return mapGetError(err, "brand", brand.ID)
	}
	return nil
}

// ListBrands retrieves all brands by name
func (s *Store) ListBrands(ctx context.Context) ([]models.Brand, error) {
	brands := []models.Brand{}
	err := s.selectAll(ctx, &brands, "SELECT id, name FROM brands ORDER BY name, id")
	return brands, err
}

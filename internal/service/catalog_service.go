package service

import (
	"context"
	"fmt"
	"strings"

	"textile-backoffice/internal/models"
	"textile-backoffice/internal/store"
	"textile-backoffice/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CatalogService manages products, their categories and brands
type CatalogService struct {
	tx       TxRunner
	products ProductRepository
	catalog  CatalogRepository
	ledger   *StockLedger
	activity *ActivityLogService
	notify   notifier
	logger   *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(
	tx TxRunner,
	products ProductRepository,
	catalog CatalogRepository,
	ledger *StockLedger,
	activity *ActivityLogService,
	events EventPublisher,
) *CatalogService {
	return &CatalogService{
		tx:       tx,
		products: products,
		catalog:  catalog,
		ledger:   ledger,
		activity: activity,
		notify:   newNotifier(events),
		logger:   util.GetLogger(),
	}
}

// ProductInput holds the editable product fields. The stock counters are
// only read on creation.
type ProductInput struct {
	Name          string          `json:"name"`
	Model         string          `json:"model"`
	Price         decimal.Decimal `json:"price"`
	UnsoldStock   int             `json:"unsold_stock"`
	DepotStock    int             `json:"depot_stock"`
	DepotLocation string          `json:"depot_location"`
	Notes         string          `json:"notes"`
	ImageURL      string          `json:"image_url"`
	ImageHint     string          `json:"image_hint"`
	Category      string          `json:"category"`
	Brand         string          `json:"brand"`
}

func (in *ProductInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Model = strings.TrimSpace(in.Model)
	switch {
	case in.Name == "":
		return fmt.Errorf("%w: product name is required", models.ErrValidation)
	case in.Model == "":
		return fmt.Errorf("%w: product model is required", models.ErrValidation)
	case in.Price.IsNegative():
		return fmt.Errorf("%w: price cannot be negative", models.ErrValidation)
	case in.UnsoldStock < 0 || in.DepotStock < 0:
		return fmt.Errorf("%w: stock cannot be negative", models.ErrValidation)
	}
	return nil
}

func (in *ProductInput) apply(p *models.Product) {
	p.Name = in.Name
	p.Model = in.Model
	p.Price = in.Price
	p.DepotLocation = strings.TrimSpace(in.DepotLocation)
	p.Notes = in.Notes
	p.ImageURL = strings.TrimSpace(in.ImageURL)
	p.ImageHint = strings.TrimSpace(in.ImageHint)
	p.Category = strings.TrimSpace(in.Category)
	p.Brand = strings.TrimSpace(in.Brand)
}

// CreateProduct adds a product with its opening stock
func (s *CatalogService) CreateProduct(ctx context.Context, in *ProductInput) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.CreateProduct")
	defer span.End()

	if err := in.validate(); err != nil {
		return nil, err
	}

	product := &models.Product{
		ID:          newID(prefixProduct),
		UnsoldStock: in.UnsoldStock,
		DepotStock:  in.DepotStock,
		CreatedAt:   now(),
	}
	in.apply(product)

	if err := s.products.CreateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.logger.Info("Product created", zap.String("product_id", product.ID))
	s.notify.entityChanged(ctx, models.CollectionProducts, product.ID, models.ChangeCreated)
	return product, nil
}

// UpdateProduct overwrites the descriptive fields of a product; stock is
// left alone.
func (s *CatalogService) UpdateProduct(ctx context.Context, id string, in *ProductInput) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.UpdateProduct")
	defer span.End()

	in.UnsoldStock, in.DepotStock = 0, 0
	if err := in.validate(); err != nil {
		return nil, err
	}

	var product *models.Product
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		product, err = s.products.GetProductByID(ctx, id)
		if err != nil {
			return err
		}
		in.apply(product)
		return s.products.UpdateProduct(ctx, product)
	})
	if err != nil {
		return nil, err
	}

	s.notify.entityChanged(ctx, models.CollectionProducts, id, models.ChangeUpdated)
	return product, nil
}

// UpdateProductNotes replaces the free-text notes of a product
func (s *CatalogService) UpdateProductNotes(ctx context.Context, id, notes string) error {
	if err := s.products.UpdateProductNotes(ctx, id, notes); err != nil {
		return err
	}
	s.notify.entityChanged(ctx, models.CollectionProducts, id, models.ChangeUpdated)
	return nil
}

// GetProduct retrieves a product by ID
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	return s.products.GetProductByID(ctx, id)
}

// ListProducts returns products newest first
func (s *CatalogService) ListProducts(ctx context.Context, filter store.ProductFilter) ([]models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.ListProducts")
	defer span.End()

	return s.products.ListProducts(ctx, filter)
}

// DeleteProduct moves a product into the activity log
func (s *CatalogService) DeleteProduct(ctx context.Context, id string) (err error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.DeleteProduct")
	defer func() { util.EndSpan(span, err) }()

	var entry *models.ActivityLogItem
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		product, err := s.products.GetProductByID(ctx, id)
		if err != nil {
			return err
		}
		entry, err = s.activity.RecordDeletion(ctx, ProductDescription(product), product)
		if err != nil {
			return err
		}
		return s.products.DeleteProduct(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Product deleted", zap.String("product_id", id), zap.String("log_id", entry.ID))
	s.notify.entityChanged(ctx, models.CollectionProducts, id, models.ChangeDeleted)
	s.notify.entityChanged(ctx, models.CollectionActivity, entry.ID, models.ChangeCreated)
	return nil
}

// Restock books goods arriving at the depot
func (s *CatalogService) Restock(ctx context.Context, id string, quantity int) (change *StockChange, err error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.Restock")
	defer func() { util.EndSpan(span, err) }()

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		change, err = s.ledger.Restock(ctx, id, quantity)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Product restocked", zap.String("product_id", id), zap.Int("quantity", quantity))
	s.notify.entityChanged(ctx, models.CollectionProducts, id, models.ChangeUpdated)
	s.notify.stockChanged(ctx, []StockChange{*change})
	return change, nil
}

// AddCategory appends a category
func (s *CatalogService) AddCategory(ctx context.Context, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name is required", models.ErrValidation)
	}
	category := &models.Category{ID: newID(prefixCategory), Name: name}
	if err := s.catalog.CreateCategory(ctx, category); err != nil {
		return nil, err
	}
	s.notify.entityChanged(ctx, models.CollectionCategories, category.ID, models.ChangeCreated)
	return category, nil
}

// ListCategories returns all categories by name
func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.catalog.ListCategories(ctx)
}

// AddBrand appends a brand
func (s *CatalogService) AddBrand(ctx context.Context, name string) (*models.Brand, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: brand name is required", models.ErrValidation)
	}
	brand := &models.Brand{ID: newID(prefixBrand), Name: name}
	if err := s.catalog.CreateBrand(ctx, brand); err != nil {
		return nil, err
	}
	s.notify.entityChanged(ctx, models.CollectionBrands, brand.ID, models.ChangeCreated)
	return brand, nil
}

// ListBrands returns all brands by name
func (s *CatalogService) ListBrands(ctx context.Context) ([]models.Brand, error) {
	return s.catalog.ListBrands(ctx)
}

// ProductDescription is the activity log text for a deleted product
func ProductDescription(p *models.Product) string {
	return fmt.Sprintf("%s - %s", p.Name, p.Model)
}

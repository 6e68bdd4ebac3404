package product

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/souqly/storefront-backend/pkg/db/models"
	"github.com/souqly/storefront-backend/pkg/enums"
	"github.com/souqly/storefront-backend/pkg/pagination"
)

// Repository wraps product persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByID loads the product with its category.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Preload("Category").Where("id = ?", id).Take(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindActiveBySlug loads a storefront-visible product by slug.
func (r *Repository) FindActiveBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Where("slug = ? AND is_active = ?", slug, true).
		Take(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// CategoryExists reports whether id names a category.
func (r *Repository) CategoryExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Category{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}

// SlugExists reports whether another product already uses the slug.
func (r *Repository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("slug = ?", slug).
		Count(&count).Error
	return count > 0, err
}

// Create inserts the product.
func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// Update writes the editable columns. Stock is owned by the inventory ledger
// and is never written here.
func (r *Repository) Update(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", product.ID).
		Select("name", "subtitle", "description", "brand", "category_id", "price", "is_active", "is_featured", "updated_at").
		Updates(product).Error
}

type listQuery struct {
	Pagination pagination.Params
	Active     *bool
	Search     string
}

// List returns products newest first.
func (r *Repository) List(ctx context.Context, query listQuery) ([]models.Product, string, error) {
	cursor, err := pagination.ParseCursor(query.Pagination.Cursor)
	if err != nil {
		return nil, "", err
	}

	qb := r.db.WithContext(ctx).Model(&models.Product{})
	if query.Active != nil {
		qb = qb.Where("is_active = ?", *query.Active)
	}
	if search := strings.TrimSpace(query.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where("(LOWER(name) LIKE ? OR LOWER(brand) LIKE ?)", pattern, pattern)
	}
	if cursor != nil {
		qb = qb.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.At, cursor.At, cursor.ID)
	}

	var rows []models.Product
	err = qb.Preload("Category").
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(query.Pagination.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, "", err
	}

	rows, next := pagination.Trim(rows, query.Pagination.Limit, func(p models.Product) pagination.Cursor {
		return pagination.Cursor{At: p.CreatedAt, ID: p.ID}
	})
	return rows, next, nil
}

// Delete removes the product. Cart lines holding it go with it and order
// lines keep their snapshot with the product reference cleared, matching the
// foreign keys of the postgres schema. Run it inside a transaction.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	db := r.db.WithContext(ctx)
	if err := db.Where("product_id = ?", id).Delete(&models.CartLine{}).Error; err != nil {
		return false, err
	}
	err := db.Model(&models.OrderLine{}).
		Where("product_id = ?", id).
		Update("product_id", nil).Error
	if err != nil {
		return false, err
	}
	res := db.Where("id = ?", id).Delete(&models.Product{})
	return res.RowsAffected > 0, res.Error
}

type catalogQuery struct {
	Search       string
	CategorySlug string
	Brand        string
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	Availability enums.StockAvailability
	Sort         enums.CatalogSort
	Offset       int
	Limit        int
}

func (r *Repository) catalogScope(ctx context.Context, query catalogQuery) *gorm.DB {
	qb := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("products.is_active = ?", true)

	if search := strings.TrimSpace(query.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where(
			"(LOWER(products.name) LIKE ? OR LOWER(products.subtitle) LIKE ? OR LOWER(products.description) LIKE ?)",
			pattern, pattern, pattern,
		)
	}
	if query.CategorySlug != "" {
		qb = qb.Where("products.category_id IN (?)",
			r.db.Model(&models.Category{}).Select("id").Where("slug = ?", query.CategorySlug))
	}
	if query.Brand != "" {
		qb = qb.Where("LOWER(products.brand) = ?", strings.ToLower(query.Brand))
	}
	if query.MinPrice != nil {
		qb = qb.Where("products.price >= ?", *query.MinPrice)
	}
	if query.MaxPrice != nil {
		qb = qb.Where("products.price < ?", *query.MaxPrice)
	}
	switch query.Availability {
	case enums.StockAvailabilityInStock:
		qb = qb.Where("products.quantity > 0")
	case enums.StockAvailabilityOutOfStock:
		qb = qb.Where("products.quantity = 0")
	}
	return qb
}

var catalogOrder = map[enums.CatalogSort]string{
	enums.CatalogSortNewest:    "products.created_at DESC, products.id DESC",
	enums.CatalogSortPriceAsc:  "products.price ASC, products.id ASC",
	enums.CatalogSortPriceDesc: "products.price DESC, products.id ASC",
	enums.CatalogSortNameAsc:   "products.name ASC, products.id ASC",
	enums.CatalogSortNameDesc:  "products.name DESC, products.id ASC",
}

// Catalog returns one page of active products plus the number of matches.
func (r *Repository) Catalog(ctx context.Context, query catalogQuery) ([]models.Product, int64, error) {
	var total int64
	if err := r.catalogScope(ctx, query).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return nil, 0, nil
	}

	order, ok := catalogOrder[query.Sort]
	if !ok {
		order = catalogOrder[enums.CatalogSortNewest]
	}
	var rows []models.Product
	err := r.catalogScope(ctx, query).
		Preload("Category").
		Order(order).
		Offset(query.Offset).
		Limit(query.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Brands lists the distinct brands of active products.
func (r *Repository) Brands(ctx context.Context) ([]string, error) {
	var brands []string
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("is_active = ? AND brand <> ''", true).
		Distinct("brand").
		Order("brand ASC").
		Pluck("brand", &brands).Error
	return brands, err
}

// CountActive counts products visible in the storefront.
func (r *Repository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("is_active = ?", true).
		Count(&count).Error
	return count, err
}

// CountLowStock counts active products whose stock is below threshold.
func (r *Repository) CountLowStock(ctx context.Context, threshold int) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("is_active = ? AND quantity < ?", true, threshold).
		Count(&count).Error
	return count, err
}

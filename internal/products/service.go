package product

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/souqly/storefront-backend/internal/inventory"
	"github.com/souqly/storefront-backend/internal/pricing"
	"github.com/souqly/storefront-backend/pkg/db"
	"github.com/souqly/storefront-backend/pkg/db/models"
	"github.com/souqly/storefront-backend/pkg/enums"
	pkgerrors "github.com/souqly/storefront-backend/pkg/errors"
	"github.com/souqly/storefront-backend/pkg/pagination"
)

// Service exposes the storefront catalog and its administration.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
	ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error)
	AdjustStock(ctx context.Context, productID uuid.UUID, delta int) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, productID uuid.UUID) error

	Catalog(ctx context.Context, query CatalogQuery) (*CatalogPage, error)
	GetBySlug(ctx context.Context, slug string) (*ProductDTO, error)
}

type service struct {
	repo     *Repository
	dbClient *db.Client
}

// NewService constructs a product service instance.
func NewService(repo *Repository, dbClient *db.Client) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, dbClient: dbClient}, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if err := validatePrice(input.Price); err != nil {
		return nil, err
	}
	if input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be non-negative")
	}

	if err := s.checkCategory(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	slug, err := s.uniqueSlug(ctx, name)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:        name,
		Slug:        slug,
		Subtitle:    strings.TrimSpace(input.Subtitle),
		Description: input.Description,
		Brand:       strings.TrimSpace(input.Brand),
		CategoryID:  input.CategoryID,
		Price:       pricing.Round(input.Price),
		Quantity:    input.Quantity,
		IsActive:    input.IsActive,
		IsFeatured:  input.IsFeatured,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "product slug already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return s.GetProduct(ctx, product.ID)
}

func (s *service) UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.load(ctx, s.repo, productID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
		}
		product.Name = name
	}
	if input.Subtitle != nil {
		product.Subtitle = strings.TrimSpace(*input.Subtitle)
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Brand != nil {
		product.Brand = strings.TrimSpace(*input.Brand)
	}
	if input.Price != nil {
		if err := validatePrice(*input.Price); err != nil {
			return nil, err
		}
		product.Price = pricing.Round(*input.Price)
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	if input.IsFeatured != nil {
		product.IsFeatured = *input.IsFeatured
	}
	switch {
	case input.ClearCategory:
		product.CategoryID = nil
	case input.CategoryID != nil:
		if err := s.checkCategory(ctx, input.CategoryID); err != nil {
			return nil, err
		}
		product.CategoryID = input.CategoryID
	}
	product.Category = nil
	product.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return s.GetProduct(ctx, productID)
}

func (s *service) GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.load(ctx, s.repo, productID)
	if err != nil {
		return nil, err
	}
	dto := mapProduct(*product)
	return &dto, nil
}

func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	if _, err := pagination.ParseCursor(input.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, next, err := s.repo.List(ctx, listQuery{
		Pagination: pagination.Params{Limit: input.Limit, Cursor: input.Cursor},
		Active:     input.Active,
		Search:     input.Search,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	result := &ProductListResult{Products: make([]ProductDTO, 0, len(rows)), NextCursor: next}
	for _, row := range rows {
		result.Products = append(result.Products, mapProduct(row))
	}
	return result, nil
}

// AdjustStock applies a signed stock correction through the inventory ledger.
func (s *service) AdjustStock(ctx context.Context, productID uuid.UUID, delta int) (*ProductDTO, error) {
	if delta == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delta must not be zero")
	}

	var product *models.Product
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		ledger := inventory.NewLedger(tx)
		var err error
		if delta > 0 {
			err = ledger.Restock(ctx, productID, delta)
		} else {
			err = ledger.Decrement(ctx, productID, -delta)
		}
		if errors.Is(err, inventory.ErrNegativeStock) {
			return pkgerrors.New(pkgerrors.CodeValidation, "stock cannot go below zero").
				WithDetails(pkgerrors.As(err).Details())
		}
		if err != nil {
			return err
		}
		product, err = s.load(ctx, s.repo.WithTx(tx), productID)
		return err
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust stock")
	}
	dto := mapProduct(*product)
	return &dto, nil
}

// DeleteProduct removes a product from the catalog. Orders that sold it keep
// their line snapshot.
func (s *service) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		deleted, err := s.repo.WithTx(tx).Delete(ctx, productID)
		if err != nil {
			return err
		}
		if !deleted {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return typed
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
}

func (s *service) Catalog(ctx context.Context, query CatalogQuery) (*CatalogPage, error) {
	if query.MinPrice != nil && query.MinPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "min price must be non-negative")
	}
	if query.MinPrice != nil && query.MaxPrice != nil && !query.MaxPrice.GreaterThan(*query.MinPrice) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "max price must be greater than min price")
	}
	sort, err := enums.ParseCatalogSort(string(query.Sort))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sort")
	}
	availability, err := enums.ParseStockAvailability(string(query.Availability))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid availability")
	}
	page := max(query.Page, 1)

	rows, total, err := s.repo.Catalog(ctx, catalogQuery{
		Search:       query.Search,
		CategorySlug: strings.TrimSpace(query.Category),
		Brand:        strings.TrimSpace(query.Brand),
		MinPrice:     query.MinPrice,
		MaxPrice:     query.MaxPrice,
		Availability: availability,
		Sort:         sort,
		Offset:       (page - 1) * CatalogPageSize,
		Limit:        CatalogPageSize,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list catalog")
	}
	brands, err := s.repo.Brands(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list brands")
	}

	result := &CatalogPage{
		Products:   make([]ProductDTO, 0, len(rows)),
		Page:       page,
		PageSize:   CatalogPageSize,
		Total:      total,
		TotalPages: int((total + CatalogPageSize - 1) / CatalogPageSize),
		Brands:     brands,
	}
	for _, row := range rows {
		result.Products = append(result.Products, mapProduct(row))
	}
	return result, nil
}

// GetBySlug returns an active product. Inactive products read as missing.
func (s *service) GetBySlug(ctx context.Context, slug string) (*ProductDTO, error) {
	product, err := s.repo.FindActiveBySlug(ctx, strings.TrimSpace(slug))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	dto := mapProduct(*product)
	return &dto, nil
}

func (s *service) checkCategory(ctx context.Context, categoryID *uuid.UUID) error {
	if categoryID == nil {
		return nil
	}
	exists, err := s.repo.CategoryExists(ctx, *categoryID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check category")
	}
	if !exists {
		return pkgerrors.New(pkgerrors.CodeValidation, "category does not exist")
	}
	return nil
}

func (s *service) load(ctx context.Context, repo *Repository, productID uuid.UUID) (*models.Product, error) {
	product, err := repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := Slugify(name)
	if base == "" {
		base = "product"
	}
	return allocateSlug(base, func(candidate string) (bool, error) {
		return s.repo.SlugExists(ctx, candidate)
	})
}

// allocateSlug returns base, or base with a random suffix when taken.
func allocateSlug(base string, exists func(string) (bool, error)) (string, error) {
	slug := base
	for attempt := 0; attempt < 5; attempt++ {
		taken, err := exists(slug)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check slug")
		}
		if !taken {
			return slug, nil
		}
		slug = base + "-" + uuid.NewString()[:6]
	}
	return "", pkgerrors.New(pkgerrors.CodeConflict, "could not allocate a unique slug")
}

func validatePrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
	}
	return nil
}

// Slugify lowercases name and joins its letter and digit runs with dashes.
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if b.Len() > 0 && !dash {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

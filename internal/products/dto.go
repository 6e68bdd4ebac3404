package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/souqly/storefront-backend/pkg/db/models"
	"github.com/souqly/storefront-backend/pkg/enums"
)

// CatalogPageSize is how many products one storefront page holds.
const CatalogPageSize = 12

// ProductDTO is the admin representation of a catalog entry.
type ProductDTO struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Slug        string          `json:"slug"`
	Subtitle    string          `json:"subtitle,omitempty"`
	Description string          `json:"description,omitempty"`
	Brand       string          `json:"brand,omitempty"`
	CategoryID  *uuid.UUID      `json:"category_id,omitempty"`
	Category    *CategoryRef    `json:"category,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	IsActive    bool            `json:"is_active"`
	IsFeatured  bool            `json:"is_featured"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CategoryRef is the category summary embedded in product payloads.
type CategoryRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

// ProductListResult is one page of products.
type ProductListResult struct {
	Products   []ProductDTO `json:"products"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// CreateProductInput carries a new catalog entry.
type CreateProductInput struct {
	Name        string
	Subtitle    string
	Description string
	Brand       string
	CategoryID  *uuid.UUID
	Price       decimal.Decimal
	Quantity    int
	IsActive    bool
	IsFeatured  bool
}

// UpdateProductInput is a partial update; nil fields are left unchanged.
type UpdateProductInput struct {
	Name        *string
	Subtitle    *string
	Description *string
	Brand       *string
	Price       *decimal.Decimal
	IsActive    *bool
	IsFeatured  *bool
	// CategoryID moves the product to another category; ClearCategory
	// removes it from its category.
	CategoryID    *uuid.UUID
	ClearCategory bool
}

// ListProductsInput filters the admin product listing.
type ListProductsInput struct {
	Active *bool
	Search string
	Limit  int
	Cursor string
}

// CatalogQuery filters the storefront listing. Only active products are
// ever listed. MinPrice is inclusive and MaxPrice exclusive.
type CatalogQuery struct {
	Search       string
	Category     string
	Brand        string
	MinPrice     *decimal.Decimal
	MaxPrice     *decimal.Decimal
	Availability enums.StockAvailability
	Sort         enums.CatalogSort
	Page         int
}

// CatalogPage is one numbered page of the storefront listing.
type CatalogPage struct {
	Products   []ProductDTO `json:"products"`
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
	Total      int64        `json:"total"`
	TotalPages int          `json:"total_pages"`
	Brands     []string     `json:"brands"`
}

func mapProduct(p models.Product) ProductDTO {
	var category *CategoryRef
	if p.Category != nil {
		category = &CategoryRef{ID: p.Category.ID, Name: p.Category.Name, Slug: p.Category.Slug}
	}
	return ProductDTO{
		CategoryID:  p.CategoryID,
		Category:    category,
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.Slug,
		Subtitle:    p.Subtitle,
		Description: p.Description,
		Brand:       p.Brand,
		Price:       p.Price,
		Quantity:    p.Quantity,
		IsActive:    p.IsActive,
		IsFeatured:  p.IsFeatured,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// CategoryDTO is a category with the number of products filed under it.
type CategoryDTO struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug"`
	Description   string    `json:"description,omitempty"`
	Icon          string    `json:"icon,omitempty"`
	ProductsCount int64     `json:"products_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CreateCategoryInput carries a new category. The slug is derived from Name.
type CreateCategoryInput struct {
	Name        string
	Description string
	Icon        string
}

// UpdateCategoryInput is a partial update. The slug never changes.
type UpdateCategoryInput struct {
	Name        *string
	Description *string
	Icon        *string
}

// DeleteCategoryResult reports how many products lost their category.
type DeleteCategoryResult struct {
	ID                 uuid.UUID `json:"id"`
	UnassignedProducts int64     `json:"unassigned_products"`
}

func mapCategory(c models.Category, productsCount int64) CategoryDTO {
	return CategoryDTO{
		ID:            c.ID,
		Name:          c.Name,
		Slug:          c.Slug,
		Description:   c.Description,
		Icon:          c.Icon,
		ProductsCount: productsCount,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

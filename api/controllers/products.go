package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/souqly/storefront-backend/api/responses"
	"github.com/souqly/storefront-backend/api/validators"
	product "github.com/souqly/storefront-backend/internal/products"
	"github.com/souqly/storefront-backend/pkg/enums"
	pkgerrors "github.com/souqly/storefront-backend/pkg/errors"
	"github.com/souqly/storefront-backend/pkg/logger"
	"github.com/souqly/storefront-backend/pkg/pagination"
)

type createProductRequest struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Subtitle    string          `json:"subtitle,omitempty" validate:"max=255"`
	Description string          `json:"description,omitempty"`
	Brand       string          `json:"brand,omitempty" validate:"max=255"`
	CategoryID  *uuid.UUID      `json:"category_id,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity" validate:"gte=0"`
	IsActive    *bool           `json:"is_active,omitempty"`
	IsFeatured  bool            `json:"is_featured,omitempty"`
}

func (r createProductRequest) toInput() product.CreateProductInput {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return product.CreateProductInput{
		Name:        r.Name,
		Subtitle:    r.Subtitle,
		Description: r.Description,
		Brand:       r.Brand,
		CategoryID:  r.CategoryID,
		Price:       r.Price,
		Quantity:    r.Quantity,
		IsActive:    active,
		IsFeatured:  r.IsFeatured,
	}
}

type updateProductRequest struct {
	Name        *string          `json:"name,omitempty" validate:"omitempty,max=255"`
	Subtitle    *string          `json:"subtitle,omitempty" validate:"omitempty,max=255"`
	Description *string          `json:"description,omitempty"`
	Brand       *string          `json:"brand,omitempty" validate:"omitempty,max=255"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	IsActive    *bool            `json:"is_active,omitempty"`
	IsFeatured  *bool            `json:"is_featured,omitempty"`
	// CategoryID set to "" removes the product from its category.
	CategoryID *string `json:"category_id,omitempty"`
}

func (r updateProductRequest) toInput() (product.UpdateProductInput, error) {
	input := product.UpdateProductInput{
		Name:        r.Name,
		Subtitle:    r.Subtitle,
		Description: r.Description,
		Brand:       r.Brand,
		Price:       r.Price,
		IsActive:    r.IsActive,
		IsFeatured:  r.IsFeatured,
	}
	if r.CategoryID != nil {
		raw := strings.TrimSpace(*r.CategoryID)
		if raw == "" {
			input.ClearCategory = true
			return input, nil
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return input, pkgerrors.New(pkgerrors.CodeValidation, "category_id must be a uuid")
		}
		input.CategoryID = &id
	}
	return input, nil
}

type adjustStockRequest struct {
	Delta int `json:"delta" validate:"ne=0"`
}

// AdminProductList pages through the catalog, optionally filtered by
// ?active= and ?q=.
func AdminProductList(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		active, err := validators.ParseQueryBool(r, "active")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListProducts(r.Context(), product.ListProductsInput{
			Active: active,
			Search: validators.SanitizeString(r.URL.Query().Get("q"), 128),
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func AdminProductGet(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.GetProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

func AdminProductCreate(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.CreateProduct(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

func AdminProductUpdate(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.UpdateProduct(r.Context(), productID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

// AdminProductStock restocks (positive delta) or writes off (negative delta)
// units of a product.
func AdminProductStock(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload adjustStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.AdjustStock(r.Context(), productID, payload.Delta)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

func AdminProductDelete(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteProduct(r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteNoContent(w)
	}
}

// CatalogList serves the storefront listing. It takes ?search=, ?category=
// (a category slug), ?brand=, ?min_price=, ?max_price=, ?price_range= such
// as 1000-5000 or 10000-plus, ?availability=, ?sort= and ?page=.
func CatalogList(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		query, err := parseCatalogQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.Catalog(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}

func CatalogDetail(svc product.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		slug := strings.TrimSpace(chi.URLParam(r, "slug"))
		if slug == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "slug is required"))
			return
		}

		dto, err := svc.GetBySlug(r.Context(), slug)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

func parseCatalogQuery(r *http.Request) (product.CatalogQuery, error) {
	values := r.URL.Query()
	page, err := validators.ParseQueryInt(r, "page", 1, 1, 10000)
	if err != nil {
		return product.CatalogQuery{}, err
	}
	sort, err := enums.ParseCatalogSort(strings.TrimSpace(values.Get("sort")))
	if err != nil {
		return product.CatalogQuery{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sort")
	}
	availability, err := enums.ParseStockAvailability(strings.TrimSpace(values.Get("availability")))
	if err != nil {
		return product.CatalogQuery{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid availability")
	}

	query := product.CatalogQuery{
		Search:       validators.SanitizeString(values.Get("search"), 128),
		Category:     validators.SanitizeString(values.Get("category"), 128),
		Brand:        validators.SanitizeString(values.Get("brand"), 128),
		Availability: availability,
		Sort:         sort,
		Page:         page,
	}
	if raw := strings.TrimSpace(values.Get("price_range")); raw != "" {
		query.MinPrice, query.MaxPrice, err = parsePriceRange(raw)
		if err != nil {
			return product.CatalogQuery{}, err
		}
	}
	if query.MinPrice == nil {
		if query.MinPrice, err = parseDecimalQuery(values.Get("min_price"), "min_price"); err != nil {
			return product.CatalogQuery{}, err
		}
	}
	if query.MaxPrice == nil {
		if query.MaxPrice, err = parseDecimalQuery(values.Get("max_price"), "max_price"); err != nil {
			return product.CatalogQuery{}, err
		}
	}
	return query, nil
}

// parsePriceRange reads "low-high" or "low-plus".
func parsePriceRange(raw string) (*decimal.Decimal, *decimal.Decimal, error) {
	low, high, ok := strings.Cut(raw, "-")
	if !ok {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "price_range must look like 100-500 or 500-plus")
	}
	minPrice, err := parseDecimalQuery(low, "price_range")
	if err != nil || minPrice == nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "price_range must look like 100-500 or 500-plus")
	}
	if high == "plus" {
		return minPrice, nil, nil
	}
	maxPrice, err := parseDecimalQuery(high, "price_range")
	if err != nil || maxPrice == nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "price_range must look like 100-500 or 500-plus")
	}
	return minPrice, maxPrice, nil
}

func parseDecimalQuery(raw, key string) (*decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, key+" must be a number")
	}
	return &value, nil
}

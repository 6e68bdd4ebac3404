package controllers

import (
	"net/http"

	"github.com/souqly/storefront-backend/api/responses"
	"github.com/souqly/storefront-backend/api/validators"
	product "github.com/souqly/storefront-backend/internal/products"
	pkgerrors "github.com/souqly/storefront-backend/pkg/errors"
	"github.com/souqly/storefront-backend/pkg/logger"
)

type createCategoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description,omitempty" validate:"max=500"`
	Icon        string `json:"icon,omitempty" validate:"max=50"`
}

type updateCategoryRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,max=100"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=500"`
	Icon        *string `json:"icon,omitempty" validate:"omitempty,max=50"`
}

// CategoryList lists categories with their product counts, optionally
// filtered by ?search=. Storefront and staff share it.
func CategoryList(svc product.CategoryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "category service unavailable"))
			return
		}

		categories, err := svc.ListCategories(r.Context(), validators.SanitizeString(r.URL.Query().Get("search"), 100))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, categories)
	}
}

func AdminCategoryCreate(svc product.CategoryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "category service unavailable"))
			return
		}

		var payload createCategoryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.CreateCategory(r.Context(), product.CreateCategoryInput{
			Name:        payload.Name,
			Description: payload.Description,
			Icon:        payload.Icon,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

func AdminCategoryUpdate(svc product.CategoryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "category service unavailable"))
			return
		}

		categoryID, err := validators.ParseUUIDParam(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateCategoryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.UpdateCategory(r.Context(), categoryID, product.UpdateCategoryInput{
			Name:        payload.Name,
			Description: payload.Description,
			Icon:        payload.Icon,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dto)
	}
}

// AdminCategoryDelete removes a category and reports how many products were
// left without one.
func AdminCategoryDelete(svc product.CategoryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "category service unavailable"))
			return
		}

		categoryID, err := validators.ParseUUIDParam(r, "categoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.DeleteCategory(r.Context(), categoryID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if logg != nil && result.UnassignedProducts > 0 {
			logg.Warn(logg.WithFields(r.Context(), map[string]any{
				"category_id":         categoryID.String(),
				"unassigned_products": result.UnassignedProducts,
			}), "deleted category still had products")
		}
		responses.WriteSuccess(w, result)
	}
}

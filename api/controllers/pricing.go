package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/souqly/storefront-backend/api/responses"
	"github.com/souqly/storefront-backend/api/validators"
	"github.com/souqly/storefront-backend/internal/pricing"
	"github.com/souqly/storefront-backend/pkg/db/models"
	pkgerrors "github.com/souqly/storefront-backend/pkg/errors"
	"github.com/souqly/storefront-backend/pkg/logger"
)

// DeliveryFeeCreator appends delivery fee rows.
type DeliveryFeeCreator interface {
	Create(ctx context.Context, fee decimal.Decimal) (*models.DeliveryFee, error)
}

type CouponCreator interface {
	Create(ctx context.Context, input pricing.CreateCouponInput) (*models.Coupon, error)
}

type deliveryFeeRequest struct {
	Fee decimal.Decimal `json:"fee"`
}

type deliveryFeeResponse struct {
	ID        uint64          `json:"id"`
	Fee       decimal.Decimal `json:"fee"`
	CreatedAt time.Time       `json:"created_at"`
}

type couponRequest struct {
	Code            string          `json:"code" validate:"required,max=20"`
	StartDate       *time.Time      `json:"start_date,omitempty"`
	EndDate         *time.Time      `json:"end_date,omitempty"`
	Quantity        int             `json:"quantity" validate:"gte=0"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

type couponResponse struct {
	ID              uuid.UUID       `json:"id"`
	Code            string          `json:"code"`
	StartDate       time.Time       `json:"start_date"`
	EndDate         time.Time       `json:"end_date"`
	Quantity        int             `json:"quantity"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// AdminDeliveryFeeCreate appends a new current delivery fee.
func AdminDeliveryFeeCreate(repo DeliveryFeeCreator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "delivery fee store unavailable"))
			return
		}

		var payload deliveryFeeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		fee, err := repo.Create(r.Context(), payload.Fee)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, deliveryFeeResponse{
			ID:        fee.ID,
			Fee:       fee.Fee,
			CreatedAt: fee.CreatedAt,
		})
	}
}

func AdminCouponCreate(repo CouponCreator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if repo == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "coupon store unavailable"))
			return
		}

		var payload couponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := pricing.CreateCouponInput{
			Code:            payload.Code,
			Quantity:        payload.Quantity,
			DiscountPercent: payload.DiscountPercent,
		}
		if payload.StartDate != nil {
			input.StartDate = *payload.StartDate
		}
		if payload.EndDate != nil {
			input.EndDate = *payload.EndDate
		}

		coupon, err := repo.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, couponResponse{
			ID:              coupon.ID,
			Code:            coupon.Code,
			StartDate:       coupon.StartDate,
			EndDate:         coupon.EndDate,
			Quantity:        coupon.Quantity,
			DiscountPercent: coupon.DiscountPercent,
		})
	}
}

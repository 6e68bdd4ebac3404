package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/souqly/storefront-backend/api/middleware"
	"github.com/souqly/storefront-backend/api/responses"
	"github.com/souqly/storefront-backend/api/validators"
	checkoutsvc "github.com/souqly/storefront-backend/internal/checkout"
	pkgerrors "github.com/souqly/storefront-backend/pkg/errors"
	"github.com/souqly/storefront-backend/pkg/logger"
)

// address fields are checked by the checkout service so every missing field
// is reported at once
type checkoutRequest struct {
	Address    checkoutsvc.AddressInput `json:"address"`
	CouponCode string                   `json:"coupon_code,omitempty" validate:"omitempty,max=64"`
}

// CheckoutSummary renders the totals the customer is about to confirm.
func CheckoutSummary(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		summary, err := svc.Summary(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, summary)
	}
}

// Checkout turns the caller's open cart into an order.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.PlaceOrder(r.Context(), userID, checkoutsvc.PlaceOrderInput{
			Address:    payload.Address,
			CouponCode: payload.CouponCode,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

func userIDFromRequest(r *http.Request) (uuid.UUID, error) {
	id, ok := middleware.UserUUIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return id, nil
}

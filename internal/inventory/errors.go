package inventory

import (
	"errors"
	"strconv"

	"github.com/google/uuid"

	pkgerrors "github.com/souqly/storefront-backend/pkg/errors"
)

// ErrNegativeStock is the cause attached when a decrement would take stock below zero.
var ErrNegativeStock = errors.New("inventory: decrement would make stock negative")

// InsufficientStockError reports that requested exceeds what is available.
func InsufficientStockError(productID uuid.UUID, productName string, available, requested int) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, "only "+strconv.Itoa(available)+" left of "+productName).
		WithDetails(map[string]any{
			"product_id":   productID.String(),
			"product_name": productName,
			"available":    available,
			"requested":    requested,
		})
}

// OutOfStockError reports that the product has no stock at all.
func OutOfStockError(productID uuid.UUID, productName string) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeOutOfStock, productName+" is out of stock").
		WithDetails(map[string]any{
			"product_id":   productID.String(),
			"product_name": productName,
		})
}

func negativeStockError(productID uuid.UUID, available, requested int) *pkgerrors.Error {
	return pkgerrors.Wrap(pkgerrors.CodeConcurrentModification, ErrNegativeStock, "stock changed while placing the order").
		WithDetails(map[string]any{
			"product_id": productID.String(),
			"available":  available,
			"requested":  requested,
		})
}

package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/souqly/storefront-backend/internal/pricing"
	"github.com/souqly/storefront-backend/pkg/db/models"
	"github.com/souqly/storefront-backend/pkg/enums"
)

// LineView is the client representation of a cart line.
type LineView struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	Total       decimal.Decimal `json:"total"`
	Available   int             `json:"available"`
}

// CartView is the client representation of the open cart. ID is nil until the
// first line is added.
type CartView struct {
	ID        *uuid.UUID       `json:"id"`
	Status    enums.CartStatus `json:"status"`
	Lines     []LineView       `json:"lines"`
	ItemCount int              `json:"item_count"`
	Total     decimal.Decimal  `json:"total"`
}

func emptyView() *CartView {
	return &CartView{
		Status: enums.CartStatusInProgress,
		Lines:  []LineView{},
		Total:  decimal.Zero,
	}
}

// NewCartView maps a cart with preloaded lines to its view.
func NewCartView(cart *models.Cart) *CartView {
	if cart == nil {
		return emptyView()
	}
	id := cart.ID
	view := &CartView{
		ID:     &id,
		Status: cart.Status,
		Lines:  make([]LineView, 0, len(cart.Lines)),
	}
	for _, line := range cart.Lines {
		lv := LineView{
			ID:        line.ID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Total:     line.LineTotal,
		}
		if line.Product != nil {
			lv.ProductName = line.Product.Name
			lv.UnitPrice = line.Product.Price
			lv.Available = line.Product.Quantity
		}
		view.Lines = append(view.Lines, lv)
		view.ItemCount += line.Quantity
	}
	view.Total = Total(cart)
	return view
}

// Total sums the cached line totals, rounded to cents.
func Total(cart *models.Cart) decimal.Decimal {
	if cart == nil {
		return decimal.Zero
	}
	totals := make([]decimal.Decimal, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		totals = append(totals, line.LineTotal)
	}
	return pricing.Sum(totals...)
}

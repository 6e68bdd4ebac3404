package cart

import (
	"github.com/google/uuid"

	cartsvc "github.com/souqly/storefront-backend/internal/cart"
)

type addLineRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

func (r addLineRequest) toInput() cartsvc.AddLineInput {
	return cartsvc.AddLineInput{
		ProductID: r.ProductID,
		Quantity:  r.Quantity,
	}
}

type adjustLineRequest struct {
	Delta int `json:"delta" validate:"ne=0"`
}

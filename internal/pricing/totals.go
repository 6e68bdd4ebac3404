package pricing

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Round rounds a customer-facing amount to two decimal places, half away from zero.
func Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// LineTotal is unit price times quantity, rounded.
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return Round(unitPrice.Mul(decimal.NewFromInt(int64(quantity))))
}

// Sum adds the amounts and rounds the result.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, amount := range amounts {
		total = total.Add(amount)
	}
	return Round(total)
}

// Totals are the persisted money fields of an order.
type Totals struct {
	Subtotal        decimal.Decimal `json:"subtotal"`
	DeliveryFee     decimal.Decimal `json:"delivery_fee"`
	Discount        decimal.Decimal `json:"discount"`
	Total           decimal.Decimal `json:"total"`
	TotalWithCoupon decimal.Decimal `json:"total_with_coupon"`
}

// ComputeTotals derives order totals from line totals. The coupon percentage, when
// present, is taken off the total after the delivery fee has been added:
//
//	total             = subtotal + fee - discount
//	total_with_coupon = total - percent/100 * total
func ComputeTotals(lineTotals []decimal.Decimal, fee, discount decimal.Decimal, couponPercent *decimal.Decimal) Totals {
	subtotal := Sum(lineTotals...)
	total := Round(subtotal.Add(fee).Sub(discount))

	withCoupon := total
	if couponPercent != nil {
		off := couponPercent.Div(hundred).Mul(total)
		withCoupon = Round(total.Sub(off))
	}

	return Totals{
		Subtotal:        subtotal,
		DeliveryFee:     Round(fee),
		Discount:        Round(discount),
		Total:           total,
		TotalWithCoupon: withCoupon,
	}
}

package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func TestComputeTotalsWithoutCouponKeepsTotal(t *testing.T) {
	t.Parallel()

	totals := ComputeTotals([]decimal.Decimal{dec("300")}, dec("50"), decimal.Zero, nil)

	assert.True(t, totals.Subtotal.Equal(dec("300")), "subtotal %s", totals.Subtotal)
	assert.True(t, totals.Total.Equal(dec("350")), "total %s", totals.Total)
	assert.True(t, totals.TotalWithCoupon.Equal(totals.Total), "total with coupon %s", totals.TotalWithCoupon)
}

func TestComputeTotalsAppliesCouponAfterDeliveryFee(t *testing.T) {
	t.Parallel()

	pct := dec("10")
	totals := ComputeTotals([]decimal.Decimal{dec("120"), dec("80")}, dec("50"), decimal.Zero, &pct)

	assert.True(t, totals.Total.Equal(dec("250")), "total %s", totals.Total)
	// 10% of 250, not of the 200 subtotal
	assert.True(t, totals.TotalWithCoupon.Equal(dec("225")), "total with coupon %s", totals.TotalWithCoupon)
}

func TestComputeTotalsSubtractsDiscount(t *testing.T) {
	t.Parallel()

	totals := ComputeTotals([]decimal.Decimal{dec("99.99")}, dec("15.5"), dec("5"), nil)
	assert.True(t, totals.Total.Equal(dec("110.49")), "total %s", totals.Total)
}

func TestRoundingToTwoPlaces(t *testing.T) {
	t.Parallel()

	assert.True(t, LineTotal(dec("33.335"), 3).Equal(dec("100.01")))
	assert.True(t, LineTotal(dec("100"), 3).Equal(dec("300")))

	pct := dec("15")
	totals := ComputeTotals([]decimal.Decimal{dec("10.01")}, decimal.Zero, decimal.Zero, &pct)
	// 10.01 - 1.5015 = 8.5085
	assert.Equal(t, "8.51", totals.TotalWithCoupon.StringFixed(2))
}

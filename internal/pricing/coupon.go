package pricing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/souqly/storefront-backend/pkg/db"
	"github.com/souqly/storefront-backend/pkg/db/models"
	pkgerrors "github.com/souqly/storefront-backend/pkg/errors"
)

// CouponRepository manages coupons and their usage caps.
type CouponRepository struct {
	db *gorm.DB
}

// NewCouponRepository constructs a repository bound to conn.
func NewCouponRepository(conn *gorm.DB) *CouponRepository {
	return &CouponRepository{db: conn}
}

// WithTx binds the repository to a transaction.
func (r *CouponRepository) WithTx(tx *gorm.DB) *CouponRepository {
	if tx == nil {
		return r
	}
	return &CouponRepository{db: tx}
}

// CreateCouponInput describes a new coupon. A zero EndDate means StartDate + 7 days.
type CreateCouponInput struct {
	Code            string
	StartDate       time.Time
	EndDate         time.Time
	Quantity        int
	DiscountPercent decimal.Decimal
}

// Create validates and stores a coupon.
func (r *CouponRepository) Create(ctx context.Context, input CreateCouponInput) (*models.Coupon, error) {
	code := normalizeCouponCode(input.Code)
	if code == "" {
		return nil, couponFieldError("code", "coupon code is required")
	}
	if input.Quantity < 0 {
		return nil, couponFieldError("quantity", "quantity must not be negative")
	}
	if input.DiscountPercent.LessThanOrEqual(decimal.Zero) || input.DiscountPercent.GreaterThan(hundred) {
		return nil, couponFieldError("discount_percent", "discount percent must be between 0 and 100")
	}

	coupon := &models.Coupon{
		Code:            code,
		StartDate:       input.StartDate,
		EndDate:         input.EndDate,
		Quantity:        input.Quantity,
		DiscountPercent: input.DiscountPercent.Round(2),
	}
	coupon.ApplyDefaults(time.Now().UTC())
	if coupon.EndDate.Before(coupon.StartDate) {
		return nil, couponFieldError("end_date", "end date must not be before start date")
	}

	if err := r.db.WithContext(ctx).Create(coupon).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "coupon code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create coupon")
	}
	return coupon, nil
}

// FindByCode looks a coupon up by its case-insensitive code.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.db.WithContext(ctx).Where("code = ?", normalizeCouponCode(code)).First(&coupon).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, couponFieldError("coupon_code", "coupon not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}
	return &coupon, nil
}

// Redeem checks the validity window at now and consumes one use. The decrement is
// conditional so concurrent redemptions cannot push the remaining quantity below zero.
func (r *CouponRepository) Redeem(ctx context.Context, code string, now time.Time) (*models.Coupon, error) {
	coupon, err := r.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if !coupon.ActiveOn(now) {
		return nil, couponFieldError("coupon_code", "coupon is not valid today")
	}

	res := r.db.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("id = ? AND quantity > 0", coupon.ID).
		UpdateColumn("quantity", gorm.Expr("quantity - 1"))
	if res.Error != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "redeem coupon")
	}
	if res.RowsAffected == 0 {
		return nil, couponFieldError("coupon_code", "coupon has no uses left")
	}
	coupon.Quantity--
	return coupon, nil
}

func normalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func couponFieldError(field, message string) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeValidation, message).WithDetails(map[string]any{"field": field})
}

package pricing

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/souqly/storefront-backend/pkg/db/models"
	pkgerrors "github.com/souqly/storefront-backend/pkg/errors"
)

// CurrentDeliveryFeeProvider resolves the flat delivery fee charged on new orders.
type CurrentDeliveryFeeProvider interface {
	CurrentDeliveryFee(ctx context.Context) (decimal.Decimal, error)
}

// DeliveryFeeRepository stores the append-only fee history.
type DeliveryFeeRepository struct {
	db *gorm.DB
}

// NewDeliveryFeeRepository constructs a repository bound to db.
func NewDeliveryFeeRepository(db *gorm.DB) *DeliveryFeeRepository {
	return &DeliveryFeeRepository{db: db}
}

// CurrentDeliveryFee returns the most recently created fee, or zero when none exists.
func (r *DeliveryFeeRepository) CurrentDeliveryFee(ctx context.Context) (decimal.Decimal, error) {
	latest, err := r.Latest(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	if latest == nil {
		return decimal.Zero, nil
	}
	return Round(latest.Fee), nil
}

// Latest returns the newest fee row or nil.
func (r *DeliveryFeeRepository) Latest(ctx context.Context) (*models.DeliveryFee, error) {
	var fee models.DeliveryFee
	err := r.db.WithContext(ctx).Order("id DESC").First(&fee).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery fee")
	}
	return &fee, nil
}

// Create appends a new current fee.
func (r *DeliveryFeeRepository) Create(ctx context.Context, fee decimal.Decimal) (*models.DeliveryFee, error) {
	if fee.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery fee must not be negative").WithDetails(map[string]any{"field": "fee"})
	}
	record := &models.DeliveryFee{Fee: Round(fee)}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create delivery fee")
	}
	return record, nil
}

// EnsureDefault creates fee when the table is empty and reports whether it did.
func (r *DeliveryFeeRepository) EnsureDefault(ctx context.Context, fee decimal.Decimal) (bool, error) {
	latest, err := r.Latest(ctx)
	if err != nil {
		return false, err
	}
	if latest != nil {
		return false, nil
	}
	if _, err := r.Create(ctx, fee); err != nil {
		return false, err
	}
	return true, nil
}

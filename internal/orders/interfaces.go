package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/souqly/storefront-backend/internal/pricing"
	"github.com/souqly/storefront-backend/pkg/db/models"
	"github.com/souqly/storefront-backend/pkg/enums"
	"github.com/souqly/storefront-backend/pkg/pagination"
)

// Repository defines persistence operations for orders, their lines and address snapshots.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateAddress(ctx context.Context, address *models.OrderAddress) error
	Create(ctx context.Context, order *models.Order) error
	CreateLines(ctx context.Context, lines []models.OrderLine) error
	UpdateTotals(ctx context.Context, orderID uuid.UUID, totals pricing.Totals) error
	CodeExists(ctx context.Context, code string) (bool, error)
	FindByCode(ctx context.Context, code string) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, string, error)
	ListAll(ctx context.Context, params pagination.Params, filters AdminOrderFilters) ([]models.Order, string, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus, deliveryTime *time.Time) error
	Stats(ctx context.Context, monthStart time.Time) (*OrderStats, error)
}

// OrderStats are the order-side numbers of the admin dashboard.
type OrderStats struct {
	TotalOrders   int64
	PendingOrders int64
	MonthRevenue  decimal.Decimal
}

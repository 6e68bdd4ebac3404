package orders

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/souqly/storefront-backend/internal/pricing"
	"github.com/souqly/storefront-backend/pkg/db/models"
	"github.com/souqly/storefront-backend/pkg/enums"
	"github.com/souqly/storefront-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository binds an order repository to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateAddress(ctx context.Context, address *models.OrderAddress) error {
	return r.db.WithContext(ctx).Create(address).Error
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(order).Error
}

func (r *repository) CreateLines(ctx context.Context, lines []models.OrderLine) error {
	if len(lines) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&lines).Error
}

func (r *repository) UpdateTotals(ctx context.Context, orderID uuid.UUID, totals pricing.Totals) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]any{
			"subtotal":          totals.Subtotal,
			"delivery_fee":      totals.DeliveryFee,
			"discount":          totals.Discount,
			"total":             totals.Total,
			"total_with_coupon": totals.TotalWithCoupon,
			"updated_at":        time.Now().UTC(),
		}).Error
}

func (r *repository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("code = ?", code).
		Count(&count).Error
	return count > 0, err
}

// FindByCode loads an order with its lines, address and coupon.
func (r *repository) FindByCode(ctx context.Context, code string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC").Order("id ASC")
		}).
		Preload("Address").
		Preload("Coupon").
		Where("code = ?", code).
		Take(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	qb := r.db.WithContext(ctx).Model(&models.Order{}).Where("orders.user_id = ?", userID)
	return r.page(qb, params)
}

func (r *repository) ListAll(ctx context.Context, params pagination.Params, filters AdminOrderFilters) ([]models.Order, string, error) {
	qb := r.db.WithContext(ctx).Model(&models.Order{})
	if filters.Status != nil {
		qb = qb.Where("orders.status = ?", *filters.Status)
	}
	if search := strings.TrimSpace(filters.Query); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		matching := r.db.Model(&models.OrderAddress{}).
			Select("id").
			Where("LOWER(customer_name) LIKE ?", pattern)
		qb = qb.Where("(LOWER(orders.code) LIKE ? OR orders.address_id IN (?))", pattern, matching)
	}
	return r.page(qb, params)
}

func (r *repository) page(qb *gorm.DB, params pagination.Params) ([]models.Order, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}
	if cursor != nil {
		qb = qb.Where("(orders.order_time < ?) OR (orders.order_time = ? AND orders.id < ?)", cursor.At, cursor.At, cursor.ID)
	}

	var rows []models.Order
	err = qb.Preload("Address").
		Preload("Lines").
		Order("orders.order_time DESC").
		Order("orders.id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, "", err
	}

	rows, next := pagination.Trim(rows, params.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{At: o.OrderTime, ID: o.ID}
	})
	return rows, next, nil
}

func (r *repository) UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus, deliveryTime *time.Time) error {
	updates := map[string]any{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}
	if deliveryTime != nil {
		updates["delivery_time"] = deliveryTime.UTC()
	}
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(updates).Error
}

func (r *repository) Stats(ctx context.Context, monthStart time.Time) (*OrderStats, error) {
	stats := &OrderStats{MonthRevenue: decimal.Zero}
	conn := r.db.WithContext(ctx)

	if err := conn.Model(&models.Order{}).Count(&stats.TotalOrders).Error; err != nil {
		return nil, err
	}
	if err := conn.Model(&models.Order{}).
		Where("status = ?", enums.OrderStatusReceived).
		Count(&stats.PendingOrders).Error; err != nil {
		return nil, err
	}

	var totals []decimal.Decimal
	if err := conn.Model(&models.Order{}).
		Where("order_time >= ?", monthStart.UTC()).
		Pluck("total_with_coupon", &totals).Error; err != nil {
		return nil, err
	}
	stats.MonthRevenue = pricing.Sum(totals...)
	return stats, nil
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/souqly/storefront-backend/pkg/enums"
)

// OrderAddress is the delivery snapshot captured when the order was placed.
type OrderAddress struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	CustomerName  string    `gorm:"column:customer_name;not null"`
	CustomerPhone string    `gorm:"column:customer_phone;not null"`
	CustomerEmail string    `gorm:"column:customer_email"`
	Governorate   string    `gorm:"column:governorate;not null"`
	City          string    `gorm:"column:city"`
	AddressLine   string    `gorm:"column:address_line;not null"`
	Notes         string    `gorm:"column:notes"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (a *OrderAddress) BeforeCreate(*gorm.DB) error {
	ensureID(&a.ID)
	return nil
}

// Order is immutable after creation apart from Status and DeliveryTime.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Code            string            `gorm:"column:code;size:20;not null;uniqueIndex"`
	UserID          *uuid.UUID        `gorm:"column:user_id;type:uuid;index"`
	Status          enums.OrderStatus `gorm:"column:status;not null;index"`
	OrderTime       time.Time         `gorm:"column:order_time;not null;index"`
	DeliveryTime    *time.Time        `gorm:"column:delivery_time"`
	AddressID       *uuid.UUID        `gorm:"column:address_id;type:uuid"`
	Address         *OrderAddress     `gorm:"foreignKey:AddressID"`
	CouponID        *uuid.UUID        `gorm:"column:coupon_id;type:uuid"`
	Coupon          *Coupon           `gorm:"foreignKey:CouponID"`
	Subtotal        decimal.Decimal   `gorm:"column:subtotal;type:numeric(12,2);not null"`
	DeliveryFee     decimal.Decimal   `gorm:"column:delivery_fee;type:numeric(12,2);not null"`
	Discount        decimal.Decimal   `gorm:"column:discount;type:numeric(12,2);not null"`
	Total           decimal.Decimal   `gorm:"column:total;type:numeric(12,2);not null"`
	TotalWithCoupon decimal.Decimal   `gorm:"column:total_with_coupon;type:numeric(12,2);not null"`
	Lines           []OrderLine       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	if o.Status == "" {
		o.Status = enums.OrderStatusReceived
	}
	if o.OrderTime.IsZero() {
		o.OrderTime = time.Now().UTC()
	}
	return nil
}

// OrderLine records quantity, unit price and line total as they were at purchase.
type OrderLine struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID   *uuid.UUID      `gorm:"column:product_id;type:uuid"`
	ProductName string          `gorm:"column:product_name;not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Total       decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (l *OrderLine) BeforeCreate(*gorm.DB) error {
	ensureID(&l.ID)
	return nil
}

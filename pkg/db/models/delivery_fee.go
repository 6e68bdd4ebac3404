package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DeliveryFee rows are append-only; the newest row is the current flat rate.
type DeliveryFee struct {
	ID        uint64          `gorm:"column:id;primaryKey;autoIncrement"`
	Fee       decimal.Decimal `gorm:"column:fee;type:numeric(12,2);not null"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalog entry. Quantity is the live stock count and never goes negative.
type Product struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name        string          `gorm:"column:name;not null"`
	Slug        string          `gorm:"column:slug;not null;uniqueIndex"`
	Subtitle    string          `gorm:"column:subtitle"`
	Description string          `gorm:"column:description"`
	Brand       string          `gorm:"column:brand"`
	CategoryID  *uuid.UUID      `gorm:"column:category_id;type:uuid;index"`
	Category    *Category       `gorm:"foreignKey:CategoryID"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
	IsActive    bool            `gorm:"column:is_active;not null"`
	IsFeatured  bool            `gorm:"column:is_featured;not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

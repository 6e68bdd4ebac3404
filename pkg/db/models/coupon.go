package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DefaultCouponValidity is applied when a coupon is created without an end date.
const DefaultCouponValidity = 7 * 24 * time.Hour

// Coupon grants a percentage discount on an order's post-fee total while it is
// inside its validity window and has uses left.
type Coupon struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Code            string          `gorm:"column:code;size:20;not null;uniqueIndex"`
	StartDate       time.Time       `gorm:"column:start_date;not null"`
	EndDate         time.Time       `gorm:"column:end_date;not null"`
	Quantity        int             `gorm:"column:quantity;not null"`
	DiscountPercent decimal.Decimal `gorm:"column:discount_percent;type:numeric(5,2);not null"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (c *Coupon) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	c.ApplyDefaults(time.Now().UTC())
	return nil
}

// ApplyDefaults fills the start date with now and the end date with start + 7 days.
func (c *Coupon) ApplyDefaults(now time.Time) {
	if c.StartDate.IsZero() {
		c.StartDate = now
	}
	if c.EndDate.IsZero() {
		c.EndDate = c.StartDate.Add(DefaultCouponValidity)
	}
}

// ActiveOn reports whether t falls on a day inside [StartDate, EndDate].
func (c Coupon) ActiveOn(t time.Time) bool {
	day := dateOf(t)
	return !day.Before(dateOf(c.StartDate)) && !day.After(dateOf(c.EndDate))
}

func dateOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

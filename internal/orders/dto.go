package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/souqly/storefront-backend/pkg/db/models"
	"github.com/souqly/storefront-backend/pkg/enums"
)

// AdminOrderFilters describe the knobs of the staff order list.
type AdminOrderFilters struct {
	Status *enums.OrderStatus
	Query  string
}

// AddressDTO is the delivery snapshot of an order.
type AddressDTO struct {
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	CustomerEmail string `json:"customer_email,omitempty"`
	Governorate   string `json:"governorate"`
	City          string `json:"city,omitempty"`
	AddressLine   string `json:"address_line"`
	Notes         string `json:"notes,omitempty"`
}

// OrderLineDTO is one purchased product at its purchase-time price.
type OrderLineDTO struct {
	ProductID   *uuid.UUID      `json:"product_id,omitempty"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Total       decimal.Decimal `json:"total"`
}

// OrderDTO is the client representation of an order.
type OrderDTO struct {
	Code            string            `json:"code"`
	UserID          *uuid.UUID        `json:"user_id,omitempty"`
	Status          enums.OrderStatus `json:"status"`
	OrderTime       time.Time         `json:"order_time"`
	DeliveryTime    *time.Time        `json:"delivery_time,omitempty"`
	Subtotal        decimal.Decimal   `json:"subtotal"`
	DeliveryFee     decimal.Decimal   `json:"delivery_fee"`
	Discount        decimal.Decimal   `json:"discount"`
	Total           decimal.Decimal   `json:"total"`
	TotalWithCoupon decimal.Decimal   `json:"total_with_coupon"`
	CouponCode      *string           `json:"coupon_code,omitempty"`
	ItemCount       int               `json:"item_count"`
	Address         *AddressDTO       `json:"address,omitempty"`
	Lines           []OrderLineDTO    `json:"lines"`
}

// OrderList wraps one page of orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// UpdateStatusInput moves an order along its lifecycle. Override allows a
// backwards move.
type UpdateStatusInput struct {
	Status       enums.OrderStatus
	DeliveryTime *time.Time
	Override     bool
}

// Dashboard summarizes the store for staff.
type Dashboard struct {
	TotalOrders       int64           `json:"total_orders"`
	PendingOrders     int64           `json:"pending_orders"`
	ActiveProducts    int64           `json:"active_products"`
	LowStockProducts  int64           `json:"low_stock_products"`
	LowStockThreshold int             `json:"low_stock_threshold"`
	MonthRevenue      decimal.Decimal `json:"month_revenue"`
	MonthStart        time.Time       `json:"month_start"`
}

// NewOrderDTO maps an order with preloaded associations.
func NewOrderDTO(order *models.Order) OrderDTO {
	dto := OrderDTO{
		Code:            order.Code,
		UserID:          order.UserID,
		Status:          order.Status,
		OrderTime:       order.OrderTime,
		DeliveryTime:    order.DeliveryTime,
		Subtotal:        order.Subtotal,
		DeliveryFee:     order.DeliveryFee,
		Discount:        order.Discount,
		Total:           order.Total,
		TotalWithCoupon: order.TotalWithCoupon,
		Lines:           make([]OrderLineDTO, 0, len(order.Lines)),
	}
	if order.Coupon != nil {
		code := order.Coupon.Code
		dto.CouponCode = &code
	}
	if a := order.Address; a != nil {
		dto.Address = &AddressDTO{
			CustomerName:  a.CustomerName,
			CustomerPhone: a.CustomerPhone,
			CustomerEmail: a.CustomerEmail,
			Governorate:   a.Governorate,
			City:          a.City,
			AddressLine:   a.AddressLine,
			Notes:         a.Notes,
		}
	}
	for _, line := range order.Lines {
		dto.Lines = append(dto.Lines, OrderLineDTO{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			Price:       line.Price,
			Total:       line.Total,
		})
		dto.ItemCount += line.Quantity
	}
	return dto
}

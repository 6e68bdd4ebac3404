package enums

import (
	"fmt"
	"strings"
)

// OrderStatus is the fulfilment stage of an order. Stages only move forward.
type OrderStatus string

const (
	OrderStatusReceived  OrderStatus = "Received"
	OrderStatusProcessed OrderStatus = "Processed"
	OrderStatusShipped   OrderStatus = "Shipped"
	OrderStatusDelivered OrderStatus = "Delivered"
)

// ordered by fulfilment stage
var validOrderStatuses = []OrderStatus{
	OrderStatusReceived,
	OrderStatusProcessed,
	OrderStatusShipped,
	OrderStatusDelivered,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	return s.Rank() >= 0
}

// Rank returns the position of the status in the lifecycle, or -1 when unknown.
func (s OrderStatus) Rank() int {
	for i, candidate := range validOrderStatuses {
		if candidate == s {
			return i
		}
	}
	return -1
}

// Before reports whether s comes earlier in the lifecycle than other.
func (s OrderStatus) Before(other OrderStatus) bool {
	return s.Rank() < other.Rank()
}

// OrderStatuses lists every status in lifecycle order.
func OrderStatuses() []OrderStatus {
	out := make([]OrderStatus, len(validOrderStatuses))
	copy(out, validOrderStatuses)
	return out
}

// ParseOrderStatus converts raw input into an OrderStatus, ignoring case.
func ParseOrderStatus(value string) (OrderStatus, error) {
	trimmed := strings.TrimSpace(value)
	for _, candidate := range validOrderStatuses {
		if strings.EqualFold(string(candidate), trimmed) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}

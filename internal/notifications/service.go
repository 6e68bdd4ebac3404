package notifications

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/souqly/storefront-backend/pkg/db/models"
	pkgerrors "github.com/souqly/storefront-backend/pkg/errors"
	"github.com/souqly/storefront-backend/pkg/mailer"
)

// Service composes and sends customer email.
type Service interface {
	SendWelcome(ctx context.Context, user *models.User) error
	SendPasswordResetCode(ctx context.Context, user *models.User, code string, ttl time.Duration) error
	SendOrderConfirmation(ctx context.Context, order *models.Order) error
}

type service struct {
	sender    mailer.Sender
	storeName string
}

// NewService wires the email sender.
func NewService(sender mailer.Sender, storeName string) (Service, error) {
	if sender == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "mail sender required")
	}
	if strings.TrimSpace(storeName) == "" {
		storeName = "Souqly"
	}
	return &service{sender: sender, storeName: storeName}, nil
}

func (s *service) SendWelcome(ctx context.Context, user *models.User) error {
	body := fmt.Sprintf("Hi %s,\n\nWelcome to %s. Your account is ready and you can start shopping right away.\n",
		greetingName(user), s.storeName)
	return s.sender.Send(ctx, mailer.Message{
		To:      user.Email,
		ToName:  user.FullName(),
		Subject: "Welcome to " + s.storeName,
		Text:    body,
	})
}

func (s *service) SendPasswordResetCode(ctx context.Context, user *models.User, code string, ttl time.Duration) error {
	body := fmt.Sprintf("Hi %s,\n\nYour password reset code is %s. It expires in %d minutes and can be used once.\n\nIf you did not ask for a reset you can ignore this email.\n",
		greetingName(user), code, int(ttl.Minutes()))
	return s.sender.Send(ctx, mailer.Message{
		To:      user.Email,
		ToName:  user.FullName(),
		Subject: s.storeName + " password reset code",
		Text:    body,
	})
}

// SendOrderConfirmation mails the receipt to the address snapshot email. Orders
// placed without an email are skipped.
func (s *service) SendOrderConfirmation(ctx context.Context, order *models.Order) error {
	if order == nil || order.Address == nil || strings.TrimSpace(order.Address.CustomerEmail) == "" {
		return nil
	}
	return s.sender.Send(ctx, mailer.Message{
		To:      order.Address.CustomerEmail,
		ToName:  order.Address.CustomerName,
		Subject: fmt.Sprintf("%s order %s received", s.storeName, order.Code),
		Text:    orderReceipt(order),
	})
}

func orderReceipt(order *models.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nWe received your order %s. Payment is cash on delivery.\n\n", order.Address.CustomerName, order.Code)
	for _, line := range order.Lines {
		fmt.Fprintf(&b, "  %d x %s @ %s = %s\n", line.Quantity, line.ProductName, money(line.Price), money(line.Total))
	}
	fmt.Fprintf(&b, "\nSubtotal: %s\nDelivery: %s\n", money(order.Subtotal), money(order.DeliveryFee))
	if order.Discount.IsPositive() {
		fmt.Fprintf(&b, "Discount: -%s\n", money(order.Discount))
	}
	fmt.Fprintf(&b, "Total: %s\n", money(order.Total))
	if !order.TotalWithCoupon.Equal(order.Total) {
		fmt.Fprintf(&b, "Total after coupon: %s\n", money(order.TotalWithCoupon))
	}
	fmt.Fprintf(&b, "\nDeliver to: %s, %s %s\n", order.Address.AddressLine, order.Address.City, order.Address.Governorate)
	return b.String()
}

func greetingName(user *models.User) string {
	if name := strings.TrimSpace(user.FirstName); name != "" {
		return name
	}
	return "there"
}

func money(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

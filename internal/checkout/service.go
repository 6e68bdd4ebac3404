package checkout

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/souqly/storefront-backend/internal/cart"
	"github.com/souqly/storefront-backend/internal/checkout/helpers"
	"github.com/souqly/storefront-backend/internal/inventory"
	"github.com/souqly/storefront-backend/internal/orders"
	"github.com/souqly/storefront-backend/internal/pricing"
	"github.com/souqly/storefront-backend/pkg/db"
	"github.com/souqly/storefront-backend/pkg/db/models"
	"github.com/souqly/storefront-backend/pkg/enums"
	pkgerrors "github.com/souqly/storefront-backend/pkg/errors"
	"github.com/souqly/storefront-backend/pkg/logger"
	"github.com/souqly/storefront-backend/pkg/metrics"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// StockLedger is the part of the inventory ledger the pipeline needs.
type StockLedger interface {
	Reserve(ctx context.Context, productID uuid.UUID, quantity int) error
	Decrement(ctx context.Context, productID uuid.UUID, quantity int) error
}

// LedgerFactory binds a ledger to the order transaction.
type LedgerFactory func(tx *gorm.DB) StockLedger

type confirmationSender interface {
	SendOrderConfirmation(ctx context.Context, order *models.Order) error
}

type orderEventPublisher interface {
	OrderPlaced(ctx context.Context, order *models.Order) error
}

// Service turns a customer's open cart into an order.
type Service interface {
	Summary(ctx context.Context, userID uuid.UUID) (*Summary, error)
	PlaceOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*orders.OrderDTO, error)
}

// AddressInput is the delivery payload of PlaceOrder.
type AddressInput = helpers.Address

// PlaceOrderInput carries the delivery address and an optional coupon code.
type PlaceOrderInput struct {
	Address    AddressInput
	CouponCode string
}

// Summary is what the checkout page shows before the order is placed.
type Summary struct {
	Lines       []cart.LineView `json:"lines"`
	ItemCount   int             `json:"item_count"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	Total       decimal.Decimal `json:"total"`
}

// Params wires the order pipeline. Notifier, Events, Metrics and Logger are
// optional.
type Params struct {
	Tx              txRunner
	Carts           cart.CartRepository
	Orders          orders.Repository
	Fees            pricing.CurrentDeliveryFeeProvider
	Coupons         *pricing.CouponRepository
	Ledger          LedgerFactory
	Codes           CodeGenerator
	MaxCodeAttempts int
	Notifier        confirmationSender
	Events          orderEventPublisher
	Metrics         *metrics.CheckoutMetrics
	Logger          *logger.Logger
	Now             func() time.Time
}

type service struct {
	tx              txRunner
	carts           cart.CartRepository
	orders          orders.Repository
	fees            pricing.CurrentDeliveryFeeProvider
	coupons         *pricing.CouponRepository
	ledger          LedgerFactory
	codes           CodeGenerator
	maxCodeAttempts int
	notifier        confirmationSender
	events          orderEventPublisher
	metrics         *metrics.CheckoutMetrics
	logg            *logger.Logger
	now             func() time.Time
}

// NewService builds the checkout service.
func NewService(p Params) (Service, error) {
	if p.Tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if p.Carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if p.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if p.Fees == nil {
		return nil, fmt.Errorf("delivery fee provider required")
	}
	if p.Coupons == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	if p.Ledger == nil {
		p.Ledger = func(tx *gorm.DB) StockLedger { return inventory.NewLedger(tx) }
	}
	if p.Codes == nil {
		p.Codes = NewCodeGenerator(DefaultOrderCodeLength)
	}
	if p.MaxCodeAttempts <= 0 {
		p.MaxCodeAttempts = 5
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	return &service{
		tx:              p.Tx,
		carts:           p.Carts,
		orders:          p.Orders,
		fees:            p.Fees,
		coupons:         p.Coupons,
		ledger:          p.Ledger,
		codes:           p.Codes,
		maxCodeAttempts: p.MaxCodeAttempts,
		notifier:        p.Notifier,
		events:          p.Events,
		metrics:         p.Metrics,
		logg:            p.Logger,
		now:             p.Now,
	}, nil
}

func (s *service) Summary(ctx context.Context, userID uuid.UUID) (*Summary, error) {
	open, err := s.carts.FindOpenByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if len(open.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
	}
	fee, err := s.fees.CurrentDeliveryFee(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery fee")
	}

	view := cart.NewCartView(open)
	totals := pricing.ComputeTotals(lineTotals(open.Lines), fee, decimal.Zero, nil)
	return &Summary{
		Lines:       view.Lines,
		ItemCount:   view.ItemCount,
		Subtotal:    totals.Subtotal,
		DeliveryFee: totals.DeliveryFee,
		Total:       totals.Total,
	}, nil
}

// PlaceOrder validates the open cart against live stock and, in one
// transaction, snapshots it into an order, decrements stock and completes the
// cart. Confirmation email and the order event go out after commit and never
// fail the call.
func (s *service) PlaceOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*orders.OrderDTO, error) {
	started := time.Now()
	order, err := s.placeOrder(ctx, userID, input)
	if err != nil {
		s.metrics.ObserveFailed(time.Since(started), string(pkgerrors.CodeOf(err)))
		return nil, err
	}

	units := 0
	for _, line := range order.Lines {
		units += line.Quantity
	}
	amount, _ := order.TotalWithCoupon.Float64()
	s.metrics.ObservePlaced(time.Since(started), amount, units)

	logCtx := ctx
	if s.logg != nil {
		logCtx = s.logg.WithOrderCode(ctx, order.Code)
		s.logg.Info(logCtx, "checkout.order_created")
	}
	s.afterCommit(logCtx, order)

	dto := orders.NewOrderDTO(order)
	return &dto, nil
}

func (s *service) placeOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	address := helpers.NormalizeAddress(input.Address)
	couponCode := strings.TrimSpace(input.CouponCode)

	// Resolved before the transaction so the read does not compete with it for a connection.
	fee, err := s.fees.CurrentDeliveryFee(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery fee")
	}

	var placed *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		now := s.now().UTC()
		cartRepo := s.carts.WithTx(tx)
		orderRepo := s.orders.WithTx(tx)
		ledger := s.ledger(tx)

		open, err := lockOpenCart(ctx, cartRepo, userID)
		if err != nil {
			return err
		}
		if len(open.Lines) == 0 {
			return pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
		}
		if err := helpers.ValidateAddress(address); err != nil {
			return err
		}
		for _, line := range open.Lines {
			if line.Product == nil {
				return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			if err := ledger.Reserve(ctx, line.ProductID, line.Quantity); err != nil {
				return err
			}
		}

		snapshot := &models.OrderAddress{
			CustomerName:  address.Name,
			CustomerPhone: address.Phone,
			CustomerEmail: address.Email,
			Governorate:   address.Governorate,
			City:          address.City,
			AddressLine:   address.AddressLine,
			Notes:         address.Notes,
		}
		if err := orderRepo.CreateAddress(ctx, snapshot); err != nil {
			return err
		}

		var coupon *models.Coupon
		if couponCode != "" {
			coupon, err = s.coupons.WithTx(tx).Redeem(ctx, couponCode, now)
			if err != nil {
				return err
			}
		}

		code, err := s.allocateCode(ctx, orderRepo)
		if err != nil {
			return err
		}

		owner := userID
		order := &models.Order{
			Code:            code,
			UserID:          &owner,
			Status:          enums.OrderStatusReceived,
			OrderTime:       now,
			AddressID:       &snapshot.ID,
			DeliveryFee:     pricing.Round(fee),
			Subtotal:        decimal.Zero,
			Discount:        decimal.Zero,
			Total:           decimal.Zero,
			TotalWithCoupon: decimal.Zero,
		}
		if coupon != nil {
			order.CouponID = &coupon.ID
		}
		if err := orderRepo.Create(ctx, order); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConcurrentModification, err, "order code collided, please retry")
			}
			return err
		}

		lines := make([]models.OrderLine, 0, len(open.Lines))
		for _, cartLine := range open.Lines {
			productID := cartLine.ProductID
			lines = append(lines, models.OrderLine{
				OrderID:     order.ID,
				ProductID:   &productID,
				ProductName: cartLine.Product.Name,
				Quantity:    cartLine.Quantity,
				Price:       cartLine.Product.Price,
				Total:       cartLine.LineTotal,
			})
		}
		if err := orderRepo.CreateLines(ctx, lines); err != nil {
			return err
		}
		for _, cartLine := range byProductID(open.Lines) {
			if err := ledger.Decrement(ctx, cartLine.ProductID, cartLine.Quantity); err != nil {
				return err
			}
		}

		var couponPercent *decimal.Decimal
		if coupon != nil {
			couponPercent = &coupon.DiscountPercent
		}
		totals := pricing.ComputeTotals(orderLineTotals(lines), fee, decimal.Zero, couponPercent)
		if err := orderRepo.UpdateTotals(ctx, order.ID, totals); err != nil {
			return err
		}

		completed, err := cartRepo.MarkCompleted(ctx, open.ID, now)
		if err != nil {
			return err
		}
		if !completed {
			return pkgerrors.New(pkgerrors.CodeConcurrentModification, "cart was checked out concurrently")
		}

		order.Subtotal = totals.Subtotal
		order.DeliveryFee = totals.DeliveryFee
		order.Discount = totals.Discount
		order.Total = totals.Total
		order.TotalWithCoupon = totals.TotalWithCoupon
		order.Address = snapshot
		order.Coupon = coupon
		order.Lines = lines
		placed = order
		return nil
	})
	if err != nil {
		if db.IsSerializationFailure(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConcurrentModification, err, "order conflicted with another checkout, please retry")
		}
		if typed := pkgerrors.As(err); typed != nil && typed.Code() != pkgerrors.CodeDependency {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeOrderCreationFailed, err, "create order")
	}
	return placed, nil
}

// lockOpenCart locks the user's open cart row and loads it again under the lock,
// so line edits committed before the lock are part of the order and later ones
// wait for it.
func lockOpenCart(ctx context.Context, repo cart.CartRepository, userID uuid.UUID) (*models.Cart, error) {
	open, err := repo.FindOpenByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, err
	}
	locked, err := repo.LockOpen(ctx, open.ID)
	if err != nil {
		return nil, err
	}
	if !locked {
		return nil, pkgerrors.New(pkgerrors.CodeConcurrentModification, "cart was checked out concurrently")
	}
	return repo.FindOpenByUser(ctx, userID)
}

// byProductID returns the lines in product id order. Every checkout takes the
// product row locks in that order, so two carts holding the same products
// cannot deadlock each other.
func byProductID(lines []models.CartLine) []models.CartLine {
	sorted := slices.Clone(lines)
	slices.SortFunc(sorted, func(a, b models.CartLine) int {
		return bytes.Compare(a.ProductID[:], b.ProductID[:])
	})
	return sorted
}

// allocateCode draws codes until one is unused. The unique index on
// orders.code still guards the insert.
func (s *service) allocateCode(ctx context.Context, repo orders.Repository) (string, error) {
	for attempt := 0; attempt < s.maxCodeAttempts; attempt++ {
		code, err := s.codes()
		if err != nil {
			return "", err
		}
		exists, err := repo.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeConcurrentModification, "could not allocate an order code, please retry")
}

func (s *service) afterCommit(ctx context.Context, order *models.Order) {
	if s.notifier != nil {
		if err := s.notifier.SendOrderConfirmation(ctx, order); err != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "checkout.confirmation_email_failed")
		}
	}
	if s.events != nil {
		if err := s.events.OrderPlaced(ctx, order); err != nil && s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "checkout.order_event_failed")
		}
	}
}

func lineTotals(lines []models.CartLine) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(lines))
	for _, line := range lines {
		out = append(out, line.LineTotal)
	}
	return out
}

func orderLineTotals(lines []models.OrderLine) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(lines))
	for _, line := range lines {
		out = append(out, line.Total)
	}
	return out
}

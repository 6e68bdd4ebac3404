package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/souqly/storefront-backend/internal/inventory"
	"github.com/souqly/storefront-backend/internal/pricing"
	"github.com/souqly/storefront-backend/pkg/db"
	"github.com/souqly/storefront-backend/pkg/db/models"
	pkgerrors "github.com/souqly/storefront-backend/pkg/errors"
)

// Service exposes the cart operations available to a signed-in customer.
type Service interface {
	GetOpenCart(ctx context.Context, userID uuid.UUID) (*CartView, error)
	AddLine(ctx context.Context, userID uuid.UUID, input AddLineInput) (*CartView, error)
	AdjustLine(ctx context.Context, userID, lineID uuid.UUID, delta int) (*CartView, error)
	RemoveLine(ctx context.Context, userID, lineID uuid.UUID) (*CartView, error)
	Total(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
}

// AddLineInput adds quantity units of a product to the open cart.
type AddLineInput struct {
	ProductID uuid.UUID
	Quantity  int
}

// openCartAttempts bounds how often AddLine reopens a cart that a concurrent
// checkout completed under it.
const openCartAttempts = 2

var errCartClosed = errors.New("cart: no longer in progress")

type service struct {
	repo     CartRepository
	tx       txRunner
	products productLoader
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, products productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{repo: repo, tx: tx, products: products}, nil
}

func (s *service) GetOpenCart(ctx context.Context, userID uuid.UUID) (*CartView, error) {
	cart, err := s.repo.FindOpenByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return emptyView(), nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return NewCartView(cart), nil
}

func (s *service) Total(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	cart, err := s.repo.FindOpenByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return Total(cart), nil
}

// AddLine merges into an existing line for the product when there is one. The
// merged quantity must fit in current stock, otherwise the line is left as is.
func (s *service) AddLine(ctx context.Context, userID uuid.UUID, input AddLineInput) (*CartView, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	product, err := s.products.FindByID(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if product.Quantity == 0 {
		return nil, inventory.OutOfStockError(product.ID, product.Name)
	}

	for attempt := 1; ; attempt++ {
		err := s.addToOpenCart(ctx, userID, product, input.Quantity)
		if errors.Is(err, errCartClosed) && attempt < openCartAttempts {
			continue
		}
		if err != nil {
			return nil, asServiceError(err, "add cart line")
		}
		return s.GetOpenCart(ctx, userID)
	}
}

// addToOpenCart writes the line under the cart row lock. A checkout that
// completes the cart first makes the lock fail with errCartClosed, and the
// caller retries against a fresh cart.
func (s *service) addToOpenCart(ctx context.Context, userID uuid.UUID, product *models.Product, quantity int) error {
	cart, err := s.repo.GetOrCreateOpen(ctx, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open cart")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := lockOpen(ctx, repo, cart.ID); err != nil {
			return err
		}
		stock, err := inventory.NewLedger(tx).Available(ctx, product.ID)
		if err != nil {
			return err
		}

		line, err := repo.FindLine(ctx, cart.ID, product.ID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if quantity > stock {
				return inventory.InsufficientStockError(product.ID, product.Name, stock, quantity)
			}
			return repo.CreateLine(ctx, &models.CartLine{
				CartID:    cart.ID,
				ProductID: product.ID,
				Quantity:  quantity,
				LineTotal: pricing.LineTotal(product.Price, quantity),
			})
		case err != nil:
			return err
		}

		merged := line.Quantity + quantity
		if merged > stock {
			return inventory.InsufficientStockError(product.ID, product.Name, stock, merged)
		}
		line.Quantity = merged
		line.LineTotal = pricing.LineTotal(product.Price, merged)
		return repo.UpdateLine(ctx, line)
	})
}

// AdjustLine applies a stepper delta. Decreases stop at one unit; increases are
// capped by current stock like AddLine.
func (s *service) AdjustLine(ctx context.Context, userID, lineID uuid.UUID, delta int) (*CartView, error) {
	if delta == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delta must not be zero")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		line, err := lockedLine(ctx, repo, lineID, userID)
		if err != nil {
			return err
		}
		if line.Product == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}

		quantity := line.Quantity + delta
		if quantity < 1 {
			quantity = 1
		}
		if delta > 0 && quantity > line.Product.Quantity {
			if line.Product.Quantity == 0 {
				return inventory.OutOfStockError(line.Product.ID, line.Product.Name)
			}
			return inventory.InsufficientStockError(line.Product.ID, line.Product.Name, line.Product.Quantity, quantity)
		}
		if quantity == line.Quantity {
			return nil
		}

		line.Quantity = quantity
		line.LineTotal = pricing.LineTotal(line.Product.Price, quantity)
		return repo.UpdateLine(ctx, line)
	})
	if err != nil {
		return nil, asServiceError(err, "adjust cart line")
	}
	return s.GetOpenCart(ctx, userID)
}

func (s *service) RemoveLine(ctx context.Context, userID, lineID uuid.UUID) (*CartView, error) {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		line, err := lockedLine(ctx, repo, lineID, userID)
		if err != nil {
			return err
		}
		return repo.DeleteLine(ctx, line.ID)
	})
	if err != nil {
		return nil, asServiceError(err, "remove cart line")
	}
	return s.GetOpenCart(ctx, userID)
}

// lockedLine loads the line, locks its cart and reads the line again so the
// write that follows sees the state the lock protects.
func lockedLine(ctx context.Context, repo CartRepository, lineID, userID uuid.UUID) (*models.CartLine, error) {
	line, err := repo.FindLineForUser(ctx, lineID, userID)
	if err != nil {
		return nil, lineLookupError(err)
	}
	if err := lockOpen(ctx, repo, line.CartID); err != nil {
		if errors.Is(err, errCartClosed) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
		}
		return nil, err
	}
	line, err = repo.FindLineForUser(ctx, lineID, userID)
	if err != nil {
		return nil, lineLookupError(err)
	}
	return line, nil
}

func lockOpen(ctx context.Context, repo CartRepository, cartID uuid.UUID) error {
	locked, err := repo.LockOpen(ctx, cartID)
	if err != nil {
		return err
	}
	if !locked {
		return errCartClosed
	}
	return nil
}

func lineLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart line not found")
	}
	return err
}

func asServiceError(err error, op string) error {
	if errors.Is(err, errCartClosed) {
		return pkgerrors.Wrap(pkgerrors.CodeConcurrentModification, err, "cart was checked out, please retry")
	}
	if db.IsSerializationFailure(err) {
		return pkgerrors.Wrap(pkgerrors.CodeConcurrentModification, err, "cart changed concurrently, please retry")
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}

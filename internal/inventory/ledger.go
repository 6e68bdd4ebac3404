package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/souqly/storefront-backend/pkg/db/models"
	pkgerrors "github.com/souqly/storefront-backend/pkg/errors"
)

// Ledger owns the stock count stored on products.
type Ledger struct {
	db *gorm.DB
}

// NewLedger constructs a ledger bound to the provided DB.
func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// WithTx binds the ledger to a transaction.
func (l *Ledger) WithTx(tx *gorm.DB) *Ledger {
	if tx == nil {
		return l
	}
	return &Ledger{db: tx}
}

type stockRow struct {
	ID       uuid.UUID
	Name     string
	Quantity int
}

func (l *Ledger) load(ctx context.Context, productID uuid.UUID) (*stockRow, error) {
	var row stockRow
	err := l.db.WithContext(ctx).
		Model(&models.Product{}).
		Select("id", "name", "quantity").
		Where("id = ?", productID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product stock")
	}
	return &row, nil
}

// Available returns the live stock for the product.
func (l *Ledger) Available(ctx context.Context, productID uuid.UUID) (int, error) {
	row, err := l.load(ctx, productID)
	if err != nil {
		return 0, err
	}
	return row.Quantity, nil
}

// Reserve checks that quantity units can be taken right now. It does not hold
// them; Decrement is the guarded write.
func (l *Ledger) Reserve(ctx context.Context, productID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	row, err := l.load(ctx, productID)
	if err != nil {
		return err
	}
	if quantity > row.Quantity {
		return InsufficientStockError(row.ID, row.Name, row.Quantity, quantity)
	}
	return nil
}

// Decrement removes quantity units in a single compare-and-swap statement. When
// the row no longer holds enough stock nothing is written and the returned error
// wraps ErrNegativeStock.
func (l *Ledger) Decrement(ctx context.Context, productID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	res := l.db.WithContext(ctx).Exec(
		`UPDATE products SET quantity = quantity - ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND quantity >= ?`,
		quantity, productID, quantity,
	)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "decrement stock")
	}
	if res.RowsAffected == 1 {
		return nil
	}

	available, err := l.Available(ctx, productID)
	if err != nil {
		return err
	}
	return negativeStockError(productID, available, quantity)
}

// Restock adds quantity units, used by catalog administration.
func (l *Ledger) Restock(ctx context.Context, productID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	res := l.db.WithContext(ctx).Exec(
		`UPDATE products SET quantity = quantity + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		quantity, productID,
	)
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "restock product")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}

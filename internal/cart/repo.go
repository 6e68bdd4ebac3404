package cart

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/souqly/storefront-backend/pkg/db"
	"github.com/souqly/storefront-backend/pkg/db/models"
	"github.com/souqly/storefront-backend/pkg/enums"
)

// Repository exposes persistence operations for carts and their lines.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindOpenByUser loads the in-progress cart for the user with lines and products.
func (r *Repository) FindOpenByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC").Order("id ASC")
		}).
		Preload("Lines.Product").
		Where("user_id = ? AND status = ?", userID, enums.CartStatusInProgress).
		Order("created_at DESC").
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// GetOrCreateOpen returns the user's single in-progress cart, creating it on
// first use. A concurrent create that trips the open-cart index is resolved by
// reading the winner's row.
func (r *Repository) GetOrCreateOpen(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart, err := r.FindOpenByUser(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created := &models.Cart{UserID: userID, Status: enums.CartStatusInProgress}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(created).Error; err != nil {
		// sqlite reports the column rather than the index name, and the open-cart
		// index is the only unique constraint a new cart can trip.
		if db.IsUniqueViolation(err, "") {
			return r.FindOpenByUser(ctx, userID)
		}
		return nil, err
	}
	created.Lines = []models.CartLine{}
	return created, nil
}

// LockOpen touches an in-progress cart so its row stays locked until the
// surrounding transaction ends. It reports false once the cart is completed.
func (r *Repository) LockOpen(ctx context.Context, cartID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ? AND status = ?", cartID, enums.CartStatusInProgress).
		Update("updated_at", time.Now().UTC())
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// FindLine returns the line for a product in the cart.
func (r *Repository) FindLine(ctx context.Context, cartID, productID uuid.UUID) (*models.CartLine, error) {
	var line models.CartLine
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND product_id = ?", cartID, productID).
		Take(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// FindLineForUser returns a line only when it belongs to the user's open cart.
func (r *Repository) FindLineForUser(ctx context.Context, lineID, userID uuid.UUID) (*models.CartLine, error) {
	openCarts := r.db.Model(&models.Cart{}).
		Select("id").
		Where("user_id = ? AND status = ?", userID, enums.CartStatusInProgress)

	var line models.CartLine
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("id = ? AND cart_id IN (?)", lineID, openCarts).
		Take(&line).Error
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// CreateLine inserts a new cart line.
func (r *Repository) CreateLine(ctx context.Context, line *models.CartLine) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(line).Error
}

// UpdateLine writes the quantity and cached total of an existing line.
func (r *Repository) UpdateLine(ctx context.Context, line *models.CartLine) error {
	return r.db.WithContext(ctx).
		Model(&models.CartLine{}).
		Where("id = ?", line.ID).
		Updates(map[string]any{
			"quantity":   line.Quantity,
			"total":      line.LineTotal,
			"updated_at": time.Now().UTC(),
		}).Error
}

// DeleteLine removes a cart line.
func (r *Repository) DeleteLine(ctx context.Context, lineID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", lineID).
		Delete(&models.CartLine{}).Error
}

// MarkCompleted flips an in-progress cart to completed. It reports false when
// the cart was no longer in progress.
func (r *Repository) MarkCompleted(ctx context.Context, cartID uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ? AND status = ?", cartID, enums.CartStatusInProgress).
		Updates(map[string]any{
			"status":       enums.CartStatusCompleted,
			"completed_at": at,
			"updated_at":   at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/souqly/storefront-backend/pkg/db/models"
)

// CartRepository defines the persistence surface required by the cart service
// and the checkout pipeline.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindOpenByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	GetOrCreateOpen(ctx context.Context, userID uuid.UUID) (*models.Cart, error)
	LockOpen(ctx context.Context, cartID uuid.UUID) (bool, error)
	FindLine(ctx context.Context, cartID, productID uuid.UUID) (*models.CartLine, error)
	FindLineForUser(ctx context.Context, lineID, userID uuid.UUID) (*models.CartLine, error)
	CreateLine(ctx context.Context, line *models.CartLine) error
	UpdateLine(ctx context.Context, line *models.CartLine) error
	DeleteLine(ctx context.Context, lineID uuid.UUID) error
	MarkCompleted(ctx context.Context, cartID uuid.UUID, at time.Time) (bool, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

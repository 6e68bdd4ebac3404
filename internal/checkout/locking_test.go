package checkout

import (
	"bytes"
	"context"
	"slices"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/souqly/storefront-backend/internal/cart"
	"github.com/souqly/storefront-backend/internal/inventory"
	"github.com/souqly/storefront-backend/pkg/db/models"
	"github.com/souqly/storefront-backend/pkg/enums"
	pkgerrors "github.com/souqly/storefront-backend/pkg/errors"
)

type orderRecordingLedger struct {
	real StockLedger
	mu   *sync.Mutex
	seen *[]uuid.UUID
}

func (l orderRecordingLedger) Reserve(ctx context.Context, productID uuid.UUID, qty int) error {
	return l.real.Reserve(ctx, productID, qty)
}

func (l orderRecordingLedger) Decrement(ctx context.Context, productID uuid.UUID, qty int) error {
	l.mu.Lock()
	*l.seen = append(*l.seen, productID)
	l.mu.Unlock()
	return l.real.Decrement(ctx, productID, qty)
}

func TestPlaceOrderDecrementsInProductOrder(t *testing.T) {
	t.Parallel()
	var (
		mu   sync.Mutex
		seen []uuid.UUID
	)
	f := newFixture(t, func(p *Params) {
		p.Ledger = func(tx *gorm.DB) StockLedger {
			return orderRecordingLedger{real: inventory.NewLedger(tx), mu: &mu, seen: &seen}
		}
	})
	ctx := context.Background()
	user := uuid.New()
	products := []models.Product{
		f.product(t, "Desk lamp", "100", 5),
		f.product(t, "Shade", "20", 5),
		f.product(t, "Bulb", "5", 5),
	}
	// add in descending id order so cart order and lock order disagree
	sortedIDs := []uuid.UUID{products[0].ID, products[1].ID, products[2].ID}
	slices.SortFunc(sortedIDs, func(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) })
	for i := len(sortedIDs) - 1; i >= 0; i-- {
		f.add(t, user, sortedIDs[i], 1)
	}

	order, err := f.svc.PlaceOrder(ctx, user, PlaceOrderInput{Address: validAddress()})
	require.NoError(t, err)
	require.Len(t, order.Lines, 3)
	assert.Equal(t, sortedIDs, seen)
	for _, id := range sortedIDs {
		assert.Equal(t, 4, f.stock(t, id))
	}
}

func TestPlaceOrderTurnsDeadlocksIntoRetryableConflicts(t *testing.T) {
	t.Parallel()
	deadlock := pkgerrors.Wrap(pkgerrors.CodeDependency, &pgconn.PgError{Code: "40P01"}, "decrement stock")
	f := newFixture(t, func(p *Params) {
		p.Ledger = func(tx *gorm.DB) StockLedger {
			return failingLedger{real: inventory.NewLedger(tx), err: deadlock}
		}
	})
	lamp := f.product(t, "Desk lamp", "100", 5)
	user := uuid.New()
	f.add(t, user, lamp.ID, 2)

	_, err := f.svc.PlaceOrder(context.Background(), user, PlaceOrderInput{Address: validAddress()})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConcurrentModification), "got %v", err)
	assert.True(t, pkgerrors.MetadataFor(pkgerrors.CodeOf(err)).Retryable)
	assert.Equal(t, 5, f.stock(t, lamp.ID))
	assert.Equal(t, enums.CartStatusInProgress, f.cartStatus(t, user))
	f.assertNothingWritten(t)
}

// closedCartRepo reports the cart as completed when the order transaction
// tries to lock it.
type closedCartRepo struct {
	cart.CartRepository
}

func (r closedCartRepo) WithTx(tx *gorm.DB) cart.CartRepository {
	return closedCartRepo{CartRepository: r.CartRepository.WithTx(tx)}
}

func (closedCartRepo) LockOpen(context.Context, uuid.UUID) (bool, error) {
	return false, nil
}

func TestPlaceOrderStopsWhenCartCannotBeLocked(t *testing.T) {
	t.Parallel()
	f := newFixture(t, func(p *Params) {
		p.Carts = closedCartRepo{CartRepository: p.Carts}
	})
	lamp := f.product(t, "Desk lamp", "100", 5)
	user := uuid.New()
	f.add(t, user, lamp.ID, 2)

	_, err := f.svc.PlaceOrder(context.Background(), user, PlaceOrderInput{Address: validAddress()})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConcurrentModification), "got %v", err)
	assert.Equal(t, 5, f.stock(t, lamp.ID))
	f.assertNothingWritten(t)
}

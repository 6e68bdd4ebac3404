package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/souqly/storefront-backend/pkg/db/dbtest"
	"github.com/souqly/storefront-backend/pkg/db/models"
	pkgerrors "github.com/souqly/storefront-backend/pkg/errors"
)

func newAdminEnv(t *testing.T) (AdminService, *Repository, *gorm.DB) {
	t.Helper()
	client, conn := dbtest.Client(t)
	repo := NewRepository(conn)
	svc, err := NewAdminService(repo, client)
	require.NoError(t, err)
	return svc, repo, conn
}

func createUser(t *testing.T, repo *Repository, email, first string) *models.User {
	t.Helper()
	user, err := repo.Create(context.Background(), CreateUserDTO{Email: email, PasswordHash: "hash", FirstName: first, LastName: "Test"})
	require.NoError(t, err)
	return user
}

func TestListUsersSearchesAndPaginates(t *testing.T) {
	t.Parallel()
	svc, repo, _ := newAdminEnv(t)
	ctx := context.Background()

	createUser(t, repo, "mona@example.com", "Mona")
	createUser(t, repo, "karim@example.com", "Karim")
	createUser(t, repo, "salma@shop.test", "Monalisa")

	page, err := svc.ListUsers(ctx, ListUsersInput{Search: "MONA", Limit: 1})
	require.NoError(t, err)
	require.Len(t, page.Users, 1)
	require.NotEmpty(t, page.NextCursor)

	rest, err := svc.ListUsers(ctx, ListUsersInput{Search: "mona", Limit: 1, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest.Users, 1)
	assert.Empty(t, rest.NextCursor)
	assert.NotEqual(t, page.Users[0].ID, rest.Users[0].ID)

	all, err := svc.ListUsers(ctx, ListUsersInput{})
	require.NoError(t, err)
	assert.Len(t, all.Users, 3)

	_, err = svc.ListUsers(ctx, ListUsersInput{Cursor: "not-a-cursor"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDeleteUserKeepsOrders(t *testing.T) {
	t.Parallel()
	svc, repo, conn := newAdminEnv(t)
	ctx := context.Background()

	staff := createUser(t, repo, "staff@example.com", "Staff")
	mona := createUser(t, repo, "mona@example.com", "Mona")

	product := models.Product{Name: "Lamp", Slug: "lamp-" + uuid.NewString()[:6], Price: decimal.NewFromInt(10), Quantity: 3, IsActive: true}
	require.NoError(t, conn.Create(&product).Error)
	cart := models.Cart{UserID: mona.ID}
	require.NoError(t, conn.Create(&cart).Error)
	require.NoError(t, conn.Create(&models.CartLine{CartID: cart.ID, ProductID: product.ID, Quantity: 1, LineTotal: decimal.NewFromInt(10)}).Error)
	order := models.Order{
		Code:            "MONAORDER1",
		UserID:          &mona.ID,
		Subtotal:        decimal.NewFromInt(10),
		DeliveryFee:     decimal.Zero,
		Discount:        decimal.Zero,
		Total:           decimal.NewFromInt(10),
		TotalWithCoupon: decimal.NewFromInt(10),
	}
	require.NoError(t, conn.Create(&order).Error)

	require.NoError(t, svc.DeleteUser(ctx, staff.ID, mona.ID))

	_, err := repo.FindByID(ctx, mona.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var carts, lines int64
	require.NoError(t, conn.Model(&models.Cart{}).Where("user_id = ?", mona.ID).Count(&carts).Error)
	require.NoError(t, conn.Model(&models.CartLine{}).Where("cart_id = ?", cart.ID).Count(&lines).Error)
	assert.Zero(t, carts)
	assert.Zero(t, lines)

	var kept models.Order
	require.NoError(t, conn.First(&kept, "id = ?", order.ID).Error)
	assert.Nil(t, kept.UserID)
	assert.Equal(t, "MONAORDER1", kept.Code)

	err = svc.DeleteUser(ctx, staff.ID, mona.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestDeleteUserRefusesOwnAccount(t *testing.T) {
	t.Parallel()
	svc, repo, _ := newAdminEnv(t)
	staff := createUser(t, repo, "staff@example.com", "Staff")

	err := svc.DeleteUser(context.Background(), staff.ID, staff.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	_, err = repo.FindByID(context.Background(), staff.ID)
	assert.NoError(t, err)
}

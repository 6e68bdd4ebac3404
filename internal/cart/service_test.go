package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	product "github.com/souqly/storefront-backend/internal/products"
	"github.com/souqly/storefront-backend/pkg/db/dbtest"
	"github.com/souqly/storefront-backend/pkg/db/models"
	"github.com/souqly/storefront-backend/pkg/enums"
	pkgerrors "github.com/souqly/storefront-backend/pkg/errors"
)

type testEnv struct {
	svc  Service
	repo *Repository
	conn *gorm.DB
	seed func(name, price string, stock int, active bool) models.Product
}

func newTestEnv(t *testing.T, wrap ...func(*Repository) CartRepository) testEnv {
	t.Helper()
	client, conn := dbtest.Client(t)
	repo := NewRepository(conn)
	var svcRepo CartRepository = repo
	for _, fn := range wrap {
		svcRepo = fn(repo)
	}
	svc, err := NewService(svcRepo, client, product.NewRepository(conn))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	seed := func(name, price string, stock int, active bool) models.Product {
		t.Helper()
		p := models.Product{
			Name:     name,
			Slug:     product.Slugify(name) + "-" + uuid.NewString()[:8],
			Price:    decimal.RequireFromString(price),
			Quantity: stock,
			IsActive: active,
		}
		if err := conn.Create(&p).Error; err != nil {
			t.Fatalf("seed product: %v", err)
		}
		return p
	}
	return testEnv{svc: svc, repo: repo, conn: conn, seed: seed}
}

func expectCode(t *testing.T, err error, code pkgerrors.Code) *pkgerrors.Error {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != code {
		t.Fatalf("expected %s, got %v", code, err)
	}
	return typed
}

func TestGetOpenCartEmpty(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	view, err := env.svc.GetOpenCart(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if view.ID != nil || len(view.Lines) != 0 || !view.Total.IsZero() {
		t.Fatalf("expected empty view, got %+v", view)
	}
	if view.Status != enums.CartStatusInProgress {
		t.Fatalf("unexpected status %s", view.Status)
	}
}

func TestAddLineMergesSameProduct(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	user := uuid.New()
	mug := env.seed("Coffee mug", "12.50", 10, true)

	if _, err := env.svc.AddLine(ctx, user, AddLineInput{ProductID: mug.ID, Quantity: 2}); err != nil {
		t.Fatalf("first add: %v", err)
	}
	view, err := env.svc.AddLine(ctx, user, AddLineInput{ProductID: mug.ID, Quantity: 3})
	if err != nil {
		t.Fatalf("second add: %v", err)
	}

	if len(view.Lines) != 1 {
		t.Fatalf("expected one merged line, got %d", len(view.Lines))
	}
	line := view.Lines[0]
	if line.Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", line.Quantity)
	}
	if !line.Total.Equal(decimal.RequireFromString("62.50")) {
		t.Fatalf("expected line total 62.50, got %s", line.Total)
	}
	if !view.Total.Equal(line.Total) || view.ItemCount != 5 {
		t.Fatalf("unexpected cart totals: %+v", view)
	}

	total, err := env.svc.Total(ctx, user)
	if err != nil || !total.Equal(decimal.RequireFromString("62.5")) {
		t.Fatalf("total = %s, %v", total, err)
	}
}

func TestAddLineRejectsUnavailableProducts(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	user := uuid.New()

	soldOut := env.seed("Sold out", "5", 0, true)
	_, err := env.svc.AddLine(ctx, user, AddLineInput{ProductID: soldOut.ID, Quantity: 1})
	expectCode(t, err, pkgerrors.CodeOutOfStock)

	hidden := env.seed("Hidden", "5", 10, false)
	_, err = env.svc.AddLine(ctx, user, AddLineInput{ProductID: hidden.ID, Quantity: 1})
	expectCode(t, err, pkgerrors.CodeNotFound)

	_, err = env.svc.AddLine(ctx, user, AddLineInput{ProductID: uuid.New(), Quantity: 1})
	expectCode(t, err, pkgerrors.CodeNotFound)

	_, err = env.svc.AddLine(ctx, user, AddLineInput{ProductID: hidden.ID, Quantity: 0})
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestAddLineInsufficientStockKeepsLine(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	user := uuid.New()
	lamp := env.seed("Desk lamp", "100", 4, true)

	if _, err := env.svc.AddLine(ctx, user, AddLineInput{ProductID: lamp.ID, Quantity: 3}); err != nil {
		t.Fatalf("add: %v", err)
	}
	_, err := env.svc.AddLine(ctx, user, AddLineInput{ProductID: lamp.ID, Quantity: 2})
	typed := expectCode(t, err, pkgerrors.CodeInsufficientStock)
	details := typed.Details().(map[string]any)
	if details["available"] != 4 || details["requested"] != 5 {
		t.Fatalf("unexpected details %+v", details)
	}

	view, err := env.svc.GetOpenCart(ctx, user)
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if len(view.Lines) != 1 || view.Lines[0].Quantity != 3 {
		t.Fatalf("line should be untouched, got %+v", view.Lines)
	}
}

func TestAdjustLine(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	user := uuid.New()
	pen := env.seed("Pen", "2.25", 4, true)

	view, err := env.svc.AddLine(ctx, user, AddLineInput{ProductID: pen.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	lineID := view.Lines[0].ID

	view, err = env.svc.AdjustLine(ctx, user, lineID, -5)
	if err != nil {
		t.Fatalf("decrease: %v", err)
	}
	if view.Lines[0].Quantity != 1 {
		t.Fatalf("decrease should stop at 1, got %d", view.Lines[0].Quantity)
	}
	if !view.Lines[0].Total.Equal(decimal.RequireFromString("2.25")) {
		t.Fatalf("unexpected total %s", view.Lines[0].Total)
	}

	view, err = env.svc.AdjustLine(ctx, user, lineID, 3)
	if err != nil {
		t.Fatalf("increase: %v", err)
	}
	if view.Lines[0].Quantity != 4 || !view.Lines[0].Total.Equal(decimal.RequireFromString("9")) {
		t.Fatalf("unexpected line %+v", view.Lines[0])
	}

	_, err = env.svc.AdjustLine(ctx, user, lineID, 1)
	expectCode(t, err, pkgerrors.CodeInsufficientStock)

	_, err = env.svc.AdjustLine(ctx, user, lineID, 0)
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestLinesAreScopedToOwner(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	owner, stranger := uuid.New(), uuid.New()
	pen := env.seed("Pen", "2", 10, true)

	view, err := env.svc.AddLine(ctx, owner, AddLineInput{ProductID: pen.ID, Quantity: 1})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	lineID := view.Lines[0].ID

	_, err = env.svc.AdjustLine(ctx, stranger, lineID, 1)
	expectCode(t, err, pkgerrors.CodeNotFound)
	_, err = env.svc.RemoveLine(ctx, stranger, lineID)
	expectCode(t, err, pkgerrors.CodeNotFound)

	view, err = env.svc.RemoveLine(ctx, owner, lineID)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(view.Lines) != 0 || view.ID == nil {
		t.Fatalf("expected open cart without lines, got %+v", view)
	}
}

func TestCompletedCartIsNotReopened(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()
	user := uuid.New()
	pen := env.seed("Pen", "2", 10, true)

	first, err := env.svc.AddLine(ctx, user, AddLineInput{ProductID: pen.ID, Quantity: 1})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	ok, err := env.repo.MarkCompleted(ctx, *first.ID, time.Now().UTC())
	if err != nil || !ok {
		t.Fatalf("mark completed: %v %v", ok, err)
	}
	ok, err = env.repo.MarkCompleted(ctx, *first.ID, time.Now().UTC())
	if err != nil || ok {
		t.Fatalf("second completion must not apply: %v %v", ok, err)
	}

	second, err := env.svc.AddLine(ctx, user, AddLineInput{ProductID: pen.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("add after completion: %v", err)
	}
	if *second.ID == *first.ID {
		t.Fatal("expected a fresh cart after completion")
	}
	if second.ItemCount != 2 {
		t.Fatalf("unexpected item count %d", second.ItemCount)
	}
}

package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/souqly/storefront-backend/api/middleware"
	"github.com/souqly/storefront-backend/internal/auth"
	checkoutsvc "github.com/souqly/storefront-backend/internal/checkout"
	internalorders "github.com/souqly/storefront-backend/internal/orders"
	"github.com/souqly/storefront-backend/internal/pricing"
	product "github.com/souqly/storefront-backend/internal/products"
	"github.com/souqly/storefront-backend/internal/users"
	"github.com/souqly/storefront-backend/pkg/config"
	"github.com/souqly/storefront-backend/pkg/db/models"
	"github.com/souqly/storefront-backend/pkg/enums"
	pkgerrors "github.com/souqly/storefront-backend/pkg/errors"
	"github.com/souqly/storefront-backend/pkg/pagination"
	"github.com/souqly/storefront-backend/pkg/types"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) types.APIError {
	t.Helper()
	var body types.ErrorEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	envelope := struct {
		Data any `json:"data"`
	}{Data: dest}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
}

func asUser(req *http.Request, userID uuid.UUID) *http.Request {
	ctx := middleware.WithUserID(req.Context(), userID.String())
	ctx = middleware.WithAccessID(ctx, "access-1")
	return req.WithContext(ctx)
}

// auth

type stubAuthService struct {
	login      *auth.LoginResponse
	err        error
	loggedOut  string
	gotRequest auth.LoginRequest
}

func (s *stubAuthService) Login(_ context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	s.gotRequest = req
	return s.login, s.err
}

func (s *stubAuthService) Logout(_ context.Context, accessID string) error {
	s.loggedOut = accessID
	return s.err
}

type stubRegisterService struct {
	got auth.RegisterRequest
	err error
}

func (s *stubRegisterService) Register(_ context.Context, req auth.RegisterRequest) (*users.UserDTO, error) {
	s.got = req
	if s.err != nil {
		return nil, s.err
	}
	return &users.UserDTO{ID: uuid.New(), Email: req.Email, Role: enums.UserRoleCustomer}, nil
}

type stubResetService struct {
	requested string
	confirmed auth.PasswordResetConfirmRequest
	err       error
}

func (s *stubResetService) RequestReset(_ context.Context, req auth.PasswordResetRequest) error {
	s.requested = req.Email
	return s.err
}

func (s *stubResetService) ConfirmReset(_ context.Context, req auth.PasswordResetConfirmRequest) error {
	s.confirmed = req
	return s.err
}

func TestAuthLogin(t *testing.T) {
	svc := &stubAuthService{login: &auth.LoginResponse{AccessToken: "token", ExpiresAt: time.Now().Add(time.Hour)}}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"identifier":"a@b.co","password":"hunter22"}`))
	AuthLogin(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a@b.co", svc.gotRequest.Identifier)
	var body auth.LoginResponse
	decodeData(t, rec, &body)
	assert.Equal(t, "token", body.AccessToken)
}

func TestAuthLoginRejectsUnknownFields(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"identifier":"a@b.co","password":"x","remember_me":true}`))
	AuthLogin(&stubAuthService{}, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeValidation), decodeError(t, rec).Code)
}

func TestAuthLogoutUsesSessionFromContext(t *testing.T) {
	svc := &stubAuthService{}
	rec := httptest.NewRecorder()
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil), uuid.New())
	AuthLogout(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "access-1", svc.loggedOut)
}

func TestAuthRegister(t *testing.T) {
	svc := &stubRegisterService{}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register",
		strings.NewReader(`{"first_name":"Mona","last_name":"Adel","email":"mona@example.com","password":"longenough"}`))
	AuthRegister(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "mona@example.com", svc.got.Email)
}

func TestAuthRegisterValidatesPasswordLength(t *testing.T) {
	svc := &stubRegisterService{}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register",
		strings.NewReader(`{"first_name":"Mona","last_name":"Adel","email":"mona@example.com","password":"short"}`))
	AuthRegister(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	apiErr := decodeError(t, rec)
	details, ok := apiErr.Details.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "must be at least 8", details["password"])
	assert.Empty(t, svc.got.Email)
}

func TestAuthPasswordResetFlow(t *testing.T) {
	svc := &stubResetService{}

	rec := httptest.NewRecorder()
	AuthPasswordReset(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/password-reset",
		strings.NewReader(`{"email":"mona@example.com"}`)))
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "mona@example.com", svc.requested)

	rec = httptest.NewRecorder()
	AuthPasswordResetConfirm(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/password-reset/confirm",
		strings.NewReader(`{"email":"mona@example.com","code":"12ab56","new_password":"longenough"}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	AuthPasswordResetConfirm(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/auth/password-reset/confirm",
		strings.NewReader(`{"email":"mona@example.com","code":"123456","new_password":"longenough"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "123456", svc.confirmed.Code)
}

// checkout

type stubCheckoutService struct {
	summary *checkoutsvc.Summary
	order   *internalorders.OrderDTO
	err     error
	gotUser uuid.UUID
	got     checkoutsvc.PlaceOrderInput
}

func (s *stubCheckoutService) Summary(_ context.Context, userID uuid.UUID) (*checkoutsvc.Summary, error) {
	s.gotUser = userID
	return s.summary, s.err
}

func (s *stubCheckoutService) PlaceOrder(_ context.Context, userID uuid.UUID, input checkoutsvc.PlaceOrderInput) (*internalorders.OrderDTO, error) {
	s.gotUser = userID
	s.got = input
	return s.order, s.err
}

func TestCheckoutPlacesOrder(t *testing.T) {
	svc := &stubCheckoutService{order: &internalorders.OrderDTO{
		Code:            "A1B2C3D4E5",
		Status:          enums.OrderStatusReceived,
		Total:           decimal.NewFromInt(350),
		TotalWithCoupon: decimal.NewFromInt(350),
	}}
	userID := uuid.New()
	body := `{"address":{"name":"Mona","phone":"0100","governorate":"Cairo","address_line":"1 Nile St"},"coupon_code":"EID10"}`
	rec := httptest.NewRecorder()
	Checkout(svc, nil).ServeHTTP(rec, asUser(httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body)), userID))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, userID, svc.gotUser)
	assert.Equal(t, "Cairo", svc.got.Address.Governorate)
	assert.Equal(t, "EID10", svc.got.CouponCode)

	var order internalorders.OrderDTO
	decodeData(t, rec, &order)
	assert.Equal(t, "A1B2C3D4E5", order.Code)
	assert.True(t, order.Total.Equal(decimal.NewFromInt(350)))
}

func TestCheckoutMapsDomainErrors(t *testing.T) {
	cases := map[string]struct {
		err    error
		status int
	}{
		"empty cart":         {pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty"), http.StatusUnprocessableEntity},
		"insufficient stock": {pkgerrors.New(pkgerrors.CodeInsufficientStock, "only 1 left"), http.StatusConflict},
		"concurrent":         {pkgerrors.New(pkgerrors.CodeConcurrentModification, "stock changed"), http.StatusConflict},
		"creation failed":    {pkgerrors.Wrap(pkgerrors.CodeOrderCreationFailed, errors.New("boom"), "create order"), http.StatusInternalServerError},
		"missing cart":       {pkgerrors.New(pkgerrors.CodeNotFound, "cart not found"), http.StatusNotFound},
		"missing address":    {pkgerrors.New(pkgerrors.CodeValidation, "missing required fields"), http.StatusBadRequest},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			svc := &stubCheckoutService{err: tc.err}
			rec := httptest.NewRecorder()
			Checkout(svc, nil).ServeHTTP(rec, asUser(httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"address":{}}`)), uuid.New()))
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestCheckoutSummary(t *testing.T) {
	svc := &stubCheckoutService{summary: &checkoutsvc.Summary{
		ItemCount:   2,
		Subtotal:    decimal.NewFromInt(300),
		DeliveryFee: decimal.NewFromInt(50),
		Total:       decimal.NewFromInt(350),
	}}
	rec := httptest.NewRecorder()
	CheckoutSummary(svc, nil).ServeHTTP(rec, asUser(httptest.NewRequest(http.MethodGet, "/api/v1/checkout", nil), uuid.New()))

	require.Equal(t, http.StatusOK, rec.Code)
	var summary checkoutsvc.Summary
	decodeData(t, rec, &summary)
	assert.True(t, summary.Total.Equal(decimal.NewFromInt(350)))
}

// catalog

type stubProductService struct {
	created  product.CreateProductInput
	updated  product.UpdateProductInput
	listed   product.ListProductsInput
	catalog  product.CatalogQuery
	deleted  uuid.UUID
	slug     string
	delta    int
	gotID    uuid.UUID
	response *product.ProductDTO
	err      error
}

func (s *stubProductService) DeleteProduct(_ context.Context, id uuid.UUID) error {
	s.deleted = id
	return s.err
}

func (s *stubProductService) Catalog(_ context.Context, query product.CatalogQuery) (*product.CatalogPage, error) {
	s.catalog = query
	return &product.CatalogPage{Products: []product.ProductDTO{}, Page: query.Page, PageSize: product.CatalogPageSize}, s.err
}

func (s *stubProductService) GetBySlug(_ context.Context, slug string) (*product.ProductDTO, error) {
	s.slug = slug
	return s.response, s.err
}

func (s *stubProductService) CreateProduct(_ context.Context, input product.CreateProductInput) (*product.ProductDTO, error) {
	s.created = input
	return s.response, s.err
}

func (s *stubProductService) UpdateProduct(_ context.Context, id uuid.UUID, input product.UpdateProductInput) (*product.ProductDTO, error) {
	s.gotID = id
	s.updated = input
	return s.response, s.err
}

func (s *stubProductService) GetProduct(_ context.Context, id uuid.UUID) (*product.ProductDTO, error) {
	s.gotID = id
	return s.response, s.err
}

func (s *stubProductService) ListProducts(_ context.Context, input product.ListProductsInput) (*product.ProductListResult, error) {
	s.listed = input
	return &product.ProductListResult{Products: []product.ProductDTO{}}, s.err
}

func (s *stubProductService) AdjustStock(_ context.Context, id uuid.UUID, delta int) (*product.ProductDTO, error) {
	s.gotID = id
	s.delta = delta
	return s.response, s.err
}

func productRouter(svc product.Service) http.Handler {
	r := chi.NewRouter()
	r.Get("/products", AdminProductList(svc, nil))
	r.Post("/products", AdminProductCreate(svc, nil))
	r.Get("/products/{productId}", AdminProductGet(svc, nil))
	r.Patch("/products/{productId}", AdminProductUpdate(svc, nil))
	r.Delete("/products/{productId}", AdminProductDelete(svc, nil))
	r.Post("/products/{productId}/stock", AdminProductStock(svc, nil))
	r.Get("/catalog", CatalogList(svc, nil))
	r.Get("/catalog/{slug}", CatalogDetail(svc, nil))
	return r
}

func TestAdminProductCreateDefaultsActive(t *testing.T) {
	svc := &stubProductService{response: &product.ProductDTO{ID: uuid.New(), Name: "Desk lamp"}}
	rec := httptest.NewRecorder()
	productRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/products",
		strings.NewReader(`{"name":"Desk lamp","price":"12.50","quantity":4}`)))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, svc.created.IsActive)
	assert.True(t, svc.created.Price.Equal(decimal.RequireFromString("12.50")))
	assert.Equal(t, 4, svc.created.Quantity)
}

func TestAdminProductListParsesFilters(t *testing.T) {
	svc := &stubProductService{}
	rec := httptest.NewRecorder()
	productRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products?active=false&q=lamp&limit=10", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.listed.Active)
	assert.False(t, *svc.listed.Active)
	assert.Equal(t, "lamp", svc.listed.Search)
	assert.Equal(t, 10, svc.listed.Limit)
}

func TestAdminProductUpdateAndStock(t *testing.T) {
	id := uuid.New()
	svc := &stubProductService{response: &product.ProductDTO{ID: id}}

	rec := httptest.NewRecorder()
	productRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/products/"+id.String(), strings.NewReader(`{"is_active":false}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.updated.IsActive)
	assert.False(t, *svc.updated.IsActive)
	assert.Nil(t, svc.updated.Name)

	rec = httptest.NewRecorder()
	productRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/products/"+id.String()+"/stock", strings.NewReader(`{"delta":7}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, svc.gotID)
	assert.Equal(t, 7, svc.delta)
}

func TestAdminProductUpdateCategory(t *testing.T) {
	id := uuid.New()
	categoryID := uuid.New()
	svc := &stubProductService{response: &product.ProductDTO{ID: id}}

	rec := httptest.NewRecorder()
	productRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/products/"+id.String(),
		strings.NewReader(`{"category_id":"`+categoryID.String()+`"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.updated.CategoryID)
	assert.Equal(t, categoryID, *svc.updated.CategoryID)
	assert.False(t, svc.updated.ClearCategory)

	rec = httptest.NewRecorder()
	productRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/products/"+id.String(), strings.NewReader(`{"category_id":""}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, svc.updated.ClearCategory)

	rec = httptest.NewRecorder()
	productRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/products/"+id.String(), strings.NewReader(`{"category_id":"shoes"}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeValidation), decodeError(t, rec).Code)
}

func TestAdminProductDelete(t *testing.T) {
	id := uuid.New()
	svc := &stubProductService{}

	rec := httptest.NewRecorder()
	productRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/products/"+id.String(), nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, id, svc.deleted)

	svc.err = pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	rec = httptest.NewRecorder()
	productRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/products/"+id.String(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCatalogListParsesFilters(t *testing.T) {
	svc := &stubProductService{}
	rec := httptest.NewRecorder()
	productRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/catalog?search=lamp&category=lighting&brand=Lumo&price_range=1000-5000&availability=in_stock&sort=price_desc&page=3", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	q := svc.catalog
	assert.Equal(t, "lamp", q.Search)
	assert.Equal(t, "lighting", q.Category)
	assert.Equal(t, "Lumo", q.Brand)
	require.NotNil(t, q.MinPrice)
	require.NotNil(t, q.MaxPrice)
	assert.True(t, q.MinPrice.Equal(decimal.NewFromInt(1000)))
	assert.True(t, q.MaxPrice.Equal(decimal.NewFromInt(5000)))
	assert.Equal(t, enums.StockAvailabilityInStock, q.Availability)
	assert.Equal(t, enums.CatalogSortPriceDesc, q.Sort)
	assert.Equal(t, 3, q.Page)
}

func TestCatalogListOpenEndedPriceRange(t *testing.T) {
	svc := &stubProductService{}
	rec := httptest.NewRecorder()
	productRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/catalog?price_range=10000-plus", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.catalog.MinPrice)
	assert.True(t, svc.catalog.MinPrice.Equal(decimal.NewFromInt(10000)))
	assert.Nil(t, svc.catalog.MaxPrice)
	assert.Equal(t, enums.CatalogSortNewest, svc.catalog.Sort)
	assert.Equal(t, 1, svc.catalog.Page)
}

func TestCatalogListRejectsBadFilters(t *testing.T) {
	for _, query := range []string{"sort=cheapest", "availability=soon", "price_range=cheap", "min_price=abc", "page=0"} {
		svc := &stubProductService{}
		rec := httptest.NewRecorder()
		productRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/catalog?"+query, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
	}
}

func TestCatalogDetailBySlug(t *testing.T) {
	svc := &stubProductService{response: &product.ProductDTO{Slug: "desk-lamp"}}
	rec := httptest.NewRecorder()
	productRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/catalog/desk-lamp", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "desk-lamp", svc.slug)
}

// categories

type stubCategoryService struct {
	created product.CreateCategoryInput
	updated product.UpdateCategoryInput
	search  string
	gotID   uuid.UUID
	err     error
}

func (s *stubCategoryService) CreateCategory(_ context.Context, input product.CreateCategoryInput) (*product.CategoryDTO, error) {
	s.created = input
	return &product.CategoryDTO{ID: uuid.New(), Name: input.Name}, s.err
}

func (s *stubCategoryService) UpdateCategory(_ context.Context, id uuid.UUID, input product.UpdateCategoryInput) (*product.CategoryDTO, error) {
	s.gotID = id
	s.updated = input
	return &product.CategoryDTO{ID: id}, s.err
}

func (s *stubCategoryService) ListCategories(_ context.Context, search string) ([]product.CategoryDTO, error) {
	s.search = search
	return []product.CategoryDTO{}, s.err
}

func (s *stubCategoryService) DeleteCategory(_ context.Context, id uuid.UUID) (*product.DeleteCategoryResult, error) {
	s.gotID = id
	return &product.DeleteCategoryResult{ID: id, UnassignedProducts: 2}, s.err
}

func categoryRouter(svc product.CategoryService) http.Handler {
	r := chi.NewRouter()
	r.Get("/categories", CategoryList(svc, nil))
	r.Post("/categories", AdminCategoryCreate(svc, nil))
	r.Patch("/categories/{categoryId}", AdminCategoryUpdate(svc, nil))
	r.Delete("/categories/{categoryId}", AdminCategoryDelete(svc, nil))
	return r
}

func TestAdminCategoryCrud(t *testing.T) {
	svc := &stubCategoryService{}
	id := uuid.New()

	rec := httptest.NewRecorder()
	categoryRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/categories",
		strings.NewReader(`{"name":"Lighting","icon":"fa-lightbulb"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Lighting", svc.created.Name)
	assert.Equal(t, "fa-lightbulb", svc.created.Icon)

	rec = httptest.NewRecorder()
	categoryRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/categories", strings.NewReader(`{"icon":"x"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	categoryRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/categories/"+id.String(), strings.NewReader(`{"description":"Lamps"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, svc.gotID)
	require.NotNil(t, svc.updated.Description)
	assert.Nil(t, svc.updated.Name)

	rec = httptest.NewRecorder()
	categoryRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/categories?search=lig", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "lig", svc.search)

	rec = httptest.NewRecorder()
	categoryRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/categories/"+id.String(), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var result product.DeleteCategoryResult
	decodeData(t, rec, &result)
	assert.Equal(t, int64(2), result.UnassignedProducts)
}

// users

type stubUserAdmin struct {
	listed  users.ListUsersInput
	actor   uuid.UUID
	deleted uuid.UUID
	err     error
}

func (s *stubUserAdmin) ListUsers(_ context.Context, input users.ListUsersInput) (*users.UserListResult, error) {
	s.listed = input
	return &users.UserListResult{Users: []users.UserDTO{}}, s.err
}

func (s *stubUserAdmin) DeleteUser(_ context.Context, actorID, userID uuid.UUID) error {
	s.actor = actorID
	s.deleted = userID
	return s.err
}

func TestAdminUserListAndDelete(t *testing.T) {
	svc := &stubUserAdmin{}
	r := chi.NewRouter()
	r.Get("/users", AdminUserList(svc, nil))
	r.Delete("/users/{userId}", AdminUserDelete(svc, nil))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/users?q=mona&limit=5", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "mona", svc.listed.Search)
	assert.Equal(t, 5, svc.listed.Limit)

	staff, target := uuid.New(), uuid.New()
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, asUser(httptest.NewRequest(http.MethodDelete, "/users/"+target.String(), nil), staff))
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, staff, svc.actor)
	assert.Equal(t, target, svc.deleted)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/users/"+target.String(), nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// pricing

type stubFeeRepo struct{ got decimal.Decimal }

func (s *stubFeeRepo) Create(_ context.Context, fee decimal.Decimal) (*models.DeliveryFee, error) {
	s.got = fee
	return &models.DeliveryFee{ID: 2, Fee: fee, CreatedAt: time.Now()}, nil
}

type stubCouponRepo struct{ got pricing.CreateCouponInput }

func (s *stubCouponRepo) Create(_ context.Context, input pricing.CreateCouponInput) (*models.Coupon, error) {
	s.got = input
	return &models.Coupon{ID: uuid.New(), Code: input.Code, Quantity: input.Quantity, DiscountPercent: input.DiscountPercent}, nil
}

func TestAdminDeliveryFeeCreate(t *testing.T) {
	repo := &stubFeeRepo{}
	rec := httptest.NewRecorder()
	AdminDeliveryFeeCreate(repo, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/v1/delivery-fees", strings.NewReader(`{"fee":65}`)))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, repo.got.Equal(decimal.NewFromInt(65)))
}

func TestAdminCouponCreateLeavesDatesToDefaults(t *testing.T) {
	repo := &stubCouponRepo{}
	rec := httptest.NewRecorder()
	AdminCouponCreate(repo, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/v1/coupons",
		strings.NewReader(`{"code":"EID10","quantity":5,"discount_percent":10}`)))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "EID10", repo.got.Code)
	assert.True(t, repo.got.StartDate.IsZero())
	assert.True(t, repo.got.EndDate.IsZero())
}

// staff orders

type stubAdminOrders struct {
	internalorders.Service
	filters internalorders.AdminOrderFilters
	status  internalorders.UpdateStatusInput
	code    string
	err     error
}

func (s *stubAdminOrders) AdminList(_ context.Context, _ pagination.Params, filters internalorders.AdminOrderFilters) (*internalorders.OrderList, error) {
	s.filters = filters
	return &internalorders.OrderList{Orders: []internalorders.OrderDTO{}}, s.err
}

func (s *stubAdminOrders) UpdateStatus(_ context.Context, code string, input internalorders.UpdateStatusInput) (*internalorders.OrderDTO, error) {
	s.code = code
	s.status = input
	if s.err != nil {
		return nil, s.err
	}
	return &internalorders.OrderDTO{Code: code, Status: input.Status}, nil
}

func (s *stubAdminOrders) Dashboard(_ context.Context, _ time.Time) (*internalorders.Dashboard, error) {
	return &internalorders.Dashboard{TotalOrders: 3, MonthRevenue: decimal.NewFromInt(200)}, s.err
}

func adminRouter(svc internalorders.Service) http.Handler {
	r := chi.NewRouter()
	r.Get("/orders", AdminOrderList(svc, nil))
	r.Patch("/orders/{code}/status", AdminOrderStatus(svc, nil))
	r.Get("/dashboard", AdminDashboard(svc, nil))
	return r
}

func TestAdminOrderListParsesStatus(t *testing.T) {
	svc := &stubAdminOrders{}
	rec := httptest.NewRecorder()
	adminRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders?status=shipped&q=mona", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.filters.Status)
	assert.Equal(t, enums.OrderStatusShipped, *svc.filters.Status)
	assert.Equal(t, "mona", svc.filters.Query)

	rec = httptest.NewRecorder()
	adminRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders?status=lost", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminOrderStatusForwardsOverride(t *testing.T) {
	svc := &stubAdminOrders{}
	rec := httptest.NewRecorder()
	adminRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/orders/A1B2C3D4E5/status",
		strings.NewReader(`{"status":"Received","override":true}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "A1B2C3D4E5", svc.code)
	assert.Equal(t, enums.OrderStatusReceived, svc.status.Status)
	assert.True(t, svc.status.Override)
}

func TestAdminOrderStatusBackwardsIsStateConflict(t *testing.T) {
	svc := &stubAdminOrders{err: pkgerrors.New(pkgerrors.CodeStateConflict, "order status can only move forward")}
	rec := httptest.NewRecorder()
	adminRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/orders/A1B2C3D4E5/status",
		strings.NewReader(`{"status":"Received"}`)))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeStateConflict), decodeError(t, rec).Code)
}

func TestAdminDashboard(t *testing.T) {
	rec := httptest.NewRecorder()
	adminRouter(&stubAdminOrders{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var dashboard internalorders.Dashboard
	decodeData(t, rec, &dashboard)
	assert.EqualValues(t, 3, dashboard.TotalOrders)
}

// health

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}

	rec := httptest.NewRecorder()
	HealthReady(cfg, map[string]Pinger{"db": stubPinger{}, "redis": stubPinger{}}, nil).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dev", rec.Header().Get("X-Storefront-Env"))

	rec = httptest.NewRecorder()
	HealthReady(cfg, map[string]Pinger{"redis": stubPinger{err: errors.New("refused")}}, nil).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "redis", decodeError(t, rec).Details.(map[string]any)["dependency"])
}

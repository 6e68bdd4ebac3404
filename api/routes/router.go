package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/souqly/storefront-backend/api/controllers"
	cartcontrollers "github.com/souqly/storefront-backend/api/controllers/cart"
	ordercontrollers "github.com/souqly/storefront-backend/api/controllers/orders"
	"github.com/souqly/storefront-backend/api/middleware"
	"github.com/souqly/storefront-backend/internal/auth"
	"github.com/souqly/storefront-backend/internal/cart"
	checkoutsvc "github.com/souqly/storefront-backend/internal/checkout"
	"github.com/souqly/storefront-backend/internal/orders"
	products "github.com/souqly/storefront-backend/internal/products"
	"github.com/souqly/storefront-backend/internal/users"
	"github.com/souqly/storefront-backend/pkg/auth/session"
	"github.com/souqly/storefront-backend/pkg/config"
	"github.com/souqly/storefront-backend/pkg/db"
	"github.com/souqly/storefront-backend/pkg/enums"
	"github.com/souqly/storefront-backend/pkg/logger"
	"github.com/souqly/storefront-backend/pkg/metrics"
	"github.com/souqly/storefront-backend/pkg/redis"
)

// Deps carries everything the HTTP surface needs. Kafka, HTTPMetrics and
// MetricsHandler are optional.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	DB             db.Pinger
	Redis          *redis.Client
	Kafka          controllers.Pinger
	Sessions       session.AccessSessionChecker
	HTTPMetrics    *metrics.HTTPMetrics
	MetricsHandler http.Handler

	Auth          auth.Service
	Register      auth.RegisterService
	PasswordReset auth.PasswordResetService
	Cart          cart.Service
	Checkout      checkoutsvc.Service
	Orders        orders.Service
	Products      products.Service
	Categories    products.CategoryService
	Users         users.AdminService
	DeliveryFees  controllers.DeliveryFeeCreator
	Coupons       controllers.CouponCreator
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	// a nil *redis.Client must not reach the middleware as a non-nil interface
	var idempotencyStore redis.IdempotencyStore
	var limiter middleware.RateLimiter
	if d.Redis != nil {
		idempotencyStore = d.Redis
		limiter = d.Redis
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.CORS.AllowedOrigins),
		middleware.Logging(logg, d.HTTPMetrics),
	)

	limits := cfg.AuthRateLimit
	loginPolicy := middleware.NewAuthRateLimitPolicy("login", limits.LoginWindow, limits.LoginIPLimit, limits.LoginIdentityLimit)
	registerPolicy := middleware.NewAuthRateLimitPolicy("register", limits.RegisterWindow, limits.RegisterIPLimit, 0)
	resetPolicy := middleware.NewAuthRateLimitPolicy("password-reset", limits.ResetWindow, limits.ResetIPLimit, limits.ResetIdentityLimit)

	readiness := map[string]controllers.Pinger{}
	if d.DB != nil {
		readiness["db"] = d.DB
	}
	if d.Redis != nil {
		readiness["redis"] = d.Redis
	}
	if d.Kafka != nil {
		readiness["kafka"] = d.Kafka
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, readiness, logg))
	})

	metricsHandler := d.MetricsHandler
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	authMW := middleware.Auth(cfg.JWT, d.Sessions, logg)

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, limiter, logg)).Post("/register", controllers.AuthRegister(d.Register, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, limiter, logg)).Post("/login", controllers.AuthLogin(d.Auth, logg))
		r.With(middleware.AuthRateLimit(resetPolicy, limiter, logg)).Post("/password-reset", controllers.AuthPasswordReset(d.PasswordReset, logg))
		r.With(middleware.AuthRateLimit(resetPolicy, limiter, logg)).Post("/password-reset/confirm", controllers.AuthPasswordResetConfirm(d.PasswordReset, logg))
		r.With(authMW).Post("/logout", controllers.AuthLogout(d.Auth, logg))
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.CatalogList(d.Products, logg))
		r.Get("/{slug}", controllers.CatalogDetail(d.Products, logg))
	})
	r.Get("/api/v1/categories", controllers.CategoryList(d.Categories, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(authMW)
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.CartFetch(d.Cart, logg))
			r.Post("/lines", cartcontrollers.CartAddLine(d.Cart, logg))
			r.Patch("/lines/{lineId}", cartcontrollers.CartAdjustLine(d.Cart, logg))
			r.Delete("/lines/{lineId}", cartcontrollers.CartRemoveLine(d.Cart, logg))
		})

		r.Get("/checkout", controllers.CheckoutSummary(d.Checkout, logg))
		r.Post("/checkout", controllers.Checkout(d.Checkout, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.List(d.Orders, logg))
			r.Get("/{code}", ordercontrollers.Detail(d.Orders, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(authMW)
		r.Use(middleware.RequireRole(enums.UserRoleStaff, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Get("/dashboard", controllers.AdminDashboard(d.Orders, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrderList(d.Orders, logg))
			r.Get("/{code}", controllers.AdminOrderDetail(d.Orders, logg))
			r.Patch("/{code}/status", controllers.AdminOrderStatus(d.Orders, logg))
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.AdminProductList(d.Products, logg))
			r.Post("/", controllers.AdminProductCreate(d.Products, logg))
			r.Get("/{productId}", controllers.AdminProductGet(d.Products, logg))
			r.Patch("/{productId}", controllers.AdminProductUpdate(d.Products, logg))
			r.Delete("/{productId}", controllers.AdminProductDelete(d.Products, logg))
			r.Post("/{productId}/stock", controllers.AdminProductStock(d.Products, logg))
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", controllers.CategoryList(d.Categories, logg))
			r.Post("/", controllers.AdminCategoryCreate(d.Categories, logg))
			r.Patch("/{categoryId}", controllers.AdminCategoryUpdate(d.Categories, logg))
			r.Delete("/{categoryId}", controllers.AdminCategoryDelete(d.Categories, logg))
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", controllers.AdminUserList(d.Users, logg))
			r.Delete("/{userId}", controllers.AdminUserDelete(d.Users, logg))
		})

		r.Post("/delivery-fees", controllers.AdminDeliveryFeeCreate(d.DeliveryFees, logg))
		r.Post("/coupons", controllers.AdminCouponCreate(d.Coupons, logg))
	})

	return r
}

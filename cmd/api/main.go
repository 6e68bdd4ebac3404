package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/souqly/storefront-backend/api/controllers"
	"github.com/souqly/storefront-backend/api/routes"
	"github.com/souqly/storefront-backend/internal/auth"
	"github.com/souqly/storefront-backend/internal/cart"
	"github.com/souqly/storefront-backend/internal/checkout"
	"github.com/souqly/storefront-backend/internal/notifications"
	"github.com/souqly/storefront-backend/internal/orders"
	"github.com/souqly/storefront-backend/internal/pricing"
	products "github.com/souqly/storefront-backend/internal/products"
	"github.com/souqly/storefront-backend/internal/users"
	"github.com/souqly/storefront-backend/pkg/auth/session"
	"github.com/souqly/storefront-backend/pkg/config"
	"github.com/souqly/storefront-backend/pkg/db"
	"github.com/souqly/storefront-backend/pkg/instance"
	"github.com/souqly/storefront-backend/pkg/kafka"
	"github.com/souqly/storefront-backend/pkg/logger"
	"github.com/souqly/storefront-backend/pkg/mailer"
	"github.com/souqly/storefront-backend/pkg/metrics"
	"github.com/souqly/storefront-backend/pkg/migrate"
	"github.com/souqly/storefront-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx := context.Background()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	var kafkaPinger controllers.Pinger
	events := orders.NewEventPublisher(nil)
	if cfg.Kafka.Enabled() {
		producer, perr := kafka.NewProducer(cfg.Kafka, logg)
		if perr != nil {
			return perr
		}
		defer func() { err = multierr.Append(err, producer.Close()) }()
		kafkaPinger = producer
		events = orders.NewEventPublisher(producer)
	} else {
		logg.Info(ctx, "kafka disabled, order events will not be published")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		return err
	}

	notifier, err := notifications.NewService(mailer.New(cfg.Sendgrid, logg), cfg.Sendgrid.FromName)
	if err != nil {
		return err
	}

	conn := dbClient.DB()
	userRepo := users.NewRepository(conn)
	productRepo := products.NewRepository(conn)
	categoryRepo := products.NewCategoryRepository(conn)
	cartRepo := cart.NewRepository(conn)
	orderRepo := orders.NewRepository(conn)
	feeRepo := pricing.NewDeliveryFeeRepository(conn)
	couponRepo := pricing.NewCouponRepository(conn)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		return err
	}
	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		UserRepo:       userRepo,
		PasswordConfig: cfg.Password,
		Mailer:         notifier,
		Logger:         logg,
	})
	if err != nil {
		return err
	}
	resetService, err := auth.NewPasswordResetService(auth.PasswordResetParams{
		UserRepo:       userRepo,
		Codes:          redisClient,
		Mailer:         notifier,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		return err
	}

	productService, err := products.NewService(productRepo, dbClient)
	if err != nil {
		return err
	}
	categoryService, err := products.NewCategoryService(categoryRepo, dbClient)
	if err != nil {
		return err
	}
	userAdmin, err := users.NewAdminService(userRepo, dbClient)
	if err != nil {
		return err
	}
	cartService, err := cart.NewService(cartRepo, dbClient, productRepo)
	if err != nil {
		return err
	}
	checkoutService, err := checkout.NewService(checkout.Params{
		Tx:              dbClient,
		Carts:           cartRepo,
		Orders:          orderRepo,
		Fees:            feeRepo,
		Coupons:         couponRepo,
		Codes:           checkout.NewCodeGenerator(cfg.Checkout.OrderCodeLength),
		MaxCodeAttempts: cfg.Checkout.MaxCodeAttempts,
		Notifier:        notifier,
		Events:          events,
		Metrics:         checkoutMetrics,
		Logger:          logg,
	})
	if err != nil {
		return err
	}
	orderService, err := orders.NewService(orderRepo, dbClient, productRepo, cfg.Checkout.LowStockThreshold)
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})

	server := &http.Server{
		Addr:              addr,
		ReadHeaderTimeout: 10 * time.Second,
		Handler: routes.NewRouter(routes.Deps{
			Config:         cfg,
			Logger:         logg,
			DB:             dbClient,
			Redis:          redisClient,
			Kafka:          kafkaPinger,
			Sessions:       sessionManager,
			HTTPMetrics:    httpMetrics,
			MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			Auth:           authService,
			Register:       registerService,
			PasswordReset:  resetService,
			Cart:           cartService,
			Checkout:       checkoutService,
			Orders:         orderService,
			Products:       productService,
			Categories:     categoryService,
			Users:          userAdmin,
			DeliveryFees:   feeRepo,
			Coupons:        couponRepo,
		}),
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down api server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

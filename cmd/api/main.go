package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/davemoreau/maplewood-commerce/api/controllers"
	"github.com/davemoreau/maplewood-commerce/api/routes"
	"github.com/davemoreau/maplewood-commerce/internal/auth"
	"github.com/davemoreau/maplewood-commerce/internal/checkout"
	"github.com/davemoreau/maplewood-commerce/internal/orders"
	products "github.com/davemoreau/maplewood-commerce/internal/products"
	"github.com/davemoreau/maplewood-commerce/internal/reviews"
	"github.com/davemoreau/maplewood-commerce/internal/users"
	"github.com/davemoreau/maplewood-commerce/pkg/auth/session"
	"github.com/davemoreau/maplewood-commerce/pkg/config"
	"github.com/davemoreau/maplewood-commerce/pkg/db"
	"github.com/davemoreau/maplewood-commerce/pkg/logger"
	"github.com/davemoreau/maplewood-commerce/pkg/mail"
	"github.com/davemoreau/maplewood-commerce/pkg/metrics"
	"github.com/davemoreau/maplewood-commerce/pkg/migrate"
	"github.com/davemoreau/maplewood-commerce/pkg/outbox"
	"github.com/davemoreau/maplewood-commerce/pkg/redis"
)

const shutdownGrace = 15 * time.Second

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

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)

	var mailer mail.Mailer
	if cfg.SMTP.Enabled() {
		mailer, err = mail.NewSMTPMailer(cfg.SMTP, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to create smtp mailer", err)
			os.Exit(1)
		}
	} else {
		mailer = mail.NewLogMailer(logg)
	}

	usersRepo := users.NewRepository(dbClient.DB())
	ordersRepo := orders.NewRepository(dbClient.DB())
	productsRepo := products.NewRepository(dbClient.DB())
	reviewsRepo := reviews.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		TxRunner:       dbClient,
		UserRepo:       usersRepo,
		SessionManager: sessionManager,
		Outbox:         outboxService,
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(
		dbClient, ordersRepo, usersRepo, productsRepo,
		outboxService, mailer, logg, cfg.SMTP.OwnerEmail, cfg.Orders.StoreTimeout,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	ordersService, err := orders.NewService(ordersRepo, dbClient, outboxService, cfg.Orders)
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	productsService, err := products.NewService(productsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create products service", err)
		os.Exit(1)
	}

	reviewsService, err := reviews.NewService(reviewsRepo, dbClient, outboxService, productsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create reviews service", err)
		os.Exit(1)
	}

	router := routes.NewRouter(routes.RouterParams{
		Config:         cfg,
		Logger:         logg,
		Redis:          redisClient,
		SessionChecker: sessionManager,
		HTTPMetrics:    metrics.NewHTTPMetrics(prometheus.DefaultRegisterer),
		HealthDeps: map[string]controllers.Pinger{
			"database": dbClient,
			"redis":    redisClient,
		},
		AuthService:     authService,
		CheckoutService: checkoutService,
		OrdersService:   ordersService,
		ProductsService: productsService,
		ReviewsService:  reviewsService,
		UsersRepo:       usersRepo,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
			os.Exit(1)
		}
		logg.Info(ctx, "api server shut down gracefully")
	}
}

package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/davemoreau/maplewood-commerce/api/controllers"
	"github.com/davemoreau/maplewood-commerce/api/middleware"
	"github.com/davemoreau/maplewood-commerce/internal/auth"
	checkoutsvc "github.com/davemoreau/maplewood-commerce/internal/checkout"
	"github.com/davemoreau/maplewood-commerce/internal/orders"
	product "github.com/davemoreau/maplewood-commerce/internal/products"
	"github.com/davemoreau/maplewood-commerce/internal/reviews"
	"github.com/davemoreau/maplewood-commerce/internal/users"
	"github.com/davemoreau/maplewood-commerce/pkg/auth/session"
	"github.com/davemoreau/maplewood-commerce/pkg/config"
	"github.com/davemoreau/maplewood-commerce/pkg/enums"
	"github.com/davemoreau/maplewood-commerce/pkg/logger"
	"github.com/davemoreau/maplewood-commerce/pkg/metrics"
	"github.com/davemoreau/maplewood-commerce/pkg/redis"
)

// RouterParams carries everything the HTTP surface depends on.
type RouterParams struct {
	Config         *config.Config
	Logger         *logger.Logger
	Redis          *redis.Client
	SessionChecker session.AccessSessionChecker
	HTTPMetrics    *metrics.HTTPMetrics
	HealthDeps     map[string]controllers.Pinger

	AuthService     auth.Service
	CheckoutService checkoutsvc.Service
	OrdersService   orders.Service
	ProductsService product.Service
	ReviewsService  reviews.Service
	UsersRepo       *users.Repository
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(p.HTTPMetrics),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.HealthDeps))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.Idempotency(p.Redis, logg)).
			With(middleware.AuthRateLimit(registerPolicy, p.Redis, logg)).
			Post("/register", controllers.AuthRegister(p.AuthService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).
			Post("/login", controllers.AuthLogin(p.AuthService, logg))
		r.Post("/refresh", controllers.AuthRefresh(p.AuthService, logg))
		r.Post("/logout", controllers.AuthLogout(p.AuthService, cfg.JWT, logg))
	})

	// Public catalog.
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ProductsList(p.ProductsService, logg))
		r.Get("/{slug}", controllers.ProductDetail(p.ProductsService, logg))
		r.Get("/{productId}/reviews", controllers.ProductReviewsList(p.ReviewsService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, p.SessionChecker, logg))
			r.Use(middleware.Idempotency(p.Redis, logg))
			r.Post("/{productId}/reviews", controllers.ReviewCreate(p.ReviewsService, logg))
		})
	})

	// Customer surface.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.SessionChecker, logg))
		r.Use(middleware.Idempotency(p.Redis, logg))

		r.Post("/checkout", controllers.Checkout(p.CheckoutService, logg))
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrdersList(p.OrdersService, logg))
			r.Get("/{orderNumber}", controllers.OrderDetail(p.OrdersService, logg))
		})
		r.Route("/addresses", func(r chi.Router) {
			r.Get("/", controllers.AddressesList(p.UsersRepo, logg))
			r.Post("/", controllers.AddressAdd(p.UsersRepo, logg))
			r.Delete("/{addressId}", controllers.AddressRemove(p.UsersRepo, logg))
			r.Patch("/{addressId}/default", controllers.AddressSetDefault(p.UsersRepo, logg))
		})
	})

	// Admin surface.
	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.SessionChecker, logg))
		r.Use(middleware.RequireRole(string(enums.RoleAdmin), logg))
		r.Use(middleware.Idempotency(p.Redis, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrdersList(p.OrdersService, logg))
			r.Get("/{orderNumber}", controllers.AdminOrderDetail(p.OrdersService, logg))
			r.Patch("/{orderNumber}/status", controllers.AdminOrderStatusUpdate(p.OrdersService, logg))
		})
		r.Route("/reviews", func(r chi.Router) {
			r.Get("/", controllers.AdminReviewsPending(p.ReviewsService, logg))
			r.Patch("/{reviewId}/moderate", controllers.AdminReviewModerate(p.ReviewsService, logg))
		})
	})

	return r
}

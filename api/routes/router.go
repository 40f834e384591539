package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yawboateng/marketgh-backend/api/controllers"
	"github.com/yawboateng/marketgh-backend/api/middleware"
	cartsvc "github.com/yawboateng/marketgh-backend/internal/cart"
	checkoutsvc "github.com/yawboateng/marketgh-backend/internal/checkout"
	ordersvc "github.com/yawboateng/marketgh-backend/internal/orders"
	"github.com/yawboateng/marketgh-backend/pkg/config"
	"github.com/yawboateng/marketgh-backend/pkg/logger"
	pkgredis "github.com/yawboateng/marketgh-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       controllers.Pinger
	Redis    *pkgredis.Client
	Cart     *cartsvc.Service
	Checkout *checkoutsvc.Service
	Orders   *ordersvc.Service
	OrdersDB *ordersvc.Repository
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Currency(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		pingers := map[string]controllers.Pinger{"postgres": deps.DB}
		if deps.Redis != nil {
			pingers["redis"] = deps.Redis
		}
		r.Get("/ready", controllers.HealthReady(cfg, logg, pingers))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// cart reads serve both guests and authenticated users
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, logg))
			r.Use(middleware.GuestCart(logg))
			r.Get("/cart", controllers.CartFetch(deps.Cart, logg))
			r.Get("/cart/summary", controllers.CartSummary(deps.Cart, logg))
			r.Get("/cart/quantity", controllers.CartQuantity(deps.Cart, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			var idempotencyStore pkgredis.IdempotencyStore
			if deps.Redis != nil {
				idempotencyStore = deps.Redis
			}
			r.Use(middleware.Idempotency(idempotencyStore, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Post("/items", controllers.CartAddItem(deps.Cart, logg))
				r.Post("/items/remove", controllers.CartRemoveItem(deps.Cart, logg))
				r.Post("/sync", controllers.CartSync(deps.Cart, logg))
				r.Post("/delivery-option", controllers.CartDeliveryOption(deps.Cart, logg))
			})

			r.Get("/checkout", controllers.CheckoutPreview(deps.Checkout, logg))
			r.Group(func(r chi.Router) {
				if deps.Redis != nil {
					policy := middleware.NewRateLimitPolicy("checkout", time.Minute, 30, 10)
					r.Use(middleware.RateLimit(policy, deps.Redis, logg))
				}
				r.Post("/checkout", controllers.CheckoutConfirm(deps.Checkout, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.OrdersList(deps.OrdersDB, logg))
				r.Get("/{orderId}", controllers.OrderDetail(deps.Orders, logg))
			})
		})
	})

	return r
}
